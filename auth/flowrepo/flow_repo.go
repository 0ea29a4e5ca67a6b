// Package flowrepo holds authorization flow state in memory. Flows are
// short-lived, so process-local storage suffices for a single-node
// deployment; a shared cache with the same contract replaces it when the
// server runs more than one instance.
package flowrepo

import (
	"sync"
	"time"

	"github.com/craterhub/authcore/auth"
)

var _ auth.FlowRepo = (*InMemory)(nil)

// InMemory is a thread-safe in-memory auth.FlowRepo.
type InMemory struct {
	mu     sync.Mutex
	flows  map[string]*auth.Flow // keyed by flow ID
	byCode map[string]string     // authorization code -> flow ID
}

func NewInMemory() *InMemory {
	return &InMemory{
		flows:  make(map[string]*auth.Flow),
		byCode: make(map[string]string),
	}
}

func (r *InMemory) Upsert(flow *auth.Flow) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	clone := *flow
	r.flows[flow.ID] = &clone
	if flow.Code != "" {
		r.byCode[flow.Code] = flow.ID
	}
	return nil
}

func (r *InMemory) Get(flowID string) (*auth.Flow, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	flow, ok := r.flows[flowID]
	if !ok {
		return nil, auth.ErrFlowNotFound
	}
	clone := *flow
	return &clone, nil
}

func (r *InMemory) Delete(flowID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.remove(flowID)
	return nil
}

// Accept moves a Created flow to Accepted and records its code, all under
// one lock. A flow settled by a concurrent Reject cannot be resurrected.
func (r *InMemory) Accept(flowID, userID, code string, now time.Time) (*auth.Flow, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	flow, err := r.liveLocked(flowID, userID, now)
	if err != nil {
		return nil, err
	}

	flow.Code = code
	flow.Status = auth.FlowAccepted
	r.byCode[code] = flow.ID
	clone := *flow
	return &clone, nil
}

// Reject removes a Created flow, all under one lock.
func (r *InMemory) Reject(flowID, userID string, now time.Time) (*auth.Flow, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	flow, err := r.liveLocked(flowID, userID, now)
	if err != nil {
		return nil, err
	}

	clone := *flow
	r.remove(flowID)
	return &clone, nil
}

// liveLocked loads a flow still awaiting the user's decision. Absent,
// expired, and already-settled flows all come back ErrFlowNotFound so
// callers cannot tell them apart. Must be called with the lock held.
func (r *InMemory) liveLocked(flowID, userID string, now time.Time) (*auth.Flow, error) {
	flow, ok := r.flows[flowID]
	if !ok {
		return nil, auth.ErrFlowNotFound
	}
	if flow.Expired(now) {
		r.remove(flowID)
		return nil, auth.ErrFlowNotFound
	}
	if flow.UserID != userID {
		return nil, auth.ErrFlowOwnerMismatch
	}
	if flow.Status != auth.FlowCreated {
		return nil, auth.ErrFlowNotFound
	}
	return flow, nil
}

// ConsumeCode finds the accepted, unexpired flow holding code and marks it
// exchanged, all under one lock. Exactly one concurrent caller wins.
func (r *InMemory) ConsumeCode(code string, now time.Time) (*auth.Flow, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	flowID, ok := r.byCode[code]
	if !ok {
		return nil, auth.ErrFlowNotFound
	}
	flow, ok := r.flows[flowID]
	if !ok || flow.Status != auth.FlowAccepted {
		return nil, auth.ErrFlowNotFound
	}
	if flow.Expired(now) {
		r.remove(flowID)
		return nil, auth.ErrFlowNotFound
	}

	flow.Status = auth.FlowExchanged
	delete(r.byCode, code)
	clone := *flow
	return &clone, nil
}

// CleanupExpired drops flows past their TTL and returns how many were
// removed. Purely storage hygiene; expiry is already enforced lazily on
// access.
func (r *InMemory) CleanupExpired(now time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for id, flow := range r.flows {
		if flow.Expired(now) {
			r.remove(id)
			removed++
		}
	}
	return removed
}

// remove must be called with the lock held.
func (r *InMemory) remove(flowID string) {
	if flow, ok := r.flows[flowID]; ok {
		if flow.Code != "" {
			delete(r.byCode, flow.Code)
		}
		delete(r.flows, flowID)
	}
}
