package auth

import "time"

// FlowRepo is the TTL key-value collaborator holding ephemeral flow state.
//
// Accept, Reject, and ConsumeCode are the linearization points of the
// protocol: each must perform its state check and transition inside one
// critical section, so concurrent settlements of the same flow serialize and
// exactly one wins.
//
// Accept moves a flow from Created to Accepted and records the minted code;
// Reject removes a Created flow outright. Both fail ErrFlowNotFound when the
// flow is absent, expired, or already settled (indistinguishably), and
// ErrFlowOwnerMismatch when userID is not the flow's owner.
//
// ConsumeCode does the same for single-use codes: it atomically finds the
// flow in Accepted state holding the code, checks its expiry against now, and
// transitions it to Exchanged. Among concurrent calls with the same code
// exactly one succeeds; the rest fail ErrFlowNotFound.
//
// Expiry is otherwise lazy; implementations may sweep expired entries for
// hygiene but correctness never depends on it.
type FlowRepo interface {
	Upsert(flow *Flow) error
	Get(flowID string) (*Flow, error)
	Delete(flowID string) error
	Accept(flowID, userID, code string, now time.Time) (*Flow, error)
	Reject(flowID, userID string, now time.Time) (*Flow, error)
	ConsumeCode(code string, now time.Time) (*Flow, error)
}
