package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/craterhub/authcore/auth"
	"github.com/craterhub/authcore/auth/flowrepo"
	"github.com/craterhub/authcore/clients"
	"github.com/craterhub/authcore/internal/config"
	"github.com/craterhub/authcore/server"
	"github.com/craterhub/authcore/store/sqlite"
	"github.com/craterhub/authcore/token"
)

const flowCleanupInterval = 1 * time.Minute

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if err := run(logger); err != nil {
		logger.Fatal().Err(err).Msg("server exited")
	}
	logger.Info().Msg("server stopped")
}

func run(logger zerolog.Logger) (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error().Interface("panic", r).Msg("recovered from panic")
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	displayAppname(cfg.AppName)

	store, err := sqlite.Open(cfg.DatabasePath)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	flows := flowrepo.NewInMemory()
	go cleanupExpiredFlows(flows, logger)

	tokens, err := token.New([]byte(cfg.SigningKey), cfg.Issuer, token.WithTokenExpiry(cfg.TokenExpiry))
	if err != nil {
		return err
	}
	registry, err := clients.NewRegistry(store.Clients(), store.Grants())
	if err != nil {
		return err
	}
	authService, err := auth.NewAuthorizationService(auth.Repos{
		Clients: store.Clients(),
		Grants:  store.Grants(),
		Flows:   flows,
	}, tokens, auth.WithFlowTTL(cfg.FlowTTL))
	if err != nil {
		return err
	}

	handler, err := server.New(cfg, logger, server.Services{
		Auth:     authService,
		Registry: registry,
		Grants:   store.Grants(),
		Tokens:   tokens,
	})
	if err != nil {
		return err
	}

	httpServer := &http.Server{Addr: cfg.Addr(), Handler: handler}
	go listenAndServe(httpServer, logger)
	waitForStopSignal()
	return shutdown(httpServer)
}

func cleanupExpiredFlows(flows *flowrepo.InMemory, logger zerolog.Logger) {
	ticker := time.NewTicker(flowCleanupInterval)
	defer ticker.Stop()
	for now := range ticker.C {
		if removed := flows.CleanupExpired(now); removed > 0 {
			logger.Debug().Int("removed", removed).Msg("cleaned up expired flows")
		}
	}
}

func listenAndServe(httpServer *http.Server, logger zerolog.Logger) {
	logger.Info().Str("addr", httpServer.Addr).Msg("server listening")
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("server.ListenAndServe")
	}
}

func waitForStopSignal() {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
}

func shutdown(httpServer *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		return errors.Wrap(err, "server.Shutdown")
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
