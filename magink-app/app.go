package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/magink/magink/magink-app/config"
	"github.com/magink/magink/metrics"
	apisrv "github.com/magink/magink/server/api"
	apimw "github.com/magink/magink/server/api/middleware"
	"github.com/magink/magink/x/chain"
	"github.com/magink/magink/x/magink"
	"github.com/magink/magink/x/magink/contracts"
	"github.com/magink/magink/x/magink/events"
	maginkhttp "github.com/magink/magink/x/magink/http"
	"github.com/magink/magink/x/nftstorage"
	"github.com/magink/magink/x/submit"
	submithttp "github.com/magink/magink/x/submit/http"
)

// App wires the chain client, the contract provider and the submission
// orchestrator. The HTTP API is only built for serve.
type App struct {
	cfg *config.Config
	log zerolog.Logger

	client    *chain.Client
	binding   *contracts.MaginkBinding
	provider  *magink.Provider
	submitter *submit.Handler
	flag      *submit.Flag

	// API server (HTTP)
	apiServer *apisrv.Server

	shutdownFns []func() error
	cancel      context.CancelFunc
}

// NewApp creates a new application instance
func NewApp(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*App, error) {
	app := &App{
		cfg:  cfg,
		log:  log.With().Str("component", "app").Logger(),
		flag: &submit.Flag{},
	}

	if err := app.initialize(ctx); err != nil {
		app.runShutdownFns()
		return nil, fmt.Errorf("failed to initialize app: %w", err)
	}

	return app, nil
}

func (a *App) initialize(ctx context.Context) error {
	if err := a.initializeChain(ctx); err != nil {
		return err
	}
	if err := a.initializeProvider(); err != nil {
		return err
	}
	return a.initializeSubmitter()
}

// initializeChain dials the node and loads the signing key
func (a *App) initializeChain(ctx context.Context) error {
	dialCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	client, err := chain.Dial(dialCtx, a.cfg.Chain, a.log)
	if err != nil {
		return fmt.Errorf("failed to connect to chain: %w", err)
	}
	a.client = client
	a.shutdownFns = append(a.shutdownFns, func() error {
		client.Close()
		return nil
	})

	if _, ok := client.Account(); !ok {
		a.log.Warn().Msg("No signing key configured, transactions are disabled")
	}
	return nil
}

// initializeProvider binds the contract
func (a *App) initializeProvider() error {
	binding, err := contracts.NewMaginkBinding(a.cfg.Chain.ContractAddress)
	if err != nil {
		return fmt.Errorf("failed to bind contract: %w", err)
	}
	a.binding = binding
	a.provider = magink.NewProvider(binding, a.client, a.log)
	return nil
}

// initializeSubmitter sets up metadata storage and the orchestrator
func (a *App) initializeSubmitter() error {
	var uploader submit.Uploader
	if strings.TrimSpace(a.cfg.Storage.APIToken) == "" {
		a.log.Warn().Msg("storage.api_token is empty, wizard minting will fail")
		uploader = unconfiguredStorage{}
	} else {
		storage, err := nftstorage.NewClient(
			a.cfg.Storage.Endpoint,
			a.cfg.Storage.APIToken,
			&http.Client{Timeout: a.cfg.Storage.Timeout},
			a.log,
		)
		if err != nil {
			return fmt.Errorf("failed to create storage client: %w", err)
		}
		uploader = storage
	}

	a.submitter = submit.NewHandler(
		a.cfg.Submit,
		submit.ContractFromProvider(a.provider),
		a.client,
		uploader,
		submit.ImageSourceFor(a.cfg.Submit),
		a.log,
	)
	return nil
}

// initializeAPIServer sets up the HTTP API server with all endpoints
func (a *App) initializeAPIServer() {
	s := apisrv.NewServer(a.cfg.API, a.log)
	s.Use(apimw.RequestID())
	s.Use(apimw.Recover(a.log))
	s.Use(apimw.Logger(a.log, s.Router))
	s.EnableCORS()

	// Health/readiness
	s.Router.HandleFunc("/health", a.handleHealth).Methods(http.MethodGet)
	s.Router.HandleFunc("/ready", a.handleReady).Methods(http.MethodGet)

	// Metrics
	if a.cfg.Metrics.Enabled {
		s.Router.Handle(a.cfg.Metrics.Path, promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{})).
			Methods(http.MethodGet)
	}

	s.Mount(
		maginkhttp.NewHandler(a.provider, a.log),
		submithttp.NewHandler(a.submitter, a.flag, a.log),
	)

	a.apiServer = s
}

// Serve runs the API server and the event log until shutdown.
func (a *App) Serve(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	a.cancel = cancel

	recordBuildInfo()

	if a.cfg.API.Enabled {
		a.initializeAPIServer()
		go func() {
			if err := a.apiServer.Start(runCtx); err != nil {
				a.log.Error().Err(err).Msg("API server error")
				cancel()
			}
		}()
	}

	go a.logEvents(runCtx)

	return a.runWithGracefulShutdown(runCtx)
}

// logEvents writes every contract event to the log. Subscriptions need a
// websocket endpoint; on HTTP endpoints the event log is skipped.
func (a *App) logEvents(ctx context.Context) {
	w := events.NewWatcher(a.client.Eth(), a.binding, a.log)
	ch, err := w.Watch(ctx)
	if err != nil {
		a.log.Warn().Err(err).Msg("Contract event log disabled")
		return
	}
	for evt := range ch {
		a.log.Info().
			Str("event", evt.Name).
			Str("account", evt.Account.Hex()).
			Uint64("block", evt.BlockNumber).
			Str("tx_hash", evt.TxHash.Hex()).
			Msg("Contract event")
	}
}

// runWithGracefulShutdown handles shutdown signals.
func (a *App) runWithGracefulShutdown(ctx context.Context) error {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	a.log.Info().Msg("Magink service started")

	select {
	case <-ctx.Done():
		a.log.Info().Msg("Context canceled, initiating shutdown")
	case sig := <-sigCh:
		a.log.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
	}

	if a.cancel != nil {
		a.cancel()
	}

	return a.Close()
}

// Close releases the chain connection and runs shutdown functions.
func (a *App) Close() error {
	a.log.Info().Msg("Initiating graceful shutdown")
	a.runShutdownFns()
	a.log.Info().Msg("Graceful shutdown complete")
	return nil
}

func (a *App) runShutdownFns() {
	for i := len(a.shutdownFns) - 1; i >= 0; i-- {
		if err := a.shutdownFns[i](); err != nil {
			a.log.Error().Err(err).Msg("Shutdown function error")
		}
	}
	a.shutdownFns = nil
}

// handleHealth responds to health check requests.
func (a *App) handleHealth(w http.ResponseWriter, _ *http.Request) {
	apisrv.WriteJSON(w, http.StatusOK, map[string]string{
		"status":    "healthy",
		"version":   Version,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// handleReady reports ready once the node answers and the contract has code.
func (a *App) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	res := a.provider.GetTotalWizardSupply.Send(ctx, nil, &magink.CallOptions{DefaultCaller: true})
	if !res.Ok() {
		status := "node_unreachable"
		if errors.Is(res.Err, magink.ErrEmptyResult) {
			status = "contract_missing"
		}
		apisrv.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": status,
			"error":  res.Err.Error(),
		})
		return
	}

	_, signer := a.client.Account()
	apisrv.WriteJSON(w, http.StatusOK, map[string]any{
		"status":     "ready",
		"chain_id":   a.client.ChainID().String(),
		"contract":   a.binding.Address().Hex(),
		"signer":     signer,
		"submitting": a.flag.Submitting(),
	})
}

func recordBuildInfo() {
	info := metrics.NewComponentRegistry("magink", "app").NewGaugeVec(prometheus.GaugeOpts{
		Name: "build_info",
		Help: "Build information of the running binary",
	}, []string{"version", "git_commit"})
	info.WithLabelValues(Version, GitCommit).Set(1)
}

// unconfiguredStorage fails every upload; it stands in when no API token is set.
type unconfiguredStorage struct{}

func (unconfiguredStorage) Store(context.Context, nftstorage.Token) (*nftstorage.Result, error) {
	return nil, fmt.Errorf("storage.api_token is not configured: %w", nftstorage.ErrUnauthorized)
}
