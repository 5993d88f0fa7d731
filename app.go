package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/wricardo/snake-api/api"
	"github.com/wricardo/snake-api/game/config"
	"github.com/wricardo/snake-api/game/engine"
	"github.com/wricardo/snake-api/game/service"
	"github.com/wricardo/snake-api/game/session"
	"github.com/wricardo/snake-api/transport/mcp"
	"github.com/wricardo/snake-api/transport/websocket"
)

// newLogger builds the process logger; both variants write to stderr so the
// mcp command keeps stdout for the protocol.
func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// services holds the long-lived components shared by the HTTP and MCP modes.
type services struct {
	configs  *config.Manager
	sessions *session.Manager
	game     service.GameService
	store    *session.BestEffortStore
	close    func() error
}

// Shutdown flushes every session and releases the snapshot store.
func (s *services) Shutdown(ctx context.Context) error {
	err := s.sessions.Close(ctx)
	if s.close != nil {
		err = errors.Join(err, s.close())
	}
	return err
}

// liveView renders sessions that already exist. The websocket hub pushes
// through it so a stale subscription never recreates or hydrates a session.
func liveView(sessions *session.Manager) websocket.RenderFunc {
	return func(_ context.Context, id string) (*engine.View, error) {
		s, err := sessions.Get(id)
		if err != nil {
			return nil, err
		}
		return s.Render(), nil
	}
}

// openStore builds the raw snapshot store selected by opts. The returned
// closer is never nil.
func openStore(opts options) (session.SnapshotStore, func() error, error) {
	noop := func() error { return nil }

	kind, err := opts.storeKind()
	if err != nil {
		return nil, noop, err
	}

	switch kind {
	case storeRedis:
		codec, err := session.CodecByName(opts.Codec)
		if err != nil {
			return nil, noop, err
		}
		store, err := session.DialRedis(opts.RedisURL, codec)
		if err != nil {
			return nil, noop, fmt.Errorf("failed to configure redis store: %w", err)
		}
		return store, store.Close, nil
	case storeFile:
		store, err := session.NewFileStore(opts.SessionsDir)
		if err != nil {
			return nil, noop, err
		}
		return store, noop, nil
	default:
		return nil, noop, nil
	}
}

func loadConfigs(opts options) (*config.Manager, error) {
	if opts.ConfigDir == "" {
		return config.NewStaticManager(), nil
	}
	return config.NewManager(opts.ConfigDir)
}

// initializeServices wires config, snapshot store, session registry and the
// game service. Store outages are tolerated; the store is wrapped so the game
// keeps running in memory while it is unreachable.
func initializeServices(ctx context.Context, opts options, logger *zap.Logger) (*services, error) {
	configManager, err := loadConfigs(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create config manager: %w", err)
	}
	if err := configManager.SetDefault(opts.Mode); err != nil {
		return nil, fmt.Errorf("game mode %q: %w", opts.Mode, err)
	}
	gameConfig := configManager.GetDefault()

	raw, closeStore, err := openStore(opts)
	if err != nil {
		return nil, err
	}

	sessionOpts := []session.Option{session.WithLogger(logger)}
	if opts.MoveRate > 0 {
		sessionOpts = append(sessionOpts, session.WithMoveLimit(rate.Limit(opts.MoveRate), opts.moveBurst()))
	}

	var store *session.BestEffortStore
	if raw != nil {
		store = session.NewBestEffortStore(raw, opts.StoreTimeout, logger)
		sessionOpts = append(sessionOpts,
			session.WithStore(store, opts.SnapshotTTL),
			session.WithHydrateTimeout(opts.StoreTimeout),
		)
		if pinger, ok := raw.(interface{ Ping(context.Context) error }); ok {
			pingCtx, cancel := context.WithTimeout(ctx, opts.StoreTimeout)
			if err := pinger.Ping(pingCtx); err != nil {
				logger.Warn("snapshot store unreachable at startup, continuing without it", zap.Error(err))
			}
			cancel()
		}
	}

	sessionManager, err := session.NewManager(gameConfig, sessionOpts...)
	if err != nil {
		closeStore()
		return nil, fmt.Errorf("failed to create session manager: %w", err)
	}

	logger.Info("services initialized",
		zap.String("mode", gameConfig.Name),
		zap.String("store", storeName(opts)),
		zap.Float64("move_rate", opts.MoveRate),
	)

	return &services{
		configs:  configManager,
		sessions: sessionManager,
		game:     service.NewGameService(sessionManager, configManager, logger),
		store:    store,
		close:    closeStore,
	}, nil
}

func storeName(opts options) string {
	kind, err := opts.storeKind()
	if err != nil {
		return "invalid"
	}
	return kind
}

// buildAPI assembles the HTTP handler. mcpBaseURL is where the MCP proxy
// reaches the REST routes; empty disables /mcp.
func buildAPI(svc service.GameService, hub *websocket.Hub, opts options, mcpBaseURL string, logger *zap.Logger) *api.Server {
	apiOpts := []api.Option{
		api.WithLogger(logger),
		api.WithPathBase(opts.PathBase),
		api.WithAdminToken(opts.AdminToken),
		api.WithStreamInterval(opts.StreamInterval),
	}
	if mcpBaseURL != "" {
		apiOpts = append(apiOpts, api.WithMCPHandler(mcp.NewClient(mcpBaseURL, logger)))
	}
	return api.NewServer(svc, hub, apiOpts...)
}

// loopbackURL turns a listener address into a URL the process can call
// itself on, replacing wildcard hosts with 127.0.0.1.
func loopbackURL(addr net.Addr, pathBase string) string {
	host, port, err := net.SplitHostPort(addr.String())
	if err != nil {
		return "http://" + addr.String() + strings.TrimSuffix(pathBase, "/")
	}
	if ip := net.ParseIP(host); host == "" || (ip != nil && ip.IsUnspecified()) {
		host = "127.0.0.1"
	}
	return "http://" + net.JoinHostPort(host, port) + strings.TrimSuffix(pathBase, "/")
}

func newHTTPServer(handler http.Handler) *http.Server {
	return &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}
