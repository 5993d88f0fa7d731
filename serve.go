package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"

	"github.com/wricardo/snake-api/transport/mcp"
	"github.com/wricardo/snake-api/transport/websocket"
)

// shutdownTimeout bounds the graceful drain after a stop signal.
const shutdownTimeout = 10 * time.Second

// runServe starts the HTTP server, websocket hub and idle reaper and blocks
// until ctx is cancelled.
func runServe(ctx context.Context, opts options, logger *zap.Logger) error {
	svcs, err := initializeServices(ctx, opts, logger)
	if err != nil {
		return err
	}

	listener, err := net.Listen("tcp", opts.Addr)
	if err != nil {
		svcs.Shutdown(context.Background())
		return fmt.Errorf("failed to listen on %s: %w", opts.Addr, err)
	}
	baseURL := loopbackURL(listener.Addr(), opts.PathBase)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup

	hub := websocket.NewHub(liveView(svcs.sessions), opts.StreamInterval, logger)
	wg.Add(1)
	go func() {
		defer wg.Done()
		hub.Run(runCtx)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		svcs.sessions.Run(runCtx, opts.ReapInterval, opts.SessionIdle)
	}()

	handler := buildAPI(svcs.game, hub, opts, baseURL, logger)
	httpServer := newHTTPServer(handler)

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening",
			zap.String("addr", listener.Addr().String()),
			zap.String("render", baseURL+"/render"),
			zap.String("mcp", baseURL+"/mcp"),
		)
		if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	if opts.Ngrok {
		wg.Add(1)
		go func() {
			defer wg.Done()
			runNgrok(runCtx, opts, handler, logger)
		}()
	}

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err = <-serveErr:
		if err != nil {
			logger.Error("HTTP server failed", zap.Error(err))
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if shutdownErr := httpServer.Shutdown(shutdownCtx); shutdownErr != nil {
		logger.Warn("HTTP server shutdown error", zap.Error(shutdownErr))
	}
	cancel()
	wg.Wait()

	if shutdownErr := svcs.Shutdown(shutdownCtx); shutdownErr != nil {
		logger.Warn("session shutdown incomplete", zap.Error(shutdownErr))
	}
	logger.Info("server stopped")
	return err
}

// runNgrok serves handler through an ngrok tunnel until ctx is cancelled.
func runNgrok(ctx context.Context, opts options, handler http.Handler, logger *zap.Logger) {
	if opts.NgrokAuth == "" {
		logger.Warn("ngrok enabled but no auth token provided (use --ngrok-auth or NGROK_AUTHTOKEN)")
		return
	}

	var tunnel ngrokConfig.Tunnel
	if opts.NgrokDomain != "" {
		tunnel = ngrokConfig.HTTPEndpoint(ngrokConfig.WithDomain(opts.NgrokDomain))
	} else {
		tunnel = ngrokConfig.HTTPEndpoint()
	}

	tun, err := ngrok.Listen(ctx, tunnel, ngrok.WithAuthtoken(opts.NgrokAuth))
	if err != nil {
		logger.Error("failed to start ngrok tunnel", zap.Error(err))
		return
	}

	logger.Info("ngrok tunnel established", zap.String("url", tun.URL()))

	srv := newHTTPServer(handler)
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	if err := srv.Serve(tun); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Warn("ngrok server error", zap.Error(err))
	}
	logger.Info("ngrok tunnel closed")
}

// runMCP serves MCP over stdio. It proxies to opts.APIURL when that API
// answers, otherwise it starts an internal API on a loopback port.
func runMCP(ctx context.Context, opts options, logger *zap.Logger) error {
	baseURL := opts.APIURL

	if !apiAvailable(ctx, baseURL) {
		logger.Info("no external API found, starting internal HTTP server", zap.String("checked", baseURL))

		svcs, err := initializeServices(ctx, opts, logger)
		if err != nil {
			return err
		}

		listener, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			svcs.Shutdown(context.Background())
			return fmt.Errorf("failed to get available port: %w", err)
		}

		runCtx, cancel := context.WithCancel(ctx)
		reaperDone := make(chan struct{})
		go func() {
			defer close(reaperDone)
			svcs.sessions.Run(runCtx, opts.ReapInterval, opts.SessionIdle)
		}()

		httpServer := newHTTPServer(buildAPI(svcs.game, nil, opts, "", logger))
		go httpServer.Serve(listener)

		defer func() {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer shutdownCancel()
			httpServer.Shutdown(shutdownCtx)
			cancel()
			<-reaperDone
			svcs.Shutdown(shutdownCtx)
		}()

		baseURL = loopbackURL(listener.Addr(), opts.PathBase)
	}

	logger.Info("MCP stdio server ready", zap.String("api", baseURL))
	return mcp.NewClient(baseURL, logger).ServeStdio()
}

// apiAvailable reports whether a snake API answers its health check.
func apiAvailable(ctx context.Context, baseURL string) bool {
	if baseURL == "" {
		return false
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/healthz", nil)
	if err != nil {
		return false
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}
