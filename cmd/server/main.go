package main

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/veil-waf/phishcheck/internal/config"
	"github.com/veil-waf/phishcheck/internal/handlers"
	"github.com/veil-waf/phishcheck/internal/predict"
	"github.com/veil-waf/phishcheck/internal/ratelimit"
	"github.com/veil-waf/phishcheck/internal/render"
	"github.com/veil-waf/phishcheck/internal/server"
	phishtls "github.com/veil-waf/phishcheck/internal/tls"
	"github.com/veil-waf/phishcheck/internal/ws"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}

	logger := server.SetupLogger(cfg.LogLevel, os.Stdout)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Init components
	predictor := predict.NewClient(cfg.Predict.URL, nil)
	limiter := ratelimit.New(map[string]ratelimit.Bucket{
		"check": {MaxRequests: cfg.Limits.ChecksPerMinute, Window: time.Minute},
	})
	wsManager := ws.NewManager(predictor, limiter, logger)
	frontend := handlers.NewFrontendHandler(predictor, limiter, logger)

	// Build router
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)

	r.Get("/ping", handlers.Ping)
	r.Get("/", frontend.Index)
	r.Post("/check", frontend.Check)
	r.Post("/open", frontend.Open)
	r.Get("/ws", wsManager.HandleWS)
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServerFS(render.Static())))

	// Start background goroutines
	go server.RunWithRecovery(ctx, logger, "ratelimit-cleanup", limiter.CleanupLoop)

	srv := &http.Server{
		Addr:         ":" + cfg.Web.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // WebSocket sessions need unlimited write time
		IdleTimeout:  60 * time.Second,
	}
	srv.RegisterOnShutdown(wsManager.CloseAll)

	serve := func() error {
		logger.Info("server starting", "port", cfg.Web.Port, "predict_url", predictor.Endpoint())
		return srv.ListenAndServe()
	}
	if cfg.TLS.Domain != "" {
		cm := phishtls.NewCertManager(cfg.TLS.Domain, cfg.TLS.ACMEEmail, cfg.Production(), logger)
		ln, err := cm.Listen(ctx)
		if err != nil {
			logger.Error("tls setup failed", "err", err)
			os.Exit(1)
		}
		go redirectHTTP(ctx, logger, cm.RedirectHandler())
		serve = func() error {
			logger.Info("server starting", "addr", ln.Addr().String(), "domain", cfg.TLS.Domain, "predict_url", predictor.Endpoint())
			return srv.Serve(ln)
		}
	}

	if err := server.Serve(ctx, logger, srv, cfg.Web.ShutdownTimeout, serve); err != nil {
		logger.Error("server failed", "err", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}

// redirectHTTP serves ACME challenges and HTTPS redirects on port 80.
func redirectHTTP(ctx context.Context, logger *slog.Logger, h http.Handler) {
	srv := &http.Server{
		Addr:              ":80",
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
	if err := server.Serve(ctx, logger, srv, 5*time.Second, srv.ListenAndServe); err != nil {
		logger.Error("http redirect server failed", "err", err)
	}
}
