package server

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"net/http"
	"runtime/debug"
	"strings"
	"time"
)

// RunWithRecovery runs fn in a loop, recovering from panics with exponential backoff.
// It stops when ctx is cancelled.
func RunWithRecovery(ctx context.Context, logger *slog.Logger, name string, fn func(ctx context.Context)) {
	runWithRecovery(ctx, logger, name, fn, time.Second)
}

func runWithRecovery(ctx context.Context, logger *slog.Logger, name string, fn func(ctx context.Context), base time.Duration) {
	attempt := 0
	for {
		if ctx.Err() != nil {
			logger.Info("goroutine stopped", "name", name, "reason", "context cancelled")
			return
		}

		func() {
			defer func() {
				if r := recover(); r != nil {
					logger.Error("goroutine panicked",
						"name", name,
						"panic", r,
						"stack", string(debug.Stack()),
						"attempt", attempt,
					)
				}
			}()
			fn(ctx)
		}()

		if ctx.Err() != nil {
			return
		}

		// 1x, 2x, 4x, ... the base delay, capped at 5 minutes
		attempt++
		backoff := time.Duration(math.Min(
			float64(base)*math.Pow(2, float64(attempt-1)),
			float64(5*time.Minute),
		))
		logger.Warn("goroutine restarting",
			"name", name,
			"attempt", attempt,
			"backoff", backoff,
		)

		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
	}
}

// SetupLogger creates a structured slog.Logger with JSON output to w.
func SetupLogger(level string, w io.Writer) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: lvl,
	})
	return slog.New(handler)
}

// Serve runs serve until it fails or ctx is cancelled, then shuts srv down
// gracefully within timeout. A clean shutdown returns nil.
func Serve(ctx context.Context, logger *slog.Logger, srv *http.Server, timeout time.Duration, serve func() error) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- serve()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("shutdown signal received")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
