package app

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	server "fracturelab/server"
	servernet "fracturelab/server/internal/net"
	"fracturelab/server/internal/telemetry"
	"fracturelab/server/logging"
	loggingSinks "fracturelab/server/logging/sinks"
)

// Run wires the logging router, builds the hub, and serves the HTTP surface
// until the context is cancelled or the listener fails.
func Run(ctx context.Context, cfg Config) error {
	telemetryLogger := telemetry.WrapLogger(log.Default())

	applyEnvOverrides(&cfg, telemetryLogger)

	router, cleanup, err := buildRouter(cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to construct logging router: %w", err)
	}
	defer func() {
		if cerr := cleanup(ctx); cerr != nil {
			telemetryLogger.Printf("failed to close logging router: %v", cerr)
		}
	}()

	metrics := &logging.Metrics{}

	hub, err := server.NewHub(server.HubConfig{
		TickRate:       cfg.TickRate,
		BroadcastEvery: cfg.BroadcastEvery,
		RefreshPeriod:  cfg.RefreshPeriod,
		Specimen:       cfg.Specimen,
		Loading:        cfg.Loading,
		LoadingSteps:   cfg.LoadingSteps,
		Publisher:      router,
		Logger:         telemetryLogger,
		Metrics:        telemetry.WrapMetrics(metrics),
	})
	if err != nil {
		return fmt.Errorf("failed to build hub: %w", err)
	}

	stop := make(chan struct{})
	go hub.RunSimulation(stop)
	defer close(stop)

	handler := servernet.NewHTTPHandler(hub, servernet.HTTPHandlerConfig{
		Logger: log.Default(),
	})

	srv := &http.Server{Addr: cfg.Addr, Handler: handler}
	telemetryLogger.Printf("server listening on %s", srv.Addr)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown failed: %w", err)
		}
		return nil
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	}
}

// applyEnvOverrides layers environment variables over the loaded config.
func applyEnvOverrides(cfg *Config, logger telemetry.Logger) {
	if raw := os.Getenv("FRACTURE_ADDR"); raw != "" {
		cfg.Addr = raw
	}
	if raw := os.Getenv("FRACTURE_REFRESH_PERIOD"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil {
			cfg.RefreshPeriod = value
		} else {
			logger.Printf("invalid FRACTURE_REFRESH_PERIOD=%q: %v", raw, err)
		}
	}
	if raw := os.Getenv("FRACTURE_TICK_RATE"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil {
			cfg.TickRate = value
		} else {
			logger.Printf("invalid FRACTURE_TICK_RATE=%q: %v", raw, err)
		}
	}
	if raw := os.Getenv("FRACTURE_LOADING"); raw != "" {
		cfg.Loading = raw
	}
}

// buildRouter assembles the event router from the enabled sinks.
func buildRouter(cfg logging.Config) (*logging.Router, func(context.Context) error, error) {
	var named []logging.NamedSink
	var closers []func(context.Context) error

	if cfg.HasSink("console") {
		named = append(named, logging.NamedSink{
			Name: "console",
			Sink: loggingSinks.NewConsoleSink(os.Stdout, cfg.Console),
		})
	}
	if cfg.HasSink("json") && cfg.JSON.FilePath != "" {
		file, err := os.OpenFile(cfg.JSON.FilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open json sink %s: %w", cfg.JSON.FilePath, err)
		}
		named = append(named, logging.NamedSink{Name: "json", Sink: loggingSinks.NewJSON(file)})
		closers = append(closers, func(context.Context) error { return file.Close() })
	}

	router, err := logging.NewRouter(logging.SystemClock{}, cfg, named)
	if err != nil {
		return nil, nil, err
	}

	cleanup := func(ctx context.Context) error {
		err := router.Close(ctx)
		for _, c := range closers {
			if cerr := c(ctx); cerr != nil && err == nil {
				err = cerr
			}
		}
		return err
	}
	return router, cleanup, nil
}
