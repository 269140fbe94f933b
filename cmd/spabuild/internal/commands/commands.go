package commands

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/spabuild/internal/bundle"
	"github.com/wolfeidau/spabuild/internal/logger"
	"github.com/wolfeidau/spabuild/internal/telemetry"
)

const serviceName = "spabuild"

type Globals struct {
	Debug   bool
	Version string
}

// ProjectFlags locate the application.
type ProjectFlags struct {
	Dir string `help:"application directory containing package.json" default:"." env:"SPABUILD_DIR" type:"existingdir"`
}

// assemble loads the .env files for the mode into the process environment and assembles the configuration.
func (p ProjectFlags) assemble(serve bool) (*bundle.Config, error) {
	dir, err := filepath.Abs(p.Dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve application directory: %w", err)
	}

	mode := bundle.ResolveMode(serve)
	loaded := bundle.LoadDotenv(dir, mode, os.Getenv(bundle.EnvNodeEnv))
	if len(loaded) > 0 {
		log.Debug().Strs("files", loaded).Msg("Loaded environment files")
	}

	cfg, err := bundle.Assemble(bundle.EnvFromOS(serve, dir))
	if err != nil {
		return nil, fmt.Errorf("failed to assemble configuration: %w", err)
	}
	return cfg, nil
}

type TelemetryFlags struct {
	Telemetry bool `help:"export build metrics and traces over OTLP" default:"false" env:"SPABUILD_TELEMETRY"`
}

// start initialises telemetry when enabled. The returned function flushes it.
func (f TelemetryFlags) start(ctx context.Context, version string) func() {
	if !f.Telemetry {
		return func() {}
	}

	log.Info().Msg("Telemetry is enabled")
	shutdown, err := telemetry.InitTelemetry(ctx, serviceName, version)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to initialize telemetry, continuing without metrics")
		return func() {}
	}

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Failed to shutdown telemetry")
		}
	}
}

func setupLogging(globals *Globals) zerolog.Logger {
	log.Logger = logger.Setup(globals.Debug)
	return log.Logger
}

func configureHTTPServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Minute,
		WriteTimeout:      5 * time.Minute,
		IdleTimeout:       5 * time.Minute,
		MaxHeaderBytes:    8 * 1024, // 8KiB
	}
}
