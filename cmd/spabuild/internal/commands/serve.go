package commands

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/wolfeidau/spabuild/internal/assets"
	"github.com/wolfeidau/spabuild/internal/devserver"
)

type ServeCmd struct {
	ProjectFlags   `embed:""`
	TelemetryFlags `embed:""`

	Host        string        `help:"dev server listen host" default:"localhost" env:"SPABUILD_HOST"`
	Port        int           `help:"dev server listen port, 0 uses the configured port" default:"0" env:"SPABUILD_PORT"`
	CORSOrigins []string      `help:"allowed CORS origins" env:"SPABUILD_CORS_ORIGINS"`
	SassBinary  string        `help:"Dart Sass executable used for .scss and .sass files" default:"sass" env:"SPABUILD_SASS_BINARY"`
	Debounce    time.Duration `help:"delay before rebuilding after a project file changes" default:"100ms" env:"SPABUILD_DEBOUNCE"`
}

func (c *ServeCmd) Run(ctx context.Context, globals *Globals) error {
	log := setupLogging(globals)
	log.Info().Str("version", globals.Version).Bool("debug", globals.Debug).Msg("Starting dev server")

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	flush := c.start(ctx, globals.Version)
	defer flush()

	cfg, err := c.assemble(true)
	if err != nil {
		return err
	}

	pipeline, err := assets.New(cfg, assets.WithSassBinary(c.SassBinary))
	if err != nil {
		return err
	}
	defer func() {
		if err := pipeline.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to clean up pipeline")
		}
	}()

	watchCtx, cancel := context.WithCancel(ctx)
	watchErr := make(chan error, 1)
	watchDone := make(chan struct{})
	go func() {
		defer close(watchDone)
		watchErr <- pipeline.Watch(watchCtx)
	}()
	defer func() {
		cancel()
		<-watchDone
	}()

	// project file rebuilds go through the incremental context, so wait for it
	select {
	case <-pipeline.Ready():
	case err := <-watchErr:
		return err
	case <-ctx.Done():
		return nil
	}

	dirs, match := devserver.ProjectFiles(cfg)
	watcher, err := devserver.Watch(dirs, match, c.Debounce, func() {
		if _, err := pipeline.Rebuild(); err != nil {
			log.Warn().Err(err).Msg("Rebuild failed")
		}
	})
	if err != nil {
		return fmt.Errorf("failed to watch project files: %w", err)
	}
	defer watcher.Close()

	port := c.Port
	if port == 0 {
		port = cfg.DevServer.Port
	}
	addr := net.JoinHostPort(c.Host, strconv.Itoa(port))

	srv := configureHTTPServer(addr, devserver.Handler(cfg, devserver.Options{
		CORSOrigins: c.CORSOrigins,
		Logger:      log,
	}))

	serveErr := make(chan error, 1)
	go func() {
		log.Info().Str("url", "http://"+addr+"/").Str("public_path", cfg.Output.PublicPath).Msg("Dev server listening")
		serveErr <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("Shutting down dev server")
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("dev server failed: %w", err)
		}
		return nil
	case err := <-watchErr:
		if err != nil {
			return err
		}
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	return srv.Shutdown(shutdownCtx)
}
