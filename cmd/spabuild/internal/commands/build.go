package commands

import (
	"context"

	"github.com/wolfeidau/spabuild/internal/assets"
)

type BuildCmd struct {
	ProjectFlags   `embed:""`
	TelemetryFlags `embed:""`

	SassBinary string `help:"Dart Sass executable used for .scss and .sass files" default:"sass" env:"SPABUILD_SASS_BINARY"`
}

func (c *BuildCmd) Run(ctx context.Context, globals *Globals) error {
	log := setupLogging(globals)
	log.Info().Str("version", globals.Version).Bool("debug", globals.Debug).Msg("Starting build")

	flush := c.start(ctx, globals.Version)
	defer flush()

	cfg, err := c.assemble(false)
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

	res, err := pipeline.Build(ctx)
	if err != nil {
		return err
	}

	log.Info().
		Str("outdir", cfg.Output.Path).
		Int("files", len(res.Outputs)).
		Int64("bytes", res.OutputBytes).
		Dur("duration", res.Duration).
		Msg("Build complete")
	return nil
}
