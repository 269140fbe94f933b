package main

import (
	"context"

	"github.com/alecthomas/kong"
	"github.com/wolfeidau/spabuild/cmd/spabuild/internal/commands"
)

var (
	version = "dev"
	cli     struct {
		Build   commands.BuildCmd   `cmd:"" help:"Build the application for production"`
		Serve   commands.ServeCmd   `cmd:"" help:"Start the development server"`
		Inspect commands.InspectCmd `cmd:"" help:"Print the assembled build configuration"`
		Debug   bool                `help:"Enable debug mode." env:"SPABUILD_DEBUG"`
		Version kong.VersionFlag
	}
)

func main() {
	ctx := context.Background()
	cmd := kong.Parse(&cli,
		kong.Name("spabuild"),
		kong.Description("Build and serve single page applications."),
		kong.Vars{
			"version": version,
		},
		kong.BindTo(ctx, (*context.Context)(nil)))
	err := cmd.Run(&commands.Globals{Debug: cli.Debug, Version: version})
	cmd.FatalIfErrorf(err)
}
