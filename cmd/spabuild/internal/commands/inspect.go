package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/wolfeidau/spabuild/internal/bundle"
	"gopkg.in/yaml.v3"
)

type InspectCmd struct {
	ProjectFlags `embed:""`

	Serve  bool   `help:"inspect the development configuration instead of production" default:"false"`
	Format string `help:"output format" default:"json" enum:"json,yaml" env:"SPABUILD_FORMAT"`
}

func (c *InspectCmd) Run(globals *Globals) error {
	setupLogging(globals)

	cfg, err := c.assemble(c.Serve)
	if err != nil {
		return err
	}
	return writeConfig(os.Stdout, cfg, c.Format)
}

func writeConfig(w io.Writer, cfg *bundle.Config, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(cfg)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(cfg); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unsupported format %q", format)
	}
}
