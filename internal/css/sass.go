package css

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/bep/godartsass/v2"
	"github.com/cenkalti/backoff/v5"
	"github.com/rs/zerolog/log"
)

// SassRequest is one stylesheet to compile.
type SassRequest struct {
	Path         string
	Source       string
	IncludePaths []string
	SourceMap    bool
}

type SassResult struct {
	CSS       string
	SourceMap string
}

// Compiler compiles a stylesheet dialect into CSS.
type Compiler interface {
	Compile(ctx context.Context, req SassRequest) (SassResult, error)
	Close() error
}

// DartSass compiles through an embedded Dart Sass process, started on first use.
type DartSass struct {
	binary  string
	timeout time.Duration

	mu         sync.Mutex
	transpiler *godartsass.Transpiler
}

// NewDartSass returns a compiler that runs binary (a Dart Sass executable supporting --embedded).
func NewDartSass(binary string, timeout time.Duration) *DartSass {
	return &DartSass{binary: binary, timeout: timeout}
}

func (d *DartSass) start(ctx context.Context) (*godartsass.Transpiler, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.transpiler != nil && !d.transpiler.IsShutDown() {
		return d.transpiler, nil
	}

	t, err := backoff.Retry(ctx, func() (*godartsass.Transpiler, error) {
		t, err := godartsass.Start(godartsass.Options{
			DartSassEmbeddedFilename: d.binary,
			Timeout:                  d.timeout,
			LogEventHandler: func(event godartsass.LogEvent) {
				log.Warn().Str("type", fmt.Sprint(event.Type)).Msg(event.Message)
			},
		})
		if errors.Is(err, context.Canceled) {
			return nil, backoff.Permanent(err)
		}
		return t, err
	}, backoff.WithBackOff(backoff.NewExponentialBackOff()), backoff.WithMaxTries(3))
	if err != nil {
		return nil, fmt.Errorf("failed to start dart sass %q: %w", d.binary, err)
	}

	d.transpiler = t
	return t, nil
}

func (d *DartSass) Compile(ctx context.Context, req SassRequest) (SassResult, error) {
	t, err := d.start(ctx)
	if err != nil {
		return SassResult{}, err
	}

	args := godartsass.Args{
		Source:                  req.Source,
		URL:                     "file://" + filepath.ToSlash(req.Path),
		OutputStyle:             godartsass.OutputStyleExpanded,
		SourceSyntax:            godartsass.SourceSyntaxSCSS,
		IncludePaths:            append([]string{filepath.Dir(req.Path)}, req.IncludePaths...),
		EnableSourceMap:         req.SourceMap,
		SourceMapIncludeSources: req.SourceMap,
	}
	if filepath.Ext(req.Path) == ".sass" {
		args.SourceSyntax = godartsass.SourceSyntaxSASS
	}

	res, err := t.Execute(args)
	if err != nil {
		return SassResult{}, fmt.Errorf("failed to compile %s: %w", req.Path, err)
	}

	return SassResult{CSS: res.CSS, SourceMap: res.SourceMap}, nil
}

func (d *DartSass) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.transpiler == nil {
		return nil
	}
	err := d.transpiler.Close()
	d.transpiler = nil
	return err
}

// WithInlineSourceMap appends the source map as a data url so the engine can chain it.
func WithInlineSourceMap(res SassResult) string {
	if res.SourceMap == "" {
		return res.CSS
	}
	return res.CSS + "\n/*# sourceMappingURL=data:application/json;base64," +
		base64.StdEncoding.EncodeToString([]byte(res.SourceMap)) + " */\n"
}
