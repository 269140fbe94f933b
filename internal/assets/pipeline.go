package assets

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/wolfeidau/spabuild/internal/bundle"
	"github.com/wolfeidau/spabuild/internal/cache"
	"github.com/wolfeidau/spabuild/internal/css"
)

const defaultSassTimeout = 30 * time.Second

// Pipeline drives the engine for one assembled configuration.
type Pipeline struct {
	cfg      *bundle.Config
	cache    cache.Cache
	sass     css.Compiler
	ownsSass bool
	shimDir  string
	shims    []string

	styles *styleChain
	scope  *moduleScope

	buildMu  sync.Mutex
	mu       sync.RWMutex
	ctx      context.Context
	started  time.Time
	last     *Result
	buildCtx api.BuildContext

	ready     chan struct{}
	readyOnce sync.Once
}

type Option func(*Pipeline)

// WithCache replaces the cache derived from the configuration.
func WithCache(c cache.Cache) Option {
	return func(p *Pipeline) {
		p.cache = c
	}
}

// WithSassCompiler replaces the Dart Sass compiler. The caller keeps ownership.
func WithSassCompiler(c css.Compiler) Option {
	return func(p *Pipeline) {
		p.sass = c
	}
}

// WithSassBinary sets the Dart Sass executable started on the first pre-processed stylesheet.
func WithSassBinary(binary string) Option {
	return func(p *Pipeline) {
		if binary != "" {
			p.sass = css.NewDartSass(binary, defaultSassTimeout)
			p.ownsSass = true
		}
	}
}

// New creates a pipeline and writes the provide shims it injects into every build.
func New(cfg *bundle.Config, opts ...Option) (*Pipeline, error) {
	p := &Pipeline{cfg: cfg, ctx: context.Background(), ready: make(chan struct{})}
	for _, opt := range opts {
		opt(p)
	}

	if p.cache == nil {
		c, err := cache.New(string(cfg.Cache.Type), cfg.Cache.CacheDirectory)
		if err != nil {
			return nil, err
		}
		p.cache = c
	}
	if p.sass == nil {
		p.sass = css.NewDartSass("sass", defaultSassTimeout)
		p.ownsSass = true
	}

	p.styles = &styleChain{module: cfg.Module, appSrc: cfg.Resolve.ModuleScope.AppSrc, cache: p.cache, sass: p.sass}
	p.scope = newModuleScope(cfg.Resolve.ModuleScope, cfg.Context)

	if plugin, ok := cfg.Plugins.Find(bundle.ProvidePlugin{}.PluginName()); ok {
		// shims import the provided modules, so they live under node_modules where the
		// engine's resolver finds the project's packages
		nodeModules := nodeModulesDir(cfg.Context)
		dir := shimDir(nodeModules)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create shim directory: %w", err)
		}
		p.shimDir = dir

		shims, err := writeProvideShims(dir, nodeModules, plugin.(bundle.ProvidePlugin).Definitions)
		if err != nil {
			_ = os.RemoveAll(dir)
			return nil, err
		}
		p.shims = shims
	}

	return p, nil
}

// Config returns the configuration the pipeline builds.
func (p *Pipeline) Config() *bundle.Config {
	return p.cfg
}

// Last returns the most recent build result, or nil before the first build finishes.
func (p *Pipeline) Last() *Result {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.last
}

// Ready is closed once Watch has finished its initial build and is watching sources.
func (p *Pipeline) Ready() <-chan struct{} {
	return p.ready
}

func (p *Pipeline) buildOptions() (api.BuildOptions, error) {
	opts, err := Options(p.cfg)
	if err != nil {
		return api.BuildOptions{}, err
	}
	opts.Inject = append(opts.Inject, p.shims...)
	opts.Plugins = []api.Plugin{
		p.scope.plugin(),
		p.styles.plugin(),
		p.reporter(),
	}
	return opts, nil
}

// Close disposes the incremental context and removes temporary files.
func (p *Pipeline) Close() error {
	p.mu.Lock()
	bctx := p.buildCtx
	p.buildCtx = nil
	p.mu.Unlock()

	if bctx != nil {
		bctx.Dispose()
	}

	var errs []error
	if p.shimDir != "" {
		errs = append(errs, os.RemoveAll(p.shimDir))
	}
	if p.ownsSass {
		errs = append(errs, p.sass.Close())
	}
	return errors.Join(errs...)
}

func nodeModulesDir(dir string) string {
	return filepath.Join(dir, "node_modules")
}

func shimDir(nodeModules string) string {
	return filepath.Join(nodeModules, ".cache", "spabuild-provide")
}
