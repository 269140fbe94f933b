package assets

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/spabuild/internal/bundle"
	"github.com/wolfeidau/spabuild/internal/cache"
	"github.com/wolfeidau/spabuild/internal/css"
	"github.com/wolfeidau/spabuild/internal/telemetry"
)

// styleChain runs a rule's style steps for every stylesheet the engine loads.
type styleChain struct {
	module bundle.ModuleOptions
	appSrc string
	cache  cache.Cache
	sass   css.Compiler

	mu         sync.RWMutex
	sassDigest string
	sassFiles  []string
	sassDirs   []string
}

// Process executes steps from last to first over source and returns the CSS together with
// the engine loader matching the css step's module mode.
func (s *styleChain) Process(ctx context.Context, path, source string, steps []bundle.Step) (string, api.Loader, error) {
	out := source
	loader := api.LoaderCSS

	for i := len(steps) - 1; i >= 0; i-- {
		step := steps[i]

		switch step.Loader {
		case string(bundle.PreProcessorSass):
			if s.sass == nil {
				return "", api.LoaderNone, fmt.Errorf("%s: no sass compiler configured", path)
			}
			opts, _ := step.Options.(bundle.PreProcessorOptions)
			res, err := s.sass.Compile(ctx, css.SassRequest{
				Path:         path,
				Source:       out,
				IncludePaths: []string{s.appSrc},
				SourceMap:    opts.SourceMap,
			})
			if err != nil {
				return "", api.LoaderNone, err
			}
			out = css.WithInlineSourceMap(res)

		case bundle.LoaderResolveURL:
			opts, _ := step.Options.(bundle.ResolveURLOptions)
			out = css.RewriteRootURLs(out, filepath.Dir(path), opts.Root)

		case bundle.LoaderPostCSS:
			opts, _ := step.Options.(bundle.PostCSSOptions)
			for _, plugin := range opts.Plugins {
				switch plugin.Name {
				case bundle.PostCSSFlexbugsFixes:
					out = css.FlexbugsFixes(out)
				case bundle.PostCSSNormalize:
					out = css.ExpandNormalize(out)
				case bundle.PostCSSPresetEnv:
					// prefixing and downleveling follow the engine's browser targets
				}
			}

		case bundle.LoaderCSS:
			opts, _ := step.Options.(bundle.CSSOptions)
			if opts.Modules.Mode == bundle.ModulesLocal {
				loader = api.LoaderLocalCSS
			} else {
				loader = api.LoaderCSS
			}

		case bundle.LoaderExtract, bundle.LoaderStyle:
			// the engine always writes extracted stylesheets; the HTML document links them

		default:
			return "", api.LoaderNone, fmt.Errorf("%s: unsupported style step %q", path, step.Loader)
		}
	}

	return out, loader, nil
}

// key digests everything a chain's output depends on. Chains with a pre-processor also depend
// on every partial under src, summarised once per build.
func (s *styleChain) key(path, source string, steps []bundle.Step) string {
	fingerprint, _ := json.Marshal(steps)

	parts := []string{path, source, string(fingerprint)}
	if hasPreProcessor(steps) {
		s.mu.RLock()
		parts = append(parts, s.sassDigest)
		s.mu.RUnlock()
	}
	return cache.Key(parts...)
}

func hasPreProcessor(steps []bundle.Step) bool {
	for _, step := range steps {
		if step.Loader == string(bundle.PreProcessorSass) {
			return true
		}
	}
	return false
}

func (s *styleChain) refreshSassDigest() {
	var parts, files, dirs []string
	_ = filepath.WalkDir(s.appSrc, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			dirs = append(dirs, path)
			return nil
		}
		if ext := filepath.Ext(path); ext != ".scss" && ext != ".sass" {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil
		}
		parts = append(parts, path, string(data))
		files = append(files, path)
		return nil
	})

	s.mu.Lock()
	s.sassDigest = cache.Key(parts...)
	s.sassFiles = files
	s.sassDirs = dirs
	s.mu.Unlock()
}

// watchInputs adds the partials the compiler reads on its own to a pre-processed result, so
// the engine's watcher rebuilds when one of them changes or a new one appears.
func (s *styleChain) watchInputs(res api.OnLoadResult, steps []bundle.Step) api.OnLoadResult {
	if !hasPreProcessor(steps) {
		return res
	}
	s.mu.RLock()
	res.WatchFiles = slices.Clone(s.sassFiles)
	res.WatchDirs = slices.Clone(s.sassDirs)
	s.mu.RUnlock()
	return res
}

func (s *styleChain) load(args api.OnLoadArgs) (api.OnLoadResult, error) {
	rule := s.module.Match(args.Path)
	if rule == nil || len(rule.Use) == 0 {
		return api.OnLoadResult{}, nil
	}

	data, err := os.ReadFile(args.Path)
	if err != nil {
		return api.OnLoadResult{}, err
	}
	source := string(data)

	ctx := context.Background()
	metrics := telemetry.GetMetrics()

	loader := api.LoaderCSS
	if modulesMode(rule.Use) == bundle.ModulesLocal {
		loader = api.LoaderLocalCSS
	}

	key := s.key(args.Path, source, rule.Use)
	if cached, ok := s.cache.Get(key); ok {
		metrics.StyleCacheHits.Add(ctx, 1)
		contents := string(cached)
		return s.watchInputs(api.OnLoadResult{Contents: &contents, Loader: loader, ResolveDir: filepath.Dir(args.Path)}, rule.Use), nil
	}
	metrics.StyleCacheMisses.Add(ctx, 1)

	out, loader, err := s.Process(ctx, args.Path, source, rule.Use)
	if err != nil {
		return api.OnLoadResult{}, err
	}
	metrics.StylesCompiled.Add(ctx, 1)

	if err := s.cache.Put(key, []byte(out)); err != nil {
		log.Warn().Err(err).Str("file", args.Path).Msg("Failed to cache stylesheet")
	}

	return s.watchInputs(api.OnLoadResult{Contents: &out, Loader: loader, ResolveDir: filepath.Dir(args.Path)}, rule.Use), nil
}

func modulesMode(steps []bundle.Step) bundle.ModulesMode {
	for _, step := range steps {
		if opts, ok := step.Options.(bundle.CSSOptions); ok && step.Loader == bundle.LoaderCSS {
			return opts.Modules.Mode
		}
	}
	return bundle.ModulesICSS
}

func (s *styleChain) plugin() api.Plugin {
	return api.Plugin{
		Name: "styles",
		Setup: func(build api.PluginBuild) {
			build.OnStart(func() (api.OnStartResult, error) {
				s.refreshSassDigest()
				return api.OnStartResult{}, nil
			})
			build.OnLoad(api.OnLoadOptions{Filter: `\.(css|scss|sass)$`, Namespace: "file"}, s.load)
		},
	}
}
