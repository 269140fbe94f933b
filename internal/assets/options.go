package assets

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/wolfeidau/spabuild/internal/bundle"
)

// knownExtensions are the extensions the rule set is evaluated against to build the loader map.
var knownExtensions = []string{
	".js", ".mjs", ".jsx", ".ts", ".tsx",
	".png", ".jpg", ".jpeg", ".gif", ".svg", ".ico", ".webp", ".avif", ".bmp",
	".woff", ".woff2", ".ttf", ".eot", ".otf",
	".mp4", ".webm", ".ogg", ".mp3", ".wav", ".flac", ".aac",
	".pdf", ".txt", ".md",
}

var transpileLoaders = map[string]api.Loader{
	".js":  api.LoaderJSX,
	".jsx": api.LoaderJSX,
	".mjs": api.LoaderJS,
	".ts":  api.LoaderTS,
	".tsx": api.LoaderTSX,
}

// browserTargets approximate the stage 3 preset-env defaults.
var browserTargets = []api.Engine{
	{Name: api.EngineChrome, Version: "87"},
	{Name: api.EngineEdge, Version: "88"},
	{Name: api.EngineFirefox, Version: "78"},
	{Name: api.EngineSafari, Version: "14"},
}

var hashPlaceholder = regexp.MustCompile(`\[(chunkhash|contenthash|fullhash|hash)(:\d+)?\]`)

// Options translates an assembled configuration into esbuild build options. Plugins and
// injected files are added by the Pipeline.
func Options(cfg *bundle.Config) (api.BuildOptions, error) {
	if cfg.Entry == "" {
		return api.BuildOptions{}, fmt.Errorf("configuration %q has no entry", cfg.Name)
	}

	opts := api.BuildOptions{
		AbsWorkingDir:     cfg.Context,
		EntryPoints:       []string{cfg.Entry},
		Outdir:            cfg.Output.Path,
		PublicPath:        cfg.Output.PublicPath,
		EntryNames:        nameTemplate(cfg.Output.Filename),
		ChunkNames:        chunkNames(cfg.Output.ChunkFilename),
		AssetNames:        assetNames(cfg.Module),
		Bundle:            true,
		Splitting:         cfg.Optimization.SplitChunks.Chunks != "",
		Write:             true,
		Metafile:          true,
		Format:            api.FormatESModule,
		Platform:          api.PlatformBrowser,
		Target:            api.ES2020,
		Engines:           browserTargets,
		JSX:               api.JSXAutomatic,
		MinifyWhitespace:  cfg.Optimization.Minimize,
		MinifyIdentifiers: cfg.Optimization.Minimize,
		MinifySyntax:      cfg.Optimization.Minimize,
		TreeShaking:       api.TreeShakingTrue,
		Sourcemap:         sourceMap(cfg.Devtool),
		Loader:            loaders(cfg),
		ResolveExtensions: cfg.Resolve.Extensions,
		NodePaths:         nodePaths(cfg),
		Define:            map[string]string{},
		LogLevel:          api.LogLevelSilent,
	}

	for _, plugin := range cfg.Plugins {
		if define, ok := plugin.(bundle.DefinePlugin); ok {
			for k, v := range define.Definitions {
				opts.Define[k] = v
			}
		}
	}

	return opts, nil
}

// nameTemplate converts an output filename template to an esbuild name template. Hash
// placeholders collapse to [hash] and the extension is dropped since esbuild appends it.
func nameTemplate(filename string) string {
	name := hashPlaceholder.ReplaceAllString(filename, "[hash]")
	for _, ext := range []string{".[ext]", ".js", ".css"} {
		if strings.HasSuffix(name, ext) {
			return strings.TrimSuffix(name, ext)
		}
	}
	return name
}

// chunkNames keeps shared chunk names unique; the engine names every shared chunk "chunk".
func chunkNames(filename string) string {
	name := nameTemplate(filename)
	if !strings.Contains(name, "[hash]") {
		name += "-[hash]"
	}
	return name
}

func assetNames(module bundle.ModuleOptions) string {
	for _, rule := range flatten(module.Rules) {
		if opts, ok := rule.Options.(bundle.FileOptions); ok && rule.Loader == bundle.LoaderFile {
			return nameTemplate(opts.Name)
		}
	}
	return "[name]-[hash]"
}

func flatten(rules []bundle.Rule) []bundle.Rule {
	var out []bundle.Rule
	for _, r := range rules {
		if len(r.OneOf) > 0 {
			out = append(out, flatten(r.OneOf)...)
			continue
		}
		out = append(out, r)
	}
	return out
}

// loaders runs the rule set against a sample file inside src for every known extension.
func loaders(cfg *bundle.Config) map[string]api.Loader {
	sampleDir := cfg.Resolve.ModuleScope.AppSrc
	if sampleDir == "" {
		sampleDir = cfg.Context
	}

	out := map[string]api.Loader{}
	for _, ext := range knownExtensions {
		rule := cfg.Module.Match(filepath.Join(sampleDir, "sample"+ext))
		if rule == nil {
			continue
		}

		switch {
		case rule.Loader == bundle.LoaderTranspile:
			if loader, ok := transpileLoaders[ext]; ok {
				out[ext] = loader
			}
		case rule.Loader == bundle.LoaderFile, rule.Type == bundle.RuleTypeAssetResource:
			out[ext] = api.LoaderFile
		}
	}
	return out
}

func nodePaths(cfg *bundle.Config) []string {
	var paths []string
	for _, m := range cfg.Resolve.Modules {
		if filepath.IsAbs(m) {
			paths = append(paths, m)
		}
	}
	return paths
}

func sourceMap(devtool string) api.SourceMap {
	switch {
	case devtool == "":
		return api.SourceMapNone
	case strings.HasPrefix(devtool, "eval"), strings.HasPrefix(devtool, "inline"):
		return api.SourceMapInline
	case strings.HasPrefix(devtool, "hidden"):
		return api.SourceMapExternal
	default:
		return api.SourceMapLinked
	}
}
