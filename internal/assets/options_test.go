package assets

import (
	"testing"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wolfeidau/spabuild/internal/bundle"
)

func TestOptions_production(t *testing.T) {
	cfg := assemble(t, false, minimalProject)

	opts, err := Options(cfg)
	require.NoError(t, err)

	assert.Equal(t, []string{cfg.Entry}, opts.EntryPoints)
	assert.Equal(t, cfg.Output.Path, opts.Outdir)
	assert.Equal(t, "/dist/", opts.PublicPath)
	assert.Equal(t, "js/bundle.[hash]", opts.EntryNames)
	assert.Equal(t, "js/[name].[hash].chunk", opts.ChunkNames)
	assert.Equal(t, "src/assets/[name]", opts.AssetNames)
	assert.True(t, opts.Splitting)
	assert.True(t, opts.MinifySyntax)
	assert.Equal(t, api.SourceMapNone, opts.Sourcemap)
	assert.Equal(t, api.FormatESModule, opts.Format)
	assert.Equal(t, `"production"`, opts.Define["process.env.NODE_ENV"])
	assert.Equal(t, `"Demo"`, opts.Define["process.env.REACT_APP_TITLE"])
	assert.Equal(t, []string{cfg.Resolve.ModuleScope.AppSrc}, opts.NodePaths)
}

func TestOptions_development(t *testing.T) {
	cfg := assemble(t, true, minimalProject)

	opts, err := Options(cfg)
	require.NoError(t, err)

	assert.Equal(t, "js/bundle", opts.EntryNames)
	assert.Equal(t, "js/[name].chunk-[hash]", opts.ChunkNames)
	assert.False(t, opts.MinifyWhitespace)
	assert.Equal(t, api.SourceMapInline, opts.Sourcemap)
	assert.Equal(t, `"development"`, opts.Define["process.env.NODE_ENV"])
}

func TestOptions_loaders(t *testing.T) {
	cfg := assemble(t, false, minimalProject)

	opts, err := Options(cfg)
	require.NoError(t, err)

	tests := []struct {
		ext    string
		loader api.Loader
	}{
		{".js", api.LoaderJSX},
		{".tsx", api.LoaderTSX},
		{".ts", api.LoaderTS},
		{".png", api.LoaderFile},
		{".svg", api.LoaderFile},
		{".woff2", api.LoaderFile},
		{".mp4", api.LoaderFile},
	}
	for _, tt := range tests {
		t.Run(tt.ext, func(t *testing.T) {
			assert.Equal(t, tt.loader, opts.Loader[tt.ext])
		})
	}

	_, hasCSS := opts.Loader[".css"]
	assert.False(t, hasCSS, "stylesheets are loaded by the style chain")
}

func TestOptions_noEntry(t *testing.T) {
	_, err := Options(&bundle.Config{Name: "empty"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no entry")
}

func TestNameTemplate(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"js/bundle.js", "js/bundle"},
		{"js/bundle.[chunkhash].js", "js/bundle.[hash]"},
		{"js/[name].[contenthash:8].chunk.js", "js/[name].[hash].chunk"},
		{"src/assets/[name].[ext]", "src/assets/[name]"},
		{"[name].css", "[name]"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, nameTemplate(tt.in))
		})
	}
}

func TestSourceMap(t *testing.T) {
	assert.Equal(t, api.SourceMapNone, sourceMap(""))
	assert.Equal(t, api.SourceMapInline, sourceMap("eval"))
	assert.Equal(t, api.SourceMapInline, sourceMap("inline-source-map"))
	assert.Equal(t, api.SourceMapExternal, sourceMap("hidden-source-map"))
	assert.Equal(t, api.SourceMapLinked, sourceMap("source-map"))
}
