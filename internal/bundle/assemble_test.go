package bundle

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func testProject(t *testing.T) string {
	return writeProject(t, map[string]string{
		"package.json":      `{"name":"demo-app","homepage":"https://example.github.io/demo"}`,
		"src/index.ts":      "console.log('hi')",
		"public/index.html": "<html><head></head><body></body></html>",
	})
}

func TestAssemble_production(t *testing.T) {
	dir := testProject(t)

	cfg, err := Assemble(Env{Serve: false, Dir: dir, Vars: map[string]string{}})
	require.NoError(t, err)

	assert.Equal(t, "demo-app", cfg.Name)
	assert.Equal(t, ModeProduction, cfg.Mode)
	assert.Equal(t, CacheFilesystem, cfg.Cache.Type)
	assert.Equal(t, filepath.Join(dir, "node_modules", ".cache", "spabuild"), cfg.Cache.CacheDirectory)
	assert.Equal(t, "build", filepath.Base(cfg.Output.Path))
	assert.Equal(t, "js/bundle.[chunkhash].js", cfg.Output.Filename)
	assert.Equal(t, "/dist/", cfg.Output.PublicPath)
	assert.Equal(t, filepath.Join(dir, "src", "index.ts"), cfg.Entry)
	assert.Equal(t, "/demo/", cfg.PublicURLOrPath)
	assert.True(t, cfg.Optimization.Minimize)
}

func TestAssemble_development(t *testing.T) {
	dir := testProject(t)

	cfg, err := Assemble(Env{Serve: true, Dir: dir, Vars: map[string]string{}})
	require.NoError(t, err)

	assert.Equal(t, ModeDevelopment, cfg.Mode)
	assert.Equal(t, CacheMemory, cfg.Cache.Type)
	assert.Empty(t, cfg.Cache.CacheDirectory)
	assert.Equal(t, "dist", filepath.Base(cfg.Output.Path))
	assert.Equal(t, "js/bundle.js", cfg.Output.Filename)
	assert.False(t, cfg.Optimization.Minimize)
	assert.Equal(t, 3000, cfg.DevServer.Port)
	assert.True(t, cfg.DevServer.HistoryAPIFallback)
	assert.True(t, cfg.DevServer.Compress)
}

func TestAssemble_repeatable(t *testing.T) {
	dir := testProject(t)
	env := Env{Serve: true, Dir: dir, Vars: map[string]string{}}

	first, err := Assemble(env)
	require.NoError(t, err)
	second, err := Assemble(env)
	require.NoError(t, err)

	require.Equal(t, first.Output, second.Output)
	require.Equal(t, first.Cache, second.Cache)
}

func TestAssemble_resolveAndPlugins(t *testing.T) {
	dir := testProject(t)

	cfg, err := Assemble(Env{Dir: dir, Vars: map[string]string{
		"NODE_ENV":          "production",
		"REACT_APP_API_URL": "https://api.example.com",
		"SECRET_TOKEN":      "nope",
	}})
	require.NoError(t, err)

	assert.Equal(t, []string{"node_modules", filepath.Join(dir, "src")}, cfg.Resolve.Modules)
	assert.Equal(t, []string{".js", ".jsx", ".ts", ".tsx", ".scss"}, cfg.Resolve.Extensions)
	assert.Equal(t, filepath.Join(dir, "src"), cfg.Resolve.ModuleScope.AppSrc)
	require.Len(t, cfg.Resolve.ModuleScope.AllowedFiles, 4)
	assert.Equal(t, filepath.Join(dir, "package.json"), cfg.Resolve.ModuleScope.AllowedFiles[0])

	names := []string{}
	for _, p := range cfg.Plugins {
		names = append(names, p.PluginName())
	}
	assert.Equal(t, []string{"html", "css-extract", "provide", "define", "manifest"}, names)

	define, ok := cfg.Plugins.Find("define")
	require.True(t, ok)
	defs := define.(DefinePlugin).Definitions
	assert.Equal(t, `"production"`, defs["process.env.NODE_ENV"])
	assert.Equal(t, `"https://api.example.com"`, defs["process.env.REACT_APP_API_URL"])
	assert.NotContains(t, defs, "process.env.SECRET_TOKEN")

	group := cfg.Optimization.SplitChunks.CacheGroups["commons"]
	assert.Equal(t, "vendors", group.Name)
	assert.True(t, group.Test.MatchString(filepath.Join(dir, "node_modules", "react", "index.js")))
	assert.False(t, group.Test.MatchString(filepath.Join(dir, "src", "index.ts")))
}

func TestAssemble_nodeEnvDefaultsToMode(t *testing.T) {
	dir := testProject(t)

	cfg, err := Assemble(Env{Serve: true, Dir: dir, Vars: map[string]string{}})
	require.NoError(t, err)

	define, _ := cfg.Plugins.Find("define")
	assert.Equal(t, `"development"`, define.(DefinePlugin).Definitions["process.env.NODE_ENV"])
}

func TestAssemble_missingManifest(t *testing.T) {
	dir := writeProject(t, map[string]string{"src/index.js": ""})

	_, err := Assemble(Env{Dir: dir})
	require.Error(t, err)
	require.Contains(t, err.Error(), "package manifest")
}

func TestConfig_serialises(t *testing.T) {
	dir := testProject(t)

	cfg, err := Assemble(Env{Dir: dir, Vars: map[string]string{}})
	require.NoError(t, err)

	data, err := json.Marshal(cfg)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "production", decoded["mode"])
	assert.Equal(t, "filesystem", decoded["cache"].(map[string]any)["type"])

	plugins := decoded["plugins"].([]any)
	require.Len(t, plugins, 5)
	assert.Equal(t, "html", plugins[0].(map[string]any)["name"])

	out, err := yaml.Marshal(cfg)
	require.NoError(t, err)
	assert.Contains(t, string(out), `\.module\.css$`)
	assert.Contains(t, string(out), "name: demo-app")
}
