package assets

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wolfeidau/spabuild/internal/cache"
)

func newTestPipeline(t *testing.T, serve bool, files map[string]string, opts ...Option) *Pipeline {
	t.Helper()

	cfg := assemble(t, serve, files)
	p, err := New(cfg, append([]Option{WithSassCompiler(&fakeSass{})}, opts...)...)
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, p.Close())
	})
	return p
}

func TestPipeline_Build(t *testing.T) {
	p := newTestPipeline(t, false, minimalProject)
	cfg := p.Config()

	res, err := p.Build(context.Background())
	require.NoError(t, err)
	require.NotNil(t, res)

	assert.NotEmpty(t, res.ID)
	assert.Zero(t, res.Errors)
	assert.Positive(t, res.OutputBytes)
	assert.Contains(t, res.VendorBytes, "vendors")
	assert.Same(t, res, p.Last())

	index, err := os.ReadFile(filepath.Join(cfg.Output.Path, "index.html"))
	require.NoError(t, err)
	assert.Contains(t, string(index), `<script type="module" src="/dist/js/bundle.`)
	assert.Contains(t, string(index), `rel="stylesheet"`)
	assert.Contains(t, string(index), `href="/favicon.ico"`)

	data, err := os.ReadFile(filepath.Join(cfg.Output.Path, "manifest.json"))
	require.NoError(t, err)
	var manifest map[string]string
	require.NoError(t, json.Unmarshal(data, &manifest))
	require.Contains(t, manifest, "/main.js")
	assert.Contains(t, manifest, "/main.css")
	assert.Equal(t, "/dist/index.html", manifest["/index.html"])

	script := filepath.Join(cfg.Output.Path, filepath.FromSlash(strings.TrimPrefix(manifest["/main.js"], "/dist/")))
	js, err := os.ReadFile(script)
	require.NoError(t, err)
	assert.Contains(t, string(js), "Demo")

	_, err = os.Stat(cfg.Cache.CacheDirectory)
	require.NoError(t, err, "production builds use the filesystem cache")
}

func TestPipeline_Build_providedProcess(t *testing.T) {
	p := newTestPipeline(t, false, map[string]string{
		"package.json":                      `{"name":"demo-app"}`,
		"node_modules/process/package.json": `{"name":"process","main":"browser.js"}`,
		"node_modules/process/browser.js":   "module.exports = { title: \"browser-process\", env: {} };\n",
		"src/index.js":                      "document.title = process.title;\n",
	})
	cfg := p.Config()

	res, err := p.Build(context.Background())
	require.NoError(t, err)
	assert.Zero(t, res.Errors)

	shim := filepath.Join(cfg.Context, "node_modules", ".cache", "spabuild-provide", "provide-process.js")
	data, err := os.ReadFile(shim)
	require.NoError(t, err)
	assert.Contains(t, string(data), `import __provided from "process";`)

	manifestData, err := os.ReadFile(filepath.Join(cfg.Output.Path, "manifest.json"))
	require.NoError(t, err)
	var manifest map[string]string
	require.NoError(t, json.Unmarshal(manifestData, &manifest))
	require.Contains(t, manifest, "/main.js")

	script := filepath.Join(cfg.Output.Path, filepath.FromSlash(strings.TrimPrefix(manifest["/main.js"], "/dist/")))
	js, err := os.ReadFile(script)
	require.NoError(t, err)
	assert.Contains(t, string(js), "browser-process")
}

func TestPipeline_Close_removesShims(t *testing.T) {
	cfg := assemble(t, true, minimalProject)
	p, err := New(cfg, WithSassCompiler(&fakeSass{}))
	require.NoError(t, err)

	dir := shimDir(nodeModulesDir(cfg.Context))
	_, err = os.Stat(filepath.Join(dir, "provide-process.js"))
	require.NoError(t, err)

	require.NoError(t, p.Close())
	_, err = os.Stat(dir)
	assert.True(t, os.IsNotExist(err))
}

func TestPipeline_Build_outsideScope(t *testing.T) {
	p := newTestPipeline(t, false, map[string]string{
		"package.json": `{"name":"demo-app"}`,
		"src/index.js": "import '../outside.js';\n",
		"outside.js":   "export const x = 1;\n",
	})

	res, err := p.Build(context.Background())
	require.ErrorIs(t, err, ErrBuildFailed)
	assert.Contains(t, err.Error(), "build failed with")
	require.NotNil(t, res)
	assert.Positive(t, res.Errors)

	_, err = os.Stat(filepath.Join(p.Config().Output.Path, "index.html"))
	assert.True(t, os.IsNotExist(err))
}

func TestPipeline_Build_cancelled(t *testing.T) {
	p := newTestPipeline(t, false, minimalProject)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Build(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestPipeline_Rebuild_withoutWatch(t *testing.T) {
	p := newTestPipeline(t, true, minimalProject)

	res, err := p.Rebuild()
	require.NoError(t, err)
	assert.Zero(t, res.Errors)

	_, err = os.Stat(filepath.Join(p.Config().Output.Path, "js", "bundle.js"))
	require.NoError(t, err)
}

func TestPipeline_Watch(t *testing.T) {
	p := newTestPipeline(t, true, minimalProject)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- p.Watch(ctx)
	}()

	select {
	case <-p.Ready():
	case <-time.After(10 * time.Second):
		t.Fatal("watch did not become ready")
	}

	first := p.Last()
	require.NotNil(t, first, "the initial build finishes before the pipeline is ready")
	res, err := p.Rebuild()
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, res.ID)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("watch did not stop")
	}
}

func TestPipeline_Ready_notWatching(t *testing.T) {
	p := newTestPipeline(t, true, minimalProject)

	_, err := p.Build(context.Background())
	require.NoError(t, err)

	select {
	case <-p.Ready():
		t.Fatal("ready without a watch context")
	default:
	}
}

func TestPipeline_Watch_sassPartial(t *testing.T) {
	p := newTestPipeline(t, true, map[string]string{
		"package.json":   `{"name":"demo-app"}`,
		"src/index.js":   "import './app.scss';\n",
		"src/app.scss":   "@use 'vars';\nbody { color: red; }\n",
		"src/_vars.scss": "$brand: red;\n",
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- p.Watch(ctx)
	}()
	defer func() {
		cancel()
		<-done
	}()

	require.Eventually(t, func() bool {
		return p.Last() != nil
	}, 10*time.Second, 20*time.Millisecond)
	first := p.Last()

	partial := filepath.Join(p.Config().Resolve.ModuleScope.AppSrc, "_vars.scss")
	require.NoError(t, os.WriteFile(partial, []byte("$brand: blue;\n"), 0o600))

	assert.Eventually(t, func() bool {
		return p.Last().ID != first.ID
	}, 15*time.Second, 50*time.Millisecond, "editing a partial rebuilds")
}

func TestWriteOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "index.html")

	require.NoError(t, writeOutput(path, []byte("<html></html>")))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "<html></html>", string(data))
}

func TestNew_unknownCacheType(t *testing.T) {
	cfg := assemble(t, true, minimalProject)
	cfg.Cache.Type = "redis"

	_, err := New(cfg)
	require.ErrorIs(t, err, cache.ErrUnknownCacheType)
}

func TestNew_withCache(t *testing.T) {
	mem, err := cache.NewMemory(8)
	require.NoError(t, err)

	p := newTestPipeline(t, false, minimalProject, WithCache(mem))

	_, err = p.Build(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, mem.Len())
}
