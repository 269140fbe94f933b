package assets

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/wolfeidau/spabuild/internal/bundle"
	"github.com/wolfeidau/spabuild/internal/css"
)

func writeProject(t *testing.T, files map[string]string) string {
	t.Helper()

	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	}

	resolved, err := filepath.EvalSymlinks(dir)
	require.NoError(t, err)
	return resolved
}

func assemble(t *testing.T, serve bool, files map[string]string) *bundle.Config {
	t.Helper()

	dir := writeProject(t, files)
	cfg, err := bundle.Assemble(bundle.Env{Serve: serve, Dir: dir, Vars: map[string]string{"REACT_APP_TITLE": "Demo"}})
	require.NoError(t, err)
	return cfg
}

var minimalProject = map[string]string{
	"package.json":      `{"name":"demo-app"}`,
	"src/index.js":      "import './index.css';\ndocument.title = process.env.REACT_APP_TITLE;\n",
	"src/index.css":     "body { display: flex; }\n",
	"public/index.html": "<!DOCTYPE html>\n<html><head><link rel=\"icon\" href=\"%PUBLIC_URL%/favicon.ico\"></head><body><div id=\"root\"></div></body></html>\n",
}

// fakeSass echoes the source with a marker so tests can see the step ran.
type fakeSass struct {
	mu    sync.Mutex
	calls []string
}

func (f *fakeSass) Compile(_ context.Context, req css.SassRequest) (css.SassResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, req.Path)
	return css.SassResult{CSS: "/* sass */\n" + req.Source}, nil
}

func (f *fakeSass) Close() error { return nil }
