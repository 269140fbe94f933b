package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wolfeidau/spabuild/internal/bundle"
	"gopkg.in/yaml.v3"
)

func writeProject(t *testing.T, files map[string]string) string {
	t.Helper()

	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	}
	return dir
}

var project = map[string]string{
	"package.json":      `{"name":"demo-app"}`,
	"src/index.js":      "document.title = process.env.REACT_APP_GREETING;\n",
	"public/index.html": "<html><head></head><body><div id=\"root\"></div></body></html>",
}

func TestProjectFlags_assembleLoadsDotenv(t *testing.T) {
	files := map[string]string{".env": "REACT_APP_GREETING=hello\n"}
	for k, v := range project {
		files[k] = v
	}
	dir := writeProject(t, files)

	// registers the variable for restore, then clears it so the .env file applies
	t.Setenv("REACT_APP_GREETING", "")
	require.NoError(t, os.Unsetenv("REACT_APP_GREETING"))

	cfg, err := ProjectFlags{Dir: dir}.assemble(false)
	require.NoError(t, err)

	plugin, ok := cfg.Plugins.Find(bundle.DefinePlugin{}.PluginName())
	require.True(t, ok)
	assert.Equal(t, `"hello"`, plugin.(bundle.DefinePlugin).Definitions["process.env.REACT_APP_GREETING"])
}

func TestProjectFlags_assembleMissingManifest(t *testing.T) {
	_, err := ProjectFlags{Dir: t.TempDir()}.assemble(false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "package manifest")
}

func TestWriteConfig(t *testing.T) {
	cfg, err := ProjectFlags{Dir: writeProject(t, project)}.assemble(true)
	require.NoError(t, err)

	t.Run("json", func(t *testing.T) {
		buf := new(bytes.Buffer)
		require.NoError(t, writeConfig(buf, cfg, "json"))

		var decoded map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
		assert.Equal(t, "development", decoded["mode"])
		assert.Equal(t, "demo-app", decoded["name"])
	})

	t.Run("yaml", func(t *testing.T) {
		buf := new(bytes.Buffer)
		require.NoError(t, writeConfig(buf, cfg, "yaml"))

		var decoded map[string]any
		require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
		assert.Equal(t, "development", decoded["mode"])
	})

	t.Run("unsupported", func(t *testing.T) {
		require.Error(t, writeConfig(new(bytes.Buffer), cfg, "toml"))
	})
}

func TestBuildCmd_Run(t *testing.T) {
	dir := writeProject(t, project)

	cmd := &BuildCmd{ProjectFlags: ProjectFlags{Dir: dir}, SassBinary: "sass"}
	require.NoError(t, cmd.Run(context.Background(), &Globals{Version: "test"}))

	index, err := os.ReadFile(filepath.Join(dir, "build", "index.html"))
	require.NoError(t, err)
	assert.Contains(t, string(index), `<script type="module" src="/dist/js/bundle.`)

	_, err = os.Stat(filepath.Join(dir, "build", "manifest.json"))
	require.NoError(t, err)
}

func TestBuildCmd_RunFailure(t *testing.T) {
	files := map[string]string{"src/index.js": "import './missing';\n"}
	for k, v := range project {
		if k != "src/index.js" {
			files[k] = v
		}
	}
	dir := writeProject(t, files)

	cmd := &BuildCmd{ProjectFlags: ProjectFlags{Dir: dir}, SassBinary: "sass"}
	err := cmd.Run(context.Background(), &Globals{Version: "test"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "build failed with")
}
