package assets

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteProvideShims(t *testing.T) {
	t.Run("installed module is re-exported", func(t *testing.T) {
		nodeModules := t.TempDir()
		require.NoError(t, os.MkdirAll(filepath.Join(nodeModules, "process"), 0o755))

		files, err := writeProvideShims(t.TempDir(), nodeModules, map[string]string{"process": "process"})
		require.NoError(t, err)
		require.Len(t, files, 1)

		data, err := os.ReadFile(files[0])
		require.NoError(t, err)
		assert.Contains(t, string(data), `import __provided from "process";`)
		assert.Contains(t, string(data), "export { __provided as process };")
	})

	t.Run("missing process falls back to an empty env", func(t *testing.T) {
		files, err := writeProvideShims(t.TempDir(), t.TempDir(), map[string]string{"process": "process"})
		require.NoError(t, err)
		require.Len(t, files, 1)

		data, err := os.ReadFile(files[0])
		require.NoError(t, err)
		assert.Equal(t, "export var process = { env: {} };\n", string(data))
	})

	t.Run("missing module without fallback is skipped", func(t *testing.T) {
		files, err := writeProvideShims(t.TempDir(), t.TempDir(), map[string]string{"Buffer": "buffer"})
		require.NoError(t, err)
		assert.Empty(t, files)
	})

	t.Run("invalid identifier", func(t *testing.T) {
		_, err := writeProvideShims(t.TempDir(), t.TempDir(), map[string]string{"process.env": "process"})
		require.Error(t, err)
	})
}
