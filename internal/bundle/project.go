package bundle

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// PackageManifest holds the package.json fields the configuration reads.
type PackageManifest struct {
	Name     string `json:"name"`
	Homepage string `json:"homepage"`
}

func ReadPackageManifest(path string) (PackageManifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return PackageManifest{}, fmt.Errorf("failed to read package manifest: %w", err)
	}

	var manifest PackageManifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return PackageManifest{}, fmt.Errorf("failed to parse package manifest %s: %w", path, err)
	}

	return manifest, nil
}

const (
	EnvPublicURL      = "PUBLIC_URL"
	EnvNodeEnv        = "NODE_ENV"
	ClientEnvPrefix   = "REACT_APP_"
	defaultVarsPrefix = "process.env."
)

// Env is the invocation descriptor: the serve flag, the project directory and the
// environment variables visible to the build.
type Env struct {
	Serve bool
	Dir   string
	Vars  map[string]string
}

// EnvFromOS captures the process environment. Call LoadDotenv first to include .env files.
func EnvFromOS(serve bool, dir string) Env {
	vars := make(map[string]string)
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			vars[k] = v
		}
	}

	return Env{Serve: serve, Dir: dir, Vars: vars}
}

// DotenvFiles lists the .env files for mode in priority order. The local override is skipped
// for test runs so results are reproducible.
func DotenvFiles(dir string, mode Mode, nodeEnv string) []string {
	files := []string{
		filepath.Join(dir, ".env."+string(mode)+".local"),
	}
	if nodeEnv != "test" {
		files = append(files, filepath.Join(dir, ".env.local"))
	}
	files = append(files,
		filepath.Join(dir, ".env."+string(mode)),
		filepath.Join(dir, ".env"),
	)
	return files
}

// LoadDotenv loads the existing .env files into the process environment. Variables that are
// already set are never overwritten, so earlier files take precedence.
func LoadDotenv(dir string, mode Mode, nodeEnv string) []string {
	var loaded []string
	for _, file := range DotenvFiles(dir, mode, nodeEnv) {
		if !fileExists(file) {
			continue
		}
		if err := godotenv.Load(file); err != nil {
			log.Warn().Err(err).Str("file", file).Msg("Failed to load env file, skipping")
			continue
		}
		loaded = append(loaded, file)
	}
	return loaded
}

// clientDefinitions maps every client-visible variable to its JSON literal. NODE_ENV falls
// back to the mode when unset.
func clientDefinitions(mode Mode, vars map[string]string) map[string]string {
	defs := make(map[string]string)

	nodeEnv := vars[EnvNodeEnv]
	if nodeEnv == "" {
		nodeEnv = string(mode)
	}
	defs[defaultVarsPrefix+EnvNodeEnv] = jsonString(nodeEnv)

	for k, v := range vars {
		if strings.HasPrefix(k, ClientEnvPrefix) {
			defs[defaultVarsPrefix+k] = jsonString(v)
		}
	}

	return defs
}

func jsonString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}
