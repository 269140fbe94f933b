package bundle

import (
	"os"
	"path/filepath"
)

// ModuleFileExtensions is the priority order used when probing for an extensionless module path.
var ModuleFileExtensions = []string{
	"web.mjs", "mjs",
	"web.js", "js",
	"web.ts", "ts",
	"web.tsx", "tsx",
	"json",
	"web.jsx", "jsx",
}

// ResolveModule returns the first resolved filePath.<ext> that exists on disk, falling back to
// filePath.js. The fallback is not checked; a missing file surfaces when the engine reads it.
func ResolveModule(resolveFn func(string) string, filePath string) string {
	for _, ext := range ModuleFileExtensions {
		candidate := resolveFn(filePath + "." + ext)
		if fileExists(candidate) {
			return candidate
		}
	}

	return resolveFn(filePath + ".js")
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Paths holds the absolute locations the configuration is assembled from.
type Paths struct {
	AppDir         string
	AppSrc         string
	AppPublic      string
	AppHTML        string
	AppPackageJSON string
	AppNodeModules string
	AppIndex       string
}

// NewPaths resolves the project layout rooted at dir, following symlinks like the engine does.
func NewPaths(dir string) (Paths, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return Paths{}, err
	}

	appDir, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return Paths{}, err
	}

	p := Paths{AppDir: appDir}
	p.AppSrc = p.Resolve("src")
	p.AppPublic = p.Resolve("public")
	p.AppHTML = p.Resolve(filepath.Join("public", "index.html"))
	p.AppPackageJSON = p.Resolve("package.json")
	p.AppNodeModules = p.Resolve("node_modules")
	p.AppIndex = ResolveModule(p.Resolve, "src/index")

	return p, nil
}

// Resolve makes relativePath absolute against the app directory.
func (p Paths) Resolve(relativePath string) string {
	return filepath.Join(p.AppDir, filepath.FromSlash(relativePath))
}
