package assets

import (
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/wolfeidau/spabuild/internal/bundle"
)

var ErrOutsideScope = errors.New("import outside of the project src/ directory")

// moduleScope rejects relative imports that escape the source directory.
type moduleScope struct {
	appSrc       string
	allowedFiles []string
	allowedDirs  []string
}

func newModuleScope(scope bundle.ModuleScope, appDir string) *moduleScope {
	s := &moduleScope{appSrc: scope.AppSrc, allowedFiles: scope.AllowedFiles}
	for _, f := range scope.AllowedFiles {
		dir := filepath.Dir(f)
		if dir == appDir || slices.Contains(s.allowedDirs, dir) {
			continue
		}
		s.allowedDirs = append(s.allowedDirs, dir)
	}
	return s
}

// Check validates request made from importer. Importers outside src, or inside a dependency,
// are not restricted.
func (s *moduleScope) Check(importer, request string) error {
	if importer == "" || strings.Contains(importer, string(filepath.Separator)+"node_modules"+string(filepath.Separator)) {
		return nil
	}
	if !within(s.appSrc, importer) {
		return nil
	}

	full := filepath.Join(filepath.Dir(importer), filepath.FromSlash(request))
	if slices.Contains(s.allowedFiles, full) {
		return nil
	}
	for _, dir := range s.allowedDirs {
		if within(dir, full) {
			return nil
		}
	}

	if within(s.appSrc, full) {
		return nil
	}

	return fmt.Errorf("%w: you attempted to import %s which falls outside of the project src/ directory. "+
		"Relative imports outside of src/ are not supported. "+
		"You can either move it inside src/, or add a symlink to it from project's node_modules/", ErrOutsideScope, request)
}

func within(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func (s *moduleScope) plugin() api.Plugin {
	return api.Plugin{
		Name: "module-scope",
		Setup: func(build api.PluginBuild) {
			build.OnResolve(api.OnResolveOptions{Filter: `^\.\.?(/|$)`}, func(args api.OnResolveArgs) (api.OnResolveResult, error) {
				if args.Namespace != "file" {
					return api.OnResolveResult{}, nil
				}
				if err := s.Check(args.Importer, args.Path); err != nil {
					return api.OnResolveResult{}, err
				}
				return api.OnResolveResult{}, nil
			})
		},
	}
}
