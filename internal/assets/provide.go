package assets

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"

	"github.com/rs/zerolog/log"
)

var identifier = regexp.MustCompile(`^[A-Za-z_$][A-Za-z0-9_$]*$`)

// fallbackShims stand in for provided modules that are not installed.
var fallbackShims = map[string]string{
	"process": "export var process = { env: {} };\n",
}

// writeProvideShims writes one inject file per provided identifier into dir. Each file
// re-exports the module under the identifier's name, so the engine substitutes free uses of it.
func writeProvideShims(dir, nodeModules string, definitions map[string]string) ([]string, error) {
	names := make([]string, 0, len(definitions))
	for name := range definitions {
		names = append(names, name)
	}
	sort.Strings(names)

	var files []string
	for _, name := range names {
		module := definitions[name]
		if !identifier.MatchString(name) {
			return nil, fmt.Errorf("provide: %q is not an identifier", name)
		}

		var contents string
		switch _, err := os.Stat(filepath.Join(nodeModules, filepath.FromSlash(module))); {
		case err == nil:
			contents = fmt.Sprintf("import __provided from %q;\nexport { __provided as %s };\n", module, name)
		case fallbackShims[name] != "":
			contents = fallbackShims[name]
		default:
			log.Warn().Str("identifier", name).Str("module", module).Msg("Provided module is not installed, skipping")
			continue
		}

		file := filepath.Join(dir, "provide-"+name+".js")
		if err := os.WriteFile(file, []byte(contents), 0o600); err != nil {
			return nil, err
		}
		files = append(files, file)
	}

	return files, nil
}
