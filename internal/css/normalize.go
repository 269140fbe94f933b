package css

import (
	_ "embed"
	"regexp"
)

//go:embed normalize.css
var normalizeCSS string

var importNormalize = regexp.MustCompile(`@import-normalize(\s+[^;]*)?;`)

// ExpandNormalize replaces @import-normalize directives with the bundled normalize rules.
// Stylesheets without the directive are returned unchanged.
func ExpandNormalize(src string) string {
	if !importNormalize.MatchString(src) {
		return src
	}
	return importNormalize.ReplaceAllLiteralString(src, normalizeCSS)
}
