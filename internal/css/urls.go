package css

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

var rootURL = regexp.MustCompile(`url\(\s*(['"]?)(/[^'")\s]*)(['"]?)\s*\)`)

// RewriteRootURLs rewrites url(/...) references that exist under root into paths relative to
// fileDir, so the engine resolves them against the project instead of the filesystem root.
// Protocol-relative urls and targets that do not exist are left alone.
func RewriteRootURLs(src, fileDir, root string) string {
	return rootURL.ReplaceAllStringFunc(src, func(m string) string {
		parts := rootURL.FindStringSubmatch(m)
		open, ref, closing := parts[1], parts[2], parts[3]
		if open != closing || strings.HasPrefix(ref, "//") {
			return m
		}

		clean, suffix := splitSuffix(ref)
		target := filepath.Join(root, filepath.FromSlash(clean))
		if _, err := os.Stat(target); err != nil {
			return m
		}

		rel, err := filepath.Rel(fileDir, target)
		if err != nil {
			return m
		}
		rel = filepath.ToSlash(rel)
		if !strings.HasPrefix(rel, ".") {
			rel = "./" + rel
		}

		return "url(" + open + rel + suffix + closing + ")"
	})
}

// splitSuffix separates a query or fragment from a url path.
func splitSuffix(ref string) (string, string) {
	if i := strings.IndexAny(ref, "?#"); i >= 0 {
		return ref[:i], ref[i:]
	}
	return ref, ""
}
