package assets

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"os"
	"path"
	"path/filepath"
	"strings"
)

const defaultDocument = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{ .Title }}</title>
</head>
<body>
<noscript>You need to enable JavaScript to run this app.</noscript>
<div id="root"></div>
</body>
</html>
`

var defaultTemplate = template.Must(template.New("index.html").Parse(defaultDocument))

// documentAssets are the URLs the HTML document references.
type documentAssets struct {
	Scripts  []string
	Preloads []string
	Styles   []string
}

// documentAssetsFor collects the entry script, its eagerly imported chunks and its stylesheet
// from build metadata, as URLs under publicPath.
func documentAssetsFor(metadata *BuildMetadata, entryPoint, outdir, workDir, publicPath string) (documentAssets, error) {
	outputPath, info, ok := metadata.EntryOutput(entryPoint)
	if !ok {
		return documentAssets{}, errors.New("entrypoint not found in metadata")
	}

	toURL := func(p string) string {
		abs := filepath.Join(workDir, filepath.FromSlash(p))
		rel, err := filepath.Rel(outdir, abs)
		if err != nil {
			rel = p
		}
		return publicURL(publicPath, filepath.ToSlash(rel))
	}

	doc := documentAssets{Scripts: []string{toURL(outputPath)}}
	for _, imp := range metadata.StaticImports(outputPath) {
		if strings.HasSuffix(imp, ".js") {
			doc.Preloads = append(doc.Preloads, toURL(imp))
		}
	}
	if info.CSSBundle != "" {
		doc.Styles = append(doc.Styles, toURL(info.CSSBundle))
	}
	return doc, nil
}

func publicURL(publicPath, rel string) string {
	if publicPath == "" {
		return rel
	}
	if strings.Contains(publicPath, "://") {
		return strings.TrimSuffix(publicPath, "/") + "/" + rel
	}
	return path.Join(publicPath, rel)
}

// tags renders the link and script elements injected into the document head.
func (d documentAssets) tags() string {
	var b strings.Builder
	for _, href := range d.Styles {
		fmt.Fprintf(&b, `<link href="%s" rel="stylesheet">`, template.HTMLEscapeString(href))
	}
	for _, href := range d.Preloads {
		fmt.Fprintf(&b, `<link rel="modulepreload" href="%s">`, template.HTMLEscapeString(href))
	}
	for _, src := range d.Scripts {
		fmt.Fprintf(&b, `<script type="module" src="%s"></script>`, template.HTMLEscapeString(src))
	}
	return b.String()
}

// renderDocument produces the HTML entry document. An existing template has %PUBLIC_URL%
// replaced and the asset tags injected before </head>; otherwise a default document is used.
func renderDocument(templatePath, title, publicURLOrPath string, doc documentAssets) ([]byte, error) {
	var page string

	data, err := os.ReadFile(templatePath)
	switch {
	case err == nil:
		page = string(data)
	case errors.Is(err, os.ErrNotExist):
		buf := new(bytes.Buffer)
		if err := defaultTemplate.Execute(buf, map[string]any{"Title": title}); err != nil {
			return nil, err
		}
		page = buf.String()
	default:
		return nil, fmt.Errorf("failed to read HTML template: %w", err)
	}

	page = strings.ReplaceAll(page, "%PUBLIC_URL%", strings.TrimSuffix(publicURLOrPath, "/"))

	tags := doc.tags()
	if i := strings.Index(strings.ToLower(page), "</head>"); i >= 0 {
		page = page[:i] + tags + page[i:]
	} else {
		page = tags + page
	}

	return []byte(page), nil
}
