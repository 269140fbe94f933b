package assets

import (
	"encoding/json"
	"path"
	"path/filepath"
	"strings"
)

// buildManifest maps logical asset names under basePath to their public URLs. Entry outputs are
// named after the entry chunk, everything else after its emitted path.
func buildManifest(metadata *BuildMetadata, entryPoint, entryName, outdir, workDir, publicPath, basePath string, extra []string) map[string]string {
	manifest := map[string]string{}

	key := func(name string) string {
		return path.Join(basePath, name)
	}

	entryOutput, info, hasEntry := metadata.EntryOutput(entryPoint)

	for _, outputPath := range metadata.sortedOutputs() {
		rel := relativeTo(outdir, workDir, outputPath)
		value := publicURL(publicPath, rel)

		switch {
		case hasEntry && outputPath == entryOutput:
			manifest[key(entryName+".js")] = value
		case hasEntry && outputPath == info.CSSBundle:
			manifest[key(entryName+".css")] = value
		case hasEntry && outputPath == entryOutput+".map":
			manifest[key(entryName+".js.map")] = value
		case hasEntry && info.CSSBundle != "" && outputPath == info.CSSBundle+".map":
			manifest[key(entryName+".css.map")] = value
		default:
			manifest[key(rel)] = value
		}
	}

	for _, name := range extra {
		manifest[key(name)] = publicURL(publicPath, name)
	}

	return manifest
}

func encodeManifest(manifest map[string]string) ([]byte, error) {
	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// entryRelative converts an absolute entry path into the metafile's working directory form.
func entryRelative(workDir, entry string) string {
	rel, err := filepath.Rel(workDir, entry)
	if err != nil || strings.HasPrefix(rel, "..") {
		return filepath.ToSlash(entry)
	}
	return filepath.ToSlash(rel)
}
