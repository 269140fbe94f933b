package assets

import (
	"encoding/json"
	"errors"
	"path/filepath"
	"sort"
	"strings"
)

type BuildMetadata struct {
	Inputs  map[string]InputInfo  `json:"inputs"`
	Outputs map[string]OutputInfo `json:"outputs"`
}

type InputInfo struct {
	Bytes int `json:"bytes"`
}

type OutputInfo struct {
	Bytes      int                          `json:"bytes"`
	EntryPoint string                       `json:"entryPoint"`
	CSSBundle  string                       `json:"cssBundle"`
	Imports    []ImportInfo                 `json:"imports"`
	Inputs     map[string]InputContribution `json:"inputs"`
}

type ImportInfo struct {
	Path     string `json:"path"`
	Kind     string `json:"kind"`
	External bool   `json:"external"`
}

type InputContribution struct {
	BytesInOutput int `json:"bytesInOutput"`
}

func parseMetafile(raw string) (*BuildMetadata, error) {
	if raw == "" {
		return nil, errors.New("build produced no metafile")
	}

	var metadata BuildMetadata
	if err := json.Unmarshal([]byte(raw), &metadata); err != nil {
		return nil, err
	}
	return &metadata, nil
}

// EntryOutput returns the output path built from the given entry point input path.
func (m *BuildMetadata) EntryOutput(entryPoint string) (string, OutputInfo, bool) {
	for _, outputPath := range m.sortedOutputs() {
		info := m.Outputs[outputPath]
		if info.EntryPoint == entryPoint && !strings.HasSuffix(outputPath, ".css") {
			return outputPath, info, true
		}
	}
	return "", OutputInfo{}, false
}

// StaticImports returns the chunks an output loads eagerly, transitively and in first-seen order.
func (m *BuildMetadata) StaticImports(outputPath string) []string {
	imports := []string{}
	visited := map[string]bool{outputPath: true}
	m.addDependencies(m.Outputs[outputPath], &imports, visited)
	return imports
}

func (m *BuildMetadata) addDependencies(output OutputInfo, imports *[]string, visited map[string]bool) {
	for _, imp := range output.Imports {
		if imp.External || imp.Kind != "import-statement" || visited[imp.Path] {
			continue
		}
		visited[imp.Path] = true
		*imports = append(*imports, imp.Path)

		if chunkInfo, exists := m.Outputs[imp.Path]; exists {
			m.addDependencies(chunkInfo, imports, visited)
		}
	}
}

// BytesMatching sums the output bytes contributed by inputs whose absolute path satisfies match.
func (m *BuildMetadata) BytesMatching(workDir string, match func(string) bool) int64 {
	var total int64
	for _, output := range m.Outputs {
		for input, contribution := range output.Inputs {
			if match(filepath.Join(workDir, filepath.FromSlash(input))) {
				total += int64(contribution.BytesInOutput)
			}
		}
	}
	return total
}

func (m *BuildMetadata) sortedOutputs() []string {
	paths := make([]string, 0, len(m.Outputs))
	for p := range m.Outputs {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}
