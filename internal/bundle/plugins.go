package bundle

import "encoding/json"

// Plugin is an output hook registration. The engine adapter switches on the concrete type.
type Plugin interface {
	PluginName() string
}

// HTMLPlugin generates the HTML entry document from Template.
type HTMLPlugin struct {
	Template string `json:"template" yaml:"template"`
	Filename string `json:"filename" yaml:"filename"`
}

func (HTMLPlugin) PluginName() string { return "html" }

// CSSExtractPlugin writes extracted stylesheets to Filename instead of injecting them.
type CSSExtractPlugin struct {
	Filename string `json:"filename" yaml:"filename"`
}

func (CSSExtractPlugin) PluginName() string { return "css-extract" }

// ProvidePlugin maps free identifiers to module imports.
type ProvidePlugin struct {
	Definitions map[string]string `json:"definitions" yaml:"definitions"`
}

func (ProvidePlugin) PluginName() string { return "provide" }

// DefinePlugin replaces expressions with JSON literals at build time.
type DefinePlugin struct {
	Definitions map[string]string `json:"definitions" yaml:"definitions"`
}

func (DefinePlugin) PluginName() string { return "define" }

// ManifestPlugin writes a mapping of logical asset names to emitted files.
type ManifestPlugin struct {
	FileName string `json:"fileName" yaml:"fileName"`
	BasePath string `json:"basePath" yaml:"basePath"`
}

func (ManifestPlugin) PluginName() string { return "manifest" }

type Plugins []Plugin

type pluginEntry struct {
	Name    string `json:"name" yaml:"name"`
	Options Plugin `json:"options" yaml:"options"`
}

func (p Plugins) entries() []pluginEntry {
	out := make([]pluginEntry, 0, len(p))
	for _, plugin := range p {
		out = append(out, pluginEntry{Name: plugin.PluginName(), Options: plugin})
	}
	return out
}

func (p Plugins) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.entries())
}

func (p Plugins) MarshalYAML() (any, error) {
	return p.entries(), nil
}

// Find returns the first plugin with the given name.
func (p Plugins) Find(name string) (Plugin, bool) {
	for _, plugin := range p {
		if plugin.PluginName() == name {
			return plugin, true
		}
	}
	return nil, false
}
