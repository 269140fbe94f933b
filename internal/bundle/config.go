package bundle

import (
	"encoding/json"
	"regexp"
)

// Config is the assembled build configuration. It is never mutated after Assemble returns.
type Config struct {
	Name         string        `json:"name" yaml:"name"`
	Mode         Mode          `json:"mode" yaml:"mode"`
	Context      string        `json:"context" yaml:"context"`
	Entry        string        `json:"entry" yaml:"entry"`
	Devtool      string        `json:"devtool,omitempty" yaml:"devtool,omitempty"`
	Output       Output        `json:"output" yaml:"output"`
	Module       ModuleOptions `json:"module" yaml:"module"`
	Resolve      Resolve       `json:"resolve" yaml:"resolve"`
	Plugins      Plugins       `json:"plugins" yaml:"plugins"`
	Cache        Cache         `json:"cache" yaml:"cache"`
	Optimization Optimization  `json:"optimization" yaml:"optimization"`
	DevServer    DevServer     `json:"devServer" yaml:"devServer"`

	// PublicURLOrPath is the computed base for asset references in the HTML document.
	PublicURLOrPath string `json:"-" yaml:"-"`
}

type Output struct {
	Path          string `json:"path" yaml:"path"`
	Filename      string `json:"filename" yaml:"filename"`
	ChunkFilename string `json:"chunkFilename" yaml:"chunkFilename"`
	PublicPath    string `json:"publicPath" yaml:"publicPath"`
}

type ModuleOptions struct {
	Rules []Rule `json:"rules" yaml:"rules"`
}

// RuleType selects a built-in module type instead of a loader chain.
type RuleType string

const (
	RuleTypeAssetResource RuleType = "asset/resource"
)

// Rule binds a file pattern to a loader, a step chain or a module type.
type Rule struct {
	Test        *Pattern   `json:"test,omitempty" yaml:"test,omitempty"`
	Include     []string   `json:"include,omitempty" yaml:"include,omitempty"`
	Exclude     []*Pattern `json:"exclude,omitempty" yaml:"exclude,omitempty"`
	Loader      string     `json:"loader,omitempty" yaml:"loader,omitempty"`
	Options     any        `json:"options,omitempty" yaml:"options,omitempty"`
	Use         []Step     `json:"use,omitempty" yaml:"use,omitempty"`
	Type        RuleType   `json:"type,omitempty" yaml:"type,omitempty"`
	SideEffects bool       `json:"sideEffects,omitempty" yaml:"sideEffects,omitempty"`
	OneOf       []Rule     `json:"oneOf,omitempty" yaml:"oneOf,omitempty"`
}

type TranspileOptions struct {
	Presets []string `json:"presets" yaml:"presets"`
	Runtime string   `json:"runtime" yaml:"runtime"`
	Plugins []string `json:"plugins" yaml:"plugins"`
}

type FileOptions struct {
	Name string `json:"name" yaml:"name"`
}

type Resolve struct {
	Modules     []string    `json:"modules" yaml:"modules"`
	Extensions  []string    `json:"extensions" yaml:"extensions"`
	ModuleScope ModuleScope `json:"moduleScope" yaml:"moduleScope"`
}

// ModuleScope restricts relative imports made from inside AppSrc to AppSrc, except AllowedFiles.
type ModuleScope struct {
	AppSrc       string   `json:"appSrc" yaml:"appSrc"`
	AllowedFiles []string `json:"allowedFiles" yaml:"allowedFiles"`
}

type CacheType string

const (
	CacheMemory     CacheType = "memory"
	CacheFilesystem CacheType = "filesystem"
)

type Cache struct {
	Type           CacheType `json:"type" yaml:"type"`
	CacheDirectory string    `json:"cacheDirectory,omitempty" yaml:"cacheDirectory,omitempty"`
}

type Optimization struct {
	Minimize    bool        `json:"minimize" yaml:"minimize"`
	SplitChunks SplitChunks `json:"splitChunks" yaml:"splitChunks"`
}

type SplitChunks struct {
	Chunks               string                `json:"chunks" yaml:"chunks"`
	MinSize              int                   `json:"minSize" yaml:"minSize"`
	MinRemainingSize     int                   `json:"minRemainingSize" yaml:"minRemainingSize"`
	MinChunks            int                   `json:"minChunks" yaml:"minChunks"`
	MaxAsyncRequests     int                   `json:"maxAsyncRequests" yaml:"maxAsyncRequests"`
	MaxInitialRequests   int                   `json:"maxInitialRequests" yaml:"maxInitialRequests"`
	EnforceSizeThreshold int                   `json:"enforceSizeThreshold" yaml:"enforceSizeThreshold"`
	CacheGroups          map[string]CacheGroup `json:"cacheGroups" yaml:"cacheGroups"`
}

type CacheGroup struct {
	Test   *Pattern `json:"test" yaml:"test"`
	Name   string   `json:"name" yaml:"name"`
	Chunks string   `json:"chunks" yaml:"chunks"`
}

type DevServer struct {
	Port               int    `json:"port" yaml:"port"`
	HistoryAPIFallback bool   `json:"historyApiFallback" yaml:"historyApiFallback"`
	Compress           bool   `json:"compress" yaml:"compress"`
	Static             string `json:"static" yaml:"static"`
}

// Pattern is a regular expression that serialises as its source text.
type Pattern struct {
	re *regexp.Regexp
}

func MustPattern(expr string) *Pattern {
	return &Pattern{re: regexp.MustCompile(expr)}
}

func (p *Pattern) MatchString(s string) bool {
	return p != nil && p.re.MatchString(s)
}

func (p *Pattern) String() string {
	if p == nil {
		return ""
	}
	return p.re.String()
}

func (p *Pattern) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.String())
}

func (p *Pattern) MarshalYAML() (any, error) {
	return p.String(), nil
}
