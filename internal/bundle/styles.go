package bundle

import (
	"slices"
	"strings"
)

// Step loaders, in the order they appear in a style chain.
const (
	LoaderStyle      = "style"
	LoaderExtract    = "extract"
	LoaderCSS        = "css"
	LoaderPostCSS    = "postcss"
	LoaderResolveURL = "resolve-url"
	LoaderTranspile  = "transpile"
	LoaderFile       = "file"
)

// PreProcessor names a stylesheet dialect compiler. The empty value means none.
type PreProcessor string

const (
	PreProcessorNone PreProcessor = ""
	PreProcessorSass PreProcessor = "sass"
)

// Step is one transform in a chain. Each step consumes the output of the step after it.
type Step struct {
	Loader  string `json:"loader" yaml:"loader"`
	Options any    `json:"options,omitempty" yaml:"options,omitempty"`
}

type ModulesMode string

const (
	ModulesICSS  ModulesMode = "icss"
	ModulesLocal ModulesMode = "local"
)

// LocalIdentByFile names scoped classes after the file (or folder for index modules), the
// local name and a short content hash.
const LocalIdentByFile = "[folder-or-name]_[local]__[hash:base64:5]"

type CSSModules struct {
	Mode          ModulesMode `json:"mode" yaml:"mode"`
	GetLocalIdent string      `json:"getLocalIdent,omitempty" yaml:"getLocalIdent,omitempty"`
}

type CSSOptions struct {
	ImportLoaders int        `json:"importLoaders" yaml:"importLoaders"`
	SourceMap     bool       `json:"sourceMap" yaml:"sourceMap"`
	Modules       CSSModules `json:"modules" yaml:"modules"`
}

type ExtractOptions struct {
	PublicPath string `json:"publicPath,omitempty" yaml:"publicPath,omitempty"`
}

// PostCSSPlugin is one entry of the post-processing pipeline.
type PostCSSPlugin struct {
	Name    string         `json:"name" yaml:"name"`
	Options map[string]any `json:"options,omitempty" yaml:"options,omitempty"`
}

const (
	PostCSSFlexbugsFixes = "postcss-flexbugs-fixes"
	PostCSSPresetEnv     = "postcss-preset-env"
	PostCSSNormalize     = "postcss-normalize"
)

type PostCSSOptions struct {
	Ident     string          `json:"ident" yaml:"ident"`
	Config    bool            `json:"config" yaml:"config"`
	Plugins   []PostCSSPlugin `json:"plugins" yaml:"plugins"`
	SourceMap bool            `json:"sourceMap" yaml:"sourceMap"`
}

type ResolveURLOptions struct {
	SourceMap bool   `json:"sourceMap" yaml:"sourceMap"`
	Root      string `json:"root" yaml:"root"`
}

type PreProcessorOptions struct {
	SourceMap bool `json:"sourceMap" yaml:"sourceMap"`
}

// StyleSteps assembles the style chain for one file category. publicPath is the computed public
// path, srcDir the root used for resolving root-relative urls.
func StyleSteps(publicPath, srcDir string, cssOptions CSSOptions, preProcessor PreProcessor) []Step {
	extract := ExtractOptions{}
	if strings.HasPrefix(publicPath, ".") {
		extract.PublicPath = "../../"
	}

	steps := []Step{
		{Loader: LoaderStyle},
		{Loader: LoaderExtract, Options: extract},
		{Loader: LoaderCSS, Options: cssOptions},
		{Loader: LoaderPostCSS, Options: defaultPostCSSOptions()},
	}

	if preProcessor != PreProcessorNone {
		steps = append(steps,
			Step{
				Loader:  LoaderResolveURL,
				Options: ResolveURLOptions{SourceMap: false, Root: srcDir},
			},
			Step{
				Loader:  string(preProcessor),
				Options: PreProcessorOptions{SourceMap: true},
			},
		)
	}

	return slices.DeleteFunc(steps, func(s Step) bool { return s.Loader == "" })
}

func defaultPostCSSOptions() PostCSSOptions {
	return PostCSSOptions{
		Ident:  "postcss",
		Config: false,
		Plugins: []PostCSSPlugin{
			{Name: PostCSSFlexbugsFixes},
			{
				Name: PostCSSPresetEnv,
				Options: map[string]any{
					"autoprefixer": map[string]any{"flexbox": "no-2009"},
					"stage":        3,
				},
			},
			{Name: PostCSSNormalize},
		},
		SourceMap: false,
	}
}
