package bundle

import (
	"path/filepath"
	"strings"
)

var (
	scriptRegex      = MustPattern(`\.(js|mjs|jsx|ts|tsx)$`)
	imageRegex       = MustPattern(`\.(jpg|jpeg|gif|png|svg|ico)?$`)
	cssRegex         = MustPattern(`\.css$`)
	cssModuleRegex   = MustPattern(`\.module\.css$`)
	sassRegex        = MustPattern(`\.(scss|sass)$`)
	sassModuleRegex  = MustPattern(`\.module\.(scss|sass)$`)
	emptyRegex       = MustPattern(`^$`)
	htmlRegex        = MustPattern(`\.html$`)
	jsonRegex        = MustPattern(`\.json$`)
	nodeModulesRegex = MustPattern(`[\\/]node_modules[\\/]`)
)

// Matches reports whether the rule's conditions accept the resource path.
// A rule without a test accepts everything not excluded.
func (r *Rule) Matches(resource string) bool {
	if r.Test != nil && !r.Test.MatchString(resource) {
		return false
	}

	if len(r.Include) > 0 && !underAny(resource, r.Include) {
		return false
	}

	for _, ex := range r.Exclude {
		if ex.MatchString(resource) {
			return false
		}
	}

	return true
}

func underAny(resource string, dirs []string) bool {
	for _, dir := range dirs {
		rel, err := filepath.Rel(dir, resource)
		if err != nil {
			continue
		}
		if rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

// Match returns the rule that applies to resource. Rules with OneOf resolve to their first
// matching child. Returns nil if nothing matches.
func (m ModuleOptions) Match(resource string) *Rule {
	return matchRules(m.Rules, resource)
}

func matchRules(rules []Rule, resource string) *Rule {
	for i := range rules {
		rule := &rules[i]
		if len(rule.OneOf) > 0 {
			if !rule.Matches(resource) {
				continue
			}
			if found := matchRules(rule.OneOf, resource); found != nil {
				return found
			}
			continue
		}
		if rule.Matches(resource) {
			return rule
		}
	}
	return nil
}

func moduleRules(paths Paths, publicPath string) []Rule {
	stylesFor := func(importLoaders int, mode ModulesMode, pre PreProcessor) []Step {
		modules := CSSModules{Mode: mode}
		if mode == ModulesLocal {
			modules.GetLocalIdent = LocalIdentByFile
		}
		return StyleSteps(publicPath, paths.AppSrc, CSSOptions{
			ImportLoaders: importLoaders,
			SourceMap:     false,
			Modules:       modules,
		}, pre)
	}

	return []Rule{
		{
			OneOf: []Rule{
				{
					Test:    scriptRegex,
					Include: []string{paths.AppSrc},
					Loader:  LoaderTranspile,
					Options: TranspileOptions{
						Presets: []string{"preset-env", "preset-react"},
						Runtime: "automatic",
						Plugins: []string{"plugin-proposal-class-properties", "react-hot-loader"},
					},
				},
				{
					Test:    imageRegex,
					Loader:  LoaderFile,
					Options: FileOptions{Name: "src/assets/[name].[ext]"},
				},
				{
					Test:        cssRegex,
					Exclude:     []*Pattern{cssModuleRegex},
					Use:         stylesFor(1, ModulesICSS, PreProcessorNone),
					SideEffects: true,
				},
				{
					Test: cssModuleRegex,
					Use:  stylesFor(1, ModulesLocal, PreProcessorNone),
				},
				{
					Test:        sassRegex,
					Exclude:     []*Pattern{sassModuleRegex},
					Use:         stylesFor(3, ModulesICSS, PreProcessorSass),
					SideEffects: true,
				},
				{
					Test: sassModuleRegex,
					Use:  stylesFor(3, ModulesLocal, PreProcessorSass),
				},
				{
					Exclude: []*Pattern{emptyRegex, scriptRegex, htmlRegex, jsonRegex},
					Type:    RuleTypeAssetResource,
				},
			},
		},
	}
}
