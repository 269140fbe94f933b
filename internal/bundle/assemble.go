package bundle

import (
	"path/filepath"
)

// Runtime helper entry points that transpiled code may import from outside src.
var runtimeHelperEntries = []string{
	"babel-preset-react-app/index.js",
	"@babel/runtime/helpers/esm/assertThisInitialized.js",
	"@babel/runtime/regenerator/index.js",
}

const cacheDirName = "spabuild"

// Assemble produces the build configuration for one invocation.
func Assemble(env Env) (*Config, error) {
	mode := ResolveMode(env.Serve)

	paths, err := NewPaths(env.Dir)
	if err != nil {
		return nil, err
	}

	manifest, err := ReadPackageManifest(paths.AppPackageJSON)
	if err != nil {
		return nil, err
	}

	publicURLOrPath, err := PublicURLOrPath(mode.IsDevelopment(), manifest.Homepage, env.Vars[EnvPublicURL])
	if err != nil {
		return nil, err
	}

	allowed := []string{paths.AppPackageJSON}
	for _, entry := range runtimeHelperEntries {
		allowed = append(allowed, filepath.Join(paths.AppNodeModules, filepath.FromSlash(entry)))
	}

	cache := Cache{Type: mode.CacheType()}
	if cache.Type == CacheFilesystem {
		cache.CacheDirectory = filepath.Join(paths.AppNodeModules, ".cache", cacheDirName)
	}

	return &Config{
		Name:    manifest.Name,
		Mode:    mode,
		Context: paths.AppDir,
		Entry:   paths.AppIndex,
		Devtool: mode.Devtool(),
		Output: Output{
			Path:          paths.Resolve(mode.OutputDir()),
			Filename:      mode.Filename(),
			ChunkFilename: mode.ChunkFilename(),
			PublicPath:    "/dist/",
		},
		Module: ModuleOptions{
			Rules: moduleRules(paths, publicURLOrPath),
		},
		Resolve: Resolve{
			Modules:    []string{"node_modules", paths.AppSrc},
			Extensions: []string{".js", ".jsx", ".ts", ".tsx", ".scss"},
			ModuleScope: ModuleScope{
				AppSrc:       paths.AppSrc,
				AllowedFiles: allowed,
			},
		},
		Plugins: Plugins{
			HTMLPlugin{Template: paths.AppHTML, Filename: "index.html"},
			CSSExtractPlugin{Filename: "[name].css"},
			ProvidePlugin{Definitions: map[string]string{"process": "process"}},
			DefinePlugin{Definitions: clientDefinitions(mode, env.Vars)},
			ManifestPlugin{FileName: "manifest.json", BasePath: "/"},
		},
		Cache: cache,
		Optimization: Optimization{
			Minimize: mode.IsProduction(),
			SplitChunks: SplitChunks{
				Chunks:               "async",
				MinSize:              20000,
				MinRemainingSize:     0,
				MinChunks:            1,
				MaxAsyncRequests:     30,
				MaxInitialRequests:   30,
				EnforceSizeThreshold: 50000,
				CacheGroups: map[string]CacheGroup{
					"commons": {
						Test:   nodeModulesRegex,
						Name:   "vendors",
						Chunks: "all",
					},
				},
			},
		},
		DevServer: DevServer{
			Port:               3000,
			HistoryAPIFallback: true,
			Compress:           true,
			Static:             paths.AppPublic,
		},
		PublicURLOrPath: publicURLOrPath,
	}, nil
}
