package bundle

// Mode is the build mode, derived once per invocation from the serve flag.
type Mode string

const (
	ModeDevelopment Mode = "development"
	ModeProduction  Mode = "production"
)

// ResolveMode returns development when the build is served interactively and production otherwise.
func ResolveMode(serve bool) Mode {
	if serve {
		return ModeDevelopment
	}
	return ModeProduction
}

func (m Mode) IsDevelopment() bool {
	return m == ModeDevelopment
}

func (m Mode) IsProduction() bool {
	return m == ModeProduction
}

// OutputDir is the output directory name relative to the app directory.
func (m Mode) OutputDir() string {
	return cond(m.IsDevelopment(), "dist", "build")
}

// Filename is the entry bundle filename template.
func (m Mode) Filename() string {
	return cond(m.IsDevelopment(), "js/bundle.js", "js/bundle.[chunkhash].js")
}

func (m Mode) ChunkFilename() string {
	return cond(m.IsDevelopment(), "js/[name].chunk.js", "js/[name].[chunkhash].chunk.js")
}

func (m Mode) CacheType() CacheType {
	return cond(m.IsDevelopment(), CacheMemory, CacheFilesystem)
}

// Devtool names the source map strategy; development uses eval, production emits none.
func (m Mode) Devtool() string {
	return cond(m.IsDevelopment(), "eval", "")
}

func cond[T any](condition bool, trueVal, falseVal T) T {
	if condition {
		return trueVal
	}
	return falseVal
}
