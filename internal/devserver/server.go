package devserver

import (
	"errors"
	"io/fs"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzhttp"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
	"github.com/wolfeidau/spabuild/internal/bundle"
	httpmiddleware "github.com/wolfeidau/spabuild/internal/http"
	"github.com/wolfeidau/spabuild/internal/telemetry"
)

type Options struct {
	// CORSOrigins enables CORS for the listed origins. Empty disables it.
	CORSOrigins []string
	Logger      zerolog.Logger
}

// Handler serves build output under the public path, the static directory at the root, and the
// generated HTML document for client side routes.
func Handler(cfg *bundle.Config, opts Options) http.Handler {
	outdir := cfg.Output.Path
	index := indexFile(cfg)

	mux := http.NewServeMux()

	publicPath := cfg.Output.PublicPath
	if publicPath != "" && publicPath != "/" && strings.HasPrefix(publicPath, "/") {
		prefix := strings.TrimSuffix(publicPath, "/")
		mux.Handle(prefix+"/", http.StripPrefix(prefix, http.FileServer(http.Dir(outdir))))
	}

	mux.Handle("/", &staticHandler{
		dir:      cfg.DevServer.Static,
		index:    filepath.Join(outdir, index),
		fallback: cfg.DevServer.HistoryAPIFallback,
		files:    http.FileServer(http.Dir(cfg.DevServer.Static)),
	})

	var handler http.Handler = mux
	if cfg.DevServer.Compress {
		handler = gzhttp.GzipHandler(handler)
	}
	if len(opts.CORSOrigins) > 0 {
		handler = cors.New(cors.Options{
			AllowedOrigins: opts.CORSOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodHead, http.MethodOptions},
		}).Handler(handler)
	}

	return httpmiddleware.AccessLog(opts.Logger)(countRequests(handler))
}

func indexFile(cfg *bundle.Config) string {
	if plugin, ok := cfg.Plugins.Find(bundle.HTMLPlugin{}.PluginName()); ok {
		if name := plugin.(bundle.HTMLPlugin).Filename; name != "" {
			return name
		}
	}
	return "index.html"
}

func countRequests(next http.Handler) http.Handler {
	metrics := telemetry.GetMetrics()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		metrics.DevServerRequests.Add(r.Context(), 1)
		next.ServeHTTP(w, r)
	})
}

type staticHandler struct {
	dir      string
	index    string
	fallback bool
	files    http.Handler
}

func (h *staticHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	clean := path.Clean("/" + r.URL.Path)

	if clean == "/" || clean == "/index.html" {
		h.serveIndex(w, r)
		return
	}

	if h.dir != "" {
		if info, err := os.Stat(filepath.Join(h.dir, filepath.FromSlash(clean))); err == nil && !info.IsDir() {
			h.files.ServeHTTP(w, r)
			return
		}
	}

	if h.fallback && acceptsFallback(r) {
		h.serveIndex(w, r)
		return
	}

	http.NotFound(w, r)
}

// acceptsFallback reports whether a request looks like a client side route: a GET or HEAD
// for HTML whose last path segment has no extension.
func acceptsFallback(r *http.Request) bool {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		return false
	}
	if !strings.Contains(r.Header.Get("Accept"), "text/html") {
		return false
	}
	return !strings.Contains(path.Base(r.URL.Path), ".")
}

func (h *staticHandler) serveIndex(w http.ResponseWriter, r *http.Request) {
	f, err := os.Open(h.index)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			http.Error(w, "index.html has not been built yet", http.StatusServiceUnavailable)
			return
		}
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	http.ServeContent(w, r, info.Name(), info.ModTime(), f)
}
