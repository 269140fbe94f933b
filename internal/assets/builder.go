package assets

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"time"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/spabuild/internal/bundle"
	"github.com/wolfeidau/spabuild/internal/logger"
	"github.com/wolfeidau/spabuild/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

var ErrBuildFailed = errors.New("build failed")

// entryName is the logical chunk name of the single entry point.
const entryName = "main"

// Result summarises one finished build.
type Result struct {
	ID          string           `json:"id"`
	Duration    time.Duration    `json:"duration"`
	Errors      int              `json:"errors"`
	Warnings    int              `json:"warnings"`
	Outputs     []string         `json:"outputs"`
	OutputBytes int64            `json:"outputBytes"`
	VendorBytes map[string]int64 `json:"vendorBytes"`
}

// Build runs one complete build and writes the HTML document and manifest.
func (p *Pipeline) Build(ctx context.Context) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.buildMu.Lock()
	defer p.buildMu.Unlock()

	opts, err := p.buildOptions()
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	p.ctx = ctx
	p.mu.Unlock()

	log.Info().Str("entry", p.cfg.Entry).Str("mode", string(p.cfg.Mode)).Str("outdir", p.cfg.Output.Path).Msg("Building assets")

	return p.outcome(api.Build(opts))
}

// Watch keeps an incremental build context and rebuilds whenever an input changes, until ctx is done.
func (p *Pipeline) Watch(ctx context.Context) error {
	opts, err := p.buildOptions()
	if err != nil {
		return err
	}

	bctx, ctxErr := api.Context(opts)
	if ctxErr != nil {
		logger.Messages(log.Logger, zerolog.ErrorLevel, ctxErr.Errors)
		return fmt.Errorf("failed to create build context: %w with %d errors", ErrBuildFailed, len(ctxErr.Errors))
	}

	p.mu.Lock()
	p.buildCtx = bctx
	p.ctx = ctx
	p.mu.Unlock()
	defer p.dispose(bctx)

	if _, err := p.outcome(bctx.Rebuild()); err != nil {
		log.Warn().Err(err).Msg("Initial build failed, watching for changes")
	}

	if err := bctx.Watch(api.WatchOptions{}); err != nil {
		return fmt.Errorf("failed to watch sources: %w", err)
	}
	log.Info().Str("src", p.cfg.Resolve.ModuleScope.AppSrc).Msg("Watching for changes")
	p.readyOnce.Do(func() { close(p.ready) })

	<-ctx.Done()
	return nil
}

// Rebuild runs the incremental context once, or a full build when not watching.
func (p *Pipeline) Rebuild() (*Result, error) {
	p.mu.RLock()
	bctx, ctx := p.buildCtx, p.ctx
	p.mu.RUnlock()

	if bctx == nil {
		return p.Build(ctx)
	}
	return p.outcome(bctx.Rebuild())
}

func (p *Pipeline) dispose(bctx api.BuildContext) {
	p.mu.Lock()
	if p.buildCtx == bctx {
		p.buildCtx = nil
	}
	p.mu.Unlock()

	bctx.Dispose()
}

func (p *Pipeline) outcome(result api.BuildResult) (*Result, error) {
	last := p.Last()
	if n := len(result.Errors); n > 0 {
		return last, fmt.Errorf("%w with %d errors", ErrBuildFailed, n)
	}
	return last, nil
}

func (p *Pipeline) reporter() api.Plugin {
	return api.Plugin{
		Name: "reporter",
		Setup: func(build api.PluginBuild) {
			build.OnStart(func() (api.OnStartResult, error) {
				p.mu.Lock()
				p.started = time.Now()
				p.mu.Unlock()
				return api.OnStartResult{}, nil
			})
			build.OnEnd(func(result *api.BuildResult) (api.OnEndResult, error) {
				return api.OnEndResult{Errors: p.finish(result)}, nil
			})
		},
	}
}

// finish writes the generated documents, then logs and records the build. It returns any
// errors raised while writing so the engine reports them with the build.
func (p *Pipeline) finish(result *api.BuildResult) []api.Message {
	p.mu.RLock()
	started, ctx := p.started, p.ctx
	p.mu.RUnlock()

	res := &Result{
		ID:          uuid.NewString(),
		Duration:    time.Since(started),
		Warnings:    len(result.Warnings),
		VendorBytes: map[string]int64{},
	}

	var emitErrors []api.Message
	var metadata *BuildMetadata
	if len(result.Errors) == 0 {
		var err error
		metadata, err = parseMetafile(result.Metafile)
		if err == nil {
			err = p.emit(metadata)
		}
		if err != nil {
			emitErrors = append(emitErrors, api.Message{PluginName: "reporter", Text: err.Error()})
			metadata = nil
		}
	}

	if metadata != nil {
		for _, outputPath := range metadata.sortedOutputs() {
			res.Outputs = append(res.Outputs, relativeTo(p.cfg.Output.Path, p.cfg.Context, outputPath))
			res.OutputBytes += int64(metadata.Outputs[outputPath].Bytes)
		}
		res.VendorBytes = p.vendorBytes(metadata)
	}

	errs := append(slices.Clone(result.Errors), emitErrors...)
	res.Errors = len(errs)

	logger.Messages(log.Logger, zerolog.ErrorLevel, errs)
	logger.Messages(log.Logger, zerolog.WarnLevel, result.Warnings)

	p.record(ctx, started, res)

	p.mu.Lock()
	p.last = res
	p.mu.Unlock()

	return emitErrors
}

func (p *Pipeline) record(ctx context.Context, started time.Time, res *Result) {
	metrics := telemetry.GetMetrics()
	mode := metric.WithAttributes(attribute.String("mode", string(p.cfg.Mode)))

	metrics.BuildsTotal.Add(ctx, 1, mode)
	metrics.BuildDuration.Record(ctx, float64(res.Duration.Milliseconds()), mode)

	_, span := telemetry.Tracer().Start(ctx, "spabuild.build", trace.WithTimestamp(started))
	span.SetAttributes(
		attribute.String("build.id", res.ID),
		attribute.String("build.mode", string(p.cfg.Mode)),
		attribute.Int("build.errors", res.Errors),
		attribute.Int("build.warnings", res.Warnings),
	)
	defer span.End()

	if res.Errors > 0 {
		metrics.BuildErrorsTotal.Add(ctx, 1, mode)
		span.SetStatus(codes.Error, fmt.Sprintf("%d errors", res.Errors))
		log.Error().Str("id", res.ID).Int("errors", res.Errors).Dur("duration", res.Duration).Msg("Build failed")
		return
	}

	metrics.OutputBytes.Record(ctx, res.OutputBytes, mode)
	for group, bytes := range res.VendorBytes {
		metrics.VendorBytes.Record(ctx, bytes, metric.WithAttributes(attribute.String("group", group)))
		log.Info().Str("group", group).Int64("bytes", bytes).Msg("Vendor bytes")
	}

	log.Info().
		Str("id", res.ID).
		Int("outputs", len(res.Outputs)).
		Int64("bytes", res.OutputBytes).
		Int("warnings", res.Warnings).
		Dur("duration", res.Duration).
		Msg("Build finished")
}

// vendorBytes applies each cache group's pattern to the inputs of every output.
func (p *Pipeline) vendorBytes(metadata *BuildMetadata) map[string]int64 {
	groups := p.cfg.Optimization.SplitChunks.CacheGroups

	keys := make([]string, 0, len(groups))
	for key := range groups {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	out := map[string]int64{}
	for _, key := range keys {
		group := groups[key]
		name := group.Name
		if name == "" {
			name = key
		}
		out[name] += metadata.BytesMatching(p.cfg.Context, group.Test.MatchString)
	}
	return out
}

// emit writes the HTML document and the asset manifest for the configured plugins.
func (p *Pipeline) emit(metadata *BuildMetadata) error {
	cfg := p.cfg
	outdir := cfg.Output.Path
	entry := entryRelative(cfg.Context, cfg.Entry)

	var generated []string

	if plugin, ok := cfg.Plugins.Find(bundle.HTMLPlugin{}.PluginName()); ok {
		html := plugin.(bundle.HTMLPlugin)

		doc, err := documentAssetsFor(metadata, entry, outdir, cfg.Context, cfg.Output.PublicPath)
		if err != nil {
			return err
		}
		page, err := renderDocument(html.Template, cfg.Name, cfg.PublicURLOrPath, doc)
		if err != nil {
			return err
		}
		if err := writeOutput(filepath.Join(outdir, html.Filename), page); err != nil {
			return err
		}
		generated = append(generated, html.Filename)
	}

	if plugin, ok := cfg.Plugins.Find(bundle.ManifestPlugin{}.PluginName()); ok {
		mp := plugin.(bundle.ManifestPlugin)

		manifest := buildManifest(metadata, entry, entryName, outdir, cfg.Context, cfg.Output.PublicPath, mp.BasePath, generated)
		data, err := encodeManifest(manifest)
		if err != nil {
			return err
		}
		if err := writeOutput(filepath.Join(outdir, mp.FileName), data); err != nil {
			return err
		}
	}

	return nil
}

func writeOutput(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil { //nolint:gosec
		return fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}
	return nil
}

func relativeTo(outdir, workDir, outputPath string) string {
	rel, err := filepath.Rel(outdir, filepath.Join(workDir, filepath.FromSlash(outputPath)))
	if err != nil {
		return outputPath
	}
	return filepath.ToSlash(rel)
}
