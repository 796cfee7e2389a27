// Package pipeline runs the geometry preparation stages over one or many meshes.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Faultbox/meshprep/internal/config"
	"github.com/Faultbox/meshprep/pkg/filters"
	"github.com/Faultbox/meshprep/pkg/geometry"
	"github.com/Faultbox/meshprep/pkg/projection"
	"github.com/Faultbox/meshprep/pkg/tipsify"
)

// Options selects the stages Prepare runs. Stages run in field order.
type Options struct {
	PreVertexCache     bool
	PostVertexCache    bool
	CacheSize          int
	FitToUnsignedShort bool
	ComputeNormals     bool
	ComputeTangents    bool
	ProjectTo2D        bool
	Projection         projection.MapProjection
	EncodeAttributes   []string
	Wireframe          bool

	// Workers bounds how many geometries PrepareAll handles at once.
	Workers int
	// Timeout bounds a whole PrepareAll call; 0 means no limit.
	Timeout time.Duration
}

// DefaultOptions reorders for both vertex caches and splits for 16-bit indices.
func DefaultOptions() Options {
	return Options{
		PreVertexCache:     true,
		PostVertexCache:    true,
		CacheSize:          tipsify.DefaultCacheSize,
		FitToUnsignedShort: true,
		Workers:            1,
	}
}

// OptionsFromConfig converts the pipeline config section.
func OptionsFromConfig(cfg config.PipelineConfig) (Options, error) {
	proj, err := projection.ByName(cfg.Projection)
	if err != nil {
		return Options{}, err
	}
	return Options{
		PreVertexCache:     cfg.PreVertexCache,
		PostVertexCache:    cfg.PostVertexCache,
		CacheSize:          cfg.CacheSize,
		FitToUnsignedShort: cfg.FitToUnsignedShort,
		ComputeNormals:     cfg.ComputeNormals,
		ComputeTangents:    cfg.ComputeTangents,
		ProjectTo2D:        cfg.ProjectTo2D,
		Projection:         proj,
		EncodeAttributes:   cfg.EncodeAttributes,
		Wireframe:          cfg.Wireframe,
		Workers:            cfg.Workers,
		Timeout:            cfg.Timeout,
	}, nil
}

// Input is one named geometry to prepare.
type Input struct {
	Name     string
	Geometry *geometry.Geometry
}

// Result is the outcome of preparing one geometry.
type Result struct {
	Name   string
	Shards []*geometry.Geometry
	// ACMRBefore and ACMRAfter are zero unless the post-vertex-cache stage ran.
	ACMRBefore float64
	ACMRAfter  float64
}

// Pipeline prepares geometries. It is safe for concurrent use.
type Pipeline struct {
	opts Options
	log  *zap.Logger
}

// New creates a pipeline. A nil logger discards output.
func New(opts Options, log *zap.Logger) *Pipeline {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.CacheSize <= 0 {
		opts.CacheSize = tipsify.DefaultCacheSize
	}
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	return &Pipeline{opts: opts, log: log}
}

// Options returns the effective options.
func (p *Pipeline) Options() Options {
	return p.opts
}

// Prepare runs every enabled stage over a copy of g and returns the resulting
// shards. g itself is never modified.
func (p *Pipeline) Prepare(ctx context.Context, g *geometry.Geometry) ([]*geometry.Geometry, error) {
	res, err := p.prepare(ctx, "", g)
	if err != nil {
		return nil, err
	}
	return res.Shards, nil
}

// PrepareAll prepares inputs concurrently, at most Options.Workers at a time.
// Results keep the input order. The first failure cancels the remaining work.
func (p *Pipeline) PrepareAll(ctx context.Context, inputs []Input) ([]Result, error) {
	if p.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.opts.Timeout)
		defer cancel()
	}

	results := make([]Result, len(inputs))
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(p.opts.Workers)
	for i, in := range inputs {
		eg.Go(func() error {
			res, err := p.prepare(ctx, in.Name, in.Geometry)
			if err != nil {
				if in.Name != "" {
					return fmt.Errorf("%s: %w", in.Name, err)
				}
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (p *Pipeline) prepare(ctx context.Context, name string, g *geometry.Geometry) (Result, error) {
	log := p.log.With(zap.String("mesh", name))
	res := Result{Name: name}
	if g == nil {
		return res, geometry.Structural("pipeline.Prepare", "", geometry.ErrNilGeometry, "")
	}
	if err := g.Validate(); err != nil {
		return res, err
	}
	started := time.Now()
	g = g.Clone()

	if p.opts.PreVertexCache {
		if err := p.stage(ctx, log, "pre_vertex_cache", func() (err error) {
			g, err = filters.ReorderForPreVertexCache(g)
			return err
		}); err != nil {
			return res, err
		}
	}

	if p.opts.PostVertexCache {
		if err := p.stage(ctx, log, "post_vertex_cache", func() (err error) {
			if g.PrimitiveType != geometry.Triangles || len(g.Indices) == 0 {
				return nil
			}
			if res.ACMRBefore, err = tipsify.CalculateACMR(g.Indices, -1, p.opts.CacheSize); err != nil {
				return err
			}
			if g, err = filters.ReorderForPostVertexCache(g, p.opts.CacheSize); err != nil {
				return err
			}
			res.ACMRAfter, err = tipsify.CalculateACMR(g.Indices, -1, p.opts.CacheSize)
			return err
		}); err != nil {
			return res, err
		}
		if res.ACMRBefore > 0 {
			log.Debug("vertex cache",
				zap.Float64("acmr_before", res.ACMRBefore),
				zap.Float64("acmr_after", res.ACMRAfter))
		}
	}

	shards := []*geometry.Geometry{g}
	if p.opts.FitToUnsignedShort && g.PrimitiveType == geometry.Triangles {
		if err := p.stage(ctx, log, "fit_to_unsigned_short", func() (err error) {
			shards, err = filters.FitToUnsignedShortIndices(g)
			return err
		}); err != nil {
			return res, err
		}
	}

	for i, shard := range shards {
		out, err := p.prepareShard(ctx, log.With(zap.Int("shard", i)), shard)
		if err != nil {
			return res, fmt.Errorf("shard %d: %w", i, err)
		}
		shards[i] = out
	}
	res.Shards = shards

	log.Info("prepared",
		zap.Int("shards", len(shards)),
		zap.Duration("elapsed", time.Since(started)))
	return res, nil
}

// prepareShard runs the attribute stages on one shard.
func (p *Pipeline) prepareShard(ctx context.Context, log *zap.Logger, g *geometry.Geometry) (*geometry.Geometry, error) {
	var err error
	if p.opts.ComputeNormals {
		if err = p.stage(ctx, log, "compute_normals", func() (err error) {
			g, err = filters.ComputeNormal(g)
			return err
		}); err != nil {
			return nil, err
		}
	}
	if p.opts.ComputeTangents {
		if err = p.stage(ctx, log, "compute_tangents", func() (err error) {
			g, err = filters.ComputeTangentAndBinormal(g)
			return err
		}); err != nil {
			return nil, err
		}
	}
	if p.opts.ProjectTo2D {
		if err = p.stage(ctx, log, "project_to_2d", func() (err error) {
			g, err = filters.ProjectTo2D(g, p.opts.Projection)
			return err
		}); err != nil {
			return nil, err
		}
	}
	for _, name := range p.opts.EncodeAttributes {
		if err = p.stage(ctx, log, "encode_attribute", func() (err error) {
			g, err = filters.EncodeAttribute(g, name)
			return err
		}); err != nil {
			return nil, err
		}
	}
	if p.opts.Wireframe {
		if err = p.stage(ctx, log, "wireframe", func() (err error) {
			g, err = filters.ToWireframe(g)
			return err
		}); err != nil {
			return nil, err
		}
	}
	return g, nil
}

// stage checks for cancellation, runs fn and logs how long it took.
func (p *Pipeline) stage(ctx context.Context, log *zap.Logger, name string, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	start := time.Now()
	if err := fn(); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	log.Debug("stage done", zap.String("stage", name), zap.Duration("elapsed", time.Since(start)))
	return nil
}
