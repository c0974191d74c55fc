package pipeline

import (
	"context"
	"time"

	"github.com/npillmayer/emojifont/core"
	"github.com/npillmayer/emojifont/core/codepoint"
	"github.com/npillmayer/emojifont/core/config"
	"github.com/npillmayer/emojifont/core/font"
	"github.com/npillmayer/emojifont/core/font/fontregistry"
	"github.com/npillmayer/emojifont/core/font/opentype/ot"
	"github.com/npillmayer/emojifont/core/locate/resources"
	"github.com/npillmayer/emojifont/engine/glyphing"
	"github.com/npillmayer/emojifont/engine/subset"
	"github.com/npillmayer/schuko"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/semaphore"
	"golang.org/x/sync/singleflight"
)

// Config configures a Pipeline.
type Config struct {
	Options       Options
	Workers       int           // concurrent builds, at least 1
	CacheCapacity int           // < 1 disables the cache
	CacheTTL      time.Duration // <= 0 disables expiry
	Clock         Clock         // nil for the system clock
	Registerer    prometheus.Registerer
}

// ConfigFrom translates application settings to a pipeline configuration.
func ConfigFrom(c *config.Config) Config {
	return Config{
		Options: Options{
			Subset: subset.Options{
				PreserveHinting:   c.Hinting,
				FlattenComposites: c.Flatten,
				OptimizePaths:     c.Optimize,
			},
			GSUB:   c.GSUB,
			Format: c.Format,
		},
		Workers:       c.Workers,
		CacheCapacity: c.CacheCapacity,
		CacheTTL:      c.CacheTTL,
	}
}

// Pipeline serves emoji requests for a single source font. It is safe for
// concurrent use.
type Pipeline struct {
	doc     *ot.Font
	shaper  glyphing.Shaper
	opts    Options
	cache   *ResultCache
	flights singleflight.Group
	workers *semaphore.Weighted
	Metrics *Metrics
}

// New creates a pipeline on source font doc.
func New(doc *ot.Font, shaper glyphing.Shaper, conf Config) *Pipeline {
	if conf.Workers < 1 {
		conf.Workers = 1
	}
	return &Pipeline{
		doc:     doc,
		shaper:  shaper,
		opts:    conf.Options,
		cache:   NewResultCache(conf.CacheCapacity, conf.CacheTTL, conf.Clock),
		workers: semaphore.NewWeighted(int64(conf.Workers)),
		Metrics: NewMetrics(conf.Registerer),
	}
}

// Setup creates a pipeline from the application configuration: it resolves
// the source font (using registry reg) and the configured shaper.
func Setup(conf schuko.Configuration, reg *fontregistry.Registry) (*Pipeline, error) {
	c, err := config.FromConfig(conf)
	if err != nil {
		return nil, err
	}
	if reg == nil {
		reg = fontregistry.NewRegistry()
	}
	var f *font.ScalableFont
	if f, err = resources.ResolveFont(conf, reg, c.Font).Font(); err != nil {
		return nil, err
	}
	shaper, err := NewShaper(c.Shaper, f)
	if err != nil {
		return nil, err
	}
	tracer().Infof("pipeline for font %q: %s", f.Fontname, c)
	return New(f.OT, shaper, ConfigFrom(c)), nil
}

// Cache returns the result cache of p.
func (p *Pipeline) Cache() *ResultCache {
	return p.cache
}

// Key returns the cache key for a request.
func (p *Pipeline) Key(req Request) (CacheKey, error) {
	seq, err := codepoint.Decode(req.Text)
	if err != nil {
		return CacheKey{}, err
	}
	return CacheKey{
		Sequence: seq.Key(),
		Width:    req.Width,
		Height:   req.Height,
		Options:  p.opts.String(),
	}, nil
}

// Render returns the subset font for a request, from the cache if possible.
// Concurrent requests with the same key share a single build.
//
// If ctx is cancelled before the result is ready, Render returns the context's
// error. The build continues in the background and will populate the cache.
func (p *Pipeline) Render(ctx context.Context, req Request) (*Result, error) {
	key, err := p.Key(req)
	if err != nil {
		return nil, &PipelineError{Stage: StageDecode, Err: err}
	}
	if r, ok := p.cache.Get(key); ok {
		p.Metrics.CacheHits.Inc()
		tracer().Debugf("cache hit for %s", key)
		return r.cached(), nil
	}
	p.Metrics.CacheMisses.Inc()
	ch := p.flights.DoChan(key.String(), func() (interface{}, error) {
		return p.build(key, req)
	})
	select {
	case <-ctx.Done():
		tracer().Infof("client gave up waiting for %s: %v", key, ctx.Err())
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		r := res.Val.(*Result)
		if res.Shared {
			tracer().Debugf("shared build for %s", key)
		}
		return r, nil
	}
}

// build runs the pipeline on a worker. It is executed at most once per key
// at a time, and it is not bound to any client's context.
func (p *Pipeline) build(key CacheKey, req Request) (*Result, error) {
	if r, ok := p.cache.Get(key); ok { // a build may have finished meanwhile
		return r.cached(), nil
	}
	if err := p.workers.Acquire(context.Background(), 1); err != nil {
		return nil, core.WrapError(err, core.EINTERNAL, "cannot acquire worker")
	}
	defer p.workers.Release(1)
	p.Metrics.Builds.Inc()
	start := time.Now()
	r, err := Process(p.doc, p.shaper, req, p.opts)
	p.Metrics.BuildDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		stage := StageResolve
		if perr, ok := err.(*PipelineError); ok {
			stage = perr.Stage
		}
		p.Metrics.Failures.WithLabelValues(stage.String()).Inc()
		return nil, err
	}
	p.cache.Put(key, r)
	return r, nil
}

// --- Asynchronous requests -------------------------------------------------

// ResultPromise delivers a result which is being built in the background.
// It may be awaited any number of times.
type ResultPromise interface {
	Result() (*Result, error)
	Await(ctx context.Context) (*Result, error)
}

type resultLoader struct {
	await func(ctx context.Context) (*Result, error)
}

func (loader resultLoader) Result() (*Result, error) {
	return loader.await(context.Background())
}

func (loader resultLoader) Await(ctx context.Context) (*Result, error) {
	return loader.await(ctx)
}

// RenderAsync starts rendering a request in the background.
func (p *Pipeline) RenderAsync(req Request) ResultPromise {
	done := make(chan struct{})
	var result *Result
	var err error
	go func() {
		defer close(done)
		result, err = p.Render(context.Background(), req)
	}()
	return resultLoader{
		await: func(ctx context.Context) (*Result, error) {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-done:
				return result, err
			}
		},
	}
}
