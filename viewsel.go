package viewsel

import (
	"context"
	"fmt"
	"time"

	"github.com/hupe1980/viewsel/camera"
	"github.com/hupe1980/viewsel/indexspace"
	"github.com/hupe1980/viewsel/loader"
	"github.com/hupe1980/viewsel/prior"
	"github.com/hupe1980/viewsel/ranking"
	"github.com/hupe1980/viewsel/sampler"
)

// CameraStore exposes the per-observation camera parameters of a sequence.
// Indices are physical: positions in the raw camera and frame enumerations.
// Implementations must be safe for concurrent reads.
type CameraStore interface {
	// NumViews returns the raw camera count.
	NumViews() int
	// NumFrames returns the raw frame count.
	NumFrames() int
	// Pose returns the world-to-camera extrinsic and intrinsic for the
	// given physical (camera, frame) pair.
	Pose(cam, frame int) (camera.Pose, error)
	// ImageSize returns the image dimensions.
	ImageSize() (width, height int)
	// Bounds returns the global scene bound.
	Bounds() prior.Bounds
}

// ForegroundBoundsProvider is an optional CameraStore extension exposing a
// precomputed per-frame foreground bound (from a visual hull or mesh
// prior), keyed by physical frame index.
type ForegroundBoundsProvider interface {
	ForegroundBounds(frame int) (prior.Bounds, error)
}

// Config describes the dataset layout and selection behavior.
type Config struct {
	// Axis selects the candidate axis: cameras (AxisView) or frames
	// (AxisTime).
	Axis camera.Axis

	// FrameSample and ViewSample subsample the raw enumerations. The zero
	// value selects everything.
	FrameSample indexspace.SampleSpec
	ViewSample  indexspace.SampleSpec

	// SrcViewSample restricts the candidate axis to the source pool.
	// The zero value admits every candidate.
	SrcViewSample indexspace.SampleSpec

	// ForceSparse permits non-default FrameSample/ViewSample combinations
	// that are otherwise rejected as inconsistent with the selection axis.
	ForceSparse bool

	// Policy is the training-time sampling policy. The zero value uses
	// sampler.DefaultPolicy.
	Policy sampler.Policy

	// UseObjectPrior enables foreground crop computation. Requires
	// ObjectsBounds or a store implementing ForegroundBoundsProvider.
	UseObjectPrior bool

	// ObjectsBounds, when set, overrides any store-provided foreground
	// bound.
	ObjectsBounds *prior.Bounds

	// SupplyDecoded marks payloads as pre-decoded tensors rather than raw
	// encoded streams. This layer moves bytes either way; the flag is
	// echoed on assembled samples so consumers know which form they hold.
	SupplyDecoded bool

	// Barebone short-circuits ViewerBatch to a minimal batch without
	// source selection, payload loading or cropping.
	Barebone bool

	// RenderRatio rescales intrinsics and image dimensions on the viewer
	// path. Zero means 1 (no scaling).
	RenderRatio float64

	// ImboundCrop crops viewer intrinsics to the projected scene bound.
	ImboundCrop bool
}

// DefaultConfig returns a Config with view-axis selection over the whole
// enumeration and the default sampling policy.
func DefaultConfig() Config {
	return Config{
		Axis:          camera.AxisView,
		FrameSample:   indexspace.Every(),
		ViewSample:    indexspace.Every(),
		SrcViewSample: indexspace.Every(),
		Policy:        sampler.DefaultPolicy,
		RenderRatio:   1,
	}
}

// Query addresses one training observation.
type Query struct {
	// Index is the flat dataset index: latent*NumViews() + view.
	Index int

	// NumSources requests a specific source count. Zero draws the count
	// from the configured policy distribution.
	NumSources int
}

// Dataset selects source observations for target views. All cached state
// (pose grids, similarity ranking, index translations) is immutable after
// construction and shared read-only across concurrent queries.
type Dataset struct {
	store      CameraStore
	cfg        Config
	translator *indexspace.Translator

	// srcViewInds maps candidate-axis indices of the restricted source
	// pool back to the full (virtual) candidate enumeration.
	srcViewInds []int

	targets *camera.Grid
	sources *camera.Grid
	rank    *ranking.Ranking

	selector *sampler.Selector
	fg       ForegroundBoundsProvider

	width, height int

	fetcher       loader.Fetcher
	loaderOptions []func(*loader.Options)

	codec   codecHandle
	metrics MetricsCollector
	logger  *Logger
}

// New constructs a Dataset: poses are loaded, the candidate-major grids are
// built, and the full similarity ranking is computed eagerly. Configuration
// problems are fatal here; queries only ever fail on out-of-range indices.
func New(store CameraStore, cfg Config, optFns ...Option) (*Dataset, error) {
	o := applyOptions(optFns)

	cfg.FrameSample = orEvery(cfg.FrameSample)
	cfg.ViewSample = orEvery(cfg.ViewSample)
	cfg.SrcViewSample = orEvery(cfg.SrcViewSample)
	if cfg.RenderRatio == 0 {
		cfg.RenderRatio = 1
	}
	if len(cfg.Policy.CountChoices) == 0 {
		cfg.Policy = sampler.DefaultPolicy
	}

	if !cfg.ForceSparse {
		// Non-default sampling must go through the sampler configuration,
		// not the dataset enumeration, or ranking indices and image
		// indices drift apart.
		if cfg.Axis == camera.AxisTime && !cfg.FrameSample.IsDefault() {
			return nil, &ErrAxisConfig{Reason: "time-axis selection requires the default frame sample; control sampling through SrcViewSample or set ForceSparse"}
		}
		if !cfg.ViewSample.IsDefault() {
			return nil, &ErrAxisConfig{Reason: "non-default view sample; control sampling through SrcViewSample or set ForceSparse"}
		}
	}

	translator, err := indexspace.NewTranslator(store.NumFrames(), store.NumViews(), cfg.FrameSample, cfg.ViewSample)
	if err != nil {
		return nil, err
	}

	poses, err := loadPoses(store, translator)
	if err != nil {
		return nil, err
	}
	targets, err := camera.NewGrid(poses, cfg.Axis)
	if err != nil {
		return nil, err
	}

	srcViewInds, err := cfg.SrcViewSample.Resolve(targets.Candidates())
	if err != nil {
		return nil, err
	}
	sources, err := targets.SubsetCandidates(srcViewInds)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	rank, err := ranking.Build(targets, sources)
	if err != nil {
		return nil, err
	}
	buildTime := time.Since(start)
	o.metricsCollector.RecordRankingBuild(targets.Candidates(), sources.Candidates(), buildTime)
	o.logger.LogRankingBuild(context.Background(), targets.Candidates(), sources.Candidates(), targets.Secondaries(), buildTime)

	policy := cfg.Policy.ResolveAll(sources.Candidates())
	if err := policy.Validate(sources.Candidates()); err != nil {
		return nil, err
	}
	cfg.Policy = policy

	var fg ForegroundBoundsProvider
	if cfg.UseObjectPrior && cfg.ObjectsBounds == nil {
		var ok bool
		fg, ok = store.(ForegroundBoundsProvider)
		if !ok {
			return nil, ErrNoForegroundSource
		}
	}

	width, height := store.ImageSize()

	return &Dataset{
		store:         store,
		cfg:           cfg,
		translator:    translator,
		srcViewInds:   srcViewInds,
		targets:       targets,
		sources:       sources,
		rank:          rank,
		selector:      sampler.New(policy, o.seed),
		fg:            fg,
		width:         width,
		height:        height,
		fetcher:       o.fetcher,
		loaderOptions: o.loaderOptions,
		codec:         codecHandle{codec: o.codec, compression: o.compression},
		metrics:       o.metricsCollector,
		logger:        o.logger,
	}, nil
}

// Len returns the number of addressable (view, latent) observations.
func (d *Dataset) Len() int {
	return d.translator.NumLatents() * d.translator.NumViews()
}

// NumSourceCandidates returns the size of the restricted source pool.
func (d *Dataset) NumSourceCandidates() int {
	return d.sources.Candidates()
}

// Translator exposes the dataset's index-space translator.
func (d *Dataset) Translator() *indexspace.Translator {
	return d.translator
}

// Sample resolves a training query: it selects source views stochastically
// from the precomputed ranking, gathers their camera parameters, loads the
// image payloads in parallel, and assembles the result.
func (d *Dataset) Sample(ctx context.Context, q Query) (*Sample, error) {
	start := time.Now()
	s, err := d.sample(ctx, q)
	n := 0
	if s != nil {
		n = len(s.SourceIndices)
	}
	d.metrics.RecordSelect(n, time.Since(start), err)
	return s, err
}

func (d *Dataset) sample(ctx context.Context, q Query) (*Sample, error) {
	numViews := d.translator.NumViews()
	if q.Index < 0 || q.Index >= d.Len() {
		return nil, &ErrIndexRange{Index: q.Index, Size: d.Len()}
	}
	view := q.Index % numViews
	latent := q.Index / numViews

	target, secondary := d.axisSplit(view, latent)

	ranked, sims, err := d.rank.At(target, secondary)
	if err != nil {
		return nil, err
	}

	chosen, err := d.selector.Select(ranked, target, secondary, q.NumSources)
	d.logger.LogSelect(ctx, target, secondary, len(chosen), err)
	if err != nil {
		return nil, err
	}

	simByCandidate := make(map[int]float64, len(ranked))
	for i, c := range ranked {
		simByCandidate[c] = sims[i]
	}

	frame, err := d.translator.LatentToFrame(latent)
	if err != nil {
		return nil, err
	}

	targetPose := d.targets.At(target, secondary)

	srcViews, srcLatents, exts, ixts, chosenSims := d.gatherSources(chosen, secondary, simByCandidate)

	builder := NewSampleBuilder().
		Indices(view, latent, frame, secondary).
		Size(d.width, d.height).
		Target(targetPose.Ext, targetPose.Ixt).
		Sources(chosen, srcViews, srcLatents, exts, ixts, chosenSims).
		Bounds(d.store.Bounds())

	if d.fetcher != nil {
		payloads, err := d.loadPayloads(ctx, srcViews, srcLatents)
		if err != nil {
			return nil, err
		}
		builder.Payloads(payloads, d.cfg.SupplyDecoded)
	}

	if d.cfg.UseObjectPrior {
		if err := d.applyObjectPrior(builder, latent, targetPose.Ixt, targetPose.Ext, d.width, d.height); err != nil {
			return nil, err
		}
	}

	return builder.Finalize(), nil
}

// axisSplit maps a (view, latent) pair to (target, secondary) along the
// configured candidate axis.
func (d *Dataset) axisSplit(view, latent int) (target, secondary int) {
	if d.cfg.Axis == camera.AxisTime {
		return latent, view
	}
	return view, latent
}

// gatherSources resolves selected candidate indices into loadable (view,
// latent) pairs and their camera parameters. Candidate indices address the
// restricted source pool; srcViewInds maps them back to the full candidate
// enumeration.
func (d *Dataset) gatherSources(chosen []int, secondary int, simByCandidate map[int]float64) (views, latents []int, exts []camera.Matrix4, ixts []camera.Matrix3, sims []float64) {
	views = make([]int, len(chosen))
	latents = make([]int, len(chosen))
	exts = make([]camera.Matrix4, len(chosen))
	ixts = make([]camera.Matrix3, len(chosen))
	sims = make([]float64, len(chosen))

	for i, c := range chosen {
		pose := d.sources.At(c, secondary)
		exts[i] = pose.Ext
		ixts[i] = pose.Ixt
		sims[i] = simByCandidate[c]

		mapped := d.srcViewInds[c]
		if d.cfg.Axis == camera.AxisTime {
			views[i] = secondary
			latents[i] = mapped
		} else {
			views[i] = mapped
			latents[i] = secondary
		}
	}
	return views, latents, exts, ixts, sims
}

// FetchPayloads loads payloads for arbitrary (view, latent) pairs through
// the configured fetcher, in request order.
func (d *Dataset) FetchPayloads(ctx context.Context, views, latents []int) ([]loader.Payload, error) {
	if d.fetcher == nil {
		return nil, ErrNoFetcher
	}
	if len(views) != len(latents) {
		return nil, fmt.Errorf("got %d views but %d latents", len(views), len(latents))
	}
	return d.loadPayloads(ctx, views, latents)
}

func (d *Dataset) loadPayloads(ctx context.Context, views, latents []int) ([]loader.Payload, error) {
	reqs := make([]loader.Request, len(views))
	for i := range views {
		reqs[i] = loader.Request{View: views[i], Latent: latents[i]}
	}
	start := time.Now()
	payloads, err := loader.Parallel(ctx, d.fetcher, reqs, d.loaderOptions...)
	d.metrics.RecordLoad(len(reqs), time.Since(start), err)
	d.logger.LogLoad(ctx, len(reqs), err)
	return payloads, err
}

// objectBounds resolves the foreground bound for a latent index: the
// explicit override wins, otherwise the store's per-frame bound keyed by
// the physical frame index.
func (d *Dataset) objectBounds(latent int) (prior.Bounds, error) {
	if d.cfg.ObjectsBounds != nil {
		return *d.cfg.ObjectsBounds, nil
	}
	frame, err := d.translator.VirtualToPhysical(latent)
	if err != nil {
		return prior.Bounds{}, err
	}
	return d.fg.ForegroundBounds(frame)
}

func (d *Dataset) applyObjectPrior(builder *SampleBuilder, latent int, ixt camera.Matrix3, ext camera.Matrix4, width, height int) error {
	bounds, err := d.objectBounds(latent)
	if err != nil {
		return err
	}
	crop, err := prior.BoundCrop(bounds, ixt, ext, width, height)
	if err != nil {
		return err
	}
	builder.ObjectPrior(bounds, crop)
	return nil
}

func loadPoses(store CameraStore, translator *indexspace.Translator) ([][]camera.Pose, error) {
	views := translator.RetainedViews()
	frames := translator.RetainedFrames()
	poses := make([][]camera.Pose, len(views))
	for v, cam := range views {
		poses[v] = make([]camera.Pose, len(frames))
		for f, frame := range frames {
			pose, err := store.Pose(cam, frame)
			if err != nil {
				return nil, fmt.Errorf("load pose for camera %d frame %d: %w", cam, frame, err)
			}
			poses[v][f] = pose
		}
	}
	return poses, nil
}

// orEvery upgrades a zero-value spec to the full selection, so a zero
// Config field means "everything" rather than an invalid zero stride.
func orEvery(s indexspace.SampleSpec) indexspace.SampleSpec {
	if s.Indices == nil && s.Start == 0 && s.Stop == 0 && s.Step == 0 {
		return indexspace.Every()
	}
	return s
}
