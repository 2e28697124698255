package viewsel

import (
	"github.com/hupe1980/viewsel/camera"
	"github.com/hupe1980/viewsel/loader"
	"github.com/hupe1980/viewsel/prior"
)

// Sample is the assembled result of one selection query: the target camera,
// the selected source cameras with their similarities, the loaded payloads
// and the optional foreground crop. A Sample is owned solely by its caller.
type Sample struct {
	// Index spaces of the target observation.
	View   int
	Latent int
	Frame  int

	// SecondaryIndex is the index held fixed during selection: the latent
	// index for view-axis selection, the view index for time-axis selection.
	SecondaryIndex int

	// Image dimensions after any render-ratio scaling or crop.
	Width  int
	Height int

	// Target camera parameters.
	TargetExt camera.Matrix4
	TargetIxt camera.Matrix3

	// SourceIndices are candidate-axis indices into the restricted source
	// pool. SourceViews and SourceLatents are the per-source (view, latent)
	// pairs used for payload loading.
	SourceIndices []int
	SourceViews   []int
	SourceLatents []int

	// Source camera parameters, parallel to SourceIndices.
	SourceExts []camera.Matrix4
	SourceIxts []camera.Matrix3

	// Similarities are the inverse-distance scores of the selected sources,
	// parallel to SourceIndices.
	Similarities []float64

	// Payloads are the loaded image payloads, parallel to SourceIndices.
	// Nil when no fetcher is configured.
	Payloads []loader.Payload

	// PayloadsDecoded reports whether the payload bytes are pre-decoded
	// tensors rather than raw encoded streams.
	PayloadsDecoded bool

	// Bounds is the scene bound for this sample.
	Bounds prior.Bounds

	// ObjectBounds and Crop are set when the object prior is enabled.
	ObjectBounds *prior.Bounds
	Crop         *prior.Crop
}

// SampleBuilder accumulates a Sample across the selection stages. Each
// stage sets its fields exactly once; Finalize hands the immutable result
// to the caller. This replaces open-ended mutable map accumulation with a
// typed record.
type SampleBuilder struct {
	s Sample
}

// NewSampleBuilder creates an empty builder.
func NewSampleBuilder() *SampleBuilder {
	return &SampleBuilder{}
}

// Indices records the target's index-space coordinates.
func (b *SampleBuilder) Indices(view, latent, frame, secondary int) *SampleBuilder {
	b.s.View = view
	b.s.Latent = latent
	b.s.Frame = frame
	b.s.SecondaryIndex = secondary
	return b
}

// Size records the image dimensions.
func (b *SampleBuilder) Size(width, height int) *SampleBuilder {
	b.s.Width = width
	b.s.Height = height
	return b
}

// Target records the target camera parameters.
func (b *SampleBuilder) Target(ext camera.Matrix4, ixt camera.Matrix3) *SampleBuilder {
	b.s.TargetExt = ext
	b.s.TargetIxt = ixt
	return b
}

// Sources records the selected sources and their camera parameters.
func (b *SampleBuilder) Sources(indices, views, latents []int, exts []camera.Matrix4, ixts []camera.Matrix3, sims []float64) *SampleBuilder {
	b.s.SourceIndices = indices
	b.s.SourceViews = views
	b.s.SourceLatents = latents
	b.s.SourceExts = exts
	b.s.SourceIxts = ixts
	b.s.Similarities = sims
	return b
}

// Payloads records the loaded payloads and which form their bytes are in.
func (b *SampleBuilder) Payloads(p []loader.Payload, decoded bool) *SampleBuilder {
	b.s.Payloads = p
	b.s.PayloadsDecoded = decoded
	return b
}

// Bounds records the scene bound.
func (b *SampleBuilder) Bounds(bounds prior.Bounds) *SampleBuilder {
	b.s.Bounds = bounds
	return b
}

// ObjectPrior records the foreground bound and its crop region.
func (b *SampleBuilder) ObjectPrior(bounds prior.Bounds, crop prior.Crop) *SampleBuilder {
	b.s.ObjectBounds = &bounds
	b.s.Crop = &crop
	return b
}

// Finalize returns the assembled Sample. The builder must not be reused.
func (b *SampleBuilder) Finalize() *Sample {
	s := b.s
	return &s
}
