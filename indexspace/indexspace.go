// Package indexspace translates between the parallel index spaces of a
// multi-view dataset: physical (raw enumeration), virtual (after
// subsampling), latent (virtual temporal), and view/camera.
package indexspace

import (
	"fmt"
	"math"

	"github.com/RoaringBitmap/roaring/v2"
)

// RangeError reports an index outside the valid range of an index space.
type RangeError struct {
	Space string
	Index int
	Size  int
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("index %d out of range [0, %d) in %s space", e.Index, e.Size, e.Space)
}

// NotRetainedError reports a physical index that was dropped by subsampling
// and therefore has no virtual counterpart.
type NotRetainedError struct {
	Space string
	Index int
}

func (e *NotRetainedError) Error() string {
	return fmt.Sprintf("physical index %d not retained in %s space", e.Index, e.Space)
}

// SpecError reports an invalid SampleSpec.
type SpecError struct {
	Reason string
}

func (e *SpecError) Error() string {
	return fmt.Sprintf("invalid sample spec: %s", e.Reason)
}

// SampleSpec selects a subset of a raw enumeration, either as a strided
// slice or as an explicit index list.
type SampleSpec struct {
	// Start, Stop and Step describe a strided slice. Stop < 0 means
	// "to the end of the enumeration".
	Start int
	Stop  int
	Step  int

	// Indices, when non-nil, is an explicit index list and takes
	// precedence over the slice fields.
	Indices []int
}

// Every selects the whole enumeration.
func Every() SampleSpec {
	return SampleSpec{Start: 0, Stop: -1, Step: 1}
}

// Strided selects start:stop:step. Pass stop < 0 to select to the end.
func Strided(start, stop, step int) SampleSpec {
	return SampleSpec{Start: start, Stop: stop, Step: step}
}

// Explicit selects exactly the given indices, in order.
func Explicit(indices ...int) SampleSpec {
	return SampleSpec{Indices: append([]int(nil), indices...)}
}

// IsDefault reports whether the spec selects the whole enumeration with
// unit stride.
func (s SampleSpec) IsDefault() bool {
	return s.Indices == nil && s.Start == 0 && s.Stop < 0 && s.Step == 1
}

// Resolve expands the spec against an enumeration of size n.
//
// The result is always a slice, even when it holds a single element: a
// length-1 selection must stay a length-1 sequence so that downstream
// indexing never collapses a dimension.
func (s SampleSpec) Resolve(n int) ([]int, error) {
	if n <= 0 {
		return nil, &SpecError{Reason: fmt.Sprintf("enumeration size %d", n)}
	}

	if s.Indices != nil {
		if len(s.Indices) == 0 {
			return nil, &SpecError{Reason: "empty explicit index list"}
		}
		out := make([]int, len(s.Indices))
		for i, idx := range s.Indices {
			if idx < 0 || idx >= n {
				return nil, &RangeError{Space: "sample", Index: idx, Size: n}
			}
			out[i] = idx
		}
		return out, nil
	}

	if s.Step <= 0 {
		return nil, &SpecError{Reason: fmt.Sprintf("step %d", s.Step)}
	}
	start := s.Start
	if start < 0 {
		return nil, &SpecError{Reason: fmt.Sprintf("start %d", start)}
	}
	stop := s.Stop
	if stop < 0 || stop > n {
		stop = n
	}
	if start >= stop {
		return nil, &SpecError{Reason: fmt.Sprintf("empty selection %d:%d:%d over %d", s.Start, s.Stop, s.Step, n)}
	}

	out := make([]int, 0, (stop-start+s.Step-1)/s.Step)
	for i := start; i < stop; i += s.Step {
		out = append(out, i)
	}
	return out, nil
}

// axisMap maps one retained axis between physical and virtual space.
// Membership and ranking use a roaring bitmap over the retained physical
// indices; Select/Rank give both translation directions.
type axisMap struct {
	space    string
	total    int
	retained []int // virtual -> physical
	bitmap   *roaring.Bitmap
}

func newAxisMap(space string, total int, spec SampleSpec) (*axisMap, error) {
	retained, err := spec.Resolve(total)
	if err != nil {
		return nil, err
	}
	bm := roaring.New()
	prev := -1
	for _, p := range retained {
		if p <= prev {
			return nil, &SpecError{Reason: fmt.Sprintf("%s selection not strictly increasing at %d", space, p)}
		}
		prev = p
		bm.Add(uint32(p))
	}
	return &axisMap{space: space, total: total, retained: retained, bitmap: bm}, nil
}

func (m *axisMap) len() int { return len(m.retained) }

// toPhysical maps a virtual index to its physical index.
func (m *axisMap) toPhysical(virtual int) (int, error) {
	if virtual < 0 || virtual >= len(m.retained) {
		return 0, &RangeError{Space: m.space, Index: virtual, Size: len(m.retained)}
	}
	return m.retained[virtual], nil
}

// toVirtual maps a retained physical index back to virtual space.
func (m *axisMap) toVirtual(physical int) (int, error) {
	if physical < 0 || physical >= m.total {
		return 0, &RangeError{Space: m.space, Index: physical, Size: m.total}
	}
	if !m.bitmap.Contains(uint32(physical)) {
		return 0, &NotRetainedError{Space: m.space, Index: physical}
	}
	// Rank counts retained indices <= physical; the virtual index is
	// the zero-based position among them.
	return int(m.bitmap.Rank(uint32(physical))) - 1, nil
}

func (m *axisMap) min() int { return m.retained[0] }
func (m *axisMap) max() int { return m.retained[len(m.retained)-1] }

// nearestRetained snaps a physical index to the closest retained one,
// preferring the smaller index on ties.
func (m *axisMap) nearestRetained(physical int) int {
	best := m.retained[0]
	bestDist := abs(physical - best)
	for _, p := range m.retained[1:] {
		if d := abs(physical - p); d < bestDist {
			best, bestDist = p, d
		}
	}
	return best
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// Translator converts between the index spaces of one dataset.
// It is immutable after construction and safe for concurrent use.
type Translator struct {
	frames *axisMap
	views  *axisMap
}

// NewTranslator builds a Translator for a dataset with numFrames raw frames
// and numViews raw cameras, subsampled by the given specs.
func NewTranslator(numFrames, numViews int, frameSpec, viewSpec SampleSpec) (*Translator, error) {
	frames, err := newAxisMap("frame", numFrames, frameSpec)
	if err != nil {
		return nil, err
	}
	views, err := newAxisMap("view", numViews, viewSpec)
	if err != nil {
		return nil, err
	}
	return &Translator{frames: frames, views: views}, nil
}

// NumLatents returns the number of retained frames (virtual temporal size).
func (t *Translator) NumLatents() int { return t.frames.len() }

// NumViews returns the number of retained cameras.
func (t *Translator) NumViews() int { return t.views.len() }

// LatentToFrame maps a latent (virtual temporal) index to its physical
// frame index.
func (t *Translator) LatentToFrame(latent int) (int, error) {
	return t.frames.toPhysical(latent)
}

// FrameToLatent maps a retained physical frame index to latent space.
func (t *Translator) FrameToLatent(frame int) (int, error) {
	return t.frames.toVirtual(frame)
}

// ViewToCamera maps a view (virtual) index to its physical camera index.
func (t *Translator) ViewToCamera(view int) (int, error) {
	return t.views.toPhysical(view)
}

// CameraToView maps a retained physical camera index to view space.
func (t *Translator) CameraToView(cam int) (int, error) {
	return t.views.toVirtual(cam)
}

// VirtualToPhysical maps a latent index to its physical frame index. It is
// the temporal-axis alias used for keying per-frame cached quantities such
// as foreground bounds.
func (t *Translator) VirtualToPhysical(latent int) (int, error) {
	return t.LatentToFrame(latent)
}

// PhysicalToVirtual maps a retained physical frame index to latent space.
func (t *Translator) PhysicalToVirtual(frame int) (int, error) {
	return t.FrameToLatent(frame)
}

// TToFrame maps a normalized time t in [0, 1] to the nearest retained
// physical frame index. Values outside [0, 1] are clamped.
func (t *Translator) TToFrame(tt float64) int {
	if tt < 0 {
		tt = 0
	}
	if tt > 1 {
		tt = 1
	}
	lo, hi := t.frames.min(), t.frames.max()
	frame := lo + int(math.Round(tt*float64(hi-lo)))
	return t.frames.nearestRetained(frame)
}

// FrameToT is the inverse of TToFrame over the retained frame range.
func (t *Translator) FrameToT(frame int) float64 {
	lo, hi := t.frames.min(), t.frames.max()
	if hi == lo {
		return 0
	}
	return float64(frame-lo) / float64(hi-lo)
}

// VToCamera maps a normalized camera position v in [0, 1] to the nearest
// retained physical camera index. Values outside [0, 1] are clamped.
func (t *Translator) VToCamera(v float64) int {
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	lo, hi := t.views.min(), t.views.max()
	cam := lo + int(math.Round(v*float64(hi-lo)))
	return t.views.nearestRetained(cam)
}

// RetainedFrames returns a copy of the retained physical frame indices,
// ordered by latent index.
func (t *Translator) RetainedFrames() []int {
	return append([]int(nil), t.frames.retained...)
}

// RetainedViews returns a copy of the retained physical camera indices,
// ordered by view index.
func (t *Translator) RetainedViews() []int {
	return append([]int(nil), t.views.retained...)
}
