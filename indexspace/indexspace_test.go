package indexspace

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSampleSpecResolve(t *testing.T) {
	tests := []struct {
		name     string
		spec     SampleSpec
		n        int
		expected []int
	}{
		{"Every", Every(), 4, []int{0, 1, 2, 3}},
		{"Strided", Strided(1, -1, 2), 6, []int{1, 3, 5}},
		{"StridedStop", Strided(0, 3, 1), 6, []int{0, 1, 2}},
		{"StopPastEnd", Strided(0, 100, 2), 5, []int{0, 2, 4}},
		{"Explicit", Explicit(3, 1, 1), 4, []int{3, 1, 1}},
		{"SingleStaysSlice", Explicit(2), 4, []int{2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.spec.Resolve(tt.n)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestSampleSpecResolveErrors(t *testing.T) {
	var specErr *SpecError
	var rangeErr *RangeError

	_, err := Every().Resolve(0)
	require.ErrorAs(t, err, &specErr)

	_, err = Strided(0, -1, 0).Resolve(4)
	require.ErrorAs(t, err, &specErr)

	_, err = Strided(4, -1, 1).Resolve(4)
	require.ErrorAs(t, err, &specErr)

	_, err = Explicit(5).Resolve(4)
	require.ErrorAs(t, err, &rangeErr)

	_, err = SampleSpec{Indices: []int{}}.Resolve(4)
	require.ErrorAs(t, err, &specErr)
}

func TestSampleSpecIsDefault(t *testing.T) {
	assert.True(t, Every().IsDefault())
	assert.False(t, Strided(1, -1, 1).IsDefault())
	assert.False(t, Strided(0, -1, 2).IsDefault())
	assert.False(t, Explicit(0, 1).IsDefault())
}

func TestTranslatorIdentity(t *testing.T) {
	tr, err := NewTranslator(10, 4, Every(), Every())
	require.NoError(t, err)

	assert.Equal(t, 10, tr.NumLatents())
	assert.Equal(t, 4, tr.NumViews())

	frame, err := tr.LatentToFrame(7)
	require.NoError(t, err)
	assert.Equal(t, 7, frame)

	latent, err := tr.FrameToLatent(7)
	require.NoError(t, err)
	assert.Equal(t, 7, latent)
}

func TestTranslatorSubsampled(t *testing.T) {
	// Retain frames 2, 4, 6, 8 and views 0, 3.
	tr, err := NewTranslator(10, 4, Strided(2, -1, 2), Explicit(0, 3))
	require.NoError(t, err)

	assert.Equal(t, 4, tr.NumLatents())
	assert.Equal(t, 2, tr.NumViews())
	assert.Equal(t, []int{2, 4, 6, 8}, tr.RetainedFrames())
	assert.Equal(t, []int{0, 3}, tr.RetainedViews())

	frame, err := tr.LatentToFrame(1)
	require.NoError(t, err)
	assert.Equal(t, 4, frame)

	latent, err := tr.FrameToLatent(6)
	require.NoError(t, err)
	assert.Equal(t, 2, latent)

	cam, err := tr.ViewToCamera(1)
	require.NoError(t, err)
	assert.Equal(t, 3, cam)

	view, err := tr.CameraToView(3)
	require.NoError(t, err)
	assert.Equal(t, 1, view)
}

func TestTranslatorNotRetained(t *testing.T) {
	tr, err := NewTranslator(10, 4, Strided(0, -1, 2), Every())
	require.NoError(t, err)

	var notRetained *NotRetainedError
	_, err = tr.FrameToLatent(3)
	require.ErrorAs(t, err, &notRetained)
	assert.Equal(t, 3, notRetained.Index)
}

func TestTranslatorRange(t *testing.T) {
	tr, err := NewTranslator(5, 2, Every(), Every())
	require.NoError(t, err)

	var rangeErr *RangeError
	_, err = tr.LatentToFrame(5)
	require.ErrorAs(t, err, &rangeErr)

	_, err = tr.FrameToLatent(-1)
	require.ErrorAs(t, err, &rangeErr)
}

func TestTranslatorAliases(t *testing.T) {
	tr, err := NewTranslator(6, 2, Strided(1, -1, 2), Every())
	require.NoError(t, err)

	frame, err := tr.VirtualToPhysical(2)
	require.NoError(t, err)
	assert.Equal(t, 5, frame)

	latent, err := tr.PhysicalToVirtual(3)
	require.NoError(t, err)
	assert.Equal(t, 1, latent)
}

func TestTToFrame(t *testing.T) {
	tr, err := NewTranslator(11, 1, Every(), Every())
	require.NoError(t, err)

	assert.Equal(t, 0, tr.TToFrame(0))
	assert.Equal(t, 10, tr.TToFrame(1))
	assert.Equal(t, 5, tr.TToFrame(0.5))

	// Out-of-range times are clamped.
	assert.Equal(t, 0, tr.TToFrame(-0.5))
	assert.Equal(t, 10, tr.TToFrame(1.5))
}

func TestTToFrameSnapsToRetained(t *testing.T) {
	// Retained frames 0, 2, 4, 6, 8, 10: odd interpolants snap to the
	// nearest retained frame, smaller index on ties.
	tr, err := NewTranslator(11, 1, Strided(0, -1, 2), Every())
	require.NoError(t, err)

	assert.Equal(t, 0, tr.TToFrame(0.05)) // frame 1 ties, prefers 0
	assert.Equal(t, 6, tr.TToFrame(0.55))
}

func TestFrameToT(t *testing.T) {
	tr, err := NewTranslator(11, 1, Every(), Every())
	require.NoError(t, err)

	assert.InDelta(t, 0, tr.FrameToT(0), 1e-12)
	assert.InDelta(t, 1, tr.FrameToT(10), 1e-12)
	assert.InDelta(t, 0.5, tr.FrameToT(5), 1e-12)
}

func TestVToCamera(t *testing.T) {
	tr, err := NewTranslator(1, 5, Every(), Every())
	require.NoError(t, err)

	assert.Equal(t, 0, tr.VToCamera(0))
	assert.Equal(t, 4, tr.VToCamera(1))
	assert.Equal(t, 2, tr.VToCamera(0.5))
	assert.Equal(t, 0, tr.VToCamera(-1))
}

func TestTranslatorRejectsUnsorted(t *testing.T) {
	var specErr *SpecError
	_, err := NewTranslator(10, 2, Explicit(4, 2), Every())
	require.ErrorAs(t, err, &specErr)
}
