package viewsel

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/viewsel/camera"
	"github.com/hupe1980/viewsel/loader"
	"github.com/hupe1980/viewsel/prior"
)

// viewerPose builds a viewer camera at world position (x, y, z) with the
// fake store's intrinsic.
func viewerPose(x, y, z float64) camera.Pose {
	return camera.Pose{
		Ext: camera.AffinePadding(camera.Identity3(), camera.Vec3{-x, -y, -z}),
		Ixt: camera.Matrix3{
			{100, 0, 320},
			{0, 100, 240},
			{0, 0, 1},
		},
	}
}

func TestViewerBatchClosestSources(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Policy = fixedPolicy(3)

	ds, err := New(newFakeStore(6, 3), cfg)
	require.NoError(t, err)

	// T = 1 snaps to the last frame. The viewer sits between cameras 2 and
	// 3; the three closest cameras win deterministically.
	s, err := ds.ViewerBatch(context.Background(), ViewerQuery{
		T:    1,
		Pose: viewerPose(2.4, 2, 0),
	})
	require.NoError(t, err)

	assert.Equal(t, 2, s.Frame)
	assert.Equal(t, 2, s.Latent)
	assert.Equal(t, []int{2, 3, 1}, s.SourceIndices)
	assert.Equal(t, []int{2, 3, 1}, s.SourceViews)
	assert.Equal(t, []int{2, 2, 2}, s.SourceLatents)
	require.Len(t, s.Similarities, 3)
	assert.InDelta(t, 1/0.4, s.Similarities[0], 1e-9)

	assert.Equal(t, 640, s.Width)
	assert.Equal(t, 480, s.Height)
	assert.Nil(t, s.Payloads)
}

func TestViewerBatchNumSources(t *testing.T) {
	ds, err := New(newFakeStore(6, 1), DefaultConfig())
	require.NoError(t, err)

	s, err := ds.ViewerBatch(context.Background(), ViewerQuery{
		Pose:       viewerPose(0, 0, 0),
		NumSources: 2,
	})
	require.NoError(t, err)
	assert.Len(t, s.SourceIndices, 2)

	// Without an explicit count the policy's maximum wins.
	s, err = ds.ViewerBatch(context.Background(), ViewerQuery{Pose: viewerPose(0, 0, 0)})
	require.NoError(t, err)
	assert.Len(t, s.SourceIndices, DefaultConfig().Policy.MaxCount())
}

func TestViewerBatchBarebone(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Barebone = true
	// Cropping is part of the short-circuit: barebone batches keep the
	// full image even when a crop is configured.
	cfg.ImboundCrop = true

	fetcher := loader.FetcherFunc(func(context.Context, loader.Request) (loader.Payload, error) {
		t.Fatal("barebone batch must not fetch payloads")
		return loader.Payload{}, nil
	})

	ds, err := New(newFakeStore(6, 2), cfg, WithFetcher(fetcher))
	require.NoError(t, err)

	s, err := ds.ViewerBatch(context.Background(), ViewerQuery{T: 0.5, Pose: viewerPose(1, 0, 0)})
	require.NoError(t, err)

	assert.Empty(t, s.SourceIndices)
	assert.Nil(t, s.Payloads)
	assert.Nil(t, s.Crop)
	assert.Equal(t, 1, s.Frame)
	assert.Equal(t, 640, s.Width)
	assert.Equal(t, 480, s.Height)
	assert.InDelta(t, 320, s.Ixt[0][2], 1e-12)
}

func TestViewerBatchRenderRatio(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RenderRatio = 0.5

	ds, err := New(newFakeStore(6, 1), cfg)
	require.NoError(t, err)

	s, err := ds.ViewerBatch(context.Background(), ViewerQuery{Pose: viewerPose(0, 0, 0)})
	require.NoError(t, err)

	assert.Equal(t, 320, s.Width)
	assert.Equal(t, 240, s.Height)
	assert.InDelta(t, 50, s.Ixt[0][0], 1e-12)
	assert.InDelta(t, 160, s.Ixt[0][2], 1e-12)
	assert.InDelta(t, 120, s.Ixt[1][2], 1e-12)
	// The bottom row is untouched.
	assert.Equal(t, [3]float64{0, 0, 1}, s.Ixt[2])
}

func TestViewerBatchExplicitSize(t *testing.T) {
	ds, err := New(newFakeStore(6, 1), DefaultConfig())
	require.NoError(t, err)

	s, err := ds.ViewerBatch(context.Background(), ViewerQuery{
		Pose:   viewerPose(0, 0, 0),
		Width:  320,
		Height: 240,
	})
	require.NoError(t, err)

	assert.Equal(t, 320, s.Width)
	assert.Equal(t, 240, s.Height)
	assert.InDelta(t, 50, s.Ixt[0][0], 1e-12)
}

func TestViewerBatchBoundsIntersect(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Barebone = true

	ds, err := New(newFakeStore(6, 1), cfg)
	require.NoError(t, err)

	override := prior.Bounds{{-1, -20, -1}, {1, 20, 1}}
	s, err := ds.ViewerBatch(context.Background(), ViewerQuery{
		Pose:   viewerPose(0, 0, 0),
		Bounds: &override,
	})
	require.NoError(t, err)

	// Store bound is [-10, 10]^3; the override narrows x and z only.
	assert.Equal(t, prior.Bounds{{-1, -10, -1}, {1, 10, 1}}, s.Bounds)
}

func TestViewerBatchImboundCrop(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ImboundCrop = true

	store := newFakeStore(6, 1)
	store.bounds = prior.Bounds{{-1, -1, 4}, {1, 1, 6}}

	ds, err := New(store, cfg)
	require.NoError(t, err)

	s, err := ds.ViewerBatch(context.Background(), ViewerQuery{Pose: viewerPose(0, 0, 0)})
	require.NoError(t, err)

	require.NotNil(t, s.Crop)
	assert.Equal(t, 288, s.Crop.X)
	assert.Equal(t, 208, s.Crop.Y)
	assert.Equal(t, 64, s.Width)
	assert.Equal(t, 64, s.Height)

	// The principal point shifts into the crop frame.
	assert.InDelta(t, 32, s.Ixt[0][2], 1e-12)
	assert.InDelta(t, 32, s.Ixt[1][2], 1e-12)

	// Cropping does not suppress selection.
	assert.NotEmpty(t, s.SourceIndices)
}

func TestViewerBatchObjectPrior(t *testing.T) {
	cfg := DefaultConfig()
	cfg.UseObjectPrior = true
	cfg.ObjectsBounds = &prior.Bounds{{-1, -1, 4}, {1, 1, 6}}

	ds, err := New(newFakeStore(6, 1), cfg)
	require.NoError(t, err)

	s, err := ds.ViewerBatch(context.Background(), ViewerQuery{Pose: viewerPose(0, 0, 0)})
	require.NoError(t, err)

	assert.Equal(t, *cfg.ObjectsBounds, s.Bounds)
	require.NotNil(t, s.Crop)
	assert.Equal(t, prior.Crop{X: 288, Y: 208, W: 64, H: 64, Near: 4, Far: 6}, *s.Crop)

	// Without ImboundCrop the intrinsics and image size stay untouched.
	assert.Equal(t, 640, s.Width)
	assert.InDelta(t, 320, s.Ixt[0][2], 1e-12)
}

func TestViewerBatchObjectPriorWithImboundCrop(t *testing.T) {
	cfg := DefaultConfig()
	cfg.UseObjectPrior = true
	cfg.ObjectsBounds = &prior.Bounds{{-1, -1, 4}, {1, 1, 6}}
	cfg.ImboundCrop = true

	ds, err := New(newFakeStore(6, 1), cfg)
	require.NoError(t, err)

	s, err := ds.ViewerBatch(context.Background(), ViewerQuery{Pose: viewerPose(0, 0, 0)})
	require.NoError(t, err)

	// The prior narrows the bound, then the crop re-targets the
	// intrinsics to it: both steps apply.
	assert.Equal(t, *cfg.ObjectsBounds, s.Bounds)
	require.NotNil(t, s.Crop)
	assert.Equal(t, 288, s.Crop.X)
	assert.Equal(t, 208, s.Crop.Y)
	assert.Equal(t, 64, s.Width)
	assert.Equal(t, 64, s.Height)
	assert.InDelta(t, 32, s.Ixt[0][2], 1e-12)
	assert.InDelta(t, 32, s.Ixt[1][2], 1e-12)
}

func TestViewerBatchWithFetcher(t *testing.T) {
	fetcher := loader.FetcherFunc(func(_ context.Context, req loader.Request) (loader.Payload, error) {
		return loader.Payload{Image: []byte{byte(req.View)}}, nil
	})

	cfg := DefaultConfig()
	cfg.Policy = fixedPolicy(2)

	ds, err := New(newFakeStore(6, 1), cfg, WithFetcher(fetcher))
	require.NoError(t, err)

	s, err := ds.ViewerBatch(context.Background(), ViewerQuery{Pose: viewerPose(4.6, 0, 0), NumSources: 2})
	require.NoError(t, err)

	assert.Equal(t, []int{5, 4}, s.SourceIndices)
	require.Len(t, s.Payloads, 2)
	assert.Equal(t, []byte{5}, s.Payloads[0].Image)
	assert.Equal(t, []byte{4}, s.Payloads[1].Image)
}

func TestViewerBatchTimeAxis(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Axis = camera.AxisTime
	cfg.Policy = fixedPolicy(2)

	ds, err := New(newFakeStore(2, 6), cfg)
	require.NoError(t, err)

	// V = 1 fixes the last camera; the candidates are frames and the
	// viewer sits near frame 3 of that camera.
	s, err := ds.ViewerBatch(context.Background(), ViewerQuery{
		T:          0.5,
		V:          1,
		Pose:       viewerPose(1, 2.9, 0),
		NumSources: 2,
	})
	require.NoError(t, err)

	assert.Equal(t, []int{3, 2}, s.SourceIndices)
	assert.Equal(t, []int{1, 1}, s.SourceViews)
	assert.Equal(t, []int{3, 2}, s.SourceLatents)
}
