package viewsel

import (
	"context"
	"time"

	"github.com/hupe1980/viewsel/camera"
	"github.com/hupe1980/viewsel/loader"
	"github.com/hupe1980/viewsel/prior"
	"github.com/hupe1980/viewsel/ranking"
)

// ViewerQuery addresses a free-viewpoint rendering request: an arbitrary
// camera pose at a normalized time, not bound to any stored observation.
type ViewerQuery struct {
	// T is the normalized time in [0, 1]. It is snapped to the nearest
	// retained frame.
	T float64

	// V is the normalized camera position in [0, 1]. It is only consulted
	// for time-axis selection, where it fixes the camera the candidate
	// frames are ranked at.
	V float64

	// Pose is the viewer camera: world-to-camera extrinsic and intrinsic
	// at the dataset's native resolution.
	Pose camera.Pose

	// Width and Height override the render size. Zero uses the dataset's
	// image size scaled by the configured render ratio.
	Width  int
	Height int

	// Bounds, when set, is intersected with the scene bound.
	Bounds *prior.Bounds

	// NumSources requests a specific source count. Zero uses the policy's
	// maximum count. The viewer path is deterministic: the closest sources
	// win, no stochastic widening.
	NumSources int
}

// ViewerSample is the assembled result of a viewer query.
type ViewerSample struct {
	Latent int
	Frame  int

	Width  int
	Height int

	// Viewer camera parameters after render-ratio scaling and any crop.
	Ext camera.Matrix4
	Ixt camera.Matrix3

	Bounds prior.Bounds
	Crop   *prior.Crop

	SourceIndices []int
	SourceViews   []int
	SourceLatents []int
	SourceExts    []camera.Matrix4
	SourceIxts    []camera.Matrix3
	Similarities  []float64

	Payloads []loader.Payload

	// PayloadsDecoded reports whether the payload bytes are pre-decoded
	// tensors rather than raw encoded streams.
	PayloadsDecoded bool
}

// ViewerBatch resolves a free-viewpoint query: it snaps the time to a
// retained frame, ranks the source candidates against the viewer's camera
// center, takes the closest ones deterministically, and loads their
// payloads.
//
// With Barebone configured, only the viewer camera, index and bound fields
// are filled; no selection, loading or cropping happens.
func (d *Dataset) ViewerBatch(ctx context.Context, q ViewerQuery) (*ViewerSample, error) {
	start := time.Now()
	s, err := d.viewerBatch(ctx, q)
	d.metrics.RecordViewerSelect(time.Since(start), err)
	return s, err
}

func (d *Dataset) viewerBatch(ctx context.Context, q ViewerQuery) (*ViewerSample, error) {
	frame := d.translator.TToFrame(q.T)
	latent, err := d.translator.FrameToLatent(frame)
	if err != nil {
		return nil, err
	}

	width, height, ixt := d.renderCamera(q)

	bounds := d.store.Bounds()
	if q.Bounds != nil {
		bounds = prior.Intersect(bounds, *q.Bounds)
	}

	s := &ViewerSample{
		Latent: latent,
		Frame:  frame,
		Width:  width,
		Height: height,
		Ext:    q.Pose.Ext,
		Ixt:    ixt,
		Bounds: bounds,
	}

	if d.cfg.Barebone {
		return s, nil
	}

	secondary, err := d.viewerSecondary(latent, q.V)
	if err != nil {
		return nil, err
	}

	centers := d.sources.CentersAt(secondary)
	order, sims := ranking.RankCenters(q.Pose.Center(), centers)

	count := q.NumSources
	if count <= 0 {
		count = d.cfg.Policy.MaxCount()
	}
	if count > len(order) {
		count = len(order)
	}
	chosen := order[:count]

	simByCandidate := make(map[int]float64, len(order))
	for i, c := range order {
		simByCandidate[c] = sims[i]
	}

	views, latents, exts, ixts, chosenSims := d.gatherSources(chosen, secondary, simByCandidate)
	s.SourceIndices = chosen
	s.SourceViews = views
	s.SourceLatents = latents
	s.SourceExts = exts
	s.SourceIxts = ixts
	s.Similarities = chosenSims

	d.logger.LogViewerSelect(ctx, latent, len(chosen), nil)

	if d.fetcher != nil {
		payloads, err := d.loadPayloads(ctx, views, latents)
		if err != nil {
			return nil, err
		}
		s.Payloads = payloads
		s.PayloadsDecoded = d.cfg.SupplyDecoded
	}

	// Object prior and in-bound crop apply independently: the prior
	// narrows the bound first, the crop then re-targets the intrinsics to
	// whatever bound is current.
	if d.cfg.UseObjectPrior {
		objBounds, err := d.objectBounds(latent)
		if err != nil {
			return nil, err
		}
		crop, err := prior.BoundCrop(objBounds, s.Ixt, s.Ext, s.Width, s.Height)
		if err != nil {
			return nil, err
		}
		s.Bounds = objBounds
		s.Crop = &crop
	}

	if d.cfg.ImboundCrop {
		crop, err := prior.BoundCrop(s.Bounds, s.Ixt, s.Ext, s.Width, s.Height)
		if err != nil {
			return nil, err
		}
		// The crop becomes the render target: shift the principal point
		// and shrink the image accordingly.
		s.Ixt[0][2] -= float64(crop.X)
		s.Ixt[1][2] -= float64(crop.Y)
		s.Width = crop.W
		s.Height = crop.H
		s.Crop = &crop
	}

	return s, nil
}

// renderCamera applies the render ratio (or the explicit override) to the
// viewer intrinsic and image size. Scaling the first two intrinsic rows
// scales projected pixel coordinates by the same factor.
func (d *Dataset) renderCamera(q ViewerQuery) (width, height int, ixt camera.Matrix3) {
	ixt = q.Pose.Ixt
	width, height = d.width, d.height

	ratio := d.cfg.RenderRatio
	if q.Width > 0 && q.Height > 0 {
		width, height = q.Width, q.Height
		ratio = float64(q.Width) / float64(d.width)
	} else if ratio != 1 {
		width = int(float64(d.width) * ratio)
		height = int(float64(d.height) * ratio)
	}

	if ratio != 1 {
		for j := 0; j < 3; j++ {
			ixt[0][j] *= ratio
			ixt[1][j] *= ratio
		}
	}
	return width, height, ixt
}

// viewerSecondary fixes the secondary axis for a viewer query: the latent
// index for view-axis selection, the camera nearest to the normalized
// position v for time-axis selection.
func (d *Dataset) viewerSecondary(latent int, v float64) (int, error) {
	if d.cfg.Axis == camera.AxisTime {
		cam := d.translator.VToCamera(v)
		return d.translator.CameraToView(cam)
	}
	return latent, nil
}
