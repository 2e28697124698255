// Package viewsel selects source camera observations for image-based
// (multi-view-conditioned) rendering.
//
// Given a collection of cameras and frames, a Dataset builds a persistent
// similarity ranking between every candidate target view and every candidate
// source view, translates between the parallel index spaces of the dataset
// (physical/virtual frame, view/camera, latent), and produces, per query, a
// randomized-but-reproducible set of source indices together with their
// camera parameters and image payloads.
//
// Selection can run along either axis: across cameras at a fixed time
// (AxisView) or across frames at a fixed camera (AxisTime). Pose storage is
// normalized candidate-major once at construction, so all selection code is
// axis-agnostic.
//
// # Quick Start
//
//	ctx := context.Background()
//	ds, err := viewsel.New(store, viewsel.DefaultConfig(),
//	    viewsel.WithSeed(42),
//	    viewsel.WithFetcher(loader.NewBlobFetcher(blobstore.NewLocalStore("./data"))),
//	)
//	if err != nil {
//	    panic(err)
//	}
//
//	sample, err := ds.Sample(ctx, viewsel.Query{Index: 17})
//	// sample.SourceIndices, sample.SourceExts, sample.Payloads, ...
//
// For free-viewpoint rendering, where no predefined target view exists:
//
//	batch, err := ds.ViewerBatch(ctx, viewsel.ViewerQuery{
//	    T:      0.25,
//	    Pose:   pose,
//	    Bounds: userBounds,
//	})
//
// The precomputed ranking can be persisted with SaveRanking/LoadRanking to
// skip the construction cost across runs.
//
// Training-time selection is stochastic but reproducible: every query draws
// from an RNG seeded by (global seed, target, secondary), so no global
// mutable random state is shared between workers. At inference the viewer
// path is fully deterministic.
package viewsel
