package loader

import (
	"context"
	"errors"
	"fmt"

	"github.com/hupe1980/viewsel/blobstore"
)

// Kind names a payload stream within a blob store layout.
type Kind string

const (
	KindImage      Kind = "images"
	KindMask       Kind = "masks"
	KindMatte      Kind = "mattes"
	KindBackground Kind = "backgrounds"
)

// PathLayout maps a (kind, view, latent) triple to a blob name.
type PathLayout func(kind Kind, view, latent int) string

// DefaultPathLayout lays blobs out as "<kind>/<view>/<latent>.bin".
func DefaultPathLayout(kind Kind, view, latent int) string {
	return fmt.Sprintf("%s/%04d/%06d.bin", kind, view, latent)
}

// BlobFetcherOptions configures a BlobFetcher.
type BlobFetcherOptions struct {
	// Layout maps requests to blob names. Defaults to DefaultPathLayout.
	Layout PathLayout

	// WithMask, WithMatte and WithBackground enable the optional payload
	// kinds. An enabled kind that is missing from the store is an error;
	// disabled kinds are never fetched.
	WithMask       bool
	WithMatte      bool
	WithBackground bool
}

// BlobFetcher is a Fetcher reading payloads from a blobstore.BlobStore.
type BlobFetcher struct {
	store blobstore.BlobStore
	opts  BlobFetcherOptions
}

// NewBlobFetcher creates a BlobFetcher over the given store.
func NewBlobFetcher(store blobstore.BlobStore, optFns ...func(o *BlobFetcherOptions)) *BlobFetcher {
	opts := BlobFetcherOptions{
		Layout: DefaultPathLayout,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Layout == nil {
		opts.Layout = DefaultPathLayout
	}

	return &BlobFetcher{store: store, opts: opts}
}

// Fetch implements Fetcher.
func (b *BlobFetcher) Fetch(ctx context.Context, req Request) (Payload, error) {
	var p Payload

	image, err := b.read(ctx, KindImage, req)
	if err != nil {
		return Payload{}, err
	}
	p.Image = image

	if b.opts.WithMask {
		if p.Mask, err = b.read(ctx, KindMask, req); err != nil {
			return Payload{}, err
		}
	}
	if b.opts.WithMatte {
		if p.Matte, err = b.read(ctx, KindMatte, req); err != nil {
			return Payload{}, err
		}
	}
	if b.opts.WithBackground {
		if p.Background, err = b.read(ctx, KindBackground, req); err != nil {
			return Payload{}, err
		}
	}
	return p, nil
}

func (b *BlobFetcher) read(ctx context.Context, kind Kind, req Request) ([]byte, error) {
	name := b.opts.Layout(kind, req.View, req.Latent)
	blob, err := b.store.Open(ctx, name)
	if err != nil {
		if errors.Is(err, blobstore.ErrNotFound) {
			return nil, fmt.Errorf("payload %s for view %d latent %d: %w", kind, req.View, req.Latent, err)
		}
		return nil, err
	}
	defer func() { _ = blob.Close() }()

	return blobstore.ReadAll(ctx, blob)
}
