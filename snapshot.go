package viewsel

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/hupe1980/viewsel/codec"
	"github.com/hupe1980/viewsel/ranking"
)

// Snapshot file layout:
//
//	magic "VSRK" | format version | compression byte | codec name length |
//	codec name | compressed payload
//
// The header is self-describing so a file written with one codec or
// compression configuration loads regardless of the current one.
const (
	snapshotMagic   = "VSRK"
	snapshotVersion = 1
)

type codecHandle struct {
	codec       codec.Codec
	compression codec.Compression
}

// SaveRanking writes the precomputed similarity ranking to w using the
// configured codec and compression. Rebuilding the ranking is cheap for
// small rigs but grows with targets x candidates x secondaries; persisting
// it lets large sequences skip the build on restart.
func (d *Dataset) SaveRanking(ctx context.Context, w io.Writer) error {
	start := time.Now()
	err := d.saveRanking(w)
	d.metrics.RecordSnapshot(time.Since(start), err)
	d.logger.LogSnapshot(ctx, "", err)
	return err
}

func (d *Dataset) saveRanking(w io.Writer) error {
	payload, err := d.codec.codec.Marshal(d.rank.Snapshot())
	if err != nil {
		return fmt.Errorf("encode ranking snapshot: %w", err)
	}
	compressed, err := codec.Compress(payload, d.codec.compression)
	if err != nil {
		return fmt.Errorf("compress ranking snapshot: %w", err)
	}

	name := d.codec.codec.Name()
	if len(name) > 255 {
		return &ErrSnapshotMismatch{Reason: fmt.Sprintf("codec name %q too long", name)}
	}
	header := make([]byte, 0, len(snapshotMagic)+3+len(name))
	header = append(header, snapshotMagic...)
	header = append(header, snapshotVersion, byte(d.codec.compression), byte(len(name)))
	header = append(header, name...)

	if _, err := w.Write(header); err != nil {
		return err
	}
	_, err = w.Write(compressed)
	return err
}

// SaveRankingFile writes the ranking snapshot to a file, creating or
// truncating it.
func (d *Dataset) SaveRankingFile(ctx context.Context, filename string) error {
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	start := time.Now()
	err = d.saveRanking(f)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	d.metrics.RecordSnapshot(time.Since(start), err)
	d.logger.LogSnapshot(ctx, filename, err)
	return err
}

// LoadRanking replaces the dataset's ranking with a previously saved
// snapshot. The snapshot's shape must match the dataset configuration;
// a mismatch means the snapshot was built with different sampling specs
// or a different axis and is rejected.
//
// LoadRanking is not synchronized with queries: load before serving.
func (d *Dataset) LoadRanking(ctx context.Context, r io.Reader) error {
	start := time.Now()
	err := d.loadRanking(r)
	d.metrics.RecordSnapshot(time.Since(start), err)
	d.logger.LogSnapshot(ctx, "", err)
	return err
}

func (d *Dataset) loadRanking(r io.Reader) error {
	header := make([]byte, len(snapshotMagic)+3)
	if _, err := io.ReadFull(r, header); err != nil {
		return fmt.Errorf("read snapshot header: %w", err)
	}
	if string(header[:len(snapshotMagic)]) != snapshotMagic {
		return &ErrSnapshotMismatch{Reason: "bad magic, not a ranking snapshot"}
	}
	if v := header[len(snapshotMagic)]; v != snapshotVersion {
		return &ErrSnapshotMismatch{Reason: fmt.Sprintf("unsupported format version %d", v)}
	}
	compression := codec.Compression(header[len(snapshotMagic)+1])
	nameLen := int(header[len(snapshotMagic)+2])

	nameBuf := make([]byte, nameLen)
	if _, err := io.ReadFull(r, nameBuf); err != nil {
		return fmt.Errorf("read snapshot codec name: %w", err)
	}
	c, ok := codec.ByName(string(nameBuf))
	if !ok {
		return &ErrSnapshotMismatch{Reason: fmt.Sprintf("unknown codec %q", nameBuf)}
	}

	compressed, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	payload, err := codec.Decompress(compressed, compression)
	if err != nil {
		return fmt.Errorf("decompress ranking snapshot: %w", err)
	}

	var snap ranking.Snapshot
	if err := c.Unmarshal(payload, &snap); err != nil {
		return fmt.Errorf("decode ranking snapshot: %w", err)
	}
	rank, err := ranking.FromSnapshot(&snap)
	if err != nil {
		return &ErrSnapshotMismatch{Reason: err.Error()}
	}

	gt, gc, gs := rank.Shape()
	wt, wc, ws := d.rank.Shape()
	if gt != wt || gc != wc || gs != ws {
		return &ErrSnapshotMismatch{
			Reason: fmt.Sprintf("snapshot shape (%d, %d, %d) does not match dataset shape (%d, %d, %d)", gt, gc, gs, wt, wc, ws),
		}
	}

	d.rank = rank
	return nil
}

// LoadRankingFile loads a ranking snapshot from a file.
func (d *Dataset) LoadRankingFile(ctx context.Context, filename string) error {
	f, err := os.Open(filename)
	if err != nil {
		return err
	}
	defer f.Close()
	start := time.Now()
	err = d.loadRanking(f)
	d.metrics.RecordSnapshot(time.Since(start), err)
	d.logger.LogSnapshot(ctx, filename, err)
	return err
}
