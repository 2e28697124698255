package viewsel

import (
	"errors"
	"fmt"
)

var (
	// ErrNoForegroundSource is returned at construction when the object
	// prior is requested without explicit object bounds and without a
	// store that provides foreground bounds.
	ErrNoForegroundSource = errors.New("object prior requested without objects bounds or a foreground bounds provider")

	// ErrNoFetcher is returned when payload loading is requested but no
	// fetcher was configured.
	ErrNoFetcher = errors.New("no fetcher configured")
)

// ErrAxisConfig indicates an inconsistent axis configuration.
//
// Non-default frame/view sampling combined with conflicting axis flags is
// rejected at construction; pass ForceSparse to override deliberately.
type ErrAxisConfig struct {
	Reason string
}

func (e *ErrAxisConfig) Error() string {
	return fmt.Sprintf("inconsistent axis configuration: %s", e.Reason)
}

// ErrIndexRange indicates a dataset query index outside the valid range.
type ErrIndexRange struct {
	Index int
	Size  int
}

func (e *ErrIndexRange) Error() string {
	return fmt.Sprintf("query index %d out of range [0, %d)", e.Index, e.Size)
}

// ErrSnapshotMismatch indicates a loaded ranking snapshot whose shape or
// format does not match the current dataset configuration.
type ErrSnapshotMismatch struct {
	Reason string
}

func (e *ErrSnapshotMismatch) Error() string {
	return fmt.Sprintf("ranking snapshot mismatch: %s", e.Reason)
}
