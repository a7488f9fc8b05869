package hnsw

import "errors"

var (
	// ErrDuplicateID is returned when inserting an id that is already in the
	// index. Duplicate ids signal a corpus-integrity bug upstream, so the
	// insert is rejected instead of overwriting.
	ErrDuplicateID = errors.New("hnsw: duplicate id")

	// ErrDimensionMismatch is returned when a vector does not match the
	// dimension the index was created with.
	ErrDimensionMismatch = errors.New("hnsw: embedding dimension mismatch")

	// ErrVersionMismatch is returned when loading a persisted index that was
	// built under a different embedding model version.
	ErrVersionMismatch = errors.New("hnsw: embedding model version mismatch")

	// ErrUnknownID is returned when deleting an id that is not in the index.
	ErrUnknownID = errors.New("hnsw: unknown id")
)
