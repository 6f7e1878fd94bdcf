package library

import "errors"

var (
	// ErrVideoNotFound indicates the referenced record is not in the library.
	ErrVideoNotFound = errors.New("video not found")
	// ErrFilteredReorder indicates a reorder was requested while a filter was
	// active. Reordering is defined over the unfiltered sequence only.
	ErrFilteredReorder = errors.New("reorder rejected while a filter is active")
	// ErrEmptyCorpus indicates discovery was requested against an empty library.
	ErrEmptyCorpus = errors.New("library is empty, nothing to calibrate against")
)
