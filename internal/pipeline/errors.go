package pipeline

import "errors"

var (
	// ErrInvalidArgument is returned when a stage receives a nil buffer or
	// non-positive dimensions. Nothing has been allocated or written.
	ErrInvalidArgument = errors.New("pipeline: invalid argument")

	// ErrDecode is returned when frame decompression fails or produces no
	// usable pixel data.
	ErrDecode = errors.New("pipeline: decode failed")

	// ErrAllocation is returned when an intermediate buffer cannot be
	// obtained, e.g. the declared dimensions overflow the buffer size.
	ErrAllocation = errors.New("pipeline: allocation failed")
)
