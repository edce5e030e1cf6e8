// Package pipeline converts a compressed camera frame into a fixed-size,
// quantized grayscale tensor for an int8 inference engine.
//
// The pipeline is a strictly sequential chain of pure transforms:
// decompress -> reduce to luma -> bilinear resample -> offset quantize.
// Every invocation owns its intermediate buffers, holds no state between
// calls, and is safe to run concurrently as long as each call uses a
// distinct output tensor.
package pipeline

import (
	"fmt"

	"edgevision-go/internal/types"
)

// DefaultTargetSize is the tensor side length expected by the stock model.
const DefaultTargetSize = 96

// Options controls one preprocessing invocation.
type Options struct {
	// TargetSize is the output tensor side length. Zero selects
	// DefaultTargetSize.
	TargetSize int

	// Log receives diagnostic progress messages. Nil is silent.
	Log Logf
}

// Preprocess runs the full chain over frame and writes targetSize*targetSize
// quantized samples into tensor. tensor is caller-owned; on any validation
// or decode failure it is returned untouched.
func Preprocess(frame types.SourceFrame, tensor []int8, opts Options) error {
	size := opts.TargetSize
	if size == 0 {
		size = DefaultTargetSize
	}
	if size < 0 {
		return fmt.Errorf("%w: target size %d", ErrInvalidArgument, size)
	}
	if tensor == nil || len(tensor) < size*size {
		return fmt.Errorf("%w: output tensor needs %d samples", ErrInvalidArgument, size*size)
	}

	gray, err := DecodeGray(frame, opts.Log)
	if err != nil {
		return err
	}

	if err := ResampleQuantize(gray, frame.Width, frame.Height, tensor, size, opts.Log); err != nil {
		return err
	}
	opts.Log.printf("preprocessing complete: %dx%d tensor", size, size)
	return nil
}
