package pipeline

import "fmt"

// BilinearInterpolate samples a row-major grayscale buffer at the
// continuous coordinate (x, y). The four neighboring samples are blended
// by their fractional distances; neighbors past the right or bottom edge
// clamp to the edge pixel. The blended value is truncated to 8 bits.
func BilinearInterpolate(img []byte, width, height int, x, y float32) uint8 {
	x1 := int(x)
	y1 := int(y)
	x2 := x1 + 1
	y2 := y1 + 1

	if x2 >= width {
		x2 = width - 1
	}
	if y2 >= height {
		y2 = height - 1
	}

	dx := x - float32(x1)
	dy := y - float32(y1)

	p1 := img[y1*width+x1]
	p2 := img[y1*width+x2]
	p3 := img[y2*width+x1]
	p4 := img[y2*width+x2]

	val := float32(p1)*(1-dx)*(1-dy) +
		float32(p2)*dx*(1-dy) +
		float32(p3)*(1-dx)*dy +
		float32(p4)*dx*dy

	return uint8(val)
}

// ResampleQuantize maps a source-resolution grayscale buffer onto the
// square targetSize grid and shifts each sample into the signed 8-bit
// range the inference engine expects (zero point -128, unit scale).
// X and Y are scaled independently; the target is square regardless of
// the source aspect ratio. tensor is caller-owned and untouched on
// validation failure.
func ResampleQuantize(gray []byte, width, height int, tensor []int8, targetSize int, logf Logf) error {
	if gray == nil || width <= 0 || height <= 0 {
		return fmt.Errorf("%w: grayscale buffer or dimensions", ErrInvalidArgument)
	}
	if len(gray) < width*height {
		return fmt.Errorf("%w: grayscale buffer %d bytes, want %d", ErrInvalidArgument, len(gray), width*height)
	}
	if tensor == nil || targetSize <= 0 || len(tensor) < targetSize*targetSize {
		return fmt.Errorf("%w: output tensor", ErrInvalidArgument)
	}

	logf.printf("resampling %dx%d -> %dx%d", width, height, targetSize, targetSize)

	xRatio := float32(width) / float32(targetSize)
	yRatio := float32(height) / float32(targetSize)

	for y := 0; y < targetSize; y++ {
		srcY := float32(y) * yRatio
		for x := 0; x < targetSize; x++ {
			srcX := float32(x) * xRatio
			pixel := BilinearInterpolate(gray, width, height, srcX, srcY)
			tensor[y*targetSize+x] = int8(int(pixel) - 128)
		}
	}
	return nil
}
