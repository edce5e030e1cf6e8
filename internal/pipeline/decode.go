package pipeline

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"

	"edgevision-go/internal/types"
)

// Pixel format tags accepted by DecodeGray. They mirror what small camera
// sensors actually emit: JPEG-compressed frames plus the common raw modes.
const (
	FormatJPEG   = "jpeg"
	FormatRGB888 = "rgb888"
	FormatRGB565 = "rgb565"
	FormatGray8  = "gray8"
)

const maxInt = int(^uint(0) >> 1)

// DecodeGray decompresses a source frame and reduces it to a single-channel
// luma buffer of the frame's native width*height. The returned buffer is
// owned by the caller; frame.Data is never modified.
func DecodeGray(frame types.SourceFrame, logf Logf) ([]byte, error) {
	if frame.Data == nil || frame.Width <= 0 || frame.Height <= 0 {
		return nil, fmt.Errorf("%w: frame buffer or dimensions", ErrInvalidArgument)
	}
	if frame.Height > maxInt/3/frame.Width {
		return nil, fmt.Errorf("%w: %dx%d RGB buffer exceeds addressable size", ErrAllocation, frame.Width, frame.Height)
	}

	pixels := frame.Width * frame.Height
	logf.printf("decoding %s frame %dx%d (%d bytes)", frame.Format, frame.Width, frame.Height, len(frame.Data))

	var rgb []byte
	switch frame.Format {
	case FormatJPEG, "jpg":
		decoded, err := decodeJPEGRGB(frame)
		if err != nil {
			return nil, err
		}
		rgb = decoded
	case FormatRGB888:
		if len(frame.Data) < pixels*3 {
			return nil, fmt.Errorf("%w: rgb888 payload %d bytes, want %d", ErrDecode, len(frame.Data), pixels*3)
		}
		rgb = frame.Data[:pixels*3]
	case FormatRGB565:
		if len(frame.Data) < pixels*2 {
			return nil, fmt.Errorf("%w: rgb565 payload %d bytes, want %d", ErrDecode, len(frame.Data), pixels*2)
		}
		rgb = rgb565ToRGB888(frame.Data, pixels)
	case FormatGray8:
		if len(frame.Data) < pixels {
			return nil, fmt.Errorf("%w: gray8 payload %d bytes, want %d", ErrDecode, len(frame.Data), pixels)
		}
		gray := make([]byte, pixels)
		copy(gray, frame.Data)
		return gray, nil
	default:
		return nil, fmt.Errorf("%w: unsupported pixel format %q", ErrDecode, frame.Format)
	}

	logf.printf("converting to grayscale %dx%d", frame.Width, frame.Height)
	return rgbToGray(rgb, pixels), nil
}

func decodeJPEGRGB(frame types.SourceFrame) ([]byte, error) {
	img, err := jpeg.Decode(bytes.NewReader(frame.Data))
	if err != nil {
		return nil, fmt.Errorf("%w: jpeg: %v", ErrDecode, err)
	}
	bounds := img.Bounds()
	if bounds.Dx() != frame.Width || bounds.Dy() != frame.Height {
		return nil, fmt.Errorf("%w: jpeg is %dx%d, frame declares %dx%d",
			ErrDecode, bounds.Dx(), bounds.Dy(), frame.Width, frame.Height)
	}
	return imageToRGB888(img), nil
}

// imageToRGB888 flattens a decoded image into interleaved 8-bit RGB,
// row-major. Color values come back from the image package as 16-bit
// components; the high byte is the 8-bit value for opaque pixels.
func imageToRGB888(img image.Image) []byte {
	bounds := img.Bounds()
	w := bounds.Dx()
	h := bounds.Dy()
	rgb := make([]byte, w*h*3)
	i := 0
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, b, _ := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			rgb[i] = byte(r >> 8)
			rgb[i+1] = byte(g >> 8)
			rgb[i+2] = byte(b >> 8)
			i += 3
		}
	}
	return rgb
}

// rgb565ToRGB888 expands big-endian RGB565 samples (high byte first, as
// emitted by ESP32-class sensors) into interleaved RGB888.
func rgb565ToRGB888(data []byte, pixels int) []byte {
	rgb := make([]byte, pixels*3)
	for i := 0; i < pixels; i++ {
		v := uint16(data[i*2])<<8 | uint16(data[i*2+1])
		rgb[i*3] = byte(v>>11) << 3
		rgb[i*3+1] = byte(v>>5&0x3F) << 2
		rgb[i*3+2] = byte(v&0x1F) << 3
	}
	return rgb
}

// rgbToGray reduces interleaved RGB triplets to luma using the standard
// perceptual weights. The float result is truncated toward zero, not
// rounded; the downstream model was trained against exactly this.
func rgbToGray(rgb []byte, pixels int) []byte {
	gray := make([]byte, pixels)
	for i := 0; i < pixels; i++ {
		r := rgb[i*3]
		g := rgb[i*3+1]
		b := rgb[i*3+2]
		gray[i] = uint8(0.299*float32(r) + 0.587*float32(g) + 0.114*float32(b))
	}
	return gray
}
