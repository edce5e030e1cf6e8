package pipeline

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"strings"
	"testing"

	"edgevision-go/internal/types"
)

func testJPEGFrame(t *testing.T, width, height int) types.SourceFrame {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Pix[y*img.Stride+x] = byte((x*255/width + y*255/height) / 2)
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}); err != nil {
		t.Fatalf("encode test frame: %v", err)
	}
	return types.SourceFrame{Width: width, Height: height, Format: FormatJPEG, Data: buf.Bytes()}
}

func TestPreprocessDeterministic(t *testing.T) {
	frame := testJPEGFrame(t, 160, 120)
	opts := Options{TargetSize: 32}

	first := make([]int8, 32*32)
	second := make([]int8, 32*32)
	if err := Preprocess(frame, first, opts); err != nil {
		t.Fatalf("first Preprocess: %v", err)
	}
	if err := Preprocess(frame, second, opts); err != nil {
		t.Fatalf("second Preprocess: %v", err)
	}

	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("tensor[%d] differs across runs: %d vs %d", i, first[i], second[i])
		}
	}

	// The gradient frame must not collapse to a constant tensor.
	varied := false
	for i := 1; i < len(first); i++ {
		if first[i] != first[0] {
			varied = true
			break
		}
	}
	if !varied {
		t.Fatalf("tensor is constant, expected a gradient")
	}
}

func TestPreprocessQuantizationOffset(t *testing.T) {
	const v = 200
	gray := bytes.Repeat([]byte{v}, 16*16)
	frame := types.SourceFrame{Width: 16, Height: 16, Format: FormatGray8, Data: gray}

	tensor := make([]int8, 8*8)
	if err := Preprocess(frame, tensor, Options{TargetSize: 8}); err != nil {
		t.Fatalf("Preprocess: %v", err)
	}
	for i, s := range tensor {
		if s != v-128 {
			t.Fatalf("tensor[%d] = %d, want %d", i, s, v-128)
		}
	}
}

func TestPreprocessDefaultTargetSize(t *testing.T) {
	frame := testJPEGFrame(t, 160, 120)
	tensor := make([]int8, DefaultTargetSize*DefaultTargetSize)
	if err := Preprocess(frame, tensor, Options{}); err != nil {
		t.Fatalf("Preprocess with default size: %v", err)
	}
}

func TestPreprocessRejectsInvalidInput(t *testing.T) {
	valid := testJPEGFrame(t, 32, 32)
	tensor := make([]int8, 8*8)
	for i := range tensor {
		tensor[i] = 42
	}

	cases := []struct {
		name  string
		frame types.SourceFrame
		dst   []int8
		opts  Options
		want  error
	}{
		{"nil source", types.SourceFrame{Width: 32, Height: 32, Format: FormatJPEG}, tensor, Options{TargetSize: 8}, ErrInvalidArgument},
		{"zero dims", types.SourceFrame{Format: FormatJPEG, Data: valid.Data}, tensor, Options{TargetSize: 8}, ErrInvalidArgument},
		{"nil tensor", valid, nil, Options{TargetSize: 8}, ErrInvalidArgument},
		{"short tensor", valid, tensor, Options{TargetSize: 16}, ErrInvalidArgument},
		{"negative size", valid, tensor, Options{TargetSize: -1}, ErrInvalidArgument},
	}
	for _, c := range cases {
		if err := Preprocess(c.frame, c.dst, c.opts); !errors.Is(err, c.want) {
			t.Fatalf("%s: err = %v, want %v", c.name, err, c.want)
		}
	}

	for i := range tensor {
		if tensor[i] != 42 {
			t.Fatalf("tensor[%d] modified on rejected input", i)
		}
	}
}

func TestPreprocessLogsStages(t *testing.T) {
	frame := testJPEGFrame(t, 64, 48)
	tensor := make([]int8, 8*8)

	var messages []string
	capture := Logf(func(format string, args ...any) {
		messages = append(messages, fmt.Sprintf(format, args...))
	})

	if err := Preprocess(frame, tensor, Options{TargetSize: 8, Log: capture}); err != nil {
		t.Fatalf("Preprocess: %v", err)
	}
	if len(messages) < 3 {
		t.Fatalf("expected decode, resample and completion diagnostics, got %v", messages)
	}
	joined := strings.Join(messages, "\n")
	if !strings.Contains(joined, "64x48") {
		t.Fatalf("diagnostics missing source dimensions: %v", messages)
	}
	if !strings.Contains(joined, "8x8") {
		t.Fatalf("diagnostics missing target dimensions: %v", messages)
	}
}

func TestPreprocessNilLoggerSilent(t *testing.T) {
	frame := testJPEGFrame(t, 32, 32)
	tensor := make([]int8, 4*4)
	if err := Preprocess(frame, tensor, Options{TargetSize: 4, Log: nil}); err != nil {
		t.Fatalf("Preprocess without logger: %v", err)
	}
}
