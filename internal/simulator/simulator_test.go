package simulator

import (
	"bytes"
	"context"
	"image"
	_ "image/jpeg"
	"testing"
	"time"

	"edgevision-go/internal/pipeline"
	"edgevision-go/internal/types"
)

func TestRenderFrameProducesValidJPEG(t *testing.T) {
	payload, err := renderFrame(0, 320, 240)
	if err != nil {
		t.Fatalf("renderFrame: %v", err)
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("decode config: %v", err)
	}
	if format != "jpeg" {
		t.Fatalf("unexpected format %q", format)
	}
	if cfg.Width != 320 || cfg.Height != 240 {
		t.Fatalf("frame is %dx%d, want 320x240", cfg.Width, cfg.Height)
	}
}

func TestRenderFrameFeedsPipeline(t *testing.T) {
	payload, err := renderFrame(5, 160, 120)
	if err != nil {
		t.Fatalf("renderFrame: %v", err)
	}

	frame := types.SourceFrame{
		FrameID: 5,
		Width:   160,
		Height:  120,
		Format:  pipeline.FormatJPEG,
		Data:    payload,
	}
	tensor := make([]int8, 16*16)
	if err := pipeline.Preprocess(frame, tensor, pipeline.Options{TargetSize: 16}); err != nil {
		t.Fatalf("Preprocess: %v", err)
	}
}

func TestStreamEmitsFrames(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	frames := Stream(ctx, 160, 120, 50)

	select {
	case frame, ok := <-frames:
		if !ok {
			t.Fatalf("stream closed before first frame")
		}
		if frame.Width != 160 || frame.Height != 120 {
			t.Fatalf("frame is %dx%d, want 160x120", frame.Width, frame.Height)
		}
		if frame.Format != pipeline.FormatJPEG {
			t.Fatalf("unexpected format %q", frame.Format)
		}
		if len(frame.Data) == 0 {
			t.Fatalf("frame has no payload")
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("no frame within deadline")
	}
}
