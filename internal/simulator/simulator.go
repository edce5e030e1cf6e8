package simulator

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"log"
	"math"
	"time"

	"github.com/nfnt/resize"

	"edgevision-go/internal/pipeline"
	"edgevision-go/internal/types"
)

// Pattern is rendered at this base resolution and then scaled to the
// configured frame size, so the synthetic camera can mimic any sensor mode.
const (
	baseWidth  = 160
	baseHeight = 120
)

// Stream emits synthetic JPEG camera frames at acqRate frames per second
// until ctx is cancelled. Each frame shows a bright blob orbiting a
// gradient background, which exercises the full decode and resample path.
func Stream(ctx context.Context, width, height int, acqRate float64) <-chan types.SourceFrame {
	out := make(chan types.SourceFrame)
	go func() {
		defer close(out)

		if acqRate <= 0 {
			acqRate = 1
		}
		frameInterval := time.Duration(float64(time.Second) / acqRate)
		ticker := time.NewTicker(frameInterval)
		defer ticker.Stop()

		frameID := 0
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				payload, err := renderFrame(frameID, width, height)
				if err != nil {
					log.Printf("simulator render failed: %v", err)
					continue
				}
				frame := types.SourceFrame{
					FrameID:   frameID,
					Timestamp: float64(time.Now().UnixNano()) / 1e9,
					Width:     width,
					Height:    height,
					Format:    pipeline.FormatJPEG,
					Data:      payload,
				}
				select {
				case <-ctx.Done():
					return
				case out <- frame:
				}
				frameID++
			}
		}
	}()

	return out
}

func renderFrame(frameID, width, height int) ([]byte, error) {
	base := image.NewGray(image.Rect(0, 0, baseWidth, baseHeight))

	phase := float64(frameID) * 0.1
	blobX := baseWidth/2 + int(float64(baseWidth)/3*math.Cos(phase))
	blobY := baseHeight/2 + int(float64(baseHeight)/3*math.Sin(phase))

	for y := 0; y < baseHeight; y++ {
		for x := 0; x < baseWidth; x++ {
			v := 40 + 80*x/baseWidth
			dx := float64(x - blobX)
			dy := float64(y - blobY)
			v += int(160 * math.Exp(-(dx*dx+dy*dy)/200))
			if v > 255 {
				v = 255
			}
			base.SetGray(x, y, color.Gray{Y: uint8(v)})
		}
	}

	scaled := resize.Resize(uint(width), uint(height), base, resize.Bilinear)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, scaled, &jpeg.Options{Quality: 85}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
