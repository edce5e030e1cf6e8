package output

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/image/draw"

	"edgevision-go/internal/types"
)

const previewScale = 4

// WriteTensor persists one quantized tensor: the raw int8 samples as a
// .bin file the inference side can load directly, and an upscaled PNG
// preview for eyeballing what the model actually sees.
func WriteTensor(outputDir string, runTimestamp string, result types.TensorResult) error {
	if result.Side <= 0 || len(result.Data) < result.Side*result.Side {
		return fmt.Errorf("tensor result has %d samples, want %d", len(result.Data), result.Side*result.Side)
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return err
	}

	name := fmt.Sprintf("%s_tensor_%06d", runTimestamp, result.FrameID)

	raw := make([]byte, result.Side*result.Side)
	for i := range raw {
		raw[i] = byte(result.Data[i])
	}
	if err := os.WriteFile(filepath.Join(outputDir, name+".bin"), raw, 0o644); err != nil {
		return err
	}

	preview := previewImage(result)
	f, err := os.Create(filepath.Join(outputDir, name+".png"))
	if err != nil {
		return err
	}
	if err := png.Encode(f, preview); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// previewImage undoes the -128 zero point and upscales the tensor with
// CatmullRom so the preview is viewable at screen size.
func previewImage(result types.TensorResult) *image.Gray {
	side := result.Side
	src := image.NewGray(image.Rect(0, 0, side, side))
	for y := 0; y < side; y++ {
		for x := 0; x < side; x++ {
			src.Pix[y*src.Stride+x] = uint8(int(result.Data[y*side+x]) + 128)
		}
	}

	dst := image.NewGray(image.Rect(0, 0, side*previewScale, side*previewScale))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return dst
}

// Timestamp names one acquisition run.
func Timestamp() string {
	return time.Now().Format("20060102_150405")
}
