package main

import (
	"bytes"
	"flag"
	"fmt"
	"image"
	_ "image/jpeg"
	"log"
	"os"

	"edgevision-go/internal/output"
	"edgevision-go/internal/pipeline"
	"edgevision-go/internal/types"
)

func main() {
	var (
		path       = flag.String("path", "", "Path to a JPEG frame")
		targetSize = flag.Int("target-size", pipeline.DefaultTargetSize, "Tensor side length")
		outDir     = flag.String("out", "output", "Directory for tensor output files")
	)
	flag.Parse()

	if *path == "" {
		log.Fatal("missing -path")
	}

	data, err := os.ReadFile(*path)
	if err != nil {
		log.Fatalf("read %s: %v", *path, err)
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		log.Fatalf("inspect %s: %v", *path, err)
	}

	frame := types.SourceFrame{
		FrameID: 0,
		Width:   cfg.Width,
		Height:  cfg.Height,
		Format:  format,
		Data:    data,
	}

	size := *targetSize
	tensor := make([]int8, size*size)
	opts := pipeline.Options{TargetSize: size, Log: pipeline.StdLog}
	if err := pipeline.Preprocess(frame, tensor, opts); err != nil {
		log.Fatalf("preprocess: %v", err)
	}

	minVal, maxVal := tensor[0], tensor[0]
	sum := 0
	for _, v := range tensor {
		if v < minVal {
			minVal = v
		}
		if v > maxVal {
			maxVal = v
		}
		sum += int(v)
	}
	fmt.Printf("source: %s %dx%d (%d bytes)\n", format, cfg.Width, cfg.Height, len(data))
	fmt.Printf("tensor: %dx%d min=%d max=%d mean=%.2f\n",
		size, size, minVal, maxVal, float64(sum)/float64(len(tensor)))

	result := types.TensorResult{FrameID: 0, Side: size, Data: tensor}
	if err := output.WriteTensor(*outDir, output.Timestamp(), result); err != nil {
		log.Fatalf("write tensor: %v", err)
	}
	fmt.Printf("wrote tensor files to %s\n", *outDir)
}
