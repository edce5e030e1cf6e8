package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"edgevision-go/internal/config"
	"edgevision-go/internal/ingest"
	"edgevision-go/internal/output"
	"edgevision-go/internal/pipeline"
	"edgevision-go/internal/server"
	"edgevision-go/internal/simulator"
	"edgevision-go/internal/types"
)

type metrics struct {
	framesReceived     atomic.Uint64
	framesPreprocessed atomic.Uint64
	preprocessFailures atomic.Uint64
	tensorsWritten     atomic.Uint64
	tensorWriteErrors  atomic.Uint64
	tensorsBroadcast   atomic.Uint64
	preprocessCount    atomic.Uint64
	preprocessNanos    atomic.Uint64
}

func (m *metrics) snapshot() map[string]any {
	return map[string]any{
		"frames_received_total":     m.framesReceived.Load(),
		"frames_preprocessed_total": m.framesPreprocessed.Load(),
		"preprocess_failures_total": m.preprocessFailures.Load(),
		"tensors_written_total":     m.tensorsWritten.Load(),
		"tensor_write_err_total":    m.tensorWriteErrors.Load(),
		"tensors_broadcast_total":   m.tensorsBroadcast.Load(),
		"preprocess_total":          m.preprocessCount.Load(),
		"preprocess_nanos_total":    m.preprocessNanos.Load(),
	}
}

func main() {
	var (
		port           = flag.Int("port", 8899, "HTTP port for status and websocket preview")
		endpoint       = flag.String("endpoint", "tcp://localhost:31001", "ZMQ endpoint of the capture publisher")
		workers        = flag.Int("workers", 2, "Number of preprocessing workers")
		targetSize     = flag.Int("target-size", pipeline.DefaultTargetSize, "Model input tensor side length")
		frameWidth     = flag.Int("frame-width", 160, "Simulated camera frame width")
		frameHeight    = flag.Int("frame-height", 120, "Simulated camera frame height")
		debug          = flag.Bool("debug", false, "Run with simulated camera frames")
		debugAcqRate   = flag.Float64("debug-acq-rate", 10.0, "Simulated acquisition rate (frames/sec)")
		uiRate         = flag.Duration("ui-rate", 1*time.Second, "Preview update interval for websocket clients")
		outputDir      = flag.String("output-dir", "output", "Directory for tensor output files")
		saveEvery      = flag.Int("save-every", 30, "Write every Nth tensor to disk (0 disables)")
		rawLogEnabled  = flag.Bool("raw-log", false, "Write raw ingest payloads to disk")
		rawLogDir      = flag.String("raw-log-dir", "rawlog", "Directory for raw ingest logs")
		ingestLogEvery = flag.Int("ingest-log-every", 100, "Log every Nth ingest error")
		ingestFallback = flag.Bool("ingest-fallback", true, "Fall back to simulator when ingest fails")
	)
	flag.Parse()

	cfg := config.AppConfig{
		Port:           *port,
		Endpoint:       *endpoint,
		Workers:        *workers,
		TargetSize:     *targetSize,
		FrameWidth:     *frameWidth,
		FrameHeight:    *frameHeight,
		Debug:          *debug,
		DebugAcqRate:   *debugAcqRate,
		UIRate:         *uiRate,
		OutputDir:      *outputDir,
		RawLogEnabled:  *rawLogEnabled,
		RawLogDir:      *rawLogDir,
		IngestLogEvery: *ingestLogEvery,
		IngestFallback: *ingestFallback,
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.TargetSize < 1 {
		log.Fatalf("invalid target size %d", cfg.TargetSize)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var statusMu sync.Mutex
	status := map[string]any{
		"source":      "unknown",
		"stream":      "idle",
		"writer":      "idle",
		"last_frame":  "",
		"last_write":  "",
		"last_ingest": "",
	}
	setStatus := func(key string, value any) {
		statusMu.Lock()
		status[key] = value
		statusMu.Unlock()
	}

	var frames <-chan types.SourceFrame
	if cfg.Debug {
		frames = simulator.Stream(ctx, cfg.FrameWidth, cfg.FrameHeight, cfg.DebugAcqRate)
		setStatus("source", "simulator")
	} else {
		var recorder ingest.RawRecorder
		if cfg.RawLogEnabled {
			writer, err := output.NewRawLogWriter(cfg.RawLogDir, "raw_frames")
			if err != nil {
				log.Fatalf("failed to start raw log: %v", err)
			}
			recorder = writer
			go func() {
				<-ctx.Done()
				if err := writer.Close(); err != nil {
					log.Printf("raw log close failed: %v", err)
				}
			}()
		}
		stream, err := ingest.StreamWithLogEveryAndRecorder(ctx, cfg.Endpoint, cfg.IngestLogEvery, recorder)
		if err != nil {
			if !cfg.IngestFallback {
				log.Fatalf("failed to start ingest: %v", err)
			}
			log.Printf("failed to start ingest: %v; falling back to simulator", err)
			stream = simulator.Stream(ctx, cfg.FrameWidth, cfg.FrameHeight, cfg.DebugAcqRate)
			setStatus("source", "simulator")
		} else {
			setStatus("source", "capture")
		}
		frames = stream
	}

	log.Printf("Starting status server at http://localhost:%d", cfg.Port)

	var metrics metrics
	results := make(chan types.TensorResult, 16)
	uiMessages := make(chan any, 16)

	var wg sync.WaitGroup
	wg.Add(cfg.Workers)
	for i := 0; i < cfg.Workers; i++ {
		go func() {
			defer wg.Done()
			tensor := make([]int8, cfg.TargetSize*cfg.TargetSize)
			opts := pipeline.Options{TargetSize: cfg.TargetSize}
			for frame := range frames {
				metrics.framesReceived.Add(1)
				setStatus("last_ingest", time.Now().Format(time.RFC3339))

				start := time.Now()
				err := pipeline.Preprocess(frame, tensor, opts)
				metrics.preprocessCount.Add(1)
				metrics.preprocessNanos.Add(uint64(time.Since(start).Nanoseconds()))
				if err != nil {
					metrics.preprocessFailures.Add(1)
					log.Printf("preprocess frame %d failed: %v", frame.FrameID, err)
					continue
				}
				metrics.framesPreprocessed.Add(1)
				setStatus("stream", "receiving")
				setStatus("last_frame", time.Now().Format(time.RFC3339))

				data := make([]int8, cfg.TargetSize*cfg.TargetSize)
				copy(data, tensor)
				result := types.TensorResult{
					FrameID:   frame.FrameID,
					Timestamp: frame.Timestamp,
					Side:      cfg.TargetSize,
					Data:      data,
				}
				select {
				case <-ctx.Done():
					return
				case results <- result:
				}
			}
		}()
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	runTimestamp := output.Timestamp()
	var latestMu sync.Mutex
	var latest types.TensorResult
	var hasLatest bool

	go func() {
		defer close(uiMessages)
		if cfg.UIRate <= 0 {
			cfg.UIRate = 1 * time.Second
		}
		ticker := time.NewTicker(cfg.UIRate)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case result, ok := <-results:
				if !ok {
					return
				}
				latestMu.Lock()
				latest = result
				hasLatest = true
				latestMu.Unlock()

				if *saveEvery > 0 && result.FrameID%*saveEvery == 0 {
					setStatus("writer", "writing")
					if err := output.WriteTensor(cfg.OutputDir, runTimestamp, result); err != nil {
						metrics.tensorWriteErrors.Add(1)
						log.Printf("tensor write failed: %v", err)
						setStatus("writer", "error")
					} else {
						metrics.tensorsWritten.Add(1)
						setStatus("writer", "ok")
						setStatus("last_write", time.Now().Format(time.RFC3339))
					}
				}
			case <-ticker.C:
				latestMu.Lock()
				snapshot := latest
				ok := hasLatest
				latestMu.Unlock()
				if !ok {
					continue
				}
				select {
				case uiMessages <- types.UISnapshot{Type: "tensor", Tensor: snapshot}:
					metrics.tensorsBroadcast.Add(1)
				default:
				}
			}
		}
	}()

	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				snapshot := metrics.snapshot()
				log.Printf("pipeline stats: received=%v preprocessed=%v failures=%v decode_failures=%v",
					snapshot["frames_received_total"],
					snapshot["frames_preprocessed_total"],
					snapshot["preprocess_failures_total"],
					ingest.DecodeFailures(),
				)
			}
		}
	}()

	statusFn := func() map[string]any {
		statusMu.Lock()
		copied := map[string]any{}
		for k, v := range status {
			copied[k] = v
		}
		statusMu.Unlock()
		metricsPayload := metrics.snapshot()
		metricsPayload["ingest_decode_failures_total"] = ingest.DecodeFailures()
		decodeCount, decodeNanos := ingest.DecodeTiming()
		metricsPayload["ingest_decode_total"] = decodeCount
		metricsPayload["ingest_decode_nanos_total"] = decodeNanos
		copied["metrics"] = metricsPayload
		return copied
	}

	snapshotFn := func() any {
		latestMu.Lock()
		defer latestMu.Unlock()
		if !hasLatest {
			return nil
		}
		return types.UISnapshot{Type: "tensor", Tensor: latest}
	}

	if err := server.Run(ctx, cfg, uiMessages, statusFn, snapshotFn); err != nil {
		log.Printf("server stopped: %v", err)
	}
}
