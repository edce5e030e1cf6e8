package ingest

import (
	"context"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/pebbe/zmq4"

	"edgevision-go/internal/types"
)

// RawRecorder receives every raw payload pulled off the socket, before any
// decoding. Used for raw frame logging.
type RawRecorder interface {
	Record(payload []byte) error
}

var (
	decodeFailures atomic.Uint64
	decodeCount    atomic.Uint64
	decodeNanos    atomic.Uint64
)

// DecodeFailures reports how many received messages failed envelope decoding.
func DecodeFailures() uint64 {
	return decodeFailures.Load()
}

// DecodeTiming reports total decode invocations and cumulative nanoseconds.
func DecodeTiming() (uint64, uint64) {
	return decodeCount.Load(), decodeNanos.Load()
}

// Stream returns a channel of source frames from a capture endpoint.
// Expects CBOR messages shaped like the firmware publisher:
// { "type": "frame", "frame_id": <int>, "timestamp": <float>,
//   "width": <int>, "height": <int>, "format": "jpeg", "data": <bytes> }
func Stream(ctx context.Context, endpoint string) (<-chan types.SourceFrame, error) {
	return streamWithConfig(ctx, endpoint, 1, nil)
}

func StreamWithLogEvery(ctx context.Context, endpoint string, logEvery int) (<-chan types.SourceFrame, error) {
	if logEvery < 1 {
		logEvery = 1
	}
	return streamWithConfig(ctx, endpoint, logEvery, nil)
}

func StreamWithLogEveryAndRecorder(ctx context.Context, endpoint string, logEvery int, recorder RawRecorder) (<-chan types.SourceFrame, error) {
	if logEvery < 1 {
		logEvery = 1
	}
	return streamWithConfig(ctx, endpoint, logEvery, recorder)
}

func streamWithConfig(ctx context.Context, endpoint string, logEvery int, recorder RawRecorder) (<-chan types.SourceFrame, error) {
	socket, err := zmq4.NewSocket(zmq4.PULL)
	if err != nil {
		return nil, err
	}
	if err := socket.Connect(endpoint); err != nil {
		_ = socket.Close()
		return nil, err
	}

	out := make(chan types.SourceFrame, 128)
	go func() {
		defer close(out)
		defer socket.Close()

		for {
			select {
			case <-ctx.Done():
				return
			default:
			}

			msg, err := socket.RecvBytes(0)
			if err != nil {
				logEveryN(logEvery, "ingest recv error: %v", err)
				continue
			}
			if recorder != nil {
				if err := recorder.Record(msg); err != nil {
					logEveryN(logEvery, "ingest raw record error: %v", err)
				}
			}

			frame, ok := decodeMessage(msg, logEvery)
			if !ok {
				continue
			}

			select {
			case <-ctx.Done():
				return
			case out <- frame:
			}
		}
	}()

	return out, nil
}

func decodeMessage(msg []byte, logEvery int) (types.SourceFrame, bool) {
	start := time.Now()
	defer func() {
		decodeCount.Add(1)
		decodeNanos.Add(uint64(time.Since(start).Nanoseconds()))
	}()

	var payload map[string]any
	if err := cbor.Unmarshal(msg, &payload); err != nil {
		decodeFailures.Add(1)
		logEveryN(logEvery, "ingest CBOR decode error: %v", err)
		return types.SourceFrame{}, false
	}

	msgType, _ := payload["type"].(string)
	if msgType != "frame" {
		logEveryN(logEvery, "ingest ignoring message type %q", msgType)
		return types.SourceFrame{}, false
	}

	frameID, err := toInt(payload["frame_id"])
	if err != nil {
		decodeFailures.Add(1)
		logEveryN(logEvery, "ingest invalid frame_id: %v", err)
		return types.SourceFrame{}, false
	}
	timestamp, err := toFloat(payload["timestamp"])
	if err != nil {
		decodeFailures.Add(1)
		logEveryN(logEvery, "ingest invalid timestamp: %v", err)
		return types.SourceFrame{}, false
	}
	width, err := toInt(payload["width"])
	if err != nil {
		decodeFailures.Add(1)
		logEveryN(logEvery, "ingest invalid width: %v", err)
		return types.SourceFrame{}, false
	}
	height, err := toInt(payload["height"])
	if err != nil {
		decodeFailures.Add(1)
		logEveryN(logEvery, "ingest invalid height: %v", err)
		return types.SourceFrame{}, false
	}
	format, _ := payload["format"].(string)
	if format == "" {
		decodeFailures.Add(1)
		logEveryN(logEvery, "ingest missing pixel format")
		return types.SourceFrame{}, false
	}
	data, ok := payload["data"].([]byte)
	if !ok || len(data) == 0 {
		decodeFailures.Add(1)
		logEveryN(logEvery, "ingest missing frame payload")
		return types.SourceFrame{}, false
	}

	return types.SourceFrame{
		FrameID:   frameID,
		Timestamp: timestamp,
		Width:     width,
		Height:    height,
		Format:    format,
		Data:      data,
	}, true
}

func toInt(v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case uint64:
		return int(n), nil
	case uint32:
		return int(n), nil
	case float64:
		return int(n), nil
	default:
		return 0, fmt.Errorf("unsupported int type %T", v)
	}
}

func toFloat(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case uint64:
		return float64(n), nil
	default:
		return 0, fmt.Errorf("unsupported float type %T", v)
	}
}

var logCounter int

func logEveryN(n int, format string, args ...any) {
	logCounter++
	if logCounter%n == 0 {
		log.Printf(format, args...)
	}
}
