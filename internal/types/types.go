package types

// SourceFrame is a compressed camera frame as delivered by the capture
// subsystem. Data is owned by the producer and must not be modified by
// consumers; the preprocessing pipeline only reads it.
type SourceFrame struct {
	FrameID   int     `json:"frame_id"`
	Timestamp float64 `json:"timestamp"`
	Width     int     `json:"width"`
	Height    int     `json:"height"`
	Format    string  `json:"format"`
	Data      []byte  `json:"-"`
}

// TensorResult is a quantized model input produced from one SourceFrame.
// Data holds Side*Side int8 samples, row-major, zero point -128.
type TensorResult struct {
	FrameID   int     `json:"frame_id"`
	Timestamp float64 `json:"timestamp"`
	Side      int     `json:"side"`
	Data      []int8  `json:"data"`
}
