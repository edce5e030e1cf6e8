package output

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"
)

// RawLogMagic precedes the zstd stream so dump tools can reject files
// written by other recorders.
const RawLogMagic = "EVRAWZ01"

// RawLogWriter records raw ingest payloads to a zstd-compressed log.
// Each record is a 12-byte little-endian header (unix nanos, payload
// length) followed by the payload, all inside the compressed stream.
type RawLogWriter struct {
	mu  sync.Mutex
	f   *os.File
	buf *bufio.Writer
	enc *zstd.Encoder
}

func NewRawLogWriter(outputDir string, prefix string) (*RawLogWriter, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, err
	}
	timestamp := time.Now().Format("20060102_150405")
	filename := filepath.Join(outputDir, fmt.Sprintf("%s_%s.bin.zst", timestamp, prefix))
	f, err := os.Create(filename)
	if err != nil {
		return nil, err
	}
	buf := bufio.NewWriterSize(f, 1024*1024)
	if _, err := buf.WriteString(RawLogMagic); err != nil {
		_ = f.Close()
		return nil, err
	}
	enc, err := zstd.NewWriter(buf)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return &RawLogWriter{
		f:   f,
		buf: buf,
		enc: enc,
	}, nil
}

func (r *RawLogWriter) Record(payload []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.enc == nil {
		return fmt.Errorf("raw log writer is closed")
	}
	var header [12]byte
	binary.LittleEndian.PutUint64(header[:8], uint64(time.Now().UnixNano()))
	binary.LittleEndian.PutUint32(header[8:12], uint32(len(payload)))
	if _, err := r.enc.Write(header[:]); err != nil {
		return err
	}
	if _, err := r.enc.Write(payload); err != nil {
		return err
	}
	return r.enc.Flush()
}

func (r *RawLogWriter) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.enc == nil {
		return nil
	}
	encErr := r.enc.Close()
	r.enc = nil
	if err := r.buf.Flush(); err != nil {
		_ = r.f.Close()
		return err
	}
	if encErr != nil {
		_ = r.f.Close()
		return encErr
	}
	return r.f.Close()
}
