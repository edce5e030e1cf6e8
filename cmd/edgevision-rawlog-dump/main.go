package main

import (
	"encoding/binary"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/klauspost/compress/zstd"

	"edgevision-go/internal/output"
)

func main() {
	var (
		path  = flag.String("path", "", "Path to rawlog .bin.zst file")
		limit = flag.Int("limit", 10, "Number of records to dump (0 for all)")
	)
	flag.Parse()

	if *path == "" {
		log.Fatal("path is required")
	}

	f, err := os.Open(*path)
	if err != nil {
		log.Fatalf("open rawlog: %v", err)
	}
	defer f.Close()

	header := make([]byte, len(output.RawLogMagic))
	if _, err := io.ReadFull(f, header); err != nil {
		log.Fatalf("read magic: %v", err)
	}
	if string(header) != output.RawLogMagic {
		log.Fatalf("unexpected rawlog magic %q", string(header))
	}

	dec, err := zstd.NewReader(f)
	if err != nil {
		log.Fatalf("open zstd stream: %v", err)
	}
	defer dec.Close()

	count := 0
	for {
		if *limit > 0 && count >= *limit {
			return
		}
		var meta [12]byte
		if _, err := io.ReadFull(dec, meta[:]); err != nil {
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				return
			}
			log.Fatalf("read record header: %v", err)
		}
		ts := int64(binary.LittleEndian.Uint64(meta[:8]))
		size := binary.LittleEndian.Uint32(meta[8:12])
		if size == 0 {
			log.Printf("record %d: empty payload", count)
			count++
			continue
		}
		payload := make([]byte, size)
		if _, err := io.ReadFull(dec, payload); err != nil {
			log.Fatalf("read payload: %v", err)
		}

		log.Printf("record %d timestamp=%s size=%d", count, time.Unix(0, ts).Format(time.RFC3339Nano), size)
		summarize(payload, count)
		count++
	}
}

func summarize(payload []byte, index int) {
	var envelope map[string]any
	if err := cbor.Unmarshal(payload, &envelope); err != nil {
		log.Printf("record %d: CBOR decode error: %v", index, err)
		return
	}
	msgType, _ := envelope["type"].(string)
	if msgType != "frame" {
		fmt.Printf("  type=%q\n", msgType)
		return
	}
	data, _ := envelope["data"].([]byte)
	fmt.Printf("  frame_id=%v format=%v %vx%v payload=%d bytes\n",
		envelope["frame_id"], envelope["format"],
		envelope["width"], envelope["height"], len(data))
}
