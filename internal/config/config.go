package config

import "time"

type AppConfig struct {
	Port           int
	Endpoint       string
	Workers        int
	TargetSize     int
	FrameWidth     int
	FrameHeight    int
	Debug          bool
	DebugAcqRate   float64
	UIRate         time.Duration
	OutputDir      string
	RawLogEnabled  bool
	RawLogDir      string
	IngestLogEvery int
	IngestFallback bool
}
