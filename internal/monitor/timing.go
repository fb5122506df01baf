package monitor

import (
	"encoding/json"
	"os"
	"strings"
	"sync"
	"time"
)

type timingEvent struct {
	Phase      string  `json:"phase"`
	Kind       string  `json:"kind"`
	Monitor    string  `json:"monitor,omitempty"`
	Status     string  `json:"status,omitempty"`
	StartMS    float64 `json:"start_ms"`
	DurationMS float64 `json:"duration_ms"`
	EndMS      float64 `json:"end_ms"`
}

type timingRecorder struct {
	enabled bool
	start   time.Time
	mu      sync.Mutex
	file    *os.File
	enc     *json.Encoder
	err     error
}

func newTimingRecorder(start time.Time, path string) *timingRecorder {
	tr := &timingRecorder{start: start}
	if path == "" {
		return tr
	}
	f, err := os.Create(path)
	if err != nil {
		tr.err = err
		return tr
	}
	tr.enabled = true
	tr.file = f
	tr.enc = json.NewEncoder(f)
	return tr
}

func (tr *timingRecorder) Enabled() bool {
	return tr != nil && tr.enabled
}

func (tr *timingRecorder) Err() error {
	if tr == nil {
		return nil
	}
	return tr.err
}

func (tr *timingRecorder) Close() {
	if tr == nil || tr.file == nil {
		return
	}
	_ = tr.file.Close()
}

func (tr *timingRecorder) record(phase, kind, monitor, status string, start time.Time, duration time.Duration) {
	if tr == nil || !tr.enabled {
		return
	}
	startMS := durationToMS(start.Sub(tr.start))
	durationMS := durationToMS(duration)
	event := timingEvent{
		Phase:      phase,
		Kind:       kind,
		Monitor:    monitor,
		Status:     status,
		StartMS:    startMS,
		DurationMS: durationMS,
		EndMS:      startMS + durationMS,
	}
	tr.mu.Lock()
	_ = tr.enc.Encode(event)
	tr.mu.Unlock()
}

func (tr *timingRecorder) RecordStage(phase string, start time.Time, status string) {
	tr.record(phase, "stage", "", status, start, time.Since(start))
}

func (tr *timingRecorder) RecordMonitor(phase, monitor, status string, start time.Time) {
	tr.record(phase, "monitor", monitor, status, start, time.Since(start))
}

func durationToMS(d time.Duration) float64 {
	return float64(d.Nanoseconds()) / 1_000_000.0
}

const defaultTimingFile = "rvgen_timing.jsonl"

// resolveTimingPath picks the JSONL destination: RVGEN_TIMING_JSONL wins,
// then the compiler settings, then RVGEN_TIMING=1.
func (c *Compiler) resolveTimingPath() string {
	if envPath := os.Getenv("RVGEN_TIMING_JSONL"); envPath != "" {
		return envPath
	}
	enabled, path := c.Timing, c.TimingPath
	if c.Config != nil && c.Config.Timing.Enabled {
		enabled = true
		if path == "" {
			path = c.Config.Timing.Path
		}
	}
	if enabled || envBool("RVGEN_TIMING") {
		if path != "" {
			return path
		}
		return defaultTimingFile
	}
	return ""
}

func envBool(key string) bool {
	val := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	return val == "1" || val == "true" || val == "yes" || val == "on"
}
