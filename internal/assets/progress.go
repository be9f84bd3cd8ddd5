package assets

import (
	"bytes"
	"context"
	"io"
)

// Stage is the position of a submission in the load pipeline.
type Stage int

const (
	StageQueued Stage = iota
	StageTexture
	StageGeometry
	StageAttached
	StageFailed
)

func (s Stage) String() string {
	switch s {
	case StageQueued:
		return "queued"
	case StageTexture:
		return "loading-texture"
	case StageGeometry:
		return "loading-geometry"
	case StageAttached:
		return "attached"
	case StageFailed:
		return "failed"
	}
	return "unknown"
}

// Terminal reports whether the stage is final.
func (s Stage) Terminal() bool {
	return s == StageAttached || s == StageFailed
}

// Progress is the model_loading payload.
type Progress struct {
	ID      string
	Ticket  Ticket
	Stage   Stage
	Path    string
	Total   int64 // 0 when the length is unknown
	Loaded  int64
	Percent float64
}

// Percent returns loaded/total*100, or 0 when total is unknown.
func Percent(loaded, total int64) float64 {
	if total <= 0 {
		return 0
	}
	p := float64(loaded) / float64(total) * 100
	if p > 100 {
		return 100
	}
	return p
}

// Aggregate counts submissions across the pipeline's lifetime.
type Aggregate struct {
	Submitted int
	Remaining int
	Loaded    int
	Failed    int
}

// Settled reports whether nothing is in flight.
func (a Aggregate) Settled() bool {
	return a.Remaining == 0
}

// progressChunk is the read size between progress reports.
const progressChunk = 64 << 10

// readAll drains r, calling report after every chunk. It stops early when
// ctx ends.
func readAll(ctx context.Context, r io.Reader, total int64, report func(loaded, total int64)) ([]byte, error) {
	var buf bytes.Buffer
	if total > 0 {
		buf.Grow(int(total))
	}
	chunk := make([]byte, progressChunk)
	var loaded int64
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		n, err := r.Read(chunk)
		if n > 0 {
			buf.Write(chunk[:n])
			loaded += int64(n)
			report(loaded, total)
		}
		if err == io.EOF {
			return buf.Bytes(), nil
		}
		if err != nil {
			return nil, err
		}
	}
}
