package relay

import "time"

// Quality is the ordinal link-quality tier derived from probe round trips.
// Higher is better.
type Quality int

const (
	QualityUnknown Quality = iota
	QualityPoor
	QualityFair
	QualityGood
	QualityExcellent
)

func (q Quality) String() string {
	switch q {
	case QualityPoor:
		return "POOR"
	case QualityFair:
		return "FAIR"
	case QualityGood:
		return "GOOD"
	case QualityExcellent:
		return "EXCELLENT"
	default:
		return "UNKNOWN"
	}
}

const (
	excellentBelow = 150 * time.Millisecond
	goodBelow      = 400 * time.Millisecond
	fairBelow      = time.Second
)

func classifyLatency(avg time.Duration) Quality {
	switch {
	case avg < excellentBelow:
		return QualityExcellent
	case avg < goodBelow:
		return QualityGood
	case avg < fairBelow:
		return QualityFair
	default:
		return QualityPoor
	}
}

// latencyWindow keeps the last capacity round-trip samples, evicting the
// oldest. Failed probes never add samples; they are handled as misses.
type latencyWindow struct {
	samples  []time.Duration
	capacity int
}

func newLatencyWindow(capacity int) *latencyWindow {
	return &latencyWindow{capacity: capacity}
}

func (w *latencyWindow) Add(d time.Duration) {
	if len(w.samples) == w.capacity {
		w.samples = w.samples[1:]
	}
	w.samples = append(w.samples, d)
}

func (w *latencyWindow) Mean() time.Duration {
	if len(w.samples) == 0 {
		return 0
	}
	var total time.Duration
	for _, d := range w.samples {
		total += d
	}
	return total / time.Duration(len(w.samples))
}

func (w *latencyWindow) Quality() Quality {
	if len(w.samples) == 0 {
		return QualityUnknown
	}
	return classifyLatency(w.Mean())
}

func (w *latencyWindow) Len() int {
	return len(w.samples)
}
