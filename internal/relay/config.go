package relay

import (
	"time"

	"github.com/benbjohnson/clock"
	"github.com/sirupsen/logrus"
)

// Config tunes the relay core. Zero values fall back to the defaults
// below; the qualitative guarantees (increasing retry delay, bounded
// backoff, hard message timeout) hold for any sane choice.
type Config struct {
	// DrainBatch is how many queued messages one drain pass dispatches.
	DrainBatch int
	// DrainInterval is how often the loop retries draining, picking up
	// messages whose retry delay has elapsed.
	DrainInterval time.Duration
	// MaxRetries bounds transport-level retries per message. The initial
	// attempt does not count, so a message is tried MaxRetries+1 times.
	MaxRetries int
	// RetryDelay is the base retry delay; attempt n waits n*RetryDelay.
	RetryDelay time.Duration
	// MessageTimeout is the hard ceiling on a request's lifetime,
	// independent of its remaining retry budget.
	MessageTimeout time.Duration
	// TimeoutSweep is how often expired requests are failed.
	TimeoutSweep time.Duration

	// HealthInterval is the probe period while connected.
	HealthInterval time.Duration
	// ProbeMissLimit is how many consecutive unanswered probes mark the
	// link dead and trigger a reconnect.
	ProbeMissLimit int
	// LatencyWindow is the rolling RTT sample count for quality tiers.
	LatencyWindow int

	// BackoffFloor and BackoffCap bound the reconnection backoff. The
	// delay doubles per failed attempt and resets to the floor once a
	// connection succeeds.
	BackoffFloor time.Duration
	BackoffCap   time.Duration

	// PathMonitor, when set, feeds OS reachability into reconnection.
	PathMonitor PathMonitor

	// Clock is injectable for tests; defaults to the wall clock.
	Clock clock.Clock

	Logger *logrus.Logger
}

func DefaultConfig() Config {
	return Config{
		DrainBatch:     5,
		DrainInterval:  time.Second,
		MaxRetries:     3,
		RetryDelay:     time.Second,
		MessageTimeout: 30 * time.Second,
		TimeoutSweep:   5 * time.Second,
		HealthInterval: 15 * time.Second,
		ProbeMissLimit: 2,
		LatencyWindow:  10,
		BackoffFloor:   500 * time.Millisecond,
		BackoffCap:     30 * time.Second,
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.DrainBatch <= 0 {
		c.DrainBatch = def.DrainBatch
	}
	if c.DrainInterval <= 0 {
		c.DrainInterval = def.DrainInterval
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = def.MaxRetries
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = def.RetryDelay
	}
	if c.MessageTimeout <= 0 {
		c.MessageTimeout = def.MessageTimeout
	}
	if c.TimeoutSweep <= 0 {
		c.TimeoutSweep = def.TimeoutSweep
	}
	if c.HealthInterval <= 0 {
		c.HealthInterval = def.HealthInterval
	}
	if c.ProbeMissLimit <= 0 {
		c.ProbeMissLimit = def.ProbeMissLimit
	}
	if c.LatencyWindow <= 0 {
		c.LatencyWindow = def.LatencyWindow
	}
	if c.BackoffFloor <= 0 {
		c.BackoffFloor = def.BackoffFloor
	}
	if c.BackoffCap <= 0 {
		c.BackoffCap = def.BackoffCap
	}
	if c.Clock == nil {
		c.Clock = clock.New()
	}
	if c.Logger == nil {
		c.Logger = logrus.New()
	}
	return c
}
