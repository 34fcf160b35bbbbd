// Package relay implements the watch-to-phone relay core: an outbound
// message queue with retry and timeout handling, a connection state
// machine with backoff-driven reconnection, probe-based link quality
// estimation, and request/response correlation over an unreliable peer
// channel.
package relay

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/voicebridge/watchlink/internal/protocol"
	"github.com/voicebridge/watchlink/internal/transport"
)

const (
	sendTimeout     = 5 * time.Second
	activateTimeout = 10 * time.Second
)

// Completion delivers the terminal outcome of a translation request. It
// fires exactly once, from the manager loop. A response with a non-empty
// Err field is still a success at the transport level; err is non-nil
// only for local failures (retries exhausted, timeout, cancellation).
type Completion func(res *protocol.TranslationResponse, err error)

// Snapshot is the externally observable relay state. It is copied out
// under a read lock; all writes happen on the manager loop.
type Snapshot struct {
	State            ConnState
	StateReason      string
	Reachable        bool
	Quality          Quality
	AverageLatency   time.Duration
	CreditsRemaining int64
	SourceLang       string
	TargetLang       string
	QueuedMessages   int
	PendingRequests  int
	LastResponse     *protocol.TranslationResponse
}

// Manager owns one side of the peer relay. All mutable state is confined
// to a single loop goroutine; the public API posts closures onto that
// loop and never blocks on the network.
type Manager struct {
	cfg     Config
	session transport.Session
	clk     clock.Clock
	logger  *logrus.Logger

	cmds      chan func()
	done      chan struct{}
	closeOnce sync.Once

	// Loop-owned state. Never touched outside run().
	state            ConnState
	stateReason      string
	queue            *Queue
	pending          *Pending
	window           *latencyWindow
	backoff          *backoff.ExponentialBackOff
	reconnectTimer   *clock.Timer
	reconnectDelay   time.Duration
	probeOutstanding bool
	probeSentAt      int64
	missedProbes     int
	credits          int64
	sourceLang       string
	targetLang       string
	lastResponse     *protocol.TranslationResponse

	snapMu sync.RWMutex
	snap   Snapshot
}

func NewManager(session transport.Session, cfg Config) *Manager {
	cfg = cfg.withDefaults()

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = cfg.BackoffFloor
	b.MaxInterval = cfg.BackoffCap
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.MaxElapsedTime = 0
	b.Reset()

	return &Manager{
		cfg:     cfg,
		session: session,
		clk:     cfg.Clock,
		logger:  cfg.Logger,
		cmds:    make(chan func(), 16),
		done:    make(chan struct{}),
		state:   StateDisconnected,
		queue:   NewQueue(cfg.DrainBatch, cfg.RetryDelay),
		pending: NewPending(),
		window:  newLatencyWindow(cfg.LatencyWindow),
		backoff: b,
	}
}

// Start launches the manager loop. Tickers are created before the
// goroutine so callers can advance an injected mock clock immediately
// after Start returns.
func (m *Manager) Start() {
	drainT := m.clk.Ticker(m.cfg.DrainInterval)
	sweepT := m.clk.Ticker(m.cfg.TimeoutSweep)
	healthT := m.clk.Ticker(m.cfg.HealthInterval)
	go m.run(drainT, sweepT, healthT)
}

func (m *Manager) Close() error {
	m.closeOnce.Do(func() {
		close(m.done)
	})
	if m.cfg.PathMonitor != nil {
		_ = m.cfg.PathMonitor.Close()
	}
	return m.session.Close()
}

// Activate requests session activation; the state machine moves to
// CONNECTING and, on success or on the peer becoming reachable, to
// CONNECTED.
func (m *Manager) Activate() error {
	return m.do(m.activate)
}

// SendTranslationRequest queues req for relay to the phone and returns
// immediately. completion fires exactly once: with the phone's response,
// or with an error once retries are exhausted, the request times out, or
// the queue is cleared. A zero ID and CreatedAt are filled in; retries of
// the same logical request keep the same ID.
func (m *Manager) SendTranslationRequest(req *protocol.TranslationRequest, completion Completion) error {
	r := *req
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = m.clk.Now()
	}
	if r.SourceLang == "" || r.TargetLang == "" {
		return fmt.Errorf("translation request needs a language pair")
	}

	return m.do(func() {
		cb := func(msg protocol.Message, err error) {
			if completion == nil {
				return
			}
			if err != nil {
				completion(nil, err)
				return
			}
			res, ok := msg.(*protocol.TranslationResponse)
			if !ok {
				completion(nil, fmt.Errorf("unexpected reply type %T", msg))
				return
			}
			completion(res, nil)
		}
		m.enqueue(r.ID, &r, cb)
	})
}

// RequestCreditsUpdate asks the phone for the remaining usage budget.
// completion may be nil for fire-and-forget refreshes.
func (m *Manager) RequestCreditsUpdate(completion func(remaining int64, err error)) error {
	id := uuid.NewString()
	return m.do(func() {
		cb := func(msg protocol.Message, err error) {
			if completion == nil {
				return
			}
			if err != nil {
				completion(0, err)
				return
			}
			if u, ok := msg.(*protocol.CreditsUpdate); ok {
				completion(u.Remaining, nil)
				return
			}
			completion(0, fmt.Errorf("unexpected reply type %T", msg))
		}
		m.enqueue(id, &protocol.CreditsQuery{ID: id}, cb)
	})
}

// SyncLanguages replicates the active language pair to the phone.
func (m *Manager) SyncLanguages(sourceLang, targetLang string, completion func(err error)) error {
	id := uuid.NewString()
	return m.do(func() {
		m.sourceLang = sourceLang
		m.targetLang = targetLang
		cb := func(_ protocol.Message, err error) {
			if completion != nil {
				completion(err)
			}
		}
		m.enqueue(id, &protocol.LanguageSync{ID: id, SourceLang: sourceLang, TargetLang: targetLang}, cb)
	})
}

// ForceReconnection tears down the backoff schedule and attempts a fresh
// activation immediately, from any state.
func (m *Manager) ForceReconnection() error {
	return m.do(func() {
		m.cancelReconnectTimer()
		m.backoff.Reset()
		m.setState(StateReconnecting, "forced")
		m.tryActivate()
	})
}

// ClearMessageQueue drops every queued message, resolving each completion
// with ErrCancelled. Messages already dispatched stay pending until their
// response or timeout.
func (m *Manager) ClearMessageQueue() error {
	return m.do(func() {
		for _, qm := range m.queue.Clear() {
			if cb, ok := m.pending.Resolve(qm.ID); ok {
				cb(nil, ErrCancelled)
			}
		}
	})
}

func (m *Manager) Snapshot() Snapshot {
	m.snapMu.RLock()
	defer m.snapMu.RUnlock()
	return m.snap
}

func (m *Manager) do(fn func()) error {
	select {
	case m.cmds <- fn:
		return nil
	case <-m.done:
		return ErrClosed
	}
}

func (m *Manager) run(drainT, sweepT, healthT *clock.Ticker) {
	defer drainT.Stop()
	defer sweepT.Stop()
	defer healthT.Stop()

	var pathCh <-chan bool
	if m.cfg.PathMonitor != nil {
		pathCh = m.cfg.PathMonitor.Updates()
	}

	m.publish()

	for {
		select {
		case <-m.done:
			return
		case fn := <-m.cmds:
			fn()
		case ev := <-m.session.Events():
			m.handleEvent(ev)
		case <-drainT.C:
			m.drain()
		case <-sweepT.C:
			m.sweep()
		case <-healthT.C:
			m.healthTick()
		case up := <-pathCh:
			m.handlePathChange(up)
		}
		m.publish()
	}
}

func (m *Manager) setState(s ConnState, reason string) {
	if m.state == s && m.stateReason == reason {
		return
	}
	m.logger.Infof("Connection state %s -> %s %s", m.state, s, reason)
	m.state = s
	m.stateReason = reason
}

func (m *Manager) activate() {
	if m.state == StateConnecting || m.state == StateConnected {
		return
	}
	m.tryActivate()
}

func (m *Manager) tryActivate() {
	m.setState(StateConnecting, "")

	ctx, cancel := context.WithTimeout(context.Background(), activateTimeout)
	err := m.session.Activate(ctx)
	cancel()

	if err != nil {
		m.logger.Warnf("Session activation failed: %v", err)
		m.setState(StateError, err.Error())
		m.scheduleReconnect()
		return
	}

	if m.session.IsReachable() {
		m.onConnected()
	}
	// Otherwise stay CONNECTING until the reachability event arrives.
}

func (m *Manager) onConnected() {
	if m.state == StateConnected {
		return
	}
	m.setState(StateConnected, "")
	m.cancelReconnectTimer()
	m.backoff.Reset()
	m.reconnectDelay = 0
	m.probeOutstanding = false
	m.missedProbes = 0

	m.drain()
	m.resync()
}

// resync refreshes credits and the language pair after every connect;
// both ride the normal queue and are best effort.
func (m *Manager) resync() {
	creditsID := uuid.NewString()
	m.enqueue(creditsID, &protocol.CreditsQuery{ID: creditsID}, m.logOnly("credits resync"))

	if m.sourceLang != "" && m.targetLang != "" {
		langID := uuid.NewString()
		m.enqueue(langID, &protocol.LanguageSync{
			ID:         langID,
			SourceLang: m.sourceLang,
			TargetLang: m.targetLang,
		}, m.logOnly("language resync"))
	}
}

func (m *Manager) logOnly(what string) Callback {
	return func(_ protocol.Message, err error) {
		if err != nil {
			m.logger.Debugf("Best-effort %s failed: %v", what, err)
		}
	}
}

func (m *Manager) scheduleReconnect() {
	if m.reconnectTimer != nil {
		return
	}

	delay := m.backoff.NextBackOff()
	m.reconnectDelay = delay
	m.setState(StateReconnecting, m.stateReason)
	m.logger.Infof("Reconnecting in %s", delay)

	m.reconnectTimer = m.clk.AfterFunc(delay, func() {
		_ = m.do(func() {
			m.reconnectTimer = nil
			m.tryActivate()
		})
	})
}

func (m *Manager) cancelReconnectTimer() {
	if m.reconnectTimer != nil {
		m.reconnectTimer.Stop()
		m.reconnectTimer = nil
	}
}

func (m *Manager) handlePathChange(up bool) {
	if !up || m.state == StateConnected {
		return
	}
	m.logger.Info("Network path restored, attempting reconnect")
	m.cancelReconnectTimer()
	m.tryActivate()
}

func (m *Manager) handleEvent(ev transport.Event) {
	switch ev.Kind {
	case transport.EventReachability:
		if ev.Reachable {
			m.onConnected()
			return
		}
		if m.state == StateConnected {
			m.setState(StateDisconnected, "peer unreachable")
			m.scheduleReconnect()
		}
	case transport.EventReceived:
		m.handleMessage(ev.Msg)
	}
}

func (m *Manager) enqueue(id string, msg protocol.Message, cb Callback) {
	now := m.clk.Now()
	m.pending.Register(id, cb, now.Add(m.cfg.MessageTimeout))
	m.queue.Enqueue(&QueuedMessage{
		ID:          id,
		Kind:        msg.Type(),
		Msg:         msg,
		EnqueuedAt:  now,
		NextAttempt: now,
		MaxRetries:  m.cfg.MaxRetries,
	})
	m.logger.Debugf("Queued %s id=%s depth=%d", msg.Type(), id, m.queue.Len())

	if m.session.IsReachable() {
		m.drain()
	}
}

func (m *Manager) drain() {
	if !m.session.IsReachable() {
		return
	}

	now := m.clk.Now()
	for _, qm := range m.queue.Drain(now) {
		if !m.pending.Has(qm.ID) {
			// Already timed out or cancelled while waiting to retry.
			continue
		}

		ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
		err := m.session.Send(ctx, qm.Msg)
		cancel()

		if err == nil {
			m.logger.Debugf("Dispatched %s id=%s attempt=%d", qm.Kind, qm.ID, qm.RetryCount+1)
			continue
		}

		if m.queue.RetryOrFail(qm, now) {
			m.logger.Warnf("Dispatch of %s failed (retry %d/%d): %v", qm.Kind, qm.RetryCount, qm.MaxRetries, err)
			continue
		}

		m.logger.Warnf("Dispatch of %s failed permanently after %d attempts: %v", qm.Kind, qm.RetryCount+1, err)
		if cb, ok := m.pending.Resolve(qm.ID); ok {
			cb(nil, fmt.Errorf("%w: %v", ErrRetriesExhausted, err))
		}
	}
}

// sweep fails every request past its hard timeout, whether it is still
// queued or already dispatched and waiting on a reply.
func (m *Manager) sweep() {
	now := m.clk.Now()
	for _, id := range m.pending.Expired(now) {
		cb, ok := m.pending.Resolve(id)
		if !ok {
			continue
		}
		m.queue.Remove(id)
		m.logger.Warnf("Request %s timed out", id)
		cb(nil, ErrTimeout)
	}
}

func (m *Manager) handleMessage(msg protocol.Message) {
	switch msg := msg.(type) {
	case *protocol.TranslationResponse:
		m.credits = msg.CreditsRemaining
		m.lastResponse = msg
		cb, ok := m.pending.Resolve(msg.RequestID)
		if !ok {
			m.logger.Debugf("Dropping stale response id=%s", msg.RequestID)
			return
		}
		m.queue.Remove(msg.RequestID)
		cb(msg, nil)

	case *protocol.CreditsUpdate:
		m.credits = msg.Remaining
		if msg.RequestID == "" {
			return
		}
		if cb, ok := m.pending.Resolve(msg.RequestID); ok {
			m.queue.Remove(msg.RequestID)
			cb(msg, nil)
		}

	case *protocol.Ack:
		if cb, ok := m.pending.Resolve(msg.RequestID); ok {
			m.queue.Remove(msg.RequestID)
			cb(msg, nil)
		}

	case *protocol.Error:
		cb, ok := m.pending.Resolve(msg.RequestID)
		if !ok {
			return
		}
		m.queue.Remove(msg.RequestID)
		cb(msg, fmt.Errorf("peer error %s: %s", msg.Code, msg.Message))

	case *protocol.HealthProbeAck:
		m.handleProbeAck(msg)

	case *protocol.HealthProbe:
		ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
		if err := m.session.Send(ctx, &protocol.HealthProbeAck{SentAt: msg.SentAt}); err != nil {
			m.logger.Debugf("Probe ack failed: %v", err)
		}
		cancel()

	case *protocol.LanguageSync:
		m.sourceLang = msg.SourceLang
		m.targetLang = msg.TargetLang
		ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
		if err := m.session.Send(ctx, &protocol.Ack{RequestID: msg.ID}); err != nil {
			m.logger.Debugf("Language sync ack failed: %v", err)
		}
		cancel()

	default:
		m.logger.Warnf("Unhandled message type %s", msg.Type())
	}
}

func (m *Manager) healthTick() {
	if m.state != StateConnected {
		m.probeOutstanding = false
		return
	}

	if m.probeOutstanding {
		m.probeOutstanding = false
		m.recordProbeMiss("probe unanswered")
		if m.state != StateConnected {
			return
		}
	}

	m.sendProbe()
}

func (m *Manager) sendProbe() {
	sentAt := m.clk.Now().UnixNano()

	ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
	err := m.session.Send(ctx, &protocol.HealthProbe{SentAt: sentAt})
	cancel()

	if err != nil {
		m.recordProbeMiss(err.Error())
		return
	}

	m.probeOutstanding = true
	m.probeSentAt = sentAt
}

// recordProbeMiss never fabricates a latency sample; enough consecutive
// misses mark the link dead and kick off reconnection.
func (m *Manager) recordProbeMiss(reason string) {
	m.missedProbes++
	m.logger.Warnf("Health probe failed (%d consecutive): %s", m.missedProbes, reason)

	if m.missedProbes >= m.cfg.ProbeMissLimit {
		m.missedProbes = 0
		m.setState(StateDisconnected, "health probes unanswered")
		m.scheduleReconnect()
	}
}

func (m *Manager) handleProbeAck(ack *protocol.HealthProbeAck) {
	if !m.probeOutstanding || ack.SentAt != m.probeSentAt {
		// A late ack for a probe already written off.
		return
	}
	m.probeOutstanding = false
	m.missedProbes = 0

	rtt := time.Duration(m.clk.Now().UnixNano() - ack.SentAt)
	if rtt < 0 {
		return
	}
	m.window.Add(rtt)
}

func (m *Manager) publish() {
	snap := Snapshot{
		State:            m.state,
		StateReason:      m.stateReason,
		Reachable:        m.session.IsReachable(),
		Quality:          m.window.Quality(),
		AverageLatency:   m.window.Mean(),
		CreditsRemaining: m.credits,
		SourceLang:       m.sourceLang,
		TargetLang:       m.targetLang,
		QueuedMessages:   m.queue.Len(),
		PendingRequests:  m.pending.Len(),
		LastResponse:     m.lastResponse,
	}

	m.snapMu.Lock()
	m.snap = snap
	m.snapMu.Unlock()
}
