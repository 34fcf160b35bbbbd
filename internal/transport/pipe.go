package transport

import (
	"context"
	"sync"

	"github.com/voicebridge/watchlink/internal/protocol"
)

// PipeSession is an in-memory Session wired to a twin endpoint. Messages
// pass through the gob codec so anything unregistered fails in tests the
// same way it would on the wire. Reachability, send failures, and
// activation failures are all injectable.
type PipeSession struct {
	name  string
	codec *protocol.Codec

	mu          sync.Mutex
	peer        *PipeSession
	events      chan Event
	reachable   bool
	closed      bool
	activateErr error
	sendErr     error
	sends       int
}

// NewPipe returns two connected endpoints. Both start unreachable until
// activated.
func NewPipe() (*PipeSession, *PipeSession) {
	a := &PipeSession{name: "a", codec: protocol.NewCodec(), events: make(chan Event, 64)}
	b := &PipeSession{name: "b", codec: protocol.NewCodec(), events: make(chan Event, 64)}
	a.peer = b
	b.peer = a
	return a, b
}

func (s *PipeSession) Activate(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	if s.activateErr != nil {
		err := s.activateErr
		s.mu.Unlock()
		return err
	}
	s.mu.Unlock()

	s.SetReachable(true)
	return nil
}

func (s *PipeSession) IsReachable() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reachable && !s.closed
}

func (s *PipeSession) Send(ctx context.Context, msg protocol.Message) error {
	s.mu.Lock()
	s.sends++
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	if s.sendErr != nil {
		err := s.sendErr
		s.mu.Unlock()
		return err
	}
	if !s.reachable {
		s.mu.Unlock()
		return ErrNotReachable
	}
	peer := s.peer
	s.mu.Unlock()

	data, err := s.codec.EncodeToBytes(msg)
	if err != nil {
		return err
	}
	decoded, err := s.codec.DecodeFromBytes(data)
	if err != nil {
		return err
	}
	peer.deliver(Event{Kind: EventReceived, Msg: decoded})
	return nil
}

func (s *PipeSession) Events() <-chan Event {
	return s.events
}

func (s *PipeSession) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.reachable = false
	s.mu.Unlock()
	return nil
}

// SetReachable flips this endpoint's view of the peer and emits the
// reachability event the relay core keys off.
func (s *PipeSession) SetReachable(reachable bool) {
	s.mu.Lock()
	if s.closed || s.reachable == reachable {
		s.mu.Unlock()
		return
	}
	s.reachable = reachable
	s.mu.Unlock()

	s.deliver(Event{Kind: EventReachability, Reachable: reachable})
}

// FailActivation makes subsequent Activate calls return err. Pass nil to
// restore normal activation.
func (s *PipeSession) FailActivation(err error) {
	s.mu.Lock()
	s.activateErr = err
	s.mu.Unlock()
}

// FailSends makes subsequent Send calls return err while still counting
// attempts. Pass nil to restore delivery.
func (s *PipeSession) FailSends(err error) {
	s.mu.Lock()
	s.sendErr = err
	s.mu.Unlock()
}

// SendAttempts reports how many times Send was called, including failures.
func (s *PipeSession) SendAttempts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sends
}

func (s *PipeSession) deliver(ev Event) {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return
	}
	s.events <- ev
}
