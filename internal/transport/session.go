// Package transport wraps the peer channel between the watch and the
// phone. The relay core consumes the Session interface and reacts to
// Events; it never talks to a socket directly, so tests can drive it
// with an in-memory pipe.
package transport

import (
	"context"
	"errors"

	"github.com/voicebridge/watchlink/internal/protocol"
)

var (
	ErrNotReachable = errors.New("peer not reachable")
	ErrClosed       = errors.New("session closed")
)

// Session is one endpoint of the peer channel.
//
// Activate establishes (or re-establishes) the underlying link and may be
// called again after a failure. Reachability changes and inbound messages
// are delivered on Events; the caller owns draining that channel.
type Session interface {
	Activate(ctx context.Context) error
	IsReachable() bool
	Send(ctx context.Context, msg protocol.Message) error
	Events() <-chan Event
	Close() error
}

type EventKind int

const (
	// EventReachability reports the peer becoming reachable or not.
	EventReachability EventKind = iota
	// EventReceived delivers an inbound message.
	EventReceived
)

type Event struct {
	Kind      EventKind
	Reachable bool
	Msg       protocol.Message
}
