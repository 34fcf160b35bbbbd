package relay

import "errors"

var (
	ErrRetriesExhausted = errors.New("send retries exhausted")
	ErrTimeout          = errors.New("request timed out")
	ErrCancelled        = errors.New("request cancelled")
	ErrClosed           = errors.New("session manager closed")
)

// ConnState is the peer-session lifecycle. Transitions happen only inside
// the manager loop, driven by transport events, timers, and explicit
// reconnect requests.
type ConnState int

const (
	StateDisconnected ConnState = iota
	StateConnecting
	StateConnected
	StateReconnecting
	StateError
)

func (s ConnState) String() string {
	switch s {
	case StateDisconnected:
		return "DISCONNECTED"
	case StateConnecting:
		return "CONNECTING"
	case StateConnected:
		return "CONNECTED"
	case StateReconnecting:
		return "RECONNECTING"
	case StateError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}
