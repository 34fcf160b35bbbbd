package transport

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/voicebridge/watchlink/internal/protocol"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum inbound frame size; sized for inline audio payloads.
	maxMessageSize = 512 * 1024
)

// WSSession carries the peer channel over a websocket. The dial side
// (watch) re-dials on every Activate; the accept side wraps a connection
// the server already upgraded.
type WSSession struct {
	url    string
	codec  *protocol.Codec
	logger *logrus.Logger

	mu        sync.Mutex
	conn      *websocket.Conn
	reachable bool
	closed    bool
	gen       int

	writeMu sync.Mutex
	events  chan Event
}

// Dial creates the watch-side session. The connection is not opened until
// Activate.
func Dial(url string, logger *logrus.Logger) *WSSession {
	return &WSSession{
		url:    url,
		codec:  protocol.NewCodec(),
		logger: logger,
		events: make(chan Event, 64),
	}
}

// Accept wraps an already-upgraded server-side connection. The session is
// reachable immediately; Activate is a no-op.
func Accept(conn *websocket.Conn, logger *logrus.Logger) *WSSession {
	s := &WSSession{
		codec:  protocol.NewCodec(),
		logger: logger,
		events: make(chan Event, 64),
	}
	s.attach(conn)
	return s
}

func (s *WSSession) Activate(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	if s.reachable {
		s.mu.Unlock()
		return nil
	}
	url := s.url
	s.mu.Unlock()

	if url == "" {
		// Accept-side sessions cannot re-dial; the server waits for
		// the watch to come back.
		return ErrNotReachable
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return err
	}

	s.attach(conn)
	return nil
}

func (s *WSSession) attach(conn *websocket.Conn) {
	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	s.mu.Lock()
	s.conn = conn
	s.reachable = true
	s.gen++
	gen := s.gen
	s.mu.Unlock()

	s.deliver(Event{Kind: EventReachability, Reachable: true})

	go s.readPump(conn, gen)
	go s.pingLoop(conn, gen)
}

func (s *WSSession) IsReachable() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reachable && !s.closed
}

func (s *WSSession) Send(ctx context.Context, msg protocol.Message) error {
	s.mu.Lock()
	conn := s.conn
	reachable := s.reachable
	closed := s.closed
	s.mu.Unlock()

	if closed {
		return ErrClosed
	}
	if !reachable || conn == nil {
		return ErrNotReachable
	}

	data, err := s.codec.EncodeToBytes(msg)
	if err != nil {
		return err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteMessage(websocket.BinaryMessage, data)
}

func (s *WSSession) Events() <-chan Event {
	return s.events
}

func (s *WSSession) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.reachable = false
	conn := s.conn
	s.mu.Unlock()

	if conn != nil {
		return conn.Close()
	}
	return nil
}

func (s *WSSession) readPump(conn *websocket.Conn, gen int) {
	defer s.detach(conn, gen)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Warnf("Peer link read error: %v", err)
			}
			return
		}

		msg, err := s.codec.DecodeFromBytes(data)
		if err != nil {
			s.logger.Warnf("Dropping undecodable frame: %v", err)
			continue
		}

		s.deliver(Event{Kind: EventReceived, Msg: msg})
	}
}

func (s *WSSession) pingLoop(conn *websocket.Conn, gen int) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for range ticker.C {
		s.mu.Lock()
		stale := s.closed || s.gen != gen
		s.mu.Unlock()
		if stale {
			return
		}

		s.writeMu.Lock()
		err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
		s.writeMu.Unlock()
		if err != nil {
			return
		}
	}
}

// detach marks the session unreachable when its current connection dies.
// The gen check keeps a stale pump from clobbering a newer connection.
func (s *WSSession) detach(conn *websocket.Conn, gen int) {
	_ = conn.Close()

	s.mu.Lock()
	if s.gen != gen || s.closed {
		s.mu.Unlock()
		return
	}
	s.conn = nil
	s.reachable = false
	s.mu.Unlock()

	s.deliver(Event{Kind: EventReachability, Reachable: false})
}

func (s *WSSession) deliver(ev Event) {
	select {
	case s.events <- ev:
	default:
		s.logger.Warn("Event channel full, dropping transport event")
	}
}
