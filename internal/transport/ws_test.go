package transport_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/voicebridge/watchlink/internal/protocol"
	"github.com/voicebridge/watchlink/internal/transport"
)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

// startServer runs a websocket endpoint that hands each accepted
// connection to the returned channel as a Session.
func startServer(t *testing.T) (url string, sessions <-chan transport.Session) {
	t.Helper()

	upgrader := websocket.Upgrader{}
	ch := make(chan transport.Session, 1)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade failed: %v", err)
			return
		}
		ch <- transport.Accept(conn, quietLogger())
	}))
	t.Cleanup(server.Close)

	return "ws" + strings.TrimPrefix(server.URL, "http"), ch
}

func waitEvent(t *testing.T, s transport.Session, kind transport.EventKind) transport.Event {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case ev := <-s.Events():
			if ev.Kind == kind {
				return ev
			}
		case <-deadline:
			t.Fatalf("timed out waiting for event kind %d", kind)
			return transport.Event{}
		}
	}
}

func TestWSSessionRoundTrip(t *testing.T) {
	url, sessions := startServer(t)

	watch := transport.Dial(url, quietLogger())
	t.Cleanup(func() { _ = watch.Close() })

	if watch.IsReachable() {
		t.Error("session must not be reachable before Activate")
	}
	if err := watch.Activate(context.Background()); err != nil {
		t.Fatalf("Activate failed: %v", err)
	}

	ev := waitEvent(t, watch, transport.EventReachability)
	if !ev.Reachable {
		t.Fatal("expected reachable event after Activate")
	}

	var phone transport.Session
	select {
	case phone = <-sessions:
	case <-time.After(2 * time.Second):
		t.Fatal("server never accepted the connection")
	}
	t.Cleanup(func() { _ = phone.Close() })

	req := &protocol.TranslationRequest{ID: "req-1", SourceLang: "en", TargetLang: "es", Text: "hello"}
	if err := watch.Send(context.Background(), req); err != nil {
		t.Fatalf("watch send failed: %v", err)
	}

	got := waitEvent(t, phone, transport.EventReceived)
	gotReq, ok := got.Msg.(*protocol.TranslationRequest)
	if !ok {
		t.Fatalf("expected TranslationRequest, got %T", got.Msg)
	}
	if gotReq.Text != "hello" {
		t.Errorf("expected text 'hello', got %q", gotReq.Text)
	}

	res := &protocol.TranslationResponse{RequestID: "req-1", TranslatedText: "hola"}
	if err := phone.Send(context.Background(), res); err != nil {
		t.Fatalf("phone send failed: %v", err)
	}

	reply := waitEvent(t, watch, transport.EventReceived)
	gotRes, ok := reply.Msg.(*protocol.TranslationResponse)
	if !ok {
		t.Fatalf("expected TranslationResponse, got %T", reply.Msg)
	}
	if gotRes.TranslatedText != "hola" {
		t.Errorf("expected translation 'hola', got %q", gotRes.TranslatedText)
	}
}

func TestWSSessionDetachOnPeerClose(t *testing.T) {
	url, sessions := startServer(t)

	watch := transport.Dial(url, quietLogger())
	t.Cleanup(func() { _ = watch.Close() })

	if err := watch.Activate(context.Background()); err != nil {
		t.Fatalf("Activate failed: %v", err)
	}
	waitEvent(t, watch, transport.EventReachability)

	phone := <-sessions
	_ = phone.Close()

	ev := waitEvent(t, watch, transport.EventReachability)
	if ev.Reachable {
		t.Error("expected unreachable event after peer close")
	}
	if watch.IsReachable() {
		t.Error("session must report unreachable after peer close")
	}
}

func TestWSSessionSendBeforeActivate(t *testing.T) {
	watch := transport.Dial("ws://localhost:1/relay", quietLogger())
	t.Cleanup(func() { _ = watch.Close() })

	err := watch.Send(context.Background(), &protocol.HealthProbe{SentAt: 1})
	if err != transport.ErrNotReachable {
		t.Errorf("expected ErrNotReachable, got %v", err)
	}
}
