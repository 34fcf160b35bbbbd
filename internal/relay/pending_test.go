package relay

import (
	"testing"
	"time"

	"github.com/voicebridge/watchlink/internal/protocol"
)

func TestPendingResolveOnce(t *testing.T) {
	p := NewPending()
	deadline := time.Unix(2000, 0)

	calls := 0
	p.Register("a1", func(protocol.Message, error) { calls++ }, deadline)

	cb, ok := p.Resolve("a1")
	if !ok {
		t.Fatal("expected to resolve a1")
	}
	cb(nil, nil)

	if _, ok := p.Resolve("a1"); ok {
		t.Error("second resolve for same id must fail")
	}
	if calls != 1 {
		t.Errorf("callback invoked %d times, want 1", calls)
	}
}

func TestPendingUnknownIDIsNoOp(t *testing.T) {
	p := NewPending()
	p.Register("known", func(protocol.Message, error) {}, time.Unix(2000, 0))

	if _, ok := p.Resolve("unknown"); ok {
		t.Error("unknown id must not resolve")
	}
	if !p.Has("known") {
		t.Error("resolving an unknown id must not disturb other entries")
	}
}

func TestPendingExpired(t *testing.T) {
	p := NewPending()
	base := time.Unix(1000, 0)

	p.Register("old", func(protocol.Message, error) {}, base.Add(10*time.Second))
	p.Register("fresh", func(protocol.Message, error) {}, base.Add(60*time.Second))

	ids := p.Expired(base.Add(30 * time.Second))
	if len(ids) != 1 || ids[0] != "old" {
		t.Fatalf("expected only old to expire, got %v", ids)
	}

	if ids := p.Expired(base); len(ids) != 0 {
		t.Errorf("nothing should expire at base time, got %v", ids)
	}
}
