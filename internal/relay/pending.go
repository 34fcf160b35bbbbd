package relay

import (
	"time"

	"github.com/voicebridge/watchlink/internal/protocol"
)

// Callback receives the terminal outcome of a relayed message: the peer's
// response message, or an error. Resolve hands a callback out at most
// once, which is what makes the exactly-once completion contract hold
// across retries, timeouts, and duplicate deliveries.
type Callback func(msg protocol.Message, err error)

type pendingEntry struct {
	cb       Callback
	deadline time.Time
}

// Pending maps in-flight request IDs to their single-use callbacks. Owned
// exclusively by the manager loop; not safe for concurrent use.
type Pending struct {
	entries map[string]pendingEntry
}

func NewPending() *Pending {
	return &Pending{entries: make(map[string]pendingEntry)}
}

func (p *Pending) Register(id string, cb Callback, deadline time.Time) {
	p.entries[id] = pendingEntry{cb: cb, deadline: deadline}
}

// Resolve removes and returns the callback for id. A second call for the
// same id reports false, so late or duplicate responses become no-ops.
func (p *Pending) Resolve(id string) (Callback, bool) {
	entry, ok := p.entries[id]
	if !ok {
		return nil, false
	}
	delete(p.entries, id)
	return entry.cb, true
}

func (p *Pending) Has(id string) bool {
	_, ok := p.entries[id]
	return ok
}

// Expired returns the ids whose deadline has passed. Callers resolve each
// id themselves so the callback still fires exactly once.
func (p *Pending) Expired(now time.Time) []string {
	var ids []string
	for id, entry := range p.entries {
		if now.After(entry.deadline) {
			ids = append(ids, id)
		}
	}
	return ids
}

func (p *Pending) Len() int {
	return len(p.entries)
}
