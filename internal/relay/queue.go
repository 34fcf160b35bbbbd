package relay

import (
	"time"

	"github.com/voicebridge/watchlink/internal/protocol"
)

// QueuedMessage is one outbound message waiting for dispatch. The ID and
// retry count survive re-enqueues, so the peer may legitimately see the
// same ID twice; duplicate detection happens at the correlator.
type QueuedMessage struct {
	ID          string
	Kind        protocol.MessageType
	Msg         protocol.Message
	EnqueuedAt  time.Time
	NextAttempt time.Time
	RetryCount  int
	MaxRetries  int
}

// Queue buffers outbound messages while the peer is unreachable and
// schedules retries with a strictly increasing delay. Owned exclusively
// by the manager loop; not safe for concurrent use.
type Queue struct {
	items      []*QueuedMessage
	batch      int
	retryDelay time.Duration
}

func NewQueue(batch int, retryDelay time.Duration) *Queue {
	return &Queue{batch: batch, retryDelay: retryDelay}
}

func (q *Queue) Enqueue(m *QueuedMessage) {
	q.items = append(q.items, m)
}

// Drain removes and returns up to one batch of messages whose retry delay
// has elapsed, preserving their relative order. Messages still backing
// off stay in place.
func (q *Queue) Drain(now time.Time) []*QueuedMessage {
	var ready []*QueuedMessage
	var rest []*QueuedMessage

	for i, m := range q.items {
		if len(ready) == q.batch {
			rest = append(rest, q.items[i:]...)
			break
		}
		if m.NextAttempt.After(now) {
			rest = append(rest, m)
			continue
		}
		ready = append(ready, m)
	}

	q.items = rest
	return ready
}

// RetryOrFail re-enqueues m with an increased retry count and a delay
// proportional to it, or reports false once the retry budget is spent.
// The delay grows with every attempt so repeated failures back off
// instead of hammering a struggling channel.
func (q *Queue) RetryOrFail(m *QueuedMessage, now time.Time) bool {
	if m.RetryCount >= m.MaxRetries {
		return false
	}
	m.RetryCount++
	m.NextAttempt = now.Add(time.Duration(m.RetryCount) * q.retryDelay)
	q.items = append(q.items, m)
	return true
}

func (q *Queue) Remove(id string) *QueuedMessage {
	for i, m := range q.items {
		if m.ID == id {
			q.items = append(q.items[:i], q.items[i+1:]...)
			return m
		}
	}
	return nil
}

func (q *Queue) Clear() []*QueuedMessage {
	cleared := q.items
	q.items = nil
	return cleared
}

func (q *Queue) Len() int {
	return len(q.items)
}
