package audit

import (
	"strings"
	"sync"
	"time"

	"github.com/microcosm-cc/bluemonday"

	"github.com/jtiebel/formguard-api/internal/classifier"
)

// DefaultCapacity bounds the log when no explicit capacity is configured.
const DefaultCapacity = 100

const streamBufferSize = 16

// Entry is one archived evaluation. Entries are the only forensic record:
// no raw submission content is persisted, only score and reason labels.
type Entry struct {
	ReferenceID string             `json:"reference_id"`
	Timestamp   time.Time          `json:"timestamp"`
	Verdict     classifier.Verdict `json:"verdict"`
	Score       int                `json:"score"`
	Reasons     []string           `json:"reasons"`
}

// Log is a bounded, newest-first store of evaluation entries. Appends evict
// the oldest entry beyond capacity under a single short-held lock, so the
// buffer can never grow unbounded or drop the newest entry under concurrent
// writers.
type Log struct {
	mu       sync.Mutex
	entries  []Entry
	capacity int

	subMu       sync.RWMutex
	subscribers map[chan Entry]struct{}

	sanitizer *bluemonday.Policy
}

// NewLog creates a bounded log. Non-positive capacities fall back to
// DefaultCapacity.
func NewLog(capacity int) *Log {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Log{
		capacity:    capacity,
		subscribers: make(map[chan Entry]struct{}),
		sanitizer:   bluemonday.StrictPolicy(),
	}
}

// Append archives an entry, evicting the oldest one beyond capacity, and
// fans it out to live subscribers. Reason labels embed fragments of submitted
// text, so they are stripped of markup before storage.
func (l *Log) Append(entry Entry) {
	cleaned := make([]string, len(entry.Reasons))
	for i, reason := range entry.Reasons {
		cleaned[i] = strings.TrimSpace(l.sanitizer.Sanitize(reason))
	}
	entry.Reasons = cleaned

	l.mu.Lock()
	l.entries = append([]Entry{entry}, l.entries...)
	if len(l.entries) > l.capacity {
		l.entries = l.entries[:l.capacity]
	}
	l.mu.Unlock()

	l.broadcast(entry)
}

// Snapshot returns a newest-first copy of the stored entries.
func (l *Log) Snapshot() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()

	entries := make([]Entry, len(l.entries))
	copy(entries, l.entries)
	return entries
}

// Len reports the number of stored entries.
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// Capacity reports the configured bound.
func (l *Log) Capacity() int {
	return l.capacity
}

// Subscribe registers a live feed of appended entries. Slow consumers have
// entries dropped rather than blocking appenders. The returned cancel func
// must be called to release the subscription.
func (l *Log) Subscribe() (<-chan Entry, func()) {
	channel := make(chan Entry, streamBufferSize)

	l.subMu.Lock()
	l.subscribers[channel] = struct{}{}
	l.subMu.Unlock()

	cancel := func() {
		l.subMu.Lock()
		if _, ok := l.subscribers[channel]; ok {
			delete(l.subscribers, channel)
			close(channel)
		}
		l.subMu.Unlock()
	}

	return channel, cancel
}

func (l *Log) broadcast(entry Entry) {
	l.subMu.RLock()
	defer l.subMu.RUnlock()

	for channel := range l.subscribers {
		select {
		case channel <- entry:
		default:
		}
	}
}
