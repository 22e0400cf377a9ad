package realtime

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"
)

var ErrFeedClosed = errors.New("change feed closed")

// Change reports that a row of Table was inserted, updated or deleted.
type Change struct {
	Table string    `json:"table"`
	Op    string    `json:"op,omitempty"`
	At    time.Time `json:"at,omitempty"`
}

// Feed delivers change notifications keyed by table name. The returned
// channel is closed when ctx ends or the feed is closed.
type Feed interface {
	Subscribe(ctx context.Context, tables ...string) (<-chan Change, error)
	Close() error
}

const subscriberBuffer = 64

type subscriber struct {
	tables []string
	ch     chan Change
}

func (s *subscriber) wants(table string) bool {
	return len(s.tables) == 0 || slices.Contains(s.tables, table)
}

// fanout is the subscriber registry shared by every Feed implementation.
// Delivery never blocks: a full subscriber misses the change, which is
// harmless because any later change triggers the same full refresh.
type fanout struct {
	mu     sync.Mutex
	subs   map[*subscriber]struct{}
	closed bool
}

func newFanout() *fanout {
	return &fanout{subs: make(map[*subscriber]struct{})}
}

func (f *fanout) add(ctx context.Context, tables []string) (<-chan Change, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return nil, ErrFeedClosed
	}

	sub := &subscriber{tables: tables, ch: make(chan Change, subscriberBuffer)}
	f.subs[sub] = struct{}{}

	go func() {
		<-ctx.Done()
		f.remove(sub)
	}()

	return sub.ch, nil
}

func (f *fanout) remove(sub *subscriber) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.subs[sub]; ok {
		delete(f.subs, sub)
		close(sub.ch)
	}
}

func (f *fanout) publish(c Change) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	delivered := 0
	for sub := range f.subs {
		if !sub.wants(c.Table) {
			continue
		}
		select {
		case sub.ch <- c:
			delivered++
		default:
		}
	}
	return delivered
}

func (f *fanout) close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	f.closed = true
	for sub := range f.subs {
		delete(f.subs, sub)
		close(sub.ch)
	}
}

// MemoryFeed is an in-process feed. It backs the CSV data source, where
// nothing external produces notifications, and tests.
type MemoryFeed struct {
	fanout *fanout
}

func NewMemoryFeed() *MemoryFeed {
	return &MemoryFeed{fanout: newFanout()}
}

func (m *MemoryFeed) Subscribe(ctx context.Context, tables ...string) (<-chan Change, error) {
	return m.fanout.add(ctx, tables)
}

// Publish delivers c to every interested subscriber and reports how many
// received it.
func (m *MemoryFeed) Publish(c Change) int {
	if c.At.IsZero() {
		c.At = time.Now()
	}
	return m.fanout.publish(c)
}

func (m *MemoryFeed) Close() error {
	m.fanout.close()
	return nil
}
