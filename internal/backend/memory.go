package backend

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryClient is an in-process Client with the same observable semantics as
// the remote backend: inserted rows fan out to matching subscriptions in
// commit order. It backs tests, the seed tooling and the offline demo mode.
type MemoryClient struct {
	mu     sync.RWMutex
	tables map[string][]Record
	subs   map[*memorySubscription]struct{}
}

func NewMemoryClient() *MemoryClient {
	return &MemoryClient{
		tables: make(map[string][]Record),
		subs:   make(map[*memorySubscription]struct{}),
	}
}

func (c *MemoryClient) Query(ctx context.Context, table string, filter Filter, order *Order) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	var out []Record
	for _, rec := range c.tables[table] {
		if filter.Matches(rec) {
			out = append(out, cloneRecord(rec))
		}
	}

	if order != nil {
		col, asc := order.Column, order.Ascending
		sort.SliceStable(out, func(i, j int) bool {
			if asc {
				return lessValue(out[i][col], out[j][col])
			}
			return lessValue(out[j][col], out[i][col])
		})
	}

	return out, nil
}

func (c *MemoryClient) Insert(ctx context.Context, table string, record Record) (Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rec := cloneRecord(record)
	if StringField(rec, "id") == "" && hasIDColumn(table) {
		rec["id"] = uuid.NewString()
	}
	if StringField(rec, "created_at") == "" {
		rec["created_at"] = time.Now().UTC().Format(time.RFC3339Nano)
	}

	c.mu.Lock()
	c.tables[table] = append(c.tables[table], rec)
	// Fan out under the table lock so every feed observes rows in commit
	// order; the channel send stays non-blocking.
	for sub := range c.subs {
		if sub.table == table && sub.filter.Matches(rec) {
			sub.deliver(cloneRecord(rec))
		}
	}
	c.mu.Unlock()

	return cloneRecord(rec), nil
}

func (c *MemoryClient) Subscribe(ctx context.Context, table string, filter Filter) (Subscription, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sub := &memorySubscription{
		client: c,
		table:  table,
		filter: filter,
		ch:     make(chan Record, 256),
	}

	c.mu.Lock()
	c.subs[sub] = struct{}{}
	c.mu.Unlock()

	return sub, nil
}

type memorySubscription struct {
	client *MemoryClient
	table  string
	filter Filter
	ch     chan Record

	mu     sync.Mutex
	closed bool
}

func (s *memorySubscription) Records() <-chan Record { return s.ch }

func (s *memorySubscription) Close() {
	s.client.mu.Lock()
	delete(s.client.subs, s)
	s.client.mu.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.ch)
	}
}

func (s *memorySubscription) deliver(rec Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.ch <- rec:
	default:
		// Subscriber is not draining; dropping mirrors a slow-consumer
		// disconnect on the real channel.
	}
}

func cloneRecord(rec Record) Record {
	out := make(Record, len(rec))
	for k, v := range rec {
		out[k] = v
	}
	return out
}

func hasIDColumn(table string) bool {
	switch table {
	case TableParticipants, TableProfiles, TablePresence, TableTyping:
		return false
	default:
		return true
	}
}

func lessValue(a, b any) bool {
	switch av := a.(type) {
	case string:
		bv, _ := b.(string)
		// Timestamp columns hold RFC3339 strings whose lexical order
		// diverges from time order once fractional seconds appear.
		if at, err := time.Parse(time.RFC3339Nano, av); err == nil {
			if bt, err := time.Parse(time.RFC3339Nano, bv); err == nil {
				return at.Before(bt)
			}
		}
		return av < bv
	case time.Time:
		if bv, ok := b.(time.Time); ok {
			return av.Before(bv)
		}
	case int:
		if bv, ok := b.(int); ok {
			return av < bv
		}
	case int64:
		if bv, ok := b.(int64); ok {
			return av < bv
		}
	case float64:
		if bv, ok := b.(float64); ok {
			return av < bv
		}
	}
	return false
}
