// Package backend talks to the external table/query service that owns all
// durable chat state. The client surface is three operations: Query, Insert
// and Subscribe; everything the application renders is derived from them.
package backend

import "context"

// Record is one row of a backend table, keyed by column name.
type Record map[string]any

// Filter matches rows by column equality. A []string value matches any of
// the listed values (IN semantics).
type Filter map[string]any

// Order describes the sort applied to a Query result.
type Order struct {
	Column    string
	Ascending bool
}

// Subscription is a live feed of rows inserted after the subscription was
// opened, delivered in backend commit order. Close releases the channel;
// Records is closed afterwards (or when the feed drops).
type Subscription interface {
	Records() <-chan Record
	Close()
}

type Client interface {
	Query(ctx context.Context, table string, filter Filter, order *Order) ([]Record, error)
	Insert(ctx context.Context, table string, record Record) (Record, error)
	Subscribe(ctx context.Context, table string, filter Filter) (Subscription, error)
}

// Matches reports whether rec satisfies every condition of the filter.
func (f Filter) Matches(rec Record) bool {
	for col, want := range f {
		got, ok := rec[col]
		if !ok {
			return false
		}
		switch w := want.(type) {
		case []string:
			found := false
			for _, v := range w {
				if got == any(v) {
					found = true
					break
				}
			}
			if !found {
				return false
			}
		default:
			if got != want {
				return false
			}
		}
	}
	return true
}
