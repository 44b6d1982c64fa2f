// Package pagination implements incremental fetching of page-numbered
// collections.
//
// A Cursor is single-flight: while one fetch is running further FetchNext
// calls return immediately without touching the network. Reset discards the
// collection and any response still in flight.
package pagination

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/whatbmphotos/internal/logging"
)

// Page is one server page. CurrentPage is zero when the endpoint does not
// report it; HasNext is nil when the field was absent.
type Page[T any] struct {
	Items       []T
	CurrentPage int
	HasNext     *bool
}

// FetchFunc loads page number page (1-based).
type FetchFunc[T any] func(ctx context.Context, page int) (Page[T], error)

// State is the cursor triple.
type State struct {
	NextPage int
	HasMore  bool
	Fetching bool
}

func initialState() State {
	return State{NextPage: 1, HasMore: true}
}

type Option func(*options)

type options struct {
	timeout time.Duration
	log     logging.Logger
}

// WithTimeout bounds each fetch so a hung request cannot hold the cursor.
func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

func WithLogger(l logging.Logger) Option {
	return func(o *options) { o.log = l }
}

type Cursor[T any] struct {
	name    string
	fetch   FetchFunc[T]
	timeout time.Duration
	log     logging.Logger

	mu    sync.Mutex
	state State
	items []T
	epoch uint64
}

func New[T any](name string, fetch FetchFunc[T], opts ...Option) *Cursor[T] {
	o := options{log: logging.Nop()}
	for _, opt := range opts {
		opt(&o)
	}
	return &Cursor[T]{
		name:    name,
		fetch:   fetch,
		timeout: o.timeout,
		log:     o.log.With("resource", name),
		state:   initialState(),
	}
}

func (c *Cursor[T]) Name() string {
	return c.name
}

// FetchNext loads the next page and appends it. It reports whether a page
// was applied. It is a no-op returning (false, nil) while another fetch is
// running or after the last page. On error the cursor is left as it was
// apart from releasing the in-flight flag.
func (c *Cursor[T]) FetchNext(ctx context.Context) (bool, error) {
	c.mu.Lock()
	if c.state.Fetching || !c.state.HasMore {
		c.mu.Unlock()
		return false, nil
	}
	c.state.Fetching = true
	page := c.state.NextPage
	epoch := c.epoch
	c.mu.Unlock()

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	start := time.Now()
	p, err := c.fetch(ctx, page)

	c.mu.Lock()
	defer c.mu.Unlock()

	if epoch != c.epoch {
		c.log.Debug(ctx, "discarding page fetched before reset", "page", page)
		return false, nil
	}
	c.state.Fetching = false

	if err != nil {
		c.log.Warn(ctx, "fetch failed", "page", page, "error", err)
		return false, err
	}

	if page == 1 {
		c.items = append([]T(nil), p.Items...)
	} else {
		c.items = append(c.items, p.Items...)
	}
	c.state.HasMore = p.HasNext != nil && *p.HasNext
	if p.CurrentPage > 0 {
		c.state.NextPage = p.CurrentPage + 1
	} else {
		c.state.NextPage = page + 1
	}

	c.log.Debug(ctx, "page fetched", "page", page, "items", len(p.Items),
		"has_more", c.state.HasMore, "dur", time.Since(start))
	return true, nil
}

// Reset returns the cursor to page 1 with an empty collection. A fetch
// running at the time of the call finishes without effect.
func (c *Cursor[T]) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.epoch++
	c.state = initialState()
	c.items = nil
}

func (c *Cursor[T]) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Items returns a copy of the collection.
func (c *Cursor[T]) Items() []T {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]T(nil), c.items...)
}

// Find returns the first item matching pred.
func (c *Cursor[T]) Find(pred func(T) bool) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, it := range c.items {
		if pred(it) {
			return it, true
		}
	}
	var zero T
	return zero, false
}

// Remove drops every item matching pred and returns how many were removed.
// Page bookkeeping is not adjusted.
func (c *Cursor[T]) Remove(pred func(T) bool) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	kept := c.items[:0]
	for _, it := range c.items {
		if !pred(it) {
			kept = append(kept, it)
		}
	}
	n := len(c.items) - len(kept)
	clear(c.items[len(kept):])
	c.items = kept
	return n
}

// Update replaces every item matching pred with fn(item).
func (c *Cursor[T]) Update(pred func(T) bool, fn func(T) T) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for i, it := range c.items {
		if pred(it) {
			c.items[i] = fn(it)
			n++
		}
	}
	return n
}
