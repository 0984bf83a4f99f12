// Package catalog fetches and caches the sweet collection.
package catalog

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/adesaini/sweetshop-client/internal/model"
)

// API is the read side of the backend client the catalog needs.
type API interface {
	ListSweets(ctx context.Context) ([]model.Sweet, error)
	SearchSweets(ctx context.Context, f model.SearchFilter) ([]model.Sweet, error)
}

// Catalog holds the last successful fetch or search result. Every call gets
// a sequence number; a resolution is applied only if no newer call has been
// issued since, so a slow response can never overwrite a newer one.
type Catalog struct {
	mu       sync.Mutex
	api      API
	log      *zap.Logger
	items    []model.Sweet
	inFlight int
	errMsg   string
	seq      uint64
}

// New constructs a Catalog over the given API.
func New(api API, log *zap.Logger) *Catalog {
	if log == nil {
		log = zap.NewNop()
	}
	return &Catalog{api: api, log: log}
}

// LoadAll fetches the entire collection, replacing the cached copy on
// success. On failure the prior items are retained and Err reports a short
// message.
func (c *Catalog) LoadAll(ctx context.Context) error {
	seq := c.begin()
	items, err := c.api.ListSweets(ctx)
	return c.finish(seq, items, err, "failed to load sweets")
}

// Search fetches the subset matching the filter, under the same loading and
// error contract as LoadAll.
func (c *Catalog) Search(ctx context.Context, f model.SearchFilter) error {
	seq := c.begin()
	items, err := c.api.SearchSweets(ctx, f)
	return c.finish(seq, items, err, "search failed")
}

// Items returns a copy of the current collection.
func (c *Catalog) Items() []model.Sweet {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]model.Sweet(nil), c.items...)
}

// Loading reports whether any request is still in flight.
func (c *Catalog) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inFlight > 0
}

// Err returns the message of the most recent failed fetch, or "".
func (c *Catalog) Err() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.errMsg
}

func (c *Catalog) begin() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	c.inFlight++
	c.errMsg = ""
	return c.seq
}

// finish applies a resolution unless a newer request superseded it; stale
// results and stale errors are both dropped.
func (c *Catalog) finish(seq uint64, items []model.Sweet, err error, msg string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.inFlight--
	if seq != c.seq {
		c.log.Debug("discarding superseded response", zap.Uint64("seq", seq), zap.Uint64("latest", c.seq))
		return nil
	}
	if err != nil {
		c.errMsg = msg
		c.log.Warn(msg, zap.Error(err))
		return fmt.Errorf("%s: %w", msg, err)
	}
	c.items = items
	return nil
}
