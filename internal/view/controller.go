// Package view derives the rendered catalog state: the sorted visible list,
// the active sort and view mode, role-gated item actions, and notices.
package view

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"

	"github.com/adesaini/sweetshop-client/internal/model"
)

// successNoticeTTL is how long a success banner stays up on its own.
const successNoticeTTL = 3 * time.Second

// Defaults applied when a caller supplies no explicit quantity.
const (
	DefaultRestockQty  = 10
	DefaultPurchaseQty = 1
)

// API is the mutating side of the backend client the controller drives.
type API interface {
	CreateSweet(ctx context.Context, in model.SweetInput) (model.Sweet, error)
	UpdateSweet(ctx context.Context, id int64, in model.SweetInput) (model.Sweet, error)
	DeleteSweet(ctx context.Context, id int64) error
	RestockSweet(ctx context.Context, id, qty int64) (model.Sweet, error)
	PurchaseSweet(ctx context.Context, id, qty int64) (model.Sweet, error)
}

// Source provides the items the controller derives its view from and the
// reload performed after each successful mutation.
type Source interface {
	Items() []model.Sweet
	LoadAll(ctx context.Context) error
}

// Controller holds the presentation state of the catalog page. The visible
// list is always a pure function of the source items and the sort spec.
type Controller struct {
	mu        sync.Mutex
	api       API
	source    Source
	sort      model.SortSpec
	mode      model.ViewMode
	notice    *Notice
	noticeTTL time.Duration
	log       *zap.Logger
}

// New constructs a Controller with the default sort (name ascending) and
// grid view.
func New(api API, source Source, log *zap.Logger) *Controller {
	if log == nil {
		log = zap.NewNop()
	}
	return &Controller{
		api:       api,
		source:    source,
		sort:      model.DefaultSort(),
		mode:      model.ViewGrid,
		noticeTTL: successNoticeTTL,
		log:       log,
	}
}

// Visible returns the source items ordered by the active sort.
func (c *Controller) Visible() []model.Sweet {
	c.mu.Lock()
	spec := c.sort
	c.mu.Unlock()

	items := c.source.Items()
	SortSweets(items, spec)
	return items
}

// SortSweets stable-sorts items in place. Price and quantity compare
// numerically, name and category as case-sensitive strings. Descending
// flips the comparison, never the slice, so ties keep their fetched order
// in both directions.
func SortSweets(items []model.Sweet, spec model.SortSpec) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if spec.Desc {
			a, b = b, a
		}
		switch spec.Key {
		case model.SortByPrice:
			return a.Price < b.Price
		case model.SortByQuantity:
			return a.Quantity < b.Quantity
		case model.SortByCategory:
			return a.Category < b.Category
		default:
			return a.Name < b.Name
		}
	})
}

// ClickSort applies the header-click rule: the active key flips direction,
// a new key starts ascending. Unknown keys are ignored.
func (c *Controller) ClickSort(key model.SortKey) model.SortSpec {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !model.ValidSortKey(key) {
		return c.sort
	}
	if c.sort.Key == key {
		c.sort.Desc = !c.sort.Desc
	} else {
		c.sort = model.SortSpec{Key: key}
	}
	return c.sort
}

// Sort returns the active sort spec.
func (c *Controller) Sort() model.SortSpec {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sort
}

// SetSort replaces the sort spec outright (CLI flags, deep links).
func (c *Controller) SetSort(spec model.SortSpec) {
	if !model.ValidSortKey(spec.Key) {
		spec.Key = model.SortByName
	}
	c.mu.Lock()
	c.sort = spec
	c.mu.Unlock()
}

// Mode returns the active view mode.
func (c *Controller) Mode() model.ViewMode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

// SetViewMode switches between grid and list rendering.
func (c *Controller) SetViewMode(m model.ViewMode) {
	if !model.ValidViewMode(m) {
		return
	}
	c.mu.Lock()
	c.mode = m
	c.mu.Unlock()
}

// Create adds a sweet, then reloads the catalog on success.
func (c *Controller) Create(ctx context.Context, in model.SweetInput) error {
	_, err := c.api.CreateSweet(ctx, in)
	return c.after(ctx, err, "Sweet created successfully!", "Failed to create sweet")
}

// Update edits a sweet, then reloads the catalog on success.
func (c *Controller) Update(ctx context.Context, id int64, in model.SweetInput) error {
	_, err := c.api.UpdateSweet(ctx, id, in)
	return c.after(ctx, err, "Sweet updated successfully!", "Failed to update sweet")
}

// Delete removes a sweet, then reloads the catalog on success.
func (c *Controller) Delete(ctx context.Context, id int64) error {
	err := c.api.DeleteSweet(ctx, id)
	return c.after(ctx, err, "Sweet deleted successfully!", "Failed to delete sweet")
}

// Restock increases stock; qty <= 0 means the default of 10 units.
func (c *Controller) Restock(ctx context.Context, id, qty int64) error {
	if qty <= 0 {
		qty = DefaultRestockQty
	}
	_, err := c.api.RestockSweet(ctx, id, qty)
	return c.after(ctx, err, "Sweet restocked successfully!", "Failed to restock sweet")
}

// Purchase decreases stock; qty <= 0 means the default of 1 unit.
func (c *Controller) Purchase(ctx context.Context, id, qty int64) error {
	if qty <= 0 {
		qty = DefaultPurchaseQty
	}
	_, err := c.api.PurchaseSweet(ctx, id, qty)
	return c.after(ctx, err, "Purchase successful!", "Failed to purchase sweet")
}

// after applies the shared mutation protocol: success raises a transient
// notice and triggers a full reload; failure raises a persistent notice and
// leaves the cached items alone.
func (c *Controller) after(ctx context.Context, err error, okMsg, failMsg string) error {
	if err != nil {
		c.setNotice(NoticeError, failMsg)
		c.log.Warn(failMsg, zap.Error(err))
		return err
	}
	c.setNotice(NoticeSuccess, okMsg)
	return c.source.LoadAll(ctx)
}

// Notice returns a copy of the active banner, or nil.
func (c *Controller) Notice() *Notice {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.notice == nil {
		return nil
	}
	n := *c.notice
	return &n
}

// Dismiss clears the current banner.
func (c *Controller) Dismiss() {
	c.mu.Lock()
	c.notice = nil
	c.mu.Unlock()
}

func (c *Controller) setNotice(kind NoticeKind, text string) {
	id, _ := uuid.NewV4()
	n := &Notice{ID: id, Kind: kind, Text: text}

	c.mu.Lock()
	ttl := c.noticeTTL
	c.notice = n
	c.mu.Unlock()

	if kind == NoticeSuccess {
		time.AfterFunc(ttl, func() { c.expire(id) })
	}
}

// expire clears a success banner after its TTL unless something newer
// replaced it.
func (c *Controller) expire(id uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.notice != nil && c.notice.ID == id {
		c.notice = nil
	}
}
