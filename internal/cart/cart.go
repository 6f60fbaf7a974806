package cart

import (
	"context"
	"encoding/json"

	"github.com/appetiteclub/apt"
)

// Cart is a single session's cart aggregate: an insertion-ordered
// collection of line items plus an open/closed display flag. Every
// mutation of the collection writes a snapshot through the injected
// Store. The aggregate is not safe for concurrent use; each session owns
// exactly one cart and callers serialize access.
type Cart struct {
	items  []*LineItem
	open   bool
	store  Store
	logger apt.Logger
}

// Candidate is an item as handed over by the storefront for adding. The
// price fields carry the resolver's output at call time.
type Candidate struct {
	MenuItemID string  `json:"menu_item_id"`
	Name       string  `json:"name"`
	Category   string  `json:"category"`
	Variant    string  `json:"variant,omitempty"`
	Price      string  `json:"price"`
	BasePrice  float64 `json:"base_price"`
}

// New builds a cart backed by the given store, rehydrating a prior
// snapshot when one exists. A missing, unreadable or corrupt snapshot
// silently yields an empty cart.
func New(ctx context.Context, store Store, logger apt.Logger) *Cart {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	c := &Cart{store: store, logger: logger}

	if store == nil {
		return c
	}

	snapshot, err := store.Load(ctx)
	if err != nil {
		logger.Debug("cart snapshot load failed, starting empty", "error", err)
		return c
	}
	if len(snapshot) == 0 {
		return c
	}

	var items []*LineItem
	if err := json.Unmarshal(snapshot, &items); err != nil {
		logger.Debug("cart snapshot unreadable, starting empty", "error", err)
		return c
	}
	c.items = items
	return c
}

// AddItem merges a candidate into the cart. Re-adding an existing
// identity increments its quantity and leaves the captured prices
// untouched; only a fresh add records the resolver's current output.
// Adding also opens the cart for display.
func (c *Cart) AddItem(ctx context.Context, candidate Candidate) *LineItem {
	id := LineItemID(candidate.MenuItemID, candidate.Variant)

	if existing := c.find(id); existing != nil {
		existing.Quantity++
		c.open = true
		c.persist(ctx)
		return existing
	}

	item := &LineItem{
		ID:         id,
		MenuItemID: candidate.MenuItemID,
		Name:       candidate.Name,
		Category:   candidate.Category,
		Variant:    candidate.Variant,
		Price:      candidate.Price,
		BasePrice:  candidate.BasePrice,
		Quantity:   1,
	}
	c.items = append(c.items, item)
	c.open = true
	c.persist(ctx)
	return item
}

// RemoveItem deletes the line item with the given identity. Removing an
// absent identity is a no-op.
func (c *Cart) RemoveItem(ctx context.Context, id string) {
	for i, item := range c.items {
		if item.ID == id {
			c.items = append(c.items[:i], c.items[i+1:]...)
			c.persist(ctx)
			return
		}
	}
}

// UpdateQuantity adjusts a line item's quantity by delta, floored at
// zero. A quantity that reaches zero removes the item; it is never kept
// at zero. Unknown identities are a no-op.
func (c *Cart) UpdateQuantity(ctx context.Context, id string, delta int) {
	for i, item := range c.items {
		if item.ID != id {
			continue
		}
		quantity := item.Quantity + delta
		if quantity <= 0 {
			c.items = append(c.items[:i], c.items[i+1:]...)
		} else {
			item.Quantity = quantity
		}
		c.persist(ctx)
		return
	}
}

// Clear empties the cart unconditionally.
func (c *Cart) Clear(ctx context.Context) {
	c.items = nil
	c.persist(ctx)
}

// ToggleOpen flips the display flag and returns the new state. Pure UI
// state: it does not touch the collection or the snapshot.
func (c *Cart) ToggleOpen() bool {
	c.open = !c.open
	return c.open
}

func (c *Cart) IsOpen() bool {
	return c.open
}

// Items returns a copy of the line items in insertion order.
func (c *Cart) Items() []LineItem {
	out := make([]LineItem, 0, len(c.items))
	for _, item := range c.items {
		out = append(out, *item)
	}
	return out
}

// Total recomputes the cart total from the captured unit prices. It is
// never re-resolved against the current campaign set, so totals reflect
// prices at time of add.
func (c *Cart) Total() float64 {
	var total float64
	for _, item := range c.items {
		total += item.Subtotal()
	}
	return total
}

func (c *Cart) Len() int {
	return len(c.items)
}

func (c *Cart) find(id string) *LineItem {
	for _, item := range c.items {
		if item.ID == id {
			return item
		}
	}
	return nil
}

// persist writes the serialized collection through the store. Failures
// are logged and never surfaced to the mutating caller.
func (c *Cart) persist(ctx context.Context) {
	if c.store == nil {
		return
	}
	items := c.items
	if items == nil {
		items = []*LineItem{}
	}
	snapshot, err := json.Marshal(items)
	if err != nil {
		c.logger.Error("cannot serialize cart snapshot", "error", err)
		return
	}
	if err := c.store.Save(ctx, snapshot); err != nil {
		c.logger.Error("cannot persist cart snapshot", "error", err)
	}
}
