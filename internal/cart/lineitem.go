package cart

import (
	"strconv"
	"strings"
)

// LineItem is a single priced, quantified entry in a cart. Price holds
// the effective unit price exactly as captured at add time, which may be
// a formatted currency string; BasePrice keeps the undiscounted unit
// price for display. Quantity is always at least 1 while the item is in
// the cart.
type LineItem struct {
	ID         string  `json:"id" bson:"id"`
	MenuItemID string  `json:"menu_item_id" bson:"menu_item_id"`
	Name       string  `json:"name" bson:"name"`
	Category   string  `json:"category" bson:"category"`
	Variant    string  `json:"variant,omitempty" bson:"variant,omitempty"`
	Price      string  `json:"price" bson:"price"`
	BasePrice  float64 `json:"base_price" bson:"base_price"`
	Quantity   int     `json:"quantity" bson:"quantity"`
}

// LineItemID derives cart identity from a menu item and an optional
// variant label. At most one line item per identity exists in a cart.
func LineItemID(menuItemID, variant string) string {
	if variant == "" {
		return menuItemID
	}
	return menuItemID + "-" + variant
}

// UnitPrice coerces the captured price into a whole currency amount by
// dropping every non-digit rune, so a formatted string and a bare number
// resolve to the same value. Unparseable prices count as zero.
func (li *LineItem) UnitPrice() float64 {
	var b strings.Builder
	for _, r := range li.Price {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return 0
	}
	n, err := strconv.ParseInt(b.String(), 10, 64)
	if err != nil {
		return 0
	}
	return float64(n)
}

// Subtotal is the line's contribution to the cart total.
func (li *LineItem) Subtotal() float64 {
	return li.UnitPrice() * float64(li.Quantity)
}
