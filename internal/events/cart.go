package events

import "time"

const (
	CartTopic              = "storefront.cart"
	EventCheckoutCompleted = "cart.checkout.completed"
	EventCouponApplied     = "cart.coupon.applied"
)

// CheckoutLine is a denormalized cart line carried on checkout events
// for the order pipeline.
type CheckoutLine struct {
	LineID     string  `json:"line_id"`
	MenuItemID string  `json:"menu_item_id"`
	Name       string  `json:"name"`
	Category   string  `json:"category"`
	Variant    string  `json:"variant,omitempty"`
	UnitPrice  float64 `json:"unit_price"`
	Quantity   int     `json:"quantity"`
}

// CartCheckoutEvent is published to NATS when a session completes
// checkout. Consumed by the order pipeline.
type CartCheckoutEvent struct {
	EventType      string         `json:"event_type"`
	OccurredAt     time.Time      `json:"occurred_at"`
	SessionID      string         `json:"session_id"`
	Lines          []CheckoutLine `json:"lines"`
	Subtotal       float64        `json:"subtotal"`
	CouponCode     string         `json:"coupon_code,omitempty"`
	CouponDiscount float64        `json:"coupon_discount,omitempty"`
	TotalDue       float64        `json:"total_due"`
}

// CartCouponEvent records a successful coupon redemption against a
// session's cart subtotal.
type CartCouponEvent struct {
	EventType  string    `json:"event_type"`
	OccurredAt time.Time `json:"occurred_at"`
	SessionID  string    `json:"session_id"`
	CouponCode string    `json:"coupon_code"`
	Discount   float64   `json:"discount"`
	Subtotal   float64   `json:"subtotal"`
}
