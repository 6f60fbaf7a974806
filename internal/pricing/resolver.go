package pricing

import (
	"errors"
	"math"
	"sort"
	"strings"
	"time"
)

// ErrInvalidCoupon is returned when a coupon code does not match any
// active campaign. It is a user-correctable input error, not a fault.
var ErrInvalidCoupon = errors.New("coupon is invalid or expired")

// Quote is the outcome of automatic price resolution. Original retains
// full precision; Discounted is rounded to the nearest currency unit.
// Applied is nil when no campaign matched.
type Quote struct {
	Original   float64   `json:"original"`
	Discounted float64   `json:"discounted"`
	Applied    *Campaign `json:"applied_campaign"`
}

// RawQuote mirrors Quote for prices taken as they arrive off the wire.
// When the base price does not parse both fields echo the input back
// unchanged and Applied is nil.
type RawQuote struct {
	Original   any       `json:"original"`
	Discounted any       `json:"discounted"`
	Applied    *Campaign `json:"applied_campaign"`
}

// CouponResult is the outcome of a successful coupon redemption.
// Discount is rounded to the nearest currency unit. A fixed-amount
// discount is not clamped to the total; callers clamp the balance due.
type CouponResult struct {
	Discount float64   `json:"discount_amount"`
	Coupon   *Campaign `json:"coupon"`
}

// ResolveEffectivePrice computes the effective unit price of an item
// under the given campaigns at the given instant. Coupon-gated campaigns
// never participate. Among eligible candidates the narrowest scope wins
// (item, then category, then all); equally specific candidates are
// ordered by campaign id so the winner does not depend on list order.
func ResolveEffectivePrice(base float64, ref ItemRef, campaigns []Campaign, now time.Time) Quote {
	quote := Quote{Original: base, Discounted: base}

	candidates := make([]Campaign, 0, len(campaigns))
	for _, c := range campaigns {
		if c.AutoApplicable() && c.EligibleAt(now) {
			candidates = append(candidates, c)
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		si, sj := candidates[i].specificity(), candidates[j].specificity()
		if si != sj {
			return si < sj
		}
		return candidates[i].ID.String() < candidates[j].ID.String()
	})

	for i := range candidates {
		if candidates[i].Matches(ref) {
			applied := candidates[i]
			quote.Applied = &applied
			quote.Discounted = applied.discount(base)
			break
		}
	}

	return quote
}

// ResolveRawPrice resolves a price that may arrive as a formatted
// currency string. Malformed input degrades to "no discount": the raw
// value is echoed back untouched for both fields.
func ResolveRawPrice(base any, ref ItemRef, campaigns []Campaign, now time.Time) RawQuote {
	amount, ok := ParseAmount(base)
	if !ok {
		return RawQuote{Original: base, Discounted: base}
	}
	q := ResolveEffectivePrice(amount, ref, campaigns, now)
	return RawQuote{Original: q.Original, Discounted: q.Discounted, Applied: q.Applied}
}

// ApplyCoupon redeems a coupon code against an order total. Matching is
// case-insensitive and considers only active campaigns; the end date is
// deliberately not checked here, so a coupon keeps redeeming past its
// auto-apply window for as long as it stays active.
func ApplyCoupon(total float64, code string, campaigns []Campaign) (CouponResult, error) {
	if code == "" {
		return CouponResult{}, ErrInvalidCoupon
	}

	for i := range campaigns {
		c := campaigns[i]
		if c.Code == "" || !c.IsActive {
			continue
		}
		if !strings.EqualFold(c.Code, code) {
			continue
		}

		var amount float64
		switch c.Type {
		case DiscountPercentage:
			amount = total * c.DiscountValue / 100
		case DiscountFixed:
			amount = c.DiscountValue
		default:
			continue
		}
		return CouponResult{Discount: math.Round(amount), Coupon: &c}, nil
	}

	return CouponResult{}, ErrInvalidCoupon
}

// discount applies the campaign formula to a base price. Fixed discounts
// never push the price below zero. The result is rounded to the nearest
// currency unit.
func (c *Campaign) discount(base float64) float64 {
	var result float64
	switch c.Type {
	case DiscountPercentage:
		result = base - base*c.DiscountValue/100
	case DiscountFixed:
		result = math.Max(0, base-c.DiscountValue)
	default:
		return base
	}
	return math.Round(result)
}
