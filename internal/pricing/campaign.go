package pricing

import (
	"time"

	"github.com/appetiteclub/apt"
	"github.com/google/uuid"
)

// DiscountType selects how a campaign reduces a price.
type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage"
	DiscountFixed      DiscountType = "fixed"
)

// TargetType is the breadth of items a campaign applies to.
type TargetType string

const (
	TargetAll      TargetType = "all"
	TargetCategory TargetType = "category"
	TargetItem     TargetType = "item"
)

// Campaign is a stored promotional rule. A campaign with a non-empty
// Code is a coupon: it is never auto-applied during price resolution and
// is only reachable through explicit redemption.
type Campaign struct {
	ID            uuid.UUID    `json:"id" bson:"_id"`
	Name          string       `json:"name" bson:"name"`
	Code          string       `json:"code,omitempty" bson:"code,omitempty"`
	Type          DiscountType `json:"type" bson:"type"`
	DiscountValue float64      `json:"discount_value" bson:"discount_value"`
	TargetType    TargetType   `json:"target_type" bson:"target_type"`
	TargetID      string       `json:"target_id,omitempty" bson:"target_id,omitempty"`
	IsActive      bool         `json:"is_active" bson:"is_active"`
	EndDate       *time.Time   `json:"end_date,omitempty" bson:"end_date,omitempty"`
	CreatedAt     time.Time    `json:"created_at" bson:"created_at"`
	CreatedBy     string       `json:"created_by" bson:"created_by"`
	UpdatedAt     time.Time    `json:"updated_at" bson:"updated_at"`
	UpdatedBy     string       `json:"updated_by" bson:"updated_by"`
}

// ItemRef is the identity and classification a campaign scope is matched
// against. Supplied by the catalog.
type ItemRef struct {
	ID       string `json:"id"`
	Category string `json:"category"`
}

func (c *Campaign) GetID() uuid.UUID {
	return c.ID
}

func (c *Campaign) ResourceType() string {
	return "campaign"
}

func (c *Campaign) EnsureID() {
	if c.ID == uuid.Nil {
		c.ID = apt.GenerateNewID()
	}
}

func (c *Campaign) BeforeCreate() {
	c.EnsureID()
	now := time.Now()
	c.CreatedAt = now
	c.UpdatedAt = now
}

func (c *Campaign) BeforeUpdate() {
	c.UpdatedAt = time.Now()
}

// EligibleAt reports whether the campaign is currently in effect: active
// and either open-ended or with an end date strictly in the future.
// Campaigns have no start date; activation makes them effective at once.
func (c *Campaign) EligibleAt(now time.Time) bool {
	if !c.IsActive {
		return false
	}
	if c.EndDate == nil {
		return true
	}
	return c.EndDate.After(now)
}

// AutoApplicable reports whether the campaign participates in automatic
// price resolution. Coupon-gated campaigns do not.
func (c *Campaign) AutoApplicable() bool {
	return c.Code == ""
}

// Matches reports whether the campaign scope covers the given item.
func (c *Campaign) Matches(ref ItemRef) bool {
	switch c.TargetType {
	case TargetAll:
		return true
	case TargetCategory:
		return c.TargetID == ref.Category
	case TargetItem:
		return c.TargetID == ref.ID
	default:
		return false
	}
}

// specificity orders scopes narrowest first: item, then category, then all.
func (c *Campaign) specificity() int {
	switch c.TargetType {
	case TargetItem:
		return 0
	case TargetCategory:
		return 1
	default:
		return 2
	}
}
