package catalog

import (
	"time"

	"github.com/appetiteclub/apt"
	"github.com/google/uuid"

	"github.com/appetiteclub/storefront/internal/pricing"
)

// MenuItem is the storefront's flat projection of an offerable product:
// one category key, one base price, optional priced variants. Campaign
// scoping matches on the item id and the category key.
type MenuItem struct {
	ID          uuid.UUID `json:"id" bson:"_id"`
	ShortCode   string    `json:"short_code" bson:"short_code"`
	Name        string    `json:"name" bson:"name"`
	Description string    `json:"description,omitempty" bson:"description,omitempty"`
	Category    string    `json:"category" bson:"category"`
	Price       float64   `json:"price" bson:"price"`
	Variants    []Variant `json:"variants,omitempty" bson:"variants,omitempty"`
	Active      bool      `json:"active" bson:"active"`
	CreatedAt   time.Time `json:"created_at" bson:"created_at"`
	CreatedBy   string    `json:"created_by" bson:"created_by"`
	UpdatedAt   time.Time `json:"updated_at" bson:"updated_at"`
	UpdatedBy   string    `json:"updated_by" bson:"updated_by"`
}

// Variant is a serving option with its own price.
type Variant struct {
	Label string  `json:"label" bson:"label"`
	Price float64 `json:"price" bson:"price"`
}

func (m *MenuItem) GetID() uuid.UUID {
	return m.ID
}

func (m *MenuItem) ResourceType() string {
	return "menu/item"
}

func (m *MenuItem) EnsureID() {
	if m.ID == uuid.Nil {
		m.ID = apt.GenerateNewID()
	}
}

func (m *MenuItem) BeforeCreate() {
	m.EnsureID()
	now := time.Now()
	m.CreatedAt = now
	m.UpdatedAt = now
}

func (m *MenuItem) BeforeUpdate() {
	m.UpdatedAt = time.Now()
}

// PricingRef is the identity the pricing resolver matches campaign
// scopes against.
func (m *MenuItem) PricingRef() pricing.ItemRef {
	return pricing.ItemRef{ID: m.ID.String(), Category: m.Category}
}
