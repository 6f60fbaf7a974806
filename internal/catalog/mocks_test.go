package catalog

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/appetiteclub/storefront/internal/pricing"
)

// MockMenuItemRepo implements MenuItemRepo in memory.
type MockMenuItemRepo struct {
	mu    sync.RWMutex
	items map[uuid.UUID]*MenuItem
	order []uuid.UUID

	CreateFunc func(ctx context.Context, item *MenuItem) error
	ListFunc   func(ctx context.Context) ([]*MenuItem, error)
}

func NewMockMenuItemRepo() *MockMenuItemRepo {
	return &MockMenuItemRepo{
		items: make(map[uuid.UUID]*MenuItem),
	}
}

func (m *MockMenuItemRepo) Create(ctx context.Context, item *MenuItem) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, item)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	item.EnsureID()
	if _, exists := m.items[item.ID]; !exists {
		m.order = append(m.order, item.ID)
	}
	m.items[item.ID] = item
	return nil
}

func (m *MockMenuItemRepo) Get(ctx context.Context, id uuid.UUID) (*MenuItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.items[id], nil
}

func (m *MockMenuItemRepo) GetByShortCode(ctx context.Context, shortCode string) (*MenuItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, id := range m.order {
		if item, ok := m.items[id]; ok && item.ShortCode == shortCode {
			return item, nil
		}
	}
	return nil, nil
}

func (m *MockMenuItemRepo) List(ctx context.Context) ([]*MenuItem, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*MenuItem, 0, len(m.order))
	for _, id := range m.order {
		if item, ok := m.items[id]; ok {
			result = append(result, item)
		}
	}
	return result, nil
}

func (m *MockMenuItemRepo) ListActive(ctx context.Context) ([]*MenuItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*MenuItem
	for _, id := range m.order {
		if item, ok := m.items[id]; ok && item.Active {
			result = append(result, item)
		}
	}
	return result, nil
}

func (m *MockMenuItemRepo) ListByCategory(ctx context.Context, category string) ([]*MenuItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*MenuItem
	for _, id := range m.order {
		if item, ok := m.items[id]; ok && item.Category == category {
			result = append(result, item)
		}
	}
	return result, nil
}

func (m *MockMenuItemRepo) Save(ctx context.Context, item *MenuItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[item.ID] = item
	return nil
}

func (m *MockMenuItemRepo) Delete(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, id)
	return nil
}

// MockCampaignRepo implements pricing.CampaignRepo for decoration tests.
type MockCampaignRepo struct {
	mu        sync.RWMutex
	campaigns map[uuid.UUID]*pricing.Campaign
	order     []uuid.UUID

	ListActiveFunc func(ctx context.Context) ([]*pricing.Campaign, error)
}

func NewMockCampaignRepo() *MockCampaignRepo {
	return &MockCampaignRepo{
		campaigns: make(map[uuid.UUID]*pricing.Campaign),
	}
}

func (m *MockCampaignRepo) Create(ctx context.Context, campaign *pricing.Campaign) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	campaign.EnsureID()
	if _, exists := m.campaigns[campaign.ID]; !exists {
		m.order = append(m.order, campaign.ID)
	}
	m.campaigns[campaign.ID] = campaign
	return nil
}

func (m *MockCampaignRepo) Get(ctx context.Context, id uuid.UUID) (*pricing.Campaign, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.campaigns[id], nil
}

func (m *MockCampaignRepo) List(ctx context.Context) ([]*pricing.Campaign, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*pricing.Campaign, 0, len(m.order))
	for _, id := range m.order {
		if c, ok := m.campaigns[id]; ok {
			result = append(result, c)
		}
	}
	return result, nil
}

func (m *MockCampaignRepo) ListActive(ctx context.Context) ([]*pricing.Campaign, error) {
	if m.ListActiveFunc != nil {
		return m.ListActiveFunc(ctx)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*pricing.Campaign
	for _, id := range m.order {
		if c, ok := m.campaigns[id]; ok && c.IsActive {
			result = append(result, c)
		}
	}
	return result, nil
}

func (m *MockCampaignRepo) Save(ctx context.Context, campaign *pricing.Campaign) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.campaigns[campaign.ID] = campaign
	return nil
}

func (m *MockCampaignRepo) Delete(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.campaigns, id)
	return nil
}
