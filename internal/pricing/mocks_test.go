package pricing

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// MockCampaignRepo is a mock implementation of CampaignRepo for testing
type MockCampaignRepo struct {
	mu        sync.RWMutex
	campaigns map[uuid.UUID]*Campaign
	order     []uuid.UUID

	CreateFunc     func(ctx context.Context, campaign *Campaign) error
	ListFunc       func(ctx context.Context) ([]*Campaign, error)
	ListActiveFunc func(ctx context.Context) ([]*Campaign, error)
}

func NewMockCampaignRepo() *MockCampaignRepo {
	return &MockCampaignRepo{
		campaigns: make(map[uuid.UUID]*Campaign),
	}
}

func (m *MockCampaignRepo) Create(ctx context.Context, campaign *Campaign) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, campaign)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.campaigns[campaign.ID] = campaign
	m.order = append(m.order, campaign.ID)
	return nil
}

func (m *MockCampaignRepo) Get(ctx context.Context, id uuid.UUID) (*Campaign, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.campaigns[id], nil
}

func (m *MockCampaignRepo) List(ctx context.Context) ([]*Campaign, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*Campaign
	for _, id := range m.order {
		if c, ok := m.campaigns[id]; ok {
			result = append(result, c)
		}
	}
	return result, nil
}

func (m *MockCampaignRepo) ListActive(ctx context.Context) ([]*Campaign, error) {
	if m.ListActiveFunc != nil {
		return m.ListActiveFunc(ctx)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*Campaign
	for _, id := range m.order {
		if c, ok := m.campaigns[id]; ok && c.IsActive {
			result = append(result, c)
		}
	}
	return result, nil
}

func (m *MockCampaignRepo) Save(ctx context.Context, campaign *Campaign) error {
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
