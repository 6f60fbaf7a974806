package cart

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/appetiteclub/storefront/internal/pricing"
)

// MockCampaignRepo implements pricing.CampaignRepo for handler tests.
type MockCampaignRepo struct {
	mu        sync.RWMutex
	campaigns map[uuid.UUID]*pricing.Campaign
	order     []uuid.UUID

	ListFunc func(ctx context.Context) ([]*pricing.Campaign, error)
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
	if m.ListFunc != nil {
		return m.ListFunc(ctx)
	}
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

// MockPublisher captures published messages for assertions.
type MockPublisher struct {
	mu       sync.Mutex
	Messages []PublishedMessage

	PublishFunc func(ctx context.Context, topic string, msg []byte) error
}

type PublishedMessage struct {
	Topic   string
	Payload []byte
}

func (m *MockPublisher) Publish(ctx context.Context, topic string, msg []byte) error {
	if m.PublishFunc != nil {
		return m.PublishFunc(ctx, topic, msg)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Messages = append(m.Messages, PublishedMessage{Topic: topic, Payload: msg})
	return nil
}

func (m *MockPublisher) Published() []PublishedMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]PublishedMessage, len(m.Messages))
	copy(out, m.Messages)
	return out
}

// failingStore simulates a broken snapshot backend.
type failingStore struct {
	loadErr error
	saveErr error
	data    []byte
}

func (s *failingStore) Load(ctx context.Context) ([]byte, error) {
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	return s.data, nil
}

func (s *failingStore) Save(ctx context.Context, snapshot []byte) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.data = snapshot
	return nil
}

var errStoreDown = errors.New("snapshot store unavailable")
