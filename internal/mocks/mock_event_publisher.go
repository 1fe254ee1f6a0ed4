package mocks

import (
	"sync"

	"github.com/you/bankauth/domain"
)

// PublishedEvent pairs an event with the account room it targeted
type PublishedEvent struct {
	AccountID uint
	Event     *domain.AccountEvent
}

// MockEventPublisher implements domain.EventPublisher for testing.
// Events are recorded so tests can assert on the stream.
type MockEventPublisher struct {
	PublishFunc func(accountID uint, event *domain.AccountEvent) error

	mu     sync.Mutex
	Events []PublishedEvent
}

// NewMockEventPublisher creates a new MockEventPublisher with default behaviors
func NewMockEventPublisher() *MockEventPublisher {
	return &MockEventPublisher{}
}

func (m *MockEventPublisher) Publish(accountID uint, event *domain.AccountEvent) error {
	if m.PublishFunc != nil {
		return m.PublishFunc(accountID, event)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Events = append(m.Events, PublishedEvent{AccountID: accountID, Event: event})
	return nil
}

// EventTypes returns the recorded event types in publish order
func (m *MockEventPublisher) EventTypes() []domain.AccountEventType {
	m.mu.Lock()
	defer m.mu.Unlock()
	types := make([]domain.AccountEventType, 0, len(m.Events))
	for _, e := range m.Events {
		types = append(types, e.Event.EventType)
	}
	return types
}
