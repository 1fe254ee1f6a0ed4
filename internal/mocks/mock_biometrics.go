package mocks

import (
	"context"

	"github.com/you/bankauth/domain"
)

// MockFaceMatcher implements domain.FaceMatcher for testing
type MockFaceMatcher struct {
	MatchFunc func(ctx context.Context, templateID string, descriptor []byte) (bool, float64, error)
}

// NewMockFaceMatcher creates a new MockFaceMatcher with default behaviors
func NewMockFaceMatcher() *MockFaceMatcher {
	return &MockFaceMatcher{}
}

func (m *MockFaceMatcher) Match(ctx context.Context, templateID string, descriptor []byte) (bool, float64, error) {
	if m.MatchFunc != nil {
		return m.MatchFunc(ctx, templateID, descriptor)
	}
	// Default behavior: confident match
	return true, 0.99, nil
}

// MockVoiceInterpreter implements domain.VoiceInterpreter for testing
type MockVoiceInterpreter struct {
	InterpretFunc func(ctx context.Context, sample []byte) (*domain.VoiceIntent, error)
}

// NewMockVoiceInterpreter creates a new MockVoiceInterpreter with default behaviors
func NewMockVoiceInterpreter() *MockVoiceInterpreter {
	return &MockVoiceInterpreter{}
}

func (m *MockVoiceInterpreter) Interpret(ctx context.Context, sample []byte) (*domain.VoiceIntent, error) {
	if m.InterpretFunc != nil {
		return m.InterpretFunc(ctx, sample)
	}
	return &domain.VoiceIntent{Intent: "authenticate", Confidence: 0.95}, nil
}
