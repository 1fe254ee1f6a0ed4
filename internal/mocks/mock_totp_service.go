package mocks

// MockTOTPService implements domain.TOTPService for testing
type MockTOTPService struct {
	GenerateSecretFunc func(accountEmail string) (string, string, error)
	ValidateFunc       func(secret, code string) bool
}

// NewMockTOTPService creates a new MockTOTPService with default behaviors
func NewMockTOTPService() *MockTOTPService {
	return &MockTOTPService{}
}

func (m *MockTOTPService) GenerateSecret(accountEmail string) (string, string, error) {
	if m.GenerateSecretFunc != nil {
		return m.GenerateSecretFunc(accountEmail)
	}
	return "MOCKSECRET", "otpauth://totp/mock:" + accountEmail + "?secret=MOCKSECRET", nil
}

func (m *MockTOTPService) Validate(secret, code string) bool {
	if m.ValidateFunc != nil {
		return m.ValidateFunc(secret, code)
	}
	return code == "123456"
}
