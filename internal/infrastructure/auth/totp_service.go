package auth

import (
	"fmt"

	"github.com/pquerna/otp/totp"
	"github.com/you/bankauth/domain"
)

// TOTPServiceImpl implements domain.TOTPService for authenticator-app
// enrollment. The secret stays staged until the enrollment round-trip
// confirms the user's authenticator produces valid codes.
type TOTPServiceImpl struct {
	issuer string
}

// NewTOTPService creates a new TOTP service
func NewTOTPService(issuer string) domain.TOTPService {
	return &TOTPServiceImpl{issuer: issuer}
}

// GenerateSecret implements domain.TOTPService
func (s *TOTPServiceImpl) GenerateSecret(accountEmail string) (string, string, error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      s.issuer,
		AccountName: accountEmail,
	})
	if err != nil {
		return "", "", fmt.Errorf("failed to generate TOTP key: %w", err)
	}

	return key.Secret(), key.URL(), nil
}

// Validate implements domain.TOTPService
func (s *TOTPServiceImpl) Validate(secret, code string) bool {
	return totp.Validate(code, secret)
}
