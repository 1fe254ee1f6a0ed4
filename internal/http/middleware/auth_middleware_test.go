package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/you/bankauth/domain"
	"github.com/you/bankauth/internal/mocks"
)

func runAuthMiddleware(t *testing.T, tokenSvc domain.TokenService, sessions domain.SessionRegistry, authHeader string) (*httptest.ResponseRecorder, *gin.Context) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	if authHeader != "" {
		c.Request.Header.Set("Authorization", authHeader)
	}

	AuthMiddleware(tokenSvc, sessions)(c)
	return w, c
}

func liveSessionRegistry(accountID uint) *mocks.MockSessionRegistry {
	sessions := mocks.NewMockSessionRegistry()
	sessions.FindByIDFunc = func(ctx context.Context, sessionID string) (*domain.Session, error) {
		return &domain.Session{ID: sessionID, AccountID: accountID}, nil
	}
	return sessions
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	tokenSvc := mocks.NewMockTokenService()
	sessions := liveSessionRegistry(1)

	touched := false
	sessions.TouchFunc = func(ctx context.Context, sessionID string) error {
		touched = true
		return nil
	}

	w, c := runAuthMiddleware(t, tokenSvc, sessions, "Bearer good-token")

	if w.Code == http.StatusUnauthorized {
		t.Fatalf("expected pass-through, got 401: %s", w.Body.String())
	}
	if got, _ := c.Get("account_id"); got != "1" {
		t.Errorf("account_id = %v, want \"1\"", got)
	}
	if got, _ := c.Get("account_role"); got != "customer" {
		t.Errorf("account_role = %v, want customer", got)
	}
	if got, _ := c.Get("session_id"); got != "mock_session" {
		t.Errorf("session_id = %v, want mock_session", got)
	}
	if !touched {
		t.Error("expected session activity to be recorded")
	}
}

func TestAuthMiddleware_Rejections(t *testing.T) {
	tests := []struct {
		name       string
		header     string
		setupMocks func(*mocks.MockTokenService, *mocks.MockSessionRegistry)
	}{
		{
			name:   "missing header",
			header: "",
		},
		{
			name:   "malformed header",
			header: "Token abc",
		},
		{
			name:   "expired token",
			header: "Bearer expired",
			setupMocks: func(ts *mocks.MockTokenService, _ *mocks.MockSessionRegistry) {
				ts.ValidateAccessTokenFunc = func(token string) (*domain.TokenClaims, error) {
					return nil, domain.ErrTokenExpired
				}
			},
		},
		{
			name:   "token without session",
			header: "Bearer sessionless",
			setupMocks: func(ts *mocks.MockTokenService, _ *mocks.MockSessionRegistry) {
				ts.ValidateAccessTokenFunc = func(token string) (*domain.TokenClaims, error) {
					return &domain.TokenClaims{AccountID: 1, Role: "customer"}, nil
				}
			},
		},
		{
			name:   "revoked session",
			header: "Bearer revoked",
			setupMocks: func(_ *mocks.MockTokenService, sr *mocks.MockSessionRegistry) {
				sr.FindByIDFunc = func(ctx context.Context, sessionID string) (*domain.Session, error) {
					return nil, domain.ErrSessionNotFound
				}
			},
		},
		{
			name:   "session belongs to another account",
			header: "Bearer stolen",
			setupMocks: func(_ *mocks.MockTokenService, sr *mocks.MockSessionRegistry) {
				sr.FindByIDFunc = func(ctx context.Context, sessionID string) (*domain.Session, error) {
					return &domain.Session{ID: sessionID, AccountID: 42}, nil
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokenSvc := mocks.NewMockTokenService()
			sessions := liveSessionRegistry(1)
			if tt.setupMocks != nil {
				tt.setupMocks(tokenSvc, sessions)
			}

			w, c := runAuthMiddleware(t, tokenSvc, sessions, tt.header)
			if w.Code != http.StatusUnauthorized {
				t.Errorf("expected 401, got %d", w.Code)
			}
			if !c.IsAborted() {
				t.Error("expected request to be aborted")
			}
		})
	}
}
