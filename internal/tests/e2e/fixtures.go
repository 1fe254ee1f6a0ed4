package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/you/bankauth/domain"
	"github.com/you/bankauth/internal/infrastructure/repositories"
)

// CreateAccount provisions an active customer account directly in the database
func CreateAccount(t *testing.T, ts *TestServer, email, phone, password string) *domain.Account {
	t.Helper()

	hash, err := ts.PasswordSvc.Hash(password)
	require.NoError(t, err)

	account := &domain.Account{
		Email:        email,
		Phone:        phone,
		PasswordHash: hash,
		Role:         "customer",
		IsActive:     true,
	}
	repo := repositories.NewAccountRepository(ts.DB)
	require.NoError(t, repo.Create(context.Background(), account))
	return account
}

// DoJSON performs a request against the in-process router and decodes the body
func DoJSON(t *testing.T, ts *TestServer, method, path, token string, payload interface{}) (int, map[string]interface{}) {
	t.Helper()

	var body *bytes.Buffer
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewBuffer(raw)
	} else {
		body = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	ts.Router.ServeHTTP(w, req)

	var decoded map[string]interface{}
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &decoded))
	}
	return w.Code, decoded
}

// raiseAlert injects a fraud alert the way the detection pipeline would
func raiseAlert(t *testing.T, ts *TestServer, accountID uint) {
	t.Helper()
	require.NoError(t, ts.FraudSvc.Raise(context.Background(), &domain.FraudAlert{
		AccountID: accountID,
		Kind:      domain.FraudSuspiciousLocation,
		Context:   "login from new country",
	}))
}

// LoginWithPassword runs the password login and returns the issued tokens
func LoginWithPassword(t *testing.T, ts *TestServer, email, password string) (accessToken, refreshToken, sessionID string) {
	t.Helper()

	code, resp := DoJSON(t, ts, http.MethodPost, "/auth/login", "", map[string]interface{}{
		"email":  email,
		"device": "test-device",
		"origin": "127.0.0.1",
		"credential": map[string]interface{}{
			"method":   "password",
			"password": password,
		},
	})
	require.Equal(t, http.StatusOK, code)

	data := resp["data"].(map[string]interface{})
	return data["access_token"].(string), data["refresh_token"].(string), data["session_id"].(string)
}
