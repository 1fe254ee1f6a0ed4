package e2e

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionManagementJourney(t *testing.T) {
	ts := NewTestServer(t)
	CreateAccount(t, ts, "devices@example.com", "+15550010", "SecurePassword123!")

	phoneToken, _, phoneSession := LoginWithPassword(t, ts, "devices@example.com", "SecurePassword123!")
	laptopToken, _, laptopSession := LoginWithPassword(t, ts, "devices@example.com", "SecurePassword123!")
	require.NotEqual(t, phoneSession, laptopSession)

	t.Run("list shows both sessions and marks the caller's", func(t *testing.T) {
		code, resp := DoJSON(t, ts, http.MethodGet, "/sessions", laptopToken, nil)
		require.Equal(t, http.StatusOK, code)

		sessions := resp["data"].(map[string]interface{})["sessions"].([]interface{})
		require.Len(t, sessions, 2)

		current := 0
		for _, raw := range sessions {
			s := raw.(map[string]interface{})
			if s["is_current"].(bool) {
				current++
				assert.Equal(t, laptopSession, s["id"])
			}
		}
		assert.Equal(t, 1, current)
	})

	t.Run("cannot revoke own session", func(t *testing.T) {
		code, _ := DoJSON(t, ts, http.MethodDelete, "/sessions/"+laptopSession, laptopToken, nil)
		assert.Equal(t, http.StatusConflict, code)
	})

	t.Run("revoking the other session kills its token", func(t *testing.T) {
		code, _ := DoJSON(t, ts, http.MethodDelete, "/sessions/"+phoneSession, laptopToken, nil)
		require.Equal(t, http.StatusOK, code)

		code, _ = DoJSON(t, ts, http.MethodGet, "/auth/me", phoneToken, nil)
		assert.Equal(t, http.StatusUnauthorized, code)

		// Revoking again is a no-op, not an error.
		code, _ = DoJSON(t, ts, http.MethodDelete, "/sessions/"+phoneSession, laptopToken, nil)
		assert.Equal(t, http.StatusOK, code)
	})

	t.Run("revoke-others clears everything but the caller", func(t *testing.T) {
		LoginWithPassword(t, ts, "devices@example.com", "SecurePassword123!")
		LoginWithPassword(t, ts, "devices@example.com", "SecurePassword123!")

		code, resp := DoJSON(t, ts, http.MethodPost, "/sessions/revoke-others", laptopToken, nil)
		require.Equal(t, http.StatusOK, code)
		assert.Equal(t, float64(2), resp["data"].(map[string]interface{})["revoked"])

		code, resp = DoJSON(t, ts, http.MethodGet, "/sessions", laptopToken, nil)
		require.Equal(t, http.StatusOK, code)
		sessions := resp["data"].(map[string]interface{})["sessions"].([]interface{})
		assert.Len(t, sessions, 1)
	})
}

func TestStepUpJourney(t *testing.T) {
	ts := NewTestServer(t)
	account := CreateAccount(t, ts, "stepup@example.com", "+15550011", "SecurePassword123!")
	token, _, _ := LoginWithPassword(t, ts, "stepup@example.com", "SecurePassword123!")

	t.Run("unprotected action is rejected up front", func(t *testing.T) {
		code, _ := DoJSON(t, ts, http.MethodPost, "/stepup", token, map[string]interface{}{
			"action": "balance.view",
			"method": "otp",
		})
		assert.Equal(t, http.StatusBadRequest, code)
	})

	t.Run("otp challenge verifies and consumes exactly once", func(t *testing.T) {
		code, resp := DoJSON(t, ts, http.MethodPost, "/stepup", token, map[string]interface{}{
			"action": "transfer.external",
			"method": "otp",
		})
		require.Equal(t, http.StatusOK, code)
		challengeID := resp["data"].(map[string]interface{})["challenge_id"].(string)

		otpCode, err := ts.Redis.Get("otp:" + account.Email)
		require.NoError(t, err)

		code, resp = DoJSON(t, ts, http.MethodPost, "/stepup/"+challengeID+"/verify", token, map[string]interface{}{
			"credential": map[string]interface{}{
				"method": "otp",
				"code":   otpCode,
			},
		})
		require.Equal(t, http.StatusOK, code)
		assert.Equal(t, "verified", resp["data"].(map[string]interface{})["state"])

		code, _ = DoJSON(t, ts, http.MethodPost, "/stepup/"+challengeID+"/consume", token, nil)
		require.Equal(t, http.StatusOK, code)

		// Second consume must fail: replaying an approval is the attack
		// this whole gate exists to stop.
		code, _ = DoJSON(t, ts, http.MethodPost, "/stepup/"+challengeID+"/consume", token, nil)
		assert.Equal(t, http.StatusConflict, code)
	})
}

func TestFraudAlertJourney(t *testing.T) {
	ts := NewTestServer(t)
	account := CreateAccount(t, ts, "fraud@example.com", "+15550012", "SecurePassword123!")

	phoneToken, _, _ := LoginWithPassword(t, ts, "fraud@example.com", "SecurePassword123!")
	laptopToken, _, _ := LoginWithPassword(t, ts, "fraud@example.com", "SecurePassword123!")

	raiseAlert(t, ts, account.ID)

	code, resp := DoJSON(t, ts, http.MethodGet, "/fraud/alert", laptopToken, nil)
	require.Equal(t, http.StatusOK, code)
	alert := resp["data"].(map[string]interface{})["alert"].(map[string]interface{})
	alertID := alert["id"].(string)

	code, _ = DoJSON(t, ts, http.MethodPost, "/fraud/alert/"+alertID+"/decide", laptopToken, map[string]interface{}{
		"decision": "revoke_others",
	})
	require.Equal(t, http.StatusOK, code)

	// The other device's session is gone; the decider keeps theirs.
	code, _ = DoJSON(t, ts, http.MethodGet, "/auth/me", phoneToken, nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	code, _ = DoJSON(t, ts, http.MethodGet, "/auth/me", laptopToken, nil)
	assert.Equal(t, http.StatusOK, code)

	code, resp = DoJSON(t, ts, http.MethodGet, "/fraud/alert", laptopToken, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Nil(t, resp["data"].(map[string]interface{})["alert"])
}

func TestSessionRevokeIsAccountScoped(t *testing.T) {
	ts := NewTestServer(t)
	CreateAccount(t, ts, "alice@example.com", "+15550000001", "alice-password")
	CreateAccount(t, ts, "mallory@example.com", "+15550000002", "mallory-password")

	aliceToken, _, aliceSession := LoginWithPassword(t, ts, "alice@example.com", "alice-password")
	malloryToken, _, _ := LoginWithPassword(t, ts, "mallory@example.com", "mallory-password")

	// Mallory revoking Alice's session id gets the same response as a
	// dead session, and Alice stays logged in.
	code, _ := DoJSON(t, ts, http.MethodDelete, "/sessions/"+aliceSession, malloryToken, nil)
	require.Equal(t, http.StatusOK, code)

	code, _ = DoJSON(t, ts, http.MethodGet, "/auth/me", aliceToken, nil)
	require.Equal(t, http.StatusOK, code)

	// Alice's own list still shows the session.
	code, resp := DoJSON(t, ts, http.MethodGet, "/sessions", aliceToken, nil)
	require.Equal(t, http.StatusOK, code)
	sessions := resp["data"].(map[string]interface{})["sessions"].([]interface{})
	require.Len(t, sessions, 1)
}

func TestStepUpIsAccountScoped(t *testing.T) {
	ts := NewTestServer(t)
	CreateAccount(t, ts, "alice@example.com", "+15550000001", "alice-password")
	CreateAccount(t, ts, "mallory@example.com", "+15550000002", "mallory-password")

	aliceToken, _, _ := LoginWithPassword(t, ts, "alice@example.com", "alice-password")
	malloryToken, _, _ := LoginWithPassword(t, ts, "mallory@example.com", "mallory-password")

	code, resp := DoJSON(t, ts, http.MethodPost, "/stepup", aliceToken, map[string]interface{}{
		"action": "transfer.external",
		"method": "otp",
	})
	require.Equal(t, http.StatusOK, code)
	challengeID := resp["data"].(map[string]interface{})["challenge_id"].(string)
	otpCode, err := ts.Redis.Get("otp:alice@example.com")
	require.NoError(t, err)

	// Mallory cannot verify or consume Alice's challenge even with the
	// right code in hand.
	code, _ = DoJSON(t, ts, http.MethodPost, "/stepup/"+challengeID+"/verify", malloryToken, map[string]interface{}{
		"credential": map[string]interface{}{"method": "otp", "code": otpCode},
	})
	require.Equal(t, http.StatusNotFound, code)
	code, _ = DoJSON(t, ts, http.MethodPost, "/stepup/"+challengeID+"/consume", malloryToken, nil)
	require.Equal(t, http.StatusNotFound, code)

	// The challenge still works for Alice.
	code, _ = DoJSON(t, ts, http.MethodPost, "/stepup/"+challengeID+"/verify", aliceToken, map[string]interface{}{
		"credential": map[string]interface{}{"method": "otp", "code": otpCode},
	})
	require.Equal(t, http.StatusOK, code)
	code, _ = DoJSON(t, ts, http.MethodPost, "/stepup/"+challengeID+"/consume", aliceToken, nil)
	require.Equal(t, http.StatusOK, code)
}
