package domain

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestSession_JSONHidesDerivedFields(t *testing.T) {
	session := Session{
		ID:             "sess-1",
		AccountID:      1,
		Device:         "iPhone 15",
		Origin:         "203.0.113.9",
		LoginAt:        time.Now(),
		LastActivityAt: time.Now(),
		Status:         SessionIdle,
		IsCurrent:      true,
	}

	raw, err := json.Marshal(session)
	if err != nil {
		t.Fatal(err)
	}
	body := string(raw)
	if strings.Contains(body, "idle") || strings.Contains(body, "IsCurrent") {
		t.Errorf("derived fields must not be persisted: %s", body)
	}
}

func TestFraudAlert_JSON(t *testing.T) {
	alert := FraudAlert{
		ID:        "alert-1",
		AccountID: 1,
		Kind:      FraudSuspiciousLocation,
		Context:   "login from new country",
		Decisions: []FraudDecision{{ID: "confirm", Label: "This was me"}},
		RaisedAt:  time.Now(),
	}

	raw, err := json.Marshal(alert)
	if err != nil {
		t.Fatal(err)
	}
	body := string(raw)
	for _, want := range []string{`"kind":"suspicious_location"`, `"context":"login from new country"`, `"decisions"`} {
		if !strings.Contains(body, want) {
			t.Errorf("missing %s in %s", want, body)
		}
	}
}

func TestCredentialMethods(t *testing.T) {
	methods := map[CredentialMethod]bool{
		MethodPassword: true,
		MethodFace:     true,
		MethodVoice:    true,
		MethodOTP:      true,
	}
	if len(methods) != 4 {
		t.Errorf("expected 4 distinct credential methods")
	}
	for _, m := range AllMFAMethods {
		if m == "" {
			t.Error("enrollment method must not be empty")
		}
	}
}
