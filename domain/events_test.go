package domain

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestNewAccountEvent(t *testing.T) {
	before := time.Now().UTC()
	event := NewAccountEvent(SessionRevokedEvent, 7).
		WithSession("sess-1").
		WithMetadata("reason", "fraud_decision")

	if event.EventType != SessionRevokedEvent {
		t.Errorf("EventType = %s", event.EventType)
	}
	if event.AccountID != 7 {
		t.Errorf("AccountID = %d", event.AccountID)
	}
	if event.SessionID != "sess-1" {
		t.Errorf("SessionID = %s", event.SessionID)
	}
	if event.Metadata["reason"] != "fraud_decision" {
		t.Errorf("Metadata = %v", event.Metadata)
	}
	if event.Timestamp.Before(before) || event.Timestamp.After(time.Now().UTC()) {
		t.Errorf("Timestamp out of range: %v", event.Timestamp)
	}
}

func TestAccountEvent_JSONOmitsEmptyFields(t *testing.T) {
	raw, err := json.Marshal(NewAccountEvent(LoginEvent, 1))
	if err != nil {
		t.Fatal(err)
	}
	body := string(raw)
	if strings.Contains(body, "session_id") {
		t.Errorf("empty session_id should be omitted: %s", body)
	}
	if strings.Contains(body, "metadata") {
		t.Errorf("empty metadata should be omitted: %s", body)
	}
	if !strings.Contains(body, `"event_type":"LOGIN"`) {
		t.Errorf("missing event_type: %s", body)
	}
}
