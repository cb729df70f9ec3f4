package message

import (
	"encoding/json"
	"testing"
)

func TestEncodeInjectsTypeDiscriminator(t *testing.T) {
	rec := NewAgentToken(12345, "analyst", "hello")
	body, err := Encode(rec)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(body, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	if decoded["type"] != "agent_token" {
		t.Errorf("type = %v, want agent_token", decoded["type"])
	}
	if decoded["agentId"] != "analyst" {
		t.Errorf("agentId = %v, want analyst", decoded["agentId"])
	}
	if decoded["timestamp"].(float64) != 12345 {
		t.Errorf("timestamp = %v, want 12345", decoded["timestamp"])
	}
}

func TestEncodeRoundTripsEveryRecordType(t *testing.T) {
	records := []Record{
		NewRoundStart(1, 1, "Opening Arguments", []string{"analyst"}),
		NewPhaseStart(1, 1, "Opening Arguments"),
		NewAgentToken(1, "analyst", "hi"),
		NewAgentDone(1, "analyst"),
		NewAgentError(1, "analyst", "boom"),
		NewMetricsSnapshot(1, 10, 100),
		NewConstraintAcknowledged(1, "budget under $50k"),
		NewDebateComplete(1, 100, 1.5, 66.6, json.RawMessage(`{}`)),
		NewError(1, "bad input"),
	}

	for _, r := range records {
		body, err := Encode(r)
		if err != nil {
			t.Fatalf("Encode(%s): %v", r.Type(), err)
		}
		var decoded map[string]interface{}
		if err := json.Unmarshal(body, &decoded); err != nil {
			t.Fatalf("Unmarshal(%s): %v", r.Type(), err)
		}
		if decoded["type"] != r.Type() {
			t.Errorf("type = %v, want %v", decoded["type"], r.Type())
		}
	}
}
