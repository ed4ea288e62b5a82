package notify

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/kozaktomas/face-attendance/internal/config"
	"github.com/kozaktomas/face-attendance/internal/recognition"
)

func TestDisabledNotifier(t *testing.T) {
	n := New(config.MQTTConfig{Topic: "attendance/sightings"})

	if n.Enabled() {
		t.Error("notifier with no broker should be disabled")
	}

	s := recognition.Sighting{
		SessionID: uuid.New(),
		Label:     "alice",
		Distance:  0.31,
		At:        time.Now(),
	}
	if err := n.PublishSighting(context.Background(), s); err != nil {
		t.Errorf("publish on disabled notifier should be a no-op, got %v", err)
	}

	n.Close()
	n.Close() // double close must be safe
}

func TestSightingMessageFormat(t *testing.T) {
	id := uuid.New()
	at := time.Date(2026, 8, 30, 9, 15, 0, 0, time.UTC)

	payload, err := json.Marshal(sightingMessage{
		Session:  id.String(),
		Label:    "alice",
		Distance: 0.42,
		At:       at.Format(time.RFC3339),
		FrameID:  7,
	})
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(payload, &decoded); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	for _, key := range []string{"session", "label", "distance", "at", "frame_id"} {
		if _, ok := decoded[key]; !ok {
			t.Errorf("missing field %q in message", key)
		}
	}
	if decoded["at"] != "2026-08-30T09:15:00Z" {
		t.Errorf("unexpected timestamp format: %v", decoded["at"])
	}
}
