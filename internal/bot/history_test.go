package bot

import (
	"testing"

	"arbitrage/internal/models"
)

func TestHistory_RecordNotification_AssignsID(t *testing.T) {
	h := NewHistory()

	first := h.RecordNotification(models.Notification{Type: models.NotificationTypeRiskRejected})
	second := h.RecordNotification(models.Notification{Type: models.NotificationTypePartialFill})

	if first.ID == 0 || second.ID == 0 || first.ID == second.ID {
		t.Errorf("expected distinct non-zero IDs, got %d and %d", first.ID, second.ID)
	}

	got := h.Notifications()
	if len(got) != 2 {
		t.Fatalf("expected 2 notifications, got %d", len(got))
	}
	if got[0].Timestamp.IsZero() {
		t.Error("expected RecordNotification to stamp a timestamp")
	}
}

func TestHistory_NotificationsBounded(t *testing.T) {
	h := NewHistory()

	for i := 0; i < maxNotificationHistory+10; i++ {
		h.RecordNotification(models.Notification{Type: models.NotificationTypeRiskRejected})
	}

	got := h.Notifications()
	if len(got) != maxNotificationHistory {
		t.Errorf("expected notification log capped at %d, got %d", maxNotificationHistory, len(got))
	}
}
