package notify

import (
	"context"
	"encoding/json"

	"github.com/noah-isme/backend-pustaka/internal/events"
	"github.com/noah-isme/backend-pustaka/internal/store"
)

// InboxNotifier writes a per-user notification row for topics the user
// should see in the app.
type InboxNotifier struct {
	Q *store.Queries
}

// Notify implements the events.Notifier interface. Events without a userId
// in the payload are skipped.
func (n InboxNotifier) Notify(ctx context.Context, event events.Event) error {
	if n.Q == nil {
		return nil
	}
	title, ok := inboxTitle(event.Topic)
	if !ok {
		return nil
	}
	var payload struct {
		UserID  string `json:"userId"`
		OrderID string `json:"orderId"`
		Message string `json:"message"`
	}
	if len(event.Payload) > 0 {
		if err := json.Unmarshal(event.Payload, &payload); err != nil {
			return err
		}
	}
	if payload.UserID == "" {
		return nil
	}
	userID, err := store.ParseUUID(payload.UserID)
	if err != nil {
		return nil
	}
	body := payload.Message
	if body == "" && payload.OrderID != "" {
		body = "Order " + payload.OrderID
	}
	_, err = n.Q.InsertNotification(ctx, store.InsertNotificationParams{
		UserID: userID,
		Kind:   event.Topic,
		Title:  title,
		Body:   body,
	})
	return err
}

func inboxTitle(topic string) (string, bool) {
	switch topic {
	case events.TopicOrderCreated:
		return "Order received", true
	case events.TopicOrderCompleted:
		return "Your books are ready", true
	case events.TopicOrderCancelled:
		return "Order cancelled", true
	case events.TopicOrderRefunded:
		return "Order refunded", true
	case events.TopicPaymentFailed:
		return "Payment failed", true
	default:
		return "", false
	}
}
