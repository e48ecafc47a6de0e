package notify

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-pustaka/internal/common"
	"github.com/noah-isme/backend-pustaka/internal/events"
)

func TestEmailNotifierSendsForRecipient(t *testing.T) {
	mail := &common.InMemoryEmail{}
	n := EmailNotifier{Mail: mail, Enabled: true}

	payload, _ := json.Marshal(map[string]any{
		"email":   "reader@example.com",
		"orderId": "abc",
	})
	err := n.Notify(context.Background(), events.Event{
		Topic:      events.TopicOrderCompleted,
		Payload:    payload,
		OccurredAt: time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	require.Len(t, mail.Outbox, 1)
	require.Equal(t, "reader@example.com", mail.Outbox[0].To)
	require.Equal(t, "Your books are ready", mail.Outbox[0].Subject)
	require.Contains(t, mail.Outbox[0].HTML, "abc")
}

func TestEmailNotifierSkipsWithoutRecipient(t *testing.T) {
	mail := &common.InMemoryEmail{}
	n := EmailNotifier{Mail: mail, Enabled: true}

	err := n.Notify(context.Background(), events.Event{
		Topic:   events.TopicOrderCreated,
		Payload: json.RawMessage(`{"orderId":"abc"}`),
	})
	require.NoError(t, err)
	require.Empty(t, mail.Outbox)
}

func TestEmailNotifierHonoursToggles(t *testing.T) {
	mail := &common.InMemoryEmail{}
	n := EmailNotifier{
		Mail:         mail,
		Enabled:      true,
		TopicToggles: map[string]bool{events.TopicPaymentFailed: false},
	}
	err := n.Notify(context.Background(), events.Event{
		Topic:   events.TopicPaymentFailed,
		Payload: json.RawMessage(`{"email":"reader@example.com"}`),
	})
	require.NoError(t, err)
	require.Empty(t, mail.Outbox)
}

func TestInboxTitleCoversOrderTopics(t *testing.T) {
	for _, topic := range []string{
		events.TopicOrderCreated,
		events.TopicOrderCompleted,
		events.TopicOrderCancelled,
		events.TopicOrderRefunded,
		events.TopicPaymentFailed,
	} {
		_, ok := inboxTitle(topic)
		require.True(t, ok, topic)
	}
	_, ok := inboxTitle(events.TopicReviewCreated)
	require.False(t, ok)
}
