package events

// Topic constants for domain events emitted by the platform.
const (
	TopicOrderCreated   = "order.created"
	TopicOrderCompleted = "order.completed"
	TopicOrderCancelled = "order.cancelled"
	TopicOrderRefunded  = "order.refunded"
	TopicPaymentFailed  = "payment.failed"
	TopicReviewCreated  = "review.created"
)

// DefaultTopics returns the canonical list of topics that support
// notifications.
func DefaultTopics() []string {
	return []string{
		TopicOrderCreated,
		TopicOrderCompleted,
		TopicOrderCancelled,
		TopicOrderRefunded,
		TopicPaymentFailed,
		TopicReviewCreated,
	}
}
