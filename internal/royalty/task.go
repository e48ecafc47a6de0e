package royalty

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

// TaskSettle is the asynq task type for royalty settlement.
const TaskSettle = "royalty:settle"

// QueueName is the asynq queue royalty tasks run on.
const QueueName = "royalty"

type settlePayload struct {
	OrderID string `json:"orderId"`
}

// NewSettleTask builds the settlement task for an order.
func NewSettleTask(orderID string) (*asynq.Task, error) {
	payload, err := json.Marshal(settlePayload{OrderID: orderID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskSettle, payload,
		asynq.Queue(QueueName), asynq.MaxRetry(10)), nil
}

// Enqueuer submits settlement tasks.
type Enqueuer struct {
	Client *asynq.Client
}

// EnqueueSettle schedules the royalty settlement for an order. Settlement is
// idempotent, so duplicate enqueues are harmless.
func (e Enqueuer) EnqueueSettle(ctx context.Context, orderID string) error {
	if e.Client == nil {
		return fmt.Errorf("royalty enqueuer not configured")
	}
	task, err := NewSettleTask(orderID)
	if err != nil {
		return err
	}
	_, err = e.Client.EnqueueContext(ctx, task)
	return err
}

// TaskHandler adapts the settlement service to the asynq handler contract.
type TaskHandler struct {
	Svc *Service
}

// ProcessTask implements asynq.Handler.
func (h TaskHandler) ProcessTask(ctx context.Context, task *asynq.Task) error {
	var payload settlePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}
	if payload.OrderID == "" {
		return fmt.Errorf("%w: empty order id", asynq.SkipRetry)
	}
	return h.Svc.Settle(ctx, payload.OrderID)
}
