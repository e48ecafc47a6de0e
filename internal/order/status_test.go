package order

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-pustaka/internal/store"
)

func TestCanTransitionTable(t *testing.T) {
	allowed := map[[2]Status]bool{
		{StatusPending, StatusProcessing}:   true,
		{StatusPending, StatusCancelled}:    true,
		{StatusProcessing, StatusCompleted}: true,
		{StatusCompleted, StatusRefunded}:   true,
	}
	all := []Status{StatusPending, StatusProcessing, StatusCompleted, StatusCancelled, StatusRefunded}
	for _, from := range all {
		for _, to := range all {
			want := allowed[[2]Status{from, to}]
			if got := CanTransition(from, to); got != want {
				t.Errorf("CanTransition(%s, %s) = %v, want %v", from, to, got, want)
			}
		}
	}
}

type fakeOrderStore struct {
	order store.Order
}

func (f *fakeOrderStore) GetOrder(_ context.Context, id pgtype.UUID) (store.Order, error) {
	return f.order, nil
}

func (f *fakeOrderStore) UpdateOrderStatus(_ context.Context, _ pgtype.UUID, from, to string) (bool, error) {
	if f.order.Status != from {
		return false, nil
	}
	f.order.Status = to
	return true, nil
}

func TestTransitionGuardsInvalidMoves(t *testing.T) {
	fs := &fakeOrderStore{order: store.Order{
		ID:     store.UUID(uuid.New()),
		Status: string(StatusPending),
	}}
	svc := &Service{Q: fs, Log: zerolog.Nop()}

	if _, err := svc.Transition(context.Background(), fs.order.ID, StatusCompleted); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("pending -> completed: got %v, want ErrInvalidTransition", err)
	}
	if fs.order.Status != string(StatusPending) {
		t.Fatalf("status mutated to %s on rejected transition", fs.order.Status)
	}

	updated, err := svc.Transition(context.Background(), fs.order.ID, StatusProcessing)
	if err != nil {
		t.Fatalf("pending -> processing: %v", err)
	}
	if updated.Status != string(StatusProcessing) {
		t.Fatalf("status = %s, want processing", updated.Status)
	}

	if _, err := svc.Transition(context.Background(), fs.order.ID, StatusCancelled); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("processing -> cancelled: got %v, want ErrInvalidTransition", err)
	}
}

func TestTransitionLosesRaceCleanly(t *testing.T) {
	// another writer already moved the order; the read still sees pending
	fs := &fakeOrderStore{order: store.Order{
		ID:     store.UUID(uuid.New()),
		Status: string(StatusCancelled),
	}}
	svc := &Service{Q: &staleOrderStore{inner: fs, staleStatus: string(StatusPending)}, Log: zerolog.Nop()}
	if _, err := svc.Transition(context.Background(), fs.order.ID, StatusProcessing); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("stale transition: got %v, want ErrInvalidTransition", err)
	}
	if fs.order.Status != string(StatusCancelled) {
		t.Fatalf("status mutated to %s", fs.order.Status)
	}
}

// staleOrderStore serves an outdated status on read to simulate a concurrent
// writer winning between read and update.
type staleOrderStore struct {
	inner       *fakeOrderStore
	staleStatus string
}

func (s *staleOrderStore) GetOrder(ctx context.Context, id pgtype.UUID) (store.Order, error) {
	ord, err := s.inner.GetOrder(ctx, id)
	ord.Status = s.staleStatus
	return ord, err
}

func (s *staleOrderStore) UpdateOrderStatus(ctx context.Context, id pgtype.UUID, from, to string) (bool, error) {
	return s.inner.UpdateOrderStatus(ctx, id, from, to)
}
