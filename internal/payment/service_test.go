package payment_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-pustaka/internal/payment"
	"github.com/noah-isme/backend-pustaka/internal/store"
)

type fakePaymentStore struct {
	order    store.Order
	pending  *store.Payment
	inserted []store.InsertPaymentParams
}

func (f *fakePaymentStore) GetOrder(_ context.Context, id pgtype.UUID) (store.Order, error) {
	if f.order.ID != id {
		return store.Order{}, pgx.ErrNoRows
	}
	return f.order, nil
}

func (f *fakePaymentStore) GetPendingPaymentByOrder(_ context.Context, _ pgtype.UUID) (store.Payment, error) {
	if f.pending == nil {
		return store.Payment{}, pgx.ErrNoRows
	}
	return *f.pending, nil
}

func (f *fakePaymentStore) InsertPayment(_ context.Context, arg store.InsertPaymentParams) (store.Payment, error) {
	f.inserted = append(f.inserted, arg)
	return store.Payment{
		ID:          store.UUID(uuid.New()),
		OrderID:     arg.OrderID,
		Provider:    arg.Provider,
		ProviderRef: arg.ProviderRef,
		Status:      payment.StatusPending,
		AmountMinor: arg.AmountMinor,
		Currency:    arg.Currency,
	}, nil
}

func newIntentFixture(status string) (*fakePaymentStore, *payment.Service, pgtype.UUID, pgtype.UUID) {
	orderID := store.UUID(uuid.New())
	userID := store.UUID(uuid.New())
	fs := &fakePaymentStore{order: store.Order{
		ID:          orderID,
		OrderNumber: "PU-20260601-abcd1234",
		UserID:      userID,
		Status:      status,
		Currency:    "USD",
		TotalMinor:  2350,
	}}
	svc := &payment.Service{
		Q:        fs,
		Provider: payment.Stripe{SigningSecret: "whsec_test", Sandbox: true},
		Log:      zerolog.Nop(),
	}
	return fs, svc, orderID, userID
}

func TestCreateIntentHappyPath(t *testing.T) {
	fs, svc, orderID, userID := newIntentFixture("pending")

	intent, err := svc.CreateIntent(context.Background(), orderID, userID, 0)
	require.NoError(t, err)
	require.Equal(t, "stripe", intent.Provider)
	require.Equal(t, int64(2350), intent.AmountMinor)
	require.Len(t, fs.inserted, 1)
	require.Equal(t, int64(2350), fs.inserted[0].AmountMinor)
}

func TestCreateIntentRejectsAmountMismatch(t *testing.T) {
	_, svc, orderID, userID := newIntentFixture("pending")

	_, err := svc.CreateIntent(context.Background(), orderID, userID, 999)
	require.ErrorIs(t, err, payment.ErrAmountMismatch)
}

func TestCreateIntentRejectsNonPendingOrder(t *testing.T) {
	_, svc, orderID, userID := newIntentFixture("processing")

	_, err := svc.CreateIntent(context.Background(), orderID, userID, 0)
	require.ErrorIs(t, err, payment.ErrNotPayable)
}

func TestCreateIntentHidesForeignOrder(t *testing.T) {
	_, svc, orderID, _ := newIntentFixture("pending")

	_, err := svc.CreateIntent(context.Background(), orderID, store.UUID(uuid.New()), 0)
	require.ErrorIs(t, err, pgx.ErrNoRows)
}

func TestCreateIntentReusesPendingIntent(t *testing.T) {
	fs, svc, orderID, userID := newIntentFixture("pending")
	fs.pending = &store.Payment{
		ID:          store.UUID(uuid.New()),
		OrderID:     orderID,
		Provider:    "stripe",
		ProviderRef: "pi_existing",
		Status:      payment.StatusPending,
		AmountMinor: 2350,
		Currency:    "USD",
	}

	intent, err := svc.CreateIntent(context.Background(), orderID, userID, 0)
	require.NoError(t, err)
	require.Equal(t, "pi_existing", intent.ProviderRef)
	require.Empty(t, fs.inserted)
}
