package payments

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/paytrack/paytrack-backend/internal/notifications"
	"github.com/paytrack/paytrack-backend/internal/orders"
	"github.com/paytrack/paytrack-backend/internal/users"
	"github.com/paytrack/paytrack-backend/pkg/config"
	"github.com/paytrack/paytrack-backend/pkg/db"
	"github.com/paytrack/paytrack-backend/pkg/db/dbtest"
	"github.com/paytrack/paytrack-backend/pkg/db/models"
	"github.com/paytrack/paytrack-backend/pkg/enums"
	pkgerrors "github.com/paytrack/paytrack-backend/pkg/errors"
	"github.com/paytrack/paytrack-backend/pkg/logger"
)

type recordingPusher struct {
	mu   sync.Mutex
	sent map[uuid.UUID][]notifications.Payload
}

func (p *recordingPusher) Send(_ context.Context, userID uuid.UUID, payload any) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.sent == nil {
		p.sent = map[uuid.UUID][]notifications.Payload{}
	}
	p.sent[userID] = append(p.sent[userID], payload.(notifications.Payload))
	return true
}

func (p *recordingPusher) messages(userID uuid.UUID) []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.sent[userID]))
	for _, payload := range p.sent[userID] {
		out = append(out, payload.Message)
	}
	return out
}

type harness struct {
	conn     *gorm.DB
	payments Service
	orders   orders.Service
	pusher   *recordingPusher
	vendor   *models.User
	supplier *models.User
}

func newHarness(t *testing.T, cfg config.PaymentsConfig) harness {
	t.Helper()
	conn := dbtest.Open(t)
	client := db.Wrap(conn)
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	pusher := &recordingPusher{}

	resolver, err := notifications.NewResolver(notifications.NewDirectory(conn))
	require.NoError(t, err)
	dispatcher, err := notifications.NewDispatcher(notifications.DispatcherParams{
		Resolver: resolver,
		Repo:     notifications.NewRepository(conn),
		Pusher:   pusher,
		Logger:   logg,
	})
	require.NoError(t, err)

	ordersRepo := orders.NewRepository(conn)
	ordersSvc, err := orders.NewService(orders.ServiceParams{
		Repo:      ordersRepo,
		Suppliers: users.NewRepository(conn),
		Tx:        client,
		Notifier:  dispatcher,
		Logger:    logg,
	})
	require.NoError(t, err)

	paymentsSvc, err := NewService(ServiceParams{
		Repo:     NewRepository(conn),
		Orders:   ordersRepo,
		Tx:       client,
		Notifier: dispatcher,
		Config:   cfg,
		Logger:   logg,
		Now:      func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) },
	})
	require.NoError(t, err)

	return harness{
		conn:     conn,
		payments: paymentsSvc,
		orders:   ordersSvc,
		pusher:   pusher,
		vendor:   dbtest.SeedUser(t, conn, "shop", "5550001000", enums.RoleVendor),
		supplier: dbtest.SeedUser(t, conn, "acme", "5550001001", enums.RoleSupplier),
	}
}

func (h harness) countNotifications(t *testing.T, userID uuid.UUID) int64 {
	t.Helper()
	var count int64
	require.NoError(t, h.conn.Model(&models.Notification{}).Where("user_id = ?", userID).Count(&count).Error)
	return count
}

func TestOrderToSettlementFlow(t *testing.T) {
	h := newHarness(t, config.PaymentsConfig{EnforceRemainingAmountCap: true})
	ctx := context.Background()

	order, err := h.orders.CreateOrder(ctx, orders.CreateOrderInput{
		VendorID:      h.vendor.ID,
		SupplierName:  "acme",
		SupplierPhone: "5550001001",
		TotalAmount:   decimal.RequireFromString("1000"),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"A new order has been created with Order ID: " + order.ID.String() + "."}, h.pusher.messages(h.supplier.ID))

	_, err = h.orders.UpdateStatus(ctx, orders.UpdateStatusInput{OrderID: order.ID, ActorID: h.supplier.ID, Status: enums.OrderStatusAccepted})
	require.NoError(t, err)

	payment, err := h.payments.RequestPayment(ctx, RequestPaymentInput{
		OrderID: order.ID, RequesterID: h.vendor.ID, Amount: decimal.RequireFromString("400"),
	})
	require.NoError(t, err)
	assert.Equal(t, enums.PaymentStatusPending, payment.Status)
	assert.Contains(t, h.pusher.messages(h.supplier.ID), "shop sent request of 400 for Order ID: "+order.ID.String()+".")

	result, err := h.payments.ConfirmPayment(ctx, ConfirmPaymentInput{PaymentID: payment.ID, ActorID: h.supplier.ID})
	require.NoError(t, err)
	assert.Equal(t, enums.PaymentStatusConfirmed, result.Payment.Status)
	require.NotNil(t, result.Payment.ConfirmedAt)
	assert.True(t, result.Order.RemainingAmount.Equal(decimal.RequireFromString("600")), "remaining %s", result.Order.RemainingAmount)

	vendorMessages := h.pusher.messages(h.vendor.ID)
	require.Len(t, vendorMessages, 2)
	assert.Equal(t, "Payment of 400 has been accepted for Order ID: "+order.ID.String()+" (Payment ID: "+payment.ID.String()+").", vendorMessages[1])

	_, err = h.payments.ConfirmPayment(ctx, ConfirmPaymentInput{PaymentID: payment.ID, ActorID: h.supplier.ID})
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeAlreadyConfirmed), "got %v", err)

	final, err := h.payments.RequestPayment(ctx, RequestPaymentInput{
		OrderID: order.ID, RequesterID: h.vendor.ID, Amount: decimal.RequireFromString("600"),
	})
	require.NoError(t, err)
	result, err = h.payments.ConfirmPayment(ctx, ConfirmPaymentInput{PaymentID: final.ID, ActorID: h.supplier.ID})
	require.NoError(t, err)
	assert.True(t, result.Order.RemainingAmount.IsZero())
	assert.Contains(t, h.pusher.messages(h.vendor.ID), "Order ID: "+order.ID.String()+" has been marked as completed.")

	// vendor: orderAccepted, two acceptPayment, orderCompleted; supplier: orderCreated, two PaymentRequest
	assert.Equal(t, int64(4), h.countNotifications(t, h.vendor.ID))
	assert.Equal(t, int64(3), h.countNotifications(t, h.supplier.ID))
}

func TestRequestPaymentErrors(t *testing.T) {
	h := newHarness(t, config.PaymentsConfig{EnforceRemainingAmountCap: true})
	ctx := context.Background()
	order := dbtest.SeedOrder(t, h.conn, h.vendor, h.supplier, "100", time.Now().UTC())

	cases := []struct {
		name  string
		input RequestPaymentInput
		code  pkgerrors.Code
	}{
		{"missing order", RequestPaymentInput{OrderID: uuid.New(), RequesterID: h.vendor.ID, Amount: decimal.NewFromInt(10)}, pkgerrors.CodeNotFound},
		{"zero amount", RequestPaymentInput{OrderID: order.ID, RequesterID: h.vendor.ID, Amount: decimal.Zero}, pkgerrors.CodeValidation},
		{"negative amount", RequestPaymentInput{OrderID: order.ID, RequesterID: h.vendor.ID, Amount: decimal.NewFromInt(-1)}, pkgerrors.CodeValidation},
		{"not the vendor", RequestPaymentInput{OrderID: order.ID, RequesterID: h.supplier.ID, Amount: decimal.NewFromInt(10)}, pkgerrors.CodeForbidden},
		{"over remaining", RequestPaymentInput{OrderID: order.ID, RequesterID: h.vendor.ID, Amount: decimal.NewFromInt(101)}, pkgerrors.CodeValidation},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := h.payments.RequestPayment(ctx, tc.input)
			assert.True(t, pkgerrors.Is(err, tc.code), "expected %s, got %v", tc.code, err)
		})
	}

	var count int64
	require.NoError(t, h.conn.Model(&models.Payment{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestRequestPaymentWithoutCapAllowsOverpayment(t *testing.T) {
	h := newHarness(t, config.PaymentsConfig{})
	order := dbtest.SeedOrder(t, h.conn, h.vendor, h.supplier, "100", time.Now().UTC())

	payment, err := h.payments.RequestPayment(context.Background(), RequestPaymentInput{
		OrderID: order.ID, RequesterID: h.vendor.ID, Amount: decimal.NewFromInt(150),
	})
	require.NoError(t, err)

	result, err := h.payments.ConfirmPayment(context.Background(), ConfirmPaymentInput{PaymentID: payment.ID, ActorID: h.supplier.ID})
	require.NoError(t, err)
	assert.True(t, result.Order.RemainingAmount.Equal(decimal.NewFromInt(-50)))
}

func TestOrderCompletedOnlyOnSettlingConfirmation(t *testing.T) {
	h := newHarness(t, config.PaymentsConfig{})
	ctx := context.Background()
	order := dbtest.SeedOrder(t, h.conn, h.vendor, h.supplier, "100", time.Now().UTC())

	wantRemaining := []string{"0", "-50", "-60"}
	for i, amount := range []string{"100", "50", "10"} {
		payment := dbtest.SeedPayment(t, h.conn, order, amount)
		result, err := h.payments.ConfirmPayment(ctx, ConfirmPaymentInput{PaymentID: payment.ID, ActorID: h.supplier.ID})
		require.NoError(t, err)
		assert.True(t, result.Order.RemainingAmount.Equal(decimal.RequireFromString(wantRemaining[i])), "remaining %s", result.Order.RemainingAmount)
	}

	var completed int64
	require.NoError(t, h.conn.Model(&models.Notification{}).
		Where("user_id = ? AND message LIKE ?", h.vendor.ID, "%marked as completed%").
		Count(&completed).Error)
	assert.Equal(t, int64(1), completed, "overpaying confirmations must not complete the order again")
}

func TestConfirmPaymentErrors(t *testing.T) {
	h := newHarness(t, config.PaymentsConfig{EnforceRemainingAmountCap: true})
	ctx := context.Background()
	order := dbtest.SeedOrder(t, h.conn, h.vendor, h.supplier, "100", time.Now().UTC())
	payment := dbtest.SeedPayment(t, h.conn, order, "40")

	_, err := h.payments.ConfirmPayment(ctx, ConfirmPaymentInput{PaymentID: uuid.New(), ActorID: h.supplier.ID})
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeNotFound), "got %v", err)

	_, err = h.payments.ConfirmPayment(ctx, ConfirmPaymentInput{PaymentID: payment.ID, ActorID: h.vendor.ID})
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeForbidden), "got %v", err)

	other := dbtest.SeedUser(t, h.conn, "bolt", "5550001002", enums.RoleSupplier)
	_, err = h.payments.ConfirmPayment(ctx, ConfirmPaymentInput{PaymentID: payment.ID, ActorID: other.ID})
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeForbidden), "got %v", err)

	stored, err := NewRepository(h.conn).FindByID(ctx, payment.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.PaymentStatusPending, stored.Status)
}

func TestConfirmPaymentFloorConflictRollsBack(t *testing.T) {
	h := newHarness(t, config.PaymentsConfig{EnforceRemainingAmountCap: true})
	ctx := context.Background()
	order := dbtest.SeedOrder(t, h.conn, h.vendor, h.supplier, "100", time.Now().UTC())
	first := dbtest.SeedPayment(t, h.conn, order, "70")
	second := dbtest.SeedPayment(t, h.conn, order, "70")

	_, err := h.payments.ConfirmPayment(ctx, ConfirmPaymentInput{PaymentID: first.ID, ActorID: h.supplier.ID})
	require.NoError(t, err)

	_, err = h.payments.ConfirmPayment(ctx, ConfirmPaymentInput{PaymentID: second.ID, ActorID: h.supplier.ID})
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeStateConflict), "got %v", err)

	stored, err := NewRepository(h.conn).FindByID(ctx, second.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.PaymentStatusPending, stored.Status, "the status flip must roll back with the decrement")
	assert.Nil(t, stored.ConfirmedAt)
}

func TestConcurrentConfirmationsApplyEachPaymentOnce(t *testing.T) {
	h := newHarness(t, config.PaymentsConfig{EnforceRemainingAmountCap: true})
	ctx := context.Background()
	order := dbtest.SeedOrder(t, h.conn, h.vendor, h.supplier, "1000", time.Now().UTC())

	const workers = 10
	ids := make([]uuid.UUID, workers)
	for i := range ids {
		ids[i] = dbtest.SeedPayment(t, h.conn, order, "100").ID
	}

	var wg sync.WaitGroup
	errs := make([]error, workers*2)
	for i := 0; i < workers*2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			// every payment is confirmed twice; exactly one attempt may win
			_, errs[i] = h.payments.ConfirmPayment(ctx, ConfirmPaymentInput{PaymentID: ids[i%workers], ActorID: h.supplier.ID})
		}(i)
	}
	wg.Wait()

	var succeeded, already int
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case pkgerrors.Is(err, pkgerrors.CodeAlreadyConfirmed):
			already++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, workers, succeeded)
	assert.Equal(t, workers, already)

	reloaded, err := orders.NewRepository(h.conn).FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.True(t, reloaded.RemainingAmount.IsZero(), "remaining %s", reloaded.RemainingAmount)

	var completed int64
	require.NoError(t, h.conn.Model(&models.Notification{}).
		Where("user_id = ? AND message LIKE ?", h.vendor.ID, "%marked as completed%").
		Count(&completed).Error)
	assert.Equal(t, int64(1), completed)
}

func TestConcurrentConfirmationsRespectFloor(t *testing.T) {
	h := newHarness(t, config.PaymentsConfig{EnforceRemainingAmountCap: true})
	ctx := context.Background()
	order := dbtest.SeedOrder(t, h.conn, h.vendor, h.supplier, "1000", time.Now().UTC())

	const workers = 10
	ids := make([]uuid.UUID, workers)
	for i := range ids {
		ids[i] = dbtest.SeedPayment(t, h.conn, order, "150").ID
	}

	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = h.payments.ConfirmPayment(ctx, ConfirmPaymentInput{PaymentID: ids[i], ActorID: h.supplier.ID})
		}(i)
	}
	wg.Wait()

	var succeeded, conflicts int
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case pkgerrors.Is(err, pkgerrors.CodeStateConflict):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 6, succeeded)
	assert.Equal(t, 4, conflicts)

	reloaded, err := orders.NewRepository(h.conn).FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.True(t, reloaded.RemainingAmount.Equal(decimal.NewFromInt(100)), "remaining %s", reloaded.RemainingAmount)
}

func TestListPendingScoping(t *testing.T) {
	ctx := context.Background()

	h := newHarness(t, config.PaymentsConfig{})
	mart := dbtest.SeedUser(t, h.conn, "mart", "5550001003", enums.RoleVendor)
	bolt := dbtest.SeedUser(t, h.conn, "bolt", "5550001004", enums.RoleSupplier)
	mine := dbtest.SeedOrder(t, h.conn, h.vendor, h.supplier, "500", time.Now().UTC())
	theirs := dbtest.SeedOrder(t, h.conn, mart, bolt, "500", time.Now().UTC())
	dbtest.SeedPayment(t, h.conn, mine, "10")
	dbtest.SeedPayment(t, h.conn, theirs, "20")

	rows, err := h.payments.ListPending(ctx, h.supplier.ID, enums.RoleSupplier)
	require.NoError(t, err)
	assert.Len(t, rows, 2, "unscoped listing returns every pending payment")

	scoped, err := NewService(ServiceParams{
		Repo:     NewRepository(h.conn),
		Orders:   orders.NewRepository(h.conn),
		Tx:       db.Wrap(h.conn),
		Notifier: noopNotifier{},
		Config:   config.PaymentsConfig{ScopePending: true},
		Logger:   logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
	})
	require.NoError(t, err)

	rows, err = scoped.ListPending(ctx, h.supplier.ID, enums.RoleSupplier)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, mine.ID, rows[0].OrderID)

	rows, err = scoped.ListPending(ctx, mart.ID, enums.RoleVendor)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, theirs.ID, rows[0].OrderID)

	_, err = scoped.ListPending(ctx, mart.ID, enums.Role("Admin"))
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeForbidden))
}

type noopNotifier struct{}

func (noopNotifier) Record(context.Context, *gorm.DB, enums.NotificationAction, notifications.Metadata) (*models.Notification, error) {
	return &models.Notification{}, nil
}

func (noopNotifier) Deliver(context.Context, *models.Notification) bool { return false }
