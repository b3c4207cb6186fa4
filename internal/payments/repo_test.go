package payments

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paytrack/paytrack-backend/pkg/db/dbtest"
	"github.com/paytrack/paytrack-backend/pkg/enums"
)

func TestConfirmPendingIsSingleShot(t *testing.T) {
	conn := dbtest.Open(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	shop := dbtest.SeedUser(t, conn, "shop", "5550002000", enums.RoleVendor)
	acme := dbtest.SeedUser(t, conn, "acme", "5550002001", enums.RoleSupplier)
	order := dbtest.SeedOrder(t, conn, shop, acme, "100", time.Now().UTC())
	payment := dbtest.SeedPayment(t, conn, order, "25")

	at := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	ok, err := repo.ConfirmPending(ctx, payment.ID, at)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.ConfirmPending(ctx, payment.ID, at.Add(time.Minute))
	require.NoError(t, err)
	assert.False(t, ok)

	stored, err := repo.FindByID(ctx, payment.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.PaymentStatusConfirmed, stored.Status)
	require.NotNil(t, stored.ConfirmedAt)
	assert.True(t, stored.ConfirmedAt.Equal(at))
}

func TestListPendingExcludesConfirmed(t *testing.T) {
	conn := dbtest.Open(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	shop := dbtest.SeedUser(t, conn, "shop", "5550002100", enums.RoleVendor)
	acme := dbtest.SeedUser(t, conn, "acme", "5550002101", enums.RoleSupplier)
	order := dbtest.SeedOrder(t, conn, shop, acme, "100", time.Now().UTC())
	open := dbtest.SeedPayment(t, conn, order, "10")
	done := dbtest.SeedPayment(t, conn, order, "20")
	_, err := repo.ConfirmPending(ctx, done.ID, time.Now().UTC())
	require.NoError(t, err)

	rows, err := repo.ListPending(ctx, PendingFilter{SupplierID: &acme.ID})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, open.ID, rows[0].ID)

	rows, err = repo.ListPending(ctx, PendingFilter{PaidBy: &acme.ID})
	require.NoError(t, err)
	assert.Empty(t, rows)
}
