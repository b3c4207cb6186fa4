package dbtest

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/paytrack/paytrack-backend/pkg/db/models"
	"github.com/paytrack/paytrack-backend/pkg/enums"
)

func TestSchemaEnforcesConstraints(t *testing.T) {
	conn := Open(t)
	vendor := SeedUser(t, conn, "shop", "5550009000", enums.RoleVendor)
	supplier := SeedUser(t, conn, "acme", "5550009001", enums.RoleSupplier)
	order := SeedOrder(t, conn, vendor, supplier, "100", time.Now().UTC())

	orphan := &models.Order{
		VendorID:        uuid.New(),
		SupplierID:      supplier.ID,
		TotalAmount:     decimal.NewFromInt(10),
		RemainingAmount: decimal.NewFromInt(10),
		Status:          enums.OrderStatusPending,
	}
	assert.Error(t, conn.Create(orphan).Error, "orders.vendor_id must reference a user")

	assert.Error(t, conn.Model(&models.Order{}).Where("id = ?", order.ID).Update("status", "shipped").Error)

	payment := SeedPayment(t, conn, order, "10")
	assert.Error(t, conn.Model(&models.Payment{}).Where("id = ?", payment.ID).Update("status", "refunded").Error)

	bad := &models.Notification{UserID: vendor.ID, Category: "billing", Message: "x", Metadata: datatypes.JSON(`{}`)}
	assert.Error(t, conn.Create(bad).Error)
}

func TestNotificationRecipientNeedNotExist(t *testing.T) {
	conn := Open(t)
	n := &models.Notification{UserID: uuid.New(), Category: enums.NotificationCategoryOrder, Message: "hello", Metadata: datatypes.JSON(`{}`)}
	require.NoError(t, conn.Create(n).Error)
}
