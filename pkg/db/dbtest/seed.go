package dbtest

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/paytrack/paytrack-backend/pkg/db/models"
	"github.com/paytrack/paytrack-backend/pkg/enums"
)

// SeedUser inserts a user with a placeholder password hash.
func SeedUser(t *testing.T, conn *gorm.DB, username, phone string, role enums.Role) *models.User {
	t.Helper()
	user := &models.User{
		Username:     username,
		Phone:        phone,
		PasswordHash: "x",
		Role:         role,
	}
	if err := conn.Create(user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return user
}

// SeedOrder inserts a pending order whose remaining amount equals its total.
func SeedOrder(t *testing.T, conn *gorm.DB, vendor, supplier *models.User, total string, createdAt time.Time) *models.Order {
	t.Helper()
	amount := decimal.RequireFromString(total)
	order := &models.Order{
		VendorID:        vendor.ID,
		SupplierID:      supplier.ID,
		TotalAmount:     amount,
		RemainingAmount: amount,
		Description:     "seeded",
		Status:          enums.OrderStatusPending,
		CreatedAt:       createdAt,
	}
	if err := conn.Create(order).Error; err != nil {
		t.Fatalf("seed order: %v", err)
	}
	return order
}

// SeedPayment inserts a pending payment request.
func SeedPayment(t *testing.T, conn *gorm.DB, order *models.Order, amount string) *models.Payment {
	t.Helper()
	payment := &models.Payment{
		OrderID: order.ID,
		PaidBy:  order.VendorID,
		Amount:  decimal.RequireFromString(amount),
		Status:  enums.PaymentStatusPending,
	}
	if err := conn.Create(payment).Error; err != nil {
		t.Fatalf("seed payment: %v", err)
	}
	return payment
}
