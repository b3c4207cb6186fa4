package enums

import "fmt"

// NotificationCategory groups notifications for client-side filtering.
type NotificationCategory string

const (
	NotificationCategoryPayment NotificationCategory = "payment"
	NotificationCategoryOrder   NotificationCategory = "order"
)

var validNotificationCategories = []NotificationCategory{
	NotificationCategoryPayment,
	NotificationCategoryOrder,
}

// IsValid checks whether the category matches the canonical enum.
func (n NotificationCategory) IsValid() bool {
	for _, candidate := range validNotificationCategories {
		if candidate == n {
			return true
		}
	}
	return false
}

// NotificationAction is the symbolic event name a notification is built from.
type NotificationAction string

const (
	ActionPaymentRequest NotificationAction = "PaymentRequest"
	ActionAcceptPayment  NotificationAction = "acceptPayment"
	ActionRejectPayment  NotificationAction = "rejectPayment"
	ActionOrderCreated   NotificationAction = "orderCreated"
	ActionOrderAccepted  NotificationAction = "orderAccepted"
	ActionOrderRejected  NotificationAction = "orderRejected"
	ActionOrderCompleted NotificationAction = "orderCompleted"
)

var validNotificationActions = []NotificationAction{
	ActionPaymentRequest,
	ActionAcceptPayment,
	ActionRejectPayment,
	ActionOrderCreated,
	ActionOrderAccepted,
	ActionOrderRejected,
	ActionOrderCompleted,
}

// String implements fmt.Stringer.
func (a NotificationAction) String() string {
	return string(a)
}

// IsValid reports whether the action is recognized.
func (a NotificationAction) IsValid() bool {
	for _, candidate := range validNotificationActions {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseNotificationAction converts raw strings into NotificationAction. Matching is exact.
func ParseNotificationAction(value string) (NotificationAction, error) {
	for _, candidate := range validNotificationActions {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid notification action %q", value)
}
