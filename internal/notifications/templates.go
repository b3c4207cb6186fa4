package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/paytrack/paytrack-backend/pkg/db"
	"github.com/paytrack/paytrack-backend/pkg/enums"
	pkgerrors "github.com/paytrack/paytrack-backend/pkg/errors"
)

// Metadata keys referenced by templates.
const (
	KeyOrderID        = "order_id"
	KeyAmount         = "amount"
	KeyPaymentID      = "payment_id"
	KeyUserID         = "user_id"
	KeySenderID       = "sender_id"
	keySenderUsername = "sender_username"
)

// Metadata is the opaque payload attached to a notification.
type Metadata map[string]any

type template struct {
	category enums.NotificationCategory
	required []string
	text     string
}

var templates = map[enums.NotificationAction]template{
	enums.ActionPaymentRequest: {
		category: enums.NotificationCategoryPayment,
		required: []string{KeyOrderID, KeyAmount, KeySenderID},
		text:     "{sender_username} sent request of {amount} for Order ID: {order_id}.",
	},
	enums.ActionAcceptPayment: {
		category: enums.NotificationCategoryPayment,
		required: []string{KeyOrderID, KeyAmount, KeyPaymentID},
		text:     "Payment of {amount} has been accepted for Order ID: {order_id} (Payment ID: {payment_id}).",
	},
	enums.ActionRejectPayment: {
		category: enums.NotificationCategoryPayment,
		required: []string{KeyOrderID, KeyAmount, KeyPaymentID},
		text:     "Payment of {amount} has been rejected for Order ID: {order_id} (Payment ID: {payment_id}).",
	},
	enums.ActionOrderCreated: {
		category: enums.NotificationCategoryOrder,
		required: []string{KeyOrderID, KeyUserID},
		text:     "A new order has been created with Order ID: {order_id}.",
	},
	enums.ActionOrderAccepted: {
		category: enums.NotificationCategoryOrder,
		required: []string{KeyOrderID, KeyAmount, KeyUserID},
		text:     "Your order of amount: {amount} with orderID: {order_id} was accepted.",
	},
	enums.ActionOrderRejected: {
		category: enums.NotificationCategoryOrder,
		required: []string{KeyOrderID, KeyAmount, KeyUserID},
		text:     "Your order of amount: {amount} with orderID: {order_id} was rejected.",
	},
	enums.ActionOrderCompleted: {
		category: enums.NotificationCategoryOrder,
		required: []string{KeyOrderID},
		text:     "Order ID: {order_id} has been marked as completed.",
	},
}

var placeholderRe = regexp.MustCompile(`\{([a-z_]+)\}`)

// Resolved is a template rendered for one recipient.
type Resolved struct {
	RecipientID uuid.UUID
	Message     string
	Category    enums.NotificationCategory
}

// Directory answers the lookups PaymentRequest needs.
type Directory interface {
	WithTx(tx *gorm.DB) Directory
	OrderSupplier(ctx context.Context, orderID uuid.UUID) (uuid.UUID, error)
	Username(ctx context.Context, userID uuid.UUID) (string, error)
}

// Resolver turns an action and its metadata into a recipient and message.
type Resolver struct {
	directory Directory
}

func NewResolver(directory Directory) (*Resolver, error) {
	if directory == nil {
		return nil, fmt.Errorf("notification directory required")
	}
	return &Resolver{directory: directory}, nil
}

// WithTx returns a resolver whose lookups run on tx.
func (r *Resolver) WithTx(tx *gorm.DB) *Resolver {
	if tx == nil {
		return r
	}
	return &Resolver{directory: r.directory.WithTx(tx)}
}

// Resolve validates metadata for action and renders its template.
func (r *Resolver) Resolve(ctx context.Context, action enums.NotificationAction, meta Metadata) (Resolved, error) {
	tmpl, ok := templates[action]
	if !ok {
		return Resolved{}, pkgerrors.New(pkgerrors.CodeInvalidAction, fmt.Sprintf("invalid action %q", action))
	}

	var missing []string
	for _, key := range tmpl.required {
		if !present(meta, key) {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return Resolved{}, pkgerrors.New(pkgerrors.CodeMissingMetadata, fmt.Sprintf("missing required metadata for %s", action)).
			WithDetails(map[string]any{"missing": missing})
	}

	vars := make(map[string]string, len(meta)+1)
	for key, value := range meta {
		vars[key] = render(value)
	}

	var recipient uuid.UUID
	if action == enums.ActionPaymentRequest {
		orderID, err := parseID(vars[KeyOrderID], KeyOrderID)
		if err != nil {
			return Resolved{}, err
		}
		senderID, err := parseID(vars[KeySenderID], KeySenderID)
		if err != nil {
			return Resolved{}, err
		}
		recipient, err = r.directory.OrderSupplier(ctx, orderID)
		if err != nil {
			return Resolved{}, lookupError(err, "order not found", "lookup order supplier")
		}
		username, err := r.directory.Username(ctx, senderID)
		if err != nil {
			return Resolved{}, lookupError(err, "sender not found", "lookup sender")
		}
		vars[keySenderUsername] = username
	} else {
		var err error
		recipient, err = parseID(vars[KeyUserID], KeyUserID)
		if err != nil {
			return Resolved{}, err
		}
	}

	return Resolved{
		RecipientID: recipient,
		Message:     substitute(tmpl.text, vars),
		Category:    tmpl.category,
	}, nil
}

// substitute replaces {key} tokens literally. Unknown keys render empty.
func substitute(text string, vars map[string]string) string {
	return placeholderRe.ReplaceAllStringFunc(text, func(token string) string {
		return vars[strings.Trim(token, "{}")]
	})
}

func present(meta Metadata, key string) bool {
	value, ok := meta[key]
	if !ok || value == nil {
		return false
	}
	if s, isString := value.(string); isString {
		return strings.TrimSpace(s) != ""
	}
	return true
}

func render(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case json.Number:
		return v.String()
	case decimal.Decimal:
		return v.String()
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

func parseID(raw, key string) (uuid.UUID, error) {
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, key+" is required to address the notification")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid "+key)
	}
	return id, nil
}

func lookupError(err error, notFound, op string) error {
	if db.IsNotFound(err) {
		return pkgerrors.New(pkgerrors.CodeNotFound, notFound)
	}
	return pkgerrors.Wrap(pkgerrors.CodeStorage, err, op)
}
