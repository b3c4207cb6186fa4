package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/paytrack/paytrack-backend/api/middleware"
	"github.com/paytrack/paytrack-backend/internal/notifications"
	"github.com/paytrack/paytrack-backend/internal/orders"
	"github.com/paytrack/paytrack-backend/internal/payments"
	"github.com/paytrack/paytrack-backend/internal/users"
	"github.com/paytrack/paytrack-backend/pkg/db/models"
	"github.com/paytrack/paytrack-backend/pkg/enums"
	pkgerrors "github.com/paytrack/paytrack-backend/pkg/errors"
)

type errorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func authed(req *http.Request, userID uuid.UUID, role enums.Role) *http.Request {
	ctx := middleware.WithUserID(req.Context(), userID.String())
	ctx = middleware.WithRole(ctx, string(role))
	return req.WithContext(ctx)
}

func withURLParam(req *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func decodeError(t *testing.T, resp *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var body errorBody
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode error body: %v (%s)", err, resp.Body.String())
	}
	return body
}

type stubOrdersService struct {
	created      orders.CreateOrderInput
	statusInput  orders.UpdateStatusInput
	statusErr    error
	filterResult []orders.OrderSummary
	filterErr    error
}

func (s *stubOrdersService) CreateOrder(ctx context.Context, input orders.CreateOrderInput) (*models.Order, error) {
	s.created = input
	return &models.Order{ID: uuid.New(), VendorID: input.VendorID, TotalAmount: input.TotalAmount, RemainingAmount: input.TotalAmount, Status: enums.OrderStatusPending}, nil
}

func (s *stubOrdersService) UpdateStatus(ctx context.Context, input orders.UpdateStatusInput) (*models.Order, error) {
	s.statusInput = input
	if s.statusErr != nil {
		return nil, s.statusErr
	}
	return &models.Order{ID: input.OrderID, SupplierID: input.ActorID, Status: input.Status}, nil
}

func (s *stubOrdersService) ListOrders(ctx context.Context, userID uuid.UUID, role enums.Role) ([]orders.OrderSummary, error) {
	return []orders.OrderSummary{}, nil
}

func (s *stubOrdersService) FilterOrders(ctx context.Context, userID uuid.UUID, role enums.Role, counterpartyID uuid.UUID) ([]orders.OrderSummary, error) {
	return s.filterResult, s.filterErr
}

func TestCreateOrderHandler(t *testing.T) {
	svc := &stubOrdersService{}
	vendorID := uuid.New()
	body := `{"supplier_name":"acme","supplier_phone":"5550000001","total_amount":"1000.50","description":"  rice  "}`
	req := authed(httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader(body)), vendorID, enums.RoleVendor)
	resp := httptest.NewRecorder()

	CreateOrder(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.created.VendorID != vendorID || !svc.created.TotalAmount.Equal(decimal.RequireFromString("1000.50")) {
		t.Fatalf("unexpected input %+v", svc.created)
	}
	if svc.created.Description != "rice" {
		t.Fatalf("expected sanitized description, got %q", svc.created.Description)
	}
	var payload struct {
		Data orders.OrderDTO `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload.Data.Status != enums.OrderStatusPending {
		t.Fatalf("unexpected status %s", payload.Data.Status)
	}
}

func TestCreateOrderHandlerValidation(t *testing.T) {
	req := authed(httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader(`{"supplier_name":"acme","supplier_phone":"12"}`)), uuid.New(), enums.RoleVendor)
	resp := httptest.NewRecorder()
	CreateOrder(&stubOrdersService{}, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
	if body := decodeError(t, resp); body.Error.Code != string(pkgerrors.CodeValidation) {
		t.Fatalf("unexpected code %s", body.Error.Code)
	}
}

func TestCreateOrderHandlerRequiresIdentity(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader(`{}`))
	resp := httptest.NewRecorder()
	CreateOrder(&stubOrdersService{}, nil).ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestUpdateOrderStatusHandler(t *testing.T) {
	svc := &stubOrdersService{}
	supplierID, orderID := uuid.New(), uuid.New()

	req := httptest.NewRequest(http.MethodPatch, "/api/v1/orders/"+orderID.String()+"/status", strings.NewReader(`{"status":"accepted"}`))
	req = authed(withURLParam(req, "orderId", orderID.String()), supplierID, enums.RoleSupplier)
	resp := httptest.NewRecorder()
	UpdateOrderStatus(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.statusInput.OrderID != orderID || svc.statusInput.ActorID != supplierID || svc.statusInput.Status != enums.OrderStatusAccepted {
		t.Fatalf("unexpected input %+v", svc.statusInput)
	}
}

func TestUpdateOrderStatusHandlerErrors(t *testing.T) {
	orderID := uuid.New()
	cases := []struct {
		name   string
		body   string
		svcErr error
		status int
		code   pkgerrors.Code
	}{
		{"unknown status", `{"status":"shipped"}`, nil, http.StatusBadRequest, pkgerrors.CodeInvalidStatus},
		{"already decided", `{"status":"rejected"}`, pkgerrors.New(pkgerrors.CodeStateConflict, "order already decided"), http.StatusUnprocessableEntity, pkgerrors.CodeStateConflict},
		{"not found", `{"status":"rejected"}`, pkgerrors.New(pkgerrors.CodeNotFound, "order not found"), http.StatusNotFound, pkgerrors.CodeNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPatch, "/", strings.NewReader(tc.body))
			req = authed(withURLParam(req, "orderId", orderID.String()), uuid.New(), enums.RoleSupplier)
			resp := httptest.NewRecorder()
			UpdateOrderStatus(&stubOrdersService{statusErr: tc.svcErr}, nil).ServeHTTP(resp, req)

			if resp.Code != tc.status {
				t.Fatalf("expected %d got %d", tc.status, resp.Code)
			}
			if body := decodeError(t, resp); body.Error.Code != string(tc.code) {
				t.Fatalf("expected %s got %s", tc.code, body.Error.Code)
			}
		})
	}
}

func TestFilterOrdersHandlerNoMatch(t *testing.T) {
	svc := &stubOrdersService{filterErr: pkgerrors.New(pkgerrors.CodeNoMatch, "no orders found")}
	body := `{"counterparty_id":"` + uuid.NewString() + `"}`
	req := authed(httptest.NewRequest(http.MethodPost, "/api/v1/orders/filter", strings.NewReader(body)), uuid.New(), enums.RoleVendor)
	resp := httptest.NewRecorder()
	FilterOrders(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
	if got := decodeError(t, resp); got.Error.Message != "no orders found" {
		t.Fatalf("unexpected message %q", got.Error.Message)
	}
}

type stubPaymentsService struct {
	confirmErr error
	pending    []models.Payment
}

func (s *stubPaymentsService) RequestPayment(ctx context.Context, input payments.RequestPaymentInput) (*models.Payment, error) {
	return &models.Payment{ID: uuid.New(), OrderID: input.OrderID, PaidBy: input.RequesterID, Amount: input.Amount, Status: enums.PaymentStatusPending}, nil
}

func (s *stubPaymentsService) ConfirmPayment(ctx context.Context, input payments.ConfirmPaymentInput) (*payments.ConfirmResult, error) {
	if s.confirmErr != nil {
		return nil, s.confirmErr
	}
	return &payments.ConfirmResult{
		Payment: &models.Payment{ID: input.PaymentID, Amount: decimal.NewFromInt(400), Status: enums.PaymentStatusConfirmed},
		Order:   &models.Order{ID: uuid.New(), TotalAmount: decimal.NewFromInt(1000), RemainingAmount: decimal.NewFromInt(600)},
	}, nil
}

func (s *stubPaymentsService) ListPending(ctx context.Context, actorID uuid.UUID, role enums.Role) ([]models.Payment, error) {
	return s.pending, nil
}

func TestConfirmPaymentHandler(t *testing.T) {
	paymentID := uuid.New()
	req := httptest.NewRequest(http.MethodPatch, "/", nil)
	req = authed(withURLParam(req, "paymentId", paymentID.String()), uuid.New(), enums.RoleSupplier)
	resp := httptest.NewRecorder()
	ConfirmPayment(&stubPaymentsService{}, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	var payload struct {
		Data struct {
			Payment payments.PaymentDTO `json:"payment"`
			Order   orders.OrderDTO     `json:"order"`
		} `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload.Data.Payment.ID != paymentID || !payload.Data.Order.RemainingAmount.Equal(decimal.NewFromInt(600)) {
		t.Fatalf("unexpected payload %+v", payload.Data)
	}
}

func TestConfirmPaymentHandlerAlreadyConfirmed(t *testing.T) {
	req := httptest.NewRequest(http.MethodPatch, "/", nil)
	req = authed(withURLParam(req, "paymentId", uuid.NewString()), uuid.New(), enums.RoleSupplier)
	resp := httptest.NewRecorder()
	ConfirmPayment(&stubPaymentsService{confirmErr: pkgerrors.New(pkgerrors.CodeAlreadyConfirmed, "payment already confirmed")}, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
	if body := decodeError(t, resp); body.Error.Code != string(pkgerrors.CodeAlreadyConfirmed) {
		t.Fatalf("unexpected code %s", body.Error.Code)
	}
}

func TestListPendingPaymentsHandlerReturnsEmptyArray(t *testing.T) {
	req := authed(httptest.NewRequest(http.MethodGet, "/api/v1/payments/pending", nil), uuid.New(), enums.RoleSupplier)
	resp := httptest.NewRecorder()
	ListPendingPayments(&stubPaymentsService{}, nil).ServeHTTP(resp, req)

	if strings.TrimSpace(resp.Body.String()) != `{"data":[]}` {
		t.Fatalf("expected empty array, got %s", resp.Body.String())
	}
}

type stubCounterparties struct {
	rows []users.CounterpartyDTO
	role enums.Role
}

func (s *stubCounterparties) ListCounterparties(ctx context.Context, userID uuid.UUID, role enums.Role) ([]users.CounterpartyDTO, error) {
	s.role = role
	return s.rows, nil
}

func TestCounterpartiesHandler(t *testing.T) {
	empty := &stubCounterparties{}
	req := authed(httptest.NewRequest(http.MethodGet, "/api/v1/suppliers", nil), uuid.New(), enums.RoleVendor)
	resp := httptest.NewRecorder()
	Counterparties(empty, nil).ServeHTTP(resp, req)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
	if body := decodeError(t, resp); body.Error.Code != string(pkgerrors.CodeNoMatch) || body.Error.Message != "no suppliers found" {
		t.Fatalf("unexpected error %+v", body.Error)
	}

	found := &stubCounterparties{rows: []users.CounterpartyDTO{{ID: uuid.New(), Username: "shop"}}}
	req = authed(httptest.NewRequest(http.MethodGet, "/api/v1/vendors", nil), uuid.New(), enums.RoleSupplier)
	resp = httptest.NewRecorder()
	Counterparties(found, nil).ServeHTTP(resp, req)
	if resp.Code != http.StatusOK || found.role != enums.RoleSupplier {
		t.Fatalf("expected 200 for supplier, got %d role=%s", resp.Code, found.role)
	}
}

type stubNotifications struct {
	action   enums.NotificationAction
	meta     notifications.Metadata
	err      error
	markErr  error
	markedID uuid.UUID
}

func (s *stubNotifications) Dispatch(ctx context.Context, action enums.NotificationAction, meta notifications.Metadata) (*models.Notification, error) {
	s.action, s.meta = action, meta
	if s.err != nil {
		return nil, s.err
	}
	return &models.Notification{ID: uuid.New(), Category: enums.NotificationCategoryOrder, Message: "ok"}, nil
}

func (s *stubNotifications) ListFor(ctx context.Context, recipient uuid.UUID) ([]models.Notification, error) {
	return []models.Notification{}, nil
}

func (s *stubNotifications) MarkRead(ctx context.Context, recipient, notificationID uuid.UUID) error {
	s.markedID = notificationID
	return s.markErr
}

func (s *stubNotifications) MarkAllRead(ctx context.Context, recipient uuid.UUID) (int64, error) {
	return 3, nil
}

func TestSendNotificationHandler(t *testing.T) {
	svc := &stubNotifications{}
	body := `{"action":"orderCreated","metadata":{"order_id":"o-1","user_id":"` + uuid.NewString() + `"}}`
	req := authed(httptest.NewRequest(http.MethodPost, "/api/v1/notifications/send", strings.NewReader(body)), uuid.New(), enums.RoleVendor)
	resp := httptest.NewRecorder()
	SendNotification(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.action != enums.ActionOrderCreated || svc.meta["order_id"] != "o-1" {
		t.Fatalf("unexpected dispatch %s %+v", svc.action, svc.meta)
	}
}

func TestSendNotificationHandlerInvalidAction(t *testing.T) {
	svc := &stubNotifications{err: pkgerrors.New(pkgerrors.CodeInvalidAction, `invalid action "Bogus"`)}
	req := authed(httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"action":"Bogus"}`)), uuid.New(), enums.RoleVendor)
	resp := httptest.NewRecorder()
	SendNotification(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
	if svc.meta == nil {
		t.Fatal("absent metadata should reach the dispatcher as an empty map")
	}
}

func TestMarkNotificationReadHandler(t *testing.T) {
	svc := &stubNotifications{}
	id := uuid.New()
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req = authed(withURLParam(req, "notificationId", id.String()), uuid.New(), enums.RoleVendor)
	resp := httptest.NewRecorder()
	MarkNotificationRead(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK || svc.markedID != id {
		t.Fatalf("expected 200 and id %s, got %d %s", id, resp.Code, svc.markedID)
	}

	svc.markErr = pkgerrors.New(pkgerrors.CodeNotFound, "notification not found")
	resp = httptest.NewRecorder()
	MarkNotificationRead(svc, nil).ServeHTTP(resp, req)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
}
