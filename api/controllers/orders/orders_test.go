package orders

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/shopfront/retail-backend/api/middleware"
	internalorders "github.com/shopfront/retail-backend/internal/orders"
	"github.com/shopfront/retail-backend/pkg/enums"
	pkgerrors "github.com/shopfront/retail-backend/pkg/errors"
)

type stubOrdersService struct {
	lastList     internalorders.ListParams
	lastDetail   uuid.UUID
	lastChange   internalorders.ChangeStatusInput
	lastCheckout internalorders.CheckoutInput
	err          error
}

func (s *stubOrdersService) List(ctx context.Context, params internalorders.ListParams) (*internalorders.OrderList, error) {
	s.lastList = params
	if s.err != nil {
		return nil, s.err
	}
	return &internalorders.OrderList{Orders: []internalorders.OrderSummary{}}, nil
}

func (s *stubOrdersService) Detail(ctx context.Context, actor internalorders.Actor, orderID uuid.UUID) (*internalorders.OrderView, error) {
	s.lastDetail = orderID
	if s.err != nil {
		return nil, s.err
	}
	return &internalorders.OrderView{ID: orderID, UserID: actor.UserID}, nil
}

func (s *stubOrdersService) ChangeStatus(ctx context.Context, input internalorders.ChangeStatusInput) (*internalorders.OrderView, error) {
	s.lastChange = input
	if s.err != nil {
		return nil, s.err
	}
	return &internalorders.OrderView{ID: input.OrderID, Status: input.Status}, nil
}

func (s *stubOrdersService) Checkout(ctx context.Context, input internalorders.CheckoutInput) (*internalorders.OrderView, error) {
	s.lastCheckout = input
	if s.err != nil {
		return nil, s.err
	}
	return &internalorders.OrderView{ID: uuid.New(), Status: enums.OrderStatusOrdered}, nil
}

func withActor(req *http.Request, userID uuid.UUID, userType enums.UserType) *http.Request {
	return req.WithContext(middleware.WithActor(req.Context(), userID, userType))
}

func withOrderID(req *http.Request, id string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("orderId", id)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func TestListPassesFilters(t *testing.T) {
	svc := &stubOrdersService{}
	userID := uuid.New()
	req := withActor(httptest.NewRequest(http.MethodGet, "/api/v1/orders?limit=10&cursor=abc&status=sent", nil), userID, enums.UserTypeBuyer)
	resp := httptest.NewRecorder()
	List(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.lastList.Actor.UserID != userID || svc.lastList.Limit != 10 || svc.lastList.Cursor != "abc" {
		t.Fatalf("unexpected params %+v", svc.lastList)
	}
	if svc.lastList.Status == nil || *svc.lastList.Status != enums.OrderStatusSent {
		t.Fatalf("expected sent filter, got %v", svc.lastList.Status)
	}
}

func TestListRejectsBadInput(t *testing.T) {
	for name, target := range map[string]string{
		"limit":  "/api/v1/orders?limit=1000",
		"status": "/api/v1/orders?status=lost",
	} {
		t.Run(name, func(t *testing.T) {
			req := withActor(httptest.NewRequest(http.MethodGet, target, nil), uuid.New(), enums.UserTypeBuyer)
			resp := httptest.NewRecorder()
			List(&stubOrdersService{}, nil).ServeHTTP(resp, req)
			if resp.Code != http.StatusBadRequest {
				t.Fatalf("expected 400 got %d", resp.Code)
			}
		})
	}
}

func TestListRequiresActor(t *testing.T) {
	resp := httptest.NewRecorder()
	List(&stubOrdersService{}, nil).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil))
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestDetailNotFound(t *testing.T) {
	svc := &stubOrdersService{err: pkgerrors.New(pkgerrors.CodeNotFound, "order not found")}
	orderID := uuid.New()
	req := withOrderID(withActor(httptest.NewRequest(http.MethodGet, "/api/v1/orders/x", nil), uuid.New(), enums.UserTypeBuyer), orderID.String())
	resp := httptest.NewRecorder()
	Detail(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
	if svc.lastDetail != orderID {
		t.Fatalf("expected lookup of %s", orderID)
	}
}

func TestChangeStatus(t *testing.T) {
	svc := &stubOrdersService{}
	shopUser := uuid.New()
	orderID := uuid.New()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders/x/status", strings.NewReader(`{"status":" Confirmed "}`))
	req = withOrderID(withActor(req, shopUser, enums.UserTypeShop), orderID.String())
	resp := httptest.NewRecorder()
	ChangeStatus(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	got := svc.lastChange
	if got.OrderID != orderID || got.Status != enums.OrderStatusConfirmed {
		t.Fatalf("unexpected input %+v", got)
	}
	if got.Actor.UserID != shopUser || got.Actor.UserType != enums.UserTypeShop {
		t.Fatalf("unexpected actor %+v", got.Actor)
	}
}

func TestChangeStatusUnknownStatus(t *testing.T) {
	svc := &stubOrdersService{}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders/x/status", strings.NewReader(`{"status":"teleported"}`))
	req = withOrderID(withActor(req, uuid.New(), enums.UserTypeManager), uuid.NewString())
	resp := httptest.NewRecorder()
	ChangeStatus(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
	if svc.lastChange.OrderID != uuid.Nil {
		t.Fatal("service should not be called")
	}
}

func TestChangeStatusDisallowedTransition(t *testing.T) {
	svc := &stubOrdersService{err: pkgerrors.New(pkgerrors.CodeStateConflict, "transition not allowed")}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders/x/status", strings.NewReader(`{"status":"delivered"}`))
	req = withOrderID(withActor(req, uuid.New(), enums.UserTypeManager), uuid.NewString())
	resp := httptest.NewRecorder()
	ChangeStatus(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 got %d", resp.Code)
	}
}

func TestCheckoutWithContact(t *testing.T) {
	svc := &stubOrdersService{}
	userID := uuid.New()
	contactID := uuid.New()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader(`{"contact_id":"`+contactID.String()+`"}`))
	req = withActor(req, userID, enums.UserTypeBuyer)
	resp := httptest.NewRecorder()
	Checkout(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.lastCheckout.UserID != userID || svc.lastCheckout.ContactID == nil || *svc.lastCheckout.ContactID != contactID {
		t.Fatalf("unexpected checkout input %+v", svc.lastCheckout)
	}
}

func TestCheckoutWithoutBody(t *testing.T) {
	svc := &stubOrdersService{}
	req := withActor(httptest.NewRequest(http.MethodPost, "/api/v1/checkout", nil), uuid.New(), enums.UserTypeBuyer)
	resp := httptest.NewRecorder()
	Checkout(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d", resp.Code)
	}
	if svc.lastCheckout.ContactID != nil {
		t.Fatalf("expected no contact, got %v", svc.lastCheckout.ContactID)
	}
}

func TestCheckoutInsufficientStock(t *testing.T) {
	svc := &stubOrdersService{err: pkgerrors.New(pkgerrors.CodeInsufficient, "insufficient stock").
		WithDetails(map[string]any{"shortages": []map[string]any{{"requested": 3, "available": 1}}})}
	req := withActor(httptest.NewRequest(http.MethodPost, "/api/v1/checkout", nil), uuid.New(), enums.UserTypeBuyer)
	resp := httptest.NewRecorder()
	Checkout(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409 got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), "shortages") {
		t.Fatalf("expected shortage details in %s", resp.Body.String())
	}
}
