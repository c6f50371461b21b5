package reviews

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/shopfront/retail-backend/api/middleware"
	internalreviews "github.com/shopfront/retail-backend/internal/reviews"
	"github.com/shopfront/retail-backend/pkg/enums"
	pkgerrors "github.com/shopfront/retail-backend/pkg/errors"
)

type stubComments struct {
	err         error
	lastProduct uuid.UUID
	lastCursor  string
	lastLimit   int
	lastInput   internalreviews.AddCommentInput
}

func (s *stubComments) AddComment(ctx context.Context, userID, productID uuid.UUID, input internalreviews.AddCommentInput) (*internalreviews.CommentView, error) {
	s.lastProduct = productID
	s.lastInput = input
	if s.err != nil {
		return nil, s.err
	}
	return &internalreviews.CommentView{ID: uuid.New(), UserID: userID, Text: input.Text, Rating: input.Rating}, nil
}

func (s *stubComments) ListComments(ctx context.Context, productID uuid.UUID, cursor string, limit int) (*internalreviews.CommentList, error) {
	s.lastProduct = productID
	s.lastCursor = cursor
	s.lastLimit = limit
	return &internalreviews.CommentList{Comments: []internalreviews.CommentView{}}, s.err
}

func withProduct(req *http.Request, id uuid.UUID) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("productId", id.String())
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func TestListComments(t *testing.T) {
	svc := &stubComments{}
	productID := uuid.New()
	req := withProduct(httptest.NewRequest(http.MethodGet, "/api/v1/products/x/comments?limit=5&cursor=next", nil), productID)
	resp := httptest.NewRecorder()
	ListComments(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.lastProduct != productID || svc.lastLimit != 5 || svc.lastCursor != "next" {
		t.Fatalf("unexpected list call %+v", svc)
	}
}

func TestAddComment(t *testing.T) {
	svc := &stubComments{}
	productID := uuid.New()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/products/x/comments", strings.NewReader(`{"text":"great","rating":5}`))
	req = withProduct(req.WithContext(middleware.WithActor(req.Context(), uuid.New(), enums.UserTypeBuyer)), productID)
	resp := httptest.NewRecorder()
	AddComment(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.lastInput.Rating != 5 || svc.lastProduct != productID {
		t.Fatalf("unexpected input %+v", svc.lastInput)
	}
}

func TestAddCommentRatingOutOfRange(t *testing.T) {
	svc := &stubComments{}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/products/x/comments", strings.NewReader(`{"text":"meh","rating":6}`))
	req = withProduct(req.WithContext(middleware.WithActor(req.Context(), uuid.New(), enums.UserTypeBuyer)), uuid.New())
	resp := httptest.NewRecorder()
	AddComment(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
	if svc.lastProduct != uuid.Nil {
		t.Fatal("service should not be called")
	}
}

func TestAddCommentUnknownProduct(t *testing.T) {
	svc := &stubComments{err: pkgerrors.New(pkgerrors.CodeNotFound, "product not found")}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/products/x/comments", strings.NewReader(`{"text":"ok","rating":3}`))
	req = withProduct(req.WithContext(middleware.WithActor(req.Context(), uuid.New(), enums.UserTypeBuyer)), uuid.New())
	resp := httptest.NewRecorder()
	AddComment(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
}

func TestAddCommentAnonymous(t *testing.T) {
	req := withProduct(httptest.NewRequest(http.MethodPost, "/api/v1/products/x/comments", strings.NewReader(`{"text":"ok","rating":3}`)), uuid.New())
	resp := httptest.NewRecorder()
	AddComment(&stubComments{}, nil).ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}
