package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/shopfront/retail-backend/pkg/auth/authtest"
	"github.com/shopfront/retail-backend/pkg/enums"
)

type capturedActor struct {
	called   bool
	userID   uuid.UUID
	userType enums.UserType
}

func capture(c *capturedActor) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c.called = true
		c.userID, c.userType = ActorFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthRejectsMissingToken(t *testing.T) {
	var c capturedActor
	rec := httptest.NewRecorder()
	Auth(authtest.Config(), nil)(capture(&c)).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, c.called)
}

func TestAuthRejectsInvalidAndExpiredTokens(t *testing.T) {
	cfg := authtest.Config()
	expired := authtest.Mint(t, cfg, uuid.New(), enums.UserTypeBuyer, -time.Minute)

	for _, header := range []string{"Bearer invalid", "Bearer " + expired, "Basic abc"} {
		var c capturedActor
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", header)
		rec := httptest.NewRecorder()
		Auth(cfg, nil)(capture(&c)).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code, header)
		assert.False(t, c.called)
	}
}

func TestAuthSeedsActor(t *testing.T) {
	cfg := authtest.Config()
	userID := uuid.New()
	token := authtest.Mint(t, cfg, userID, enums.UserTypeShop, time.Hour)

	var c capturedActor
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "bearer "+token)
	rec := httptest.NewRecorder()
	Auth(cfg, nil)(capture(&c)).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, userID, c.userID)
	assert.Equal(t, enums.UserTypeShop, c.userType)
}

func TestOptionalAuthAllowsAnonymous(t *testing.T) {
	var c capturedActor
	rec := httptest.NewRecorder()
	OptionalAuth(authtest.Config(), nil)(capture(&c)).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, c.called)
	assert.Equal(t, uuid.Nil, c.userID)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer nope")
	rec = httptest.NewRecorder()
	OptionalAuth(authtest.Config(), nil)(capture(&capturedActor{})).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireUserType(t *testing.T) {
	handler := RequireUserType(nil, enums.UserTypeManager, enums.UserTypeAdmin)(okHandler())

	for userType, want := range map[enums.UserType]int{
		enums.UserTypeAdmin:   http.StatusOK,
		enums.UserTypeManager: http.StatusOK,
		enums.UserTypeBuyer:   http.StatusForbidden,
		"":                    http.StatusForbidden,
	} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if userType != "" {
			req = req.WithContext(WithActor(req.Context(), uuid.New(), userType))
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, want, rec.Code, string(userType))
	}
}
