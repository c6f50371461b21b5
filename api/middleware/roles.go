package middleware

import (
	"net/http"
	"slices"

	"github.com/shopfront/retail-backend/api/responses"
	"github.com/shopfront/retail-backend/pkg/enums"
	pkgerrors "github.com/shopfront/retail-backend/pkg/errors"
	"github.com/shopfront/retail-backend/pkg/logger"
)

// RequireUserType admits only callers whose account type is listed.
func RequireUserType(logg *logger.Logger, allowed ...enums.UserType) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !slices.Contains(allowed, UserTypeFromContext(r.Context())) {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "account type not allowed"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
