package middleware

import (
	"context"

	"github.com/google/uuid"

	"github.com/shopfront/retail-backend/pkg/enums"
	pkgerrors "github.com/shopfront/retail-backend/pkg/errors"
)

type contextKey string

const (
	ctxUserID   contextKey = "user_id"
	ctxUserType contextKey = "user_type"
)

func UserIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxUserID).(string); ok {
		return v
	}
	return ""
}

func UserTypeFromContext(ctx context.Context) enums.UserType {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxUserType).(enums.UserType); ok {
		return v
	}
	return ""
}

// ActorFromContext returns the authenticated user, or uuid.Nil when the
// request is anonymous.
func ActorFromContext(ctx context.Context) (uuid.UUID, enums.UserType) {
	id, err := uuid.Parse(UserIDFromContext(ctx))
	if err != nil {
		return uuid.Nil, ""
	}
	return id, UserTypeFromContext(ctx)
}

// RequireActor is ActorFromContext for handlers mounted behind Auth.
func RequireActor(ctx context.Context) (uuid.UUID, enums.UserType, error) {
	id, userType := ActorFromContext(ctx)
	if id == uuid.Nil {
		return uuid.Nil, "", pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	return id, userType, nil
}

// WithActor injects the identity into the context. Auth uses it; tests use it
// to skip token minting.
func WithActor(ctx context.Context, userID uuid.UUID, userType enums.UserType) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = context.WithValue(ctx, ctxUserID, userID.String())
	return context.WithValue(ctx, ctxUserType, userType)
}
