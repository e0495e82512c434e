package auth

import "context"

// ContextKey is a type for context keys to avoid collisions
type ContextKey string

const UserIDContextKey ContextKey = "user_id"

// WithUserID attaches the authenticated user's id to ctx.
func WithUserID(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, UserIDContextKey, userID)
}

// GetUserIDFromContext extracts the user ID from the request context
func GetUserIDFromContext(ctx context.Context) (int64, bool) {
	userID, ok := ctx.Value(UserIDContextKey).(int64)
	return userID, ok
}

// ActorFromContext returns the authenticated user's id for audit entries, or
// nil when the request was not authenticated.
func ActorFromContext(ctx context.Context) *int64 {
	userID, ok := GetUserIDFromContext(ctx)
	if !ok {
		return nil
	}
	return &userID
}
