// Package identity carries the authenticated user id through a request context.
package identity

import (
	"context"
	"strings"
)

type ctxKey struct{}

// WithUserID returns a context carrying userID. Blank ids are ignored.
func WithUserID(ctx context.Context, userID string) context.Context {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return ctx
	}
	return context.WithValue(ctx, ctxKey{}, userID)
}

// UserID returns the current user id, if any.
func UserID(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	id, ok := ctx.Value(ctxKey{}).(string)
	return id, ok && id != ""
}
