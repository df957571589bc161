// Package cont carries authenticated request values through context.
package cont

import (
	"context"

	"MarketChat/entity"
)

type contextKey string

const userKey contextKey = "auth-user"

// PutUser stores the authenticated caller in the request context.
func PutUser(ctx context.Context, user *entity.UserAuth) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// GetUser retrieves the authenticated caller, nil if absent.
func GetUser(ctx context.Context) *entity.UserAuth {
	user, _ := ctx.Value(userKey).(*entity.UserAuth)
	return user
}
