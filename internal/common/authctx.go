package common

import "context"

type ctxKey string

const (
	accountIDKey ctxKey = "auth/account-id"
	roleKey      ctxKey = "auth/role"
)

// RoleAdmin marks requesters allowed to act on subscriptions they do not own.
const RoleAdmin = "admin"

// WithAccountID stores the authenticated account identifier on the context.
func WithAccountID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, accountIDKey, id)
}

// AccountID extracts the authenticated account identifier from the context.
func AccountID(ctx context.Context) (string, bool) {
	v := ctx.Value(accountIDKey)
	if v == nil {
		return "", false
	}
	id, ok := v.(string)
	return id, ok
}

// WithRole stores the requester role on the context.
func WithRole(ctx context.Context, role string) context.Context {
	return context.WithValue(ctx, roleKey, role)
}

// Role extracts the requester role from the context, empty when absent.
func Role(ctx context.Context) string {
	if v, ok := ctx.Value(roleKey).(string); ok {
		return v
	}
	return ""
}
