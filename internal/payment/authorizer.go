package payment

import (
	"context"
	"errors"
	"strings"

	redis "github.com/redis/go-redis/v9"
)

// Authorizer abstracts the "charge authorized" fact the orchestrator needs
// before fulfilling a purchase. The gateway protocol itself (card
// authorization, webhooks) lives outside this service; only the resulting
// boolean crosses the boundary.
type Authorizer interface {
	Authorized(ctx context.Context, accountID string) (bool, error)
}

// ConfirmationStore reads charge confirmations the external gateway callback
// wrote into Redis. The key is consumed on read so one confirmation covers
// exactly one fulfillment run.
type ConfirmationStore struct {
	R      *redis.Client
	Prefix string
}

func (c ConfirmationStore) key(accountID string) string {
	prefix := strings.TrimSpace(c.Prefix)
	if prefix == "" {
		prefix = "charge:authorized"
	}
	return prefix + ":" + accountID
}

// Authorized reports and consumes the pending confirmation for the account.
func (c ConfirmationStore) Authorized(ctx context.Context, accountID string) (bool, error) {
	if c.R == nil {
		return false, errors.New("payment: redis client not configured")
	}
	deleted, err := c.R.Del(ctx, c.key(accountID)).Result()
	if err != nil {
		return false, err
	}
	return deleted > 0, nil
}

// Confirm records an authorized charge for the account. Called by the
// gateway callback surface, exposed here so tests and tooling can arrange
// confirmations.
func (c ConfirmationStore) Confirm(ctx context.Context, accountID string) error {
	if c.R == nil {
		return errors.New("payment: redis client not configured")
	}
	return c.R.Set(ctx, c.key(accountID), "1", 0).Err()
}

// StaticAuthorizer always answers the same way. Used in development and in
// tests that are not exercising the payment boundary.
type StaticAuthorizer struct {
	Allow bool
}

// Authorized implements Authorizer.
func (s StaticAuthorizer) Authorized(context.Context, string) (bool, error) {
	return s.Allow, nil
}
