package tokens

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Skotchmaster/records/internal/errs"
)

// RevocationChecker is consulted after a token verifies. Tokens are
// stateless, so without a checker a token stays valid until it expires.
type RevocationChecker interface {
	Revoked(ctx context.Context, c *Claims) (bool, error)
}

// Revoker records revocations. Revocations of a subject apply to every token
// of that subject issued strictly before the given instant (second precision).
type Revoker interface {
	RevokeToken(ctx context.Context, jti string, expiresAt time.Time) error
	RevokeSubject(ctx context.Context, subject string, before time.Time) error
}

type NoRevocation struct{}

func (NoRevocation) Revoked(context.Context, *Claims) (bool, error) { return false, nil }

func (NoRevocation) RevokeToken(context.Context, string, time.Time) error { return nil }

func (NoRevocation) RevokeSubject(context.Context, string, time.Time) error { return nil }

type RedisRevocations struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
	now    func() time.Time
}

var (
	_ RevocationChecker = (*RedisRevocations)(nil)
	_ Revoker           = (*RedisRevocations)(nil)
)

// NewRedisRevocations keeps subject cutoffs for tokenTTL, after which every
// token they could affect has expired on its own.
func NewRedisRevocations(rdb *redis.Client, prefix string, tokenTTL time.Duration) *RedisRevocations {
	if prefix == "" {
		prefix = "records:revoked"
	}
	return &RedisRevocations{rdb: rdb, prefix: prefix, ttl: tokenTTL, now: time.Now}
}

func (r *RedisRevocations) tokenKey(jti string) string   { return r.prefix + ":jti:" + jti }
func (r *RedisRevocations) subjectKey(sub string) string { return r.prefix + ":sub:" + sub }

func (r *RedisRevocations) RevokeToken(ctx context.Context, jti string, expiresAt time.Time) error {
	if jti == "" {
		return fmt.Errorf("%w: token has no id", errs.ErrValidation)
	}
	ttl := expiresAt.Sub(r.now())
	if ttl <= 0 {
		return nil
	}
	if err := r.rdb.Set(ctx, r.tokenKey(jti), "1", ttl).Err(); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

func (r *RedisRevocations) RevokeSubject(ctx context.Context, subject string, before time.Time) error {
	if subject == "" {
		return fmt.Errorf("%w: empty subject", errs.ErrValidation)
	}
	cutoff := strconv.FormatInt(before.Unix(), 10)
	if err := r.rdb.Set(ctx, r.subjectKey(subject), cutoff, r.ttl).Err(); err != nil {
		return fmt.Errorf("revoke subject: %w", err)
	}
	return nil
}

func (r *RedisRevocations) Revoked(ctx context.Context, c *Claims) (bool, error) {
	keys := []string{r.subjectKey(c.Subject)}
	if c.ID != "" {
		keys = append(keys, r.tokenKey(c.ID))
	}
	vals, err := r.rdb.MGet(ctx, keys...).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return false, fmt.Errorf("revocation lookup: %w", err)
	}

	if len(vals) > 1 && vals[1] != nil {
		return true, nil
	}
	if len(vals) == 0 || vals[0] == nil {
		return false, nil
	}

	raw, ok := vals[0].(string)
	if !ok {
		return true, nil
	}
	cutoff, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return true, nil
	}
	if c.IssuedAt == nil {
		return true, nil
	}
	return c.IssuedAt.Time.Unix() < cutoff, nil
}
