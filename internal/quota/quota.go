// Package quota implements the supplemented per-tenant quota checker: a
// Redis-backed daily request/token ceiling enforced at the chat and
// retrieval entry points, in the same client-construction idiom
// internal/cache uses for the Cache collaborator.
package quota

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/raghavpatnecha/ragserve/internal/config"
	apperrors "github.com/raghavpatnecha/ragserve/internal/errors"
)

// Checker enforces MaxRequestsPerDay and MaxTokensPerDay per tenant, using
// one Redis counter key per (tenant, day) that expires at day's end.
type Checker struct {
	client  *redis.Client
	enabled bool
	cfg     *config.QuotaConfig
}

func NewChecker(client *redis.Client, cfg *config.QuotaConfig) *Checker {
	return &Checker{client: client, enabled: cfg.Enabled, cfg: cfg}
}

// CheckRequest increments the tenant's daily request counter and returns a
// QuotaExceeded error if it's now over the configured ceiling. Disabled
// quota checking, and any Redis failure, fail open — a quota outage must
// never block retrieval/chat.
func (c *Checker) CheckRequest(ctx context.Context, tenantID string) error {
	if !c.enabled || c.cfg.MaxRequestsPerDay <= 0 {
		return nil
	}
	count, err := c.increment(ctx, requestKey(tenantID), 1)
	if err != nil {
		return nil
	}
	if count > int64(c.cfg.MaxRequestsPerDay) {
		return apperrors.NewQuotaExceededError(fmt.Sprintf("tenant %s exceeded daily request quota", tenantID))
	}
	return nil
}

// ChargeTokens adds to the tenant's daily token counter after a chat turn
// completes and reports whether the tenant is now over the token ceiling
// (informational — the turn that pushed the tenant over is not itself
// rejected, only the next one).
func (c *Checker) ChargeTokens(ctx context.Context, tenantID string, tokens int) (overQuota bool, err error) {
	if !c.enabled || c.cfg.MaxTokensPerDay <= 0 || tokens <= 0 {
		return false, nil
	}
	count, err := c.increment(ctx, tokenKey(tenantID), int64(tokens))
	if err != nil {
		return false, nil
	}
	return count > int64(c.cfg.MaxTokensPerDay), nil
}

// CheckTokens reports whether the tenant is already over its daily token
// ceiling, without charging anything — called before a turn starts.
func (c *Checker) CheckTokens(ctx context.Context, tenantID string) error {
	if !c.enabled || c.cfg.MaxTokensPerDay <= 0 {
		return nil
	}
	count, err := c.client.Get(ctx, tokenKey(tenantID)).Int64()
	if err != nil && err != redis.Nil {
		return nil
	}
	if count > int64(c.cfg.MaxTokensPerDay) {
		return apperrors.NewQuotaExceededError(fmt.Sprintf("tenant %s exceeded daily token quota", tenantID))
	}
	return nil
}

func (c *Checker) increment(ctx context.Context, key string, by int64) (int64, error) {
	pipe := c.client.TxPipeline()
	incr := pipe.IncrBy(ctx, key, by)
	pipe.ExpireNX(ctx, key, untilMidnightUTC())
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return incr.Val(), nil
}

func requestKey(tenantID string) string {
	return fmt.Sprintf("quota:requests:%s:%s", tenantID, dayStamp())
}

func tokenKey(tenantID string) string {
	return fmt.Sprintf("quota:tokens:%s:%s", tenantID, dayStamp())
}

func dayStamp() string {
	return time.Now().UTC().Format("2006-01-02")
}

func untilMidnightUTC() time.Duration {
	now := time.Now().UTC()
	midnight := time.Date(now.Year(), now.Month(), now.Day()+1, 0, 0, 0, 0, time.UTC)
	return midnight.Sub(now)
}
