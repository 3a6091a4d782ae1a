// internal/catalog/requestguard/guard.go
package requestguard

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const DefaultPrefix = "catalog:reqtoken:"

// Guard hands out a monotonically increasing token per scope. A listing
// response is applied only when it carries the latest token of its scope.
type Guard struct {
	client redis.Cmdable
	prefix string
	ttl    time.Duration
}

func New(client redis.Cmdable, prefix string, ttl time.Duration) *Guard {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Guard{client: client, prefix: prefix, ttl: ttl}
}

// Scope builds the guard scope for one listing of one session.
func Scope(sessionID, listingKey string) string {
	if sessionID == "" {
		return ""
	}
	if listingKey == "" {
		return sessionID
	}
	return sessionID + ":" + strings.ToLower(listingKey)
}

// ListingKey identifies a category listing, optionally narrowed to a section.
func ListingKey(categoryID, sectionID string) string {
	if sectionID == "" {
		return categoryID
	}
	return categoryID + "/" + sectionID
}

func (g *Guard) key(scope string) string {
	return g.prefix + scope
}

// Issue records a new request for scope and returns its token.
func (g *Guard) Issue(ctx context.Context, scope string) (int64, error) {
	if scope == "" {
		return 0, fmt.Errorf("request scope is required")
	}

	var incr *redis.IntCmd
	_, err := g.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, g.key(scope))
		if g.ttl > 0 {
			pipe.Expire(ctx, g.key(scope), g.ttl)
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("issue request token: %w", err)
	}
	return incr.Val(), nil
}

// Latest returns the last token issued for scope, or 0 when none was.
func (g *Guard) Latest(ctx context.Context, scope string) (int64, error) {
	v, err := g.client.Get(ctx, g.key(scope)).Int64()
	if stderrors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read request token: %w", err)
	}
	return v, nil
}

// IsCurrent reports whether token is still the latest for scope. Callers
// that did not take part in the guard (no scope or zero token) always pass.
func (g *Guard) IsCurrent(ctx context.Context, scope string, token int64) (bool, error) {
	if scope == "" || token == 0 {
		return true, nil
	}
	latest, err := g.Latest(ctx, scope)
	if err != nil {
		return false, err
	}
	// An expired scope cannot prove a newer request exists.
	if latest == 0 {
		return true, nil
	}
	return token == latest, nil
}
