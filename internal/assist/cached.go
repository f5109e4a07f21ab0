package assist

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ayusman/isharavaani/internal/cache"
)

// Cached memoizes Translate and Instructions results. Interpret always
// reaches the wrapped Assistant since capture payloads rarely repeat.
type Cached struct {
	next  Assistant
	cache cache.Cache
	ttl   time.Duration
	log   logrus.FieldLogger
}

// NewCached wraps next. Cache failures are logged and otherwise ignored.
func NewCached(next Assistant, c cache.Cache, ttl time.Duration, log logrus.FieldLogger) *Cached {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Cached{next: next, cache: c, ttl: ttl, log: log.WithField("component", "assist_cache")}
}

func (c *Cached) Interpret(ctx context.Context, payload string, lang Language) (string, error) {
	return c.next.Interpret(ctx, payload, lang)
}

func (c *Cached) Translate(ctx context.Context, text string) (string, error) {
	return c.lookup(ctx, "translate", text, c.next.Translate)
}

func (c *Cached) Instructions(ctx context.Context, phrase string) (string, error) {
	return c.lookup(ctx, "instructions", phrase, c.next.Instructions)
}

func (c *Cached) lookup(ctx context.Context, kind, text string, fn func(context.Context, string) (string, error)) (string, error) {
	key := cacheKey(kind, text)

	var hit string
	ok, err := c.cache.GetJSON(ctx, key, &hit)
	if err != nil {
		c.log.WithError(err).WithField("key", key).Warn("cache read failed")
	}
	if ok {
		return hit, nil
	}

	out, err := fn(ctx, text)
	if err != nil {
		return "", err
	}

	if err := c.cache.SetJSON(ctx, key, out, c.ttl); err != nil {
		c.log.WithError(err).WithField("key", key).Warn("cache write failed")
	}
	return out, nil
}

func cacheKey(kind, text string) string {
	sum := sha256.Sum256([]byte(strings.ToLower(strings.TrimSpace(text))))
	return "assist:" + kind + ":" + hex.EncodeToString(sum[:])
}
