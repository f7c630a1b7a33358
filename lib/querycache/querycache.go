package querycache

import (
	"context"
	"net/url"
	"time"

	"kuasap-backend/lib/telemetry"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/sync/singleflight"
)

var tracer = telemetry.Tracer("kuasap.lib.querycache")
var meter = telemetry.Meter("kuasap.lib.querycache")

const (
	DefaultSize   = 4096
	DefaultMaxTTL = 24 * time.Hour
)

// Key builds the canonical cache key of a query made by a user, argument
// order does not matter.
func Key(username, qid string, args map[string]string) string {
	values := url.Values{}
	for k, v := range args {
		values.Set(k, v)
	}
	return url.QueryEscape(username) + ":" + qid + "?" + values.Encode()
}

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

type Options struct {
	// Size bounds the number of entries, the least recently used entry is
	// dropped first. Defaults to DefaultSize.
	Size int
	// MaxTTL caps the lifetime of every entry regardless of the ttl it was
	// stored with. Defaults to DefaultMaxTTL.
	MaxTTL time.Duration
}

// Cache memoizes computed values per key for a caller supplied ttl. Only one
// computation runs per key at a time, concurrent callers of the same key wait
// for it. Expired entries are dropped when they are read.
type Cache[V any] struct {
	lru   *expirable.LRU[string, entry[V]]
	group singleflight.Group
	now   func() time.Time

	hits   metric.Int64Counter
	misses metric.Int64Counter
}

func New[V any](opts Options) *Cache[V] {
	if opts.Size <= 0 {
		opts.Size = DefaultSize
	}
	if opts.MaxTTL <= 0 {
		opts.MaxTTL = DefaultMaxTTL
	}

	hits, _ := meter.Int64Counter(
		"cache_hits",
		metric.WithDescription("Number of queries served from the cache."),
	)
	misses, _ := meter.Int64Counter(
		"cache_misses",
		metric.WithDescription("Number of queries that had to be computed."),
	)

	return &Cache[V]{
		lru:    expirable.NewLRU[string, entry[V]](opts.Size, nil, opts.MaxTTL),
		now:    time.Now,
		hits:   hits,
		misses: misses,
	}
}

func (c *Cache[V]) get(key string) (V, bool) {
	cached, ok := c.lru.Get(key)
	if !ok {
		var zero V
		return zero, false
	}
	if !c.now().Before(cached.expiresAt) {
		c.lru.Remove(key)
		var zero V
		return zero, false
	}
	return cached.value, true
}

// Get returns the live value of a key.
func (c *Cache[V]) Get(key string) (V, bool) {
	return c.get(key)
}

func (c *Cache[V]) Len() int {
	return c.lru.Len()
}

func (c *Cache[V]) Purge() {
	c.lru.Purge()
}

// GetOrCompute returns the live value of key or computes it with fn and
// stores it for ttl. Errors are returned to every waiting caller and are not
// stored. A ttl <= 0 computes without storing.
//
// The computation is detached from the cancellation of ctx so that a caller
// giving up does not fail the others waiting on the same key.
func (c *Cache[V]) GetOrCompute(ctx context.Context, key string, ttl time.Duration, fn func(ctx context.Context) (V, error)) (V, error) {
	ctx, span := tracer.Start(ctx, "GetOrCompute")
	defer span.End()

	span.SetAttributes(attribute.String("cache_key", key))

	value, ok := c.get(key)
	if ok {
		c.hits.Add(ctx, 1)
		span.SetAttributes(attribute.Bool("hit", true))
		return value, nil
	}

	computeCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key, func() (any, error) {
		// another flight may have stored the key after the first read
		value, ok := c.get(key)
		if ok {
			c.hits.Add(computeCtx, 1)
			return value, nil
		}

		c.misses.Add(computeCtx, 1)
		value, err := fn(computeCtx)
		if err != nil {
			return value, err
		}
		if ttl > 0 {
			c.lru.Add(key, entry[V]{value: value, expiresAt: c.now().Add(ttl)})
		}
		return value, nil
	})

	select {
	case <-ctx.Done():
		var zero V
		span.SetStatus(codes.Error, "gave up waiting for computation")
		return zero, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			span.RecordError(res.Err)
			span.SetStatus(codes.Error, "computation failed")
			var zero V
			return zero, res.Err
		}
		span.SetAttributes(attribute.Bool("shared", res.Shared))
		value, _ := res.Val.(V)
		return value, nil
	}
}
