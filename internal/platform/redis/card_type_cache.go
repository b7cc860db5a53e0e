package redis

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/phrazzld/recall-api/internal/domain"
	"github.com/phrazzld/recall-api/internal/platform/logger"
	"github.com/phrazzld/recall-api/internal/store"
	goredis "github.com/redis/go-redis/v9"
)

// KeyPrefix namespaces every key the cache writes.
const KeyPrefix = "recall:card_type:"

// DefaultTTL is used when the cache is created with a non-positive TTL.
const DefaultTTL = 5 * time.Minute

// CardTypeCache decorates a store.CardTypeStore with a Redis read-through cache.
// Redis failures are logged and fall through to the wrapped store, so a cache
// outage degrades latency but never availability.
type CardTypeCache struct {
	next   store.CardTypeStore
	client Client
	ttl    time.Duration
	logger *slog.Logger
}

var _ store.CardTypeStore = (*CardTypeCache)(nil)

// NewCardTypeCache wraps next with a cache stored in client.
func NewCardTypeCache(next store.CardTypeStore, client Client, ttl time.Duration, logger *slog.Logger) *CardTypeCache {
	if next == nil {
		panic("next cannot be nil")
	}
	if client == nil {
		panic("client cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	return &CardTypeCache{
		next:   next,
		client: client,
		ttl:    ttl,
		logger: logger.With(slog.String("component", "card_type_cache")),
	}
}

func cacheKey(code string) string {
	return KeyPrefix + code
}

// GetByCode implements store.CardTypeStore.GetByCode
func (c *CardTypeCache) GetByCode(ctx context.Context, code string) (*domain.CardType, error) {
	log := logger.FromContextOrDefault(ctx, c.logger)

	raw, err := c.client.Get(ctx, cacheKey(code)).Bytes()
	switch {
	case err == nil:
		if ct, decodeErr := decodeCardType(raw); decodeErr == nil {
			return ct, nil
		}
		log.Warn("discarding undecodable cached card type", slog.String("code", code))
	case errors.Is(err, goredis.Nil):
	default:
		log.Warn("card type cache read failed", slog.String("code", code), slog.String("error", err.Error()))
	}

	ct, err := c.next.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	c.store(ctx, ct)
	return ct, nil
}

// GetByCodes implements store.CardTypeStore.GetByCodes
// Cached entries are fetched with one MGET; only misses reach the wrapped store.
func (c *CardTypeCache) GetByCodes(ctx context.Context, codes []string) (map[string]*domain.CardType, error) {
	log := logger.FromContextOrDefault(ctx, c.logger)

	result := make(map[string]*domain.CardType, len(codes))
	if len(codes) == 0 {
		return result, nil
	}

	keys := make([]string, len(codes))
	for i, code := range codes {
		keys[i] = cacheKey(code)
	}

	misses := codes
	values, err := c.client.MGet(ctx, keys...).Result()
	if err != nil {
		log.Warn("card type cache batch read failed", slog.String("error", err.Error()))
	} else {
		misses = make([]string, 0, len(codes))
		for i, v := range values {
			s, ok := v.(string)
			if !ok {
				misses = append(misses, codes[i])
				continue
			}
			ct, decodeErr := decodeCardType([]byte(s))
			if decodeErr != nil {
				misses = append(misses, codes[i])
				continue
			}
			result[codes[i]] = ct
		}
	}

	if len(misses) == 0 {
		return result, nil
	}

	loaded, err := c.next.GetByCodes(ctx, misses)
	if err != nil {
		return nil, err
	}
	for code, ct := range loaded {
		result[code] = ct
		c.store(ctx, ct)
	}

	log.Debug("card types resolved through cache",
		slog.Int("requested", len(codes)),
		slog.Int("cache_misses", len(misses)))
	return result, nil
}

// Invalidate removes cached entries so the next read reloads them. Call it
// after editing a card type or one of its templates.
func (c *CardTypeCache) Invalidate(ctx context.Context, codes ...string) error {
	if len(codes) == 0 {
		return nil
	}
	keys := make([]string, len(codes))
	for i, code := range codes {
		keys[i] = cacheKey(code)
	}
	return c.client.Del(ctx, keys...).Err()
}

func (c *CardTypeCache) store(ctx context.Context, ct *domain.CardType) {
	raw, err := json.Marshal(ct)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, cacheKey(ct.Code), raw, c.ttl).Err(); err != nil {
		logger.FromContextOrDefault(ctx, c.logger).Warn("card type cache write failed",
			slog.String("code", ct.Code),
			slog.String("error", err.Error()))
	}
}

func decodeCardType(raw []byte) (*domain.CardType, error) {
	var ct domain.CardType
	if err := json.Unmarshal(raw, &ct); err != nil {
		return nil, err
	}
	return &ct, nil
}
