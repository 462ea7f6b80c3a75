package classifier

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"
	"time"

	"github.com/zatekoja/clinicaltriage/internal/domain/entities"
	"github.com/zatekoja/clinicaltriage/internal/domain/providers"
	"github.com/zatekoja/clinicaltriage/internal/infrastructure/observability"
)

// CachedClassifier wraps a ClassifierExplainer with prediction and
// explanation caching. Cache failures never fail a request.
type CachedClassifier struct {
	inner providers.ClassifierExplainer
	cache providers.CacheProvider
	ttl   time.Duration
}

// NewCachedClassifier decorates inner with cache; a non-positive ttl disables expiry
func NewCachedClassifier(inner providers.ClassifierExplainer, cache providers.CacheProvider, ttl time.Duration) providers.ClassifierExplainer {
	return &CachedClassifier{
		inner: inner,
		cache: cache,
		ttl:   ttl,
	}
}

// cacheKey hashes the text as the model sees it. Case and accents change the
// cased tokenizer's input, so only surrounding whitespace is ignored.
func cacheKey(kind, text string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(text)))
	return "triage:" + kind + ":" + hex.EncodeToString(sum[:])
}

// Predict returns a cached prediction or asks the wrapped classifier
func (c *CachedClassifier) Predict(ctx context.Context, text string) (*entities.Prediction, error) {
	key := cacheKey("prediction", text)

	var cached entities.Prediction
	if c.lookup(ctx, key, &cached) {
		return &cached, nil
	}

	pred, err := c.inner.Predict(ctx, text)
	if err != nil {
		return nil, err
	}
	c.store(ctx, key, pred)
	return pred, nil
}

// Explain returns a cached explanation or asks the wrapped explainer.
// The returned Text is always the caller's text.
func (c *CachedClassifier) Explain(ctx context.Context, text string) (*entities.Explanation, error) {
	key := cacheKey("explanation", text)

	var cached entities.Explanation
	if c.lookup(ctx, key, &cached) {
		cached.Text = text
		return &cached, nil
	}

	exp, err := c.inner.Explain(ctx, text)
	if err != nil {
		return nil, err
	}
	c.store(ctx, key, exp)
	return exp, nil
}

func (c *CachedClassifier) lookup(ctx context.Context, key string, out interface{}) bool {
	data, err := c.cache.Get(ctx, key)
	if err != nil || data == nil {
		recordCacheLookup(ctx, false)
		return false
	}
	if err := json.Unmarshal(data, out); err != nil {
		observability.LoggerFromContext(ctx).Warn().Err(err).Str("cache_key", key).Msg("Discarding undecodable cache entry")
		_ = c.cache.Delete(ctx, key)
		recordCacheLookup(ctx, false)
		return false
	}
	recordCacheLookup(ctx, true)
	return true
}

func (c *CachedClassifier) store(ctx context.Context, key string, value interface{}) {
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := c.cache.Set(ctx, key, data, c.ttl); err != nil {
		observability.LoggerFromContext(ctx).Warn().Err(err).Str("cache_key", key).Msg("Failed to cache classifier result")
	}
}
