package classifier

import (
	"github.com/zatekoja/clinicaltriage/internal/domain/providers"
	"github.com/zatekoja/clinicaltriage/pkg/config"
)

// NewFromConfig builds the configured classifier. Without a URL the local
// keyword classifier is used; a remote classifier is wrapped with cache when
// one is given. Remote failures are reported, never masked by the keyword model.
func NewFromConfig(cfg config.ClassifierConfig, cache providers.CacheProvider) (providers.ClassifierExplainer, error) {
	if cfg.URL == "" {
		return NewKeywordClassifier(DefaultKeywordRules), nil
	}

	remote, err := NewHTTPClassifier(HTTPConfig{
		BaseURL:       cfg.URL,
		Timeout:       cfg.Timeout,
		RateLimitRPS:  cfg.RateLimitRPS,
		RateBurst:     cfg.RateBurst,
		RetryAttempts: cfg.RetryAttempts,
	})
	if err != nil {
		return nil, err
	}

	if cache == nil || cfg.CacheTTL <= 0 {
		return remote, nil
	}
	return NewCachedClassifier(remote, cache, cfg.CacheTTL), nil
}
