package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/zatekoja/clinicaltriage/internal/domain/entities"
	"github.com/zatekoja/clinicaltriage/internal/domain/providers"
	apperrors "github.com/zatekoja/clinicaltriage/pkg/errors"
	"github.com/zatekoja/clinicaltriage/pkg/retry"
	"golang.org/x/time/rate"
)

const defaultRemoteModel = "xlm-roberta-triage"

// HTTPConfig configures the remote inference client
type HTTPConfig struct {
	BaseURL       string
	Model         string
	Timeout       time.Duration
	RateLimitRPS  float64
	RateBurst     int
	RetryAttempts int
	HTTPClient    *http.Client
}

// HTTPClassifier calls a remote inference server that hosts the text model
// and its token-attribution explainer.
type HTTPClassifier struct {
	baseURL    string
	model      string
	timeout    time.Duration
	httpClient *http.Client
	limiter    *rate.Limiter
	retryCfg   retry.Config
}

type predictRequest struct {
	Text string `json:"text"`
}

type predictResponse struct {
	Probabilities []float64 `json:"probabilities"`
	Model         string    `json:"model,omitempty"`
}

type explainResponse struct {
	Probabilities []float64 `json:"probabilities"`
	Model         string    `json:"model,omitempty"`
	Tokens        []struct {
		Token string  `json:"token"`
		Score float64 `json:"score"`
	} `json:"tokens"`
}

// NewHTTPClassifier creates a client for the inference server at cfg.BaseURL
func NewHTTPClassifier(cfg HTTPConfig) (providers.ClassifierExplainer, error) {
	if cfg.BaseURL == "" {
		return nil, apperrors.NewConfigurationError("classifier base URL is required", nil)
	}
	if cfg.Model == "" {
		cfg.Model = defaultRemoteModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{}
	}

	var limiter *rate.Limiter
	if cfg.RateLimitRPS > 0 {
		burst := cfg.RateBurst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), burst)
	}

	return &HTTPClassifier{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		model:      cfg.Model,
		timeout:    cfg.Timeout,
		httpClient: cfg.HTTPClient,
		limiter:    limiter,
		retryCfg:   retry.InferenceConfig(cfg.RetryAttempts, apperrors.IsTransient),
	}, nil
}

// Predict returns the priority distribution for a description
func (c *HTTPClassifier) Predict(ctx context.Context, text string) (*entities.Prediction, error) {
	var resp predictResponse
	if err := c.call(ctx, "predict", predictRequest{Text: text}, &resp); err != nil {
		return nil, err
	}
	return newPrediction(resp.Probabilities, c.modelOr(resp.Model))
}

// Explain returns per-token attributions towards the predicted priority
func (c *HTTPClassifier) Explain(ctx context.Context, text string) (*entities.Explanation, error) {
	var resp explainResponse
	if err := c.call(ctx, "explain", predictRequest{Text: text}, &resp); err != nil {
		return nil, err
	}

	pred, err := newPrediction(resp.Probabilities, c.modelOr(resp.Model))
	if err != nil {
		return nil, err
	}

	raw := make([]entities.TokenAttribution, len(resp.Tokens))
	for i, t := range resp.Tokens {
		raw[i] = entities.TokenAttribution{Token: t.Token, Score: t.Score}
	}

	return &entities.Explanation{
		Text:     text,
		Priority: pred.Priority,
		Tokens:   CleanAttributions(raw),
		Model:    pred.Model,
	}, nil
}

// modelOr prefers the model name reported by the server
func (c *HTTPClassifier) modelOr(reported string) string {
	if reported != "" {
		return reported
	}
	return c.model
}

func (c *HTTPClassifier) call(ctx context.Context, operation string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return apperrors.NewModelInferenceError("failed to encode "+operation+" request", err, false)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	return retry.DoWithLog(ctx, c.retryCfg, "classifier "+operation,
		func() error {
			return c.post(ctx, operation, payload, out)
		},
		func(attempt int, err error, nextDelay time.Duration) {
			log.Warn().Err(err).Str("operation", operation).Int("attempt", attempt).Dur("retry_in", nextDelay).Msg("Classifier call failed, retrying")
		},
	)
}

func (c *HTTPClassifier) post(ctx context.Context, operation string, payload []byte, out interface{}) error {
	if c.limiter != nil {
		waitStart := time.Now()
		if err := c.limiter.Wait(ctx); err != nil {
			recordInference(ctx, c.model, operation, 0, 0, err)
			return apperrors.NewModelInferenceError("classifier rate limit wait aborted", err, true)
		}
		recordRateLimitWait(ctx, c.model, time.Since(waitStart))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/"+operation, bytes.NewReader(payload))
	if err != nil {
		return apperrors.NewModelInferenceError("failed to build "+operation+" request", err, false)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		recordInference(ctx, c.model, operation, 0, time.Since(start), err)
		return classifyTransportError(operation, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		err := fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
		recordInference(ctx, c.model, operation, resp.StatusCode, time.Since(start), err)
		return apperrors.NewModelInferenceError("classifier "+operation+" failed", err, transientStatus(resp.StatusCode))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		recordInference(ctx, c.model, operation, resp.StatusCode, time.Since(start), err)
		return apperrors.NewModelInferenceError("malformed classifier "+operation+" response", err, false)
	}

	recordInference(ctx, c.model, operation, resp.StatusCode, time.Since(start), nil)
	return nil
}

func transientStatus(code int) bool {
	switch code {
	case http.StatusTooManyRequests, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	return false
}

func classifyTransportError(operation string, err error) error {
	var netErr net.Error
	transient := errors.Is(err, context.DeadlineExceeded) ||
		(errors.As(err, &netErr) && netErr.Timeout()) ||
		errors.Is(err, syscall.ECONNREFUSED)
	if errors.Is(err, context.Canceled) {
		transient = false
	}
	return apperrors.NewModelInferenceError("classifier "+operation+" unreachable", err, transient)
}
