package network

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"

	"series-explorer/src/helpers"
	"series-explorer/src/logger"
	"series-explorer/src/models"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

const maxErrorBody = 200

type AsyncNetworkManager struct {
	Config  *models.MNetworkConfig
	Client  *http.Client
	Logger  *logger.Logger
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker
}

// -----------------------------------------------------------------------------

func NewAsyncNetworkManager(cfg *models.MNetworkConfig, log *logger.Logger) *AsyncNetworkManager {
	nm := &AsyncNetworkManager{
		Config: cfg,
		Client: &http.Client{Timeout: cfg.RequestTimeout},
		Logger: log,
	}
	nm.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst)
	nm.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "http",
		MaxRequests: 1,
		Timeout:     cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.BreakerMaxFailures
		},
		IsSuccessful: func(err error) bool {
			// a 4xx or a cancelled request says nothing about the upstream's health
			return err == nil || !helpers.IsRetryable(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warning("Circuit breaker %s: %s -> %s", name, from, to)
		},
	})
	return nm
}

// -----------------------------------------------------------------------------

// Get performs a rate limited GET request with retries behind a circuit breaker.
func (nm *AsyncNetworkManager) Get(ctx context.Context, urlStr string, params map[string]string) ([]byte, error) {
	reqURL, err := url.Parse(urlStr)
	if err != nil {
		return nil, helpers.NewNetworkError(fmt.Sprintf("invalid url %q", urlStr), err)
	}

	q := reqURL.Query()
	for k, v := range params {
		q.Set(k, v)
	}
	reqURL.RawQuery = q.Encode()
	finalURL := reqURL.String()

	return helpers.RetryWithBackoff(ctx, "GET "+reqURL.Path, nm.Config.MaxRetries+1, nm.Config.RetryDelay, func() ([]byte, error) {
		if err := nm.limiter.Wait(ctx); err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, helpers.NewNetworkError("rate limiter", err)
		}

		res, err := nm.breaker.Execute(func() (interface{}, error) {
			return nm.do(ctx, finalURL)
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
				return nil, helpers.NewNetworkError(err.Error(), helpers.ErrCircuitOpen)
			}
			return nil, err
		}
		return res.([]byte), nil
	})
}

// -----------------------------------------------------------------------------

func (nm *AsyncNetworkManager) do(ctx context.Context, finalURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, finalURL, nil)
	if err != nil {
		return nil, helpers.NewNetworkError("failed to build request", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", nm.Config.UserAgent)

	resp, err := nm.Client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		nm.Logger.Debug("Request to %s failed: %v", finalURL, err)
		return nil, transportError("request failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, transportError("failed to read response body", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		nm.Logger.Debug("Bad status %d from %s", resp.StatusCode, finalURL)
		return nil, &helpers.HTTPStatusError{StatusCode: resp.StatusCode, Message: errorMessage(body)}
	}

	return body, nil
}

// -----------------------------------------------------------------------------

// transportError wraps a failed round trip. Callers have already ruled out
// ctx, so a timeout here is the client's own and is reported as
// ErrRequestTimeout instead of a deadline the caller set.
func transportError(message string, err error) error {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return helpers.NewNetworkError(message, fmt.Errorf("%w: %s", helpers.ErrRequestTimeout, err))
	}
	return helpers.NewNetworkError(message, err)
}

// -----------------------------------------------------------------------------

// errorMessage pulls {"error": "..."} out of an error body, or a trimmed
// prefix of the raw text.
func errorMessage(body []byte) string {
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Error != "" {
		return payload.Error
	}
	msg := strings.TrimSpace(string(body))
	if len(msg) > maxErrorBody {
		msg = msg[:maxErrorBody]
	}
	return msg
}
