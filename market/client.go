package market

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/gridsync/gridsync/auth"
	"github.com/gridsync/gridsync/config"
	"github.com/gridsync/gridsync/core/logger"
)

// Client performs authenticated calls against the energy-market API. Every
// call is classified on failure and transient classes are retried with
// exponential backoff; an Unauthorized response forces a single token
// refresh followed by a single replay of the whole call.
type Client struct {
	http        *http.Client
	baseURL     string
	tokens      *auth.TokenManager
	log         logger.Logger
	maxAttempts uint64
	retryDelay  time.Duration
}

// NewClient creates a Client from the API configuration.
func NewClient(cfg config.APIConfig, tokens *auth.TokenManager, log logger.Logger) *Client {
	return &Client{
		http:        &http.Client{Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second},
		baseURL:     cfg.BaseURL,
		tokens:      tokens,
		log:         log,
		maxAttempts: uint64(cfg.MaxAttempts),
		retryDelay:  time.Duration(cfg.RetryDelaySeconds) * time.Second,
	}
}

// fetch performs one logical call: bounded retry of transient failures plus
// at most one token-refresh replay on Unauthorized. On success the response
// body is decoded into out.
func (c *Client) fetch(ctx context.Context, path string, query url.Values, out any) error {
	err := c.fetchWithRetry(ctx, path, query, out)
	var fe *FetchError
	if errors.As(err, &fe) && fe.Class == Unauthorized {
		c.log.Warnf("%s unauthorized, refreshing token and replaying once", path)
		c.tokens.Invalidate()
		err = c.fetchWithRetry(ctx, path, query, out)
	}
	return err
}

// fetchWithRetry retries RateLimited, ServerError and Timeout outcomes with
// exponential backoff. Unauthorized and Malformed outcomes are terminal here.
func (c *Client) fetchWithRetry(ctx context.Context, path string, query url.Values, out any) error {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.retryDelay

	attempt := 0
	operation := func() error {
		attempt++
		err := c.do(ctx, path, query, out)
		if err == nil {
			return nil
		}
		var fe *FetchError
		if errors.As(err, &fe) && fe.Retryable() {
			c.log.Warnf("attempt %d on %s failed: %v", attempt, path, err)
			return err
		}
		return backoff.Permanent(err)
	}
	return backoff.Retry(operation, backoff.WithContext(backoff.WithMaxRetries(bo, c.maxAttempts-1), ctx))
}

// do performs a single authenticated attempt and classifies its failure.
func (c *Client) do(ctx context.Context, path string, query url.Values, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("build request for %s: %w", path, err)
	}
	if err := c.tokens.SetAuthHeader(ctx, req); err != nil {
		// A failed exchange is an auth error, not a fetch error.
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &FetchError{Endpoint: path, Class: classifyTransport(err), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &FetchError{
			Endpoint:   path,
			Class:      classifyStatus(resp.StatusCode),
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("unexpected status: %s", body),
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &FetchError{Endpoint: path, Class: classifyTransport(err), StatusCode: resp.StatusCode, Err: err}
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &FetchError{Endpoint: path, Class: Malformed, StatusCode: resp.StatusCode, Err: err}
	}
	return nil
}

// classifyTransport maps request-level failures: deadline and timeout errors
// become Timeout, everything else counts as a retryable server error.
func classifyTransport(err error) FailureClass {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return Timeout
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return Timeout
	}
	return ServerError
}
