// Package client is the HTTP transport behind the homeroom controllers.
//
// [Client] speaks JSON to the platform API. It sets the content headers and
// the bearer token, treats any 2xx status as success and reports every other
// status as a [*StatusError]. Requests can optionally be rate limited, guarded
// by a circuit breaker and, for GET requests, retried.
//
//	c := client.New("http://localhost:8080",
//		client.WithAuthToken(token),
//		client.WithRetryer(client.NewExponentialBackoffRetryer(3)),
//	)
//
//	var boards []models.Board
//	err := c.Do(ctx, http.MethodGet, models.KindBoard.CollectionPath(""), nil, &boards)
//
// A Client is safe for concurrent use.
package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/homeroomhq/homeroom/internal/codec"
	"github.com/homeroomhq/homeroom/internal/rand"
	"github.com/homeroomhq/homeroom/pkg/models"
	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"
)

const DefaultTimeout = 30 * time.Second

type Client struct {
	baseURL    string
	httpClient *http.Client
	authToken  string
	codec      codec.Codec
	logger     zerolog.Logger
	retryer    Retryer
	limiter    *rate.Limiter
	breaker    *gobreaker.CircuitBreaker[struct{}]
}

type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client. Options that tune the
// client, such as WithTimeout, must come after it.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

func WithAuthToken(token string) Option {
	return func(c *Client) {
		c.authToken = token
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRetryer enables retries of GET requests that failed in transport or
// with a temporary status.
func WithRetryer(r Retryer) Option {
	return func(c *Client) {
		c.retryer = r
	}
}

// WithRateLimit caps outgoing requests to perSecond with the given burst.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), max(burst, 1))
	}
}

// WithCircuitBreaker opens the circuit after failures consecutive transport
// errors or 5xx responses and probes again after openFor.
func WithCircuitBreaker(failures uint32, openFor time.Duration) Option {
	return func(c *Client) {
		c.breaker = gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
			Name:        "homeroom-api",
			MaxRequests: 1,
			Timeout:     openFor,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= failures
			},
			IsSuccessful: func(err error) bool {
				var se *StatusError
				if errors.As(err, &se) {
					return se.StatusCode < 500
				}
				return err == nil || errors.Is(err, context.Canceled)
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				c.logger.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state change")
			},
		})
	}
}

// New creates a client for baseURL, e.g. "http://localhost:8080". The base
// URL must not include the /api prefix.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		codec:  codec.JSON,
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

// Do sends body (if not nil) encoded as JSON and decodes a successful
// response into out (if not nil). 204 responses are never decoded.
func (c *Client) Do(ctx context.Context, method, path string, body, out any) error {
	if c.baseURL == "" {
		return ErrNoBaseURL
	}

	var payload []byte
	if body != nil {
		var err error
		payload, err = c.codec.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
	}

	for attempt := 0; ; attempt++ {
		retry, err := c.execute(ctx, method, path, payload, out)
		if err == nil {
			if c.retryer != nil {
				c.retryer.Reset()
			}
			return nil
		}
		if !retry || method != http.MethodGet || c.retryer == nil {
			return err
		}

		delay, ok := c.retryer.NextDelay(attempt, err)
		if !ok {
			return err
		}
		c.logger.Debug().Err(err).Str("path", path).Int("attempt", attempt+1).Dur("delay", delay).Msg("retrying request")

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return errors.Join(err, ctx.Err())
		case <-timer.C:
		}
	}
}

func (c *Client) execute(ctx context.Context, method, path string, payload []byte, out any) (retry bool, err error) {
	if c.breaker == nil {
		return c.doRequest(ctx, method, path, payload, out)
	}
	_, err = c.breaker.Execute(func() (struct{}, error) {
		var innerErr error
		retry, innerErr = c.doRequest(ctx, method, path, payload, out)
		return struct{}{}, innerErr
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return false, fmt.Errorf("%s %s: %w", method, path, err)
	}
	return retry, err
}

// doRequest performs a single round trip. retry reports whether the failure
// is worth repeating.
func (c *Client) doRequest(ctx context.Context, method, path string, payload []byte, out any) (retry bool, err error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return false, err
		}
	}

	var bodyReader io.Reader
	if payload != nil {
		bodyReader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return false, fmt.Errorf("failed to create request: %w", err)
	}

	if payload != nil {
		req.Header.Set("Content-Type", c.codec.ContentType())
	}
	req.Header.Set("Accept", c.codec.ContentType())
	requestID := rand.NewRequestID()
	req.Header.Set(models.RequestIDHeader, requestID)
	if c.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.authToken)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug().Err(err).Str("method", method).Str("path", path).Str("request_id", requestID).Msg("request failed")
		return ctx.Err() == nil, err
	}
	defer resp.Body.Close()

	c.logger.Debug().
		Str("method", method).
		Str("path", path).
		Str("request_id", requestID).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("request")

	return decodeResponse(c.codec, req, resp, out)
}

func decodeResponse(dec codec.Unmarshaler, req *http.Request, resp *http.Response, out any) (retry bool, err error) {
	if resp.StatusCode/100 != 2 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		se := &StatusError{
			Method:     req.Method,
			Path:       req.URL.Path,
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       string(body),
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
		}
		if se.Status == "" {
			se.Status = fmt.Sprintf("%d %s", resp.StatusCode, http.StatusText(resp.StatusCode))
		}
		return se.Temporary(), se
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return false, nil
	}

	if err := dec.NewDecoder(resp.Body).Decode(out); err != nil {
		return false, fmt.Errorf("failed to decode response: %w", err)
	}
	return false, nil
}

// Health calls the API health endpoint.
func (c *Client) Health(ctx context.Context) (map[string]any, error) {
	var result map[string]any
	if err := c.Do(ctx, http.MethodGet, models.APIPrefix+"/health", nil, &result); err != nil {
		return nil, err
	}
	return result, nil
}
