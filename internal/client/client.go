// Package client talks to the remote storefront API. Every response is
// parsed and validated into domain types before it leaves this package.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/fjod/go_cart/storefront/pkg/circuitbreaker"
	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

var (
	// ErrRemoteCall is matched by every failure at the HTTP boundary.
	ErrRemoteCall     = errors.New("remote call failed")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrNotFound       = errors.New("not found")
	ErrUnavailable    = errors.New("remote service unavailable")
	ErrInvalidPayload = errors.New("invalid payload")
)

// Error is a non-2xx answer from the remote API.
type Error struct {
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("remote api: status %d", e.StatusCode)
	}
	return fmt.Sprintf("remote api: status %d: %s", e.StatusCode, e.Message)
}

func (e *Error) Unwrap() []error {
	errs := []error{ErrRemoteCall}
	switch {
	case e.StatusCode == http.StatusUnauthorized:
		errs = append(errs, ErrUnauthorized)
	case e.StatusCode == http.StatusNotFound:
		errs = append(errs, ErrNotFound)
	case e.StatusCode >= 500:
		errs = append(errs, ErrUnavailable)
	}
	return errs
}

// Message extracts the human-readable message of a remote error, or "".
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return ""
}

type Config struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
	Breaker    circuitbreaker.Options
}

type Client struct {
	baseURL string
	http    *http.Client
	cb      *gobreaker.CircuitBreaker[*response]
	log     *slog.Logger
}

type response struct {
	status int
	body   []byte
}

func New(cfg Config, log *slog.Logger) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}

	opts := cfg.Breaker
	if opts.IsSuccessful == nil {
		opts.IsSuccessful = countsAsSuccess
	}

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    httpClient,
		cb:      circuitbreaker.New[*response]("storefront-api", opts, log),
		log:     log,
	}
}

// countsAsSuccess keeps caller cancellations from tripping the breaker.
func countsAsSuccess(err error) bool {
	return err == nil || errors.Is(err, context.Canceled)
}

type request struct {
	method      string
	path        string
	token       string
	body        io.Reader
	contentType string
}

func jsonRequest(method, path, token string, payload any) (request, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return request{}, fmt.Errorf("marshal request: %w", err)
	}
	return request{
		method:      method,
		path:        path,
		token:       token,
		body:        bytes.NewReader(data),
		contentType: "application/json",
	}, nil
}

// do sends r and decodes a successful body into out (when out is non-nil).
func (c *Client) do(ctx context.Context, r request, out any) error {
	req, err := http.NewRequestWithContext(ctx, r.method, c.baseURL+r.path, r.body)
	if err != nil {
		return fmt.Errorf("%w: build request: %w", ErrRemoteCall, err)
	}
	req.Header.Set("Accept", "application/json")
	if r.contentType != "" {
		req.Header.Set("Content-Type", r.contentType)
	}
	if r.token != "" {
		req.Header.Set("Authorization", "Bearer "+r.token)
	}

	res, err := c.cb.Execute(func() (*response, error) {
		httpRes, err := c.http.Do(req)
		if err != nil {
			return nil, err
		}
		defer httpRes.Body.Close()

		body, err := io.ReadAll(httpRes.Body)
		if err != nil {
			return nil, fmt.Errorf("read body: %w", err)
		}
		res := &response{status: httpRes.StatusCode, body: body}
		if res.status >= 500 {
			return res, remoteError(res)
		}
		return res, nil
	})
	if err != nil {
		c.log.WarnContext(ctx, "remote call failed", "method", r.method, "path", r.path, "error", err)
		var apiErr *Error
		switch {
		case errors.As(err, &apiErr):
			return apiErr
		case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
			return fmt.Errorf("%w: %w: %w", ErrRemoteCall, ErrUnavailable, err)
		default:
			return fmt.Errorf("%w: %s %s: %w", ErrRemoteCall, r.method, r.path, err)
		}
	}

	if res.status >= 400 {
		return remoteError(res)
	}
	if out == nil {
		return nil
	}
	if err := decodeData(res.body, out); err != nil {
		return fmt.Errorf("%w: %w: %s %s: %v", ErrRemoteCall, ErrInvalidPayload, r.method, r.path, err)
	}
	return nil
}

func remoteError(res *response) *Error {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	msg := ""
	if json.Unmarshal(res.body, &payload) == nil {
		msg = payload.Message
		if msg == "" {
			msg = payload.Error
		}
	}
	return &Error{StatusCode: res.status, Message: msg}
}

// decodeData accepts a bare value or one wrapped as {"data": ...}.
func decodeData(body []byte, out any) error {
	trimmed := bytes.TrimSpace(body)
	if raw, ok := out.(*json.RawMessage); ok && len(trimmed) == 0 {
		*raw = nil
		return nil
	}
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var env struct {
			Data json.RawMessage `json:"data"`
		}
		if json.Unmarshal(trimmed, &env) == nil && len(env.Data) > 0 && string(env.Data) != "null" {
			trimmed = env.Data
		}
	}
	return json.Unmarshal(trimmed, out)
}
