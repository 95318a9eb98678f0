package resend

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sony/gobreaker/v2"
)

const defaultTimeout = 10 * time.Second

// Client sends transactional email through the Resend HTTP API.
// Failed sends are never retried; the breaker only stops hammering a dead provider.
type Client struct {
	config  Config
	http    *resty.Client
	breaker *gobreaker.CircuitBreaker[*SendResponse]
}

// NewClient creates a new Resend client with the given configuration
func NewClient(config Config) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if config.Timeout <= 0 {
		config.Timeout = defaultTimeout
	}

	httpClient := resty.New().
		SetBaseURL(config.BaseURL).
		SetTimeout(config.Timeout).
		SetRetryCount(0).
		SetAuthToken(config.APIKey).
		SetHeader("Content-Type", "application/json").
		SetHeader("User-Agent", "tablemenu-backend")

	breaker := gobreaker.NewCircuitBreaker[*SendResponse](gobreaker.Settings{
		Name:        "resend",
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		// caller mistakes must not open the breaker
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrInvalidRequest)
		},
	})

	return &Client{
		config:  config,
		http:    httpClient,
		breaker: breaker,
	}, nil
}

// From returns the default sender address
func (c *Client) From() string {
	return c.config.From
}

// BreakerState reports "closed", "half-open" or "open"
func (c *Client) BreakerState() string {
	return c.breaker.State().String()
}

// Send delivers one email. req.From defaults to the configured sender.
func (c *Client) Send(ctx context.Context, req SendRequest) (*SendResponse, error) {
	if req.From == "" {
		req.From = c.config.From
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	resp, err := c.breaker.Execute(func() (*SendResponse, error) {
		return c.doSend(ctx, req)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("%w: %v", ErrCircuitOpen, err)
	}
	return resp, err
}

func (c *Client) doSend(ctx context.Context, req SendRequest) (*SendResponse, error) {
	var result SendResponse
	var apiErr APIError

	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&result).
		SetError(&apiErr).
		Post("/emails")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSendFailed, err)
	}

	switch {
	case resp.IsSuccess():
		return &result, nil
	case resp.StatusCode() == http.StatusUnauthorized || resp.StatusCode() == http.StatusForbidden:
		return nil, fmt.Errorf("%w: %s", ErrUnauthorized, apiErr.Message)
	case resp.StatusCode() == http.StatusTooManyRequests:
		return nil, ErrRateLimited
	case resp.StatusCode() == http.StatusUnprocessableEntity || resp.StatusCode() == http.StatusBadRequest:
		return nil, fmt.Errorf("%w: %s", ErrInvalidRequest, apiErr.Message)
	default:
		if apiErr.StatusCode == 0 {
			apiErr.StatusCode = resp.StatusCode()
		}
		return nil, fmt.Errorf("%w: %v", ErrSendFailed, &apiErr)
	}
}
