package platform

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"

	"github.com/flicky/go-storefront/internal/config"
)

// Client talks to the platform auth admin API with the service-role key.
// It is only ever used server-side.
type Client struct {
	http *resty.Client
}

type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"msg"`
	Error   string `json:"error"`
}

func (e apiError) String() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Error
}

func NewClient(cfg config.PlatformConfig) *Client {
	c := resty.New().
		SetBaseURL(cfg.URL).
		SetTimeout(cfg.Timeout).
		SetHeaders(map[string]string{
			"apikey":        cfg.ServiceRoleKey,
			"Authorization": "Bearer " + cfg.ServiceRoleKey,
			"Accept":        "application/json",
			"Content-Type":  "application/json",
		})
	return &Client{http: c}
}

// DeleteUser removes the auth identity. A user that is already gone is not
// an error so a retried customer deletion can finish.
func (c *Client) DeleteUser(ctx context.Context, id uuid.UUID) error {
	var apiErr apiError
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("id", id.String()).
		SetError(&apiErr).
		Delete("/auth/v1/admin/users/{id}")
	if err != nil {
		return fmt.Errorf("delete platform user: %w", err)
	}

	switch resp.StatusCode() {
	case http.StatusOK, http.StatusNoContent, http.StatusNotFound:
		return nil
	default:
		return fmt.Errorf("delete platform user: status %d: %s", resp.StatusCode(), apiErr)
	}
}

// Health reports whether the auth service answers.
func (c *Client) Health(ctx context.Context) error {
	resp, err := c.http.R().SetContext(ctx).Get("/auth/v1/health")
	if err != nil {
		return fmt.Errorf("platform health: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("platform health: status %d", resp.StatusCode())
	}
	return nil
}
