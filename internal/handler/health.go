package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/flicky/go-storefront/internal/config"
	"github.com/flicky/go-storefront/internal/dto"
)

const readinessTimeout = 2 * time.Second

// Check pings one dependency.
type Check struct {
	Name string
	Ping func(ctx context.Context) error
}

type HealthHandler struct {
	checks []Check
}

func NewHealthHandler(checks ...Check) *HealthHandler {
	return &HealthHandler{checks: checks}
}

func (h *HealthHandler) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *HealthHandler) Readyz(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), readinessTimeout)
	defer cancel()

	status := http.StatusOK
	body := gin.H{"status": "ok"}
	for _, check := range h.checks {
		if err := check.Ping(ctx); err != nil {
			status = http.StatusServiceUnavailable
			body["status"] = "error"
			body[check.Name] = "unavailable"
			continue
		}
		body[check.Name] = "connected"
	}
	c.JSON(status, body)
}

// ClientConfig hands browsers what they need to talk to the auth service
// directly. The service-role key is never included.
func ClientConfig(cfg config.PlatformConfig) gin.HandlerFunc {
	resp := dto.ClientConfigResponse{URL: cfg.URL, AnonKey: cfg.AnonKey}
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, resp)
	}
}
