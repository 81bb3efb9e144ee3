package scheduler

import (
	"context"
	"fmt"
	"time"

	"gadget-inventory-api/internal/auth"
	"gadget-inventory-api/internal/models"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// Generator kinds, matching the /notifications/generate/{kind} routes.
const (
	KindWarranty = "warranty"
	KindRepair   = "repair"
)

// Generator triggers one notification generator pass.
type Generator interface {
	Generate(ctx context.Context, kind string) (models.GenerateResult, error)
}

// Client calls the inventory API on behalf of the scheduler.
type Client struct {
	http   *resty.Client
	logger *zap.Logger
}

// NewClient builds an API client. token is sent as a bearer token when set.
func NewClient(cfg Config, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetRetryCount(cfg.Retries).
		SetRetryWaitTime(1 * time.Second).
		SetRetryMaxWaitTime(5 * time.Second).
		SetHeader("Accept", "application/json")
	if cfg.Token != "" {
		client.SetAuthToken(cfg.Token)
	}
	return &Client{http: client, logger: logger}
}

// Generate posts to /notifications/generate/{kind} and returns the count created.
func (c *Client) Generate(ctx context.Context, kind string) (models.GenerateResult, error) {
	var (
		result models.GenerateResult
		apiErr auth.ErrorResponse
	)
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&result).
		SetError(&apiErr).
		Post("/notifications/generate/" + kind)
	if err != nil {
		return result, fmt.Errorf("call generate %s: %w", kind, err)
	}
	if resp.IsError() {
		c.logger.Warn("generate request rejected",
			zap.String("kind", kind),
			zap.Int("status_code", resp.StatusCode()),
			zap.String("code", apiErr.Code))
		if apiErr.Error != "" {
			return result, fmt.Errorf("generate %s: %s (%s, status %d)", kind, apiErr.Error, apiErr.Code, resp.StatusCode())
		}
		return result, fmt.Errorf("generate %s: status %d", kind, resp.StatusCode())
	}
	return result, nil
}
