// Package predictor wraps the external symptom prediction service.
package predictor

import (
	"context"
	"fmt"
	"time"

	"github.com/docbridge/docbridge/internal/apperr"
	"github.com/docbridge/docbridge/internal/models"
	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// Client calls the prediction service over HTTP.
type Client struct {
	client *resty.Client
	logger *zap.Logger
}

// New creates a Client for the given base URL.
func New(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	return &Client{client: client, logger: logger}
}

type predictRequest struct {
	Symptoms []string `json:"symptoms"`
}

type predictResponse struct {
	Predictions []struct {
		Disease     string  `json:"disease"`
		Probability float64 `json:"probability"`
	} `json:"predictions"`
}

// Predict submits the symptom list and returns the ranked predictions.
func (c *Client) Predict(ctx context.Context, symptoms []string) ([]models.Prediction, error) {
	if len(symptoms) == 0 {
		return nil, fmt.Errorf("predictor: %w: at least one symptom is required", apperr.ErrValidation)
	}

	var out predictResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(predictRequest{Symptoms: symptoms}).
		SetResult(&out).
		Post("/predict")
	if err != nil {
		return nil, fmt.Errorf("predictor: predict: %w", err)
	}
	if resp.IsError() {
		c.logger.Warn("predictor returned error status",
			zap.Int("status", resp.StatusCode()),
			zap.Int("symptoms", len(symptoms)))
		return nil, fmt.Errorf("predictor: predict: status %d", resp.StatusCode())
	}

	preds := make([]models.Prediction, len(out.Predictions))
	for i, p := range out.Predictions {
		preds[i] = models.Prediction{Label: p.Disease, Probability: p.Probability}
	}
	c.logger.Debug("prediction completed",
		zap.Int("symptoms", len(symptoms)),
		zap.Int("predictions", len(preds)))
	return preds, nil
}
