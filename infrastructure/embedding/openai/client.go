// Package openai provides the embedding provider client. Any
// OpenAI-compatible /v1/embeddings endpoint works; the provider is opaque to
// the rest of the system.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	pkgerrors "github.com/juancgarza/memex/pkg/errors"
)

const providerName = "embedding-provider"

// Config holds the provider connection settings
type Config struct {
	Endpoint   string
	APIKey     string
	Model      string
	Dimensions int
	Timeout    time.Duration
}

// Client calls an OpenAI-compatible embeddings endpoint behind a circuit
// breaker. Failures surface as provider errors; the core never retries them.
type Client struct {
	cfg     Config
	http    *http.Client
	breaker *gobreaker.CircuitBreaker
	logger  *zap.Logger
}

// NewClient creates a new embedding client
func NewClient(cfg Config, logger *zap.Logger) *Client {
	if cfg.Endpoint == "" {
		cfg.Endpoint = "https://api.openai.com/v1/embeddings"
	}
	if cfg.Model == "" {
		cfg.Model = "text-embedding-3-small"
	}
	if cfg.Dimensions == 0 {
		cfg.Dimensions = 1536
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        providerName,
		MaxRequests: 5,
		Interval:    30 * time.Second,
		Timeout:     60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 5 {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= 0.8
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("Embedding provider breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	return &Client{
		cfg:     cfg,
		http:    &http.Client{Timeout: cfg.Timeout},
		breaker: breaker,
		logger:  logger,
	}
}

// embeddingRequest is the request body for an OpenAI-compatible embedding API
type embeddingRequest struct {
	Input      []string `json:"input"`
	Model      string   `json:"model"`
	Dimensions int      `json:"dimensions,omitempty"`
}

// embeddingResponse is the response from an OpenAI-compatible embedding API
type embeddingResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
}

// Embed computes the vector for a single text
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	result, err := c.breaker.Execute(func() (any, error) {
		return c.call(ctx, text)
	})
	if err != nil {
		switch err {
		case gobreaker.ErrOpenState, gobreaker.ErrTooManyRequests:
			return nil, pkgerrors.NewUnavailableError(providerName)
		}
		if appErr := pkgerrors.GetAppError(err); appErr != nil {
			return nil, err
		}
		return nil, pkgerrors.NewProviderError(providerName, err)
	}
	return result.([]float32), nil
}

func (c *Client) call(ctx context.Context, text string) ([]float32, error) {
	body, err := json.Marshal(embeddingRequest{
		Input:      []string{text},
		Model:      c.cfg.Model,
		Dimensions: c.cfg.Dimensions,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, pkgerrors.NewProviderError(providerName, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		c.logger.Error("Embedding provider returned error",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", payload),
		)
		return nil, pkgerrors.NewProviderError(providerName,
			fmt.Errorf("status %d: %s", resp.StatusCode, string(payload)))
	}

	var parsed embeddingResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, pkgerrors.NewProviderError(providerName, err)
	}
	if len(parsed.Data) == 0 {
		return nil, pkgerrors.NewProviderError(providerName, fmt.Errorf("empty embedding response"))
	}

	vector := parsed.Data[0].Embedding
	if len(vector) != c.cfg.Dimensions {
		return nil, pkgerrors.NewProviderError(providerName,
			fmt.Errorf("unexpected dimension %d, want %d", len(vector), c.cfg.Dimensions))
	}
	return vector, nil
}
