package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rhuss/promptstream/pkg/api"
	"github.com/rhuss/promptstream/pkg/debug"
	"github.com/rhuss/promptstream/pkg/provider"
)

// Provider implements provider.Provider for the OpenAI Completions API.
type Provider struct {
	cfg    Config
	client *http.Client
}

// Ensure Provider implements provider.Provider at compile time.
var _ provider.Provider = (*Provider)(nil)

// New creates a new Provider with the given configuration.
// Returns an error if the configuration is invalid.
func New(cfg Config) (*Provider, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("openai: BaseURL is required")
	}

	// Normalize: drop a trailing slash and an explicit /v1 suffix.
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	cfg.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/v1")

	if cfg.Timeout == 0 {
		cfg.Timeout = 120 * time.Second
	}

	return &Provider{
		cfg: cfg,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
	}, nil
}

// Name returns the provider identifier.
func (p *Provider) Name() string {
	return "openai"
}

// Stream starts a streaming completion against the /v1/completions endpoint.
// It returns a channel of provider events. The channel is closed when the
// stream completes, errors, or the context is cancelled.
//
// The HTTP client timeout is not applied for streaming requests because a
// stream can legitimately last longer than any fixed timeout. Lifecycle
// control relies on context cancellation instead.
func (p *Provider) Stream(ctx context.Context, req *provider.Request) (<-chan provider.Event, error) {
	body, err := json.Marshal(completionRequest{
		Model:         req.Model,
		Prompt:        req.Prompt,
		MaxTokens:     req.MaxTokens,
		Stream:        true,
		StreamOptions: &streamOptions{IncludeUsage: true},
	})
	if err != nil {
		return nil, api.NewServerError(fmt.Sprintf("failed to marshal request: %s", err.Error()))
	}

	url := p.cfg.BaseURL + "/v1/completions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, api.NewServerError(fmt.Sprintf("failed to create HTTP request: %s", err.Error()))
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")
	p.setAuthHeaders(httpReq)

	debug.Log("providers", "completion request", "method", http.MethodPost, "url", url, "model", req.Model)
	debug.Raw("providers", string(body))

	// Use a client without timeout for streaming. The context controls
	// the request lifetime instead.
	streamClient := &http.Client{
		Transport: p.client.Transport,
	}

	httpResp, err := streamClient.Do(httpReq)
	if err != nil {
		return nil, mapNetworkError(err)
	}

	// Check for error status codes before starting the stream.
	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		defer httpResp.Body.Close()
		apiErr := mapHTTPError(httpResp)
		debug.Log("providers", "completion request rejected", "status", httpResp.StatusCode, "error", apiErr.Message)
		return nil, apiErr
	}

	ch := make(chan provider.Event, 16)

	go func() {
		defer close(ch)
		defer httpResp.Body.Close()
		parseSSEStream(ctx, httpResp.Body, ch)
	}()

	return ch, nil
}

// ListModels returns available models from the backend by querying
// the /v1/models endpoint.
func (p *Provider) ListModels(ctx context.Context) ([]provider.ModelInfo, error) {
	url := p.cfg.BaseURL + "/v1/models"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, api.NewServerError(fmt.Sprintf("failed to create HTTP request: %s", err.Error()))
	}
	p.setAuthHeaders(httpReq)

	httpResp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, mapNetworkError(err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		return nil, mapHTTPError(httpResp)
	}

	var modelsResp modelsResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&modelsResp); err != nil {
		return nil, api.NewServerError(fmt.Sprintf("failed to parse models response: %s", err.Error()))
	}

	models := make([]provider.ModelInfo, 0, len(modelsResp.Data))
	for _, m := range modelsResp.Data {
		models = append(models, provider.ModelInfo{
			ID:      m.ID,
			Object:  m.Object,
			OwnedBy: m.OwnedBy,
		})
	}

	return models, nil
}

// Close releases provider resources.
func (p *Provider) Close() error {
	p.client.CloseIdleConnections()
	return nil
}

func (p *Provider) setAuthHeaders(req *http.Request) {
	if p.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.cfg.APIKey)
	}
	if p.cfg.Organization != "" {
		req.Header.Set("OpenAI-Organization", p.cfg.Organization)
	}
}
