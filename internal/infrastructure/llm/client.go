package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// ClientConfig holds the Ollama-style generation endpoint settings. Connect
// and read timeouts are independent: generation can legitimately take far
// longer than connection establishment.
type ClientConfig struct {
	BaseURL        string
	Model          string
	ConnectTimeout time.Duration
	ReadTimeout    time.Duration
	Retries        int
	Backoff        time.Duration
	RequestsPerSec float64
}

// Client talks to an Ollama-compatible /api/generate endpoint. Read timeouts
// are retried with exponential backoff; connection failures fail fast with a
// clear error so batch loops can go heuristic instead of hanging.
type Client struct {
	httpClient *http.Client
	baseURL    string
	model      string
	retries    int
	backoff    time.Duration
	limiter    *rate.Limiter
	log        *zap.Logger
}

// ErrUnreachable marks connection-level failures (backend down or
// misconfigured), as opposed to slow generation.
var ErrUnreachable = errors.New("llm backend unreachable")

// NewClient builds a client with sane defaults for any zero config field.
func NewClient(config ClientConfig, log *zap.Logger) *Client {
	if config.BaseURL == "" {
		config.BaseURL = "http://localhost:11434"
	}
	if config.Model == "" {
		config.Model = "llama3.2:1b"
	}
	if config.ConnectTimeout <= 0 {
		config.ConnectTimeout = 10 * time.Second
	}
	if config.ReadTimeout <= 0 {
		config.ReadTimeout = 120 * time.Second
	}
	if config.Retries < 0 {
		config.Retries = 1
	}
	if config.Backoff <= 0 {
		config.Backoff = 2 * time.Second
	}
	if config.RequestsPerSec <= 0 {
		config.RequestsPerSec = 2
	}
	if log == nil {
		log = zap.NewNop()
	}

	transport := &http.Transport{
		DialContext: (&net.Dialer{Timeout: config.ConnectTimeout}).DialContext,
	}
	return &Client{
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   config.ReadTimeout,
		},
		baseURL: config.BaseURL,
		model:   config.Model,
		retries: config.Retries,
		backoff: config.Backoff,
		limiter: rate.NewLimiter(rate.Limit(config.RequestsPerSec), 1),
		log:     log,
	}
}

type generateRequest struct {
	Model   string         `json:"model"`
	Prompt  string         `json:"prompt"`
	Stream  bool           `json:"stream"`
	Format  string         `json:"format,omitempty"`
	Options map[string]any `json:"options"`
}

type generateResponse struct {
	Response string `json:"response"`
}

// Generate sends one prompt and returns the raw completion text. JSON output
// mode is requested; callers still salvage because small models ignore it.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	payload := generateRequest{
		Model:  c.model,
		Prompt: prompt,
		Stream: false,
		Format: "json",
		Options: map[string]any{
			"temperature": 0,
			"num_ctx":     2048,
			"num_predict": 512,
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	var lastErr error
	for attempt := 0; attempt <= c.retries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", err
		}
		start := time.Now()
		text, err := c.post(ctx, body)
		if err == nil {
			c.log.Debug("llm generate", zap.String("model", c.model), zap.Duration("dt", time.Since(start)))
			return text, nil
		}
		lastErr = err
		if errors.Is(err, ErrUnreachable) || ctx.Err() != nil {
			return "", err
		}
		// Read timeout or transient HTTP failure: back off and retry.
		if attempt < c.retries {
			delay := c.backoff * time.Duration(1<<attempt)
			c.log.Warn("llm retry", zap.Int("attempt", attempt+1), zap.Duration("backoff", delay), zap.Error(err))
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(delay):
			}
		}
	}
	return "", fmt.Errorf("llm generate failed after %d attempts: %w", c.retries+1, lastErr)
}

func (c *Client) post(ctx context.Context, body []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return "", fmt.Errorf("llm read timeout: %w", err)
		}
		return "", fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading llm response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		snippet := raw
		if len(snippet) > 800 {
			snippet = snippet[:800]
		}
		return "", fmt.Errorf("llm http %d: %s", resp.StatusCode, snippet)
	}

	var parsed generateResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("decoding llm envelope: %w", err)
	}
	return parsed.Response, nil
}
