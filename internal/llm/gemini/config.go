package gemini

import (
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/joseph-ayodele/receipt-parser/internal/common"
	"github.com/joseph-ayodele/receipt-parser/internal/llm"
)

const (
	DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	DefaultModel   = "gemini-2.5-flash"
)

// Config for the Gemini client.
type Config struct {
	APIKey  string        // if empty, falls back to env GEMINI_API_KEY
	BaseURL string        // default DefaultBaseURL
	Model   string        // e.g., "gemini-2.5-flash"
	Timeout time.Duration // per-attempt timeout of the constructed http client
	// HTTPClient overrides the constructed client; tests inject httptest transports here.
	HTTPClient *http.Client
	Retry      llm.RetryPolicy
}

type Client struct {
	cfg    Config
	http   *http.Client
	logger *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("GEMINI_API_KEY")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.Retry.Base <= 0 {
		cfg.Retry = llm.DefaultRetryPolicy()
	}
	if logger == nil {
		logger = slog.Default()
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	return &Client{
		cfg:    cfg,
		http:   httpClient,
		logger: logger,
	}
}

// Model returns the configured model name.
func (c *Client) Model() string { return c.cfg.Model }

// ConfigFrom maps the application settings onto a client Config.
func ConfigFrom(s common.GeminiConfig) Config {
	return Config{
		APIKey:  s.APIKey,
		BaseURL: s.BaseURL,
		Model:   s.Model,
		Timeout: s.Timeout,
		Retry:   llm.RetryPolicy{MaxRetries: s.MaxRetries, Base: s.BackoffBase},
	}
}
