package enrichment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/turtacn/GovMatch-Engine/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/GovMatch-Engine/pkg/errors"
)

// OpenAIConfig configures the OpenAI-compatible chat completions provider.
// Any endpoint that speaks the /v1/chat/completions dialect works, including
// self-hosted gateways.
type OpenAIConfig struct {
	BaseURL string `mapstructure:"base_url"`
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`

	// Per-1K-token prices used for cost accounting.  Zero disables cost
	// tracking for that direction.
	InputPricePer1K  float64 `mapstructure:"input_price_per_1k"`
	OutputPricePer1K float64 `mapstructure:"output_price_per_1k"`

	HTTPTimeout time.Duration `mapstructure:"http_timeout"`
}

func (c *OpenAIConfig) normalize() {
	if c.BaseURL == "" {
		c.BaseURL = "https://api.openai.com/v1"
	}
	if c.Model == "" {
		c.Model = "gpt-4o-mini"
	}
	if c.HTTPTimeout <= 0 {
		c.HTTPTimeout = 60 * time.Second
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
}

// OpenAIProvider implements LLMProvider against a chat completions endpoint.
type OpenAIProvider struct {
	cfg    OpenAIConfig
	client *http.Client
	log    logging.Logger
}

var _ LLMProvider = (*OpenAIProvider)(nil)

// NewOpenAIProvider builds the provider.  The API key is required.
func NewOpenAIProvider(cfg OpenAIConfig, log logging.Logger) (*OpenAIProvider, error) {
	if cfg.APIKey == "" {
		return nil, errors.Validation("llm api key is required")
	}
	cfg.normalize()
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &OpenAIProvider{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.HTTPTimeout},
		log:    log.Named("llm"),
	}, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
	Model string `json:"model"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// Complete issues one chat completion and maps usage to cost.
func (p *OpenAIProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResult, error) {
	body, err := json.Marshal(chatRequest{
		Model: p.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: req.SystemPrompt},
			{Role: "user", Content: req.UserPrompt},
		},
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeProvider, "failed to encode completion request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		p.cfg.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeProvider, "failed to build completion request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+p.cfg.APIKey)

	start := time.Now()
	resp, err := p.client.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return nil, errors.Wrap(err, errors.ErrCodeProviderTimeout, "completion request timed out")
		}
		return nil, errors.Wrap(err, errors.ErrCodeProvider, "completion request failed")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeProvider, "failed to read completion response")
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeProviderParse,
			fmt.Sprintf("unparseable completion response (status %d)", resp.StatusCode))
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, errors.New(errors.ErrCodeLimitExceeded, "provider rate limit exceeded")
	}
	if resp.StatusCode != http.StatusOK {
		msg := fmt.Sprintf("provider returned status %d", resp.StatusCode)
		if parsed.Error != nil {
			msg = fmt.Sprintf("%s: %s", msg, parsed.Error.Message)
		}
		return nil, errors.New(errors.ErrCodeProvider, msg)
	}
	if len(parsed.Choices) == 0 {
		return nil, errors.New(errors.ErrCodeProviderParse, "completion response has no choices")
	}

	cost := float64(parsed.Usage.PromptTokens)/1000*p.cfg.InputPricePer1K +
		float64(parsed.Usage.CompletionTokens)/1000*p.cfg.OutputPricePer1K

	p.log.Debug("completion finished",
		logging.String("model", parsed.Model),
		logging.Int("input_tokens", parsed.Usage.PromptTokens),
		logging.Int("output_tokens", parsed.Usage.CompletionTokens),
		logging.Duration("latency", time.Since(start)),
	)

	return &CompletionResult{
		Text:         parsed.Choices[0].Message.Content,
		InputTokens:  parsed.Usage.PromptTokens,
		OutputTokens: parsed.Usage.CompletionTokens,
		CostUSD:      cost,
		Model:        parsed.Model,
	}, nil
}
