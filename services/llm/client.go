// Package llm invokes the hosted synthesis model.
package llm

import (
	"context"
	"strings"
	"time"

	"github.com/tmc/langchaingo/llms"
	"go.uber.org/zap"

	"github.com/upb/hybrid-rag/config"
	"github.com/upb/hybrid-rag/services"
)

// Client sends a single prompt to a language model with fixed sampling parameters
type Client struct {
	model  llms.Model
	config config.ModelConfig
	logger *zap.Logger
}

// NewClient creates a new language model client
func NewClient(model llms.Model, cfg config.ModelConfig, logger *zap.Logger) *Client {
	return &Client{
		model:  model,
		config: cfg,
		logger: logger,
	}
}

// ModelID returns the configured model identifier
func (c *Client) ModelID() string {
	return c.config.ID
}

// Generate returns the model's text for prompt. One attempt, no streaming.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", services.NewDomainError(services.ErrorTypeValidation, services.ErrEmptyPrompt.Message, nil)
	}

	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeHuman, prompt),
	}

	start := time.Now()
	resp, err := c.model.GenerateContent(ctx, messages,
		llms.WithTemperature(c.config.Temperature),
		llms.WithMaxTokens(c.config.MaxTokens),
	)
	if err != nil {
		return "", services.NewDomainError(services.ErrorTypeExternal, services.ErrModelUnavailable.Message, err).
			WithDetail("model_id", c.config.ID)
	}
	if resp == nil || len(resp.Choices) == 0 {
		return "", services.NewDomainError(services.ErrorTypeExternal, services.ErrEmptyModelResponse.Message, nil).
			WithDetail("model_id", c.config.ID)
	}

	choice := resp.Choices[0]
	c.logger.Debug("model invocation completed",
		zap.String("model_id", c.config.ID),
		zap.String("stop_reason", choice.StopReason),
		zap.Int("prompt_chars", len(prompt)),
		zap.Int("response_chars", len(choice.Content)),
		zap.Duration("latency", time.Since(start)))

	return choice.Content, nil
}
