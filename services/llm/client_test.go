package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
	"go.uber.org/zap"

	"github.com/upb/hybrid-rag/config"
	"github.com/upb/hybrid-rag/services"
)

// stubModel is a langchaingo model that records what it was asked
type stubModel struct {
	calls    int
	messages []llms.MessageContent
	options  llms.CallOptions
	resp     *llms.ContentResponse
	err      error
}

func (m *stubModel) GenerateContent(_ context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	m.calls++
	m.messages = messages
	for _, opt := range options {
		opt(&m.options)
	}
	if m.err != nil {
		return nil, m.err
	}
	return m.resp, nil
}

func (m *stubModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, m, prompt, options...)
}

func testModelConfig() config.ModelConfig {
	return config.ModelConfig{
		ID:          config.DefaultModelID,
		Temperature: 0.0,
		MaxTokens:   config.DefaultMaxTokens,
	}
}

func TestClient_Generate(t *testing.T) {
	logger := zap.NewNop()

	t.Run("returns first choice with configured sampling", func(t *testing.T) {
		model := &stubModel{
			resp: &llms.ContentResponse{
				Choices: []*llms.ContentChoice{{Content: "unified answer", StopReason: "end_turn"}},
			},
		}
		client := NewClient(model, testModelConfig(), logger)

		text, err := client.Generate(context.Background(), "synthesize this")
		require.NoError(t, err)
		assert.Equal(t, "unified answer", text)

		assert.Equal(t, 1, model.calls)
		require.Len(t, model.messages, 1)
		assert.Equal(t, llms.ChatMessageTypeHuman, model.messages[0].Role)
		require.Len(t, model.messages[0].Parts, 1)
		assert.Equal(t, llms.TextContent{Text: "synthesize this"}, model.messages[0].Parts[0])

		assert.Equal(t, 0.0, model.options.Temperature)
		assert.Equal(t, 4096, model.options.MaxTokens)
	})

	t.Run("model failure is an external error", func(t *testing.T) {
		model := &stubModel{err: errors.New("ThrottlingException")}
		client := NewClient(model, testModelConfig(), logger)

		text, err := client.Generate(context.Background(), "synthesize this")
		assert.Empty(t, text)
		require.Error(t, err)
		assert.ErrorIs(t, err, services.ErrModelUnavailable)
		assert.Equal(t, config.DefaultModelID, services.GetErrorDetails(err)["model_id"])
		assert.Equal(t, 1, model.calls)
	})

	t.Run("no choices is an external error", func(t *testing.T) {
		model := &stubModel{resp: &llms.ContentResponse{}}
		client := NewClient(model, testModelConfig(), logger)

		_, err := client.Generate(context.Background(), "synthesize this")
		assert.ErrorIs(t, err, services.ErrEmptyModelResponse)
		assert.True(t, services.IsExternalError(err))
	})

	t.Run("empty prompt is rejected without a call", func(t *testing.T) {
		model := &stubModel{}
		client := NewClient(model, testModelConfig(), logger)

		_, err := client.Generate(context.Background(), "  \n")
		assert.ErrorIs(t, err, services.ErrEmptyPrompt)
		assert.Equal(t, 0, model.calls)
	})
}

func TestClient_ModelID(t *testing.T) {
	client := NewClient(&stubModel{}, testModelConfig(), zap.NewNop())
	assert.Equal(t, "anthropic.claude-3-haiku-20240307-v1:0", client.ModelID())
}
