package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
	"github.com/tmc/langchaingo/llms"
)

// ConverseAPI is the subset of the Bedrock runtime client used by ConverseModel
type ConverseAPI interface {
	Converse(ctx context.Context, params *bedrockruntime.ConverseInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error)
}

// ConverseModel is a langchaingo model backed by the Bedrock Converse API.
// Temperature is always sent, so a zero value selects greedy sampling
// instead of the model default.
type ConverseModel struct {
	api     ConverseAPI
	modelID string
}

var _ llms.Model = (*ConverseModel)(nil)

// NewBedrockModel builds a langchaingo model that calls modelID through runtime
func NewBedrockModel(runtime ConverseAPI, modelID string) (*ConverseModel, error) {
	if runtime == nil {
		return nil, fmt.Errorf("bedrock runtime client is required")
	}
	if modelID == "" {
		return nil, fmt.Errorf("model ID is required")
	}
	return &ConverseModel{api: runtime, modelID: modelID}, nil
}

// Call implements llms.Model
func (m *ConverseModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, m, prompt, options...)
}

// GenerateContent implements llms.Model. Only text parts are supported.
func (m *ConverseModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	opts := llms.CallOptions{}
	for _, opt := range options {
		opt(&opts)
	}

	input := &bedrockruntime.ConverseInput{
		ModelId: aws.String(m.modelID),
		InferenceConfig: &types.InferenceConfiguration{
			Temperature: aws.Float32(float32(opts.Temperature)),
		},
	}
	if opts.MaxTokens > 0 {
		input.InferenceConfig.MaxTokens = aws.Int32(int32(opts.MaxTokens))
	}
	if len(opts.StopWords) > 0 {
		input.InferenceConfig.StopSequences = opts.StopWords
	}

	for _, msg := range messages {
		text, err := textOf(msg)
		if err != nil {
			return nil, err
		}

		switch msg.Role {
		case llms.ChatMessageTypeSystem:
			input.System = append(input.System, &types.SystemContentBlockMemberText{Value: text})
		case llms.ChatMessageTypeHuman, llms.ChatMessageTypeGeneric:
			input.Messages = append(input.Messages, textMessage(types.ConversationRoleUser, text))
		case llms.ChatMessageTypeAI:
			input.Messages = append(input.Messages, textMessage(types.ConversationRoleAssistant, text))
		default:
			return nil, fmt.Errorf("unsupported message role %q", msg.Role)
		}
	}

	output, err := m.api.Converse(ctx, input)
	if err != nil {
		return nil, err
	}

	message, ok := output.Output.(*types.ConverseOutputMemberMessage)
	if !ok {
		return &llms.ContentResponse{}, nil
	}

	var content strings.Builder
	for _, block := range message.Value.Content {
		if text, ok := block.(*types.ContentBlockMemberText); ok {
			content.WriteString(text.Value)
		}
	}
	if content.Len() == 0 {
		return &llms.ContentResponse{}, nil
	}

	info := map[string]any{}
	if output.Usage != nil {
		info["input_tokens"] = aws.ToInt32(output.Usage.InputTokens)
		info["output_tokens"] = aws.ToInt32(output.Usage.OutputTokens)
	}

	return &llms.ContentResponse{
		Choices: []*llms.ContentChoice{{
			Content:        content.String(),
			StopReason:     string(output.StopReason),
			GenerationInfo: info,
		}},
	}, nil
}

func textOf(msg llms.MessageContent) (string, error) {
	var b strings.Builder
	for _, part := range msg.Parts {
		text, ok := part.(llms.TextContent)
		if !ok {
			return "", fmt.Errorf("unsupported content part %T", part)
		}
		b.WriteString(text.Text)
	}
	return b.String(), nil
}

func textMessage(role types.ConversationRole, text string) types.Message {
	return types.Message{
		Role:    role,
		Content: []types.ContentBlock{&types.ContentBlockMemberText{Value: text}},
	}
}
