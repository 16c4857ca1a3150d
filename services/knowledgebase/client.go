// Package knowledgebase retrieves scored passages from Amazon Bedrock knowledge bases.
package knowledgebase

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockagentruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockagentruntime/types"
	"github.com/aws/smithy-go"
	"go.uber.org/zap"

	"github.com/upb/hybrid-rag/models"
	"github.com/upb/hybrid-rag/services"
)

// DefaultMaxResults is the number of passages requested when the caller passes no limit
const DefaultMaxResults = 5

// RetrieveAPI is the subset of the Bedrock agent runtime client used for retrieval
type RetrieveAPI interface {
	Retrieve(ctx context.Context, params *bedrockagentruntime.RetrieveInput, optFns ...func(*bedrockagentruntime.Options)) (*bedrockagentruntime.RetrieveOutput, error)
}

// Client issues single-attempt retrieval calls against a knowledge base
type Client struct {
	api        RetrieveAPI
	logger     *zap.Logger
	maxResults int
}

// NewClient creates a new knowledge base client
func NewClient(api RetrieveAPI, logger *zap.Logger, maxResults int) *Client {
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}
	return &Client{
		api:        api,
		logger:     logger,
		maxResults: maxResults,
	}
}

// Retrieve queries one knowledge base and returns its scored results in service order.
// Failures are returned as DomainErrors; the caller decides whether to degrade.
func (c *Client) Retrieve(ctx context.Context, query, knowledgeBaseID string, maxResults int) ([]models.RetrievalResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, services.NewDomainError(services.ErrorTypeValidation, services.ErrEmptyQuery.Message, nil)
	}
	if knowledgeBaseID == "" {
		return nil, services.NewDomainError(services.ErrorTypeValidation, services.ErrMissingKnowledgeBase.Message, nil)
	}
	if maxResults <= 0 {
		maxResults = c.maxResults
	}

	input := &bedrockagentruntime.RetrieveInput{
		KnowledgeBaseId: aws.String(knowledgeBaseID),
		RetrievalQuery: &types.KnowledgeBaseQuery{
			Text: aws.String(query),
		},
		RetrievalConfiguration: &types.KnowledgeBaseRetrievalConfiguration{
			VectorSearchConfiguration: &types.KnowledgeBaseVectorSearchConfiguration{
				NumberOfResults: aws.Int32(int32(maxResults)),
			},
		},
	}

	start := time.Now()
	output, err := c.api.Retrieve(ctx, input, singleAttempt)
	if err != nil {
		domainErr := services.NewDomainError(services.ErrorTypeExternal, services.ErrKnowledgeBaseUnavailable.Message, err).
			WithDetail("knowledge_base_id", knowledgeBaseID)
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) {
			domainErr.WithDetail("code", apiErr.ErrorCode())
		}
		return nil, domainErr
	}

	results := convertResults(output.RetrievalResults)

	c.logger.Debug("knowledge base retrieval completed",
		zap.String("knowledge_base_id", knowledgeBaseID),
		zap.Int("results", len(results)),
		zap.Duration("latency", time.Since(start)))

	return results, nil
}

// singleAttempt disables SDK retries for one call
func singleAttempt(o *bedrockagentruntime.Options) {
	o.Retryer = aws.NopRetryer{}
}

func convertResults(raw []types.KnowledgeBaseRetrievalResult) []models.RetrievalResult {
	results := make([]models.RetrievalResult, 0, len(raw))
	for _, r := range raw {
		result := models.RetrievalResult{
			Score: aws.ToFloat64(r.Score),
		}
		if r.Content != nil {
			result.Content = aws.ToString(r.Content.Text)
		}
		if r.Location != nil && r.Location.S3Location != nil {
			result.SourceURI = aws.ToString(r.Location.S3Location.Uri)
		}
		results = append(results, result)
	}
	return results
}
