// Package generation wraps the Bedrock Agent Runtime RetrieveAndGenerate
// call behind a small client: given a question it returns a grounded answer,
// the documents it was grounded on, and the model that produced it.
//
// The adapter performs no retries and no fallback; callers own that policy.
package generation

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockagentruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockagentruntime/types"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/torolabs/go-qa-backend/internal/config"
)

// Fixed inference parameters. Only the token limit is caller-adjustable.
const (
	DefaultMaxTokens = 4096

	temperature         float32 = 0.2
	topP                float32 = 0.9
	vectorSearchResults int32   = 5
)

// promptTemplate constrains the model to the retrieved passages. The
// $search_results$ placeholder is filled in by Bedrock with the retrieved
// context.
const promptTemplate = `You are a helpful assistant answering user questions.

Use only the information contained in the search results below to answer.
Do not use any prior knowledge. Answer in the same language the question was
asked in. If the search results do not contain enough information to answer
the question, reply exactly: "I could not find enough information in the
knowledge base to answer this question."

Formatting rules: use line breaks between list items and bold text for
headings.

Search results:
$search_results$
`

// Configuration errors, detected before any network call is made.
var (
	// ErrMissingKnowledgeBase indicates no Knowledge Base id was configured.
	ErrMissingKnowledgeBase = errors.New("generation: knowledge base id not configured")

	// ErrMissingAccountID indicates a short inference profile id needs ARN
	// resolution but no AWS account id was configured.
	ErrMissingAccountID = errors.New("generation: aws account id not configured")
)

// RetrieveAndGenerateAPI is the subset of the Bedrock Agent Runtime client
// the adapter consumes.
type RetrieveAndGenerateAPI interface {
	RetrieveAndGenerate(ctx context.Context, params *bedrockagentruntime.RetrieveAndGenerateInput, optFns ...func(*bedrockagentruntime.Options)) (*bedrockagentruntime.RetrieveAndGenerateOutput, error)
}

// Source is one retrieved document an answer was grounded on.
type Source struct {
	DocumentID string `json:"document_id"`
	Excerpt    string `json:"excerpt,omitempty"`
}

// Result is the normalized outcome of a retrieve-and-generate call.
type Result struct {
	Answer            string
	Sources           []Source
	ModelID           string
	FoundRelevantDocs bool
}

// Client calls Bedrock RetrieveAndGenerate against a Knowledge Base.
type Client struct {
	api             RetrieveAndGenerateAPI
	knowledgeBaseID string
	profileID       string
	accountID       string
	region          string

	// MaxTokens caps the generated answer length. Defaults to
	// DefaultMaxTokens when zero.
	MaxTokens int32
}

// New returns a Client configured from cfg. region is the AWS region of the
// underlying client, needed to resolve short inference profile ids into
// ARNs.
func New(api RetrieveAndGenerateAPI, cfg config.GenerationConfig, region string) *Client {
	return &Client{
		api:             api,
		knowledgeBaseID: cfg.KnowledgeBaseID,
		profileID:       cfg.InferenceProfileID,
		accountID:       cfg.AccountID,
		region:          region,
		MaxTokens:       int32(cfg.MaxTokens),
	}
}

// Answer retrieves relevant passages for the question and generates a
// grounded answer. FoundRelevantDocs is true iff at least one source could
// be extracted from the response citations.
func (c *Client) Answer(ctx context.Context, question string) (*Result, error) {
	if c.knowledgeBaseID == "" {
		return nil, ErrMissingKnowledgeBase
	}
	modelARN, err := c.inferenceProfileARN()
	if err != nil {
		return nil, err
	}

	maxTokens := c.MaxTokens
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}

	ctx, span := otel.Tracer("generation").Start(ctx, "bedrock.retrieve_and_generate")
	defer span.End()

	out, err := c.api.RetrieveAndGenerate(ctx, &bedrockagentruntime.RetrieveAndGenerateInput{
		Input: &types.RetrieveAndGenerateInput{Text: aws.String(question)},
		RetrieveAndGenerateConfiguration: &types.RetrieveAndGenerateConfiguration{
			Type: types.RetrieveAndGenerateTypeKnowledgeBase,
			KnowledgeBaseConfiguration: &types.KnowledgeBaseRetrieveAndGenerateConfiguration{
				KnowledgeBaseId: aws.String(c.knowledgeBaseID),
				ModelArn:        aws.String(modelARN),
				RetrievalConfiguration: &types.KnowledgeBaseRetrievalConfiguration{
					VectorSearchConfiguration: &types.KnowledgeBaseVectorSearchConfiguration{
						NumberOfResults: aws.Int32(vectorSearchResults),
					},
				},
				GenerationConfiguration: &types.GenerationConfiguration{
					PromptTemplate: &types.PromptTemplate{
						TextPromptTemplate: aws.String(promptTemplate),
					},
					InferenceConfig: &types.InferenceConfig{
						TextInferenceConfig: &types.TextInferenceConfig{
							MaxTokens:   aws.Int32(maxTokens),
							Temperature: aws.Float32(temperature),
							TopP:        aws.Float32(topP),
						},
					},
				},
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("generation: retrieve and generate: %w", err)
	}

	res := &Result{ModelID: c.profileID}
	if out.Output != nil && out.Output.Text != nil {
		res.Answer = *out.Output.Text
	}
	res.Sources = extractSources(out.Citations)
	res.FoundRelevantDocs = len(res.Sources) > 0

	span.SetAttributes(attribute.Int("generation.sources", len(res.Sources)))
	log.Debug().Int("sources", len(res.Sources)).Str("model", res.ModelID).Msg("generation completed")
	return res, nil
}

// inferenceProfileARN resolves the configured profile id into a full ARN.
// Ids that are already ARNs pass through unchanged.
func (c *Client) inferenceProfileARN() (string, error) {
	if strings.HasPrefix(c.profileID, "arn:") {
		return c.profileID, nil
	}
	if c.accountID == "" {
		return "", ErrMissingAccountID
	}
	return fmt.Sprintf("arn:aws:bedrock:%s:%s:inference-profile/%s", c.region, c.accountID, c.profileID), nil
}

// extractSources pulls document references out of the response citations.
// Every level of the citation structure is optional upstream, so each one is
// checked before dereferencing.
func extractSources(citations []types.Citation) []Source {
	var sources []Source
	for _, citation := range citations {
		for _, ref := range citation.RetrievedReferences {
			var src Source
			if ref.Location != nil && ref.Location.S3Location != nil && ref.Location.S3Location.Uri != nil {
				src.DocumentID = *ref.Location.S3Location.Uri
			}
			if ref.Content != nil && ref.Content.Text != nil {
				src.Excerpt = *ref.Content.Text
			}
			if src.DocumentID == "" && src.Excerpt == "" {
				continue
			}
			sources = append(sources, src)
		}
	}
	return sources
}
