package embedding

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
)

// Dimension is the vector size produced by Titan text embeddings v2.
const Dimension = 1024

// BedrockEmbedder generates embeddings with an Amazon Titan embedding model.
type BedrockEmbedder struct {
	client      *bedrockruntime.Client
	modelID     string
	callTimeout time.Duration
}

func NewBedrockEmbedder(ctx context.Context, region, modelID string, callTimeout time.Duration) (*BedrockEmbedder, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("unable to load AWS config: %w", err)
	}
	if callTimeout <= 0 {
		callTimeout = 30 * time.Second
	}
	return &BedrockEmbedder{
		client:      bedrockruntime.NewFromConfig(cfg),
		modelID:     modelID,
		callTimeout: callTimeout,
	}, nil
}

type titanEmbedRequest struct {
	InputText  string `json:"inputText"`
	Dimensions int    `json:"dimensions,omitempty"`
}

type titanEmbedResponse struct {
	Embedding           []float32 `json:"embedding"`
	InputTextTokenCount int       `json:"inputTextTokenCount"`
}

// GenerateEmbeddings embeds a single text.
func (e *BedrockEmbedder) GenerateEmbeddings(ctx context.Context, text string) ([]float32, error) {
	body, err := json.Marshal(titanEmbedRequest{InputText: text, Dimensions: Dimension})
	if err != nil {
		return nil, fmt.Errorf("unable to serialize embedding request: %w", err)
	}

	callCtx, cancel := context.WithTimeout(ctx, e.callTimeout)
	defer cancel()

	output, err := e.client.InvokeModel(callCtx, &bedrockruntime.InvokeModelInput{
		ModelId:     &e.modelID,
		Body:        body,
		Accept:      aws.String("application/json"),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return nil, fmt.Errorf("unable to invoke embedding model: %w", err)
	}

	var response titanEmbedResponse
	if err := json.Unmarshal(output.Body, &response); err != nil {
		return nil, fmt.Errorf("failed to unmarshal embedding response: %w", err)
	}
	if len(response.Embedding) == 0 {
		return nil, fmt.Errorf("embedding model returned an empty vector")
	}

	return response.Embedding, nil
}

// GenerateBatchEmbeddings embeds texts one at a time; Titan has no batch
// endpoint.
func (e *BedrockEmbedder) GenerateBatchEmbeddings(ctx context.Context, texts []string) ([][]float32, error) {
	embeddings := make([][]float32, 0, len(texts))
	for i, text := range texts {
		vector, err := e.GenerateEmbeddings(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("embedding text %d of %d: %w", i+1, len(texts), err)
		}
		embeddings = append(embeddings, vector)
	}
	return embeddings, nil
}
