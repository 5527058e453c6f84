package relay

import (
	"context"
	"errors"
	"fmt"
	"io"

	openai "github.com/sashabaranov/go-openai"

	"mentorhub/pkg/logger"
	"mentorhub/pkg/models"
)

// UpstreamConfig describes the completion API endpoint.
type UpstreamConfig struct {
	BaseURL   string
	APIKey    string
	Model     string
	MaxTokens int
}

// OpenAIStreamer talks to an OpenAI-compatible chat completion API.
type OpenAIStreamer struct {
	client    *openai.Client
	model     string
	maxTokens int
}

// NewOpenAIStreamer builds a streamer for the configured endpoint.
func NewOpenAIStreamer(cfg UpstreamConfig) (*OpenAIStreamer, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("upstream api key is required")
	}
	c := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		c.BaseURL = cfg.BaseURL
	}
	model := cfg.Model
	if model == "" {
		model = openai.GPT4oMini
	}
	return &OpenAIStreamer{
		client:    openai.NewClientWithConfig(c),
		model:     model,
		maxTokens: cfg.MaxTokens,
	}, nil
}

// Stream opens a streaming completion and forwards content deltas.
func (o *OpenAIStreamer) Stream(ctx context.Context, msgs []models.Message) (<-chan string, <-chan error) {
	frags := make(chan string)
	errs := make(chan error, 1)

	req := openai.ChatCompletionRequest{
		Model:     o.model,
		MaxTokens: o.maxTokens,
		Stream:    true,
	}
	for _, m := range msgs {
		req.Messages = append(req.Messages, openai.ChatCompletionMessage{
			Role:    m.Role,
			Content: m.Content,
		})
	}

	go func() {
		defer close(frags)
		stream, err := o.client.CreateChatCompletionStream(ctx, req)
		if err != nil {
			logger.Error("upstream_open_failed", "model", o.model, "error", err)
			errs <- fmt.Errorf("%w: %v", ErrUpstream, err)
			return
		}
		defer stream.Close()
		for {
			resp, err := stream.Recv()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				logger.Warn("upstream_stream_broken", "model", o.model, "error", err)
				errs <- fmt.Errorf("%w: %v", ErrUpstream, err)
				return
			}
			if len(resp.Choices) == 0 {
				continue
			}
			delta := resp.Choices[0].Delta.Content
			if delta == "" {
				continue
			}
			select {
			case frags <- delta:
			case <-ctx.Done():
				return
			}
		}
	}()
	return frags, errs
}
