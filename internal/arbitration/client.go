package arbitration

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

// Client resolves one ambiguous segment at a time. Implementations must be
// safe for concurrent use; the pipeline fans requests out across workers.
type Client interface {
	// Resolve sends the prompt and returns the parsed verdict. The
	// requestID correlates a call with its pipeline log lines.
	Resolve(ctx context.Context, requestID, prompt string) (Verdict, error)
	// Available reports whether the client is configured and usable.
	Available() bool
	Close() error
}

// OpenAIClient arbitrates via the OpenAI chat completions API.
type OpenAIClient struct {
	client *openai.Client
	model  string
}

// NewOpenAIClient builds a client for the given API key and model. An empty
// key yields a client that reports itself unavailable rather than an error,
// so callers can degrade to score-only classification.
func NewOpenAIClient(apiKey, model string) *OpenAIClient {
	c := &OpenAIClient{model: model}
	if apiKey != "" {
		c.client = openai.NewClient(apiKey)
	}
	return c
}

func (c *OpenAIClient) Available() bool {
	return c.client != nil
}

func (c *OpenAIClient) Close() error {
	return nil
}

// Resolve sends one arbitration prompt. Temperature is kept near zero: the
// task is identifier selection, not generation.
func (c *OpenAIClient) Resolve(ctx context.Context, requestID, prompt string) (Verdict, error) {
	if c.client == nil {
		return Verdict{}, fmt.Errorf("arbitration client not configured")
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: SystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: 0.1,
	})
	if err != nil {
		return Verdict{}, fmt.Errorf("arbitration request %s: %w", requestID, err)
	}
	if len(resp.Choices) == 0 {
		return Verdict{}, fmt.Errorf("arbitration request %s: empty completion", requestID)
	}

	return ParseVerdict(resp.Choices[0].Message.Content)
}
