package flashquiz

import (
	"context"
	"errors"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"
)

// Completer is a language-model completion endpoint. Any error it returns
// is treated as fatal for the quiz being generated.
type Completer interface {
	Complete(ctx context.Context, prompt string, maxTokens int) (string, error)
}

// CompleterConfig configures the OpenAI backed completer
type CompleterConfig struct {
	APIKey            string
	BaseURL           string
	Model             string
	Temperature       float32
	RequestsPerMinute int // 0 disables client-side rate limiting
}

// OpenAICompleter sends prompts to the OpenAI chat completions API
type OpenAICompleter struct {
	client      *openai.Client
	model       string
	temperature float32
	limiter     *rate.Limiter
}

// NewOpenAICompleter creates a completer with an OpenAI client
func NewOpenAICompleter(cfg CompleterConfig) *OpenAICompleter {
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	model := cfg.Model
	if model == "" {
		model = openai.GPT4oMini
	}

	var limiter *rate.Limiter
	if cfg.RequestsPerMinute > 0 {
		limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.RequestsPerMinute)), 1)
	}

	return &OpenAICompleter{
		client:      openai.NewClientWithConfig(clientConfig),
		model:       model,
		temperature: cfg.Temperature,
		limiter:     limiter,
	}
}

// Complete sends one chat completion request and returns the text of the first choice
func (c *OpenAICompleter) Complete(ctx context.Context, prompt string, maxTokens int) (string, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", &APIError{Err: err}
		}
	}

	resp, err := c.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: c.model,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleSystem,
					Content: "You are a helpful quiz generator that outputs only valid JSON.",
				},
				{
					Role:    openai.ChatMessageRoleUser,
					Content: prompt,
				},
			},
			Temperature: c.temperature,
			MaxTokens:   maxTokens,
			ResponseFormat: &openai.ChatCompletionResponseFormat{
				Type: openai.ChatCompletionResponseFormatTypeJSONObject,
			},
		},
	)
	if err != nil {
		return "", &APIError{StatusCode: statusCode(err), Err: err}
	}

	VerboseLog("Received response from %s with %d choices", c.model, len(resp.Choices))

	// an empty reply is a payload problem, not a transport one
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}

func statusCode(err error) int {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode
	}
	return 0
}
