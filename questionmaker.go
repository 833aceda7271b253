package flashquiz

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// DefaultMaxTokens bounds each completion
const DefaultMaxTokens = 300

// QuestionMaker turns one learning point into one multiple choice question
type QuestionMaker struct {
	completer Completer
	maxTokens int
	logger    *LLMLogger
}

// NewQuestionMaker creates a question maker on top of a completion endpoint
func NewQuestionMaker(completer Completer, maxTokens int) *QuestionMaker {
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	return &QuestionMaker{
		completer: completer,
		maxTokens: maxTokens,
	}
}

// SetLogger sets the transcript logger used for prompts and responses
func (qm *QuestionMaker) SetLogger(logger *LLMLogger) {
	qm.logger = logger
}

// GenerateQuestion asks the model for a question about the learning point.
// A malformed reply is retried once with a stricter prompt; if that also
// fails the returned error wraps ErrMalformedResponse. API failures are
// returned as *APIError without a retry.
func (qm *QuestionMaker) GenerateQuestion(ctx context.Context, point LearningPoint) (*Question, error) {
	question, err := qm.attempt(ctx, point, false)
	if err == nil || !errors.Is(err, ErrMalformedResponse) {
		return question, err
	}

	VerboseLog("Retrying malformed question for %q: %v", truncate(point.Text, 60), err)
	if qm.logger != nil {
		qm.logger.Logf("Malformed response, retrying with strict prompt: %v\n", err)
	}

	question, retryErr := qm.attempt(ctx, point, true)
	if retryErr != nil && errors.Is(retryErr, ErrMalformedResponse) {
		return nil, fmt.Errorf("after retry: %w", retryErr)
	}
	return question, retryErr
}

func (qm *QuestionMaker) attempt(ctx context.Context, point LearningPoint, strict bool) (*Question, error) {
	prompt := qm.buildPrompt(point, strict)

	if qm.logger != nil {
		qm.logger.LogLLMRequest("QuestionMaker", prompt)
	}

	content, err := qm.completer.Complete(ctx, prompt, qm.maxTokens)
	if err != nil {
		var apiErr *APIError
		if !errors.As(err, &apiErr) {
			err = &APIError{Err: err}
		}
		return nil, err
	}

	if qm.logger != nil {
		qm.logger.LogLLMResponse("QuestionMaker", content)
	}

	question, err := ParseQuestion(content)
	if err != nil {
		return nil, err
	}

	question.ID = uuid.New().String()
	question.Source = point.Text
	return &question, nil
}

func (qm *QuestionMaker) buildPrompt(point LearningPoint, strict bool) string {
	var sb strings.Builder

	sb.WriteString("You are an expert quiz creator. Generate ONE multiple-choice question based on the following text:\n\n")
	sb.WriteString(fmt.Sprintf("%q\n\n", point.Text))

	sb.WriteString("Return ONLY valid JSON in this exact format (no other text):\n")
	sb.WriteString("{\n")
	sb.WriteString("    \"question\": \"Your question here?\",\n")
	sb.WriteString("    \"options\": [\"Option A\", \"Option B\", \"Option C\", \"Option D\"],\n")
	sb.WriteString("    \"correct_index\": 0,\n")
	sb.WriteString("    \"explanation\": \"Brief explanation of why this is correct\"\n")
	sb.WriteString("}\n\n")

	sb.WriteString("Rules:\n")
	sb.WriteString("- Question must test understanding of the key concept\n")
	sb.WriteString("- All 4 options must be plausible and different from each other\n")
	sb.WriteString("- Only ONE option is correct\n")
	sb.WriteString("- Options should be concise (under 100 characters each)\n")
	sb.WriteString("- correct_index is the 0-based position of the correct option\n")

	if strict {
		sb.WriteString("\nIMPORTANT: Your previous reply could not be used.\n")
		sb.WriteString("- Reply with a single JSON object and nothing else: no Markdown, no code fences, no commentary\n")
		sb.WriteString("- \"options\" must contain exactly 4 distinct non-empty strings\n")
		sb.WriteString("- \"correct_index\" must be an integer between 0 and 3\n")
	}

	return sb.String()
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
