package flashquiz

import (
	"encoding/json"
	"strings"
)

// questionPayload mirrors the JSON object the model is asked to return.
// Pointer fields let ParseQuestion tell a missing field from a zero value.
type questionPayload struct {
	Question      *string  `json:"question"`
	Options       []string `json:"options"`
	CorrectIndex  *int     `json:"correct_index"`
	CorrectAnswer *string  `json:"correct_answer"`
	Explanation   *string  `json:"explanation"`
}

// ParseQuestion validates a model reply and turns it into a Question.
// Every failure wraps ErrMalformedResponse with the reason.
func ParseQuestion(payload string) (Question, error) {
	body := extractJSON(payload)
	if body == "" {
		return Question{}, malformed("empty response")
	}

	var p questionPayload
	if err := json.Unmarshal([]byte(body), &p); err != nil {
		return Question{}, malformed("not valid JSON: %v", err)
	}

	if p.Question == nil || strings.TrimSpace(*p.Question) == "" {
		return Question{}, malformed("missing question text")
	}

	if len(p.Options) != NumOptions {
		return Question{}, malformed("expected %d options, got %d", NumOptions, len(p.Options))
	}

	options := make([]string, NumOptions)
	seen := make(map[string]bool, NumOptions)
	for i, option := range p.Options {
		option = strings.TrimSpace(option)
		if option == "" {
			return Question{}, malformed("option %d is empty", i+1)
		}
		key := strings.ToLower(option)
		if seen[key] {
			return Question{}, malformed("duplicate option %q", option)
		}
		seen[key] = true
		options[i] = option
	}

	correct, err := correctIndex(p, options)
	if err != nil {
		return Question{}, err
	}

	q := Question{
		Text:          strings.TrimSpace(*p.Question),
		Options:       options,
		CorrectAnswer: correct,
	}
	if p.Explanation != nil {
		q.Explanation = strings.TrimSpace(*p.Explanation)
	}
	return q, nil
}

// correctIndex prefers correct_index and falls back to a correct_answer
// string that names exactly one option.
func correctIndex(p questionPayload, options []string) (int, error) {
	if p.CorrectIndex != nil {
		if *p.CorrectIndex < 0 || *p.CorrectIndex >= NumOptions {
			return 0, malformed("correct_index %d out of range", *p.CorrectIndex)
		}
		return *p.CorrectIndex, nil
	}

	if p.CorrectAnswer != nil {
		answer := strings.TrimSpace(*p.CorrectAnswer)
		for i, option := range options {
			if option == answer {
				return i, nil
			}
		}
		return 0, malformed("correct_answer %q does not match any option", answer)
	}

	return 0, malformed("missing correct_index")
}

// extractJSON strips Markdown code fences and surrounding chatter so that
// only the outermost JSON object is left.
func extractJSON(content string) string {
	content = strings.TrimSpace(content)

	if strings.HasPrefix(content, "```") {
		start := 3
		if newline := strings.Index(content[start:], "\n"); newline != -1 {
			start += newline + 1
		}
		if end := strings.Index(content[start:], "```"); end != -1 {
			content = content[start : start+end]
		} else {
			content = content[start:]
		}
	}

	content = strings.TrimSpace(content)
	if start := strings.Index(content, "{"); start != -1 {
		if end := strings.LastIndex(content, "}"); end > start {
			content = content[start : end+1]
		}
	}
	return strings.TrimSpace(content)
}
