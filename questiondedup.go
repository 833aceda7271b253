package flashquiz

import (
	"fmt"
	"strings"
	"unicode"
)

// QuestionDedup detects questions that repeat an already accepted question.
// Two questions are duplicates when their normalized text matches, or when
// they list the same normalized options with the same correct option.
type QuestionDedup struct {
	byText    map[string]int
	byOptions map[string]int
}

// NewQuestionDedup creates an empty deduplicator
func NewQuestionDedup() *QuestionDedup {
	return &QuestionDedup{
		byText:    make(map[string]int),
		byOptions: make(map[string]int),
	}
}

// DedupResult represents the result of deduplication
type DedupResult struct {
	IsDuplicate bool
	Reason      string
	DuplicateOf int // number of the earlier question
}

// CheckDuplicate checks a question against every accepted one and accepts it when unique
func (qd *QuestionDedup) CheckDuplicate(number int, question *Question) DedupResult {
	textKey := normalizeForDedup(question.Text)
	if earlier, ok := qd.byText[textKey]; ok {
		return DedupResult{
			IsDuplicate: true,
			Reason:      fmt.Sprintf("same question text as question %d", earlier),
			DuplicateOf: earlier,
		}
	}

	optionsKey := optionsKey(question)
	if earlier, ok := qd.byOptions[optionsKey]; ok {
		return DedupResult{
			IsDuplicate: true,
			Reason:      fmt.Sprintf("same options and answer as question %d", earlier),
			DuplicateOf: earlier,
		}
	}

	qd.byText[textKey] = number
	qd.byOptions[optionsKey] = number
	VerboseLog("Question %d: unique", number)
	return DedupResult{Reason: "unique"}
}

func optionsKey(q *Question) string {
	var sb strings.Builder
	for i, option := range q.Options {
		if i == q.CorrectAnswer {
			sb.WriteString("*")
		}
		sb.WriteString(normalizeForDedup(option))
		sb.WriteString("|")
	}
	return sb.String()
}

func normalizeForDedup(s string) string {
	var sb strings.Builder
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}
