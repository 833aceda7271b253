package flashquiz

import (
	"fmt"
	"io"
	"strings"
)

// QuestionResult is the outcome of one question in a submitted quiz
type QuestionResult struct {
	Number        int      `json:"number"` // 1-based
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	Selected      int      `json:"selected"` // -1 when unanswered
	CorrectAnswer int      `json:"correct_answer"`
	IsCorrect     bool     `json:"is_correct"`
	Explanation   string   `json:"explanation,omitempty"`
}

// Answered reports whether the question received an answer
func (r QuestionResult) Answered() bool {
	return r.Selected >= 0
}

// SelectedText is the text of the chosen option or "Not answered"
func (r QuestionResult) SelectedText() string {
	if !r.Answered() {
		return "Not answered"
	}
	return r.Options[r.Selected]
}

// CorrectText is the text of the correct option
func (r QuestionResult) CorrectText() string {
	return r.Options[r.CorrectAnswer]
}

// ScoreReport is derived from a submitted session and never mutated
type ScoreReport struct {
	CorrectCount int              `json:"correct_count"`
	Total        int              `json:"total"`
	PerQuestion  []QuestionResult `json:"per_question"`
}

// Score computes the report for a submitted session
func Score(s *QuizSession) (*ScoreReport, error) {
	if s.status != StatusSubmitted {
		return nil, fmt.Errorf("%w: cannot score a quiz that is %s", ErrInvalidState, s.status)
	}

	report := &ScoreReport{
		Total:       len(s.questions),
		PerQuestion: make([]QuestionResult, len(s.questions)),
	}

	for i, q := range s.questions {
		selected, ok := s.answers[i]
		if !ok {
			selected = -1
		}
		correct := ok && selected == q.CorrectAnswer
		if correct {
			report.CorrectCount++
		}
		report.PerQuestion[i] = QuestionResult{
			Number:        i + 1,
			Question:      q.Text,
			Options:       append([]string(nil), q.Options...),
			Selected:      selected,
			CorrectAnswer: q.CorrectAnswer,
			IsCorrect:     correct,
			Explanation:   q.Explanation,
		}
	}

	return report, nil
}

// Wrong is the number of incorrect or unanswered questions
func (r *ScoreReport) Wrong() int {
	return r.Total - r.CorrectCount
}

// Percentage is the score as a whole percentage, rounded down
func (r *ScoreReport) Percentage() int {
	if r.Total == 0 {
		return 0
	}
	return r.CorrectCount * 100 / r.Total
}

// Mistakes returns the results that were not answered correctly
func (r *ScoreReport) Mistakes() []QuestionResult {
	var out []QuestionResult
	for _, q := range r.PerQuestion {
		if !q.IsCorrect {
			out = append(out, q)
		}
	}
	return out
}

// Feedback is a short message matching the score band
func (r *ScoreReport) Feedback() string {
	switch p := r.Percentage(); {
	case p >= 80:
		return "Excellent! You've mastered this material!"
	case p >= 60:
		return "Good job! A bit more practice will make you perfect!"
	default:
		return "Keep studying! Review the weak areas below."
	}
}

// WriteReport renders a plain text report with a review of every mistake
func WriteReport(w io.Writer, r *ScoreReport) error {
	var sb strings.Builder

	sb.WriteString("Quiz Results\n")
	sb.WriteString(fmt.Sprintf("  Total questions: %d\n", r.Total))
	sb.WriteString(fmt.Sprintf("  Correct: %d\n", r.CorrectCount))
	sb.WriteString(fmt.Sprintf("  Wrong: %d\n", r.Wrong()))
	sb.WriteString(fmt.Sprintf("  Score: %d%%\n\n", r.Percentage()))
	sb.WriteString(r.Feedback())
	sb.WriteString("\n")

	mistakes := r.Mistakes()
	if len(mistakes) == 0 {
		sb.WriteString("\nPerfect score! You didn't miss any questions!\n")
	} else {
		sb.WriteString("\nReview your mistakes:\n")
		for _, m := range mistakes {
			sb.WriteString(fmt.Sprintf("\nQuestion %d: %s\n", m.Number, m.Question))
			sb.WriteString(fmt.Sprintf("  Your answer: %s\n", m.SelectedText()))
			sb.WriteString(fmt.Sprintf("  Correct answer: %s\n", m.CorrectText()))
			if m.Explanation != "" {
				sb.WriteString(fmt.Sprintf("  Explanation: %s\n", m.Explanation))
			}
		}
	}

	_, err := io.WriteString(w, sb.String())
	return err
}
