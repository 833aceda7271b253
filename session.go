package flashquiz

import (
	"fmt"

	"github.com/google/uuid"
)

// QuizStatus is the lifecycle state of a quiz session
type QuizStatus string

const (
	StatusNotStarted QuizStatus = "not_started"
	StatusInProgress QuizStatus = "in_progress"
	StatusSubmitted  QuizStatus = "submitted"
)

// QuizSession holds one user's questions, answers and lifecycle.
// A session is driven by a single actor and is not safe for concurrent use;
// SessionStore serializes access when sessions are shared with a server.
type QuizSession struct {
	ID        string
	questions []Question
	answers   map[int]int
	status    QuizStatus
	report    *ScoreReport
}

// NewQuizSession creates an empty session in the NotStarted state
func NewQuizSession() *QuizSession {
	return &QuizSession{
		ID:      uuid.New().String(),
		answers: make(map[int]int),
		status:  StatusNotStarted,
	}
}

// Status returns the current lifecycle state
func (s *QuizSession) Status() QuizStatus {
	return s.status
}

// Questions returns a copy of the session's questions
func (s *QuizSession) Questions() []Question {
	out := make([]Question, len(s.questions))
	for i, q := range s.questions {
		out[i] = cloneQuestion(q)
	}
	return out
}

// Answer returns the selected option for a question, if any
func (s *QuizSession) Answer(index int) (int, bool) {
	selected, ok := s.answers[index]
	return selected, ok
}

// Answers returns a copy of the recorded answers
func (s *QuizSession) Answers() map[int]int {
	out := make(map[int]int, len(s.answers))
	for k, v := range s.answers {
		out[k] = v
	}
	return out
}

// Start populates the session and moves it to InProgress.
// Starting an InProgress session again is a no-op.
func (s *QuizSession) Start(questions []Question) error {
	switch s.status {
	case StatusInProgress:
		return nil
	case StatusSubmitted:
		return fmt.Errorf("%w: cannot restart a submitted quiz", ErrInvalidState)
	}

	if len(questions) == 0 {
		return fmt.Errorf("%w: cannot start a quiz without questions", ErrInvalidState)
	}

	s.questions = make([]Question, len(questions))
	for i, q := range questions {
		s.questions[i] = cloneQuestion(q)
	}
	s.status = StatusInProgress
	return nil
}

// RecordAnswer sets or overwrites the selected option for a question
func (s *QuizSession) RecordAnswer(index, selected int) error {
	if s.status != StatusInProgress {
		return fmt.Errorf("%w: cannot record an answer while quiz is %s", ErrInvalidState, s.status)
	}
	if index < 0 || index >= len(s.questions) {
		return fmt.Errorf("%w: question %d does not exist", ErrInvalidAnswer, index+1)
	}
	if selected < 0 || selected >= len(s.questions[index].Options) {
		return fmt.Errorf("%w: option %d does not exist for question %d", ErrInvalidAnswer, selected+1, index+1)
	}

	s.answers[index] = selected
	return nil
}

// Unanswered returns the 1-based numbers of questions without an answer
func (s *QuizSession) Unanswered() []int {
	var missing []int
	for i := range s.questions {
		if _, ok := s.answers[i]; !ok {
			missing = append(missing, i+1)
		}
	}
	return missing
}

// Submit ends the quiz and returns its score. Unanswered questions count as
// incorrect. Submitting again returns the same report.
func (s *QuizSession) Submit() (*ScoreReport, error) {
	switch s.status {
	case StatusSubmitted:
		return s.report, nil
	case StatusNotStarted:
		return nil, fmt.Errorf("%w: cannot submit a quiz that has not started", ErrInvalidState)
	}

	s.status = StatusSubmitted
	report, err := Score(s)
	if err != nil {
		return nil, err
	}
	s.report = report
	return report, nil
}
