package flashquiz

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleQuestions(n int) []Question {
	questions := make([]Question, n)
	for i := range questions {
		questions[i] = Question{
			ID:            string(rune('a' + i)),
			Text:          "Question " + string(rune('A'+i)) + "?",
			Options:       []string{"one", "two", "three", "four"},
			CorrectAnswer: i % NumOptions,
			Explanation:   "Because of reasons.",
		}
	}
	return questions
}

func startedSession(t *testing.T, n int) *QuizSession {
	t.Helper()
	s := NewQuizSession()
	require.NoError(t, s.Start(sampleQuestions(n)))
	return s
}

func TestQuizSession_Lifecycle(t *testing.T) {
	s := NewQuizSession()
	assert.NotEmpty(t, s.ID)
	assert.Equal(t, StatusNotStarted, s.Status())

	require.NoError(t, s.Start(sampleQuestions(3)))
	assert.Equal(t, StatusInProgress, s.Status())
	assert.Len(t, s.Questions(), 3)

	_, err := s.Submit()
	require.NoError(t, err)
	assert.Equal(t, StatusSubmitted, s.Status())
}

func TestQuizSession_StartRequiresQuestions(t *testing.T) {
	s := NewQuizSession()
	err := s.Start(nil)
	assert.ErrorIs(t, err, ErrInvalidState)
	assert.Equal(t, StatusNotStarted, s.Status())
}

func TestQuizSession_StartIsNoOpWhenInProgress(t *testing.T) {
	s := startedSession(t, 3)
	require.NoError(t, s.RecordAnswer(0, 1))

	require.NoError(t, s.Start(sampleQuestions(5)))
	assert.Len(t, s.Questions(), 3)
	selected, ok := s.Answer(0)
	assert.True(t, ok)
	assert.Equal(t, 1, selected)
}

func TestQuizSession_CannotRestartSubmitted(t *testing.T) {
	s := startedSession(t, 2)
	_, err := s.Submit()
	require.NoError(t, err)

	assert.ErrorIs(t, s.Start(sampleQuestions(2)), ErrInvalidState)
}

func TestQuizSession_QuestionsAreCopied(t *testing.T) {
	questions := sampleQuestions(2)
	s := NewQuizSession()
	require.NoError(t, s.Start(questions))

	questions[0].Options[0] = "changed"
	assert.Equal(t, "one", s.Questions()[0].Options[0])

	out := s.Questions()
	out[1].Options[0] = "changed"
	assert.Equal(t, "one", s.Questions()[1].Options[0])
}

func TestQuizSession_RecordAnswer(t *testing.T) {
	s := startedSession(t, 3)

	require.NoError(t, s.RecordAnswer(1, 2))
	require.NoError(t, s.RecordAnswer(1, 3))
	selected, ok := s.Answer(1)
	assert.True(t, ok)
	assert.Equal(t, 3, selected)

	_, ok = s.Answer(0)
	assert.False(t, ok)
	assert.Equal(t, []int{1, 3}, s.Unanswered())
}

func TestQuizSession_RecordAnswerInvalid(t *testing.T) {
	s := startedSession(t, 3)

	assert.ErrorIs(t, s.RecordAnswer(-1, 0), ErrInvalidAnswer)
	assert.ErrorIs(t, s.RecordAnswer(3, 0), ErrInvalidAnswer)
	assert.ErrorIs(t, s.RecordAnswer(0, -1), ErrInvalidAnswer)
	assert.ErrorIs(t, s.RecordAnswer(0, 4), ErrInvalidAnswer)
	assert.Empty(t, s.Answers())
}

func TestQuizSession_RecordAnswerBeforeStart(t *testing.T) {
	s := NewQuizSession()
	assert.ErrorIs(t, s.RecordAnswer(0, 0), ErrInvalidState)
}

func TestQuizSession_RecordAnswerAfterSubmit(t *testing.T) {
	s := startedSession(t, 2)
	require.NoError(t, s.RecordAnswer(0, 0))
	_, err := s.Submit()
	require.NoError(t, err)

	assert.ErrorIs(t, s.RecordAnswer(0, 1), ErrInvalidState)
	selected, _ := s.Answer(0)
	assert.Equal(t, 0, selected)
}

func TestQuizSession_SubmitBeforeStart(t *testing.T) {
	s := NewQuizSession()
	report, err := s.Submit()
	assert.ErrorIs(t, err, ErrInvalidState)
	assert.Nil(t, report)
}

func TestQuizSession_SubmitIsIdempotent(t *testing.T) {
	s := startedSession(t, 2)
	require.NoError(t, s.RecordAnswer(0, 0))

	first, err := s.Submit()
	require.NoError(t, err)
	second, err := s.Submit()
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, 1, second.CorrectCount)
}

func TestQuizSession_ScoresThreeOfFive(t *testing.T) {
	s := startedSession(t, 5)
	// correct answers are 0, 1, 2, 3, 0
	require.NoError(t, s.RecordAnswer(0, 0))
	require.NoError(t, s.RecordAnswer(1, 1))
	require.NoError(t, s.RecordAnswer(2, 0))
	require.NoError(t, s.RecordAnswer(3, 3))

	report, err := s.Submit()
	require.NoError(t, err)
	assert.Equal(t, 3, report.CorrectCount)
	assert.Equal(t, 5, report.Total)
	assert.Equal(t, 60, report.Percentage())

	require.Len(t, report.PerQuestion, 5)
	assert.True(t, report.PerQuestion[0].IsCorrect)
	assert.False(t, report.PerQuestion[2].IsCorrect)
	assert.Equal(t, 0, report.PerQuestion[2].Selected)
	assert.False(t, report.PerQuestion[4].IsCorrect)
	assert.False(t, report.PerQuestion[4].Answered())
	assert.Equal(t, -1, report.PerQuestion[4].Selected)
}
