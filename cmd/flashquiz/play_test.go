package main

import (
	"bufio"
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"flashquiz"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startedSession(t *testing.T) *flashquiz.QuizSession {
	t.Helper()
	questions := []flashquiz.Question{
		{Text: "What is the powerhouse of the cell?", Options: []string{"Mitochondria", "Nucleus", "Ribosome", "Vacuole"}, CorrectAnswer: 0},
		{Text: "Where does photosynthesis happen?", Options: []string{"Nucleus", "Chloroplast", "Membrane", "Wall"}, CorrectAnswer: 1},
		{Text: "What carries genetic information?", Options: []string{"Lipids", "Sugars", "DNA", "Water"}, CorrectAnswer: 2},
	}
	session := flashquiz.NewQuizSession()
	require.NoError(t, session.Start(questions))
	return session
}

func TestPlayQuiz_RecordsAnswers(t *testing.T) {
	session := startedSession(t)
	input := bufio.NewScanner(strings.NewReader("a\nx\nB\n\n"))
	var out bytes.Buffer

	require.NoError(t, playQuiz(input, &out, session))

	assert.Contains(t, out.String(), "Question 1/3:")
	assert.Contains(t, out.String(), "Please enter A, B, C, or D")
	assert.Contains(t, out.String(), "Unanswered questions count as incorrect: 3")

	report, err := session.Submit()
	require.NoError(t, err)
	assert.Equal(t, 2, report.CorrectCount)
	assert.Equal(t, 3, report.Total)
}

func TestPlayQuiz_InputClosedEarly(t *testing.T) {
	session := startedSession(t)
	input := bufio.NewScanner(strings.NewReader("c\n"))
	var out bytes.Buffer

	require.NoError(t, playQuiz(input, &out, session))
	assert.Equal(t, []int{2, 3}, session.Unanswered())

	report, err := session.Submit()
	require.NoError(t, err)
	assert.Equal(t, 0, report.CorrectCount)
}

func TestRunPoints_Preview(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	var lines []string
	for i := 0; i < 25; i++ {
		lines = append(lines, "This is a reasonably long learning point about topic number "+string(rune('A'+i))+".")
	}
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")), 0644))

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"points", path})
	require.NoError(t, rootCmd.Execute())

	assert.Contains(t, out.String(), "Found 25 learning points")
	assert.Contains(t, out.String(), "20. This is a reasonably long learning point about topic number T.")
	assert.Contains(t, out.String(), "... and 5 more")
}

func storedQuizDB(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "quiz.db")

	db, err := flashquiz.OpenDB(path)
	require.NoError(t, err)
	defer db.CloseDB()
	require.NoError(t, db.CreateTables())

	session := startedSession(t)
	quiz := &flashquiz.Quiz{
		ID:             "quiz-1",
		DocumentName:   "bio.txt",
		Questions:      session.Questions(),
		Requested:      4,
		Skipped:        1,
		CreatedAt:      time.Now(),
		TotalQuestions: 3,
	}
	require.NoError(t, db.SaveQuiz(quiz))

	t.Cleanup(func() {
		dbPath = "./quiz.db"
		replayQuizID = ""
		historyQuizzes = false
		rootCmd.SetIn(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
	})
	return path
}

func TestRunPlay_ReplaysStoredQuiz(t *testing.T) {
	path := storedQuizDB(t)

	var out bytes.Buffer
	rootCmd.SetIn(strings.NewReader("a\nb\nc\n"))
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"play", "--quiz", "quiz-1", "--db", path})
	require.NoError(t, rootCmd.Execute())

	assert.Contains(t, out.String(), "Question 1/3:")
	assert.Contains(t, out.String(), "Correct: 3")
	assert.Contains(t, out.String(), "Perfect score!")

	db, err := flashquiz.OpenDB(path)
	require.NoError(t, err)
	defer db.CloseDB()
	attempts, err := db.GetAttempts(0)
	require.NoError(t, err)
	require.Len(t, attempts, 1)
	assert.Equal(t, "quiz-1", attempts[0].QuizID)
	assert.Equal(t, 3, attempts[0].Correct)
}

func TestRunPlay_UnknownStoredQuiz(t *testing.T) {
	path := storedQuizDB(t)

	rootCmd.SetOut(new(bytes.Buffer))
	rootCmd.SetErr(new(bytes.Buffer))
	rootCmd.SetArgs([]string{"play", "--quiz", "missing", "--db", path})
	err := rootCmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quiz not found")
}

func TestRunHistory_ListsQuizzes(t *testing.T) {
	path := storedQuizDB(t)

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"history", "--quizzes", "--db", path})
	require.NoError(t, rootCmd.Execute())

	assert.Contains(t, out.String(), "quiz-1")
	assert.Contains(t, out.String(), "bio.txt")
	assert.Contains(t, out.String(), "3 of 4 questions")
}
