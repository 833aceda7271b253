package flashquiz

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// DB represents a quiz database connection
type DB struct {
	db *sql.DB
}

// DBQuiz represents a quiz in the database
type DBQuiz struct {
	ID           string    `json:"id"`
	DocumentName string    `json:"document_name"`
	NumRequested int       `json:"num_requested"`
	NumQuestions int       `json:"num_questions"`
	NumSkipped   int       `json:"num_skipped"`
	CreatedAt    time.Time `json:"created_at"`
}

// DBQuestion represents a question in the database
type DBQuestion struct {
	ID            string `json:"id"`
	QuizID        string `json:"quiz_id"`
	QuestionNum   int    `json:"question_num"`
	Text          string `json:"text"`
	Options       string `json:"options"` // JSON array of strings
	CorrectAnswer int    `json:"correct_answer"`
	Explanation   string `json:"explanation"`
	Source        string `json:"source"`
}

// DBAttempt is one submitted quiz session
type DBAttempt struct {
	ID           string    `json:"id"`
	QuizID       string    `json:"quiz_id"`
	DocumentName string    `json:"document_name"`
	Correct      int       `json:"correct"`
	Total        int       `json:"total"`
	SubmittedAt  time.Time `json:"submitted_at"`
}

// OpenDB opens a new database connection
func OpenDB(dbPath string) (*DB, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{db: db}, nil
}

// CloseDB closes the database connection
func (db *DB) CloseDB() error {
	return db.db.Close()
}

// CreateTables creates the necessary tables if they don't exist
func (db *DB) CreateTables() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS quizzes (
			id TEXT PRIMARY KEY,
			document_name TEXT NOT NULL,
			num_requested INTEGER NOT NULL,
			num_questions INTEGER NOT NULL,
			num_skipped INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS questions (
			id TEXT PRIMARY KEY,
			quiz_id TEXT NOT NULL,
			question_num INTEGER NOT NULL,
			text TEXT NOT NULL,
			options TEXT NOT NULL,
			correct_answer INTEGER NOT NULL,
			explanation TEXT,
			source TEXT,
			FOREIGN KEY (quiz_id) REFERENCES quizzes(id)
		)`,
		`CREATE TABLE IF NOT EXISTS attempts (
			id TEXT PRIMARY KEY,
			quiz_id TEXT NOT NULL,
			correct INTEGER NOT NULL,
			total INTEGER NOT NULL,
			submitted_at DATETIME NOT NULL,
			FOREIGN KEY (quiz_id) REFERENCES quizzes(id)
		)`,
		`CREATE TABLE IF NOT EXISTS attempt_answers (
			attempt_id TEXT NOT NULL,
			question_num INTEGER NOT NULL,
			selected INTEGER NOT NULL,
			is_correct INTEGER NOT NULL,
			PRIMARY KEY (attempt_id, question_num),
			FOREIGN KEY (attempt_id) REFERENCES attempts(id)
		)`,
	}

	for _, query := range queries {
		if _, err := db.db.Exec(query); err != nil {
			return fmt.Errorf("failed to execute %s: %w", query, err)
		}
	}
	return nil
}

// SaveQuiz stores a generated quiz and its questions in one transaction
func (db *DB) SaveQuiz(quiz *Quiz) error {
	tx, err := db.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		"INSERT INTO quizzes (id, document_name, num_requested, num_questions, num_skipped, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		quiz.ID, quiz.DocumentName, quiz.Requested, len(quiz.Questions), quiz.Skipped, quiz.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create quiz: %w", err)
	}

	for i, question := range quiz.Questions {
		optionsJSON, err := OptionsToJSON(question.Options)
		if err != nil {
			return err
		}
		id := question.ID
		if id == "" {
			id = uuid.New().String()
		}
		_, err = tx.Exec(
			"INSERT INTO questions (id, quiz_id, question_num, text, options, correct_answer, explanation, source) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
			id, quiz.ID, i+1, question.Text, optionsJSON, question.CorrectAnswer, question.Explanation, question.Source,
		)
		if err != nil {
			return fmt.Errorf("failed to create question: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit quiz: %w", err)
	}
	return nil
}

// GetQuiz retrieves a quiz by ID
func (db *DB) GetQuiz(id string) (*DBQuiz, error) {
	var quiz DBQuiz
	err := db.db.QueryRow(
		"SELECT id, document_name, num_requested, num_questions, num_skipped, created_at FROM quizzes WHERE id = ?",
		id,
	).Scan(&quiz.ID, &quiz.DocumentName, &quiz.NumRequested, &quiz.NumQuestions, &quiz.NumSkipped, &quiz.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("quiz not found: %s", id)
		}
		return nil, fmt.Errorf("failed to get quiz: %w", err)
	}
	return &quiz, nil
}

// GetQuizzes retrieves all quizzes, optionally limited by count
func (db *DB) GetQuizzes(limit int) ([]DBQuiz, error) {
	query := "SELECT id, document_name, num_requested, num_questions, num_skipped, created_at FROM quizzes ORDER BY created_at DESC"
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := db.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to get quizzes: %w", err)
	}
	defer rows.Close()

	var quizzes []DBQuiz
	for rows.Next() {
		var quiz DBQuiz
		err := rows.Scan(&quiz.ID, &quiz.DocumentName, &quiz.NumRequested, &quiz.NumQuestions, &quiz.NumSkipped, &quiz.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan quiz: %w", err)
		}
		quizzes = append(quizzes, quiz)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating quizzes: %w", err)
	}

	return quizzes, nil
}

// GetQuestions retrieves all questions for a quiz in order
func (db *DB) GetQuestions(quizID string) ([]Question, error) {
	rows, err := db.db.Query(
		"SELECT id, quiz_id, question_num, text, options, correct_answer, explanation, source FROM questions WHERE quiz_id = ? ORDER BY question_num",
		quizID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get questions: %w", err)
	}
	defer rows.Close()

	var questions []Question
	for rows.Next() {
		var (
			q           DBQuestion
			explanation sql.NullString
			source      sql.NullString
		)
		err := rows.Scan(&q.ID, &q.QuizID, &q.QuestionNum, &q.Text, &q.Options, &q.CorrectAnswer, &explanation, &source)
		if err != nil {
			return nil, fmt.Errorf("failed to scan question: %w", err)
		}
		options, err := JSONToOptions(q.Options)
		if err != nil {
			return nil, err
		}
		questions = append(questions, Question{
			ID:            q.ID,
			Text:          q.Text,
			Options:       options,
			CorrectAnswer: q.CorrectAnswer,
			Explanation:   explanation.String,
			Source:        source.String,
		})
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating questions: %w", err)
	}

	return questions, nil
}

// SaveAttempt stores the report of a submitted session
func (db *DB) SaveAttempt(attemptID, quizID string, report *ScoreReport) error {
	tx, err := db.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		"INSERT INTO attempts (id, quiz_id, correct, total, submitted_at) VALUES (?, ?, ?, ?, ?)",
		attemptID, quizID, report.CorrectCount, report.Total, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("failed to create attempt: %w", err)
	}

	for _, result := range report.PerQuestion {
		_, err = tx.Exec(
			"INSERT INTO attempt_answers (attempt_id, question_num, selected, is_correct) VALUES (?, ?, ?, ?)",
			attemptID, result.Number, result.Selected, result.IsCorrect,
		)
		if err != nil {
			return fmt.Errorf("failed to store answer %d: %w", result.Number, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit attempt: %w", err)
	}
	return nil
}

// GetAttempts retrieves submitted attempts, newest first, optionally limited by count
func (db *DB) GetAttempts(limit int) ([]DBAttempt, error) {
	query := `SELECT a.id, a.quiz_id, q.document_name, a.correct, a.total, a.submitted_at
		FROM attempts a JOIN quizzes q ON q.id = a.quiz_id
		ORDER BY a.submitted_at DESC`
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := db.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to get attempts: %w", err)
	}
	defer rows.Close()

	var attempts []DBAttempt
	for rows.Next() {
		var a DBAttempt
		if err := rows.Scan(&a.ID, &a.QuizID, &a.DocumentName, &a.Correct, &a.Total, &a.SubmittedAt); err != nil {
			return nil, fmt.Errorf("failed to scan attempt: %w", err)
		}
		attempts = append(attempts, a)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating attempts: %w", err)
	}

	return attempts, nil
}

// OptionsToJSON converts an options slice to a JSON string
func OptionsToJSON(options []string) (string, error) {
	data, err := json.Marshal(options)
	if err != nil {
		return "", fmt.Errorf("failed to marshal options: %w", err)
	}
	return string(data), nil
}

// JSONToOptions converts a JSON string to an options slice
func JSONToOptions(optionsJSON string) ([]string, error) {
	var options []string
	err := json.Unmarshal([]byte(optionsJSON), &options)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal options: %w", err)
	}
	return options, nil
}
