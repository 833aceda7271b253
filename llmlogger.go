package flashquiz

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// LLMLogger writes a transcript of every LLM interaction for one quiz
type LLMLogger struct {
	file   *os.File
	mu     sync.Mutex
	quizID string
}

// NewLLMLogger creates a transcript file <dir>/<quizID>.log
func NewLLMLogger(dir, quizID string, req GenerationRequest, numPoints int) (*LLMLogger, error) {
	if dir == "" {
		dir = "log"
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	filename := filepath.Join(dir, fmt.Sprintf("%s.log", quizID))
	file, err := os.Create(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to create log file: %w", err)
	}

	logger := &LLMLogger{
		file:   file,
		quizID: quizID,
	}

	logger.Logf("=== Quiz Generation Log ===\n")
	logger.Logf("Quiz ID: %s\n", quizID)
	logger.Logf("Document: %s\n", req.DocumentName)
	logger.Logf("Number of Questions: %d\n", req.NumQuestions)
	logger.Logf("Learning Points: %d\n", numPoints)
	logger.Logf("Started: %s\n", time.Now().Format(time.RFC3339))
	logger.Logf("========================\n\n")

	return logger, nil
}

// Logf writes a formatted log entry with timestamp
func (ll *LLMLogger) Logf(format string, args ...interface{}) {
	ll.mu.Lock()
	defer ll.mu.Unlock()
	ll.writef(format, args...)
}

func (ll *LLMLogger) writef(format string, args ...interface{}) {
	if ll.file == nil {
		return
	}
	timestamp := time.Now().Format("15:04:05.000")
	fmt.Fprintf(ll.file, "[%s] %s", timestamp, fmt.Sprintf(format, args...))
	ll.file.Sync()
}

// LogLLMRequest logs an LLM request
func (ll *LLMLogger) LogLLMRequest(module, prompt string) {
	ll.mu.Lock()
	defer ll.mu.Unlock()
	ll.writef("=== LLM REQUEST (%s) ===\n", module)
	ll.writef("Prompt:\n%s\n", prompt)
	ll.writef("=====================\n\n")
}

// LogLLMResponse logs an LLM response
func (ll *LLMLogger) LogLLMResponse(module, response string) {
	ll.mu.Lock()
	defer ll.mu.Unlock()
	ll.writef("=== LLM RESPONSE (%s) ===\n", module)
	ll.writef("Response:\n%s\n", response)
	ll.writef("======================\n\n")
}

// LogQuestionResult logs what happened to a planned question
func (ll *LLMLogger) LogQuestionResult(number int, action, detail string) {
	ll.Logf("Question %d: %s - %s\n", number, action, detail)
}

// Close closes the log file
func (ll *LLMLogger) Close() error {
	ll.mu.Lock()
	defer ll.mu.Unlock()

	if ll.file == nil {
		return nil
	}
	ll.writef("=== Quiz Generation Complete ===\n")
	ll.writef("Completed: %s\n", time.Now().Format(time.RFC3339))
	ll.writef("=============================\n")
	err := ll.file.Close()
	ll.file = nil
	return err
}
