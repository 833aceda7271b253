package flashquiz

import "time"

// Format is the declared type of an uploaded document
type Format string

const (
	FormatPDF  Format = "pdf"
	FormatDOCX Format = "docx"
	FormatTXT  Format = "txt"
)

// Document is an uploaded study document. It only lives for one extraction call.
type Document struct {
	Name   string
	Format Format
	Data   []byte
}

// LearningPoint is a cleaned sentence that a question can be built from
type LearningPoint struct {
	Text   string `json:"text"`
	Length int    `json:"length"` // in runes
}

// Question represents a single multiple choice question with exactly four options
type Question struct {
	ID            string   `json:"id"`
	Text          string   `json:"text"`
	Options       []string `json:"options"`
	CorrectAnswer int      `json:"correct_answer"` // 0-based index
	Explanation   string   `json:"explanation,omitempty"`
	Source        string   `json:"source"` // learning point the question was built from
}

// NumOptions is the number of options every question carries
const NumOptions = 4

// Quiz represents a generated quiz with metadata
type Quiz struct {
	ID             string     `json:"id"`
	DocumentName   string     `json:"document_name"`
	Questions      []Question `json:"questions"`
	Requested      int        `json:"requested"`
	Skipped        int        `json:"skipped"`
	CreatedAt      time.Time  `json:"created_at"`
	TotalQuestions int        `json:"total_questions"`
}

// GenerationRequest represents a request to build a quiz from a document
type GenerationRequest struct {
	DocumentName string `json:"document_name"`
	NumQuestions int    `json:"num_questions"`
}

func cloneQuestion(q Question) Question {
	q.Options = append([]string(nil), q.Options...)
	return q
}
