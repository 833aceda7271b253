package flashquiz

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency is the number of generation calls allowed in flight
const DefaultConcurrency = 3

// ProgressFunc is called after each successfully generated question with the
// number completed so far and the number planned. Calls are serialized.
type ProgressFunc func(done, total int)

// SkippedQuestion records a question that could not be generated
type SkippedQuestion struct {
	Number int // 1-based position among the planned questions
	Point  LearningPoint
	Err    error
}

func (s SkippedQuestion) String() string {
	return fmt.Sprintf("question %d could not be generated and was skipped: %v", s.Number, s.Err)
}

// GenerationResult is the outcome of generating a quiz. Questions are in the
// order their learning points were selected.
type GenerationResult struct {
	Questions []Question
	Requested int
	Planned   int
	Skipped   []SkippedQuestion
}

// Shortfall is how many fewer questions were produced than requested
func (r *GenerationResult) Shortfall() int {
	return r.Requested - len(r.Questions)
}

// Options configures a QuizGenerator
type Options struct {
	MinLength   int
	MaxLength   int
	Concurrency int
	Rand        *rand.Rand
}

// QuizGenerator orchestrates the document to quiz pipeline
type QuizGenerator struct {
	maker       *QuestionMaker
	minLength   int
	maxLength   int
	concurrency int

	randMu sync.Mutex
	rand   *rand.Rand
}

// NewQuizGenerator creates a new quiz generator
func NewQuizGenerator(maker *QuestionMaker, opts Options) *QuizGenerator {
	if opts.MinLength <= 0 {
		opts.MinLength = DefaultMinLength
	}
	if opts.MaxLength <= 0 {
		opts.MaxLength = DefaultMaxLength
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &QuizGenerator{
		maker:       maker,
		minLength:   opts.MinLength,
		maxLength:   opts.MaxLength,
		concurrency: opts.Concurrency,
		rand:        opts.Rand,
	}
}

// SetLogger sets the transcript logger for the next generation
func (qg *QuizGenerator) SetLogger(logger *LLMLogger) {
	qg.maker.SetLogger(logger)
}

// NewQuizID returns a fresh quiz identifier
func NewQuizID() string {
	return uuid.New().String()
}

// NewQuiz wraps a generation result as a Quiz
func NewQuiz(id, documentName string, result *GenerationResult) *Quiz {
	return &Quiz{
		ID:             id,
		DocumentName:   documentName,
		Questions:      result.Questions,
		Requested:      result.Requested,
		Skipped:        len(result.Skipped),
		CreatedAt:      time.Now(),
		TotalQuestions: len(result.Questions),
	}
}

// LearningPoints extracts and segments a document. It fails with
// ErrNoContent when no learning point qualifies.
func (qg *QuizGenerator) LearningPoints(doc Document) (*Extraction, []LearningPoint, error) {
	extraction, err := Extract(doc)
	if err != nil {
		return nil, nil, err
	}

	points := Segment(extraction.Text, qg.minLength, qg.maxLength)
	if len(points) == 0 {
		return extraction, nil, fmt.Errorf("%w: %s", ErrNoContent, doc.Name)
	}

	log.Printf("Found %d learning points in %s", len(points), doc.Name)
	return extraction, points, nil
}

// GenerateQuiz runs the full pipeline for a document and wraps the result as a Quiz
func (qg *QuizGenerator) GenerateQuiz(ctx context.Context, doc Document, numQuestions int, progress ProgressFunc) (*Quiz, *GenerationResult, error) {
	_, points, err := qg.LearningPoints(doc)
	if err != nil {
		return nil, nil, err
	}

	result, err := qg.Generate(ctx, points, numQuestions, progress)
	if err != nil {
		return nil, nil, err
	}

	quiz := NewQuiz(NewQuizID(), doc.Name, result)

	log.Printf("Quiz generation complete: %d of %d questions for '%s'", quiz.TotalQuestions, numQuestions, doc.Name)
	return quiz, result, nil
}

// SelectPoints picks up to n learning points uniformly without replacement.
// When there are fewer points than requested all of them are used.
func (qg *QuizGenerator) SelectPoints(points []LearningPoint, n int) []LearningPoint {
	if n > len(points) {
		n = len(points)
	}
	if n <= 0 {
		return nil
	}

	qg.randMu.Lock()
	perm := qg.rand.Perm(len(points))
	qg.randMu.Unlock()

	selected := make([]LearningPoint, n)
	for i := 0; i < n; i++ {
		selected[i] = points[perm[i]]
	}
	return selected
}

// outcome is the result of one generation call
type outcome struct {
	question *Question
	err      error
}

// Generate builds up to numQuestions questions, one generation call per
// selected learning point. Calls run concurrently up to the configured limit.
// Malformed questions are skipped and reported; an API error aborts the
// whole batch and is returned.
func (qg *QuizGenerator) Generate(ctx context.Context, points []LearningPoint, numQuestions int, progress ProgressFunc) (*GenerationResult, error) {
	selected := qg.SelectPoints(points, numQuestions)
	if len(selected) < numQuestions {
		log.Printf("Only %d learning points found. Generating %d questions.", len(points), len(selected))
	}

	outcomes := make([]outcome, len(selected))

	var (
		mu   sync.Mutex
		done int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(qg.concurrency)

	for i, point := range selected {
		i, point := i, point
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			question, err := qg.maker.GenerateQuestion(gctx, point)
			if err != nil {
				var apiErr *APIError
				if errors.As(err, &apiErr) {
					return fmt.Errorf("question %d of %d: %w", i+1, len(selected), err)
				}
				outcomes[i] = outcome{err: err}
				return nil
			}
			outcomes[i] = outcome{question: question}

			mu.Lock()
			done++
			VerboseLog("Generated question %d of %d", done, len(selected))
			if progress != nil {
				progress(done, len(selected))
			}
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return foldOutcomes(outcomes, selected, numQuestions, qg.maker.logger), nil
}

// foldOutcomes keeps successful, non-duplicate questions in selection order
// and collects the failures
func foldOutcomes(outcomes []outcome, selected []LearningPoint, requested int, logger *LLMLogger) *GenerationResult {
	result := &GenerationResult{
		Questions: make([]Question, 0, len(outcomes)),
		Requested: requested,
		Planned:   len(selected),
	}

	dedup := NewQuestionDedup()
	for i, o := range outcomes {
		if o.err == nil {
			if dup := dedup.CheckDuplicate(i+1, o.question); dup.IsDuplicate {
				o.err = fmt.Errorf("duplicate question: %s", dup.Reason)
			}
		}
		if o.err != nil {
			skipped := SkippedQuestion{Number: i + 1, Point: selected[i], Err: o.err}
			result.Skipped = append(result.Skipped, skipped)
			log.Printf("Question %d of %d could not be generated and was skipped: %v", i+1, len(selected), o.err)
			if logger != nil {
				logger.LogQuestionResult(i+1, "skipped", o.err.Error())
			}
			continue
		}
		result.Questions = append(result.Questions, *o.question)
		if logger != nil {
			logger.LogQuestionResult(i+1, "generated", o.question.Text)
		}
	}

	return result
}
