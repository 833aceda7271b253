package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"flashquiz"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	apiKey       string
	baseURL      string
	model        string
	numQuestions int
	minLength    int
	maxLength    int
	concurrency  int
	rpm          int
	temperature  float32
	maxTokens    int
	dbPath       string
	logDir       string
	seed         int64
	verbose      bool
)

var rootCmd = &cobra.Command{
	Use:   "flashquiz",
	Short: "Turn study documents into multiple choice quizzes",
	Long: `flashquiz extracts the text of a PDF, DOCX or TXT document, splits it into
learning points and asks a language model for one multiple choice question per
point. Quizzes can be exported as JSON or played in the terminal.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		flashquiz.SetVerbose(verbose)
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&apiKey, "api-key", "", "OpenAI API key (or set OPENAI_API_KEY env var)")
	flags.StringVar(&baseURL, "base-url", "", "OpenAI compatible API base URL")
	flags.StringVar(&model, "model", "gpt-4o-mini", "Model used to generate questions")
	flags.IntVarP(&numQuestions, "questions", "n", 5, "Number of questions to generate")
	flags.IntVar(&minLength, "min-length", flashquiz.DefaultMinLength, "Minimum learning point length")
	flags.IntVar(&maxLength, "max-length", flashquiz.DefaultMaxLength, "Maximum learning point length")
	flags.IntVar(&concurrency, "concurrency", flashquiz.DefaultConcurrency, "Generation calls in flight")
	flags.IntVar(&rpm, "rpm", 0, "Maximum API requests per minute (0 = unlimited)")
	flags.Float32Var(&temperature, "temperature", 0.7, "Sampling temperature")
	flags.IntVar(&maxTokens, "max-tokens", flashquiz.DefaultMaxTokens, "Maximum tokens per completion")
	flags.StringVar(&dbPath, "db", "./quiz.db", "Database path (empty to disable history)")
	flags.StringVar(&logDir, "log-dir", "", "Directory for LLM transcripts (empty to disable)")
	flags.Int64Var(&seed, "seed", 0, "Random seed for learning point selection (0 = time based)")
	flags.BoolVarP(&verbose, "verbose", "v", false, "Enable verbose debugging output")
}

func main() {
	// a missing .env file is fine
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// readDocument loads a file from disk and detects its format
func readDocument(path string) (flashquiz.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return flashquiz.Document{}, fmt.Errorf("failed to read %s: %w", path, err)
	}
	name := filepath.Base(path)
	return flashquiz.Document{
		Name:   name,
		Format: flashquiz.DetectFormat(name, ""),
		Data:   data,
	}, nil
}

func resolveAPIKey() (string, error) {
	if apiKey != "" {
		return apiKey, nil
	}
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		return key, nil
	}
	return "", errors.New("OpenAI API key is required. Use --api-key or set OPENAI_API_KEY environment variable")
}

func newGenerator(key string) *flashquiz.QuizGenerator {
	completer := flashquiz.NewOpenAICompleter(flashquiz.CompleterConfig{
		APIKey:            key,
		BaseURL:           baseURL,
		Model:             model,
		Temperature:       temperature,
		RequestsPerMinute: rpm,
	})
	maker := flashquiz.NewQuestionMaker(completer, maxTokens)

	opts := flashquiz.Options{
		MinLength:   minLength,
		MaxLength:   maxLength,
		Concurrency: concurrency,
	}
	if seed != 0 {
		opts.Rand = rand.New(rand.NewSource(seed))
	}
	return flashquiz.NewQuizGenerator(maker, opts)
}

func openDB() (*flashquiz.DB, error) {
	if dbPath == "" {
		return nil, nil
	}
	db, err := flashquiz.OpenDB(dbPath)
	if err != nil {
		return nil, err
	}
	if err := db.CreateTables(); err != nil {
		db.CloseDB()
		return nil, err
	}
	return db, nil
}

// buildQuiz runs the whole pipeline for a file, printing progress to the command output
func buildQuiz(cmd *cobra.Command, path string) (*flashquiz.Quiz, error) {
	key, err := resolveAPIKey()
	if err != nil {
		return nil, err
	}

	doc, err := readDocument(path)
	if err != nil {
		return nil, err
	}

	generator := newGenerator(key)

	extraction, points, err := generator.LearningPoints(doc)
	if err != nil {
		return nil, err
	}
	cmd.PrintErrf("Extracted content from %d pages/paragraphs/lines\n", extraction.Units)
	cmd.PrintErrf("Found %d learning points\n", len(points))
	if len(points) < numQuestions {
		cmd.PrintErrf("Only %d learning points found. Generating %d questions.\n", len(points), len(points))
	}
	cmd.PrintErrf("This will make ~%d API calls\n", min(numQuestions, len(points)))

	quizID := flashquiz.NewQuizID()
	if logDir != "" {
		logger, err := flashquiz.NewLLMLogger(logDir, quizID, flashquiz.GenerationRequest{
			DocumentName: doc.Name,
			NumQuestions: numQuestions,
		}, len(points))
		if err != nil {
			log.Printf("Failed to create logger for quiz %s: %v", quizID, err)
		} else {
			generator.SetLogger(logger)
			defer logger.Close()
		}
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Minute)
	defer cancel()

	result, err := generator.Generate(ctx, points, numQuestions, func(done, total int) {
		cmd.PrintErrf("Generating questions... %d of %d complete\n", done, total)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate quiz: %w", err)
	}

	for _, skipped := range result.Skipped {
		cmd.PrintErrf("Warning: %s\n", skipped)
	}
	if len(result.Questions) == 0 {
		return nil, errors.New("failed to generate quiz: no question could be generated, please try again")
	}
	if result.Shortfall() > 0 {
		cmd.PrintErrf("Generated %d of %d requested questions (%d short)\n", len(result.Questions), result.Requested, result.Shortfall())
	}

	quiz := flashquiz.NewQuiz(quizID, doc.Name, result)

	db, err := openDB()
	if err != nil {
		log.Printf("History disabled: %v", err)
	} else if db != nil {
		defer db.CloseDB()
		if err := db.SaveQuiz(quiz); err != nil {
			log.Printf("Failed to store quiz %s: %v", quiz.ID, err)
		}
	}

	return quiz, nil
}
