package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"flashquiz"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var replayQuizID string

var playCmd = &cobra.Command{
	Use:   "play [file]",
	Short: "Generate a quiz and take it in the terminal",
	Long: `Generate a quiz from a document and take it in the terminal.
With --quiz a quiz stored by an earlier run is taken again instead.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runPlay,
}

func init() {
	playCmd.Flags().StringVar(&replayQuizID, "quiz", "", "ID of a stored quiz to take again")
	rootCmd.AddCommand(playCmd)
}

func runPlay(cmd *cobra.Command, args []string) error {
	var (
		quiz *flashquiz.Quiz
		err  error
	)
	switch {
	case replayQuizID != "" && len(args) > 0:
		return errors.New("give either a file or --quiz, not both")
	case replayQuizID != "":
		quiz, err = loadStoredQuiz(replayQuizID)
	case len(args) == 1:
		quiz, err = buildQuiz(cmd, args[0])
	default:
		return errors.New("a document file or --quiz is required")
	}
	if err != nil {
		return err
	}

	// a new quiz always gets a fresh session
	session := flashquiz.NewQuizSession()
	if err := session.Start(quiz.Questions); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if err := playQuiz(bufio.NewScanner(cmd.InOrStdin()), out, session); err != nil {
		return err
	}

	report, err := session.Submit()
	if err != nil {
		return err
	}

	fmt.Fprintln(out)
	if err := flashquiz.WriteReport(out, report); err != nil {
		return err
	}

	db, err := openDB()
	if err != nil {
		log.Printf("History disabled: %v", err)
		return nil
	}
	if db != nil {
		defer db.CloseDB()
		if err := db.SaveAttempt(uuid.New().String(), quiz.ID, report); err != nil {
			log.Printf("Failed to store attempt: %v", err)
		}
	}
	return nil
}

// loadStoredQuiz reads a quiz and its questions back from the history database
func loadStoredQuiz(id string) (*flashquiz.Quiz, error) {
	db, err := openDB()
	if err != nil {
		return nil, err
	}
	if db == nil {
		return nil, errors.New("replaying a quiz needs a database, set --db")
	}
	defer db.CloseDB()

	stored, err := db.GetQuiz(id)
	if err != nil {
		return nil, err
	}
	questions, err := db.GetQuestions(id)
	if err != nil {
		return nil, err
	}
	if len(questions) == 0 {
		return nil, fmt.Errorf("quiz %s has no questions", id)
	}

	return &flashquiz.Quiz{
		ID:             stored.ID,
		DocumentName:   stored.DocumentName,
		Questions:      questions,
		Requested:      stored.NumRequested,
		Skipped:        stored.NumSkipped,
		CreatedAt:      stored.CreatedAt,
		TotalQuestions: len(questions),
	}, nil
}

// playQuiz asks every question and records the answers. An empty line skips
// a question; it is then scored as incorrect.
func playQuiz(scanner *bufio.Scanner, out io.Writer, session *flashquiz.QuizSession) error {
	letters := "ABCD"
	questions := session.Questions()

	fmt.Fprintf(out, "\nQuiz Time! Answer all %d questions to see your score.\n", len(questions))
	fmt.Fprintln(out, strings.Repeat("─", 50))

	for i, question := range questions {
		fmt.Fprintf(out, "\nQuestion %d/%d:\n%s\n\n", i+1, len(questions), question.Text)
		for j, option := range question.Options {
			fmt.Fprintf(out, "%c) %s\n", letters[j], option)
		}
		fmt.Fprintln(out)

		for {
			fmt.Fprint(out, "Your answer (A/B/C/D, empty to skip): ")
			if !scanner.Scan() {
				if err := scanner.Err(); err != nil {
					return fmt.Errorf("failed to read answer: %w", err)
				}
				// input closed, submit what we have
				return nil
			}

			answer := strings.ToUpper(strings.TrimSpace(scanner.Text()))
			if answer == "" {
				break
			}
			selected := strings.Index(letters, answer)
			if len(answer) != 1 || selected < 0 {
				fmt.Fprintln(out, "Please enter A, B, C, or D")
				continue
			}
			if err := session.RecordAnswer(i, selected); err != nil {
				return err
			}
			break
		}
	}

	if missing := session.Unanswered(); len(missing) > 0 {
		numbers := make([]string, len(missing))
		for i, n := range missing {
			numbers[i] = fmt.Sprint(n)
		}
		fmt.Fprintf(out, "\nUnanswered questions count as incorrect: %s\n", strings.Join(numbers, ", "))
	}
	return nil
}
