package main

import (
	"errors"

	"flashquiz"

	"github.com/spf13/cobra"
)

var (
	historyLimit   int
	historyQuizzes bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List past quiz attempts",
	Args:  cobra.NoArgs,
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "Maximum number of entries to show (0 = all)")
	historyCmd.Flags().BoolVar(&historyQuizzes, "quizzes", false, "List stored quizzes instead of attempts")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	db, err := openDB()
	if err != nil {
		return err
	}
	if db == nil {
		return errors.New("history needs a database, set --db")
	}
	defer db.CloseDB()

	if historyQuizzes {
		return listQuizzes(cmd, db)
	}

	attempts, err := db.GetAttempts(historyLimit)
	if err != nil {
		return err
	}

	if len(attempts) == 0 {
		cmd.Println("No quiz attempts yet")
		return nil
	}

	for _, a := range attempts {
		percentage := 0
		if a.Total > 0 {
			percentage = a.Correct * 100 / a.Total
		}
		cmd.Printf("%s  %-30s %d/%d (%d%%)\n", a.SubmittedAt.Format("2006-01-02 15:04"), a.DocumentName, a.Correct, a.Total, percentage)
	}
	return nil
}

func listQuizzes(cmd *cobra.Command, db *flashquiz.DB) error {
	quizzes, err := db.GetQuizzes(historyLimit)
	if err != nil {
		return err
	}

	if len(quizzes) == 0 {
		cmd.Println("No quizzes yet")
		return nil
	}

	for _, q := range quizzes {
		cmd.Printf("%s  %s  %-30s %d of %d questions\n", q.ID, q.CreatedAt.Format("2006-01-02 15:04"), q.DocumentName, q.NumQuestions, q.NumRequested)
	}
	cmd.Println("\nTake one again with: flashquiz play --quiz <id>")
	return nil
}
