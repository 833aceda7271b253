package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var outputFile string

var generateCmd = &cobra.Command{
	Use:   "generate [file]",
	Short: "Generate a quiz and print it as JSON",
	Args:  cobra.ExactArgs(1),
	RunE:  runGenerate,
}

func init() {
	generateCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file for quiz JSON (default: stdout)")
	rootCmd.AddCommand(generateCmd)
}

func runGenerate(cmd *cobra.Command, args []string) error {
	quiz, err := buildQuiz(cmd, args[0])
	if err != nil {
		return err
	}

	output, err := json.MarshalIndent(quiz, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal quiz: %w", err)
	}

	if outputFile == "" {
		cmd.Println(string(output))
		return nil
	}

	if err := os.WriteFile(outputFile, output, 0644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	cmd.PrintErrf("Quiz saved to: %s\n", outputFile)
	return nil
}
