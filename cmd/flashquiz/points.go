package main

import (
	"flashquiz"

	"github.com/spf13/cobra"
)

const previewLimit = 20

var pointsCmd = &cobra.Command{
	Use:   "points [file]",
	Short: "Preview the learning points found in a document",
	Args:  cobra.ExactArgs(1),
	RunE:  runPoints,
}

func init() {
	rootCmd.AddCommand(pointsCmd)
}

func runPoints(cmd *cobra.Command, args []string) error {
	doc, err := readDocument(args[0])
	if err != nil {
		return err
	}

	extraction, err := flashquiz.Extract(doc)
	if err != nil {
		return err
	}
	cmd.Printf("Extracted content from %d pages/paragraphs/lines\n", extraction.Units)

	points := flashquiz.Segment(extraction.Text, minLength, maxLength)
	if len(points) == 0 {
		return flashquiz.ErrNoContent
	}

	cmd.Printf("Found %d learning points\n\n", len(points))
	for i, point := range points {
		if i == previewLimit {
			cmd.Printf("... and %d more\n", len(points)-previewLimit)
			break
		}
		cmd.Printf("%d. %s\n", i+1, point.Text)
	}
	return nil
}
