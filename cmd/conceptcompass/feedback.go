package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/concept-compass/internal/flow"
)

func newFeedbackCmd() *cobra.Command {
	var in flow.FeedbackInput
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "feedback",
		Short: "Assess a written explanation of a concept",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			in.Explanation, err = readInput(in.Explanation, "explanation", cmd.InOrStdin())
			if err != nil {
				return err
			}

			flows, err := buildFlows(cfg)
			if err != nil {
				return err
			}

			res, err := flows.Feedback(cmd.Context(), in)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")
				return enc.Encode(res)
			}

			if _, err := fmt.Fprintln(w, res.Feedback); err != nil {
				return err
			}
			if res.Score >= 0 {
				_, err = fmt.Fprintf(w, "\nscore: %d/100\n", res.Score)
			}
			return err
		},
	}

	cmd.Flags().StringVar(&in.Concept, "concept", "", "Concept being explained")
	cmd.Flags().StringVar(&in.Explanation, "explanation", "", "Student explanation (reads stdin when empty)")
	cmd.Flags().StringVar(&in.GradeLevel, "grade-level", "", "Optional grade level of the student")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the result as JSON")
	_ = cmd.MarkFlagRequired("concept")

	return cmd
}
