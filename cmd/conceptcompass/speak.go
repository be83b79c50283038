package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/example/concept-compass/internal/flow"
)

func newSpeakCmd() *cobra.Command {
	var text string
	var out string
	var dataURI bool

	cmd := &cobra.Command{
		Use:   "speak",
		Short: "Speak text through the configured provider and write a WAV file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			input, err := readInput(text, "text", cmd.InOrStdin())
			if err != nil {
				return err
			}

			flows, err := buildFlows(cfg)
			if err != nil {
				return err
			}

			res, err := flows.Speak(cmd.Context(), flow.SpeakInput{Text: input})
			if err != nil {
				return err
			}

			slog.Info("speech written",
				slog.String("out", out),
				slog.Int("chunks", res.Chunks),
				slog.Int("wav_bytes", res.Bytes),
				slog.Float64("duration_seconds", res.DurationSeconds),
			)

			if dataURI {
				_, err = fmt.Fprintln(cmd.OutOrStdout(), res.AudioURI)
				return err
			}
			return writeOutput(out, res.WAV, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&text, "text", "", "Text to speak (reads stdin when empty)")
	cmd.Flags().StringVar(&out, "out", "reply.wav", "Output WAV path, or - for stdout")
	cmd.Flags().BoolVar(&dataURI, "data-uri", false, "Print the data URI instead of writing a file")

	return cmd
}
