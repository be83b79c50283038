package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/concept-compass/internal/config"
	"github.com/example/concept-compass/internal/doctor"
	"github.com/example/concept-compass/internal/flow"
)

const probeText = "Ready."

func newDoctorCmd() *cobra.Command {
	var probe bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Run preflight checks for the configured provider and audio defaults",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			dcfg := doctorConfig(cfg)
			if probe {
				dcfg.Probe = func() (string, error) {
					return probeSpeech(cmd.Context(), cfg)
				}
			}

			result := doctor.Run(dcfg, cmd.OutOrStdout())
			if result.Failed() {
				return fmt.Errorf("doctor found %d problem(s)", len(result.Failures()))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&probe, "probe", false, "Synthesize a short phrase through the provider")

	return cmd
}

func doctorConfig(cfg config.Config) doctor.Config {
	provider, err := config.NormalizeProvider(cfg.GenAI.Provider)
	if err != nil {
		provider = strings.ToLower(strings.TrimSpace(cfg.GenAI.Provider))
	}

	return doctor.Config{
		Provider:   provider,
		APIKeySet:  strings.TrimSpace(cfg.GenAI.APIKey) != "",
		ListenAddr: cfg.Server.ListenAddr,
		PCMFormat:  pcmFormat(cfg.Audio),
	}
}

// probeSpeech runs one Speak flow end to end and describes the result.
func probeSpeech(ctx context.Context, cfg config.Config) (string, error) {
	flows, err := buildFlows(cfg)
	if err != nil {
		return "", err
	}

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()

	res, err := flows.Speak(ctx, flow.SpeakInput{Text: probeText})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%.2fs of %s in %d bytes", res.DurationSeconds, res.Format, res.Bytes), nil
}
