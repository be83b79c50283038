package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/example/concept-compass/internal/audio"
	"github.com/example/concept-compass/internal/config"
	"github.com/example/concept-compass/internal/flow"
	"github.com/example/concept-compass/internal/genai"
	"github.com/example/concept-compass/internal/server"
)

var (
	cfgFile   string
	envFile   string
	activeCfg config.Config
)

func NewRootCmd() *cobra.Command {
	defaults := config.DefaultConfig()

	cmd := &cobra.Command{
		Use:           "conceptcompass",
		Short:         "Concept Compass voice tutor backend",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			loaded, err := config.Load(config.LoadOptions{
				Cmd:        cmd,
				ConfigFile: cfgFile,
				EnvFile:    envFile,
				Defaults:   defaults,
			})
			if err != nil {
				return err
			}
			activeCfg = loaded
			setupLogger(loaded.LogLevel)
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Optional config file (yaml|toml|json)")
	cmd.PersistentFlags().StringVar(&envFile, "env-file", "", "Optional dotenv file (default: .env when present)")
	config.RegisterFlags(cmd.PersistentFlags(), defaults)

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newHealthCmd())
	cmd.AddCommand(newWAVCmd())
	cmd.AddCommand(newSpeakCmd())
	cmd.AddCommand(newFeedbackCmd())
	cmd.AddCommand(newDoctorCmd())

	return cmd
}

// setupLogger configures the process-wide slog default logger.
func setupLogger(levelStr string) {
	lvl, err := server.ParseLogLevel(levelStr)
	if err != nil {
		lvl = slog.LevelInfo
	}
	h := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})
	slog.SetDefault(slog.New(h))
}

func requireConfig() (config.Config, error) {
	if activeCfg.Server.ListenAddr == "" {
		return config.Config{}, fmt.Errorf("configuration not loaded")
	}
	return activeCfg, nil
}

func pcmFormat(a config.AudioConfig) audio.PCMFormat {
	return audio.PCMFormat{
		Channels:   a.Channels,
		SampleRate: a.SampleRate,
		BitDepth:   a.BitDepth,
	}
}

// buildFlows validates cfg and wires the configured provider into the flows.
func buildFlows(cfg config.Config) (*flow.Flows, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	provider, err := genai.NewProvider(cfg.GenAI, slog.Default())
	if err != nil {
		return nil, err
	}

	opts := []flow.Option{
		flow.WithLogger(slog.Default()),
		flow.WithPCMFormat(pcmFormat(cfg.Audio)),
	}
	if cfg.GenAI.Voice != "" {
		opts = append(opts, flow.WithVoice(cfg.GenAI.Voice))
	}
	if cfg.GenAI.SpeechParallelism > 0 {
		opts = append(opts, flow.WithParallelism(cfg.GenAI.SpeechParallelism))
	}

	return flow.New(provider, provider, opts...), nil
}

// readInput returns value, or all of stdin when value is empty.
func readInput(value, flagName string, stdin io.Reader) (string, error) {
	if strings.TrimSpace(value) != "" {
		return value, nil
	}

	b, err := io.ReadAll(stdin)
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	input := strings.TrimSpace(string(b))
	if input == "" {
		return "", fmt.Errorf("either provide --%s or pipe text on stdin", flagName)
	}
	return input, nil
}

// writeOutput writes data to path, or to stdout when path is "-".
func writeOutput(path string, data []byte, stdout io.Writer) error {
	if path == "-" {
		if stdout == nil {
			return fmt.Errorf("stdout writer is nil")
		}
		_, err := stdout.Write(data)
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
