package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/concept-compass/internal/audio"
)

func newWAVCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wav",
		Short: "Encode raw PCM to WAV and inspect WAV files",
	}

	cmd.AddCommand(newWAVEncodeCmd())
	cmd.AddCommand(newWAVInspectCmd())

	return cmd
}

func newWAVEncodeCmd() *cobra.Command {
	var in string
	var out string
	var dataURI bool

	cmd := &cobra.Command{
		Use:   "encode",
		Short: "Wrap raw little-endian PCM in a WAV header",
		Long: "Reads raw PCM from --in (or stdin) and writes a canonical 44-byte-header WAV file.\n" +
			"The format comes from --audio-channels, --audio-sample-rate and --audio-bit-depth.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			var r io.Reader = cmd.InOrStdin()
			if in != "" && in != "-" {
				f, err := os.Open(in)
				if err != nil {
					return err
				}
				defer func() { _ = f.Close() }()
				r = f
			}

			pcm, err := io.ReadAll(r)
			if err != nil {
				return fmt.Errorf("read PCM: %w", err)
			}

			result, err := encodePCM(pcm, pcmFormat(cfg.Audio), dataURI)
			if err != nil {
				return err
			}

			return writeOutput(out, result, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&in, "in", "-", "Raw PCM input file, or - for stdin")
	cmd.Flags().StringVar(&out, "out", "-", "Output file, or - for stdout")
	cmd.Flags().BoolVar(&dataURI, "data-uri", false, "Write a data:audio/wav;base64 URI instead of binary WAV")

	return cmd
}

// encodePCM wraps pcm in a WAV header, or returns the WAV as a data URI.
func encodePCM(pcm []byte, f audio.PCMFormat, asDataURI bool) ([]byte, error) {
	if len(pcm) == 0 {
		return nil, errors.New("PCM input is empty")
	}

	if !f.Aligned(len(pcm)) {
		slog.Warn("PCM input is not a whole number of frames",
			slog.Int("bytes", len(pcm)),
			slog.Int("block_align", f.BlockAlign()),
		)
	}

	if asDataURI {
		uri, err := audio.WAVDataURI(pcm, f)
		if err != nil {
			return nil, err
		}
		return []byte(uri + "\n"), nil
	}

	return audio.EncodeWAV(pcm, f)
}

func newWAVInspectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect FILE",
		Short: "Print the header fields of a WAV file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			return inspectWAV(cmd.OutOrStdout(), data)
		},
	}

	return cmd
}

func inspectWAV(w io.Writer, data []byte) error {
	h, err := audio.ReadHeader(data)
	if err != nil {
		return err
	}

	f := h.Format()
	payload := len(data) - audio.HeaderSize

	lines := []struct {
		key string
		val any
	}{
		{"channels", f.Channels},
		{"sample_rate", f.SampleRate},
		{"bit_depth", f.BitDepth},
		{"byte_rate", h.ByteRate},
		{"block_align", h.BlockAlign},
		{"data_bytes", h.DataSize},
		{"file_bytes", len(data)},
		{"duration", audio.Duration(int(h.DataSize), f)},
		{"aligned", f.Aligned(int(h.DataSize))},
	}
	for _, l := range lines {
		if _, err := fmt.Fprintf(w, "%-12s %v\n", l.key+":", l.val); err != nil {
			return err
		}
	}

	if dec, err := audio.DecodeWAV(data); err == nil {
		if _, err := fmt.Fprintf(w, "%-12s %.4f\n", "peak:", peak(dec.Samples)); err != nil {
			return err
		}
	}

	if int(h.DataSize) != payload {
		_, err = fmt.Fprintf(w, "warning: header declares %d data bytes, file holds %d\n", h.DataSize, payload)
		return err
	}
	return nil
}

func peak(samples []float32) float64 {
	var p float64
	for _, s := range samples {
		p = max(p, math.Abs(float64(s)))
	}
	return p
}
