package genai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/example/concept-compass/internal/audio"
)

const (
	offlineCharsPerSecond = 15
	offlineMinSpeech      = 200 * time.Millisecond
	offlineMaxSpeech      = 30 * time.Second
	offlineToneHz         = 440
	offlineToneAmplitude  = 0.2
)

// Offline answers without any network access. Text replies echo the prompt
// with a score derived from its length; speech is a sine tone whose length
// follows the text, returned the same way the real service returns audio.
type Offline struct {
	Format audio.PCMFormat
}

// NewOffline returns an Offline provider producing 24 kHz mono 16-bit PCM.
func NewOffline() *Offline {
	return &Offline{Format: audio.DefaultPCMFormat()}
}

func (o *Offline) GenerateText(ctx context.Context, req TextRequest) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	prompt := strings.Join(strings.Fields(req.Prompt), " ")
	if prompt == "" {
		return "", ErrEmptyPrompt
	}

	words := len(strings.Fields(prompt))
	score := min(40+words, 95)

	excerpt := prompt
	if r := []rune(excerpt); len(r) > 80 {
		excerpt = string(r[:80]) + "..."
	}

	return fmt.Sprintf("Thanks for sharing your thinking. You said: %q. Try adding one concrete example next time.\nScore: %d", excerpt, score), nil
}

// GenerateSpeech returns headerless PCM as an audio/L16 data URI. Text that
// is only whitespace produces no audio.
func (o *Offline) GenerateSpeech(ctx context.Context, req SpeechRequest) (Media, error) {
	if err := ctx.Err(); err != nil {
		return Media{}, err
	}

	n := len([]rune(strings.TrimSpace(req.Text)))
	if n == 0 {
		return Media{}, nil
	}

	d := time.Duration(n) * time.Second / offlineCharsPerSecond
	d = min(max(d, offlineMinSpeech), offlineMaxSpeech)

	pcm, err := audio.QuantizePCM(audio.Tone(o.Format, offlineToneHz, d, offlineToneAmplitude), o.Format)
	if err != nil {
		return Media{}, fmt.Errorf("offline speech: %w", err)
	}

	mime := fmt.Sprintf("audio/L%d;codec=pcm;rate=%d;channels=%d",
		o.Format.BitDepth, o.Format.SampleRate, o.Format.Channels)

	return Media{URL: audio.DataURI(mime, pcm)}, nil
}
