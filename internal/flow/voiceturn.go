package flow

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/example/concept-compass/internal/audio"
	"github.com/example/concept-compass/internal/genai"
	"github.com/example/concept-compass/internal/text"
)

// VoiceTurnInput is what the student just said plus the conversation so far.
type VoiceTurnInput struct {
	Concept    string          `json:"concept"`
	Transcript string          `json:"transcript"`
	History    []genai.Message `json:"history,omitempty"`
	Voice      string          `json:"voice,omitempty"`
}

// VoiceTurnOutput is the tutor's spoken reply.
type VoiceTurnOutput struct {
	TurnID          string          `json:"turn_id"`
	Reply           string          `json:"reply"`
	AudioURI        string          `json:"audio_uri"`
	Format          audio.PCMFormat `json:"format"`
	DurationSeconds float64         `json:"duration_seconds"`
}

// VoiceTurn generates the tutor's reply and speaks it. The turn fails as a
// whole if either step fails; no text-only reply is returned.
func (f *Flows) VoiceTurn(ctx context.Context, in VoiceTurnInput) (out VoiceTurnOutput, err error) {
	defer f.observe(NameVoiceTurn, time.Now(), &err)

	turnID := uuid.NewString()
	logger := f.logger.With(slog.String("turn_id", turnID))

	if in.Concept, err = text.Normalize(in.Concept); err != nil {
		return VoiceTurnOutput{}, fmt.Errorf("concept: %w", err)
	}
	if in.Transcript, err = text.Normalize(in.Transcript); err != nil {
		return VoiceTurnOutput{}, fmt.Errorf("transcript: %w", err)
	}

	history := in.History
	if len(history) > maxHistory {
		history = history[len(history)-maxHistory:]
	}

	reply, err := f.text.GenerateText(ctx, genai.TextRequest{
		System:  tutorPrompt(in.Concept),
		Prompt:  in.Transcript,
		History: history,
	})
	if err != nil {
		return VoiceTurnOutput{}, fmt.Errorf("generate reply: %w", err)
	}

	reply = strings.TrimSpace(reply)
	if reply == "" {
		return VoiceTurnOutput{}, ErrEmptyReply
	}

	speech, err := f.speak(ctx, reply, in.Voice)
	if err != nil {
		logger.WarnContext(ctx, "voice turn aborted", slog.String("error", err.Error()))
		return VoiceTurnOutput{}, fmt.Errorf("speak reply: %w", err)
	}

	logger.InfoContext(ctx, "voice turn complete",
		slog.String("concept", in.Concept),
		slog.Int("history", len(history)),
		slog.Int("reply_chars", len(reply)),
		slog.Float64("audio_seconds", speech.DurationSeconds),
	)

	return VoiceTurnOutput{
		TurnID:          turnID,
		Reply:           reply,
		AudioURI:        speech.AudioURI,
		Format:          speech.Format,
		DurationSeconds: speech.DurationSeconds,
	}, nil
}
