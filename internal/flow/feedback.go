package flow

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/concept-compass/internal/genai"
	"github.com/example/concept-compass/internal/text"
)

// FeedbackInput is a student's written or transcribed explanation.
type FeedbackInput struct {
	Concept     string `json:"concept"`
	Explanation string `json:"explanation"`
	GradeLevel  string `json:"grade_level,omitempty"`
}

// FeedbackOutput is the tutor's assessment. Score is 0 to 100, or -1 when
// the reply carried no score.
type FeedbackOutput struct {
	Feedback string `json:"feedback"`
	Score    int    `json:"score"`
}

// Feedback asks the text service to assess an explanation.
func (f *Flows) Feedback(ctx context.Context, in FeedbackInput) (out FeedbackOutput, err error) {
	defer f.observe(NameFeedback, time.Now(), &err)

	if in.Concept, err = text.Normalize(in.Concept); err != nil {
		return FeedbackOutput{}, fmt.Errorf("concept: %w", err)
	}
	if in.Explanation, err = text.Normalize(in.Explanation); err != nil {
		return FeedbackOutput{}, fmt.Errorf("explanation: %w", err)
	}
	in.GradeLevel = strings.TrimSpace(in.GradeLevel)

	reply, err := f.text.GenerateText(ctx, genai.TextRequest{
		System: feedbackSystem,
		Prompt: feedbackPrompt(in),
	})
	if err != nil {
		return FeedbackOutput{}, fmt.Errorf("generate feedback: %w", err)
	}

	reply = strings.TrimSpace(reply)
	if reply == "" {
		return FeedbackOutput{}, ErrEmptyReply
	}

	score, ok := text.ParseScore(reply)
	if !ok {
		score = -1
		f.logger.WarnContext(ctx, "feedback reply has no score", slog.String("concept", in.Concept))
	}

	f.logger.InfoContext(ctx, "feedback generated",
		slog.String("concept", in.Concept),
		slog.Int("score", score),
		slog.Int("reply_chars", len(reply)),
	)

	return FeedbackOutput{Feedback: reply, Score: score}, nil
}
