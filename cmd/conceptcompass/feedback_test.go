package main

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/example/concept-compass/internal/flow"
)

func TestFeedbackCmd_Offline(t *testing.T) {
	stdout, err := runCLI(t, "", "--provider", "offline",
		"feedback", "--concept", "Gravity", "--explanation", "Things fall down.")
	if err != nil {
		t.Fatalf("feedback: %v", err)
	}

	if !strings.Contains(stdout, "Things fall down.") {
		t.Errorf("feedback does not quote the explanation:\n%s", stdout)
	}
	if !strings.Contains(stdout, "score: 47/100") {
		t.Errorf("missing score line:\n%s", stdout)
	}
}

func TestFeedbackCmd_JSON(t *testing.T) {
	stdout, err := runCLI(t, "Plants turn light into sugar.", "--provider", "offline",
		"feedback", "--concept", "Photosynthesis", "--grade-level", "6", "--json")
	if err != nil {
		t.Fatalf("feedback: %v", err)
	}

	var got flow.FeedbackOutput
	if err := json.Unmarshal([]byte(stdout), &got); err != nil {
		t.Fatalf("decode %q: %v", stdout, err)
	}
	if got.Score < 0 || got.Score > 100 {
		t.Errorf("score = %d; want 0..100", got.Score)
	}
	if got.Feedback == "" {
		t.Error("empty feedback")
	}
}

func TestFeedbackCmd_RequiresConcept(t *testing.T) {
	if _, err := runCLI(t, "", "--provider", "offline", "feedback", "--explanation", "x"); err == nil {
		t.Fatal("expected error without --concept")
	}
}
