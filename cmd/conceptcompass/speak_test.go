package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/example/concept-compass/internal/testutil"
)

func TestSpeakCmd_Offline(t *testing.T) {
	out := filepath.Join(t.TempDir(), "reply.wav")

	_, err := runCLI(t, "", "--provider", "offline", "speak", "--text", "Hello there.", "--out", out)
	if err != nil {
		t.Fatalf("speak: %v", err)
	}

	wav, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}

	testutil.AssertCanonicalWAV(t, wav)
	testutil.AssertWAVFormat(t, wav, testutil.WAVFormat{Channels: 1, SampleRate: 24000, BitDepth: 16})
	// The offline provider speaks 15 characters per second.
	testutil.AssertWAVDurationApprox(t, wav, 0.79, 0.81)
}

func TestSpeakCmd_StdinDataURI(t *testing.T) {
	stdout, err := runCLI(t, "Read this from stdin.", "--provider", "offline", "speak", "--data-uri")
	if err != nil {
		t.Fatalf("speak: %v", err)
	}

	if !strings.HasPrefix(stdout, "data:audio/wav;base64,") {
		t.Errorf("stdout = %.40q; want a WAV data URI", stdout)
	}
}

func TestSpeakCmd_EmptyInput(t *testing.T) {
	if _, err := runCLI(t, "  ", "--provider", "offline", "speak"); err == nil {
		t.Fatal("expected error for empty input")
	}
}

func TestSpeakCmd_GeminiWithoutKey(t *testing.T) {
	for _, env := range testutil.GeminiKeyEnv {
		t.Setenv(env, "")
	}

	_, err := runCLI(t, "", "--provider", "gemini", "speak", "--text", "Hi.", "--out", "-")
	if err == nil || !strings.Contains(err.Error(), "API key") {
		t.Fatalf("expected API key error, got %v", err)
	}
}
