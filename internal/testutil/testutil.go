// Package testutil provides shared helpers for tests: skip helpers for live
// integration tests and assertions on encoded WAV data.
//
// Typical usage:
//
//	func TestLiveSpeech(t *testing.T) {
//	    key := testutil.RequireGeminiKey(t)
//	    ...
//	    pcm := testutil.AssertCanonicalWAV(t, wav)
//	}
package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// GeminiKeyEnv lists the variables RequireGeminiKey reads, in order.
var GeminiKeyEnv = []string{"CONCEPTCOMPASS_GENAI_API_KEY", "GEMINI_API_KEY", "GOOGLE_API_KEY"}

// RequireGeminiKey skips the test unless an API key for the live Gemini
// service is set, and returns it. Setting CONCEPTCOMPASS_SKIP_LIVE skips
// even when a key is present.
func RequireGeminiKey(tb testing.TB) string {
	tb.Helper()

	if os.Getenv("CONCEPTCOMPASS_SKIP_LIVE") != "" {
		tb.Skip("live provider tests disabled by CONCEPTCOMPASS_SKIP_LIVE")
		return ""
	}

	for _, env := range GeminiKeyEnv {
		if key := os.Getenv(env); key != "" {
			return key
		}
	}

	tb.Skipf("no Gemini API key; set one of %v to run live tests", GeminiKeyEnv)
	return ""
}

// WriteFile writes data to name inside a fresh temporary directory and
// returns the full path.
func WriteFile(tb testing.TB, name string, data []byte) string {
	tb.Helper()

	p := filepath.Join(tb.TempDir(), name)
	if err := os.WriteFile(p, data, 0o600); err != nil {
		tb.Fatalf("write %s: %v", p, err)
	}

	return p
}
