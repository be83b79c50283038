package genai

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/concept-compass/internal/audio"
	"github.com/example/concept-compass/internal/testutil"
)

func TestLive_GenerateTextAndSpeech(t *testing.T) {
	if testing.Short() {
		t.Skip("live test skipped in -short mode")
	}
	key := testutil.RequireGeminiKey(t)

	client := NewClient(key, WithRetries(1))

	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	reply, err := client.GenerateText(ctx, TextRequest{Prompt: "Say hello in five words."})
	require.NoError(t, err)
	assert.NotEmpty(t, reply)

	media, err := client.GenerateSpeech(ctx, SpeechRequest{Text: "Hello from Concept Compass."})
	require.NoError(t, err)
	require.False(t, media.Empty())

	mime, params, pcm, err := audio.ParseDataURI(media.URL)
	require.NoError(t, err)
	assert.NotEmpty(t, pcm)

	f := audio.PCMFormatFromParams(mime, params, audio.DefaultPCMFormat())
	wav, err := audio.EncodeWAV(pcm, f)
	require.NoError(t, err)

	testutil.AssertCanonicalWAV(t, wav)
	testutil.AssertWAVFormat(t, wav, testutil.WAVFormat{Channels: f.Channels, SampleRate: f.SampleRate, BitDepth: f.BitDepth})
}
