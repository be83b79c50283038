package flow

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/example/concept-compass/internal/audio"
	"github.com/example/concept-compass/internal/genai"
	"github.com/example/concept-compass/internal/metrics"
	"github.com/example/concept-compass/internal/text"
)

// SpeakInput is text to be spoken.
type SpeakInput struct {
	Text  string `json:"text"`
	Voice string `json:"voice,omitempty"`
}

// SpeakOutput is one WAV container ready for a browser audio element.
type SpeakOutput struct {
	AudioURI        string          `json:"audio_uri"`
	Format          audio.PCMFormat `json:"format"`
	Bytes           int             `json:"bytes"`
	DurationSeconds float64         `json:"duration_seconds"`
	Chunks          int             `json:"chunks"`

	// WAV holds the container bytes behind AudioURI.
	WAV []byte `json:"-"`
}

// Speak converts text to a single WAV data URI. Long text is split at
// sentence boundaries and synthesized in parallel; the PCM of all chunks is
// joined in order and wrapped in one header. Any chunk without audio fails
// the whole call with ErrNoAudio.
func (f *Flows) Speak(ctx context.Context, in SpeakInput) (out SpeakOutput, err error) {
	defer f.observe(NameSpeak, time.Now(), &err)

	raw, err := text.Normalize(in.Text)
	if err != nil {
		return SpeakOutput{}, fmt.Errorf("text: %w", err)
	}

	return f.speak(ctx, raw, in.Voice)
}

type speechChunk struct {
	pcm    []byte
	format audio.PCMFormat
}

func (f *Flows) speak(ctx context.Context, raw, voice string) (SpeakOutput, error) {
	spoken := text.ForSpeech(raw)
	if spoken == "" {
		return SpeakOutput{}, fmt.Errorf("text: %w", text.ErrEmptyText)
	}

	if voice == "" {
		voice = f.voice
	}

	parts := text.ChunkBySentence(spoken, f.chunkChars)
	chunks := make([]speechChunk, len(parts))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(f.parallelism)

	for i, part := range parts {
		g.Go(func() error {
			c, err := f.synthesize(gctx, part, voice)
			if err != nil {
				return fmt.Errorf("chunk %d of %d: %w", i+1, len(parts), err)
			}
			chunks[i] = c
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return SpeakOutput{}, err
	}

	format := chunks[0].format
	size := 0

	for i, c := range chunks {
		if c.format != format {
			return SpeakOutput{}, fmt.Errorf("%w: chunk 1 is %s, chunk %d is %s", ErrFormatMismatch, format, i+1, c.format)
		}

		if !format.Aligned(len(c.pcm)) {
			metrics.RecordMisaligned()
			f.logger.WarnContext(ctx, "speech chunk is not a whole number of frames",
				slog.Int("chunk", i+1),
				slog.Int("bytes", len(c.pcm)),
				slog.Int("block_align", format.BlockAlign()),
			)
		}

		size += len(c.pcm)
	}

	pcm := make([]byte, 0, size)
	for _, c := range chunks {
		pcm = append(pcm, c.pcm...)
	}

	wav, err := audio.EncodeWAV(pcm, format)
	if err != nil {
		return SpeakOutput{}, fmt.Errorf("encode wav: %w", err)
	}

	duration := audio.Duration(len(pcm), format)
	metrics.RecordAudio(len(wav), duration.Seconds())

	f.logger.DebugContext(ctx, "speech encoded",
		slog.Int("chunks", len(chunks)),
		slog.Int("wav_bytes", len(wav)),
		slog.String("format", format.String()),
		slog.Duration("duration", duration),
	)

	return SpeakOutput{
		AudioURI:        audio.DataURI(audio.WAVMimeType, wav),
		Format:          format,
		Bytes:           len(wav),
		DurationSeconds: duration.Seconds(),
		Chunks:          len(chunks),
		WAV:             wav,
	}, nil
}

// synthesize requests speech for one chunk and returns its raw PCM.
func (f *Flows) synthesize(ctx context.Context, part, voice string) (speechChunk, error) {
	media, err := f.speech.GenerateSpeech(ctx, genai.SpeechRequest{Text: part, Voice: voice})
	if err != nil {
		return speechChunk{}, fmt.Errorf("generate speech: %w", err)
	}

	if media.Empty() {
		return speechChunk{}, ErrNoAudio
	}

	mime, params, payload, err := audio.ParseDataURI(media.URL)
	if err != nil {
		return speechChunk{}, fmt.Errorf("speech payload: %w", err)
	}

	return f.decodePayload(mime, params, payload)
}

// decodePayload accepts headerless PCM (audio/L16, audio/pcm, ...) or a
// canonical WAV file, whose header is stripped so chunks can be joined.
func (f *Flows) decodePayload(mime, params string, payload []byte) (speechChunk, error) {
	mime = strings.ToLower(mime)

	switch {
	case mime == "audio/wav" || mime == "audio/x-wav" || mime == "audio/wave":
		h, err := audio.ReadHeader(payload)
		if err != nil {
			return speechChunk{}, fmt.Errorf("speech payload: %w", err)
		}

		pcm := payload[audio.HeaderSize:]
		if int(h.DataSize) < len(pcm) {
			pcm = pcm[:h.DataSize]
		}

		if len(pcm) == 0 {
			return speechChunk{}, ErrNoAudio
		}

		return speechChunk{pcm: bytes.Clone(pcm), format: h.Format()}, nil

	case strings.HasPrefix(mime, "audio/l") || mime == "audio/pcm" || mime == "audio/raw":
		if len(payload) == 0 {
			return speechChunk{}, ErrNoAudio
		}

		return speechChunk{pcm: payload, format: audio.PCMFormatFromParams(mime, params, f.pcmFormat)}, nil

	default:
		return speechChunk{}, fmt.Errorf("%w: %q", ErrUnsupportedAudio, mime)
	}
}
