// Package flow implements the conversational flows behind the app: written
// feedback on a student's explanation, text to speech, and one spoken turn
// of the tutoring dialogue.
//
// Flows are stateless. Every call validates its input, talks to the
// generative services through the genai interfaces and returns plain values,
// so concurrent turns never share anything.
package flow

import (
	"errors"
	"log/slog"
	"time"

	"github.com/example/concept-compass/internal/audio"
	"github.com/example/concept-compass/internal/genai"
	"github.com/example/concept-compass/internal/metrics"
	"github.com/example/concept-compass/internal/text"
)

var (
	// ErrNoAudio aborts a turn when the speech service returned no audio.
	ErrNoAudio = errors.New("no audio produced")

	// ErrFormatMismatch is returned when the chunks of one utterance come
	// back in different PCM formats and cannot be joined.
	ErrFormatMismatch = errors.New("speech chunks have different PCM formats")

	// ErrUnsupportedAudio is returned for speech payloads that are neither
	// raw PCM nor a canonical WAV file.
	ErrUnsupportedAudio = errors.New("unsupported speech audio type")

	// ErrEmptyReply is returned when the text service answered with nothing.
	ErrEmptyReply = errors.New("empty reply from text service")
)

// Flow names used in logs and metrics.
const (
	NameFeedback  = "feedback"
	NameSpeak     = "speak"
	NameVoiceTurn = "voice_turn"
)

const (
	defaultParallelism = 4
	maxHistory         = 20
)

// Flows runs the conversational flows against a text and a speech service.
type Flows struct {
	text        genai.TextGenerator
	speech      genai.SpeechGenerator
	logger      *slog.Logger
	voice       string
	chunkChars  int
	parallelism int
	pcmFormat   audio.PCMFormat
}

// Option configures Flows.
type Option func(*Flows)

func WithLogger(logger *slog.Logger) Option {
	return func(f *Flows) {
		f.logger = logger
	}
}

// WithVoice sets the voice used when a request names none.
func WithVoice(voice string) Option {
	return func(f *Flows) {
		f.voice = voice
	}
}

// WithChunkChars bounds the text sent in one speech request.
func WithChunkChars(n int) Option {
	return func(f *Flows) {
		f.chunkChars = n
	}
}

// WithParallelism bounds concurrent speech requests within one utterance.
func WithParallelism(n int) Option {
	return func(f *Flows) {
		f.parallelism = max(n, 1)
	}
}

// WithPCMFormat sets the format assumed for speech payloads whose media
// type does not say.
func WithPCMFormat(pf audio.PCMFormat) Option {
	return func(f *Flows) {
		f.pcmFormat = pf
	}
}

// New returns Flows using textGen for replies and speechGen for audio.
func New(textGen genai.TextGenerator, speechGen genai.SpeechGenerator, opts ...Option) *Flows {
	f := &Flows{
		text:        textGen,
		speech:      speechGen,
		logger:      slog.Default(),
		voice:       genai.DefaultVoice,
		chunkChars:  text.DefaultChunkChars,
		parallelism: defaultParallelism,
		pcmFormat:   audio.DefaultPCMFormat(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// observe records the outcome of one flow run. Use as
// defer f.observe(name, time.Now(), &err).
func (f *Flows) observe(name string, start time.Time, errp *error) {
	status := metrics.StatusSuccess
	if *errp != nil {
		status = metrics.StatusError
	}
	metrics.RecordFlow(name, status, time.Since(start).Seconds())
}
