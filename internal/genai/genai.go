// Package genai is the boundary to the generative text and speech services.
//
// The services are opaque: text generation returns a string and speech
// generation returns headerless PCM wrapped in a data URI. Client talks to
// the Gemini REST API; Offline is a deterministic stand-in for tests and for
// running without an API key.
package genai

import "context"

// Roles used in conversation history.
const (
	RoleUser  = "user"
	RoleModel = "model"
)

// DefaultVoice is the prebuilt voice used when a request names none.
const DefaultVoice = "Algenib"

// Message is one prior turn of a conversation.
type Message struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

// TextRequest asks for a text completion.
type TextRequest struct {
	System      string
	Prompt      string
	History     []Message
	Temperature float32 // zero uses the service default
}

// SpeechRequest asks for spoken audio of Text.
type SpeechRequest struct {
	Text  string
	Voice string
}

// Media is generated audio. URL is a data:<mime>;base64,<pcm> URI; it is
// empty when the service produced no audio.
type Media struct {
	URL string
}

// Empty reports whether m carries no audio reference.
func (m Media) Empty() bool { return m.URL == "" }

// TextGenerator produces text from a prompt.
type TextGenerator interface {
	GenerateText(ctx context.Context, req TextRequest) (string, error)
}

// SpeechGenerator produces speech audio from text.
type SpeechGenerator interface {
	GenerateSpeech(ctx context.Context, req SpeechRequest) (Media, error)
}
