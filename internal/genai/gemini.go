package genai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/time/rate"

	"github.com/example/concept-compass/internal/metrics"
)

const (
	DefaultBaseURL     = "https://generativelanguage.googleapis.com/v1beta"
	DefaultTextModel   = "gemini-2.0-flash"
	DefaultSpeechModel = "gemini-2.5-flash-preview-tts"

	providerName = "gemini"

	defaultTimeout       = 60 * time.Second
	defaultRetries       = 2
	defaultRetryInterval = 500 * time.Millisecond

	// maxResponseBytes bounds the body read from the service. Speech replies
	// carry base64 PCM, so this is well above any text answer.
	maxResponseBytes = 64 << 20
	maxErrorBytes    = 64 << 10
)

// Client calls the Gemini generateContent endpoint for text and speech.
type Client struct {
	apiKey        string
	baseURL       string
	client        *http.Client
	timeout       time.Duration
	textModel     string
	speechModel   string
	retries       int
	retryInterval time.Duration
	limiter       *rate.Limiter
	logger        *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL sets a custom base URL (for testing or proxies).
func WithBaseURL(url string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(url, "/")
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.client = client
	}
}

// WithTimeout sets the per-attempt HTTP timeout. It has no effect when
// WithHTTPClient is also given.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

func WithTextModel(model string) Option {
	return func(c *Client) {
		c.textModel = model
	}
}

func WithSpeechModel(model string) Option {
	return func(c *Client) {
		c.speechModel = model
	}
}

// WithRetries sets how many times a retryable failure is retried.
// Zero disables retries.
func WithRetries(n int) Option {
	return func(c *Client) {
		c.retries = max(n, 0)
	}
}

// WithRetryInterval sets the initial backoff between attempts.
func WithRetryInterval(d time.Duration) Option {
	return func(c *Client) {
		c.retryInterval = d
	}
}

// WithRateLimit caps outgoing requests per second. A non-positive rps
// removes the limit.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), max(burst, 1))
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a Gemini client authenticating with apiKey.
func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:        apiKey,
		baseURL:       DefaultBaseURL,
		timeout:       defaultTimeout,
		textModel:     DefaultTextModel,
		speechModel:   DefaultSpeechModel,
		retries:       defaultRetries,
		retryInterval: defaultRetryInterval,
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.client == nil {
		c.client = &http.Client{
			Timeout:   c.timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}
	return c
}

type geminiRequest struct {
	Contents          []geminiContent  `json:"contents"`
	SystemInstruction *geminiContent   `json:"systemInstruction,omitempty"`
	GenerationConfig  *geminiGenConfig `json:"generationConfig,omitempty"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inlineData,omitempty"`
}

type geminiInlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"` // base64 encoded
}

type geminiGenConfig struct {
	Temperature        *float32            `json:"temperature,omitempty"`
	ResponseModalities []string            `json:"responseModalities,omitempty"`
	SpeechConfig       *geminiSpeechConfig `json:"speechConfig,omitempty"`
}

type geminiSpeechConfig struct {
	VoiceConfig geminiVoiceConfig `json:"voiceConfig"`
}

type geminiVoiceConfig struct {
	PrebuiltVoiceConfig geminiPrebuiltVoice `json:"prebuiltVoiceConfig"`
}

type geminiPrebuiltVoice struct {
	VoiceName string `json:"voiceName"`
}

type geminiResponse struct {
	Candidates     []geminiCandidate     `json:"candidates"`
	PromptFeedback *geminiPromptFeedback `json:"promptFeedback,omitempty"`
}

type geminiCandidate struct {
	Content      geminiContent `json:"content"`
	FinishReason string        `json:"finishReason"`
}

type geminiPromptFeedback struct {
	BlockReason string `json:"blockReason,omitempty"`
}

type geminiErrorResponse struct {
	Error *APIError `json:"error"`
}

// GenerateText returns the concatenated text parts of the first candidate.
func (c *Client) GenerateText(ctx context.Context, req TextRequest) (string, error) {
	if strings.TrimSpace(req.Prompt) == "" {
		return "", ErrEmptyPrompt
	}

	contents := make([]geminiContent, 0, len(req.History)+1)
	for _, m := range req.History {
		role := RoleUser
		if m.Role == RoleModel {
			role = RoleModel
		}
		contents = append(contents, geminiContent{Role: role, Parts: []geminiPart{{Text: m.Text}}})
	}
	contents = append(contents, geminiContent{Role: RoleUser, Parts: []geminiPart{{Text: req.Prompt}}})

	body := geminiRequest{Contents: contents}
	if req.System != "" {
		body.SystemInstruction = &geminiContent{Parts: []geminiPart{{Text: req.System}}}
	}
	if req.Temperature > 0 {
		temp := req.Temperature
		body.GenerationConfig = &geminiGenConfig{Temperature: &temp}
	}

	resp, err := c.generate(ctx, c.textModel, "text", body)
	if err != nil {
		return "", err
	}

	candidate, err := firstCandidate(resp)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	for _, p := range candidate.Content.Parts {
		b.WriteString(p.Text)
	}

	return b.String(), nil
}

// GenerateSpeech returns the first inline audio part of the response as a
// data URI. A response without audio yields an empty Media and no error.
func (c *Client) GenerateSpeech(ctx context.Context, req SpeechRequest) (Media, error) {
	if strings.TrimSpace(req.Text) == "" {
		return Media{}, ErrEmptyPrompt
	}

	voice := req.Voice
	if voice == "" {
		voice = DefaultVoice
	}

	body := geminiRequest{
		Contents: []geminiContent{{Role: RoleUser, Parts: []geminiPart{{Text: req.Text}}}},
		GenerationConfig: &geminiGenConfig{
			ResponseModalities: []string{"AUDIO"},
			SpeechConfig: &geminiSpeechConfig{
				VoiceConfig: geminiVoiceConfig{
					PrebuiltVoiceConfig: geminiPrebuiltVoice{VoiceName: voice},
				},
			},
		},
	}

	resp, err := c.generate(ctx, c.speechModel, "speech", body)
	if err != nil {
		return Media{}, err
	}

	candidate, err := firstCandidate(resp)
	if err != nil {
		return Media{}, err
	}

	for _, p := range candidate.Content.Parts {
		if p.InlineData == nil || p.InlineData.Data == "" {
			continue
		}
		// Data is already base64; only the URI framing is added.
		return Media{URL: "data:" + p.InlineData.MimeType + ";base64," + p.InlineData.Data}, nil
	}

	c.logger.WarnContext(ctx, "speech response carried no inline audio",
		slog.String("model", c.speechModel),
		slog.String("finish_reason", candidate.FinishReason),
	)

	return Media{}, nil
}

func firstCandidate(resp *geminiResponse) (geminiCandidate, error) {
	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		return geminiCandidate{}, fmt.Errorf("%w: prompt blocked (%s)", ErrBlocked, resp.PromptFeedback.BlockReason)
	}

	if len(resp.Candidates) == 0 {
		return geminiCandidate{}, ErrNoCandidates
	}

	candidate := resp.Candidates[0]
	if candidate.FinishReason == "SAFETY" {
		return geminiCandidate{}, fmt.Errorf("%w: response blocked", ErrBlocked)
	}

	return candidate, nil
}

// generate sends one generateContent call, retrying retryable failures with
// exponential backoff.
func (c *Client) generate(ctx context.Context, model, kind string, body geminiRequest) (*geminiResponse, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = c.retryInterval

	start := time.Now()

	resp, err := backoff.Retry(ctx,
		func() (*geminiResponse, error) {
			resp, err := c.do(ctx, model, payload)
			if err != nil && !retryable(ctx, err) {
				return nil, backoff.Permanent(err)
			}
			return resp, err
		},
		backoff.WithBackOff(eb),
		backoff.WithMaxTries(uint(c.retries+1)),
		backoff.WithNotify(func(err error, next time.Duration) {
			metrics.RecordGenAIRetry(providerName, model)
			c.logger.WarnContext(ctx, "retrying genai request",
				slog.String("model", model),
				slog.String("error", err.Error()),
				slog.Duration("backoff", next),
			)
		}),
	)

	var perm *backoff.PermanentError
	if errors.As(err, &perm) {
		err = perm.Err
	}

	status := metrics.StatusSuccess
	if err != nil {
		status = metrics.StatusError
	}
	metrics.RecordGenAIRequest(providerName, model, kind, status, time.Since(start).Seconds())

	if err != nil {
		return nil, err
	}

	return resp, nil
}

func retryable(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Retryable()
	}

	// Only transport failures get another attempt. Truncated or malformed
	// bodies would fail the same way again.
	var netErr net.Error
	return errors.As(err, &netErr)
}

func (c *Client) do(ctx context.Context, model string, payload []byte) (*geminiResponse, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", c.baseURL, model)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, parseAPIError(resp)
	}

	var out geminiResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &out, nil
}

func parseAPIError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBytes))

	var errResp geminiErrorResponse
	if err := json.Unmarshal(raw, &errResp); err != nil || errResp.Error == nil {
		return &APIError{
			StatusCode: resp.StatusCode,
			Message:    strings.TrimSpace(string(raw)),
		}
	}

	if errResp.Error.StatusCode == 0 {
		errResp.Error.StatusCode = resp.StatusCode
	}

	return errResp.Error
}
