package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/sync/semaphore"

	"github.com/example/concept-compass/internal/audio"
	"github.com/example/concept-compass/internal/config"
	"github.com/example/concept-compass/internal/flow"
	"github.com/example/concept-compass/internal/metrics"
)

// ParseLogLevel converts a case-insensitive level string to slog.Level.
// An empty string returns slog.LevelInfo. Unknown strings return an error.
func ParseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q (want debug|info|warn|error)", s)
	}
}

// FlowRunner runs the conversational flows. *flow.Flows implements it.
type FlowRunner interface {
	Feedback(ctx context.Context, in flow.FeedbackInput) (flow.FeedbackOutput, error)
	Speak(ctx context.Context, in flow.SpeakInput) (flow.SpeakOutput, error)
	VoiceTurn(ctx context.Context, in flow.VoiceTurnInput) (flow.VoiceTurnOutput, error)
}

var _ FlowRunner = (*flow.Flows)(nil)

// ---------------------------------------------------------------------------
// Functional options
// ---------------------------------------------------------------------------

type options struct {
	maxTextBytes   int
	maxAudioBytes  int
	workers        int
	requestTimeout time.Duration
	pcmFormat      audio.PCMFormat
	registry       *prometheus.Registry
	logger         *slog.Logger
}

func defaultOptions() options {
	return options{
		maxTextBytes:   8192,
		maxAudioBytes:  32 << 20,
		workers:        4,
		requestTimeout: 60 * time.Second,
		pcmFormat:      audio.DefaultPCMFormat(),
		logger:         slog.Default(),
	}
}

// Option configures the HTTP handler.
type Option func(*options)

// WithMaxTextBytes sets the maximum size in bytes of any text field.
func WithMaxTextBytes(n int) Option {
	return func(o *options) { o.maxTextBytes = n }
}

// WithMaxAudioBytes sets the maximum raw PCM body accepted by POST /audio/wav.
func WithMaxAudioBytes(n int) Option {
	return func(o *options) { o.maxAudioBytes = n }
}

// WithWorkers sets the maximum number of concurrent flow executions.
// Zero or less disables the limit.
func WithWorkers(n int) Option {
	return func(o *options) { o.workers = n }
}

// WithRequestTimeout sets the per-request flow deadline.
func WithRequestTimeout(d time.Duration) Option {
	return func(o *options) { o.requestTimeout = d }
}

// WithPCMFormat sets the format assumed for raw PCM bodies that do not
// describe themselves.
func WithPCMFormat(f audio.PCMFormat) Option {
	return func(o *options) { o.pcmFormat = f }
}

// WithRegistry sets the registry served on /metrics.
func WithRegistry(reg *prometheus.Registry) Option {
	return func(o *options) { o.registry = reg }
}

// WithLogger sets the slog.Logger used for request logging.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// ---------------------------------------------------------------------------
// handler
// ---------------------------------------------------------------------------

// handler holds the dependencies needed to serve HTTP requests.
type handler struct {
	flows FlowRunner
	opts  options
	sem   *semaphore.Weighted // worker pool, nil when unlimited
	log   *slog.Logger
}

// NewHandler returns an http.Handler serving /health, /metrics, the flow
// endpoints under /flows/ and POST /audio/wav.
func NewHandler(flows FlowRunner, optFns ...Option) http.Handler {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.registry == nil {
		opts.registry = metrics.NewRegistry()
	}
	if opts.logger == nil {
		opts.logger = slog.Default()
	}

	h := &handler{
		flows: flows,
		opts:  opts,
		log:   opts.logger,
	}
	if opts.workers > 0 {
		h.sem = semaphore.NewWeighted(int64(opts.workers))
	}

	mux := http.NewServeMux()
	h.route(mux, "/health", h.handleHealth)
	mux.Handle("/metrics", metrics.Handler(opts.registry))
	h.route(mux, "/flows/feedback", h.handleFeedback)
	h.route(mux, "/flows/speak", h.handleSpeak)
	h.route(mux, "/flows/voice-turn", h.handleVoiceTurn)
	h.route(mux, "/audio/wav", h.handleAudioWAV)

	return otelhttp.NewHandler(withCORS(mux), "conceptcompass")
}

func buildVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

func (h *handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": buildVersion(),
	})
}

func (h *handler) handleFeedback(w http.ResponseWriter, r *http.Request) {
	var in flow.FeedbackInput
	if !h.decodePost(w, r, &in) {
		return
	}
	if !h.checkText(w, in.Concept, in.Explanation, in.GradeLevel) {
		return
	}

	h.run(w, r, flow.NameFeedback, func(ctx context.Context) (any, error) {
		return h.flows.Feedback(ctx, in)
	})
}

func (h *handler) handleSpeak(w http.ResponseWriter, r *http.Request) {
	var in flow.SpeakInput
	if !h.decodePost(w, r, &in) {
		return
	}
	if !h.checkText(w, in.Text) {
		return
	}

	asWAV := strings.EqualFold(r.URL.Query().Get("format"), "wav")

	h.run(w, r, flow.NameSpeak, func(ctx context.Context) (any, error) {
		out, err := h.flows.Speak(ctx, in)
		if err != nil || !asWAV {
			return out, err
		}
		return wavBody(out.WAV), nil
	})
}

func (h *handler) handleVoiceTurn(w http.ResponseWriter, r *http.Request) {
	var in flow.VoiceTurnInput
	if !h.decodePost(w, r, &in) {
		return
	}

	fields := []string{in.Concept, in.Transcript}
	for _, m := range in.History {
		fields = append(fields, m.Text)
	}
	if !h.checkText(w, fields...) {
		return
	}

	h.run(w, r, flow.NameVoiceTurn, func(ctx context.Context) (any, error) {
		return h.flows.VoiceTurn(ctx, in)
	})
}

// wavBody marks a flow result to be written as audio/wav instead of JSON.
type wavBody []byte

// run executes one flow inside a worker slot and under the request timeout,
// then writes its result or the mapped error.
func (h *handler) run(w http.ResponseWriter, r *http.Request, name string, fn func(context.Context) (any, error)) {
	if !h.acquire(w, r) {
		return
	}
	defer h.release()

	ctx, cancel := context.WithTimeout(r.Context(), h.opts.requestTimeout)
	defer cancel()

	start := time.Now()
	out, err := fn(ctx)
	durationMS := time.Since(start).Milliseconds()

	if err != nil {
		h.writeFlowError(w, r, name, durationMS, err)
		return
	}

	h.log.InfoContext(r.Context(), "flow complete",
		slog.String("flow", name),
		slog.Int64("duration_ms", durationMS),
	)

	if wav, ok := out.(wavBody); ok {
		writeWAV(w, wav)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// acquire takes a worker slot, honouring cancellation while waiting.
func (h *handler) acquire(w http.ResponseWriter, r *http.Request) bool {
	if h.sem == nil {
		return true
	}
	if err := h.sem.Acquire(r.Context(), 1); err != nil {
		writeError(w, http.StatusServiceUnavailable, "request cancelled while waiting for worker")
		return false
	}
	metrics.WorkerAcquired()
	return true
}

func (h *handler) release() {
	if h.sem == nil {
		return
	}
	metrics.WorkerReleased()
	h.sem.Release(1)
}

// decodePost enforces POST and decodes a JSON body. It writes the error
// response itself and reports whether the handler should continue.
func (h *handler) decodePost(w http.ResponseWriter, r *http.Request, v any) bool {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return false
	}

	if r.Body == nil {
		writeError(w, http.StatusBadRequest, "request body is required")
		return false
	}

	body := http.MaxBytesReader(w, r.Body, h.jsonLimit())
	if err := json.NewDecoder(body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			writeError(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit))
		case errors.Is(err, io.EOF):
			writeError(w, http.StatusBadRequest, "request body is required")
		default:
			writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		}
		return false
	}

	return true
}

// jsonLimit bounds a JSON request body. Voice turns carry history, so the
// envelope allows many text fields.
func (h *handler) jsonLimit() int64 {
	return int64(h.opts.maxTextBytes)*32 + 64<<10
}

// checkText rejects any field longer than maxTextBytes with 413.
func (h *handler) checkText(w http.ResponseWriter, fields ...string) bool {
	for _, f := range fields {
		if len(f) > h.opts.maxTextBytes {
			writeError(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("text exceeds maximum size of %d bytes", h.opts.maxTextBytes))
			return false
		}
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeWAV(w http.ResponseWriter, wav []byte) {
	w.Header().Set("Content-Type", audio.WAVMimeType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(wav)
}

// ---------------------------------------------------------------------------
// Server wires the handler into net/http.Server with graceful shutdown.
// ---------------------------------------------------------------------------

// Server wires the HTTP handler into a net/http.Server with graceful shutdown.
type Server struct {
	cfg             config.Config
	flows           FlowRunner
	logger          *slog.Logger
	shutdownTimeout time.Duration
}

func New(cfg config.Config, flows FlowRunner) *Server {
	shutdown := 30 * time.Second
	if cfg.Server.ShutdownTimeout > 0 {
		shutdown = time.Duration(cfg.Server.ShutdownTimeout) * time.Second
	}

	return &Server{
		cfg:             cfg,
		flows:           flows,
		logger:          slog.Default(),
		shutdownTimeout: shutdown,
	}
}

// WithShutdownTimeout overrides the graceful-shutdown drain period.
func (s *Server) WithShutdownTimeout(d time.Duration) *Server {
	s.shutdownTimeout = d
	return s
}

// WithLogger sets the logger handed to the request handler.
func (s *Server) WithLogger(l *slog.Logger) *Server {
	s.logger = l
	return s
}

// Handler builds the request handler from the server configuration.
func (s *Server) Handler() http.Handler {
	return NewHandler(s.flows,
		WithWorkers(s.cfg.Server.Workers),
		WithMaxTextBytes(s.cfg.Server.MaxTextBytes),
		WithMaxAudioBytes(s.cfg.Server.MaxAudioBytes),
		WithRequestTimeout(time.Duration(s.cfg.Server.RequestTimeout)*time.Second),
		WithPCMFormat(audio.PCMFormat{
			Channels:   s.cfg.Audio.Channels,
			SampleRate: s.cfg.Audio.SampleRate,
			BitDepth:   s.cfg.Audio.BitDepth,
		}),
		WithLogger(s.logger),
	)
}

func (s *Server) Start(ctx context.Context) error {
	if s.flows == nil {
		return errors.New("server: no flows configured")
	}

	httpServer := &http.Server{
		Addr:              s.cfg.Server.ListenAddr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.ListenAndServe()
	}()

	s.logger.InfoContext(ctx, "server listening", slog.String("addr", s.cfg.Server.ListenAddr))

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http shutdown: %w", err)
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http listen: %w", err)
	}
}

func ProbeHTTP(addr string) error {
	resp, err := http.Get("http://" + addr + "/health") //nolint:noctx
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected health status: %s", resp.Status)
	}
	return nil
}
