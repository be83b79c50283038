package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/example/concept-compass/internal/audio"
	"github.com/example/concept-compass/internal/flow"
	"github.com/example/concept-compass/internal/genai"
	"github.com/example/concept-compass/internal/text"
)

// statusFor maps a flow error to the HTTP status and message sent to the
// client. Upstream failures are 502 so clients can tell them from bugs here.
func statusFor(err error) (int, string) {
	var apiErr *genai.APIError

	switch {
	case errors.Is(err, text.ErrEmptyText):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "flow timed out"
	case errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable, "request cancelled"
	case errors.Is(err, flow.ErrNoAudio):
		return http.StatusBadGateway, flow.ErrNoAudio.Error()
	case errors.Is(err, genai.ErrBlocked):
		return http.StatusUnprocessableEntity, genai.ErrBlocked.Error()
	case errors.As(err, &apiErr):
		if apiErr.StatusCode == http.StatusTooManyRequests {
			return http.StatusTooManyRequests, "provider rate limit exceeded"
		}
		return http.StatusBadGateway, "provider error: " + apiErr.Error()
	case errors.Is(err, flow.ErrEmptyReply),
		errors.Is(err, flow.ErrFormatMismatch),
		errors.Is(err, flow.ErrUnsupportedAudio),
		errors.Is(err, genai.ErrNoCandidates),
		errors.Is(err, audio.ErrInvalidDataURI),
		errors.Is(err, audio.ErrInvalidWAV):
		return http.StatusBadGateway, err.Error()
	default:
		return http.StatusInternalServerError, err.Error()
	}
}

func (h *handler) writeFlowError(w http.ResponseWriter, r *http.Request, name string, durationMS int64, err error) {
	status, msg := statusFor(err)

	level := slog.LevelWarn
	if status >= http.StatusInternalServerError && status != http.StatusGatewayTimeout {
		level = slog.LevelError
	}

	h.log.Log(r.Context(), level, "flow failed",
		slog.String("flow", name),
		slog.Int("status", status),
		slog.Int64("duration_ms", durationMS),
		slog.String("error", err.Error()),
	)

	writeError(w, status, msg)
}
