package server

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/example/concept-compass/internal/audio"
	"github.com/example/concept-compass/internal/metrics"
)

type wavResponse struct {
	DataURI         string          `json:"data_uri"`
	Format          audio.PCMFormat `json:"format"`
	Bytes           int             `json:"bytes"`
	DurationSeconds float64         `json:"duration_seconds"`
}

// handleAudioWAV wraps a raw PCM request body in a WAV header. The format
// comes from the query (channels, sample_rate, bit_depth), then from an
// audio/L16-style Content-Type, then from the configured default.
func (h *handler) handleAudioWAV(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	f, err := h.requestFormat(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var pcm []byte
	if r.Body != nil {
		pcm, err = io.ReadAll(http.MaxBytesReader(w, r.Body, int64(h.opts.maxAudioBytes)))
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				writeError(w, http.StatusRequestEntityTooLarge,
					fmt.Sprintf("PCM body exceeds %d bytes", tooLarge.Limit))
				return
			}
			writeError(w, http.StatusBadRequest, "read body: "+err.Error())
			return
		}
	}

	if len(pcm) == 0 {
		writeError(w, http.StatusBadRequest, "PCM body is empty")
		return
	}

	if !f.Aligned(len(pcm)) {
		metrics.RecordMisaligned()
		h.log.WarnContext(r.Context(), "PCM body is not a whole number of frames",
			slog.Int("bytes", len(pcm)),
			slog.Int("block_align", f.BlockAlign()),
		)
	}

	wav, err := audio.EncodeWAV(pcm, f)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, audio.ErrDataTooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		writeError(w, status, err.Error())
		return
	}

	duration := audio.Duration(len(pcm), f)
	metrics.RecordAudio(len(wav), duration.Seconds())

	h.log.InfoContext(r.Context(), "wav encoded",
		slog.String("format", f.String()),
		slog.Int("pcm_bytes", len(pcm)),
		slog.Int("wav_bytes", len(wav)),
	)

	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		writeJSON(w, http.StatusOK, wavResponse{
			DataURI:         audio.DataURI(audio.WAVMimeType, wav),
			Format:          f,
			Bytes:           len(wav),
			DurationSeconds: duration.Seconds(),
		})
		return
	}

	writeWAV(w, wav)
}

func (h *handler) requestFormat(r *http.Request) (audio.PCMFormat, error) {
	f := h.opts.pcmFormat

	if ct := r.Header.Get("Content-Type"); ct != "" {
		mime, params, _ := strings.Cut(ct, ";")
		mime = strings.TrimSpace(mime)
		if strings.HasPrefix(strings.ToLower(mime), "audio/l") {
			f = audio.PCMFormatFromParams(mime, params, f)
		}
	}

	q := r.URL.Query()
	for _, p := range []struct {
		key string
		dst *int
	}{
		{"channels", &f.Channels},
		{"sample_rate", &f.SampleRate},
		{"bit_depth", &f.BitDepth},
	} {
		raw := q.Get(p.key)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return audio.PCMFormat{}, fmt.Errorf("invalid %s %q", p.key, raw)
		}
		*p.dst = n
	}

	if err := f.Validate(); err != nil {
		return audio.PCMFormat{}, err
	}
	return f, nil
}
