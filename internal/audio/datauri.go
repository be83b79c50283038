package audio

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidDataURI is returned for strings that are not base64 data URIs.
var ErrInvalidDataURI = errors.New("invalid data URI")

const dataURIPrefix = "data:"

// DataURI formats data as data:<mime>;base64,<payload>.
func DataURI(mime string, data []byte) string {
	var b strings.Builder
	b.Grow(len(dataURIPrefix) + len(mime) + len(";base64,") + base64.StdEncoding.EncodedLen(len(data)))
	b.WriteString(dataURIPrefix)
	b.WriteString(mime)
	b.WriteString(";base64,")
	b.WriteString(base64.StdEncoding.EncodeToString(data))

	return b.String()
}

// ParseDataURI splits a base64 data URI at its first comma and decodes the
// payload. The returned mime type excludes parameters.
func ParseDataURI(uri string) (mime string, params string, payload []byte, err error) {
	if !strings.HasPrefix(uri, dataURIPrefix) {
		return "", "", nil, fmt.Errorf("%w: missing %q prefix", ErrInvalidDataURI, dataURIPrefix)
	}

	meta, encoded, ok := strings.Cut(uri[len(dataURIPrefix):], ",")
	if !ok {
		return "", "", nil, fmt.Errorf("%w: missing comma", ErrInvalidDataURI)
	}

	meta, isBase64 := strings.CutSuffix(meta, ";base64")
	if !isBase64 {
		return "", "", nil, fmt.Errorf("%w: payload is not base64", ErrInvalidDataURI)
	}

	mime, params, _ = strings.Cut(meta, ";")

	payload, err = base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", "", nil, fmt.Errorf("%w: %w", ErrInvalidDataURI, err)
	}

	return strings.TrimSpace(mime), params, payload, nil
}

// PCMFormatFromParams reads rate= and channels= parameters from a media type
// parameter list such as "codec=pcm;rate=24000". L8/L16/L24/L32 mime subtypes
// set the bit depth and default to one channel. Anything else missing or
// malformed keeps the fallback value.
func PCMFormatFromParams(mime, params string, fallback PCMFormat) PCMFormat {
	f := fallback

	// audio/L* is mono unless a channels parameter says otherwise.
	switch strings.ToLower(mime) {
	case "audio/l8":
		f.BitDepth, f.Channels = 8, 1
	case "audio/l16":
		f.BitDepth, f.Channels = 16, 1
	case "audio/l24":
		f.BitDepth, f.Channels = 24, 1
	case "audio/l32":
		f.BitDepth, f.Channels = 32, 1
	}

	for _, p := range strings.Split(params, ";") {
		key, val, ok := strings.Cut(strings.TrimSpace(p), "=")
		if !ok {
			continue
		}

		n, err := strconv.Atoi(strings.TrimSpace(val))
		if err != nil || n < 1 {
			continue
		}

		switch strings.ToLower(strings.TrimSpace(key)) {
		case "rate":
			f.SampleRate = n
		case "channels":
			f.Channels = n
		}
	}

	return f
}
