package audio

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/cwbudde/wav"
	goaudio "github.com/go-audio/audio"
)

// QuantizePCM converts interleaved float samples to little-endian integer
// PCM at f.BitDepth. Samples are clamped to [-1, 1]. 8-bit output is
// unsigned with a 128 offset, as WAV requires.
func QuantizePCM(samples []float32, f PCMFormat) ([]byte, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}

	bps := f.BytesPerSample()
	if bps > 4 {
		return nil, fmt.Errorf("%w: cannot quantize to %d bits", ErrInvalidFormat, f.BitDepth)
	}

	peak := float64(int64(1)<<(f.BitDepth-1) - 1)
	out := make([]byte, len(samples)*bps)

	for i, s := range samples {
		clamped := math.Max(-1.0, math.Min(1.0, float64(s)))
		v := int32(math.Round(clamped * peak))
		b := out[i*bps : (i+1)*bps]

		switch bps {
		case 1:
			b[0] = byte(v + 128)
		case 2:
			binary.LittleEndian.PutUint16(b, uint16(int16(v)))
		case 3:
			b[0] = byte(v)
			b[1] = byte(v >> 8)
			b[2] = byte(v >> 16)
		case 4:
			binary.LittleEndian.PutUint32(b, uint32(v))
		}
	}

	return out, nil
}

// EncodeSamples encodes float samples through the cwbudde/wav encoder. It
// is the reference path used to cross-check EncodeWAV output.
func EncodeSamples(samples []float32, f PCMFormat) ([]byte, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer

	// wav.NewEncoder requires an io.WriteSeeker; bytes.Buffer is not one.
	sw := &seekBuffer{buf: &buf}

	enc := wav.NewEncoder(sw, f.SampleRate, f.BitDepth, f.Channels, 1) // 1 = PCM

	pcmBuf := &goaudio.Float32Buffer{
		Data:           samples,
		Format:         &goaudio.Format{SampleRate: f.SampleRate, NumChannels: f.Channels},
		SourceBitDepth: f.BitDepth,
	}

	if err := enc.Write(pcmBuf); err != nil {
		return nil, fmt.Errorf("writing PCM: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("closing encoder: %w", err)
	}

	return buf.Bytes(), nil
}

// seekBuffer wraps a bytes.Buffer to satisfy io.WriteSeeker.
type seekBuffer struct {
	buf *bytes.Buffer
	pos int
}

func (s *seekBuffer) Write(p []byte) (int, error) {
	if s.pos == s.buf.Len() {
		n, err := s.buf.Write(p)
		s.pos += n
		return n, err
	}
	// Overwrite in place, growing the buffer if the write runs past the end.
	data := s.buf.Bytes()
	n := copy(data[s.pos:], p)
	if n < len(p) {
		s.buf.Write(p[n:])
	}
	s.pos += len(p)
	return len(p), nil
}

func (s *seekBuffer) Seek(offset int64, whence int) (int64, error) {
	var newPos int
	switch whence {
	case 0: // io.SeekStart
		newPos = int(offset)
	case 1: // io.SeekCurrent
		newPos = s.pos + int(offset)
	case 2: // io.SeekEnd
		newPos = s.buf.Len() + int(offset)
	default:
		return 0, fmt.Errorf("invalid whence %d", whence)
	}
	if newPos < 0 {
		return 0, fmt.Errorf("seek before start")
	}
	if newPos > s.buf.Len() {
		return 0, fmt.Errorf("seek past end")
	}
	s.pos = newPos
	return int64(newPos), nil
}
