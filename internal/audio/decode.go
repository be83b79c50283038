package audio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/cwbudde/wav"
)

// ErrInvalidWAV is returned when bytes do not start with a canonical WAV header.
var ErrInvalidWAV = errors.New("invalid WAV data")

// Header holds the fields of a canonical 44-byte WAV header.
type Header struct {
	ChunkSize     uint32
	AudioFormat   uint16
	Channels      uint16
	SampleRate    uint32
	ByteRate      uint32
	BlockAlign    uint16
	BitsPerSample uint16
	DataSize      uint32
}

// Format returns the PCM format declared by the header.
func (h Header) Format() PCMFormat {
	return PCMFormat{
		Channels:   int(h.Channels),
		SampleRate: int(h.SampleRate),
		BitDepth:   int(h.BitsPerSample),
	}
}

// ReadHeader parses the canonical header written by EncodeWAV. It does not
// walk optional chunks; use DecodeWAV for arbitrary WAV files.
func ReadHeader(data []byte) (Header, error) {
	if len(data) < HeaderSize {
		return Header{}, fmt.Errorf("%w: %d bytes is shorter than the %d-byte header", ErrInvalidWAV, len(data), HeaderSize)
	}

	for _, tag := range []struct {
		off  int
		want string
	}{{0, "RIFF"}, {8, "WAVE"}, {12, "fmt "}, {36, "data"}} {
		if got := string(data[tag.off : tag.off+4]); got != tag.want {
			return Header{}, fmt.Errorf("%w: tag at offset %d is %q, want %q", ErrInvalidWAV, tag.off, got, tag.want)
		}
	}

	le := binary.LittleEndian

	return Header{
		ChunkSize:     le.Uint32(data[4:8]),
		AudioFormat:   le.Uint16(data[20:22]),
		Channels:      le.Uint16(data[22:24]),
		SampleRate:    le.Uint32(data[24:28]),
		ByteRate:      le.Uint32(data[28:32]),
		BlockAlign:    le.Uint16(data[32:34]),
		BitsPerSample: le.Uint16(data[34:36]),
		DataSize:      le.Uint32(data[40:44]),
	}, nil
}

// Decoded is a WAV file read back through a general-purpose decoder.
type Decoded struct {
	Format  PCMFormat
	Samples []float32 // interleaved, normalized to [-1, 1]
}

// Frames returns the number of complete frames in d.
func (d Decoded) Frames() int {
	if d.Format.Channels < 1 {
		return 0
	}

	return len(d.Samples) / d.Format.Channels
}

// DecodeWAV reads any PCM WAV file with the cwbudde/wav decoder.
func DecodeWAV(data []byte) (Decoded, error) {
	if len(data) == 0 {
		return Decoded{}, fmt.Errorf("%w: empty input", ErrInvalidWAV)
	}

	dec := wav.NewDecoder(bytes.NewReader(data))
	if !dec.IsValidFile() {
		return Decoded{}, ErrInvalidWAV
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return Decoded{}, fmt.Errorf("reading PCM data: %w", err)
	}

	return Decoded{
		Format: PCMFormat{
			Channels:   int(dec.NumChans),
			SampleRate: int(dec.SampleRate),
			BitDepth:   int(dec.BitDepth),
		},
		Samples: buf.Data,
	}, nil
}
