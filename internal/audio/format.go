package audio

import (
	"errors"
	"fmt"
	"math"
)

// Default PCM format produced by the speech service.
const (
	DefaultSampleRate = 24000
	DefaultChannels   = 1
	DefaultBitDepth   = 16
)

// ErrInvalidFormat is returned when PCM format parameters cannot be
// represented in a canonical WAV header.
var ErrInvalidFormat = errors.New("invalid PCM format")

// PCMFormat describes interleaved, signed, little-endian linear PCM.
type PCMFormat struct {
	Channels   int `json:"channels"`
	SampleRate int `json:"sample_rate"`
	BitDepth   int `json:"bit_depth"`
}

// DefaultPCMFormat returns 24 kHz mono 16-bit PCM.
func DefaultPCMFormat() PCMFormat {
	return PCMFormat{
		Channels:   DefaultChannels,
		SampleRate: DefaultSampleRate,
		BitDepth:   DefaultBitDepth,
	}
}

func (f PCMFormat) BytesPerSample() int { return f.BitDepth / 8 }

// BlockAlign is the frame size in bytes: one sample for every channel.
func (f PCMFormat) BlockAlign() int { return f.Channels * f.BitDepth / 8 }

func (f PCMFormat) ByteRate() int { return f.SampleRate * f.BlockAlign() }

// Validate checks that every header field derived from f fits its width.
func (f PCMFormat) Validate() error {
	switch {
	case f.Channels < 1:
		return fmt.Errorf("%w: channels %d", ErrInvalidFormat, f.Channels)
	case f.SampleRate < 1:
		return fmt.Errorf("%w: sample rate %d", ErrInvalidFormat, f.SampleRate)
	case f.BitDepth < 8 || f.BitDepth%8 != 0:
		return fmt.Errorf("%w: bit depth %d is not a positive multiple of 8", ErrInvalidFormat, f.BitDepth)
	case f.Channels > math.MaxUint16 || f.BitDepth > math.MaxUint16 || f.BlockAlign() > math.MaxUint16:
		return fmt.Errorf("%w: channels %d x bit depth %d overflows the fmt chunk", ErrInvalidFormat, f.Channels, f.BitDepth)
	case uint64(f.SampleRate)*uint64(f.BlockAlign()) > math.MaxUint32:
		return fmt.Errorf("%w: byte rate overflows 32 bits", ErrInvalidFormat)
	}

	return nil
}

// Aligned reports whether n bytes hold a whole number of frames.
func (f PCMFormat) Aligned(n int) bool {
	ba := f.BlockAlign()
	if ba <= 0 {
		return false
	}

	return n%ba == 0
}

func (f PCMFormat) String() string {
	return fmt.Sprintf("%dch/%dHz/%dbit", f.Channels, f.SampleRate, f.BitDepth)
}
