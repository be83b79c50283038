package audio

import (
	"errors"
	"math"
	"testing"
	"time"
)

func TestReadHeader_RecoversFields(t *testing.T) {
	formats := []PCMFormat{
		DefaultPCMFormat(),
		{Channels: 2, SampleRate: 44100, BitDepth: 16},
		{Channels: 6, SampleRate: 48000, BitDepth: 24},
		{Channels: 1, SampleRate: 8000, BitDepth: 8},
	}

	for _, f := range formats {
		t.Run(f.String(), func(t *testing.T) {
			pcm := make([]byte, f.BlockAlign()*10)

			data, err := EncodeWAV(pcm, f)
			if err != nil {
				t.Fatal(err)
			}

			h, err := ReadHeader(data)
			if err != nil {
				t.Fatalf("ReadHeader error: %v", err)
			}

			if h.Format() != f {
				t.Errorf("Format() = %v; want %v", h.Format(), f)
			}

			if h.AudioFormat != 1 {
				t.Errorf("AudioFormat = %d; want 1", h.AudioFormat)
			}

			if int(h.ByteRate) != f.ByteRate() || int(h.BlockAlign) != f.BlockAlign() {
				t.Errorf("ByteRate/BlockAlign = %d/%d; want %d/%d", h.ByteRate, h.BlockAlign, f.ByteRate(), f.BlockAlign())
			}

			if int(h.DataSize) != len(pcm) || int(h.ChunkSize) != 36+len(pcm) {
				t.Errorf("sizes = %d/%d; want %d/%d", h.ChunkSize, h.DataSize, 36+len(pcm), len(pcm))
			}
		})
	}
}

func TestReadHeader_Rejects(t *testing.T) {
	valid, err := EncodeWAV([]byte{0, 0}, DefaultPCMFormat())
	if err != nil {
		t.Fatal(err)
	}

	corrupt := func(off int) []byte {
		b := append([]byte(nil), valid...)
		b[off] = 'X'
		return b
	}

	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"short", valid[:43]},
		{"bad RIFF", corrupt(0)},
		{"bad WAVE", corrupt(8)},
		{"bad fmt", corrupt(12)},
		{"bad data", corrupt(36)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadHeader(tt.data)
			if !errors.Is(err, ErrInvalidWAV) {
				t.Errorf("err = %v; want ErrInvalidWAV", err)
			}
		})
	}
}

func TestDecodeWAV_StandardReaderRecoversFormat(t *testing.T) {
	formats := []PCMFormat{
		DefaultPCMFormat(),
		{Channels: 2, SampleRate: 44100, BitDepth: 16},
		{Channels: 1, SampleRate: 16000, BitDepth: 24},
		{Channels: 2, SampleRate: 48000, BitDepth: 32},
	}

	for _, f := range formats {
		t.Run(f.String(), func(t *testing.T) {
			pcm := make([]byte, f.BlockAlign()*32)

			data, err := EncodeWAV(pcm, f)
			if err != nil {
				t.Fatal(err)
			}

			dec, err := DecodeWAV(data)
			if err != nil {
				t.Fatalf("DecodeWAV error: %v", err)
			}

			if dec.Format != f {
				t.Errorf("decoded format = %v; want %v", dec.Format, f)
			}

			if dec.Frames() != 32 {
				t.Errorf("frames = %d; want 32", dec.Frames())
			}
		})
	}
}

func TestDecodeWAV_SampleRoundtrip(t *testing.T) {
	f := DefaultPCMFormat()
	original := []float32{0.0, 0.5, -0.5, 1.0, -1.0, 0.25}

	pcm, err := QuantizePCM(original, f)
	if err != nil {
		t.Fatal(err)
	}

	data, err := EncodeWAV(pcm, f)
	if err != nil {
		t.Fatal(err)
	}

	dec, err := DecodeWAV(data)
	if err != nil {
		t.Fatalf("DecodeWAV error: %v", err)
	}

	if len(dec.Samples) != len(original) {
		t.Fatalf("got %d samples, want %d", len(dec.Samples), len(original))
	}

	// 16-bit quantization introduces error up to ~1/32768.
	const tolerance = 1.0 / 32768.0 * 2
	for i, want := range original {
		if math.Abs(float64(dec.Samples[i]-want)) > tolerance {
			t.Errorf("sample[%d] = %f, want %f", i, dec.Samples[i], want)
		}
	}
}

func TestDecodeWAV_Rejects(t *testing.T) {
	if _, err := DecodeWAV(nil); !errors.Is(err, ErrInvalidWAV) {
		t.Errorf("nil input: err = %v; want ErrInvalidWAV", err)
	}

	if _, err := DecodeWAV([]byte("not a wav file at all")); err == nil {
		t.Error("expected error for invalid WAV")
	}
}

func TestDecodeWAV_EncodeSamplesCrossCheck(t *testing.T) {
	f := DefaultPCMFormat()
	samples := Tone(f, 440, 50*time.Millisecond, 0.5)

	ref, err := EncodeSamples(samples, f)
	if err != nil {
		t.Fatalf("EncodeSamples error: %v", err)
	}

	pcm, err := QuantizePCM(samples, f)
	if err != nil {
		t.Fatal(err)
	}

	ours, err := EncodeWAV(pcm, f)
	if err != nil {
		t.Fatal(err)
	}

	a, err := DecodeWAV(ref)
	if err != nil {
		t.Fatalf("decode reference: %v", err)
	}

	b, err := DecodeWAV(ours)
	if err != nil {
		t.Fatalf("decode ours: %v", err)
	}

	if a.Format != b.Format {
		t.Errorf("formats differ: reference %v, ours %v", a.Format, b.Format)
	}

	if len(a.Samples) != len(b.Samples) {
		t.Fatalf("sample counts differ: reference %d, ours %d", len(a.Samples), len(b.Samples))
	}

	const tolerance = 2.0 / 32768.0 * 2
	for i := range a.Samples {
		if math.Abs(float64(a.Samples[i]-b.Samples[i])) > tolerance {
			t.Fatalf("sample[%d]: reference %f, ours %f", i, a.Samples[i], b.Samples[i])
		}
	}
}
