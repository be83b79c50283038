package audio

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"strings"
	"sync"
	"testing"
)

func TestEncodeWAV_SpeechDefaults(t *testing.T) {
	pcm := make([]byte, 48000)

	data, err := EncodeWAV(pcm, DefaultPCMFormat())
	if err != nil {
		t.Fatalf("EncodeWAV error: %v", err)
	}

	if len(data) != 48044 {
		t.Fatalf("len = %d; want 48044", len(data))
	}

	if string(data[0:4]) != "RIFF" {
		t.Errorf("RIFF marker = %q; want RIFF", data[0:4])
	}

	if string(data[8:12]) != "WAVE" {
		t.Errorf("WAVE marker = %q; want WAVE", data[8:12])
	}

	if got := binary.LittleEndian.Uint16(data[22:24]); got != 1 {
		t.Errorf("channels = %d; want 1", got)
	}

	if got := binary.LittleEndian.Uint32(data[24:28]); got != 24000 {
		t.Errorf("sample rate = %d; want 24000", got)
	}

	if got := binary.LittleEndian.Uint16(data[34:36]); got != 16 {
		t.Errorf("bits per sample = %d; want 16", got)
	}

	if got := binary.LittleEndian.Uint32(data[40:44]); got != 48000 {
		t.Errorf("data size = %d; want 48000", got)
	}
}

func TestEncodeWAV_StereoFrame(t *testing.T) {
	f := PCMFormat{Channels: 2, SampleRate: 44100, BitDepth: 16}

	data, err := EncodeWAV([]byte{1, 2, 3, 4}, f)
	if err != nil {
		t.Fatalf("EncodeWAV error: %v", err)
	}

	if got := binary.LittleEndian.Uint32(data[28:32]); got != 176400 {
		t.Errorf("byte rate = %d; want 176400", got)
	}

	if got := binary.LittleEndian.Uint16(data[32:34]); got != 4 {
		t.Errorf("block align = %d; want 4", got)
	}
}

func TestEncodeWAV_Markers(t *testing.T) {
	data, err := EncodeWAV([]byte{0, 0}, DefaultPCMFormat())
	if err != nil {
		t.Fatal(err)
	}

	if string(data[12:16]) != "fmt " {
		t.Errorf("fmt marker = %q; want 'fmt '", data[12:16])
	}

	if string(data[36:40]) != "data" {
		t.Errorf("data marker = %q; want data", data[36:40])
	}

	if got := binary.LittleEndian.Uint32(data[16:20]); got != 16 {
		t.Errorf("fmt chunk size = %d; want 16", got)
	}

	if got := binary.LittleEndian.Uint16(data[20:22]); got != 1 {
		t.Errorf("audio format = %d; want 1 (PCM)", got)
	}
}

func TestEncodeWAV_SizeFields(t *testing.T) {
	f := DefaultPCMFormat()

	for _, n := range []int{0, 1, 2, 3, 44, 1000, 4097} {
		pcm := bytes.Repeat([]byte{0xA5}, n)

		data, err := EncodeWAV(pcm, f)
		if err != nil {
			t.Fatalf("n=%d: EncodeWAV error: %v", n, err)
		}

		if len(data) != n+HeaderSize {
			t.Errorf("n=%d: len = %d; want %d", n, len(data), n+HeaderSize)
		}

		if got := binary.LittleEndian.Uint32(data[4:8]); got != uint32(36+n) {
			t.Errorf("n=%d: ChunkSize = %d; want %d", n, got, 36+n)
		}

		if got := binary.LittleEndian.Uint32(data[40:44]); got != uint32(n) {
			t.Errorf("n=%d: Subchunk2Size = %d; want %d", n, got, n)
		}

		if !bytes.Equal(data[HeaderSize:], pcm) {
			t.Errorf("n=%d: payload differs from input", n)
		}
	}
}

func TestEncodeWAV_PayloadVerbatim(t *testing.T) {
	pcm := make([]byte, 512)
	for i := range pcm {
		pcm[i] = byte(i * 7)
	}
	orig := append([]byte(nil), pcm...)

	data, err := EncodeWAV(pcm, PCMFormat{Channels: 2, SampleRate: 8000, BitDepth: 32})
	if err != nil {
		t.Fatal(err)
	}

	if !bytes.Equal(data[HeaderSize:], orig) {
		t.Error("payload was transformed")
	}

	if !bytes.Equal(pcm, orig) {
		t.Error("input buffer was modified")
	}

	// The output must not alias the input.
	data[HeaderSize] ^= 0xFF
	if pcm[0] != orig[0] {
		t.Error("output aliases input buffer")
	}
}

func TestEncodeWAV_MisalignedPassesThrough(t *testing.T) {
	f := PCMFormat{Channels: 2, SampleRate: 16000, BitDepth: 16}
	pcm := []byte{1, 2, 3, 4, 5, 6, 7} // one frame plus 3 stray bytes

	if f.Aligned(len(pcm)) {
		t.Fatal("test buffer should be misaligned")
	}

	data, err := EncodeWAV(pcm, f)
	if err != nil {
		t.Fatalf("EncodeWAV error: %v", err)
	}

	if got := binary.LittleEndian.Uint32(data[40:44]); got != 7 {
		t.Errorf("Subchunk2Size = %d; want 7", got)
	}

	if !bytes.Equal(data[HeaderSize:], pcm) {
		t.Error("partial frame was not passed through")
	}
}

func TestEncodeWAV_Deterministic(t *testing.T) {
	pcm := []byte("some pcm bytes, not really audio")
	f := PCMFormat{Channels: 1, SampleRate: 22050, BitDepth: 8}

	a, err := EncodeWAV(pcm, f)
	if err != nil {
		t.Fatal(err)
	}

	b, err := EncodeWAV(pcm, f)
	if err != nil {
		t.Fatal(err)
	}

	if !bytes.Equal(a, b) {
		t.Error("two encodings of the same input differ")
	}
}

func TestEncodeWAV_Concurrent(t *testing.T) {
	formats := []PCMFormat{
		DefaultPCMFormat(),
		{Channels: 2, SampleRate: 44100, BitDepth: 16},
		{Channels: 1, SampleRate: 16000, BitDepth: 24},
	}

	want := make([][]byte, len(formats))
	pcm := bytes.Repeat([]byte{1, 2, 3, 4, 5, 6}, 100)
	for i, f := range formats {
		w, err := EncodeWAV(pcm, f)
		if err != nil {
			t.Fatal(err)
		}
		want[i] = w
	}

	var wg sync.WaitGroup
	errs := make(chan error, 64)

	for i := range 64 {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			got, err := EncodeWAV(pcm, formats[idx%len(formats)])
			if err != nil {
				errs <- err
				return
			}
			if !bytes.Equal(got, want[idx%len(formats)]) {
				errs <- errors.New("concurrent encoding differs")
			}
		}(i)
	}

	wg.Wait()
	close(errs)

	for err := range errs {
		t.Error(err)
	}
}

func TestEncodeWAV_InvalidFormat(t *testing.T) {
	tests := []struct {
		name string
		f    PCMFormat
	}{
		{"zero channels", PCMFormat{Channels: 0, SampleRate: 24000, BitDepth: 16}},
		{"negative rate", PCMFormat{Channels: 1, SampleRate: -1, BitDepth: 16}},
		{"zero bit depth", PCMFormat{Channels: 1, SampleRate: 24000, BitDepth: 0}},
		{"bit depth not multiple of 8", PCMFormat{Channels: 1, SampleRate: 24000, BitDepth: 12}},
		{"block align overflow", PCMFormat{Channels: 65535, SampleRate: 8000, BitDepth: 16}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := EncodeWAV([]byte{0, 0}, tt.f)
			if !errors.Is(err, ErrInvalidFormat) {
				t.Errorf("err = %v; want ErrInvalidFormat", err)
			}
		})
	}
}

func TestWriteWAVHeader_MatchesEncodeWAV(t *testing.T) {
	pcm := make([]byte, 300)
	f := PCMFormat{Channels: 2, SampleRate: 48000, BitDepth: 24}

	var buf bytes.Buffer
	n, err := WriteWAVHeader(&buf, len(pcm), f)
	if err != nil {
		t.Fatalf("WriteWAVHeader error: %v", err)
	}

	if n != HeaderSize {
		t.Fatalf("wrote %d bytes; want %d", n, HeaderSize)
	}

	full, err := EncodeWAV(pcm, f)
	if err != nil {
		t.Fatal(err)
	}

	if !bytes.Equal(buf.Bytes(), full[:HeaderSize]) {
		t.Error("streamed header differs from EncodeWAV header")
	}
}

func TestWriteWAVHeader_InvalidFormatWritesNothing(t *testing.T) {
	var buf bytes.Buffer

	_, err := WriteWAVHeader(&buf, 10, PCMFormat{})
	if !errors.Is(err, ErrInvalidFormat) {
		t.Fatalf("err = %v; want ErrInvalidFormat", err)
	}

	if buf.Len() != 0 {
		t.Errorf("wrote %d bytes on error; want 0", buf.Len())
	}
}

func TestWriteWAVHeader_NegativeLength(t *testing.T) {
	_, err := WriteWAVHeader(&bytes.Buffer{}, -1, DefaultPCMFormat())
	if !errors.Is(err, ErrDataTooLarge) {
		t.Fatalf("err = %v; want ErrDataTooLarge", err)
	}
}

func TestWAVDataURI(t *testing.T) {
	pcm := []byte{0x10, 0x00, 0xF0, 0xFF}

	uri, err := WAVDataURI(pcm, DefaultPCMFormat())
	if err != nil {
		t.Fatalf("WAVDataURI error: %v", err)
	}

	const prefix = "data:audio/wav;base64,"
	if !strings.HasPrefix(uri, prefix) {
		t.Fatalf("uri %q lacks prefix %q", uri[:min(len(uri), 40)], prefix)
	}

	b64, err := EncodeWAVBase64(pcm, DefaultPCMFormat())
	if err != nil {
		t.Fatal(err)
	}

	if uri != prefix+b64 {
		t.Error("data URI payload differs from EncodeWAVBase64")
	}

	raw, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		t.Fatalf("payload is not std base64: %v", err)
	}

	want, _ := EncodeWAV(pcm, DefaultPCMFormat())
	if !bytes.Equal(raw, want) {
		t.Error("decoded payload differs from EncodeWAV output")
	}
}
