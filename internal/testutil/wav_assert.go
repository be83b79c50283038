package testutil

import (
	"encoding/binary"
	"errors"
	"testing"
)

// WAVFormat is the fmt chunk content checked by AssertWAVFormat.
type WAVFormat struct {
	Channels   int
	SampleRate int
	BitDepth   int
}

// AssertCanonicalWAV checks that data is a 44-byte-header PCM WAV file whose
// size fields agree with len(data): ChunkSize is len-8 and Subchunk2Size is
// len-44. It returns the PCM payload.
func AssertCanonicalWAV(tb testing.TB, data []byte) []byte {
	tb.Helper()

	if len(data) < 44 {
		tb.Fatalf("WAV data too short: %d bytes", len(data))
	}

	if string(data[0:4]) != "RIFF" {
		tb.Fatalf("WAV: missing RIFF header (got %q)", string(data[0:4]))
	}

	if string(data[8:12]) != "WAVE" {
		tb.Fatalf("WAV: missing WAVE marker (got %q)", string(data[8:12]))
	}

	if string(data[12:16]) != "fmt " {
		tb.Fatalf("WAV: missing fmt chunk (got %q)", string(data[12:16]))
	}

	if size := binary.LittleEndian.Uint32(data[16:20]); size != 16 {
		tb.Fatalf("WAV: fmt chunk size %d, want 16", size)
	}

	if audioFmt := binary.LittleEndian.Uint16(data[20:22]); audioFmt != 1 {
		tb.Fatalf("WAV: expected PCM format (1), got %d", audioFmt)
	}

	if string(data[36:40]) != "data" {
		tb.Fatalf("WAV: data chunk not at offset 36 (got %q)", string(data[36:40]))
	}

	if got, want := binary.LittleEndian.Uint32(data[4:8]), uint32(len(data)-8); got != want {
		tb.Fatalf("WAV: ChunkSize %d, want %d", got, want)
	}

	if got, want := binary.LittleEndian.Uint32(data[40:44]), uint32(len(data)-44); got != want {
		tb.Fatalf("WAV: Subchunk2Size %d, want %d", got, want)
	}

	return data[44:]
}

// AssertWAVFormat checks the fmt chunk against want, including the derived
// ByteRate and BlockAlign fields.
func AssertWAVFormat(tb testing.TB, data []byte, want WAVFormat) {
	tb.Helper()

	if len(data) < 44 {
		tb.Fatalf("WAV data too short: %d bytes", len(data))
	}

	// fmt chunk fields (little-endian).
	channels := int(binary.LittleEndian.Uint16(data[22:24]))
	if channels != want.Channels {
		tb.Fatalf("WAV: expected %d channel(s), got %d", want.Channels, channels)
	}

	sampleRate := int(binary.LittleEndian.Uint32(data[24:28]))
	if sampleRate != want.SampleRate {
		tb.Fatalf("WAV: expected sample rate %d, got %d", want.SampleRate, sampleRate)
	}

	bitDepth := int(binary.LittleEndian.Uint16(data[34:36]))
	if bitDepth != want.BitDepth {
		tb.Fatalf("WAV: expected %d-bit depth, got %d", want.BitDepth, bitDepth)
	}

	blockAlign := want.Channels * want.BitDepth / 8
	if got := int(binary.LittleEndian.Uint16(data[32:34])); got != blockAlign {
		tb.Fatalf("WAV: BlockAlign %d, want %d", got, blockAlign)
	}

	if got := int(binary.LittleEndian.Uint32(data[28:32])); got != want.SampleRate*blockAlign {
		tb.Fatalf("WAV: ByteRate %d, want %d", got, want.SampleRate*blockAlign)
	}
}

// AssertWAVDurationApprox asserts that the WAV audio duration falls within
// [minSec, maxSec]. It divides the data chunk size by the header's byte rate.
func AssertWAVDurationApprox(tb testing.TB, data []byte, minSec, maxSec float64) {
	tb.Helper()

	if len(data) < 44 {
		tb.Fatalf("WAV data too short: %d bytes", len(data))
	}

	dataSize, err := findDataChunkSize(data)
	if err != nil {
		tb.Fatalf("WAV duration check: %v", err)
	}

	byteRate := binary.LittleEndian.Uint32(data[28:32])
	if byteRate == 0 {
		tb.Fatal("WAV duration check: zero byte rate")
	}

	durationSec := float64(dataSize) / float64(byteRate)
	if durationSec < minSec || durationSec > maxSec {
		tb.Fatalf("WAV duration %.3fs out of expected range [%.3fs, %.3fs]", durationSec, minSec, maxSec)
	}
}

// findDataChunkSize walks the WAV chunk list to locate the "data" sub-chunk
// and returns its size in bytes.
func findDataChunkSize(data []byte) (uint32, error) {
	// Start after the 12-byte RIFF/WAVE header.
	offset := 12
	for offset+8 <= len(data) {
		id := string(data[offset : offset+4])

		size := binary.LittleEndian.Uint32(data[offset+4 : offset+8])
		if id == "data" {
			return size, nil
		}

		offset += 8 + int(size)
		// Pad to even boundary.
		if size%2 != 0 {
			offset++
		}
	}

	return 0, errors.New("data chunk not found in WAV")
}
