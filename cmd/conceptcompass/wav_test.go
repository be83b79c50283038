package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/example/concept-compass/internal/audio"
	"github.com/example/concept-compass/internal/testutil"
)

func TestEncodePCM(t *testing.T) {
	pcm := []byte{1, 0, 2, 0, 3, 0}
	f := audio.DefaultPCMFormat()

	wav, err := encodePCM(pcm, f, false)
	if err != nil {
		t.Fatalf("encodePCM: %v", err)
	}
	if got := testutil.AssertCanonicalWAV(t, wav); !bytes.Equal(got, pcm) {
		t.Errorf("payload = %v; want %v", got, pcm)
	}

	uri, err := encodePCM(pcm, f, true)
	if err != nil {
		t.Fatalf("encodePCM(data URI): %v", err)
	}
	if want := audio.DataURI(audio.WAVMimeType, wav) + "\n"; string(uri) != want {
		t.Errorf("data URI = %q; want %q", uri, want)
	}
}

func TestEncodePCM_InvalidFormat(t *testing.T) {
	_, err := encodePCM([]byte{0}, audio.PCMFormat{Channels: 1, SampleRate: 8000, BitDepth: 12}, false)
	if err == nil {
		t.Fatal("expected error for 12-bit format")
	}
}

func TestEncodePCM_EmptyInput(t *testing.T) {
	if _, err := encodePCM(nil, audio.DefaultPCMFormat(), false); err == nil {
		t.Fatal("expected error for empty PCM input")
	}
}

func TestWAVEncodeCmd_File(t *testing.T) {
	in := testutil.WriteFile(t, "in.pcm", make([]byte, 16))
	out := filepath.Join(t.TempDir(), "out.wav")

	_, err := runCLI(t, "", "--provider", "offline",
		"--audio-channels", "2", "--audio-sample-rate", "48000",
		"wav", "encode", "--in", in, "--out", out)
	if err != nil {
		t.Fatalf("wav encode: %v", err)
	}

	wav, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}

	if got := testutil.AssertCanonicalWAV(t, wav); len(got) != 16 {
		t.Errorf("payload length = %d; want 16", len(got))
	}
	testutil.AssertWAVFormat(t, wav, testutil.WAVFormat{Channels: 2, SampleRate: 48000, BitDepth: 16})
}

func TestWAVEncodeCmd_StdinToStdout(t *testing.T) {
	stdout, err := runCLI(t, "\x01\x00\x02\x00", "wav", "encode")
	if err != nil {
		t.Fatalf("wav encode: %v", err)
	}

	payload := testutil.AssertCanonicalWAV(t, []byte(stdout))
	if !bytes.Equal(payload, []byte{1, 0, 2, 0}) {
		t.Errorf("payload = %v; want [1 0 2 0]", payload)
	}
}

func TestWAVEncodeCmd_DataURI(t *testing.T) {
	stdout, err := runCLI(t, "\x00\x00", "wav", "encode", "--data-uri")
	if err != nil {
		t.Fatalf("wav encode: %v", err)
	}

	if !strings.HasPrefix(stdout, "data:audio/wav;base64,UklGR") {
		t.Errorf("stdout = %q; want a WAV data URI", stdout)
	}
}

func TestInspectWAV(t *testing.T) {
	wav, err := audio.EncodeWAV(make([]byte, 48000), audio.DefaultPCMFormat())
	if err != nil {
		t.Fatalf("EncodeWAV: %v", err)
	}

	var buf bytes.Buffer
	if err := inspectWAV(&buf, wav); err != nil {
		t.Fatalf("inspectWAV: %v", err)
	}

	got := buf.String()
	for _, want := range []string{
		"channels:    1",
		"sample_rate: 24000",
		"bit_depth:   16",
		"byte_rate:   48000",
		"block_align: 2",
		"data_bytes:  48000",
		"duration:    1s",
		"aligned:     true",
		"peak:        0.0000",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("inspect output missing %q:\n%s", want, got)
		}
	}
	if strings.Contains(got, "warning") {
		t.Errorf("unexpected warning:\n%s", got)
	}
}

func TestInspectWAV_TruncatedPayload(t *testing.T) {
	wav, err := audio.EncodeWAV(make([]byte, 10), audio.DefaultPCMFormat())
	if err != nil {
		t.Fatalf("EncodeWAV: %v", err)
	}

	var buf bytes.Buffer
	if err := inspectWAV(&buf, wav[:50]); err != nil {
		t.Fatalf("inspectWAV: %v", err)
	}
	if !strings.Contains(buf.String(), "warning: header declares 10 data bytes, file holds 6") {
		t.Errorf("missing size warning:\n%s", buf.String())
	}
}

func TestWAVInspectCmd_InvalidFile(t *testing.T) {
	p := testutil.WriteFile(t, "bad.wav", []byte("not a wav file at all"))

	if _, err := runCLI(t, "", "wav", "inspect", p); err == nil {
		t.Fatal("expected error for invalid WAV")
	}
}
