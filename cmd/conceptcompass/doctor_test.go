package main

import (
	"strings"
	"testing"

	"github.com/example/concept-compass/internal/config"
	"github.com/example/concept-compass/internal/doctor"
	"github.com/example/concept-compass/internal/testutil"
)

func TestDoctorCmd_OfflinePasses(t *testing.T) {
	stdout, err := runCLI(t, "", "--provider", "offline", "doctor")
	if err != nil {
		t.Fatalf("doctor: %v\n%s", err, stdout)
	}

	if strings.Contains(stdout, doctor.FailMark) {
		t.Errorf("unexpected failure in output:\n%s", stdout)
	}
	if !strings.Contains(stdout, "provider probe: skipped") {
		t.Errorf("probe should be skipped without --probe:\n%s", stdout)
	}
}

func TestDoctorCmd_OfflineProbe(t *testing.T) {
	stdout, err := runCLI(t, "", "--provider", "offline", "doctor", "--probe")
	if err != nil {
		t.Fatalf("doctor --probe: %v\n%s", err, stdout)
	}

	if !strings.Contains(stdout, doctor.PassMark+" provider probe:") ||
		!strings.Contains(stdout, "of 1ch/24000Hz/16bit in") {
		t.Errorf("probe line missing from output:\n%s", stdout)
	}
}

func TestDoctorCmd_GeminiWithoutKeyFails(t *testing.T) {
	for _, env := range testutil.GeminiKeyEnv {
		t.Setenv(env, "")
	}

	stdout, err := runCLI(t, "", "--provider", "gemini", "doctor")
	if err == nil || !strings.Contains(err.Error(), "1 problem") {
		t.Fatalf("expected one problem, got err=%v\n%s", err, stdout)
	}
	if !strings.Contains(stdout, "API key is not set") {
		t.Errorf("output should explain the missing key:\n%s", stdout)
	}
}

func TestDoctorConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.GenAI.Provider = " Offline "
	cfg.GenAI.APIKey = ""

	got := doctorConfig(cfg)
	if got.Provider != config.ProviderOffline {
		t.Errorf("Provider = %q; want %q", got.Provider, config.ProviderOffline)
	}
	if got.APIKeySet {
		t.Error("APIKeySet = true; want false")
	}
	if got.ListenAddr != cfg.Server.ListenAddr {
		t.Errorf("ListenAddr = %q; want %q", got.ListenAddr, cfg.Server.ListenAddr)
	}

	cfg.GenAI.Provider = "Acme"
	if got := doctorConfig(cfg); got.Provider != "acme" {
		t.Errorf("Provider = %q; want acme", got.Provider)
	}
}
