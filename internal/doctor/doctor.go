// Package doctor provides preflight checks for a conceptcompass deployment.
package doctor

import (
	"fmt"
	"io"
	"net"
	"strconv"

	"github.com/example/concept-compass/internal/audio"
)

// PassMark and FailMark are the prefix symbols printed for each check result.
const (
	PassMark = "✓"
	FailMark = "✗"
)

// ProbeFunc exercises a live dependency and returns a short description of
// what it observed.
type ProbeFunc func() (string, error)

// Config holds injectable dependencies for each doctor check.
type Config struct {
	// Provider is the normalized provider name ("gemini" or "offline").
	Provider string
	// APIKeySet reports whether a provider API key was configured.
	APIKeySet bool
	// ListenAddr is the HTTP address the server would bind.
	ListenAddr string
	// PCMFormat is the default raw PCM layout.
	PCMFormat audio.PCMFormat
	// Probe runs a round trip against the provider. Nil skips the check.
	Probe ProbeFunc
}

// Result collects the outcome of all checks.
type Result struct {
	failures []string
}

// Failed returns true if any check failed.
func (r *Result) Failed() bool { return len(r.failures) > 0 }

// Failures returns the list of failure messages.
func (r *Result) Failures() []string { return append([]string(nil), r.failures...) }

// AddFailure appends an external failure message to the result.
func (r *Result) AddFailure(msg string) { r.failures = append(r.failures, msg) }

func (r *Result) fail(msg string) { r.failures = append(r.failures, msg) }

// Run executes all configured checks and writes human-readable output to w.
// Each check line is prefixed with PassMark or FailMark.
func Run(cfg Config, w io.Writer) Result {
	var res Result

	// ---- provider ---------------------------------------------------------
	switch cfg.Provider {
	case "offline":
		fmt.Fprintf(w, "%s provider: offline (no API key needed)\n", PassMark)
	case "gemini":
		if cfg.APIKeySet {
			fmt.Fprintf(w, "%s provider: gemini\n", PassMark)
		} else {
			res.fail("provider gemini: API key is not set")
			fmt.Fprintf(w, "%s provider: gemini (API key is not set)\n", FailMark)
		}
	default:
		res.fail(fmt.Sprintf("provider: unsupported %q", cfg.Provider))
		fmt.Fprintf(w, "%s provider: unsupported %q\n", FailMark, cfg.Provider)
	}

	// ---- listen address ---------------------------------------------------
	if err := checkListenAddr(cfg.ListenAddr); err != nil {
		res.fail(fmt.Sprintf("listen address: %v", err))
		fmt.Fprintf(w, "%s listen address %q: %v\n", FailMark, cfg.ListenAddr, err)
	} else {
		fmt.Fprintf(w, "%s listen address: %s\n", PassMark, cfg.ListenAddr)
	}

	// ---- audio format -----------------------------------------------------
	if err := cfg.PCMFormat.Validate(); err != nil {
		res.fail(fmt.Sprintf("audio format: %v", err))
		fmt.Fprintf(w, "%s audio format: %v\n", FailMark, err)
	} else {
		fmt.Fprintf(w, "%s audio format: %s (%d bytes/s)\n", PassMark, cfg.PCMFormat, cfg.PCMFormat.ByteRate())
	}

	// ---- provider round trip ----------------------------------------------
	if cfg.Probe == nil {
		fmt.Fprintf(w, "%s provider probe: skipped\n", PassMark)
	} else {
		desc, err := cfg.Probe()
		if err != nil {
			res.fail(fmt.Sprintf("provider probe: %v", err))
			fmt.Fprintf(w, "%s provider probe: %v\n", FailMark, err)
		} else {
			fmt.Fprintf(w, "%s provider probe: %s\n", PassMark, desc)
		}
	}

	return res
}

// checkListenAddr returns an error unless addr is host:port with a port in
// [0, 65535]. The host may be empty.
func checkListenAddr(addr string) error {
	if addr == "" {
		return fmt.Errorf("empty address")
	}
	_, port, err := net.SplitHostPort(addr)
	if err != nil {
		return err
	}
	n, err := strconv.Atoi(port)
	if err != nil {
		return fmt.Errorf("bad port %q", port)
	}
	if n < 0 || n > 65535 {
		return fmt.Errorf("port %d out of range", n)
	}
	return nil
}
