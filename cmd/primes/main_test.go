package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/kbukum/primesieve/errors"
)

func runCmd(t *testing.T, args ...string) (code int, stdout, stderr string) {
	t.Helper()
	var out, errb bytes.Buffer
	code = run(context.Background(), args, &out, &errb)
	return code, out.String(), errb.String()
}

func primeLines(primes ...int) string {
	var b strings.Builder
	for _, p := range primes {
		b.WriteString("prime ")
		b.WriteString(strconv.Itoa(p))
		b.WriteString("\n")
	}
	return b.String()
}

func TestRun(t *testing.T) {
	first11 := primeLines(2, 3, 5, 7, 11, 13, 17, 19, 23, 29, 31)
	tests := []struct {
		name     string
		args     []string
		wantCode int
		wantOut  string
	}{
		{"default bound", nil, errors.ExitOK, first11},
		{"short flag", []string{"-n", "10"}, errors.ExitOK, primeLines(2, 3, 5, 7)},
		{"long flag", []string{"--bound=2"}, errors.ExitOK, primeLines(2)},
		{"bound one", []string{"--bound", "1"}, errors.ExitOK, ""},
		{"bound zero", []string{"--bound", "0"}, errors.ExitOK, ""},
		{"pipe backend", []string{"--backend", "pipe"}, errors.ExitOK, first11},
		{"buffered", []string{"--buffer", "8", "-n", "35"}, errors.ExitOK, first11},
		{"enough stages", []string{"--max-stages", "12"}, errors.ExitOK, first11},
		{"too few stages", []string{"--max-stages", "3"}, errors.ExitFailure, primeLines(2, 3, 5)},
		{"negative bound", []string{"--bound", "-5"}, errors.ExitOK, ""},
		{"negative bound short flag", []string{"-n=-1"}, errors.ExitOK, ""},
		{"unknown backend", []string{"--backend", "socket"}, errors.ExitUsage, ""},
		{"unknown flag", []string{"--bogus"}, errors.ExitUsage, ""},
		{"positional argument", []string{"35"}, errors.ExitUsage, ""},
		{"help", []string{"--help"}, errors.ExitOK, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, out, stderr := runCmd(t, tt.args...)
			if code != tt.wantCode {
				t.Errorf("exit code = %d, want %d (stderr: %s)", code, tt.wantCode, stderr)
			}
			if out != tt.wantOut {
				t.Errorf("stdout = %q, want %q", out, tt.wantOut)
			}
		})
	}
}

func TestRun_Version(t *testing.T) {
	code, out, _ := runCmd(t, "--version")
	if code != errors.ExitOK || !strings.HasPrefix(out, "primes ") {
		t.Errorf("unexpected version output: code=%d out=%q", code, out)
	}
}

func TestRun_Timeout(t *testing.T) {
	code, _, _ := runCmd(t, "--timeout", "1ms", "-n", "200000")
	if code != errors.ExitFailure {
		t.Errorf("expected failure exit code on timeout, got %d", code)
	}
}

func TestRun_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var out, errb bytes.Buffer
	if code := run(ctx, []string{"-n", "10000"}, &out, &errb); code != errors.ExitCanceled {
		t.Errorf("expected exit code %d, got %d", errors.ExitCanceled, code)
	}
}

func TestRun_ConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	yml := "name: primes\nenvironment: development\nlogging:\n  level: error\nsieve:\n  bound: 10\n  backend: pipe\n"
	if err := os.WriteFile(path, []byte(yml), 0o600); err != nil {
		t.Fatal(err)
	}

	code, out, _ := runCmd(t, "--config", path)
	if code != errors.ExitOK || out != primeLines(2, 3, 5, 7) {
		t.Errorf("config file not applied: code=%d out=%q", code, out)
	}

	// Flags win over the file.
	code, out, _ = runCmd(t, "--config", path, "-n", "5")
	if code != errors.ExitOK || out != primeLines(2, 3, 5) {
		t.Errorf("flag did not override file: code=%d out=%q", code, out)
	}
}

func TestRun_Environment(t *testing.T) {
	t.Setenv("SIEVE_BOUND", "3")
	code, out, _ := runCmd(t)
	if code != errors.ExitOK || out != primeLines(2, 3) {
		t.Errorf("environment not applied: code=%d out=%q", code, out)
	}

	code, out, _ = runCmd(t, "--bound", "7")
	if code != errors.ExitOK || out != primeLines(2, 3, 5, 7) {
		t.Errorf("flag did not override environment: code=%d out=%q", code, out)
	}
}

func TestRun_DebugSummaryOnStderr(t *testing.T) {
	t.Setenv("DEBUG", "true")
	t.Setenv("LOGGING_LEVEL", "debug")
	code, out, stderr := runCmd(t, "-n", "10")
	if code != errors.ExitOK {
		t.Fatalf("exit code %d: %s", code, stderr)
	}
	if out != primeLines(2, 3, 5, 7) {
		t.Errorf("stdout must carry only prime lines, got %q", out)
	}
	for _, want := range []string{"bound: 10", "backend: memory", "witness emitted"} {
		if !strings.Contains(stderr, want) {
			t.Errorf("expected %q on stderr", want)
		}
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
		ok     bool
	}{
		{"defaults", func(c *Config) {}, true},
		{"bad sample rate", func(c *Config) { c.Observability.SampleRate = 2 }, false},
		{"bad backend", func(c *Config) { c.Sieve.Backend = "tcp" }, false},
		{"missing name", func(c *Config) { c.Name = "" }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)
			cfg.ApplyDefaults()
			err := cfg.Validate()
			if (err == nil) != tt.ok {
				t.Fatalf("Validate() = %v, want ok=%v", err, tt.ok)
			}
			if err != nil && errors.ExitCode(err) != errors.ExitUsage {
				t.Errorf("expected usage exit code, got %d", errors.ExitCode(err))
			}
		})
	}
}
