package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func paperConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	body := `
exchange:
  venue: paper
  paper:
    initial_margin: "1000"
    leverage: 10
    mark_prices:
      BTCUSDT: "60000"
log:
  level: ERROR
  file: ` + filepath.Join(dir, "bot.log") + `
audit:
  sinks: [file]
  file:
    path: ` + filepath.Join(dir, "audit.jsonl") + `
`
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestRunBadInputExitsTwo(t *testing.T) {
	cases := [][]string{
		{"--symbol", "BTCUSDT", "--side", "HOLD", "--type", "MARKET", "--quantity", "1"},
		{"--symbol", "BTCUSDT", "--side", "BUY", "--type", "STOP", "--quantity", "1"},
		{"--symbol", "BTCUSDT", "--side", "BUY", "--type", "MARKET", "--quantity", "lots"},
		{"--symbol", "BTCUSDT", "--side", "BUY"},
		{"--unknown-flag"},
	}
	for _, args := range cases {
		var out, errOut bytes.Buffer
		if code := run(args, &out, &errOut); code != exitBadInput {
			t.Errorf("run(%v) = %d, want %d", args, code, exitBadInput)
		}
	}
}

func TestRunPreflightRejectionExitsOne(t *testing.T) {
	var out, errOut bytes.Buffer
	code := run([]string{"--symbol", "BTCUSDT", "--side", "SELL", "--type", "LIMIT", "--quantity", "0.01"}, &out, &errOut)
	if code != exitFailure {
		t.Errorf("exit code = %d, want %d", code, exitFailure)
	}
	if !strings.Contains(out.String(), "missing price for LIMIT order") {
		t.Errorf("unexpected output %q", out.String())
	}
}

func TestRunPaperOrderPlaced(t *testing.T) {
	var out, errOut bytes.Buffer
	cfg := paperConfig(t)
	code := run([]string{"--config-file", cfg, "--symbol", "btcusdt", "--side", "buy", "--type", "market", "--quantity", "0.01"}, &out, &errOut)
	if code != exitOK {
		t.Fatalf("exit code = %d, stderr %q", code, errOut.String())
	}
	if !strings.Contains(out.String(), "Order placed successfully") {
		t.Errorf("unexpected output %q", out.String())
	}

	audit, err := os.ReadFile(filepath.Join(filepath.Dir(cfg), "audit.jsonl"))
	if err != nil {
		t.Fatalf("read audit log: %v", err)
	}
	if n := strings.Count(string(audit), "\n"); n != 1 {
		t.Errorf("expected one audit line, got %d", n)
	}
}

func TestRunBusinessRejectionExitCode(t *testing.T) {
	cfg := paperConfig(t)
	args := []string{"--config-file", cfg, "--symbol", "BTCUSDT", "--side", "BUY", "--type", "MARKET", "--quantity", "5"}

	var out, errOut bytes.Buffer
	if code := run(args, &out, &errOut); code != exitOK {
		t.Errorf("exit code = %d, want %d without --strict-exit", code, exitOK)
	}
	if !strings.Contains(out.String(), "Exchange API error") {
		t.Errorf("unexpected output %q", out.String())
	}

	out.Reset()
	if code := run(append(args, "--strict-exit"), &out, &errOut); code != exitFailure {
		t.Errorf("exit code = %d, want %d with --strict-exit", code, exitFailure)
	}
}
