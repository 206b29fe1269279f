package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLevels(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(os.Stderr)

	Debug("hidden %d", 1)
	Info("shown %s", "info")
	Warn("careful")
	Error("broken")

	out := buf.String()
	if strings.Contains(out, "hidden 1") {
		t.Error("debug should be suppressed at default level")
	}
	for _, want := range []string{"shown info", "level=warning", "level=error"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestSetVerbose(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	SetVerbose(true)
	defer func() {
		SetVerbose(false)
		SetOutput(os.Stderr)
	}()

	Debug("probe %s", "strategy")
	if !strings.Contains(buf.String(), "probe strategy") {
		t.Errorf("debug not logged in verbose mode: %s", buf.String())
	}
}

func TestWithFields(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(os.Stderr)

	With(map[string]interface{}{"page": "login"}).Info("clicked")
	if !strings.Contains(buf.String(), "page=login") {
		t.Errorf("fields missing: %s", buf.String())
	}
}

func TestInitWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.log")
	if err := Init(path); err != nil {
		t.Fatalf("Init: %v", err)
	}
	Info("to file")
	Close()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "to file") {
		t.Errorf("log file content = %q", data)
	}
}

func TestInitBadPath(t *testing.T) {
	if err := Init(filepath.Join(t.TempDir(), "missing", "run.log")); err == nil {
		t.Error("expected error for missing directory")
	}
}
