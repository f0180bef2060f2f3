package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestGetBeforeInitializeIsNoop(t *testing.T) {
	Reset()
	lg := Get(CategorySynth)
	if lg == nil {
		t.Fatal("Get returned nil before Initialize")
	}
	// Must not panic or write anywhere.
	lg.Infof("dropped message %d", 42)
}

func TestInitializeCreatesLogsDir(t *testing.T) {
	ws := t.TempDir()
	if err := Initialize(ws, false); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	defer Reset()

	info, err := os.Stat(filepath.Join(ws, ".forge", "logs"))
	if err != nil {
		t.Fatalf("logs dir not created: %v", err)
	}
	if !info.IsDir() {
		t.Error("logs path is not a directory")
	}
}

func TestInitializeRequiresWorkspace(t *testing.T) {
	if err := Initialize("", false); err == nil {
		t.Error("expected error for empty workspace")
	}
}

func TestCategoryWritesToOwnFile(t *testing.T) {
	ws := t.TempDir()
	if err := Initialize(ws, true); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	defer Reset()

	Orchestrator("processing %s", "specs/demo.md")
	Corpus("upserted entry %s", "abc123")
	Sync()

	orch, err := os.ReadFile(filepath.Join(ws, ".forge", "logs", "orchestrator.log"))
	if err != nil {
		t.Fatalf("read orchestrator.log: %v", err)
	}
	if !strings.Contains(string(orch), "specs/demo.md") {
		t.Errorf("orchestrator.log missing message, got: %s", orch)
	}

	corp, err := os.ReadFile(filepath.Join(ws, ".forge", "logs", "corpus.log"))
	if err != nil {
		t.Fatalf("read corpus.log: %v", err)
	}
	if strings.Contains(string(corp), "specs/demo.md") {
		t.Error("corpus.log contains orchestrator message")
	}
}

func TestDebugSuppressedAtInfoLevel(t *testing.T) {
	ws := t.TempDir()
	if err := Initialize(ws, false); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	defer Reset()

	SynthDebug("hidden detail")
	Synth("visible line")
	Sync()

	data, err := os.ReadFile(filepath.Join(ws, ".forge", "logs", "synth.log"))
	if err != nil {
		t.Fatalf("read synth.log: %v", err)
	}
	if strings.Contains(string(data), "hidden detail") {
		t.Error("debug message written at info level")
	}
	if !strings.Contains(string(data), "visible line") {
		t.Error("info message missing")
	}
}
