// Package logging provides categorized file-based logging for specforge.
// Each pipeline subsystem logs to its own file under <workspace>/.forge/logs/
// so a failing run can be diagnosed without grepping one giant log.
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Category identifies a pipeline subsystem.
type Category string

const (
	CategoryParser       Category = "parser"       // Spec/NL parsing
	CategorySynth        Category = "synth"        // Template selection and emission
	CategoryExecutor     Category = "executor"     // Test execution
	CategoryCorpus       Category = "corpus"       // Corpus store operations
	CategoryBias         Category = "bias"         // Bias weight updates
	CategoryOrchestrator Category = "orchestrator" // Watch loop and state machine
	CategoryReport       Category = "report"       // Reporting service
	CategoryNotify       Category = "notify"       // Git/webhook notifications
)

var (
	mu       sync.RWMutex
	loggers  map[Category]*zap.SugaredLogger
	logsDir  string
	level    zapcore.Level
	fallback = zap.NewNop().Sugar()
)

// Initialize sets up per-category file loggers under ws/.forge/logs.
// Must be called once at startup; before Initialize, all loggers are no-ops.
func Initialize(ws string, debug bool) error {
	if ws == "" {
		return fmt.Errorf("workspace path required")
	}

	mu.Lock()
	defer mu.Unlock()

	logsDir = filepath.Join(ws, ".forge", "logs")
	if err := os.MkdirAll(logsDir, 0755); err != nil {
		return fmt.Errorf("failed to create logs directory: %w", err)
	}

	level = zapcore.InfoLevel
	if debug {
		level = zapcore.DebugLevel
	}
	loggers = make(map[Category]*zap.SugaredLogger)
	return nil
}

// Get returns the logger for a category, creating it on first use.
func Get(cat Category) *zap.SugaredLogger {
	mu.RLock()
	if loggers == nil {
		mu.RUnlock()
		return fallback
	}
	if lg, ok := loggers[cat]; ok {
		mu.RUnlock()
		return lg
	}
	mu.RUnlock()

	mu.Lock()
	defer mu.Unlock()
	if lg, ok := loggers[cat]; ok {
		return lg
	}

	path := filepath.Join(logsDir, string(cat)+".log")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		// Category file could not be opened; stay silent rather than crash.
		loggers[cat] = fallback
		return fallback
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.AddSync(f), level)
	lg := zap.New(core).Named(string(cat)).Sugar()
	loggers[cat] = lg
	return lg
}

// Sync flushes all category loggers. Safe to call at shutdown.
func Sync() {
	mu.RLock()
	defer mu.RUnlock()
	for _, lg := range loggers {
		_ = lg.Sync()
	}
}

// Reset tears down all loggers. Intended for tests.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	for _, lg := range loggers {
		_ = lg.Sync()
	}
	loggers = nil
	logsDir = ""
}

// Convenience wrappers for the chattiest categories.

func Orchestrator(format string, args ...interface{}) {
	Get(CategoryOrchestrator).Infof(format, args...)
}

func OrchestratorDebug(format string, args ...interface{}) {
	Get(CategoryOrchestrator).Debugf(format, args...)
}

func Synth(format string, args ...interface{}) {
	Get(CategorySynth).Infof(format, args...)
}

func SynthDebug(format string, args ...interface{}) {
	Get(CategorySynth).Debugf(format, args...)
}

func Executor(format string, args ...interface{}) {
	Get(CategoryExecutor).Infof(format, args...)
}

func Corpus(format string, args ...interface{}) {
	Get(CategoryCorpus).Infof(format, args...)
}

func CorpusDebug(format string, args ...interface{}) {
	Get(CategoryCorpus).Debugf(format, args...)
}

func Bias(format string, args ...interface{}) {
	Get(CategoryBias).Infof(format, args...)
}

func Parser(format string, args ...interface{}) {
	Get(CategoryParser).Infof(format, args...)
}

func Report(format string, args ...interface{}) {
	Get(CategoryReport).Infof(format, args...)
}

func ParserDebug(format string, args ...interface{}) {
	Get(CategoryParser).Debugf(format, args...)
}
