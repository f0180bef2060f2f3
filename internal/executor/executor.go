// Package executor runs a synthesized run directory's tests in isolation and
// reports a tagged verdict. Failures of the generated code never surface as
// Go errors: a bad run is a Result, not a crash of the pipeline.
package executor

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"specforge/internal/logging"
	"specforge/internal/synth"
)

// Verdict values.
const (
	StatusPass = "pass"
	StatusFail = "fail"
)

// ErrorKind values for failed runs. Empty for plain assertion failures.
const (
	KindTimeout = "timeout"
	KindCrash   = "crash"
)

// Result is the outcome of executing one run directory.
type Result struct {
	Status    string        `json:"status"`
	ErrorKind string        `json:"error_kind,omitempty"`
	Stdout    string        `json:"stdout,omitempty"`
	Stderr    string        `json:"stderr,omitempty"`
	Duration  time.Duration `json:"duration"`
}

// Passed reports whether the run's tests all succeeded.
func (r Result) Passed() bool { return r.Status == StatusPass }

// Runner executes one language's artifacts.
type Runner interface {
	Run(ctx context.Context, sourcePath, testPath, operation string) Result
}

// Executor dispatches a run directory to the runner for its language.
type Executor struct {
	timeout time.Duration
	runners map[string]Runner
}

// Options configures an Executor.
type Options struct {
	Timeout      time.Duration // per-run wall clock budget
	PythonBinary string        // defaults to python3
}

// DefaultTimeout bounds a single test execution.
const DefaultTimeout = 30 * time.Second

// New builds an executor with runners for every supported language.
func New(opts Options) *Executor {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.PythonBinary == "" {
		opts.PythonBinary = "python3"
	}
	return &Executor{
		timeout: opts.Timeout,
		runners: map[string]Runner{
			synth.LangPython: &SubprocessRunner{Binary: opts.PythonBinary},
			synth.LangGo:     &YaegiRunner{},
		},
	}
}

// Execute reads the run directory's manifest and runs its tests. Problems
// with the run itself (missing manifest, unknown language, broken artifacts)
// come back as a failed Result with kind crash; Execute never returns an
// error and never panics.
func (e *Executor) Execute(ctx context.Context, runDir string) Result {
	start := time.Now()

	manifest, err := synth.ReadManifest(runDir)
	if err != nil {
		return Result{
			Status:    StatusFail,
			ErrorKind: KindCrash,
			Stderr:    fmt.Sprintf("unreadable run directory: %v", err),
			Duration:  time.Since(start),
		}
	}

	runner, ok := e.runners[manifest.Language]
	if !ok {
		return Result{
			Status:    StatusFail,
			ErrorKind: KindCrash,
			Stderr:    fmt.Sprintf("no runner for language %q", manifest.Language),
			Duration:  time.Since(start),
		}
	}

	sourcePath, testPath := artifactPaths(runDir, manifest)

	runCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	res := runner.Run(runCtx, sourcePath, testPath, manifest.Operation)
	logging.Executor("executed %s (%s): %s %s in %v",
		manifest.Operation, manifest.Language, res.Status, res.ErrorKind, res.Duration)
	return res
}

// artifactPaths derives the source and test file locations the synthesizer
// used for this manifest.
func artifactPaths(runDir string, m synth.Manifest) (sourcePath, testPath string) {
	switch m.Language {
	case synth.LangGo:
		sourcePath = filepath.Join(runDir, "src", m.Operation+".go")
		testPath = filepath.Join(runDir, "tests", m.Operation+"_test.go")
	default:
		sourcePath = filepath.Join(runDir, "src", m.Operation+".py")
		testPath = filepath.Join(runDir, "tests", "test_"+m.Operation+".py")
	}
	return sourcePath, testPath
}
