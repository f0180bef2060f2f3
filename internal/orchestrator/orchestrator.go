package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"specforge/internal/bias"
	"specforge/internal/config"
	"specforge/internal/corpus"
	"specforge/internal/executor"
	"specforge/internal/intent"
	"specforge/internal/logging"
	"specforge/internal/synth"
)

// State is the orchestrator's coarse position in its loop. States are
// observable for the reporting layer; transitions are logged.
type State string

const (
	StateIdle         State = "idle"
	StateScanning     State = "scanning"
	StateSynthesizing State = "synthesizing"
	StateTesting      State = "testing"
	StateRecording    State = "recording"
	StateNotifying    State = "notifying"
)

// Executor runs the tests of a synthesized run directory. Satisfied by
// executor.Executor; an interface so tests can substitute outcomes.
type Executor interface {
	Execute(ctx context.Context, runDir string) executor.Result
}

// Deps are the orchestrator's collaborators, injected rather than reached
// for globally so tests can swap any of them.
type Deps struct {
	Parser      *intent.Parser
	Synthesizer *synth.Synthesizer
	Executor    Executor
	Corpus      *corpus.Store
	Bias        *bias.Adapter
	Detector    ChangeDetector
	RunLog      *RunLog
	Notifiers   []Notifier

	// Publish, when set, receives every completed run record. The reporting
	// service hooks its live channel here.
	Publish func(RunRecord)
}

// Orchestrator drives the pipeline: detect changed specs, synthesize, test,
// record, notify.
type Orchestrator struct {
	cfg  *config.Config
	deps Deps
	sem  *semaphore.Weighted

	mu    sync.Mutex
	state State

	specLocks sync.Map // spec path -> *sync.Mutex
}

// New wires an orchestrator. Concurrency below 1 is treated as 1.
func New(cfg *config.Config, deps Deps) *Orchestrator {
	n := int64(cfg.Orchestrator.Concurrency)
	if n < 1 {
		n = 1
	}
	return &Orchestrator{
		cfg:   cfg,
		deps:  deps,
		sem:   semaphore.NewWeighted(n),
		state: StateIdle,
	}
}

// State returns the current loop state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

func (o *Orchestrator) setState(s State) {
	o.mu.Lock()
	o.state = s
	o.mu.Unlock()
	logging.OrchestratorDebug("state -> %s", s)
}

// Run loops until the context is cancelled: scan, process, sleep. A missing
// spec directory is the only fatal startup condition.
func (o *Orchestrator) Run(ctx context.Context) error {
	if _, err := os.Stat(o.cfg.Orchestrator.SpecDir); err != nil {
		return fmt.Errorf("spec directory unavailable: %w", err)
	}

	interval := o.cfg.Orchestrator.PollInterval
	if interval <= 0 {
		interval = 300 * time.Second
	}
	// Notify detectors only need the ticker to flush debounced events.
	if _, ok := o.deps.Detector.(*NotifyDetector); ok && interval > time.Second {
		interval = time.Second
	}

	logging.Orchestrator("watching %s every %v", o.cfg.Orchestrator.SpecDir, interval)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if n, err := o.ScanOnce(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logging.Orchestrator("scan failed: %v", err)
		} else if n > 0 {
			logging.Orchestrator("processed %d spec(s)", n)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// ScanOnce runs one detection pass and processes every changed spec through
// the worker pool. It returns the number of specs processed. An unchanged
// directory produces zero runs.
func (o *Orchestrator) ScanOnce(ctx context.Context) (int, error) {
	o.setState(StateScanning)
	defer o.setState(StateIdle)

	changes, err := o.deps.Detector.Scan(ctx)
	if err != nil {
		return 0, err
	}
	if len(changes) == 0 {
		return 0, nil
	}

	var wg sync.WaitGroup
	for _, change := range changes {
		if err := o.sem.Acquire(ctx, 1); err != nil {
			wg.Wait()
			return 0, err
		}
		wg.Add(1)
		go func(change SpecChange) {
			defer wg.Done()
			defer o.sem.Release(1)
			o.handleSpec(ctx, change.Path)
		}(change)
	}
	wg.Wait()
	return len(changes), nil
}

// handleSpec serializes work on one spec path, then records and publishes
// the outcome. Panics anywhere in the pipeline become failed records.
func (o *Orchestrator) handleSpec(ctx context.Context, specPath string) {
	lockAny, _ := o.specLocks.LoadOrStore(specPath, &sync.Mutex{})
	lock := lockAny.(*sync.Mutex)
	lock.Lock()
	defer lock.Unlock()

	rec := o.runPipeline(ctx, specPath)

	o.setState(StateRecording)
	if o.deps.RunLog != nil {
		if err := o.deps.RunLog.Append(rec); err != nil {
			logging.Orchestrator("run log append failed for %s: %v", specPath, err)
		}
	}

	o.setState(StateNotifying)
	for _, n := range o.deps.Notifiers {
		if err := n.Notify(ctx, rec); err != nil {
			logging.Orchestrator("%s notification failed for run %s: %v", n.Name(), rec.RunID, err)
		}
	}
	if o.deps.Publish != nil {
		o.deps.Publish(rec)
	}
}

// CompileSpec runs the full pipeline for one spec file unconditionally and
// appends the run record. The CLI's one-shot entry point.
func (o *Orchestrator) CompileSpec(ctx context.Context, specPath string) RunRecord {
	rec := o.runPipeline(ctx, specPath)
	if o.deps.RunLog != nil {
		if err := o.deps.RunLog.Append(rec); err != nil {
			logging.Orchestrator("run log append failed for %s: %v", specPath, err)
		}
	}
	if o.deps.Publish != nil {
		o.deps.Publish(rec)
	}
	return rec
}

// runPipeline is parse -> synthesize -> execute -> adapt -> report. Every
// failure inside converts to a failed record; nothing escapes as an error
// or panic.
func (o *Orchestrator) runPipeline(ctx context.Context, specPath string) (rec RunRecord) {
	start := time.Now()
	rec = RunRecord{
		SpecPath:  specPath,
		Status:    executor.StatusFail,
		Timestamp: start,
	}
	defer func() {
		if r := recover(); r != nil {
			logging.Orchestrator("pipeline panic for %s: %v", specPath, r)
			rec.OK = false
			rec.Status = executor.StatusFail
			rec.ErrorKind = executor.KindCrash
		}
		rec.DurationMs = time.Since(start).Milliseconds()
	}()

	raw, err := os.ReadFile(specPath)
	if err != nil {
		logging.Orchestrator("unreadable spec %s: %v", specPath, err)
		rec.ErrorKind = executor.KindCrash
		o.writeFailureReport(&rec, err.Error())
		return rec
	}

	ir := o.deps.Parser.ParseMarkdown(string(raw))
	rec.Operation = ir.Name

	o.setState(StateSynthesizing)
	language := o.cfg.Synthesis.DefaultLanguage
	rec.Language = language

	synthRes, err := o.deps.Synthesizer.Synthesize(ir, language, o.deps.Bias.Snapshot())
	if err != nil {
		logging.Orchestrator("synthesis failed for %s: %v", specPath, err)
		rec.ErrorKind = executor.KindCrash

		// A template that produced broken output is penalized like a failing
		// run; execution never happens for it, so this is the one bias write
		// that precedes the executor.
		var genErr *synth.GenerationError
		if errors.As(err, &genErr) {
			rec.Strategy = genErr.Strategy
			if uerr := o.deps.Bias.Update(genErr.Strategy, false); uerr != nil {
				logging.Orchestrator("bias update failed for strategy %s: %v", genErr.Strategy, uerr)
			}
			rec.Bias = o.deps.Bias.Snapshot()
		}

		o.writeFailureReport(&rec, err.Error())
		return rec
	}
	rec.RunID = synthRes.RunID
	rec.Strategy = synthRes.Manifest.StrategyID
	rec.Stub = synthRes.Manifest.Stub

	o.setState(StateTesting)
	execRes := o.deps.Executor.Execute(ctx, synthRes.RunDir)
	rec.OK = execRes.Passed()
	rec.Status = execRes.Status
	rec.ErrorKind = execRes.ErrorKind

	// Learning happens strictly after the executor returns. A timed-out run
	// reaches here with a failed result and records that, never partial state.
	if err := o.deps.Bias.Update(rec.Strategy, rec.OK); err != nil {
		logging.Orchestrator("bias update failed for run %s: %v", rec.RunID, err)
	}
	rec.Bias = o.deps.Bias.Snapshot()

	o.recordInCorpus(ir, synthRes, rec.OK, &rec)

	if reportPath, err := writeHTMLReport(synthRes.RunDir, rec, execRes.Stderr); err != nil {
		logging.Orchestrator("report write failed for run %s: %v", rec.RunID, err)
	} else {
		rec.ReportPath = reportPath
	}

	return rec
}

// writeFailureReport mints a run directory for a run that failed before
// synthesis produced one, so every run leaves a report behind.
func (o *Orchestrator) writeFailureReport(rec *RunRecord, detail string) {
	runID, runDir, err := synth.NewRunDir(o.cfg.Synthesis.RunsDir)
	if err != nil {
		logging.Orchestrator("cannot create failure report dir for %s: %v", rec.SpecPath, err)
		return
	}
	rec.RunID = runID
	if path, err := writeHTMLReport(runDir, *rec, detail); err != nil {
		logging.Orchestrator("report write failed for run %s: %v", runID, err)
	} else {
		rec.ReportPath = path
	}
}

// recordInCorpus upserts the run's artifacts. A write failure is retried
// once; a second failure marks the record incomplete and the loop continues.
func (o *Orchestrator) recordInCorpus(ir intent.IR, synthRes *synth.Result, ok bool, rec *RunRecord) {
	code, err := os.ReadFile(synthRes.SourcePath)
	if err != nil {
		logging.Orchestrator("cannot read artifacts for corpus: %v", err)
		rec.Incomplete = true
		return
	}
	tests, err := os.ReadFile(synthRes.TestsPath)
	if err != nil {
		logging.Orchestrator("cannot read artifacts for corpus: %v", err)
		rec.Incomplete = true
		return
	}

	quality := 0.0
	if ok {
		quality = 1.0
	}

	_, err = o.deps.Corpus.Upsert(ir, string(code), string(tests), ok, quality)
	if errors.Is(err, corpus.ErrWrite) {
		logging.Corpus("corpus write failed, retrying once: %v", err)
		_, err = o.deps.Corpus.Upsert(ir, string(code), string(tests), ok, quality)
	}
	if err != nil {
		logging.Orchestrator("corpus write failed twice for run %s: %v", rec.RunID, err)
		rec.Incomplete = true
	}
}
