package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"specforge/internal/bias"
	"specforge/internal/config"
	"specforge/internal/corpus"
	"specforge/internal/executor"
	"specforge/internal/intent"
	"specforge/internal/orchestrator"
	"specforge/internal/report"
	"specforge/internal/synth"
)

var corpusTopK int

// compileCmd runs the pipeline once for a single spec file
var compileCmd = &cobra.Command{
	Use:   "compile [spec.md]",
	Short: "Parse, synthesize, and test a single spec",
	Args:  cobra.ExactArgs(1),
	RunE:  runCompile,
}

// requestCmd turns a natural-language request into a spec and compiles it
var requestCmd = &cobra.Command{
	Use:   "request [text]",
	Short: "Compile a natural-language request",
	Long: `Parses a natural-language request into an intermediate representation,
writes a normalized markdown spec into the spec directory, and runs the full
pipeline on it. The written spec is then picked up by future watch cycles
like any authored spec.

Example:
  forge request "write a function that computes the factorial of n"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRequest,
}

// testCmd re-executes the latest run's tests
var testCmd = &cobra.Command{
	Use:   "test",
	Short: "Re-run the tests of the most recent run",
	RunE:  runTest,
}

// reportCmd prints where the latest report landed
var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Show the latest run's outcome and report path",
	RunE:  runReport,
}

// watchCmd runs the orchestrator daemon
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch the spec directory and compile on change",
	Long: `Runs the orchestrator loop until interrupted: scan the spec directory,
process changed specs through the pipeline, record and notify. The change
detector (poll or notify) comes from configuration.`,
	RunE: runWatch,
}

// biasCmd prints the current strategy weights
var biasCmd = &cobra.Command{
	Use:   "bias",
	Short: "Show current template-selection bias weights",
	RunE:  runBias,
}

// corpusCmd groups corpus operations
var corpusCmd = &cobra.Command{
	Use:   "corpus",
	Short: "Corpus store operations",
}

var corpusQueryCmd = &cobra.Command{
	Use:   "query [text]",
	Short: "Find corpus entries similar to a request",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runCorpusQuery,
}

// serveCmd starts the reporting API
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the read-only reporting API",
	RunE:  runServe,
}

func init() {
	corpusQueryCmd.Flags().IntVar(&corpusTopK, "top", 5, "Number of matches to return")
}

// pipeline bundles the wired collaborators a command needs.
type pipeline struct {
	cfg     *config.Config
	parser  *intent.Parser
	adapter *bias.Adapter
	store   *corpus.Store
	runLog  *orchestrator.RunLog
	orch    *orchestrator.Orchestrator
	server  *report.Server
}

func (p *pipeline) close() {
	if p.store != nil {
		p.store.Close()
	}
}

// buildPipeline wires every component from configuration. detector may be
// nil for one-shot commands. withReporting adds the reporting server and
// hooks the orchestrator's publish channel into its live websocket hub.
func buildPipeline(detector orchestrator.ChangeDetector, withReporting bool) (*pipeline, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	registry := synth.DefaultRegistry()
	adapter, err := bias.Load(cfg.Bias.Path, registry.Strategies(), bias.Options{
		Alpha:    cfg.Bias.Alpha,
		Epsilon:  cfg.Bias.Epsilon,
		DriftCap: cfg.Bias.DriftCap,
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("loading bias weights: %w", err)
	}

	store, err := corpus.Open(cfg.Corpus.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("opening corpus: %w", err)
	}

	runLog := orchestrator.NewRunLog(filepath.Join(cfg.Synthesis.RunsDir, "spec_runs.jsonl"))

	var (
		srv     *report.Server
		publish func(orchestrator.RunRecord)
	)
	if withReporting {
		srv = report.NewServer(runLog, store, adapter, cfg.Reporting.HistoryLimit)
		publish = srv.Publish
	}

	var notifiers []orchestrator.Notifier
	if cfg.Git.AutoPush {
		notifiers = append(notifiers, &orchestrator.GitNotifier{
			Workdir: cfg.Workspace,
			Branch:  cfg.Git.Branch,
			Remote:  cfg.Git.Remote,
		})
	}
	if cfg.Webhook.URL != "" {
		notifiers = append(notifiers, orchestrator.NewWebhookNotifier(cfg.Webhook.URL, cfg.Webhook.Timeout))
	}

	parser := intent.NewParser()
	orch := orchestrator.New(cfg, orchestrator.Deps{
		Parser:      parser,
		Synthesizer: synth.NewSynthesizer(registry, cfg.Synthesis.RunsDir),
		Executor: executor.New(executor.Options{
			Timeout:      cfg.Execution.Timeout,
			PythonBinary: cfg.Execution.PythonBinary,
		}),
		Corpus:    store,
		Bias:      adapter,
		Detector:  detector,
		RunLog:    runLog,
		Notifiers: notifiers,
		Publish:   publish,
	})

	return &pipeline{
		cfg:     cfg,
		parser:  parser,
		adapter: adapter,
		store:   store,
		runLog:  runLog,
		orch:    orch,
		server:  srv,
	}, nil
}

// signalContext returns a context cancelled on SIGINT/SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func printRecord(rec orchestrator.RunRecord) {
	status := "PASS"
	if !rec.OK {
		status = "FAIL"
		if rec.ErrorKind != "" {
			status += " (" + rec.ErrorKind + ")"
		}
	}
	fmt.Printf("%s  %s  [%s/%s]  %dms\n", status, rec.Operation, rec.Language, rec.Strategy, rec.DurationMs)
	if rec.RunID != "" {
		fmt.Printf("  run:    %s\n", rec.RunID)
	}
	if rec.ReportPath != "" {
		fmt.Printf("  report: %s\n", rec.ReportPath)
	}
}

func runCompile(cmd *cobra.Command, args []string) error {
	specPath, err := filepath.Abs(args[0])
	if err != nil {
		return err
	}
	if _, err := os.Stat(specPath); err != nil {
		return fmt.Errorf("spec not found: %w", err)
	}

	p, err := buildPipeline(nil, false)
	if err != nil {
		return err
	}
	defer p.close()

	ctx, cancel := signalContext()
	defer cancel()

	rec := p.orch.CompileSpec(ctx, specPath)
	printRecord(rec)
	if !rec.OK {
		return fmt.Errorf("run %s failed", rec.RunID)
	}
	return nil
}

func runRequest(cmd *cobra.Command, args []string) error {
	text := ""
	for i, a := range args {
		if i > 0 {
			text += " "
		}
		text += a
	}

	p, err := buildPipeline(nil, false)
	if err != nil {
		return err
	}
	defer p.close()

	ir := p.parser.Parse(text)
	logger.Info("Request parsed",
		zap.String("operation", ir.Name),
		zap.String("tag", ir.Tag),
		zap.Float64("confidence", ir.Confidence))

	specPath, err := p.parser.WriteSpec(p.cfg.Orchestrator.SpecDir, ir, text)
	if err != nil {
		return fmt.Errorf("writing normalized spec: %w", err)
	}
	fmt.Printf("spec:   %s\n", specPath)

	ctx, cancel := signalContext()
	defer cancel()

	rec := p.orch.CompileSpec(ctx, specPath)
	printRecord(rec)
	if !rec.OK {
		return fmt.Errorf("run %s failed", rec.RunID)
	}
	return nil
}

func runTest(cmd *cobra.Command, args []string) error {
	p, err := buildPipeline(nil, false)
	if err != nil {
		return err
	}
	defer p.close()

	latest, err := p.runLog.Latest()
	if err != nil {
		return err
	}
	if latest == nil || latest.RunID == "" {
		return fmt.Errorf("no runs recorded yet")
	}

	ctx, cancel := signalContext()
	defer cancel()

	exec := executor.New(executor.Options{
		Timeout:      p.cfg.Execution.Timeout,
		PythonBinary: p.cfg.Execution.PythonBinary,
	})
	res := exec.Execute(ctx, filepath.Join(p.cfg.Synthesis.RunsDir, latest.RunID))

	fmt.Printf("%s  %s  %v\n", res.Status, latest.Operation, res.Duration)
	if res.Stderr != "" {
		fmt.Println(res.Stderr)
	}
	if !res.Passed() {
		return fmt.Errorf("tests failed")
	}
	return nil
}

func runReport(cmd *cobra.Command, args []string) error {
	p, err := buildPipeline(nil, false)
	if err != nil {
		return err
	}
	defer p.close()

	latest, err := p.runLog.Latest()
	if err != nil {
		return err
	}
	if latest == nil {
		return fmt.Errorf("no runs recorded yet")
	}
	printRecord(*latest)
	return nil
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	var detector orchestrator.ChangeDetector
	switch cfg.Orchestrator.Detector {
	case "notify":
		detector, err = orchestrator.NewNotifyDetector(cfg.Orchestrator.SpecDir)
		if err != nil {
			return fmt.Errorf("starting notify detector: %w", err)
		}
	default:
		detector = orchestrator.NewPollingDetector(cfg.Orchestrator.SpecDir)
	}
	defer detector.Close()

	p, err := buildPipeline(detector, cfg.Reporting.Enabled)
	if err != nil {
		return err
	}
	defer p.close()

	ctx, cancel := signalContext()
	defer cancel()

	if p.server != nil {
		go func() {
			if err := p.server.Run(ctx, p.cfg.Reporting.Addr); err != nil {
				logger.Error("Reporting API stopped", zap.Error(err))
			}
		}()
		logger.Info("Reporting API enabled", zap.String("addr", p.cfg.Reporting.Addr))
	}

	logger.Info("Watching spec directory",
		zap.String("dir", cfg.Orchestrator.SpecDir),
		zap.String("detector", cfg.Orchestrator.Detector))

	if err := p.orch.Run(ctx); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

func runBias(cmd *cobra.Command, args []string) error {
	p, err := buildPipeline(nil, false)
	if err != nil {
		return err
	}
	defer p.close()

	weights := p.adapter.Snapshot()
	names := make([]string, 0, len(weights))
	for name := range weights {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		fmt.Printf("%-16s %.4f\n", name, weights[name])
	}
	return nil
}

func runCorpusQuery(cmd *cobra.Command, args []string) error {
	text := ""
	for i, a := range args {
		if i > 0 {
			text += " "
		}
		text += a
	}

	p, err := buildPipeline(nil, false)
	if err != nil {
		return err
	}
	defer p.close()

	ir := p.parser.Parse(text)
	entries, err := p.store.QuerySimilar(ir, corpusTopK)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("no similar entries")
		return nil
	}

	for _, e := range entries {
		fmt.Printf("%.3f  %s  pass=%d fail=%d  quality=%.2f\n",
			e.Similarity, e.Signature, e.SuccessCount, e.FailureCount, e.QualityScore)
	}
	return nil
}

func runServe(cmd *cobra.Command, args []string) error {
	p, err := buildPipeline(nil, true)
	if err != nil {
		return err
	}
	defer p.close()

	ctx, cancel := signalContext()
	defer cancel()

	logger.Info("Serving reporting API", zap.String("addr", p.cfg.Reporting.Addr))
	return p.server.Run(ctx, p.cfg.Reporting.Addr)
}
