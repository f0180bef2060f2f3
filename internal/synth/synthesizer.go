package synth

import (
	"context"
	"encoding/json"
	"fmt"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"

	"specforge/internal/intent"
	"specforge/internal/logging"
)

// Synthesizer turns an IR into a run directory containing source, tests, and
// a manifest. Template choice is driven by the caller-supplied bias weights.
type Synthesizer struct {
	registry *Registry
	runsDir  string
}

// NewSynthesizer wires a synthesizer to a registry and a runs directory.
func NewSynthesizer(registry *Registry, runsDir string) *Synthesizer {
	return &Synthesizer{registry: registry, runsDir: runsDir}
}

// Synthesize picks the highest-weighted candidate template for the IR's tag,
// generates artifacts, and writes them under a fresh run directory. When no
// template covers the tag, the stub generator takes over and the manifest
// records that. A template that errors, or emits artifacts the syntax gate
// rejects, fails the run with a GenerationError instead of masquerading as a
// stub: the faulty strategy must surface so it can be penalized. Weights
// maps strategy ID to bias weight; a missing entry counts as zero.
func (s *Synthesizer) Synthesize(ir intent.IR, language string, weights map[string]float64) (*Result, error) {
	if language != LangPython && language != LangGo {
		return nil, &UnsupportedLanguageError{Language: language}
	}
	if !s.registry.SupportsLanguage(language) {
		return nil, &UnsupportedLanguageError{Language: language}
	}

	tpl := selectTemplate(s.registry.Candidates(ir.Tag, language), weights)

	var (
		artifacts Artifacts
		manifest  = Manifest{
			Language:  language,
			Signature: ir.Signature(),
			Operation: ir.Name,
		}
	)
	if tpl != nil {
		a, err := tpl.Generate(ir)
		if err == nil {
			err = checkSyntax(language, a)
		}
		if err != nil {
			logging.Synth("template %s produced broken output for %s: %v", tpl.ID, ir.Name, err)
			return nil, &GenerationError{TemplateID: tpl.ID, Strategy: tpl.StrategyID, Err: err}
		}
		artifacts = a
		manifest.TemplateID = tpl.ID
		manifest.StrategyID = tpl.StrategyID
	} else {
		a, err := generateStub(ir, language)
		if err != nil {
			return nil, err
		}
		artifacts = a
		manifest.StrategyID = StrategyStub
		manifest.Stub = true
		logging.Synth("no template for tag %q (%s), generated stub for %s", ir.Tag, language, ir.Name)
	}

	return s.writeRun(ir, language, artifacts, manifest)
}

// selectTemplate returns the candidate with the highest bias weight. Ties go
// to the earlier registration; strictly-greater comparison makes that fall
// out of the scan order.
func selectTemplate(candidates []*Template, weights map[string]float64) *Template {
	var best *Template
	bestWeight := -1.0
	for _, t := range candidates {
		if w := weights[t.StrategyID]; w > bestWeight {
			best = t
			bestWeight = w
		}
	}
	return best
}

// checkSyntax parses generated artifacts before they hit disk. A template
// bug shows up here instead of as a confusing interpreter error.
func checkSyntax(language string, a Artifacts) error {
	switch language {
	case LangGo:
		return checkGoSyntax(a)
	case LangPython:
		return checkPythonSyntax(a)
	}
	return nil
}

func checkGoSyntax(a Artifacts) error {
	fset := token.NewFileSet()
	if _, err := parser.ParseFile(fset, "src.go", a.Source, 0); err != nil {
		return fmt.Errorf("generated source does not parse: %w", err)
	}
	if _, err := parser.ParseFile(fset, "test.go", a.Test, 0); err != nil {
		return fmt.Errorf("generated test does not parse: %w", err)
	}
	return nil
}

// checkPythonSyntax runs generated Python through a tree-sitter parse and
// rejects artifacts whose syntax tree contains error nodes.
func checkPythonSyntax(a Artifacts) error {
	p := sitter.NewParser()
	p.SetLanguage(python.GetLanguage())

	for _, f := range []struct{ name, content string }{
		{"source", a.Source},
		{"test", a.Test},
	} {
		tree, err := p.ParseCtx(context.Background(), nil, []byte(f.content))
		if err != nil {
			return fmt.Errorf("parsing generated %s: %w", f.name, err)
		}
		broken := tree.RootNode().HasError()
		tree.Close()
		if broken {
			return fmt.Errorf("generated %s does not parse", f.name)
		}
	}
	return nil
}

func (s *Synthesizer) writeRun(ir intent.IR, language string, artifacts Artifacts, manifest Manifest) (*Result, error) {
	runID, runDir, err := NewRunDir(s.runsDir)
	if err != nil {
		return nil, err
	}

	srcDir := filepath.Join(runDir, "src")
	testsDir := filepath.Join(runDir, "tests")
	for _, d := range []string{srcDir, testsDir} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return nil, fmt.Errorf("creating %s: %w", d, err)
		}
	}

	var srcName, testName string
	switch language {
	case LangPython:
		srcName = ir.Name + ".py"
		testName = "test_" + ir.Name + ".py"
	case LangGo:
		srcName = ir.Name + ".go"
		testName = ir.Name + "_test.go"
	}

	srcPath := filepath.Join(srcDir, srcName)
	testPath := filepath.Join(testsDir, testName)
	manifestPath := filepath.Join(runDir, "manifest.json")

	if err := os.WriteFile(srcPath, []byte(artifacts.Source), 0o644); err != nil {
		return nil, fmt.Errorf("writing source: %w", err)
	}
	if err := os.WriteFile(testPath, []byte(artifacts.Test), 0o644); err != nil {
		return nil, fmt.Errorf("writing tests: %w", err)
	}
	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding manifest: %w", err)
	}
	if err := os.WriteFile(manifestPath, data, 0o644); err != nil {
		return nil, fmt.Errorf("writing manifest: %w", err)
	}

	logging.Synth("synthesized %s (%s) into %s [strategy=%s stub=%v]",
		ir.Name, language, runID, manifest.StrategyID, manifest.Stub)

	return &Result{
		RunID:        runID,
		RunDir:       runDir,
		SourcePath:   srcPath,
		TestsPath:    testPath,
		ManifestPath: manifestPath,
		Manifest:     manifest,
	}, nil
}

// ReadManifest loads a run directory's manifest.
func ReadManifest(runDir string) (Manifest, error) {
	var m Manifest
	data, err := os.ReadFile(filepath.Join(runDir, "manifest.json"))
	if err != nil {
		return m, fmt.Errorf("reading manifest: %w", err)
	}
	if err := json.Unmarshal(data, &m); err != nil {
		return m, fmt.Errorf("decoding manifest: %w", err)
	}
	return m, nil
}
