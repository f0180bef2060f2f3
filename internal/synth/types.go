// Package synth selects a code template for an IR using the current bias
// weights and emits source plus tests into a timestamped run directory.
package synth

import (
	"fmt"

	"specforge/internal/intent"
)

// Supported target languages.
const (
	LangPython = "python"
	LangGo     = "go"
)

// StrategyStub is the strategy ID recorded when the fallback generator ran.
const StrategyStub = "stub"

// UnsupportedLanguageError is returned when no templates exist for the
// requested target language.
type UnsupportedLanguageError struct {
	Language string
}

func (e *UnsupportedLanguageError) Error() string {
	return fmt.Sprintf("unsupported target language %q", e.Language)
}

// GenerationError is returned when a selected template produced broken
// output: its Generate call failed, or the artifacts did not survive the
// syntax gate. The strategy is carried so callers can penalize it.
type GenerationError struct {
	TemplateID string
	Strategy   string
	Err        error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("template %s (strategy %s): %v", e.TemplateID, e.Strategy, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// Artifacts is the generated output of one template.
type Artifacts struct {
	Source string // Full source file content
	Test   string // Full test file content
}

// Template generates code for one (tag, language, strategy) combination.
// Templates are registered explicitly; lookup is by tag, never by runtime
// type inspection.
type Template struct {
	ID         string // e.g. "python/factorial/iterative"
	Tag        string // body_pattern_tag this template serves
	Language   string
	StrategyID string
	Generate   func(ir intent.IR) (Artifacts, error)
}

// Manifest describes what was synthesized into a run directory.
type Manifest struct {
	TemplateID string `json:"template_id"`
	Language   string `json:"language"`
	Signature  string `json:"signature"`
	Operation  string `json:"operation"`
	StrategyID string `json:"strategy_id"`
	Stub       bool   `json:"stub"`
}

// Result reports where a synthesis run landed on disk.
type Result struct {
	RunID        string
	RunDir       string
	SourcePath   string
	TestsPath    string
	ManifestPath string
	Manifest     Manifest
}
