package synth

import (
	"fmt"
	"sync"

	"specforge/internal/logging"
)

// Registry maps body_pattern_tag to candidate templates. Registration order
// is preserved per tag: it is the deterministic tie-break when two candidate
// strategies carry the same bias weight.
type Registry struct {
	mu         sync.RWMutex
	byTag      map[string][]*Template
	byID       map[string]*Template
	languages  map[string]bool
	strategies []string
}

// NewRegistry creates an empty template registry.
func NewRegistry() *Registry {
	return &Registry{
		byTag:     make(map[string][]*Template),
		byID:      make(map[string]*Template),
		languages: make(map[string]bool),
	}
}

// Register adds a template. Duplicate IDs are an error.
func (r *Registry) Register(t *Template) error {
	if t.ID == "" || t.Tag == "" || t.Language == "" || t.StrategyID == "" {
		return fmt.Errorf("template is missing id, tag, language, or strategy")
	}
	if t.Generate == nil {
		return fmt.Errorf("template %s has no generator", t.ID)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[t.ID]; exists {
		return fmt.Errorf("template %s already registered", t.ID)
	}
	r.byID[t.ID] = t
	r.byTag[t.Tag] = append(r.byTag[t.Tag], t)
	r.languages[t.Language] = true

	known := false
	for _, s := range r.strategies {
		if s == t.StrategyID {
			known = true
			break
		}
	}
	if !known {
		r.strategies = append(r.strategies, t.StrategyID)
	}

	logging.SynthDebug("registered template %s", t.ID)
	return nil
}

// mustRegister panics on registration errors; used for the built-in table.
func (r *Registry) mustRegister(t *Template) {
	if err := r.Register(t); err != nil {
		panic(fmt.Sprintf("builtin template registration failed: %v", err))
	}
}

// Candidates returns the templates for a tag and language, in registration
// order. Empty result means the stub generator takes over.
func (r *Registry) Candidates(tag, language string) []*Template {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*Template
	for _, t := range r.byTag[tag] {
		if t.Language == language {
			out = append(out, t)
		}
	}
	return out
}

// SupportsLanguage reports whether any template targets the language.
func (r *Registry) SupportsLanguage(language string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.languages[language]
}

// Strategies returns all strategy IDs in first-registration order, including
// the stub strategy. This seeds the bias adapter's uniform initialization.
func (r *Registry) Strategies() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.strategies), len(r.strategies)+1)
	copy(out, r.strategies)
	return append(out, StrategyStub)
}

// DefaultRegistry returns a registry with every built-in template installed.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	registerPythonTemplates(r)
	registerGoTemplates(r)
	return r
}
