// Package bias maintains per-strategy selection weights, adapted from run
// outcomes with an exponential moving average and persisted across restarts.
package bias

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"specforge/internal/logging"
)

// Scorer converts a passing run into a quality signal in [0, 1].
// The default scorer returns a constant 1.0; callers with a richer notion of
// quality (complexity, review results) can plug their own.
type Scorer func(ok bool) float64

// DefaultScorer scores every pass at 1.0.
func DefaultScorer(ok bool) float64 {
	if ok {
		return 1.0
	}
	return 0.0
}

// Options tune the update rule.
type Options struct {
	Alpha    float64 // EMA smoothing factor
	Epsilon  float64 // Weight floor; no strategy ever starves completely
	DriftCap float64 // Max absolute movement per update; 0 disables the cap
}

// DefaultOptions matches the documented update rule: w' = 0.2*signal + 0.8*w,
// floored at 0.05, with at most 0.15 of movement per update.
func DefaultOptions() Options {
	return Options{Alpha: 0.2, Epsilon: 0.05, DriftCap: 0.15}
}

// Adapter holds the strategy weights. All mutation goes through Update, which
// persists after every change.
type Adapter struct {
	mu      sync.RWMutex
	path    string
	opts    Options
	scorer  Scorer
	weights map[string]float64
	updates int64
}

// persistedState is the on-disk JSON shape.
type persistedState struct {
	Weights   map[string]float64 `json:"weights"`
	Updates   int64              `json:"total_updates"`
	UpdatedAt string             `json:"updated_at"`
	Alpha     float64            `json:"alpha"`
	Epsilon   float64            `json:"epsilon"`
}

// Load opens (or creates) the weight store at path. strategies seeds the
// weight table: an absent file or any strategy missing from it gets the
// uniform 1/N initialization.
func Load(path string, strategies []string, opts Options, scorer Scorer) (*Adapter, error) {
	if opts.Alpha <= 0 || opts.Alpha > 1 {
		return nil, fmt.Errorf("alpha must be in (0, 1], got %g", opts.Alpha)
	}
	if opts.Epsilon <= 0 || opts.Epsilon >= 1 {
		return nil, fmt.Errorf("epsilon must be in (0, 1), got %g", opts.Epsilon)
	}
	if scorer == nil {
		scorer = DefaultScorer
	}

	a := &Adapter{
		path:    path,
		opts:    opts,
		scorer:  scorer,
		weights: make(map[string]float64),
	}

	if data, err := os.ReadFile(path); err == nil {
		var st persistedState
		if err := json.Unmarshal(data, &st); err != nil {
			logging.Bias("weights file %s unreadable (%v), starting uniform", path, err)
		} else {
			for k, v := range st.Weights {
				a.weights[k] = a.clamp(v)
			}
			a.updates = st.Updates
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read weights: %w", err)
	}

	// Uniform 1/N for strategies the file does not know about.
	uniform := 1.0
	if n := len(strategies); n > 0 {
		uniform = a.clamp(1.0 / float64(n))
	}
	for _, s := range strategies {
		if _, ok := a.weights[s]; !ok {
			a.weights[s] = uniform
		}
	}

	logging.Bias("loaded %d strategy weights from %s", len(a.weights), path)
	return a, nil
}

// Weight returns the current weight for a strategy. Unknown strategies get
// the floor so they remain selectable.
func (a *Adapter) Weight(strategy string) float64 {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if w, ok := a.weights[strategy]; ok {
		return w
	}
	return a.opts.Epsilon
}

// Snapshot returns a copy of all weights, for run records and the CLI.
func (a *Adapter) Snapshot() map[string]float64 {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make(map[string]float64, len(a.weights))
	for k, v := range a.weights {
		out[k] = v
	}
	return out
}

// Strategies returns the known strategy IDs in sorted order.
func (a *Adapter) Strategies() []string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]string, 0, len(a.weights))
	for k := range a.weights {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Update applies the EMA rule for one run outcome and persists the result.
// The update signal is the scorer's quality on pass and 0.0 on fail.
func (a *Adapter) Update(strategy string, ok bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	old, known := a.weights[strategy]
	if !known {
		old = a.opts.Epsilon
	}

	signal := a.scorer(ok)
	next := a.opts.Alpha*signal + (1-a.opts.Alpha)*old

	if dc := a.opts.DriftCap; dc > 0 {
		if next > old+dc {
			next = old + dc
		} else if next < old-dc {
			next = old - dc
		}
	}
	next = a.clamp(next)

	a.weights[strategy] = next
	a.updates++
	logging.Bias("strategy %s: %0.4f -> %0.4f (ok=%v)", strategy, old, next, ok)

	return a.persistLocked()
}

// clamp bounds a weight to [epsilon, 1].
func (a *Adapter) clamp(w float64) float64 {
	if w < a.opts.Epsilon {
		return a.opts.Epsilon
	}
	if w > 1 {
		return 1
	}
	return w
}

// persistLocked writes the weight table to disk. Caller holds a.mu.
func (a *Adapter) persistLocked() error {
	st := persistedState{
		Weights:   a.weights,
		Updates:   a.updates,
		UpdatedAt: time.Now().Format(time.RFC3339),
		Alpha:     a.opts.Alpha,
		Epsilon:   a.opts.Epsilon,
	}
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal weights: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(a.path), 0755); err != nil {
		return fmt.Errorf("failed to create weights directory: %w", err)
	}
	if err := os.WriteFile(a.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write weights: %w", err)
	}
	return nil
}
