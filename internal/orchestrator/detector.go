// Package orchestrator watches a spec directory and drives the synthesis
// pipeline: detect change, parse, synthesize, execute, record, notify. Every
// stage failure is converted into a failed run record at this boundary; only
// a missing spec directory at startup is fatal.
package orchestrator

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"specforge/internal/logging"
)

// ChangeKind classifies a detected spec change.
type ChangeKind string

const (
	ChangeNew      ChangeKind = "new"
	ChangeModified ChangeKind = "modified"
)

// SpecChange is one spec file the pipeline should (re-)process.
type SpecChange struct {
	Path     string
	Kind     ChangeKind
	Checksum string
}

// ChangeDetector reports which specs changed since the last scan. Detectors
// are interchangeable; the state machine never cares how changes were found.
type ChangeDetector interface {
	Scan(ctx context.Context) ([]SpecChange, error)
	Close() error
}

// digestIndex tracks content checksums per spec path. Unchanged content
// yields no change regardless of mtime churn.
type digestIndex struct {
	mu      sync.Mutex
	digests map[string]string
}

func newDigestIndex() *digestIndex {
	return &digestIndex{digests: make(map[string]string)}
}

// classify computes the content checksum and reports whether the path is
// new, modified, or unchanged since the last call.
func (d *digestIndex) classify(path string, content []byte) (SpecChange, bool) {
	sum := sha256.Sum256(content)
	checksum := hex.EncodeToString(sum[:])

	d.mu.Lock()
	defer d.mu.Unlock()

	prev, seen := d.digests[path]
	if seen && prev == checksum {
		return SpecChange{}, false
	}
	d.digests[path] = checksum

	kind := ChangeNew
	if seen {
		kind = ChangeModified
	}
	return SpecChange{Path: path, Kind: kind, Checksum: checksum}, true
}

// listSpecs returns the .md files directly under dir, sorted by ReadDir.
func listSpecs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".md") {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	return paths, nil
}

// PollingDetector re-reads the whole spec directory on every scan and diffs
// checksums. The default detector.
type PollingDetector struct {
	specDir string
	index   *digestIndex
}

// NewPollingDetector creates a detector over the given spec directory.
func NewPollingDetector(specDir string) *PollingDetector {
	return &PollingDetector{specDir: specDir, index: newDigestIndex()}
}

// Scan walks the spec directory and returns specs whose content changed.
func (p *PollingDetector) Scan(ctx context.Context) ([]SpecChange, error) {
	paths, err := listSpecs(p.specDir)
	if err != nil {
		return nil, err
	}

	var changes []SpecChange
	for _, path := range paths {
		if ctx.Err() != nil {
			return changes, ctx.Err()
		}
		content, err := os.ReadFile(path)
		if err != nil {
			logging.Orchestrator("skipping unreadable spec %s: %v", path, err)
			continue
		}
		if change, changed := p.index.classify(path, content); changed {
			changes = append(changes, change)
		}
	}
	return changes, nil
}

// Close is a no-op for the polling detector.
func (p *PollingDetector) Close() error { return nil }

// NotifyDetector uses fsnotify events instead of periodic directory walks.
// Events are debounced so a spec being saved in rapid bursts is processed
// once after the writes settle. The first scan does a full walk to pick up
// specs that predate the watcher.
type NotifyDetector struct {
	specDir  string
	index    *digestIndex
	watcher  *fsnotify.Watcher
	debounce time.Duration

	mu      sync.Mutex
	pending map[string]time.Time
	primed  bool

	done chan struct{}
}

// NewNotifyDetector starts watching the spec directory.
func NewNotifyDetector(specDir string) (*NotifyDetector, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := watcher.Add(specDir); err != nil {
		watcher.Close()
		return nil, err
	}

	n := &NotifyDetector{
		specDir:  specDir,
		index:    newDigestIndex(),
		watcher:  watcher,
		debounce: 500 * time.Millisecond,
		pending:  make(map[string]time.Time),
		done:     make(chan struct{}),
	}
	go n.consume()
	return n, nil
}

// consume drains watcher events into the pending map.
func (n *NotifyDetector) consume() {
	defer close(n.done)
	for {
		select {
		case event, ok := <-n.watcher.Events:
			if !ok {
				return
			}
			if !strings.HasSuffix(event.Name, ".md") {
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
				continue
			}
			logging.OrchestratorDebug("spec event: %s %s", event.Op, event.Name)
			n.mu.Lock()
			n.pending[event.Name] = time.Now()
			n.mu.Unlock()
		case err, ok := <-n.watcher.Errors:
			if !ok {
				return
			}
			logging.Orchestrator("watcher error: %v", err)
		}
	}
}

// Scan returns settled pending specs whose content actually changed.
func (n *NotifyDetector) Scan(ctx context.Context) ([]SpecChange, error) {
	var paths []string

	n.mu.Lock()
	if !n.primed {
		n.primed = true
		n.mu.Unlock()
		all, err := listSpecs(n.specDir)
		if err != nil {
			return nil, err
		}
		paths = all
	} else {
		now := time.Now()
		for path, at := range n.pending {
			if now.Sub(at) >= n.debounce {
				paths = append(paths, path)
				delete(n.pending, path)
			}
		}
		n.mu.Unlock()
	}

	var changes []SpecChange
	for _, path := range paths {
		if ctx.Err() != nil {
			return changes, ctx.Err()
		}
		content, err := os.ReadFile(path)
		if err != nil {
			// Deleted between event and scan.
			continue
		}
		if change, changed := n.index.classify(path, content); changed {
			changes = append(changes, change)
		}
	}
	return changes, nil
}

// Close stops the watcher and waits for the event loop to exit.
func (n *NotifyDetector) Close() error {
	err := n.watcher.Close()
	<-n.done
	return err
}
