package orchestrator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/exec"
	"time"

	"specforge/internal/logging"
)

// Notifier publishes a completed run record to an external system. Notifier
// errors are logged by the orchestrator and never block run completion.
type Notifier interface {
	Name() string
	Notify(ctx context.Context, rec RunRecord) error
}

// GitNotifier commits the workspace and pushes after each run. Off unless
// git.auto_push is set in config.
type GitNotifier struct {
	Workdir string
	Branch  string
	Remote  string
}

func (g *GitNotifier) Name() string { return "git" }

// Notify stages everything, commits with the run ID, and pushes. A commit
// with nothing to commit is treated as success.
func (g *GitNotifier) Notify(ctx context.Context, rec RunRecord) error {
	if err := g.run(ctx, "add", "-A"); err != nil {
		return err
	}

	msg := fmt.Sprintf("forge: record run %s (%s)", rec.RunID, rec.Status)
	if err := g.run(ctx, "commit", "-m", msg); err != nil {
		// Re-running an unchanged pipeline produces an empty diff.
		if clean, checkErr := g.isClean(ctx); checkErr == nil && clean {
			logging.Orchestrator("git: nothing to commit for run %s", rec.RunID)
			return nil
		}
		return err
	}

	args := []string{"push"}
	if g.Remote != "" {
		args = append(args, g.Remote)
		if g.Branch != "" {
			args = append(args, g.Branch)
		}
	}
	return g.run(ctx, args...)
}

func (g *GitNotifier) run(ctx context.Context, args ...string) error {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = g.Workdir
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("git %s: %w: %s", args[0], err, bytes.TrimSpace(out))
	}
	return nil
}

func (g *GitNotifier) isClean(ctx context.Context) (bool, error) {
	cmd := exec.CommandContext(ctx, "git", "status", "--porcelain")
	cmd.Dir = g.Workdir
	out, err := cmd.Output()
	if err != nil {
		return false, err
	}
	return len(bytes.TrimSpace(out)) == 0, nil
}

// WebhookNotifier POSTs the run record as JSON to a configured URL.
type WebhookNotifier struct {
	URL    string
	Client *http.Client
}

// NewWebhookNotifier builds a webhook notifier with the given timeout.
func NewWebhookNotifier(url string, timeout time.Duration) *WebhookNotifier {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &WebhookNotifier{
		URL:    url,
		Client: &http.Client{Timeout: timeout},
	}
}

func (w *WebhookNotifier) Name() string { return "webhook" }

// Notify posts the record. Any non-2xx status is an error.
func (w *WebhookNotifier) Notify(ctx context.Context, rec RunRecord) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encoding webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.URL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("building webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.Client.Do(req)
	if err != nil {
		return fmt.Errorf("posting webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("webhook returned %s", resp.Status)
	}
	return nil
}
