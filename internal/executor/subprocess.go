package executor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"
)

// maxCapturedOutput caps how much stdout/stderr a run can attach to its
// record. Runaway prints do not blow up the run log.
const maxCapturedOutput = 64 * 1024

// SubprocessRunner executes a test script in a child process. Used for
// Python: the test file imports the generated module and asserts.
type SubprocessRunner struct {
	Binary string // interpreter, e.g. python3
}

// Run starts the interpreter on the test file and classifies the outcome.
// A non-zero exit is a failure; the context deadline is a timeout; an
// unstartable process is a crash.
func (r *SubprocessRunner) Run(ctx context.Context, sourcePath, testPath, operation string) Result {
	start := time.Now()

	cmd := exec.CommandContext(ctx, r.Binary, testPath)

	var stdoutBuf, stderrBuf bytes.Buffer
	cmd.Stdout = &limitedWriter{w: &stdoutBuf, max: maxCapturedOutput}
	cmd.Stderr = &limitedWriter{w: &stderrBuf, max: maxCapturedOutput}

	err := cmd.Run()
	res := Result{
		Stdout:   stdoutBuf.String(),
		Stderr:   stderrBuf.String(),
		Duration: time.Since(start),
	}

	switch {
	case err == nil:
		res.Status = StatusPass
	case ctx.Err() == context.DeadlineExceeded:
		res.Status = StatusFail
		res.ErrorKind = KindTimeout
		res.Stderr = fmt.Sprintf("%s\ntest run exceeded its time budget", res.Stderr)
	default:
		res.Status = StatusFail
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			// The process never ran at all.
			res.ErrorKind = KindCrash
			res.Stderr = fmt.Sprintf("%s\nfailed to start %s: %v", res.Stderr, r.Binary, err)
		} else if exitErr.ExitCode() < 0 {
			// Killed by signal.
			res.ErrorKind = KindCrash
		}
	}
	return res
}

// limitedWriter discards bytes past max but keeps counting.
type limitedWriter struct {
	w   *bytes.Buffer
	max int
	n   int
}

func (lw *limitedWriter) Write(p []byte) (int, error) {
	total := len(p)
	if lw.n < lw.max {
		keep := p
		if lw.n+len(keep) > lw.max {
			keep = keep[:lw.max-lw.n]
		}
		lw.w.Write(keep)
	}
	lw.n += total
	return total, nil
}
