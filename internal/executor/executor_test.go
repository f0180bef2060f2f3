package executor

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"specforge/internal/intent"
	"specforge/internal/synth"
)

func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return dir
}

func TestYaegiRunnerPass(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"src/double.go": `package main

func double(n int) int { return n * 2 }
`,
		"tests/double_test.go": `package main

import "fmt"

func RunTests() error {
	if double(3) != 6 {
		return fmt.Errorf("double(3) != 6")
	}
	return nil
}
`,
	})

	r := &YaegiRunner{}
	res := r.Run(context.Background(),
		filepath.Join(dir, "src", "double.go"),
		filepath.Join(dir, "tests", "double_test.go"), "double")

	assert.Equal(t, StatusPass, res.Status)
	assert.Empty(t, res.ErrorKind)
	assert.True(t, res.Passed())
}

func TestYaegiRunnerAssertionFailure(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"src/double.go": `package main

func double(n int) int { return n + 2 }
`,
		"tests/double_test.go": `package main

import "fmt"

func RunTests() error {
	if double(3) != 6 {
		return fmt.Errorf("double(3) != 6")
	}
	return nil
}
`,
	})

	r := &YaegiRunner{}
	res := r.Run(context.Background(),
		filepath.Join(dir, "src", "double.go"),
		filepath.Join(dir, "tests", "double_test.go"), "double")

	assert.Equal(t, StatusFail, res.Status)
	assert.Empty(t, res.ErrorKind, "assertion failures are plain failures, not crashes")
	assert.Contains(t, res.Stderr, "double(3) != 6")
}

func TestYaegiRunnerBrokenSourceIsCrash(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"src/broken.go":        "package main\n\nfunc broken( {",
		"tests/broken_test.go": "package main\n\nfunc RunTests() error { return nil }\n",
	})

	r := &YaegiRunner{}
	res := r.Run(context.Background(),
		filepath.Join(dir, "src", "broken.go"),
		filepath.Join(dir, "tests", "broken_test.go"), "broken")

	assert.Equal(t, StatusFail, res.Status)
	assert.Equal(t, KindCrash, res.ErrorKind)
}

func TestYaegiRunnerMissingRunTestsIsCrash(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"src/noop.go":        "package main\n\nfunc noop() {}\n",
		"tests/noop_test.go": "package main\n\nfunc SomethingElse() {}\n",
	})

	r := &YaegiRunner{}
	res := r.Run(context.Background(),
		filepath.Join(dir, "src", "noop.go"),
		filepath.Join(dir, "tests", "noop_test.go"), "noop")

	assert.Equal(t, StatusFail, res.Status)
	assert.Equal(t, KindCrash, res.ErrorKind)
	assert.Contains(t, res.Stderr, "RunTests")
}

func TestYaegiRunnerTimeout(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"src/slow.go": "package main\n\nfunc slow() {}\n",
		"tests/slow_test.go": `package main

import "time"

func RunTests() error {
	time.Sleep(5 * time.Second)
	return nil
}
`,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	r := &YaegiRunner{}
	res := r.Run(ctx,
		filepath.Join(dir, "src", "slow.go"),
		filepath.Join(dir, "tests", "slow_test.go"), "slow")

	assert.Equal(t, StatusFail, res.Status)
	assert.Equal(t, KindTimeout, res.ErrorKind)
}

func requirePython(t *testing.T) string {
	t.Helper()
	bin, err := exec.LookPath("python3")
	if err != nil {
		t.Skip("python3 not installed")
	}
	return bin
}

func TestSubprocessRunnerPass(t *testing.T) {
	bin := requirePython(t)
	dir := writeFiles(t, map[string]string{
		"tests/test_ok.py": "assert 1 + 1 == 2\nprint('ok')\n",
	})

	r := &SubprocessRunner{Binary: bin}
	res := r.Run(context.Background(), "", filepath.Join(dir, "tests", "test_ok.py"), "ok")

	assert.Equal(t, StatusPass, res.Status)
	assert.Contains(t, res.Stdout, "ok")
}

func TestSubprocessRunnerAssertionFailure(t *testing.T) {
	bin := requirePython(t)
	dir := writeFiles(t, map[string]string{
		"tests/test_bad.py": "assert 1 + 1 == 3\n",
	})

	r := &SubprocessRunner{Binary: bin}
	res := r.Run(context.Background(), "", filepath.Join(dir, "tests", "test_bad.py"), "bad")

	assert.Equal(t, StatusFail, res.Status)
	assert.Empty(t, res.ErrorKind)
	assert.Contains(t, res.Stderr, "AssertionError")
}

func TestSubprocessRunnerTimeout(t *testing.T) {
	bin := requirePython(t)
	dir := writeFiles(t, map[string]string{
		"tests/test_slow.py": "import time\ntime.sleep(10)\n",
	})

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	r := &SubprocessRunner{Binary: bin}
	res := r.Run(ctx, "", filepath.Join(dir, "tests", "test_slow.py"), "slow")

	assert.Equal(t, StatusFail, res.Status)
	assert.Equal(t, KindTimeout, res.ErrorKind)
}

func TestSubprocessRunnerMissingBinaryIsCrash(t *testing.T) {
	r := &SubprocessRunner{Binary: "definitely-not-a-real-interpreter"}
	res := r.Run(context.Background(), "", "whatever.py", "x")

	assert.Equal(t, StatusFail, res.Status)
	assert.Equal(t, KindCrash, res.ErrorKind)
}

func TestExecuteUnreadableRunDirIsCrashNotError(t *testing.T) {
	e := New(Options{})
	res := e.Execute(context.Background(), t.TempDir())

	assert.Equal(t, StatusFail, res.Status)
	assert.Equal(t, KindCrash, res.ErrorKind)
}

func TestExecuteSynthesizedGoRun(t *testing.T) {
	reg := synth.DefaultRegistry()
	s := synth.NewSynthesizer(reg, t.TempDir())

	ir := intent.IR{
		Name:        "factorial",
		Params:      []intent.Param{{Name: "n", Type: "int"}},
		ReturnType:  "int",
		Tag:         "factorial",
		Description: "Compute the factorial of n.",
		Examples: []intent.Example{
			{Inputs: map[string]any{"n": 5}, Want: 120},
		},
	}
	weights := map[string]float64{"iterative": 0.5, "recursive": 0.4}

	synthRes, err := s.Synthesize(ir, synth.LangGo, weights)
	require.NoError(t, err)

	e := New(Options{Timeout: 10 * time.Second})
	res := e.Execute(context.Background(), synthRes.RunDir)

	assert.Equal(t, StatusPass, res.Status, "stderr: %s", res.Stderr)
}

func TestLimitedWriterCapsOutput(t *testing.T) {
	lw := &limitedWriter{w: &bytes.Buffer{}, max: 8}
	n, err := lw.Write([]byte("0123456789abcdef"))
	require.NoError(t, err)
	assert.Equal(t, 16, n, "writer reports full length so exec does not error")
	assert.Equal(t, "01234567", lw.w.String())
}
