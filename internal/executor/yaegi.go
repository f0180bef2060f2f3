package executor

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"
)

// YaegiRunner interprets generated Go code in-process. Interpreting instead
// of shelling out to the compiler avoids toolchain hangs and keeps a run's
// cost to milliseconds. The test file must define:
//
//	func RunTests() error
//
// which returns nil when every assertion holds.
type YaegiRunner struct{}

// Run evaluates the source and test files in a fresh interpreter and invokes
// RunTests under the context deadline. Interpreter panics are recovered and
// reported as crashes.
func (r *YaegiRunner) Run(ctx context.Context, sourcePath, testPath, operation string) (res Result) {
	start := time.Now()
	defer func() {
		res.Duration = time.Since(start)
		if rec := recover(); rec != nil {
			res = Result{
				Status:    StatusFail,
				ErrorKind: KindCrash,
				Stderr:    fmt.Sprintf("interpreter panic: %v", rec),
				Duration:  time.Since(start),
			}
		}
	}()

	source, err := os.ReadFile(sourcePath)
	if err != nil {
		return crashResult(fmt.Sprintf("reading source: %v", err))
	}
	test, err := os.ReadFile(testPath)
	if err != nil {
		return crashResult(fmt.Sprintf("reading test: %v", err))
	}

	i := interp.New(interp.Options{})
	if err := i.Use(stdlib.Symbols); err != nil {
		return crashResult(fmt.Sprintf("loading stdlib symbols: %v", err))
	}

	if _, err := i.Eval(string(source)); err != nil {
		return crashResult(fmt.Sprintf("source did not evaluate: %v", err))
	}
	if _, err := i.Eval(string(test)); err != nil {
		return crashResult(fmt.Sprintf("test did not evaluate: %v", err))
	}

	v, err := i.Eval("main.RunTests")
	if err != nil {
		return crashResult(fmt.Sprintf("RunTests not found: %v", err))
	}
	runTests, ok := v.Interface().(func() error)
	if !ok {
		return crashResult("RunTests has the wrong signature (want func() error)")
	}

	errChan := make(chan error, 1)
	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				errChan <- fmt.Errorf("panic: %v", rec)
			}
		}()
		errChan <- runTests()
	}()

	select {
	case err := <-errChan:
		if err != nil {
			return Result{Status: StatusFail, Stderr: err.Error()}
		}
		return Result{Status: StatusPass, Stdout: "ok: " + operation}
	case <-ctx.Done():
		return Result{
			Status:    StatusFail,
			ErrorKind: KindTimeout,
			Stderr:    "test run exceeded its time budget",
		}
	}
}

func crashResult(msg string) Result {
	return Result{Status: StatusFail, ErrorKind: KindCrash, Stderr: msg}
}
