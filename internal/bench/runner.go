package bench

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/CapZTr/lime/internal/backend"
	"github.com/CapZTr/lime/internal/optimize"
)

// Failure classifies a benchmark run without a record.
type Failure uint8

const (
	Succeeded Failure = iota
	Infeasible
	Timeout
	Failed
	Other
)

func (f Failure) String() string {
	switch f {
	case Succeeded:
		return "ok"
	case Infeasible:
		return "infeasible"
	case Timeout:
		return "timeout"
	case Failed:
		return "error"
	default:
		return "other"
	}
}

// Result is the outcome of one benchmark run.
type Result struct {
	Record  *Record       `msgpack:"record"`
	Failure Failure       `msgpack:"failure"`
	Message string        `msgpack:"message,omitempty"`
	Total   time.Duration `msgpack:"t_total"`
	Stdout  string        `msgpack:"stdout"`
	Stderr  string        `msgpack:"stderr"`
}

// OK reports whether the run produced a record.
func (r Result) OK() bool {
	return r.Failure == Succeeded && r.Record != nil
}

// Runner executes benchmark configurations.
type Runner interface {
	Run(ctx context.Context, b Benchmark) Result
}

func classify(stderr string) Failure {
	if strings.Contains(strings.ToLower(stderr), "infeasible") {
		return Infeasible
	}
	return Other
}

// InProcess runs benchmarks in this process against Backend.
type InProcess struct {
	Backend backend.Backend
	Options optimize.Options
}

func (p *InProcess) Run(ctx context.Context, b Benchmark) Result {
	start := time.Now()
	type outcome struct {
		rec      *Record
		err      error
		progress string
	}
	done := make(chan outcome, 1)
	go func() {
		var progress bytes.Buffer
		rec, err := Run(b, p.Backend, p.Options, &progress)
		done <- outcome{rec: rec, err: err, progress: progress.String()}
	}()

	select {
	case <-ctx.Done():
		// The compilation cannot be interrupted; its goroutine finishes on
		// its own and the outcome is dropped.
		return Result{Failure: Timeout, Message: ctx.Err().Error(), Total: time.Since(start)}
	case o := <-done:
		res := Result{Total: time.Since(start), Stderr: o.progress}
		if o.err != nil {
			res.Stderr += o.err.Error() + "\n"
			res.Message = o.err.Error()
			res.Failure = Failed
			if classify(o.err.Error()) == Infeasible {
				res.Failure = Infeasible
			}
			return res
		}
		res.Record = o.rec
		res.Stdout = FormatResults(o.rec) + "\n"
		return res
	}
}

// Command runs each benchmark as a lime-bench process and parses the
// RESULTS line it prints.
type Command struct {
	Path string
	// Args come before the six benchmark arguments.
	Args []string
}

func (c *Command) Run(ctx context.Context, b Benchmark) Result {
	start := time.Now()
	cmd := exec.CommandContext(ctx, c.Path, append(append([]string(nil), c.Args...), b.Args()...)...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()

	res := Result{Total: time.Since(start), Stdout: stdout.String(), Stderr: stderr.String()}
	if ctx.Err() != nil {
		res.Failure = Timeout
		res.Message = ctx.Err().Error()
		return res
	}
	var exitErr *exec.ExitError
	if err != nil && !stderrors.As(err, &exitErr) {
		res.Failure = Failed
		res.Message = fmt.Sprintf("running %s: %s", c.Path, err)
		return res
	}
	rec, perr := ParseResults(res.Stdout)
	switch {
	case perr == nil:
		res.Record = rec
	case stderrors.Is(perr, ErrNoResults):
		res.Failure = classify(res.Stderr)
	default:
		res.Failure = Failed
		res.Message = perr.Error()
	}
	return res
}
