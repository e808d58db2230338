// Package pyrun drives a single long-lived Python subprocess that hosts
// the notebook's shared Python namespace. The subprocess is exec'd once
// per session and kept alive across cell executions; it is never
// restarted between cells, only at session shutdown.
package pyrun

import (
	"bufio"
	"context"
	"encoding/json"
	_ "embed"
	"fmt"
	"io"
	"os/exec"
	"sync"
	"time"

	"github.com/carter293/Carter-Querio-notebook-sub004/pkg/models"
)

//go:embed bootstrap.py
var bootstrapScript []byte

// Result is the outcome of executing one Python cell.
type Result struct {
	Stdout    string
	Outputs   []models.Output
	Error     string
	Namespace map[string]any
}

// execRequest and execResponse mirror bootstrap.py's newline-delimited
// JSON wire format.
type execRequest struct {
	Cmd    string `json:"cmd"`
	CellID string `json:"cell_id,omitempty"`
	Code   string `json:"code,omitempty"`
}

type execOutput struct {
	MimeType string `json:"mime_type"`
	Data     any    `json:"data"`
}

type execResponse struct {
	CellID    string            `json:"cell_id"`
	Stdout    string            `json:"stdout"`
	Outputs   []execOutput      `json:"outputs"`
	Error     *string           `json:"error"`
	Namespace map[string]any    `json:"namespace"`
}

// Executor owns one python subprocess for the lifetime of a session.
// It is not safe for concurrent use; the kernel's single-threaded
// command loop is the only caller.
type Executor struct {
	pythonPath  string
	cellTimeout time.Duration

	mu     sync.Mutex
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	reader *bufio.Reader
}

// New returns an Executor that will exec pythonPath on Start. Execute
// returns ErrKernelUnreachable until Start has succeeded.
func New(pythonPath string, cellTimeout time.Duration) *Executor {
	return &Executor{pythonPath: pythonPath, cellTimeout: cellTimeout}
}

// Start launches the subprocess. It is idempotent; calling it again after
// a successful start is a no-op.
func (e *Executor) Start(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.cmd != nil {
		return nil
	}

	scriptPath, err := writeBootstrapScript()
	if err != nil {
		return fmt.Errorf("write bootstrap script: %w", err)
	}

	cmd := exec.CommandContext(ctx, e.pythonPath, "-u", scriptPath)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("open stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("open stdout pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("%w: %v", models.ErrKernelUnreachable, err)
	}

	e.cmd = cmd
	e.stdin = stdin
	e.reader = bufio.NewReaderSize(stdout, 1<<20)
	return nil
}

// Execute runs one cell's code in the shared namespace and returns its
// captured stdout, display outputs, and error text (if any). The
// returned Namespace is the interpreter's best-effort JSON-serializable
// snapshot of top-level bindings after the cell ran.
func (e *Executor) Execute(ctx context.Context, cellID, code string) (*Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.cmd == nil {
		return nil, models.ErrKernelUnreachable
	}

	req := execRequest{Cmd: "exec", CellID: cellID, Code: code}
	line, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode exec request: %w", err)
	}
	line = append(line, '\n')

	if _, err := e.stdin.Write(line); err != nil {
		return nil, fmt.Errorf("%w: write failed: %v", models.ErrKernelUnreachable, err)
	}

	type readResult struct {
		resp execResponse
		err  error
	}
	done := make(chan readResult, 1)
	go func() {
		raw, err := e.reader.ReadBytes('\n')
		if err != nil {
			done <- readResult{err: fmt.Errorf("%w: read failed: %v", models.ErrKernelUnreachable, err)}
			return
		}
		var resp execResponse
		if err := json.Unmarshal(raw, &resp); err != nil {
			done <- readResult{err: fmt.Errorf("decode exec response: %w", err)}
			return
		}
		done <- readResult{resp: resp}
	}()

	timeout := e.cellTimeout
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
		return nil, fmt.Errorf("cell %s: execution exceeded %s", cellID, timeout)
	case rr := <-done:
		if rr.err != nil {
			return nil, rr.err
		}
		return toResult(rr.resp), nil
	}
}

func toResult(resp execResponse) *Result {
	outputs := make([]models.Output, 0, len(resp.Outputs))
	for _, o := range resp.Outputs {
		outputs = append(outputs, models.Output{MimeType: o.MimeType, Data: o.Data})
	}

	errText := ""
	if resp.Error != nil {
		errText = *resp.Error
	}

	return &Result{
		Stdout:    resp.Stdout,
		Outputs:   outputs,
		Error:     errText,
		Namespace: resp.Namespace,
	}
}

// Shutdown asks the subprocess to exit cleanly and waits for it.
func (e *Executor) Shutdown() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.cmd == nil {
		return nil
	}

	req, _ := json.Marshal(execRequest{Cmd: "shutdown"})
	_, _ = e.stdin.Write(append(req, '\n'))
	_ = e.stdin.Close()

	err := e.cmd.Wait()
	e.cmd = nil
	return err
}
