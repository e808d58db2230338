// Package kernelproc is the coordinator-side process supervisor for a
// kernel running as a dedicated OS process (cmd/kernel), so that a crash
// in user code cannot corrupt the coordinator's own state (spec.md §4.4
// "Isolation"). It speaks the same newline-delimited JSON protocol over
// the child's stdin/stdout that internal/pyrun speaks to its Python
// subprocess, applied one layer up.
package kernelproc

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os/exec"
	"sync"

	"github.com/carter293/Carter-Querio-notebook-sub004/internal/kernel"
	"github.com/carter293/Carter-Querio-notebook-sub004/pkg/models"
)

// Supervisor owns one kernel subprocess for the lifetime of a session.
// Submit is safe to call from any goroutine; notifications are delivered
// on the channel returned by Notifications.
type Supervisor struct {
	binaryPath string

	mu    sync.Mutex
	cmd   *exec.Cmd
	stdin io.WriteCloser

	notifications chan models.CellNotification
}

// New returns a Supervisor that will exec binaryPath on Start.
func New(binaryPath string) *Supervisor {
	return &Supervisor{
		binaryPath:    binaryPath,
		notifications: make(chan models.CellNotification, 256),
	}
}

// Start execs the kernel binary and begins forwarding its notification
// stream. It is idempotent.
func (s *Supervisor) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cmd != nil {
		return nil
	}

	cmd := exec.CommandContext(ctx, s.binaryPath)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("open kernel stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("open kernel stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("%w: %v", models.ErrKernelUnreachable, err)
	}

	s.cmd = cmd
	s.stdin = stdin
	go s.readNotifications(bufio.NewReaderSize(stdout, 1<<20))
	return nil
}

func (s *Supervisor) readNotifications(r *bufio.Reader) {
	defer close(s.notifications)
	for {
		line, err := r.ReadBytes('\n')
		if len(line) > 0 {
			var n models.CellNotification
			if json.Unmarshal(line, &n) == nil {
				s.notifications <- n
			}
		}
		if err != nil {
			return
		}
	}
}

// Notifications returns the kernel process's outbound notification
// stream, translated from the wire format.
func (s *Supervisor) Notifications() <-chan models.CellNotification {
	return s.notifications
}

// Submit writes cmd as one line of the kernel IPC protocol to the
// subprocess's stdin. Fire-and-forget: it does not wait for a response.
func (s *Supervisor) Submit(cmd kernel.Command) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stdin == nil {
		return models.ErrKernelUnreachable
	}

	line, err := json.Marshal(cmd)
	if err != nil {
		return fmt.Errorf("encode kernel command: %w", err)
	}
	line = append(line, '\n')
	if _, err := s.stdin.Write(line); err != nil {
		return fmt.Errorf("%w: write failed: %v", models.ErrKernelUnreachable, err)
	}
	return nil
}

// Shutdown sends a shutdown command, closes stdin, and waits for the
// subprocess to exit.
func (s *Supervisor) Shutdown() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cmd == nil {
		return nil
	}

	line, _ := json.Marshal(kernel.Shutdown())
	_, _ = s.stdin.Write(append(line, '\n'))
	_ = s.stdin.Close()

	err := s.cmd.Wait()
	s.cmd = nil
	return err
}
