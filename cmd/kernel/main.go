// Kernel process - one notebook session's reactive execution core.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/carter293/Carter-Querio-notebook-sub004/internal/config"
	"github.com/carter293/Carter-Querio-notebook-sub004/internal/executor"
	"github.com/carter293/Carter-Querio-notebook-sub004/internal/kernel"
	"github.com/carter293/Carter-Querio-notebook-sub004/internal/logger"
	"github.com/carter293/Carter-Querio-notebook-sub004/internal/pyrun"
	"github.com/carter293/Carter-Querio-notebook-sub004/internal/sqlrun"
	"github.com/carter293/Carter-Querio-notebook-sub004/pkg/models"
)

// wireNotification is the envelope internal/kernelproc.Supervisor expects on
// stdout: a CellNotification tagged with a type discriminant, since
// models.CellNotification itself carries no type field.
type wireNotification struct {
	Type string `json:"type"`
	models.CellNotification
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}
	appLogger := logger.New(cfg.Logging)

	pyExec := pyrun.New(cfg.Kernel.PythonPath, cfg.Kernel.CellTimeout)
	sqlExec := sqlrun.New(nil)

	registry := executor.NewRegistry()
	if err := registry.Register(models.LanguagePython, executor.NewPythonExecutor(pyExec)); err != nil {
		appLogger.Error("failed to register python executor", "error", err)
		os.Exit(1)
	}
	sqlAdapter := executor.NewSQLExecutor(sqlExec)
	if err := registry.Register(models.LanguageSQL, sqlAdapter); err != nil {
		appLogger.Error("failed to register sql executor", "error", err)
		os.Exit(1)
	}

	k := kernel.New(registry, sqlAdapter, appLogger, kernel.QueueSizes{
		Command:      cfg.Kernel.CommandQueueSize,
		Notification: cfg.Kernel.NotificationQueueSize,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := pyExec.Start(ctx); err != nil {
		appLogger.Error("failed to start python subprocess", "error", err)
		os.Exit(1)
	}

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigs
		appLogger.Info("kernel process received shutdown signal")
		cancel()
	}()

	go k.Run(ctx)

	done := make(chan struct{})
	go writeNotifications(os.Stdout, k.Notifications(), done)

	readCommands(ctx, os.Stdin, k, appLogger)

	cancel()
	<-done
}

// readCommands decodes newline-delimited JSON kernel.Commands from r and
// submits each to k, until EOF or ctx is cancelled. A line that fails to
// decode is logged and skipped.
func readCommands(ctx context.Context, r io.Reader, k *kernel.Kernel, log *logger.Logger) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var cmd kernel.Command
		if err := json.Unmarshal(line, &cmd); err != nil {
			log.Error("dropped malformed kernel command", "error", err)
			continue
		}
		if err := k.Submit(cmd); err != nil {
			log.Error("submit failed", "error", err)
		}
	}
}

// writeNotifications encodes each outbound CellNotification as one
// newline-delimited JSON line on w, closing done once the channel drains.
func writeNotifications(w io.Writer, notifications <-chan models.CellNotification, done chan<- struct{}) {
	defer close(done)
	enc := json.NewEncoder(w)
	for n := range notifications {
		if err := enc.Encode(wireNotification{Type: "cell_notification", CellNotification: n}); err != nil {
			return
		}
	}
}
