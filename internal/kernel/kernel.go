// Package kernel implements the reactive notebook execution kernel: a
// single-threaded command loop hosting the executor registry, the
// dependency extractor, the dependency graph, the cell registry, the
// has-run map, and the shared namespace. One Kernel exists per active
// notebook session and runs as a dedicated OS process (cmd/kernel).
package kernel

import (
	"context"
	"fmt"

	"github.com/carter293/Carter-Querio-notebook-sub004/internal/executor"
	"github.com/carter293/Carter-Querio-notebook-sub004/internal/extractor"
	"github.com/carter293/Carter-Querio-notebook-sub004/internal/graph"
	"github.com/carter293/Carter-Querio-notebook-sub004/internal/logger"
	"github.com/carter293/Carter-Querio-notebook-sub004/pkg/models"
)

// Kernel is the single source of truth for the dependency graph, the
// has-run map, the namespace, and the cell registry (spec.md §4.4 "State
// ownership"). Not safe for concurrent use from outside Run: Submit is the
// only thread-safe entry point, and notifications are the only output.
type Kernel struct {
	graph      *graph.DependencyGraph
	registry   *cellRegistry
	namespace  *namespace
	executors  executor.Manager
	sqlAdapter sqlConnectionSetter

	commands      chan Command
	notifications chan models.CellNotification

	log *logger.Logger
}

// sqlConnectionSetter is the narrow slice of *executor.SQLExecutor the
// kernel needs for set_database_config, kept as an interface so tests can
// substitute a fake without a real database.
type sqlConnectionSetter interface {
	SetDBConnectionString(ctx context.Context, dsn string) error
}

// defaultCommandQueueSize and defaultNotificationQueueSize back New when
// the caller passes a zero QueueSizes, matching config.KernelConfig's own
// defaults so a Kernel built without a loaded config still behaves the
// same as one built from it.
const (
	defaultCommandQueueSize      = 64
	defaultNotificationQueueSize = 256
)

// QueueSizes sizes the two FIFO channels bridging a Kernel's caller (the
// coordinator, in-process or over the wire via kernelproc.Supervisor) and
// its single command loop. Mirrors config.KernelConfig's
// CommandQueueSize/NotificationQueueSize fields; zero values fall back to
// the package defaults.
type QueueSizes struct {
	Command      int
	Notification int
}

// New returns a Kernel with an empty graph, registry, namespace, and
// has-run map, per spec.md "Kernel restart semantics".
func New(executors executor.Manager, sqlAdapter sqlConnectionSetter, log *logger.Logger, queues QueueSizes) *Kernel {
	if queues.Command <= 0 {
		queues.Command = defaultCommandQueueSize
	}
	if queues.Notification <= 0 {
		queues.Notification = defaultNotificationQueueSize
	}

	return &Kernel{
		graph:         graph.New(),
		registry:      newCellRegistry(),
		namespace:     newNamespace(),
		executors:     executors,
		sqlAdapter:    sqlAdapter,
		commands:      make(chan Command, queues.Command),
		notifications: make(chan models.CellNotification, queues.Notification),
		log:           log,
	}
}

// Notifications returns the kernel's outbound FIFO notification channel.
// The coordinator's single draining task is the only reader.
func (k *Kernel) Notifications() <-chan models.CellNotification {
	return k.notifications
}

// Submit enqueues a command on the kernel's inbound FIFO queue. Fire-and-
// forget: callers never wait for a response. The error return exists so
// Kernel and kernelproc.Supervisor (the OS-process variant) satisfy the
// same interface for the coordinator; an in-process Kernel never fails.
func (k *Kernel) Submit(cmd Command) error {
	k.commands <- cmd
	return nil
}

// Run drains the command queue strictly FIFO until a shutdown command is
// processed or ctx is cancelled, then closes the notification channel and
// returns. Run is the kernel's single thread of execution; it must be
// called exactly once, from a single goroutine.
func (k *Kernel) Run(ctx context.Context) {
	defer close(k.notifications)
	for {
		select {
		case <-ctx.Done():
			return
		case cmd := <-k.commands:
			if k.handle(ctx, cmd) {
				return
			}
		}
	}
}

// handle processes one command and reports whether the loop should stop.
func (k *Kernel) handle(ctx context.Context, cmd Command) (stop bool) {
	switch cmd.kind {
	case kindRegisterCell:
		k.handleRegisterCell(cmd.cellID, cmd.code, cmd.language)
	case kindRemoveCell:
		k.handleRemoveCell(cmd.cellID)
	case kindExecute:
		k.handleExecute(ctx, cmd.cellID)
	case kindSetDatabaseConfig:
		k.handleSetDatabaseConfig(ctx, cmd.connectionString)
	case kindShutdown:
		return true
	}
	return false
}

func (k *Kernel) emit(n models.CellNotification) {
	k.notifications <- n
}

// handleRegisterCell implements spec.md §4.4 register_cell.
func (k *Kernel) handleRegisterCell(cellID, code string, language models.Language) {
	reads, writes, err := extractor.Extract(code, language)
	if err != nil {
		k.registry.register(cellID, code, language)
		k.registry.setStatus(cellID, models.CellStatusBlocked)
		k.emit(models.NewErrorNotification(cellID, err.Error()))
		k.emit(models.NewStatusNotification(cellID, models.CellStatusBlocked))
		return
	}

	if k.graph.WouldCreateCycle(cellID, reads, writes) {
		k.registry.register(cellID, code, language)
		k.registry.setStatus(cellID, models.CellStatusBlocked)
		k.emit(models.NewErrorNotification(cellID, fmt.Sprintf("%s: %s", models.ErrCycleDetected, cellID)))
		k.emit(models.NewStatusNotification(cellID, models.CellStatusBlocked))
		return
	}

	k.graph.UpdateCell(cellID, reads, writes)
	descendants := k.graph.Descendants(cellID)
	k.registry.register(cellID, code, language)
	k.registry.clearHasRun(append(descendants, cellID)...)
	k.registry.setStatus(cellID, models.CellStatusIdle)

	k.emit(models.NewMetadataNotification(cellID, reads, writes))
	k.emit(models.NewStatusNotification(cellID, models.CellStatusIdle))
}

// handleRemoveCell implements spec.md §4.4 remove_cell.
func (k *Kernel) handleRemoveCell(cellID string) {
	descendants := k.graph.Descendants(cellID)
	k.graph.RemoveCell(cellID)
	k.registry.clearHasRun(descendants...)
	k.registry.remove(cellID)
	k.emit(models.NewMetadataNotification(cellID, nil, nil))
}

// handleExecute implements spec.md §4.4 execute.
func (k *Kernel) handleExecute(ctx context.Context, cellID string) {
	cell, ok := k.registry.get(cellID)
	if !ok {
		k.emit(models.NewErrorNotification(cellID, models.ErrCellNotRegistered.Error()))
		return
	}

	order, err := k.graph.ExecutionOrderForExecute(cellID, k.registry.isStale)
	if err != nil {
		k.emit(models.NewErrorNotification(cellID, err.Error()))
		k.registry.setStatus(cellID, models.CellStatusBlocked)
		k.emit(models.NewStatusNotification(cellID, models.CellStatusBlocked))
		return
	}

	for _, id := range order {
		k.runOne(ctx, id, cell, cellID)
	}
}

// runOne runs a single cell within an execute cascade, per spec.md §4.4
// execute steps 1-4. triggerID is the cell the execute command named,
// used only to look up its already-fetched registry entry when id ==
// triggerID (a minor allocation avoidance, not a semantic distinction).
func (k *Kernel) runOne(ctx context.Context, id string, triggerCell *registeredCell, triggerID string) {
	reg := triggerCell
	if id != triggerID {
		var ok bool
		reg, ok = k.registry.get(id)
		if !ok {
			return
		}
	}

	for _, ancestorID := range k.graph.Ancestors(id) {
		switch k.registry.status(ancestorID) {
		case models.CellStatusError, models.CellStatusBlocked:
			k.registry.setStatus(id, models.CellStatusBlocked)
			k.emit(models.NewStatusNotification(id, models.CellStatusBlocked))
			return
		}
	}

	k.registry.setStatus(id, models.CellStatusRunning)
	k.emit(models.NewStatusNotification(id, models.CellStatusRunning))

	exec, err := k.executors.Get(reg.language)
	if err != nil {
		k.registry.setStatus(id, models.CellStatusError)
		k.emit(models.NewErrorNotification(id, err.Error()))
		k.emit(models.NewStatusNotification(id, models.CellStatusError))
		return
	}

	result, err := exec.Execute(ctx, reg.code, k.namespace.snapshot())
	if err != nil {
		k.registry.setStatus(id, models.CellStatusError)
		k.emit(models.NewErrorNotification(id, err.Error()))
		k.emit(models.NewStatusNotification(id, models.CellStatusError))
		return
	}

	if result.Stdout != "" {
		k.emit(models.NewStdoutNotification(id, result.Stdout))
	}
	for _, out := range result.Outputs {
		k.emit(models.NewOutputNotification(id, out))
	}

	if result.Error != "" {
		k.registry.setStatus(id, models.CellStatusError)
		k.emit(models.NewErrorNotification(id, result.Error))
		k.emit(models.NewStatusNotification(id, models.CellStatusError))
		return
	}

	k.namespace.merge(result.Namespace)
	k.registry.hasRun[id] = true
	k.registry.setStatus(id, models.CellStatusSuccess)
	k.emit(models.NewStatusNotification(id, models.CellStatusSuccess))
}

// handleSetDatabaseConfig implements spec.md §4.4 set_database_config. No
// broadcast to the graph; this is purely executor-side configuration.
func (k *Kernel) handleSetDatabaseConfig(ctx context.Context, connectionString string) {
	if k.sqlAdapter == nil {
		return
	}
	if err := k.sqlAdapter.SetDBConnectionString(ctx, connectionString); err != nil {
		k.log.Error("set_database_config failed", "error", err)
	}
}
