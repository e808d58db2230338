// Package coordinator implements the asynchronous orchestrator bridging
// the gateway to a session's kernel (spec.md §4.5). It owns one kernel, a
// mirror of the notebook's cells, and a broadcaster; every client command
// becomes a non-blocking kernel command submission, and a single
// background task drains the kernel's notification stream into
// client-facing events.
package coordinator

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/carter293/Carter-Querio-notebook-sub004/internal/broadcast"
	"github.com/carter293/Carter-Querio-notebook-sub004/internal/kernel"
	"github.com/carter293/Carter-Querio-notebook-sub004/internal/logger"
	"github.com/carter293/Carter-Querio-notebook-sub004/internal/storage"
	"github.com/carter293/Carter-Querio-notebook-sub004/pkg/models"
)

// kernelHandle is the narrow slice of a kernel the coordinator needs.
// internal/kernel.Kernel (in-process) and internal/kernelproc.Supervisor
// (OS-process) both satisfy it.
type kernelHandle interface {
	Submit(cmd kernel.Command) error
	Notifications() <-chan models.CellNotification
}

// Coordinator owns one kernel, a mirror of the notebook's cells, and a
// broadcaster for one active session. Stateless with respect to
// execution results: those live in the kernel and are only mirrored here
// for the gateway's benefit.
type Coordinator struct {
	notebookID string
	k          kernelHandle
	events     *broadcast.Broadcaster[ServerEvent]
	repo       *storage.NotebookRepository // optional; nil disables persistence
	log        *logger.Logger

	mu    sync.Mutex
	cells map[string]*models.Cell
	order []string
}

// New returns a Coordinator for notebookID, bound to kernel handle k. repo
// may be nil, in which case persistence is skipped entirely (best-effort
// per spec.md §5.7).
func New(notebookID string, k kernelHandle, repo *storage.NotebookRepository, log *logger.Logger) *Coordinator {
	return &Coordinator{
		notebookID: notebookID,
		k:          k,
		events:     broadcast.New[ServerEvent](),
		repo:       repo,
		log:        log,
		cells:      make(map[string]*models.Cell),
	}
}

// Events returns the coordinator's outbound event stream for the gateway
// to forward to its one WebSocket connection.
func (c *Coordinator) Events() *broadcast.Broadcaster[ServerEvent] {
	return c.events
}

// Run starts the single background task that drains kernel notifications
// and publishes translated events, until ctx is cancelled or the kernel's
// notification channel closes (kernel death).
func (c *Coordinator) Run(ctx context.Context) {
	notifications := c.k.Notifications()
	for {
		select {
		case <-ctx.Done():
			return
		case n, ok := <-notifications:
			if !ok {
				c.events.Publish(kernelErrorEvent(models.ErrKernelUnreachable))
				return
			}
			c.applyNotification(n)
			c.events.Publish(translate(n))
		}
	}
}

// applyNotification updates the cell mirror's transient display state
// from one kernel notification, per spec.md §4.5 "Output draining".
func (c *Coordinator) applyNotification(n models.CellNotification) {
	c.mu.Lock()
	defer c.mu.Unlock()

	cell, ok := c.cells[n.CellID]
	if !ok {
		return
	}
	switch n.Output.Channel {
	case models.ChannelStatus:
		if s, ok := n.Output.Data.(string); ok {
			cell.Status = models.CellStatus(s)
		}
	case models.ChannelStdout:
		if s, ok := n.Output.Data.(string); ok {
			cell.Stdout = s
		}
	case models.ChannelOutput:
		cell.Outputs = append(cell.Outputs, models.Output{MimeType: n.Output.MimeType, Data: n.Output.Data})
	case models.ChannelError:
		if s, ok := n.Output.Data.(string); ok {
			cell.Error = s
		}
	case models.ChannelMetadata:
		if payload, ok := n.Output.Data.(models.MetadataPayload); ok {
			cell.Reads = payload.Reads
			cell.Writes = payload.Writes
		}
	}
}

// LoadNotebook seeds the cell mirror from a previously persisted notebook
// and registers every cell with the kernel in saved order, so reopening a
// notebook resumes with its last-saved cells already known to both the
// mirror and the kernel's registry. Intended to run once, immediately
// after New, before Run starts draining notifications.
func (c *Coordinator) LoadNotebook(ctx context.Context, nb *models.Notebook) {
	if nb == nil {
		return
	}

	c.mu.Lock()
	c.order = make([]string, 0, len(nb.Cells))
	for _, nc := range nb.Cells {
		cell := &models.Cell{ID: nc.ID, Language: nc.Type, Code: nc.Code, Status: models.CellStatusIdle}
		c.cells[nc.ID] = cell
		c.order = append(c.order, nc.ID)
	}
	cells := append([]*models.Cell(nil), c.cellsInOrderLocked()...)
	c.mu.Unlock()

	for _, cell := range cells {
		if err := c.k.Submit(kernel.RegisterCell(cell.ID, cell.Code, cell.Language)); err != nil {
			c.logError("submit register_cell failed during load", err)
		}
	}
}

// cellsInOrderLocked returns the mirror's cells in saved order. Callers
// must hold c.mu.
func (c *Coordinator) cellsInOrderLocked() []*models.Cell {
	cells := make([]*models.Cell, 0, len(c.order))
	for _, id := range c.order {
		cells = append(cells, c.cells[id])
	}
	return cells
}

// Authenticate handles the no-op authenticate command.
func (c *Coordinator) Authenticate(context.Context) {
	c.events.Publish(authenticatedEvent())
}

// CellUpdate handles spec.md §4.5's cell_update(cell_id, code): updates
// the mirror, persists best-effort, and submits a register_cell command.
// Client code must send this before RunCell for the same cell so the
// kernel's FIFO ordering guarantees the execute uses the latest code.
func (c *Coordinator) CellUpdate(ctx context.Context, cellID, code string) {
	c.mu.Lock()
	cell, ok := c.cells[cellID]
	if !ok {
		c.mu.Unlock()
		return
	}
	cell.Code = code
	language := cell.Language
	c.mu.Unlock()

	c.persistBestEffort(ctx)

	if err := c.k.Submit(kernel.RegisterCell(cellID, code, language)); err != nil {
		c.logError("submit register_cell failed", err)
	}
}

// RunCell handles spec.md §4.5's run_cell(cell_id).
func (c *Coordinator) RunCell(_ context.Context, cellID string) {
	if err := c.k.Submit(kernel.Execute(cellID)); err != nil {
		c.logError("submit execute failed", err)
	}
}

// CreateCell handles spec.md §4.5's create_cell(language, after_cell_id?):
// an immediate optimistic cell_created broadcast, followed by registering
// an empty cell with the kernel so it has a registry entry to update.
func (c *Coordinator) CreateCell(ctx context.Context, language models.Language, afterCellID string) string {
	cellID := uuid.New().String()
	cell := &models.Cell{ID: cellID, Language: language, Status: models.CellStatusIdle}

	c.mu.Lock()
	index := len(c.order)
	if afterCellID != "" {
		for i, id := range c.order {
			if id == afterCellID {
				index = i + 1
				break
			}
		}
	}
	c.order = append(c.order, "")
	copy(c.order[index+1:], c.order[index:])
	c.order[index] = cellID
	c.cells[cellID] = cell
	c.mu.Unlock()

	idx := index
	c.events.Publish(cellCreatedEvent(cell, &idx))
	c.persistBestEffort(ctx)

	if err := c.k.Submit(kernel.RegisterCell(cellID, "", language)); err != nil {
		c.logError("submit register_cell failed", err)
	}
	return cellID
}

// DeleteCell handles spec.md §4.5's delete_cell(cell_id).
func (c *Coordinator) DeleteCell(ctx context.Context, cellID string) {
	c.mu.Lock()
	delete(c.cells, cellID)
	for i, id := range c.order {
		if id == cellID {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	c.mu.Unlock()

	c.events.Publish(cellDeletedEvent(cellID))
	c.persistBestEffort(ctx)

	if err := c.k.Submit(kernel.RemoveCell(cellID)); err != nil {
		c.logError("submit remove_cell failed", err)
	}
}

// UpdateDBConnection handles spec.md §4.5's update_db_connection.
func (c *Coordinator) UpdateDBConnection(ctx context.Context, connectionString string) {
	if err := c.k.Submit(kernel.SetDatabaseConfig(connectionString)); err != nil {
		c.logError("submit set_database_config failed", err)
	}
	c.persistBestEffort(ctx)
}

// Shutdown submits a shutdown command to the kernel.
func (c *Coordinator) Shutdown() {
	_ = c.k.Submit(kernel.Shutdown())
}

// persistBestEffort writes the current mirror to durable storage. Errors
// are logged, never surfaced to the client: persistence is best-effort
// per spec.md §5.7/§6 "Collaborators".
func (c *Coordinator) persistBestEffort(ctx context.Context) {
	if c.repo == nil {
		return
	}

	c.mu.Lock()
	nb := &models.Notebook{ID: c.notebookID}
	nb.Cells = make([]models.NotebookCell, 0, len(c.order))
	for _, id := range c.order {
		cell := c.cells[id]
		nb.Cells = append(nb.Cells, models.NotebookCell{ID: cell.ID, Type: cell.Language, Code: cell.Code})
	}
	c.mu.Unlock()

	if err := c.repo.Update(ctx, nb); err != nil {
		c.logError("persist notebook failed", err)
	}
}

func (c *Coordinator) logError(msg string, err error) {
	if c.log != nil {
		c.log.Error(msg, "error", err, "notebook_id", c.notebookID)
	}
}
