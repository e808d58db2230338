package coordinator

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carter293/Carter-Querio-notebook-sub004/internal/executor"
	"github.com/carter293/Carter-Querio-notebook-sub004/internal/kernel"
	"github.com/carter293/Carter-Querio-notebook-sub004/pkg/models"
)

// scriptedPython mirrors internal/kernel's test fake: a deterministic
// executor keyed by exact source text, so coordinator tests never need a
// real subprocess or a real kernel IPC channel.
type scriptedPython struct {
	byCode map[string]executor.Result
}

func (s *scriptedPython) Execute(_ context.Context, code string, _ map[string]any) (executor.Result, error) {
	if r, ok := s.byCode[code]; ok {
		return r, nil
	}
	return executor.Result{Error: "NameError: unknown script"}, nil
}

func newTestCoordinator(t *testing.T, byCode map[string]executor.Result) (*Coordinator, context.CancelFunc) {
	t.Helper()
	reg := executor.NewRegistry()
	require.NoError(t, reg.Register(models.LanguagePython, &scriptedPython{byCode: byCode}))
	k := kernel.New(reg, nil, nil, kernel.QueueSizes{})

	ctx, cancel := context.WithCancel(context.Background())
	go k.Run(ctx)

	c := New("nb-1", k, nil, nil)
	go c.Run(ctx)
	return c, cancel
}

func TestCoordinator_CreateCellBroadcastsImmediately(t *testing.T) {
	c, cancel := newTestCoordinator(t, nil)
	defer cancel()

	id, ch := c.Events().Subscribe()
	defer c.Events().Unsubscribe(id)

	cellID := c.CreateCell(context.Background(), models.LanguagePython, "")
	require.NotEmpty(t, cellID)

	select {
	case e := <-ch:
		assert.Equal(t, "cell_created", e.Type)
		assert.Equal(t, cellID, e.CellID)
		require.NotNil(t, e.Index)
		assert.Equal(t, 0, *e.Index)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for cell_created event")
	}
}

func TestCoordinator_CellUpdateThenRunCellProducesStatusAndMetadata(t *testing.T) {
	c, cancel := newTestCoordinator(t, map[string]executor.Result{
		"x = 10": {Namespace: map[string]any{"x": 10}},
	})
	defer cancel()

	cellID := c.CreateCell(context.Background(), models.LanguagePython, "")

	id, ch := c.Events().Subscribe()
	defer c.Events().Unsubscribe(id)

	c.CellUpdate(context.Background(), cellID, "x = 10")
	c.RunCell(context.Background(), cellID)

	var types []string
	deadline := time.After(time.Second)
loop:
	for {
		select {
		case e := <-ch:
			types = append(types, e.Type)
			if e.Type == "cell_status" && e.Status == string(models.CellStatusSuccess) {
				break loop
			}
		case <-deadline:
			break loop
		}
	}

	assert.Contains(t, types, "cell_updated")
	assert.Contains(t, types, "cell_status")
}

func TestCoordinator_DeleteCellBroadcastsAndRemovesFromMirror(t *testing.T) {
	c, cancel := newTestCoordinator(t, nil)
	defer cancel()

	cellID := c.CreateCell(context.Background(), models.LanguagePython, "")

	id, ch := c.Events().Subscribe()
	defer c.Events().Unsubscribe(id)

	c.DeleteCell(context.Background(), cellID)

	select {
	case e := <-ch:
		assert.Equal(t, "cell_deleted", e.Type)
		assert.Equal(t, cellID, e.CellID)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for cell_deleted event")
	}

	c.mu.Lock()
	_, stillPresent := c.cells[cellID]
	c.mu.Unlock()
	assert.False(t, stillPresent)
}

func TestCoordinator_AuthenticateBroadcastsAck(t *testing.T) {
	c, cancel := newTestCoordinator(t, nil)
	defer cancel()

	id, ch := c.Events().Subscribe()
	defer c.Events().Unsubscribe(id)

	c.Authenticate(context.Background())

	select {
	case e := <-ch:
		assert.Equal(t, "authenticated", e.Type)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for authenticated event")
	}
}
