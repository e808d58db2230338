package kernelproc

import (
	"context"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carter293/Carter-Querio-notebook-sub004/internal/kernel"
	"github.com/carter293/Carter-Querio-notebook-sub004/pkg/models"
)

func TestSupervisor_Start_MissingBinaryReturnsError(t *testing.T) {
	sup := New("/no/such/kernel/binary")
	err := sup.Start(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrKernelUnreachable)
}

func TestSupervisor_Submit_BeforeStartReturnsErrKernelUnreachable(t *testing.T) {
	sup := New("/no/such/kernel/binary")
	err := sup.Submit(kernel.Execute("c1"))
	assert.ErrorIs(t, err, models.ErrKernelUnreachable)
}

// TestSupervisor_SubmitRoundTrip exercises the real stdin/stdout pipe
// wiring against "cat" standing in for a kernel binary: whatever Submit
// writes to stdin, cat echoes straight back out stdout, so a
// CellNotification should surface carrying the same cell_id field
// (the one JSON key both kernel.Command and models.CellNotification
// share). Skipped where "cat" isn't on PATH.
func TestSupervisor_SubmitRoundTrip(t *testing.T) {
	if _, err := exec.LookPath("cat"); err != nil {
		t.Skip("cat not available")
	}

	sup := New("cat")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.NoError(t, sup.Start(ctx))
	defer sup.Shutdown()

	require.NoError(t, sup.Submit(kernel.RegisterCell("cell-1", "x = 1", models.LanguagePython)))

	select {
	case n := <-sup.Notifications():
		assert.Equal(t, "cell-1", n.CellID)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for echoed notification")
	}
}
