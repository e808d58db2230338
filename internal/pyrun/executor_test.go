package pyrun

import (
	"context"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCmd(name string, args ...string) error {
	return exec.Command(name, args...).Run()
}

func TestToResult_MapsOutputsAndError(t *testing.T) {
	msg := "ValueError: boom"
	resp := execResponse{
		CellID:    "c1",
		Stdout:    "hello\n",
		Outputs:   []execOutput{{MimeType: "text/plain", Data: "42"}},
		Error:     &msg,
		Namespace: map[string]any{"x": float64(1)},
	}

	result := toResult(resp)
	assert.Equal(t, "hello\n", result.Stdout)
	require.Len(t, result.Outputs, 1)
	assert.Equal(t, "text/plain", result.Outputs[0].MimeType)
	assert.Equal(t, "ValueError: boom", result.Error)
	assert.Equal(t, float64(1), result.Namespace["x"])
}

func TestToResult_NoErrorIsEmptyString(t *testing.T) {
	result := toResult(execResponse{})
	assert.Equal(t, "", result.Error)
}

func TestWriteBootstrapScript_WritesEmbeddedContent(t *testing.T) {
	path, err := writeBootstrapScript()
	require.NoError(t, err)
	assert.FileExists(t, path)
}

// TestExecutor_RealPython exercises the full subprocess protocol against
// an actual python3 interpreter. It is skipped in short mode since CI
// workers don't all carry a Python toolchain.
func TestExecutor_RealPython(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping python subprocess test in short mode")
	}
	if _, err := exec.LookPath("python3"); err != nil {
		t.Skip("python3 not available")
	}

	exr := New("python3", 10*time.Second)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	require.NoError(t, exr.Start(ctx))
	defer exr.Shutdown()

	result, err := exr.Execute(ctx, "cell-1", "x = 1 + 1\nprint('hi')\nx")
	require.NoError(t, err)
	assert.Equal(t, "hi\n", result.Stdout)
	assert.Empty(t, result.Error)
	require.Len(t, result.Outputs, 1)
	assert.Equal(t, "application/json", result.Outputs[0].MimeType)
	assert.EqualValues(t, 2, result.Namespace["x"])
}

// TestExecutor_RealPython_PandasTableDisplay exercises bootstrap.py's
// real DataFrame->Output conversion (spec.md §8 scenario 5): a trailing
// pandas DataFrame expression must produce exactly one output notification
// with mime_type "application/json" and data.type "table". Skipped unless
// python3 has pandas installed.
func TestExecutor_RealPython_PandasTableDisplay(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping python subprocess test in short mode")
	}
	if _, err := exec.LookPath("python3"); err != nil {
		t.Skip("python3 not available")
	}
	if err := runCmd("python3", "-c", "import pandas"); err != nil {
		t.Skip("pandas not available")
	}

	exr := New("python3", 10*time.Second)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	require.NoError(t, exr.Start(ctx))
	defer exr.Shutdown()

	code := "import pandas as pd\n" +
		"pd.DataFrame({'a': [1, 2], 'b': [3, 4]})"
	result, err := exr.Execute(ctx, "cell-1", code)
	require.NoError(t, err)
	assert.Empty(t, result.Error)
	require.Len(t, result.Outputs, 1)
	assert.Equal(t, "application/json", result.Outputs[0].MimeType)

	data, ok := result.Outputs[0].Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "table", data["type"])
	assert.Equal(t, []any{"a", "b"}, data["columns"])
}
