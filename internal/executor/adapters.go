package executor

import (
	"context"

	"github.com/carter293/Carter-Querio-notebook-sub004/internal/pyrun"
	"github.com/carter293/Carter-Querio-notebook-sub004/internal/sqlrun"
	"github.com/carter293/Carter-Querio-notebook-sub004/pkg/models"
)

// PythonExecutor adapts a pyrun.Executor (the long-lived Python
// subprocess) to the Executor interface. It ignores the namespace
// argument: the subprocess owns its own globals() across calls.
type PythonExecutor struct {
	runner *pyrun.Executor
}

// NewPythonExecutor wraps runner as an Executor.
func NewPythonExecutor(runner *pyrun.Executor) *PythonExecutor {
	return &PythonExecutor{runner: runner}
}

// Execute runs code in the subprocess's shared namespace.
func (p *PythonExecutor) Execute(ctx context.Context, code string, _ map[string]any) (Result, error) {
	res, err := p.runner.Execute(ctx, "", code)
	if err != nil {
		return Result{}, err
	}
	return Result{
		Stdout:    res.Stdout,
		Outputs:   res.Outputs,
		Error:     res.Error,
		Namespace: res.Namespace,
	}, nil
}

// SQLExecutor adapts a sqlrun.Executor to the Executor interface.
type SQLExecutor struct {
	runner *sqlrun.Executor
}

// NewSQLExecutor wraps runner as an Executor.
func NewSQLExecutor(runner *sqlrun.Executor) *SQLExecutor {
	return &SQLExecutor{runner: runner}
}

// Execute substitutes namespace placeholders and runs code as SQL.
func (s *SQLExecutor) Execute(ctx context.Context, code string, namespace map[string]any) (Result, error) {
	out, err := s.runner.Execute(ctx, code, namespace)
	if err != nil {
		return Result{Error: err.Error()}, err
	}
	return Result{Outputs: []models.Output{out}, Namespace: namespace}, nil
}

// SetDBConnectionString opens a new connection for dsn and swaps it in,
// closing whatever connection was previously configured. It implements
// the kernel's sqlConnectionSetter interface for set_database_config.
func (s *SQLExecutor) SetDBConnectionString(ctx context.Context, dsn string) error {
	db, err := sqlrun.Open(dsn)
	if err != nil {
		return err
	}
	s.runner.SetDB(db)
	return nil
}
