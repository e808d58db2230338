// Package executor provides the language-keyed executor interface and
// registry the kernel dispatches cell execution through.
//
// Built-in executors:
//   - python: a long-lived subprocess namespace (internal/pyrun)
//   - sql: queries against the notebook's configured database (internal/sqlrun)
//
// Custom executors can be registered at runtime through the Manager.
package executor

import (
	"context"
	"fmt"

	"github.com/carter293/Carter-Querio-notebook-sub004/pkg/models"
)

// Result is a language-neutral cell execution outcome.
type Result struct {
	Stdout    string
	Outputs   []models.Output
	Error     string
	Namespace map[string]any
}

// Executor is the interface every language executor implements.
type Executor interface {
	// Execute runs code against namespace (the shared variable bindings
	// visible to the cell) and returns its outcome.
	Execute(ctx context.Context, code string, namespace map[string]any) (Result, error)
}

// ExecutorFunc adapts an ordinary function to the Executor interface.
type ExecutorFunc func(ctx context.Context, code string, namespace map[string]any) (Result, error)

// Execute calls f.
func (f ExecutorFunc) Execute(ctx context.Context, code string, namespace map[string]any) (Result, error) {
	return f(ctx, code, namespace)
}

// Manager manages the registration and retrieval of executors by
// language.
type Manager interface {
	Register(language models.Language, exec Executor) error
	Get(language models.Language) (Executor, error)
	Has(language models.Language) bool
	List() []models.Language
}

var _ Manager = (*Registry)(nil)

func errNotFound(language models.Language) error {
	return fmt.Errorf("%w: %s", models.ErrUnknownLanguage, language)
}
