// Package sqlrun executes SQL cells against the notebook's configured
// database connection, substituting {identifier} placeholders from the
// shared namespace before the query is sent.
package sqlrun

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"

	"github.com/expr-lang/expr"
	"github.com/uptrace/bun"

	"github.com/carter293/Carter-Querio-notebook-sub004/pkg/models"
)

// placeholderRe matches {name} and {name|default-expr}. default-expr is an
// expr-lang expression evaluated against the namespace when name is absent
// from it, so a cell can write `LIMIT {limit|100}` or
// `LIMIT {limit|default_limit*2}` without requiring the caller to have
// defined the variable first.
var placeholderRe = regexp.MustCompile(`\{([A-Za-z_][A-Za-z0-9_]*)(?:\|([^{}]+))?\}`)

// Executor runs SQL cells against a single bun.DB connection. Not safe
// for concurrent use; the kernel's single-threaded command loop is the
// only caller.
type Executor struct {
	db *bun.DB
}

// New returns an Executor bound to db. db is nil until a notebook has a
// database connection configured; Execute rejects SQL cells until then.
func New(db *bun.DB) *Executor {
	return &Executor{db: db}
}

// SetDB swaps the connection a set_database_config command installs,
// closing whatever connection was previously configured.
func (e *Executor) SetDB(db *bun.DB) {
	if e.db != nil {
		_ = e.db.Close()
	}
	e.db = db
}

// Execute substitutes {identifier} (and {identifier|default}) placeholders
// in code from namespace, runs the resulting query, and returns its rows
// as a models.Table output. A placeholder missing from namespace falls
// back to its default expression, evaluated with expr-lang against the
// namespace itself so a default can reference other variables.
func (e *Executor) Execute(ctx context.Context, code string, namespace map[string]any) (models.Output, error) {
	if e.db == nil {
		return models.Output{}, models.ErrNoDatabaseConfig
	}

	query, err := substitutePlaceholders(code, namespace)
	if err != nil {
		return models.Output{}, err
	}

	rows, err := e.db.QueryContext(ctx, query)
	if err != nil {
		return models.Output{}, fmt.Errorf("execute query: %w", err)
	}
	defer rows.Close()

	table, err := scanTable(rows)
	if err != nil {
		return models.Output{}, fmt.Errorf("scan result set: %w", err)
	}

	return models.Output{MimeType: models.MimeApplicationJSON, Data: table}, nil
}

func substitutePlaceholders(code string, namespace map[string]any) (string, error) {
	var firstErr error
	result := placeholderRe.ReplaceAllStringFunc(code, func(match string) string {
		groups := placeholderRe.FindStringSubmatch(match)
		name, defaultExpr := groups[1], groups[2]

		value, ok := namespace[name]
		if !ok {
			if defaultExpr == "" {
				if firstErr == nil {
					firstErr = fmt.Errorf("placeholder {%s}: %w", name, models.ErrCellNotFound)
				}
				return match
			}
			resolved, err := evalDefault(name, defaultExpr, namespace)
			if err != nil {
				if firstErr == nil {
					firstErr = err
				}
				return match
			}
			value = resolved
		}

		literal := toSQLLiteral(value)
		return literal
	})
	if firstErr != nil {
		return "", firstErr
	}
	return result, nil
}

// evalDefault compiles and runs defaultExpr with the namespace as its
// environment, so a default can reference other namespace variables (e.g.
// {limit|page_size*2}) rather than only a fixed constant.
func evalDefault(name, defaultExpr string, namespace map[string]any) (any, error) {
	program, err := expr.Compile(defaultExpr, expr.Env(namespace))
	if err != nil {
		return nil, fmt.Errorf("compile default for placeholder {%s}: %w", name, err)
	}
	out, err := expr.Run(program, namespace)
	if err != nil {
		return nil, fmt.Errorf("evaluate default for placeholder {%s}: %w", name, err)
	}
	return out, nil
}

// toSQLLiteral renders a namespace value as a SQL literal: strings get
// quoted, nil becomes NULL, everything else is formatted as-is.
func toSQLLiteral(value any) string {
	switch v := value.(type) {
	case string:
		return "'" + escapeSingleQuotes(v) + "'"
	case nil:
		return "NULL"
	default:
		return fmt.Sprintf("%v", v)
	}
}

func escapeSingleQuotes(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '\'' {
			out = append(out, '\'', '\'')
			continue
		}
		out = append(out, s[i])
	}
	return string(out)
}

func scanTable(rows *sql.Rows) (models.Table, error) {
	columns, err := rows.Columns()
	if err != nil {
		return models.Table{}, err
	}

	var resultRows [][]any
	for rows.Next() {
		values := make([]any, len(columns))
		pointers := make([]any, len(columns))
		for i := range values {
			pointers[i] = &values[i]
		}
		if err := rows.Scan(pointers...); err != nil {
			return models.Table{}, err
		}
		resultRows = append(resultRows, values)
	}
	if err := rows.Err(); err != nil {
		return models.Table{}, err
	}

	return models.NewTable(columns, resultRows), nil
}
