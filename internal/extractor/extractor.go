// Package extractor derives the read/write identifier sets a cell's
// source code implies, without executing it. The kernel uses these sets
// to place a cell in the dependency graph before it ever runs.
package extractor

import (
	"fmt"

	"github.com/carter293/Carter-Querio-notebook-sub004/pkg/models"
)

// Extract returns the top-level identifiers code reads from and writes
// to, for the given language. It never runs code; it is a static,
// best-effort analysis and errs on the side of over-approximating reads.
func Extract(code string, language models.Language) (reads, writes []string, err error) {
	switch language {
	case models.LanguagePython:
		return extractPython(code)
	case models.LanguageSQL:
		return extractSQL(code)
	default:
		return nil, nil, fmt.Errorf("%w: %s", models.ErrUnknownLanguage, language)
	}
}
