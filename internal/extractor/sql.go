package extractor

import "regexp"

// placeholderRe matches {identifier} template placeholders substituted
// from the shared namespace before a SQL cell runs.
var placeholderRe = regexp.MustCompile(`\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// extractSQL returns every {identifier} placeholder in code as a read.
// A SQL cell never writes notebook identifiers of its own; its result
// table is addressed by the notebook's normal cell-output mechanism, not
// by a variable binding.
func extractSQL(code string) (reads, writes []string, err error) {
	seen := make(map[string]bool)
	for _, m := range placeholderRe.FindAllStringSubmatch(code, -1) {
		id := m[1]
		if !seen[id] {
			seen[id] = true
			reads = append(reads, id)
		}
	}
	return reads, nil, nil
}
