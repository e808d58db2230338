package kernel

import "github.com/carter293/Carter-Querio-notebook-sub004/pkg/models"

// registeredCell is the kernel's registry entry: the cell's current code
// and language, per spec.md §3 "the kernel stores only (code, language)".
type registeredCell struct {
	code     string
	language models.Language

	// lastStatus tracks the cell's status for upstream-blocked detection
	// during a cascade (spec.md §4.4 step 1). It is not part of the
	// registry's persistence contract, only a scheduling aid.
	lastStatus models.CellStatus
}

// cellRegistry is the kernel's registry[cell] -> (code, language) mapping,
// plus the has-run map. Both are kernel-owned state; nothing outside the
// kernel reads or writes them (spec.md §4.4 "State ownership").
type cellRegistry struct {
	cells  map[string]*registeredCell
	hasRun map[string]bool
}

func newCellRegistry() *cellRegistry {
	return &cellRegistry{
		cells:  make(map[string]*registeredCell),
		hasRun: make(map[string]bool),
	}
}

func (r *cellRegistry) register(cellID, code string, language models.Language) {
	r.cells[cellID] = &registeredCell{code: code, language: language, lastStatus: models.CellStatusIdle}
}

func (r *cellRegistry) remove(cellID string) {
	delete(r.cells, cellID)
	delete(r.hasRun, cellID)
}

func (r *cellRegistry) get(cellID string) (*registeredCell, bool) {
	c, ok := r.cells[cellID]
	return c, ok
}

func (r *cellRegistry) clearHasRun(cellIDs ...string) {
	for _, id := range cellIDs {
		r.hasRun[id] = false
	}
}

func (r *cellRegistry) isStale(cellID string) bool {
	return !r.hasRun[cellID]
}

func (r *cellRegistry) setStatus(cellID string, status models.CellStatus) {
	if c, ok := r.cells[cellID]; ok {
		c.lastStatus = status
	}
}

func (r *cellRegistry) status(cellID string) models.CellStatus {
	if c, ok := r.cells[cellID]; ok {
		return c.lastStatus
	}
	return models.CellStatusIdle
}
