// Package graph maintains the notebook's reactive dependency graph: which
// cell last wrote each identifier, and which cells read identifiers
// written by which other cells. Edges are derived, never stored directly
// by callers; callers register a cell's reads/writes and the graph
// recomputes the edges touching that cell.
package graph

import (
	"fmt"
	"sort"

	"github.com/carter293/Carter-Querio-notebook-sub004/pkg/models"
)

// cellDeps is the graph's per-cell bookkeeping: the identifier sets a
// cell was last registered with.
type cellDeps struct {
	reads  map[string]bool
	writes map[string]bool
}

// DependencyGraph is the kernel's single source of truth for cell
// dependencies. It is not safe for concurrent use; the kernel's
// single-threaded command loop is the only caller.
type DependencyGraph struct {
	cells map[string]*cellDeps

	// varWriters maps an identifier to the cell that currently writes it.
	// Only one cell is the writer of a given identifier at a time; when a
	// second cell registers a write to an identifier already owned by
	// another cell, UpdateCell makes the most recently registered cell its
	// writer.
	varWriters map[string]string
}

// New returns an empty DependencyGraph.
func New() *DependencyGraph {
	return &DependencyGraph{
		cells:      make(map[string]*cellDeps),
		varWriters: make(map[string]string),
	}
}

// WouldCreateCycle reports whether registering a cell with the given
// reads/writes would create a cycle, without mutating the graph. The
// kernel calls this before UpdateCell so a rejected registration never
// leaves partial state behind.
func (g *DependencyGraph) WouldCreateCycle(cellID string, reads, writes []string) bool {
	sim := g.simulate(cellID, reads, writes)
	_, err := sim.executionOrder(cellID)
	return err != nil
}

// UpdateCell registers cellID's reads/writes, replacing any prior
// registration for that cell. Callers must have already confirmed
// WouldCreateCycle is false; UpdateCell itself does not re-check, so it
// can be used for the atomic "simulate, then commit" pattern without
// paying for the cycle check twice.
func (g *DependencyGraph) UpdateCell(cellID string, reads, writes []string) {
	g.removeCellLocked(cellID)

	deps := &cellDeps{reads: toSet(reads), writes: toSet(writes)}
	g.cells[cellID] = deps
	for w := range deps.writes {
		g.varWriters[w] = cellID
	}
}

// RemoveCell deletes cellID and all identifiers it was the writer of.
func (g *DependencyGraph) RemoveCell(cellID string) {
	g.removeCellLocked(cellID)
}

func (g *DependencyGraph) removeCellLocked(cellID string) {
	old, ok := g.cells[cellID]
	if !ok {
		return
	}
	for w := range old.writes {
		if g.varWriters[w] == cellID {
			delete(g.varWriters, w)
		}
	}
	delete(g.cells, cellID)
}

// parents returns the cell IDs that cellID directly depends on: the
// writers of every identifier cellID reads.
func (g *DependencyGraph) parents(cellID string) []string {
	deps, ok := g.cells[cellID]
	if !ok {
		return nil
	}
	var parents []string
	for r := range deps.reads {
		if writer, ok := g.varWriters[r]; ok && writer != cellID {
			parents = append(parents, writer)
		}
	}
	return parents
}

// children returns the cell IDs that directly depend on cellID: cells
// that read an identifier cellID writes.
func (g *DependencyGraph) children(cellID string) []string {
	deps, ok := g.cells[cellID]
	if !ok {
		return nil
	}
	var children []string
	for w := range deps.writes {
		for otherID, otherDeps := range g.cells {
			if otherID == cellID {
				continue
			}
			if otherDeps.reads[w] {
				children = append(children, otherID)
			}
		}
	}
	return children
}

// Ancestors returns every cell that cellID transitively depends on,
// nearest first within each BFS layer. cellID itself is never included.
func (g *DependencyGraph) Ancestors(cellID string) []string {
	return g.walk(cellID, g.parents)
}

// Descendants returns every cell that transitively depends on cellID,
// nearest first within each BFS layer. cellID itself is never included.
func (g *DependencyGraph) Descendants(cellID string) []string {
	return g.walk(cellID, g.children)
}

func (g *DependencyGraph) walk(start string, next func(string) []string) []string {
	visited := map[string]bool{start: true}
	var order []string
	queue := next(start)
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if visited[id] {
			continue
		}
		visited[id] = true
		order = append(order, id)
		queue = append(queue, next(id)...)
	}
	return order
}

// ExecutionOrder returns the cells that must run, in dependency order, to
// bring cellID up to date: cellID's ancestors that are stale (per
// isStale), followed by cellID itself. Ancestors are returned in a valid
// topological order — a parent never appears after its child — computed
// with Kahn's algorithm over the induced subgraph.
func (g *DependencyGraph) ExecutionOrder(cellID string, isStale func(string) bool) ([]string, error) {
	order, err := g.executionOrder(cellID)
	if err != nil {
		return nil, err
	}

	var result []string
	for _, id := range order {
		if id == cellID || isStale == nil || isStale(id) {
			result = append(result, id)
		}
	}
	return result, nil
}

// ExecutionOrderForExecute returns the cells an `execute(cellID)` command
// must run, in dependency order: cellID's stale ancestors (per isStale),
// cellID itself, and all of cellID's descendants — exactly the set spec.md
// §4.4 defines for `execute`. Unlike ExecutionOrder, descendants are
// included unconditionally: an execute always refreshes what depends on
// the triggering cell.
func (g *DependencyGraph) ExecutionOrderForExecute(cellID string, isStale func(string) bool) ([]string, error) {
	ancestors := g.Ancestors(cellID)
	descendants := g.Descendants(cellID)

	full := append(append(append([]string{}, ancestors...), cellID), descendants...)
	order, err := g.topoOrder(full, cellID)
	if err != nil {
		return nil, err
	}

	keep := make(map[string]bool, len(descendants)+1)
	keep[cellID] = true
	for _, id := range descendants {
		keep[id] = true
	}
	for _, id := range ancestors {
		if isStale == nil || isStale(id) {
			keep[id] = true
		}
	}

	var result []string
	for _, id := range order {
		if keep[id] {
			result = append(result, id)
		}
	}
	return result, nil
}

// executionOrder computes a full topological order of cellID and all of
// its ancestors, with no staleness filtering. It returns an error if the
// induced subgraph contains a cycle.
func (g *DependencyGraph) executionOrder(cellID string) ([]string, error) {
	nodes := append(g.Ancestors(cellID), cellID)
	return g.topoOrder(nodes, cellID)
}

// topoOrder computes a topological order of the induced subgraph over
// nodes using Kahn's algorithm, with deterministic tie-breaking. cellID is
// carried only to label the error on a cycle.
func (g *DependencyGraph) topoOrder(nodes []string, cellID string) ([]string, error) {
	nodeSet := toSet(nodes)

	inDegree := make(map[string]int, len(nodes))
	edges := make(map[string][]string, len(nodes))
	for _, id := range nodes {
		inDegree[id] = 0
	}
	for _, id := range nodes {
		for _, p := range g.parents(id) {
			if !nodeSet[p] {
				continue
			}
			edges[p] = append(edges[p], id)
			inDegree[id]++
		}
	}

	var order []string
	ready := make([]string, 0, len(nodes))
	for _, id := range nodes {
		if inDegree[id] == 0 {
			ready = append(ready, id)
		}
	}
	sort.Strings(ready)

	for len(ready) > 0 {
		id := ready[0]
		ready = ready[1:]
		order = append(order, id)

		var newlyReady []string
		for _, child := range edges[id] {
			inDegree[child]--
			if inDegree[child] == 0 {
				newlyReady = append(newlyReady, child)
			}
		}
		sort.Strings(newlyReady)
		ready = append(ready, newlyReady...)
		sort.Strings(ready)
	}

	if len(order) != len(nodes) {
		return nil, fmt.Errorf("%w: cell %s", models.ErrCycleDetected, cellID)
	}
	return order, nil
}

// simulate returns a copy of the graph with cellID's reads/writes applied,
// leaving the receiver untouched. Used by WouldCreateCycle.
func (g *DependencyGraph) simulate(cellID string, reads, writes []string) *DependencyGraph {
	sim := New()
	for id, deps := range g.cells {
		if id == cellID {
			continue
		}
		sim.cells[id] = &cellDeps{reads: copySet(deps.reads), writes: copySet(deps.writes)}
	}
	for w, owner := range g.varWriters {
		if owner != cellID {
			sim.varWriters[w] = owner
		}
	}
	sim.UpdateCell(cellID, reads, writes)
	return sim
}

func toSet(items []string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, item := range items {
		set[item] = true
	}
	return set
}

func copySet(s map[string]bool) map[string]bool {
	out := make(map[string]bool, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}
