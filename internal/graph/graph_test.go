package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDependencyGraph_LinearChain(t *testing.T) {
	g := New()
	g.UpdateCell("a", nil, []string{"x"})
	g.UpdateCell("b", []string{"x"}, []string{"y"})
	g.UpdateCell("c", []string{"y"}, nil)

	assert.Equal(t, []string{"b", "a"}, g.Ancestors("c"))
	assert.Equal(t, []string{"b", "c"}, g.Descendants("a"))

	order, err := g.ExecutionOrder("c", func(string) bool { return true })
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, order)
}

func TestDependencyGraph_ExecutionOrder_SkipsFreshAncestors(t *testing.T) {
	g := New()
	g.UpdateCell("a", nil, []string{"x"})
	g.UpdateCell("b", []string{"x"}, []string{"y"})

	fresh := map[string]bool{"a": true}
	order, err := g.ExecutionOrder("b", func(id string) bool { return !fresh[id] })
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, order)
}

func TestDependencyGraph_WouldCreateCycle_SelfReference(t *testing.T) {
	g := New()
	g.UpdateCell("a", nil, []string{"x"})

	assert.False(t, g.WouldCreateCycle("a", []string{"x"}, []string{"x"}))
}

func TestDependencyGraph_WouldCreateCycle_TwoCellCycle(t *testing.T) {
	g := New()
	g.UpdateCell("a", nil, []string{"x"})
	g.UpdateCell("b", []string{"x"}, []string{"y"})

	assert.True(t, g.WouldCreateCycle("a", []string{"y"}, []string{"x"}))
}

func TestDependencyGraph_WouldCreateCycle_DoesNotMutate(t *testing.T) {
	g := New()
	g.UpdateCell("a", nil, []string{"x"})
	g.UpdateCell("b", []string{"x"}, []string{"y"})

	assert.True(t, g.WouldCreateCycle("a", []string{"y"}, []string{"x"}))

	order, err := g.ExecutionOrder("b", func(string) bool { return true })
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, order)
}

func TestDependencyGraph_SecondWriterTakesOwnership(t *testing.T) {
	g := New()
	g.UpdateCell("a", nil, []string{"x"})
	g.UpdateCell("c", []string{"x"}, nil)

	g.UpdateCell("b", nil, []string{"x"})

	assert.Equal(t, []string{"b"}, g.Ancestors("c"))

	order, err := g.ExecutionOrder("c", func(string) bool { return true })
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c"}, order)
}

func TestDependencyGraph_RemoveCell(t *testing.T) {
	g := New()
	g.UpdateCell("a", nil, []string{"x"})
	g.UpdateCell("b", []string{"x"}, nil)

	g.RemoveCell("a")

	assert.Empty(t, g.Ancestors("b"))
	order, err := g.ExecutionOrder("b", func(string) bool { return true })
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, order)
}

func TestDependencyGraph_UpdateCellReplacesPriorRegistration(t *testing.T) {
	g := New()
	g.UpdateCell("a", nil, []string{"x"})
	g.UpdateCell("b", []string{"x"}, []string{"y"})

	g.UpdateCell("b", nil, []string{"y"})

	assert.Empty(t, g.Ancestors("b"))
}

func TestDependencyGraph_DiamondDependency(t *testing.T) {
	g := New()
	g.UpdateCell("a", nil, []string{"x"})
	g.UpdateCell("b", []string{"x"}, []string{"y"})
	g.UpdateCell("c", []string{"x"}, []string{"z"})
	g.UpdateCell("d", []string{"y", "z"}, nil)

	order, err := g.ExecutionOrder("d", func(string) bool { return true })
	require.NoError(t, err)
	require.Len(t, order, 4)
	assert.Equal(t, "a", order[0])
	assert.Equal(t, "d", order[3])
}
