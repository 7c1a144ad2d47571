package http2

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPriorityTreeDefaultsToRootWeight15(t *testing.T) {
	tr := NewPriorityTree()
	assert.EqualValues(t, 0, tr.Parent(1))
	assert.EqualValues(t, 15, tr.Weight(1))
}

func TestPriorityTreeReprioritizeSetsParentAndWeight(t *testing.T) {
	tr := NewPriorityTree()
	tr.Reprioritize(3, 1, false, 100)

	assert.EqualValues(t, 1, tr.Parent(3))
	assert.EqualValues(t, 100, tr.Weight(3))
}

func TestPriorityTreeExclusiveReparentsSiblings(t *testing.T) {
	tr := NewPriorityTree()
	tr.Reprioritize(3, 1, false, 15)
	tr.Reprioritize(5, 1, false, 15)

	// 7 becomes 1's sole child; 3 and 5 move under 7.
	tr.Reprioritize(7, 1, true, 15)

	assert.EqualValues(t, 1, tr.Parent(7))
	assert.EqualValues(t, 7, tr.Parent(3))
	assert.EqualValues(t, 7, tr.Parent(5))
}

func TestPriorityTreeBreaksCycle(t *testing.T) {
	tr := NewPriorityTree()
	tr.Reprioritize(3, 1, false, 15)

	// moving 1 under its own descendant 3 would cycle; 3 is reparented
	// to 1's old parent (0) first to break it.
	tr.Reprioritize(1, 3, false, 15)

	assert.EqualValues(t, 0, tr.Parent(3))
	assert.EqualValues(t, 3, tr.Parent(1))
}

func TestPriorityTreeRemoveReparentsChildren(t *testing.T) {
	tr := NewPriorityTree()
	tr.Reprioritize(3, 1, false, 15)
	tr.Reprioritize(5, 3, false, 15)

	tr.Remove(3)

	assert.EqualValues(t, 1, tr.Parent(5))
}

func TestPriorityTreeSelfDependencyFallsBackToRoot(t *testing.T) {
	tr := NewPriorityTree()
	tr.Reprioritize(3, 3, false, 15)
	assert.EqualValues(t, 0, tr.Parent(3))
}
