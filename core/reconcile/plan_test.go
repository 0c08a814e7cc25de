package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildPlan_OrderAndLinkage(t *testing.T) {
	localIndex := map[string]string{
		"A": "pkg-a",
		"B": "pkg-b",
		"D": "pkg-d",
	}
	remote := NewSet("B", "C", "E", "D")

	result, plan := ReconcileWithPlan(remote, localIndex)
	assert.NoError(t, result.Validate(remote, KeysOf(localIndex)))

	expected := []Action{
		{Identifier: "C", Classification: ClassNew},
		{Identifier: "E", Classification: ClassNew},
		{Identifier: "B", Classification: ClassChanged, PackageID: "pkg-b"},
		{Identifier: "D", Classification: ClassChanged, PackageID: "pkg-d"},
		{Identifier: "A", Classification: ClassDeleted, PackageID: "pkg-a"},
	}
	assert.Equal(t, expected, plan.Actions)

	assert.Equal(t, PlanSummary{New: 2, Changed: 2, Deleted: 1, Total: 5}, plan.Summary)
	assert.False(t, plan.Empty())
}

func TestBuildPlan_Empty(t *testing.T) {
	_, plan := ReconcileWithPlan(NewSet(), map[string]string{})
	assert.True(t, plan.Empty())
	assert.Equal(t, 0, plan.Summary.Total)
}

func TestBuildPlan_AllDeleted(t *testing.T) {
	_, plan := ReconcileWithPlan(NewSet(), map[string]string{"A": "1", "B": "2"})

	assert.Equal(t, 2, plan.Summary.Deleted)
	for _, action := range plan.Actions {
		assert.Equal(t, ClassDeleted, action.Classification)
		assert.NotEmpty(t, action.PackageID)
	}
}

func TestBuildPlan_Deterministic(t *testing.T) {
	localIndex := map[string]string{"x": "1", "y": "2", "z": "3"}
	remote := NewSet("a", "b", "c", "x", "y")

	_, first := ReconcileWithPlan(remote, localIndex)
	for i := 0; i < 10; i++ {
		_, again := ReconcileWithPlan(remote, localIndex)
		assert.Equal(t, first, again)
	}
}
