package reconcile

// BuildPlan turns a reconciliation result into ordered staging actions.
// localIndex maps each locally current identifier to its linked dataset id.
// Actions are grouped new, changed, deleted and sorted by identifier within
// each group, so repeated runs over the same input produce the same plan.
func BuildPlan(result Result, localIndex map[string]string) *Plan {
	plan := &Plan{
		Actions: make([]Action, 0, result.Total()),
	}

	for _, id := range result.New.Sorted() {
		plan.Actions = append(plan.Actions, Action{
			Identifier:     id,
			Classification: ClassNew,
		})
		plan.Summary.New++
	}

	for _, id := range result.Changed.Sorted() {
		plan.Actions = append(plan.Actions, Action{
			Identifier:     id,
			Classification: ClassChanged,
			PackageID:      localIndex[id],
		})
		plan.Summary.Changed++
	}

	for _, id := range result.Deleted.Sorted() {
		plan.Actions = append(plan.Actions, Action{
			Identifier:     id,
			Classification: ClassDeleted,
			PackageID:      localIndex[id],
		})
		plan.Summary.Deleted++
	}

	plan.Summary.Total = len(plan.Actions)
	return plan
}

// ReconcileWithPlan reconciles the remote identifiers against the local index
// and returns both the raw result and the plan built from it.
func ReconcileWithPlan(remote Set, localIndex map[string]string) (Result, *Plan) {
	result := Reconcile(remote, KeysOf(localIndex))
	return result, BuildPlan(result, localIndex)
}
