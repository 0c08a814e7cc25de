// Package reconcile classifies the identifiers of a harvest source into the
// work a harvest pass has to do.
//
// Two sets of identifiers are compared: the identifiers returned by the
// latest remote fetch and the identifiers recorded locally as current for the
// same source. Each identifier ends up in exactly one bucket:
//
//	new     = remote - local
//	deleted = local  - remote
//	changed = remote ∩ local
//
// The buckets are disjoint and their union is remote ∪ local. Whether a
// "changed" identifier actually changed content is decided later, by the
// import resolver's content-hash comparison.
//
// # Plan
//
// BuildPlan turns a Result into a deterministic list of actions (sorted by
// identifier) carrying the dataset id each changed or deleted identifier is
// currently linked to, together with aggregate counts.
//
// # Usage Example
//
//	remote := reconcile.NewSet(fetched.Identifiers()...)
//	local := reconcile.KeysOf(currentIndex)
//	result := reconcile.Reconcile(remote, local)
//	plan := reconcile.BuildPlan(result, currentIndex)
package reconcile
