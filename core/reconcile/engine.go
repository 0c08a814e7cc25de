package reconcile

import "fmt"

// Reconcile classifies every identifier of remote ∪ local into exactly one of
// new, changed or deleted. Neither input is modified.
func Reconcile(remote, local Set) Result {
	result := Result{
		New:     make(Set),
		Changed: make(Set),
		Deleted: make(Set),
	}

	for id := range remote {
		if local.Has(id) {
			result.Changed.Add(id)
		} else {
			result.New.Add(id)
		}
	}

	for id := range local {
		if !remote.Has(id) {
			result.Deleted.Add(id)
		}
	}

	return result
}

// Validate checks that the buckets are pairwise disjoint and that their union
// equals remote ∪ local.
func (r Result) Validate(remote, local Set) error {
	union := buildUnion(remote, local)

	seen := make(Set, r.Total())
	for _, bucket := range []Set{r.New, r.Changed, r.Deleted} {
		for id := range bucket {
			if seen.Has(id) {
				return fmt.Errorf("identifier %q classified more than once", id)
			}
			if !union.Has(id) {
				return fmt.Errorf("identifier %q not in remote or local set", id)
			}
			seen.Add(id)
		}
	}

	if len(seen) != len(union) {
		return fmt.Errorf("classified %d identifiers, expected %d", len(seen), len(union))
	}
	return nil
}

// buildUnion creates the union of both identifier sets.
func buildUnion(remote, local Set) Set {
	union := make(Set, len(remote)+len(local))
	for id := range remote {
		union.Add(id)
	}
	for id := range local {
		union.Add(id)
	}
	return union
}
