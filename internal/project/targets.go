package project

// validTargets lists the kinds a resource may declare a custom dependency
// on. Kinds missing from the table are unrestricted.
var validTargets = map[Kind][]Kind{
	KindCompute:            {KindNetwork, KindObjectStorage},
	KindRelationalDatabase: {KindNetwork},
	KindObjectStorage:      {},
	KindNetwork:            {},
}

// ValidTargets returns the kinds source may depend on. restricted is false
// for kinds that accept any target.
func ValidTargets(source Kind) (targets []Kind, restricted bool) {
	t, ok := validTargets[source]
	if !ok {
		return nil, false
	}
	out := make([]Kind, len(t))
	copy(out, t)
	return out, true
}

// AllowsTarget reports whether a source kind may custom-depend on target.
func AllowsTarget(source, target Kind) bool {
	t, restricted := ValidTargets(source)
	if !restricted {
		return true
	}
	for _, k := range t {
		if k == target {
			return true
		}
	}
	return false
}

// CandidateTargets returns, in store order, the resources src could add as
// a custom dependency: everything except itself whose kind is allowed.
func CandidateTargets(resources []Resource, src Resource) []Resource {
	var out []Resource
	for _, r := range resources {
		if r.ID == src.ID {
			continue
		}
		if AllowsTarget(src.RuleKind(), r.RuleKind()) {
			out = append(out, r)
		}
	}
	return out
}
