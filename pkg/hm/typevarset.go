package hm

// TypeVarSet is a set of type variables. A nil set is empty.
type TypeVarSet map[TypeVariable]bool

func NewTypeVarSet(tvs ...TypeVariable) TypeVarSet {
	set := make(TypeVarSet, len(tvs))
	for _, tv := range tvs {
		set[tv] = true
	}
	return set
}

// Union may return one of its operands when the other is empty; callers
// must not modify the result.
func (tvs TypeVarSet) Union(other TypeVarSet) TypeVarSet {
	switch {
	case len(other) == 0:
		return tvs
	case len(tvs) == 0:
		return other
	}
	out := make(TypeVarSet, len(tvs)+len(other))
	for _, set := range []TypeVarSet{tvs, other} {
		for tv := range set {
			out[tv] = true
		}
	}
	return out
}

func (tvs TypeVarSet) Difference(other TypeVarSet) TypeVarSet {
	out := TypeVarSet{}
	for tv := range tvs {
		if !other.Contains(tv) {
			out[tv] = true
		}
	}
	return out
}

func (tvs TypeVarSet) Contains(tv TypeVariable) bool {
	return tvs[tv]
}

// ToSlice lists the set in ascending order.
func (tvs TypeVarSet) ToSlice() []TypeVariable {
	return sortedVars(tvs)
}
