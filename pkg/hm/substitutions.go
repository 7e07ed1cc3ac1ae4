package hm

import "sort"

// Subs maps type variables to the types they stand for. Bindings may
// chain through other variables; Apply follows them to the end.
type Subs map[TypeVariable]Type

func NewSubs() Subs {
	return Subs{}
}

func (s Subs) Apply(t Type) Type {
	if len(s) == 0 {
		return t
	}
	return t.Apply(s).(Type)
}

// Add binds tv in place and returns s for chaining.
func (s Subs) Add(tv TypeVariable, t Type) Subs {
	s[tv] = t
	return s
}

// Compose returns the substitution applying s and then other. Bindings of
// other take effect only for variables s leaves alone.
func (s Subs) Compose(other Subs) Subs {
	out := make(Subs, len(s)+len(other))
	for tv, t := range other {
		out[tv] = t
	}
	for tv, t := range s {
		out[tv] = other.Apply(t)
	}
	return out
}

type Substitution struct {
	Tv TypeVariable
	T  Type
}

// Iter lists the bindings ordered by variable.
func (s Subs) Iter() []Substitution {
	out := make([]Substitution, 0, len(s))
	for _, tv := range sortedVars(s) {
		out = append(out, Substitution{Tv: tv, T: s[tv]})
	}
	return out
}

func sortedVars[V any](m map[TypeVariable]V) []TypeVariable {
	tvs := make([]TypeVariable, 0, len(m))
	for tv := range m {
		tvs = append(tvs, tv)
	}
	sort.Slice(tvs, func(i, j int) bool { return tvs[i] < tvs[j] })
	return tvs
}
