package hm

import (
	"fmt"
	"strings"
)

// Scheme represents a type scheme for polymorphic types
type Scheme struct {
	tvs  []TypeVariable
	cons map[TypeVariable]KindSet
	t    Type
	free TypeVarSet
}

// NewScheme creates a new type scheme
func NewScheme(tvs []TypeVariable, t Type) *Scheme {
	return NewConstrainedScheme(tvs, nil, t)
}

// NewConstrainedScheme creates a scheme whose variables carry kind
// constraints.
func NewConstrainedScheme(tvs []TypeVariable, cons map[TypeVariable]KindSet, t Type) *Scheme {
	s := &Scheme{tvs: tvs, cons: cons, t: t}
	s.free = t.FreeTypeVar()
	if len(tvs) > 0 && len(s.free) > 0 {
		s.free = s.free.Difference(NewTypeVarSet(tvs...))
	}
	return s
}

// Monotype wraps a type in a scheme that quantifies nothing.
func Monotype(t Type) *Scheme {
	return NewScheme(nil, t)
}

// Type returns the underlying type and whether it's monomorphic
func (s *Scheme) Type() (Type, bool) {
	return s.t, len(s.tvs) == 0
}

// TypeVars returns the bound type variables
func (s *Scheme) TypeVars() []TypeVariable {
	return s.tvs
}

// Constraints returns the kinds required of the bound variables.
func (s *Scheme) Constraints() map[TypeVariable]KindSet {
	return s.cons
}

// Apply applies a substitution to a scheme
func (s *Scheme) Apply(subs Subs) Substitutable {
	if s.Closed() {
		return s
	}
	filtered := make(Subs, len(subs))
	for tv, t := range subs {
		if !s.binds(tv) {
			filtered[tv] = t
		}
	}
	return NewConstrainedScheme(s.tvs, s.cons, filtered.Apply(s.t))
}

func (s *Scheme) binds(tv TypeVariable) bool {
	for _, b := range s.tvs {
		if b == tv {
			return true
		}
	}
	return false
}

// FreeTypeVar returns the free type variables in the scheme
func (s *Scheme) FreeTypeVar() TypeVarSet {
	return s.free
}

// Closed reports whether the scheme has no free variables. Substitutions
// never change a closed scheme.
func (s *Scheme) Closed() bool {
	return len(s.free) == 0
}

// Normalize renames the bound variables to A, B, C... in order of
// appearance.
func (s *Scheme) Normalize() *Scheme {
	n := newNormalizer()
	t := n.rename(s.t)

	tvs := make([]TypeVariable, 0, len(s.tvs))
	var cons map[TypeVariable]KindSet
	for _, old := range n.sortedVars() {
		if !s.binds(old) {
			continue
		}
		nv := n.vars[old]
		tvs = append(tvs, nv)
		if ks := s.cons[old]; ks != 0 {
			if cons == nil {
				cons = map[TypeVariable]KindSet{}
			}
			cons[nv] = ks
		}
	}
	return NewConstrainedScheme(tvs, cons, t)
}

// String renders the normalized type followed by its constraints, e.g.
// "(a: A, b: A) => A where A: Addable".
func (s *Scheme) String() string {
	if len(s.tvs) == 0 {
		return s.t.String()
	}
	norm := s.Normalize()

	var cons []string
	for _, tv := range norm.tvs {
		if ks := norm.cons[tv]; ks != 0 {
			cons = append(cons, fmt.Sprintf("%s: %s", tv, ks))
		}
	}
	if len(cons) == 0 {
		return norm.t.String()
	}
	return norm.t.String() + " where " + strings.Join(cons, ", ")
}
