package hm

// Generalize creates a type scheme by quantifying over type variables
// that are free in the type but not free in the environment. The kinds
// recorded by u for those variables become the scheme's constraints.
func Generalize(env *Env, u *Unifier, t Type) *Scheme {
	t = u.Apply(t)
	free := t.FreeTypeVar()
	if len(free) == 0 {
		return Monotype(t)
	}

	quantified := free.Difference(env.FreeTypeVar(u.subs)).ToSlice()
	var cons map[TypeVariable]KindSet
	for _, tv := range quantified {
		if ks := u.kinds[tv]; ks != 0 {
			if cons == nil {
				cons = map[TypeVariable]KindSet{}
			}
			cons[tv] = ks
		}
	}
	return NewConstrainedScheme(quantified, cons, t)
}

// Instantiate creates a fresh instance of a type scheme. Each bound
// variable is replaced by a new one carrying the same constraints.
func Instantiate(u *Unifier, scheme *Scheme) Type {
	if len(scheme.tvs) == 0 {
		return scheme.t
	}

	vars := make(map[TypeVariable]TypeVariable, len(scheme.tvs))
	for _, tv := range scheme.tvs {
		fresh := u.fresh.Fresh()
		vars[tv] = fresh
		if ks := scheme.cons[tv]; ks != 0 {
			u.kinds[fresh] = ks
		}
	}

	// Fresh ids may overlap the bound ones, so rename rather than
	// substitute.
	return newRenamer(vars).rename(scheme.t)
}

// Fresher interface for generating fresh type variables
type Fresher interface {
	Fresh() TypeVariable
}

// SimpleFresher is a simple implementation of Fresher
type SimpleFresher struct {
	counter int
}

// NewSimpleFresher creates a SimpleFresher whose first variable is start.
func NewSimpleFresher(start int) *SimpleFresher {
	return &SimpleFresher{counter: start}
}

// Fresh generates a fresh type variable
func (f *SimpleFresher) Fresh() TypeVariable {
	tv := TypeVariable(f.counter)
	f.counter++
	return tv
}

// Peek returns the variable the next call to Fresh will return.
func (f *SimpleFresher) Peek() TypeVariable {
	return TypeVariable(f.counter)
}
