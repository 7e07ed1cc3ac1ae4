package hm

import (
	"fmt"
	"sort"
)

// UnificationError represents errors during unification
type UnificationError struct {
	msg string

	// exp and act are set when two types are simply incompatible, so that
	// callers can say where the mismatch happened.
	exp, act Type
}

func (e UnificationError) Error() string {
	return e.msg
}

func mismatch(exp, act Type) UnificationError {
	return UnificationError{
		msg: mismatchText(exp, act, ""),
		exp: exp,
		act: act,
	}
}

func mismatchText(exp, act Type, suffix string) string {
	n := newNormalizer()
	return fmt.Sprintf("expected %s but found %s%s", n.fresh(exp), n.fresh(act), suffix)
}

// within re-reports a plain mismatch against its context, e.g. a record
// label or a return type. Other errors pass through.
func within(err error, what string) error {
	if ue, ok := err.(UnificationError); ok && ue.exp != nil {
		return UnificationError{msg: mismatchText(ue.exp, ue.act, " for "+what)}
	}
	return err
}

// Unifier solves equality and kind constraints between types. It owns the
// substitution and the kind constraints of every unbound variable.
type Unifier struct {
	subs  Subs
	kinds map[TypeVariable]KindSet
	fresh Fresher
}

// NewUnifier creates a Unifier that draws new variables from fresh.
func NewUnifier(fresh Fresher) *Unifier {
	return &Unifier{
		subs:  NewSubs(),
		kinds: map[TypeVariable]KindSet{},
		fresh: fresh,
	}
}

// Fresh returns a new type variable.
func (u *Unifier) Fresh() TypeVariable {
	return u.fresh.Fresh()
}

// Subs returns the substitution built so far.
func (u *Unifier) Subs() Subs {
	return u.subs
}

// Apply resolves every bound variable in t.
func (u *Unifier) Apply(t Type) Type {
	return u.subs.Apply(t)
}

// KindsOf returns the constraints on an unbound variable.
func (u *Unifier) KindsOf(tv TypeVariable) KindSet {
	return u.kinds[tv]
}

// resolve follows bound variables at the top of t only.
func (u *Unifier) resolve(t Type) Type {
	for {
		tv, ok := t.(TypeVariable)
		if !ok {
			return t
		}
		next, bound := u.subs[tv]
		if !bound {
			return t
		}
		t = next
	}
}

// Unify makes exp and act equal, extending the substitution. exp is the
// type required by the context and act the type that was found.
func (u *Unifier) Unify(exp, act Type) error {
	exp, act = u.resolve(exp), u.resolve(act)

	if tv, ok := exp.(TypeVariable); ok {
		return u.bind(tv, act)
	}
	if tv, ok := act.(TypeVariable); ok {
		return u.bind(tv, exp)
	}

	switch e := exp.(type) {
	case Basic:
		if a, ok := act.(Basic); ok && a == e {
			return nil
		}
	case *Array:
		if a, ok := act.(*Array); ok {
			return u.Unify(e.Elem, a.Elem)
		}
	case *Dict:
		if a, ok := act.(*Dict); ok {
			if err := u.Unify(e.Key, a.Key); err != nil {
				return err
			}
			return u.Unify(e.Val, a.Val)
		}
	case EmptyRecord, *Extension:
		if IsRecord(act) {
			return u.unifyRecords(exp, act)
		}
	case *Function:
		if a, ok := act.(*Function); ok {
			return u.unifyFunctions(e, a)
		}
	}
	return mismatch(u.Apply(exp), u.Apply(act))
}

func (u *Unifier) bind(tv TypeVariable, t Type) error {
	if other, ok := t.(TypeVariable); ok {
		if other == tv {
			return nil
		}
		u.subs[tv] = other
		if ks, ok := u.kinds[tv]; ok {
			u.kinds[other] = u.kinds[other].Union(ks)
			delete(u.kinds, tv)
		}
		return nil
	}

	t = u.Apply(t)
	if t.FreeTypeVar().Contains(tv) {
		n := newNormalizer()
		return UnificationError{
			msg: fmt.Sprintf("recursive types not supported %s != %s", n.fresh(tv), n.fresh(t)),
		}
	}

	u.subs[tv] = t
	ks, ok := u.kinds[tv]
	if !ok {
		return nil
	}
	delete(u.kinds, tv)
	for _, k := range ks.Slice() {
		if err := u.Constrain(t, k); err != nil {
			return err
		}
	}
	return nil
}

// Constrain requires t to satisfy kind k. Unbound variables record the
// constraint and check it once they are bound.
func (u *Unifier) Constrain(t Type, k Kind) error {
	switch t := u.resolve(t).(type) {
	case TypeVariable:
		u.kinds[t] = u.kinds[t].With(k)
		return nil
	case Basic:
		if basicKinds[t].Has(k) {
			return nil
		}
	case *Array:
		if k == Equatable {
			return u.Constrain(t.Elem, k)
		}
	case EmptyRecord:
		if k == Record || k == Equatable {
			return nil
		}
	case *Extension:
		switch k {
		case Record:
			return nil
		case Equatable:
			if err := u.Constrain(t.Value, k); err != nil {
				return err
			}
			return u.Constrain(t.Tail, k)
		}
	}
	return UnificationError{
		msg: fmt.Sprintf("%s is not %s", newNormalizer().fresh(u.Apply(t)), k),
	}
}

func (u *Unifier) unifyRecords(exp, act Type) error {
	switch e := exp.(type) {
	case EmptyRecord:
		switch a := act.(type) {
		case EmptyRecord:
			return nil
		case *Extension:
			return UnificationError{msg: "found unexpected label " + a.Label}
		}
	case *Extension:
		switch a := act.(type) {
		case EmptyRecord:
			return UnificationError{msg: "record is missing label " + e.Label}
		case *Extension:
			if e.Label == a.Label {
				if err := u.Unify(e.Value, a.Value); err != nil {
					return within(err, "label "+e.Label)
				}
				return u.Unify(e.Tail, a.Tail)
			}

			// Two rows ending in the same variable cannot gain each
			// other's labels.
			et, eok := u.rowTail(e).(TypeVariable)
			at, aok := u.rowTail(a).(TypeVariable)
			if eok && aok && et == at {
				return mismatch(u.Apply(exp), u.Apply(act))
			}

			val, rest, err := u.rewriteRow(a, e.Label)
			if err != nil {
				return err
			}
			if err := u.Unify(e.Value, val); err != nil {
				return within(err, "label "+e.Label)
			}
			return u.Unify(e.Tail, rest)
		}
	}
	return mismatch(u.Apply(exp), u.Apply(act))
}

func (u *Unifier) rowTail(t Type) Type {
	for {
		t = u.resolve(t)
		ext, ok := t.(*Extension)
		if !ok {
			return t
		}
		t = ext.Tail
	}
}

// rewriteRow finds label in row, returning its value and the row without
// it. An open row is extended with the label.
func (u *Unifier) rewriteRow(row Type, label string) (Type, Type, error) {
	switch r := u.resolve(row).(type) {
	case EmptyRecord:
		return nil, nil, UnificationError{msg: "record is missing label " + label}
	case *Extension:
		if r.Label == label {
			return r.Value, r.Tail, nil
		}
		val, rest, err := u.rewriteRow(r.Tail, label)
		if err != nil {
			return nil, nil, err
		}
		return val, &Extension{Label: r.Label, Value: r.Value, Tail: rest}, nil
	case TypeVariable:
		val, tail := u.fresh.Fresh(), u.fresh.Fresh()
		if err := u.bind(r, &Extension{Label: label, Value: val, Tail: tail}); err != nil {
			return nil, nil, err
		}
		return val, tail, nil
	default:
		return nil, nil, mismatch(EmptyRecord{}, u.Apply(r))
	}
}

// unifyFunctions matches f, the expected function, with g. Arguments are
// matched by name; a named pipe parameter also matches a plain argument of
// the same name.
func (u *Unifier) unifyFunctions(f, g *Function) error {
	freq := copyArgs(f.Req)
	greq := copyArgs(g.Req)

	switch {
	case f.Pipe != nil && g.Pipe != nil:
		if f.Pipe.Name != AnonymousPipe && g.Pipe.Name != AnonymousPipe && f.Pipe.Name != g.Pipe.Name {
			return UnificationError{
				msg: fmt.Sprintf("expected pipe argument %s but found %s", f.Pipe.Name, g.Pipe.Name),
			}
		}
		freq[f.Pipe.Name] = f.Pipe.Type
		greq[f.Pipe.Name] = g.Pipe.Type
	case f.Pipe != nil:
		if f.Pipe.Name == AnonymousPipe {
			return UnificationError{msg: "missing pipe argument"}
		}
		freq[f.Pipe.Name] = f.Pipe.Type
	case g.Pipe != nil:
		if g.Pipe.Name == AnonymousPipe {
			return UnificationError{msg: "missing pipe argument"}
		}
		greq[g.Pipe.Name] = g.Pipe.Type
	}

	for _, name := range sortedKeys(greq) {
		if _, ok := freq[name]; ok {
			continue
		}
		if _, ok := f.Opt[name]; ok {
			continue
		}
		return UnificationError{msg: "found unexpected argument " + name}
	}
	for _, name := range sortedKeys(freq) {
		if _, ok := greq[name]; ok {
			continue
		}
		if _, ok := g.Opt[name]; ok {
			continue
		}
		return UnificationError{msg: "missing required argument " + name}
	}

	for _, name := range sortedKeys(freq) {
		act, ok := greq[name]
		if !ok {
			act = g.Opt[name]
		}
		if err := u.Unify(freq[name], act); err != nil {
			return UnificationError{msg: fmt.Sprintf("%s (argument %s)", err, name)}
		}
	}
	for _, name := range sortedKeys(f.Opt) {
		act, ok := greq[name]
		if !ok {
			act, ok = g.Opt[name]
		}
		if !ok {
			continue
		}
		if err := u.Unify(f.Opt[name], act); err != nil {
			return UnificationError{msg: fmt.Sprintf("%s (argument %s)", err, name)}
		}
	}

	if err := u.Unify(f.Ret, g.Ret); err != nil {
		return within(err, "return type")
	}
	return nil
}

func copyArgs(m map[string]Type) map[string]Type {
	out := make(map[string]Type, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Unify unifies two types with a throwaway Unifier and returns the
// resulting substitution.
func Unify(exp, act Type) (Subs, error) {
	u := NewUnifier(NewSimpleFresher(maxVar(exp, act) + 1))
	if err := u.Unify(exp, act); err != nil {
		return nil, err
	}
	return u.subs, nil
}

func maxVar(ts ...Type) int {
	highest := -1
	for _, t := range ts {
		for tv := range t.FreeTypeVar() {
			if int(tv) > highest {
				highest = int(tv)
			}
		}
	}
	return highest
}

// normalizer renames variables in one pass over a type. Renamed types
// are never revisited, so a mapping may reuse ids it also renames.
type normalizer struct {
	vars map[TypeVariable]TypeVariable
	next func(TypeVariable) TypeVariable
}

// newNormalizer numbers variables in order of appearance, starting from A.
func newNormalizer() *normalizer {
	n := &normalizer{vars: map[TypeVariable]TypeVariable{}}
	n.next = func(TypeVariable) TypeVariable { return TypeVariable(len(n.vars)) }
	return n
}

// newRenamer applies vars and leaves every other variable alone.
func newRenamer(vars map[TypeVariable]TypeVariable) *normalizer {
	return &normalizer{
		vars: vars,
		next: func(tv TypeVariable) TypeVariable { return tv },
	}
}

func (n *normalizer) fresh(t Type) Type {
	return n.rename(t)
}

func (n *normalizer) tvar(tv TypeVariable) TypeVariable {
	if nv, ok := n.vars[tv]; ok {
		return nv
	}
	nv := n.next(tv)
	n.vars[tv] = nv
	return nv
}

func (n *normalizer) rename(t Type) Type {
	switch t := t.(type) {
	case TypeVariable:
		return n.tvar(t)
	case *Array:
		return &Array{Elem: n.rename(t.Elem)}
	case *Dict:
		return &Dict{Key: n.rename(t.Key), Val: n.rename(t.Val)}
	case *Extension:
		props, tail := t.Fields()
		// The row variable reads first: {A with a: B}.
		if _, ok := tail.(TypeVariable); ok {
			tail = n.rename(tail)
		}
		for i, p := range props {
			props[i].Type = n.rename(p.Type)
		}
		return NewRecord(props, tail)
	case *Function:
		out := &Function{
			Req: map[string]Type{},
			Opt: map[string]Type{},
		}
		if t.Pipe != nil {
			out.Pipe = &PipeArgument{Name: t.Pipe.Name, Type: n.rename(t.Pipe.Type)}
		}
		for _, k := range sortedKeys(t.Req) {
			out.Req[k] = n.rename(t.Req[k])
		}
		for _, k := range sortedKeys(t.Opt) {
			out.Opt[k] = n.rename(t.Opt[k])
		}
		out.Ret = n.rename(t.Ret)
		return out
	default:
		return t
	}
}

// Normalize renames the variables of t to A, B, C... in order of
// appearance.
func Normalize(t Type) Type {
	return newNormalizer().rename(t)
}

// sortedVars orders the variables renamed by n by their new names.
func (n *normalizer) sortedVars() []TypeVariable {
	vars := make([]TypeVariable, 0, len(n.vars))
	for old := range n.vars {
		vars = append(vars, old)
	}
	sort.Slice(vars, func(i, j int) bool { return n.vars[vars[i]] < n.vars[vars[j]] })
	return vars
}
