package hm

import (
	"strings"

	"github.com/benbjohnson/immutable"
)

type stringComparer struct{}

func (stringComparer) Compare(a, b string) int {
	return strings.Compare(a, b)
}

// Env is a lexical type environment. Each Env is one scope over an
// optional parent; adding a binding returns a new Env and leaves the
// receiver untouched.
type Env struct {
	parent *Env
	vars   *immutable.SortedMap[string, *Scheme]

	// open counts bindings in this scope with free variables.
	open int
}

// NewEnv creates an empty root environment.
func NewEnv() *Env {
	return &Env{vars: immutable.NewSortedMap[string, *Scheme](stringComparer{})}
}

// Scope opens a nested scope whose bindings shadow the receiver's.
func (env *Env) Scope() *Env {
	child := NewEnv()
	child.parent = env
	return child
}

// Parent returns the enclosing scope, or nil for a root.
func (env *Env) Parent() *Env {
	return env.parent
}

// SchemeOf returns the scheme for a name
func (env *Env) SchemeOf(name string) (*Scheme, bool) {
	for e := env; e != nil; e = e.parent {
		if s, ok := e.vars.Get(name); ok {
			return s, true
		}
	}
	return nil, false
}

// LocalSchemeOf looks up a name in the innermost scope only.
func (env *Env) LocalSchemeOf(name string) (*Scheme, bool) {
	return env.vars.Get(name)
}

// Add binds name in the innermost scope.
func (env *Env) Add(name string, scheme *Scheme) *Env {
	open := env.open
	if old, ok := env.vars.Get(name); ok && !old.Closed() {
		open--
	}
	if !scheme.Closed() {
		open++
	}
	return &Env{
		parent: env.parent,
		vars:   env.vars.Set(name, scheme),
		open:   open,
	}
}

// Len returns the number of bindings in the innermost scope.
func (env *Env) Len() int {
	return env.vars.Len()
}

// Each visits the bindings of the innermost scope in name order.
func (env *Env) Each(fn func(name string, scheme *Scheme)) {
	itr := env.vars.Iterator()
	for !itr.Done() {
		name, scheme, _ := itr.Next()
		fn(name, scheme)
	}
}

// Names returns every visible name in order.
func (env *Env) Names() []string {
	var names []string
	env.Flatten().Each(func(name string, _ *Scheme) {
		names = append(names, name)
	})
	return names
}

// Flatten collapses the scope chain into a single root scope.
func (env *Env) Flatten() *Env {
	if env.parent == nil {
		return env
	}
	flat := env.parent.Flatten()
	env.Each(func(name string, scheme *Scheme) {
		flat = flat.Add(name, scheme)
	})
	return flat
}

// FreeTypeVar returns the variables free in any visible binding once subs
// is applied.
func (env *Env) FreeTypeVar(subs Subs) TypeVarSet {
	ftvs := make(TypeVarSet)
	for e := env; e != nil; e = e.parent {
		if e.open == 0 {
			continue
		}
		e.Each(func(_ string, scheme *Scheme) {
			if scheme.Closed() {
				return
			}
			for tv := range scheme.Apply(subs).FreeTypeVar() {
				ftvs[tv] = true
			}
		})
	}
	return ftvs
}
