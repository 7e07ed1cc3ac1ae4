package hm

import (
	"math/bits"
	"strings"
)

// Kind is a constraint on the types a type variable may be bound to.
type Kind uint8

const (
	Addable Kind = iota
	Comparable
	Divisible
	Equatable
	Negatable
	Nullable
	Numeric
	Record
	Stringable
	Subtractable
	Timeable

	numKinds
)

var kindNames = [numKinds]string{
	Addable:      "Addable",
	Comparable:   "Comparable",
	Divisible:    "Divisible",
	Equatable:    "Equatable",
	Negatable:    "Negatable",
	Nullable:     "Nullable",
	Numeric:      "Numeric",
	Record:       "Record",
	Stringable:   "Stringable",
	Subtractable: "Subtractable",
	Timeable:     "Timeable",
}

func (k Kind) String() string {
	if k < numKinds {
		return kindNames[k]
	}
	return "Kind(?)"
}

// ParseKind looks up a kind by name.
func ParseKind(name string) (Kind, bool) {
	for k, n := range kindNames {
		if n == name {
			return Kind(k), true
		}
	}
	return 0, false
}

// KindSet is a set of kinds.
type KindSet uint16

// Kinds builds a set from its members.
func Kinds(ks ...Kind) KindSet {
	var set KindSet
	for _, k := range ks {
		set = set.With(k)
	}
	return set
}

func (s KindSet) With(k Kind) KindSet { return s | 1<<k }
func (s KindSet) Has(k Kind) bool { return s&(1<<k) != 0 }
func (s KindSet) Union(o KindSet) KindSet { return s | o }
func (s KindSet) Len() int { return bits.OnesCount16(uint16(s)) }

// Slice returns the members in name order.
func (s KindSet) Slice() []Kind {
	var ks []Kind
	for k := Kind(0); k < numKinds; k++ {
		if s.Has(k) {
			ks = append(ks, k)
		}
	}
	return ks
}

func (s KindSet) String() string {
	ks := s.Slice()
	names := make([]string, len(ks))
	for i, k := range ks {
		names[i] = k.String()
	}
	return strings.Join(names, " + ")
}

var numericKinds = Kinds(Addable, Subtractable, Divisible, Numeric, Comparable, Equatable, Nullable, Stringable, Negatable)

// basicKinds lists the kinds each primitive type satisfies.
var basicKinds = map[Basic]KindSet{
	Bool:     Kinds(Equatable, Nullable, Stringable),
	Int:      numericKinds,
	Uint:     numericKinds,
	Float:    numericKinds,
	String:   Kinds(Addable, Comparable, Equatable, Nullable, Stringable),
	Duration: Kinds(Comparable, Equatable, Nullable, Negatable, Stringable, Timeable),
	Time:     Kinds(Comparable, Equatable, Nullable, Timeable, Stringable),
	Regexp:   0,
	Bytes:    Kinds(Equatable),
}
