package ast

import "fmt"

// OperatorKind is a binary or unary operator.
type OperatorKind int

const (
	InvalidOperator OperatorKind = iota
	MultiplicationOperator
	DivisionOperator
	ModuloOperator
	PowerOperator
	AdditionOperator
	SubtractionOperator
	LessThanEqualOperator
	LessThanOperator
	GreaterThanEqualOperator
	GreaterThanOperator
	NotOperator
	ExistsOperator
	EqualOperator
	NotEqualOperator
	RegexpMatchOperator
	NotRegexpMatchOperator
)

var operatorTokens = map[OperatorKind]string{
	InvalidOperator:          "<INVALID_OP>",
	MultiplicationOperator:   "*",
	DivisionOperator:         "/",
	ModuloOperator:           "%",
	PowerOperator:            "^",
	AdditionOperator:         "+",
	SubtractionOperator:      "-",
	LessThanEqualOperator:    "<=",
	LessThanOperator:         "<",
	GreaterThanEqualOperator: ">=",
	GreaterThanOperator:      ">",
	NotOperator:              "not",
	ExistsOperator:           "exists",
	EqualOperator:            "==",
	NotEqualOperator:         "!=",
	RegexpMatchOperator:      "=~",
	NotRegexpMatchOperator:   "!~",
}

var operators = func() map[string]OperatorKind {
	m := make(map[string]OperatorKind, len(operatorTokens))
	for k, v := range operatorTokens {
		m[v] = k
	}
	return m
}()

func (o OperatorKind) String() string {
	return operatorTokens[o]
}

// OperatorLookup converts an operator's text to its kind.
func OperatorLookup(op string) OperatorKind {
	return operators[op]
}

func (o OperatorKind) MarshalText() ([]byte, error) {
	text, ok := operatorTokens[o]
	if !ok {
		return nil, fmt.Errorf("unknown operator %d", int(o))
	}
	return []byte(text), nil
}

func (o *OperatorKind) UnmarshalText(data []byte) error {
	var ok bool
	*o, ok = operators[string(data)]
	if !ok {
		return fmt.Errorf("unknown operator %q", string(data))
	}
	return nil
}

// LogicalOperatorKind is "and" or "or".
type LogicalOperatorKind int

const (
	AndOperator LogicalOperatorKind = iota
	OrOperator
)

var logOperatorTokens = map[LogicalOperatorKind]string{
	AndOperator: "and",
	OrOperator:  "or",
}

var logOperators = map[string]LogicalOperatorKind{
	"and": AndOperator,
	"or":  OrOperator,
}

func (o LogicalOperatorKind) String() string {
	return logOperatorTokens[o]
}

// LogicalOperatorLookup converts "and" or "or" to its kind.
func LogicalOperatorLookup(op string) LogicalOperatorKind {
	return logOperators[op]
}

func (o LogicalOperatorKind) MarshalText() ([]byte, error) {
	text, ok := logOperatorTokens[o]
	if !ok {
		return nil, fmt.Errorf("unknown logical operator %d", int(o))
	}
	return []byte(text), nil
}

func (o *LogicalOperatorKind) UnmarshalText(data []byte) error {
	var ok bool
	*o, ok = logOperators[string(data)]
	if !ok {
		return fmt.Errorf("unknown logical operator %q", string(data))
	}
	return nil
}
