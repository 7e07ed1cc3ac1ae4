package parser

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vito/fluxc/pkg/ast"
)

func parse(t *testing.T, src string) *ast.File {
	t.Helper()
	return ParseFile("test.flux", []byte(src))
}

func parseClean(t *testing.T, src string) *ast.File {
	t.Helper()
	f := parse(t, src)
	require.NoError(t, ast.GetError(f), "parsing %q", src)
	return f
}

func onlyExpr(t *testing.T, src string) ast.Expression {
	t.Helper()
	f := parseClean(t, src)
	require.Len(t, f.Body, 1)
	stmt, ok := f.Body[0].(*ast.ExpressionStatement)
	require.True(t, ok, "expected expression statement, got %T", f.Body[0])
	return stmt.Expression
}

func errorMessages(n ast.Node) []string {
	var msgs []string
	for _, err := range ast.Errors(n) {
		msgs = append(msgs, err.Msg)
	}
	return msgs
}

func TestParseAssignment(t *testing.T) {
	f := parseClean(t, "x = 1 + 1")
	require.Len(t, f.Body, 1)

	assign, ok := f.Body[0].(*ast.VariableAssignment)
	require.True(t, ok)
	assert.Equal(t, "x", assign.ID.Name)

	bin, ok := assign.Init.(*ast.BinaryExpression)
	require.True(t, ok)
	assert.Equal(t, ast.AdditionOperator, bin.Operator)
	assert.Equal(t, int64(1), bin.Left.(*ast.IntegerLiteral).Value)
	assert.Equal(t, int64(1), bin.Right.(*ast.IntegerLiteral).Value)

	assert.Equal(t, Metadata, f.Metadata)
	assert.Equal(t, "test.flux", f.Name)
}

func TestParseLocations(t *testing.T) {
	f := parseClean(t, "x = 1\ny = x")
	require.Len(t, f.Body, 2)

	first := f.Body[0].Location()
	assert.Equal(t, ast.Position{Line: 1, Column: 1}, first.Start)
	assert.Equal(t, ast.Position{Line: 1, Column: 6}, first.End)
	assert.Equal(t, "x = 1", first.Source)
	assert.Equal(t, "test.flux", first.File)

	second := f.Body[1].Location()
	assert.Equal(t, ast.Position{Line: 2, Column: 1}, second.Start)
	assert.Equal(t, ast.Position{Line: 2, Column: 6}, second.End)
	assert.Equal(t, "y = x", second.Source)

	assert.Equal(t, "x = 1\ny = x", f.Location().Source)
}

func TestParsePrecedence(t *testing.T) {
	expr := onlyExpr(t, "a + b * c")
	add := expr.(*ast.BinaryExpression)
	assert.Equal(t, ast.AdditionOperator, add.Operator)
	mul := add.Right.(*ast.BinaryExpression)
	assert.Equal(t, ast.MultiplicationOperator, mul.Operator)

	expr = onlyExpr(t, "a - b - c")
	sub := expr.(*ast.BinaryExpression)
	assert.Equal(t, "c", sub.Right.(*ast.Identifier).Name)
	assert.IsType(t, &ast.BinaryExpression{}, sub.Left)

	expr = onlyExpr(t, "a or b and c")
	or := expr.(*ast.LogicalExpression)
	assert.Equal(t, ast.OrOperator, or.Operator)
	and := or.Right.(*ast.LogicalExpression)
	assert.Equal(t, ast.AndOperator, and.Operator)

	expr = onlyExpr(t, "not a == b")
	not := expr.(*ast.UnaryExpression)
	assert.Equal(t, ast.NotOperator, not.Operator)
	assert.IsType(t, &ast.BinaryExpression{}, not.Argument)

	expr = onlyExpr(t, "2 ^ 3 * 4")
	mul = expr.(*ast.BinaryExpression)
	assert.Equal(t, ast.MultiplicationOperator, mul.Operator)
	assert.Equal(t, ast.PowerOperator, mul.Left.(*ast.BinaryExpression).Operator)

	expr = onlyExpr(t, "a =~ /x/")
	match := expr.(*ast.BinaryExpression)
	assert.Equal(t, ast.RegexpMatchOperator, match.Operator)
	assert.Equal(t, "x", match.Right.(*ast.RegexpLiteral).Value)
}

func TestParseDivisionIsNotRegex(t *testing.T) {
	expr := onlyExpr(t, "a / b / c")
	div := expr.(*ast.BinaryExpression)
	assert.Equal(t, ast.DivisionOperator, div.Operator)
	assert.Equal(t, ast.DivisionOperator, div.Left.(*ast.BinaryExpression).Operator)
}

func TestParsePipe(t *testing.T) {
	expr := onlyExpr(t, `from(bucket: "b") |> range(start: -1h)`)
	pipe, ok := expr.(*ast.PipeExpression)
	require.True(t, ok)
	assert.Equal(t, "range", pipe.Call.Callee.(*ast.Identifier).Name)

	from := pipe.Argument.(*ast.CallExpression)
	require.Len(t, from.Arguments, 1)
	obj := from.Arguments[0].(*ast.ObjectExpression)
	require.Len(t, obj.Properties, 1)
	assert.Equal(t, "bucket", obj.Properties[0].Key.Key())
	assert.Equal(t, "b", obj.Properties[0].Value.(*ast.StringLiteral).Value)

	start := pipe.Call.Arguments[0].(*ast.ObjectExpression).Properties[0].Value.(*ast.UnaryExpression)
	assert.Equal(t, ast.SubtractionOperator, start.Operator)
	assert.Equal(t, []ast.Duration{{Magnitude: 1, Unit: "h"}}, start.Argument.(*ast.DurationLiteral).Values)
}

func TestParsePipeDestinationMustBeCall(t *testing.T) {
	f := parse(t, "a |> b")
	assert.Equal(t, []string{"pipe destination must be a function call"}, errorMessages(f))

	stmt := f.Body[0].(*ast.ExpressionStatement)
	pipe := stmt.Expression.(*ast.PipeExpression)
	assert.Equal(t, "b", pipe.Call.Callee.(*ast.Identifier).Name)
}

func TestParseLiterals(t *testing.T) {
	for _, tc := range []struct {
		src  string
		want ast.Expression
	}{
		{"42", &ast.IntegerLiteral{Value: 42}},
		{"1.5", &ast.FloatLiteral{Value: 1.5}},
		{`"a\tb\x41"`, &ast.StringLiteral{Value: "a\tbA"}},
		{`/a\/b\d/`, &ast.RegexpLiteral{Value: `a/b\d`}},
		{"1h30m", &ast.DurationLiteral{Values: []ast.Duration{{Magnitude: 1, Unit: "h"}, {Magnitude: 30, Unit: "m"}}}},
		{"2020-01-02", &ast.DateTimeLiteral{Value: time.Date(2020, 1, 2, 0, 0, 0, 0, time.UTC)}},
		{"2020-01-02T03:04:05Z", &ast.DateTimeLiteral{Value: time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC)}},
		{"<-", &ast.PipeLiteral{}},
	} {
		t.Run(tc.src, func(t *testing.T) {
			expr := onlyExpr(t, tc.src)
			expr.Base().Loc = nil
			assert.Equal(t, tc.want, expr)
		})
	}
}

func TestParseIntegerOutOfRange(t *testing.T) {
	f := parse(t, "x = 99999999999999999999")
	assert.Equal(t, []string{`invalid integer literal "99999999999999999999": value out of range`}, errorMessages(f))
	lit := f.Body[0].(*ast.VariableAssignment).Init.(*ast.IntegerLiteral)
	assert.Equal(t, int64(0), lit.Value)
}

func TestParseStringInterpolation(t *testing.T) {
	expr := onlyExpr(t, `"a ${b.c} d"`)
	str, ok := expr.(*ast.StringExpression)
	require.True(t, ok)
	require.Len(t, str.Parts, 3)

	assert.Equal(t, "a ", str.Parts[0].(*ast.TextPart).Value)
	member := str.Parts[1].(*ast.InterpolatedPart).Expression.(*ast.MemberExpression)
	assert.Equal(t, "c", member.Property.Key())
	assert.Equal(t, " d", str.Parts[2].(*ast.TextPart).Value)

	// Statements after the string are parsed normally.
	f := parseClean(t, "x = \"${y}\"\nz = 1")
	require.Len(t, f.Body, 2)
	assert.Equal(t, "z", f.Body[1].(*ast.VariableAssignment).ID.Name)
}

func TestParseUnterminatedStringExpression(t *testing.T) {
	f := parse(t, `x = "a ${b}`)
	msgs := errorMessages(f)
	require.NotEmpty(t, msgs)
	assert.True(t, strings.HasPrefix(msgs[0], "got unexpected token in string expression test.flux@"), msgs[0])
}

func TestParseErrorRecovery(t *testing.T) {
	f := parse(t, "x = )\ny = 2")
	require.Len(t, f.Body, 3)

	bad := f.Body[0].(*ast.VariableAssignment).Init.(*ast.BadExpression)
	assert.Equal(t, "invalid token for primary expression: RPAREN", bad.Text)
	assert.Equal(t, ")", f.Body[1].(*ast.BadStatement).Text)

	y := f.Body[2].(*ast.VariableAssignment)
	assert.Equal(t, "y", y.ID.Name)
	assert.Equal(t, int64(2), y.Init.(*ast.IntegerLiteral).Value)
	assert.Empty(t, y.Errs())

	assert.Equal(t, 2, ast.Check(f))
	assert.Equal(t, []string{
		"invalid expression: invalid token for primary expression: RPAREN",
		"invalid statement: )",
	}, errorMessages(f))
}

func TestParseAlwaysTerminates(t *testing.T) {
	for _, src := range []string{
		"(",
		")",
		"f(",
		"f(a:",
		"[1, 2",
		"[1: 2, 3",
		"{a: 1,,}",
		"(a, b) =>",
		`"${`,
		"builtin x : (",
		"builtin x : {A with",
		"if a then",
		"a |> |>",
		"option",
		"testcase t",
		"x[",
		"= = =",
	} {
		t.Run(src, func(t *testing.T) {
			f := parse(t, src)
			assert.NotZero(t, ast.Check(f), "expected errors for %q", src)
		})
	}
}

func TestParseMissingPropertyValue(t *testing.T) {
	f := parse(t, "f(a: )")
	assert.Contains(t, errorMessages(f), "missing property value")
}

func TestParseInvalidPropertyKey(t *testing.T) {
	f := parse(t, "{1: 2}")
	msgs := errorMessages(f)
	assert.Contains(t, msgs, "unexpected token for property key: INT (1)")

	obj := f.Body[0].(*ast.ExpressionStatement).Expression.(*ast.ObjectExpression)
	require.Len(t, obj.Properties, 1)
	assert.Equal(t, "<invalid>", obj.Properties[0].Key.Key())
	assert.Equal(t, int64(2), obj.Properties[0].Value.(*ast.IntegerLiteral).Value)
}

func TestParseFunctions(t *testing.T) {
	expr := onlyExpr(t, "(a, b=2) => a + b")
	fn := expr.(*ast.FunctionExpression)
	require.Len(t, fn.Params, 2)
	assert.Equal(t, "a", fn.Params[0].Key.Key())
	assert.Nil(t, fn.Params[0].Value)
	assert.Equal(t, "b", fn.Params[1].Key.Key())
	assert.Equal(t, int64(2), fn.Params[1].Value.(*ast.IntegerLiteral).Value)
	assert.IsType(t, &ast.BinaryExpression{}, fn.Body)

	expr = onlyExpr(t, "() => {\n  x = 1\n  return x\n}")
	fn = expr.(*ast.FunctionExpression)
	assert.Empty(t, fn.Params)
	block := fn.Body.(*ast.Block)
	require.Len(t, block.Body, 2)
	assert.IsType(t, &ast.ReturnStatement{}, block.Body[1])

	expr = onlyExpr(t, "(r) => r._value")
	fn = expr.(*ast.FunctionExpression)
	require.Len(t, fn.Params, 1)

	// A lone parenthesised identifier is not a function.
	expr = onlyExpr(t, "(r)")
	paren := expr.(*ast.ParenExpression)
	assert.Equal(t, "r", paren.Expression.(*ast.Identifier).Name)
}

func TestParseObjects(t *testing.T) {
	expr := onlyExpr(t, `{r with x: 1, "y z": 2}`)
	obj := expr.(*ast.ObjectExpression)
	require.NotNil(t, obj.With)
	assert.Equal(t, "r", obj.With.Name)
	require.Len(t, obj.Properties, 2)
	assert.Equal(t, "x", obj.Properties[0].Key.Key())
	assert.Equal(t, "y z", obj.Properties[1].Key.Key())

	expr = onlyExpr(t, "{a, b}")
	obj = expr.(*ast.ObjectExpression)
	require.Len(t, obj.Properties, 2)
	assert.Nil(t, obj.Properties[1].Value)
}

func TestParseArraysAndDicts(t *testing.T) {
	arr := onlyExpr(t, "[1, 2, 3]").(*ast.ArrayExpression)
	assert.Len(t, arr.Elements, 3)

	arr = onlyExpr(t, "[]").(*ast.ArrayExpression)
	assert.Empty(t, arr.Elements)

	dict := onlyExpr(t, `["a": 1, "b": 2]`).(*ast.DictExpression)
	require.Len(t, dict.Elements, 2)
	assert.Equal(t, "b", dict.Elements[1].Key.(*ast.StringLiteral).Value)

	dict = onlyExpr(t, "[:]").(*ast.DictExpression)
	assert.Empty(t, dict.Elements)
}

func TestParseIndexAndMember(t *testing.T) {
	idx := onlyExpr(t, "a[0]").(*ast.IndexExpression)
	assert.Equal(t, int64(0), idx.Index.(*ast.IntegerLiteral).Value)

	member := onlyExpr(t, `a["b"]`).(*ast.MemberExpression)
	assert.Equal(t, "b", member.Property.Key())

	f := parse(t, "a[]")
	assert.Contains(t, errorMessages(f), "no expression included in brackets")
}

func TestParseConditional(t *testing.T) {
	cond := onlyExpr(t, "if a then b else c").(*ast.ConditionalExpression)
	assert.Equal(t, "a", cond.Test.(*ast.Identifier).Name)
	assert.Equal(t, "b", cond.Consequent.(*ast.Identifier).Name)
	assert.Equal(t, "c", cond.Alternate.(*ast.Identifier).Name)
}

func TestParsePackageAndImports(t *testing.T) {
	f := parseClean(t, "package foo\nimport \"strings\"\nimport s \"strings\"\nx = s.title(v: \"a\")")
	require.NotNil(t, f.Package)
	assert.Equal(t, "foo", f.Package.Name.Name)
	require.Len(t, f.Imports, 2)
	assert.Nil(t, f.Imports[0].As)
	assert.Equal(t, "strings", f.Imports[0].Path.Value)
	assert.Equal(t, "s", f.Imports[1].As.Name)

	pkg := Parse("foo.flux", []byte("package foo\nx = 1"))
	assert.Equal(t, "foo", pkg.Package)

	pkg = Parse("main.flux", []byte("x = 1"))
	assert.Equal(t, ast.DefaultPackageName, pkg.Package)
}

func TestParseOptions(t *testing.T) {
	f := parseClean(t, "option now = () => 2020-01-01T00:00:00Z\noption task.every = 1h")
	require.Len(t, f.Body, 2)

	opt := f.Body[0].(*ast.OptionStatement)
	assert.Equal(t, "now", opt.Assignment.(*ast.VariableAssignment).ID.Name)

	opt = f.Body[1].(*ast.OptionStatement)
	member := opt.Assignment.(*ast.MemberAssignment)
	assert.Equal(t, "task", member.Member.Object.(*ast.Identifier).Name)
	assert.Equal(t, "every", member.Member.Property.Key())

	f = parse(t, "option x + 1")
	assert.Contains(t, errorMessages(f), "invalid option assignment suffix")
}

func TestParseTests(t *testing.T) {
	f := parseClean(t, "test t = () => ({input: 1})\ntestcase c extends \"base\" {\n  x = 1\n}")
	require.Len(t, f.Body, 2)

	ts := f.Body[0].(*ast.TestStatement)
	assert.Equal(t, "t", ts.Assignment.ID.Name)

	tc := f.Body[1].(*ast.TestCaseStatement)
	assert.Equal(t, "c", tc.ID.Name)
	assert.Equal(t, "base", tc.Extends.Value)
	assert.Len(t, tc.Block.Body, 1)
}

func TestParseBuiltin(t *testing.T) {
	f := parseClean(t, "builtin filter : (<-tables: [A], fn: (r: A) => bool, ?onEmpty: string) => [A] where A: Record")
	require.Len(t, f.Body, 1)

	b := f.Body[0].(*ast.BuiltinStatement)
	assert.Equal(t, "filter", b.ID.Name)

	fn := b.Ty.Ty.(*ast.FunctionType)
	require.Len(t, fn.Parameters, 3)
	assert.Equal(t, ast.Pipe, fn.Parameters[0].Kind)
	assert.Equal(t, "tables", fn.Parameters[0].Name.Name)
	assert.IsType(t, &ast.ArrayType{}, fn.Parameters[0].Ty)
	assert.Equal(t, ast.Required, fn.Parameters[1].Kind)
	assert.IsType(t, &ast.FunctionType{}, fn.Parameters[1].Ty)
	assert.Equal(t, ast.Optional, fn.Parameters[2].Kind)
	assert.Equal(t, "string", fn.Parameters[2].Ty.(*ast.NamedType).ID.Name)

	require.Len(t, b.Ty.Constraints, 1)
	assert.Equal(t, "A", b.Ty.Constraints[0].Tvar.Name)
	assert.Equal(t, "Record", b.Ty.Constraints[0].Kinds[0].Name)
}

func TestParseTypeExpression(t *testing.T) {
	ty, err := ParseTypeExpression("{A with a: int, b: [string:B]} where B: Addable + Comparable")
	require.NoError(t, err)

	rec := ty.Ty.(*ast.RecordType)
	assert.Equal(t, "A", rec.Tvar.Name)
	require.Len(t, rec.Properties, 2)
	dict := rec.Properties[1].Ty.(*ast.DictType)
	assert.Equal(t, "string", dict.KeyType.(*ast.NamedType).ID.Name)
	assert.Equal(t, "B", dict.ValueType.(*ast.TvarType).ID.Name)
	assert.Len(t, ty.Constraints[0].Kinds, 2)

	ty, err = ParseTypeExpression("(<-: int) => int")
	require.NoError(t, err)
	param := ty.Ty.(*ast.FunctionType).Parameters[0]
	assert.Equal(t, ast.Pipe, param.Kind)
	assert.Nil(t, param.Name)

	_, err = ParseTypeExpression("int int")
	assert.Error(t, err)
}

func TestParseFiles(t *testing.T) {
	pkg, err := ParseFiles(context.Background(), []Source{
		{Name: "a.flux", Data: []byte("package foo\na = 1")},
		{Name: "b.flux", Data: []byte("package foo\nb = 2")},
		{Name: "c.flux", Data: []byte("package foo\nc = 3")},
	})
	require.NoError(t, err)
	assert.Equal(t, "foo", pkg.Package)
	require.Len(t, pkg.Files, 3)
	for i, name := range []string{"a.flux", "b.flux", "c.flux"} {
		assert.Equal(t, name, pkg.Files[i].Name)
	}

	_, err = ParseFiles(context.Background(), []Source{
		{Name: "a.flux", Data: []byte("package foo\na = 1")},
		{Name: "b.flux", Data: []byte("package bar\nb = 2")},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `file is in package "bar", but other files are in package "foo"`)
}

func TestParseComments(t *testing.T) {
	f := parseClean(t, "// leading\nx = 1 // trailing\n// done")
	require.Len(t, f.Body, 1)
}
