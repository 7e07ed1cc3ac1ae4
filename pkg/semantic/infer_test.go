package semantic

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vito/fluxc/pkg/hm"
	"github.com/vito/fluxc/pkg/parser"
)

func convert(t *testing.T, src string) *Package {
	t.Helper()
	pkg, err := Convert(parser.Parse("test.flux", []byte(src)))
	require.NoError(t, err)
	return pkg
}

// prelude binds the boolean constants, which are ordinary identifiers.
var prelude = hm.NewEnv().
	Add("true", hm.Monotype(hm.Bool)).
	Add("false", hm.Monotype(hm.Bool))

func infer(t *testing.T, src string, importer Importer) (*Package, *hm.Env, error) {
	t.Helper()
	pkg := convert(t, src)
	env, err := Infer(pkg, prelude, hm.NewSimpleFresher(0), importer)
	return pkg, env, err
}

func inferClean(t *testing.T, src string) *hm.Env {
	t.Helper()
	_, env, err := infer(t, src, nil)
	require.NoError(t, err)
	return env
}

func typeOf(t *testing.T, env *hm.Env, name string) string {
	t.Helper()
	scheme, ok := env.SchemeOf(name)
	require.True(t, ok, "%s is not bound", name)
	return scheme.String()
}

func TestInferLiterals(t *testing.T) {
	env := inferClean(t, `
a = 1
c = 1.5
d = "s"
e = true
f = 1h30m
g = 2024-01-01T00:00:00Z
h = /ab+/
i = "x${d}y"
`)
	for name, want := range map[string]string{
		"a": "int",
		"c": "float",
		"d": "string",
		"e": "bool",
		"f": "duration",
		"g": "time",
		"h": "regexp",
		"i": "string",
	} {
		assert.Equal(t, want, typeOf(t, env, name), name)
	}
}

func TestInferCollections(t *testing.T) {
	env := inferClean(t, `
a = [1, 2, 3]
b = []
c = ["a": 1, "b": 2]
d = a[0]
e = {x: 1, y: "s"}
f = {e with z: 1.0}
`)
	assert.Equal(t, "[int]", typeOf(t, env, "a"))
	assert.Equal(t, "[A]", typeOf(t, env, "b"))
	assert.Equal(t, "[string:int]", typeOf(t, env, "c"))
	assert.Equal(t, "int", typeOf(t, env, "d"))
	assert.Equal(t, "{x: int, y: string}", typeOf(t, env, "e"))
	assert.Equal(t, "{z: float, x: int, y: string}", typeOf(t, env, "f"))
}

func TestInferOperators(t *testing.T) {
	env := inferClean(t, `
a = 1 + 2
b = "a" + "b"
c = 1.0 < 2.0
d = "a" == "b"
e = "abc" =~ /b/
f = not true
g = -1.5
h = true and false or true
i = if 1 > 2 then "a" else "b"
`)
	assert.Equal(t, "int", typeOf(t, env, "a"))
	assert.Equal(t, "string", typeOf(t, env, "b"))
	assert.Equal(t, "bool", typeOf(t, env, "c"))
	assert.Equal(t, "bool", typeOf(t, env, "d"))
	assert.Equal(t, "bool", typeOf(t, env, "e"))
	assert.Equal(t, "bool", typeOf(t, env, "f"))
	assert.Equal(t, "float", typeOf(t, env, "g"))
	assert.Equal(t, "bool", typeOf(t, env, "h"))
	assert.Equal(t, "string", typeOf(t, env, "i"))
}

func TestInferFunctions(t *testing.T) {
	env := inferClean(t, `
id = (x) => x
a = id(x: 1)
b = id(x: "s")
add = (a, b) => a + b
c = add(a: 1.0, b: 2.0)
get = (r) => r.name
n = get(r: {name: "n", age: 1})
withDefault = (x, y=10) => x * y
d = withDefault(x: 2)
`)
	assert.Equal(t, "(x: A) => A", typeOf(t, env, "id"))
	assert.Equal(t, "int", typeOf(t, env, "a"))
	assert.Equal(t, "string", typeOf(t, env, "b"))
	assert.Equal(t, "(a: A, b: A) => A where A: Addable", typeOf(t, env, "add"))
	assert.Equal(t, "float", typeOf(t, env, "c"))
	assert.Equal(t, "(r: {A with name: B}) => B", typeOf(t, env, "get"))
	assert.Equal(t, "string", typeOf(t, env, "n"))
	assert.Equal(t, "(x: int, ?y: int) => int", typeOf(t, env, "withDefault"))
	assert.Equal(t, "int", typeOf(t, env, "d"))
}

func TestInferBlocks(t *testing.T) {
	env := inferClean(t, `
f = (x) => {
    y = x + 1
    return y * 2
}
a = f(x: 3)
`)
	assert.Equal(t, "int", typeOf(t, env, "a"))
}

func TestInferPipes(t *testing.T) {
	env := inferClean(t, `
apply = (tables=<-, fn) => fn(r: tables)
a = 1 |> apply(fn: (r) => r + 1)
b = apply(tables: "s", fn: (r) => r + "!")
`)
	assert.Equal(t, "(<-tables: A, fn: (r: A) => B) => B", typeOf(t, env, "apply"))
	assert.Equal(t, "int", typeOf(t, env, "a"))
	assert.Equal(t, "string", typeOf(t, env, "b"))
}

func TestInferBuiltins(t *testing.T) {
	env := inferClean(t, `
builtin plus : (a: A, b: A) => A where A: Addable
x = plus(a: 1, b: 2)
y = plus(a: "a", b: "b")
`)
	assert.Equal(t, "(a: A, b: A) => A where A: Addable", typeOf(t, env, "plus"))
	assert.Equal(t, "int", typeOf(t, env, "x"))
	assert.Equal(t, "string", typeOf(t, env, "y"))
}

func TestInferOptions(t *testing.T) {
	env := inferClean(t, `
option now = 1
option now = 2
`)
	assert.Equal(t, "int", typeOf(t, env, "now"))

	_, _, err := infer(t, "option now = 1\noption now = \"s\"", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected int but found string")
}

func TestInferImports(t *testing.T) {
	strs := hm.NewEnv().Add("title", hm.Monotype(hm.NewFnType(
		map[string]hm.Type{"v": hm.String}, nil, nil, hm.String,
	)))
	ident := hm.NewEnv().Add("identity", hm.NewScheme(
		[]hm.TypeVariable{0},
		hm.NewFnType(map[string]hm.Type{"x": hm.TypeVariable(0)}, nil, nil, hm.TypeVariable(0)),
	))
	importer := Packages{"strings": strs, "example/ident": ident}

	_, env, err := infer(t, `
import "strings"
import i "example/ident"
a = strings.title(v: "hi")
b = i.identity(x: 1)
c = i.identity(x: "s")
`, importer)
	require.NoError(t, err)
	assert.Equal(t, "string", typeOf(t, env, "a"))
	assert.Equal(t, "int", typeOf(t, env, "b"))
	assert.Equal(t, "string", typeOf(t, env, "c"))

	_, ok := env.LocalSchemeOf("strings")
	assert.False(t, ok, "imports are file-local")

	_, _, err = infer(t, `import "nope"`, importer)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `package "nope" not found`)
}

func TestInferErrors(t *testing.T) {
	for _, tc := range []struct {
		src string
		err string
	}{
		{"x = 1 + 1.0", "expected int but found float"},
		{"x = y", "undefined identifier y"},
		{"r = {a: 1}\nx = r.b", "record is missing label b"},
		{"x = [1, \"a\"]", "expected int but found string"},
		{"x = if 1 then 2 else 3", "expected bool but found int"},
		{"x = if true then 2 else \"3\"", "expected int but found string"},
		{"x = 1 and true", "expected bool but found int"},
		{"x = true + false", "bool is not Addable"},
		{"x = {a: 1} < {a: 2}", "is not Comparable"},
		{"x = 1 =~ /a/", "expected string but found int"},
		{"f = (tables=<-) => tables\nx = f()", "missing required argument tables"},
		{"f = (a) => a\nx = f(a: 1, b: 2)", "found unexpected argument b"},
		{"f = (a) => a\nx = f()", "missing required argument a"},
		{"f = (a) => a + 1\nx = f(a: \"s\")", "expected int but found string (argument a)"},
		{"f = (a) => a\nx = 1 |> f(a: 2)", "missing pipe argument"},
		{"f = (x) => x(x: x)", "recursive types not supported"},
		{"x = [1][\"a\"]", "expected int but found string"},
	} {
		t.Run(tc.src, func(t *testing.T) {
			_, _, err := infer(t, tc.src, nil)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.err)

			var serr *SourceError
			require.True(t, errors.As(err, &serr))
			assert.True(t, serr.Location.Start.IsValid())
		})
	}
}

func TestInferKeepsTypesBeforeError(t *testing.T) {
	pkg, env, err := infer(t, "a = 1\nb = a + \"s\"\nc = 2", nil)
	require.Error(t, err)
	assert.Nil(t, env)

	body := pkg.Files[0].Body
	first := body[0].(*NativeVariableAssignment)
	assert.Equal(t, hm.Int, first.Init.TypeOf())

	last := body[2].(*NativeVariableAssignment)
	assert.Nil(t, last.Init.TypeOf())
}

func TestInferTypesEveryExpression(t *testing.T) {
	pkg, _, err := infer(t, "f = (r) => r.a + 1\nx = f(r: {a: 2})", nil)
	require.NoError(t, err)

	Inspect(pkg, func(n Node) bool {
		if e, ok := n.(Expression); ok {
			require.NotNil(t, e.TypeOf(), "%s at %s", e.NodeType(), e.Location())
		}
		return true
	})

	x := pkg.Files[0].Body[1].(*NativeVariableAssignment)
	assert.Equal(t, hm.Int, x.Init.TypeOf())
}

func TestInferTestCase(t *testing.T) {
	env := inferClean(t, `
x = 1
testcase addition {
    y = x + 1
    z = y * 2
}
`)
	_, ok := env.SchemeOf("y")
	assert.False(t, ok, "testcase bindings are local")
	assert.Equal(t, "int", typeOf(t, env, "x"))
}

func TestSourceErrorHighlighting(t *testing.T) {
	src := "a = 1\nx = 1 + 1.0\nb = 2"
	_, _, err := infer(t, src, nil)
	require.Error(t, err)

	var serr *SourceError
	require.True(t, errors.As(err, &serr))
	out := serr.FormatWithHighlighting(src)
	assert.Contains(t, out, "expected int but found float")
	assert.Contains(t, out, "test.flux:2:5")
	assert.Contains(t, out, "x = 1 + 1.0")
	assert.Contains(t, out, "a = 1")
	assert.True(t, strings.Contains(out, "^"))
}
