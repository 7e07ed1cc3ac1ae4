package flux

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vito/fluxc/pkg/semantic"
)

func lookup(t *testing.T, s *Session, name string) string {
	t.Helper()
	scheme, ok := s.Lookup(name)
	require.True(t, ok, "%s is not bound", name)
	return scheme.String()
}

func TestSessionAccumulatesBindings(t *testing.T) {
	ctx := context.Background()
	s := NewSession("main")

	_, err := s.Analyze(ctx, "x = 10")
	require.NoError(t, err)
	_, err = s.Analyze(ctx, "y = x * x")
	require.NoError(t, err)
	assert.Equal(t, "int", lookup(t, s, "y"))
	assert.Equal(t, "int", lookup(t, s, "x"))

	_, err = s.Analyze(ctx, "z = a + y")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "undefined identifier a")
	_, ok := s.Lookup("z")
	assert.False(t, ok, "failed fragments leave no bindings")

	_, err = s.Analyze(ctx, "w = x + y")
	require.NoError(t, err)
	assert.Equal(t, "int", lookup(t, s, "w"))
}

func TestSessionFailureLeavesEnvironment(t *testing.T) {
	ctx := context.Background()
	s := NewSession("main")

	_, err := s.Analyze(ctx, "a = 1")
	require.NoError(t, err)
	before := s.Env()

	_, err = s.Analyze(ctx, "b = 2\nc = b + \"s\"")
	require.Error(t, err)
	assert.Same(t, before, s.Env())
	_, ok := s.Lookup("b")
	assert.False(t, ok)
}

func TestSessionPolymorphism(t *testing.T) {
	ctx := context.Background()
	s := NewSession("main")

	_, err := s.Analyze(ctx, "id = (v) => v")
	require.NoError(t, err)
	_, err = s.Analyze(ctx, "a = id(v: 1)")
	require.NoError(t, err)
	_, err = s.Analyze(ctx, "b = id(v: \"s\")")
	require.NoError(t, err)

	assert.Equal(t, "(v: A) => A", lookup(t, s, "id"))
	assert.Equal(t, "int", lookup(t, s, "a"))
	assert.Equal(t, "string", lookup(t, s, "b"))
}

func TestSessionShadowing(t *testing.T) {
	ctx := context.Background()
	s := NewSession("main")

	_, err := s.Analyze(ctx, "x = 1")
	require.NoError(t, err)
	_, err = s.Analyze(ctx, "x = \"now a string\"")
	require.NoError(t, err)
	assert.Equal(t, "string", lookup(t, s, "x"))

	// Prelude names can be shadowed too.
	_, err = s.Analyze(ctx, "length = 3")
	require.NoError(t, err)
	assert.Equal(t, "int", lookup(t, s, "length"))
}

func TestSessionErrorCarriesSource(t *testing.T) {
	ctx := context.Background()
	s := NewSession("main")

	src := "x = 1 + \"one\""
	_, err := s.AnalyzeWith(ctx, src, Parse("", src))
	require.Error(t, err)

	var serr *semantic.SourceError
	require.True(t, errors.As(err, &serr))
	assert.Equal(t, src, serr.Source)
	assert.Contains(t, serr.Highlighted(), src)
	assert.Contains(t, serr.Highlighted(), "<input>")
}

func TestSessionWithLibrary(t *testing.T) {
	lib, err := LoadLibrary(map[string]string{
		PreludePath: "builtin answer : int",
		"greet":     "package greet\n\nbuiltin hello : (name: string) => string",
	})
	require.NoError(t, err)

	ctx := context.Background()
	s := NewSession("main", WithLibrary(lib))
	_, err = s.Analyze(ctx, "import \"greet\"\nx = greet.hello(name: \"a\")\ny = answer + 1")
	require.NoError(t, err)
	assert.Equal(t, "string", lookup(t, s, "x"))
	assert.Equal(t, "int", lookup(t, s, "y"))

	_, ok := s.Lookup("filter")
	assert.False(t, ok, "the standard library is not visible")
}

func TestSessionTypeOf(t *testing.T) {
	ctx := context.Background()
	s := NewSession("main")

	_, err := s.Analyze(ctx, "x = 10")
	require.NoError(t, err)

	ty, err := s.TypeOf(ctx, "x * 2")
	require.NoError(t, err)
	assert.Equal(t, "int", ty.String())

	ty, err = s.TypeOf(ctx, "(r) => r.a")
	require.NoError(t, err)
	assert.Equal(t, "(r: {A with a: B}) => B", ty.String())

	_, err = s.TypeOf(ctx, "y = 1")
	assert.EqualError(t, err, "expected a single expression")

	_, err = s.TypeOf(ctx, "x + \"s\"")
	require.Error(t, err)

	before := s.Env()
	_, err = s.TypeOf(ctx, "x")
	require.NoError(t, err)
	assert.Same(t, before, s.Env())
}
