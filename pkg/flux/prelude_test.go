package flux

import (
	"context"
	"fmt"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vito/fluxc/pkg/hm"
	"github.com/vito/fluxc/pkg/semantic"
)

var preludeCalls = []struct {
	src string
	typ string
	err string
}{
	{src: "x = length(arr: [1])", typ: "int"},
	{src: `x = length(arr: ["a", "b"])`, typ: "int"},
	{src: "x = contains(value: 1, set: [1, 2])", typ: "bool"},
	{src: `x = contains(value: 1, set: ["a"])`, err: "expected"},
	{src: `x = int(v: "1")`, typ: "int"},
	{src: "x = string(v: 1)", typ: "string"},
	{src: "x = now()", typ: "time"},
	{src: `x = die(msg: "no")`, typ: "A"},
	{src: "x = [1, 2, 3] |> length()", err: "missing pipe argument"},
	{src: `x = from(bucket: "b") |> limit(n: 1)`, typ: "[A] where A: Record"},
	{src: `x = range(tables: from(bucket: "b"), start: -1h)`, typ: "[A] where A: Record"},
	{src: "x = limit(n: 1)", err: "missing required argument tables"},
	{src: "x = length()", err: "missing required argument arr"},
}

func TestPreludeCalls(t *testing.T) {
	ctx := context.Background()
	shared := NewSession("main")

	for _, tc := range preludeCalls {
		t.Run(tc.src, func(t *testing.T) {
			check := func(typ string, err error) {
				t.Helper()
				if tc.err != "" {
					require.Error(t, err)
					assert.Contains(t, err.Error(), tc.err)
					return
				}
				require.NoError(t, err)
				assert.Equal(t, tc.typ, typ)
			}

			check(analyzeType(ctx, tc.src))
			check(sessionType(ctx, NewSession("main"), tc.src))
			check(sessionType(ctx, shared, tc.src))
		})
	}
}

// TestPreludeBindings references and calls every prelude binding in fresh
// analyses, whose variables start where the library's did.
func TestPreludeBindings(t *testing.T) {
	ctx := context.Background()
	shared := NewSession("main")

	prelude := map[string]*hm.Scheme{}
	Stdlib().Prelude().Each(func(name string, scheme *hm.Scheme) {
		prelude[name] = scheme
	})
	require.Contains(t, prelude, "length")

	names := make([]string, 0, len(prelude))
	for name := range prelude {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		scheme := prelude[name]
		t.Run(name, func(t *testing.T) {
			ref := "x = " + name
			typ, err := analyzeType(ctx, ref)
			require.NoError(t, err)
			assert.Equal(t, scheme.String(), typ)

			typ, err = sessionType(ctx, shared, ref)
			require.NoError(t, err)
			assert.Equal(t, scheme.String(), typ)

			if ty, _ := scheme.Type(); !isFunction(ty) {
				return
			}
			for _, src := range []string{
				fmt.Sprintf("x = %s()", name),
				fmt.Sprintf(`x = from(bucket: "b") |> %s()`, name),
				fmt.Sprintf("x = [1, 2] |> %s()", name),
			} {
				typ, err := analyzeType(ctx, src)
				assert.True(t, err != nil || typ != "", "%s: no type and no error", src)

				typ, err = sessionType(ctx, NewSession("main"), src)
				assert.True(t, err != nil || typ != "", "%s: no type and no error", src)

				typ, err = sessionType(ctx, shared, src)
				assert.True(t, err != nil || typ != "", "%s: no type and no error", src)
			}
		})
	}
}

func isFunction(t hm.Type) bool {
	_, ok := t.(*hm.Function)
	return ok
}

// analyzeType analyzes src statelessly and returns the scheme bound to x.
func analyzeType(ctx context.Context, src string) (string, error) {
	pkg, err := Analyze(ctx, Parse("a.flux", src))
	if err != nil {
		return "", err
	}
	for _, f := range pkg.Files {
		for _, s := range f.Body {
			if a, ok := s.(*semantic.NativeVariableAssignment); ok && a.Identifier.Name == "x" && a.Scheme != nil {
				return a.Scheme.String(), nil
			}
		}
	}
	return "", nil
}

func sessionType(ctx context.Context, s *Session, src string) (string, error) {
	if _, err := s.Analyze(ctx, src); err != nil {
		return "", err
	}
	scheme, ok := s.Lookup("x")
	if !ok {
		return "", nil
	}
	return scheme.String(), nil
}
