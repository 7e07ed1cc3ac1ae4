package flux

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gtassert "gotest.tools/v3/assert"
	"gotest.tools/v3/assert/cmp"
)

func TestStdlibIsBuiltOnce(t *testing.T) {
	var wg sync.WaitGroup
	libs := make([]*Library, 8)
	for i := range libs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			libs[i] = Stdlib()
		}(i)
	}
	wg.Wait()
	for _, lib := range libs {
		assert.Same(t, libs[0], lib)
	}
	assert.Equal(t, LoadStdlibTypeEnvironment(), LoadStdlibTypeEnvironment())
}

func TestStdlibPackages(t *testing.T) {
	lib := Stdlib()
	gtassert.DeepEqual(t, lib.Paths(), []string{
		"array", "date", "experimental", "math", "regexp", "strings", "universe",
	})

	schemes := map[string]string{}
	for _, b := range lib.Bindings("universe") {
		schemes[b.Name] = b.Scheme.String()
	}
	gtassert.Check(t, cmp.Equal(schemes["true"], "bool"))
	gtassert.Check(t, cmp.Equal(schemes["filter"],
		"(<-tables: [A], fn: (r: A) => bool, ?onEmpty: string) => [A] where A: Record"))
	gtassert.Check(t, cmp.Equal(schemes["length"], "(arr: [A]) => int"))
	gtassert.Check(t, cmp.Contains(schemes["aggregateWindow"], "every: duration"))

	strs, ok := lib.Import("strings")
	gtassert.Assert(t, ok)
	title, ok := strs.LocalSchemeOf("title")
	gtassert.Assert(t, ok)
	gtassert.Check(t, cmp.Equal(title.String(), "(v: string) => string"))

	// Package bindings do not include the prelude.
	_, ok = strs.LocalSchemeOf("filter")
	gtassert.Check(t, !ok)
}

func TestStdlibJSON(t *testing.T) {
	var doc struct {
		Packages []struct {
			Path     string `json:"path"`
			Bindings []struct {
				Name   string          `json:"name"`
				Scheme string          `json:"scheme"`
				Type   json.RawMessage `json:"type"`
			} `json:"bindings"`
		} `json:"packages"`
	}
	require.NoError(t, json.Unmarshal(LoadStdlibTypeEnvironment(), &doc))
	require.NotEmpty(t, doc.Packages)

	for _, pkg := range doc.Packages {
		if pkg.Path != "regexp" {
			continue
		}
		for _, b := range pkg.Bindings {
			if b.Name == "compile" {
				assert.Equal(t, "(v: string) => regexp", b.Scheme)
				assert.JSONEq(t, `{
					"kind": "Function",
					"required": [{"name": "v", "type": {"kind": "Basic", "name": "string"}}],
					"optional": [],
					"return": {"kind": "Basic", "name": "regexp"}
				}`, string(b.Type))
				return
			}
		}
	}
	t.Fatal("regexp.compile not found")
}

func TestLoadLibraryErrors(t *testing.T) {
	_, err := LoadLibrary(map[string]string{"bad": "x = "})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "package bad")

	_, err = LoadLibrary(map[string]string{"bad": "x = 1 + \"s\""})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected int but found string")
}

func TestFindVariableType(t *testing.T) {
	ctx := context.Background()

	ty, err := FindVariableType(ctx, Parse("a.flux", "x = r.a + 1"), "r")
	require.NoError(t, err)
	assert.Equal(t, "{A with a: int}", ty.String())

	ty, err = FindVariableType(ctx, Parse("a.flux", "x = 1"), "x")
	require.NoError(t, err)
	assert.Equal(t, "int", ty.String())

	ty, err = FindVariableType(ctx, Parse("a.flux", "x = 1"), "unused")
	require.NoError(t, err)
	assert.Equal(t, "A", ty.String())

	ty, err = FindVariableType(ctx, Parse("a.flux", "x = length(arr: v)"), "v")
	require.NoError(t, err)
	assert.Equal(t, "[A]", ty.String())

	data, err := FindVariableTypeJSON(ctx, Parse("a.flux", "import \"strings\"\nx = strings.title(v: v)"), "v")
	require.NoError(t, err)
	assert.JSONEq(t, `{"kind":"Basic","name":"string"}`, string(data))

	_, err = FindVariableType(ctx, Parse("a.flux", "x = v + \"s\"\ny = v * 2"), "v")
	require.Error(t, err)
}
