package flux

import (
	"embed"
	"encoding/json"
	"fmt"
	"path"
	"sort"
	"strings"
	"sync"

	"github.com/vito/fluxc/pkg/ast"
	"github.com/vito/fluxc/pkg/hm"
	"github.com/vito/fluxc/pkg/parser"
	"github.com/vito/fluxc/pkg/semantic"
)

//go:embed stdlib/*.flux
var stdlibFS embed.FS

// PreludePath is the package whose bindings are visible without an import.
const PreludePath = "universe"

// Library is a set of typed packages. Once built it is never modified, so
// it may be shared between concurrent analyses.
type Library struct {
	prelude  *hm.Env
	packages map[string]*hm.Env
}

var (
	stdlibOnce sync.Once
	stdlib     *Library
	stdlibJSON []byte
)

// Stdlib returns the standard library, building it on first use.
func Stdlib() *Library {
	stdlibOnce.Do(func() {
		lib, err := LoadLibrary(StdlibSources())
		if err != nil {
			panic(fmt.Sprintf("loading standard library: %v", err))
		}
		data, err := lib.MarshalJSON()
		if err != nil {
			panic(fmt.Sprintf("encoding standard library: %v", err))
		}
		stdlib, stdlibJSON = lib, data
	})
	return stdlib
}

// LoadStdlibTypeEnvironment returns the standard library's bindings as
// JSON. Every call returns the same bytes.
func LoadStdlibTypeEnvironment() []byte {
	Stdlib()
	return stdlibJSON
}

// StdlibSources returns the source of every standard library package keyed
// by import path.
func StdlibSources() map[string]string {
	entries, err := stdlibFS.ReadDir("stdlib")
	if err != nil {
		panic(err)
	}
	srcs := map[string]string{}
	for _, e := range entries {
		data, err := stdlibFS.ReadFile(path.Join("stdlib", e.Name()))
		if err != nil {
			panic(err)
		}
		srcs[strings.TrimSuffix(e.Name(), ".flux")] = string(data)
	}
	return srcs
}

// LoadLibrary type checks a set of packages keyed by import path. The
// PreludePath package, if present, is checked first and its bindings are
// visible to the rest.
func LoadLibrary(srcs map[string]string) (*Library, error) {
	lib := &Library{
		prelude:  hm.NewEnv(),
		packages: map[string]*hm.Env{},
	}
	fresher := hm.NewSimpleFresher(0)

	if src, ok := srcs[PreludePath]; ok {
		exports, err := lib.check(PreludePath, src, hm.NewEnv(), fresher)
		if err != nil {
			return nil, err
		}
		lib.prelude = exports
		lib.packages[PreludePath] = exports
	}

	paths := make([]string, 0, len(srcs))
	for p := range srcs {
		if p != PreludePath {
			paths = append(paths, p)
		}
	}
	sort.Strings(paths)
	for _, p := range paths {
		exports, err := lib.check(p, srcs[p], lib.prelude, fresher)
		if err != nil {
			return nil, err
		}
		lib.packages[p] = exports
	}
	return lib, nil
}

func (lib *Library) check(pkgPath, src string, env *hm.Env, fresher hm.Fresher) (*hm.Env, error) {
	pkg := parser.Parse(pkgPath+".flux", []byte(src))
	if err := ast.GetError(pkg); err != nil {
		return nil, fmt.Errorf("package %s: %w", pkgPath, err)
	}
	pkg.Path = pkgPath
	sem, err := semantic.Convert(pkg)
	if err != nil {
		return nil, fmt.Errorf("package %s: %w", pkgPath, err)
	}
	scope, err := semantic.Infer(sem, env, fresher, lib)
	if err != nil {
		return nil, fmt.Errorf("package %s: %w", pkgPath, err)
	}

	// Keep only the package's own bindings.
	exports := hm.NewEnv()
	scope.Each(func(name string, scheme *hm.Scheme) {
		exports = exports.Add(name, scheme)
	})
	return exports, nil
}

// Prelude returns the bindings visible without an import.
func (lib *Library) Prelude() *hm.Env {
	return lib.prelude
}

// Import returns the bindings of the package at path.
func (lib *Library) Import(path string) (*hm.Env, bool) {
	env, ok := lib.packages[path]
	return env, ok
}

// Paths lists the import paths of the library in order.
func (lib *Library) Paths() []string {
	paths := make([]string, 0, len(lib.packages))
	for p := range lib.packages {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Binding is one typed name of a package.
type Binding struct {
	Name   string     `json:"name"`
	Scheme *hm.Scheme `json:"-"`
}

// Bindings lists the bindings of the package at path in name order.
func (lib *Library) Bindings(path string) []Binding {
	env, ok := lib.packages[path]
	if !ok {
		return nil
	}
	var out []Binding
	env.Each(func(name string, scheme *hm.Scheme) {
		out = append(out, Binding{Name: name, Scheme: scheme})
	})
	return out
}

type bindingJSON struct {
	Name   string  `json:"name"`
	Scheme string  `json:"scheme"`
	Type   hm.Type `json:"type"`
}

type packageJSON struct {
	Path     string        `json:"path"`
	Bindings []bindingJSON `json:"bindings"`
}

// MarshalJSON writes every package with each binding's displayed scheme
// and structured type.
func (lib *Library) MarshalJSON() ([]byte, error) {
	var pkgs []packageJSON
	for _, p := range lib.Paths() {
		pj := packageJSON{Path: p, Bindings: []bindingJSON{}}
		for _, b := range lib.Bindings(p) {
			t, _ := b.Scheme.Normalize().Type()
			pj.Bindings = append(pj.Bindings, bindingJSON{
				Name:   b.Name,
				Scheme: b.Scheme.String(),
				Type:   t,
			})
		}
		pkgs = append(pkgs, pj)
	}
	return json.Marshal(map[string]any{"packages": pkgs})
}
