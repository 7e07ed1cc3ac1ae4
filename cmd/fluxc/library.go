package main

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/vito/fluxc/pkg/flux"
)

// loadLibrary returns the standard library, extended with the .flux
// packages found in dir when one is configured. Each file is a package
// whose import path is its base name.
func loadLibrary(dir string) (*flux.Library, error) {
	if dir == "" {
		return flux.Stdlib(), nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrap(err, "reading library")
	}
	srcs := flux.StdlibSources()
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".flux" {
			continue
		}
		name := strings.TrimSuffix(entry.Name(), ".flux")
		if _, ok := srcs[name]; ok {
			return nil, errors.Errorf("library package %s conflicts with the standard library", name)
		}
		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, errors.Wrap(err, "reading library")
		}
		srcs[name] = string(data)
	}
	return flux.LoadLibrary(srcs)
}
