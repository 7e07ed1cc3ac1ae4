package ast

import "fmt"

// DefaultPackageName is the package of a file without a package clause.
const DefaultPackageName = "main"

// MergePackages appends the files of src to dst, leaving src empty. Files
// keep their order within and across packages. Every file of src must be
// in the same package as dst.
func MergePackages(dst, src *Package) error {
	if dst == nil || src == nil {
		return fmt.Errorf("cannot merge a nil package")
	}
	if dst == src {
		return fmt.Errorf("cannot merge a package into itself")
	}

	want := packageName(dst)
	for _, f := range src.Files {
		if got := filePackageName(f); got != want {
			return fmt.Errorf("error at %v: file is in package %q, but other files are in package %q",
				f.Location(), got, want)
		}
	}
	if dst.Package == "" && len(dst.Files) == 0 {
		dst.Package = packageName(src)
	}
	if dst.Path == "" {
		dst.Path = src.Path
	}

	dst.Files = append(dst.Files, src.Files...)
	src.Files = nil
	return nil
}

func packageName(pkg *Package) string {
	if pkg.Package != "" {
		return pkg.Package
	}
	if len(pkg.Files) > 0 {
		return filePackageName(pkg.Files[0])
	}
	return DefaultPackageName
}

func filePackageName(f *File) string {
	if f.Package != nil && f.Package.Name != nil {
		return f.Package.Name.Name
	}
	return DefaultPackageName
}
