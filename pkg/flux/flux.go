// Package flux is the entry point to the front end: parsing, merging,
// serialization, and analysis against the standard library.
package flux

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/vito/fluxc/pkg/ast"
	"github.com/vito/fluxc/pkg/hm"
	"github.com/vito/fluxc/pkg/ioctx"
	"github.com/vito/fluxc/pkg/parser"
	"github.com/vito/fluxc/pkg/semantic"
)

// Parse parses one file into a package. It always returns a package;
// syntax errors are recorded on the nodes and reported by ast.GetError.
func Parse(fname, src string) *ast.Package {
	return parser.Parse(fname, []byte(src))
}

// Merge appends the files of src to dst.
func Merge(dst, src *ast.Package) error {
	return ast.MergePackages(dst, src)
}

func ASTToJSON(pkg *ast.Package) ([]byte, error) {
	data, err := json.Marshal(pkg)
	if err != nil {
		return nil, errors.Wrap(err, "encoding package")
	}
	return data, nil
}

func JSONToAST(data []byte) (*ast.Package, error) {
	return ast.UnmarshalPackage(data)
}

func ASTToBinary(pkg *ast.Package) ([]byte, error) {
	return ast.MarshalBinary(pkg)
}

func SemanticToBinary(pkg *semantic.Package) ([]byte, error) {
	return semantic.MarshalBinary(pkg)
}

// ErrAlreadyAnalyzed is returned when a package is passed to analysis a
// second time.
var ErrAlreadyAnalyzed = errors.New("package already analyzed")

// take detaches the files of pkg so it cannot be analyzed again.
func take(pkg *ast.Package) (*ast.Package, error) {
	if pkg == nil || pkg.Files == nil {
		return nil, ErrAlreadyAnalyzed
	}
	owned := &ast.Package{
		BaseNode: pkg.BaseNode,
		Path:     pkg.Path,
		Package:  pkg.Package,
		Files:    pkg.Files,
	}
	pkg.Files = nil
	return owned, nil
}

// Analyze type checks pkg against the standard library. The package is
// consumed: its files are detached and analyzing it again fails.
//
// When inference fails the partially typed graph is returned along with
// the error, so tools can still show what was inferred.
func Analyze(ctx context.Context, pkg *ast.Package) (*semantic.Package, error) {
	lib := Stdlib()
	sem, _, err := analyzeEnv(ctx, pkg, lib.Prelude(), hm.NewSimpleFresher(0), lib)
	return sem, err
}

func analyzeEnv(ctx context.Context, pkg *ast.Package, env *hm.Env, fresher hm.Fresher, importer semantic.Importer) (*semantic.Package, *hm.Env, error) {
	log := ioctx.LoggerFromContext(ctx)
	start := time.Now()

	owned, err := take(pkg)
	if err != nil {
		return nil, nil, err
	}
	sem, err := semantic.Convert(owned)
	if err != nil {
		log.Debug("conversion failed", zap.String("package", owned.Package), zap.Error(err))
		return nil, nil, err
	}
	scope, err := semantic.Infer(sem, env, fresher, importer)
	log.Debug("analyzed",
		zap.String("package", owned.Package),
		zap.Int("files", len(sem.Files)),
		zap.Duration("elapsed", time.Since(start)),
		zap.Error(err))
	if err != nil {
		return sem, nil, err
	}
	return sem, scope, nil
}
