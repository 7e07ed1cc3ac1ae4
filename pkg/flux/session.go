package flux

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/vito/fluxc/pkg/ast"
	"github.com/vito/fluxc/pkg/hm"
	"github.com/vito/fluxc/pkg/ioctx"
	"github.com/vito/fluxc/pkg/semantic"
)

// Session analyzes a sequence of fragments as if they were statements of
// one program: each successful analysis adds its top-level bindings to the
// environment seen by the next. A failed analysis leaves the environment
// as it was.
//
// A Session is not safe for concurrent use.
type Session struct {
	pkgPath string
	lib     *Library
	env     *hm.Env
	fresher *hm.SimpleFresher
}

type SessionOption func(*Session)

// WithLibrary analyzes against lib instead of the standard library.
func WithLibrary(lib *Library) SessionOption {
	return func(s *Session) {
		s.lib = lib
	}
}

// NewSession starts a session for the package at pkgPath.
func NewSession(pkgPath string, opts ...SessionOption) *Session {
	s := &Session{pkgPath: pkgPath}
	for _, opt := range opts {
		opt(s)
	}
	if s.lib == nil {
		s.lib = Stdlib()
	}
	s.env = s.lib.Prelude().Scope()
	s.fresher = hm.NewSimpleFresher(0)
	return s
}

func (s *Session) PackagePath() string {
	return s.pkgPath
}

// Env returns the bindings the session has accumulated, over the prelude.
func (s *Session) Env() *hm.Env {
	return s.env
}

// Lookup returns the scheme of a name visible to the next analysis.
func (s *Session) Lookup(name string) (*hm.Scheme, bool) {
	return s.env.SchemeOf(name)
}

// AnalyzeWith analyzes pkg in the session's environment, consuming it.
// src is the text pkg was parsed from; when given, a type error carries
// it for highlighting.
func (s *Session) AnalyzeWith(ctx context.Context, src string, pkg *ast.Package) (*semantic.Package, error) {
	log := ioctx.LoggerFromContext(ctx).With(zap.String("session", s.pkgPath))
	ctx = ioctx.LoggerToContext(ctx, log)

	if pkg != nil && pkg.Path == "" {
		pkg.Path = s.pkgPath
	}
	sem, scope, err := analyzeEnv(ctx, pkg, s.env, s.fresher, s.lib)
	if err != nil {
		var serr *semantic.SourceError
		if src != "" && errors.As(err, &serr) {
			serr.Source = src
		}
		return sem, err
	}

	scope.Each(func(name string, scheme *hm.Scheme) {
		s.env = s.env.Add(name, scheme)
	})
	log.Debug("extended session", zap.Int("bindings", s.env.Len()))
	return sem, nil
}

// Analyze parses src and analyzes it in the session.
func (s *Session) Analyze(ctx context.Context, src string) (*semantic.Package, error) {
	pkg := Parse("", src)
	if err := ast.GetError(pkg); err != nil {
		return nil, err
	}
	return s.AnalyzeWith(ctx, src, pkg)
}

// TypeOf infers the type of a single expression in the session's
// environment. Nothing is bound.
func (s *Session) TypeOf(ctx context.Context, expr string) (hm.Type, error) {
	pkg := Parse("", expr)
	if err := ast.GetError(pkg); err != nil {
		return nil, err
	}
	body := pkg.Files[0].Body
	if len(body) != 1 {
		return nil, errors.New("expected a single expression")
	}
	if _, ok := body[0].(*ast.ExpressionStatement); !ok {
		return nil, errors.New("expected a single expression")
	}

	pkg.Path = s.pkgPath
	sem, _, err := analyzeEnv(ctx, pkg, s.env, s.fresher, s.lib)
	if err != nil {
		var serr *semantic.SourceError
		if errors.As(err, &serr) {
			serr.Source = expr
		}
		return nil, err
	}
	stmt := sem.Files[0].Body[0].(*semantic.ExpressionStatement)
	return hm.Normalize(stmt.Expression.TypeOf()), nil
}
