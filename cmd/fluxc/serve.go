package main

import (
	"context"
	"encoding/json"
	"os"
	"strconv"
	"sync"

	"github.com/creachadair/jrpc2"
	"github.com/creachadair/jrpc2/channel"
	"github.com/creachadair/jrpc2/handler"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/vito/fluxc/pkg/ast"
	"github.com/vito/fluxc/pkg/flux"
	"github.com/vito/fluxc/pkg/ioctx"
	"github.com/vito/fluxc/pkg/semantic"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve analysis over JSON-RPC on stdin and stdout",
		Long: `Serve parsing and type checking as JSON-RPC 2.0 methods, one
message per line on stdin and stdout:

  parse             {name, source}       syntax tree and syntax errors
  analyze           {name, source}       bindings and type errors
  findVariableType  {source, variable}   type of a variable
  session.new       {package}            start a session
  session.analyze   {id, source}         analyze within a session
  session.close     {id}                 end a session
  stdlib            {}                   the standard library types`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
}

func runServe(ctx context.Context) error {
	cfg := configFromContext(ctx)
	lib, err := loadLibrary(cfg.Library)
	if err != nil {
		return err
	}
	log := ioctx.LoggerFromContext(ctx)

	svc := newService(lib, cfg.Package, log)
	srv := jrpc2.NewServer(svc.methods(), &jrpc2.ServerOptions{
		Logger: func(text string) { log.Debug(text) },
	})

	log.Info("serving", zap.String("package", cfg.Package))
	srv.Start(channel.Line(os.Stdin, os.Stdout))
	err = srv.Wait()
	log.Info("server closed", zap.Error(err))
	return nil
}

// service holds the state shared by the JSON-RPC methods.
type service struct {
	lib     *flux.Library
	pkgPath string
	log     *zap.Logger

	mu       sync.Mutex
	next     int
	sessions map[string]*serviceSession
}

// serviceSession serializes requests against one session.
type serviceSession struct {
	mu      sync.Mutex
	session *flux.Session
}

func newService(lib *flux.Library, pkgPath string, log *zap.Logger) *service {
	return &service{
		lib:      lib,
		pkgPath:  pkgPath,
		log:      log,
		sessions: map[string]*serviceSession{},
	}
}

func (s *service) methods() handler.Map {
	return handler.Map{
		"parse":            handler.New(s.parse),
		"analyze":          handler.New(s.analyze),
		"findVariableType": handler.New(s.findVariableType),
		"session.new":      handler.New(s.newSession),
		"session.analyze":  handler.New(s.sessionAnalyze),
		"session.close":    handler.New(s.closeSession),
		"stdlib":           handler.New(s.stdlib),
	}
}

// Diagnostic is an error located in the source.
type Diagnostic struct {
	Message  string             `json:"message"`
	Location ast.SourceLocation `json:"location"`
}

type SourceParams struct {
	Name   string `json:"name,omitempty"`
	Source string `json:"source"`
}

type ParseResult struct {
	AST         json.RawMessage `json:"ast"`
	Diagnostics []Diagnostic    `json:"diagnostics"`
}

func (s *service) parse(ctx context.Context, p SourceParams) (*ParseResult, error) {
	pkg := flux.Parse(p.Name, p.Source)
	data, err := flux.ASTToJSON(pkg)
	if err != nil {
		return nil, err
	}
	res := &ParseResult{AST: data, Diagnostics: []Diagnostic{}}
	for _, e := range ast.Errors(pkg) {
		res.Diagnostics = append(res.Diagnostics, Diagnostic{Message: e.Msg, Location: e.Loc})
	}
	return res, nil
}

type AnalyzeResult struct {
	Bindings    []binding    `json:"bindings"`
	Diagnostics []Diagnostic `json:"diagnostics"`
}

func (s *service) analyze(ctx context.Context, p SourceParams) (*AnalyzeResult, error) {
	ctx = ioctx.LoggerToContext(ctx, s.log)
	pkg := flux.Parse(p.Name, p.Source)
	if err := ast.GetError(pkg); err != nil {
		return analyzeResult(nil, err)
	}
	session := flux.NewSession(s.pkgPath, flux.WithLibrary(s.lib))
	return analyzeResult(session.AnalyzeWith(ctx, p.Source, pkg))
}

// analyzeResult reports analysis errors as diagnostics rather than as a
// failed call.
func analyzeResult(sem *semantic.Package, err error) (*AnalyzeResult, error) {
	res := &AnalyzeResult{Bindings: []binding{}, Diagnostics: []Diagnostic{}}
	if sem != nil {
		res.Bindings = append(res.Bindings, topLevelBindings(sem)...)
	}
	if err == nil {
		return res, nil
	}

	var serr *semantic.SourceError
	if errors.As(err, &serr) {
		res.Diagnostics = append(res.Diagnostics, Diagnostic{
			Message:  serr.Inner.Error(),
			Location: serr.Location,
		})
		return res, nil
	}
	for _, e := range multierr.Errors(err) {
		d := Diagnostic{Message: e.Error()}
		if le, ok := e.(ast.LocatedError); ok {
			d = Diagnostic{Message: le.Msg, Location: le.Loc}
		}
		res.Diagnostics = append(res.Diagnostics, d)
	}
	return res, nil
}

type FindParams struct {
	Source   string `json:"source"`
	Variable string `json:"variable"`
}

func (s *service) findVariableType(ctx context.Context, p FindParams) (json.RawMessage, error) {
	ctx = ioctx.LoggerToContext(ctx, s.log)
	return flux.FindVariableTypeJSON(ctx, flux.Parse("", p.Source), p.Variable)
}

type NewSessionParams struct {
	Package string `json:"package,omitempty"`
}

type SessionResult struct {
	ID string `json:"id"`
}

func (s *service) newSession(ctx context.Context, p NewSessionParams) (*SessionResult, error) {
	pkgPath := p.Package
	if pkgPath == "" {
		pkgPath = s.pkgPath
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	id := "s" + strconv.Itoa(s.next)
	s.sessions[id] = &serviceSession{
		session: flux.NewSession(pkgPath, flux.WithLibrary(s.lib)),
	}
	s.log.Debug("session started", zap.String("id", id), zap.String("package", pkgPath))
	return &SessionResult{ID: id}, nil
}

func (s *service) lookup(id string) (*serviceSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ss, ok := s.sessions[id]
	if !ok {
		return nil, errors.Errorf("unknown session %q", id)
	}
	return ss, nil
}

type SessionAnalyzeParams struct {
	ID     string `json:"id"`
	Source string `json:"source"`
}

func (s *service) sessionAnalyze(ctx context.Context, p SessionAnalyzeParams) (*AnalyzeResult, error) {
	ss, err := s.lookup(p.ID)
	if err != nil {
		return nil, err
	}
	ss.mu.Lock()
	defer ss.mu.Unlock()

	ctx = ioctx.LoggerToContext(ctx, s.log)
	pkg := flux.Parse("", p.Source)
	if err := ast.GetError(pkg); err != nil {
		return analyzeResult(nil, err)
	}
	return analyzeResult(ss.session.AnalyzeWith(ctx, p.Source, pkg))
}

type CloseSessionParams struct {
	ID string `json:"id"`
}

func (s *service) closeSession(ctx context.Context, p CloseSessionParams) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[p.ID]; !ok {
		return false, nil
	}
	delete(s.sessions, p.ID)
	return true, nil
}

func (s *service) stdlib(ctx context.Context) (json.RawMessage, error) {
	if s.lib == flux.Stdlib() {
		return flux.LoadStdlibTypeEnvironment(), nil
	}
	return s.lib.MarshalJSON()
}
