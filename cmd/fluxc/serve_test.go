package main

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/creachadair/jrpc2"
	"github.com/creachadair/jrpc2/channel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vito/fluxc/pkg/flux"
)

func startService(t *testing.T) *jrpc2.Client {
	t.Helper()
	svc := newService(flux.Stdlib(), "main", zap.NewNop())
	cch, sch := channel.Direct()
	srv := jrpc2.NewServer(svc.methods(), nil).Start(sch)
	cli := jrpc2.NewClient(cch, nil)
	t.Cleanup(func() {
		_ = cli.Close()
		srv.Stop()
		_ = srv.Wait()
	})
	return cli
}

func TestServeParse(t *testing.T) {
	cli := startService(t)
	ctx := context.Background()

	var res ParseResult
	require.NoError(t, cli.CallResult(ctx, "parse", SourceParams{Name: "a.flux", Source: "x = 1"}, &res))
	assert.Empty(t, res.Diagnostics)
	var tree map[string]any
	require.NoError(t, json.Unmarshal(res.AST, &tree))
	assert.Equal(t, "Package", tree["type"])

	require.NoError(t, cli.CallResult(ctx, "parse", SourceParams{Source: "x = "}, &res))
	assert.NotEmpty(t, res.Diagnostics)
}

func TestServeAnalyze(t *testing.T) {
	cli := startService(t)
	ctx := context.Background()

	var res AnalyzeResult
	require.NoError(t, cli.CallResult(ctx, "analyze", SourceParams{Source: "x = 1\ny = x + 1"}, &res))
	assert.Empty(t, res.Diagnostics)
	require.Len(t, res.Bindings, 2)
	assert.Equal(t, "y", res.Bindings[1].Name)
	assert.Equal(t, "int", res.Bindings[1].Type)

	res = AnalyzeResult{}
	require.NoError(t, cli.CallResult(ctx, "analyze", SourceParams{Source: "x = 1\ny = x + \"s\""}, &res))
	require.Len(t, res.Diagnostics, 1)
	assert.Contains(t, res.Diagnostics[0].Message, "expected int but found string")
	assert.Equal(t, 2, res.Diagnostics[0].Location.Start.Line)

	res = AnalyzeResult{}
	require.NoError(t, cli.CallResult(ctx, "analyze", SourceParams{Source: "x = "}, &res))
	assert.NotEmpty(t, res.Diagnostics)
	assert.Empty(t, res.Bindings)
}

func TestServeSessions(t *testing.T) {
	cli := startService(t)
	ctx := context.Background()

	var sess SessionResult
	require.NoError(t, cli.CallResult(ctx, "session.new", NewSessionParams{}, &sess))
	assert.Equal(t, "s1", sess.ID)

	var res AnalyzeResult
	require.NoError(t, cli.CallResult(ctx, "session.analyze", SessionAnalyzeParams{ID: sess.ID, Source: "x = 10"}, &res))
	assert.Empty(t, res.Diagnostics)

	res = AnalyzeResult{}
	require.NoError(t, cli.CallResult(ctx, "session.analyze", SessionAnalyzeParams{ID: sess.ID, Source: "y = x * x"}, &res))
	assert.Empty(t, res.Diagnostics)
	require.Len(t, res.Bindings, 1)
	assert.Equal(t, "int", res.Bindings[0].Type)

	res = AnalyzeResult{}
	require.NoError(t, cli.CallResult(ctx, "session.analyze", SessionAnalyzeParams{ID: sess.ID, Source: "z = a + y"}, &res))
	require.Len(t, res.Diagnostics, 1)
	assert.Contains(t, res.Diagnostics[0].Message, "undefined identifier a")

	var closed bool
	require.NoError(t, cli.CallResult(ctx, "session.close", CloseSessionParams{ID: sess.ID}, &closed))
	assert.True(t, closed)
	require.NoError(t, cli.CallResult(ctx, "session.close", CloseSessionParams{ID: sess.ID}, &closed))
	assert.False(t, closed)

	err := cli.CallResult(ctx, "session.analyze", SessionAnalyzeParams{ID: sess.ID, Source: "x"}, &res)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown session "s1"`)
}

func TestServeFindVariableType(t *testing.T) {
	cli := startService(t)

	var typ json.RawMessage
	require.NoError(t, cli.CallResult(context.Background(), "findVariableType",
		FindParams{Source: "x = v + 1", Variable: "v"}, &typ))
	assert.JSONEq(t, `{"kind":"Basic","name":"int"}`, string(typ))
}

func TestServeStdlib(t *testing.T) {
	cli := startService(t)

	var env struct {
		Packages []struct {
			Path string `json:"path"`
		} `json:"packages"`
	}
	require.NoError(t, cli.CallResult(context.Background(), "stdlib", nil, &env))
	var paths []string
	for _, p := range env.Packages {
		paths = append(paths, p.Path)
	}
	assert.Contains(t, paths, "universe")
	assert.Contains(t, paths, "strings")
}
