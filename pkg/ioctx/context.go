// Package ioctx carries a command's output streams and logger in its
// context, so library code never reaches for the process globals.
package ioctx

import (
	"context"
	"io"
)

type writerKey int

const (
	stdout writerKey = iota
	stderr
)

func writerFromContext(ctx context.Context, key writerKey) io.Writer {
	if w, ok := ctx.Value(key).(io.Writer); ok && w != nil {
		return w
	}
	return io.Discard
}

// StdoutFromContext returns the stdout carried by ctx, or io.Discard.
func StdoutFromContext(ctx context.Context) io.Writer {
	return writerFromContext(ctx, stdout)
}

func StdoutToContext(ctx context.Context, w io.Writer) context.Context {
	return context.WithValue(ctx, stdout, w)
}

// StderrFromContext returns the stderr carried by ctx, or io.Discard.
func StderrFromContext(ctx context.Context) io.Writer {
	return writerFromContext(ctx, stderr)
}

func StderrToContext(ctx context.Context, w io.Writer) context.Context {
	return context.WithValue(ctx, stderr, w)
}
