package main

import (
	"io"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// newLogger builds the command's logger. With a log file configured the
// output is rotated by lumberjack; otherwise it goes to w. The returned
// func flushes and releases the output.
func newLogger(cfg LogConfig, w io.Writer) (*zap.Logger, func() error, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		return nil, nil, errors.Wrapf(err, "log level %q", cfg.Level)
	}

	config := zap.NewProductionEncoderConfig()
	config.EncodeTime = func(ts time.Time, encoder zapcore.PrimitiveArrayEncoder) {
		encoder.AppendString(ts.UTC().Format(time.RFC3339))
	}
	config.EncodeDuration = func(d time.Duration, encoder zapcore.PrimitiveArrayEncoder) {
		encoder.AppendString(d.String())
	}

	var encoder zapcore.Encoder
	switch cfg.Format {
	case "", "console":
		encoder = zapcore.NewConsoleEncoder(config)
	case "json":
		encoder = zapcore.NewJSONEncoder(config)
	default:
		return nil, nil, errors.Errorf("unknown log format %q", cfg.Format)
	}

	var (
		sink    zapcore.WriteSyncer
		release = func() error { return nil }
	)
	if cfg.File != "" {
		rotated := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSize,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAge,
			Compress:   cfg.Compress,
		}
		sink = zapcore.AddSync(rotated)
		release = rotated.Close
	} else {
		sink = zapcore.Lock(zapcore.AddSync(w))
	}

	log := zap.New(zapcore.NewCore(encoder, sink, level))
	return log, func() error {
		_ = log.Sync()
		return release()
	}, nil
}
