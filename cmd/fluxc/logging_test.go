package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLoggerLevel(t *testing.T) {
	var buf bytes.Buffer
	log, release, err := newLogger(LogConfig{Level: "warn", Format: "console"}, &buf)
	require.NoError(t, err)

	log.Info("quiet")
	log.Warn("loud")
	require.NoError(t, release())

	assert.NotContains(t, buf.String(), "quiet")
	assert.Contains(t, buf.String(), "loud")
}

func TestNewLoggerJSON(t *testing.T) {
	var buf bytes.Buffer
	log, release, err := newLogger(LogConfig{Level: "debug", Format: "json"}, &buf)
	require.NoError(t, err)

	log.Debug("analyzed")
	require.NoError(t, release())
	assert.Contains(t, buf.String(), `"msg":"analyzed"`)
}

func TestNewLoggerFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "logs", "fluxc.log")
	var buf bytes.Buffer
	log, release, err := newLogger(LogConfig{Level: "info", File: file, MaxSize: 1}, &buf)
	require.NoError(t, err)

	log.Info("to the file")
	require.NoError(t, release())

	assert.Empty(t, buf.String())
	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Contains(t, string(data), "to the file")
}

func TestNewLoggerErrors(t *testing.T) {
	_, _, err := newLogger(LogConfig{Level: "loud"}, &bytes.Buffer{})
	assert.Error(t, err)

	_, _, err = newLogger(LogConfig{Level: "info", Format: "xml"}, &bytes.Buffer{})
	assert.EqualError(t, err, `unknown log format "xml"`)
}
