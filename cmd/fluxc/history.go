package main

import (
	"bufio"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

const maxHistoryEntries = 1000

// replHistory is the REPL's input log. Entries are stored one per line as
// Go-quoted strings so multi-line input survives a round trip.
type replHistory struct {
	entries []string
	file    string
}

func newReplHistory(file string) *replHistory {
	return &replHistory{file: file}
}

// historyFilePath is the default history location under XDG_DATA_HOME
// (~/.local/share when unset).
func historyFilePath() string {
	base := os.Getenv("XDG_DATA_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return filepath.Join(os.TempDir(), "fluxc_history")
		}
		base = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(base, "fluxc", "history")
}

// Add records line unless it repeats the previous entry.
func (h *replHistory) Add(line string) {
	if n := len(h.entries); n > 0 && h.entries[n-1] == line {
		return
	}
	h.entries = append(h.entries, line)
	h.persist(false, line)
}

// Recent returns up to n of the latest entries, oldest first.
func (h *replHistory) Recent(n int) []string {
	return h.entries[max(0, len(h.entries)-n):]
}

// Load reads the history file, trimming it to maxHistoryEntries.
func (h *replHistory) Load() {
	if h.file == "" {
		return
	}
	f, err := os.Open(h.file)
	if err != nil {
		return
	}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			h.entries = append(h.entries, historyDecode(line))
		}
	}
	f.Close()

	if len(h.entries) > maxHistoryEntries {
		h.entries = h.entries[len(h.entries)-maxHistoryEntries:]
		h.persist(true, h.entries...)
	}
}

// persist appends lines to the history file, or replaces its contents
// when truncate is set. Failures are ignored.
func (h *replHistory) persist(truncate bool, lines ...string) {
	if h.file == "" {
		return
	}
	flags := os.O_CREATE | os.O_WRONLY | os.O_APPEND
	if truncate {
		flags = os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	}
	_ = os.MkdirAll(filepath.Dir(h.file), 0755)
	f, err := os.OpenFile(h.file, flags, 0644)
	if err != nil {
		return
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for _, line := range lines {
		_, _ = w.WriteString(historyEncode(line))
		_ = w.WriteByte('\n')
	}
	_ = w.Flush()
}

func historyEncode(s string) string {
	return strconv.Quote(s)
}

// historyDecode accepts unquoted lines too, taking them verbatim.
func historyDecode(s string) string {
	if u, err := strconv.Unquote(s); err == nil {
		return u
	}
	return s
}
