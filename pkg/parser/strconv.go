package parser

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/vito/fluxc/pkg/ast"
)

// ParseString unquotes a string literal token, including its quotes.
func ParseString(lit string) (string, error) {
	if len(lit) < 2 || lit[0] != '"' || lit[len(lit)-1] != '"' {
		return "", fmt.Errorf("invalid string literal")
	}
	return ParseText(lit[1 : len(lit)-1])
}

// ParseText resolves the escape sequences of a string literal's body.
func ParseText(lit string) (string, error) {
	var b strings.Builder
	b.Grow(len(lit))
	for i := 0; i < len(lit); i++ {
		c := lit[i]
		if c != '\\' {
			b.WriteByte(c)
			continue
		}
		i++
		if i >= len(lit) {
			return "", fmt.Errorf("invalid escape sequence")
		}
		switch lit[i] {
		case 'n':
			b.WriteByte('\n')
		case 'r':
			b.WriteByte('\r')
		case 't':
			b.WriteByte('\t')
		case '\\':
			b.WriteByte('\\')
		case '"':
			b.WriteByte('"')
		case '$':
			b.WriteByte('$')
		case 'x':
			v, err := hexByte(lit[i+1:])
			if err != nil {
				return "", err
			}
			b.WriteByte(v)
			i += 2
		default:
			r, _ := utf8.DecodeRuneInString(lit[i:])
			return "", fmt.Errorf("invalid escape character %c", r)
		}
	}
	s := b.String()
	if !utf8.ValidString(s) {
		return "", fmt.Errorf("invalid UTF-8 in string literal")
	}
	return s, nil
}

func hexByte(s string) (byte, error) {
	switch {
	case len(s) == 0:
		return 0, fmt.Errorf(`\x followed by 0 char, must be 2`)
	case len(s) == 1:
		return 0, fmt.Errorf(`\x followed by 1 char, must be 2`)
	}
	v, err := strconv.ParseUint(s[:2], 16, 8)
	if err != nil {
		return 0, fmt.Errorf("invalid byte value")
	}
	return byte(v), nil
}

// ParseRegex unescapes a regex literal token, including its slashes, and
// checks that the pattern compiles.
func ParseRegex(lit string) (string, error) {
	if len(lit) < 3 {
		return "", fmt.Errorf("regexp must be at least 3 characters")
	}
	if lit[0] != '/' {
		return "", fmt.Errorf("regexp literal must start with a slash")
	}
	if lit[len(lit)-1] != '/' {
		return "", fmt.Errorf("regexp literal must end with a slash")
	}

	expr := lit[1 : len(lit)-1]
	var b strings.Builder
	for i := 0; i < len(expr); i++ {
		c := expr[i]
		if c != '\\' {
			b.WriteByte(c)
			continue
		}
		i++
		if i >= len(expr) {
			return "", fmt.Errorf("unterminated regex sequence")
		}
		switch expr[i] {
		case '/':
			b.WriteByte('/')
		case 'x':
			v, err := hexByte(expr[i+1:])
			if err != nil {
				return "", err
			}
			b.WriteByte(v)
			i += 2
		default:
			// Everything else is left for the regexp compiler.
			b.WriteByte('\\')
			b.WriteByte(expr[i])
		}
	}

	pattern := b.String()
	if !utf8.ValidString(pattern) {
		return "", fmt.Errorf("invalid UTF-8 in regexp literal")
	}
	if _, err := regexp.Compile(pattern); err != nil {
		return "", err
	}
	return pattern, nil
}

// ParseTime parses a date (midnight UTC) or an RFC3339 timestamp.
func ParseTime(lit string) (time.Time, error) {
	if !strings.Contains(lit, "T") {
		return time.ParseInLocation("2006-01-02", lit, time.UTC)
	}
	return time.Parse(time.RFC3339Nano, lit)
}

// ParseDuration splits a duration literal into magnitude/unit pairs.
func ParseDuration(lit string) ([]ast.Duration, error) {
	var values []ast.Duration
	for len(lit) > 0 {
		n := 0
		for n < len(lit) && lit[n] >= '0' && lit[n] <= '9' {
			n++
		}
		if n == 0 {
			return nil, fmt.Errorf("parsing empty magnitude")
		}
		mag, err := strconv.ParseInt(lit[:n], 10, 64)
		if err != nil {
			return nil, err
		}
		lit = lit[n:]

		u := 0
		for u < len(lit) {
			r, size := utf8.DecodeRuneInString(lit[u:])
			if r >= '0' && r <= '9' {
				break
			}
			u += size
		}
		if u == 0 {
			return nil, fmt.Errorf("parsing empty unit")
		}
		unit := lit[:u]
		if unit == "µs" {
			unit = "us"
		}
		values = append(values, ast.Duration{Magnitude: mag, Unit: unit})
		lit = lit[u:]
	}
	return values, nil
}
