package scanner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scanAll(t *testing.T, src string, mode Mode) []TokenInfo {
	t.Helper()
	s := New([]byte(src))
	var toks []TokenInfo
	for i := 0; i <= len(src)+1; i++ {
		tok := s.Scan(mode)
		toks = append(toks, tok)
		if tok.Tok == EOF {
			return toks
		}
	}
	t.Fatalf("scanner did not reach EOF for %q", src)
	return nil
}

func kinds(toks []TokenInfo) []Token {
	out := make([]Token, len(toks))
	for i, tok := range toks {
		out[i] = tok.Tok
	}
	return out
}

func lits(toks []TokenInfo) []string {
	out := make([]string, len(toks))
	for i, tok := range toks {
		out[i] = tok.Lit
	}
	return out
}

func TestScanPositions(t *testing.T) {
	toks := scanAll(t, "a = 1\nb", DefaultMode)
	require.Len(t, toks, 5)

	assert.Equal(t, TokenInfo{Tok: IDENT, Lit: "a", StartOffset: 0, EndOffset: 1,
		Start: Position{1, 1}, End: Position{1, 2}}, toks[0])
	assert.Equal(t, TokenInfo{Tok: ASSIGN, Lit: "=", StartOffset: 2, EndOffset: 3,
		Start: Position{1, 3}, End: Position{1, 4}}, toks[1])
	assert.Equal(t, TokenInfo{Tok: INT, Lit: "1", StartOffset: 4, EndOffset: 5,
		Start: Position{1, 5}, End: Position{1, 6}}, toks[2])
	assert.Equal(t, TokenInfo{Tok: IDENT, Lit: "b", StartOffset: 6, EndOffset: 7,
		Start: Position{2, 1}, End: Position{2, 2}}, toks[3])
	assert.Equal(t, TokenInfo{Tok: EOF, StartOffset: 7, EndOffset: 7,
		Start: Position{2, 2}, End: Position{2, 2}}, toks[4])
}

func TestScanEOFIsIdempotent(t *testing.T) {
	s := New([]byte(" \t\n\t \t\t"))
	for i := 0; i < 3; i++ {
		tok, res := s.Next(DefaultMode)
		require.Equal(t, EOFReached, res)
		assert.Equal(t, EOF, tok.Tok)
		assert.Equal(t, 7, tok.StartOffset)
		assert.Equal(t, Position{Line: 2, Column: 5}, tok.Start)
	}
}

func TestScanKeywordsAndOperators(t *testing.T) {
	toks := scanAll(t, "if then else and or not exists import package return option builtin test testcase", DefaultMode)
	assert.Equal(t, []Token{IF, THEN, ELSE, AND, OR, NOT, EXISTS, IMPORT, PACKAGE,
		RETURN, OPTION, BUILTIN, TEST, TESTCASE, EOF}, kinds(toks))

	toks = scanAll(t, "|> <- => =~ !~ != == <= >= < > ? = + - * / % ^ . , : ( ) [ ] { }", DefaultMode)
	assert.Equal(t, []Token{PIPE_FORWARD, PIPE_RECEIVE, ARROW, REGEXEQ, REGEXNEQ, NEQ, EQ,
		LTE, GTE, LT, GT, QUESTION_MARK, ASSIGN, ADD, SUB, MUL, DIV, MOD, POW, DOT, COMMA,
		COLON, LPAREN, RPAREN, LBRACK, RBRACK, LBRACE, RBRACE, EOF}, kinds(toks))
}

func TestScanNumbers(t *testing.T) {
	for _, tc := range []struct {
		src  string
		toks []Token
		lits []string
	}{
		{"42", []Token{INT, EOF}, []string{"42", ""}},
		{"012", []Token{INT, INT, EOF}, []string{"0", "12", ""}},
		{"0.5", []Token{FLOAT, EOF}, []string{"0.5", ""}},
		{".5", []Token{FLOAT, EOF}, []string{".5", ""}},
		{"1h30m", []Token{DURATION, EOF}, []string{"1h30m", ""}},
		{"5mo2w", []Token{DURATION, EOF}, []string{"5mo2w", ""}},
		{"1µs", []Token{DURATION, EOF}, []string{"1µs", ""}},
		{"1h30", []Token{DURATION, INT, EOF}, []string{"1h", "30", ""}},
		{"2020-01-02", []Token{TIME, EOF}, []string{"2020-01-02", ""}},
		{"2020-01-02T03:04:05Z", []Token{TIME, EOF}, []string{"2020-01-02T03:04:05Z", ""}},
		{"2020-01-02T03:04:05.123+07:00", []Token{TIME, EOF}, []string{"2020-01-02T03:04:05.123+07:00", ""}},
	} {
		t.Run(tc.src, func(t *testing.T) {
			toks := scanAll(t, tc.src, DefaultMode)
			assert.Equal(t, tc.toks, kinds(toks))
			assert.Equal(t, tc.lits, lits(toks))
		})
	}
}

func TestScanIllegal(t *testing.T) {
	toks := scanAll(t, "@x", DefaultMode)
	assert.Equal(t, []Token{ILLEGAL, IDENT, EOF}, kinds(toks))
	assert.Equal(t, "@", toks[0].Lit)
	assert.Equal(t, 1, toks[0].EndOffset)

	toks = scanAll(t, "€", DefaultMode)
	assert.Equal(t, []Token{ILLEGAL, EOF}, kinds(toks))
	assert.Equal(t, 3, toks[0].EndOffset)

	toks = scanAll(t, "\xff", DefaultMode)
	assert.Equal(t, []Token{ILLEGAL, EOF}, kinds(toks))
	assert.Equal(t, 1, toks[0].EndOffset)

	toks = scanAll(t, "é", DefaultMode)
	assert.Equal(t, []Token{IDENT, EOF}, kinds(toks))
}

func TestScanRegex(t *testing.T) {
	s := New([]byte(`/a\/b/ / 2`))
	tok := s.Scan(RegexMode)
	assert.Equal(t, REGEX, tok.Tok)
	assert.Equal(t, `/a\/b/`, tok.Lit)
	assert.Equal(t, DIV, s.Scan(DefaultMode).Tok)
	assert.Equal(t, INT, s.Scan(DefaultMode).Tok)

	assert.Equal(t, []Token{DIV, IDENT, DIV, EOF}, kinds(scanAll(t, "/a/", DefaultMode)))

	s = New([]byte("/abc\n/"))
	assert.Equal(t, DIV, s.Scan(RegexMode).Tok)
}

func TestScanStrings(t *testing.T) {
	toks := scanAll(t, `"hello \"world\""`, DefaultMode)
	assert.Equal(t, []Token{STRING, EOF}, kinds(toks))

	toks = scanAll(t, "\"foo\nbar\" x", DefaultMode)
	assert.Equal(t, []Token{STRING, IDENT, EOF}, kinds(toks))
	assert.Equal(t, Position{Line: 2, Column: 5}, toks[0].End)
	assert.Equal(t, Position{Line: 2, Column: 6}, toks[1].Start)

	toks = scanAll(t, `"foo`, DefaultMode)
	assert.Equal(t, []Token{QUOTE, IDENT, EOF}, kinds(toks))
}

func TestScanInterpolation(t *testing.T) {
	s := New([]byte(`"a ${b} c"`))

	steps := []struct {
		mode Mode
		tok  Token
		lit  string
	}{
		{DefaultMode, QUOTE, `"`},
		{StringMode, TEXT, "a "},
		{StringMode, STRINGEXPR, "${"},
		{DefaultMode, IDENT, "b"},
		{DefaultMode, RBRACE, "}"},
		{StringMode, TEXT, " c"},
		{StringMode, QUOTE, `"`},
		{DefaultMode, EOF, ""},
	}
	for _, step := range steps {
		tok := s.Scan(step.mode)
		assert.Equal(t, step.tok, tok.Tok)
		assert.Equal(t, step.lit, tok.Lit)
	}
}

func TestScanComments(t *testing.T) {
	toks := scanAll(t, "// hello\n// again\nx", DefaultMode)
	require.Equal(t, []Token{IDENT, EOF}, kinds(toks))
	require.Len(t, toks[0].Comments, 2)
	assert.Equal(t, "// hello", toks[0].Comments[0].Lit)
	assert.Equal(t, Position{Line: 2, Column: 1}, toks[0].Comments[1].Start)
	assert.Equal(t, Position{Line: 3, Column: 1}, toks[0].Start)
}

func TestUnread(t *testing.T) {
	s := New([]byte("a\nb"))
	assert.Equal(t, "a", s.Scan(DefaultMode).Lit)
	b := s.Scan(DefaultMode)
	assert.Equal(t, "b", b.Lit)

	s.Unread()
	again := s.Scan(DefaultMode)
	assert.Equal(t, b, again)
	assert.Equal(t, []int{1}, s.Newlines())
}

func TestNewlineOffsets(t *testing.T) {
	toks := scanAll(t, "a\nb\n\nc", DefaultMode)
	require.Len(t, toks, 4)

	s := New([]byte("a\nb\n\nc"))
	for s.Scan(DefaultMode).Tok != EOF {
	}
	assert.Equal(t, []int{1, 3, 4}, s.Newlines())
	assert.Equal(t, Position{Line: 4, Column: 1}, s.PositionAt(5))
	assert.Equal(t, Position{Line: 2, Column: 1}, s.PositionAt(2))
	assert.Equal(t, toks[2].Start, s.PositionAt(toks[2].StartOffset))
}

func TestStreaming(t *testing.T) {
	s := NewStreaming()
	require.NoError(t, s.Feed([]byte("ab")))

	_, res := s.Next(DefaultMode)
	require.Equal(t, NeedMore, res)

	require.NoError(t, s.Feed([]byte("c + 1")))
	tok, res := s.Next(DefaultMode)
	require.Equal(t, TokenReady, res)
	assert.Equal(t, "abc", tok.Lit)

	tok, res = s.Next(DefaultMode)
	require.Equal(t, TokenReady, res)
	assert.Equal(t, ADD, tok.Tok)

	_, res = s.Next(DefaultMode)
	require.Equal(t, NeedMore, res)

	require.NoError(t, s.Feed([]byte("\n")))
	tok, res = s.Next(DefaultMode)
	require.Equal(t, TokenReady, res)
	assert.Equal(t, INT, tok.Tok)
	assert.Equal(t, Position{Line: 1, Column: 7}, tok.Start)

	_, res = s.Next(DefaultMode)
	require.Equal(t, NeedMore, res)

	s.Close()
	tok, res = s.Next(DefaultMode)
	require.Equal(t, EOFReached, res)
	assert.Equal(t, Position{Line: 2, Column: 1}, tok.Start)

	assert.ErrorIs(t, s.Feed([]byte("x")), ErrClosed)
}

func TestStreamingMatchesWholeBuffer(t *testing.T) {
	src := "x = \"a ${b}\" |> f(v: 1h30m)\n// note\ny = 2020-01-01 + 3.5"
	whole := scanAll(t, src, DefaultMode)

	s := NewStreaming()
	var got []TokenInfo
	for i := 0; i < len(src); i++ {
		require.NoError(t, s.Feed([]byte{src[i]}))
		for {
			tok, res := s.Next(DefaultMode)
			if res == NeedMore {
				break
			}
			got = append(got, tok)
		}
	}
	s.Close()
	for {
		tok, res := s.Next(DefaultMode)
		got = append(got, tok)
		if res == EOFReached {
			break
		}
	}
	assert.Equal(t, whole, got)
}

func TestScanTotality(t *testing.T) {
	for _, src := range []string{
		"",
		"x = 1 + 1",
		"a |> b(c: /re/) // trailing",
		"\"${\"",
		"@@@ $ ` \x00 \xc3",
		"f = (r) => r._value > 2.0 and exists r.tag",
	} {
		toks := scanAll(t, src, RegexMode)
		end := 0
		for _, tok := range toks {
			assert.GreaterOrEqual(t, tok.StartOffset, end, "overlap in %q", src)
			assert.GreaterOrEqual(t, tok.EndOffset, tok.StartOffset)
			end = tok.EndOffset
		}
		assert.Equal(t, len(src), toks[len(toks)-1].EndOffset)
	}
}
