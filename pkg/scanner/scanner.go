package scanner

import (
	"errors"
	"sort"
	"unicode"
	"unicode/utf8"
)

// ErrClosed is returned when feeding a scanner that has already been closed.
var ErrClosed = errors.New("scanner: feed after close")

type state struct {
	pos         int
	line        int
	lastNewline int // offset just past the most recent newline
	newlines    int
}

// Scanner splits a byte buffer into tokens.
//
// A Scanner either owns a complete buffer (New) or accumulates input
// incrementally (NewStreaming + Feed + Close). While input is still open, a
// token whose extent depends on bytes not yet fed is not emitted; Next
// reports NeedMore instead and leaves the scanner untouched so the call can
// be retried after the next Feed.
type Scanner struct {
	data   []byte
	closed bool

	state
	prev state
	nl   []int

	hitEnd bool
}

// New returns a scanner over a complete source buffer.
func New(src []byte) *Scanner {
	s := NewStreaming()
	s.data = src
	s.closed = true
	return s
}

// NewStreaming returns a scanner with no input that expects Feed calls.
func NewStreaming() *Scanner {
	return &Scanner{
		state: state{line: 1},
		prev:  state{line: 1},
	}
}

// Feed appends more input.
func (s *Scanner) Feed(chunk []byte) error {
	if s.closed {
		return ErrClosed
	}
	s.data = append(s.data, chunk...)
	return nil
}

// Close marks the end of input.
func (s *Scanner) Close() {
	s.closed = true
}

// Offset returns the current byte offset.
func (s *Scanner) Offset() int {
	return s.pos
}

// Newlines returns the offsets of every newline consumed so far.
func (s *Scanner) Newlines() []int {
	return s.nl[:s.newlines]
}

// PositionAt maps a consumed byte offset to a line and column.
func (s *Scanner) PositionAt(offset int) Position {
	nl := s.Newlines()
	idx := sort.SearchInts(nl, offset)
	lineStart := 0
	if idx > 0 {
		lineStart = nl[idx-1] + 1
	}
	return Position{Line: idx + 1, Column: offset - lineStart + 1}
}

// Unread rewinds the scanner to where it was before the last token.
func (s *Scanner) Unread() {
	s.restore(s.prev)
}

// Scan returns the next token of a closed scanner. Once the input is
// exhausted every call returns an EOF token.
func (s *Scanner) Scan(mode Mode) TokenInfo {
	tok, _ := s.Next(mode)
	return tok
}

// Next scans one token in the given mode.
func (s *Scanner) Next(mode Mode) (TokenInfo, Result) {
	saved := s.state
	s.hitEnd = false

	var comments []TokenInfo
	if mode != StringMode {
		for {
			s.skipWhitespace()
			if !s.commentAhead() {
				break
			}
			comments = append(comments, s.scanComment())
		}
	}

	if s.pos >= len(s.data) {
		if !s.closed {
			s.restore(saved)
			return TokenInfo{}, NeedMore
		}
		s.prev = saved
		tok := s.emit(EOF, s.pos)
		tok.Comments = comments
		return tok, EOFReached
	}

	var (
		tok Token
		end int
	)
	if mode == StringMode {
		tok, end = s.lexStringPart(s.pos)
	} else {
		tok, end = s.lex(s.pos, mode)
	}
	if s.hitEnd && !s.closed {
		s.restore(saved)
		return TokenInfo{}, NeedMore
	}

	s.prev = saved
	info := s.emit(tok, end)
	info.Comments = comments
	return info, TokenReady
}

func (s *Scanner) restore(st state) {
	s.state = st
	s.nl = s.nl[:st.newlines]
}

func (s *Scanner) position(offset int) Position {
	return Position{Line: s.line, Column: offset - s.lastNewline + 1}
}

// emit consumes input up to end and returns the token spanning it.
func (s *Scanner) emit(tok Token, end int) TokenInfo {
	start := s.pos
	startPos := s.position(start)
	for ; s.pos < end; s.pos++ {
		if s.data[s.pos] == '\n' {
			s.newline(s.pos)
		}
	}
	return TokenInfo{
		Tok:         tok,
		Lit:         string(s.data[start:end]),
		StartOffset: start,
		EndOffset:   end,
		Start:       startPos,
		End:         s.position(end),
	}
}

func (s *Scanner) newline(at int) {
	s.line++
	s.lastNewline = at + 1
	s.nl = append(s.nl[:s.newlines], at)
	s.newlines++
}

func (s *Scanner) byteAt(i int) (byte, bool) {
	if i >= len(s.data) {
		s.hitEnd = true
		return 0, false
	}
	return s.data[i], true
}

func (s *Scanner) is(i int, b byte) bool {
	c, ok := s.byteAt(i)
	return ok && c == b
}

func (s *Scanner) hasPrefixAt(i int, prefix string) bool {
	for j := 0; j < len(prefix); j++ {
		if !s.is(i+j, prefix[j]) {
			return false
		}
	}
	return true
}

func (s *Scanner) skipWhitespace() {
	for {
		c, ok := s.byteAt(s.pos)
		if !ok {
			return
		}
		switch c {
		case ' ', '\t', '\r':
			s.pos++
		case '\n':
			s.newline(s.pos)
			s.pos++
		default:
			return
		}
	}
}

func (s *Scanner) commentAhead() bool {
	return s.is(s.pos, '/') && s.is(s.pos+1, '/')
}

func (s *Scanner) scanComment() TokenInfo {
	end := s.pos
	for {
		c, ok := s.byteAt(end)
		if !ok || c == '\n' {
			break
		}
		end++
	}
	return s.emit(COMMENT, end)
}

func (s *Scanner) lex(p int, mode Mode) (Token, int) {
	c := s.data[p]
	switch {
	case isDigit(c):
		return s.lexNumber(p)
	case c == '_' || c >= utf8.RuneSelf || isASCIILetter(c):
		if r, _ := s.runeAt(p); r == '_' || unicode.IsLetter(r) {
			end := s.lexIdent(p)
			return Lookup(string(s.data[p:end])), end
		}
	}

	switch c {
	case '"':
		return s.lexString(p)
	case '.':
		if c, ok := s.byteAt(p + 1); ok && isDigit(c) {
			return FLOAT, s.digits(p + 1)
		}
		return DOT, p + 1
	case '/':
		if mode == RegexMode {
			if end, ok := s.lexRegex(p); ok {
				return REGEX, end
			}
		}
		return DIV, p + 1
	case '+':
		return ADD, p + 1
	case '-':
		return SUB, p + 1
	case '*':
		return MUL, p + 1
	case '%':
		return MOD, p + 1
	case '^':
		return POW, p + 1
	case ',':
		return COMMA, p + 1
	case ':':
		return COLON, p + 1
	case '?':
		return QUESTION_MARK, p + 1
	case '(':
		return LPAREN, p + 1
	case ')':
		return RPAREN, p + 1
	case '[':
		return LBRACK, p + 1
	case ']':
		return RBRACK, p + 1
	case '{':
		return LBRACE, p + 1
	case '}':
		return RBRACE, p + 1
	case '=':
		switch n, _ := s.byteAt(p + 1); n {
		case '=':
			return EQ, p + 2
		case '~':
			return REGEXEQ, p + 2
		case '>':
			return ARROW, p + 2
		}
		return ASSIGN, p + 1
	case '!':
		switch n, _ := s.byteAt(p + 1); n {
		case '=':
			return NEQ, p + 2
		case '~':
			return REGEXNEQ, p + 2
		}
	case '<':
		switch n, _ := s.byteAt(p + 1); n {
		case '=':
			return LTE, p + 2
		case '-':
			return PIPE_RECEIVE, p + 2
		}
		return LT, p + 1
	case '>':
		if s.is(p+1, '=') {
			return GTE, p + 2
		}
		return GT, p + 1
	case '|':
		if s.is(p+1, '>') {
			return PIPE_FORWARD, p + 2
		}
	}

	_, size := s.runeAt(p)
	return ILLEGAL, p + size
}

func (s *Scanner) runeAt(p int) (rune, int) {
	rest := s.data[p:]
	if !utf8.FullRune(rest) {
		s.hitEnd = true
	}
	return utf8.DecodeRune(rest)
}

func (s *Scanner) lexIdent(p int) int {
	for p < len(s.data) {
		r, size := s.runeAt(p)
		if r != '_' && !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return p
		}
		p += size
	}
	s.hitEnd = true
	return p
}

func (s *Scanner) digits(p int) int {
	for {
		c, ok := s.byteAt(p)
		if !ok || !isDigit(c) {
			return p
		}
		p++
	}
}

func (s *Scanner) lexNumber(p int) (Token, int) {
	if end, ok := s.lexTime(p); ok {
		return TIME, end
	}

	end := s.digits(p)
	if s.is(end, '.') {
		return FLOAT, s.digits(end + 1)
	}
	if u := s.unit(end); u > 0 {
		end += u
		for {
			d := s.digits(end)
			if d == end {
				break
			}
			u := s.unit(d)
			if u == 0 {
				break
			}
			end = d + u
		}
		return DURATION, end
	}
	if s.data[p] == '0' {
		return INT, p + 1
	}
	return INT, end
}

var durationUnits = []string{"mo", "ms", "m", "ns", "us", "µs", "s", "h", "d", "w", "y"}

func (s *Scanner) unit(p int) int {
	for _, u := range durationUnits {
		if s.hasPrefixAt(p, u) {
			return len(u)
		}
	}
	return 0
}

// match matches a pattern where 'd' is any digit and everything else is
// literal.
func (s *Scanner) match(p int, pattern string) (int, bool) {
	for i := 0; i < len(pattern); i++ {
		c, ok := s.byteAt(p + i)
		if !ok {
			return 0, false
		}
		if pattern[i] == 'd' {
			if !isDigit(c) {
				return 0, false
			}
		} else if c != pattern[i] {
			return 0, false
		}
	}
	return p + len(pattern), true
}

func (s *Scanner) lexTime(p int) (int, bool) {
	date, ok := s.match(p, "dddd-dd-dd")
	if !ok {
		return 0, false
	}
	clock, ok := s.match(date, "Tdd:dd:dd")
	if !ok {
		return date, true
	}
	if s.is(clock, '.') {
		if frac := s.digits(clock + 1); frac > clock+1 {
			clock = frac
		}
	}
	if s.is(clock, 'Z') {
		return clock + 1, true
	}
	for _, sign := range []string{"+dd:dd", "-dd:dd"} {
		if end, ok := s.match(clock, sign); ok {
			return end, true
		}
	}
	return date, true
}

// lexString scans a complete string literal. A literal that is not closed
// or that contains an interpolation yields a lone QUOTE, and the parser
// continues in StringMode.
func (s *Scanner) lexString(p int) (Token, int) {
	i := p + 1
	for {
		c, ok := s.byteAt(i)
		if !ok {
			return QUOTE, p + 1
		}
		switch c {
		case '\\':
			i += 2
		case '"':
			return STRING, i + 1
		case '$':
			if s.is(i+1, '{') {
				return QUOTE, p + 1
			}
			i++
		default:
			i++
		}
	}
}

func (s *Scanner) lexStringPart(p int) (Token, int) {
	switch s.data[p] {
	case '"':
		return QUOTE, p + 1
	case '$':
		if s.is(p+1, '{') {
			return STRINGEXPR, p + 2
		}
	}

	i := p
	for {
		c, ok := s.byteAt(i)
		if !ok {
			return TEXT, len(s.data)
		}
		switch c {
		case '"':
			return TEXT, i
		case '\\':
			i += 2
			if i > len(s.data) {
				s.hitEnd = true
				return TEXT, len(s.data)
			}
		case '$':
			if s.is(i+1, '{') {
				return TEXT, i
			}
			i++
		default:
			i++
		}
	}
}

func (s *Scanner) lexRegex(p int) (int, bool) {
	i := p + 1
	for {
		c, ok := s.byteAt(i)
		if !ok || c == '\n' {
			return 0, false
		}
		switch c {
		case '\\':
			if n, ok := s.byteAt(i + 1); !ok || n == '\n' {
				return 0, false
			}
			i += 2
		case '/':
			return i + 1, true
		default:
			i++
		}
	}
}

func isDigit(c byte) bool {
	return '0' <= c && c <= '9'
}

func isASCIILetter(c byte) bool {
	return ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}
