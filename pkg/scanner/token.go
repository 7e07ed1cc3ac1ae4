package scanner

import "fmt"

// Token is the kind of a lexical token.
type Token int

const (
	ILLEGAL Token = iota
	EOF
	COMMENT

	// Literals
	IDENT
	INT
	FLOAT
	STRING
	REGEX
	TIME
	DURATION

	// Interpolated string pieces
	QUOTE
	STRINGEXPR
	TEXT

	// Keywords
	AND
	OR
	NOT
	EXISTS
	IMPORT
	PACKAGE
	RETURN
	OPTION
	BUILTIN
	TEST
	TESTCASE
	IF
	THEN
	ELSE

	// Operators
	ADD
	SUB
	MUL
	DIV
	MOD
	POW
	EQ
	LT
	GT
	LTE
	GTE
	NEQ
	REGEXEQ
	REGEXNEQ
	ASSIGN
	ARROW
	PIPE_FORWARD
	PIPE_RECEIVE
	DOT
	COMMA
	COLON
	QUESTION_MARK

	// Brackets
	LPAREN
	RPAREN
	LBRACK
	RBRACK
	LBRACE
	RBRACE
)

var tokenNames = [...]string{
	ILLEGAL:       "ILLEGAL",
	EOF:           "EOF",
	COMMENT:       "COMMENT",
	IDENT:         "IDENT",
	INT:           "INT",
	FLOAT:         "FLOAT",
	STRING:        "STRING",
	REGEX:         "REGEX",
	TIME:          "TIME",
	DURATION:      "DURATION",
	QUOTE:         "QUOTE",
	STRINGEXPR:    "STRINGEXPR",
	TEXT:          "TEXT",
	AND:           "AND",
	OR:            "OR",
	NOT:           "NOT",
	EXISTS:        "EXISTS",
	IMPORT:        "IMPORT",
	PACKAGE:       "PACKAGE",
	RETURN:        "RETURN",
	OPTION:        "OPTION",
	BUILTIN:       "BUILTIN",
	TEST:          "TEST",
	TESTCASE:      "TESTCASE",
	IF:            "IF",
	THEN:          "THEN",
	ELSE:          "ELSE",
	ADD:           "ADD",
	SUB:           "SUB",
	MUL:           "MUL",
	DIV:           "DIV",
	MOD:           "MOD",
	POW:           "POW",
	EQ:            "EQ",
	LT:            "LT",
	GT:            "GT",
	LTE:           "LTE",
	GTE:           "GTE",
	NEQ:           "NEQ",
	REGEXEQ:       "REGEXEQ",
	REGEXNEQ:      "REGEXNEQ",
	ASSIGN:        "ASSIGN",
	ARROW:         "ARROW",
	PIPE_FORWARD:  "PIPE_FORWARD",
	PIPE_RECEIVE:  "PIPE_RECEIVE",
	DOT:           "DOT",
	COMMA:         "COMMA",
	COLON:         "COLON",
	QUESTION_MARK: "QUESTION_MARK",
	LPAREN:        "LPAREN",
	RPAREN:        "RPAREN",
	LBRACK:        "LBRACK",
	RBRACK:        "RBRACK",
	LBRACE:        "LBRACE",
	RBRACE:        "RBRACE",
}

func (t Token) String() string {
	if t >= 0 && int(t) < len(tokenNames) {
		return tokenNames[t]
	}
	return fmt.Sprintf("Token(%d)", int(t))
}

var keywords = map[string]Token{
	"and":      AND,
	"or":       OR,
	"not":      NOT,
	"exists":   EXISTS,
	"import":   IMPORT,
	"package":  PACKAGE,
	"return":   RETURN,
	"option":   OPTION,
	"builtin":  BUILTIN,
	"test":     TEST,
	"testcase": TESTCASE,
	"if":       IF,
	"then":     THEN,
	"else":     ELSE,
}

// Lookup returns the keyword token for an identifier, or IDENT.
func Lookup(ident string) Token {
	if tok, ok := keywords[ident]; ok {
		return tok
	}
	return IDENT
}

// Position is a 1-based line and byte column.
type Position struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Less reports whether p comes before o.
func (p Position) Less(o Position) bool {
	return p.Line < o.Line || (p.Line == o.Line && p.Column < o.Column)
}

// TokenInfo is a scanned token along with its literal text and span.
type TokenInfo struct {
	Tok         Token
	Lit         string
	StartOffset int
	EndOffset   int
	Start       Position
	End         Position
	// Comments that preceded the token.
	Comments []TokenInfo
}

// Mode tells the scanner how to treat context-sensitive input.
type Mode int

const (
	// DefaultMode scans '/' as division.
	DefaultMode Mode = iota
	// RegexMode scans '/' as the start of a regex literal when the literal
	// is closed on the same line.
	RegexMode
	// StringMode scans the inside of an interpolated string literal.
	StringMode
)

// Result is the outcome of a single call to Next.
type Result int

const (
	TokenReady Result = iota
	EOFReached
	NeedMore
)

func (r Result) String() string {
	switch r {
	case TokenReady:
		return "TokenReady"
	case EOFReached:
		return "EOFReached"
	case NeedMore:
		return "NeedMore"
	}
	return fmt.Sprintf("Result(%d)", int(r))
}
