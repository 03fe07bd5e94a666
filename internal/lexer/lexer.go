package lexer

import (
	"cxxsema/internal/dialect"
	"cxxsema/internal/source"
	"cxxsema/internal/token"
)

// Lexer produces raw tokens of one file: no macro is expanded here.
// Preprocessor lines come back as TriviaDirective in Leading.
type Lexer struct {
	file   *source.File
	cursor Cursor
	opts   Options
	hold   []token.Trivia // накопленные leading trivia
	look   *token.Token

	lineStart  bool // only trivia since the last newline
	directives bool // '#' at line start opens a directive
	done       bool
	prev       token.Token
}

func New(file *source.File, opts Options) *Lexer {
	return &Lexer{
		file:       file,
		cursor:     NewCursor(file),
		opts:       opts,
		lineStart:  true,
		directives: true,
	}
}

// newRangeLexer scans a slice of the file, e.g. the body of a directive.
func newRangeLexer(file *source.File, start, end uint32, opts Options) *Lexer {
	opts.Evidence = nil
	return &Lexer{
		file:   file,
		cursor: NewRangeCursor(file, start, end),
		opts:   opts,
	}
}

// Next возвращает следующий значимый токен с собранным Leading.
// После EOF всегда возвращает EOF.
func (lx *Lexer) Next() token.Token {
	if lx.look != nil {
		tok := *lx.look
		lx.look = nil
		return tok
	}

	lx.collectLeadingTrivia()
	if lx.cursor.EOF() || lx.done {
		tok := token.Token{Kind: token.EOF, Span: lx.emptySpan(), Leading: lx.hold}
		lx.hold = nil
		return tok
	}

	ch := lx.cursor.Peek()
	var tok token.Token
	switch {
	case isIdentStartByte(ch), ch >= utf8RuneSelf:
		tok = lx.scanIdentOrKeyword()
	case isDec(ch), ch == '.' && lx.isNumberAfterDot():
		tok = lx.scanNumber()
	case ch == '"':
		tok = lx.scanString(lx.cursor.Mark())
	case ch == '\'':
		tok = lx.scanChar(lx.cursor.Mark())
	default:
		tok = lx.scanOperatorOrPunct()
	}

	if tok.Span.Len() > maxTokenLength {
		lx.errLex(diagTokenTooLong, tok.Span, "token exceeds the maximum length")
		lx.cursor.Off = lx.cursor.Limit
		lx.done = true
		tok = token.Token{Kind: token.Invalid, Span: tok.Span}
	}

	tok.Leading = lx.hold
	lx.hold = nil
	lx.lineStart = false
	dialect.ObserveTokenPair(lx.opts.Evidence, lx.prev, tok)
	lx.prev = tok
	return tok
}

// Peek возвращает следующий токен, не потребляя его.
func (lx *Lexer) Peek() token.Token {
	t := lx.Next()
	lx.look = &t
	return t
}

func (lx *Lexer) emptySpan() source.Span {
	return source.Span{File: lx.file.ID, Start: lx.cursor.Off, End: lx.cursor.Off}
}

// All drains the lexer, EOF included.
func (lx *Lexer) All() []token.Token {
	var out []token.Token
	for {
		t := lx.Next()
		out = append(out, t)
		if t.Kind == token.EOF {
			return out
		}
	}
}
