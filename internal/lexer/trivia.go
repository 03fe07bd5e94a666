package lexer

import (
	"cxxsema/internal/diag"
	"cxxsema/internal/token"
)

const diagTokenTooLong = diag.LexTokenTooLong

// collectLeadingTrivia собирает подряд идущие trivia перед значимым токеном:
// пробелы, переводы строк, комментарии, склейки строк "\\\n" и
// директивы препроцессора (строка, начинающаяся с '#').
func (lx *Lexer) collectLeadingTrivia() {
	for !lx.cursor.EOF() {
		start := lx.cursor.Mark()
		b := lx.cursor.Peek()

		switch {
		case b == ' ' || b == '\t' || b == '\f' || b == '\v' || b == '\r':
			for {
				c := lx.cursor.Peek()
				if c != ' ' && c != '\t' && c != '\f' && c != '\v' && c != '\r' {
					break
				}
				lx.cursor.Bump()
			}
			lx.pushTrivia(token.TriviaSpace, start)

		case b == '\n':
			for lx.cursor.Peek() == '\n' {
				lx.cursor.Bump()
			}
			lx.pushTrivia(token.TriviaNewline, start)
			lx.lineStart = true

		case b == '\\':
			// line splice
			b0, b1, ok := lx.cursor.Peek2()
			if !ok || b0 != '\\' || b1 != '\n' {
				return
			}
			lx.cursor.Off += 2
			lx.pushTrivia(token.TriviaSpace, start)

		case b == '/':
			if !lx.scanComment() {
				return
			}

		case b == '#' && lx.directives && lx.lineStart:
			lx.scanDirectiveLine()
			lx.pushTrivia(token.TriviaDirective, start)
			lx.lineStart = false

		default:
			return
		}
	}
}

func (lx *Lexer) pushTrivia(kind token.TriviaKind, start Mark) {
	sp := lx.cursor.SpanFrom(start)
	lx.hold = append(lx.hold, token.Trivia{Kind: kind, Span: sp, Text: lx.text(sp.Start, sp.End)})
}

// scanComment consumes // or /* */; block comments do not nest.
func (lx *Lexer) scanComment() bool {
	start := lx.cursor.Mark()
	b0, b1, ok := lx.cursor.Peek2()
	if !ok || b0 != '/' {
		return false
	}
	switch b1 {
	case '/':
		for !lx.cursor.EOF() && lx.cursor.Peek() != '\n' {
			lx.cursor.Bump()
		}
		lx.pushTrivia(token.TriviaLineComment, start)
		return true
	case '*':
		lx.cursor.Off += 2
		closed := false
		for !lx.cursor.EOF() {
			if lx.try2('*', '/') {
				closed = true
				break
			}
			lx.cursor.Bump()
		}
		sp := lx.cursor.SpanFrom(start)
		if !closed {
			lx.errLex(diag.LexUnterminatedBlockComment, sp, "unterminated block comment")
		}
		lx.pushTrivia(token.TriviaBlockComment, start)
		return true
	}
	return false
}

// scanDirectiveLine eats up to the first newline not preceded by a splice.
// Block comments inside the line may span lines.
func (lx *Lexer) scanDirectiveLine() {
	for !lx.cursor.EOF() {
		b := lx.cursor.Peek()
		switch {
		case b == '\n':
			return
		case b == '\\':
			lx.cursor.Bump()
			lx.cursor.Eat('\n')
		case b == '/':
			if !lx.scanCommentInDirective() {
				lx.cursor.Bump()
			}
		default:
			lx.cursor.Bump()
		}
	}
}

func (lx *Lexer) scanCommentInDirective() bool {
	b0, b1, ok := lx.cursor.Peek2()
	if !ok || b0 != '/' || b1 != '*' {
		return false
	}
	lx.cursor.Off += 2
	for !lx.cursor.EOF() && !lx.try2('*', '/') {
		lx.cursor.Bump()
	}
	return true
}
