package lexer

import (
	"cxxsema/internal/diag"
	"cxxsema/internal/token"
)

// scanString сканирует "..." начиная с кавычки (префикс уже съеден).
func (lx *Lexer) scanString(start Mark) token.Token {
	return lx.scanQuoted(start, '"', token.StringLit, diag.LexUnterminatedString, "string")
}

func (lx *Lexer) scanChar(start Mark) token.Token {
	return lx.scanQuoted(start, '\'', token.CharLit, diag.LexUnterminatedChar, "character")
}

func (lx *Lexer) scanQuoted(start Mark, quote byte, kind token.Kind, code diag.Code, what string) token.Token {
	lx.cursor.Bump() // opening quote
	for !lx.cursor.EOF() {
		b := lx.cursor.Peek()
		switch b {
		case quote:
			lx.cursor.Bump()
			sp := lx.cursor.SpanFrom(start)
			return token.Token{Kind: kind, Span: sp, Text: lx.text(sp.Start, sp.End)}
		case '\\':
			// escape: съесть '\' и следующий байт, глубоко не валидируем
			lx.cursor.Bump()
			lx.cursor.Bump()
			continue
		case '\n':
			sp := lx.cursor.SpanFrom(start)
			lx.errLex(code, sp, "newline in "+what+" literal")
			return token.Token{Kind: token.Invalid, Span: sp, Text: lx.text(sp.Start, sp.End)}
		}
		lx.cursor.Bump()
	}
	sp := lx.cursor.SpanFrom(start)
	lx.errLex(code, sp, "unterminated "+what+" literal")
	return token.Token{Kind: token.Invalid, Span: sp, Text: lx.text(sp.Start, sp.End)}
}

// scanRawString handles R"delim( ... )delim"; the cursor is on the quote.
func (lx *Lexer) scanRawString(start Mark) token.Token {
	lx.cursor.Bump()
	delimStart := lx.cursor.Off
	for !lx.cursor.EOF() && lx.cursor.Peek() != '(' {
		if b := lx.cursor.Peek(); b == ' ' || b == ')' || b == '\\' || b == '\n' || lx.cursor.Off-delimStart > 16 {
			break
		}
		lx.cursor.Bump()
	}
	if lx.cursor.Peek() != '(' {
		sp := lx.cursor.SpanFrom(start)
		lx.errLex(diag.LexUnterminatedString, sp, "invalid raw string delimiter")
		return token.Token{Kind: token.Invalid, Span: sp, Text: lx.text(sp.Start, sp.End)}
	}
	closing := ")" + lx.text(delimStart, lx.cursor.Off) + "\""
	lx.cursor.Bump()
	for !lx.cursor.EOF() {
		if lx.cursor.Peek() == ')' && lx.hasPrefix(closing) {
			lx.cursor.Off += uint32(len(closing))
			sp := lx.cursor.SpanFrom(start)
			return token.Token{Kind: token.StringLit, Span: sp, Text: lx.text(sp.Start, sp.End)}
		}
		lx.cursor.Bump()
	}
	sp := lx.cursor.SpanFrom(start)
	lx.errLex(diag.LexUnterminatedString, sp, "unterminated raw string literal")
	return token.Token{Kind: token.Invalid, Span: sp, Text: lx.text(sp.Start, sp.End)}
}

func (lx *Lexer) hasPrefix(s string) bool {
	end := lx.cursor.Off + uint32(len(s))
	if end > lx.cursor.Limit {
		return false
	}
	return string(lx.file.Content[lx.cursor.Off:end]) == s
}
