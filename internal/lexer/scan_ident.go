package lexer

import (
	"cxxsema/internal/dialect"
	"cxxsema/internal/token"

	"golang.org/x/text/unicode/norm"
)

// scanIdentOrKeyword сканирует идентификатор, ключевое слово или префикс
// литерала (L"", u8"", R"(...)").
func (lx *Lexer) scanIdentOrKeyword() token.Token {
	start := lx.cursor.Mark()
	ascii := true

	r, sz := lx.peekRune()
	if sz == 0 {
		return token.Token{Kind: token.Invalid, Span: lx.cursor.SpanFrom(start)}
	}
	if r >= utf8RuneSelf {
		if !isIdentStartRune(r) {
			return lx.scanOperatorOrPunct()
		}
		ascii = false
	}
	lx.bumpRune()
	for {
		b := lx.cursor.Peek()
		if b < utf8RuneSelf {
			if !isIdentContinueByte(b) || lx.cursor.EOF() {
				break
			}
			lx.cursor.Bump()
			continue
		}
		r2, sz2 := lx.peekRune()
		if sz2 == 0 || !isIdentContinueRune(r2) {
			break
		}
		ascii = false
		lx.bumpRune()
	}

	sp := lx.cursor.SpanFrom(start)
	text := lx.text(sp.Start, sp.End)

	if tok, ok := lx.scanPrefixedLiteral(start, text); ok {
		return tok
	}
	if !ascii {
		text = norm.NFC.String(text)
	}

	dialect.RecordWord(lx.opts.Evidence, text, sp)
	if k, ok := token.LookupKeyword(text, lx.opts.CXX); ok {
		return token.Token{Kind: k, Span: sp, Text: text}
	}
	return token.Token{Kind: token.Ident, Span: sp, Text: text}
}

// scanPrefixedLiteral handles encoding prefixes glued to a quote.
func (lx *Lexer) scanPrefixedLiteral(start Mark, prefix string) (token.Token, bool) {
	q := lx.cursor.Peek()
	if q != '"' && q != '\'' {
		return token.Token{}, false
	}
	raw := false
	switch prefix {
	case "L", "u", "U", "u8":
	case "R", "LR", "uR", "UR", "u8R":
		raw = lx.opts.CXX && q == '"'
		if !raw {
			return token.Token{}, false
		}
	default:
		return token.Token{}, false
	}
	switch {
	case raw:
		return lx.scanRawString(start), true
	case q == '"':
		return lx.scanString(start), true
	default:
		return lx.scanChar(start), true
	}
}
