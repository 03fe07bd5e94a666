package lexer

import (
	"strings"

	"cxxsema/internal/diag"
	"cxxsema/internal/token"
)

// scanNumber сканирует pp-number: цифра или ".цифра", затем [0-9A-Za-z_.]
// и знаки после e/E/p/P. В C++ допускаются разделители '\'' между цифрами.
// Вид (IntLit/FloatLit) определяется по содержимому.
func (lx *Lexer) scanNumber() token.Token {
	start := lx.cursor.Mark()
	for !lx.cursor.EOF() {
		b := lx.cursor.Peek()
		switch {
		case isIdentContinueByte(b) || b == '.':
			lx.cursor.Bump()
			if (b == 'e' || b == 'E' || b == 'p' || b == 'P') && (lx.cursor.Peek() == '+' || lx.cursor.Peek() == '-') {
				lx.cursor.Bump()
			}
		case b == '\'' && lx.opts.CXX:
			b0, b1, ok := lx.cursor.Peek2()
			if !ok || b0 != '\'' || !isHex(b1) {
				goto done
			}
			lx.cursor.Bump()
		default:
			goto done
		}
	}
done:
	sp := lx.cursor.SpanFrom(start)
	text := lx.text(sp.Start, sp.End)
	kind := classifyNumber(text)
	if kind == token.Invalid {
		lx.errLex(diag.LexBadNumber, sp, "malformed number literal")
	}
	return token.Token{Kind: kind, Span: sp, Text: text}
}

func classifyNumber(text string) token.Kind {
	t := strings.ReplaceAll(text, "'", "")
	lower := strings.ToLower(t)
	if strings.HasPrefix(lower, "0x") {
		digits := strings.TrimLeft(lower[2:], "0123456789abcdef.")
		if len(lower) == 2 || digits == lower[2:] {
			return token.Invalid
		}
		if strings.ContainsAny(lower, ".p") {
			return token.FloatLit
		}
		return token.IntLit
	}
	if strings.HasPrefix(lower, "0b") {
		if len(lower) == 2 || !strings.ContainsAny(lower[2:3], "01") {
			return token.Invalid
		}
		return token.IntLit
	}
	if strings.Contains(lower, ".") || strings.ContainsAny(strings.TrimRight(lower, "fl"), "e") {
		return token.FloatLit
	}
	return token.IntLit
}
