package lexer

import (
	"strings"

	"cxxsema/internal/diag"
	"cxxsema/internal/source"
	"cxxsema/internal/token"
)

// Macro is one #define seen in the file.
type Macro struct {
	Name      string
	NameSpan  source.Span
	Directive source.Span
	// Def covers the replacement list; for an empty list it is the empty
	// span right after the name (or parameter list).
	Def      source.Span
	FuncLike bool
	Params   []string // the variadic parameter is stored as __VA_ARGS__
	Variadic bool
	Body     []token.Token
}

func (m *Macro) paramIndex(name string) int {
	for i, p := range m.Params {
		if p == name {
			return i
		}
	}
	return -1
}

type directiveKind uint8

const (
	dirOther directiveKind = iota
	dirDefine
	dirUndef
)

type directive struct {
	kind  directiveKind
	macro *Macro // define
	name  string // undef
}

// parseDirective reads one TriviaDirective line.
func parseDirective(file *source.File, tr token.Trivia, opts Options) directive {
	sub := newRangeLexer(file, tr.Span.Start+1, tr.Span.End, opts)
	toks := sub.All()
	toks = toks[:len(toks)-1] // EOF
	if len(toks) == 0 || toks[0].Kind != token.Ident {
		return directive{kind: dirOther}
	}
	switch toks[0].Text {
	case "define":
		m := parseDefine(toks[1:], tr.Span, opts.Reporter)
		if m == nil {
			return directive{kind: dirOther}
		}
		return directive{kind: dirDefine, macro: m}
	case "undef":
		if len(toks) < 2 || !isWordToken(toks[1]) {
			reportDirective(opts.Reporter, tr.Span, "#undef needs a macro name")
			return directive{kind: dirOther}
		}
		return directive{kind: dirUndef, name: toks[1].Text}
	}
	return directive{kind: dirOther}
}

// Keywords are valid macro names.
func isWordToken(t token.Token) bool {
	return t.Kind == token.Ident || t.Kind.IsKeyword()
}

func parseDefine(toks []token.Token, dirSpan source.Span, rep diag.Reporter) *Macro {
	if len(toks) == 0 || !isWordToken(toks[0]) {
		reportDirective(rep, dirSpan, "#define needs a macro name")
		return nil
	}
	name := toks[0]
	m := &Macro{Name: name.Text, NameSpan: name.Span, Directive: dirSpan}
	rest := toks[1:]
	end := name.Span.End

	if len(rest) > 0 && rest[0].Kind == token.LParen && rest[0].Span.Start == name.Span.End {
		m.FuncLike = true
		i := 1
		for ; i < len(rest) && rest[i].Kind != token.RParen; i++ {
			t := rest[i]
			switch {
			case t.Kind == token.Comma:
			case t.Kind == token.Ellipsis:
				m.Variadic = true
				m.Params = append(m.Params, "__VA_ARGS__")
			case isWordToken(t) && !m.Variadic:
				m.Params = append(m.Params, t.Text)
			default:
				reportDirective(rep, t.Span, "bad macro parameter list")
				return nil
			}
		}
		if i == len(rest) {
			reportDirective(rep, dirSpan, "unterminated macro parameter list")
			return nil
		}
		end = rest[i].Span.End
		rest = rest[i+1:]
	}

	m.Body = rest
	if len(rest) > 0 {
		m.Def = rest[0].Span.Cover(rest[len(rest)-1].Span)
	} else {
		m.Def = source.Span{File: name.Span.File, Start: end, End: end}
	}
	return m
}

func reportDirective(rep diag.Reporter, sp source.Span, msg string) {
	if rep != nil {
		diag.ReportError(rep, diag.LexBadDirective, sp, msg).Emit()
	}
}

// stringize implements the # operator.
func stringize(toks []token.Token) string {
	var b strings.Builder
	b.WriteByte('"')
	for i, t := range toks {
		if i > 0 && len(t.Leading) > 0 {
			b.WriteByte(' ')
		}
		for _, r := range t.Text {
			if t.Kind == token.StringLit || t.Kind == token.CharLit {
				if r == '"' || r == '\\' {
					b.WriteByte('\\')
				}
			}
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}
