package lexer

import (
	"slices"

	"cxxsema/internal/diag"
	"cxxsema/internal/source"
	"cxxsema/internal/token"
)

// pending is a token waiting to be (re)scanned together with the set of
// macros that may not expand it again.
type pending struct {
	tok  token.Token
	hide []string
}

type macroState struct {
	file   *source.File
	opts   Options
	macros map[string]*Macro
	defs   []*Macro
	exps   []token.Expansion // exps[0] is a placeholder for NoExpansion
}

// expander rescans tokens; lx is nil when expanding an isolated argument.
type expander struct {
	st    *macroState
	lx    *Lexer
	stack []pending // pushed-back tokens, top is next
}

func (e *expander) next() pending {
	if n := len(e.stack); n > 0 {
		p := e.stack[n-1]
		e.stack = e.stack[:n-1]
		return p
	}
	if e.lx == nil {
		return pending{tok: token.Token{Kind: token.EOF}}
	}
	t := e.lx.Next()
	e.st.directives(t.Leading)
	return pending{tok: t}
}

func (e *expander) push(ps ...pending) {
	for i := len(ps) - 1; i >= 0; i-- {
		e.stack = append(e.stack, ps[i])
	}
}

func (st *macroState) directives(leading []token.Trivia) {
	for _, tr := range leading {
		if tr.Kind != token.TriviaDirective {
			continue
		}
		d := parseDirective(st.file, tr, st.opts)
		switch d.kind {
		case dirDefine:
			st.macros[d.macro.Name] = d.macro
			st.defs = append(st.defs, d.macro)
		case dirUndef:
			delete(st.macros, d.name)
		}
	}
}

// run expands until EOF and returns the resulting tokens, EOF included.
func (e *expander) run() []token.Token {
	var out []token.Token
	for {
		p := e.next()
		if p.tok.Kind == token.EOF {
			if e.lx != nil {
				out = append(out, p.tok)
			}
			return out
		}
		if res, ok := e.tryExpand(p); ok {
			e.push(res...)
			continue
		}
		out = append(out, p.tok)
	}
}

func (e *expander) tryExpand(p pending) ([]pending, bool) {
	if !isWordToken(p.tok) {
		return nil, false
	}
	m := e.st.macros[p.tok.Text]
	if m == nil || slices.Contains(p.hide, m.Name) {
		return nil, false
	}

	last := p.tok
	var raw []pending
	var args [][]pending
	if m.FuncLike {
		open := e.next()
		if open.tok.Kind != token.LParen {
			e.push(open)
			return nil, false
		}
		raw = append(raw, open)
		var ok bool
		args, last, raw, ok = e.collectArgs(m, raw)
		if !ok {
			return e.unexpanded(p, m, raw), true
		}
		if args, ok = fitArgs(m, args); !ok {
			e.report(diag.LexMacroArgCount, p.tok.Span.Cover(last.Span), "wrong number of arguments for macro "+m.Name)
			return e.unexpanded(p, m, raw), true
		}
	}

	image := p.tok.Span.Cover(last.Span)
	e.st.exps = append(e.st.exps, token.Expansion{
		Macro:  m.Name,
		Image:  image,
		Def:    m.Def,
		Parent: p.tok.Expansion,
	})
	id := token.ExpansionID(len(e.st.exps) - 1)

	for _, arg := range args {
		for i := range arg {
			arg[i].tok = relocate(arg[i].tok, image, id)
		}
	}
	res := e.substitute(m, args, image, id)

	hide := append(slices.Clone(p.hide), m.Name)
	for i := range res {
		res[i].hide = unionHide(res[i].hide, hide)
		res[i].tok.Leading = nil
	}
	if len(res) > 0 {
		res[0].tok.Leading = p.tok.Leading
	}
	return res, true
}

// collectArgs reads up to the matching ')'; raw keeps every consumed token.
func (e *expander) collectArgs(m *Macro, raw []pending) (args [][]pending, last token.Token, _ []pending, ok bool) {
	depth := 0
	cur := []pending{}
	for {
		t := e.next()
		if t.tok.Kind == token.EOF {
			e.report(diag.LexMacroArgCount, raw[0].tok.Span, "unterminated invocation of macro "+m.Name)
			e.push(t)
			return nil, t.tok, raw, false
		}
		raw = append(raw, t)
		switch t.tok.Kind {
		case token.LParen:
			depth++
		case token.RParen:
			if depth == 0 {
				return append(args, cur), t.tok, raw, true
			}
			depth--
		case token.Comma:
			if depth == 0 && !(m.Variadic && len(args) == len(m.Params)-1) {
				args = append(args, cur)
				cur = []pending{}
				continue
			}
		}
		cur = append(cur, t)
	}
}

func fitArgs(m *Macro, args [][]pending) ([][]pending, bool) {
	if len(m.Params) == 0 && len(args) == 1 && len(args[0]) == 0 {
		return nil, true
	}
	if m.Variadic && len(args) == len(m.Params)-1 {
		args = append(args, nil)
	}
	return args, len(args) == len(m.Params)
}

// unexpanded gives back an invocation that could not be expanded, with the
// macro name disabled so it is not retried.
func (e *expander) unexpanded(p pending, m *Macro, raw []pending) []pending {
	p.hide = append(slices.Clone(p.hide), m.Name)
	return append([]pending{p}, raw...)
}

func (e *expander) substitute(m *Macro, args [][]pending, image source.Span, id token.ExpansionID) []pending {
	body := m.Body
	fromBody := func(t token.Token) pending {
		t.Origin = t.Span
		t.Span = image
		t.Expansion = id
		return pending{tok: t}
	}
	param := func(t token.Token) int {
		if !m.FuncLike || !isWordToken(t) {
			return -1
		}
		return m.paramIndex(t.Text)
	}

	var res []pending
	for i := 0; i < len(body); i++ {
		b := body[i]
		if b.Kind == token.Hash && m.FuncLike && i+1 < len(body) && param(body[i+1]) >= 0 {
			arg := args[param(body[i+1])]
			toks := make([]token.Token, len(arg))
			for j := range arg {
				toks[j] = arg[j].tok
			}
			str := fromBody(token.Token{Kind: token.StringLit, Text: stringize(toks), Span: b.Span.Cover(body[i+1].Span)})
			res = append(res, str)
			i++
			continue
		}
		if b.Kind == token.HashHash && i+1 < len(body) {
			nb := body[i+1]
			i++
			var rhs []pending
			if idx := param(nb); idx >= 0 {
				rhs = slices.Clone(args[idx])
			} else {
				rhs = []pending{fromBody(nb)}
			}
			if len(rhs) == 0 {
				continue
			}
			if len(res) == 0 {
				res = append(res, rhs...)
				continue
			}
			res[len(res)-1] = e.paste(res[len(res)-1], rhs[0])
			res = append(res, rhs[1:]...)
			continue
		}
		if idx := param(b); idx >= 0 {
			if i+1 < len(body) && body[i+1].Kind == token.HashHash {
				res = append(res, args[idx]...)
			} else {
				res = append(res, e.expandArg(args[idx])...)
			}
			continue
		}
		res = append(res, fromBody(b))
	}
	return res
}

// expandArg fully macro-expands an argument in isolation.
func (e *expander) expandArg(arg []pending) []pending {
	if len(arg) == 0 {
		return nil
	}
	sub := &expander{st: e.st}
	sub.push(arg...)
	var out []pending
	for {
		p := sub.next()
		if p.tok.Kind == token.EOF {
			return out
		}
		if res, ok := sub.tryExpand(p); ok {
			sub.push(res...)
			continue
		}
		out = append(out, p)
	}
}

// paste implements ##; a result that is not a single token becomes Invalid.
func (e *expander) paste(a, b pending) pending {
	text := a.tok.Text + b.tok.Text
	scratch := &source.File{ID: a.tok.Span.File, Content: []byte(text)}
	opts := e.st.opts
	opts.Reporter = nil
	toks := newRangeLexer(scratch, 0, uint32(len(text)), opts).All()
	kind := token.Invalid
	if len(toks) == 2 {
		kind = toks[0].Kind
	}
	a.tok.Kind = kind
	a.tok.Text = text
	a.hide = unionHide(a.hide, b.hide)
	return a
}

func (e *expander) report(code diag.Code, sp source.Span, msg string) {
	if e.st.opts.Reporter != nil {
		diag.ReportError(e.st.opts.Reporter, code, sp, msg).Emit()
	}
}

// relocate moves an argument token into the expansion image.
func relocate(t token.Token, image source.Span, id token.ExpansionID) token.Token {
	if t.Expansion == token.NoExpansion {
		t.Origin = t.Span
	}
	t.Expansion = id
	t.Span = image
	return t
}

func unionHide(a, b []string) []string {
	out := slices.Clone(a)
	for _, s := range b {
		if !slices.Contains(out, s) {
			out = append(out, s)
		}
	}
	return out
}
