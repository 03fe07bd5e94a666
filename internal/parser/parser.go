package parser

import (
	"fmt"
	"strings"

	"fortio.org/safecast"

	"cxxsema/internal/ast"
	"cxxsema/internal/diag"
	"cxxsema/internal/token"
)

// DefaultMaxNesting bounds expression and declarator nesting. Deeper input
// becomes a single problem node reported as SynNestingTooDeep.
const DefaultMaxNesting = 4096

type Options struct {
	Reporter   diag.Reporter
	CXX        bool
	MaxNesting int
}

type Result struct {
	Root     ast.NodeID
	Problems int
}

type Parser struct {
	b     *ast.Builder
	toks  []token.Token
	pos   int
	opts  Options
	sketch *sketch

	// first failure of the construct being parsed
	failMsg string
	failAt  int
	nested  bool

	depth   int
	halfShr bool // first '>' of a '>>' already consumed
	noGT    int  // inside template arguments '>' closes the list

	classes  []string // classes being defined, innermost last
	deferred []deferredBody
	problems int

	// set after a template header until the templated entity is declared
	pendingTemplate bool
}

// deferredBody is an inline member function body parsed after its class
// is complete.
type deferredBody struct {
	def        ast.NodeID
	start, end int
	scope      int
	isTry      bool
}

// ParseFile parses the tokens held by b and returns the translation unit.
func ParseFile(b *ast.Builder, opts Options) Result {
	if opts.Reporter == nil {
		opts.Reporter = diag.NopReporter{}
	}
	if opts.MaxNesting <= 0 {
		opts.MaxNesting = DefaultMaxNesting
	}
	p := &Parser{
		b:     b,
		toks:  b.Tokens,
		opts:  opts,
		sketch: newSketch(),
	}
	if len(p.toks) == 0 || p.toks[len(p.toks)-1].Kind != token.EOF {
		// the parser relies on a trailing EOF
		p.toks = append(p.toks, token.Token{Kind: token.EOF})
		b.Tokens = p.toks
	}
	root := p.parseTranslationUnit()
	b.Root = root
	b.LinkParents()
	return Result{Root: root, Problems: p.problems}
}

func u32(i int) uint32 {
	v, err := safecast.Conv[uint32](i)
	if err != nil {
		panic(fmt.Errorf("token index overflow: %w", err))
	}
	return v
}

// --- token access -------------------------------------------------------

func (p *Parser) tok() token.Token { return p.toks[p.pos] }

func (p *Parser) kind() token.Kind { return p.toks[p.pos].Kind }

func (p *Parser) peek(n int) token.Token {
	i := p.pos + n
	if i >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[i]
}

func (p *Parser) peekKind(n int) token.Kind { return p.peek(n).Kind }

func (p *Parser) at(k token.Kind) bool { return p.kind() == k }

func (p *Parser) atEOF() bool { return p.kind() == token.EOF }

// next consumes the current token and returns its index.
func (p *Parser) next() int {
	i := p.pos
	if p.toks[i].Kind != token.EOF {
		p.pos++
	}
	p.halfShr = false
	return i
}

func (p *Parser) eat(k token.Kind) bool {
	if p.at(k) {
		p.next()
		return true
	}
	return false
}

// expect consumes k or records a failure naming what was wanted.
func (p *Parser) expect(k token.Kind, what string) bool {
	if p.eat(k) {
		return true
	}
	return p.fail("expected " + what)
}

// atGT reports a '>' usable as a closing angle bracket, including the
// halves of '>>'.
func (p *Parser) atGT() bool {
	return p.at(token.Gt) || p.at(token.Shr)
}

// closeAngle consumes one '>' and splits '>>' when needed.
func (p *Parser) closeAngle() bool {
	switch {
	case p.at(token.Gt):
		p.next()
		return true
	case p.at(token.Shr):
		if p.halfShr {
			p.next()
			return true
		}
		p.halfShr = true
		return true
	}
	return p.fail("expected '>'")
}

// end is the exclusive token bound of a node ending at the current
// position. A half consumed '>>' belongs to the node.
func (p *Parser) end() uint32 {
	if p.halfShr {
		return u32(p.pos + 1)
	}
	return u32(p.pos)
}

func (p *Parser) text(i int) string { return p.toks[i].Text }

// --- failure and speculation --------------------------------------------

// fail records the furthest failure of the current construct and returns
// false so callers can write `return 0, p.fail(...)`.
func (p *Parser) fail(msg string) bool {
	if p.failMsg == "" || p.pos >= p.failAt {
		t := p.tok()
		if t.Kind == token.EOF {
			p.failMsg = msg + " before end of file"
		} else {
			p.failMsg = fmt.Sprintf("%s, found %q", msg, t.Text)
		}
		p.failAt = p.pos
	}
	return false
}

// enter guards recursion; every successful enter must be paired with leave.
func (p *Parser) enter() bool {
	p.depth++
	if p.depth > p.opts.MaxNesting {
		p.depth--
		p.nested = true
		return p.fail("nesting too deep")
	}
	return true
}

func (p *Parser) leave() { p.depth-- }

type state struct {
	pos      int
	halfShr  bool
	mark     ast.Mark
	sketch    sketchMark
	failMsg  string
	failAt   int
	nested   bool
	deferred int
	classes  int
	pending  bool
}

func (p *Parser) save() state {
	return state{
		pos:      p.pos,
		halfShr:  p.halfShr,
		mark:     p.b.Mark(),
		sketch:    p.sketch.mark(),
		failMsg:  p.failMsg,
		failAt:   p.failAt,
		nested:   p.nested,
		deferred: len(p.deferred),
		classes:  len(p.classes),
		pending:  p.pendingTemplate,
	}
}

func (p *Parser) restore(s state) {
	p.pos = s.pos
	p.halfShr = s.halfShr
	p.b.Reset(s.mark)
	p.sketch.rollback(s.sketch)
	p.failMsg, p.failAt, p.nested = s.failMsg, s.failAt, s.nested
	p.deferred = p.deferred[:s.deferred]
	p.classes = p.classes[:s.classes]
	p.pendingTemplate = s.pending
}

// try runs fn and rewinds every effect when it fails.
func (p *Parser) try(fn func() (ast.NodeID, bool)) (ast.NodeID, bool) {
	s := p.save()
	id, ok := fn()
	if !ok {
		p.restore(s)
		return ast.NoNode, false
	}
	return id, true
}

// clearFailure starts a new construct.
func (p *Parser) clearFailure() {
	p.failMsg, p.failAt, p.nested = "", 0, false
}

// --- recovery ----------------------------------------------------------

// resync skips to the end of a broken construct: past the next ';' at
// nesting level zero, or up to (not including) a '}' that closes the
// enclosing block. At least one token is consumed when start == p.pos.
func (p *Parser) resync(start int) {
	depth := 0
	for !p.atEOF() {
		switch p.kind() {
		case token.LParen, token.LBracket, token.LBrace:
			depth++
		case token.RParen, token.RBracket:
			if depth > 0 {
				depth--
			}
		case token.RBrace:
			if depth == 0 {
				if p.pos == start {
					p.next()
				}
				return
			}
			depth--
			if depth == 0 && p.peekKind(1) != token.Semicolon && p.pos > start {
				// a closed block ends a construct such as a function body
				p.next()
				return
			}
		case token.Semicolon:
			if depth == 0 {
				p.next()
				return
			}
		}
		p.next()
	}
}

// problem builds a problem node over [start, p.pos) after resync and
// reports one diagnostic for it.
func (p *Parser) problem(kind ast.NodeKind, start int) ast.NodeID {
	failAt := p.failAt
	msg := p.failMsg
	nested := p.nested
	if msg == "" {
		msg = "unexpected " + describe(p.tok())
	}
	p.pos = start
	p.halfShr = false
	p.resync(start)
	first, end := u32(start), u32(p.pos)
	var id ast.NodeID
	switch kind {
	case ast.KindProblemStmt:
		id = p.b.NewStmt(kind, first, end, ast.StmtData{})
	case ast.KindProblemExpr:
		id = p.b.NewExpr(kind, first, end, ast.ExprData{})
	default:
		id = p.b.NewDecl(ast.KindProblemDecl, first, end, ast.DeclData{})
	}
	p.reportProblem(failAt, msg, nested)
	p.clearFailure()
	return id
}

func (p *Parser) reportProblem(at int, msg string, nested bool) {
	p.problems++
	if at >= len(p.toks) {
		at = len(p.toks) - 1
	}
	sp := p.toks[at].Span
	if nested {
		diag.ReportError(p.opts.Reporter, diag.SynNestingTooDeep, sp,
			fmt.Sprintf("nesting exceeds %d levels", p.opts.MaxNesting)).Emit()
		return
	}
	r := diag.ReportError(p.opts.Reporter, diag.SynProblem, sp, "syntax error: "+msg)
	if strings.HasPrefix(msg, "expected ';'") && at > 0 {
		end := p.toks[at-1].Span
		end.Start = end.End
		r.WithFix("insert ';'", diag.FixEdit{Span: end, NewText: ";"})
	}
	r.Emit()
}

func describe(t token.Token) string {
	if t.Kind == token.EOF {
		return "end of file"
	}
	return fmt.Sprintf("%q", t.Text)
}
