package lexer

import (
	"cxxsema/internal/diag"
	"cxxsema/internal/dialect"
	"cxxsema/internal/source"
)

type Options struct {
	Reporter diag.Reporter // may be nil: errors are dropped, scanning goes on
	// CXX selects the C++ keyword set; false lexes C.
	CXX bool
	// Evidence, when set, receives dialect hints for every word and token pair.
	Evidence *dialect.Evidence
	// NoMacros keeps #define lines as trivia without expanding anything.
	NoMacros bool
}

func (lx *Lexer) errLex(code diag.Code, sp source.Span, msg string) {
	if lx.opts.Reporter != nil {
		diag.ReportError(lx.opts.Reporter, code, sp, msg).Emit()
	}
}
