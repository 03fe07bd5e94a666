package driver

import (
	"fmt"
	"path/filepath"

	"cxxsema/internal/diag"
	"cxxsema/internal/dialect"
	"cxxsema/internal/lexer"
	"cxxsema/internal/source"
)

type dialectChoice struct {
	kind        dialect.Kind
	byExtension bool
}

// chooseDialect applies, in order: the forced dialect, the file extension,
// and a content scan for files whose extension does not decide (headers).
func chooseDialect(file *source.File, opts Options, rep diag.Reporter) dialectChoice {
	if opts.Dialect != dialect.Unknown {
		return dialectChoice{kind: opts.Dialect}
	}
	if k := dialect.FromExtension(filepath.Ext(file.Path)); k != dialect.Unknown {
		return dialectChoice{kind: k, byExtension: true}
	}
	ev := dialect.NewEvidence()
	lexer.Tokenize(file, lexer.Options{CXX: true, Evidence: ev, NoMacros: true})
	c := dialect.Classifier{}.Classify(ev)
	k := dialect.Decide(c)
	if rep != nil && c.ObservedSignals > 0 {
		diag.ReportInfo(rep, diag.ProjDialectHint, source.Span{File: file.ID},
			fmt.Sprintf("analysed as %s (%d of %d evidence points)", k, c.Score, c.TotalScore)).Emit()
	}
	return dialectChoice{kind: k}
}

// reportDialectMismatch warns when the content of a file strongly suggests
// the other dialect than its extension.
func reportDialectMismatch(rep diag.Reporter, chosen dialect.Kind, ev *dialect.Evidence) {
	c := dialect.Classifier{}.Classify(ev)
	if c.Kind == dialect.Unknown || c.Kind == chosen || c.Score < 8 || c.Confidence < 0.8 {
		return
	}
	b := diag.ReportWarning(rep, diag.ProjDialectHint, firstHintSpan(ev, c.Kind),
		fmt.Sprintf("file is analysed as %s but looks like %s", chosen, c.Kind))
	notes := 0
	for _, h := range ev.Hints() {
		if h.Dialect == c.Kind && notes < 3 {
			b.WithNote(h.Span, h.Reason)
			notes++
		}
	}
	b.Emit()
}

func firstHintSpan(ev *dialect.Evidence, k dialect.Kind) source.Span {
	for _, h := range ev.Hints() {
		if h.Dialect == k {
			return h.Span
		}
	}
	return source.Span{}
}
