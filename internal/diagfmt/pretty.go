package diagfmt

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"cxxsema/internal/diag"
	"cxxsema/internal/source"
)

type palette struct {
	err, warn, info, note, code, gutter, caret, fix *color.Color
}

func newPalette(enabled bool) palette {
	p := palette{
		err:    color.New(color.FgRed, color.Bold),
		warn:   color.New(color.FgYellow, color.Bold),
		info:   color.New(color.FgCyan, color.Bold),
		note:   color.New(color.FgBlue, color.Bold),
		code:   color.New(color.Bold),
		gutter: color.New(color.FgBlue),
		caret:  color.New(color.FgGreen, color.Bold),
		fix:    color.New(color.FgGreen),
	}
	for _, c := range []*color.Color{p.err, p.warn, p.info, p.note, p.code, p.gutter, p.caret, p.fix} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

func (p palette) severity(s diag.Severity) *color.Color {
	switch s {
	case diag.SevError:
		return p.err
	case diag.SevWarning:
		return p.warn
	}
	return p.info
}

// Pretty форматирует диагностики в человекочитаемый вид.
// Идёт по bag.Items() (ожидается bag.Sort() заранее).
// Для каждой диагностики печатает
//
//	<path>:<line>:<col>: <SEV> <CODE>: <Message>
//
// затем строку исходника с подчёркиванием ^~~~ по Span, затем Notes.
func Pretty(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts PrettyOpts) error {
	if bag == nil {
		return nil
	}
	pr := prettyPrinter{w: w, fs: fs, opts: opts, pal: newPalette(opts.Color)}
	if pr.opts.TabWidth <= 0 {
		pr.opts.TabWidth = 4
	}
	for _, d := range bag.Items() {
		pr.diagnostic(&d)
	}
	return pr.err
}

type prettyPrinter struct {
	w    io.Writer
	fs   *source.FileSet
	opts PrettyOpts
	pal  palette
	err  error
}

func (p *prettyPrinter) printf(format string, args ...any) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format, args...)
}

func (p *prettyPrinter) diagnostic(d *diag.Diagnostic) {
	sev := p.pal.severity(d.Severity).Sprint(d.Severity.String())
	code := p.pal.code.Sprint(d.Code.ID())
	if d.Code == diag.ObsTimings {
		p.printf("%s %s: %s\n", sev, code, d.Message)
		return
	}
	p.printf("%s: %s %s: %s\n", location(d.Primary, p.fs, p.opts.PathMode), sev, code, d.Message)
	p.snippet(d.Primary)

	if p.opts.ShowNotes {
		for _, n := range d.Notes {
			p.printf("  %s: %s: %s\n", p.pal.note.Sprint("note"), location(n.Span, p.fs, p.opts.PathMode), n.Msg)
			if n.Span != d.Primary {
				p.snippet(n.Span)
			}
		}
	}
	if p.opts.ShowFixes {
		for _, f := range d.Fixes {
			p.printf("  %s: %s\n", p.pal.fix.Sprint("fix"), f.Title)
			for _, e := range f.Edits {
				p.printf("    %s: replace with %q\n", location(e.Span, p.fs, p.opts.PathMode), e.NewText)
			}
		}
	}
}

// snippet prints the context lines and the primary line with an underline.
func (p *prettyPrinter) snippet(span source.Span) {
	f := p.fs.Get(span.File)
	if f == nil || len(f.Content) == 0 {
		return
	}
	start, end := p.fs.Resolve(span)
	if start.Line == 0 {
		return
	}
	first := start.Line
	if c := uint32(max(p.opts.Context, 0)); first > c {
		first -= c
	} else {
		first = 1
	}
	gutterWidth := len(fmt.Sprint(start.Line))
	for ln := first; ln <= start.Line; ln++ {
		p.printf("%s %s\n", p.pal.gutter.Sprintf("%*d |", gutterWidth, ln), p.expandTabs(f.GetLine(ln)))
	}

	line := f.GetLine(start.Line)
	startCol := int(start.Col) - 1
	endCol := len(line)
	if end.Line == start.Line {
		endCol = int(end.Col) - 1
	}
	startCol = min(max(startCol, 0), len(line))
	endCol = min(max(endCol, startCol), len(line))

	pad := runewidth.StringWidth(p.expandTabs(line[:startCol]))
	width := max(runewidth.StringWidth(p.expandTabs(line[startCol:endCol])), 1)
	marker := "^" + strings.Repeat("~", width-1)
	p.printf("%s %s%s\n", p.pal.gutter.Sprint(strings.Repeat(" ", gutterWidth)+" |"), strings.Repeat(" ", pad), p.pal.caret.Sprint(marker))
}

func (p *prettyPrinter) expandTabs(s string) string {
	if !strings.Contains(s, "\t") {
		return s
	}
	var sb strings.Builder
	col := 0
	for _, r := range s {
		if r == '\t' {
			n := p.opts.TabWidth - col%p.opts.TabWidth
			sb.WriteString(strings.Repeat(" ", n))
			col += n
			continue
		}
		sb.WriteRune(r)
		col += runewidth.RuneWidth(r)
	}
	return sb.String()
}

// Short prints one line per diagnostic in the stable golden format,
// suitable for editors and scripts.
func Short(w io.Writer, bag *diag.Bag, fs *source.FileSet) error {
	if bag == nil || bag.Len() == 0 {
		return nil
	}
	out := diag.FormatGoldenDiagnostics(bag.Items(), fs, false)
	if out == "" {
		return nil
	}
	_, err := io.WriteString(w, out+"\n")
	return err
}

// Summary renders "N errors, M warnings".
func Summary(bags ...*diag.Bag) string {
	var errs, warns int
	for _, b := range bags {
		if b == nil {
			continue
		}
		for _, d := range b.Items() {
			switch d.Severity {
			case diag.SevError:
				errs++
			case diag.SevWarning:
				warns++
			}
		}
	}
	return fmt.Sprintf("%s, %s", plural(errs, "error"), plural(warns, "warning"))
}

func plural(n int, word string) string {
	if n == 1 {
		return "1 " + word
	}
	return fmt.Sprintf("%d %ss", n, word)
}
