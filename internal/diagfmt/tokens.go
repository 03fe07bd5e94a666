package diagfmt

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"cxxsema/internal/lexer"
	"cxxsema/internal/source"
	"cxxsema/internal/token"
)

type TokenOutput struct {
	Kind    string      `json:"kind"`
	Text    string      `json:"text,omitempty"`
	Span    source.Span `json:"span"`
	Leading []string    `json:"leading,omitempty"`
	Macro   string      `json:"macro,omitempty"`
}

func leadingKinds(tok token.Token) []string {
	if len(tok.Leading) == 0 {
		return nil
	}
	out := make([]string, 0, len(tok.Leading))
	for _, trivia := range tok.Leading {
		out = append(out, trivia.Kind.String())
	}
	return out
}

// FormatTokensPretty выводит токены в человекочитаемом формате.
// Tokens produced by a macro are tagged with the outermost invocation.
func FormatTokensPretty(w io.Writer, res lexer.Result, fs *source.FileSet) error {
	var sb strings.Builder
	for i, tok := range res.Tokens {
		startPos, endPos := fs.Resolve(tok.Span)
		fmt.Fprintf(&sb, "%3d: %-15s", i+1, tok.Kind.String())
		if tok.Text != "" {
			fmt.Fprintf(&sb, " %q", tok.Text)
		}
		fmt.Fprintf(&sb, " at %d:%d-%d:%d", startPos.Line, startPos.Col, endPos.Line, endPos.Col)
		if leading := leadingKinds(tok); len(leading) > 0 {
			fmt.Fprintf(&sb, " (leading: %s)", strings.Join(leading, ", "))
		}
		if tok.FromExpansion() {
			fmt.Fprintf(&sb, " [macro %s]", res.Expansion(res.Outermost(tok.Expansion)).Macro)
		}
		sb.WriteByte('\n')
		if tok.Kind == token.EOF {
			break
		}
	}
	_, err := io.WriteString(w, sb.String())
	return err
}

// FormatTokensJSON выводит токены в JSON формате
func FormatTokensJSON(w io.Writer, res lexer.Result) error {
	output := make([]TokenOutput, 0, len(res.Tokens))
	for _, tok := range res.Tokens {
		out := TokenOutput{
			Kind:    tok.Kind.String(),
			Text:    tok.Text,
			Span:    tok.Span,
			Leading: leadingKinds(tok),
		}
		if tok.FromExpansion() {
			out.Macro = res.Expansion(res.Outermost(tok.Expansion)).Macro
		}
		output = append(output, out)
		if tok.Kind == token.EOF {
			break
		}
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(output)
}
