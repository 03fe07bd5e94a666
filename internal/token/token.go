package token

import "cxxsema/internal/source"

// ExpansionID identifies a macro expansion; 0 means the token was written
// directly in the file.
type ExpansionID uint32

const NoExpansion ExpansionID = 0

// Expansion describes one macro invocation.
type Expansion struct {
	Macro string
	Image source.Span // the invocation text in the file
	Def   source.Span // the replacement list of the definition
	// Parent is the expansion this one was rescanned from, if nested.
	Parent ExpansionID
}

// Token is one significant token with its leading trivia.
//
// For tokens produced by a macro expansion Span is the image location (the
// whole invocation) and Origin points into the macro definition.
type Token struct {
	Kind      Kind
	Span      source.Span
	Text      string
	Leading   []Trivia
	Expansion ExpansionID
	Origin    source.Span
}

func (t Token) IsIdent() bool { return t.Kind == Ident }

// FromExpansion reports whether the token was produced by a macro.
func (t Token) FromExpansion() bool { return t.Expansion != NoExpansion }
