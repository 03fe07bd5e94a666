// Package token defines the lexical vocabulary of C and C++.
//
// Invariants:
//   - Token.Text is the spelling of the token (a slice of the source or of
//     a macro definition).
//   - Tokens written in the file have Span covering Text exactly; tokens
//     produced by a macro share the invocation span and carry an Expansion.
//   - Keywords depend on the language: LookupKeyword(ident, cxx).
package token
