// Package diag defines the diagnostic model shared by the lexer, the parser
// and semantic analysis.
//
// A Diagnostic is data: a Code with a stable string form (LEX/SYN/SEM/IO/PRJ/OBS
// ranges), a Severity, a primary span, optional notes and optional fixes.
// Producers emit through a Reporter so that storage (Bag), filtering
// (DedupReporter) and suppression (NopReporter, used by speculative parses)
// stay outside of them. Message wording is not part of the contract; tests
// compare codes and spans.
//
// Rendering lives in internal/diagfmt; FormatGoldenDiagnostics is kept here
// because tests in several packages depend on it.
package diag
