// Package parser builds the syntax tree of one translation unit from the
// token slice produced by the lexer.
//
// The grammar of C and C++ is ambiguous without knowing which names denote
// types. The parser keeps a small scope model (the sketch) of the names it
// has seen declared and consults it at the ambiguous points: declaration
// versus expression statements, casts versus parenthesised expressions,
// parameter lists versus initializers and '<' after a name. Alternatives are
// tried speculatively; a rejected attempt rewinds the token position, the
// node arenas and the sketch.
//
// Malformed input never aborts the parse. A broken declaration, statement
// or condition becomes a single Problem node with one SYN diagnostic and the
// parser resumes after the next ';' or before the closing '}'.
package parser
