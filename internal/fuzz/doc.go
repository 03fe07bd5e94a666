// Package fuzztests holds Go fuzz harnesses for the front end: lexer with
// macro expansion, parser and the full analysis pipeline. They guard
// against panics, hangs and broken tree invariants on arbitrary input.
//
// Назначение: прогонять произвольные байты через FileSet, лексер, парсер и
// семантический анализ.
//
// Не делает: генерацию корпусов, запись файлов, выполнение CLI.

package fuzztests
