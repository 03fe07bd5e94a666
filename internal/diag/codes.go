package diag

import (
	"fmt"
)

type Code uint16

const (
	UnknownCode Code = 0

	// Лексические
	LexInfo                     Code = 1000
	LexUnknownChar              Code = 1001
	LexUnterminatedString       Code = 1002
	LexUnterminatedChar         Code = 1003
	LexUnterminatedBlockComment Code = 1004
	LexBadNumber                Code = 1005
	LexBadDirective             Code = 1006
	LexMacroArgCount            Code = 1007
	LexTokenTooLong             Code = 1008

	// Синтаксические
	SynInfo           Code = 2000
	SynProblem        Code = 2001
	SynNestingTooDeep Code = 2002

	// Семантические
	SemaInfo                 Code = 3000
	SemaNameNotFound         Code = 3001
	SemaAmbiguousName        Code = 3002
	SemaInvalidOverload      Code = 3003
	SemaNoViableOverload     Code = 3004
	SemaAmbiguousOverload    Code = 3005
	SemaDeductionFailure     Code = 3006
	SemaRedefinition         Code = 3007
	SemaCircularReference    Code = 3008
	SemaInstantiationDepth   Code = 3009
	SemaInvalidType          Code = 3010
	SemaNotAClassOrNamespace Code = 3011

	IOLoadFileError Code = 4001
	IOCacheError    Code = 4002

	ProjInfo          Code = 5000
	ProjInvalidConfig Code = 5001
	ProjDialectHint   Code = 5002

	ObsInfo    Code = 6000
	ObsTimings Code = 6001
)

var (
	codeDescription = map[Code]string{
		UnknownCode:                 "Unknown error",
		LexInfo:                     "Lexical information",
		LexUnknownChar:              "Unknown character",
		LexUnterminatedString:       "Unterminated string literal",
		LexUnterminatedChar:         "Unterminated character literal",
		LexUnterminatedBlockComment: "Unterminated block comment",
		LexBadNumber:                "Bad number literal",
		LexBadDirective:             "Malformed preprocessor directive",
		LexMacroArgCount:            "Wrong number of macro arguments",
		LexTokenTooLong:             "Token too long",
		SynInfo:                     "Syntax information",
		SynProblem:                  "Syntax problem",
		SynNestingTooDeep:           "Nesting too deep",
		SemaInfo:                    "Semantic information",
		SemaNameNotFound:            "Name not found",
		SemaAmbiguousName:           "Ambiguous name",
		SemaInvalidOverload:         "Invalid overload",
		SemaNoViableOverload:        "No viable overload",
		SemaAmbiguousOverload:       "Ambiguous overload",
		SemaDeductionFailure:        "Template argument deduction failed",
		SemaRedefinition:            "Redefinition conflict",
		SemaCircularReference:       "Circular reference",
		SemaInstantiationDepth:      "Template instantiation depth exceeded",
		SemaInvalidType:             "Name does not denote a type",
		SemaNotAClassOrNamespace:    "Qualifier is not a class or namespace",
		IOLoadFileError:             "I/O load file error",
		IOCacheError:                "Disk cache error",
		ProjInfo:                    "Project information",
		ProjInvalidConfig:           "Invalid configuration",
		ProjDialectHint:             "Input looks like another dialect",
		ObsInfo:                     "Observability information",
		ObsTimings:                  "Pipeline timings",
	}
)

func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 1000 && ic < 2000:
		return fmt.Sprintf("LEX%04d", ic)
	case ic >= 2000 && ic < 3000:
		return fmt.Sprintf("SYN%04d", ic)
	case ic >= 3000 && ic < 4000:
		return fmt.Sprintf("SEM%04d", ic)
	case ic >= 4000 && ic < 5000:
		return fmt.Sprintf("IO%04d", ic)
	case ic >= 5000 && ic < 6000:
		return fmt.Sprintf("PRJ%04d", ic)
	case ic >= 6000 && ic < 7000:
		return fmt.Sprintf("OBS%04d", ic)
	}
	return "E0000"
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[UnknownCode]
	}
	return desc
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}
