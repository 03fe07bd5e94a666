package token

import "fmt"

// Kind is the lexical category of a token.
type Kind uint8

const (
	Invalid Kind = iota
	EOF

	Ident
	IntLit
	FloatLit
	CharLit
	StringLit

	keywordBeg
	// C keywords
	KwAuto
	KwBreak
	KwCase
	KwChar
	KwConst
	KwContinue
	KwDefault
	KwDo
	KwDouble
	KwElse
	KwEnum
	KwExtern
	KwFloat
	KwFor
	KwGoto
	KwIf
	KwInline
	KwInt
	KwLong
	KwRegister
	KwRestrict
	KwReturn
	KwShort
	KwSigned
	KwSizeof
	KwStatic
	KwStruct
	KwSwitch
	KwTypedef
	KwUnion
	KwUnsigned
	KwVoid
	KwVolatile
	KwWhile
	KwCBool // _Bool
	// C++ only
	KwBool
	KwCatch
	KwClass
	KwConstCast
	KwConstexpr
	KwDecltype
	KwDelete
	KwDynamicCast
	KwExplicit
	KwFalse
	KwFriend
	KwMutable
	KwNamespace
	KwNew
	KwNoexcept
	KwNullptr
	KwOperator
	KwPrivate
	KwProtected
	KwPublic
	KwReinterpretCast
	KwStaticAssert
	KwStaticCast
	KwTemplate
	KwThis
	KwThrow
	KwTrue
	KwTry
	KwTypeid
	KwTypename
	KwUsing
	KwVirtual
	KwWcharT
	KwChar16T
	KwChar32T
	keywordEnd

	// punctuators
	LParen   // (
	RParen   // )
	LBracket // [
	RBracket // ]
	LBrace   // {
	RBrace   // }
	Semicolon
	Comma
	Colon
	ColonColon
	Dot
	DotStar // .*
	Arrow   // ->
	ArrowStar
	Ellipsis
	Question
	Plus
	Minus
	Star
	Slash
	Percent
	Caret
	Amp
	Pipe
	Tilde
	Bang
	Assign
	Lt
	Gt
	PlusAssign
	MinusAssign
	StarAssign
	SlashAssign
	PercentAssign
	CaretAssign
	AmpAssign
	PipeAssign
	Shl
	Shr
	ShlAssign
	ShrAssign
	EqEq
	BangEq
	LtEq
	GtEq
	AndAnd
	OrOr
	PlusPlus
	MinusMinus
	Hash
	HashHash

	kindCount
)

var kindNames = [...]string{
	Invalid:   "Invalid",
	EOF:       "EOF",
	Ident:     "Ident",
	IntLit:    "IntLit",
	FloatLit:  "FloatLit",
	CharLit:   "CharLit",
	StringLit: "StringLit",

	LParen:        "(",
	RParen:        ")",
	LBracket:      "[",
	RBracket:      "]",
	LBrace:        "{",
	RBrace:        "}",
	Semicolon:     ";",
	Comma:         ",",
	Colon:         ":",
	ColonColon:    "::",
	Dot:           ".",
	DotStar:       ".*",
	Arrow:         "->",
	ArrowStar:     "->*",
	Ellipsis:      "...",
	Question:      "?",
	Plus:          "+",
	Minus:         "-",
	Star:          "*",
	Slash:         "/",
	Percent:       "%",
	Caret:         "^",
	Amp:           "&",
	Pipe:          "|",
	Tilde:         "~",
	Bang:          "!",
	Assign:        "=",
	Lt:            "<",
	Gt:            ">",
	PlusAssign:    "+=",
	MinusAssign:   "-=",
	StarAssign:    "*=",
	SlashAssign:   "/=",
	PercentAssign: "%=",
	CaretAssign:   "^=",
	AmpAssign:     "&=",
	PipeAssign:    "|=",
	Shl:           "<<",
	Shr:           ">>",
	ShlAssign:     "<<=",
	ShrAssign:     ">>=",
	EqEq:          "==",
	BangEq:        "!=",
	LtEq:          "<=",
	GtEq:          ">=",
	AndAnd:        "&&",
	OrOr:          "||",
	PlusPlus:      "++",
	MinusMinus:    "--",
	Hash:          "#",
	HashHash:      "##",
}

func (k Kind) String() string {
	if k.IsKeyword() {
		return keywordSpelling[k]
	}
	if int(k) < len(kindNames) && kindNames[k] != "" {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", k)
}

// IsKeyword reports whether k is a C or C++ keyword.
func (k Kind) IsKeyword() bool { return k > keywordBeg && k < keywordEnd }

// IsPunct reports whether k is a punctuator or operator.
func (k Kind) IsPunct() bool { return k >= LParen && k < kindCount }

// IsLiteral reports whether k is a numeric, character or string literal.
func (k Kind) IsLiteral() bool { return k >= IntLit && k <= StringLit }

// IsAssignOp reports simple and compound assignment operators.
func (k Kind) IsAssignOp() bool {
	switch k {
	case Assign, PlusAssign, MinusAssign, StarAssign, SlashAssign, PercentAssign,
		CaretAssign, AmpAssign, PipeAssign, ShlAssign, ShrAssign:
		return true
	}
	return false
}

// IsBuiltinType reports keywords that name or modify a fundamental type.
func (k Kind) IsBuiltinType() bool {
	switch k {
	case KwVoid, KwChar, KwShort, KwInt, KwLong, KwFloat, KwDouble, KwSigned,
		KwUnsigned, KwBool, KwCBool, KwWcharT, KwChar16T, KwChar32T:
		return true
	}
	return false
}

// IsDeclSpecifier reports keywords that can only start a declaration.
func (k Kind) IsDeclSpecifier() bool {
	if k.IsBuiltinType() {
		return true
	}
	switch k {
	case KwConst, KwVolatile, KwRestrict, KwStatic, KwExtern, KwInline, KwRegister,
		KwTypedef, KwVirtual, KwExplicit, KwFriend, KwMutable, KwConstexpr,
		KwStruct, KwUnion, KwClass, KwEnum, KwTypename, KwAuto:
		return true
	}
	return false
}
