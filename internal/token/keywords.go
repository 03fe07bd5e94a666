package token

var cKeywords = map[string]Kind{
	"auto":     KwAuto,
	"break":    KwBreak,
	"case":     KwCase,
	"char":     KwChar,
	"const":    KwConst,
	"continue": KwContinue,
	"default":  KwDefault,
	"do":       KwDo,
	"double":   KwDouble,
	"else":     KwElse,
	"enum":     KwEnum,
	"extern":   KwExtern,
	"float":    KwFloat,
	"for":      KwFor,
	"goto":     KwGoto,
	"if":       KwIf,
	"inline":   KwInline,
	"int":      KwInt,
	"long":     KwLong,
	"register": KwRegister,
	"restrict": KwRestrict,
	"return":   KwReturn,
	"short":    KwShort,
	"signed":   KwSigned,
	"sizeof":   KwSizeof,
	"static":   KwStatic,
	"struct":   KwStruct,
	"switch":   KwSwitch,
	"typedef":  KwTypedef,
	"union":    KwUnion,
	"unsigned": KwUnsigned,
	"void":     KwVoid,
	"volatile": KwVolatile,
	"while":    KwWhile,
	"_Bool":    KwCBool,
}

// cxxKeywords extends the C set; "restrict" and "_Bool" are identifiers in C++.
var cxxKeywords = map[string]Kind{
	"bool":             KwBool,
	"catch":            KwCatch,
	"class":            KwClass,
	"const_cast":       KwConstCast,
	"constexpr":        KwConstexpr,
	"decltype":         KwDecltype,
	"delete":           KwDelete,
	"dynamic_cast":     KwDynamicCast,
	"explicit":         KwExplicit,
	"false":            KwFalse,
	"friend":           KwFriend,
	"mutable":          KwMutable,
	"namespace":        KwNamespace,
	"new":              KwNew,
	"noexcept":         KwNoexcept,
	"nullptr":          KwNullptr,
	"operator":         KwOperator,
	"private":          KwPrivate,
	"protected":        KwProtected,
	"public":           KwPublic,
	"reinterpret_cast": KwReinterpretCast,
	"static_assert":    KwStaticAssert,
	"static_cast":      KwStaticCast,
	"template":         KwTemplate,
	"this":             KwThis,
	"throw":            KwThrow,
	"true":             KwTrue,
	"try":              KwTry,
	"typeid":           KwTypeid,
	"typename":         KwTypename,
	"using":            KwUsing,
	"virtual":          KwVirtual,
	"wchar_t":          KwWcharT,
	"char16_t":         KwChar16T,
	"char32_t":         KwChar32T,
}

var keywordSpelling = func() map[Kind]string {
	m := make(map[Kind]string, len(cKeywords)+len(cxxKeywords))
	for s, k := range cKeywords {
		m[k] = s
	}
	for s, k := range cxxKeywords {
		m[k] = s
	}
	return m
}()

// LookupKeyword maps an identifier spelling to a keyword of the selected
// language. C++ mode does not treat "restrict" and "_Bool" as keywords.
func LookupKeyword(ident string, cxx bool) (Kind, bool) {
	if cxx {
		if k, ok := cxxKeywords[ident]; ok {
			return k, true
		}
		if ident == "restrict" || ident == "_Bool" {
			return Ident, false
		}
	}
	k, ok := cKeywords[ident]
	return k, ok
}
