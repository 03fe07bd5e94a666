package ast

import "fmt"

// NodeKind is the closed set of syntactic categories.
type NodeKind uint8

const (
	KindInvalid NodeKind = iota
	KindTU

	// declarations
	KindSimpleDecl
	KindFunctionDef
	KindNamespace
	KindNamespaceAlias
	KindUsingDirective
	KindUsingDecl
	KindAliasDecl
	KindTemplateDecl
	KindExplicitInstantiation
	KindLinkageSpec
	KindStaticAssert
	KindAccessSpec
	KindEmptyDecl
	KindProblemDecl

	// specifiers, declarators, parameters
	KindDeclSpec
	KindClassSpec
	KindEnumSpec
	KindElaboratedSpec
	KindBaseSpec
	KindEnumerator
	KindDeclarator
	KindParamDecl
	KindTypeParam
	KindTemplateTemplateParam
	KindTypeID
	KindCtorInit

	// statements
	KindCompound
	KindDeclStmt
	KindExprStmt
	KindIf
	KindWhile
	KindDo
	KindFor
	KindSwitch
	KindCase
	KindDefault
	KindBreak
	KindContinue
	KindReturn
	KindGoto
	KindLabeled
	KindNullStmt
	KindTry
	KindCatch
	KindProblemStmt

	// expressions
	KindLiteral
	KindIdExpr
	KindBinary
	KindUnary
	KindPostfix
	KindCall
	KindSubscript
	KindMember
	KindCast
	KindConditional
	KindSizeof
	KindNew
	KindDelete
	KindThis
	KindParen
	KindInitList
	KindExprList
	KindThrow
	KindTypeConstruct
	KindTypeidExpr
	KindProblemExpr

	// names
	KindIdent
	KindQualified
	KindTemplateID
	KindOperatorName
	KindConversionName
	KindDestructorName
	KindImplicitName

	kindCount
)

var kindNames = [...]string{
	KindInvalid:               "Invalid",
	KindTU:                    "TranslationUnit",
	KindSimpleDecl:            "SimpleDecl",
	KindFunctionDef:           "FunctionDef",
	KindNamespace:             "Namespace",
	KindNamespaceAlias:        "NamespaceAlias",
	KindUsingDirective:        "UsingDirective",
	KindUsingDecl:             "UsingDecl",
	KindAliasDecl:             "AliasDecl",
	KindTemplateDecl:          "TemplateDecl",
	KindExplicitInstantiation: "ExplicitInstantiation",
	KindLinkageSpec:           "LinkageSpec",
	KindStaticAssert:          "StaticAssert",
	KindAccessSpec:            "AccessSpec",
	KindEmptyDecl:             "EmptyDecl",
	KindProblemDecl:           "ProblemDecl",
	KindDeclSpec:              "DeclSpec",
	KindClassSpec:             "ClassSpec",
	KindEnumSpec:              "EnumSpec",
	KindElaboratedSpec:        "ElaboratedSpec",
	KindBaseSpec:              "BaseSpec",
	KindEnumerator:            "Enumerator",
	KindDeclarator:            "Declarator",
	KindParamDecl:             "ParamDecl",
	KindTypeParam:             "TypeParam",
	KindTemplateTemplateParam: "TemplateTemplateParam",
	KindTypeID:                "TypeId",
	KindCtorInit:              "CtorInit",
	KindCompound:              "Compound",
	KindDeclStmt:              "DeclStmt",
	KindExprStmt:              "ExprStmt",
	KindIf:                    "If",
	KindWhile:                 "While",
	KindDo:                    "Do",
	KindFor:                   "For",
	KindSwitch:                "Switch",
	KindCase:                  "Case",
	KindDefault:               "Default",
	KindBreak:                 "Break",
	KindContinue:              "Continue",
	KindReturn:                "Return",
	KindGoto:                  "Goto",
	KindLabeled:               "Labeled",
	KindNullStmt:              "NullStmt",
	KindTry:                   "Try",
	KindCatch:                 "Catch",
	KindProblemStmt:           "ProblemStmt",
	KindLiteral:               "Literal",
	KindIdExpr:                "IdExpr",
	KindBinary:                "Binary",
	KindUnary:                 "Unary",
	KindPostfix:               "Postfix",
	KindCall:                  "Call",
	KindSubscript:             "Subscript",
	KindMember:                "Member",
	KindCast:                  "Cast",
	KindConditional:           "Conditional",
	KindSizeof:                "Sizeof",
	KindNew:                   "New",
	KindDelete:                "Delete",
	KindThis:                  "This",
	KindParen:                 "Paren",
	KindInitList:              "InitList",
	KindExprList:              "ExprList",
	KindThrow:                 "Throw",
	KindTypeConstruct:         "TypeConstruct",
	KindTypeidExpr:            "Typeid",
	KindProblemExpr:           "ProblemExpr",
	KindIdent:                 "Ident",
	KindQualified:             "QualifiedName",
	KindTemplateID:            "TemplateId",
	KindOperatorName:          "OperatorName",
	KindConversionName:        "ConversionName",
	KindDestructorName:        "DestructorName",
	KindImplicitName:          "ImplicitName",
}

func (k NodeKind) String() string {
	if int(k) < len(kindNames) && kindNames[k] != "" {
		return kindNames[k]
	}
	return fmt.Sprintf("NodeKind(%d)", k)
}

func (k NodeKind) IsDecl() bool { return k >= KindSimpleDecl && k <= KindProblemDecl }
func (k NodeKind) IsStmt() bool { return k >= KindCompound && k <= KindProblemStmt }
func (k NodeKind) IsExpr() bool { return k >= KindLiteral && k <= KindProblemExpr }
func (k NodeKind) IsName() bool { return k >= KindIdent && k <= KindImplicitName }

func (k NodeKind) IsProblem() bool {
	return k == KindProblemDecl || k == KindProblemStmt || k == KindProblemExpr
}

// payload categories
type payloadClass uint8

const (
	payloadNone payloadClass = iota
	payloadName
	payloadDecl
	payloadSpec
	payloadClassLike
	payloadDeclarator
	payloadStmt
	payloadExpr
)

func (k NodeKind) payload() payloadClass {
	switch {
	case k.IsName():
		return payloadName
	case k.IsStmt():
		return payloadStmt
	case k.IsExpr():
		return payloadExpr
	}
	switch k {
	case KindDeclSpec:
		return payloadSpec
	case KindClassSpec, KindEnumSpec, KindElaboratedSpec, KindBaseSpec, KindEnumerator:
		return payloadClassLike
	case KindDeclarator:
		return payloadDeclarator
	case KindTU:
		return payloadDecl
	}
	if k.IsDecl() || (k >= KindParamDecl && k <= KindCtorInit) {
		return payloadDecl
	}
	return payloadNone
}
