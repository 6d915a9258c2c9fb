package ast

import "strings"

// Kind is the tag of a syntax node.
type Kind int

const (
	KindUnknown Kind = iota

	// list nodes
	KindArgList
	KindList
	KindArray
	KindEncapsList
	KindExprList
	KindStmtList
	KindIf
	KindSwitchList
	KindCatchList
	KindParamList
	KindClosureUses
	KindPropDecl
	KindConstDecl
	KindClassConstDecl
	KindNameList
	KindTraitAdaptations
	KindUse

	// declarations
	KindFuncDecl
	KindClosure
	KindMethod
	KindClass

	// zero/one child nodes
	KindMagicConst
	KindType
	KindNullableType
	KindName
	KindClosureVar
	KindVar
	KindConst
	KindUnpack
	KindUnaryPlus
	KindUnaryMinus
	KindCast
	KindEmpty
	KindIsset
	KindSilence
	KindShellExec
	KindClone
	KindExit
	KindPrint
	KindIncludeOrEval
	KindUnaryOp
	KindPreInc
	KindPreDec
	KindPostInc
	KindPostDec
	KindYieldFrom
	KindGlobal
	KindUnset
	KindReturn
	KindLabel
	KindRef
	KindHaltCompiler
	KindEcho
	KindThrow
	KindGoto
	KindBreak
	KindContinue

	// two child nodes
	KindDim
	KindProp
	KindStaticProp
	KindCall
	KindClassConst
	KindAssign
	KindAssignRef
	KindAssignOp
	KindBinaryOp
	KindGreater
	KindGreaterEqual
	KindAnd
	KindOr
	KindArrayElem
	KindNew
	KindInstanceOf
	KindYield
	KindCoalesce
	KindStatic
	KindWhile
	KindDoWhile
	KindIfElem
	KindSwitch
	KindSwitchCase
	KindDeclare
	KindPropElem
	KindConstElem
	KindUseTrait
	KindTraitPrecedence
	KindMethodReference
	KindNamespace
	KindUseElem
	KindTraitAlias
	KindGroupUse

	// three and four child nodes
	KindMethodCall
	KindStaticCall
	KindConditional
	KindTry
	KindCatch
	KindParam
	KindFor
	KindForeach

	kindCount
)

var kindNames = [...]string{
	KindUnknown:          "AST_UNKNOWN",
	KindArgList:          "AST_ARG_LIST",
	KindList:             "AST_LIST",
	KindArray:            "AST_ARRAY",
	KindEncapsList:       "AST_ENCAPS_LIST",
	KindExprList:         "AST_EXPR_LIST",
	KindStmtList:         "AST_STMT_LIST",
	KindIf:               "AST_IF",
	KindSwitchList:       "AST_SWITCH_LIST",
	KindCatchList:        "AST_CATCH_LIST",
	KindParamList:        "AST_PARAM_LIST",
	KindClosureUses:      "AST_CLOSURE_USES",
	KindPropDecl:         "AST_PROP_DECL",
	KindConstDecl:        "AST_CONST_DECL",
	KindClassConstDecl:   "AST_CLASS_CONST_DECL",
	KindNameList:         "AST_NAME_LIST",
	KindTraitAdaptations: "AST_TRAIT_ADAPTATIONS",
	KindUse:              "AST_USE",
	KindFuncDecl:         "AST_FUNC_DECL",
	KindClosure:          "AST_CLOSURE",
	KindMethod:           "AST_METHOD",
	KindClass:            "AST_CLASS",
	KindMagicConst:       "AST_MAGIC_CONST",
	KindType:             "AST_TYPE",
	KindNullableType:     "AST_NULLABLE_TYPE",
	KindName:             "AST_NAME",
	KindClosureVar:       "AST_CLOSURE_VAR",
	KindVar:              "AST_VAR",
	KindConst:            "AST_CONST",
	KindUnpack:           "AST_UNPACK",
	KindUnaryPlus:        "AST_UNARY_PLUS",
	KindUnaryMinus:       "AST_UNARY_MINUS",
	KindCast:             "AST_CAST",
	KindEmpty:            "AST_EMPTY",
	KindIsset:            "AST_ISSET",
	KindSilence:          "AST_SILENCE",
	KindShellExec:        "AST_SHELL_EXEC",
	KindClone:            "AST_CLONE",
	KindExit:             "AST_EXIT",
	KindPrint:            "AST_PRINT",
	KindIncludeOrEval:    "AST_INCLUDE_OR_EVAL",
	KindUnaryOp:          "AST_UNARY_OP",
	KindPreInc:           "AST_PRE_INC",
	KindPreDec:           "AST_PRE_DEC",
	KindPostInc:          "AST_POST_INC",
	KindPostDec:          "AST_POST_DEC",
	KindYieldFrom:        "AST_YIELD_FROM",
	KindGlobal:           "AST_GLOBAL",
	KindUnset:            "AST_UNSET",
	KindReturn:           "AST_RETURN",
	KindLabel:            "AST_LABEL",
	KindRef:              "AST_REF",
	KindHaltCompiler:     "AST_HALT_COMPILER",
	KindEcho:             "AST_ECHO",
	KindThrow:            "AST_THROW",
	KindGoto:             "AST_GOTO",
	KindBreak:            "AST_BREAK",
	KindContinue:         "AST_CONTINUE",
	KindDim:              "AST_DIM",
	KindProp:             "AST_PROP",
	KindStaticProp:       "AST_STATIC_PROP",
	KindCall:             "AST_CALL",
	KindClassConst:       "AST_CLASS_CONST",
	KindAssign:           "AST_ASSIGN",
	KindAssignRef:        "AST_ASSIGN_REF",
	KindAssignOp:         "AST_ASSIGN_OP",
	KindBinaryOp:         "AST_BINARY_OP",
	KindGreater:          "AST_GREATER",
	KindGreaterEqual:     "AST_GREATER_EQUAL",
	KindAnd:              "AST_AND",
	KindOr:               "AST_OR",
	KindArrayElem:        "AST_ARRAY_ELEM",
	KindNew:              "AST_NEW",
	KindInstanceOf:       "AST_INSTANCEOF",
	KindYield:            "AST_YIELD",
	KindCoalesce:         "AST_COALESCE",
	KindStatic:           "AST_STATIC",
	KindWhile:            "AST_WHILE",
	KindDoWhile:          "AST_DO_WHILE",
	KindIfElem:           "AST_IF_ELEM",
	KindSwitch:           "AST_SWITCH",
	KindSwitchCase:       "AST_SWITCH_CASE",
	KindDeclare:          "AST_DECLARE",
	KindPropElem:         "AST_PROP_ELEM",
	KindConstElem:        "AST_CONST_ELEM",
	KindUseTrait:         "AST_USE_TRAIT",
	KindTraitPrecedence:  "AST_TRAIT_PRECEDENCE",
	KindMethodReference:  "AST_METHOD_REFERENCE",
	KindNamespace:        "AST_NAMESPACE",
	KindUseElem:          "AST_USE_ELEM",
	KindTraitAlias:       "AST_TRAIT_ALIAS",
	KindGroupUse:         "AST_GROUP_USE",
	KindMethodCall:       "AST_METHOD_CALL",
	KindStaticCall:       "AST_STATIC_CALL",
	KindConditional:      "AST_CONDITIONAL",
	KindTry:              "AST_TRY",
	KindCatch:            "AST_CATCH",
	KindParam:            "AST_PARAM",
	KindFor:              "AST_FOR",
	KindForeach:          "AST_FOREACH",
}

var kindsByName = func() map[string]Kind {
	m := make(map[string]Kind, len(kindNames))
	for k, name := range kindNames {
		m[name] = Kind(k)
	}
	return m
}()

func (k Kind) String() string {
	if k.Valid() {
		return kindNames[k]
	}
	return kindNames[KindUnknown]
}

// Valid reports whether k is one of the enumerated node kinds.
func (k Kind) Valid() bool {
	return k > KindUnknown && k < kindCount
}

// ParseKind maps an AST_* tag to its Kind. The AST_ prefix is optional and
// matching is case-insensitive.
func ParseKind(name string) (Kind, bool) {
	name = strings.ToUpper(strings.TrimSpace(name))
	if !strings.HasPrefix(name, "AST_") {
		name = "AST_" + name
	}
	k, ok := kindsByName[name]
	if !ok || k == KindUnknown {
		return KindUnknown, false
	}
	return k, true
}

// Kinds returns every valid kind in declaration order.
func Kinds() []Kind {
	out := make([]Kind, 0, int(kindCount)-1)
	for k := KindUnknown + 1; k < kindCount; k++ {
		out = append(out, k)
	}
	return out
}
