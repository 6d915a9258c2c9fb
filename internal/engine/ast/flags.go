package ast

// Flags carries node specific bits. Their meaning depends on the node kind,
// so values overlap between groups.
type Flags uint32

// AST_NAME
const (
	NameFQ Flags = iota
	NameNotFQ
	NameRelative
)

// AST_PARAM
const (
	ParamRef      Flags = 1 << 0
	ParamVariadic Flags = 1 << 1
)

// AST_TYPE
const (
	TypeNull Flags = iota + 1
	TypeBool
	TypeLong
	TypeDouble
	TypeString
	TypeArray
	TypeObject
	TypeCallable
	TypeVoid
)

// AST_CLASS
const (
	ClassAbstract  Flags = 1 << 4
	ClassFinal     Flags = 1 << 5
	ClassTrait     Flags = 1 << 6
	ClassInterface Flags = 1 << 7
	ClassAnonymous Flags = 1 << 8
)

// AST_METHOD, AST_PROP_DECL, AST_CLASS_CONST_DECL
const (
	ModifierPublic    Flags = 1 << 0
	ModifierProtected Flags = 1 << 1
	ModifierPrivate   Flags = 1 << 2
	ModifierStatic    Flags = 1 << 3
	ModifierAbstract  Flags = 1 << 4
	ModifierFinal     Flags = 1 << 5
)

// AST_UNARY_OP
const (
	UnaryBoolNot Flags = iota + 1
	UnaryBitwiseNot
	UnaryMinus
	UnaryPlus
	UnarySilence
)

// AST_MAGIC_CONST
const (
	MagicLine Flags = iota + 1
	MagicFile
	MagicDir
	MagicNamespace
	MagicFunction
	MagicMethod
	MagicClass
	MagicTrait
)

// AST_USE, AST_USE_ELEM
const (
	UseNormal Flags = iota + 1
	UseFunction
	UseConst
)

// Has reports whether every bit in mask is set. Only meaningful for the
// bitmask groups (parameter, class and modifier flags).
func (f Flags) Has(mask Flags) bool {
	return f&mask == mask
}
