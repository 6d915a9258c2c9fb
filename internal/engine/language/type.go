package language

import (
	"strings"
)

// Native type names.
const (
	TypeArray    = "array"
	TypeBool     = "bool"
	TypeCallable = "callable"
	TypeFloat    = "float"
	TypeInt      = "int"
	TypeMixed    = "mixed"
	TypeNull     = "null"
	TypeObject   = "object"
	TypeResource = "resource"
	TypeString   = "string"
	TypeVoid     = "void"
)

var nativeTypeNames = map[string]string{
	TypeArray:    TypeArray,
	TypeBool:     TypeBool,
	TypeCallable: TypeCallable,
	TypeFloat:    TypeFloat,
	TypeInt:      TypeInt,
	TypeMixed:    TypeMixed,
	TypeNull:     TypeNull,
	TypeObject:   TypeObject,
	TypeResource: TypeResource,
	TypeString:   TypeString,
	TypeVoid:     TypeVoid,
}

// nativeTypeAliases are spellings seen in doc comments and manifests. They
// are legal class names, so they only apply to annotations.
var nativeTypeAliases = map[string]string{
	"boolean": TypeBool,
	"false":   TypeBool,
	"true":    TypeBool,
	"integer": TypeInt,
	"long":    TypeInt,
	"double":  TypeFloat,
}

// IsNativeTypeName reports whether name, ignoring case and array suffixes,
// denotes a built-in type. Aliases do not count.
func IsNativeTypeName(name string) bool {
	_, ok := canonicalNativeName(name)
	return ok
}

func canonicalNativeName(name string) (string, bool) {
	name, _ = stripArraySuffix(strings.TrimSpace(name))
	canonical, ok := nativeTypeNames[strings.ToLower(name)]
	return canonical, ok
}

// annotationNativeName is canonicalNativeName plus the alias spellings.
func annotationNativeName(name string) (string, bool) {
	if canonical, ok := canonicalNativeName(name); ok {
		return canonical, true
	}
	name, _ = stripArraySuffix(strings.TrimSpace(name))
	canonical, ok := nativeTypeAliases[strings.ToLower(name)]
	return canonical, ok
}

// Type is a single member of a UnionType: either a native type or a class
// type, optionally wrapped in one or more array levels (Foo[], Foo[][]).
type Type struct {
	native string
	class  FQSEN
	depth  int
}

// NativeType returns the native type with the given name or alias.
func NativeType(name string) Type {
	canonical, ok := annotationNativeName(name)
	if !ok {
		canonical = strings.ToLower(name)
	}
	return Type{native: canonical}
}

// ClassType returns the nominal type for class fqsen.
func ClassType(fqsen FQSEN) Type {
	return Type{class: fqsen}
}

// TypeFromStringInContext parses one type segment such as `int`, `Foo[]`
// or `\Ns\Bar[][]`. Only canonical native names are native; anything else
// is a class. It returns false for an empty segment.
func TypeFromStringInContext(segment string, ctx Context) (Type, bool) {
	return typeFromString(segment, ctx, canonicalNativeName)
}

func typeFromString(segment string, ctx Context, native func(string) (string, bool)) (Type, bool) {
	segment = strings.TrimSpace(segment)
	name, depth := stripArraySuffix(segment)
	if name == "" {
		return Type{}, false
	}
	var t Type
	if canonical, ok := native(name); ok && !strings.Contains(name, NamespaceSeparator) {
		t = Type{native: canonical}
	} else {
		t = ClassType(FromStringInContext(ctx.ResolveClassName(name), ctx))
	}
	t.depth = depth
	return t, true
}

func (t Type) IsNative() bool { return t.native != "" }

// FQSEN returns the class of a nominal type.
func (t Type) FQSEN() (FQSEN, bool) {
	if t.IsNative() {
		return FQSEN{}, false
	}
	return t.class, true
}

func (t Type) ArrayDepth() int { return t.depth }

// AsArray wraps the type in one more array level.
func (t Type) AsArray() Type {
	t.depth++
	return t
}

// ElementType strips one array level.
func (t Type) ElementType() Type {
	if t.depth > 0 {
		t.depth--
	}
	return t
}

func (t Type) AsUnionType() UnionType {
	return NewUnionType(t)
}

func (t Type) String() string {
	var b strings.Builder
	if t.IsNative() {
		b.WriteString(t.native)
	} else {
		b.WriteString(t.class.String())
	}
	for i := 0; i < t.depth; i++ {
		b.WriteString("[]")
	}
	return b.String()
}

func stripArraySuffix(s string) (string, int) {
	depth := 0
	for strings.HasSuffix(s, "[]") {
		s = strings.TrimSpace(strings.TrimSuffix(s, "[]"))
		depth++
	}
	return s, depth
}
