package language

import (
	"slices"
	"strings"

	"nominal/internal/engine/ast"
)

// UnionType is an immutable set of types. The empty union means "no declared
// or inferred type", which is distinct from a union holding only null.
type UnionType struct {
	types []Type // sorted by String, no duplicates
}

// ConstantTypes resolves the type of a declared global constant. The code
// base implements it.
type ConstantTypes interface {
	ConstantType(fqsen FQSEN) (UnionType, bool)
}

// NewUnionType builds a union from types, collapsing duplicates.
func NewUnionType(types ...Type) UnionType {
	if len(types) == 0 {
		return UnionType{}
	}
	seen := make(map[Type]struct{}, len(types))
	out := make([]Type, 0, len(types))
	for _, t := range types {
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	slices.SortFunc(out, func(a, b Type) int {
		return strings.Compare(a.String(), b.String())
	})
	return UnionType{types: out}
}

// NullUnionType is the union holding only null.
func NullUnionType() UnionType {
	return NativeType(TypeNull).AsUnionType()
}

// UnionTypeFromStringInContext parses a `|` delimited type such as
// `int|Foo[]|?Bar`. Class names resolve against ctx.
func UnionTypeFromStringInContext(text string, ctx Context) UnionType {
	return unionTypeFromString(text, ctx, canonicalNativeName)
}

// UnionTypeFromAnnotation is UnionTypeFromStringInContext for doc comment
// style annotations, where `integer`, `boolean`, `double` and the other
// aliases name native types.
func UnionTypeFromAnnotation(text string, ctx Context) UnionType {
	return unionTypeFromString(text, ctx, annotationNativeName)
}

func unionTypeFromString(text string, ctx Context, native func(string) (string, bool)) UnionType {
	text = strings.TrimSpace(text)
	if text == "" {
		return UnionType{}
	}
	var types []Type
	for _, segment := range strings.Split(text, "|") {
		segment = strings.TrimSpace(segment)
		if rest, nullable := strings.CutPrefix(segment, "?"); nullable {
			segment = rest
			types = append(types, NativeType(TypeNull))
		}
		if t, ok := typeFromString(segment, ctx, native); ok {
			types = append(types, t)
		}
	}
	return NewUnionType(types...)
}

// UnionTypeFromSimpleNode reads a declared parameter or return type. A nil
// node yields the empty union.
func UnionTypeFromSimpleNode(ctx Context, node any) UnionType {
	switch n := node.(type) {
	case nil:
		return UnionType{}
	case string:
		return UnionTypeFromStringInContext(n, ctx)
	case *ast.Node:
		if n == nil {
			return UnionType{}
		}
		switch n.Kind {
		case ast.KindType:
			if name, ok := typeFlagNames[n.Flags]; ok {
				return NativeType(name).AsUnionType()
			}
			return UnionType{}
		case ast.KindNullableType:
			inner, _ := n.Children.Get("type")
			return UnionTypeFromSimpleNode(ctx, inner).Union(NullUnionType())
		case ast.KindName:
			return UnionTypeFromStringInContext(nameFromNode(n, ctx), ctx)
		}
	}
	return UnionType{}
}

// UnionTypeFromNode infers the type of an expression structurally. It
// recognises scalar leaves, array literals, unary operations and constant
// references; anything else yields the empty union, meaning "unknown here".
func UnionTypeFromNode(ctx Context, constants ConstantTypes, node any) UnionType {
	switch v := node.(type) {
	case int64, int:
		return NativeType(TypeInt).AsUnionType()
	case float64:
		return NativeType(TypeFloat).AsUnionType()
	case string:
		return NativeType(TypeString).AsUnionType()
	case bool:
		return NativeType(TypeBool).AsUnionType()
	case *ast.Node:
		if v == nil {
			return UnionType{}
		}
		return unionTypeFromExpr(ctx, constants, v)
	}
	return UnionType{}
}

func unionTypeFromExpr(ctx Context, constants ConstantTypes, n *ast.Node) UnionType {
	switch n.Kind {
	case ast.KindArray:
		return NativeType(TypeArray).AsUnionType()
	case ast.KindEncapsList:
		return NativeType(TypeString).AsUnionType()
	case ast.KindMagicConst:
		if n.Flags == ast.MagicLine {
			return NativeType(TypeInt).AsUnionType()
		}
		return NativeType(TypeString).AsUnionType()
	case ast.KindUnaryOp:
		if n.Flags == ast.UnaryBoolNot {
			return NativeType(TypeBool).AsUnionType()
		}
		expr, _ := n.Children.Get("expr")
		return UnionTypeFromNode(ctx, constants, expr)
	case ast.KindUnaryMinus, ast.KindUnaryPlus:
		expr, _ := n.Children.Get("expr")
		return UnionTypeFromNode(ctx, constants, expr)
	case ast.KindConst:
		return constantType(ctx, constants, n)
	}
	return UnionType{}
}

func constantType(ctx Context, constants ConstantTypes, n *ast.Node) UnionType {
	var name string
	if nameNode := n.Children.Node("name"); nameNode != nil {
		name = nameNode.Children.String("name")
	} else {
		name = n.Children.String("name")
	}
	switch strings.ToLower(name) {
	case "":
		return UnionType{}
	case "true", "false":
		return NativeType(TypeBool).AsUnionType()
	case "null":
		return NullUnionType()
	}
	if constants == nil {
		return UnionType{}
	}
	if t, ok := constants.ConstantType(FromStringInContext(name, ctx)); ok {
		return t
	}
	// unqualified constants fall back to the global namespace
	if !strings.Contains(name, NamespaceSeparator) {
		if t, ok := constants.ConstantType(NewFQSEN(GlobalNamespace, name)); ok {
			return t
		}
	}
	return UnionType{}
}

func nameFromNode(n *ast.Node, ctx Context) string {
	name := n.Children.String("name")
	switch n.Flags {
	case ast.NameFQ:
		return NamespaceSeparator + strings.TrimPrefix(name, NamespaceSeparator)
	case ast.NameRelative:
		return "namespace" + NamespaceSeparator + name
	}
	return ctx.ResolveClassName(name)
}

var typeFlagNames = map[ast.Flags]string{
	ast.TypeNull:     TypeNull,
	ast.TypeBool:     TypeBool,
	ast.TypeLong:     TypeInt,
	ast.TypeDouble:   TypeFloat,
	ast.TypeString:   TypeString,
	ast.TypeArray:    TypeArray,
	ast.TypeObject:   TypeObject,
	ast.TypeCallable: TypeCallable,
	ast.TypeVoid:     TypeVoid,
}

// Types returns a copy of the members in rendering order.
func (u UnionType) Types() []Type {
	return slices.Clone(u.types)
}

func (u UnionType) IsEmpty() bool { return len(u.types) == 0 }

func (u UnionType) Len() int { return len(u.types) }

func (u UnionType) Has(t Type) bool {
	return slices.Contains(u.types, t)
}

// IsNativeType reports whether no member is a class type. The empty union
// is trivially native.
func (u UnionType) IsNativeType() bool {
	for _, t := range u.types {
		if !t.IsNative() {
			return false
		}
	}
	return true
}

// ClassFQSENs returns the classes named by nominal members, array members
// included, in rendering order.
func (u UnionType) ClassFQSENs() []FQSEN {
	var out []FQSEN
	for _, t := range u.types {
		if f, ok := t.FQSEN(); ok && !slices.Contains(out, f) {
			out = append(out, f)
		}
	}
	return out
}

// Union returns the set union of u and other.
func (u UnionType) Union(other UnionType) UnionType {
	if other.IsEmpty() {
		return u
	}
	if u.IsEmpty() {
		return other
	}
	all := make([]Type, 0, len(u.types)+len(other.types))
	all = append(all, u.types...)
	all = append(all, other.types...)
	return NewUnionType(all...)
}

// WithType returns u with t added.
func (u UnionType) WithType(t Type) UnionType {
	return u.Union(NewUnionType(t))
}

func (u UnionType) Equal(other UnionType) bool {
	return slices.Equal(u.types, other.types)
}

func (u UnionType) String() string {
	parts := make([]string, len(u.types))
	for i, t := range u.types {
		parts[i] = t.String()
	}
	return strings.Join(parts, "|")
}
