package element

import (
	"strings"

	"nominal/internal/core/diag"
	"nominal/internal/engine/ast"
	"nominal/internal/engine/language"
)

// DefaultKind tells how much is known about a parameter default.
type DefaultKind uint8

const (
	// DefaultNone means the parameter has no default and is required.
	DefaultNone DefaultKind = iota
	// DefaultRecorded means the default literal and its type are known.
	DefaultRecorded
	// DefaultDeferred means a default exists but cannot be evaluated in this
	// pass (class constants and other non-literal expressions). The
	// parameter is optional and its default type is the null placeholder.
	DefaultDeferred
)

// DefaultValue is the default of one formal parameter.
type DefaultValue struct {
	kind  DefaultKind
	value any
	typ   language.UnionType
}

func RecordedDefault(value any, t language.UnionType) DefaultValue {
	return DefaultValue{kind: DefaultRecorded, value: value, typ: t}
}

// DeferredDefault is the placeholder for a default that a later pass
// resolves. Its type is null, which means "optional, type unknown yet" and
// not "defaults to null".
func DeferredDefault() DefaultValue {
	return DefaultValue{kind: DefaultDeferred, typ: language.NullUnionType()}
}

func (d DefaultValue) Kind() DefaultKind { return d.kind }

// Value returns the recorded literal; ok is false for missing and deferred
// defaults.
func (d DefaultValue) Value() (any, bool) {
	return d.value, d.kind == DefaultRecorded
}

func (d DefaultValue) Type() language.UnionType { return d.typ }

// Parameter is one formal parameter of a function or method.
type Parameter struct {
	name         string
	unionType    language.UnionType
	flags        ast.Flags
	defaultValue DefaultValue
	file         string
	line         int
}

func NewParameter(ctx language.Context, name string, t language.UnionType, flags ast.Flags) *Parameter {
	return &Parameter{
		name:      name,
		unionType: t,
		flags:     flags,
		file:      ctx.File(),
		line:      ctx.Line(),
	}
}

// FromNode builds a parameter from an AST_PARAM node.
func FromNode(ctx language.Context, constants language.ConstantTypes, node *ast.Node) *Parameter {
	declared, _ := node.Children.Get("type")
	p := NewParameter(
		ctx.WithLine(node.Lineno),
		node.Children.String("name"),
		language.UnionTypeFromSimpleNode(ctx, declared),
		node.Flags,
	)

	if !node.Children.Has("default") {
		return p
	}
	def, _ := node.Children.Get("default")
	if isEvaluableDefault(def) {
		p.SetDefaultValue(def, language.UnionTypeFromNode(ctx, constants, def))
	} else {
		// class constants and friends need a later pass
		p.SetDefault(DeferredDefault())
	}
	return p
}

func isEvaluableDefault(def any) bool {
	n, isNode := def.(*ast.Node)
	if !isNode {
		return true
	}
	switch n.Kind {
	case ast.KindConst, ast.KindUnaryOp, ast.KindArray:
		return true
	}
	return false
}

// ListFromNode builds the parameters of an AST_PARAM_LIST in declaration
// order. A required parameter after an optional one is reported as EPARAM
// at the list's line; the full list is still returned. A nil emitter
// discards diagnostics.
func ListFromNode(ctx language.Context, constants language.ConstantTypes, node *ast.Node, emitter diag.Emitter) []*Parameter {
	if node == nil {
		return nil
	}
	if emitter == nil {
		emitter = diag.Discard
	}
	params := make([]*Parameter, 0, node.Children.Len())
	optionalSeen := false
	for _, child := range node.Children.Nodes() {
		p := FromNode(ctx, constants, child)
		if !p.IsOptional() && optionalSeen {
			emitter.Emit(diag.CategoryParam, "required arg follows optional", ctx.File(), node.Lineno)
		} else if p.IsOptional() {
			optionalSeen = true
		}
		params = append(params, p)
	}
	return params
}

func (p *Parameter) Name() string { return p.name }

func (p *Parameter) UnionType() language.UnionType { return p.unionType }

// SetUnionType replaces the declared type, e.g. after a later pass
// re-infers it.
func (p *Parameter) SetUnionType(t language.UnionType) { p.unionType = t }

func (p *Parameter) Flags() ast.Flags { return p.flags }

func (p *Parameter) File() string { return p.file }

func (p *Parameter) Line() int { return p.line }

func (p *Parameter) Default() DefaultValue { return p.defaultValue }

func (p *Parameter) SetDefaultValue(value any, t language.UnionType) {
	p.defaultValue = RecordedDefault(value, t)
}

// SetDefault replaces the default wholesale, as when restoring a stored
// declaration.
func (p *Parameter) SetDefault(d DefaultValue) {
	p.defaultValue = d
}

// HasDefaultValue is true when a default type was recorded, including the
// deferred placeholder.
func (p *Parameter) HasDefaultValue() bool {
	return p.defaultValue.kind != DefaultNone
}

// DefaultValue returns the recorded default literal, if any.
func (p *Parameter) DefaultValue() (any, bool) {
	return p.defaultValue.Value()
}

func (p *Parameter) DefaultValueType() language.UnionType {
	return p.defaultValue.typ
}

func (p *Parameter) IsOptional() bool { return p.HasDefaultValue() }

func (p *Parameter) IsRequired() bool { return !p.IsOptional() }

// IsVariadic reports whether the parameter collects the remaining arguments.
func (p *Parameter) IsVariadic() bool { return p.flags.Has(ast.ParamVariadic) }

func (p *Parameter) IsPassByReference() bool { return p.flags.Has(ast.ParamRef) }

func (p *Parameter) String() string {
	var b strings.Builder
	if !p.unionType.IsEmpty() {
		b.WriteString(p.unionType.String())
		b.WriteString(" ")
	}
	if p.IsPassByReference() {
		b.WriteString("&")
	}
	b.WriteString("$")
	b.WriteString(p.name)
	if p.IsVariadic() {
		b.WriteString(" ...")
	}
	if p.IsOptional() {
		b.WriteString(" = null")
	}
	return b.String()
}
