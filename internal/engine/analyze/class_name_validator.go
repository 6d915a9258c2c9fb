package analyze

import (
	"fmt"
	"log/slog"

	"nominal/internal/core/diag"
	"nominal/internal/engine/ast"
	"nominal/internal/engine/codebase"
	"nominal/internal/engine/language"
	"nominal/internal/engine/visitor"
	"nominal/internal/shared/observability"
)

// ClassLookup is the read side of the code base used for validation.
type ClassLookup interface {
	HasClassWithFQSEN(fqsen language.FQSEN) bool
	ClassByFQSEN(fqsen language.FQSEN) (*codebase.Class, error)
}

// ClassNameValidator checks one class name against the code base for the
// construct that uses it: instantiation, instanceof, class constant access,
// static and instance calls, and property access.
type ClassNameValidator struct {
	ctx        language.Context
	code       ClassLookup
	emitter    diag.Emitter
	className  string
	classFQSEN language.FQSEN
	kinds      *visitor.KindVisitor[bool]
}

// NewClassNameValidator resolves className in ctx once; the result is
// reused for every node validated.
func NewClassNameValidator(ctx language.Context, code ClassLookup, className string, emitter diag.Emitter) *ClassNameValidator {
	if emitter == nil {
		emitter = diag.Discard
	}
	v := &ClassNameValidator{
		ctx:        ctx,
		code:       code,
		emitter:    emitter,
		className:  className,
		classFQSEN: language.FromStringInContext(className, ctx),
	}
	v.kinds = visitor.New(v.visitDefault).
		On(v.visitNew, ast.KindNew).
		On(v.classExistsOrIsNative,
			ast.KindInstanceOf,
			ast.KindClassConst,
			ast.KindStaticCall,
			ast.KindMethodCall,
			ast.KindProp,
		)
	return v
}

// ClassFQSEN is the resolved name being validated.
func (v *ClassNameValidator) ClassFQSEN() language.FQSEN {
	return v.classFQSEN
}

// Validate reports whether the class name is used legally by n. A false
// result means a diagnostic has already been emitted. A nil node uses
// nothing and passes.
func (v *ClassNameValidator) Validate(n *ast.Node) bool {
	if n == nil {
		return true
	}
	ok := v.kinds.Visit(n)
	outcome := "pass"
	if !ok {
		outcome = "fail"
	}
	observability.ClassNameChecksTotal.WithLabelValues(n.Kind.String(), outcome).Inc()
	return ok
}

// visitDefault treats any node with a class slot as an instantiation.
func (v *ClassNameValidator) visitDefault(n *ast.Node) bool {
	if n.Children.Has("class") {
		return v.visitNew(n)
	}
	v.emitter.Emit(diag.CategoryUndef, "Unknown node type", v.ctx.File(), n.Lineno)
	return false
}

func (v *ClassNameValidator) visitNew(n *ast.Node) bool {
	if !v.classExists() {
		return v.classExistsOrIsNative(n)
	}

	class, err := v.code.ClassByFQSEN(v.classFQSEN)
	if err != nil {
		slog.Error("class vanished after existence check", "fqsen", v.classFQSEN.String(), "error", err)
		return false
	}

	if class.IsAbstract() {
		if !v.ctx.HasClassFQSEN() || class.FQSEN.Canonical() != v.ctx.ClassFQSEN().Canonical() {
			v.emitter.Emit(
				diag.CategoryType,
				fmt.Sprintf("Cannot instantiate abstract class %s", v.className),
				v.ctx.File(),
				n.Lineno,
			)
			return false
		}
		return true
	}

	if class.IsInterface() {
		if !language.UnionTypeFromStringInContext(v.className, v.ctx).IsNativeType() {
			v.emitter.Emit(
				diag.CategoryType,
				fmt.Sprintf("Cannot instantiate interface %s", v.className),
				v.ctx.File(),
				n.Lineno,
			)
			return false
		}
	}

	return true
}

func (v *ClassNameValidator) classExists() bool {
	return v.code.HasClassWithFQSEN(v.classFQSEN)
}

// classExistsOrIsNative passes declared classes and names that only denote
// native types.
func (v *ClassNameValidator) classExistsOrIsNative(n *ast.Node) bool {
	if v.classExists() {
		return true
	}

	if language.UnionTypeFromStringInContext(v.className, v.ctx).IsNativeType() {
		return true
	}

	v.emitter.Emit(
		diag.CategoryUndef,
		fmt.Sprintf("call to undeclared class %s", v.classFQSEN),
		v.ctx.File(),
		n.Lineno,
	)
	return false
}
