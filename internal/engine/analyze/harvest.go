package analyze

import (
	"fmt"
	"strings"

	"nominal/internal/core/diag"
	"nominal/internal/core/errors"
	"nominal/internal/engine/ast"
	"nominal/internal/engine/codebase"
	"nominal/internal/engine/element"
	"nominal/internal/engine/language"
)

// HarvestStats counts the declarations recorded from one tree.
type HarvestStats struct {
	Classes   int
	Functions int
	Constants int
}

// Harvester records the classes, functions and global constants declared
// in syntax trees. It runs before the code base is frozen, so that
// analysis sees declarations from every input file.
type Harvester struct {
	code    *codebase.CodeBase
	emitter diag.Emitter
}

func NewHarvester(code *codebase.CodeBase, emitter diag.Emitter) *Harvester {
	if emitter == nil {
		emitter = diag.Discard
	}
	return &Harvester{code: code, emitter: emitter}
}

// HarvestFile adds the declarations found in root. A declaration that
// repeats an existing one is reported as EREDEF and skipped. The error
// result is reserved for a code base that no longer accepts additions.
func (h *Harvester) HarvestFile(file string, root *ast.Node) (HarvestStats, error) {
	if h.code.IsFrozen() {
		return HarvestStats{}, errors.New(errors.CodeFrozen, "code base is frozen").
			WithContext(errors.CtxOperation, "harvest").
			WithContext(errors.CtxFile, file)
	}
	hw := &harvestWalk{h: h}
	if root != nil {
		hw.node(language.NewContext(file), root)
	}
	return hw.stats, hw.err
}

type harvestWalk struct {
	h     *Harvester
	stats HarvestStats
	err   error
}

func (hw *harvestWalk) node(c language.Context, n *ast.Node) language.Context {
	if hw.err != nil {
		return c
	}
	inner := c.WithLine(n.Lineno)
	switch n.Kind {
	case ast.KindNamespace:
		ns := inner.WithNamespace(n.Children.String("name"))
		if n.Children.Has("stmts") {
			hw.children(ns, n)
			return c
		}
		return ns
	case ast.KindUse, ast.KindGroupUse:
		return importContext(c, n)
	case ast.KindClass:
		hw.class(inner, n)
	case ast.KindFuncDecl:
		hw.function(inner, n)
		hw.children(inner, n)
	case ast.KindConstDecl:
		hw.constants(inner, n)
	case ast.KindCall:
		hw.define(inner, n)
		hw.children(inner, n)
	default:
		hw.children(inner, n)
	}
	return c
}

func (hw *harvestWalk) children(c language.Context, n *ast.Node) {
	n.Children.Each(func(_ string, v any) {
		if child, ok := v.(*ast.Node); ok && child != nil {
			c = hw.node(c, child)
		}
	})
}

func (hw *harvestWalk) class(c language.Context, n *ast.Node) {
	name := n.Children.String("name")
	if name == "" || n.Flags.Has(ast.ClassAnonymous) {
		hw.children(c, n)
		return
	}

	class := codebase.NewClass(declaredFQSEN(c, name), codebase.ClassFlagsFromAST(n.Flags))
	class.File, class.Line = c.File(), n.Lineno

	if extends, ok := n.Children.Get("extends"); ok {
		if parent, ok := nameFQSEN(c, extends); ok {
			class.Parent = &parent
		}
	}
	if impl := n.Children.Node("implements"); impl != nil {
		class.Interfaces = append(class.Interfaces, nameList(c, impl)...)
	}
	// interfaces extend other interfaces, not a parent class
	if class.IsInterface() && class.Parent != nil {
		class.Interfaces = append([]language.FQSEN{*class.Parent}, class.Interfaces...)
		class.Parent = nil
	}

	body := c.WithClass(class.FQSEN)
	if stmts := n.Children.Node("stmts"); stmts != nil {
		for _, member := range stmts.Children.Nodes() {
			hw.member(body.WithLine(member.Lineno), class, member)
		}
	}

	hw.add("class", class.FQSEN, c, n, hw.h.code.AddClass(class), &hw.stats.Classes)
	hw.children(body, n)
}

func (hw *harvestWalk) member(c language.Context, class *codebase.Class, n *ast.Node) {
	switch n.Kind {
	case ast.KindMethod:
		scope := c.WithScope(language.ScopeMethod)
		returnType, _ := n.Children.Get("returnType")
		class.AddMethod(&codebase.Method{
			Name:       n.Children.String("name"),
			Flags:      n.Flags,
			Parameters: element.ListFromNode(scope, hw.h.code, n.Children.Node("params"), diag.Discard),
			ReturnType: language.UnionTypeFromSimpleNode(scope, returnType),
			Line:       n.Lineno,
		})
	case ast.KindPropDecl:
		for _, elem := range n.Children.Nodes() {
			def, _ := elem.Children.Get("default")
			class.AddProperty(&codebase.Property{
				Name:     elem.Children.String("name"),
				Type:     language.UnionTypeFromNode(c, hw.h.code, def),
				IsStatic: n.Flags.Has(ast.ModifierStatic),
			})
		}
	case ast.KindClassConstDecl:
		for _, elem := range n.Children.Nodes() {
			value, _ := elem.Children.Get("value")
			class.AddConstant(&codebase.ClassConstant{
				Name: elem.Children.String("name"),
				Type: language.UnionTypeFromNode(c, hw.h.code, value),
			})
		}
	case ast.KindUseTrait:
		if traits := n.Children.Node("traits"); traits != nil {
			class.Traits = append(class.Traits, nameList(c, traits)...)
		}
	}
}

func (hw *harvestWalk) function(c language.Context, n *ast.Node) {
	name := n.Children.String("name")
	if name == "" {
		return
	}
	scope := c.WithScope(language.ScopeFunction)
	returnType, _ := n.Children.Get("returnType")
	fn := &codebase.Function{
		FQSEN:      declaredFQSEN(c, name),
		Parameters: element.ListFromNode(scope, hw.h.code, n.Children.Node("params"), diag.Discard),
		ReturnType: language.UnionTypeFromSimpleNode(scope, returnType),
		File:       c.File(),
		Line:       n.Lineno,
	}
	hw.add("function", fn.FQSEN, c, n, hw.h.code.AddFunction(fn), &hw.stats.Functions)
}

func (hw *harvestWalk) constants(c language.Context, n *ast.Node) {
	for _, elem := range n.Children.Nodes() {
		value, _ := elem.Children.Get("value")
		k := &codebase.Constant{
			FQSEN: declaredFQSEN(c, elem.Children.String("name")),
			Type:  language.UnionTypeFromNode(c, hw.h.code, value),
			File:  c.File(),
			Line:  elem.Lineno,
		}
		if _, isNode := value.(*ast.Node); !isNode {
			k.Value = value
		}
		hw.add("constant", k.FQSEN, c, elem, hw.h.code.AddConstant(k), &hw.stats.Constants)
	}
}

// define records define('NAME', value). The name is always global; a
// name that is not a literal string is skipped.
func (hw *harvestWalk) define(c language.Context, n *ast.Node) {
	expr := n.Children.Node("expr")
	if expr == nil || expr.Kind != ast.KindName ||
		!strings.EqualFold(strings.TrimPrefix(expr.Children.String("name"), language.NamespaceSeparator), "define") {
		return
	}
	var args []any
	if list := n.Children.Node("args"); list != nil {
		list.Children.Each(func(_ string, v any) { args = append(args, v) })
	}
	if len(args) == 0 {
		return
	}
	name, ok := args[0].(string)
	if !ok || name == "" {
		return
	}
	fqsen, err := language.ParseFQSEN(language.NamespaceSeparator + strings.TrimPrefix(name, language.NamespaceSeparator))
	if err != nil {
		return
	}
	var value any
	if len(args) > 1 {
		value = args[1]
	}
	k := &codebase.Constant{
		FQSEN: fqsen,
		Type:  language.UnionTypeFromNode(c, hw.h.code, value),
		File:  c.File(),
		Line:  n.Lineno,
	}
	if _, isNode := value.(*ast.Node); !isNode {
		k.Value = value
	}
	hw.add("constant", k.FQSEN, c, n, hw.h.code.AddConstant(k), &hw.stats.Constants)
}

func (hw *harvestWalk) add(kind string, fqsen language.FQSEN, c language.Context, n *ast.Node, err error, counter *int) {
	switch {
	case err == nil:
		*counter++
	case errors.IsCode(err, errors.CodeConflict):
		msg := fmt.Sprintf("%s %s is already declared", kind, fqsen)
		if file, line, ok := hw.declaredAt(kind, fqsen); ok {
			msg += fmt.Sprintf(" at %s:%d", file, line)
		}
		hw.h.emitter.Emit(diag.CategoryRedef, msg, c.File(), n.Lineno)
	default:
		hw.err = errors.AddContext(err, errors.CtxFile, c.File())
	}
}

// declaredAt locates the declaration that kept fqsen.
func (hw *harvestWalk) declaredAt(kind string, fqsen language.FQSEN) (string, int, bool) {
	var file string
	var line int
	switch kind {
	case "class":
		c, err := hw.h.code.ClassByFQSEN(fqsen)
		if err != nil {
			return "", 0, false
		}
		file, line = c.File, c.Line
	case "function":
		f, err := hw.h.code.FunctionByFQSEN(fqsen)
		if err != nil {
			return "", 0, false
		}
		file, line = f.File, f.Line
	case "constant":
		k, err := hw.h.code.ConstantByFQSEN(fqsen)
		if err != nil {
			return "", 0, false
		}
		file, line = k.File, k.Line
	}
	return file, line, file != ""
}

func nameList(c language.Context, list *ast.Node) []language.FQSEN {
	var out []language.FQSEN
	for _, n := range list.Children.Nodes() {
		if fqsen, ok := nameFQSEN(c, n); ok {
			out = append(out, fqsen)
		}
	}
	return out
}
