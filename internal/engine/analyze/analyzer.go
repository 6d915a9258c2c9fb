// Package analyze validates class-name usage in syntax trees against a
// frozen code base.
package analyze

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"nominal/internal/core/diag"
	"nominal/internal/core/errors"
	"nominal/internal/engine/ast"
	"nominal/internal/engine/codebase"
	"nominal/internal/engine/element"
	"nominal/internal/engine/language"
	"nominal/internal/shared/observability"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// cancelCheckInterval is how many nodes are visited between checks of the
// caller's context.
const cancelCheckInterval = 1024

// Analyzer walks the syntax tree of one file at a time. It holds no
// per-file state and may be shared between goroutines once the code base
// is frozen.
type Analyzer struct {
	code    *codebase.CodeBase
	emitter diag.Emitter
}

// Result summarises one analysed file.
type Result struct {
	File       string
	Nodes      int
	Checks     int
	Failures   int
	Parameters int
	Duration   time.Duration
}

func NewAnalyzer(code *codebase.CodeBase, emitter diag.Emitter) *Analyzer {
	if emitter == nil {
		emitter = diag.Discard
	}
	return &Analyzer{code: code, emitter: emitter}
}

// AnalyzeFile walks root in pre-order, deriving the context for every node
// from its ancestors and preceding namespace and use statements. Findings in
// user code go to the emitter; the returned error is reserved for a missing
// tree or a cancelled context.
func (a *Analyzer) AnalyzeFile(ctx context.Context, file string, root *ast.Node) (Result, error) {
	ctx, span := observability.Tracer.Start(ctx, "analyze.AnalyzeFile",
		trace.WithAttributes(attribute.String("file", file)))
	defer span.End()

	res := Result{File: file}
	if root == nil {
		err := errors.New(errors.CodeInvalidInput, "empty syntax tree").WithContext(errors.CtxFile, file)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return res, err
	}

	start := time.Now()
	w := &fileWalk{ctx: ctx, analyzer: a, res: &res}
	w.node(language.NewContext(file), root)
	res.Duration = time.Since(start)

	observability.FilesAnalyzedTotal.Inc()
	observability.NodesVisitedTotal.Add(float64(res.Nodes))
	observability.AnalysisDuration.WithLabelValues("file").Observe(res.Duration.Seconds())
	span.SetAttributes(
		attribute.Int("nodes", res.Nodes),
		attribute.Int("checks", res.Checks),
		attribute.Int("failures", res.Failures),
	)

	if w.err != nil {
		span.RecordError(w.err)
		span.SetStatus(codes.Error, w.err.Error())
		return res, fmt.Errorf("analyze %s: %w", file, w.err)
	}

	slog.Debug("analyzed file",
		"file", file,
		"nodes", res.Nodes,
		"checks", res.Checks,
		"failures", res.Failures,
		"duration", res.Duration)
	return res, nil
}

type fileWalk struct {
	ctx      context.Context
	analyzer *Analyzer
	res      *Result
	err      error
}

// node visits n and returns the context that applies to the siblings after
// it. Only statement-form namespaces and use statements change it.
func (w *fileWalk) node(c language.Context, n *ast.Node) language.Context {
	if w.err != nil {
		return c
	}
	w.res.Nodes++
	if w.res.Nodes%cancelCheckInterval == 0 {
		if err := w.ctx.Err(); err != nil {
			w.err = err
			return c
		}
	}

	inner := c.WithLine(n.Lineno)
	switch n.Kind {
	case ast.KindNamespace:
		ns := inner.WithNamespace(n.Children.String("name"))
		if n.Children.Has("stmts") {
			w.children(ns, n)
			return c
		}
		return ns

	case ast.KindUse, ast.KindGroupUse:
		w.children(inner, n)
		return importContext(c, n)

	case ast.KindClass:
		w.class(inner, n)

	case ast.KindFuncDecl, ast.KindMethod, ast.KindClosure:
		w.function(inner, n)

	case ast.KindNew, ast.KindInstanceOf, ast.KindClassConst, ast.KindStaticCall, ast.KindStaticProp:
		if name, ok := w.staticClassName(inner, n); ok {
			w.validate(inner, name, n)
		}
		w.children(inner, n)

	case ast.KindMethodCall, ast.KindProp:
		w.receiver(inner, n)
		w.children(inner, n)

	case ast.KindForeach:
		w.foreach(inner, n)

	default:
		w.children(inner, n)
	}
	return c
}

func (w *fileWalk) children(c language.Context, n *ast.Node) {
	n.Children.Each(func(_ string, v any) {
		if child, ok := v.(*ast.Node); ok && child != nil {
			c = w.node(c, child)
		}
	})
}

func (w *fileWalk) class(c language.Context, n *ast.Node) {
	name := n.Children.String("name")
	if name == "" || n.Flags.Has(ast.ClassAnonymous) {
		w.children(c, n)
		return
	}
	w.children(c.WithClass(declaredFQSEN(c, name)), n)
}

func (w *fileWalk) function(c language.Context, n *ast.Node) {
	kind := language.ScopeFunction
	switch n.Kind {
	case ast.KindMethod:
		kind = language.ScopeMethod
	case ast.KindClosure:
		kind = language.ScopeClosure
	}
	scope := c.WithScope(kind)

	if n.Kind == ast.KindClosure {
		if uses := n.Children.Node("uses"); uses != nil {
			for _, v := range uses.Children.Nodes() {
				name := v.Children.String("name")
				if t, ok := c.VariableType(name); ok {
					scope = scope.WithVariable(name, t)
				}
			}
		}
	}

	params := element.ListFromNode(scope, w.analyzer.code, n.Children.Node("params"), w.analyzer.emitter)
	w.res.Parameters += len(params)
	for _, p := range params {
		t := p.UnionType()
		if t.IsEmpty() {
			continue
		}
		// a variadic parameter holds an array of its declared type
		if p.IsVariadic() {
			t = arrayOf(t)
		}
		scope = scope.WithVariable(p.Name(), t)
	}

	w.children(scope, n)
}

// foreach types the value variable of a loop over a typed array for the
// loop body. The loop expression, key and value are visited in the outer
// context.
func (w *fileWalk) foreach(c language.Context, n *ast.Node) {
	body := c
	if value := n.Children.Node("value"); value != nil && value.Kind == ast.KindVar {
		if elem, ok := elementType(c, n.Children.Node("expr")); ok && value.Children.String("name") != "" {
			body = c.WithVariable(value.Children.String("name"), elem)
		}
	}
	n.Children.Each(func(key string, v any) {
		child, ok := v.(*ast.Node)
		if !ok || child == nil {
			return
		}
		if key == "stmts" {
			w.node(body, child)
			return
		}
		w.node(c, child)
	})
}

func arrayOf(t language.UnionType) language.UnionType {
	var out language.UnionType
	for _, typ := range t.Types() {
		out = out.WithType(typ.AsArray())
	}
	return out
}

// elementType is the type of the values of the array variable expr.
func elementType(c language.Context, expr *ast.Node) (language.UnionType, bool) {
	if expr == nil || expr.Kind != ast.KindVar {
		return language.UnionType{}, false
	}
	t, ok := c.VariableType(expr.Children.String("name"))
	if !ok {
		return language.UnionType{}, false
	}
	var elem language.UnionType
	for _, typ := range t.Types() {
		if typ.ArrayDepth() > 0 {
			elem = elem.WithType(typ.ElementType())
		}
	}
	return elem, !elem.IsEmpty()
}

// staticClassName returns the class named by n's class slot as it should be
// handed to the validator. Dynamic class expressions report false.
func (w *fileWalk) staticClassName(c language.Context, n *ast.Node) (string, bool) {
	v, _ := n.Children.Get("class")
	switch class := v.(type) {
	case string:
		return w.className(c, class, ast.NameNotFQ)
	case *ast.Node:
		if class == nil || class.Kind != ast.KindName {
			return "", false
		}
		return w.className(c, class.Children.String("name"), class.Flags)
	}
	return "", false
}

func (w *fileWalk) className(c language.Context, name string, flags ast.Flags) (string, bool) {
	if name == "" {
		return "", false
	}
	if flags != ast.NameNotFQ {
		return qualifiedName(c, name, flags), true
	}

	switch strings.ToLower(name) {
	case "self", "static":
		if !c.HasClassFQSEN() {
			return "", false
		}
		return c.ClassFQSEN().String(), true
	case "parent":
		if !c.HasClassFQSEN() {
			return "", false
		}
		class, err := w.analyzer.code.ClassByFQSEN(c.ClassFQSEN())
		if err != nil {
			return "", false
		}
		parent, ok := class.ParentFQSEN()
		if !ok {
			return "", false
		}
		return parent.String(), true
	}
	return qualifiedName(c, name, flags), true
}

// receiver validates the declared class of the object a method call or
// property fetch is made on.
func (w *fileWalk) receiver(c language.Context, n *ast.Node) {
	expr := n.Children.Node("expr")
	if expr == nil || expr.Kind != ast.KindVar {
		return
	}
	name := expr.Children.String("name")
	if name == "" {
		return
	}
	if name == "this" {
		if c.IsInFunctionScope() && c.HasClassFQSEN() {
			w.validate(c, c.ClassFQSEN().String(), n)
		}
		return
	}
	t, ok := c.VariableType(name)
	if !ok {
		return
	}
	var objects language.UnionType
	for _, typ := range t.Types() {
		if typ.ArrayDepth() == 0 {
			objects = objects.WithType(typ)
		}
	}
	for _, fqsen := range objects.ClassFQSENs() {
		w.validate(c, fqsen.String(), n)
	}
}

func (w *fileWalk) validate(c language.Context, className string, n *ast.Node) {
	w.res.Checks++
	if !NewClassNameValidator(c, w.analyzer.code, className, w.analyzer.emitter).Validate(n) {
		w.res.Failures++
	}
}
