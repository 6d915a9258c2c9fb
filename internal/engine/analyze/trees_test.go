package analyze

import (
	"nominal/internal/engine/ast"
)

// Helpers that build the trees php-ast would produce for small snippets.

func name(line int, s string) *ast.Node {
	return ast.New(ast.KindName, ast.NameNotFQ, line, ast.C("name", s))
}

func fqName(line int, s string) *ast.Node {
	return ast.New(ast.KindName, ast.NameFQ, line, ast.C("name", s))
}

func variable(line int, s string) *ast.Node {
	return ast.New(ast.KindVar, 0, line, ast.C("name", s))
}

func stmts(line int, items ...any) *ast.Node {
	return ast.List(ast.KindStmtList, line, items...)
}

func newExpr(line int, class any) *ast.Node {
	return ast.New(ast.KindNew, 0, line,
		ast.C("class", class),
		ast.C("args", ast.List(ast.KindArgList, line)))
}

func classConst(line int, class any, constant string) *ast.Node {
	return ast.New(ast.KindClassConst, 0, line, ast.C("class", class), ast.C("const", constant))
}

func instanceOf(line int, expr, class any) *ast.Node {
	return ast.New(ast.KindInstanceOf, 0, line, ast.C("expr", expr), ast.C("class", class))
}

func staticCall(line int, class any, method string) *ast.Node {
	return ast.New(ast.KindStaticCall, 0, line,
		ast.C("class", class),
		ast.C("method", method),
		ast.C("args", ast.List(ast.KindArgList, line)))
}

func staticProp(line int, class any, p string) *ast.Node {
	return ast.New(ast.KindStaticProp, 0, line, ast.C("class", class), ast.C("prop", p))
}

func methodCall(line int, expr any, method string) *ast.Node {
	return ast.New(ast.KindMethodCall, 0, line,
		ast.C("expr", expr),
		ast.C("method", method),
		ast.C("args", ast.List(ast.KindArgList, line)))
}

func prop(line int, expr any, p string) *ast.Node {
	return ast.New(ast.KindProp, 0, line, ast.C("expr", expr), ast.C("prop", p))
}

func foreach(line int, expr, value any, body *ast.Node) *ast.Node {
	return ast.New(ast.KindForeach, 0, line,
		ast.C("expr", expr),
		ast.C("value", value),
		ast.C("key", nil),
		ast.C("stmts", body))
}

func namespace(line int, ns string, body *ast.Node) *ast.Node {
	return ast.New(ast.KindNamespace, 0, line, ast.C("name", ns), ast.C("stmts", body))
}

func useStmt(line int, target, alias string) *ast.Node {
	u := ast.List(ast.KindUse, line, ast.New(ast.KindUseElem, 0, line,
		ast.C("name", target),
		ast.C("alias", alias)))
	u.Flags = ast.UseNormal
	return u
}

func param(line int, typ any, n string, def any) *ast.Node {
	children := []ast.Child{ast.C("type", typ), ast.C("name", n)}
	if def != nil {
		children = append(children, ast.C("default", def))
	}
	return ast.New(ast.KindParam, 0, line, children...)
}

func params(line int, items ...any) *ast.Node {
	return ast.List(ast.KindParamList, line, items...)
}

func class(line int, flags ast.Flags, n string, extends any, body *ast.Node) *ast.Node {
	return ast.New(ast.KindClass, flags, line,
		ast.C("name", n),
		ast.C("extends", extends),
		ast.C("implements", nil),
		ast.C("stmts", body))
}

func method(line int, flags ast.Flags, n string, ps, body *ast.Node) *ast.Node {
	return ast.New(ast.KindMethod, flags, line,
		ast.C("name", n),
		ast.C("params", ps),
		ast.C("stmts", body),
		ast.C("returnType", nil))
}

func funcDecl(line int, n string, ps, body *ast.Node) *ast.Node {
	return ast.New(ast.KindFuncDecl, 0, line,
		ast.C("name", n),
		ast.C("params", ps),
		ast.C("stmts", body),
		ast.C("returnType", nil))
}

func closure(line int, ps *ast.Node, uses []string, body *ast.Node) *ast.Node {
	vars := make([]any, 0, len(uses))
	for _, u := range uses {
		vars = append(vars, ast.New(ast.KindClosureVar, 0, line, ast.C("name", u)))
	}
	return ast.New(ast.KindClosure, 0, line,
		ast.C("params", ps),
		ast.C("uses", ast.List(ast.KindClosureUses, line, vars...)),
		ast.C("stmts", body),
		ast.C("returnType", nil))
}

func ret(line int, expr any) *ast.Node {
	return ast.New(ast.KindReturn, 0, line, ast.C("expr", expr))
}
