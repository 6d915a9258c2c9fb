package analyze

import (
	"strings"

	"nominal/internal/engine/ast"
	"nominal/internal/engine/language"
)

// qualifiedName turns the text of an AST_NAME into the form accepted by
// language.FromStringInContext, expanding import aliases.
func qualifiedName(c language.Context, name string, flags ast.Flags) string {
	switch flags {
	case ast.NameFQ:
		return language.NamespaceSeparator + strings.TrimPrefix(name, language.NamespaceSeparator)
	case ast.NameRelative:
		return "namespace" + language.NamespaceSeparator + name
	}
	return c.ResolveClassName(name)
}

// nameFQSEN resolves an AST_NAME node, or a bare string, to an FQSEN.
func nameFQSEN(c language.Context, v any) (language.FQSEN, bool) {
	var name string
	flags := ast.NameNotFQ
	switch n := v.(type) {
	case string:
		name = n
	case *ast.Node:
		if n == nil || n.Kind != ast.KindName {
			return language.FQSEN{}, false
		}
		name, flags = n.Children.String("name"), n.Flags
	}
	if name == "" {
		return language.FQSEN{}, false
	}
	return language.FromStringInContext(qualifiedName(c, name, flags), c), true
}

// importContext applies an AST_USE or AST_GROUP_USE statement to c.
func importContext(c language.Context, n *ast.Node) language.Context {
	switch n.Kind {
	case ast.KindUse:
		return withUses(c, n, n.Flags, "")
	case ast.KindGroupUse:
		uses := n.Children.Node("uses")
		if uses == nil {
			return c
		}
		flags := n.Flags
		if flags == 0 {
			flags = uses.Flags
		}
		return withUses(c, uses, flags, n.Children.String("prefix"))
	}
	return c
}

// withUses registers the class imports of an AST_USE list. Function and
// constant imports do not name classes and are ignored.
func withUses(c language.Context, list *ast.Node, flags ast.Flags, prefix string) language.Context {
	if !isClassUse(flags) {
		return c
	}
	for _, elem := range list.Children.Nodes() {
		if elem.Kind != ast.KindUseElem || !isClassUse(elem.Flags) {
			continue
		}
		name := elem.Children.String("name")
		if name == "" {
			continue
		}
		if prefix != "" {
			name = strings.TrimSuffix(prefix, language.NamespaceSeparator) + language.NamespaceSeparator + name
		}
		c = c.WithUse(elem.Children.String("alias"), name)
	}
	return c
}

func isClassUse(flags ast.Flags) bool {
	return flags == 0 || flags == ast.UseNormal
}

// declaredFQSEN names a declaration made inside the namespace of c.
func declaredFQSEN(c language.Context, name string) language.FQSEN {
	return language.NewFQSEN(c.Namespace(), name)
}
