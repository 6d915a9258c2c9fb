package language

import (
	"maps"
	"strings"
)

// ScopeKind identifies the innermost construct enclosing a node.
type ScopeKind uint8

const (
	ScopeGlobal ScopeKind = iota
	ScopeClass
	ScopeFunction
	ScopeMethod
	ScopeClosure
)

func (k ScopeKind) String() string {
	switch k {
	case ScopeGlobal:
		return "global"
	case ScopeClass:
		return "class"
	case ScopeFunction:
		return "function"
	case ScopeMethod:
		return "method"
	case ScopeClosure:
		return "closure"
	default:
		return "unknown"
	}
}

// Context is the ambient position of a node: file, line, namespace,
// enclosing class and function scope. It is a value; every With* method
// returns a new Context and leaves the receiver untouched, so sibling
// subtrees never observe each other's changes.
type Context struct {
	file      string
	line      int
	namespace string
	class     FQSEN
	hasClass  bool
	scope     ScopeKind
	uses      map[string]string
	variables map[string]UnionType
}

// NewContext returns a global-scope context for file.
func NewContext(file string) Context {
	return Context{file: file, namespace: GlobalNamespace}
}

func (c Context) File() string { return c.file }

func (c Context) Line() int { return c.line }

// Namespace returns the active namespace in leading-separator form.
func (c Context) Namespace() string {
	if c.namespace == "" {
		return GlobalNamespace
	}
	return c.namespace
}

func (c Context) HasClassFQSEN() bool { return c.hasClass }

// ClassFQSEN returns the enclosing class. It is the zero FQSEN outside of a
// class body.
func (c Context) ClassFQSEN() FQSEN { return c.class }

func (c Context) Scope() ScopeKind { return c.scope }

func (c Context) IsInFunctionScope() bool {
	switch c.Scope() {
	case ScopeFunction, ScopeMethod, ScopeClosure:
		return true
	}
	return false
}

func (c Context) WithLine(line int) Context {
	c.line = line
	return c
}

// WithNamespace enters a namespace. Import aliases do not carry across
// namespace declarations.
func (c Context) WithNamespace(namespace string) Context {
	c.namespace = normalizeNamespace(namespace)
	c.uses = nil
	return c
}

// WithClass enters the body of class fqsen.
func (c Context) WithClass(fqsen FQSEN) Context {
	c.class = fqsen
	c.hasClass = true
	c.scope = ScopeClass
	c.variables = nil
	return c
}

// WithScope enters a function-like scope. Variable types from an outer
// function do not leak into the new scope.
func (c Context) WithScope(kind ScopeKind) Context {
	c.scope = kind
	c.variables = nil
	return c
}

// WithUse registers an import alias. target may be given with or without
// the leading separator.
func (c Context) WithUse(alias, target string) Context {
	target = strings.TrimPrefix(strings.TrimSpace(target), NamespaceSeparator)
	if alias == "" {
		if idx := strings.LastIndex(target, NamespaceSeparator); idx >= 0 {
			alias = target[idx+1:]
		} else {
			alias = target
		}
	}
	uses := make(map[string]string, len(c.uses)+1)
	maps.Copy(uses, c.uses)
	uses[strings.ToLower(alias)] = target
	c.uses = uses
	return c
}

// ResolveClassName expands an import alias at the start of name into its
// fully qualified form. Names that are already fully qualified or do not
// start with a known alias are returned unchanged.
func (c Context) ResolveClassName(name string) string {
	if name == "" || strings.HasPrefix(name, NamespaceSeparator) || len(c.uses) == 0 {
		return name
	}
	head, rest, qualified := strings.Cut(name, NamespaceSeparator)
	target, ok := c.uses[strings.ToLower(head)]
	if !ok {
		return name
	}
	if qualified {
		return NamespaceSeparator + target + NamespaceSeparator + rest
	}
	return NamespaceSeparator + target
}

// WithVariable records the declared type of a variable in the current
// function scope.
func (c Context) WithVariable(name string, t UnionType) Context {
	vars := make(map[string]UnionType, len(c.variables)+1)
	maps.Copy(vars, c.variables)
	vars[name] = t
	c.variables = vars
	return c
}

// VariableType returns the recorded type of a variable in the current
// function scope.
func (c Context) VariableType(name string) (UnionType, bool) {
	t, ok := c.variables[name]
	return t, ok
}
