package codebase

import (
	"strings"

	"nominal/internal/engine/ast"
	"nominal/internal/engine/element"
	"nominal/internal/engine/language"
)

// ClassFlags mirror the class declaration modifiers.
type ClassFlags uint8

const (
	ClassAbstract ClassFlags = 1 << iota
	ClassInterface
	ClassTrait
	ClassFinal
)

// ClassFlagsFromAST converts AST_CLASS flags.
func ClassFlagsFromAST(f ast.Flags) ClassFlags {
	var out ClassFlags
	if f.Has(ast.ClassAbstract) {
		out |= ClassAbstract
	}
	if f.Has(ast.ClassInterface) {
		out |= ClassInterface
	}
	if f.Has(ast.ClassTrait) {
		out |= ClassTrait
	}
	if f.Has(ast.ClassFinal) {
		out |= ClassFinal
	}
	return out
}

// Class is a declared class, interface or trait.
type Class struct {
	FQSEN      language.FQSEN
	Flags      ClassFlags
	Parent     *language.FQSEN
	Interfaces []language.FQSEN
	Traits     []language.FQSEN
	Methods    map[string]*Method
	Constants  map[string]*ClassConstant
	Properties map[string]*Property
	File       string
	Line       int
}

func NewClass(fqsen language.FQSEN, flags ClassFlags) *Class {
	return &Class{
		FQSEN:      fqsen,
		Flags:      flags,
		Methods:    make(map[string]*Method),
		Constants:  make(map[string]*ClassConstant),
		Properties: make(map[string]*Property),
	}
}

func (c *Class) IsAbstract() bool  { return c.Flags&ClassAbstract != 0 }
func (c *Class) IsInterface() bool { return c.Flags&ClassInterface != 0 }
func (c *Class) IsTrait() bool     { return c.Flags&ClassTrait != 0 }
func (c *Class) IsFinal() bool     { return c.Flags&ClassFinal != 0 }

// ParentFQSEN returns the superclass, if the class extends one.
func (c *Class) ParentFQSEN() (language.FQSEN, bool) {
	if c.Parent == nil {
		return language.FQSEN{}, false
	}
	return *c.Parent, true
}

// AddMethod registers a method; names are case-insensitive.
func (c *Class) AddMethod(m *Method) {
	c.Methods[strings.ToLower(m.Name)] = m
}

func (c *Class) AddConstant(k *ClassConstant) {
	c.Constants[k.Name] = k
}

func (c *Class) AddProperty(p *Property) {
	c.Properties[p.Name] = p
}

// Kind names the declaration form for reports.
func (c *Class) Kind() string {
	switch {
	case c.IsInterface():
		return "interface"
	case c.IsTrait():
		return "trait"
	case c.IsAbstract():
		return "abstract class"
	}
	return "class"
}

// Function is a declared global function.
type Function struct {
	FQSEN      language.FQSEN
	Parameters []*element.Parameter
	ReturnType language.UnionType
	File       string
	Line       int
}

// Method is a function declared in a class body.
type Method struct {
	Name       string
	Flags      ast.Flags
	Parameters []*element.Parameter
	ReturnType language.UnionType
	Line       int
}

func (m *Method) IsStatic() bool   { return m.Flags.Has(ast.ModifierStatic) }
func (m *Method) IsAbstract() bool { return m.Flags.Has(ast.ModifierAbstract) }

// Constant is a global constant.
type Constant struct {
	FQSEN language.FQSEN
	Type  language.UnionType
	Value any
	File  string
	Line  int
}

// ClassConstant is a constant declared in a class body.
type ClassConstant struct {
	Name string
	Type language.UnionType
}

// Property is a property declared in a class body.
type Property struct {
	Name     string
	Type     language.UnionType
	IsStatic bool
}
