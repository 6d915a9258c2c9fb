package codebase

import (
	"slices"
	"strings"
	"sync"

	"nominal/internal/core/errors"
	"nominal/internal/engine/language"
)

// CodeBase is the table of every class, function and constant declared in
// one analysis run. It is populated first, then frozen and only read while
// files are validated, so concurrent readers need no coordination beyond
// the read lock.
type CodeBase struct {
	mu        sync.RWMutex
	frozen    bool
	classes   map[language.FQSEN]*Class
	functions map[language.FQSEN]*Function
	constants map[language.FQSEN]*Constant
}

// Stats counts declarations by element kind.
type Stats struct {
	Classes    int
	Interfaces int
	Traits     int
	Functions  int
	Constants  int
}

func New() *CodeBase {
	return &CodeBase{
		classes:   make(map[language.FQSEN]*Class),
		functions: make(map[language.FQSEN]*Function),
		constants: make(map[language.FQSEN]*Constant),
	}
}

// Freeze ends population. Later Add* calls fail with CodeFrozen.
func (cb *CodeBase) Freeze() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.frozen = true
}

func (cb *CodeBase) IsFrozen() bool {
	cb.mu.RLock()
	defer cb.mu.RUnlock()
	return cb.frozen
}

func (cb *CodeBase) AddClass(c *Class) error {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	if err := cb.checkWritable("add_class", c.FQSEN); err != nil {
		return err
	}
	key := c.FQSEN.Canonical()
	if _, exists := cb.classes[key]; exists {
		return duplicate("class", c.FQSEN)
	}
	cb.classes[key] = c
	return nil
}

func (cb *CodeBase) AddFunction(f *Function) error {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	if err := cb.checkWritable("add_function", f.FQSEN); err != nil {
		return err
	}
	key := f.FQSEN.Canonical()
	if _, exists := cb.functions[key]; exists {
		return duplicate("function", f.FQSEN)
	}
	cb.functions[key] = f
	return nil
}

// AddConstant registers a global constant. Constant names are case-sensitive
// so only the namespace is folded.
func (cb *CodeBase) AddConstant(c *Constant) error {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	if err := cb.checkWritable("add_constant", c.FQSEN); err != nil {
		return err
	}
	key := constantKey(c.FQSEN)
	if _, exists := cb.constants[key]; exists {
		return duplicate("constant", c.FQSEN)
	}
	cb.constants[key] = c
	return nil
}

func (cb *CodeBase) checkWritable(op string, fqsen language.FQSEN) error {
	if !cb.frozen {
		return nil
	}
	return errors.New(errors.CodeFrozen, "code base is frozen").
		WithContext(errors.CtxOperation, op).
		WithContext(errors.CtxFQSEN, fqsen.String())
}

func duplicate(element string, fqsen language.FQSEN) error {
	return errors.New(errors.CodeConflict, "duplicate "+element+" declaration").
		WithContext(errors.CtxElement, element).
		WithContext(errors.CtxFQSEN, fqsen.String())
}

func notFound(element string, fqsen language.FQSEN) error {
	return errors.New(errors.CodeNotFound, element+" not found").
		WithContext(errors.CtxElement, element).
		WithContext(errors.CtxFQSEN, fqsen.String())
}

func (cb *CodeBase) HasClassWithFQSEN(fqsen language.FQSEN) bool {
	cb.mu.RLock()
	defer cb.mu.RUnlock()
	_, ok := cb.classes[fqsen.Canonical()]
	return ok
}

// ClassByFQSEN returns the declaration of fqsen. Callers check existence
// first; a missing class is a CodeNotFound error.
func (cb *CodeBase) ClassByFQSEN(fqsen language.FQSEN) (*Class, error) {
	cb.mu.RLock()
	defer cb.mu.RUnlock()
	c, ok := cb.classes[fqsen.Canonical()]
	if !ok {
		return nil, notFound("class", fqsen)
	}
	return c, nil
}

func (cb *CodeBase) HasFunctionWithFQSEN(fqsen language.FQSEN) bool {
	cb.mu.RLock()
	defer cb.mu.RUnlock()
	_, ok := cb.functions[fqsen.Canonical()]
	return ok
}

func (cb *CodeBase) FunctionByFQSEN(fqsen language.FQSEN) (*Function, error) {
	cb.mu.RLock()
	defer cb.mu.RUnlock()
	f, ok := cb.functions[fqsen.Canonical()]
	if !ok {
		return nil, notFound("function", fqsen)
	}
	return f, nil
}

func (cb *CodeBase) HasConstantWithFQSEN(fqsen language.FQSEN) bool {
	cb.mu.RLock()
	defer cb.mu.RUnlock()
	_, ok := cb.constants[constantKey(fqsen)]
	return ok
}

func (cb *CodeBase) ConstantByFQSEN(fqsen language.FQSEN) (*Constant, error) {
	cb.mu.RLock()
	defer cb.mu.RUnlock()
	c, ok := cb.constants[constantKey(fqsen)]
	if !ok {
		return nil, notFound("constant", fqsen)
	}
	return c, nil
}

// ConstantType implements language.ConstantTypes.
func (cb *CodeBase) ConstantType(fqsen language.FQSEN) (language.UnionType, bool) {
	c, err := cb.ConstantByFQSEN(fqsen)
	if err != nil {
		return language.UnionType{}, false
	}
	return c.Type, true
}

// Classes returns every class ordered by FQSEN.
func (cb *CodeBase) Classes() []*Class {
	cb.mu.RLock()
	defer cb.mu.RUnlock()
	out := make([]*Class, 0, len(cb.classes))
	for _, c := range cb.classes {
		out = append(out, c)
	}
	slices.SortFunc(out, func(a, b *Class) int {
		return strings.Compare(a.FQSEN.String(), b.FQSEN.String())
	})
	return out
}

func (cb *CodeBase) Functions() []*Function {
	cb.mu.RLock()
	defer cb.mu.RUnlock()
	out := make([]*Function, 0, len(cb.functions))
	for _, f := range cb.functions {
		out = append(out, f)
	}
	slices.SortFunc(out, func(a, b *Function) int {
		return strings.Compare(a.FQSEN.String(), b.FQSEN.String())
	})
	return out
}

func (cb *CodeBase) Constants() []*Constant {
	cb.mu.RLock()
	defer cb.mu.RUnlock()
	out := make([]*Constant, 0, len(cb.constants))
	for _, c := range cb.constants {
		out = append(out, c)
	}
	slices.SortFunc(out, func(a, b *Constant) int {
		return strings.Compare(a.FQSEN.String(), b.FQSEN.String())
	})
	return out
}

func (cb *CodeBase) Stats() Stats {
	cb.mu.RLock()
	defer cb.mu.RUnlock()
	s := Stats{Functions: len(cb.functions), Constants: len(cb.constants)}
	for _, c := range cb.classes {
		switch {
		case c.IsInterface():
			s.Interfaces++
		case c.IsTrait():
			s.Traits++
		default:
			s.Classes++
		}
	}
	return s
}

func constantKey(fqsen language.FQSEN) language.FQSEN {
	return language.FQSEN{
		Namespace:   strings.ToLower(fqsen.Namespace),
		Name:        fqsen.Name,
		AlternateID: fqsen.AlternateID,
	}
}
