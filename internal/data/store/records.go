// Package store persists code base declarations. Declarations travel as
// plain records, read from TOML manifests or from an SQLite database, and
// are turned into code base elements on load.
package store

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"nominal/internal/core/errors"
	"nominal/internal/engine/ast"
	"nominal/internal/engine/codebase"
	"nominal/internal/engine/element"
	"nominal/internal/engine/language"
	"nominal/internal/shared/util"
)

// Declarations is a set of classes, functions and constants.
type Declarations struct {
	Classes   []ClassRecord    `toml:"class" json:"classes,omitempty"`
	Functions []FunctionRecord `toml:"function" json:"functions,omitempty"`
	Constants []ConstantRecord `toml:"constant" json:"constants,omitempty"`
}

type ClassRecord struct {
	Name       string           `toml:"name" json:"name"`
	Kind       string           `toml:"kind" json:"kind,omitempty"`
	Extends    string           `toml:"extends" json:"extends,omitempty"`
	Implements []string         `toml:"implements" json:"implements,omitempty"`
	Traits     []string         `toml:"traits" json:"traits,omitempty"`
	Methods    []MethodRecord   `toml:"method" json:"methods,omitempty"`
	Constants  []MemberRecord   `toml:"constant" json:"constants,omitempty"`
	Properties []PropertyRecord `toml:"property" json:"properties,omitempty"`
	File       string           `toml:"file" json:"file,omitempty"`
	Line       int              `toml:"line" json:"line,omitempty"`
}

type MethodRecord struct {
	Name       string        `toml:"name" json:"name"`
	Visibility string        `toml:"visibility" json:"visibility,omitempty"`
	Static     bool          `toml:"static" json:"static,omitempty"`
	Abstract   bool          `toml:"abstract" json:"abstract,omitempty"`
	Final      bool          `toml:"final" json:"final,omitempty"`
	Params     []ParamRecord `toml:"param" json:"params,omitempty"`
	Returns    string        `toml:"returns" json:"returns,omitempty"`
	Line       int           `toml:"line" json:"line,omitempty"`
}

// ParamRecord describes a parameter. Optional parameters carry either a
// scalar default with its type, or Deferred when the default could only be
// typed once the whole code base is known.
type ParamRecord struct {
	Name        string `toml:"name" json:"name"`
	Type        string `toml:"type" json:"type,omitempty"`
	Optional    bool   `toml:"optional" json:"optional,omitempty"`
	Default     any    `toml:"default" json:"default,omitempty"`
	DefaultType string `toml:"default_type" json:"default_type,omitempty"`
	Deferred    bool   `toml:"deferred" json:"deferred,omitempty"`
	Variadic    bool   `toml:"variadic" json:"variadic,omitempty"`
	ByRef       bool   `toml:"by_ref" json:"by_ref,omitempty"`
}

type MemberRecord struct {
	Name string `toml:"name" json:"name"`
	Type string `toml:"type" json:"type,omitempty"`
}

type PropertyRecord struct {
	Name   string `toml:"name" json:"name"`
	Type   string `toml:"type" json:"type,omitempty"`
	Static bool   `toml:"static" json:"static,omitempty"`
}

type FunctionRecord struct {
	Name    string        `toml:"name" json:"name"`
	Params  []ParamRecord `toml:"param" json:"params,omitempty"`
	Returns string        `toml:"returns" json:"returns,omitempty"`
	File    string        `toml:"file" json:"file,omitempty"`
	Line    int           `toml:"line" json:"line,omitempty"`
}

type ConstantRecord struct {
	Name  string `toml:"name" json:"name"`
	Type  string `toml:"type" json:"type,omitempty"`
	Value any    `toml:"value" json:"value,omitempty"`
	File  string `toml:"file" json:"file,omitempty"`
	Line  int    `toml:"line" json:"line,omitempty"`
}

// Counts reports the outcome of adding declarations to a code base.
type Counts struct {
	Added   int
	Skipped int
}

func (d Declarations) Len() int {
	return len(d.Classes) + len(d.Functions) + len(d.Constants)
}

// Merge appends other to d.
func (d Declarations) Merge(other Declarations) Declarations {
	d.Classes = append(d.Classes, other.Classes...)
	d.Functions = append(d.Functions, other.Functions...)
	d.Constants = append(d.Constants, other.Constants...)
	return d
}

// FromCodeBase captures every declaration of cb.
func FromCodeBase(cb *codebase.CodeBase) Declarations {
	var d Declarations
	for _, c := range cb.Classes() {
		d.Classes = append(d.Classes, classRecord(c))
	}
	for _, f := range cb.Functions() {
		d.Functions = append(d.Functions, FunctionRecord{
			Name:    f.FQSEN.String(),
			Params:  paramRecords(f.Parameters),
			Returns: f.ReturnType.String(),
			File:    f.File,
			Line:    f.Line,
		})
	}
	for _, k := range cb.Constants() {
		d.Constants = append(d.Constants, ConstantRecord{
			Name:  k.FQSEN.String(),
			Type:  k.Type.String(),
			Value: scalar(k.Value),
			File:  k.File,
			Line:  k.Line,
		})
	}
	return d
}

// AddTo adds every declaration to cb. Names already declared are skipped,
// so declarations harvested from the analysed sources take precedence over
// indexed or manifest ones. source names the origin in errors and logs.
func (d Declarations) AddTo(cb *codebase.CodeBase, source string) (Counts, error) {
	var counts Counts
	if cb.IsFrozen() {
		return counts, errors.New(errors.CodeFrozen, "code base is frozen").
			WithContext(errors.CtxOperation, "import").
			WithContext(errors.CtxPath, source)
	}
	skip := func(fqsen language.FQSEN) {
		counts.Skipped++
		slog.Debug("declaration already present", "fqsen", fqsen.String(), "source", source)
	}
	add := func(err error) error {
		if err != nil {
			return errors.AddContext(err, errors.CtxPath, source)
		}
		counts.Added++
		return nil
	}

	for _, rec := range d.Classes {
		class, err := rec.toClass()
		if err != nil {
			return counts, errors.AddContext(err, errors.CtxPath, source)
		}
		if cb.HasClassWithFQSEN(class.FQSEN) {
			skip(class.FQSEN)
			continue
		}
		if err := add(cb.AddClass(class)); err != nil {
			return counts, err
		}
	}
	for _, rec := range d.Functions {
		fn, err := rec.toFunction()
		if err != nil {
			return counts, errors.AddContext(err, errors.CtxPath, source)
		}
		if cb.HasFunctionWithFQSEN(fn.FQSEN) {
			skip(fn.FQSEN)
			continue
		}
		if err := add(cb.AddFunction(fn)); err != nil {
			return counts, err
		}
	}
	for _, rec := range d.Constants {
		k, err := rec.toConstant()
		if err != nil {
			return counts, errors.AddContext(err, errors.CtxPath, source)
		}
		if cb.HasConstantWithFQSEN(k.FQSEN) {
			skip(k.FQSEN)
			continue
		}
		if err := add(cb.AddConstant(k)); err != nil {
			return counts, err
		}
	}
	return counts, nil
}

var classKinds = map[string]codebase.ClassFlags{
	"":          0,
	"class":     0,
	"abstract":  codebase.ClassAbstract,
	"final":     codebase.ClassFinal,
	"interface": codebase.ClassInterface,
	"trait":     codebase.ClassTrait,
}

func classKind(c *codebase.Class) string {
	switch {
	case c.IsInterface():
		return "interface"
	case c.IsTrait():
		return "trait"
	case c.IsAbstract():
		return "abstract"
	case c.IsFinal():
		return "final"
	}
	return "class"
}

func classRecord(c *codebase.Class) ClassRecord {
	rec := ClassRecord{
		Name: c.FQSEN.String(),
		Kind: classKind(c),
		File: c.File,
		Line: c.Line,
	}
	if parent, ok := c.ParentFQSEN(); ok {
		rec.Extends = parent.String()
	}
	for _, i := range c.Interfaces {
		rec.Implements = append(rec.Implements, i.String())
	}
	for _, t := range c.Traits {
		rec.Traits = append(rec.Traits, t.String())
	}
	for _, key := range util.SortedStringKeys(c.Methods) {
		m := c.Methods[key]
		rec.Methods = append(rec.Methods, MethodRecord{
			Name:       m.Name,
			Visibility: visibility(m.Flags),
			Static:     m.Flags.Has(ast.ModifierStatic),
			Abstract:   m.Flags.Has(ast.ModifierAbstract),
			Final:      m.Flags.Has(ast.ModifierFinal),
			Params:     paramRecords(m.Parameters),
			Returns:    m.ReturnType.String(),
			Line:       m.Line,
		})
	}
	for _, key := range util.SortedStringKeys(c.Constants) {
		k := c.Constants[key]
		rec.Constants = append(rec.Constants, MemberRecord{Name: k.Name, Type: k.Type.String()})
	}
	for _, key := range util.SortedStringKeys(c.Properties) {
		p := c.Properties[key]
		rec.Properties = append(rec.Properties, PropertyRecord{Name: p.Name, Type: p.Type.String(), Static: p.IsStatic})
	}
	return rec
}

func (rec ClassRecord) toClass() (*codebase.Class, error) {
	fqsen, err := parseName("class", rec.Name)
	if err != nil {
		return nil, err
	}
	flags, ok := classKinds[strings.ToLower(strings.TrimSpace(rec.Kind))]
	if !ok {
		return nil, errors.New(errors.CodeValidationError, fmt.Sprintf("unknown class kind %q", rec.Kind)).
			WithContext(errors.CtxFQSEN, rec.Name)
	}

	class := codebase.NewClass(fqsen, flags)
	class.File, class.Line = rec.File, rec.Line
	if rec.Extends != "" {
		parent, err := parseName("class", rec.Extends)
		if err != nil {
			return nil, err
		}
		class.Parent = &parent
	}
	for _, name := range rec.Implements {
		i, err := parseName("interface", name)
		if err != nil {
			return nil, err
		}
		class.Interfaces = append(class.Interfaces, i)
	}
	for _, name := range rec.Traits {
		t, err := parseName("trait", name)
		if err != nil {
			return nil, err
		}
		class.Traits = append(class.Traits, t)
	}

	for _, m := range rec.Methods {
		flags, err := methodFlags(m)
		if err != nil {
			return nil, errors.AddContext(err, errors.CtxFQSEN, fqsen.Member(m.Name).String())
		}
		class.AddMethod(&codebase.Method{
			Name:       m.Name,
			Flags:      flags,
			Parameters: parameters(m.Params),
			ReturnType: unionType(m.Returns),
			Line:       m.Line,
		})
	}
	for _, k := range rec.Constants {
		class.AddConstant(&codebase.ClassConstant{Name: k.Name, Type: unionType(k.Type)})
	}
	for _, p := range rec.Properties {
		class.AddProperty(&codebase.Property{Name: p.Name, Type: unionType(p.Type), IsStatic: p.Static})
	}
	return class, nil
}

func (rec FunctionRecord) toFunction() (*codebase.Function, error) {
	fqsen, err := parseName("function", rec.Name)
	if err != nil {
		return nil, err
	}
	return &codebase.Function{
		FQSEN:      fqsen,
		Parameters: parameters(rec.Params),
		ReturnType: unionType(rec.Returns),
		File:       rec.File,
		Line:       rec.Line,
	}, nil
}

func (rec ConstantRecord) toConstant() (*codebase.Constant, error) {
	fqsen, err := parseName("constant", rec.Name)
	if err != nil {
		return nil, err
	}
	value := scalar(rec.Value)
	t := unionType(rec.Type)
	if t.IsEmpty() && value != nil {
		t = language.UnionTypeFromNode(language.NewContext(rec.File), nil, value)
	}
	return &codebase.Constant{FQSEN: fqsen, Type: t, Value: value, File: rec.File, Line: rec.Line}, nil
}

func paramRecords(params []*element.Parameter) []ParamRecord {
	out := make([]ParamRecord, 0, len(params))
	for _, p := range params {
		rec := ParamRecord{
			Name:     p.Name(),
			Type:     p.UnionType().String(),
			Optional: p.IsOptional(),
			Variadic: p.IsVariadic(),
			ByRef:    p.IsPassByReference(),
		}
		switch p.Default().Kind() {
		case element.DefaultDeferred:
			rec.Deferred = true
		case element.DefaultRecorded:
			value, _ := p.DefaultValue()
			rec.Default = scalar(value)
			rec.DefaultType = p.DefaultValueType().String()
		}
		out = append(out, rec)
	}
	return out
}

func parameters(records []ParamRecord) []*element.Parameter {
	ctx := language.NewContext("")
	out := make([]*element.Parameter, 0, len(records))
	for _, rec := range records {
		var flags ast.Flags
		if rec.Variadic {
			flags |= ast.ParamVariadic
		}
		if rec.ByRef {
			flags |= ast.ParamRef
		}
		p := element.NewParameter(ctx, rec.Name, unionType(rec.Type), flags)
		switch {
		case rec.Deferred:
			p.SetDefault(element.DeferredDefault())
		case rec.Optional || rec.Default != nil:
			value := scalar(rec.Default)
			t := unionType(rec.DefaultType)
			if t.IsEmpty() && value != nil {
				t = language.UnionTypeFromNode(ctx, nil, value)
			}
			p.SetDefaultValue(value, t)
		}
		out = append(out, p)
	}
	return out
}

func methodFlags(m MethodRecord) (ast.Flags, error) {
	var flags ast.Flags
	switch strings.ToLower(strings.TrimSpace(m.Visibility)) {
	case "", "public":
		flags = ast.ModifierPublic
	case "protected":
		flags = ast.ModifierProtected
	case "private":
		flags = ast.ModifierPrivate
	default:
		return 0, errors.New(errors.CodeValidationError, fmt.Sprintf("unknown visibility %q", m.Visibility))
	}
	if m.Static {
		flags |= ast.ModifierStatic
	}
	if m.Abstract {
		flags |= ast.ModifierAbstract
	}
	if m.Final {
		flags |= ast.ModifierFinal
	}
	return flags, nil
}

func visibility(flags ast.Flags) string {
	switch {
	case flags.Has(ast.ModifierPrivate):
		return "private"
	case flags.Has(ast.ModifierProtected):
		return "protected"
	}
	return "public"
}

// parseName accepts a fully qualified name, with or without the leading
// separator.
func parseName(element, name string) (language.FQSEN, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return language.FQSEN{}, errors.New(errors.CodeValidationError, element+" name must not be empty")
	}
	if !strings.HasPrefix(name, language.NamespaceSeparator) {
		name = language.NamespaceSeparator + name
	}
	fqsen, err := language.ParseFQSEN(name)
	if err != nil {
		return language.FQSEN{}, errors.Wrap(err, errors.CodeValidationError, "invalid "+element+" name").
			WithContext(errors.CtxFQSEN, name)
	}
	return fqsen, nil
}

func unionType(s string) language.UnionType {
	if strings.TrimSpace(s) == "" {
		return language.UnionType{}
	}
	return language.UnionTypeFromAnnotation(s, language.NewContext(""))
}

// scalar keeps only literal values; syntax nodes do not survive storage.
// JSON numbers are narrowed back to int64 where possible.
func scalar(v any) any {
	switch x := v.(type) {
	case nil, string, bool, int64, float64:
		return x
	case int:
		return int64(x)
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return i
		}
		if f, err := x.Float64(); err == nil {
			return f
		}
		return x.String()
	}
	return nil
}
