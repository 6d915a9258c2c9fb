package codebase

import (
	"testing"

	"nominal/internal/core/errors"
	"nominal/internal/engine/ast"
	"nominal/internal/engine/language"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fq(s string) language.FQSEN {
	f, err := language.ParseFQSEN(s)
	if err != nil {
		panic(err)
	}
	return f
}

func ptr(f language.FQSEN) *language.FQSEN { return &f }

func sampleCodeBase(t *testing.T) *CodeBase {
	t.Helper()
	cb := New()

	shape := NewClass(fq(`\App\Shape`), ClassAbstract)
	shape.AddMethod(&Method{Name: "area", Flags: ast.ModifierPublic | ast.ModifierAbstract})
	shape.Interfaces = []language.FQSEN{fq(`\App\Comparable`)}

	circle := NewClass(fq(`\App\Circle`), ClassFinal)
	circle.Parent = ptr(fq(`\App\Shape`))

	comparable := NewClass(fq(`\App\Comparable`), ClassInterface)
	comparable.Interfaces = []language.FQSEN{fq(`\Stringable`)}

	require.NoError(t, cb.AddClass(shape))
	require.NoError(t, cb.AddClass(circle))
	require.NoError(t, cb.AddClass(comparable))
	require.NoError(t, cb.AddClass(NewClass(fq(`\App\Loggable`), ClassTrait)))
	require.NoError(t, cb.AddFunction(&Function{FQSEN: fq(`\App\helper`)}))
	require.NoError(t, cb.AddConstant(&Constant{
		FQSEN: fq(`\App\LIMIT`),
		Type:  language.NativeType(language.TypeInt).AsUnionType(),
		Value: int64(10),
	}))
	return cb
}

func TestLookups(t *testing.T) {
	cb := sampleCodeBase(t)

	assert.True(t, cb.HasClassWithFQSEN(fq(`\App\Shape`)))
	assert.True(t, cb.HasClassWithFQSEN(fq(`\app\SHAPE`)), "class names are case-insensitive")
	assert.False(t, cb.HasClassWithFQSEN(fq(`\App\Square`)))

	shape, err := cb.ClassByFQSEN(fq(`\App\Shape`))
	require.NoError(t, err)
	assert.True(t, shape.IsAbstract())
	assert.False(t, shape.IsInterface())
	assert.Equal(t, "abstract class", shape.Kind())

	_, err = cb.ClassByFQSEN(fq(`\App\Square`))
	assert.True(t, errors.IsCode(err, errors.CodeNotFound))

	assert.True(t, cb.HasFunctionWithFQSEN(fq(`\APP\Helper`)))
	_, err = cb.FunctionByFQSEN(fq(`\App\nope`))
	assert.True(t, errors.IsCode(err, errors.CodeNotFound))

	typ, ok := cb.ConstantType(fq(`\app\LIMIT`))
	assert.True(t, ok)
	assert.Equal(t, "int", typ.String())
	_, ok = cb.ConstantType(fq(`\App\limit`))
	assert.False(t, ok, "constant names are case-sensitive")
	_, err = cb.ConstantByFQSEN(fq(`\App\limit`))
	assert.True(t, errors.IsCode(err, errors.CodeNotFound))
}

func TestDuplicatesAndFreeze(t *testing.T) {
	cb := sampleCodeBase(t)

	err := cb.AddClass(NewClass(fq(`\App\shape`), 0))
	assert.True(t, errors.IsCode(err, errors.CodeConflict))
	err = cb.AddFunction(&Function{FQSEN: fq(`\App\helper`)})
	assert.True(t, errors.IsCode(err, errors.CodeConflict))
	err = cb.AddConstant(&Constant{FQSEN: fq(`\App\LIMIT`)})
	assert.True(t, errors.IsCode(err, errors.CodeConflict))

	require.NoError(t, cb.AddClass(NewClass(fq(`\App\Shape,1`), 0)), "alternate ids are distinct declarations")

	assert.False(t, cb.IsFrozen())
	cb.Freeze()
	assert.True(t, cb.IsFrozen())
	err = cb.AddClass(NewClass(fq(`\App\Late`), 0))
	assert.True(t, errors.IsCode(err, errors.CodeFrozen))
	assert.False(t, cb.HasClassWithFQSEN(fq(`\App\Late`)))
}

func TestListingAndStats(t *testing.T) {
	cb := sampleCodeBase(t)

	var names []string
	for _, c := range cb.Classes() {
		names = append(names, c.FQSEN.String())
	}
	assert.Equal(t, []string{`\App\Circle`, `\App\Comparable`, `\App\Loggable`, `\App\Shape`}, names)
	assert.Len(t, cb.Functions(), 1)
	assert.Len(t, cb.Constants(), 1)

	assert.Equal(t, Stats{Classes: 2, Interfaces: 1, Traits: 1, Functions: 1, Constants: 1}, cb.Stats())
}

func TestClassFlagsFromAST(t *testing.T) {
	f := ClassFlagsFromAST(ast.ClassAbstract | ast.ClassFinal)
	assert.Equal(t, ClassAbstract|ClassFinal, f)
	assert.Equal(t, ClassInterface, ClassFlagsFromAST(ast.ClassInterface))
	assert.Equal(t, ClassFlags(0), ClassFlagsFromAST(0))
}
