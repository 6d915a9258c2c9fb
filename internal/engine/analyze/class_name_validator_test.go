package analyze

import (
	"fmt"
	"testing"

	"nominal/internal/core/diag"
	"nominal/internal/engine/ast"
	"nominal/internal/engine/codebase"
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

func testCodeBase(t *testing.T) *codebase.CodeBase {
	t.Helper()
	cb := codebase.New()
	for _, c := range []*codebase.Class{
		codebase.NewClass(fq(`\Shape`), codebase.ClassAbstract),
		codebase.NewClass(fq(`\Comparable`), codebase.ClassInterface),
		codebase.NewClass(fq(`\Circle`), codebase.ClassFinal),
		codebase.NewClass(fq(`\App\Point`), 0),
	} {
		require.NoError(t, cb.AddClass(c))
	}
	cb.Freeze()
	return cb
}

func nameNode(name string) *ast.Node {
	return ast.New(ast.KindName, ast.NameNotFQ, 5, ast.C("name", name))
}

func nodeOfKind(kind ast.Kind, class string) *ast.Node {
	return ast.New(kind, 0, 5, ast.C("class", nameNode(class)))
}

var accessKinds = []ast.Kind{
	ast.KindInstanceOf,
	ast.KindClassConst,
	ast.KindStaticCall,
	ast.KindMethodCall,
	ast.KindProp,
	ast.KindNew,
}

func TestUndeclaredClassEmitsOneEUNDEFPerAccessKind(t *testing.T) {
	cb := testCodeBase(t)
	ctx := language.NewContext("src/a.php")

	for _, kind := range accessKinds {
		t.Run(kind.String(), func(t *testing.T) {
			sink := diag.NewCollector()
			v := NewClassNameValidator(ctx, cb, "Missing", sink)

			assert.False(t, v.Validate(nodeOfKind(kind, "Missing")))
			got := sink.Diagnostics()
			require.Len(t, got, 1)
			assert.Equal(t, diag.CategoryUndef, got[0].Category)
			assert.Equal(t, `call to undeclared class \Missing`, got[0].Message)
			assert.Equal(t, "src/a.php", got[0].File)
			assert.Equal(t, 5, got[0].Line)
		})
	}
}

func TestDeclaredClassPassesAccessKinds(t *testing.T) {
	cb := testCodeBase(t)
	ctx := language.NewContext("a.php").WithNamespace("App")

	for _, kind := range accessKinds {
		sink := diag.NewCollector()
		v := NewClassNameValidator(ctx, cb, "Point", sink)
		assert.True(t, v.Validate(nodeOfKind(kind, "Point")), kind.String())
		assert.Equal(t, 0, sink.Len(), kind.String())
	}
}

func TestNativeNamesPassAccessKinds(t *testing.T) {
	cb := testCodeBase(t)
	ctx := language.NewContext("a.php")

	for _, name := range []string{"int", "string", "array", "mixed", "Bool", "FLOAT", "void"} {
		for _, kind := range accessKinds {
			sink := diag.NewCollector()
			v := NewClassNameValidator(ctx, cb, name, sink)
			assert.True(t, v.Validate(nodeOfKind(kind, name)), "%s %s", kind, name)
			assert.Equal(t, 0, sink.Len())
		}
	}
}

func TestAbstractInstantiation(t *testing.T) {
	cb := testCodeBase(t)

	t.Run("global scope fails", func(t *testing.T) {
		sink := diag.NewCollector()
		ctx := language.NewContext("a.php")
		v := NewClassNameValidator(ctx, cb, "Shape", sink)

		assert.False(t, v.Validate(nodeOfKind(ast.KindNew, "Shape")))
		got := sink.Diagnostics()
		require.Len(t, got, 1)
		assert.Equal(t, diag.CategoryType, got[0].Category)
		assert.Equal(t, "Cannot instantiate abstract class Shape", got[0].Message)
	})

	t.Run("inside own method passes", func(t *testing.T) {
		sink := diag.NewCollector()
		ctx := language.NewContext("a.php").WithClass(fq(`\Shape`)).WithScope(language.ScopeMethod)
		v := NewClassNameValidator(ctx, cb, "Shape", sink)

		assert.True(t, v.Validate(nodeOfKind(ast.KindNew, "Shape")))
		assert.Equal(t, 0, sink.Len())
	})

	t.Run("inside another class fails", func(t *testing.T) {
		sink := diag.NewCollector()
		ctx := language.NewContext("a.php").WithClass(fq(`\Circle`))
		v := NewClassNameValidator(ctx, cb, "Shape", sink)

		assert.False(t, v.Validate(nodeOfKind(ast.KindNew, "Shape")))
		require.Equal(t, 1, sink.Len())
		assert.Equal(t, diag.CategoryType, sink.Diagnostics()[0].Category)
	})

	t.Run("class comparison ignores case", func(t *testing.T) {
		sink := diag.NewCollector()
		ctx := language.NewContext("a.php").WithClass(fq(`\shape`))
		v := NewClassNameValidator(ctx, cb, "SHAPE", sink)
		assert.True(t, v.Validate(nodeOfKind(ast.KindNew, "SHAPE")))
	})

	t.Run("access kinds do not care", func(t *testing.T) {
		sink := diag.NewCollector()
		v := NewClassNameValidator(language.NewContext("a.php"), cb, "Shape", sink)
		assert.True(t, v.Validate(nodeOfKind(ast.KindStaticCall, "Shape")))
		assert.Equal(t, 0, sink.Len())
	})
}

func TestInterfaceInstantiation(t *testing.T) {
	cb := testCodeBase(t)
	for _, ctx := range []language.Context{
		language.NewContext("a.php"),
		language.NewContext("a.php").WithClass(fq(`\Comparable`)),
	} {
		sink := diag.NewCollector()
		v := NewClassNameValidator(ctx, cb, "Comparable", sink)

		require.False(t, language.UnionTypeFromStringInContext("Comparable", ctx).IsNativeType())
		assert.False(t, v.Validate(nodeOfKind(ast.KindNew, "Comparable")))
		got := sink.Diagnostics()
		require.Len(t, got, 1)
		assert.Equal(t, diag.CategoryType, got[0].Category)
		assert.Equal(t, "Cannot instantiate interface Comparable", got[0].Message)
	}
}

func TestInterfaceNamedLikeNativeType(t *testing.T) {
	cb := codebase.New()
	require.NoError(t, cb.AddClass(codebase.NewClass(fq(`\Resource`), codebase.ClassInterface)))
	require.NoError(t, cb.AddClass(codebase.NewClass(fq(`\Integer`), codebase.ClassInterface)))
	ctx := language.NewContext("a.php")

	sink := diag.NewCollector()
	v := NewClassNameValidator(ctx, cb, "Resource", sink)
	require.True(t, language.UnionTypeFromStringInContext("Resource", ctx).IsNativeType())
	assert.True(t, v.Validate(nodeOfKind(ast.KindNew, "Resource")))
	assert.Equal(t, 0, sink.Len())

	v = NewClassNameValidator(ctx, cb, "Integer", sink)
	require.False(t, language.UnionTypeFromStringInContext("Integer", ctx).IsNativeType())
	assert.False(t, v.Validate(nodeOfKind(ast.KindNew, "Integer")))
	got := sink.Diagnostics()
	require.Len(t, got, 1)
	assert.Equal(t, "Cannot instantiate interface Integer", got[0].Message)
}

func TestAliasNamedClassesInNamespace(t *testing.T) {
	cb := codebase.New()
	require.NoError(t, cb.AddClass(codebase.NewClass(fq(`\App\Shape`), codebase.ClassAbstract)))
	require.NoError(t, cb.AddClass(codebase.NewClass(fq(`\App\Double`), codebase.ClassAbstract)))
	cb.Freeze()
	ctx := language.NewContext("a.php").WithNamespace("App")

	for _, name := range []string{"Shape", "Double"} {
		sink := diag.NewCollector()
		v := NewClassNameValidator(ctx, cb, name, sink)
		assert.Equal(t, fq(`\App\`+name), v.ClassFQSEN())
		assert.False(t, v.Validate(nodeOfKind(ast.KindNew, name)), name)
		got := sink.Diagnostics()
		require.Len(t, got, 1, name)
		assert.Equal(t, diag.CategoryType, got[0].Category)
		assert.Equal(t, "Cannot instantiate abstract class "+name, got[0].Message)
	}

	for _, kind := range []ast.Kind{ast.KindInstanceOf, ast.KindStaticCall} {
		sink := diag.NewCollector()
		v := NewClassNameValidator(ctx, cb, "Long", sink)
		assert.False(t, v.Validate(nodeOfKind(kind, "Long")), kind.String())
		got := sink.Diagnostics()
		require.Len(t, got, 1)
		assert.Equal(t, diag.CategoryUndef, got[0].Category)
		assert.Equal(t, `call to undeclared class \App\Long`, got[0].Message)
	}
}

func TestConcreteInstantiationAlwaysPasses(t *testing.T) {
	cb := testCodeBase(t)
	for _, ctx := range []language.Context{
		language.NewContext("a.php"),
		language.NewContext("a.php").WithClass(fq(`\Shape`)),
		language.NewContext("a.php").WithNamespace("Other").WithClass(fq(`\Other\X`)).WithScope(language.ScopeClosure),
	} {
		sink := diag.NewCollector()
		v := NewClassNameValidator(ctx, cb, `\Circle`, sink)
		assert.True(t, v.Validate(nodeOfKind(ast.KindNew, `\Circle`)))
		assert.Equal(t, 0, sink.Len())
	}
}

func TestDefaultHandler(t *testing.T) {
	cb := testCodeBase(t)
	ctx := language.NewContext("a.php")

	t.Run("class slot redirects to instantiation", func(t *testing.T) {
		sink := diag.NewCollector()
		v := NewClassNameValidator(ctx, cb, "Shape", sink)
		assert.False(t, v.Validate(nodeOfKind(ast.KindStaticProp, "Shape")))
		got := sink.Diagnostics()
		require.Len(t, got, 1)
		assert.Equal(t, "Cannot instantiate abstract class Shape", got[0].Message)
	})

	t.Run("unknown shape is reported", func(t *testing.T) {
		sink := diag.NewCollector()
		v := NewClassNameValidator(ctx, cb, "Circle", sink)
		assert.False(t, v.Validate(ast.New(ast.KindEcho, 0, 11)))
		got := sink.Diagnostics()
		require.Len(t, got, 1)
		assert.Equal(t, diag.CategoryUndef, got[0].Category)
		assert.Equal(t, "Unknown node type", got[0].Message)
		assert.Equal(t, 11, got[0].Line)
	})

	t.Run("nil node passes silently", func(t *testing.T) {
		sink := diag.NewCollector()
		v := NewClassNameValidator(ctx, cb, "Missing", sink)
		assert.True(t, v.Validate(nil))
		assert.Equal(t, 0, sink.Len())
	})

	t.Run("nil class slot is not a class slot", func(t *testing.T) {
		sink := diag.NewCollector()
		v := NewClassNameValidator(ctx, cb, "Circle", sink)
		assert.False(t, v.Validate(ast.New(ast.KindStaticProp, 0, 2, ast.C("class", nil))))
		require.Equal(t, 1, sink.Len())
		assert.Equal(t, diag.CategoryUndef, sink.Diagnostics()[0].Category)
	})
}

func TestValidatorResolvesOnce(t *testing.T) {
	cb := testCodeBase(t)
	ctx := language.NewContext("a.php").WithNamespace("App")
	v := NewClassNameValidator(ctx, cb, "Point", nil)
	assert.Equal(t, fq(`\App\Point`), v.ClassFQSEN())
	assert.Equal(t, fmt.Sprint(fq(`\App\Point`)), v.ClassFQSEN().String())
	assert.True(t, v.Validate(nodeOfKind(ast.KindNew, "Point")))
}
