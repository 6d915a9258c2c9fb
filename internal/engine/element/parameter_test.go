package element

import (
	"testing"

	"nominal/internal/core/diag"
	"nominal/internal/engine/ast"
	"nominal/internal/engine/language"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func param(name string, flags ast.Flags, children ...ast.Child) *ast.Node {
	all := append([]ast.Child{ast.C("type", nil), ast.C("name", name)}, children...)
	return ast.New(ast.KindParam, flags, 7, all...)
}

func classConst(class, name string) *ast.Node {
	return ast.New(ast.KindClassConst, 0, 7,
		ast.C("class", ast.New(ast.KindName, ast.NameNotFQ, 7, ast.C("name", class))),
		ast.C("const", name),
	)
}

func TestFromNodeRequired(t *testing.T) {
	ctx := language.NewContext("f.php").WithNamespace("App")
	typed := param("shape", 0)
	typed.Children.Set("type", ast.New(ast.KindName, ast.NameNotFQ, 7, ast.C("name", "Shape")))

	p := FromNode(ctx, nil, typed)
	assert.Equal(t, "shape", p.Name())
	assert.Equal(t, `\App\Shape`, p.UnionType().String())
	assert.True(t, p.IsRequired())
	assert.False(t, p.HasDefaultValue())
	assert.Equal(t, DefaultNone, p.Default().Kind())
	assert.True(t, p.DefaultValueType().IsEmpty())
	assert.Equal(t, 7, p.Line())
	assert.Equal(t, "f.php", p.File())
	assert.Equal(t, `\App\Shape $shape`, p.String())
}

func TestFromNodeRecordedDefaults(t *testing.T) {
	ctx := language.NewContext("f.php")

	tests := []struct {
		name     string
		def      any
		wantType string
	}{
		{"scalar int", int64(1), "int"},
		{"scalar string", "x", "string"},
		{"array literal", ast.New(ast.KindArray, 0, 7), "array"},
		{"null constant", ast.New(ast.KindConst, 0, 7, ast.C("name", ast.New(ast.KindName, ast.NameNotFQ, 7, ast.C("name", "null")))), "null"},
		{"unary op", ast.New(ast.KindUnaryOp, ast.UnaryMinus, 7, ast.C("expr", 1.5)), "float"},
		{"unknown constant", ast.New(ast.KindConst, 0, 7, ast.C("name", ast.New(ast.KindName, ast.NameNotFQ, 7, ast.C("name", "NOPE")))), ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := FromNode(ctx, nil, param("a", 0, ast.C("default", tt.def)))
			assert.True(t, p.HasDefaultValue())
			assert.True(t, p.IsOptional())
			assert.Equal(t, DefaultRecorded, p.Default().Kind())
			v, ok := p.DefaultValue()
			assert.True(t, ok)
			assert.Equal(t, tt.def, v)
			assert.Equal(t, tt.wantType, p.DefaultValueType().String())
		})
	}
}

func TestFromNodeDeferredDefault(t *testing.T) {
	ctx := language.NewContext("f.php")
	p := FromNode(ctx, nil, param("mode", 0, ast.C("default", classConst("Mode", "FAST"))))

	assert.True(t, p.HasDefaultValue())
	assert.True(t, p.IsOptional())
	assert.Equal(t, DefaultDeferred, p.Default().Kind())
	assert.True(t, p.DefaultValueType().Equal(language.NullUnionType()))
	v, ok := p.DefaultValue()
	assert.False(t, ok)
	assert.Nil(t, v)
	assert.Equal(t, "$mode = null", p.String())
}

func TestFlags(t *testing.T) {
	ctx := language.NewContext("f.php")
	p := FromNode(ctx, nil, param("rest", ast.ParamVariadic|ast.ParamRef))
	assert.True(t, p.IsVariadic())
	assert.True(t, p.IsPassByReference())
	assert.True(t, p.IsRequired())
	assert.Equal(t, "&$rest ...", p.String())

	plain := FromNode(ctx, nil, param("x", 0))
	assert.False(t, plain.IsVariadic())
	assert.False(t, plain.IsPassByReference())
}

func TestSetUnionType(t *testing.T) {
	ctx := language.NewContext("f.php")
	p := FromNode(ctx, nil, param("x", 0))
	p.SetUnionType(language.UnionTypeFromStringInContext("int|string", ctx))
	assert.Equal(t, "int|string $x", p.String())
}

func TestListFromNode(t *testing.T) {
	ctx := language.NewContext("f.php")

	t.Run("required after optional", func(t *testing.T) {
		sink := diag.NewCollector()
		list := ast.List(ast.KindParamList, 4,
			param("a", 0),
			param("b", 0, ast.C("default", int64(1))),
			param("c", 0),
		)
		params := ListFromNode(ctx, nil, list, sink)

		require.Len(t, params, 3)
		assert.Equal(t, []string{"a", "b", "c"}, []string{params[0].Name(), params[1].Name(), params[2].Name()})
		got := sink.Diagnostics()
		require.Len(t, got, 1)
		assert.Equal(t, diag.CategoryParam, got[0].Category)
		assert.Equal(t, "required arg follows optional", got[0].Message)
		assert.Equal(t, 4, got[0].Line)
		assert.Equal(t, "f.php", got[0].File)
	})

	t.Run("nil emitter discards", func(t *testing.T) {
		list := ast.List(ast.KindParamList, 4,
			param("a", 0, ast.C("default", int64(1))),
			param("b", 0),
		)
		var params []*Parameter
		require.NotPanics(t, func() { params = ListFromNode(ctx, nil, list, nil) })
		assert.Len(t, params, 2)
	})

	t.Run("trailing optionals", func(t *testing.T) {
		sink := diag.NewCollector()
		list := ast.List(ast.KindParamList, 4,
			param("a", 0),
			param("b", 0, ast.C("default", int64(1))),
			param("c", 0, ast.C("default", int64(2))),
		)
		params := ListFromNode(ctx, nil, list, sink)
		assert.Len(t, params, 3)
		assert.Equal(t, 0, sink.Len())
	})

	t.Run("deferred default counts as optional", func(t *testing.T) {
		sink := diag.NewCollector()
		list := ast.List(ast.KindParamList, 9,
			param("a", 0, ast.C("default", classConst("A", "B"))),
			param("b", 0),
			param("c", 0),
		)
		params := ListFromNode(ctx, nil, list, sink)
		assert.Len(t, params, 3)
		got := sink.Diagnostics()
		require.Len(t, got, 2)
		assert.Equal(t, diag.CategoryParam, got[0].Category)
		assert.Equal(t, diag.CategoryParam, got[1].Category)
	})

	t.Run("empty", func(t *testing.T) {
		sink := diag.NewCollector()
		assert.Empty(t, ListFromNode(ctx, nil, ast.List(ast.KindParamList, 1), sink))
		assert.Nil(t, ListFromNode(ctx, nil, nil, sink))
	})
}
