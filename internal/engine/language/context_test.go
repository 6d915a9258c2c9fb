package language

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContextIsValue(t *testing.T) {
	base := NewContext("src/a.php").WithNamespace("App")
	inClass := base.WithClass(NewFQSEN("App", "Shape"))
	inMethod := inClass.WithScope(ScopeMethod).WithLine(12)

	assert.False(t, base.HasClassFQSEN())
	assert.Equal(t, ScopeGlobal, base.Scope())
	assert.False(t, inClass.IsInFunctionScope())
	assert.Equal(t, 0, base.Line())

	assert.True(t, inMethod.HasClassFQSEN())
	assert.Equal(t, NewFQSEN("App", "Shape"), inMethod.ClassFQSEN())
	assert.Equal(t, ScopeMethod, inMethod.Scope())
	assert.True(t, inMethod.IsInFunctionScope())
	assert.Equal(t, 12, inMethod.Line())
	assert.Equal(t, `\App`, inMethod.Namespace())
	assert.Equal(t, "src/a.php", inMethod.File())
}

func TestContextZeroValue(t *testing.T) {
	var c Context
	assert.Equal(t, GlobalNamespace, c.Namespace())
	assert.False(t, c.HasClassFQSEN())
	assert.True(t, c.ClassFQSEN().IsZero())
}

func TestContextUses(t *testing.T) {
	ctx := NewContext("a.php").WithNamespace("App")
	withUse := ctx.WithUse("", `Vendor\Lib\Client`).WithUse("H", `\Vendor\Http`)

	assert.Equal(t, "Client", ctx.ResolveClassName("Client"), "siblings must not see aliases")
	assert.Equal(t, `\Vendor\Lib\Client`, withUse.ResolveClassName("Client"))
	assert.Equal(t, `\Vendor\Lib\Client`, withUse.ResolveClassName("client"))
	assert.Equal(t, `\Vendor\Http\Request`, withUse.ResolveClassName(`H\Request`))
	assert.Equal(t, `\Client`, withUse.ResolveClassName(`\Client`))
	assert.Equal(t, "Other", withUse.ResolveClassName("Other"))

	assert.Equal(t, "Client", withUse.WithNamespace("Next").ResolveClassName("Client"))
}

func TestContextVariables(t *testing.T) {
	ctx := NewContext("a.php").WithScope(ScopeFunction)
	typed := ctx.WithVariable("x", NativeType(TypeInt).AsUnionType())

	_, ok := ctx.VariableType("x")
	assert.False(t, ok)

	got, ok := typed.VariableType("x")
	assert.True(t, ok)
	assert.Equal(t, "int", got.String())

	_, ok = typed.WithScope(ScopeClosure).VariableType("x")
	assert.False(t, ok)
}
