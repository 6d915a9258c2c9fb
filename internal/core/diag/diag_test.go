package diag

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectorKeepsOrder(t *testing.T) {
	c := NewCollector()
	c.Emit(CategoryParam, "required arg follows optional", "a.php", 3)
	c.Emit(CategoryUndef, `call to undeclared class \Foo`, "a.php", 1)

	got := c.Diagnostics()
	require.Len(t, got, 2)
	assert.Equal(t, CategoryParam, got[0].Category)
	assert.Equal(t, SeverityNormal, got[0].Severity)
	assert.Equal(t, SeverityCritical, got[1].Severity)
	assert.Equal(t, `a.php:1 EUNDEF call to undeclared class \Foo`, got[1].String())

	assert.True(t, c.HasAtLeast(SeverityCritical))

	got[0].Message = "changed"
	assert.Equal(t, "required arg follows optional", c.Diagnostics()[0].Message)
	assert.False(t, NewCollector().HasAtLeast(SeverityLow))
}

func TestFilter(t *testing.T) {
	c := NewCollector()
	f := &Filter{
		Next:        c,
		Suppress:    map[Category]bool{CategoryParam: true},
		MinSeverity: SeverityCritical,
	}

	f.Emit(CategoryParam, "suppressed", "a.php", 1)
	f.Emit(CategoryRedef, "below threshold", "a.php", 2)
	f.Emit(CategoryType, "kept", "a.php", 3)

	got := c.Diagnostics()
	require.Len(t, got, 1)
	assert.Equal(t, "kept", got[0].Message)
}

func TestLogged(t *testing.T) {
	c := NewCollector()
	var e Emitter = &Logged{Next: c}
	e.Emit(CategoryType, "x", "f.php", 9)
	assert.Equal(t, 1, c.Len())

	(&Logged{}).Emit(CategoryType, "x", "f.php", 9)
	Discard.Emit(CategoryType, "x", "f.php", 9)
}

func TestParse(t *testing.T) {
	c, err := ParseCategory("eundef")
	require.NoError(t, err)
	assert.Equal(t, CategoryUndef, c)
	_, err = ParseCategory("EWAT")
	assert.Error(t, err)

	s, err := ParseSeverity("Critical")
	require.NoError(t, err)
	assert.Equal(t, SeverityCritical, s)
	_, err = ParseSeverity("loud")
	assert.Error(t, err)

	for _, c := range Categories {
		assert.NotEmpty(t, c.Description())
	}
}
