package store

import (
	"os"
	"path/filepath"
	"testing"

	"nominal/internal/core/errors"
	"nominal/internal/engine/codebase"
	"nominal/internal/engine/element"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeManifest(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "vendor.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const vendorManifest = `
[[class]]
name = '\Vendor\Shape'
kind = "abstract"
implements = ['Countable']

  [[class.method]]
  name = "area"
  abstract = true
  returns = "float"

  [[class.method]]
  name = "create"
  visibility = "protected"
  static = true

    [[class.method.param]]
    name = "sides"
    type = "int"
    optional = true
    default = 4

[[class]]
name = '\Vendor\Drawable'
kind = "interface"

[[function]]
name = '\Vendor\helper'
returns = "string"

  [[function.param]]
  name = "mode"
  deferred = true

[[constant]]
name = '\Vendor\VERSION'
value = "2.1"
line = 12
`

func TestLoadManifest(t *testing.T) {
	path := writeManifest(t, vendorManifest)

	d, err := LoadManifest(path)
	require.NoError(t, err)
	assert.Equal(t, 4, d.Len())
	assert.Equal(t, path, d.Classes[0].File)
	assert.Equal(t, path, d.Functions[0].File)
	assert.Equal(t, 12, d.Constants[0].Line)

	cb := codebase.New()
	counts, err := d.AddTo(cb, path)
	require.NoError(t, err)
	assert.Equal(t, Counts{Added: 4}, counts)

	shape, err := cb.ClassByFQSEN(fq(t, `\Vendor\Shape`))
	require.NoError(t, err)
	assert.True(t, shape.IsAbstract())
	assert.Equal(t, `\Countable`, shape.Interfaces[0].String())
	assert.True(t, shape.Methods["area"].IsAbstract())

	create := shape.Methods["create"]
	require.Len(t, create.Parameters, 1)
	sides := create.Parameters[0]
	value, ok := sides.DefaultValue()
	assert.True(t, ok)
	assert.Equal(t, int64(4), value)
	assert.Equal(t, "int", sides.DefaultValueType().String())

	drawable, err := cb.ClassByFQSEN(fq(t, `\Vendor\Drawable`))
	require.NoError(t, err)
	assert.True(t, drawable.IsInterface())

	helper, err := cb.FunctionByFQSEN(fq(t, `\Vendor\helper`))
	require.NoError(t, err)
	assert.Equal(t, element.DefaultDeferred, helper.Parameters[0].Default().Kind())

	version, err := cb.ConstantByFQSEN(fq(t, `\Vendor\VERSION`))
	require.NoError(t, err)
	assert.Equal(t, "string", version.Type.String())
}

func TestManifestErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"unknown key", "[[class]]\nname = 'A'\ncolour = 'red'\n", "class.colour"},
		{"syntax", "[[class]\n", "decode manifest"},
		{"class kind", "[[class]]\nname = 'A'\nkind = 'enum'\n", `unknown class kind "enum"`},
		{"visibility", "[[class]]\nname = 'A'\n[[class.method]]\nname = 'm'\nvisibility = 'internal'\n", `unknown visibility "internal"`},
		{"empty name", "[[constant]]\nvalue = 1\n", "constant name must not be empty"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := LoadManifest(writeManifest(t, tt.content))
			if err == nil {
				_, err = d.AddTo(codebase.New(), "manifest")
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestAddToSkipsDeclaredNames(t *testing.T) {
	cb := codebase.New()
	require.NoError(t, cb.AddClass(codebase.NewClass(fq(t, `\Vendor\Shape`), 0)))

	d, err := LoadManifest(writeManifest(t, vendorManifest))
	require.NoError(t, err)

	counts, err := d.AddTo(cb, "vendor.toml")
	require.NoError(t, err)
	assert.Equal(t, Counts{Added: 3, Skipped: 1}, counts)

	shape, err := cb.ClassByFQSEN(fq(t, `\Vendor\Shape`))
	require.NoError(t, err)
	assert.False(t, shape.IsAbstract())

	again, err := d.AddTo(cb, "vendor.toml")
	require.NoError(t, err)
	assert.Equal(t, Counts{Skipped: 4}, again, "functions and constants are skipped like classes")

	lower := Declarations{
		Functions: []FunctionRecord{{Name: `\VENDOR\Helper`}},
		Constants: []ConstantRecord{{Name: `\vendor\VERSION`}, {Name: `\Vendor\version`}},
	}
	counts, err = lower.AddTo(cb, "other.toml")
	require.NoError(t, err)
	assert.Equal(t, Counts{Added: 1, Skipped: 2}, counts, "constant names are case-sensitive")
}

func TestAddToFrozenCodeBase(t *testing.T) {
	cb := codebase.New()
	cb.Freeze()

	_, err := Declarations{Classes: []ClassRecord{{Name: `\A`}}}.AddTo(cb, "vendor.toml")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeFrozen))

	_, err = Declarations{}.AddTo(cb, "empty.toml")
	assert.True(t, errors.IsCode(err, errors.CodeFrozen), "a frozen code base refuses even an empty import")
}

func TestLoadManifests(t *testing.T) {
	a := writeManifest(t, "[[class]]\nname = 'A'\n")
	b := writeManifest(t, "[[function]]\nname = 'f'\n")

	d, err := LoadManifests([]string{a, b})
	require.NoError(t, err)
	assert.Len(t, d.Classes, 1)
	assert.Len(t, d.Functions, 1)

	_, err = LoadManifests([]string{a, filepath.Join(t.TempDir(), "missing.toml")})
	assert.Error(t, err)
}
