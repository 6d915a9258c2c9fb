package store

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
)

// LoadManifest reads declarations from a TOML manifest:
//
//	[[class]]
//	name = '\Vendor\Shape'
//	kind = "abstract"
//	implements = ['\Countable']
//
//	  [[class.method]]
//	  name = "area"
//	  returns = "float"
//
//	[[function]]
//	name = '\Vendor\helper'
//
//	  [[function.param]]
//	  name = "limit"
//	  type = "int"
//	  optional = true
//	  default = 10
//
//	[[constant]]
//	name = '\Vendor\VERSION'
//	value = "2.1"
//
// Declarations without a file are attributed to the manifest.
func LoadManifest(path string) (Declarations, error) {
	var d Declarations
	meta, err := toml.DecodeFile(path, &d)
	if err != nil {
		return Declarations{}, fmt.Errorf("decode manifest %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		return Declarations{}, fmt.Errorf("%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}

	for i := range d.Classes {
		if d.Classes[i].File == "" {
			d.Classes[i].File = path
		}
	}
	for i := range d.Functions {
		if d.Functions[i].File == "" {
			d.Functions[i].File = path
		}
	}
	for i := range d.Constants {
		if d.Constants[i].File == "" {
			d.Constants[i].File = path
		}
	}
	return d, nil
}

// LoadManifests reads and merges every manifest in order.
func LoadManifests(paths []string) (Declarations, error) {
	var all Declarations
	for _, p := range paths {
		d, err := LoadManifest(p)
		if err != nil {
			return Declarations{}, err
		}
		all = all.Merge(d)
	}
	return all, nil
}
