package app

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"nominal/internal/core/errors"
	"nominal/internal/engine/ast"

	"github.com/gobwas/glob"
)

// treeExt is the extension of php-ast JSON dumps.
const treeExt = ".json"

// Source is one decoded syntax tree.
type Source struct {
	Path string
	Name string
	Root *ast.Node
}

func compileGlobs(patterns []string, label string) ([]glob.Glob, error) {
	out := make([]glob.Glob, 0, len(patterns))
	for _, p := range patterns {
		g, err := glob.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid %s pattern %q: %w", label, p, err)
		}
		out = append(out, g)
	}
	return out, nil
}

func matchesAny(globs []glob.Glob, name string) bool {
	for _, g := range globs {
		if g.Match(name) {
			return true
		}
	}
	return false
}

// ScanInputs lists the syntax tree files below paths in a stable order.
// Inputs naming a file are taken as given; directories are walked, skipping
// excluded directory and file base names.
func ScanInputs(paths, excludeDirs, excludeFiles []string) ([]string, error) {
	dirGlobs, err := compileGlobs(excludeDirs, "exclude dir")
	if err != nil {
		return nil, err
	}
	fileGlobs, err := compileGlobs(excludeFiles, "exclude file")
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var files []string
	add := func(path string) {
		path = filepath.Clean(path)
		if !seen[path] {
			seen[path] = true
			files = append(files, path)
		}
	}

	for _, root := range paths {
		info, err := os.Stat(root)
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeInvalidInput, "input not readable").WithContext(errors.CtxPath, root)
		}
		if !info.IsDir() {
			add(root)
			continue
		}

		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			base := filepath.Base(path)
			if d.IsDir() {
				if path != root && matchesAny(dirGlobs, base) {
					return filepath.SkipDir
				}
				return nil
			}
			if !strings.EqualFold(filepath.Ext(base), treeExt) || matchesAny(fileGlobs, base) {
				return nil
			}
			add(path)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	slices.Sort(files)
	return files, nil
}

// LoadTree decodes the syntax tree stored at path.
func LoadTree(path string) (*ast.Node, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInvalidInput, "open syntax tree").WithContext(errors.CtxFile, path)
	}
	defer f.Close()

	root, err := ast.Decode(f)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInvalidInput, "decode syntax tree").WithContext(errors.CtxFile, path)
	}
	return root, nil
}

// SourceName is the file name findings are attributed to: the dump path
// without its .json suffix when that leaves a PHP file name.
func SourceName(display string) string {
	trimmed := strings.TrimSuffix(display, treeExt)
	if trimmed != display && strings.EqualFold(filepath.Ext(trimmed), ".php") {
		return trimmed
	}
	return display
}
