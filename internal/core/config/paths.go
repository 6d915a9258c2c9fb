package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

type ResolvedPaths struct {
	ProjectRoot string
	DatabaseDir string
	DBPath      string
	Manifests   []string
	Inputs      []string
	OutputPath  string
}

// ResolvePaths anchors every relative path of cfg at the project root. The
// root is paths.project_root when set and otherwise detected from cwd.
func ResolvePaths(cfg *Config, cwd string) (ResolvedPaths, error) {
	if strings.TrimSpace(cwd) == "" {
		return ResolvedPaths{}, fmt.Errorf("cwd must not be empty")
	}

	projectRoot := strings.TrimSpace(cfg.Paths.ProjectRoot)
	if projectRoot != "" {
		projectRoot = ResolveRelative(cwd, projectRoot)
	} else {
		root, err := DetectProjectRoot([]string{cwd})
		if err != nil {
			return ResolvedPaths{}, err
		}
		projectRoot = root
	}

	databaseDir := ResolveRelative(projectRoot, cfg.Paths.DatabaseDir)
	dbPath := strings.TrimSpace(cfg.CodeBase.DBPath)
	if filepath.IsAbs(dbPath) {
		dbPath = filepath.Clean(dbPath)
	} else {
		dbPath = filepath.Join(databaseDir, dbPath)
	}

	resolved := ResolvedPaths{
		ProjectRoot: filepath.Clean(projectRoot),
		DatabaseDir: filepath.Clean(databaseDir),
		DBPath:      filepath.Clean(dbPath),
	}
	for _, m := range cfg.CodeBase.Manifests {
		resolved.Manifests = append(resolved.Manifests, ResolveRelative(projectRoot, m))
	}
	for _, in := range cfg.Analysis.Inputs {
		resolved.Inputs = append(resolved.Inputs, ResolveRelative(projectRoot, in))
	}
	if out := strings.TrimSpace(cfg.Output.Path); out != "" && out != "-" {
		resolved.OutputPath = ResolveRelative(projectRoot, out)
	}
	return resolved, nil
}

func ResolveRelative(base, value string) string {
	raw := strings.TrimSpace(value)
	if raw == "" {
		return filepath.Clean(base)
	}
	if filepath.IsAbs(raw) {
		return filepath.Clean(raw)
	}
	return filepath.Clean(filepath.Join(base, raw))
}

// DetectProjectRoot walks up from each candidate until it finds a directory
// holding a project marker. It falls back to the working directory.
func DetectProjectRoot(candidates []string) (string, error) {
	markers := []string{
		"nominal.toml",
		"composer.json",
		".git",
	}

	for _, candidate := range candidates {
		if strings.TrimSpace(candidate) == "" {
			continue
		}

		abs, err := filepath.Abs(candidate)
		if err != nil {
			continue
		}
		root := abs
		if info, err := os.Stat(abs); err == nil && !info.IsDir() {
			root = filepath.Dir(abs)
		}

		for {
			for _, marker := range markers {
				if _, err := os.Stat(filepath.Join(root, marker)); err == nil {
					return filepath.Clean(root), nil
				}
			}
			parent := filepath.Dir(root)
			if parent == root {
				break
			}
			root = parent
		}
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return filepath.Clean(cwd), nil
}
