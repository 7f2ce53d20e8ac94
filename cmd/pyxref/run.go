package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/pyxref/pyxref/internal/pkgresolve"
	"github.com/pyxref/pyxref/internal/xref"
)

// resolveProjectName defaults to the project root's base name when
// --project-name is not given.
func resolveProjectName(cfg *runConfig, projectRoot string) string {
	if cfg.ProjectName != "" {
		return cfg.ProjectName
	}
	abs, err := filepath.Abs(projectRoot)
	if err != nil {
		return filepath.Base(projectRoot)
	}
	return filepath.Base(abs)
}

// resolveProjectVersion defaults to `git rev-parse HEAD` run in
// projectRoot, falling back to "0.0.0" if projectRoot isn't a git
// repository or git isn't available.
func resolveProjectVersion(cfg *runConfig, projectRoot string) string {
	if cfg.ProjectVersion != "" {
		return cfg.ProjectVersion
	}
	cmd := exec.Command("git", "rev-parse", "HEAD")
	cmd.Dir = projectRoot
	out, err := cmd.Output()
	if err != nil {
		return "0.0.0"
	}
	return strings.TrimSpace(string(out))
}

// pkgresolveCacheDir is where the third-party discovery cache lives,
// mirroring the teacher's ~/.cache/<tool>/index default.
func pkgresolveCacheDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".pyxref-cache"
	}
	return filepath.Join(home, ".cache", "pyxref", "pkgresolve")
}

// buildResolver wires a Resolver for projectRoot: the project package,
// the stdlib package, and a third-party package set discovered (and
// cached) from cfg.SitePackages.
func buildResolver(ctx context.Context, cfg *runConfig, projectRoot string) (*pkgresolve.Resolver, error) {
	projectName := resolveProjectName(cfg, projectRoot)
	projectVersion := resolveProjectVersion(cfg, projectRoot)

	resolver := pkgresolve.New(projectRoot, projectName, projectVersion, "", "")

	if len(cfg.SitePackages) == 0 {
		return resolver, nil
	}

	cache, err := pkgresolve.OpenCache(pkgresolveCacheDir())
	if err != nil {
		return nil, fmt.Errorf("failed to open package discovery cache: %w", err)
	}
	defer cache.Close()

	byModule, err := pkgresolve.Discover(ctx, cfg.SitePackages, cache)
	if err != nil {
		return nil, fmt.Errorf("failed to discover third-party packages: %w", err)
	}
	resolver.LoadThirdParty(byModule)

	return resolver, nil
}

// runIndex drives one full Orchestrator run against projectRoot, writing
// the resulting index through sink. Shared by `index` and each fsnotify
// trigger inside `watch`.
func runIndex(ctx context.Context, cfg *runConfig, projectRoot string, sink xref.Sink) error {
	resolver, err := buildResolver(ctx, cfg, projectRoot)
	if err != nil {
		return err
	}

	orch := xref.New(xref.Config{
		ProjectRoot:   projectRoot,
		ToolVersion:   version,
		ToolArguments: os.Args[1:],
		Verbose:       cfg.Verbose,
	}, resolver)

	return orch.Run(ctx, sink)
}
