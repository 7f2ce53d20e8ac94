package pkgresolve

import (
	"bufio"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/pyxref/pyxref/internal/symbol"
)

// PackageMetadata is the on-disk discovery result for one installed
// third-party package: its distribution name/version and the dotted
// module paths its files resolve to, matching the shape §4.5 rule 3
// needs ("with its extension stripped and path separators replaced by
// dots").
type PackageMetadata struct {
	Name    string   `json:"name"`
	Version string   `json:"version"`
	Modules []string `json:"modules"`
}

// Discover scans each of roots (site-packages-shaped directories) for
// `*.dist-info/METADATA` and `*.egg-info/PKG-INFO` files, extracting the
// distribution name/version and the modules it owns. Scanning the
// (usually few) roots runs concurrently via errgroup, mirroring the
// teacher's worker-pool idiom in internal/index/builder.go; this is
// ambient fan-out over an external discovery step, not the core walker.
func Discover(ctx context.Context, roots []string, cache *Cache) (map[string]*symbol.PackageInfo, error) {
	fingerprint, err := fingerprintRoots(roots)
	if err == nil && cache != nil {
		if cached, ok := cache.Get(fingerprint); ok {
			return toPackageInfo(cached), nil
		}
	}

	results := make([]map[string]*PackageMetadata, len(roots))
	g, ctx := errgroup.WithContext(ctx)
	for i, root := range roots {
		i, root := i, root
		g.Go(func() error {
			found, err := scanRoot(ctx, root)
			if err != nil {
				return err
			}
			results[i] = found
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	merged := make(map[string]*PackageMetadata)
	for _, found := range results {
		for k, v := range found {
			merged[k] = v
		}
	}

	if cache != nil && fingerprint != "" {
		_ = cache.Put(fingerprint, merged)
	}

	return toPackageInfo(merged), nil
}

func toPackageInfo(merged map[string]*PackageMetadata) map[string]*symbol.PackageInfo {
	byModule := make(map[string]*symbol.PackageInfo)
	for _, meta := range merged {
		pkg := symbol.NewPackageInfo(meta.Name, meta.Version)
		for _, mod := range meta.Modules {
			pkg.Files[mod] = struct{}{}
			byModule[mod] = pkg
		}
	}
	return byModule
}

func scanRoot(ctx context.Context, root string) (map[string]*PackageMetadata, error) {
	found := make(map[string]*PackageMetadata)

	entries, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			return found, nil
		}
		return nil, fmt.Errorf("pkgresolve: read %s: %w", root, err)
	}

	for _, entry := range entries {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		if !entry.IsDir() {
			continue
		}
		name := entry.Name()

		var metaPath, distKind string
		switch {
		case strings.HasSuffix(name, ".dist-info"):
			metaPath = filepath.Join(root, name, "METADATA")
			distKind = strings.TrimSuffix(name, ".dist-info")
		case strings.HasSuffix(name, ".egg-info"):
			metaPath = filepath.Join(root, name, "PKG-INFO")
			distKind = strings.TrimSuffix(name, ".egg-info")
		default:
			continue
		}

		pkgName, version, ok := readMetadata(metaPath)
		if !ok {
			pkgName = distNameOnly(distKind)
		}
		if pkgName == "" {
			continue
		}

		meta := &PackageMetadata{Name: pkgName, Version: version}
		modules := modulesForDistribution(root, distKind)
		meta.Modules = modules
		found[pkgName] = meta
	}

	return found, nil
}

// distNameOnly strips a trailing "-<version>" suffix from a dist-info
// directory stem when METADATA could not be read.
func distNameOnly(stem string) string {
	if i := strings.LastIndex(stem, "-"); i > 0 {
		return stem[:i]
	}
	return stem
}

func readMetadata(path string) (name, version string, ok bool) {
	f, err := os.Open(path)
	if err != nil {
		return "", "", false
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			break // end of header block
		}
		switch {
		case strings.HasPrefix(line, "Name:"):
			name = strings.TrimSpace(strings.TrimPrefix(line, "Name:"))
		case strings.HasPrefix(line, "Version:"):
			version = strings.TrimSpace(strings.TrimPrefix(line, "Version:"))
		}
	}
	return name, version, name != ""
}

// modulesForDistribution finds the top-level module(s) a distribution
// owns by reading its top_level.txt if present, falling back to
// the distribution's own import name.
func modulesForDistribution(root, distStem string) []string {
	for _, infoSuffix := range []string{".dist-info", ".egg-info"} {
		topLevel := filepath.Join(root, distStem+infoSuffix, "top_level.txt")
		if data, err := os.ReadFile(topLevel); err == nil {
			var modules []string
			for _, line := range strings.Split(string(data), "\n") {
				line = strings.TrimSpace(line)
				if line != "" {
					modules = append(modules, line, line+".__init__")
				}
			}
			if len(modules) > 0 {
				return modules
			}
		}
	}
	base := distNameOnly(distStem)
	base = strings.ReplaceAll(base, "-", "_")
	return []string{base, base + ".__init__"}
}

func fingerprintRoots(roots []string) (string, error) {
	h := sha256.New()
	for _, root := range roots {
		entries, err := os.ReadDir(root)
		if err != nil {
			continue
		}
		for _, e := range entries {
			info, err := e.Info()
			if err != nil {
				continue
			}
			fmt.Fprintf(h, "%s:%d:%d\n", filepath.Join(root, e.Name()), info.Size(), info.ModTime().UnixNano())
		}
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
