// Package pkgresolve implements the PackageResolver collaborator (spec
// §4.5): classifying a file/module as belonging to the project package,
// the stdlib package, or a discovered third-party package.
package pkgresolve

import (
	"path/filepath"
	"strings"
	"sync"

	"github.com/pyxref/pyxref/internal/symbol"
)

// Resolver implements package_for(file_path, module_name) -> PackageInfo | none.
type Resolver struct {
	ProjectRoot string
	StdlibRoot  string // empty if unknown; module_name == "builtins" always matches stdlib regardless

	project *symbol.PackageInfo
	stdlib  *symbol.PackageInfo

	thirdParty map[string]*symbol.PackageInfo // module name (dotted, extension stripped) -> package

	mu    sync.RWMutex
	cache map[string]*symbol.PackageInfo // module_name -> resolved package, memoized per §4.5 rule 3
}

// New builds a Resolver. projectName/projectVersion populate the project
// package; stdlibVersion populates the distinguished stdlib package
// (spec §3: name = "python-stdlib").
func New(projectRoot, projectName, projectVersion, stdlibRoot, stdlibVersion string) *Resolver {
	return &Resolver{
		ProjectRoot: projectRoot,
		StdlibRoot:  stdlibRoot,
		project:     symbol.NewPackageInfo(projectName, projectVersion),
		stdlib:      symbol.NewPackageInfo(symbol.StdlibPackageName, stdlibVersion),
		thirdParty:  make(map[string]*symbol.PackageInfo),
		cache:       make(map[string]*symbol.PackageInfo),
	}
}

// ProjectPackage returns the distinguished project package.
func (r *Resolver) ProjectPackage() *symbol.PackageInfo { return r.project }

// StdlibPackage returns the distinguished stdlib package.
func (r *Resolver) StdlibPackage() *symbol.PackageInfo { return r.stdlib }

// LoadThirdParty installs the result of an external discovery pass (see
// Discover) keyed by every dotted module path each package's files
// resolve to.
func (r *Resolver) LoadThirdParty(byModule map[string]*symbol.PackageInfo) {
	for k, v := range byModule {
		r.thirdParty[k] = v
	}
}

// PackageFor implements the §4.5 rule order.
func (r *Resolver) PackageFor(filePath, moduleName string) (*symbol.PackageInfo, bool) {
	if filePath != "" && r.ProjectRoot != "" && withinRoot(r.ProjectRoot, filePath) {
		return r.project, true
	}

	if moduleName == "builtins" {
		return r.stdlib, true
	}
	if filePath != "" && r.StdlibRoot != "" && withinRoot(r.StdlibRoot, filePath) {
		return r.stdlib, true
	}

	if moduleName == "" {
		return nil, false
	}

	r.mu.RLock()
	cached, ok := r.cache[moduleName]
	r.mu.RUnlock()
	if ok {
		return cached, true
	}

	if pkg, ok := r.thirdParty[moduleName]; ok {
		r.memoize(moduleName, pkg)
		return pkg, true
	}
	if pkg, ok := r.thirdParty[moduleName+".__init__"]; ok {
		r.memoize(moduleName, pkg)
		return pkg, true
	}

	return nil, false
}

func (r *Resolver) memoize(moduleName string, pkg *symbol.PackageInfo) {
	r.mu.Lock()
	r.cache[moduleName] = pkg
	r.mu.Unlock()
}

func withinRoot(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
