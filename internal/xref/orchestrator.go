package xref

import (
	"context"
	"os"
	"path/filepath"

	"github.com/pyxref/pyxref/internal/oracle"
	"github.com/pyxref/pyxref/internal/pkgresolve"
	"github.com/pyxref/pyxref/internal/walker"
)

// Config is the Orchestrator's run configuration (§4.1's
// {project_root, project_name, project_version, workspace_root}). Project
// name/version are not repeated here: they are already baked into the
// project PackageInfo carried by the Resolver passed to New.
type Config struct {
	ProjectRoot string

	// ToolVersion/ToolArguments populate the Metadata record's tool_info.
	ToolVersion   string
	ToolArguments []string

	Verbose bool
}

// Orchestrator drives one full run: discover files, resolve the oracle to
// a fixpoint, walk each file, and write the resulting Documents (plus one
// Metadata record) to a Sink. It owns no state across runs.
type Orchestrator struct {
	cfg      Config
	resolver *pkgresolve.Resolver
	log      Logger
}

// New builds an Orchestrator. resolver must already have any third-party
// discovery results loaded (see internal/pkgresolve.Discover) — package
// discovery is an ambient, cacheable concern the Orchestrator does not
// itself perform.
func New(cfg Config, resolver *pkgresolve.Resolver) *Orchestrator {
	log := Logger(func(string, ...any) {})
	if cfg.Verbose {
		log = PrintfLogger()
	}
	return &Orchestrator{cfg: cfg, resolver: resolver, log: log}
}

// Run implements the §4.1 contract: discover *.py files under the project
// root, resolve the oracle to a fixpoint, double-pump and walk each file,
// then emit the terminal Metadata record.
func (o *Orchestrator) Run(ctx context.Context, sink Sink) error {
	info, err := os.Stat(o.cfg.ProjectRoot)
	if err != nil || !info.IsDir() {
		return ErrUnreadableProjectRoot
	}

	files, err := o.discoverPythonFiles()
	if err != nil {
		return ErrUnreadableProjectRoot
	}
	if len(files) == 0 {
		return ErrNoPythonFiles
	}

	ev := oracle.New(o.cfg.ProjectRoot)
	for _, f := range files {
		ev.TrackFile(f, true, true)
	}
	for ev.MakeProgress() {
	}

	locals := &LocalCounter{}
	computer := NewComputer(ev, o.resolver, locals)

	for _, f := range files {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		// Re-run to fixpoint to pull in anything f's imports newly
		// surfaced, then force f itself to be re-bound fresh before the
		// walk (§4.1's "double-pump").
		for ev.MakeProgress() {
		}
		ev.MarkDirty(f)
		for ev.MakeProgress() {
		}

		fs, ok := ev.FileState(f)
		if !ok {
			o.log("xref: %s: unreadable or unparsable, skipping", f)
			continue
		}

		if err := o.walkFile(ev, computer, fs, sink); err != nil {
			if !IsFatal(err) {
				o.log("xref: %v", err)
				continue
			}
			return err
		}
	}

	relRoot := o.cfg.ProjectRoot
	if abs, err := filepath.Abs(relRoot); err == nil {
		relRoot = abs
	}
	meta := Metadata{
		ProjectRootURI: "file://" + relRoot,
		TextEncoding:   "UTF-8",
		ToolName:       "pyxref",
		ToolVersion:    o.cfg.ToolVersion,
		ToolArguments:  o.cfg.ToolArguments,
	}
	if err := sink.WriteMetadata(meta); err != nil {
		return &SinkError{Op: "metadata", Cause: err}
	}

	return nil
}

// walkFile drives a single file's TreeWalker and writes the resulting
// Document to sink. A WalkError (unbalanced scope stack) marks the
// Document partial and is reported up as non-fatal; a sink write failure
// is fatal.
func (o *Orchestrator) walkFile(ev *oracle.Evaluator, computer *Computer, fs *oracle.FileState, sink Sink) error {
	locals := computer.locals
	locals.Reset()

	relPath, err := filepath.Rel(o.cfg.ProjectRoot, fs.Path)
	if err != nil {
		relPath = fs.Path
	}

	doc := &Document{RelativePath: filepath.ToSlash(relPath)}
	emitter := NewEmitter(fs.Tree, doc, o.log)
	w := NewWalker(ev, o.resolver, computer, emitter, fs, fs.Tree)

	var walkErr error
	if err := w.Run(); err != nil {
		doc.Partial = true
		walkErr = err
	}

	if err := sink.WriteDocument(*doc); err != nil {
		return &SinkError{Op: "document:" + doc.RelativePath, Cause: err}
	}
	return walkErr
}

// discoverPythonFiles walks the project root with the teacher's
// gitignore-aware walker, restricted to *.py files.
func (o *Orchestrator) discoverPythonFiles() ([]string, error) {
	filters := walker.NewFilters()
	filters.IncludeExtension(".py")

	w, err := walker.New(&walker.Config{Filters: filters})
	if err != nil {
		return nil, err
	}

	results, err := w.Walk(o.cfg.ProjectRoot)
	if err != nil {
		return nil, err
	}

	var out []string
	for r := range results {
		if r.Error != nil {
			continue
		}
		out = append(out, r.Path)
	}
	return out, nil
}
