package stack

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
)

// MaxLines is the number of leading lines read from each source file.
const MaxLines = 15

// defaultWorkers bounds concurrent file reads during a scan.
const defaultWorkers = 8

// ErrNoProject is returned when there is no project root to scan.
var ErrNoProject = errors.New("no project context available")

// manifestName is the primary dependency manifest.
const manifestName = "package.json"

// conventionalDirs are subdirectories probed for nested manifests and
// walked for source files.
var conventionalDirs = []string{"frontend", "backend", "client", "server", "api", "web"}

// ignoreDirs are dependency caches and build outputs skipped during walks.
// Hidden directories are skipped separately.
var ignoreDirs = map[string]bool{
	"node_modules": true, "vendor": true, "__pycache__": true,
	"venv": true, "env": true, "dist": true, "build": true,
	"target": true, "coverage": true, "bower_components": true,
}

// sourceExts are the file extensions read by the source-content probe.
var sourceExts = map[string]bool{
	".js": true, ".jsx": true, ".ts": true, ".tsx": true,
	".mjs": true, ".cjs": true, ".vue": true, ".svelte": true,
	".py": true, ".go": true, ".java": true, ".kt": true,
}

// Cache is the slice of the session store the detector needs.
type Cache interface {
	TechStack() (TechStack, bool)
	SetTechStack(s TechStack) bool
}

// Report is the outcome of one filesystem scan.
type Report struct {
	Root      string        `json:"root"`
	Stack     TechStack     `json:"stack"`
	Cached    bool          `json:"cached"`
	FilesRead int           `json:"files_read"`
	Warnings  []string      `json:"warnings,omitempty"`
	Duration  time.Duration `json:"duration"`
}

// Detector scans project trees and keeps the latest result in a Cache.
type Detector struct {
	cache   Cache
	logger  *slog.Logger
	openFS  func(root string) fs.FS
	workers int
}

// Option configures a Detector.
type Option func(*Detector)

// WithLogger sets the logger used for scan warnings.
func WithLogger(l *slog.Logger) Option {
	return func(d *Detector) {
		if l != nil {
			d.logger = l
		}
	}
}

// WithFS replaces the function that opens a project root as an fs.FS.
// The default is os.DirFS.
func WithFS(open func(root string) fs.FS) Option {
	return func(d *Detector) {
		if open != nil {
			d.openFS = open
		}
	}
}

// WithWorkers bounds the number of concurrent file reads.
func WithWorkers(n int) Option {
	return func(d *Detector) {
		if n > 0 {
			d.workers = n
		}
	}
}

// NewDetector creates a Detector. cache may be nil, in which case every
// Detect call scans.
func NewDetector(cache Cache, opts ...Option) *Detector {
	d := &Detector{
		cache:   cache,
		logger:  slog.Default(),
		openFS:  os.DirFS,
		workers: defaultWorkers,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Detect returns the project's tech stack. Unless forceRefresh is set, a
// stack already held by the cache is returned without touching the
// filesystem. A fresh result is written back to the cache.
func (d *Detector) Detect(ctx context.Context, root string, forceRefresh bool) (TechStack, error) {
	report, err := d.Resolve(ctx, root, forceRefresh)
	if err != nil {
		return TechStack{}, err
	}
	return report.Stack, nil
}

// Resolve is Detect with scan diagnostics. A cache hit yields a Report
// with Cached set and no files read.
func (d *Detector) Resolve(ctx context.Context, root string, forceRefresh bool) (Report, error) {
	if strings.TrimSpace(root) == "" {
		return Report{}, ErrNoProject
	}
	if !forceRefresh && d.cache != nil {
		if cached, ok := d.cache.TechStack(); ok {
			return Report{Root: root, Stack: cached, Cached: true}, nil
		}
	}

	report, err := d.Scan(ctx, root)
	if err != nil {
		return Report{}, err
	}
	if d.cache != nil {
		d.cache.SetTechStack(report.Stack)
	}
	return report, nil
}

// Scan walks root and builds a Report. It never consults or updates the
// cache. Individual file failures become warnings; only a missing root or
// a cancelled context is an error.
func (d *Detector) Scan(ctx context.Context, root string) (Report, error) {
	if strings.TrimSpace(root) == "" {
		return Report{}, ErrNoProject
	}
	fsys := d.openFS(root)
	info, err := fs.Stat(fsys, ".")
	if err != nil {
		return Report{}, fmt.Errorf("%w: %s: %v", ErrNoProject, root, err)
	}
	if !info.IsDir() {
		return Report{}, fmt.Errorf("%w: %s is not a directory", ErrNoProject, root)
	}

	start := time.Now()
	sc := &scan{fsys: fsys, workers: d.workers}

	sc.probeManifests(ctx)
	sc.probeSecondary(ctx)
	sc.probeSources(ctx)
	sc.probeMarkers()

	if err := ctx.Err(); err != nil {
		return Report{}, fmt.Errorf("scanning %s: %w", root, err)
	}

	for _, w := range sc.warnings {
		d.logger.Warn("stack scan", "root", root, "warning", w)
	}

	report := Report{
		Root:      root,
		Stack:     sc.found.stack(),
		FilesRead: sc.filesRead,
		Warnings:  sc.warnings,
		Duration:  time.Since(start),
	}
	d.logger.Debug("stack scan complete",
		"root", root,
		"files_read", report.FilesRead,
		"warnings", len(report.Warnings),
		"duration", report.Duration,
	)
	return report, nil
}

// scan holds the state of one Scan call. Probes run one after another;
// fan-out happens inside a probe and results are merged back in input
// order, so the builder itself is never shared between goroutines.
type scan struct {
	fsys      fs.FS
	workers   int
	found     builder
	filesRead int
	warnings  []string
}

func (sc *scan) warn(format string, args ...any) {
	sc.warnings = append(sc.warnings, fmt.Sprintf(format, args...))
}

// --- Manifest probe ---

// packageManifest holds the fields read from package.json. Values are kept
// raw so that unusual version specs never fail the parse.
type packageManifest struct {
	Dependencies    map[string]json.RawMessage `json:"dependencies"`
	DevDependencies map[string]json.RawMessage `json:"devDependencies"`
}

// manifestPaths returns the root manifest followed by one per
// conventional subdirectory.
func manifestPaths() []string {
	paths := []string{manifestName}
	for _, dir := range conventionalDirs {
		paths = append(paths, path.Join(dir, manifestName))
	}
	return paths
}

// probeManifests merges the dependency names of every readable manifest
// and maps them through the signature tables.
func (sc *scan) probeManifests(ctx context.Context) {
	results := settle(ctx, sc.workers, manifestPaths(), func(ctx context.Context, name string) ([]string, error) {
		return readManifestDeps(sc.fsys, name)
	})

	deps := map[string]bool{}
	for _, r := range results {
		if r.err != nil {
			if !errors.Is(r.err, fs.ErrNotExist) {
				sc.warn("skipping manifest %s: %v", r.item, r.err)
			}
			continue
		}
		sc.filesRead++
		for _, name := range r.value {
			deps[name] = true
		}
	}
	sc.found.addAll(mapDependencies(deps))
}

// readManifestDeps returns the sorted direct and development dependency
// names declared in a package.json.
func readManifestDeps(fsys fs.FS, name string) ([]string, error) {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, err
	}
	var m packageManifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", name, err)
	}
	names := make([]string, 0, len(m.Dependencies)+len(m.DevDependencies))
	for dep := range m.Dependencies {
		names = append(names, dep)
	}
	for dep := range m.DevDependencies {
		names = append(names, dep)
	}
	sort.Strings(names)
	return names, nil
}

// --- Secondary-language probe ---

// probeSecondary reads the Python, Go and Java build files as text and
// matches keywords. No structured parsing is attempted.
func (sc *scan) probeSecondary(ctx context.Context) {
	names := make([]string, len(secondaryManifests))
	for i, m := range secondaryManifests {
		names[i] = m.name
	}
	results := settle(ctx, sc.workers, names, func(ctx context.Context, name string) (string, error) {
		data, err := fs.ReadFile(sc.fsys, name)
		if err != nil {
			return "", err
		}
		return strings.ToLower(string(data)), nil
	})

	for i, r := range results {
		if r.err != nil {
			if !errors.Is(r.err, fs.ErrNotExist) {
				sc.warn("skipping %s: %v", r.item, r.err)
			}
			continue
		}
		sc.filesRead++
		sc.found.addAll(secondaryManifests[i].implies)
		sc.found.addAll(matchKeywords(r.value, secondaryManifests[i].rules))
	}
}

// --- Source-content probe ---

// probeSources walks the conventional subdirectories and matches keywords
// against the first MaxLines lines of every source file.
func (sc *scan) probeSources(ctx context.Context) {
	files := sc.sourceFiles(ctx)
	results := settle(ctx, sc.workers, files, func(ctx context.Context, name string) (string, error) {
		head, err := readFirstLines(sc.fsys, name, MaxLines)
		if err != nil {
			return "", err
		}
		return strings.ToLower(head), nil
	})

	for _, r := range results {
		if r.err != nil {
			sc.warn("skipping source %s: %v", r.item, r.err)
			continue
		}
		sc.filesRead++
		sc.found.addAll(matchKeywords(r.value, sourceRules))
	}
}

// sourceFiles lists candidate source files under the conventional
// subdirectories in walk order.
func (sc *scan) sourceFiles(ctx context.Context) []string {
	var files []string
	for _, dir := range conventionalDirs {
		if ctx.Err() != nil {
			return files
		}
		err := fs.WalkDir(sc.fsys, dir, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				if p == dir && errors.Is(err, fs.ErrNotExist) {
					return fs.SkipDir
				}
				sc.warn("walking %s: %v", p, err)
				if d != nil && d.IsDir() {
					return fs.SkipDir
				}
				return nil
			}
			if d.IsDir() {
				if p != dir && (ignoreDirs[d.Name()] || strings.HasPrefix(d.Name(), ".")) {
					return fs.SkipDir
				}
				return nil
			}
			if sourceExts[strings.ToLower(path.Ext(d.Name()))] {
				files = append(files, p)
			}
			return nil
		})
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			sc.warn("walking %s: %v", dir, err)
		}
	}
	return files
}

// readFirstLines streams a file and returns at most n lines, stopping as
// soon as the budget is reached.
func readFirstLines(fsys fs.FS, name string, n int) (string, error) {
	f, err := fsys.Open(name)
	if err != nil {
		return "", err
	}
	defer func() { _ = f.Close() }()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var b strings.Builder
	for lines := 0; lines < n && scanner.Scan(); lines++ {
		b.Write(scanner.Bytes())
		b.WriteByte('\n')
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("reading %s: %w", name, err)
	}
	return b.String(), nil
}

// --- Fixed-marker probe ---

// probeMarkers adds the labels implied by well-known files at the root.
// Only existence is checked; content is never read.
func (sc *scan) probeMarkers() {
	for _, m := range markerFiles {
		_, err := fs.Stat(sc.fsys, m.name)
		switch {
		case err == nil:
			sc.found.add(m.found.category, m.found.label)
		case !errors.Is(err, fs.ErrNotExist):
			sc.warn("checking %s: %v", m.name, err)
		}
	}
}

// --- Fan-out ---

// result is the settled outcome of one fan-out task.
type result[T any] struct {
	item  string
	value T
	err   error
}

// settle runs fn for every item with at most workers in flight and
// returns one result per item, in input order. A failing item never
// cancels the others.
func settle[T any](ctx context.Context, workers int, items []string, fn func(context.Context, string) (T, error)) []result[T] {
	results := make([]result[T], len(items))
	var g errgroup.Group
	g.SetLimit(workers)
	for i, item := range items {
		g.Go(func() error {
			results[i].item = item
			if err := ctx.Err(); err != nil {
				results[i].err = err
				return nil
			}
			results[i].value, results[i].err = fn(ctx, item)
			return nil
		})
	}
	_ = g.Wait()
	return results
}
