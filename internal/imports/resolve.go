// Package imports implements Phase 3 (spec.md §4.5): .NET project/solution
// parsing and the nine-strategy, per-language import resolution dispatch.
package imports

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/mycelium-dev/mycelium/internal/graph"
	"github.com/mycelium-dev/mycelium/internal/parse"
)

// Options configures Phase 3.
type Options struct {
	RepoRoot string
}

// Resolver holds the file-existence index and per-ecosystem metadata built
// once per run and consulted by every per-language resolve call.
type Resolver struct {
	repoRoot  string
	fileSet   map[string]bool
	dirIndex  map[string][]string
	baseIndex map[string][]string // basename -> repo-relative paths
	langOf    map[string]graph.Language
	goModPath string

	ns *graph.NamespaceIndex
	st *graph.SymbolTable

	// fileHasSymbols supports the C#/VB.NET Assembly-Index fallback:
	// "pick any file under that project dir with known symbols."
	fileHasSymbols map[string]bool
}

// NewResolver builds a Resolver from Phase 1's discovered files and the
// shared Symbol Table / Namespace Index Phase 2 populated.
func NewResolver(repoRoot string, files []graph.File, st *graph.SymbolTable, ns *graph.NamespaceIndex) *Resolver {
	r := &Resolver{
		repoRoot:       repoRoot,
		fileSet:        make(map[string]bool, len(files)),
		dirIndex:       make(map[string][]string),
		baseIndex:      make(map[string][]string),
		langOf:         make(map[string]graph.Language, len(files)),
		fileHasSymbols: make(map[string]bool),
		ns:             ns,
		st:             st,
	}
	for _, f := range files {
		r.fileSet[f.Path] = true
		dir := filepath.ToSlash(filepath.Dir(f.Path))
		r.dirIndex[dir] = append(r.dirIndex[dir], f.Path)
		base := filepath.Base(f.Path)
		r.baseIndex[base] = append(r.baseIndex[base], f.Path)
		r.langOf[f.Path] = f.Language
	}
	r.scanGoMod()
	return r
}

// MarkHasSymbols records that file declares at least one symbol, used by
// the C#/VB.NET Assembly-Index fallback.
func (r *Resolver) MarkHasSymbols(file string) { r.fileHasSymbols[file] = true }

// Run executes Phase 3: parses .NET project/solution files (registering
// the Assembly Index), then dispatches every raw import to its
// language-specific resolver, writing resolved Import edges into store and
// ImportEdge-derived namespace bookkeeping into ns.
func Run(ctx context.Context, store graph.Store, resolver *Resolver, repoFiles []graph.File, rawImports []parse.FileImport) ([]graph.ImportEdge, error) {
	projects, _ := scanDotNet(resolver.repoRoot, repoFiles)
	for _, p := range projects {
		resolver.ns.RegisterProject(p.RootNamespace, p.Dir)
		for _, pkgRef := range p.PackageRefs {
			if err := store.AddPackageRef(ctx, pkgRef); err != nil {
				return nil, fmt.Errorf("add package ref: %w", err)
			}
		}
		for _, ref := range p.ProjectRefs {
			if err := store.AddProjectRef(ctx, graph.ProjectRef{From: p.Path, To: ref, Type: "project_reference"}); err != nil {
				return nil, fmt.Errorf("add project ref: %w", err)
			}
		}
	}

	var edges []graph.ImportEdge
	for _, imp := range rawImports {
		lang := resolver.langOf[imp.File]
		target, ok := resolver.resolve(lang, imp.Target, imp.File)
		if !ok || target == imp.File {
			continue
		}
		edge := graph.ImportEdge{From: imp.File, To: target, Statement: imp.Statement}
		if err := store.AddImportEdge(ctx, edge); err != nil {
			return nil, fmt.Errorf("add import edge %s->%s: %w", edge.From, edge.To, err)
		}
		edges = append(edges, edge)

		if lang == graph.LangCSharp || lang == graph.LangVBNet {
			resolver.ns.AddImport(imp.File, imp.Target)
		}
	}
	return edges, nil
}

func (r *Resolver) resolve(lang graph.Language, target, sourceFile string) (string, bool) {
	switch lang {
	case graph.LangCSharp, graph.LangVBNet:
		return r.resolveDotNet(target, sourceFile)
	case graph.LangPython:
		return r.resolvePython(target, sourceFile)
	case graph.LangTypeScript, graph.LangJavaScript:
		return r.resolveTSJS(target, sourceFile)
	case graph.LangJava:
		return r.resolveJava(target, sourceFile)
	case graph.LangGo:
		return r.resolveGo(target)
	case graph.LangRust:
		return r.resolveRust(target, sourceFile)
	case graph.LangC, graph.LangCPP:
		return r.resolveC(target, sourceFile)
	default:
		return "", false
	}
}

// --- C#/VB.NET ---

func (r *Resolver) resolveDotNet(target, sourceFile string) (string, bool) {
	for _, f := range r.ns.FilesForNamespace(target) {
		if f != sourceFile {
			return f, true
		}
	}

	lastSeg := target
	if idx := strings.LastIndex(target, "."); idx != -1 {
		lastSeg = target[idx+1:]
	}
	for _, e := range r.st.LookupGlobalExcludingFile(lastSeg, sourceFile) {
		return e.File, true
	}

	if dir, ok := r.ns.ResolveAssembly(target); ok {
		var candidates []string
		for f := range r.fileHasSymbols {
			if f == sourceFile {
				continue
			}
			if strings.HasPrefix(filepath.ToSlash(filepath.Dir(f)), dir) {
				candidates = append(candidates, f)
			}
		}
		if len(candidates) > 0 {
			sort.Strings(candidates)
			return candidates[0], true
		}
	}
	return "", false
}

// --- Python ---

func (r *Resolver) resolvePython(target, sourceFile string) (string, bool) {
	dots := 0
	for _, c := range target {
		if c != '.' {
			break
		}
		dots++
	}
	modulePart := target[dots:]

	baseDir := filepath.ToSlash(filepath.Dir(sourceFile))
	for i := 1; i < dots; i++ {
		baseDir = filepath.ToSlash(filepath.Dir(baseDir))
	}

	if dots == 0 {
		// Absolute import: try resolving from the repo root, since a
		// dotted top-level package name maps 1:1 onto a root directory.
		baseDir = ""
	}

	if modulePart == "" {
		return r.probeFile(filepath.Join(baseDir, "__init__"), []string{".py"})
	}
	relPath := strings.ReplaceAll(modulePart, ".", "/")
	return r.probeFile(filepath.Join(baseDir, relPath), []string{".py", "/__init__.py"})
}

// --- TypeScript / JavaScript ---

var tsjsExtensions = []string{".ts", ".tsx", ".js", ".jsx", "/index.ts", "/index.tsx", "/index.js", "/index.jsx"}

func (r *Resolver) resolveTSJS(target, sourceFile string) (string, bool) {
	if !strings.HasPrefix(target, "./") && !strings.HasPrefix(target, "../") {
		return "", false // spec.md §4.5: only relative specifiers are resolved
	}
	sourceDir := filepath.Dir(sourceFile)
	base := filepath.ToSlash(filepath.Clean(filepath.Join(sourceDir, target)))
	return r.probeFile(base, tsjsExtensions)
}

// --- Java ---

func (r *Resolver) resolveJava(target, sourceFile string) (string, bool) {
	direct := strings.ReplaceAll(target, ".", "/") + ".java"
	if r.fileSet[direct] {
		return direct, true
	}
	className := target
	if idx := strings.LastIndex(target, "."); idx != -1 {
		className = target[idx+1:]
	}
	for _, f := range r.baseIndex[className+".java"] {
		if f != sourceFile {
			return f, true
		}
	}
	return "", false
}

// --- Go ---

func (r *Resolver) resolveGo(target string) (string, bool) {
	if r.goModPath == "" || !strings.HasPrefix(target, r.goModPath) {
		return "", false // stdlib or external module
	}
	relDir := strings.TrimPrefix(strings.TrimPrefix(target, r.goModPath), "/")
	files := append([]string(nil), r.dirIndex[relDir]...)
	sort.Strings(files)
	for _, f := range files {
		if strings.HasSuffix(f, ".go") && !strings.HasSuffix(f, "_test.go") {
			return f, true
		}
	}
	return "", false
}

func (r *Resolver) scanGoMod() {
	path := filepath.Join(r.repoRoot, "go.mod")
	f, err := os.Open(path)
	if err != nil {
		return
	}
	defer f.Close()
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if strings.HasPrefix(line, "module ") {
			r.goModPath = strings.TrimSpace(strings.TrimPrefix(line, "module"))
			return
		}
	}
}

// --- Rust ---

var useListSuffixRe = regexp.MustCompile(`::\{.*$`)

func (r *Resolver) resolveRust(target, sourceFile string) (string, bool) {
	target = useListSuffixRe.ReplaceAllString(target, "")

	switch {
	case strings.HasPrefix(target, "crate::"):
		relPath := strings.ReplaceAll(strings.TrimPrefix(target, "crate::"), "::", "/")
		candidates := []string{filepath.Join("src", relPath), relPath}
		if crateRoot := findCrateRoot(sourceFile); crateRoot != "" {
			candidates = append(candidates, filepath.Join(crateRoot, relPath))
		}
		return r.probeAny(candidates, []string{".rs", "/mod.rs"})

	case strings.HasPrefix(target, "self::"):
		relPath := strings.ReplaceAll(strings.TrimPrefix(target, "self::"), "::", "/")
		return r.probeFile(filepath.Join(filepath.Dir(sourceFile), relPath), []string{".rs", "/mod.rs"})

	case strings.HasPrefix(target, "super::"):
		rest := strings.TrimPrefix(target, "super::")
		dir := filepath.Dir(sourceFile)
		for strings.HasPrefix(rest, "super::") {
			dir = filepath.Dir(dir)
			rest = strings.TrimPrefix(rest, "super::")
		}
		dir = filepath.Dir(dir)
		relPath := strings.ReplaceAll(rest, "::", "/")
		return r.probeFile(filepath.Join(dir, relPath), []string{".rs", "/mod.rs"})

	case strings.HasPrefix(target, "std::"), strings.HasPrefix(target, "core::"), strings.HasPrefix(target, "alloc::"):
		return "", false

	default:
		relPath := strings.ReplaceAll(target, "::", "/")
		return r.probeFile(filepath.Join(filepath.Dir(sourceFile), relPath), []string{".rs", "/mod.rs"})
	}
}

func findCrateRoot(filePath string) string {
	dir := filepath.Dir(filePath)
	for dir != "." && dir != "/" && dir != "" {
		if filepath.Base(dir) == "src" {
			return dir
		}
		dir = filepath.Dir(dir)
	}
	return ""
}

// --- C / C++ ---

func (r *Resolver) resolveC(target, sourceFile string) (string, bool) {
	if strings.Contains(target, "<") {
		return "", false // system header
	}
	sourceDir := filepath.Dir(sourceFile)
	if resolved, ok := r.probeFile(filepath.ToSlash(filepath.Join(sourceDir, target)), nil); ok {
		return resolved, true
	}
	return r.probeFile(target, nil)
}

// --- shared ---

func (r *Resolver) probeFile(basePath string, extensions []string) (string, bool) {
	basePath = filepath.ToSlash(basePath)
	if r.fileSet[basePath] {
		return basePath, true
	}
	for _, ext := range extensions {
		candidate := basePath + ext
		if r.fileSet[candidate] {
			return candidate, true
		}
	}
	return "", false
}

func (r *Resolver) probeAny(bases []string, extensions []string) (string, bool) {
	for _, b := range bases {
		if resolved, ok := r.probeFile(b, extensions); ok {
			return resolved, true
		}
	}
	return "", false
}
