package imports

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/mycelium-dev/mycelium/internal/graph"
)

// solutionFolderGUID is excluded from .sln Project(...) entries (spec.md
// §4.5): it marks a virtual solution folder, not a buildable project.
const solutionFolderGUID = "2150E333-8FDC-42A3-9474-1A3956D46DE8"

var (
	slnProjectRe = regexp.MustCompile(`Project\("\{([0-9A-Fa-f-]+)\}"\)\s*=\s*"[^"]*",\s*"([^"]+)"`)
	rootNSRe     = regexp.MustCompile(`<RootNamespace>([^<]+)</RootNamespace>`)
	assemblyRe   = regexp.MustCompile(`<AssemblyName>([^<]+)</AssemblyName>`)
	tfmRe        = regexp.MustCompile(`<TargetFramework>([^<]+)</TargetFramework>`)
	tfmsRe       = regexp.MustCompile(`<TargetFrameworks>([^<]+)</TargetFrameworks>`)
	projRefRe    = regexp.MustCompile(`<ProjectReference\s+Include="([^"]+)"`)
	pkgRefAttrRe = regexp.MustCompile(`<PackageReference\s+Include="([^"]+)"\s+Version="([^"]+)"`)
	pkgRefElemRe = regexp.MustCompile(`<PackageReference\s+Include="([^"]+)">\s*<Version>([^<]+)</Version>`)
)

// DotNetProject is a parsed .csproj/.vbproj (spec.md §4.5).
type DotNetProject struct {
	Path            string // repo-relative .csproj/.vbproj path
	Dir             string // repo-relative directory
	RootNamespace   string
	AssemblyName    string
	TargetFramework string
	ProjectRefs     []string // repo-relative paths to referenced .csproj/.vbproj
	PackageRefs     []graph.PackageRef
}

// scanDotNet walks root for .sln/.csproj/.vbproj files and returns every
// parsed project, keyed by its repo-relative path. .sln files contribute
// no data beyond confirming project membership — this module discovers
// .csproj/.vbproj directly via the same filesystem walk Phase 1 already
// did, so solution parsing here only needs to validate project entries are
// seen, per spec.md §4.5.
func scanDotNet(root string, repoFiles []graph.File) ([]DotNetProject, []string) {
	var slnProjectPaths []string
	var projects []DotNetProject

	for _, f := range repoFiles {
		abs := filepath.Join(root, f.Path)
		switch {
		case strings.HasSuffix(f.Path, ".sln"):
			slnProjectPaths = append(slnProjectPaths, parseSolution(abs)...)
		case strings.HasSuffix(f.Path, ".csproj"), strings.HasSuffix(f.Path, ".vbproj"):
			if p, ok := parseProjectFile(root, f.Path); ok {
				projects = append(projects, p)
			}
		}
	}
	return projects, slnProjectPaths
}

func parseSolution(absPath string) []string {
	data, err := os.ReadFile(absPath)
	if err != nil {
		return nil
	}
	var out []string
	for _, m := range slnProjectRe.FindAllStringSubmatch(string(data), -1) {
		guid, path := strings.ToUpper(m[1]), m[2]
		if guid == solutionFolderGUID {
			continue
		}
		out = append(out, filepath.ToSlash(strings.ReplaceAll(path, `\`, "/")))
	}
	return out
}

func parseProjectFile(root, relPath string) (DotNetProject, bool) {
	absPath := filepath.Join(root, relPath)
	data, err := os.ReadFile(absPath)
	if err != nil {
		return DotNetProject{}, false
	}
	text := string(data)
	dir := filepath.ToSlash(filepath.Dir(relPath))

	p := DotNetProject{Path: relPath, Dir: dir}

	if m := rootNSRe.FindStringSubmatch(text); m != nil {
		p.RootNamespace = strings.TrimSpace(m[1])
	}
	if m := assemblyRe.FindStringSubmatch(text); m != nil {
		p.AssemblyName = strings.TrimSpace(m[1])
	}
	if m := tfmRe.FindStringSubmatch(text); m != nil {
		p.TargetFramework = strings.TrimSpace(m[1])
	} else if m := tfmsRe.FindStringSubmatch(text); m != nil {
		first := strings.Split(m[1], ";")[0]
		p.TargetFramework = strings.TrimSpace(first)
	}

	for _, m := range projRefRe.FindAllStringSubmatch(text, -1) {
		ref := filepath.ToSlash(strings.ReplaceAll(m[1], `\`, "/"))
		resolved := filepath.ToSlash(filepath.Join(dir, ref))
		p.ProjectRefs = append(p.ProjectRefs, resolved)
	}

	for _, m := range pkgRefAttrRe.FindAllStringSubmatch(text, -1) {
		p.PackageRefs = append(p.PackageRefs, graph.PackageRef{Project: relPath, Package: m[1], Version: m[2]})
	}
	for _, m := range pkgRefElemRe.FindAllStringSubmatch(text, -1) {
		p.PackageRefs = append(p.PackageRefs, graph.PackageRef{Project: relPath, Package: m[1], Version: m[2]})
	}

	if p.RootNamespace == "" {
		p.RootNamespace = p.AssemblyName
	}
	return p, true
}
