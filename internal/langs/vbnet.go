package langs

import (
	"fmt"

	"github.com/mycelium-dev/mycelium/internal/graph"
)

// vbnetAnalyser is registered for extension routing and .vbproj detection
// (spec.md §4.5 treats VB.NET as a full citizen of the .NET import
// resolver), but IsAvailable reports false: no tree-sitter VB.NET grammar
// exists in this module's dependency stack, so Phase 2 skips .vb files
// the same way it skips any file whose analyser is unavailable.
type vbnetAnalyser struct {
	baseBuiltins
}

func newVBNetAnalyser() *vbnetAnalyser {
	return &vbnetAnalyser{baseBuiltins: newBaseBuiltins()}
}

func (a *vbnetAnalyser) Language() graph.Language { return graph.LangVBNet }
func (a *vbnetAnalyser) Extensions() []string      { return []string{".vb"} }
func (a *vbnetAnalyser) IsAvailable() bool          { return false }

func (a *vbnetAnalyser) Extract(path string, _ []byte) (ExtractResult, error) {
	return ExtractResult{}, fmt.Errorf("vb.net extraction unavailable: %s", path)
}
