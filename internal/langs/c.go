package langs

import (
	"fmt"
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_c "github.com/tree-sitter/tree-sitter-c/bindings/go"

	"github.com/mycelium-dev/mycelium/internal/graph"
)

var cBuiltins = []string{
	"printf", "fprintf", "sprintf", "scanf", "malloc", "calloc", "realloc",
	"free", "memcpy", "memset", "memmove", "strlen", "strcpy", "strcmp",
	"strncmp", "strcat", "fopen", "fclose", "fread", "fwrite", "exit", "abort",
}

type cAnalyser struct {
	baseBuiltins
	lang *tree_sitter.Language
}

func newCAnalyser() *cAnalyser {
	return &cAnalyser{
		baseBuiltins: newBaseBuiltins(cBuiltins...),
		lang:         tree_sitter.NewLanguage(tree_sitter_c.Language()),
	}
}

func (a *cAnalyser) Language() graph.Language { return graph.LangC }
func (a *cAnalyser) Extensions() []string      { return []string{".c", ".h"} }
func (a *cAnalyser) IsAvailable() bool         { return true }

func (a *cAnalyser) Extract(path string, source []byte) (ExtractResult, error) {
	parser := tree_sitter.NewParser()
	defer parser.Close()
	if err := parser.SetLanguage(a.lang); err != nil {
		return ExtractResult{}, fmt.Errorf("set language c: %w", err)
	}
	tree := parser.Parse(source, nil)
	if tree == nil {
		return ExtractResult{}, fmt.Errorf("tree-sitter returned nil tree for %s", path)
	}
	defer tree.Close()

	w := &cWalker{source: source}
	cursor := tree.RootNode().Walk()
	defer cursor.Close()
	w.walk(cursor, "")
	return ExtractResult{Symbols: w.symbols, Imports: w.imports, Calls: w.calls}, nil
}

// cWalker implements the C/C++-shared extraction logic described in
// spec.md §4.4: functions, structs/unions/enums, typedefs, #include
// directives, and call expressions. Visibility defaults to public — C/C++
// have no access modifiers at file scope.
type cWalker struct {
	source  []byte
	pending int
	symbols []RawSymbol
	imports []RawImport
	calls   []RawCall
}

func (w *cWalker) nextPendingID() string {
	id := fmt.Sprintf("_pending_%d", w.pending)
	w.pending++
	return id
}

func (w *cWalker) walk(cursor *tree_sitter.TreeCursor, enclosing string) {
	node := cursor.Node()
	nextEnclosing := enclosing

	switch node.Kind() {
	case "function_definition":
		if name := cDeclaratorName(node.ChildByFieldName("declarator"), w.source); name != "" {
			w.symbols = append(w.symbols, RawSymbol{
				PendingID: w.nextPendingID(), Name: name, Kind: graph.SymbolKindFunction, Line: line(node),
				Visibility: graph.VisibilityPublic, Exported: true,
				CtorParams: cParamList(node.ChildByFieldName("declarator"), w.source),
			})
			nextEnclosing = name
		}

	case "struct_specifier":
		if name := fieldText(node, "name", w.source); name != "" {
			w.symbols = append(w.symbols, RawSymbol{
				PendingID: w.nextPendingID(), Name: name, Kind: graph.SymbolKindStruct, Line: line(node),
				Visibility: graph.VisibilityPublic, Exported: true,
			})
		}

	case "enum_specifier":
		if name := fieldText(node, "name", w.source); name != "" {
			w.symbols = append(w.symbols, RawSymbol{
				PendingID: w.nextPendingID(), Name: name, Kind: graph.SymbolKindEnum, Line: line(node),
				Visibility: graph.VisibilityPublic, Exported: true,
			})
		}

	case "type_definition":
		w.extractTypedef(node)

	case "preproc_include":
		w.extractInclude(node)

	case "call_expression":
		w.extractCall(node, enclosing)
	}

	if cursor.GotoFirstChild() {
		w.walk(cursor, nextEnclosing)
		for cursor.GotoNextSibling() {
			w.walk(cursor, nextEnclosing)
		}
		cursor.GotoParent()
	}
}

func (w *cWalker) extractTypedef(node *tree_sitter.Node) {
	declNode := node.ChildByFieldName("declarator")
	if declNode == nil {
		return
	}
	name := cDeclaratorName(declNode, w.source)
	if name == "" {
		return
	}
	w.symbols = append(w.symbols, RawSymbol{
		PendingID: w.nextPendingID(), Name: name, Kind: graph.SymbolKindTypedef, Line: line(node),
		Visibility: graph.VisibilityPublic, Exported: true,
	})
}

func (w *cWalker) extractInclude(node *tree_sitter.Node) {
	pathNode := node.ChildByFieldName("path")
	if pathNode == nil {
		return
	}
	text := pathNode.Utf8Text(w.source)
	w.imports = append(w.imports, RawImport{Target: text, Statement: node.Utf8Text(w.source)})
}

func (w *cWalker) extractCall(node *tree_sitter.Node, enclosing string) {
	fnNode := node.ChildByFieldName("function")
	if fnNode == nil {
		return
	}
	switch fnNode.Kind() {
	case "identifier":
		w.calls = append(w.calls, RawCall{CallerName: enclosing, Callee: fnNode.Utf8Text(w.source), Line: line(node), EnclosingFunction: enclosing})
	case "field_expression":
		argNode := fnNode.ChildByFieldName("argument")
		fieldNode := fnNode.ChildByFieldName("field")
		if fieldNode == nil {
			return
		}
		qualifier := ""
		if argNode != nil {
			qualifier = argNode.Utf8Text(w.source)
		}
		w.calls = append(w.calls, RawCall{
			CallerName: enclosing, Qualifier: qualifier, Callee: fieldNode.Utf8Text(w.source),
			Line: line(node), EnclosingFunction: enclosing,
		})
	}
}

// cDeclaratorName unwraps function/pointer declarators down to the bare
// identifier, e.g. "*foo(int)" -> "foo".
func cDeclaratorName(node *tree_sitter.Node, source []byte) string {
	for node != nil {
		switch node.Kind() {
		case "identifier", "field_identifier":
			return node.Utf8Text(source)
		case "function_declarator", "pointer_declarator":
			node = node.ChildByFieldName("declarator")
		default:
			return ""
		}
	}
	return ""
}

func cParamList(declarator *tree_sitter.Node, source []byte) []graph.Param {
	for declarator != nil && declarator.Kind() != "function_declarator" {
		declarator = declarator.ChildByFieldName("declarator")
	}
	if declarator == nil {
		return nil
	}
	paramsNode := declarator.ChildByFieldName("parameters")
	if paramsNode == nil {
		return nil
	}
	var out []graph.Param
	for i := uint(0); i < paramsNode.ChildCount(); i++ {
		p := paramsNode.Child(i)
		if p == nil || p.Kind() != "parameter_declaration" {
			continue
		}
		typeNode := p.ChildByFieldName("type")
		declNode := p.ChildByFieldName("declarator")
		name := cDeclaratorName(declNode, source)
		typ := ""
		if typeNode != nil {
			typ = strings.TrimSpace(typeNode.Utf8Text(source))
		}
		if name == "" {
			continue
		}
		out = append(out, graph.Param{Name: name, Type: typ})
	}
	return out
}
