package langs

import (
	"fmt"
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_csharp "github.com/tree-sitter-grammars/tree-sitter-c-sharp/bindings/go"

	"github.com/mycelium-dev/mycelium/internal/graph"
)

var csharpBuiltins = []string{
	"WriteLine", "Write", "ReadLine", "ToString", "Equals", "GetHashCode",
	"GetType", "Parse", "TryParse", "Format", "Join", "nameof",
}

type csharpAnalyser struct {
	baseBuiltins
	lang *tree_sitter.Language
}

func newCSharpAnalyser() *csharpAnalyser {
	return &csharpAnalyser{
		baseBuiltins: newBaseBuiltins(csharpBuiltins...),
		lang:         tree_sitter.NewLanguage(tree_sitter_csharp.Language()),
	}
}

func (a *csharpAnalyser) Language() graph.Language { return graph.LangCSharp }
func (a *csharpAnalyser) Extensions() []string      { return []string{".cs"} }
func (a *csharpAnalyser) IsAvailable() bool         { return true }

func (a *csharpAnalyser) Extract(path string, source []byte) (ExtractResult, error) {
	parser := tree_sitter.NewParser()
	defer parser.Close()
	if err := parser.SetLanguage(a.lang); err != nil {
		return ExtractResult{}, fmt.Errorf("set language csharp: %w", err)
	}
	tree := parser.Parse(source, nil)
	if tree == nil {
		return ExtractResult{}, fmt.Errorf("tree-sitter returned nil tree for %s", path)
	}
	defer tree.Close()

	w := &csharpWalker{source: source}
	cursor := tree.RootNode().Walk()
	defer cursor.Close()
	w.walk(cursor, "", "")
	return ExtractResult{Symbols: w.symbols, Imports: w.imports, Calls: w.calls}, nil
}

type csharpWalker struct {
	source  []byte
	pending int
	symbols []RawSymbol
	imports []RawImport
	calls   []RawCall
}

func (w *csharpWalker) nextPendingID() string {
	id := fmt.Sprintf("_pending_%d", w.pending)
	w.pending++
	return id
}

func (w *csharpWalker) walk(cursor *tree_sitter.TreeCursor, parentType, enclosing string) {
	node := cursor.Node()
	nextParent, nextEnclosing := parentType, enclosing

	switch node.Kind() {
	case "namespace_declaration", "file_scoped_namespace_declaration":
		if name := fieldText(node, "name", w.source); name != "" {
			w.symbols = append(w.symbols, RawSymbol{
				PendingID: w.nextPendingID(), Name: name, Kind: graph.SymbolKindNamespace, Line: line(node),
				Visibility: graph.VisibilityPublic, Exported: true,
			})
		}

	case "class_declaration":
		if name := fieldText(node, "name", w.source); name != "" {
			w.symbols = append(w.symbols, RawSymbol{
				PendingID: w.nextPendingID(), Name: name, Kind: graph.SymbolKindClass, Line: line(node),
				Visibility: csharpVisibility(node, w.source), Exported: csharpIsPublic(node, w.source), Parent: parentType,
			})
			nextParent = name
		}

	case "interface_declaration":
		if name := fieldText(node, "name", w.source); name != "" {
			w.symbols = append(w.symbols, RawSymbol{
				PendingID: w.nextPendingID(), Name: name, Kind: graph.SymbolKindInterface, Line: line(node),
				Visibility: csharpVisibility(node, w.source), Exported: csharpIsPublic(node, w.source), Parent: parentType,
			})
			nextParent = name
		}

	case "struct_declaration":
		if name := fieldText(node, "name", w.source); name != "" {
			w.symbols = append(w.symbols, RawSymbol{
				PendingID: w.nextPendingID(), Name: name, Kind: graph.SymbolKindStruct, Line: line(node),
				Visibility: csharpVisibility(node, w.source), Exported: csharpIsPublic(node, w.source), Parent: parentType,
			})
			nextParent = name
		}

	case "record_declaration":
		if name := fieldText(node, "name", w.source); name != "" {
			w.symbols = append(w.symbols, RawSymbol{
				PendingID: w.nextPendingID(), Name: name, Kind: graph.SymbolKindRecord, Line: line(node),
				Visibility: csharpVisibility(node, w.source), Exported: csharpIsPublic(node, w.source), Parent: parentType,
			})
			nextParent = name
		}

	case "enum_declaration":
		if name := fieldText(node, "name", w.source); name != "" {
			w.symbols = append(w.symbols, RawSymbol{
				PendingID: w.nextPendingID(), Name: name, Kind: graph.SymbolKindEnum, Line: line(node),
				Visibility: csharpVisibility(node, w.source), Exported: csharpIsPublic(node, w.source), Parent: parentType,
			})
		}

	case "delegate_declaration":
		if name := fieldText(node, "name", w.source); name != "" {
			w.symbols = append(w.symbols, RawSymbol{
				PendingID: w.nextPendingID(), Name: name, Kind: graph.SymbolKindDelegate, Line: line(node),
				Visibility: csharpVisibility(node, w.source), Exported: csharpIsPublic(node, w.source), Parent: parentType,
			})
		}

	case "constructor_declaration":
		if name := fieldText(node, "name", w.source); name != "" {
			w.symbols = append(w.symbols, RawSymbol{
				PendingID: w.nextPendingID(), Name: name, Kind: graph.SymbolKindConstructor, Line: line(node),
				Visibility: csharpVisibility(node, w.source), Exported: csharpIsPublic(node, w.source), Parent: parentType,
				CtorParams: w.paramList(node),
			})
			nextEnclosing = name
		}

	case "method_declaration":
		if name := fieldText(node, "name", w.source); name != "" {
			w.symbols = append(w.symbols, RawSymbol{
				PendingID: w.nextPendingID(), Name: name, Kind: graph.SymbolKindMethod, Line: line(node),
				Visibility: csharpVisibility(node, w.source), Exported: csharpIsPublic(node, w.source), Parent: parentType,
			})
			nextEnclosing = name
		}

	case "property_declaration":
		if name := fieldText(node, "name", w.source); name != "" {
			w.symbols = append(w.symbols, RawSymbol{
				PendingID: w.nextPendingID(), Name: name, Kind: graph.SymbolKindProperty, Line: line(node),
				Visibility: csharpVisibility(node, w.source), Exported: csharpIsPublic(node, w.source), Parent: parentType,
			})
		}

	case "using_directive":
		w.extractUsing(node)

	case "invocation_expression":
		w.extractCall(node, enclosing)
	}

	if cursor.GotoFirstChild() {
		w.walk(cursor, nextParent, nextEnclosing)
		for cursor.GotoNextSibling() {
			w.walk(cursor, nextParent, nextEnclosing)
		}
		cursor.GotoParent()
	}
}

func (w *csharpWalker) paramList(node *tree_sitter.Node) []graph.Param {
	params := node.ChildByFieldName("parameters")
	if params == nil {
		return nil
	}
	var out []graph.Param
	for i := uint(0); i < params.ChildCount(); i++ {
		p := params.Child(i)
		if p == nil || p.Kind() != "parameter" {
			continue
		}
		nameNode := p.ChildByFieldName("name")
		typeNode := p.ChildByFieldName("type")
		if nameNode == nil || typeNode == nil {
			continue
		}
		out = append(out, graph.Param{Name: nameNode.Utf8Text(w.source), Type: typeNode.Utf8Text(w.source)})
	}
	return out
}

func (w *csharpWalker) extractUsing(node *tree_sitter.Node) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		for i := uint(0); i < node.ChildCount(); i++ {
			child := node.Child(i)
			if child != nil && child.Kind() == "qualified_name" {
				nameNode = child
				break
			}
		}
	}
	if nameNode == nil {
		return
	}
	target := nameNode.Utf8Text(w.source)
	if target == "" {
		return
	}
	w.imports = append(w.imports, RawImport{Target: target, Statement: node.Utf8Text(w.source)})
}

func (w *csharpWalker) extractCall(node *tree_sitter.Node, enclosing string) {
	fnNode := node.ChildByFieldName("function")
	if fnNode == nil {
		return
	}
	switch fnNode.Kind() {
	case "identifier":
		w.calls = append(w.calls, RawCall{CallerName: enclosing, Callee: fnNode.Utf8Text(w.source), Line: line(node), EnclosingFunction: enclosing})
	case "member_access_expression":
		exprNode := fnNode.ChildByFieldName("expression")
		nameNode := fnNode.ChildByFieldName("name")
		if nameNode == nil {
			return
		}
		qualifier := ""
		if exprNode != nil {
			qualifier = exprNode.Utf8Text(w.source)
		}
		w.calls = append(w.calls, RawCall{
			CallerName: enclosing, Qualifier: qualifier, Callee: nameNode.Utf8Text(w.source),
			Line: line(node), EnclosingFunction: enclosing,
		})
	}
}

func csharpIsPublic(node *tree_sitter.Node, source []byte) bool {
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child != nil && child.Kind() == "modifier" && strings.Contains(child.Utf8Text(source), "public") {
			return true
		}
	}
	return false
}

// csharpVisibility derives visibility from explicit modifiers, defaulting
// to C#'s implicit "private" (spec.md §4.4).
func csharpVisibility(node *tree_sitter.Node, source []byte) graph.Visibility {
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child == nil || child.Kind() != "modifier" {
			continue
		}
		switch child.Utf8Text(source) {
		case "public":
			return graph.VisibilityPublic
		case "private":
			return graph.VisibilityPrivate
		case "protected":
			return graph.VisibilityProtected
		case "internal":
			return graph.VisibilityInternal
		}
	}
	return graph.VisibilityPrivate
}
