package langs

import (
	"fmt"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_cpp "github.com/tree-sitter-grammars/tree-sitter-cpp/bindings/go"

	"github.com/mycelium-dev/mycelium/internal/graph"
)

var cppBuiltins = append(append([]string{}, cBuiltins...),
	"cout", "cin", "endl", "make_unique", "make_shared", "move", "forward",
	"static_cast", "dynamic_cast", "reinterpret_cast", "const_cast",
)

type cppAnalyser struct {
	baseBuiltins
	lang *tree_sitter.Language
}

func newCPPAnalyser() *cppAnalyser {
	return &cppAnalyser{
		baseBuiltins: newBaseBuiltins(cppBuiltins...),
		lang:         tree_sitter.NewLanguage(tree_sitter_cpp.Language()),
	}
}

func (a *cppAnalyser) Language() graph.Language { return graph.LangCPP }
func (a *cppAnalyser) Extensions() []string {
	return []string{".cpp", ".cc", ".cxx", ".hpp", ".hh", ".hxx"}
}
func (a *cppAnalyser) IsAvailable() bool { return true }

func (a *cppAnalyser) Extract(path string, source []byte) (ExtractResult, error) {
	parser := tree_sitter.NewParser()
	defer parser.Close()
	if err := parser.SetLanguage(a.lang); err != nil {
		return ExtractResult{}, fmt.Errorf("set language cpp: %w", err)
	}
	tree := parser.Parse(source, nil)
	if tree == nil {
		return ExtractResult{}, fmt.Errorf("tree-sitter returned nil tree for %s", path)
	}
	defer tree.Close()

	w := &cppWalker{source: source}
	cursor := tree.RootNode().Walk()
	defer cursor.Close()
	w.walk(cursor, "", "")
	return ExtractResult{Symbols: w.symbols, Imports: w.imports, Calls: w.calls}, nil
}

type cppWalker struct {
	source  []byte
	pending int
	symbols []RawSymbol
	imports []RawImport
	calls   []RawCall
}

func (w *cppWalker) nextPendingID() string {
	id := fmt.Sprintf("_pending_%d", w.pending)
	w.pending++
	return id
}

func (w *cppWalker) walk(cursor *tree_sitter.TreeCursor, enclosingClass, enclosingFunc string) {
	node := cursor.Node()
	nextClass, nextFunc := enclosingClass, enclosingFunc

	switch node.Kind() {
	case "namespace_definition":
		if name := fieldText(node, "name", w.source); name != "" {
			w.symbols = append(w.symbols, RawSymbol{
				PendingID: w.nextPendingID(), Name: name, Kind: graph.SymbolKindNamespace, Line: line(node),
				Visibility: graph.VisibilityPublic, Exported: true,
			})
		}

	case "class_specifier":
		if name := fieldText(node, "name", w.source); name != "" {
			w.symbols = append(w.symbols, RawSymbol{
				PendingID: w.nextPendingID(), Name: name, Kind: graph.SymbolKindClass, Line: line(node),
				Visibility: graph.VisibilityPrivate, Exported: false, Parent: enclosingClass,
			})
			nextClass = name
		}

	case "struct_specifier":
		if name := fieldText(node, "name", w.source); name != "" {
			w.symbols = append(w.symbols, RawSymbol{
				PendingID: w.nextPendingID(), Name: name, Kind: graph.SymbolKindStruct, Line: line(node),
				Visibility: graph.VisibilityPublic, Exported: true, Parent: enclosingClass,
			})
			nextClass = name
		}

	case "template_declaration":
		w.symbols = append(w.symbols, RawSymbol{
			PendingID: w.nextPendingID(), Name: cppTemplateName(node, w.source), Kind: graph.SymbolKindTemplate,
			Line: line(node), Visibility: graph.VisibilityPublic, Exported: true, Parent: enclosingClass,
		})

	case "function_definition":
		declarator := node.ChildByFieldName("declarator")
		if name := cDeclaratorName(declarator, w.source); name != "" {
			kind := graph.SymbolKindFunction
			if enclosingClass != "" {
				kind = graph.SymbolKindMethod
				if name == enclosingClass {
					kind = graph.SymbolKindConstructor
				}
			}
			w.symbols = append(w.symbols, RawSymbol{
				PendingID: w.nextPendingID(), Name: name, Kind: kind, Line: line(node),
				Visibility: graph.VisibilityPublic, Exported: enclosingClass == "", Parent: enclosingClass,
				CtorParams: cParamList(declarator, w.source),
			})
			nextFunc = name
		}

	case "preproc_include":
		pathNode := node.ChildByFieldName("path")
		if pathNode != nil {
			w.imports = append(w.imports, RawImport{Target: pathNode.Utf8Text(w.source), Statement: node.Utf8Text(w.source)})
		}

	case "call_expression":
		w.extractCall(node, enclosingFunc)
	}

	if cursor.GotoFirstChild() {
		w.walk(cursor, nextClass, nextFunc)
		for cursor.GotoNextSibling() {
			w.walk(cursor, nextClass, nextFunc)
		}
		cursor.GotoParent()
	}
}

func (w *cppWalker) extractCall(node *tree_sitter.Node, enclosing string) {
	fnNode := node.ChildByFieldName("function")
	if fnNode == nil {
		return
	}
	switch fnNode.Kind() {
	case "identifier":
		w.calls = append(w.calls, RawCall{CallerName: enclosing, Callee: fnNode.Utf8Text(w.source), Line: line(node), EnclosingFunction: enclosing})
	case "qualified_identifier":
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

// cppTemplateName looks past "template<...>" for the templated
// declaration's own name.
func cppTemplateName(node *tree_sitter.Node, source []byte) string {
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child == nil {
			continue
		}
		switch child.Kind() {
		case "class_specifier", "struct_specifier":
			if n := fieldText(child, "name", source); n != "" {
				return n
			}
		case "function_definition":
			if n := cDeclaratorName(child.ChildByFieldName("declarator"), source); n != "" {
				return n
			}
		}
	}
	return "template"
}
