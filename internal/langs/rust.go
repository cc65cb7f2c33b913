package langs

import (
	"fmt"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_rust "github.com/tree-sitter/tree-sitter-rust/bindings/go"

	"github.com/mycelium-dev/mycelium/internal/graph"
)

var rustBuiltins = []string{
	"println", "print", "eprintln", "eprint", "format", "vec", "panic",
	"assert", "assert_eq", "assert_ne", "dbg", "write", "writeln", "matches",
	"unreachable", "todo", "unimplemented",
}

type rustAnalyser struct {
	baseBuiltins
	lang *tree_sitter.Language
}

func newRustAnalyser() *rustAnalyser {
	return &rustAnalyser{
		baseBuiltins: newBaseBuiltins(rustBuiltins...),
		lang:         tree_sitter.NewLanguage(tree_sitter_rust.Language()),
	}
}

func (a *rustAnalyser) Language() graph.Language { return graph.LangRust }
func (a *rustAnalyser) Extensions() []string      { return []string{".rs"} }
func (a *rustAnalyser) IsAvailable() bool         { return true }

func (a *rustAnalyser) Extract(path string, source []byte) (ExtractResult, error) {
	parser := tree_sitter.NewParser()
	defer parser.Close()
	if err := parser.SetLanguage(a.lang); err != nil {
		return ExtractResult{}, fmt.Errorf("set language rust: %w", err)
	}
	tree := parser.Parse(source, nil)
	if tree == nil {
		return ExtractResult{}, fmt.Errorf("tree-sitter returned nil tree for %s", path)
	}
	defer tree.Close()

	w := &rustWalker{source: source}
	cursor := tree.RootNode().Walk()
	defer cursor.Close()
	w.walk(cursor, "", "")
	return ExtractResult{Symbols: w.symbols, Imports: w.imports, Calls: w.calls}, nil
}

type rustWalker struct {
	source  []byte
	pending int
	symbols []RawSymbol
	imports []RawImport
	calls   []RawCall
}

func (w *rustWalker) nextPendingID() string {
	id := fmt.Sprintf("_pending_%d", w.pending)
	w.pending++
	return id
}

func (w *rustWalker) walk(cursor *tree_sitter.TreeCursor, implType, enclosing string) {
	node := cursor.Node()
	nextImpl, nextEnclosing := implType, enclosing

	switch node.Kind() {
	case "function_item":
		if name := fieldText(node, "name", w.source); name != "" {
			kind := graph.SymbolKindFunction
			if implType != "" {
				kind = graph.SymbolKindMethod
			}
			sym := RawSymbol{
				PendingID: w.nextPendingID(), Name: name, Kind: kind, Line: line(node),
				Visibility: rustVisibility(node), Exported: isRustPub(node), Parent: implType,
			}
			if name == "new" && implType != "" {
				sym.Kind = graph.SymbolKindConstructor
				sym.CtorParams = w.paramList(node)
			}
			w.symbols = append(w.symbols, sym)
			nextEnclosing = name
		}

	case "struct_item":
		if name := fieldText(node, "name", w.source); name != "" {
			w.symbols = append(w.symbols, RawSymbol{
				PendingID: w.nextPendingID(), Name: name, Kind: graph.SymbolKindStruct, Line: line(node),
				Visibility: rustVisibility(node), Exported: isRustPub(node),
			})
		}

	case "enum_item":
		if name := fieldText(node, "name", w.source); name != "" {
			w.symbols = append(w.symbols, RawSymbol{
				PendingID: w.nextPendingID(), Name: name, Kind: graph.SymbolKindEnum, Line: line(node),
				Visibility: rustVisibility(node), Exported: isRustPub(node),
			})
		}

	case "trait_item":
		if name := fieldText(node, "name", w.source); name != "" {
			w.symbols = append(w.symbols, RawSymbol{
				PendingID: w.nextPendingID(), Name: name, Kind: graph.SymbolKindTrait, Line: line(node),
				Visibility: rustVisibility(node), Exported: isRustPub(node),
			})
		}

	case "type_item":
		if name := fieldText(node, "name", w.source); name != "" {
			w.symbols = append(w.symbols, RawSymbol{
				PendingID: w.nextPendingID(), Name: name, Kind: graph.SymbolKindTypeAlias, Line: line(node),
				Visibility: rustVisibility(node), Exported: isRustPub(node),
			})
		}

	case "macro_definition":
		if name := fieldText(node, "name", w.source); name != "" {
			w.symbols = append(w.symbols, RawSymbol{
				PendingID: w.nextPendingID(), Name: name, Kind: graph.SymbolKindMacro, Line: line(node),
				Visibility: graph.VisibilityPublic, Exported: true,
			})
		}

	case "impl_item":
		if typeNode := node.ChildByFieldName("type"); typeNode != nil {
			nextImpl = typeNode.Utf8Text(w.source)
			w.symbols = append(w.symbols, RawSymbol{
				PendingID: w.nextPendingID(), Name: nextImpl, Kind: graph.SymbolKindImpl, Line: line(node),
				Visibility: graph.VisibilityPublic, Exported: true,
			})
		}

	case "use_declaration":
		w.extractUse(node)

	case "call_expression":
		w.extractCall(node, enclosing)

	case "macro_invocation":
		if name := fieldText(node, "macro", w.source); name != "" {
			w.calls = append(w.calls, RawCall{CallerName: enclosing, Callee: name, Line: line(node), EnclosingFunction: enclosing})
		}
	}

	if cursor.GotoFirstChild() {
		w.walk(cursor, nextImpl, nextEnclosing)
		for cursor.GotoNextSibling() {
			w.walk(cursor, nextImpl, nextEnclosing)
		}
		cursor.GotoParent()
	}
}

func (w *rustWalker) paramList(fn *tree_sitter.Node) []graph.Param {
	params := fn.ChildByFieldName("parameters")
	if params == nil {
		return nil
	}
	var out []graph.Param
	for i := uint(0); i < params.ChildCount(); i++ {
		p := params.Child(i)
		if p == nil || p.Kind() != "parameter" {
			continue
		}
		patNode := p.ChildByFieldName("pattern")
		typeNode := p.ChildByFieldName("type")
		if patNode == nil || typeNode == nil {
			continue
		}
		out = append(out, graph.Param{Name: patNode.Utf8Text(w.source), Type: typeNode.Utf8Text(w.source)})
	}
	return out
}

func (w *rustWalker) extractUse(node *tree_sitter.Node) {
	argNode := node.ChildByFieldName("argument")
	var target string
	if argNode != nil {
		target = argNode.Utf8Text(w.source)
	} else {
		target = node.Utf8Text(w.source)
	}
	if target == "" {
		return
	}
	w.imports = append(w.imports, RawImport{Target: target, Statement: node.Utf8Text(w.source)})
}

func (w *rustWalker) extractCall(node *tree_sitter.Node, enclosing string) {
	fnNode := node.ChildByFieldName("function")
	if fnNode == nil {
		return
	}
	switch fnNode.Kind() {
	case "identifier":
		w.calls = append(w.calls, RawCall{CallerName: enclosing, Callee: fnNode.Utf8Text(w.source), Line: line(node), EnclosingFunction: enclosing})
	case "scoped_identifier":
		text := fnNode.Utf8Text(w.source)
		w.calls = append(w.calls, RawCall{CallerName: enclosing, Callee: text, Line: line(node), EnclosingFunction: enclosing})
	case "field_expression":
		valueNode := fnNode.ChildByFieldName("value")
		fieldNode := fnNode.ChildByFieldName("field")
		if fieldNode == nil {
			return
		}
		qualifier := ""
		if valueNode != nil {
			qualifier = valueNode.Utf8Text(w.source)
		}
		w.calls = append(w.calls, RawCall{
			CallerName: enclosing, Qualifier: qualifier, Callee: fieldNode.Utf8Text(w.source),
			Line: line(node), EnclosingFunction: enclosing,
		})
	}
}

func isRustPub(node *tree_sitter.Node) bool {
	first := node.Child(0)
	if first == nil {
		return false
	}
	return first.Kind() == "visibility_modifier"
}

func rustVisibility(node *tree_sitter.Node) graph.Visibility {
	if isRustPub(node) {
		return graph.VisibilityPublic
	}
	return graph.VisibilityPrivate
}
