package langs

import (
	"fmt"
	"path/filepath"
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_javascript "github.com/tree-sitter/tree-sitter-javascript/bindings/go"
	tree_sitter_typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"

	"github.com/mycelium-dev/mycelium/internal/graph"
)

var tsjsBuiltins = []string{
	"require", "console", "setTimeout", "setInterval", "clearTimeout",
	"clearInterval", "parseInt", "parseFloat", "isNaN", "isFinite",
	"JSON", "Object", "Array", "Promise", "Map", "Set", "Symbol",
}

// tsjsAnalyser implements spec.md §4.4's "TypeScript/TSX/JavaScript/JSX
// share one analyser but three grammars" requirement (the third, TSX,
// reuses the TypeScript grammar's JSX dialect).
type tsjsAnalyser struct {
	baseBuiltins
	ts  *tree_sitter.Language
	tsx *tree_sitter.Language
	js  *tree_sitter.Language
}

func newTSJSAnalyser() *tsjsAnalyser {
	return &tsjsAnalyser{
		baseBuiltins: newBaseBuiltins(tsjsBuiltins...),
		ts:           tree_sitter.NewLanguage(tree_sitter_typescript.LanguageTypescript()),
		tsx:          tree_sitter.NewLanguage(tree_sitter_typescript.LanguageTSX()),
		js:           tree_sitter.NewLanguage(tree_sitter_javascript.Language()),
	}
}

// Language reports TypeScript; files parsed through the JS grammar are
// still tagged with their own detected Language by the caller (Phase 1
// derives File.Language from extension, not from this value).
func (a *tsjsAnalyser) Language() graph.Language { return graph.LangTypeScript }
func (a *tsjsAnalyser) Extensions() []string      { return []string{".ts", ".tsx", ".js", ".jsx"} }
func (a *tsjsAnalyser) IsAvailable() bool         { return true }

func (a *tsjsAnalyser) grammarFor(path string) *tree_sitter.Language {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".tsx":
		return a.tsx
	case ".ts":
		return a.ts
	default:
		return a.js
	}
}

func (a *tsjsAnalyser) Extract(path string, source []byte) (ExtractResult, error) {
	parser := tree_sitter.NewParser()
	defer parser.Close()
	if err := parser.SetLanguage(a.grammarFor(path)); err != nil {
		return ExtractResult{}, fmt.Errorf("set language typescript/javascript: %w", err)
	}
	tree := parser.Parse(source, nil)
	if tree == nil {
		return ExtractResult{}, fmt.Errorf("tree-sitter returned nil tree for %s", path)
	}
	defer tree.Close()

	w := &tsjsWalker{source: source}
	cursor := tree.RootNode().Walk()
	defer cursor.Close()
	w.walk(cursor, "", "")
	return ExtractResult{Symbols: w.symbols, Imports: w.imports, Calls: w.calls}, nil
}

type tsjsWalker struct {
	source  []byte
	pending int
	symbols []RawSymbol
	imports []RawImport
	calls   []RawCall
}

func (w *tsjsWalker) nextPendingID() string {
	id := fmt.Sprintf("_pending_%d", w.pending)
	w.pending++
	return id
}

func (w *tsjsWalker) walk(cursor *tree_sitter.TreeCursor, parentClass, enclosingFunc string) {
	node := cursor.Node()
	nextParent, nextFunc := parentClass, enclosingFunc
	exported := isTSExported(node)

	switch node.Kind() {
	case "function_declaration":
		if name := fieldText(node, "name", w.source); name != "" {
			w.symbols = append(w.symbols, RawSymbol{
				PendingID: w.nextPendingID(), Name: name, Kind: graph.SymbolKindFunction, Line: line(node),
				Visibility: exportedVisibility(exported), Exported: exported, Parent: parentClass,
			})
			nextFunc = name
		}

	case "method_definition":
		if name := fieldText(node, "name", w.source); name != "" {
			kind := graph.SymbolKindMethod
			if name == "constructor" {
				kind = graph.SymbolKindConstructor
			}
			sym := RawSymbol{
				PendingID: w.nextPendingID(), Name: name, Kind: kind, Line: line(node),
				Visibility: jsMemberVisibility(node, w.source), Exported: exported, Parent: parentClass,
			}
			if kind == graph.SymbolKindConstructor {
				sym.CtorParams = w.paramList(node)
			}
			w.symbols = append(w.symbols, sym)
			nextFunc = name
		}

	case "class_declaration":
		if name := fieldText(node, "name", w.source); name != "" {
			w.symbols = append(w.symbols, RawSymbol{
				PendingID: w.nextPendingID(), Name: name, Kind: graph.SymbolKindClass, Line: line(node),
				Visibility: exportedVisibility(exported), Exported: exported, Parent: parentClass,
			})
			nextParent = name
		}

	case "interface_declaration":
		if name := fieldText(node, "name", w.source); name != "" {
			w.symbols = append(w.symbols, RawSymbol{
				PendingID: w.nextPendingID(), Name: name, Kind: graph.SymbolKindInterface, Line: line(node),
				Visibility: exportedVisibility(exported), Exported: exported, Parent: parentClass,
			})
		}

	case "type_alias_declaration":
		if name := fieldText(node, "name", w.source); name != "" {
			w.symbols = append(w.symbols, RawSymbol{
				PendingID: w.nextPendingID(), Name: name, Kind: graph.SymbolKindTypeAlias, Line: line(node),
				Visibility: exportedVisibility(exported), Exported: exported, Parent: parentClass,
			})
		}

	case "enum_declaration":
		if name := fieldText(node, "name", w.source); name != "" {
			w.symbols = append(w.symbols, RawSymbol{
				PendingID: w.nextPendingID(), Name: name, Kind: graph.SymbolKindEnum, Line: line(node),
				Visibility: exportedVisibility(exported), Exported: exported, Parent: parentClass,
			})
		}

	case "lexical_declaration":
		w.extractArrowFunctions(node, parentClass, exported)

	case "import_statement":
		w.extractImport(node)

	case "call_expression":
		w.extractCall(node, enclosingFunc)
	}

	if cursor.GotoFirstChild() {
		w.walk(cursor, nextParent, nextFunc)
		for cursor.GotoNextSibling() {
			w.walk(cursor, nextParent, nextFunc)
		}
		cursor.GotoParent()
	}
}

// extractArrowFunctions recognises "export const foo = () => {...}" as a
// Function symbol (spec.md §4.4).
func (w *tsjsWalker) extractArrowFunctions(node *tree_sitter.Node, parentClass string, exported bool) {
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child == nil || child.Kind() != "variable_declarator" {
			continue
		}
		valueNode := child.ChildByFieldName("value")
		if valueNode == nil || (valueNode.Kind() != "arrow_function" && valueNode.Kind() != "function_expression") {
			continue
		}
		nameNode := child.ChildByFieldName("name")
		if nameNode == nil {
			continue
		}
		w.symbols = append(w.symbols, RawSymbol{
			PendingID: w.nextPendingID(), Name: nameNode.Utf8Text(w.source), Kind: graph.SymbolKindFunction,
			Line: line(child), Visibility: exportedVisibility(exported), Exported: exported, Parent: parentClass,
		})
	}
}

func (w *tsjsWalker) paramList(fn *tree_sitter.Node) []graph.Param {
	params := fn.ChildByFieldName("parameters")
	if params == nil {
		return nil
	}
	var out []graph.Param
	for i := uint(0); i < params.ChildCount(); i++ {
		p := params.Child(i)
		if p == nil {
			continue
		}
		var name, typ string
		switch p.Kind() {
		case "required_parameter", "optional_parameter":
			if pat := p.ChildByFieldName("pattern"); pat != nil {
				name = pat.Utf8Text(w.source)
			}
			if t := p.ChildByFieldName("type"); t != nil {
				typ = strings.TrimPrefix(t.Utf8Text(w.source), ":")
				typ = strings.TrimSpace(typ)
			}
		case "identifier":
			name = p.Utf8Text(w.source)
		}
		if name == "" {
			continue
		}
		out = append(out, graph.Param{Name: name, Type: typ})
	}
	return out
}

func (w *tsjsWalker) extractImport(node *tree_sitter.Node) {
	sourceNode := node.ChildByFieldName("source")
	if sourceNode == nil {
		for i := uint(0); i < node.ChildCount(); i++ {
			child := node.Child(i)
			if child != nil && child.Kind() == "string" {
				sourceNode = child
				break
			}
		}
	}
	if sourceNode == nil {
		return
	}
	target := strings.Trim(sourceNode.Utf8Text(w.source), "\"'`")
	if target == "" {
		return
	}
	w.imports = append(w.imports, RawImport{Target: target, Statement: node.Utf8Text(w.source)})
}

func (w *tsjsWalker) extractCall(node *tree_sitter.Node, enclosing string) {
	fnNode := node.ChildByFieldName("function")
	if fnNode == nil {
		return
	}
	switch fnNode.Kind() {
	case "identifier":
		callee := fnNode.Utf8Text(w.source)
		if callee == "" {
			return
		}
		w.calls = append(w.calls, RawCall{CallerName: enclosing, Callee: callee, Line: line(node), EnclosingFunction: enclosing})
	case "member_expression":
		objNode := fnNode.ChildByFieldName("object")
		propNode := fnNode.ChildByFieldName("property")
		if propNode == nil {
			return
		}
		qualifier := ""
		if objNode != nil {
			qualifier = objNode.Utf8Text(w.source)
		}
		w.calls = append(w.calls, RawCall{
			CallerName: enclosing, Qualifier: qualifier, Callee: propNode.Utf8Text(w.source),
			Line: line(node), EnclosingFunction: enclosing,
		})
	}
}

// isTSExported checks whether node's parent is an export_statement.
func isTSExported(node *tree_sitter.Node) bool {
	parent := node.Parent()
	if parent == nil {
		return false
	}
	return parent.Kind() == "export_statement"
}

func exportedVisibility(exported bool) graph.Visibility {
	if exported {
		return graph.VisibilityPublic
	}
	return graph.VisibilityPrivate
}

// jsMemberVisibility reads TypeScript's "private"/"protected"/"public"
// accessibility modifiers on a class member, defaulting to public.
func jsMemberVisibility(node *tree_sitter.Node, source []byte) graph.Visibility {
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child == nil {
			continue
		}
		switch child.Utf8Text(source) {
		case "private":
			return graph.VisibilityPrivate
		case "protected":
			return graph.VisibilityProtected
		case "public":
			return graph.VisibilityPublic
		}
	}
	return graph.VisibilityPublic
}
