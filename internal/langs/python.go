package langs

import (
	"fmt"
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_python "github.com/tree-sitter/tree-sitter-python/bindings/go"

	"github.com/mycelium-dev/mycelium/internal/graph"
)

var pythonBuiltins = []string{
	"print", "len", "range", "enumerate", "zip", "map", "filter", "sorted",
	"reversed", "open", "isinstance", "issubclass", "super", "str", "int",
	"float", "bool", "list", "dict", "set", "tuple", "type", "repr", "input",
	"getattr", "setattr", "hasattr", "iter", "next", "format", "abs", "min",
	"max", "sum", "any", "all", "vars", "id", "hash", "round",
}

type pythonAnalyser struct {
	baseBuiltins
	lang *tree_sitter.Language
}

func newPythonAnalyser() *pythonAnalyser {
	return &pythonAnalyser{
		baseBuiltins: newBaseBuiltins(pythonBuiltins...),
		lang:         tree_sitter.NewLanguage(tree_sitter_python.Language()),
	}
}

func (a *pythonAnalyser) Language() graph.Language { return graph.LangPython }
func (a *pythonAnalyser) Extensions() []string      { return []string{".py"} }
func (a *pythonAnalyser) IsAvailable() bool         { return true }

func (a *pythonAnalyser) Extract(path string, source []byte) (ExtractResult, error) {
	parser := tree_sitter.NewParser()
	defer parser.Close()
	if err := parser.SetLanguage(a.lang); err != nil {
		return ExtractResult{}, fmt.Errorf("set language python: %w", err)
	}
	tree := parser.Parse(source, nil)
	if tree == nil {
		return ExtractResult{}, fmt.Errorf("tree-sitter returned nil tree for %s", path)
	}
	defer tree.Close()

	w := &pyWalker{source: source}
	cursor := tree.RootNode().Walk()
	defer cursor.Close()
	w.walk(cursor, "", "")
	return ExtractResult{Symbols: w.symbols, Imports: w.imports, Calls: w.calls}, nil
}

type pyWalker struct {
	source  []byte
	pending int
	symbols []RawSymbol
	imports []RawImport
	calls   []RawCall
}

func (w *pyWalker) nextPendingID() string {
	id := fmt.Sprintf("_pending_%d", w.pending)
	w.pending++
	return id
}

// walk carries both the enclosing class (parent) and the enclosing
// function/method name, since Python nests both.
func (w *pyWalker) walk(cursor *tree_sitter.TreeCursor, parentClass, enclosingFunc string) {
	node := cursor.Node()
	nextParent, nextFunc := parentClass, enclosingFunc

	switch node.Kind() {
	case "function_definition":
		name := fieldText(node, "name", w.source)
		if name != "" {
			kind := graph.SymbolKindFunction
			if parentClass != "" {
				kind = graph.SymbolKindMethod
			}
			sym := RawSymbol{
				PendingID: w.nextPendingID(), Name: name, Kind: kind, Line: line(node),
				Visibility: pyVisibility(name), Exported: isPyExported(name), Parent: parentClass,
			}
			if name == "__init__" && parentClass != "" {
				sym.Kind = graph.SymbolKindConstructor
				sym.CtorParams = w.paramList(node)
			}
			w.symbols = append(w.symbols, sym)
			nextFunc = name
		}

	case "class_definition":
		name := fieldText(node, "name", w.source)
		if name != "" {
			w.symbols = append(w.symbols, RawSymbol{
				PendingID: w.nextPendingID(), Name: name, Kind: graph.SymbolKindClass, Line: line(node),
				Visibility: pyVisibility(name), Exported: isPyExported(name), Parent: parentClass,
			})
			nextParent = name
			nextFunc = ""
		}

	case "import_statement":
		for i := uint(0); i < node.ChildCount(); i++ {
			child := node.Child(i)
			if child != nil && child.Kind() == "dotted_name" {
				target := child.Utf8Text(w.source)
				if target != "" {
					w.imports = append(w.imports, RawImport{Target: target, Statement: node.Utf8Text(w.source)})
				}
			}
		}

	case "import_from_statement":
		moduleNode := node.ChildByFieldName("module_name")
		if moduleNode == nil {
			for i := uint(0); i < node.ChildCount(); i++ {
				child := node.Child(i)
				if child != nil && child.Kind() == "dotted_name" {
					moduleNode = child
					break
				}
			}
		}
		if moduleNode != nil {
			target := moduleNode.Utf8Text(w.source)
			if target != "" {
				w.imports = append(w.imports, RawImport{Target: target, Statement: node.Utf8Text(w.source)})
			}
		}

	case "call":
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

// paramList extracts (name, type) pairs from a function's parameter list,
// skipping "self", for Tier A-DI field-type resolution (spec.md §4.6).
func (w *pyWalker) paramList(fn *tree_sitter.Node) []graph.Param {
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
		case "identifier":
			name = p.Utf8Text(w.source)
		case "typed_parameter":
			if id := p.Child(0); id != nil {
				name = id.Utf8Text(w.source)
			}
			if t := p.ChildByFieldName("type"); t != nil {
				typ = t.Utf8Text(w.source)
			}
		case "typed_default_parameter", "default_parameter":
			if n := p.ChildByFieldName("name"); n != nil {
				name = n.Utf8Text(w.source)
			}
			if t := p.ChildByFieldName("type"); t != nil {
				typ = t.Utf8Text(w.source)
			}
		}
		if name == "" || name == "self" {
			continue
		}
		out = append(out, graph.Param{Name: name, Type: typ})
	}
	return out
}

func (w *pyWalker) extractCall(node *tree_sitter.Node, enclosing string) {
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
	case "attribute":
		objNode := fnNode.ChildByFieldName("object")
		attrNode := fnNode.ChildByFieldName("attribute")
		if attrNode == nil {
			return
		}
		qualifier := ""
		if objNode != nil {
			qualifier = objNode.Utf8Text(w.source)
		}
		w.calls = append(w.calls, RawCall{
			CallerName: enclosing, Qualifier: qualifier, Callee: attrNode.Utf8Text(w.source),
			Line: line(node), EnclosingFunction: enclosing,
		})
	}
}

func fieldText(node *tree_sitter.Node, field string, source []byte) string {
	n := node.ChildByFieldName(field)
	if n == nil {
		return ""
	}
	return n.Utf8Text(source)
}

func isPyExported(name string) bool {
	return !strings.HasPrefix(name, "_")
}

func pyVisibility(name string) graph.Visibility {
	if isPyExported(name) {
		return graph.VisibilityPublic
	}
	return graph.VisibilityPrivate
}
