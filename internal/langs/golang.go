package langs

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_go "github.com/tree-sitter/tree-sitter-go/bindings/go"

	"github.com/mycelium-dev/mycelium/internal/graph"
)

var goBuiltins = []string{
	"append", "cap", "close", "complex", "copy", "delete", "imag", "len",
	"make", "new", "panic", "print", "println", "real", "recover", "min", "max", "clear",
}

type goAnalyser struct {
	baseBuiltins
	lang *tree_sitter.Language
}

func newGoAnalyser() *goAnalyser {
	return &goAnalyser{
		baseBuiltins: newBaseBuiltins(goBuiltins...),
		lang:         tree_sitter.NewLanguage(tree_sitter_go.Language()),
	}
}

func (a *goAnalyser) Language() graph.Language { return graph.LangGo }
func (a *goAnalyser) Extensions() []string      { return []string{".go"} }
func (a *goAnalyser) IsAvailable() bool         { return true }

func (a *goAnalyser) Extract(path string, source []byte) (ExtractResult, error) {
	parser := tree_sitter.NewParser()
	defer parser.Close()
	if err := parser.SetLanguage(a.lang); err != nil {
		return ExtractResult{}, fmt.Errorf("set language go: %w", err)
	}
	tree := parser.Parse(source, nil)
	if tree == nil {
		return ExtractResult{}, fmt.Errorf("tree-sitter returned nil tree for %s", path)
	}
	defer tree.Close()

	w := &goWalker{source: source, path: path, pending: 0}
	cursor := tree.RootNode().Walk()
	defer cursor.Close()
	w.walk(cursor, "")
	return ExtractResult{Symbols: w.symbols, Imports: w.imports, Calls: w.calls}, nil
}

type goWalker struct {
	source  []byte
	path    string
	pending int
	symbols []RawSymbol
	imports []RawImport
	calls   []RawCall
}

func (w *goWalker) nextPendingID() string {
	id := fmt.Sprintf("_pending_%d", w.pending)
	w.pending++
	return id
}

func (w *goWalker) walk(cursor *tree_sitter.TreeCursor, enclosing string) {
	node := cursor.Node()
	nextEnclosing := enclosing

	switch node.Kind() {
	case "function_declaration":
		if name := w.fieldText(node, "name"); name != "" {
			w.symbols = append(w.symbols, RawSymbol{
				PendingID: w.nextPendingID(), Name: name, Kind: graph.SymbolKindFunction,
				Line: line(node), Visibility: goVisibility(name), Exported: isGoExported(name),
			})
			nextEnclosing = name
		}

	case "method_declaration":
		if name := w.fieldText(node, "name"); name != "" {
			parent := w.methodReceiverType(node)
			w.symbols = append(w.symbols, RawSymbol{
				PendingID: w.nextPendingID(), Name: name, Kind: graph.SymbolKindMethod,
				Line: line(node), Visibility: goVisibility(name), Exported: isGoExported(name), Parent: parent,
			})
			nextEnclosing = name
		}

	case "type_declaration":
		w.extractTypeDeclaration(node)

	case "const_declaration":
		w.extractValueSpecs(node, graph.SymbolKindConstant)

	case "var_declaration":
		w.extractValueSpecs(node, graph.SymbolKindVariable)

	case "import_spec":
		w.extractImport(node)

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

// methodReceiverType extracts the (unqualified) struct name from a method's
// receiver, e.g. "func (s *Server) Foo()" -> "Server".
func (w *goWalker) methodReceiverType(node *tree_sitter.Node) string {
	recv := node.ChildByFieldName("receiver")
	if recv == nil {
		return ""
	}
	for i := uint(0); i < recv.ChildCount(); i++ {
		child := recv.Child(i)
		if child == nil {
			continue
		}
		if child.Kind() == "parameter_declaration" {
			if child = child.ChildByFieldName("type"); child == nil {
				continue
			}
		}
		switch child.Kind() {
		case "pointer_type":
			if inner := child.Child(1); inner != nil {
				return inner.Utf8Text(w.source)
			}
		case "type_identifier":
			return child.Utf8Text(w.source)
		}
	}
	return ""
}

func (w *goWalker) extractTypeDeclaration(node *tree_sitter.Node) {
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child == nil || child.Kind() != "type_spec" {
			continue
		}
		nameNode := child.ChildByFieldName("name")
		if nameNode == nil {
			continue
		}
		name := nameNode.Utf8Text(w.source)

		kind := graph.SymbolKindStruct
		var ctor []graph.Param
		if typeNode := child.ChildByFieldName("type"); typeNode != nil {
			switch typeNode.Kind() {
			case "interface_type":
				kind = graph.SymbolKindInterface
			case "struct_type":
				kind = graph.SymbolKindStruct
				ctor = w.structFields(typeNode)
			default:
				kind = graph.SymbolKindTypeAlias
			}
		}
		w.symbols = append(w.symbols, RawSymbol{
			PendingID: w.nextPendingID(), Name: name, Kind: kind, Line: line(child),
			Visibility: goVisibility(name), Exported: isGoExported(name), CtorParams: ctor,
		})
	}
}

// structFields records a struct's field (name, type) pairs as CtorParams on
// the Struct symbol. Phase 4's field-type map (spec.md §4.6 Tier A-DI) reads
// CtorParams only from Constructor symbols, so these pairs do not take part
// in DI resolution.
func (w *goWalker) structFields(structType *tree_sitter.Node) []graph.Param {
	body := structType.ChildByFieldName("body")
	if body == nil {
		return nil
	}
	var params []graph.Param
	for i := uint(0); i < body.ChildCount(); i++ {
		field := body.Child(i)
		if field == nil || field.Kind() != "field_declaration" {
			continue
		}
		typeNode := field.ChildByFieldName("type")
		if typeNode == nil {
			continue
		}
		typeName := strings.TrimPrefix(typeNode.Utf8Text(w.source), "*")
		for j := uint(0); j < field.ChildCount(); j++ {
			nameChild := field.Child(j)
			if nameChild == nil || nameChild.Kind() != "field_identifier" {
				continue
			}
			params = append(params, graph.Param{Name: nameChild.Utf8Text(w.source), Type: typeName})
		}
	}
	return params
}

func (w *goWalker) extractValueSpecs(node *tree_sitter.Node, kind graph.SymbolKind) {
	for i := uint(0); i < node.ChildCount(); i++ {
		spec := node.Child(i)
		if spec == nil || spec.Kind() != "const_spec" && spec.Kind() != "var_spec" {
			continue
		}
		nameNode := spec.ChildByFieldName("name")
		if nameNode == nil {
			continue
		}
		name := nameNode.Utf8Text(w.source)
		w.symbols = append(w.symbols, RawSymbol{
			PendingID: w.nextPendingID(), Name: name, Kind: kind, Line: line(spec),
			Visibility: goVisibility(name), Exported: isGoExported(name),
		})
	}
}

func (w *goWalker) extractImport(node *tree_sitter.Node) {
	pathNode := node.ChildByFieldName("path")
	if pathNode == nil {
		return
	}
	target := strings.Trim(pathNode.Utf8Text(w.source), "\"")
	if target == "" {
		return
	}
	w.imports = append(w.imports, RawImport{Target: target, Statement: node.Utf8Text(w.source)})
}

func (w *goWalker) extractCall(node *tree_sitter.Node, enclosing string) {
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
	case "selector_expression":
		qualNode := fnNode.ChildByFieldName("operand")
		nameNode := fnNode.ChildByFieldName("field")
		if nameNode == nil {
			return
		}
		qualifier := ""
		if qualNode != nil {
			qualifier = qualNode.Utf8Text(w.source)
		}
		w.calls = append(w.calls, RawCall{
			CallerName: enclosing, Qualifier: qualifier, Callee: nameNode.Utf8Text(w.source),
			Line: line(node), EnclosingFunction: enclosing,
		})
	}
}

func (w *goWalker) fieldText(node *tree_sitter.Node, field string) string {
	n := node.ChildByFieldName(field)
	if n == nil {
		return ""
	}
	return n.Utf8Text(w.source)
}

func line(node *tree_sitter.Node) int {
	return int(node.StartPosition().Row) + 1
}

func isGoExported(name string) bool {
	r, _ := utf8.DecodeRuneInString(name)
	return unicode.IsUpper(r)
}

func goVisibility(name string) graph.Visibility {
	if isGoExported(name) {
		return graph.VisibilityPublic
	}
	return graph.VisibilityPrivate
}
