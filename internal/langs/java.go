package langs

import (
	"fmt"
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_java "github.com/tree-sitter/tree-sitter-java/bindings/go"

	"github.com/mycelium-dev/mycelium/internal/graph"
)

var javaBuiltins = []string{
	"println", "print", "printf", "equals", "hashCode", "toString",
	"getClass", "valueOf", "format", "require", "asList", "of",
}

type javaAnalyser struct {
	baseBuiltins
	lang *tree_sitter.Language
}

func newJavaAnalyser() *javaAnalyser {
	return &javaAnalyser{
		baseBuiltins: newBaseBuiltins(javaBuiltins...),
		lang:         tree_sitter.NewLanguage(tree_sitter_java.Language()),
	}
}

func (a *javaAnalyser) Language() graph.Language { return graph.LangJava }
func (a *javaAnalyser) Extensions() []string      { return []string{".java"} }
func (a *javaAnalyser) IsAvailable() bool         { return true }

func (a *javaAnalyser) Extract(path string, source []byte) (ExtractResult, error) {
	parser := tree_sitter.NewParser()
	defer parser.Close()
	if err := parser.SetLanguage(a.lang); err != nil {
		return ExtractResult{}, fmt.Errorf("set language java: %w", err)
	}
	tree := parser.Parse(source, nil)
	if tree == nil {
		return ExtractResult{}, fmt.Errorf("tree-sitter returned nil tree for %s", path)
	}
	defer tree.Close()

	w := &javaWalker{source: source}
	cursor := tree.RootNode().Walk()
	defer cursor.Close()
	w.walk(cursor, "", "")
	return ExtractResult{Symbols: w.symbols, Imports: w.imports, Calls: w.calls}, nil
}

type javaWalker struct {
	source  []byte
	pending int
	symbols []RawSymbol
	imports []RawImport
	calls   []RawCall
}

func (w *javaWalker) nextPendingID() string {
	id := fmt.Sprintf("_pending_%d", w.pending)
	w.pending++
	return id
}

func (w *javaWalker) walk(cursor *tree_sitter.TreeCursor, parentType, enclosing string) {
	node := cursor.Node()
	nextParent, nextEnclosing := parentType, enclosing

	switch node.Kind() {
	case "class_declaration":
		if name := fieldText(node, "name", w.source); name != "" {
			w.symbols = append(w.symbols, RawSymbol{
				PendingID: w.nextPendingID(), Name: name, Kind: graph.SymbolKindClass, Line: line(node),
				Visibility: javaVisibility(node, w.source), Exported: javaIsPublic(node, w.source), Parent: parentType,
			})
			nextParent = name
		}

	case "interface_declaration":
		if name := fieldText(node, "name", w.source); name != "" {
			w.symbols = append(w.symbols, RawSymbol{
				PendingID: w.nextPendingID(), Name: name, Kind: graph.SymbolKindInterface, Line: line(node),
				Visibility: javaVisibility(node, w.source), Exported: javaIsPublic(node, w.source), Parent: parentType,
			})
			nextParent = name
		}

	case "enum_declaration":
		if name := fieldText(node, "name", w.source); name != "" {
			w.symbols = append(w.symbols, RawSymbol{
				PendingID: w.nextPendingID(), Name: name, Kind: graph.SymbolKindEnum, Line: line(node),
				Visibility: javaVisibility(node, w.source), Exported: javaIsPublic(node, w.source), Parent: parentType,
			})
			nextParent = name
		}

	case "annotation_type_declaration":
		if name := fieldText(node, "name", w.source); name != "" {
			w.symbols = append(w.symbols, RawSymbol{
				PendingID: w.nextPendingID(), Name: name, Kind: graph.SymbolKindAnnotation, Line: line(node),
				Visibility: javaVisibility(node, w.source), Exported: javaIsPublic(node, w.source), Parent: parentType,
			})
		}

	case "constructor_declaration":
		if name := fieldText(node, "name", w.source); name != "" {
			w.symbols = append(w.symbols, RawSymbol{
				PendingID: w.nextPendingID(), Name: name, Kind: graph.SymbolKindConstructor, Line: line(node),
				Visibility: javaVisibility(node, w.source), Exported: javaIsPublic(node, w.source), Parent: parentType,
				CtorParams: w.paramList(node),
			})
			nextEnclosing = name
		}

	case "method_declaration":
		if name := fieldText(node, "name", w.source); name != "" {
			w.symbols = append(w.symbols, RawSymbol{
				PendingID: w.nextPendingID(), Name: name, Kind: graph.SymbolKindMethod, Line: line(node),
				Visibility: javaVisibility(node, w.source), Exported: javaIsPublic(node, w.source), Parent: parentType,
			})
			nextEnclosing = name
		}

	case "import_declaration":
		w.extractImport(node)

	case "method_invocation":
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

func (w *javaWalker) paramList(node *tree_sitter.Node) []graph.Param {
	params := node.ChildByFieldName("parameters")
	if params == nil {
		return nil
	}
	var out []graph.Param
	for i := uint(0); i < params.ChildCount(); i++ {
		p := params.Child(i)
		if p == nil || p.Kind() != "formal_parameter" {
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

func (w *javaWalker) extractImport(node *tree_sitter.Node) {
	text := node.Utf8Text(w.source)
	target := strings.TrimSuffix(strings.TrimSpace(strings.TrimPrefix(strings.TrimPrefix(text, "import"), " ")), ";")
	target = strings.TrimSpace(target)
	target = strings.TrimPrefix(target, "static ")
	if target == "" {
		return
	}
	w.imports = append(w.imports, RawImport{Target: target, Statement: text})
}

func (w *javaWalker) extractCall(node *tree_sitter.Node, enclosing string) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	objNode := node.ChildByFieldName("object")
	qualifier := ""
	if objNode != nil {
		qualifier = objNode.Utf8Text(w.source)
	}
	w.calls = append(w.calls, RawCall{
		CallerName: enclosing, Qualifier: qualifier, Callee: nameNode.Utf8Text(w.source),
		Line: line(node), EnclosingFunction: enclosing,
	})
}

// javaIsPublic reports whether node carries a "public" modifier; Java's
// default (no modifier) is package-private.
func javaIsPublic(node *tree_sitter.Node, source []byte) bool {
	mods := javaModifiers(node)
	if mods == nil {
		return false
	}
	return strings.Contains(mods.Utf8Text(source), "public")
}

// javaModifiers returns node's "modifiers" child; the Java grammar attaches
// it as an unnamed child rather than a field.
func javaModifiers(node *tree_sitter.Node) *tree_sitter.Node {
	for i := uint(0); i < node.ChildCount(); i++ {
		if child := node.Child(i); child != nil && child.Kind() == "modifiers" {
			return child
		}
	}
	return nil
}

func javaVisibility(node *tree_sitter.Node, source []byte) graph.Visibility {
	mods := javaModifiers(node)
	if mods == nil {
		return graph.VisibilityInternal
	}
	text := mods.Utf8Text(source)
	switch {
	case strings.Contains(text, "public"):
		return graph.VisibilityPublic
	case strings.Contains(text, "private"):
		return graph.VisibilityPrivate
	case strings.Contains(text, "protected"):
		return graph.VisibilityProtected
	default:
		return graph.VisibilityInternal
	}
}
