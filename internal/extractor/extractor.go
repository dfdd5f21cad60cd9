package extractor

import (
	"context"
	"log/slog"
	"os"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"

	"testretriever/pkg/types"
)

// Extractor parses Python source files and extracts named code units
// (functions and class methods) with their line ranges and exact text.
type Extractor struct {
	lang   *sitter.Language
	logger *slog.Logger
}

// New creates a new Extractor instance
func New(logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{
		lang:   python.GetLanguage(),
		logger: logger,
	}
}

// ExtractFile reads and extracts a source file from disk
func (e *Extractor) ExtractFile(filePath string, filter []types.LineRange) (map[string]types.CodeUnit, error) {
	src, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}
	return e.Extract(filePath, src, filter)
}

// Extract parses src into a syntax tree and returns the code units that
// overlap the scope filter, keyed by qualified name ("name" for top-level
// functions, "Class.name" for methods). Excluded units are dropped whole,
// never truncated. When two units share a qualified name the later one
// overwrites the earlier one; the collision is logged but preserved because
// downstream index keys depend on this ordering behavior.
//
// A syntactically invalid file fails the whole extraction with a ParseError;
// no partial results are returned.
func (e *Extractor) Extract(filePath string, src []byte, filter []types.LineRange) (map[string]types.CodeUnit, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(e.lang)

	tree, err := parser.ParseCtx(context.Background(), nil, src)
	if err != nil {
		return nil, types.NewParseError(filePath, err.Error())
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		return nil, types.NewParseError(filePath, "invalid syntax")
	}

	units := make(map[string]types.CodeUnit)

	for i := 0; i < int(root.NamedChildCount()); i++ {
		node := root.NamedChild(i)
		switch node.Type() {
		case "function_definition":
			e.addUnit(units, filePath, src, node, "", filter)
		case "class_definition":
			e.extractMethods(units, filePath, src, node, filter)
		case "decorated_definition":
			inner := definitionOf(node)
			if inner == nil {
				continue
			}
			switch inner.Type() {
			case "function_definition":
				e.addUnit(units, filePath, src, inner, "", filter)
			case "class_definition":
				e.extractMethods(units, filePath, src, inner, filter)
			}
		}
	}

	return units, nil
}

// extractMethods walks a class body and extracts its direct methods as
// "Class.name" units. Nested classes are not descended into.
func (e *Extractor) extractMethods(units map[string]types.CodeUnit, filePath string, src []byte, class *sitter.Node, filter []types.LineRange) {
	nameNode := class.ChildByFieldName("name")
	body := class.ChildByFieldName("body")
	if nameNode == nil || body == nil {
		return
	}
	className := nameNode.Content(src)

	for i := 0; i < int(body.NamedChildCount()); i++ {
		member := body.NamedChild(i)
		if member.Type() == "decorated_definition" {
			member = definitionOf(member)
			if member == nil {
				continue
			}
		}
		if member.Type() != "function_definition" {
			continue
		}
		e.addUnit(units, filePath, src, member, className, filter)
	}
}

// addUnit records one function-like node if it overlaps the scope filter
func (e *Extractor) addUnit(units map[string]types.CodeUnit, filePath string, src []byte, fn *sitter.Node, className string, filter []types.LineRange) {
	nameNode := fn.ChildByFieldName("name")
	if nameNode == nil {
		return
	}

	qualifiedName := nameNode.Content(src)
	if className != "" {
		qualifiedName = className + "." + qualifiedName
	}

	// tree-sitter rows are 0-based.
	beginLine := int(fn.StartPoint().Row) + 1
	endLine := int(fn.EndPoint().Row) + 1

	if !types.InScope(beginLine, endLine, filter) {
		return
	}

	if _, exists := units[qualifiedName]; exists {
		e.logger.Warn("duplicate qualified name, keeping later definition",
			"file", filePath, "unit", qualifiedName)
	}

	units[qualifiedName] = types.CodeUnit{
		FilePath:      filePath,
		QualifiedName: qualifiedName,
		BeginLine:     beginLine,
		EndLine:       endLine,
		Source:        string(src[fn.StartByte():fn.EndByte()]),
	}
}

// definitionOf unwraps a decorated_definition to the node it decorates.
// The source slice of a decorated unit starts at the def keyword, matching
// the line range reported for the unit.
func definitionOf(decorated *sitter.Node) *sitter.Node {
	return decorated.ChildByFieldName("definition")
}
