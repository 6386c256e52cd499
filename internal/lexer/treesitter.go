package lexer

import (
	"context"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// grammar describes one bundled tree-sitter language.
type grammar struct {
	language   string
	extensions []string
	get        func() *sitter.Language

	// functions lists node types whose "name" field names a function.
	functions map[string]bool

	// types lists node types whose "name" field names a type.
	types map[string]bool
}

var grammars = map[string]grammar{
	"javascript": {
		language:   "javascript",
		extensions: []string{".js", ".jsx", ".mjs", ".cjs"},
		get:        javascript.GetLanguage,
		functions: map[string]bool{
			"function_declaration":           true,
			"generator_function_declaration": true,
			"function_expression":            true,
			"method_definition":              true,
		},
		types: map[string]bool{"class_declaration": true},
	},
	"typescript": {
		language:   "typescript",
		extensions: []string{".ts", ".tsx"},
		get:        typescript.GetLanguage,
		functions: map[string]bool{
			"function_declaration":           true,
			"generator_function_declaration": true,
			"function_expression":            true,
			"method_definition":              true,
			"method_signature":               true,
		},
		types: map[string]bool{
			"class_declaration":      true,
			"interface_declaration":  true,
			"type_alias_declaration": true,
			"enum_declaration":       true,
		},
	},
	"python": {
		language:   "python",
		extensions: []string{".py", ".pyi"},
		get:        python.GetLanguage,
		functions:  map[string]bool{"function_definition": true},
		types:      map[string]bool{"class_definition": true},
	},
}

// identifierNodes maps leaf node types to their token category.
var identifierNodes = map[string]string{
	"identifier":                    CategoryIdentifier,
	"property_identifier":           CategoryProperty,
	"shorthand_property_identifier": CategoryProperty,
	"private_property_identifier":   CategoryProperty,
	"type_identifier":               CategoryTypeName,
}

// TreeSitterLexer tokenizes with a tree-sitter grammar. It emits only
// identifier-like leaves, categorized by their syntactic role.
type TreeSitterLexer struct {
	grammar grammar
}

// NewTreeSitterLexer returns the tree-sitter lexer for language.
func NewTreeSitterLexer(language string) (*TreeSitterLexer, error) {
	g, ok := grammars[language]
	if !ok {
		return nil, fmt.Errorf("tree-sitter %s: %w", language, ErrUnsupportedLanguage)
	}
	return &TreeSitterLexer{grammar: g}, nil
}

// TreeSitterLexers returns a lexer for every bundled grammar.
func TreeSitterLexers() []*TreeSitterLexer {
	lexers := make([]*TreeSitterLexer, 0, len(grammars))
	for _, lang := range []string{"javascript", "typescript", "python"} {
		lexers = append(lexers, &TreeSitterLexer{grammar: grammars[lang]})
	}
	return lexers
}

// Language implements Tokenizer.
func (l *TreeSitterLexer) Language() string {
	return l.grammar.language
}

// Extensions implements Tokenizer.
func (l *TreeSitterLexer) Extensions() []string {
	return l.grammar.extensions
}

// Tokenize implements Tokenizer.
func (l *TreeSitterLexer) Tokenize(text string) ([]Token, error) {
	content := []byte(text)

	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(l.grammar.get())

	tree, err := parser.ParseCtx(context.Background(), nil, content)
	if err != nil {
		return nil, fmt.Errorf("tree-sitter parse: %w", err)
	}
	defer tree.Close()

	var tokens []Token
	l.walk(tree.RootNode(), content, &tokens)
	return tokens, nil
}

// walk appends identifier leaves under node in document order.
func (l *TreeSitterLexer) walk(node *sitter.Node, content []byte, tokens *[]Token) {
	if node == nil {
		return
	}

	if category, ok := identifierNodes[node.Type()]; ok {
		start := node.StartPoint()
		*tokens = append(*tokens, Token{
			Category: l.refine(node, category),
			Text:     string(content[node.StartByte():node.EndByte()]),
			Line:     int(start.Row),
			Column:   int(start.Column),
		})
		return
	}

	for i := 0; i < int(node.ChildCount()); i++ {
		l.walk(node.Child(i), content, tokens)
	}
}

// refine upgrades the category of an identifier that names a declaration.
func (l *TreeSitterLexer) refine(node *sitter.Node, category string) string {
	parent := node.Parent()
	if parent == nil {
		return category
	}

	ptype := parent.Type()
	if l.grammar.functions[ptype] && isNameOf(parent, node) {
		return CategoryFunctionName
	}
	if l.grammar.types[ptype] && isNameOf(parent, node) {
		return CategoryTypeName
	}

	// const render = () => {} / const render = function () {}
	if ptype == "variable_declarator" && isNameOf(parent, node) {
		if value := parent.ChildByFieldName("value"); value != nil {
			switch value.Type() {
			case "arrow_function", "function", "function_expression":
				return CategoryFunctionName
			}
		}
	}
	return category
}

// isNameOf reports whether node is the "name" field of parent.
func isNameOf(parent, node *sitter.Node) bool {
	name := parent.ChildByFieldName("name")
	return name != nil && name.StartByte() == node.StartByte() && name.EndByte() == node.EndByte()
}
