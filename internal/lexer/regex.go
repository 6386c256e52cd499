package lexer

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Rule assigns a category to every match of a pattern.
type Rule struct {
	// Pattern is the regex applied to each line.
	Pattern *regexp.Regexp

	// Category is assigned to matches.
	Category string

	// Submatch selects a capture group (0 for the whole match).
	Submatch int
}

// blockRule describes a construct that may span lines.
type blockRule struct {
	start    string
	end      string
	category string
}

// RegexLexer is a line-oriented lexer driven by regex rules and keyword
// tables. Block constructs (comments, raw strings) carry across lines.
type RegexLexer struct {
	language   string
	extensions []string
	blocks     []blockRule
	lineMarker string
	rules      []Rule
	keywords   map[string]string
}

// NewRegexLexer creates an empty lexer for language.
func NewRegexLexer(language string, extensions []string) *RegexLexer {
	return &RegexLexer{
		language:   language,
		extensions: extensions,
		keywords:   make(map[string]string),
	}
}

// PlainLexer returns a lexer that only emits identifiers.
func PlainLexer() *RegexLexer {
	return NewRegexLexer(PlainText, nil)
}

// AddRule appends a rule. Earlier rules win over later ones.
func (l *RegexLexer) AddRule(pattern, category string) *RegexLexer {
	return l.AddSubmatchRule(pattern, category, 0)
}

// AddSubmatchRule appends a rule that categorizes only one capture group.
func (l *RegexLexer) AddSubmatchRule(pattern, category string, submatch int) *RegexLexer {
	l.rules = append(l.rules, Rule{
		Pattern:  regexp.MustCompile(pattern),
		Category: category,
		Submatch: submatch,
	})
	return l
}

// AddKeywords assigns category to each word.
func (l *RegexLexer) AddKeywords(category string, words ...string) *RegexLexer {
	for _, w := range words {
		l.keywords[w] = category
	}
	return l
}

// SetLineComment sets the marker that starts a comment running to the end of
// the line. Block starts after the marker are ignored.
func (l *RegexLexer) SetLineComment(marker string) *RegexLexer {
	l.lineMarker = marker
	return l
}

// AddBlock adds a construct delimited by start and end that may span lines.
func (l *RegexLexer) AddBlock(start, end, category string) *RegexLexer {
	l.blocks = append(l.blocks, blockRule{start: start, end: end, category: category})
	return l
}

// Language implements Tokenizer.
func (l *RegexLexer) Language() string {
	return l.language
}

// Extensions implements Tokenizer.
func (l *RegexLexer) Extensions() []string {
	return l.extensions
}

// Tokenize implements Tokenizer.
func (l *RegexLexer) Tokenize(text string) ([]Token, error) {
	var tokens []Token
	open := -1 // index into l.blocks of the construct continuing from the previous line

	for lineNo, line := range strings.Split(text, "\n") {
		line = strings.TrimSuffix(line, "\r")
		var lineTokens []Token
		lineTokens, open = l.tokenizeLine(line, lineNo, open)
		tokens = append(tokens, lineTokens...)
	}
	return tokens, nil
}

// tokenizeLine tokenizes one line given the open block from the previous line.
func (l *RegexLexer) tokenizeLine(line string, lineNo, open int) ([]Token, int) {
	covered := make([]bool, len(line))
	var tokens []Token

	emit := func(category string, start, end int) {
		tokens = append(tokens, Token{
			Category: category,
			Text:     line[start:end],
			Line:     lineNo,
			Column:   start,
		})
		markCovered(covered, start, end)
	}

	from := 0
	if open >= 0 {
		rule := l.blocks[open]
		idx := strings.Index(line, rule.end)
		if idx < 0 {
			if len(line) > 0 {
				emit(rule.category, 0, len(line))
			}
			return tokens, open
		}
		from = idx + len(rule.end)
		emit(rule.category, 0, from)
		open = -1
	}

	// Block starts, leftmost first.
	for from < len(line) {
		bi, idx := l.nextBlock(line, from, covered)
		if bi < 0 || l.commentBefore(line, from, idx) {
			break
		}
		rule := l.blocks[bi]
		rest := idx + len(rule.start)
		endIdx := strings.Index(line[rest:], rule.end)
		if endIdx < 0 {
			emit(rule.category, idx, len(line))
			open = bi
			break
		}
		end := rest + endIdx + len(rule.end)
		emit(rule.category, idx, end)
		from = end
	}

	for _, rule := range l.rules {
		for _, m := range rule.Pattern.FindAllStringSubmatchIndex(line, -1) {
			start, end := m[0], m[1]
			if rule.Submatch > 0 && len(m) > rule.Submatch*2+1 {
				start, end = m[rule.Submatch*2], m[rule.Submatch*2+1]
			}
			if start >= 0 && end > start && !isCovered(covered, start, end) {
				emit(rule.Category, start, end)
			}
		}
	}

	tokens = append(tokens, l.identifiers(line, lineNo, covered)...)
	sortTokens(tokens)
	return tokens, open
}

// nextBlock returns the block rule starting leftmost at or after from.
func (l *RegexLexer) nextBlock(line string, from int, covered []bool) (int, int) {
	best, bestIdx := -1, len(line)
	for i, rule := range l.blocks {
		idx := strings.Index(line[from:], rule.start)
		if idx < 0 {
			continue
		}
		idx += from
		if idx < bestIdx && !isCovered(covered, idx, idx+len(rule.start)) {
			best, bestIdx = i, idx
		}
	}
	return best, bestIdx
}

// commentBefore reports whether a line comment starts in line[from:idx].
func (l *RegexLexer) commentBefore(line string, from, idx int) bool {
	if l.lineMarker == "" {
		return false
	}
	c := strings.Index(line[from:idx], l.lineMarker)
	return c >= 0
}

// identifiers emits identifier and keyword tokens for uncovered words.
func (l *RegexLexer) identifiers(line string, lineNo int, covered []bool) []Token {
	var tokens []Token

	i := 0
	for i < len(line) {
		r, size := utf8.DecodeRuneInString(line[i:])
		if covered[i] || !(unicode.IsLetter(r) || r == '_' || r == '$') {
			i += size
			continue
		}

		start := i
		for i < len(line) {
			r, size = utf8.DecodeRuneInString(line[i:])
			if !(unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '$') {
				break
			}
			i += size
		}

		if isCovered(covered, start, i) {
			continue
		}
		word := line[start:i]
		category := CategoryIdentifier
		if kw, ok := l.keywords[word]; ok {
			category = kw
		}
		tokens = append(tokens, Token{Category: category, Text: word, Line: lineNo, Column: start})
	}
	return tokens
}

func isCovered(covered []bool, start, end int) bool {
	for i := max(start, 0); i < end && i < len(covered); i++ {
		if covered[i] {
			return true
		}
	}
	return false
}

func markCovered(covered []bool, start, end int) {
	for i := max(start, 0); i < end && i < len(covered); i++ {
		covered[i] = true
	}
}

// sortTokens orders the tokens of one line by column.
func sortTokens(tokens []Token) {
	for i := 1; i < len(tokens); i++ {
		for j := i; j > 0 && tokens[j].Column < tokens[j-1].Column; j-- {
			tokens[j], tokens[j-1] = tokens[j-1], tokens[j]
		}
	}
}

// GoLexer returns a lexer for Go.
func GoLexer() *RegexLexer {
	l := NewRegexLexer("go", []string{".go"})
	l.SetLineComment("//")

	l.AddBlock("/*", "*/", CategoryComment)
	l.AddBlock("`", "`", CategoryString)

	l.AddRule(`//.*$`, CategoryComment)
	l.AddRule(`"(?:[^"\\]|\\.)*"`, CategoryString)
	l.AddRule(`'(?:[^'\\]|\\.)'`, CategoryString)
	l.AddSubmatchRule(`\bfunc\s+(?:\([^)]*\)\s*)?([A-Za-z_]\w*)`, CategoryFunctionName, 1)
	l.AddSubmatchRule(`\btype\s+([A-Za-z_]\w*)`, CategoryTypeName, 1)
	l.AddRule(`\b0[xX][0-9a-fA-F_]+\b`, CategoryNumber)
	l.AddRule(`\b\d[\d_]*\.?\d*(?:[eE][+-]?\d+)?\b`, CategoryNumber)

	l.AddKeywords(CategoryKeyword,
		"if", "else", "for", "range", "switch", "case", "default",
		"break", "continue", "return", "goto", "fallthrough", "select",
		"package", "import", "defer", "go")
	l.AddKeywords(CategoryStorage,
		"func", "var", "const", "type", "struct", "interface", "map", "chan")
	l.AddKeywords(CategoryConstant, "true", "false", "nil", "iota")
	l.AddKeywords(CategoryBuiltinType,
		"int", "int8", "int16", "int32", "int64",
		"uint", "uint8", "uint16", "uint32", "uint64", "uintptr",
		"float32", "float64", "complex64", "complex128",
		"bool", "byte", "rune", "string", "error", "any")
	l.AddKeywords(CategoryBuiltin,
		"make", "new", "len", "cap", "append", "copy", "delete",
		"close", "panic", "recover", "print", "println", "min", "max", "clear")

	return l
}

// JavaScriptLexer returns a lexer for JavaScript and TypeScript.
func JavaScriptLexer() *RegexLexer {
	l := NewRegexLexer("javascript", []string{".js", ".jsx", ".mjs", ".cjs", ".ts", ".tsx"})
	l.SetLineComment("//")

	l.AddBlock("/*", "*/", CategoryComment)
	l.AddBlock("`", "`", CategoryString)

	l.AddRule(`//.*$`, CategoryComment)
	l.AddRule(`"(?:[^"\\]|\\.)*"`, CategoryString)
	l.AddRule(`'(?:[^'\\]|\\.)*'`, CategoryString)
	l.AddSubmatchRule(`\bfunction\s*\*?\s*([A-Za-z_$][\w$]*)`, CategoryFunctionName, 1)
	l.AddSubmatchRule(`([A-Za-z_$][\w$]*)\s*[:=]\s*(?:async\s+)?function\b`, CategoryFunctionName, 1)
	l.AddSubmatchRule(`([A-Za-z_$][\w$]*)\s*=\s*(?:async\s+)?(?:\([^)]*\)|[A-Za-z_$][\w$]*)\s*=>`, CategoryFunctionName, 1)
	l.AddSubmatchRule(`\bclass\s+([A-Za-z_$][\w$]*)`, CategoryTypeName, 1)
	l.AddRule(`\b0[xX][0-9a-fA-F]+\b`, CategoryNumber)
	l.AddRule(`\b\d+\.?\d*(?:[eE][+-]?\d+)?\b`, CategoryNumber)

	l.AddKeywords(CategoryKeyword,
		"if", "else", "for", "while", "do", "switch", "case", "default",
		"break", "continue", "return", "throw", "try", "catch", "finally",
		"import", "export", "from", "as", "new", "delete", "typeof",
		"instanceof", "in", "of", "yield", "await")
	l.AddKeywords(CategoryStorage,
		"function", "var", "let", "const", "class", "extends", "async",
		"type", "interface", "enum", "namespace")
	l.AddKeywords(CategoryConstant,
		"true", "false", "null", "undefined", "NaN", "Infinity", "this", "super")

	return l
}

// PythonLexer returns a lexer for Python.
func PythonLexer() *RegexLexer {
	l := NewRegexLexer("python", []string{".py", ".pyw", ".pyi"})
	l.SetLineComment("#")

	l.AddBlock(`"""`, `"""`, CategoryString)
	l.AddBlock(`'''`, `'''`, CategoryString)

	l.AddRule(`#.*$`, CategoryComment)
	l.AddRule(`"(?:[^"\\]|\\.)*"`, CategoryString)
	l.AddRule(`'(?:[^'\\]|\\.)*'`, CategoryString)
	l.AddSubmatchRule(`\bdef\s+([A-Za-z_]\w*)`, CategoryFunctionName, 1)
	l.AddSubmatchRule(`\bclass\s+([A-Za-z_]\w*)`, CategoryTypeName, 1)
	l.AddRule(`@\w+`, CategoryMeta)
	l.AddRule(`\b\d+\.?\d*(?:[eE][+-]?\d+)?j?\b`, CategoryNumber)

	l.AddKeywords(CategoryKeyword,
		"if", "elif", "else", "for", "while", "break", "continue",
		"return", "try", "except", "finally", "raise", "with", "as",
		"import", "from", "pass", "yield", "in", "is", "not", "and", "or",
		"lambda", "global", "nonlocal", "assert", "del", "async", "await")
	l.AddKeywords(CategoryStorage, "def", "class")
	l.AddKeywords(CategoryConstant, "True", "False", "None", "self")

	return l
}

// RustLexer returns a lexer for Rust.
func RustLexer() *RegexLexer {
	l := NewRegexLexer("rust", []string{".rs"})
	l.SetLineComment("//")

	l.AddBlock("/*", "*/", CategoryComment)

	l.AddRule(`//.*$`, CategoryComment)
	l.AddRule(`"(?:[^"\\]|\\.)*"`, CategoryString)
	l.AddRule(`#!?\[.*?\]`, CategoryMeta)
	l.AddSubmatchRule(`\bfn\s+([A-Za-z_]\w*)`, CategoryFunctionName, 1)
	l.AddSubmatchRule(`\b(?:struct|enum|trait)\s+([A-Za-z_]\w*)`, CategoryTypeName, 1)
	l.AddRule(`\b\d[\d_]*\.?[\d_]*\b`, CategoryNumber)

	l.AddKeywords(CategoryKeyword,
		"if", "else", "match", "for", "while", "loop", "break", "continue",
		"return", "use", "crate", "super", "pub", "where", "as", "async",
		"await", "move", "ref", "unsafe", "extern", "in")
	l.AddKeywords(CategoryStorage,
		"fn", "let", "mut", "const", "static", "struct", "enum", "trait",
		"impl", "type", "mod", "dyn")
	l.AddKeywords(CategoryConstant, "true", "false", "self", "Self")

	return l
}
