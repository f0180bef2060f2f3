package intent

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"specforge/internal/logging"
)

// Parser turns free text and markdown specs into IRs. Parsing never fails:
// unrecognized input degrades to a low-confidence placeholder IR so the rest
// of the pipeline always has something to work with.
type Parser struct{}

// NewParser creates an intent parser.
func NewParser() *Parser {
	return &Parser{}
}

// placeholderConfidence is assigned to IRs synthesized from unrecognized
// input. The synthesizer routes these to the stub generator.
const placeholderConfidence = 0.2

// Parse matches text against the ranked intent table and returns the IR for
// the first matching category. Unmatched text produces a placeholder IR
// tagged auto_generated.
func (p *Parser) Parse(text string) IR {
	lower := strings.ToLower(strings.TrimSpace(text))
	logging.ParserDebug("parsing request (%d chars)", len(text))

	for _, pat := range rankedPatterns {
		if pat.match(lower) {
			ir := pat.build()
			logging.Parser("matched intent %s (tag=%s, confidence=%.2f)", ir.Name, ir.Tag, ir.Confidence)
			return ir
		}
	}

	ir := p.placeholder(text, lower)
	logging.Parser("no intent match, generated placeholder %s", ir.Name)
	return ir
}

// placeholder builds a degraded IR for text no pattern recognized.
func (p *Parser) placeholder(raw, lower string) IR {
	name := snakeName(raw)

	retType := "string"
	var params []Param
	switch {
	case containsAny(lower, "calculate", "compute", "count", "how many", "total", "number of"):
		retType = "int"
	case containsAny(lower, "check", "verify", "validate", "determine", "confirm"):
		retType = "bool"
	case containsAny(lower, "list", "array", "collection", "items"):
		retType = "[]string"
	}
	if containsAny(lower, "given", "from", "input", "convert", "transform", "process") {
		switch retType {
		case "int":
			params = []Param{{Name: "value", Type: "int"}}
		case "bool":
			params = []Param{{Name: "item", Type: "string"}}
		default:
			params = []Param{{Name: "input_text", Type: "string"}}
		}
	}

	desc := strings.Join(strings.Fields(raw), " ")
	if len(desc) > 200 {
		desc = desc[:200]
	}

	return IR{
		Name:        name,
		Params:      params,
		ReturnType:  retType,
		Tag:         TagAutoGenerated,
		Description: "Function to " + desc,
		Confidence:  placeholderConfidence,
	}
}

var stopwords = map[string]bool{
	"a": true, "an": true, "the": true, "to": true, "for": true, "of": true,
	"with": true, "by": true, "from": true, "in": true, "on": true, "at": true,
	"me": true, "you": true, "i": true, "we": true, "my": true, "your": true,
	"please": true, "can": true, "could": true, "would": true, "do": true,
	"and": true,
}

var nonWord = regexp.MustCompile(`[^a-z0-9\s]`)

// snakeName derives a snake_case identifier from request text: lower, strip
// punctuation, drop stopwords, keep at most four words.
func snakeName(text string) string {
	t := nonWord.ReplaceAllString(strings.ToLower(text), "")
	var words []string
	for _, w := range strings.Fields(t) {
		if !stopwords[w] {
			words = append(words, w)
		}
	}
	if len(words) > 4 {
		words = words[:4]
	}
	if len(words) == 0 {
		words = []string{"custom", "function"}
	}
	name := strings.Join(words, "_")
	if name[0] >= '0' && name[0] <= '9' {
		name = "func_" + name
	}
	if len(name) > 30 {
		name = strings.TrimRight(name[:30], "_")
	}
	return name
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// WriteSpec writes a normalized markdown spec for an IR into dir, so NL
// requests join the same watch pipeline as authored specs. Returns the path
// of the written file.
func (p *Parser) WriteSpec(dir string, ir IR, raw string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create spec directory: %w", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", ir.Name)
	b.WriteString("## Signature\n\n")
	fmt.Fprintf(&b, "`%s`\n\n", signatureLine(ir))
	b.WriteString("## Description\n\n")
	b.WriteString(ir.Description + "\n\n")
	if raw != "" {
		fmt.Fprintf(&b, "Original request: %s\n\n", strings.TrimSpace(raw))
	}
	if len(ir.Examples) > 0 {
		b.WriteString("## Examples\n\n")
		b.WriteString(examplesTable(ir))
	}

	path := filepath.Join(dir, ir.Name+".md")
	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		return "", fmt.Errorf("failed to write spec: %w", err)
	}
	logging.Parser("wrote normalized spec %s", path)
	return path, nil
}

// signatureLine renders "name(param type, ...) -> ret".
func signatureLine(ir IR) string {
	parts := make([]string, len(ir.Params))
	for i, p := range ir.Params {
		parts[i] = p.Name + " " + p.Type
	}
	return fmt.Sprintf("%s(%s) -> %s", ir.Name, strings.Join(parts, ", "), ir.ReturnType)
}

// examplesTable renders the pipe-table format ParseMarkdown reads back.
func examplesTable(ir IR) string {
	if len(ir.Examples) == 0 {
		return ""
	}
	var cols []string
	for _, p := range ir.Params {
		cols = append(cols, p.Name)
	}
	cols = append(cols, "out")

	var b strings.Builder
	b.WriteString("| " + strings.Join(cols, " | ") + " |\n")
	b.WriteString("|" + strings.Repeat("---|", len(cols)) + "\n")
	for _, ex := range ir.Examples {
		var cells []string
		for _, p := range ir.Params {
			cells = append(cells, formatValue(ex.Inputs[p.Name]))
		}
		cells = append(cells, formatValue(ex.Want))
		b.WriteString("| " + strings.Join(cells, " | ") + " |\n")
	}
	return b.String()
}

func formatValue(v any) string {
	switch t := v.(type) {
	case []int:
		parts := make([]string, len(t))
		for i, n := range t {
			parts[i] = fmt.Sprintf("%d", n)
		}
		return "[" + strings.Join(parts, " ") + "]"
	case string:
		return t
	default:
		return fmt.Sprintf("%v", v)
	}
}
