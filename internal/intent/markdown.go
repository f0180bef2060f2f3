package intent

import (
	"regexp"
	"strconv"
	"strings"

	"specforge/internal/logging"
)

var sigRe = regexp.MustCompile("`?([a-zA-Z_]\\w*)\\(([^)]*)\\)\\s*->\\s*([\\w\\[\\]]+)`?")

// ParseMarkdown parses an authored markdown spec: a title header plus
// "## Signature", "## Description" and "## Examples" sections. A spec whose
// signature cannot be parsed degrades to intent matching over the whole text;
// this downgrade is logged but is never an error.
func (p *Parser) ParseMarkdown(raw string) IR {
	sections := splitSections(raw)

	sig, hasSig := sections["signature"]
	if !hasSig {
		// Tolerate signatures written directly under the title.
		sig = raw
	}

	m := sigRe.FindStringSubmatch(sig)
	if m == nil {
		logging.Parser("markdown spec has no parseable signature, degrading to text matching")
		return p.Parse(raw)
	}

	ir := IR{
		Name:       m[1],
		Params:     parseParams(m[2]),
		ReturnType: canonType(m[3]),
		Confidence: 0.8,
	}

	if desc, ok := sections["description"]; ok {
		ir.Description = firstLine(desc)
	}
	if ir.Description == "" {
		ir.Description = "Function " + ir.Name
	}

	// Tag from the intent table when the text matches a known category;
	// otherwise keyed by operation name so template lookup can still hit.
	if matched := p.Parse(ir.Description + " " + raw); matched.Tag != TagAutoGenerated {
		ir.Tag = matched.Tag
		if len(ir.Params) == 0 {
			ir.Params = matched.Params
		}
		if ir.Confidence < matched.Confidence {
			ir.Confidence = matched.Confidence
		}
	} else {
		ir.Tag = TagAutoGenerated
		ir.Confidence = placeholderConfidence
	}

	if ex, ok := sections["examples"]; ok {
		ir.Examples = parseExamplesTable(ex, ir.Params)
	}
	return ir
}

// splitSections maps lowercased "## Heading" names to their body text.
func splitSections(md string) map[string]string {
	out := make(map[string]string)
	var current string
	var buf []string
	flush := func() {
		if current != "" {
			out[current] = strings.TrimSpace(strings.Join(buf, "\n"))
		}
	}
	for _, ln := range strings.Split(md, "\n") {
		if strings.HasPrefix(ln, "## ") {
			flush()
			current = strings.ToLower(strings.TrimSpace(ln[3:]))
			buf = nil
			continue
		}
		buf = append(buf, ln)
	}
	flush()
	return out
}

func firstLine(s string) string {
	for _, ln := range strings.Split(s, "\n") {
		if t := strings.TrimSpace(ln); t != "" {
			return t
		}
	}
	return ""
}

// parseParams parses "name type, name type" (also tolerating "name: type").
func parseParams(s string) []Param {
	var params []Param
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(strings.ReplaceAll(part, ":", " "))
		if part == "" {
			continue
		}
		fields := strings.Fields(part)
		switch len(fields) {
		case 1:
			params = append(params, Param{Name: fields[0], Type: "string"})
		default:
			params = append(params, Param{Name: fields[0], Type: canonType(fields[1])})
		}
	}
	return params
}

// canonType normalizes the type spellings accepted in authored specs.
func canonType(t string) string {
	switch strings.ToLower(t) {
	case "str", "string":
		return "string"
	case "int", "integer":
		return "int"
	case "float", "number", "float64":
		return "float"
	case "bool", "boolean":
		return "bool"
	case "list[int]", "[]int":
		return "[]int"
	case "list[str]", "list[string]", "[]string":
		return "[]string"
	default:
		return t
	}
}

// parseExamplesTable reads a markdown pipe table whose header names the
// parameters plus an "out" column.
func parseExamplesTable(body string, params []Param) []Example {
	lines := []string{}
	for _, ln := range strings.Split(body, "\n") {
		if t := strings.TrimSpace(ln); t != "" {
			lines = append(lines, t)
		}
	}

	start := -1
	for i, ln := range lines {
		if strings.HasPrefix(ln, "|") && strings.Contains(strings.ToLower(ln), "out") {
			start = i
			break
		}
	}
	if start == -1 || start+2 > len(lines) {
		return nil
	}

	header := splitRow(lines[start])
	types := make(map[string]string)
	for _, p := range params {
		types[p.Name] = p.Type
	}

	var examples []Example
	for _, ln := range lines[start+2:] {
		if !strings.HasPrefix(ln, "|") {
			break
		}
		cells := splitRow(ln)
		if len(cells) != len(header) {
			continue
		}
		ex := Example{Inputs: make(map[string]any)}
		for i, h := range header {
			v := coerce(cells[i], types[h])
			if strings.EqualFold(h, "out") || strings.EqualFold(h, "output") {
				ex.Want = v
			} else {
				ex.Inputs[h] = v
			}
		}
		examples = append(examples, ex)
	}
	return examples
}

func splitRow(ln string) []string {
	trimmed := strings.Trim(ln, "|")
	parts := strings.Split(trimmed, "|")
	out := make([]string, len(parts))
	for i, p := range parts {
		out[i] = strings.Trim(strings.TrimSpace(p), "`")
	}
	return out
}

var (
	intRe   = regexp.MustCompile(`^-?\d+$`)
	floatRe = regexp.MustCompile(`^-?\d+\.\d+$`)
	listRe  = regexp.MustCompile(`^\[.*\]$`)
)

// coerce converts a table cell to a typed value. The declared param type
// wins when present; otherwise the shape of the literal decides.
func coerce(s, declared string) any {
	switch {
	case declared == "[]int" || (declared == "" && listRe.MatchString(s)):
		inner := strings.Trim(s, "[]")
		inner = strings.ReplaceAll(inner, ",", " ")
		var nums []int
		for _, f := range strings.Fields(inner) {
			if n, err := strconv.Atoi(f); err == nil {
				nums = append(nums, n)
			}
		}
		return nums
	case intRe.MatchString(s):
		n, _ := strconv.Atoi(s)
		return n
	case floatRe.MatchString(s):
		f, _ := strconv.ParseFloat(s, 64)
		return f
	case strings.EqualFold(s, "true"), strings.EqualFold(s, "false"):
		return strings.EqualFold(s, "true")
	default:
		return s
	}
}
