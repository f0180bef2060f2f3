package synth

import (
	"fmt"
	"strconv"
	"strings"
	"text/template"

	"specforge/internal/intent"
)

// templateData is what source templates interpolate.
type templateData struct {
	Name        string
	Description string
}

// renderSource executes a text/template body against the IR.
func renderSource(id, body string, ir intent.IR) (string, error) {
	tpl, err := template.New(id).Parse(body)
	if err != nil {
		return "", fmt.Errorf("template %s is malformed: %w", id, err)
	}
	var b strings.Builder
	err = tpl.Execute(&b, templateData{Name: ir.Name, Description: ir.Description})
	if err != nil {
		return "", fmt.Errorf("template %s failed to render: %w", id, err)
	}
	return b.String(), nil
}

// pyLiteral renders a Go value as a Python literal.
func pyLiteral(v any) string {
	switch t := v.(type) {
	case string:
		return "'" + strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(t) + "'"
	case bool:
		if t {
			return "True"
		}
		return "False"
	case []int:
		parts := make([]string, len(t))
		for i, n := range t {
			parts[i] = strconv.Itoa(n)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case []string:
		parts := make([]string, len(t))
		for i, s := range t {
			parts[i] = pyLiteral(s)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case float64:
		return strconv.FormatFloat(t, 'g', -1, 64)
	default:
		return fmt.Sprintf("%v", t)
	}
}

// goLiteral renders a Go value as a Go source literal.
func goLiteral(v any) string {
	switch t := v.(type) {
	case string:
		return strconv.Quote(t)
	case bool:
		return strconv.FormatBool(t)
	case []int:
		parts := make([]string, len(t))
		for i, n := range t {
			parts[i] = strconv.Itoa(n)
		}
		return "[]int{" + strings.Join(parts, ", ") + "}"
	case []string:
		parts := make([]string, len(t))
		for i, s := range t {
			parts[i] = strconv.Quote(s)
		}
		return "[]string{" + strings.Join(parts, ", ") + "}"
	case float64:
		return strconv.FormatFloat(t, 'g', -1, 64)
	default:
		return fmt.Sprintf("%v", t)
	}
}

// callArgs renders an example's inputs as a positional argument list, in
// declared parameter order.
func callArgs(ir intent.IR, ex intent.Example, literal func(any) string) string {
	parts := make([]string, 0, len(ir.Params))
	for _, p := range ir.Params {
		parts = append(parts, literal(ex.Inputs[p.Name]))
	}
	return strings.Join(parts, ", ")
}

// buildPythonTest assembles the test file: one assertion per IR example plus
// the template's edge-case block. Asserts abort the script with a non-zero
// exit, which is what the executor keys pass/fail on.
func buildPythonTest(ir intent.IR, edge string) string {
	var b strings.Builder
	b.WriteString("import os\nimport sys\n\n")
	b.WriteString("sys.path.insert(0, os.path.join(os.path.dirname(__file__), '..', 'src'))\n\n")
	fmt.Fprintf(&b, "from %s import %s\n\n", ir.Name, ir.Name)

	for i, ex := range ir.Examples {
		call := fmt.Sprintf("%s(%s)", ir.Name, callArgs(ir, ex, pyLiteral))
		fmt.Fprintf(&b, "assert %s == %s, 'example %d failed: ' + repr(%s)\n",
			call, pyLiteral(ex.Want), i+1, call)
	}
	if len(ir.Examples) > 0 {
		b.WriteString("\n")
	}
	if edge != "" {
		b.WriteString("# Edge cases\n")
		b.WriteString(strings.ReplaceAll(edge, "{{NAME}}", ir.Name))
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "\nprint('ok: %s')\n", ir.Name)
	return b.String()
}

// buildGoTest assembles the Go test file. The executor interprets it with
// yaegi and calls RunTests; a non-nil return is a failure.
func buildGoTest(ir intent.IR, edge string) string {
	var b strings.Builder
	b.WriteString("package main\n\nimport \"fmt\"\n\n")
	b.WriteString("// RunTests exercises the generated function. Returns nil on success.\n")
	b.WriteString("func RunTests() error {\n")

	for i, ex := range ir.Examples {
		call := fmt.Sprintf("%s(%s)", ir.Name, callArgs(ir, ex, goLiteral))
		want := goLiteral(ex.Want)
		switch ex.Want.(type) {
		case []int, []string:
			fmt.Fprintf(&b, "\tif got := %s; fmt.Sprint(got) != fmt.Sprint(%s) {\n", call, want)
			fmt.Fprintf(&b, "\t\treturn fmt.Errorf(\"example %d: got %%v, want %%v\", got, %s)\n\t}\n", i+1, want)
		default:
			fmt.Fprintf(&b, "\tif got := %s; got != %s {\n", call, want)
			fmt.Fprintf(&b, "\t\treturn fmt.Errorf(\"example %d: got %%v, want %%v\", got, %s)\n\t}\n", i+1, want)
		}
	}
	if edge != "" {
		b.WriteString("\t// Edge cases\n")
		b.WriteString(strings.ReplaceAll(edge, "{{NAME}}", ir.Name))
	}
	b.WriteString("\treturn nil\n}\n")
	return b.String()
}
