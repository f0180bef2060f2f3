// Package intent turns free-text and markdown synthesis requests into a
// structured intermediate representation consumed by the synthesizer.
package intent

// Param is one parameter of the requested operation.
type Param struct {
	Name string `json:"name"`
	Type string `json:"type"` // Canonical types: int, float, string, bool, []int, []string
}

// Example is one input/output example attached to an IR. Examples become
// generated test cases.
type Example struct {
	Inputs map[string]any `json:"inputs"`
	Want   any            `json:"want"`
}

// IR is the intermediate representation of a synthesis request.
// It is ephemeral: derived from a spec per run, never persisted standalone.
type IR struct {
	Name        string    `json:"operation_name"`
	Params      []Param   `json:"parameters"`
	ReturnType  string    `json:"return_type"`
	Tag         string    `json:"body_pattern_tag"`
	Description string    `json:"description"`
	Confidence  float64   `json:"confidence"`
	Examples    []Example `json:"examples,omitempty"`
}

// TagAutoGenerated marks placeholder IRs produced for unrecognized input.
const TagAutoGenerated = "auto_generated"

// Signature returns the canonical signature string used for corpus keys,
// e.g. "reverse_string(string)->string".
func (ir IR) Signature() string {
	s := ir.Name + "("
	for i, p := range ir.Params {
		if i > 0 {
			s += ","
		}
		s += p.Type
	}
	return s + ")->" + ir.ReturnType
}
