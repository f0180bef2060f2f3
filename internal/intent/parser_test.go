package intent

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseKnownIntents(t *testing.T) {
	p := NewParser()

	tests := []struct {
		input    string
		wantName string
		wantTag  string
	}{
		{"reverse a string", "reverse_string", "reverse"},
		{"check if a word is a palindrome", "is_palindrome", "palindrome"},
		{"compute the factorial of n", "factorial", "factorial"},
		{"nth fibonacci number", "fibonacci", "fibonacci"},
		{"find the largest number in a list", "max_in_list", "max_in_list"},
		{"sort a list of integers", "sort_list", "sort"},
		{"count the vowels in a sentence", "count_vowels", "count_vowels"},
		{"greatest common divisor of two numbers", "gcd", "gcd"},
		{"sum of squares of a list", "sum_of_squares", "sum_of_squares"},
		{"add two numbers together", "add_two_numbers", "add"},
		{"check whether a number is prime", "is_prime", "prime"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			ir := p.Parse(tt.input)
			if ir.Name != tt.wantName {
				t.Errorf("Name = %q, want %q", ir.Name, tt.wantName)
			}
			if ir.Tag != tt.wantTag {
				t.Errorf("Tag = %q, want %q", ir.Tag, tt.wantTag)
			}
			if ir.Confidence < 0.5 {
				t.Errorf("Confidence = %g, want >= 0.5 for recognized intent", ir.Confidence)
			}
			if len(ir.Examples) == 0 {
				t.Error("recognized intent has no seed examples")
			}
		})
	}
}

func TestParseUnrecognizedNeverFails(t *testing.T) {
	p := NewParser()

	ir := p.Parse("do something cosmic")
	if ir.Tag != TagAutoGenerated {
		t.Errorf("Tag = %q, want %q", ir.Tag, TagAutoGenerated)
	}
	if ir.Confidence >= 0.5 {
		t.Errorf("Confidence = %g, want low for placeholder", ir.Confidence)
	}
	if ir.Name == "" {
		t.Error("placeholder IR has empty name")
	}
}

func TestParseEmptyInput(t *testing.T) {
	p := NewParser()
	ir := p.Parse("")
	if ir.Name != "custom_function" {
		t.Errorf("Name = %q, want custom_function", ir.Name)
	}
	if ir.Tag != TagAutoGenerated {
		t.Errorf("Tag = %q, want %q", ir.Tag, TagAutoGenerated)
	}
}

func TestSnakeName(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Reverse a string please", "reverse_string"},
		{"Find the largest number in a list quickly", "find_largest_number_list"},
		{"!!!", "custom_function"},
		{"compute 42 things and then some more words", "compute_42_things_then"},
	}
	for _, tt := range tests {
		if got := snakeName(tt.in); got != tt.want {
			t.Errorf("snakeName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSignature(t *testing.T) {
	ir := IR{
		Name:       "gcd",
		Params:     []Param{{Name: "a", Type: "int"}, {Name: "b", Type: "int"}},
		ReturnType: "int",
	}
	if got, want := ir.Signature(), "gcd(int,int)->int"; got != want {
		t.Errorf("Signature() = %q, want %q", got, want)
	}
}

func TestParseMarkdownAuthoredSpec(t *testing.T) {
	p := NewParser()
	md := `# Reverse String

## Signature

` + "`reverse_string(s string) -> string`" + `

## Description

Reverse a unicode string.

## Examples

| s | out |
|---|---|
| abc | cba |
| hello | olleh |
`
	ir := p.ParseMarkdown(md)
	if ir.Name != "reverse_string" {
		t.Fatalf("Name = %q", ir.Name)
	}
	if ir.Tag != "reverse" {
		t.Errorf("Tag = %q, want reverse", ir.Tag)
	}
	wantParams := []Param{{Name: "s", Type: "string"}}
	if diff := cmp.Diff(wantParams, ir.Params); diff != "" {
		t.Errorf("Params mismatch (-want +got):\n%s", diff)
	}
	if len(ir.Examples) != 2 {
		t.Fatalf("Examples = %d, want 2", len(ir.Examples))
	}
	if ir.Examples[1].Inputs["s"] != "hello" || ir.Examples[1].Want != "olleh" {
		t.Errorf("example row parsed wrong: %+v", ir.Examples[1])
	}
}

func TestParseMarkdownListColumn(t *testing.T) {
	p := NewParser()
	md := `# Max In List

## Signature

` + "`max_in_list(nums []int) -> int`" + `

## Description

Return the largest number in a list.

## Examples

| nums | out |
|---|---|
| [3 9 2] | 9 |
`
	ir := p.ParseMarkdown(md)
	if len(ir.Examples) != 1 {
		t.Fatalf("Examples = %d, want 1", len(ir.Examples))
	}
	if diff := cmp.Diff([]int{3, 9, 2}, ir.Examples[0].Inputs["nums"]); diff != "" {
		t.Errorf("list cell mismatch (-want +got):\n%s", diff)
	}
	if ir.Examples[0].Want != 9 {
		t.Errorf("Want = %v, want 9", ir.Examples[0].Want)
	}
}

func TestParseMarkdownDegradesWithoutSignature(t *testing.T) {
	p := NewParser()
	ir := p.ParseMarkdown("# Notes\n\nJust some prose with no function shape.\n")
	if ir.Tag != TagAutoGenerated {
		t.Errorf("Tag = %q, want auto_generated", ir.Tag)
	}
}

func TestWriteSpecRoundTrip(t *testing.T) {
	p := NewParser()
	dir := t.TempDir()

	ir := p.Parse("reverse a string")
	path, err := p.WriteSpec(dir, ir, "reverse a string")
	if err != nil {
		t.Fatalf("WriteSpec: %v", err)
	}
	if filepath.Base(path) != "reverse_string.md" {
		t.Errorf("spec filename = %s", filepath.Base(path))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read spec: %v", err)
	}
	if !strings.Contains(string(data), "## Signature") {
		t.Error("written spec missing signature section")
	}

	back := p.ParseMarkdown(string(data))
	if back.Name != ir.Name {
		t.Errorf("round-trip Name = %q, want %q", back.Name, ir.Name)
	}
	if back.Tag != ir.Tag {
		t.Errorf("round-trip Tag = %q, want %q", back.Tag, ir.Tag)
	}
	if len(back.Examples) != len(ir.Examples) {
		t.Errorf("round-trip Examples = %d, want %d", len(back.Examples), len(ir.Examples))
	}
}
