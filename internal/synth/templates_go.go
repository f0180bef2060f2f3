package synth

import "specforge/internal/intent"

// goDef mirrors pyDef for the Go target. Edge blocks are statements inside
// RunTests; {{NAME}} is substituted with the operation name.
type goDef struct {
	strategy string
	source   string
	edge     string
}

var goDefs = map[string][]goDef{
	"reverse": {
		{
			strategy: "builtin",
			source: `package main

// {{.Name}}: {{.Description}}
func {{.Name}}(s string) string {
	runes := []rune(s)
	for i, j := 0, len(runes)-1; i < j; i, j = i+1, j-1 {
		runes[i], runes[j] = runes[j], runes[i]
	}
	return string(runes)
}
`,
			edge: `	if {{NAME}}("") != "" {
		return fmt.Errorf("edge: empty string")
	}
	if {{NAME}}("a") != "a" {
		return fmt.Errorf("edge: single rune")
	}
`,
		},
		{
			strategy: "loop",
			source: `package main

// {{.Name}}: {{.Description}}
func {{.Name}}(s string) string {
	out := ""
	for _, r := range s {
		out = string(r) + out
	}
	return out
}
`,
			edge: `	if {{NAME}}("") != "" {
		return fmt.Errorf("edge: empty string")
	}
	if {{NAME}}("a") != "a" {
		return fmt.Errorf("edge: single rune")
	}
`,
		},
	},
	"palindrome": {
		{
			strategy: "two_pointer",
			source: `package main

// {{.Name}}: {{.Description}}
func {{.Name}}(s string) bool {
	runes := []rune(s)
	for i, j := 0, len(runes)-1; i < j; i, j = i+1, j-1 {
		if runes[i] != runes[j] {
			return false
		}
	}
	return true
}
`,
			edge: `	if !{{NAME}}("") {
		return fmt.Errorf("edge: empty string should be a palindrome")
	}
	if {{NAME}}("ab") {
		return fmt.Errorf("edge: ab is not a palindrome")
	}
`,
		},
	},
	"factorial": {
		{
			strategy: "iterative",
			source: `package main

// {{.Name}}: {{.Description}}
func {{.Name}}(n int) int {
	result := 1
	for i := 2; i <= n; i++ {
		result *= i
	}
	return result
}
`,
			edge: `	if {{NAME}}(0) != 1 {
		return fmt.Errorf("edge: 0! != 1")
	}
	if {{NAME}}(1) != 1 {
		return fmt.Errorf("edge: 1! != 1")
	}
`,
		},
		{
			strategy: "recursive",
			source: `package main

// {{.Name}}: {{.Description}}
func {{.Name}}(n int) int {
	if n <= 1 {
		return 1
	}
	return n * {{.Name}}(n-1)
}
`,
			edge: `	if {{NAME}}(0) != 1 {
		return fmt.Errorf("edge: 0! != 1")
	}
	if {{NAME}}(1) != 1 {
		return fmt.Errorf("edge: 1! != 1")
	}
`,
		},
	},
	"fibonacci": {
		{
			strategy: "iterative",
			source: `package main

// {{.Name}}: {{.Description}}
func {{.Name}}(n int) int {
	a, b := 0, 1
	for i := 0; i < n; i++ {
		a, b = b, a+b
	}
	return a
}
`,
			edge: `	if {{NAME}}(0) != 0 {
		return fmt.Errorf("edge: fib(0) != 0")
	}
	if {{NAME}}(1) != 1 {
		return fmt.Errorf("edge: fib(1) != 1")
	}
`,
		},
		{
			strategy: "recursive",
			source: `package main

// {{.Name}}: {{.Description}}
func {{.Name}}(n int) int {
	if n < 2 {
		return n
	}
	return {{.Name}}(n-1) + {{.Name}}(n-2)
}
`,
			edge: `	if {{NAME}}(0) != 0 {
		return fmt.Errorf("edge: fib(0) != 0")
	}
	if {{NAME}}(1) != 1 {
		return fmt.Errorf("edge: fib(1) != 1")
	}
`,
		},
	},
	"max_in_list": {
		{
			strategy: "loop",
			source: `package main

// {{.Name}}: {{.Description}}
func {{.Name}}(nums []int) int {
	best := nums[0]
	for _, n := range nums[1:] {
		if n > best {
			best = n
		}
	}
	return best
}
`,
			edge: `	if {{NAME}}([]int{7}) != 7 {
		return fmt.Errorf("edge: single element")
	}
	if {{NAME}}([]int{-3, -1, -2}) != -1 {
		return fmt.Errorf("edge: all negative")
	}
`,
		},
	},
	"sort": {
		{
			strategy: "insertion",
			source: `package main

// {{.Name}}: {{.Description}}
func {{.Name}}(nums []int) []int {
	out := make([]int, len(nums))
	copy(out, nums)
	for i := 1; i < len(out); i++ {
		key := out[i]
		j := i - 1
		for j >= 0 && out[j] > key {
			out[j+1] = out[j]
			j--
		}
		out[j+1] = key
	}
	return out
}
`,
			edge: `	if fmt.Sprint({{NAME}}([]int{})) != "[]" {
		return fmt.Errorf("edge: empty list")
	}
	if fmt.Sprint({{NAME}}([]int{1})) != "[1]" {
		return fmt.Errorf("edge: single element")
	}
`,
		},
	},
	"count_vowels": {
		{
			strategy: "loop",
			source: `package main

import "strings"

// {{.Name}}: {{.Description}}
func {{.Name}}(s string) int {
	count := 0
	for _, r := range strings.ToLower(s) {
		if strings.ContainsRune("aeiou", r) {
			count++
		}
	}
	return count
}
`,
			edge: `	if {{NAME}}("") != 0 {
		return fmt.Errorf("edge: empty string")
	}
	if {{NAME}}("AEIOU") != 5 {
		return fmt.Errorf("edge: uppercase vowels")
	}
`,
		},
	},
	"gcd": {
		{
			strategy: "euclid",
			source: `package main

// {{.Name}}: {{.Description}}
func {{.Name}}(a, b int) int {
	if a < 0 {
		a = -a
	}
	if b < 0 {
		b = -b
	}
	for b != 0 {
		a, b = b, a%b
	}
	return a
}
`,
			edge: `	if {{NAME}}(9, 0) != 9 {
		return fmt.Errorf("edge: gcd(9, 0)")
	}
	if {{NAME}}(0, 4) != 4 {
		return fmt.Errorf("edge: gcd(0, 4)")
	}
`,
		},
	},
	"sum_of_squares": {
		{
			strategy: "loop",
			source: `package main

// {{.Name}}: {{.Description}}
func {{.Name}}(nums []int) int {
	total := 0
	for _, n := range nums {
		total += n * n
	}
	return total
}
`,
			edge: `	if {{NAME}}([]int{}) != 0 {
		return fmt.Errorf("edge: empty list")
	}
	if {{NAME}}([]int{-2}) != 4 {
		return fmt.Errorf("edge: negative square")
	}
`,
		},
	},
	"add": {
		{
			strategy: "direct",
			source: `package main

// {{.Name}}: {{.Description}}
func {{.Name}}(a, b int) int {
	return a + b
}
`,
			edge: `	if {{NAME}}(0, 0) != 0 {
		return fmt.Errorf("edge: zero sum")
	}
	if {{NAME}}(-1, 1) != 0 {
		return fmt.Errorf("edge: cancelling sum")
	}
`,
		},
	},
	"prime": {
		{
			strategy: "trial_division",
			source: `package main

// {{.Name}}: {{.Description}}
func {{.Name}}(n int) bool {
	if n < 2 {
		return false
	}
	for i := 2; i*i <= n; i++ {
		if n%i == 0 {
			return false
		}
	}
	return true
}
`,
			edge: `	if {{NAME}}(1) {
		return fmt.Errorf("edge: 1 is not prime")
	}
	if !{{NAME}}(2) {
		return fmt.Errorf("edge: 2 is prime")
	}
`,
		},
	},
}

// registerGoTemplates installs the Go generation table.
func registerGoTemplates(r *Registry) {
	for _, tag := range templateTagOrder {
		for _, def := range goDefs[tag] {
			tag, def := tag, def
			r.mustRegister(&Template{
				ID:         "go/" + tag + "/" + def.strategy,
				Tag:        tag,
				Language:   LangGo,
				StrategyID: def.strategy,
				Generate: func(ir intent.IR) (Artifacts, error) {
					src, err := renderSource("go/"+tag+"/"+def.strategy, def.source, ir)
					if err != nil {
						return Artifacts{}, err
					}
					return Artifacts{
						Source: src,
						Test:   buildGoTest(ir, def.edge),
					}, nil
				},
			})
		}
	}
}
