package intent

import "regexp"

// intentPattern maps a recognizer over the lowered input text to a canonical
// IR. Patterns are evaluated in order; the first match wins, so more specific
// recognizers must come before generic ones.
type intentPattern struct {
	match func(string) bool
	build func() IR
}

var (
	reReverse   = regexp.MustCompile(`reverse\s+(a\s+|the\s+)?(string|text|word)`)
	rePalin     = regexp.MustCompile(`palindrome`)
	reFactorial = regexp.MustCompile(`factorial`)
	reFib       = regexp.MustCompile(`fibonacci`)
	reLargest   = regexp.MustCompile(`(largest|biggest|maximum|max)\s+(number|value|element)?`)
	reSort      = regexp.MustCompile(`sort\s+(a\s+|the\s+)?(list|array|numbers)`)
	reVowels    = regexp.MustCompile(`count\s+(the\s+)?vowels?`)
	reGCD       = regexp.MustCompile(`\bgcd\b|greatest\s+common\s+divisor`)
	reSumSq     = regexp.MustCompile(`sum\s+of\s+squares`)
	reAddTwo    = regexp.MustCompile(`(add|sum)\s+(of\s+)?(two|2)\s+(numbers|integers|ints)`)
	rePrime     = regexp.MustCompile(`\bprime\b`)
)

// rankedPatterns is the ordered intent table. Each entry produces a generic
// parameter signature and seed examples for its category; examples drive the
// generated test cases.
var rankedPatterns = []intentPattern{
	{
		match: func(s string) bool { return reReverse.MatchString(s) },
		build: func() IR {
			return IR{
				Name:        "reverse_string",
				Params:      []Param{{Name: "s", Type: "string"}},
				ReturnType:  "string",
				Tag:         "reverse",
				Description: "Reverse a unicode string.",
				Confidence:  0.9,
				Examples: []Example{
					{Inputs: map[string]any{"s": "abc"}, Want: "cba"},
					{Inputs: map[string]any{"s": ""}, Want: ""},
				},
			}
		},
	},
	{
		match: func(s string) bool { return rePalin.MatchString(s) },
		build: func() IR {
			return IR{
				Name:        "is_palindrome",
				Params:      []Param{{Name: "s", Type: "string"}},
				ReturnType:  "bool",
				Tag:         "palindrome",
				Description: "Check whether a string reads the same forwards and backwards.",
				Confidence:  0.9,
				Examples: []Example{
					{Inputs: map[string]any{"s": "racecar"}, Want: true},
					{Inputs: map[string]any{"s": "hello"}, Want: false},
					{Inputs: map[string]any{"s": "a"}, Want: true},
				},
			}
		},
	},
	{
		match: func(s string) bool { return reFactorial.MatchString(s) },
		build: func() IR {
			return IR{
				Name:        "factorial",
				Params:      []Param{{Name: "n", Type: "int"}},
				ReturnType:  "int",
				Tag:         "factorial",
				Description: "Calculate the factorial of a non-negative integer.",
				Confidence:  0.95,
				Examples: []Example{
					{Inputs: map[string]any{"n": 0}, Want: 1},
					{Inputs: map[string]any{"n": 5}, Want: 120},
					{Inputs: map[string]any{"n": 3}, Want: 6},
				},
			}
		},
	},
	{
		match: func(s string) bool { return reFib.MatchString(s) },
		build: func() IR {
			return IR{
				Name:        "fibonacci",
				Params:      []Param{{Name: "n", Type: "int"}},
				ReturnType:  "int",
				Tag:         "fibonacci",
				Description: "Return the nth number in the Fibonacci sequence.",
				Confidence:  0.95,
				Examples: []Example{
					{Inputs: map[string]any{"n": 0}, Want: 0},
					{Inputs: map[string]any{"n": 1}, Want: 1},
					{Inputs: map[string]any{"n": 6}, Want: 8},
				},
			}
		},
	},
	{
		match: func(s string) bool { return reSumSq.MatchString(s) },
		build: func() IR {
			return IR{
				Name:        "sum_of_squares",
				Params:      []Param{{Name: "nums", Type: "[]int"}},
				ReturnType:  "int",
				Tag:         "sum_of_squares",
				Description: "Compute the sum of squares of numbers in a list.",
				Confidence:  0.9,
				Examples: []Example{
					{Inputs: map[string]any{"nums": []int{1, 2, 3}}, Want: 14},
					{Inputs: map[string]any{"nums": []int{0, 4, 5}}, Want: 41},
				},
			}
		},
	},
	{
		match: func(s string) bool { return reLargest.MatchString(s) },
		build: func() IR {
			return IR{
				Name:        "max_in_list",
				Params:      []Param{{Name: "nums", Type: "[]int"}},
				ReturnType:  "int",
				Tag:         "max_in_list",
				Description: "Return the largest number in a list of integers.",
				Confidence:  0.9,
				Examples: []Example{
					{Inputs: map[string]any{"nums": []int{3, 9, 2}}, Want: 9},
					{Inputs: map[string]any{"nums": []int{-5, 10, 0}}, Want: 10},
				},
			}
		},
	},
	{
		match: func(s string) bool { return reSort.MatchString(s) },
		build: func() IR {
			return IR{
				Name:        "sort_list",
				Params:      []Param{{Name: "nums", Type: "[]int"}},
				ReturnType:  "[]int",
				Tag:         "sort",
				Description: "Sort a list of integers in ascending order.",
				Confidence:  0.9,
				Examples: []Example{
					{Inputs: map[string]any{"nums": []int{3, 1, 2}}, Want: []int{1, 2, 3}},
					{Inputs: map[string]any{"nums": []int{5, -1, 0}}, Want: []int{-1, 0, 5}},
				},
			}
		},
	},
	{
		match: func(s string) bool { return reVowels.MatchString(s) },
		build: func() IR {
			return IR{
				Name:        "count_vowels",
				Params:      []Param{{Name: "s", Type: "string"}},
				ReturnType:  "int",
				Tag:         "count_vowels",
				Description: "Count the number of vowels in a string.",
				Confidence:  0.9,
				Examples: []Example{
					{Inputs: map[string]any{"s": "hello"}, Want: 2},
					{Inputs: map[string]any{"s": "xyz"}, Want: 0},
					{Inputs: map[string]any{"s": "aeiou"}, Want: 5},
				},
			}
		},
	},
	{
		match: func(s string) bool { return reGCD.MatchString(s) },
		build: func() IR {
			return IR{
				Name:        "gcd",
				Params:      []Param{{Name: "a", Type: "int"}, {Name: "b", Type: "int"}},
				ReturnType:  "int",
				Tag:         "gcd",
				Description: "Find the greatest common divisor of two numbers.",
				Confidence:  0.95,
				Examples: []Example{
					{Inputs: map[string]any{"a": 12, "b": 8}, Want: 4},
					{Inputs: map[string]any{"a": 17, "b": 5}, Want: 1},
				},
			}
		},
	},
	{
		match: func(s string) bool { return reAddTwo.MatchString(s) },
		build: func() IR {
			return IR{
				Name:        "add_two_numbers",
				Params:      []Param{{Name: "a", Type: "int"}, {Name: "b", Type: "int"}},
				ReturnType:  "int",
				Tag:         "add",
				Description: "Return the sum of two integers.",
				Confidence:  0.85,
				Examples: []Example{
					{Inputs: map[string]any{"a": 1, "b": 2}, Want: 3},
					{Inputs: map[string]any{"a": -5, "b": 5}, Want: 0},
				},
			}
		},
	},
	{
		match: func(s string) bool { return rePrime.MatchString(s) },
		build: func() IR {
			return IR{
				Name:        "is_prime",
				Params:      []Param{{Name: "n", Type: "int"}},
				ReturnType:  "bool",
				Tag:         "prime",
				Description: "Check if a number is prime.",
				Confidence:  0.9,
				Examples: []Example{
					{Inputs: map[string]any{"n": 2}, Want: true},
					{Inputs: map[string]any{"n": 17}, Want: true},
					{Inputs: map[string]any{"n": 4}, Want: false},
				},
			}
		},
	},
}
