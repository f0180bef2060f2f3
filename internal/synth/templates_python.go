package synth

import "specforge/internal/intent"

// pyDef is one Python generation strategy for a tag: a source template plus
// the edge-case assertions appended to the generated test file.
type pyDef struct {
	strategy string
	source   string
	edge     string
}

// pythonDefs is ordered per tag: registration order is the deterministic
// tie-break during selection.
var pythonDefs = map[string][]pyDef{
	"reverse": {
		{
			strategy: "builtin",
			source: `"""{{.Description}}"""


def {{.Name}}(s):
    """{{.Description}}"""
    return s[::-1]
`,
			edge: `assert {{NAME}}('') == ''
assert {{NAME}}('a') == 'a'`,
		},
		{
			strategy: "loop",
			source: `"""{{.Description}}"""


def {{.Name}}(s):
    """{{.Description}}"""
    chars = []
    for ch in s:
        chars.insert(0, ch)
    return ''.join(chars)
`,
			edge: `assert {{NAME}}('') == ''
assert {{NAME}}('a') == 'a'`,
		},
	},
	"palindrome": {
		{
			strategy: "two_pointer",
			source: `"""{{.Description}}"""


def {{.Name}}(s):
    """{{.Description}}"""
    i, j = 0, len(s) - 1
    while i < j:
        if s[i] != s[j]:
            return False
        i += 1
        j -= 1
    return True
`,
			edge: `assert {{NAME}}('') == True
assert {{NAME}}('ab') == False`,
		},
		{
			strategy: "builtin",
			source: `"""{{.Description}}"""


def {{.Name}}(s):
    """{{.Description}}"""
    return s == s[::-1]
`,
			edge: `assert {{NAME}}('') == True
assert {{NAME}}('ab') == False`,
		},
	},
	"factorial": {
		{
			strategy: "iterative",
			source: `"""{{.Description}}"""


def {{.Name}}(n):
    """{{.Description}}"""
    if n < 0:
        raise ValueError('n must be non-negative')
    result = 1
    for i in range(2, n + 1):
        result *= i
    return result
`,
			edge: `assert {{NAME}}(0) == 1
assert {{NAME}}(1) == 1`,
		},
		{
			strategy: "recursive",
			source: `"""{{.Description}}"""


def {{.Name}}(n):
    """{{.Description}}"""
    if n < 0:
        raise ValueError('n must be non-negative')
    if n <= 1:
        return 1
    return n * {{.Name}}(n - 1)
`,
			edge: `assert {{NAME}}(0) == 1
assert {{NAME}}(1) == 1`,
		},
	},
	"fibonacci": {
		{
			strategy: "iterative",
			source: `"""{{.Description}}"""


def {{.Name}}(n):
    """{{.Description}}"""
    if n < 0:
        raise ValueError('n must be non-negative')
    a, b = 0, 1
    for _ in range(n):
        a, b = b, a + b
    return a
`,
			edge: `assert {{NAME}}(0) == 0
assert {{NAME}}(1) == 1`,
		},
		{
			strategy: "recursive",
			source: `"""{{.Description}}"""


def {{.Name}}(n):
    """{{.Description}}"""
    if n < 0:
        raise ValueError('n must be non-negative')
    if n < 2:
        return n
    return {{.Name}}(n - 1) + {{.Name}}(n - 2)
`,
			edge: `assert {{NAME}}(0) == 0
assert {{NAME}}(1) == 1`,
		},
	},
	"max_in_list": {
		{
			strategy: "builtin",
			source: `"""{{.Description}}"""


def {{.Name}}(nums):
    """{{.Description}}"""
    if not nums:
        raise ValueError('empty list')
    return max(nums)
`,
			edge: `assert {{NAME}}([7]) == 7
assert {{NAME}}([-3, -1, -2]) == -1`,
		},
		{
			strategy: "loop",
			source: `"""{{.Description}}"""


def {{.Name}}(nums):
    """{{.Description}}"""
    if not nums:
        raise ValueError('empty list')
    best = nums[0]
    for n in nums[1:]:
        if n > best:
            best = n
    return best
`,
			edge: `assert {{NAME}}([7]) == 7
assert {{NAME}}([-3, -1, -2]) == -1`,
		},
	},
	"sort": {
		{
			strategy: "builtin",
			source: `"""{{.Description}}"""


def {{.Name}}(nums):
    """{{.Description}}"""
    return sorted(nums)
`,
			edge: `assert {{NAME}}([]) == []
assert {{NAME}}([1]) == [1]`,
		},
		{
			strategy: "insertion",
			source: `"""{{.Description}}"""


def {{.Name}}(nums):
    """{{.Description}}"""
    out = list(nums)
    for i in range(1, len(out)):
        key = out[i]
        j = i - 1
        while j >= 0 and out[j] > key:
            out[j + 1] = out[j]
            j -= 1
        out[j + 1] = key
    return out
`,
			edge: `assert {{NAME}}([]) == []
assert {{NAME}}([1]) == [1]`,
		},
	},
	"count_vowels": {
		{
			strategy: "loop",
			source: `"""{{.Description}}"""


def {{.Name}}(s):
    """{{.Description}}"""
    return sum(1 for ch in s.lower() if ch in 'aeiou')
`,
			edge: `assert {{NAME}}('') == 0
assert {{NAME}}('AEIOU') == 5`,
		},
	},
	"gcd": {
		{
			strategy: "euclid",
			source: `"""{{.Description}}"""


def {{.Name}}(a, b):
    """{{.Description}}"""
    a, b = abs(a), abs(b)
    while b:
        a, b = b, a % b
    return a
`,
			edge: `assert {{NAME}}(9, 0) == 9
assert {{NAME}}(0, 4) == 4`,
		},
	},
	"sum_of_squares": {
		{
			strategy: "loop",
			source: `"""{{.Description}}"""


def {{.Name}}(nums):
    """{{.Description}}"""
    return sum(n * n for n in nums)
`,
			edge: `assert {{NAME}}([]) == 0
assert {{NAME}}([-2]) == 4`,
		},
	},
	"add": {
		{
			strategy: "direct",
			source: `"""{{.Description}}"""


def {{.Name}}(a, b):
    """{{.Description}}"""
    return a + b
`,
			edge: `assert {{NAME}}(0, 0) == 0
assert {{NAME}}(-1, 1) == 0`,
		},
	},
	"prime": {
		{
			strategy: "trial_division",
			source: `"""{{.Description}}"""


def {{.Name}}(n):
    """{{.Description}}"""
    if n < 2:
        return False
    i = 2
    while i * i <= n:
        if n % i == 0:
            return False
        i += 1
    return True
`,
			edge: `assert {{NAME}}(1) == False
assert {{NAME}}(2) == True`,
		},
	},
}

// registerPythonTemplates installs the Python generation table.
func registerPythonTemplates(r *Registry) {
	for _, tag := range templateTagOrder {
		for _, def := range pythonDefs[tag] {
			tag, def := tag, def
			r.mustRegister(&Template{
				ID:         "python/" + tag + "/" + def.strategy,
				Tag:        tag,
				Language:   LangPython,
				StrategyID: def.strategy,
				Generate: func(ir intent.IR) (Artifacts, error) {
					src, err := renderSource("python/"+tag+"/"+def.strategy, def.source, ir)
					if err != nil {
						return Artifacts{}, err
					}
					return Artifacts{
						Source: src,
						Test:   buildPythonTest(ir, def.edge),
					}, nil
				},
			})
		}
	}
}

// templateTagOrder fixes registration order across maps so selection
// tie-breaks are stable between process runs.
var templateTagOrder = []string{
	"reverse", "palindrome", "factorial", "fibonacci", "max_in_list",
	"sort", "count_vowels", "gcd", "sum_of_squares", "add", "prime",
}
