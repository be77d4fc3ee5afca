package formatter

import (
	"regexp"
	"strings"

	"github.com/mcncl/pytyper/internal/errors"
)

// DefaultIndent is the number of spaces per indentation level.
const DefaultIndent = 4

// TabIndent selects tab indentation instead of spaces.
const TabIndent = -1

var blankRun = regexp.MustCompile(`\n{4,}`)

// Formatter normalizes generated Python source: indentation, trailing
// whitespace and blank lines.
type Formatter struct {
	unit string
}

// NewFormatter creates a Formatter that indents with four spaces.
func NewFormatter() *Formatter {
	return NewFormatterWithIndent(DefaultIndent)
}

// NewFormatterWithIndent creates a Formatter that indents with n spaces per
// level, or with tabs when n is TabIndent. Other values below one fall back
// to DefaultIndent.
func NewFormatterWithIndent(n int) *Formatter {
	switch {
	case n == TabIndent:
		return &Formatter{unit: "\t"}
	case n < 1:
		n = DefaultIndent
	}
	return &Formatter{unit: strings.Repeat(" ", n)}
}

// Format takes generated Python code and returns it with leading tabs
// expanded to the configured indentation, trailing whitespace removed, at
// most two consecutive blank lines and exactly one trailing newline.
func (f *Formatter) Format(code string) (string, error) {
	if strings.TrimSpace(code) == "" {
		return "", nil
	}
	if err := checkBrackets(code); err != nil {
		return "", err
	}

	lines := strings.Split(code, "\n")
	for i, line := range lines {
		lines[i] = f.reindent(strings.TrimRight(line, " \t\r"))
	}

	result := strings.Join(lines, "\n")
	result = blankRun.ReplaceAllString(result, "\n\n\n")
	return strings.TrimRight(result, "\n") + "\n", nil
}

func (f *Formatter) reindent(line string) string {
	depth := 0
	for depth < len(line) && line[depth] == '\t' {
		depth++
	}
	if depth == 0 || f.unit == "\t" {
		return line
	}
	return strings.Repeat(f.unit, depth) + line[depth:]
}

// checkBrackets verifies that brackets outside string literals and comments
// balance. An imbalance means the generator produced broken source.
func checkBrackets(code string) error {
	var stack []byte
	pairs := map[byte]byte{')': '(', ']': '[', '}': '{'}

	for i := 0; i < len(code); i++ {
		c := code[i]
		switch c {
		case '"', '\'':
			end := skipString(code, i)
			if end < 0 {
				return errors.NewFormatError("unterminated string literal in generated code", nil)
			}
			i = end
		case '#':
			for i < len(code) && code[i] != '\n' {
				i++
			}
		case '(', '[', '{':
			stack = append(stack, c)
		case ')', ']', '}':
			if len(stack) == 0 || stack[len(stack)-1] != pairs[c] {
				return errors.NewFormatError("unbalanced "+string(c)+" in generated code", nil)
			}
			stack = stack[:len(stack)-1]
		}
	}
	if len(stack) > 0 {
		return errors.NewFormatError("unclosed "+string(stack[len(stack)-1])+" in generated code", nil)
	}
	return nil
}

// skipString returns the index of the quote closing the literal that opens
// at start, or -1.
func skipString(code string, start int) int {
	quote := code[start]
	for i := start + 1; i < len(code); i++ {
		switch code[i] {
		case '\\':
			i++
		case quote:
			return i
		case '\n':
			return -1
		}
	}
	return -1
}
