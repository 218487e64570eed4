package repl

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"kira/internal/evaluator"
	"kira/internal/lexer"
	"kira/internal/object"
	"kira/internal/parser"
)

const (
	PROMPT             = "kira> "
	ContinuationPrompt = "...  "
)

// Start runs the interactive loop: read a (possibly multi-line) chunk,
// lex+parse+eval it against a persistent env, print the result's display
// form unless it is Null. Ctrl-D / EOF returns to the caller, which exits
// with code 0.
func Start(in io.Reader, out io.Writer) {
	scanner := bufio.NewScanner(in)
	env := object.NewRootEnv(evaluator.Builtins())
	eval := evaluator.New()

	for {
		fmt.Fprint(out, PROMPT)
		chunk, ok := readChunk(scanner, out)
		if !ok {
			return
		}
		if strings.TrimSpace(chunk) == "" {
			continue
		}

		l := lexer.New(chunk)
		p := parser.New(l)
		program := p.ParseProgram()
		if err := p.Err(); err != nil {
			fmt.Fprintf(out, "%s\n", err)
			continue
		}

		val, err := eval.Eval(program, env)
		if err != nil {
			fmt.Fprintf(out, "%s\n", err)
			continue
		}
		if _, isNull := val.(*object.Null); !isNull {
			fmt.Fprintln(out, object.DisplayForm(val))
		}
	}
}

// readChunk accumulates lines until braces/brackets/parens balance and
// the last non-blank line doesn't end in a binary operator awaiting an
// operand, printing the continuation prompt in between.
func readChunk(scanner *bufio.Scanner, out io.Writer) (string, bool) {
	var lines []string
	for {
		if !scanner.Scan() {
			if len(lines) == 0 {
				return "", false
			}
			return strings.Join(lines, "\n"), true
		}
		lines = append(lines, scanner.Text())
		chunk := strings.Join(lines, "\n")
		if isComplete(chunk) {
			return chunk, true
		}
		fmt.Fprint(out, ContinuationPrompt)
	}
}

func isComplete(src string) bool {
	depth := 0
	inString := false
	escaped := false
	trimmed := strings.TrimSpace(src)
	if trimmed == "" {
		return true
	}
	for _, ch := range src {
		if inString {
			if escaped {
				escaped = false
				continue
			}
			switch ch {
			case '\\':
				escaped = true
			case '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
		}
	}
	if inString || depth > 0 {
		return false
	}
	return !endsWithTrailingOperator(trimmed)
}

var trailingOperators = []string{"+", "-", "*", "/", "%", "**", "=", "==", "!=", "<", "<=", ">", ">=", "and", "or", "not", ","}

func endsWithTrailingOperator(trimmed string) bool {
	for _, op := range trailingOperators {
		if strings.HasSuffix(trimmed, op) {
			// avoid false positives on identifiers ending in a keyword substring
			if op == "and" || op == "or" || op == "not" {
				if len(trimmed) > len(op) {
					before := trimmed[len(trimmed)-len(op)-1]
					if before != ' ' {
						continue
					}
				}
			}
			return true
		}
	}
	return false
}
