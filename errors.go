// errors.go: the three error families and caret-snippet rendering
//
// What this file does
// -------------------
// Defines the full error surface of the engine:
//
//   - *SyntaxError  — produced by the lexer/parser before execution starts.
//     Error() renders the documented "[line: L, column: C] <message>" form.
//   - *EvalError    — runtime faults and uncaught script throws. Carries the
//     script-level call stack captured at the throw site (innermost frame
//     first). Error() renders the message followed by one
//     "<call-site-source> (<filename>:<line>)" line per frame.
//   - *LimitsError  — subtype of EvalError with one of four fixed messages.
//     It is the only failure that unwinds through the host stack (scripts
//     cannot catch it), so pending script finally blocks are skipped.
//
// Also provides `FormatError`, a Python-style caret snippet renderer for
// syntax errors, used by the CLI. The engine API itself returns the plain
// typed errors; formatting is a presentation concern.
//
// Behavior guarantees
// -------------------
//   - Line/column are 1-based. Out-of-range coordinates are clamped so the
//     caret renderer cannot crash on adversarial input.
//   - The four limits messages are bit-exact literals; hosts dispatch on them.
package jssandbox

import (
	"fmt"
	"strings"
)

/* ===========================
   PUBLIC API
   =========================== */

// Fixed LimitsError messages. Hosts may rely on these exact strings.
const (
	MsgOpsLimit       = "Reached the execution limit!"
	MsgMemLimit       = "Reached the memory limit!"
	MsgCallStackLimit = "Reached the call stack limit!"
	MsgTimeout        = "Reached the timeout!"
)

// SyntaxError is a pre-execution lex/parse failure at a source position.
type SyntaxError struct {
	Pos     Pos
	Message string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("[line: %d, column: %d] %s", e.Pos.Line, e.Pos.Col, e.Message)
}

// Frame is one script-level call stack entry. Source holds the compactly
// rendered statement at the call site (innermost frame: the failing
// statement itself).
type Frame struct {
	FuncName string
	Source   string
	Filename string
	Line     int
	Col      int
}

func (f Frame) String() string {
	return fmt.Sprintf("%s (%s:%d)", f.Source, f.Filename, f.Line)
}

// EvalError is a runtime failure: a fault raised by the interpreter (bad
// property access, type error, unsupported feature) or a script `throw`
// that no script-level try caught. Stack is bottom-up: innermost call first.
type EvalError struct {
	Message string
	Pos     Pos
	Stack   []Frame

	// Thrown holds the original script value for uncaught `throw`
	// statements, so hosts can inspect structured errors.
	Thrown Value
}

func (e *EvalError) Error() string {
	if len(e.Stack) == 0 {
		return e.Message
	}
	var b strings.Builder
	b.WriteString(e.Message)
	for _, f := range e.Stack {
		b.WriteByte('\n')
		b.WriteString(f.String())
	}
	return b.String()
}

// LimitsError signals that an execution exceeded one of its budgets. It is
// an EvalError subtype but is never catchable by script code.
type LimitsError struct {
	EvalError
}

// IsLimits reports whether err is (or wraps) a LimitsError.
func IsLimits(err error) bool {
	_, ok := err.(*LimitsError)
	return ok
}

// FormatError renders err with a caret-annotated source snippet when it is a
// *SyntaxError or a positioned *EvalError; other errors format as-is.
// Output is plain text, suitable for logs and terminals.
func FormatError(err error, src string) string {
	switch e := err.(type) {
	case *SyntaxError:
		return prettySnippet(src, "SYNTAX ERROR", e.Pos.Line, e.Pos.Col, e.Message)
	case *LimitsError:
		return e.Message
	case *EvalError:
		if e.Pos.IsValid() {
			out := prettySnippet(src, "RUNTIME ERROR", e.Pos.Line, e.Pos.Col, e.Message)
			for _, f := range e.Stack {
				out += "\n    at " + f.String()
			}
			return out
		}
		return e.Error()
	default:
		return err.Error()
	}
}

//// END_OF_PUBLIC

/* ===========================
   PRIVATE: snippet rendering
   =========================== */

// prettySnippet builds a Python-like snippet with a header and a caret.
// It shows at most one previous and one next line when available.
// Coordinates are treated as 1-based and clamped to the source bounds.
func prettySnippet(src, header string, line, col int, msg string) string {
	lines := strings.Split(src, "\n")
	if line < 1 {
		line = 1
	}
	if col < 1 {
		col = 1
	}
	if len(lines) == 0 {
		lines = []string{""}
	}
	if line > len(lines) {
		line = len(lines)
	}
	lineTxt := lines[line-1]

	var b strings.Builder
	fmt.Fprintf(&b, "%s at %d:%d: %s\n\n", header, line, col, msg)
	if line > 1 {
		fmt.Fprintf(&b, "%4d | %s\n", line-1, lines[line-2])
	}
	fmt.Fprintf(&b, "%4d | %s\n", line, lineTxt)
	caretPad := col - 1
	if caretPad > len(lineTxt) {
		caretPad = len(lineTxt)
	}
	fmt.Fprintf(&b, "     | %s^\n", strings.Repeat(" ", caretPad))
	if line < len(lines) {
		fmt.Fprintf(&b, "%4d | %s\n", line+1, lines[line])
	}
	return b.String()
}
