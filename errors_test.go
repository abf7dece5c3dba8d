// errors_test.go
package jssandbox

import (
	"strings"
	"testing"
)

func Test_Errors_SyntaxError_Format(t *testing.T) {
	se := &SyntaxError{Pos: Pos{Line: 3, Col: 7}, Message: "unexpected token"}
	if got := se.Error(); got != "[line: 3, column: 7] unexpected token" {
		t.Fatalf("SyntaxError format: %q", got)
	}
}

func Test_Errors_Frame_Format(t *testing.T) {
	f := Frame{FuncName: "a", Source: "foo.x = 1", Filename: "my-script.js", Line: 2, Col: 3}
	if got := f.String(); got != "foo.x = 1 (my-script.js:2)" {
		t.Fatalf("Frame format: %q", got)
	}
}

func Test_Errors_EvalError_Renders_Stack(t *testing.T) {
	ee := &EvalError{
		Message: "Type NULL has no properties",
		Stack: []Frame{
			{Source: "foo.x = 1", Filename: "s.js", Line: 2},
			{Source: "a(x)", Filename: "s.js", Line: 6},
		},
	}
	want := "Type NULL has no properties\nfoo.x = 1 (s.js:2)\na(x) (s.js:6)"
	if got := ee.Error(); got != want {
		t.Fatalf("EvalError format:\nwant %q\ngot  %q", want, got)
	}
}

func Test_Errors_FormatError_Snippet(t *testing.T) {
	src := "let a = 1;\nlet b = ;\nlet c = 3;"
	_, err := Parse(src)
	if err == nil {
		t.Fatal("expected a syntax error")
	}
	out := FormatError(err, src)
	if !strings.Contains(out, "SYNTAX ERROR at 2:") {
		t.Fatalf("snippet header missing: %q", out)
	}
	// the failing line with its neighbors, plus a caret line
	for _, want := range []string{"   1 | let a = 1;", "   2 | let b = ;", "   3 | let c = 3;", "^"} {
		if !strings.Contains(out, want) {
			t.Fatalf("snippet missing %q:\n%s", want, out)
		}
	}
}

func Test_Errors_FormatError_Limits_Passthrough(t *testing.T) {
	_, err := Eval("while (true) {}", EvalOpts{MaxOps: 100})
	if got := FormatError(err, "while (true) {}"); got != MsgOpsLimit {
		t.Fatalf("limits errors must format as their bare message, got %q", got)
	}
}

func Test_Errors_FormatError_Clamps_Bad_Coordinates(t *testing.T) {
	se := &SyntaxError{Pos: Pos{Line: 99, Col: 99}, Message: "m"}
	out := FormatError(se, "one line")
	if !strings.Contains(out, "one line") {
		t.Fatalf("out-of-range coordinates must clamp to the source: %q", out)
	}
}
