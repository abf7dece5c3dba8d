// lexer_test.go
package jssandbox

import (
	"reflect"
	"strings"
	"testing"
)

func toks(t *testing.T, src string) []Token {
	t.Helper()
	ts, err := NewLexer(src).Scan()
	if err != nil {
		t.Fatalf("Scan error: %v", err)
	}
	return ts
}

func typesWithoutEOF(tokens []Token) []TokenType {
	if len(tokens) == 0 {
		return nil
	}
	end := len(tokens)
	if tokens[end-1].Type == EOF {
		end--
	}
	out := make([]TokenType, 0, end)
	for i := 0; i < end; i++ {
		out = append(out, tokens[i].Type)
	}
	return out
}

func wantTypes(t *testing.T, src string, want []TokenType) []Token {
	t.Helper()
	got := toks(t, src)
	gotTypes := typesWithoutEOF(got)
	if !reflect.DeepEqual(gotTypes, want) {
		t.Fatalf("\nsource:\n%s\nwant types:\n%v\ngot types:\n%v\n", src, want, gotTypes)
	}
	return got
}

func wantLexError(t *testing.T, src, substr string) *SyntaxError {
	t.Helper()
	_, err := NewLexer(src).Scan()
	if err == nil {
		t.Fatalf("source %q: expected lex error containing %q, got none", src, substr)
	}
	se, ok := err.(*SyntaxError)
	if !ok {
		t.Fatalf("source %q: expected *SyntaxError, got %T", src, err)
	}
	if !strings.Contains(se.Message, substr) {
		t.Fatalf("source %q: error %q does not contain %q", src, se.Message, substr)
	}
	return se
}

func Test_Lexer_Declaration(t *testing.T) {
	got := wantTypes(t, `let x = 42;`, []TokenType{LET, IDENT, ASSIGN, NUMBER, SEMI})
	if got[1].Lexeme != "x" {
		t.Fatalf("identifier lexeme: want x, got %q", got[1].Lexeme)
	}
	if got[3].Num != 42 {
		t.Fatalf("number literal: want 42, got %v", got[3].Num)
	}
}

func Test_Lexer_Positions_Are_One_Based(t *testing.T) {
	got := toks(t, "let a = 1;\nlet b = 2;")
	if got[0].Pos.Line != 1 || got[0].Pos.Col != 1 {
		t.Fatalf("first token at %v, want 1:1", got[0].Pos)
	}
	// second `let` starts line 2 column 1
	if got[5].Pos.Line != 2 || got[5].Pos.Col != 1 {
		t.Fatalf("second let at %v, want 2:1", got[5].Pos)
	}
}

func Test_Lexer_Numbers(t *testing.T) {
	cases := map[string]float64{
		"0":      0,
		"3.25":   3.25,
		".5":     0.5,
		"1e3":    1000,
		"2.5e-2": 0.025,
		"0xFF":   255,
		"0b101":  5,
		"0o17":   15,
	}
	for src, want := range cases {
		got := toks(t, src)
		if got[0].Type != NUMBER || got[0].Num != want {
			t.Fatalf("source %q: want NUMBER %v, got %v %v", src, want, got[0].Type, got[0].Num)
		}
	}
}

func Test_Lexer_String_Escapes(t *testing.T) {
	got := toks(t, `'a\n\tA\u{1F600}\x41'`)
	if got[0].Type != STRING {
		t.Fatalf("want STRING, got %v", got[0].Type)
	}
	want := "a\n\tA\U0001F600A"
	if got[0].Str != want {
		t.Fatalf("decoded string: want %q, got %q", want, got[0].Str)
	}
}

func Test_Lexer_Comments_And_Whitespace(t *testing.T) {
	wantTypes(t, "// line\n1 /* block\nspanning */ + 2", []TokenType{NUMBER, PLUS, NUMBER})
}

func Test_Lexer_Newline_Flag_For_ASI(t *testing.T) {
	got := toks(t, "a\nb")
	if got[0].NlBefore {
		t.Fatalf("first token should not have NlBefore")
	}
	if !got[1].NlBefore {
		t.Fatalf("token after newline should have NlBefore")
	}
	// block comment containing a newline counts as a line break
	got = toks(t, "a /* \n */ b")
	if !got[1].NlBefore {
		t.Fatalf("newline inside block comment should set NlBefore")
	}
}

func Test_Lexer_Template_NoSub(t *testing.T) {
	got := wantTypes(t, "`hello`", []TokenType{TEMPLATE_NOSUB})
	if got[0].Str != "hello" {
		t.Fatalf("template chunk: want hello, got %q", got[0].Str)
	}
}

func Test_Lexer_Template_With_Substitutions(t *testing.T) {
	wantTypes(t, "`a${x}b${y}c`", []TokenType{
		TEMPLATE_HEAD, IDENT, TEMPLATE_MIDDLE, IDENT, TEMPLATE_TAIL,
	})
}

func Test_Lexer_Template_Nested_Braces(t *testing.T) {
	// the object literal's braces must not terminate the substitution
	wantTypes(t, "`v=${ {a: 1}.a }`", []TokenType{
		TEMPLATE_HEAD, LBRACE, IDENT, COLON, NUMBER, RBRACE, PERIOD, IDENT, TEMPLATE_TAIL,
	})
}

func Test_Lexer_Regex_Rejected(t *testing.T) {
	se := wantLexError(t, "/a/.test('a')", "regular expression")
	if se.Pos.Line != 1 || se.Pos.Col != 1 {
		t.Fatalf("regex error position: %v", se.Pos)
	}
	// division stays legal
	wantTypes(t, "a / b", []TokenType{IDENT, SLASH, IDENT})
	wantTypes(t, "(1 + 2) / 3", []TokenType{LPAREN, NUMBER, PLUS, NUMBER, RPAREN, SLASH, NUMBER})
}

func Test_Lexer_Reserved_Words(t *testing.T) {
	wantLexError(t, "class A {}", "classes are not supported")
	wantLexError(t, "async function f() {}", "async functions are not supported")
	wantLexError(t, "import x from 'y'", "modules are not supported")
	wantLexError(t, "eval('1')", "'eval' is not supported")
	wantLexError(t, "with (a) {}", "'with' is not supported")
}

func Test_Lexer_Of_Is_Contextual(t *testing.T) {
	// `of` must lex as a plain identifier so it stays usable as a name
	got := wantTypes(t, "of", []TokenType{IDENT})
	if got[0].Lexeme != "of" {
		t.Fatalf("want identifier of, got %q", got[0].Lexeme)
	}
}

func Test_Lexer_Operators(t *testing.T) {
	wantTypes(t, "a ** b >>> c ?? d", []TokenType{IDENT, POW, IDENT, USHR, IDENT, QUESTION, QUESTION, IDENT})
}

func Test_Lexer_Unterminated_String(t *testing.T) {
	wantLexError(t, "'abc", "unterminated")
	wantLexError(t, "`abc", "unterminated")
}
