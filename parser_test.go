// parser_test.go
package jssandbox

import (
	"strings"
	"testing"
)

func parse(t *testing.T, src string) *Program {
	t.Helper()
	prog, err := ParseProgram(src)
	if err != nil {
		t.Fatalf("parse %q: %v", src, err)
	}
	return prog
}

func wantParseError(t *testing.T, src, substr string) *SyntaxError {
	t.Helper()
	_, err := ParseProgram(src)
	if err == nil {
		t.Fatalf("source %q: expected parse error containing %q, got none", src, substr)
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

func Test_Parser_VarDecl_Kinds(t *testing.T) {
	prog := parse(t, "var a = 1; let b = 2; const c = 3;")
	if len(prog.Body) != 3 {
		t.Fatalf("want 3 statements, got %d", len(prog.Body))
	}
	kinds := []DeclKind{DeclVar, DeclLet, DeclConst}
	for i, want := range kinds {
		vd, ok := prog.Body[i].(*VarDecl)
		if !ok || vd.Kind != want {
			t.Fatalf("statement %d: want %v declaration, got %#v", i, want, prog.Body[i])
		}
	}
}

func Test_Parser_Const_Requires_Initializer(t *testing.T) {
	wantParseError(t, "const x;", "const")
}

func Test_Parser_SyntaxError_Renders_Position(t *testing.T) {
	_, err := ParseProgram("let x = ;")
	if err == nil {
		t.Fatal("expected error")
	}
	msg := err.Error()
	if !strings.HasPrefix(msg, "[line: 1, column: ") {
		t.Fatalf("error %q does not carry the position prefix", msg)
	}
}

func Test_Parser_ASI_Newline_Terminates(t *testing.T) {
	prog := parse(t, "let a = 1\nlet b = 2\na + b")
	if len(prog.Body) != 3 {
		t.Fatalf("want 3 statements via ASI, got %d", len(prog.Body))
	}
}

func Test_Parser_ASI_Restricted_Return(t *testing.T) {
	prog := parse(t, "function f() { return\n1 }")
	fd := prog.Body[0].(*FuncDecl)
	ret := fd.Fn.Body.Body[0].(*ReturnStmt)
	if ret.Value != nil {
		t.Fatalf("return followed by newline must return undefined, got %#v", ret.Value)
	}
}

func Test_Parser_ASI_Restricted_Postfix(t *testing.T) {
	// a newline before ++ starts a new statement; `++b` alone is prefix
	prog := parse(t, "a\n++b")
	if len(prog.Body) != 2 {
		t.Fatalf("want 2 statements, got %d", len(prog.Body))
	}
	up := prog.Body[1].(*ExprStmt).X.(*UpdateExpr)
	if !up.Prefix {
		t.Fatalf("want prefix increment after newline")
	}
}

func Test_Parser_Arrow_Functions(t *testing.T) {
	prog := parse(t, "const f = (a, b) => a + b; const g = x => x * 2; const h = () => ({});")
	f := prog.Body[0].(*VarDecl).Decls[0].Init.(*FuncLit)
	if !f.Arrow || len(f.Params) != 2 || f.ExprBody == nil {
		t.Fatalf("two-param arrow not parsed: %#v", f)
	}
	g := prog.Body[1].(*VarDecl).Decls[0].Init.(*FuncLit)
	if !g.Arrow || len(g.Params) != 1 {
		t.Fatalf("single-param arrow not parsed: %#v", g)
	}
	h := prog.Body[2].(*VarDecl).Decls[0].Init.(*FuncLit)
	if _, ok := h.ExprBody.(*ObjectLit); !ok {
		t.Fatalf("parenthesized object body not parsed: %#v", h.ExprBody)
	}
}

func Test_Parser_Arrow_Vs_Parenthesized_Expr(t *testing.T) {
	prog := parse(t, "(a + b) * c")
	if _, ok := prog.Body[0].(*ExprStmt).X.(*BinaryExpr); !ok {
		t.Fatalf("parenthesized expression consumed by arrow backtracking")
	}
}

func Test_Parser_Precedence(t *testing.T) {
	prog := parse(t, "1 + 2 * 3 ** 2")
	add := prog.Body[0].(*ExprStmt).X.(*BinaryExpr)
	if add.Op != "+" {
		t.Fatalf("top operator: want +, got %s", add.Op)
	}
	mul := add.R.(*BinaryExpr)
	if mul.Op != "*" {
		t.Fatalf("middle operator: want *, got %s", mul.Op)
	}
	if pow := mul.R.(*BinaryExpr); pow.Op != "**" {
		t.Fatalf("inner operator: want **, got %s", pow.Op)
	}
}

func Test_Parser_Pow_Right_Associative(t *testing.T) {
	prog := parse(t, "2 ** 3 ** 2")
	outer := prog.Body[0].(*ExprStmt).X.(*BinaryExpr)
	if _, ok := outer.R.(*BinaryExpr); !ok {
		t.Fatalf("** must associate right")
	}
}

func Test_Parser_ForOf_And_ForIn(t *testing.T) {
	prog := parse(t, "for (const x of xs) {}\nfor (let k in obj) {}\nfor (y of xs) {}")
	of := prog.Body[0].(*ForInStmt)
	if !of.Of || of.Decl != DeclConst || of.Plain {
		t.Fatalf("for-of decl not parsed: %#v", of)
	}
	in := prog.Body[1].(*ForInStmt)
	if in.Of || in.Decl != DeclLet {
		t.Fatalf("for-in decl not parsed: %#v", in)
	}
	plain := prog.Body[2].(*ForInStmt)
	if !plain.Of || !plain.Plain {
		t.Fatalf("plain-target for-of not parsed: %#v", plain)
	}
}

func Test_Parser_Classic_For_With_Let(t *testing.T) {
	prog := parse(t, "for (let i = 0; i < 3; i++) {}")
	fs := prog.Body[0].(*ForStmt)
	if fs.Init.(*VarDecl).Kind != DeclLet || fs.Cond == nil || fs.Post == nil {
		t.Fatalf("classic for not parsed: %#v", fs)
	}
}

func Test_Parser_Destructuring(t *testing.T) {
	prog := parse(t, "const [a, , b = 1, ...rest] = xs; const {x, y: z, w = 2} = o;")
	ap := prog.Body[0].(*VarDecl).Decls[0].Target.(*ArrayPat)
	if len(ap.Elems) != 3 || ap.Elems[1] != nil || ap.Defaults[2] == nil || ap.Rest == nil {
		t.Fatalf("array pattern not parsed: %#v", ap)
	}
	op := prog.Body[1].(*VarDecl).Decls[0].Target.(*ObjectPat)
	if len(op.Props) != 3 {
		t.Fatalf("object pattern props: want 3, got %d", len(op.Props))
	}
	if op.Props[1].Key != "y" || op.Props[1].Target.(*IdentPat).Name != "z" {
		t.Fatalf("renamed prop not parsed: %#v", op.Props[1])
	}
	if op.Props[2].Default == nil {
		t.Fatalf("defaulted prop not parsed")
	}
}

func Test_Parser_Object_Literal_Forms(t *testing.T) {
	prog := parse(t, "const o = {a: 1, b, ['c' + 'd']: 2, m() { return 3 }};")
	ol := prog.Body[0].(*VarDecl).Decls[0].Init.(*ObjectLit)
	if len(ol.Props) != 4 {
		t.Fatalf("want 4 props, got %d", len(ol.Props))
	}
	if ol.Props[1].Key != "b" {
		t.Fatalf("shorthand prop not parsed")
	}
	if ol.Props[2].Computed == nil {
		t.Fatalf("computed key not parsed")
	}
	if _, ok := ol.Props[3].Value.(*FuncLit); !ok {
		t.Fatalf("method shorthand not parsed")
	}
}

func Test_Parser_Labels_Only_On_Loops(t *testing.T) {
	parse(t, "outer: for (;;) { break outer }")
	parse(t, "s: switch (x) { default: break s }")
	wantParseError(t, "lbl: x = 1;", "label")
}

func Test_Parser_Try_Forms(t *testing.T) {
	prog := parse(t, "try { f() } catch (e) { g(e) } finally { h() }")
	ts := prog.Body[0].(*TryStmt)
	if ts.CatchParam == nil || ts.Catch == nil || ts.Finally == nil {
		t.Fatalf("try/catch/finally not parsed: %#v", ts)
	}
	wantParseError(t, "try { f() }", "catch")
}

func Test_Parser_Spread_In_Calls_And_Arrays(t *testing.T) {
	prog := parse(t, "f(...xs); const a = [1, ...xs, 2];")
	call := prog.Body[0].(*ExprStmt).X.(*CallExpr)
	if _, ok := call.Args[0].(*SpreadExpr); !ok {
		t.Fatalf("spread argument not parsed")
	}
	arr := prog.Body[1].(*VarDecl).Decls[0].Init.(*ArrayLit)
	if _, ok := arr.Elems[1].(*SpreadExpr); !ok {
		t.Fatalf("spread element not parsed")
	}
}

func Test_Parser_Invalid_Assignment_Target(t *testing.T) {
	wantParseError(t, "1 = 2;", "assignment")
}

func Test_Parser_Template_Literal(t *testing.T) {
	prog := parse(t, "`a${1 + 2}b`")
	tl := prog.Body[0].(*ExprStmt).X.(*TemplateLit)
	if len(tl.Quasis) != 2 || len(tl.Exprs) != 1 {
		t.Fatalf("template shape: quasis=%d exprs=%d", len(tl.Quasis), len(tl.Exprs))
	}
	if tl.Quasis[0] != "a" || tl.Quasis[1] != "b" {
		t.Fatalf("template chunks: %#v", tl.Quasis)
	}
}

func Test_Parser_Member_Chains(t *testing.T) {
	prog := parse(t, "a.b.c[0](x).d")
	m := prog.Body[0].(*ExprStmt).X.(*MemberExpr)
	if m.Prop != "d" {
		t.Fatalf("outermost member: want d, got %s", m.Prop)
	}
	if _, ok := m.Obj.(*CallExpr); !ok {
		t.Fatalf("call in chain not parsed")
	}
}

func Test_Parser_New_Expression(t *testing.T) {
	prog := parse(t, "new Date(2020, 1)")
	ne := prog.Body[0].(*ExprStmt).X.(*NewExpr)
	if ne.Callee.(*Ident).Name != "Date" || len(ne.Args) != 2 {
		t.Fatalf("new expression not parsed: %#v", ne)
	}
}

func Test_Parser_Keyword_Property_Names(t *testing.T) {
	parse(t, "o.delete; o.new; const p = {in: 1, for: 2};")
}

func Test_Parser_Program_Reuse_Is_Pure(t *testing.T) {
	src := "let x = 1; x + 1"
	p1 := parse(t, src)
	p2 := parse(t, src)
	if len(p1.Body) != len(p2.Body) {
		t.Fatalf("parse is not deterministic")
	}
}
