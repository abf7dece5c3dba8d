// render.go — compact single-line rendering of AST nodes.
//
// Stack-trace frames quote the statement that was executing when the error
// was raised, re-rendered from the AST rather than sliced from the source,
// so multi-line statements collapse to one readable line. Nested blocks and
// function bodies render as "{...}" to keep frames short.
package jssandbox

import "strings"

func renderStmt(s Stmt) string {
	switch st := s.(type) {
	case *EmptyStmt:
		return ";"
	case *ExprStmt:
		return renderExpr(st.X)
	case *VarDecl:
		parts := make([]string, len(st.Decls))
		for i, d := range st.Decls {
			parts[i] = renderPattern(d.Target)
			if d.Init != nil {
				parts[i] += " = " + renderExpr(d.Init)
			}
		}
		return st.Kind.String() + " " + strings.Join(parts, ", ")
	case *FuncDecl:
		return "function " + st.Name + "(" + renderParams(st.Fn.Params) + ") {...}"
	case *BlockStmt:
		return "{...}"
	case *IfStmt:
		return "if (" + renderExpr(st.Cond) + ") ..."
	case *WhileStmt:
		return "while (" + renderExpr(st.Cond) + ") ..."
	case *DoWhileStmt:
		return "do ... while (" + renderExpr(st.Cond) + ")"
	case *ForStmt:
		init, cond, post := "", "", ""
		if st.Init != nil {
			init = renderStmt(st.Init)
		}
		if st.Cond != nil {
			cond = renderExpr(st.Cond)
		}
		if st.Post != nil {
			post = renderExpr(st.Post)
		}
		return "for (" + init + "; " + cond + "; " + post + ") ..."
	case *ForInStmt:
		kw := "in"
		if st.Of {
			kw = "of"
		}
		target := renderPattern(st.Target)
		if !st.Plain {
			target = st.Decl.String() + " " + target
		}
		return "for (" + target + " " + kw + " " + renderExpr(st.Object) + ") ..."
	case *BreakStmt:
		if st.Label != "" {
			return "break " + st.Label
		}
		return "break"
	case *ContinueStmt:
		if st.Label != "" {
			return "continue " + st.Label
		}
		return "continue"
	case *ReturnStmt:
		if st.Value != nil {
			return "return " + renderExpr(st.Value)
		}
		return "return"
	case *SwitchStmt:
		return "switch (" + renderExpr(st.Disc) + ") {...}"
	case *ThrowStmt:
		return "throw " + renderExpr(st.Value)
	case *TryStmt:
		return "try {...}"
	case *LabeledStmt:
		return st.Label + ": " + renderStmt(st.Body)
	case *Program:
		return "<program>"
	}
	return "<statement>"
}

func renderExpr(e Expr) string {
	switch x := e.(type) {
	case *Ident:
		return x.Name
	case *NumberLit:
		if x.Raw != "" {
			return x.Raw
		}
		return numberToString(x.Value)
	case *StringLit:
		return quoteString(x.Value)
	case *BoolLit:
		if x.Value {
			return "true"
		}
		return "false"
	case *NullLit:
		return "null"
	case *UndefinedLit:
		return "undefined"
	case *ThisExpr:
		return "this"
	case *TemplateLit:
		var b strings.Builder
		b.WriteByte('`')
		b.WriteString(x.Quasis[0])
		for i, sub := range x.Exprs {
			b.WriteString("${")
			b.WriteString(renderExpr(sub))
			b.WriteString("}")
			b.WriteString(x.Quasis[i+1])
		}
		b.WriteByte('`')
		return b.String()
	case *ArrayLit:
		parts := make([]string, len(x.Elems))
		for i, el := range x.Elems {
			if el != nil {
				parts[i] = renderExpr(el)
			}
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case *ObjectLit:
		if len(x.Props) == 0 {
			return "{}"
		}
		parts := make([]string, len(x.Props))
		for i, p := range x.Props {
			if p.Computed != nil {
				parts[i] = "[" + renderExpr(p.Computed) + "]: " + renderExpr(p.Value)
			} else {
				parts[i] = p.Key + ": " + renderExpr(p.Value)
			}
		}
		return "{" + strings.Join(parts, ", ") + "}"
	case *FuncLit:
		if x.Arrow {
			return "(" + renderParams(x.Params) + ") => ..."
		}
		name := x.Name
		if name != "" {
			name = " " + name
		}
		return "function" + name + "(" + renderParams(x.Params) + ") {...}"
	case *UnaryExpr:
		if x.Op == "typeof" || x.Op == "void" || x.Op == "delete" {
			return x.Op + " " + renderExpr(x.X)
		}
		return x.Op + renderExpr(x.X)
	case *UpdateExpr:
		if x.Prefix {
			return x.Op + renderExpr(x.X)
		}
		return renderExpr(x.X) + x.Op
	case *BinaryExpr:
		return renderExpr(x.L) + " " + x.Op + " " + renderExpr(x.R)
	case *LogicalExpr:
		return renderExpr(x.L) + " " + x.Op + " " + renderExpr(x.R)
	case *CondExpr:
		return renderExpr(x.Cond) + " ? " + renderExpr(x.Then) + " : " + renderExpr(x.Else)
	case *AssignExpr:
		return renderExpr(x.Target) + " " + x.Op + " " + renderExpr(x.Value)
	case *SeqExpr:
		parts := make([]string, len(x.Exprs))
		for i, sub := range x.Exprs {
			parts[i] = renderExpr(sub)
		}
		return strings.Join(parts, ", ")
	case *MemberExpr:
		return renderExpr(x.Obj) + "." + x.Prop
	case *IndexExpr:
		return renderExpr(x.Obj) + "[" + renderExpr(x.Index) + "]"
	case *CallExpr:
		return renderExpr(x.Callee) + "(" + renderArgs(x.Args) + ")"
	case *NewExpr:
		return "new " + renderExpr(x.Callee) + "(" + renderArgs(x.Args) + ")"
	case *SpreadExpr:
		return "..." + renderExpr(x.X)
	}
	return "<expression>"
}

func renderArgs(args []Expr) string {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = renderExpr(a)
	}
	return strings.Join(parts, ", ")
}

func renderParams(params []*Param) string {
	parts := make([]string, len(params))
	for i, p := range params {
		s := renderPattern(p.Target)
		if p.Rest {
			s = "..." + s
		} else if p.Default != nil {
			s += " = " + renderExpr(p.Default)
		}
		parts[i] = s
	}
	return strings.Join(parts, ", ")
}

func renderPattern(p Pattern) string {
	switch pat := p.(type) {
	case *IdentPat:
		return pat.Name
	case *ArrayPat:
		parts := make([]string, 0, len(pat.Elems)+1)
		for i, el := range pat.Elems {
			s := ""
			if el != nil {
				s = renderPattern(el)
				if pat.Defaults[i] != nil {
					s += " = " + renderExpr(pat.Defaults[i])
				}
			}
			parts = append(parts, s)
		}
		if pat.Rest != nil {
			parts = append(parts, "..."+renderPattern(pat.Rest))
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case *ObjectPat:
		parts := make([]string, len(pat.Props))
		for i, prop := range pat.Props {
			s := prop.Key
			if t, ok := prop.Target.(*IdentPat); !ok || t.Name != prop.Key {
				s += ": " + renderPattern(prop.Target)
			}
			if prop.Default != nil {
				s += " = " + renderExpr(prop.Default)
			}
			parts[i] = s
		}
		return "{" + strings.Join(parts, ", ") + "}"
	}
	return "<pattern>"
}

func quoteString(s string) string {
	var b strings.Builder
	b.WriteByte('\'')
	for _, r := range s {
		switch r {
		case '\'':
			b.WriteString("\\'")
		case '\\':
			b.WriteString("\\\\")
		case '\n':
			b.WriteString("\\n")
		case '\t':
			b.WriteString("\\t")
		case '\r':
			b.WriteString("\\r")
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('\'')
	return b.String()
}
