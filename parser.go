// parser.go — recursive-descent / Pratt parser producing the typed AST.
//
// OVERVIEW
// --------
// The parser consumes the flat token slice produced by the lexer (lexer.go)
// and builds the immutable AST defined in ast.go. Statements are parsed by
// plain recursive descent; expressions use a Pratt-style precedence table.
//
// Strict-mode semantics are assumed throughout (there is no sloppy mode):
// octal escapes are rejected by the lexer, `with`/`eval` never parse, and
// assignment targets are validated structurally.
//
// Semicolon handling follows the pragmatic ES rule set: a statement is
// terminated by ';', or implicitly before '}' / EOF / a line break. The
// restricted productions are honored: a line break after `return`, `break`,
// `continue` or `throw` ends the statement, and postfix ++/-- must be on
// the same line as their operand.
//
// Labels are accepted on loops and switch statements only; labelling any
// other statement is a syntax error (matching the engine's subset).
//
// On any failure the parser raises *SyntaxError with the offending 1-based
// position; there is no error recovery (the first error wins).
package jssandbox

import "fmt"

// ParseProgram parses a complete source string into a *Program.
func ParseProgram(src string) (*Program, error) {
	toks, err := NewLexer(src).Scan()
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}
	return p.program()
}

////////////////////////////////////////////////////////////////////////////////
//                                   PRIVATE
////////////////////////////////////////////////////////////////////////////////

type parser struct {
	toks []Token
	i    int
	noIn bool // true while parsing a classic for-statement init
}

func (p *parser) cur() Token  { return p.toks[p.i] }
func (p *parser) peek() Token { // one token of lookahead
	if p.i+1 < len(p.toks) {
		return p.toks[p.i+1]
	}
	return p.toks[len(p.toks)-1]
}

func (p *parser) next() Token {
	t := p.toks[p.i]
	if p.i < len(p.toks)-1 {
		p.i++
	}
	return t
}

func (p *parser) at(t TokenType) bool { return p.cur().Type == t }

func (p *parser) eat(t TokenType) bool {
	if p.at(t) {
		p.next()
		return true
	}
	return false
}

func (p *parser) fail(tok Token, format string, args ...any) error {
	return &SyntaxError{Pos: tok.Pos, Message: fmt.Sprintf(format, args...)}
}

func (p *parser) expect(t TokenType, what string) (Token, error) {
	if !p.at(t) {
		return Token{}, p.fail(p.cur(), "expected %s", what)
	}
	return p.next(), nil
}

func describe(t Token) string {
	switch t.Type {
	case EOF:
		return "end of input"
	case STRING:
		return "string literal"
	case NUMBER:
		return "number " + t.Lexeme
	default:
		return "'" + t.Lexeme + "'"
	}
}

func (p *parser) program() (*Program, error) {
	prog := &Program{base: base{P: Pos{Line: 1, Col: 1}}}
	for !p.at(EOF) {
		s, err := p.statement()
		if err != nil {
			return nil, err
		}
		prog.Body = append(prog.Body, s)
	}
	return prog, nil
}

// endStatement consumes an explicit ';' or applies automatic semicolon
// insertion (before '}', at EOF, or after a line break).
func (p *parser) endStatement() error {
	if p.eat(SEMI) {
		return nil
	}
	if p.at(RBRACE) || p.at(EOF) || p.cur().NlBefore {
		return nil
	}
	return p.fail(p.cur(), "unexpected token %s", describe(p.cur()))
}

////////////////////////////////////////////////////////////////////////////////
//                                  STATEMENTS
////////////////////////////////////////////////////////////////////////////////

func (p *parser) statement() (Stmt, error) {
	tok := p.cur()
	switch tok.Type {
	case LBRACE:
		return p.block()
	case SEMI:
		p.next()
		return &EmptyStmt{base{tok.Pos}}, nil
	case VAR, LET, CONST:
		s, err := p.varDecl()
		if err != nil {
			return nil, err
		}
		if err := p.endStatement(); err != nil {
			return nil, err
		}
		return s, nil
	case FUNCTION:
		return p.funcDecl()
	case IF:
		return p.ifStmt()
	case FOR:
		return p.forStmt()
	case WHILE:
		return p.whileStmt()
	case DO:
		return p.doWhileStmt()
	case RETURN:
		p.next()
		rs := &ReturnStmt{base: base{tok.Pos}}
		if !p.at(SEMI) && !p.at(RBRACE) && !p.at(EOF) && !p.cur().NlBefore {
			v, err := p.expression()
			if err != nil {
				return nil, err
			}
			rs.Value = v
		}
		return rs, p.endStatement()
	case BREAK, CONTINUE:
		p.next()
		label := ""
		if p.at(IDENT) && !p.cur().NlBefore {
			label = p.next().Lexeme
		}
		var s Stmt
		if tok.Type == BREAK {
			s = &BreakStmt{base{tok.Pos}, label}
		} else {
			s = &ContinueStmt{base{tok.Pos}, label}
		}
		return s, p.endStatement()
	case SWITCH:
		return p.switchStmt()
	case THROW:
		p.next()
		if p.cur().NlBefore {
			return nil, p.fail(tok, "newline not allowed after 'throw'")
		}
		v, err := p.expression()
		if err != nil {
			return nil, err
		}
		return &ThrowStmt{base{tok.Pos}, v}, p.endStatement()
	case TRY:
		return p.tryStmt()
	case IDENT:
		// Possible label: `name: <loop|switch>`.
		if p.peek().Type == COLON {
			p.next()
			p.next()
			body, err := p.statement()
			if err != nil {
				return nil, err
			}
			switch body.(type) {
			case *ForStmt, *ForInStmt, *WhileStmt, *DoWhileStmt, *SwitchStmt, *LabeledStmt:
			default:
				return nil, p.fail(tok, "labels are only allowed on loops and switch statements")
			}
			return &LabeledStmt{base{tok.Pos}, tok.Lexeme, body}, nil
		}
	}

	// Expression statement.
	x, err := p.expression()
	if err != nil {
		return nil, err
	}
	return &ExprStmt{base{tok.Pos}, x}, p.endStatement()
}

func (p *parser) block() (*BlockStmt, error) {
	open, err := p.expect(LBRACE, "'{'")
	if err != nil {
		return nil, err
	}
	blk := &BlockStmt{base: base{open.Pos}}
	for !p.at(RBRACE) {
		if p.at(EOF) {
			return nil, p.fail(open, "unclosed block")
		}
		s, err := p.statement()
		if err != nil {
			return nil, err
		}
		blk.Body = append(blk.Body, s)
	}
	p.next()
	return blk, nil
}

func (p *parser) varDecl() (*VarDecl, error) {
	tok := p.next()
	kind := DeclVar
	switch tok.Type {
	case LET:
		kind = DeclLet
	case CONST:
		kind = DeclConst
	}
	vd := &VarDecl{base: base{tok.Pos}, Kind: kind}
	for {
		target, err := p.bindingPattern()
		if err != nil {
			return nil, err
		}
		d := &Declarator{Target: target}
		if p.eat(ASSIGN) {
			init, err := p.assignExpr()
			if err != nil {
				return nil, err
			}
			d.Init = init
		} else if kind == DeclConst {
			return nil, p.fail(tok, "missing initializer in const declaration")
		} else if _, plain := target.(*IdentPat); !plain {
			return nil, p.fail(tok, "missing initializer in destructuring declaration")
		}
		vd.Decls = append(vd.Decls, d)
		if !p.eat(COMMA) {
			return vd, nil
		}
	}
}

func (p *parser) funcDecl() (Stmt, error) {
	tok := p.cur()
	fn, err := p.functionLit(true)
	if err != nil {
		return nil, err
	}
	return &FuncDecl{base{tok.Pos}, fn.Name, fn}, nil
}

func (p *parser) ifStmt() (Stmt, error) {
	tok := p.next()
	if _, err := p.expect(LPAREN, "'(' after 'if'"); err != nil {
		return nil, err
	}
	cond, err := p.expression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(RPAREN, "')'"); err != nil {
		return nil, err
	}
	then, err := p.statement()
	if err != nil {
		return nil, err
	}
	st := &IfStmt{base: base{tok.Pos}, Cond: cond, Then: then}
	if p.eat(ELSE) {
		alt, err := p.statement()
		if err != nil {
			return nil, err
		}
		st.Else = alt
	}
	return st, nil
}

func (p *parser) whileStmt() (Stmt, error) {
	tok := p.next()
	if _, err := p.expect(LPAREN, "'(' after 'while'"); err != nil {
		return nil, err
	}
	cond, err := p.expression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(RPAREN, "')'"); err != nil {
		return nil, err
	}
	body, err := p.statement()
	if err != nil {
		return nil, err
	}
	return &WhileStmt{base{tok.Pos}, cond, body}, nil
}

func (p *parser) doWhileStmt() (Stmt, error) {
	tok := p.next()
	body, err := p.statement()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(WHILE, "'while' after do-body"); err != nil {
		return nil, err
	}
	if _, err := p.expect(LPAREN, "'('"); err != nil {
		return nil, err
	}
	cond, err := p.expression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(RPAREN, "')'"); err != nil {
		return nil, err
	}
	p.eat(SEMI)
	return &DoWhileStmt{base{tok.Pos}, body, cond}, nil
}

// forStmt parses classic for, for-in and for-of.
func (p *parser) forStmt() (Stmt, error) {
	tok := p.next()
	if _, err := p.expect(LPAREN, "'(' after 'for'"); err != nil {
		return nil, err
	}

	declKind := DeclVar
	hasDecl := false
	switch p.cur().Type {
	case VAR, LET, CONST:
		hasDecl = true
		switch p.next().Type {
		case LET:
			declKind = DeclLet
		case CONST:
			declKind = DeclConst
		}
	}

	// Detect for-in / for-of after the first binding target.
	if hasDecl || p.at(IDENT) || p.at(LBRACKET) || p.at(LBRACE) {
		save := p.i
		target, err := p.bindingPattern()
		if err == nil {
			if p.at(IN) || (p.at(IDENT) && p.cur().Lexeme == "of" && !p.cur().NlBefore) {
				of := !p.at(IN)
				p.next()
				obj, err := p.assignExpr()
				if err != nil {
					return nil, err
				}
				if _, err := p.expect(RPAREN, "')'"); err != nil {
					return nil, err
				}
				body, err := p.statement()
				if err != nil {
					return nil, err
				}
				return &ForInStmt{
					base: base{tok.Pos}, Of: of, Decl: declKind,
					Plain: !hasDecl, Target: target, Object: obj, Body: body,
				}, nil
			}
		}
		p.i = save
	}

	// Classic three-clause for.
	st := &ForStmt{base: base{tok.Pos}}
	if hasDecl {
		p.i-- // put the var/let/const token back for varDecl
		p.noIn = true
		init, err := p.varDecl()
		p.noIn = false
		if err != nil {
			return nil, err
		}
		st.Init = init
		if _, err := p.expect(SEMI, "';' in for-statement"); err != nil {
			return nil, err
		}
	} else if !p.eat(SEMI) {
		p.noIn = true
		x, err := p.expression()
		p.noIn = false
		if err != nil {
			return nil, err
		}
		st.Init = &ExprStmt{base{x.NodePos()}, x}
		if _, err := p.expect(SEMI, "';' in for-statement"); err != nil {
			return nil, err
		}
	}
	if !p.eat(SEMI) {
		cond, err := p.expression()
		if err != nil {
			return nil, err
		}
		st.Cond = cond
		if _, err := p.expect(SEMI, "';' in for-statement"); err != nil {
			return nil, err
		}
	}
	if !p.at(RPAREN) {
		post, err := p.expression()
		if err != nil {
			return nil, err
		}
		st.Post = post
	}
	if _, err := p.expect(RPAREN, "')'"); err != nil {
		return nil, err
	}
	body, err := p.statement()
	if err != nil {
		return nil, err
	}
	st.Body = body
	return st, nil
}

func (p *parser) switchStmt() (Stmt, error) {
	tok := p.next()
	if _, err := p.expect(LPAREN, "'(' after 'switch'"); err != nil {
		return nil, err
	}
	disc, err := p.expression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(RPAREN, "')'"); err != nil {
		return nil, err
	}
	if _, err := p.expect(LBRACE, "'{'"); err != nil {
		return nil, err
	}
	st := &SwitchStmt{base: base{tok.Pos}, Disc: disc}
	sawDefault := false
	for !p.eat(RBRACE) {
		if p.at(EOF) {
			return nil, p.fail(tok, "unclosed switch block")
		}
		c := &SwitchCase{}
		if p.eat(CASE) {
			test, err := p.expression()
			if err != nil {
				return nil, err
			}
			c.Test = test
		} else if p.eat(DEFAULT) {
			if sawDefault {
				return nil, p.fail(p.cur(), "duplicate default clause")
			}
			sawDefault = true
		} else {
			return nil, p.fail(p.cur(), "expected 'case' or 'default'")
		}
		if _, err := p.expect(COLON, "':'"); err != nil {
			return nil, err
		}
		for !p.at(CASE) && !p.at(DEFAULT) && !p.at(RBRACE) {
			s, err := p.statement()
			if err != nil {
				return nil, err
			}
			c.Body = append(c.Body, s)
		}
		st.Cases = append(st.Cases, c)
	}
	return st, nil
}

func (p *parser) tryStmt() (Stmt, error) {
	tok := p.next()
	blk, err := p.block()
	if err != nil {
		return nil, err
	}
	st := &TryStmt{base: base{tok.Pos}, Block: blk}
	if p.eat(CATCH) {
		if _, err := p.expect(LPAREN, "'(' after 'catch'"); err != nil {
			return nil, err
		}
		param, err := p.bindingPattern()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(RPAREN, "')'"); err != nil {
			return nil, err
		}
		body, err := p.block()
		if err != nil {
			return nil, err
		}
		st.CatchParam = param
		st.Catch = body
	}
	if p.eat(FINALLY) {
		fin, err := p.block()
		if err != nil {
			return nil, err
		}
		st.Finally = fin
	}
	if st.Catch == nil && st.Finally == nil {
		return nil, p.fail(tok, "missing catch or finally after try")
	}
	return st, nil
}

////////////////////////////////////////////////////////////////////////////////
//                                  PATTERNS
////////////////////////////////////////////////////////////////////////////////

func (p *parser) bindingPattern() (Pattern, error) {
	tok := p.cur()
	switch tok.Type {
	case IDENT:
		p.next()
		return &IdentPat{base{tok.Pos}, tok.Lexeme}, nil
	case LBRACKET:
		p.next()
		pat := &ArrayPat{base: base{tok.Pos}}
		for !p.at(RBRACKET) {
			if p.eat(COMMA) { // hole
				pat.Elems = append(pat.Elems, nil)
				pat.Defaults = append(pat.Defaults, nil)
				continue
			}
			if p.eat(ELLIPSIS) {
				rest, err := p.bindingPattern()
				if err != nil {
					return nil, err
				}
				pat.Rest = rest
				break
			}
			el, err := p.bindingPattern()
			if err != nil {
				return nil, err
			}
			var def Expr
			if p.eat(ASSIGN) {
				d, err := p.assignExpr()
				if err != nil {
					return nil, err
				}
				def = d
			}
			pat.Elems = append(pat.Elems, el)
			pat.Defaults = append(pat.Defaults, def)
			if !p.eat(COMMA) {
				break
			}
		}
		if _, err := p.expect(RBRACKET, "']'"); err != nil {
			return nil, err
		}
		return pat, nil
	case LBRACE:
		p.next()
		pat := &ObjectPat{base: base{tok.Pos}}
		for !p.at(RBRACE) {
			keyTok := p.cur()
			key, ok := p.propertyName()
			if !ok {
				return nil, p.fail(keyTok, "expected property name")
			}
			prop := &ObjectPatProp{Key: key}
			if p.eat(COLON) {
				target, err := p.bindingPattern()
				if err != nil {
					return nil, err
				}
				prop.Target = target
			} else {
				prop.Target = &IdentPat{base{keyTok.Pos}, key}
			}
			if p.eat(ASSIGN) {
				def, err := p.assignExpr()
				if err != nil {
					return nil, err
				}
				prop.Default = def
			}
			pat.Props = append(pat.Props, prop)
			if !p.eat(COMMA) {
				break
			}
		}
		if _, err := p.expect(RBRACE, "'}'"); err != nil {
			return nil, err
		}
		return pat, nil
	}
	return nil, p.fail(tok, "expected binding target, got %s", describe(tok))
}

// propertyName accepts identifiers, keywords used as names, strings and
// numbers; it returns the name and advances on success.
func (p *parser) propertyName() (string, bool) {
	tok := p.cur()
	switch {
	case tok.Type == IDENT:
		p.next()
		return tok.Lexeme, true
	case tok.Type == STRING:
		p.next()
		return tok.Str, true
	case tok.Type == NUMBER:
		p.next()
		return numberToString(tok.Num), true
	case tok.Lexeme != "" && isIdentStart([]rune(tok.Lexeme)[0]):
		// keyword used as a property name
		p.next()
		return tok.Lexeme, true
	}
	return "", false
}

////////////////////////////////////////////////////////////////////////////////
//                                 EXPRESSIONS
////////////////////////////////////////////////////////////////////////////////

func (p *parser) expression() (Expr, error) {
	x, err := p.assignExpr()
	if err != nil {
		return nil, err
	}
	if !p.at(COMMA) {
		return x, nil
	}
	seq := &SeqExpr{base: base{x.NodePos()}, Exprs: []Expr{x}}
	for p.eat(COMMA) {
		nx, err := p.assignExpr()
		if err != nil {
			return nil, err
		}
		seq.Exprs = append(seq.Exprs, nx)
	}
	return seq, nil
}

var assignOps = map[TokenType]string{
	ASSIGN: "=", PLUS_EQ: "+=", MINUS_EQ: "-=", STAR_EQ: "*=", SLASH_EQ: "/=",
	PERCENT_EQ: "%=", AND_EQ: "&=", OR_EQ: "|=", XOR_EQ: "^=",
	SHL_EQ: "<<=", SHR_EQ: ">>=", USHR_EQ: ">>>=",
}

func (p *parser) assignExpr() (Expr, error) {
	if fn, ok, err := p.tryArrowFunction(); err != nil {
		return nil, err
	} else if ok {
		return fn, nil
	}

	x, err := p.condExpr()
	if err != nil {
		return nil, err
	}
	op, isAssign := assignOps[p.cur().Type]
	if !isAssign {
		return x, nil
	}
	opTok := p.next()
	switch x.(type) {
	case *Ident, *MemberExpr, *IndexExpr:
	default:
		return nil, p.fail(opTok, "invalid assignment target")
	}
	val, err := p.assignExpr()
	if err != nil {
		return nil, err
	}
	return &AssignExpr{base{x.NodePos()}, op, x, val}, nil
}

func (p *parser) condExpr() (Expr, error) {
	cond, err := p.binaryExpr(1)
	if err != nil {
		return nil, err
	}
	if !p.eat(QUESTION) {
		return cond, nil
	}
	then, err := p.assignExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(COLON, "':' in conditional expression"); err != nil {
		return nil, err
	}
	alt, err := p.assignExpr()
	if err != nil {
		return nil, err
	}
	return &CondExpr{base{cond.NodePos()}, cond, then, alt}, nil
}

type binOp struct {
	prec       int
	name       string
	rightAssoc bool
	logical    bool
}

var binOps = map[TokenType]binOp{
	LOR:        {1, "||", false, true},
	LAND:       {2, "&&", false, true},
	BOR:        {3, "|", false, false},
	BXOR:       {4, "^", false, false},
	BAND:       {5, "&", false, false},
	EQ:         {6, "==", false, false},
	NEQ:        {6, "!=", false, false},
	SEQ:        {6, "===", false, false},
	SNEQ:       {6, "!==", false, false},
	LESS:       {7, "<", false, false},
	LESS_EQ:    {7, "<=", false, false},
	GREATER:    {7, ">", false, false},
	GREATER_EQ: {7, ">=", false, false},
	IN:         {7, "in", false, false},
	INSTANCEOF: {7, "instanceof", false, false},
	SHL:        {8, "<<", false, false},
	SHR:        {8, ">>", false, false},
	USHR:       {8, ">>>", false, false},
	PLUS:       {9, "+", false, false},
	MINUS:      {9, "-", false, false},
	STAR:       {10, "*", false, false},
	SLASH:      {10, "/", false, false},
	PERCENT:    {10, "%", false, false},
	POW:        {11, "**", true, false},
}

func (p *parser) binaryExpr(minPrec int) (Expr, error) {
	left, err := p.unaryExpr()
	if err != nil {
		return nil, err
	}
	for {
		op, ok := binOps[p.cur().Type]
		if !ok || op.prec < minPrec {
			return left, nil
		}
		if p.cur().Type == IN && p.noIn {
			return left, nil
		}
		p.next()
		nextMin := op.prec + 1
		if op.rightAssoc {
			nextMin = op.prec
		}
		right, err := p.binaryExpr(nextMin)
		if err != nil {
			return nil, err
		}
		if op.logical {
			left = &LogicalExpr{base{left.NodePos()}, op.name, left, right}
		} else {
			left = &BinaryExpr{base{left.NodePos()}, op.name, left, right}
		}
	}
}

func (p *parser) unaryExpr() (Expr, error) {
	tok := p.cur()
	switch tok.Type {
	case MINUS, PLUS, BANG, BNOT:
		p.next()
		x, err := p.unaryExpr()
		if err != nil {
			return nil, err
		}
		return &UnaryExpr{base{tok.Pos}, tok.Lexeme, x}, nil
	case TYPEOF, VOID, DELETE:
		p.next()
		x, err := p.unaryExpr()
		if err != nil {
			return nil, err
		}
		return &UnaryExpr{base{tok.Pos}, tok.Lexeme, x}, nil
	case INC, DEC:
		p.next()
		x, err := p.unaryExpr()
		if err != nil {
			return nil, err
		}
		if !isRefExpr(x) {
			return nil, p.fail(tok, "invalid %s operand", tok.Lexeme)
		}
		return &UpdateExpr{base{tok.Pos}, tok.Lexeme, true, x}, nil
	}
	return p.postfixExpr()
}

func isRefExpr(x Expr) bool {
	switch x.(type) {
	case *Ident, *MemberExpr, *IndexExpr:
		return true
	}
	return false
}

func (p *parser) postfixExpr() (Expr, error) {
	x, err := p.callMemberExpr(true)
	if err != nil {
		return nil, err
	}
	if (p.at(INC) || p.at(DEC)) && !p.cur().NlBefore {
		tok := p.next()
		if !isRefExpr(x) {
			return nil, p.fail(tok, "invalid %s operand", tok.Lexeme)
		}
		return &UpdateExpr{base{x.NodePos()}, tok.Lexeme, false, x}, nil
	}
	return x, nil
}

// callMemberExpr parses primary expressions followed by chains of member
// access, computed access, and (when allowCalls) calls.
func (p *parser) callMemberExpr(allowCalls bool) (Expr, error) {
	var x Expr
	var err error
	if p.at(NEW) {
		x, err = p.newExpr()
	} else {
		x, err = p.primary()
	}
	if err != nil {
		return nil, err
	}
	for {
		switch p.cur().Type {
		case PERIOD:
			dot := p.next()
			name, ok := p.propertyName()
			if !ok {
				return nil, p.fail(dot, "expected property name after '.'")
			}
			x = &MemberExpr{base{x.NodePos()}, x, name}
		case LBRACKET:
			p.next()
			idx, err := p.expression()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(RBRACKET, "']'"); err != nil {
				return nil, err
			}
			x = &IndexExpr{base{x.NodePos()}, x, idx}
		case LPAREN:
			if !allowCalls {
				return x, nil
			}
			args, err := p.arguments()
			if err != nil {
				return nil, err
			}
			x = &CallExpr{base{x.NodePos()}, x, args}
		case TEMPLATE_NOSUB, TEMPLATE_HEAD:
			return nil, p.fail(p.cur(), "tagged template literals are not supported")
		default:
			return x, nil
		}
	}
}

func (p *parser) newExpr() (Expr, error) {
	tok := p.next() // 'new'
	callee, err := p.callMemberExpr(false)
	if err != nil {
		return nil, err
	}
	var args []Expr
	if p.at(LPAREN) {
		args, err = p.arguments()
		if err != nil {
			return nil, err
		}
	}
	return &NewExpr{base{tok.Pos}, callee, args}, nil
}

func (p *parser) arguments() ([]Expr, error) {
	if _, err := p.expect(LPAREN, "'('"); err != nil {
		return nil, err
	}
	args := []Expr{}
	for !p.at(RPAREN) {
		if p.at(ELLIPSIS) {
			tok := p.next()
			x, err := p.assignExpr()
			if err != nil {
				return nil, err
			}
			args = append(args, &SpreadExpr{base{tok.Pos}, x})
		} else {
			x, err := p.assignExpr()
			if err != nil {
				return nil, err
			}
			args = append(args, x)
		}
		if !p.eat(COMMA) {
			break
		}
	}
	if _, err := p.expect(RPAREN, "')'"); err != nil {
		return nil, err
	}
	return args, nil
}

////////////////////////////////////////////////////////////////////////////////
//                             ARROWS AND FUNCTIONS
////////////////////////////////////////////////////////////////////////////////

// tryArrowFunction speculatively parses `ident => ...` or `(params) => ...`.
// On mismatch the parser position is restored and ok is false.
func (p *parser) tryArrowFunction() (Expr, bool, error) {
	tok := p.cur()

	// Single-identifier arrow: `x => body`.
	if tok.Type == IDENT && p.peek().Type == ARROW && !p.peek().NlBefore {
		p.next()
		p.next()
		param := &Param{Target: &IdentPat{base{tok.Pos}, tok.Lexeme}}
		fn, err := p.arrowBody(tok.Pos, []*Param{param})
		return fn, true, err
	}

	if tok.Type != LPAREN {
		return nil, false, nil
	}

	// Parenthesized parameter list: backtrack on failure.
	save := p.i
	p.next()
	params, perr := p.paramList(RPAREN)
	if perr != nil || !p.at(ARROW) || p.cur().NlBefore {
		p.i = save
		return nil, false, nil
	}
	p.next() // '=>'
	fn, err := p.arrowBody(tok.Pos, params)
	return fn, true, err
}

func (p *parser) arrowBody(pos Pos, params []*Param) (Expr, error) {
	fn := &FuncLit{base: base{pos}, Params: params, Arrow: true}
	if p.at(LBRACE) {
		body, err := p.block()
		if err != nil {
			return nil, err
		}
		fn.Body = body
		return fn, nil
	}
	x, err := p.assignExpr()
	if err != nil {
		return nil, err
	}
	fn.ExprBody = x
	return fn, nil
}

// paramList parses parameters up to (and including) the closing token.
func (p *parser) paramList(close TokenType) ([]*Param, error) {
	params := []*Param{}
	for !p.at(close) {
		if p.at(ELLIPSIS) {
			tok := p.next()
			target, err := p.bindingPattern()
			if err != nil {
				return nil, err
			}
			if _, ok := target.(*IdentPat); !ok {
				return nil, p.fail(tok, "rest parameter must be an identifier")
			}
			params = append(params, &Param{Target: target, Rest: true})
			break
		}
		target, err := p.bindingPattern()
		if err != nil {
			return nil, err
		}
		prm := &Param{Target: target}
		if p.eat(ASSIGN) {
			def, err := p.assignExpr()
			if err != nil {
				return nil, err
			}
			prm.Default = def
		}
		params = append(params, prm)
		if !p.eat(COMMA) {
			break
		}
	}
	if _, err := p.expect(close, "')'"); err != nil {
		return nil, err
	}
	return params, nil
}

// functionLit parses `function [name](params) { body }`.
func (p *parser) functionLit(requireName bool) (*FuncLit, error) {
	tok, err := p.expect(FUNCTION, "'function'")
	if err != nil {
		return nil, err
	}
	fn := &FuncLit{base: base{tok.Pos}}
	if p.at(IDENT) {
		fn.Name = p.next().Lexeme
	} else if requireName {
		return nil, p.fail(p.cur(), "expected function name")
	}
	if _, err := p.expect(LPAREN, "'('"); err != nil {
		return nil, err
	}
	params, err := p.paramList(RPAREN)
	if err != nil {
		return nil, err
	}
	fn.Params = params
	body, err := p.block()
	if err != nil {
		return nil, err
	}
	fn.Body = body
	return fn, nil
}

////////////////////////////////////////////////////////////////////////////////
//                                   PRIMARY
////////////////////////////////////////////////////////////////////////////////

func (p *parser) primary() (Expr, error) {
	tok := p.cur()
	switch tok.Type {
	case IDENT:
		p.next()
		return &Ident{base{tok.Pos}, tok.Lexeme}, nil
	case NUMBER:
		p.next()
		return &NumberLit{base{tok.Pos}, tok.Num, tok.Lexeme}, nil
	case STRING:
		p.next()
		return &StringLit{base{tok.Pos}, tok.Str}, nil
	case TRUE:
		p.next()
		return &BoolLit{base{tok.Pos}, true}, nil
	case FALSE:
		p.next()
		return &BoolLit{base{tok.Pos}, false}, nil
	case NULL:
		p.next()
		return &NullLit{base{tok.Pos}}, nil
	case UNDEFINED:
		p.next()
		return &UndefinedLit{base{tok.Pos}}, nil
	case THIS:
		p.next()
		return &ThisExpr{base{tok.Pos}}, nil
	case FUNCTION:
		return p.functionLit(false)
	case TEMPLATE_NOSUB:
		p.next()
		return &TemplateLit{base: base{tok.Pos}, Quasis: []string{tok.Str}}, nil
	case TEMPLATE_HEAD:
		return p.templateLit()
	case LPAREN:
		p.next()
		savedNoIn := p.noIn
		p.noIn = false
		x, err := p.expression()
		p.noIn = savedNoIn
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(RPAREN, "')'"); err != nil {
			return nil, err
		}
		return x, nil
	case LBRACKET:
		return p.arrayLit()
	case LBRACE:
		return p.objectLit()
	}
	return nil, p.fail(tok, "unexpected token %s", describe(tok))
}

func (p *parser) templateLit() (Expr, error) {
	head := p.next()
	lit := &TemplateLit{base: base{head.Pos}, Quasis: []string{head.Str}}
	for {
		savedNoIn := p.noIn
		p.noIn = false
		x, err := p.expression()
		p.noIn = savedNoIn
		if err != nil {
			return nil, err
		}
		lit.Exprs = append(lit.Exprs, x)
		switch p.cur().Type {
		case TEMPLATE_MIDDLE:
			lit.Quasis = append(lit.Quasis, p.next().Str)
		case TEMPLATE_TAIL:
			lit.Quasis = append(lit.Quasis, p.next().Str)
			return lit, nil
		default:
			return nil, p.fail(p.cur(), "malformed template literal")
		}
	}
}

func (p *parser) arrayLit() (Expr, error) {
	tok := p.next()
	lit := &ArrayLit{base: base{tok.Pos}}
	for !p.at(RBRACKET) {
		if p.at(COMMA) { // hole
			p.next()
			lit.Elems = append(lit.Elems, nil)
			continue
		}
		var el Expr
		var err error
		if p.at(ELLIPSIS) {
			sp := p.next()
			x, xerr := p.assignExpr()
			if xerr != nil {
				return nil, xerr
			}
			el = &SpreadExpr{base{sp.Pos}, x}
		} else {
			el, err = p.assignExpr()
			if err != nil {
				return nil, err
			}
		}
		lit.Elems = append(lit.Elems, el)
		if !p.eat(COMMA) {
			break
		}
	}
	if _, err := p.expect(RBRACKET, "']'"); err != nil {
		return nil, err
	}
	return lit, nil
}

func (p *parser) objectLit() (Expr, error) {
	tok := p.next()
	lit := &ObjectLit{base: base{tok.Pos}}
	for !p.at(RBRACE) {
		prop := &PropDef{}
		keyTok := p.cur()
		if p.at(LBRACKET) {
			// computed key
			p.next()
			k, err := p.assignExpr()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(RBRACKET, "']'"); err != nil {
				return nil, err
			}
			prop.Computed = k
			if _, err := p.expect(COLON, "':'"); err != nil {
				return nil, err
			}
			v, err := p.assignExpr()
			if err != nil {
				return nil, err
			}
			prop.Value = v
		} else {
			key, ok := p.propertyName()
			if !ok {
				return nil, p.fail(keyTok, "expected property name, got %s", describe(keyTok))
			}
			prop.Key = key
			switch {
			case p.eat(COLON):
				v, err := p.assignExpr()
				if err != nil {
					return nil, err
				}
				prop.Value = v
			case p.at(LPAREN):
				// method shorthand
				params, err := func() ([]*Param, error) {
					p.next()
					return p.paramList(RPAREN)
				}()
				if err != nil {
					return nil, err
				}
				body, err := p.block()
				if err != nil {
					return nil, err
				}
				prop.Value = &FuncLit{base: base{keyTok.Pos}, Name: key, Params: params, Body: body}
			case keyTok.Type == IDENT:
				// shorthand {x}
				prop.Value = &Ident{base{keyTok.Pos}, key}
			default:
				return nil, p.fail(keyTok, "expected ':' after property name")
			}
		}
		lit.Props = append(lit.Props, prop)
		if !p.eat(COMMA) {
			break
		}
	}
	if _, err := p.expect(RBRACE, "'}'"); err != nil {
		return nil, err
	}
	return lit, nil
}
