// ast.go — immutable typed AST.
//
// Nodes are built once by the parser and never mutated afterwards, so a
// *Program can be shared by any number of concurrent executions without
// locking. Every node records the 1-based position of its first token.
package jssandbox

// Node is the common interface of all AST nodes.
type Node interface {
	NodePos() Pos
}

// Stmt is implemented by statement nodes.
type Stmt interface {
	Node
	stmtNode()
}

// Expr is implemented by expression nodes.
type Expr interface {
	Node
	exprNode()
}

// Pattern is a binding target: an identifier or an array/object
// destructuring pattern.
type Pattern interface {
	Node
	patternNode()
}

type base struct{ P Pos }

func (b base) NodePos() Pos { return b.P }

////////////////////////////////////////////////////////////////////////////////
//                                 STATEMENTS
////////////////////////////////////////////////////////////////////////////////

// Program is the root node of a parsed script.
type Program struct {
	base
	Body []Stmt
}

type BlockStmt struct {
	base
	Body []Stmt
}

type EmptyStmt struct{ base }

// DeclKind distinguishes var/let/const declarations.
type DeclKind uint8

const (
	DeclVar DeclKind = iota
	DeclLet
	DeclConst
)

func (k DeclKind) String() string {
	switch k {
	case DeclLet:
		return "let"
	case DeclConst:
		return "const"
	default:
		return "var"
	}
}

// Declarator is one `target = init` unit of a declaration statement.
type Declarator struct {
	Target Pattern
	Init   Expr // nil when absent
}

type VarDecl struct {
	base
	Kind  DeclKind
	Decls []*Declarator
}

// FuncDecl is a hoisted `function name(...) {...}` declaration.
type FuncDecl struct {
	base
	Name string
	Fn   *FuncLit
}

type ExprStmt struct {
	base
	X Expr
}

type IfStmt struct {
	base
	Cond Expr
	Then Stmt
	Else Stmt // nil when absent
}

type ForStmt struct {
	base
	Init Stmt // *VarDecl, *ExprStmt or nil
	Cond Expr // nil = always true
	Post Expr // nil when absent
	Body Stmt
}

// ForInStmt covers both for-in (keys) and for-of (values), per Of.
type ForInStmt struct {
	base
	Of     bool
	Decl   DeclKind // binding kind; DeclVar also covers plain `for (x in y)`
	Plain  bool     // true when the target is a pre-existing binding, not a declaration
	Target Pattern
	Object Expr
	Body   Stmt
}

type WhileStmt struct {
	base
	Cond Expr
	Body Stmt
}

type DoWhileStmt struct {
	base
	Body Stmt
	Cond Expr
}

type BreakStmt struct {
	base
	Label string // "" when unlabeled
}

type ContinueStmt struct {
	base
	Label string
}

type ReturnStmt struct {
	base
	Value Expr // nil = undefined
}

type SwitchCase struct {
	Test Expr // nil for default
	Body []Stmt
}

type SwitchStmt struct {
	base
	Disc  Expr
	Cases []*SwitchCase
}

type ThrowStmt struct {
	base
	Value Expr
}

type TryStmt struct {
	base
	Block      *BlockStmt
	CatchParam Pattern    // nil when no catch clause
	Catch      *BlockStmt // nil when no catch clause
	Finally    *BlockStmt // nil when no finally clause
}

// LabeledStmt may label only loops and switch statements.
type LabeledStmt struct {
	base
	Label string
	Body  Stmt
}

func (*Program) stmtNode()      {}
func (*BlockStmt) stmtNode()    {}
func (*EmptyStmt) stmtNode()    {}
func (*VarDecl) stmtNode()      {}
func (*FuncDecl) stmtNode()     {}
func (*ExprStmt) stmtNode()     {}
func (*IfStmt) stmtNode()       {}
func (*ForStmt) stmtNode()      {}
func (*ForInStmt) stmtNode()    {}
func (*WhileStmt) stmtNode()    {}
func (*DoWhileStmt) stmtNode()  {}
func (*BreakStmt) stmtNode()    {}
func (*ContinueStmt) stmtNode() {}
func (*ReturnStmt) stmtNode()   {}
func (*SwitchStmt) stmtNode()   {}
func (*ThrowStmt) stmtNode()    {}
func (*TryStmt) stmtNode()      {}
func (*LabeledStmt) stmtNode()  {}

////////////////////////////////////////////////////////////////////////////////
//                                 EXPRESSIONS
////////////////////////////////////////////////////////////////////////////////

type Ident struct {
	base
	Name string
}

type NumberLit struct {
	base
	Value float64
	Raw   string
}

type StringLit struct {
	base
	Value string
}

type BoolLit struct {
	base
	Value bool
}

type NullLit struct{ base }

type UndefinedLit struct{ base }

type ThisExpr struct{ base }

// TemplateLit holds n+1 string chunks interleaved with n substitutions.
type TemplateLit struct {
	base
	Quasis []string
	Exprs  []Expr
}

type ArrayLit struct {
	base
	Elems []Expr // may contain *SpreadExpr; nil entries are holes
}

// PropDef is one `key: value` entry of an object literal. Computed keys
// (`[expr]: v`), shorthand (`{x}`) and methods (`{m() {}}`) are supported.
type PropDef struct {
	Key      string
	Computed Expr // non-nil for `[expr]: value`
	Value    Expr
}

type ObjectLit struct {
	base
	Props []*PropDef
}

// Param is one formal parameter: a binding pattern with an optional default
// and an optional rest marker (rest must be last, identifier-only).
type Param struct {
	Target  Pattern
	Default Expr
	Rest    bool
}

// FuncLit is a function or arrow-function expression. Arrow functions with
// an expression body store it in ExprBody (Body is nil).
type FuncLit struct {
	base
	Name     string
	Params   []*Param
	Body     *BlockStmt
	ExprBody Expr
	Arrow    bool
}

type UnaryExpr struct {
	base
	Op string // "-" "+" "!" "~" "typeof" "void" "delete"
	X  Expr
}

type UpdateExpr struct {
	base
	Op     string // "++" or "--"
	Prefix bool
	X      Expr
}

type BinaryExpr struct {
	base
	Op string
	L  Expr
	R  Expr
}

type LogicalExpr struct {
	base
	Op string // "&&" or "||"
	L  Expr
	R  Expr
}

type CondExpr struct {
	base
	Cond Expr
	Then Expr
	Else Expr
}

type AssignExpr struct {
	base
	Op     string // "=", "+=", "-=", ...
	Target Expr   // Ident, MemberExpr, IndexExpr, or a destructuring pattern for "="
	Value  Expr
}

type SeqExpr struct {
	base
	Exprs []Expr
}

type MemberExpr struct {
	base
	Obj  Expr
	Prop string
}

type IndexExpr struct {
	base
	Obj   Expr
	Index Expr
}

type CallExpr struct {
	base
	Callee Expr
	Args   []Expr // may contain *SpreadExpr
}

type NewExpr struct {
	base
	Callee Expr
	Args   []Expr
}

type SpreadExpr struct {
	base
	X Expr
}

func (*Ident) exprNode()        {}
func (*NumberLit) exprNode()    {}
func (*StringLit) exprNode()    {}
func (*BoolLit) exprNode()      {}
func (*NullLit) exprNode()      {}
func (*UndefinedLit) exprNode() {}
func (*ThisExpr) exprNode()     {}
func (*TemplateLit) exprNode()  {}
func (*ArrayLit) exprNode()     {}
func (*ObjectLit) exprNode()    {}
func (*FuncLit) exprNode()      {}
func (*UnaryExpr) exprNode()    {}
func (*UpdateExpr) exprNode()   {}
func (*BinaryExpr) exprNode()   {}
func (*LogicalExpr) exprNode()  {}
func (*CondExpr) exprNode()     {}
func (*AssignExpr) exprNode()   {}
func (*SeqExpr) exprNode()      {}
func (*MemberExpr) exprNode()   {}
func (*IndexExpr) exprNode()    {}
func (*CallExpr) exprNode()     {}
func (*NewExpr) exprNode()      {}
func (*SpreadExpr) exprNode()   {}

////////////////////////////////////////////////////////////////////////////////
//                                  PATTERNS
////////////////////////////////////////////////////////////////////////////////

type IdentPat struct {
	base
	Name string
}

// ArrayPat destructures `[a, b = 1, ...rest]`.
type ArrayPat struct {
	base
	Elems    []Pattern // nil entries are holes
	Defaults []Expr    // parallel to Elems; nil when absent
	Rest     Pattern   // nil when absent
}

// ObjectPatProp is one `key: target = default` entry.
type ObjectPatProp struct {
	Key     string
	Target  Pattern
	Default Expr
}

type ObjectPat struct {
	base
	Props []*ObjectPatProp
}

func (*IdentPat) patternNode()  {}
func (*ArrayPat) patternNode()  {}
func (*ObjectPat) patternNode() {}
