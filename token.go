package jssandbox

// TokenType represents the kind of token.
type TokenType int

const (
	// Special
	EOF TokenType = iota
	ILLEGAL

	// Punctuation
	LPAREN   // "("
	RPAREN   // ")"
	LBRACKET // "["
	RBRACKET // "]"
	LBRACE   // "{"
	RBRACE   // "}"
	COLON    // ":"
	SEMI     // ";"
	COMMA    // ","
	PERIOD   // "."
	QUESTION // "?"
	ARROW    // "=>"
	ELLIPSIS // "..."

	// Operators
	PLUS       // "+"
	MINUS      // "-"
	STAR       // "*"
	POW        // "**"
	SLASH      // "/"
	PERCENT    // "%"
	ASSIGN     // "="
	PLUS_EQ    // "+="
	MINUS_EQ   // "-="
	STAR_EQ    // "*="
	SLASH_EQ   // "/="
	PERCENT_EQ // "%="
	AND_EQ     // "&="
	OR_EQ      // "|="
	XOR_EQ     // "^="
	SHL_EQ     // "<<="
	SHR_EQ     // ">>="
	USHR_EQ    // ">>>="
	INC        // "++"
	DEC        // "--"
	EQ         // "=="
	NEQ        // "!="
	SEQ        // "==="
	SNEQ       // "!=="
	LESS       // "<"
	LESS_EQ    // "<="
	GREATER    // ">"
	GREATER_EQ // ">="
	SHL        // "<<"
	SHR        // ">>"
	USHR       // ">>>"
	LAND       // "&&"
	LOR        // "||"
	BAND       // "&"
	BOR        // "|"
	BXOR       // "^"
	BNOT       // "~"
	BANG       // "!"

	// Literals & identifiers
	IDENT
	STRING
	NUMBER
	TEMPLATE_NOSUB  // `text`
	TEMPLATE_HEAD   // `text${
	TEMPLATE_MIDDLE // }text${
	TEMPLATE_TAIL   // }text`

	// Keywords
	VAR
	LET
	CONST
	IF
	ELSE
	FOR
	WHILE
	DO
	RETURN
	FUNCTION
	TRUE
	FALSE
	NULL
	UNDEFINED
	NEW
	TYPEOF
	DELETE
	VOID
	IN
	INSTANCEOF
	THIS
	BREAK
	CONTINUE
	SWITCH
	CASE
	DEFAULT
	THROW
	TRY
	CATCH
	FINALLY
)

// Token is a lexical token with optional decoded literal value.
type Token struct {
	Type   TokenType
	Lexeme string  // raw text slice
	Str    string  // decoded value for STRING and TEMPLATE_* chunks
	Num    float64 // parsed value for NUMBER
	Pos    Pos
	// NlBefore is true when at least one line terminator separates this
	// token from the previous one. Drives semicolon insertion and the
	// restricted productions (return, ++, --).
	NlBefore bool
}

var keywords = map[string]TokenType{
	"var":        VAR,
	"let":        LET,
	"const":      CONST,
	"if":         IF,
	"else":       ELSE,
	"for":        FOR,
	"while":      WHILE,
	"do":         DO,
	"return":     RETURN,
	"function":   FUNCTION,
	"true":       TRUE,
	"false":      FALSE,
	"null":       NULL,
	"undefined":  UNDEFINED,
	"new":        NEW,
	"typeof":     TYPEOF,
	"delete":     DELETE,
	"void":       VOID,
	"in":         IN,
	"instanceof": INSTANCEOF,
	"this":       THIS,
	"break":      BREAK,
	"continue":   CONTINUE,
	"switch":     SWITCH,
	"case":       CASE,
	"default":    DEFAULT,
	"throw":      THROW,
	"try":        TRY,
	"catch":      CATCH,
	"finally":    FINALLY,
}

// Constructs that are recognized by the lexer but deliberately rejected so
// they fail early with a clear message instead of a generic parse error.
var reservedWords = map[string]string{
	"async":    "async functions are not supported",
	"await":    "async functions are not supported",
	"yield":    "generators are not supported",
	"class":    "classes are not supported",
	"extends":  "classes are not supported",
	"super":    "classes are not supported",
	"import":   "modules are not supported",
	"export":   "modules are not supported",
	"with":     "'with' is not supported",
	"eval":     "'eval' is not supported",
	"debugger": "'debugger' is not supported",
}

func (t Token) String() string { return t.Lexeme }
