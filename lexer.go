// lexer.go — hand-written ES6 lexer.
//
// The lexer scans the whole source up front and returns a flat token slice.
// It is newline-aware: every token records whether a line terminator
// preceded it, which the parser uses for automatic semicolon insertion and
// the restricted productions (return / ++ / --).
//
// Two deliberate deviations from full ES6:
//   - Regex literals are rejected outright. A '/' in expression position is
//     a lex error, so catastrophic-backtracking DoS surface never exists.
//   - A small set of reserved words (async, yield, class, import, with,
//     eval, ...) fail at the lex level with a targeted message.
//
// Template literals are scanned with a mode stack so that `${}` substitutions
// containing nested braces (and nested templates) tokenize correctly. The
// lexer emits TEMPLATE_NOSUB for `text`, or a HEAD / MIDDLE* / TAIL sequence
// with the substitution expressions tokenized in between.
package jssandbox

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Lexer scans a UTF-8 source string into tokens.
type Lexer struct {
	src  string
	pos  int // byte offset of next rune
	line int
	col  int // 1-based, code points

	toks      []Token
	nlPending bool

	// Stack of open template literals; each entry is the brace depth at
	// which the template's next "${" substitution closes.
	tmplStack []int
	braces    int
}

// NewLexer returns a lexer over src.
func NewLexer(src string) *Lexer {
	return &Lexer{src: src, line: 1, col: 1}
}

// Scan tokenizes the entire source. On failure it returns a *SyntaxError
// pointing at the offending position.
func (lx *Lexer) Scan() ([]Token, error) {
	for {
		tok, err := lx.next()
		if err != nil {
			return nil, err
		}
		lx.toks = append(lx.toks, tok)
		if tok.Type == EOF {
			return lx.toks, nil
		}
	}
}

////////////////////////////////////////////////////////////////////////////////
//                                  PRIVATE
////////////////////////////////////////////////////////////////////////////////

func (lx *Lexer) errAt(p Pos, msg string) error {
	return &SyntaxError{Pos: p, Message: msg}
}

func (lx *Lexer) peek() rune {
	if lx.pos >= len(lx.src) {
		return -1
	}
	r, _ := utf8.DecodeRuneInString(lx.src[lx.pos:])
	return r
}

func (lx *Lexer) peek2() rune {
	if lx.pos >= len(lx.src) {
		return -1
	}
	_, w := utf8.DecodeRuneInString(lx.src[lx.pos:])
	if lx.pos+w >= len(lx.src) {
		return -1
	}
	r, _ := utf8.DecodeRuneInString(lx.src[lx.pos+w:])
	return r
}

func (lx *Lexer) advance() rune {
	r, w := utf8.DecodeRuneInString(lx.src[lx.pos:])
	lx.pos += w
	if r == '\n' {
		lx.line++
		lx.col = 1
	} else {
		lx.col++
	}
	return r
}

func (lx *Lexer) match(r rune) bool {
	if lx.peek() == r {
		lx.advance()
		return true
	}
	return false
}

func (lx *Lexer) here() Pos { return Pos{Line: lx.line, Col: lx.col} }

func (lx *Lexer) mk(t TokenType, pos Pos, lexeme string) Token {
	tok := Token{Type: t, Lexeme: lexeme, Pos: pos, NlBefore: lx.nlPending}
	lx.nlPending = false
	return tok
}

// skipBlanks consumes whitespace and comments, recording line terminators.
func (lx *Lexer) skipBlanks() error {
	for {
		switch r := lx.peek(); r {
		case ' ', '\t', '\r', '\v', '\f':
			lx.advance()
		case '\n':
			lx.nlPending = true
			lx.advance()
		case '/':
			if lx.peek2() == '/' {
				for lx.peek() != -1 && lx.peek() != '\n' {
					lx.advance()
				}
			} else if lx.peek2() == '*' {
				start := lx.here()
				lx.advance()
				lx.advance()
				closed := false
				for lx.peek() != -1 {
					if lx.peek() == '\n' {
						lx.nlPending = true
					}
					if lx.advance() == '*' && lx.peek() == '/' {
						lx.advance()
						closed = true
						break
					}
				}
				if !closed {
					return lx.errAt(start, "unterminated comment")
				}
			} else {
				return nil
			}
		default:
			if r != -1 && (r == '\u00a0' || r == '\ufeff' || unicode.IsSpace(r)) {
				if r == '\u2028' || r == '\u2029' {
					lx.nlPending = true
				}
				lx.advance()
				continue
			}
			return nil
		}
	}
}

// exprExpected reports whether a '/' at the current position would begin a
// regex literal under ES6 rules (i.e. the previous token cannot end an
// operand). Used only to produce the "regex not supported" diagnostic.
func (lx *Lexer) exprExpected() bool {
	for i := len(lx.toks) - 1; i >= 0; i-- {
		switch lx.toks[i].Type {
		case IDENT, NUMBER, STRING, TEMPLATE_NOSUB, TEMPLATE_TAIL,
			RPAREN, RBRACKET, RBRACE, THIS, TRUE, FALSE, NULL, UNDEFINED, INC, DEC:
			return false
		default:
			return true
		}
	}
	return true
}

func (lx *Lexer) next() (Token, error) {
	if err := lx.skipBlanks(); err != nil {
		return Token{}, err
	}
	pos := lx.here()
	r := lx.peek()
	if r == -1 {
		return lx.mk(EOF, pos, ""), nil
	}

	switch {
	case isIdentStart(r):
		return lx.scanIdent(pos)
	case r >= '0' && r <= '9':
		return lx.scanNumber(pos)
	case r == '.' && lx.peek2() >= '0' && lx.peek2() <= '9':
		return lx.scanNumber(pos)
	case r == '"' || r == '\'':
		return lx.scanString(pos)
	case r == '`':
		lx.advance()
		return lx.scanTemplateChunk(pos, true)
	}

	lx.advance()
	switch r {
	case '(':
		return lx.mk(LPAREN, pos, "("), nil
	case ')':
		return lx.mk(RPAREN, pos, ")"), nil
	case '[':
		return lx.mk(LBRACKET, pos, "["), nil
	case ']':
		return lx.mk(RBRACKET, pos, "]"), nil
	case '{':
		lx.braces++
		return lx.mk(LBRACE, pos, "{"), nil
	case '}':
		if n := len(lx.tmplStack); n > 0 && lx.tmplStack[n-1] == lx.braces {
			// Closing a "${" substitution: resume the template literal.
			lx.tmplStack = lx.tmplStack[:n-1]
			return lx.scanTemplateChunk(pos, false)
		}
		lx.braces--
		return lx.mk(RBRACE, pos, "}"), nil
	case ':':
		return lx.mk(COLON, pos, ":"), nil
	case ';':
		return lx.mk(SEMI, pos, ";"), nil
	case ',':
		return lx.mk(COMMA, pos, ","), nil
	case '?':
		return lx.mk(QUESTION, pos, "?"), nil
	case '~':
		return lx.mk(BNOT, pos, "~"), nil
	case '.':
		if lx.peek() == '.' && lx.peek2() == '.' {
			lx.advance()
			lx.advance()
			return lx.mk(ELLIPSIS, pos, "..."), nil
		}
		return lx.mk(PERIOD, pos, "."), nil
	case '+':
		if lx.match('+') {
			return lx.mk(INC, pos, "++"), nil
		}
		if lx.match('=') {
			return lx.mk(PLUS_EQ, pos, "+="), nil
		}
		return lx.mk(PLUS, pos, "+"), nil
	case '-':
		if lx.match('-') {
			return lx.mk(DEC, pos, "--"), nil
		}
		if lx.match('=') {
			return lx.mk(MINUS_EQ, pos, "-="), nil
		}
		return lx.mk(MINUS, pos, "-"), nil
	case '*':
		if lx.peek() == '*' && lx.peek2() == '=' {
			return Token{}, lx.errAt(pos, "'**=' is not supported")
		}
		if lx.match('*') {
			return lx.mk(POW, pos, "**"), nil
		}
		if lx.match('=') {
			return lx.mk(STAR_EQ, pos, "*="), nil
		}
		return lx.mk(STAR, pos, "*"), nil
	case '/':
		if lx.exprExpected() {
			return Token{}, lx.errAt(pos, "regular expressions are not supported")
		}
		if lx.match('=') {
			return lx.mk(SLASH_EQ, pos, "/="), nil
		}
		return lx.mk(SLASH, pos, "/"), nil
	case '%':
		if lx.match('=') {
			return lx.mk(PERCENT_EQ, pos, "%="), nil
		}
		return lx.mk(PERCENT, pos, "%"), nil
	case '=':
		if lx.match('=') {
			if lx.match('=') {
				return lx.mk(SEQ, pos, "==="), nil
			}
			return lx.mk(EQ, pos, "=="), nil
		}
		if lx.match('>') {
			return lx.mk(ARROW, pos, "=>"), nil
		}
		return lx.mk(ASSIGN, pos, "="), nil
	case '!':
		if lx.match('=') {
			if lx.match('=') {
				return lx.mk(SNEQ, pos, "!=="), nil
			}
			return lx.mk(NEQ, pos, "!="), nil
		}
		return lx.mk(BANG, pos, "!"), nil
	case '<':
		if lx.match('<') {
			if lx.match('=') {
				return lx.mk(SHL_EQ, pos, "<<="), nil
			}
			return lx.mk(SHL, pos, "<<"), nil
		}
		if lx.match('=') {
			return lx.mk(LESS_EQ, pos, "<="), nil
		}
		return lx.mk(LESS, pos, "<"), nil
	case '>':
		if lx.peek() == '>' {
			lx.advance()
			if lx.match('>') {
				if lx.match('=') {
					return lx.mk(USHR_EQ, pos, ">>>="), nil
				}
				return lx.mk(USHR, pos, ">>>"), nil
			}
			if lx.match('=') {
				return lx.mk(SHR_EQ, pos, ">>="), nil
			}
			return lx.mk(SHR, pos, ">>"), nil
		}
		if lx.match('=') {
			return lx.mk(GREATER_EQ, pos, ">="), nil
		}
		return lx.mk(GREATER, pos, ">"), nil
	case '&':
		if lx.match('&') {
			return lx.mk(LAND, pos, "&&"), nil
		}
		if lx.match('=') {
			return lx.mk(AND_EQ, pos, "&="), nil
		}
		return lx.mk(BAND, pos, "&"), nil
	case '|':
		if lx.match('|') {
			return lx.mk(LOR, pos, "||"), nil
		}
		if lx.match('=') {
			return lx.mk(OR_EQ, pos, "|="), nil
		}
		return lx.mk(BOR, pos, "|"), nil
	case '^':
		if lx.match('=') {
			return lx.mk(XOR_EQ, pos, "^="), nil
		}
		return lx.mk(BXOR, pos, "^"), nil
	}
	return Token{}, lx.errAt(pos, "unexpected character "+strconv.QuoteRune(r))
}

func isIdentStart(r rune) bool {
	return r == '_' || r == '$' || unicode.IsLetter(r)
}

func isIdentPart(r rune) bool {
	return r == '_' || r == '$' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

func (lx *Lexer) scanIdent(pos Pos) (Token, error) {
	start := lx.pos
	for lx.pos < len(lx.src) && isIdentPart(lx.peek()) {
		lx.advance()
	}
	word := lx.src[start:lx.pos]
	if msg, bad := reservedWords[word]; bad {
		return Token{}, lx.errAt(pos, msg)
	}
	if kw, ok := keywords[word]; ok {
		return lx.mk(kw, pos, word), nil
	}
	return lx.mk(IDENT, pos, word), nil
}

func (lx *Lexer) scanNumber(pos Pos) (Token, error) {
	start := lx.pos
	if lx.peek() == '0' && (lx.peek2() == 'x' || lx.peek2() == 'X' ||
		lx.peek2() == 'b' || lx.peek2() == 'B' ||
		lx.peek2() == 'o' || lx.peek2() == 'O') {
		lx.advance()
		base := 16
		switch lx.advance() {
		case 'b', 'B':
			base = 2
		case 'o', 'O':
			base = 8
		}
		digStart := lx.pos
		for isBaseDigit(lx.peek(), base) {
			lx.advance()
		}
		if lx.pos == digStart || isIdentPart(lx.peek()) {
			return Token{}, lx.errAt(pos, "invalid numeric literal")
		}
		n, err := strconv.ParseUint(lx.src[digStart:lx.pos], base, 64)
		if err != nil {
			return Token{}, lx.errAt(pos, "invalid numeric literal")
		}
		tok := lx.mk(NUMBER, pos, lx.src[start:lx.pos])
		tok.Num = float64(n)
		return tok, nil
	}

	for lx.peek() >= '0' && lx.peek() <= '9' {
		lx.advance()
	}
	if lx.peek() == '.' {
		lx.advance()
		for lx.peek() >= '0' && lx.peek() <= '9' {
			lx.advance()
		}
	}
	if lx.peek() == 'e' || lx.peek() == 'E' {
		lx.advance()
		if lx.peek() == '+' || lx.peek() == '-' {
			lx.advance()
		}
		expStart := lx.pos
		for lx.peek() >= '0' && lx.peek() <= '9' {
			lx.advance()
		}
		if lx.pos == expStart {
			return Token{}, lx.errAt(pos, "invalid numeric literal")
		}
	}
	if isIdentPart(lx.peek()) {
		return Token{}, lx.errAt(pos, "invalid numeric literal")
	}
	text := lx.src[start:lx.pos]
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return Token{}, lx.errAt(pos, "invalid numeric literal")
	}
	tok := lx.mk(NUMBER, pos, text)
	tok.Num = f
	return tok, nil
}

func isBaseDigit(r rune, base int) bool {
	switch base {
	case 2:
		return r == '0' || r == '1'
	case 8:
		return r >= '0' && r <= '7'
	default:
		return (r >= '0' && r <= '9') || (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F')
	}
}

func (lx *Lexer) scanString(pos Pos) (Token, error) {
	quote := lx.advance()
	var b strings.Builder
	for {
		r := lx.peek()
		if r == -1 || r == '\n' {
			return Token{}, lx.errAt(pos, "unterminated string literal")
		}
		lx.advance()
		if r == quote {
			break
		}
		if r != '\\' {
			b.WriteRune(r)
			continue
		}
		if err := lx.scanEscape(&b, pos); err != nil {
			return Token{}, err
		}
	}
	tok := lx.mk(STRING, pos, "")
	tok.Str = b.String()
	return tok, nil
}

func (lx *Lexer) scanEscape(b *strings.Builder, pos Pos) error {
	r := lx.peek()
	if r == -1 {
		return lx.errAt(pos, "unterminated string literal")
	}
	lx.advance()
	switch r {
	case 'n':
		b.WriteByte('\n')
	case 't':
		b.WriteByte('\t')
	case 'r':
		b.WriteByte('\r')
	case 'b':
		b.WriteByte('\b')
	case 'f':
		b.WriteByte('\f')
	case 'v':
		b.WriteByte('\v')
	case '0':
		b.WriteByte(0)
	case '\n':
		// line continuation
	case 'x':
		code, err := lx.scanHex(2, pos)
		if err != nil {
			return err
		}
		b.WriteRune(rune(code))
	case 'u':
		if lx.peek() == '{' {
			lx.advance()
			start := lx.pos
			for lx.peek() != '}' && lx.peek() != -1 {
				lx.advance()
			}
			n, err := strconv.ParseUint(lx.src[start:lx.pos], 16, 32)
			if err != nil || n > 0x10ffff || !lx.match('}') {
				return lx.errAt(pos, "invalid unicode escape")
			}
			b.WriteRune(rune(n))
		} else {
			code, err := lx.scanHex(4, pos)
			if err != nil {
				return err
			}
			b.WriteRune(rune(code))
		}
	default:
		b.WriteRune(r)
	}
	return nil
}

func (lx *Lexer) scanHex(n int, pos Pos) (uint64, error) {
	start := lx.pos
	for i := 0; i < n; i++ {
		if !isBaseDigit(lx.peek(), 16) {
			return 0, lx.errAt(pos, "invalid escape sequence")
		}
		lx.advance()
	}
	return strconv.ParseUint(lx.src[start:lx.pos], 16, 32)
}

// scanTemplateChunk scans template text until the closing backtick or the
// next "${". The opening backtick (head) or "}" (continuation) has already
// been consumed.
func (lx *Lexer) scanTemplateChunk(pos Pos, head bool) (Token, error) {
	var b strings.Builder
	for {
		r := lx.peek()
		if r == -1 {
			return Token{}, lx.errAt(pos, "unterminated template literal")
		}
		if r == '`' {
			lx.advance()
			t := TEMPLATE_TAIL
			if head {
				t = TEMPLATE_NOSUB
			}
			tok := lx.mk(t, pos, "")
			tok.Str = b.String()
			return tok, nil
		}
		if r == '$' && lx.peek2() == '{' {
			lx.advance()
			lx.advance()
			lx.tmplStack = append(lx.tmplStack, lx.braces)
			t := TEMPLATE_MIDDLE
			if head {
				t = TEMPLATE_HEAD
			}
			tok := lx.mk(t, pos, "")
			tok.Str = b.String()
			return tok, nil
		}
		lx.advance()
		if r == '\\' {
			if err := lx.scanEscape(&b, pos); err != nil {
				return Token{}, err
			}
			continue
		}
		b.WriteRune(r)
	}
}
