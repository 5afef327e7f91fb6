package parser

type Lexer struct {
	input  []byte
	file   string
	pos    int
	line   int
	column int
	prev   TokenKind
}

func NewLexer(input []byte, file string) *Lexer {
	return &Lexer{
		input:  input,
		file:   file,
		pos:    0,
		line:   1,
		column: 1,
		prev:   TokenEOF,
	}
}

// Tokenize lexes the whole input, trivia included. The trailing EOF token is
// not part of the result.
func Tokenize(input []byte, file string) []Token {
	l := NewLexer(input, file)
	var tokens []Token
	for {
		tok := l.NextToken()
		if tok.Kind == TokenEOF {
			return tokens
		}
		tokens = append(tokens, tok)
	}
}

func (l *Lexer) Position() Position {
	return Position{
		File:   l.file,
		Offset: l.pos,
		Line:   l.line,
		Column: l.column,
	}
}

func (l *Lexer) peek() byte {
	if l.pos >= len(l.input) {
		return 0
	}
	return l.input[l.pos]
}

func (l *Lexer) peekN(n int) byte {
	if l.pos+n >= len(l.input) {
		return 0
	}
	return l.input[l.pos+n]
}

func (l *Lexer) advance() byte {
	if l.pos >= len(l.input) {
		return 0
	}
	ch := l.input[l.pos]
	l.pos++
	if ch == '\n' {
		l.line++
		l.column = 1
	} else {
		l.column++
	}
	return ch
}

func (l *Lexer) advanceN(n int) {
	for i := 0; i < n; i++ {
		l.advance()
	}
}

func (l *Lexer) NextToken() Token {
	tok := l.nextToken()
	if !tok.Kind.IsTrivia() {
		l.prev = tok.Kind
	}
	return tok
}

func (l *Lexer) nextToken() Token {
	startPos := l.Position()

	if l.pos >= len(l.input) {
		return Token{Kind: TokenEOF, Span: Span{Start: startPos, End: startPos}}
	}

	ch := l.peek()

	if ch == '#' {
		return l.scanLineComment(startPos)
	}
	if ch == '/' && l.peekN(1) == '*' {
		return l.scanBlockComment(startPos)
	}
	if isSpace(ch) {
		return l.scanWhitespace(startPos)
	}
	if ch == '$' {
		return l.scanVariable(startPos)
	}
	if isNameStart(ch) || (ch == ':' && l.peekN(1) == ':' && isNameStart(l.peekN(2))) {
		return l.scanIdentOrKeyword(startPos)
	}
	if isDigit(ch) {
		return l.scanNumber(startPos)
	}
	if ch == '-' && isDigit(l.peekN(1)) && !valueLike(l.prev) {
		l.advance()
		return l.scanNumber(startPos)
	}
	if ch == '\'' {
		return l.scanQuoted(startPos, '\'')
	}
	if ch == '"' {
		return l.scanQuoted(startPos, '"')
	}
	if ch == '/' && !valueLike(l.prev) && l.regexpAhead() {
		return l.scanRegexp(startPos)
	}

	return l.scanOperator(startPos)
}

// valueLike reports whether a token of kind k can end an operand, in which
// case a following '/' is division and a following '-' is subtraction. A
// closing brace is not: case branches start with a regexp right after one.
func valueLike(k TokenKind) bool {
	switch k {
	case TokenIdent, TokenVariable, TokenIntLiteral, TokenFloatLiteral,
		TokenStringLiteral, TokenRegexpLiteral, TokenRParen, TokenRBracket,
		TokenTrue, TokenFalse, TokenUndef, TokenDefault:
		return true
	}
	return false
}

func (l *Lexer) regexpAhead() bool {
	for i := l.pos + 1; i < len(l.input); i++ {
		switch l.input[i] {
		case '\\':
			i++
		case '\n':
			return false
		case '/':
			return true
		}
	}
	return false
}

func (l *Lexer) scanWhitespace(start Position) Token {
	for isSpace(l.peek()) {
		l.advance()
	}
	return l.token(TokenWhitespace, start)
}

func (l *Lexer) scanLineComment(start Position) Token {
	for l.peek() != 0 && l.peek() != '\n' {
		l.advance()
	}
	return l.token(TokenLineComment, start)
}

func (l *Lexer) scanBlockComment(start Position) Token {
	l.advanceN(2)
	for l.pos < len(l.input) {
		if l.peek() == '*' && l.peekN(1) == '/' {
			l.advanceN(2)
			break
		}
		l.advance()
	}
	return l.token(TokenComment, start)
}

func (l *Lexer) scanIdentOrKeyword(start Position) Token {
	for {
		ch := l.peek()
		if isNameChar(ch) {
			l.advance()
			continue
		}
		if ch == ':' && l.peekN(1) == ':' && isNameStart(l.peekN(2)) {
			l.advanceN(2)
			continue
		}
		break
	}
	tok := l.token(TokenIdent, start)
	tok.Kind = LookupKeyword(tok.Literal)
	return tok
}

func (l *Lexer) scanVariable(start Position) Token {
	l.advance()
	if l.peek() == ':' && l.peekN(1) == ':' {
		l.advanceN(2)
	}
	for {
		ch := l.peek()
		if isNameChar(ch) {
			l.advance()
			continue
		}
		if ch == ':' && l.peekN(1) == ':' && isNameChar(l.peekN(2)) {
			l.advanceN(2)
			continue
		}
		break
	}
	return l.token(TokenVariable, start)
}

func (l *Lexer) scanNumber(start Position) Token {
	if l.peek() == '0' && (l.peekN(1) == 'x' || l.peekN(1) == 'X') {
		l.advanceN(2)
		for isHexDigit(l.peek()) {
			l.advance()
		}
		return l.token(TokenIntLiteral, start)
	}

	isFloat := false
	for isDigit(l.peek()) {
		l.advance()
	}
	if l.peek() == '.' && isDigit(l.peekN(1)) {
		isFloat = true
		l.advance()
		for isDigit(l.peek()) {
			l.advance()
		}
	}
	if (l.peek() == 'e' || l.peek() == 'E') &&
		(isDigit(l.peekN(1)) || ((l.peekN(1) == '+' || l.peekN(1) == '-') && isDigit(l.peekN(2)))) {
		isFloat = true
		l.advanceN(2)
		for isDigit(l.peek()) {
			l.advance()
		}
	}

	kind := TokenIntLiteral
	if isFloat {
		kind = TokenFloatLiteral
	}
	return l.token(kind, start)
}

// scanQuoted lexes a single or double quoted string, interpolations included.
// An unterminated string runs to the end of input.
func (l *Lexer) scanQuoted(start Position, quote byte) Token {
	l.advance()
	for l.pos < len(l.input) {
		ch := l.peek()
		if ch == '\\' {
			l.advanceN(2)
			continue
		}
		if ch == quote {
			l.advance()
			break
		}
		if quote == '"' && ch == '$' && l.peekN(1) == '{' {
			l.advanceN(2)
			l.skipInterpolation()
			continue
		}
		l.advance()
	}
	return l.token(TokenStringLiteral, start)
}

func (l *Lexer) skipInterpolation() {
	depth := 1
	for l.pos < len(l.input) && depth > 0 {
		switch l.peek() {
		case '{':
			depth++
		case '}':
			depth--
		case '\'', '"':
			quote := l.advance()
			for l.pos < len(l.input) && l.peek() != quote {
				if l.peek() == '\\' {
					l.advance()
				}
				l.advance()
			}
		}
		l.advance()
	}
}

func (l *Lexer) scanRegexp(start Position) Token {
	l.advance()
	for l.pos < len(l.input) {
		ch := l.advance()
		if ch == '\\' {
			l.advance()
			continue
		}
		if ch == '/' {
			break
		}
	}
	return l.token(TokenRegexpLiteral, start)
}

func (l *Lexer) scanOperator(start Position) Token {
	ch := l.peek()

	switch ch {
	case '(':
		l.advance()
		return l.token(TokenLParen, start)
	case ')':
		l.advance()
		return l.token(TokenRParen, start)
	case '{':
		l.advance()
		return l.token(TokenLBrace, start)
	case '}':
		l.advance()
		return l.token(TokenRBrace, start)
	case '[':
		l.advance()
		return l.token(TokenLBracket, start)
	case ']':
		l.advance()
		return l.token(TokenRBracket, start)
	case ';':
		l.advance()
		return l.token(TokenSemicolon, start)
	case ',':
		l.advance()
		return l.token(TokenComma, start)
	case ':':
		l.advance()
		return l.token(TokenColon, start)
	case '.':
		l.advance()
		return l.token(TokenDot, start)
	case '?':
		l.advance()
		return l.token(TokenQuestion, start)
	case '*':
		l.advance()
		return l.token(TokenStar, start)
	case '/':
		l.advance()
		return l.token(TokenSlash, start)
	case '%':
		l.advance()
		return l.token(TokenPercent, start)

	case '@':
		if l.peekN(1) == '@' {
			l.advanceN(2)
			return l.token(TokenAtAt, start)
		}
		l.advance()
		return l.token(TokenAt, start)

	case '=':
		switch l.peekN(1) {
		case '=':
			l.advanceN(2)
			return l.token(TokenEQ, start)
		case '>':
			l.advanceN(2)
			return l.token(TokenArrow, start)
		case '~':
			l.advanceN(2)
			return l.token(TokenMatch, start)
		}
		l.advance()
		return l.token(TokenAssign, start)

	case '!':
		switch l.peekN(1) {
		case '=':
			l.advanceN(2)
			return l.token(TokenNE, start)
		case '~':
			l.advanceN(2)
			return l.token(TokenNoMatch, start)
		}
		l.advance()
		return l.token(TokenNot, start)

	case '+':
		switch l.peekN(1) {
		case '>':
			l.advanceN(2)
			return l.token(TokenPlusArrow, start)
		case '=':
			l.advanceN(2)
			return l.token(TokenAppend, start)
		}
		l.advance()
		return l.token(TokenPlus, start)

	case '-':
		if l.peekN(1) == '>' {
			l.advanceN(2)
			return l.token(TokenInEdge, start)
		}
		l.advance()
		return l.token(TokenMinus, start)

	case '~':
		if l.peekN(1) == '>' {
			l.advanceN(2)
			return l.token(TokenInEdgeSub, start)
		}

	case '<':
		switch l.peekN(1) {
		case '<':
			if l.peekN(2) == '|' {
				l.advanceN(3)
				return l.token(TokenLLCollect, start)
			}
			l.advanceN(2)
			return l.token(TokenShl, start)
		case '|':
			l.advanceN(2)
			return l.token(TokenLCollect, start)
		case '=':
			l.advanceN(2)
			return l.token(TokenLE, start)
		case '-':
			l.advanceN(2)
			return l.token(TokenOutEdge, start)
		case '~':
			l.advanceN(2)
			return l.token(TokenOutEdgeSub, start)
		}
		l.advance()
		return l.token(TokenLT, start)

	case '>':
		switch l.peekN(1) {
		case '>':
			l.advanceN(2)
			return l.token(TokenShr, start)
		case '=':
			l.advanceN(2)
			return l.token(TokenGE, start)
		}
		l.advance()
		return l.token(TokenGT, start)

	case '|':
		if l.peekN(1) == '>' {
			if l.peekN(2) == '>' {
				l.advanceN(3)
				return l.token(TokenRRCollect, start)
			}
			l.advanceN(2)
			return l.token(TokenRCollect, start)
		}
		l.advance()
		return l.token(TokenPipe, start)
	}

	l.advance()
	return l.token(TokenError, start)
}

func (l *Lexer) token(kind TokenKind, start Position) Token {
	end := l.Position()
	return Token{
		Kind:    kind,
		Span:    Span{Start: start, End: end},
		Literal: string(l.input[start.Offset:end.Offset]),
	}
}

func isSpace(ch byte) bool {
	return ch == ' ' || ch == '\t' || ch == '\r' || ch == '\n'
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func isHexDigit(ch byte) bool {
	return (ch >= '0' && ch <= '9') || (ch >= 'a' && ch <= 'f') || (ch >= 'A' && ch <= 'F')
}

func isNameStart(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || ch == '_'
}

func isNameChar(ch byte) bool {
	return isNameStart(ch) || isDigit(ch)
}
