package query

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Lexer tokenizes SQL query strings
type Lexer struct {
	input string
	pos   int // offset of ch
	next  int // offset after ch
	ch    rune
}

// NewLexer creates a new lexer
func NewLexer(input string) *Lexer {
	l := &Lexer{input: input}
	l.readChar()
	return l
}

// readChar reads the next character
func (l *Lexer) readChar() {
	l.pos = l.next
	if l.next >= len(l.input) {
		l.ch = 0
		return
	}
	r, size := utf8.DecodeRuneInString(l.input[l.next:])
	l.ch = r
	l.next += size
}

// peekChar looks at the next character without advancing
func (l *Lexer) peekChar() rune {
	if l.next >= len(l.input) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.input[l.next:])
	return r
}

// skipWhitespace skips whitespace characters and -- line comments
func (l *Lexer) skipWhitespace() {
	for {
		for unicode.IsSpace(l.ch) {
			l.readChar()
		}
		if l.ch != '-' || l.peekChar() != '-' {
			return
		}
		for l.ch != '\n' && l.ch != 0 {
			l.readChar()
		}
	}
}

// readQuoted reads text between quote characters. A doubled quote stands
// for one quote character. ok is false when the input ends first.
func (l *Lexer) readQuoted(quote rune) (string, bool) {
	var result strings.Builder
	l.readChar() // skip opening quote

	for {
		switch {
		case l.ch == 0 && l.pos >= len(l.input):
			return result.String(), false
		case l.ch == quote && l.peekChar() == quote:
			result.WriteRune(quote)
			l.readChar()
			l.readChar()
		case l.ch == quote:
			l.readChar() // skip closing quote
			return result.String(), true
		default:
			result.WriteRune(l.ch)
			l.readChar()
		}
	}
}

// readNumber reads an integer or decimal literal with an optional exponent
func (l *Lexer) readNumber() string {
	start := l.pos
	for isDigit(l.ch) {
		l.readChar()
	}
	if l.ch == '.' && isDigit(l.peekChar()) {
		l.readChar()
		for isDigit(l.ch) {
			l.readChar()
		}
	}
	if l.ch == 'e' || l.ch == 'E' {
		p := l.peekChar()
		if isDigit(p) || p == '+' || p == '-' {
			l.readChar()
			if l.ch == '+' || l.ch == '-' {
				l.readChar()
			}
			for isDigit(l.ch) {
				l.readChar()
			}
		}
	}
	return l.input[start:l.pos]
}

// readIdentifier reads an identifier or keyword
func (l *Lexer) readIdentifier() string {
	start := l.pos
	for unicode.IsLetter(l.ch) || unicode.IsDigit(l.ch) || l.ch == '_' || l.ch == '$' {
		l.readChar()
	}
	return l.input[start:l.pos]
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

// single maps one-character operators and delimiters to their token type.
var single = map[rune]TokenType{
	'=': TokenEqual,
	'+': TokenPlus,
	'-': TokenMinus,
	'*': TokenStar,
	'/': TokenSlash,
	'%': TokenPercent,
	',': TokenComma,
	'.': TokenDot,
	'(': TokenLeftParen,
	')': TokenRightParen,
	';': TokenSemicolon,
}

// NextToken returns the next token
func (l *Lexer) NextToken() Token {
	l.skipWhitespace()

	pos := l.pos
	tok := func(typ TokenType, value string) Token {
		return Token{Type: typ, Value: value, Pos: pos}
	}

	switch l.ch {
	case 0:
		if l.pos >= len(l.input) {
			return tok(TokenEOF, "")
		}
	case '!':
		if l.peekChar() == '=' {
			l.readChar()
			l.readChar()
			return tok(TokenNotEqual, "!=")
		}
	case '<':
		switch l.peekChar() {
		case '=':
			l.readChar()
			l.readChar()
			return tok(TokenLessEqual, "<=")
		case '>':
			l.readChar()
			l.readChar()
			return tok(TokenNotEqual, "<>")
		}
		l.readChar()
		return tok(TokenLess, "<")
	case '>':
		if l.peekChar() == '=' {
			l.readChar()
			l.readChar()
			return tok(TokenGreaterEqual, ">=")
		}
		l.readChar()
		return tok(TokenGreater, ">")
	case '|':
		if l.peekChar() == '|' {
			l.readChar()
			l.readChar()
			return tok(TokenConcat, "||")
		}
	case '\'':
		s, ok := l.readQuoted('\'')
		if !ok {
			return tok(TokenError, "unterminated string literal")
		}
		return tok(TokenString, s)
	case '"':
		s, ok := l.readQuoted('"')
		if !ok {
			return tok(TokenError, "unterminated quoted identifier")
		}
		return tok(TokenQuotedIdent, s)
	default:
		if isDigit(l.ch) || (l.ch == '.' && isDigit(l.peekChar())) {
			return tok(TokenNumber, l.readNumber())
		}
		if typ, ok := single[l.ch]; ok {
			ch := l.ch
			l.readChar()
			return tok(typ, string(ch))
		}
		if unicode.IsLetter(l.ch) || l.ch == '_' {
			ident := l.readIdentifier()
			return tok(identifierType(ident), ident)
		}
	}

	ch := l.ch
	l.readChar()
	return tok(TokenError, string(ch))
}

// identifierType determines if an identifier is a keyword
func identifierType(ident string) TokenType {
	if tokType, ok := keywords[strings.ToUpper(ident)]; ok {
		return tokType
	}
	return TokenIdent
}

// Tokenize returns all tokens from the input
func Tokenize(input string) []Token {
	lexer := NewLexer(input)
	var tokens []Token

	for {
		tok := lexer.NextToken()
		tokens = append(tokens, tok)
		if tok.Type == TokenEOF || tok.Type == TokenError {
			break
		}
	}

	return tokens
}
