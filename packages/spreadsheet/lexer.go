package spreadsheet

import "fmt"

// TokenType represents different types of tokens in expressions
type TokenType int

const (
	TokenEOF TokenType = iota
	TokenNumber
	TokenCell
	TokenIdentifier
	TokenUnaryPrefixOp
	TokenBinaryOp
	TokenLeftParen
	TokenRightParen
	TokenWhitespace
	TokenError
)

// BinaryOp represents binary operators in AST nodes
type BinaryOp int

const (
	BinOpAdd BinaryOp = iota
	BinOpSubtract
	BinOpMultiply
	BinOpDivide
)

// UnaryOp represents unary operators in AST nodes
type UnaryOp int

const (
	UnaryOpPlus UnaryOp = iota
	UnaryOpMinus
)

// character classification constants. slightly easier to read.
const (
	charNull       = 0
	charTab        = '\t'
	charNewline    = '\n'
	charReturn     = '\r'
	charSpace      = ' '
	charLParen     = '('
	charRParen     = ')'
	charAsterisk   = '*'
	charPlus       = '+'
	charMinus      = '-'
	charPeriod     = '.'
	charSlash      = '/'
	charUnderscore = '_'
)

// TokenState represents the lexer state for validation
type TokenState int

const (
	StateStart TokenState = iota
	StateAfterValue
	StateAfterOperator
	StateAfterLeftParen
	StateAfterRightParen
)

// tokenTransitions maps the current state to valid next token types.
// identifiers are let through so the parser can name them in its error.
var tokenTransitions = map[TokenState]map[TokenType]bool{
	StateStart: {
		TokenUnaryPrefixOp: true,
		TokenNumber:        true,
		TokenCell:          true,
		TokenIdentifier:    true,
		TokenLeftParen:     true,
	},
	StateAfterValue: { // after number or cell
		TokenBinaryOp:   true,
		TokenRightParen: true,
		TokenEOF:        true,
		// whitespace is significant - no consecutive values
	},
	StateAfterOperator: {
		TokenNumber:        true,
		TokenCell:          true,
		TokenIdentifier:    true,
		TokenLeftParen:     true,
		TokenUnaryPrefixOp: true,
	},
	StateAfterLeftParen: {
		TokenNumber:        true,
		TokenCell:          true,
		TokenIdentifier:    true,
		TokenLeftParen:     true, // nested
		TokenUnaryPrefixOp: true,
	},
	StateAfterRightParen: {
		TokenBinaryOp:   true,
		TokenRightParen: true, // if nested
		TokenEOF:        true,
	},
}

// Token represents a lexical token with position information
type Token struct {
	Type  TokenType
	Value string
	Pos   int // rune position in input
}

// Lexer tokenizes arithmetic expressions
type Lexer struct {
	input      string
	runes      []rune
	pos        int
	state      TokenState
	parenDepth int
	tokens     []Token
}

// NewLexer creates a new lexer for the given expression
func NewLexer(input string) *Lexer {
	return &Lexer{
		input:  input,
		runes:  []rune(input),
		pos:    0,
		state:  StateStart,
		tokens: []Token{},
	}
}

// Tokenize tokenizes the entire input. The returned error is always an
// invalid expression error.
func (l *Lexer) Tokenize() ([]Token, error) {
	for l.pos < len(l.runes) {
		tok := l.nextToken()
		if tok.Type == TokenError {
			return nil, l.errorf(tok.Pos, "%s", tok.Value)
		}
		if tok.Type == TokenWhitespace || tok.Type == TokenEOF {
			continue
		}
		if !l.validateTransition(tok.Type) {
			return nil, l.errorf(tok.Pos, "unexpected token: %s", tok.Value)
		}
		l.tokens = append(l.tokens, tok)
		l.updateState(tok.Type)
	}

	if l.parenDepth > 0 {
		return nil, l.errorf(l.pos, "unbalanced parentheses: missing closing parenthesis")
	}
	if len(l.tokens) == 0 {
		return nil, l.errorf(0, "empty expression")
	}
	if !l.validateTransition(TokenEOF) {
		return nil, l.errorf(l.pos, "unexpected end of expression")
	}

	l.tokens = append(l.tokens, Token{Type: TokenEOF, Pos: l.pos})
	return l.tokens, nil
}

// ScanReferences walks the input once and returns every cell token in
// order of appearance, duplicates included. It never fails: characters the
// lexer does not understand are skipped, and the malformation is left for
// Tokenize to report.
func (l *Lexer) ScanReferences() []string {
	var refs []string
	for l.pos < len(l.runes) {
		tok := l.nextToken()
		switch tok.Type {
		case TokenCell:
			refs = append(refs, tok.Value)
		case TokenError:
			if l.pos == tok.Pos {
				l.pos++
			}
		}
		if tok.Type != TokenWhitespace && tok.Type != TokenError {
			l.updateState(tok.Type)
		}
	}
	return refs
}

func (l *Lexer) errorf(pos int, format string, args ...any) *SpreadsheetError {
	msg := fmt.Sprintf(format, args...)
	return NewSpreadsheetError(ErrorCodeInvalidExpression, fmt.Sprintf("%s at position %d in %q", msg, pos, l.input))
}

// validateTransition checks if the token type is valid in current state
func (l *Lexer) validateTransition(tokenType TokenType) bool {
	validTokens, exists := tokenTransitions[l.state]
	if !exists {
		return false
	}
	return validTokens[tokenType]
}

// updateState updates the lexer state based on the token type
func (l *Lexer) updateState(tokenType TokenType) {
	switch tokenType {
	case TokenNumber, TokenCell, TokenIdentifier:
		l.state = StateAfterValue
	case TokenUnaryPrefixOp, TokenBinaryOp:
		l.state = StateAfterOperator
	case TokenLeftParen:
		l.state = StateAfterLeftParen
	case TokenRightParen:
		l.state = StateAfterRightParen
	}
}

// nextToken returns the next token from the input
func (l *Lexer) nextToken() Token {
	if l.isWhitespace(l.current()) {
		start := l.pos
		l.skipWhitespace()
		return Token{Type: TokenWhitespace, Value: l.substring(start, l.pos), Pos: start}
	}

	if l.pos >= len(l.runes) {
		return Token{Type: TokenEOF, Pos: l.pos}
	}

	startPos := l.pos
	ch := l.current()

	// check for numbers
	if l.isDigit(ch) || (ch == charPeriod && l.isDigit(l.peek(1))) {
		return l.scanNumber()
	}

	switch ch {
	case charLParen:
		l.pos++
		l.parenDepth++
		return Token{Type: TokenLeftParen, Value: "(", Pos: startPos}
	case charRParen:
		l.pos++
		l.parenDepth--
		if l.parenDepth < 0 {
			return Token{Type: TokenError, Value: "unexpected closing parenthesis", Pos: startPos}
		}
		return Token{Type: TokenRightParen, Value: ")", Pos: startPos}
	case charPlus, charMinus:
		return l.scanUnaryPrefixOrBinaryOp()
	case charAsterisk, charSlash:
		return l.scanBinaryOp()
	}

	// check for identifiers and cells
	if l.isAlpha(ch) || ch == charUnderscore {
		return l.scanIdentifierOrCell()
	}

	// unknown character
	l.pos++
	return Token{Type: TokenError, Value: "unexpected character: " + string(ch), Pos: startPos}
}

// helper methods for character navigation and classification

// substring returns a substring of the original input based on rune positions
func (l *Lexer) substring(start, end int) string {
	if start < 0 || end > len(l.runes) || start > end {
		return ""
	}
	return string(l.runes[start:end])
}

func (l *Lexer) current() rune {
	if l.pos >= len(l.runes) {
		return charNull
	}
	return l.runes[l.pos]
}

func (l *Lexer) peek(offset int) rune {
	pos := l.pos + offset
	if pos >= len(l.runes) || pos < 0 {
		return charNull
	}
	return l.runes[pos]
}

func (l *Lexer) isWhitespace(ch rune) bool {
	return ch == charSpace || ch == charTab || ch == charNewline || ch == charReturn
}

func (l *Lexer) skipWhitespace() {
	for l.pos < len(l.runes) && l.isWhitespace(l.current()) {
		l.pos++
	}
}

func (l *Lexer) isDigit(ch rune) bool {
	return ch >= '0' && ch <= '9'
}

func (l *Lexer) isAlpha(ch rune) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

func (l *Lexer) isAlphaNumeric(ch rune) bool {
	return l.isAlpha(ch) || l.isDigit(ch)
}

// scanNumber scans a number token: digits with an optional fraction
// ("1.5", "1.", ".5") and optional exponent ("1e3", "2E-4")
func (l *Lexer) scanNumber() Token {
	startPos := l.pos

	for l.isDigit(l.current()) {
		l.pos++
	}

	if l.current() == charPeriod {
		l.pos++ // consume '.'
		for l.isDigit(l.current()) {
			l.pos++
		}
	}

	// check for scientific notation (e or E)
	if l.current() == 'e' || l.current() == 'E' {
		savedPos := l.pos
		l.pos++ // consume 'e' or 'E'

		if l.current() == charPlus || l.current() == charMinus {
			l.pos++
		}

		if !l.isDigit(l.current()) {
			// not scientific notation, restore position
			l.pos = savedPos
		} else {
			for l.isDigit(l.current()) {
				l.pos++
			}
		}
	}

	return Token{Type: TokenNumber, Value: l.substring(startPos, l.pos), Pos: startPos}
}

// scanIdentifierOrCell scans an alphanumeric run. Exactly one uppercase
// letter followed only by digits is a cell; anything else is an
// identifier, which no expression may use.
func (l *Lexer) scanIdentifierOrCell() Token {
	startPos := l.pos

	for l.isAlphaNumeric(l.current()) || l.current() == charUnderscore {
		l.pos++
	}

	value := l.substring(startPos, l.pos)
	if l.isCell(value) {
		return Token{Type: TokenCell, Value: value, Pos: startPos}
	}
	return Token{Type: TokenIdentifier, Value: value, Pos: startPos}
}

// isCell checks if a string has the shape of a cell identifier (e.g. A1, B12).
// Range checks are the codec's job.
func (l *Lexer) isCell(s string) bool {
	if len(s) < 2 || s[0] < 'A' || s[0] > 'Z' {
		return false
	}
	for i := 1; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// scanUnaryPrefixOrBinaryOp scans + and - which can be either unary
// prefix or binary
func (l *Lexer) scanUnaryPrefixOrBinaryOp() Token {
	startPos := l.pos
	ch := l.current()
	l.pos++

	if l.isUnaryContext() {
		return Token{Type: TokenUnaryPrefixOp, Value: string(ch), Pos: startPos}
	}
	return Token{Type: TokenBinaryOp, Value: string(ch), Pos: startPos}
}

// scanBinaryOp scans * and /. A doubled operator ("**", "//") is rejected
// here rather than surfacing as a confusing parse error.
func (l *Lexer) scanBinaryOp() Token {
	startPos := l.pos
	ch := l.current()
	l.pos++

	if l.current() == ch {
		l.pos++
		return Token{Type: TokenError, Value: "unsupported operator " + string(ch) + string(ch), Pos: startPos}
	}
	return Token{Type: TokenBinaryOp, Value: string(ch), Pos: startPos}
}

// isUnaryContext checks if the current context allows for unary operators
func (l *Lexer) isUnaryContext() bool {
	switch l.state {
	case StateStart, StateAfterOperator, StateAfterLeftParen:
		return true
	default:
		return false
	}
}
