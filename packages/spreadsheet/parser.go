package spreadsheet

import (
	"fmt"
	"math"
	"strconv"
)

type NodePosition struct {
	Start int
	End   int
}

// Bindings maps identifier text to the numeric value it stands for.
type Bindings map[string]float64

// ASTNode is a node of a parsed arithmetic expression
type ASTNode interface {
	Eval(b Bindings) (float64, error)
	GetPosition() NodePosition
	ToString() string
}

// Parser parses tokens into an AST
type Parser struct {
	tokens []Token
	pos    int
	input  string
}

// NumberNode represents a numeric literal
type NumberNode struct {
	Value    float64
	Position NodePosition
}

func (n *NumberNode) Eval(b Bindings) (float64, error) {
	return n.Value, nil
}

func (n *NumberNode) GetPosition() NodePosition {
	return n.Position
}

func (n *NumberNode) ToString() string {
	return strconv.FormatFloat(n.Value, 'g', -1, 64)
}

// CellRefNode represents a reference to another cell by identifier
type CellRefNode struct {
	ID       string
	Position NodePosition
}

func (n *CellRefNode) Eval(b Bindings) (float64, error) {
	v, ok := b[n.ID]
	if !ok {
		return 0, NewSpreadsheetError(ErrorCodeInvalidExpression, fmt.Sprintf("unbound reference %s", n.ID))
	}
	return v, nil
}

func (n *CellRefNode) GetPosition() NodePosition {
	return n.Position
}

func (n *CellRefNode) ToString() string {
	return n.ID
}

// BinaryOpNode represents a binary operation
type BinaryOpNode struct {
	Op       BinaryOp
	Left     ASTNode
	Right    ASTNode
	Position NodePosition
}

func (n *BinaryOpNode) Eval(b Bindings) (float64, error) {
	left, err := n.Left.Eval(b)
	if err != nil {
		return 0, err
	}
	right, err := n.Right.Eval(b)
	if err != nil {
		return 0, err
	}

	switch n.Op {
	case BinOpAdd:
		return left + right, nil
	case BinOpSubtract:
		return left - right, nil
	case BinOpMultiply:
		return left * right, nil
	case BinOpDivide:
		if right == 0 {
			return 0, NewSpreadsheetError(ErrorCodeInvalidExpression, "division by zero")
		}
		return left / right, nil
	default:
		return 0, NewSpreadsheetError(ErrorCodeInvalidExpression, "unknown operator")
	}
}

func (n *BinaryOpNode) GetPosition() NodePosition {
	return n.Position
}

func (n *BinaryOpNode) ToString() string {
	opStr := ""
	switch n.Op {
	case BinOpAdd:
		opStr = "+"
	case BinOpSubtract:
		opStr = "-"
	case BinOpMultiply:
		opStr = "*"
	case BinOpDivide:
		opStr = "/"
	}
	return fmt.Sprintf("(%s%s%s)", n.Left.ToString(), opStr, n.Right.ToString())
}

// UnaryOpNode represents a unary operation
type UnaryOpNode struct {
	Op       UnaryOp
	Operand  ASTNode
	Position NodePosition
}

func (n *UnaryOpNode) Eval(b Bindings) (float64, error) {
	val, err := n.Operand.Eval(b)
	if err != nil {
		return 0, err
	}

	switch n.Op {
	case UnaryOpPlus:
		return val, nil
	case UnaryOpMinus:
		return -val, nil
	default:
		return 0, NewSpreadsheetError(ErrorCodeInvalidExpression, "unknown unary operator")
	}
}

func (n *UnaryOpNode) GetPosition() NodePosition {
	return n.Position
}

func (n *UnaryOpNode) ToString() string {
	if n.Op == UnaryOpMinus {
		return "-" + n.Operand.ToString()
	}
	return "+" + n.Operand.ToString()
}

// NewParser creates a parser over already tokenized input
func NewParser(tokens []Token, input string) *Parser {
	return &Parser{
		tokens: tokens,
		pos:    0,
		input:  input,
	}
}

// ParseExpression tokenizes and parses input in one step
func ParseExpression(input string) (ASTNode, error) {
	tokens, err := NewLexer(input).Tokenize()
	if err != nil {
		return nil, err
	}
	return NewParser(tokens, input).Parse()
}

// Parse parses the tokens into an AST
func (p *Parser) Parse() (ASTNode, error) {
	if len(p.tokens) == 0 {
		return nil, p.errorf("no tokens to parse")
	}

	node, err := p.parseAddition()
	if err != nil {
		return nil, err
	}

	// ensure we've consumed all tokens except EOF
	if p.pos < len(p.tokens) && p.tokens[p.pos].Type != TokenEOF {
		return nil, p.errorf("unexpected token after expression: %s", p.tokens[p.pos].Value)
	}

	return node, nil
}

func (p *Parser) errorf(format string, args ...any) *SpreadsheetError {
	msg := fmt.Sprintf(format, args...)
	return NewSpreadsheetError(ErrorCodeInvalidExpression, fmt.Sprintf("%s in %q", msg, p.input))
}

// parseAddition handles addition and subtraction (lowest precedence)
func (p *Parser) parseAddition() (ASTNode, error) {
	left, err := p.parseMultiplication()
	if err != nil {
		return nil, err
	}

	for p.pos < len(p.tokens) {
		tok := p.tokens[p.pos]
		if tok.Type != TokenBinaryOp {
			break
		}

		var op BinaryOp
		switch tok.Value {
		case "+":
			op = BinOpAdd
		case "-":
			op = BinOpSubtract
		default:
			return left, nil
		}

		p.pos++
		right, err := p.parseMultiplication()
		if err != nil {
			return nil, err
		}

		left = &BinaryOpNode{
			Op:       op,
			Left:     left,
			Right:    right,
			Position: NodePosition{Start: left.GetPosition().Start, End: right.GetPosition().End},
		}
	}

	return left, nil
}

// parseMultiplication handles multiplication and division
func (p *Parser) parseMultiplication() (ASTNode, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}

	for p.pos < len(p.tokens) {
		tok := p.tokens[p.pos]
		if tok.Type != TokenBinaryOp {
			break
		}

		var op BinaryOp
		switch tok.Value {
		case "*":
			op = BinOpMultiply
		case "/":
			op = BinOpDivide
		default:
			return left, nil
		}

		p.pos++
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}

		left = &BinaryOpNode{
			Op:       op,
			Left:     left,
			Right:    right,
			Position: NodePosition{Start: left.GetPosition().Start, End: right.GetPosition().End},
		}
	}

	return left, nil
}

// parseUnary handles unary operators
func (p *Parser) parseUnary() (ASTNode, error) {
	if p.pos >= len(p.tokens) {
		return nil, p.errorf("unexpected end of expression")
	}

	tok := p.tokens[p.pos]
	if tok.Type != TokenUnaryPrefixOp {
		return p.parsePrimary()
	}

	op := UnaryOpPlus
	if tok.Value == "-" {
		op = UnaryOpMinus
	}

	p.pos++
	operand, err := p.parseUnary() // recurse for chained unary operators
	if err != nil {
		return nil, err
	}

	return &UnaryOpNode{
		Op:       op,
		Operand:  operand,
		Position: NodePosition{Start: tok.Pos, End: operand.GetPosition().End},
	}, nil
}

// parsePrimary handles literals, references and parentheses
func (p *Parser) parsePrimary() (ASTNode, error) {
	if p.pos >= len(p.tokens) {
		return nil, p.errorf("unexpected end of expression")
	}

	tok := p.tokens[p.pos]

	switch tok.Type {
	case TokenNumber:
		p.pos++
		val, err := strconv.ParseFloat(tok.Value, 64)
		if err != nil || math.IsInf(val, 0) {
			return nil, p.errorf("invalid number: %s", tok.Value)
		}
		return &NumberNode{
			Value:    val,
			Position: NodePosition{Start: tok.Pos, End: tok.Pos + len(tok.Value)},
		}, nil

	case TokenCell:
		p.pos++
		return &CellRefNode{
			ID:       tok.Value,
			Position: NodePosition{Start: tok.Pos, End: tok.Pos + len(tok.Value)},
		}, nil

	case TokenIdentifier:
		return nil, p.errorf("unknown name %s", tok.Value)

	case TokenLeftParen:
		p.pos++
		node, err := p.parseAddition()
		if err != nil {
			return nil, err
		}

		if p.pos >= len(p.tokens) || p.tokens[p.pos].Type != TokenRightParen {
			return nil, p.errorf("expected closing parenthesis")
		}
		p.pos++

		return node, nil

	case TokenEOF:
		return nil, p.errorf("unexpected end of expression")

	default:
		return nil, p.errorf("unexpected token: %s", tok.Value)
	}
}
