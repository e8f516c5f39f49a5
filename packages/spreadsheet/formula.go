package spreadsheet

import (
	"fmt"
	"math"
)

// Expression is the parsed form of a cell's raw text. References are
// extracted and the text is parsed exactly once, when the expression is
// created; evaluation only walks the stored AST.
type Expression struct {
	text       string
	references []string
	ast        ASTNode
	parseErr   error
}

// NewExpression extracts references and parses text. A syntax error does
// not fail construction; it is kept and reported by Evaluate.
func NewExpression(text string) *Expression {
	e := &Expression{
		text:       text,
		references: ExtractReferences(text),
	}
	e.ast, e.parseErr = ParseExpression(text)
	return e
}

// Text returns the raw expression text
func (e *Expression) Text() string {
	return e.text
}

// References returns the identifiers present in the expression, in order
// of appearance with duplicates preserved. The slice is shared; callers
// must not modify it.
func (e *Expression) References() []string {
	return e.references
}

// Evaluate computes the expression against bindings. All failures are
// invalid expression errors.
func (e *Expression) Evaluate(b Bindings) (float64, error) {
	if e.parseErr != nil {
		return 0, e.parseErr
	}

	v, err := e.ast.Eval(b)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, NewSpreadsheetError(ErrorCodeInvalidExpression,
			fmt.Sprintf("non-numeric result %v for %q", v, e.text))
	}
	return v, nil
}

// ExtractReferences returns every cell identifier in text, left to right,
// duplicates included.
func ExtractReferences(text string) []string {
	return NewLexer(text).ScanReferences()
}

// Evaluate parses and evaluates text in one step.
func Evaluate(text string, b Bindings) (float64, error) {
	return NewExpression(text).Evaluate(b)
}
