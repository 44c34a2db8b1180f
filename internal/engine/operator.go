package engine

import "fmt"

// Operator is a binary operation awaiting its second operand.
type Operator int

const (
	OpNone Operator = iota
	Add
	Subtract
	Multiply
	Divide
	Power
)

var operatorNames = map[Operator]string{
	Add:      "add",
	Subtract: "subtract",
	Multiply: "multiply",
	Divide:   "divide",
	Power:    "power",
}

var operatorGlyphs = map[Operator]string{
	Add:      "+",
	Subtract: "-",
	Multiply: "×",
	Divide:   "÷",
	Power:    "^",
}

func (op Operator) String() string {
	if name, ok := operatorNames[op]; ok {
		return name
	}
	return ""
}

// Glyph returns the symbol shown on the display.
func (op Operator) Glyph() string {
	return operatorGlyphs[op]
}

// ParseOperator accepts either the operator name ("add") or its glyph ("+").
func ParseOperator(s string) (Operator, error) {
	for op, name := range operatorNames {
		if s == name || s == operatorGlyphs[op] {
			return op, nil
		}
	}
	return OpNone, fmt.Errorf("unknown operator %q: %w", s, ErrInvalidAction)
}
