package engine

import (
	"errors"
	"fmt"
	"unicode/utf8"
)

// ErrInvalidAction is returned when an action name or payload cannot be mapped
// onto an engine transition.
var ErrInvalidAction = errors.New("invalid action")

type ActionKind int

const (
	ActionDigit ActionKind = iota + 1
	ActionOperator
	ActionEvaluate
	ActionBackspace
	ActionDecimal
	ActionClear
)

var actionNames = map[ActionKind]string{
	ActionDigit:     "digit",
	ActionOperator:  "operator",
	ActionEvaluate:  "evaluate",
	ActionBackspace: "backspace",
	ActionDecimal:   "decimal",
	ActionClear:     "clear",
}

func (k ActionKind) String() string {
	return actionNames[k]
}

// Action is one discrete input event. Digit is set only for ActionDigit and
// Operator only for ActionOperator.
type Action struct {
	Kind     ActionKind
	Digit    rune
	Operator Operator
}

func DigitAction(d rune) Action {
	return Action{Kind: ActionDigit, Digit: d}
}

func OperatorAction(op Operator) Action {
	return Action{Kind: ActionOperator, Operator: op}
}

var (
	EvaluateAction  = Action{Kind: ActionEvaluate}
	BackspaceAction = Action{Kind: ActionBackspace}
	DecimalAction   = Action{Kind: ActionDecimal}
	ClearAction     = Action{Kind: ActionClear}
)

func (a Action) String() string {
	switch a.Kind {
	case ActionDigit:
		return fmt.Sprintf("digit(%c)", a.Digit)
	case ActionOperator:
		return fmt.Sprintf("operator(%s)", a.Operator)
	default:
		return a.Kind.String()
	}
}

// ParseAction builds an Action from its name and optional value, e.g.
// ("digit", "7") or ("operator", "multiply").
func ParseAction(kind, value string) (Action, error) {
	switch kind {
	case "digit":
		d, size := utf8.DecodeRuneInString(value)
		if size != len(value) || !isDigit(d) {
			return Action{}, fmt.Errorf("digit %q: %w", value, ErrInvalidAction)
		}
		return DigitAction(d), nil
	case "operator":
		op, err := ParseOperator(value)
		if err != nil {
			return Action{}, err
		}
		return OperatorAction(op), nil
	case "evaluate":
		return EvaluateAction, nil
	case "backspace":
		return BackspaceAction, nil
	case "decimal":
		return DecimalAction, nil
	case "clear":
		return ClearAction, nil
	}
	return Action{}, fmt.Errorf("unknown action %q: %w", kind, ErrInvalidAction)
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}
