// Package engine implements the calculator's input state machine: an ordered
// list of operand buffers, at most one pending binary operator, and the rules
// deciding how each key press mutates them and what the display shows.
//
// An Engine is not safe for concurrent use. Callers that share one across
// goroutines must serialise access themselves (see internal/session).
package engine

import (
	"math"
	"strings"
	"unicode/utf8"
)

const (
	DefaultMaxLength = 15
	DefaultPlaces    = 8
)

// State is a snapshot of the operands and pending operator. Operands holds two
// entries exactly when Operator is set.
type State struct {
	Operands []string
	Operator Operator
}

// Outcome is what a single transition produced.
type Outcome struct {
	Display string
	Notices []Notice
}

type Engine struct {
	operands []string
	operator Operator

	maxLength int
	places    int
	notifier  Notifier

	// notices raised by the transition in progress
	raised []Notice
}

type Option func(*Engine)

// WithMaxLength bounds the number of characters in one operand buffer.
func WithMaxLength(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxLength = n
		}
	}
}

// WithPlaces sets how many decimal places results are rounded to.
func WithPlaces(n int) Option {
	return func(e *Engine) {
		if n >= 0 {
			e.places = n
		}
	}
}

func WithNotifier(n Notifier) Option {
	return func(e *Engine) {
		if n != nil {
			e.notifier = n
		}
	}
}

func New(opts ...Option) *Engine {
	e := &Engine{
		maxLength: DefaultMaxLength,
		places:    DefaultPlaces,
		notifier:  nopNotifier{},
	}
	for _, opt := range opts {
		opt(e)
	}
	e.reset()
	return e
}

// Apply dispatches a to the matching transition.
func (e *Engine) Apply(a Action) Outcome {
	var display string
	switch a.Kind {
	case ActionDigit:
		display = e.Digit(a.Digit)
	case ActionOperator:
		display = e.Operator(a.Operator)
	case ActionEvaluate:
		display = e.Evaluate()
	case ActionBackspace:
		display = e.Backspace()
	case ActionDecimal:
		display = e.Decimal()
	case ActionClear:
		display = e.Clear()
	default:
		e.begin()
		display = e.Render()
	}
	return Outcome{Display: display, Notices: e.raised}
}

// Digit appends d to the operand being typed. Leading zeros, digits after a
// sentinel and digits past the length limit are dropped.
func (e *Engine) Digit(d rune) string {
	e.begin()
	last := e.last()
	if !isDigit(d) || last == "0" || last == "-0" || !e.acceptsInput(last) {
		return e.Render()
	}
	e.setLast(last + string(d))
	return e.Render()
}

// Decimal appends a decimal point unless the operand already has one.
func (e *Engine) Decimal() string {
	e.begin()
	last := e.last()
	if strings.Contains(last, ".") || !e.acceptsInput(last) {
		return e.Render()
	}
	e.setLast(last + ".")
	return e.Render()
}

// Operator records op as the pending operator, evaluating any operation that
// is already pending first. Subtract on an empty operand starts a negative
// number instead.
func (e *Engine) Operator(op Operator) string {
	e.begin()
	if op.String() == "" {
		return e.Render()
	}

	last := e.last()
	if last == "-" {
		return e.Render()
	}
	if op == Subtract && last == "" {
		e.setLast("-")
		return e.Render()
	}

	if e.operands[0] == "" {
		e.operands[0] = "0"
	}
	if e.operator != OpNone && !e.collapse() {
		return e.Render()
	}

	e.operator = op
	e.operands = append(e.operands, "")
	return e.Render()
}

// Evaluate completes the pending operation, if any, and normalises the
// remaining operand. Calling it again without new input changes nothing.
func (e *Engine) Evaluate() string {
	e.begin()
	if e.operator != OpNone && !e.collapse() {
		return e.Render()
	}
	if len(e.operands) == 1 {
		e.operands[0] = e.normalize(e.operands[0])
	}
	return e.Render()
}

// Backspace removes the pending operator when nothing was typed after it,
// clears a sentinel, or otherwise drops the last typed character.
func (e *Engine) Backspace() string {
	e.begin()
	last := e.last()
	switch {
	case e.operator != OpNone && last == "":
		e.operator = OpNone
		e.operands = e.operands[:1]
	case isSentinel(last):
		e.setLast("")
	case last != "":
		_, size := utf8.DecodeLastRuneInString(last)
		e.setLast(last[:len(last)-size])
	}
	return e.Render()
}

func (e *Engine) Clear() string {
	e.begin()
	e.reset()
	return e.Render()
}

// Render concatenates the operands and the pending operator's glyph.
func (e *Engine) Render() string {
	var b strings.Builder
	b.WriteString(e.operands[0])
	if e.operator != OpNone {
		b.WriteString(e.operator.Glyph())
		b.WriteString(e.operands[1])
	}
	return b.String()
}

func (e *Engine) State() State {
	return State{
		Operands: append([]string(nil), e.operands...),
		Operator: e.operator,
	}
}

func (e *Engine) begin() {
	e.raised = nil
}

func (e *Engine) reset() {
	e.operands = []string{""}
	e.operator = OpNone
}

func (e *Engine) last() string {
	return e.operands[len(e.operands)-1]
}

func (e *Engine) setLast(s string) {
	e.operands[len(e.operands)-1] = s
}

// acceptsInput reports whether typed characters may still be appended to s.
// Sentinels and exponent-form results are computed values, not editable text.
func (e *Engine) acceptsInput(s string) bool {
	return len(s) < e.maxLength && !isSentinel(s) && !strings.ContainsRune(s, 'e')
}

// collapse replaces the pending operation with its result. It returns false
// when the result forced a reset.
func (e *Engine) collapse() bool {
	result, ok := e.apply(e.operator, e.operands[0], e.operands[1])
	if !ok {
		e.reset()
		return false
	}
	e.operands = append(e.operands[:0], result)
	e.operator = OpNone
	return true
}

// apply computes a op b on the operand texts. Missing operands are
// substituted: 0 for a and for the addend, 1 for a factor, divisor or
// exponent. A zero divisor is substituted too, after warning the user.
func (e *Engine) apply(op Operator, a, b string) (string, bool) {
	x := operandOr(a, 0)

	var v float64
	switch op {
	case Add:
		v = x + operandOr(b, 0)
	case Subtract:
		v = x - operandOr(b, 0)
	case Multiply:
		v = x * operandOr(b, 1)
	case Divide:
		y, ok := parseOperand(b)
		if ok && y == 0 {
			e.notify(divideByZeroNotice)
		}
		if !ok || y == 0 {
			y = 1
		}
		v = x / y
	case Power:
		v = math.Pow(x, operandOr(b, 1))
		if math.IsNaN(v) {
			e.notify(complexResultNotice)
			return "", false
		}
	}

	if math.IsNaN(v) {
		return "", true
	}
	return formatNumber(roundTo(v, e.places)), true
}

func (e *Engine) normalize(s string) string {
	v, ok := parseOperand(s)
	if !ok || math.IsNaN(v) {
		return ""
	}
	return formatNumber(roundTo(v, e.places))
}

func (e *Engine) notify(n Notice) {
	e.raised = append(e.raised, n)
	e.notifier.Notify(n)
}
