package engine

import (
	"strings"
	"unicode/utf8"
)

var keyBindings = map[string]Action{
	"+":         OperatorAction(Add),
	"-":         OperatorAction(Subtract),
	"*":         OperatorAction(Multiply),
	"x":         OperatorAction(Multiply),
	"×":         OperatorAction(Multiply),
	"/":         OperatorAction(Divide),
	"÷":         OperatorAction(Divide),
	"^":         OperatorAction(Power),
	"p":         OperatorAction(Power),
	"=":         EvaluateAction,
	"Enter":     EvaluateAction,
	"Backspace": BackspaceAction,
	".":         DecimalAction,
	",":         DecimalAction,
	"Escape":    ClearAction,
}

// KeyAction maps a keyboard key name, as reported by a keydown event, onto an
// action. Unbound keys report false and should be ignored.
func KeyAction(key string) (Action, bool) {
	if r, size := utf8.DecodeRuneInString(key); size == len(key) && isDigit(r) {
		return DigitAction(r), true
	}
	a, ok := keyBindings[key]
	return a, ok
}

// SplitKeys turns a line of terminal input into key names. Whitespace
// separates tokens; named keys such as "Enter" stay whole and every other
// token is split into single characters, so "12+3=" yields five keys.
func SplitKeys(line string) []string {
	var keys []string
	for _, tok := range strings.Fields(line) {
		if utf8.RuneCountInString(tok) > 1 {
			if _, ok := keyBindings[tok]; ok {
				keys = append(keys, tok)
				continue
			}
		}
		for _, r := range tok {
			keys = append(keys, string(r))
		}
	}
	return keys
}
