package calculator

import "go-chi-calculator/internal/engine"

// ActionRequest is the JSON body for POST /calculator/sessions/{id}/actions.
type ActionRequest struct {
	Action string `json:"action" validate:"required,oneof=digit operator evaluate backspace decimal clear"`
	Value  string `json:"value" validate:"required_if=Action digit,required_if=Action operator"` // digit or operator name
}

// KeysRequest is the JSON body for the key-driven endpoints. Keys use
// keydown names: "7", "+", "Enter", "Backspace".
type KeysRequest struct {
	Keys []string `json:"keys" validate:"required,min=1,max=256,dive,required,max=16"`
}

type NoticeResponse struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// SessionResponse is the JSON response for all session endpoints.
type SessionResponse struct {
	ID       string           `json:"id"`
	Display  string           `json:"display"`
	Operands []string         `json:"operands"`
	Operator string           `json:"operator,omitempty"`
	Notices  []NoticeResponse `json:"notices,omitempty"`
	Ignored  int              `json:"ignored,omitempty"` // unbound keys skipped
}

// KeyStep records one key applied by POST /calculator/evaluate.
type KeyStep struct {
	Key     string `json:"key"`
	Action  string `json:"action"`
	Display string `json:"display"`
}

// EvaluateResponse is the JSON response for POST /calculator/evaluate.
type EvaluateResponse struct {
	Steps    []KeyStep        `json:"steps"`
	Display  string           `json:"display"`
	Operands []string         `json:"operands"`
	Operator string           `json:"operator,omitempty"`
	Notices  []NoticeResponse `json:"notices,omitempty"`
	Ignored  int              `json:"ignored,omitempty"`
}

func noticesResponse(notices []engine.Notice) []NoticeResponse {
	if len(notices) == 0 {
		return nil
	}
	out := make([]NoticeResponse, 0, len(notices))
	for _, n := range notices {
		out = append(out, NoticeResponse{Kind: string(n.Kind), Message: n.Message})
	}
	return out
}

func sessionResponse(id string, e *engine.Engine, notices []engine.Notice) SessionResponse {
	st := e.State()
	return SessionResponse{
		ID:       id,
		Display:  e.Render(),
		Operands: st.Operands,
		Operator: st.Operator.String(),
		Notices:  noticesResponse(notices),
	}
}
