package pipeline

import "github.com/nicofic01/chatbot-backend/internal/fault"

// ChatRequest is the already-parsed inbound chat payload.
type ChatRequest struct {
	Message string `json:"message"`
	Email   string `json:"email,omitempty"`
}

// Validator checks inbound payload shape before any external call is made.
// It is a pure check with no side effects.
type Validator struct {
	requireEmail bool
}

// NewValidator creates a validator. With requireEmail set, requests without
// a submitter email tag are rejected.
func NewValidator(requireEmail bool) *Validator {
	return &Validator{requireEmail: requireEmail}
}

// Check returns a *fault.ValidationError when req is malformed.
func (v *Validator) Check(req ChatRequest) error {
	if req.Message == "" {
		return &fault.ValidationError{Reason: "missing message"}
	}
	if v.requireEmail && req.Email == "" {
		return &fault.ValidationError{Reason: "missing email"}
	}
	return nil
}
