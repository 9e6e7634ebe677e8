// Package pipeline orchestrates the chat flow: validate the request, call
// the completion service once, persist the exchange. The flow is a strict
// left-to-right state machine with no retries, so the external call happens
// at most once per request and partial work is never persisted.
package pipeline

import (
	"context"
	"errors"

	"github.com/qmuntal/stateless"

	"github.com/nicofic01/chatbot-backend/internal/logger"
	"github.com/nicofic01/chatbot-backend/internal/store"
)

// FSM states.
type fsmState stateless.State

var (
	stateValidating fsmState = "Validating"
	stateCompleting fsmState = "Completing"
	statePersisting fsmState = "Persisting"
	stateResponded  fsmState = "Responded" // terminal: reply ready
	stateRejected   fsmState = "Rejected"  // terminal: validation failure
	stateFailed     fsmState = "Failed"    // terminal: upstream or storage failure
)

// FSM triggers.
type fsmTrigger stateless.Trigger

var (
	triggerHandleRequest       fsmTrigger = "HandleRequest"
	triggerValidationPassed    fsmTrigger = "ValidationPassed"
	triggerValidationFailed    fsmTrigger = "ValidationFailed"
	triggerCompletionSucceeded fsmTrigger = "CompletionSucceeded"
	triggerCompletionFailed    fsmTrigger = "CompletionFailed"
	triggerPersistSucceeded    fsmTrigger = "PersistSucceeded"
	triggerPersistFailed       fsmTrigger = "PersistFailed"
)

// Completer performs the single external completion call.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Inserter persists one exchange.
type Inserter interface {
	Insert(ctx context.Context, userMessage, aiResponse, userEmail string) (store.ConversationRecord, error)
}

// Pipeline is the sole coordinator of the chat flow.
type Pipeline struct {
	validator *Validator
	completer Completer
	inserter  Inserter
}

// New wires the pipeline's collaborators. All are required.
func New(validator *Validator, completer Completer, inserter Inserter) *Pipeline {
	return &Pipeline{
		validator: validator,
		completer: completer,
		inserter:  inserter,
	}
}

// Handle runs one chat request through the state machine and returns the
// generated reply. On any failure the typed error of the failing stage is
// returned and no record exists for the request, except a persistence
// failure which happens after the completion succeeded; there the generated
// text is discarded and the caller receives the storage error.
func (p *Pipeline) Handle(ctx context.Context, req ChatRequest) (string, error) {
	type fsmContext struct {
		reply     string
		record    store.ConversationRecord
		lastError error
	}
	fsmCtx := &fsmContext{}

	fsm := stateless.NewStateMachine(stateValidating)

	fsm.Configure(stateValidating).
		PermitReentry(triggerHandleRequest). // re-entry runs OnEntry for the initial fire
		OnEntry(func(ctx context.Context, args ...any) error {
			if err := p.validator.Check(req); err != nil {
				fsmCtx.lastError = err
				return fsm.FireCtx(ctx, triggerValidationFailed)
			}
			return fsm.FireCtx(ctx, triggerValidationPassed)
		}).
		Permit(triggerValidationPassed, stateCompleting).
		Permit(triggerValidationFailed, stateRejected)

	fsm.Configure(stateCompleting).
		OnEntry(func(ctx context.Context, args ...any) error {
			reply, err := p.completer.Complete(ctx, req.Message)
			if err != nil {
				fsmCtx.lastError = err
				return fsm.FireCtx(ctx, triggerCompletionFailed)
			}
			fsmCtx.reply = reply
			return fsm.FireCtx(ctx, triggerCompletionSucceeded)
		}).
		Permit(triggerCompletionSucceeded, statePersisting).
		Permit(triggerCompletionFailed, stateFailed)

	fsm.Configure(statePersisting).
		OnEntry(func(ctx context.Context, args ...any) error {
			record, err := p.inserter.Insert(ctx, req.Message, fsmCtx.reply, req.Email)
			if err != nil {
				fsmCtx.lastError = err
				return fsm.FireCtx(ctx, triggerPersistFailed)
			}
			fsmCtx.record = record
			return fsm.FireCtx(ctx, triggerPersistSucceeded)
		}).
		Permit(triggerPersistSucceeded, stateResponded).
		Permit(triggerPersistFailed, stateFailed)

	fsm.Configure(stateResponded).
		OnEntry(func(ctx context.Context, args ...any) error {
			logger.L.Debug("chat request completed", "record_id", fsmCtx.record.ID)
			return nil
		})

	fsm.Configure(stateRejected).
		OnEntry(func(ctx context.Context, args ...any) error {
			logger.L.Info("chat request rejected", "error", fsmCtx.lastError)
			return nil
		})

	fsm.Configure(stateFailed).
		OnEntry(func(ctx context.Context, args ...any) error {
			logger.L.Error("chat request failed", "error", fsmCtx.lastError)
			return nil
		})

	// The initial fire re-enters Validating; every subsequent transition
	// happens synchronously inside the nested Fire calls above.
	if err := fsm.FireCtx(ctx, triggerHandleRequest); err != nil {
		if fsmCtx.lastError != nil {
			return "", fsmCtx.lastError
		}
		return "", err
	}

	currentState, err := fsm.State(ctx)
	if err != nil {
		return "", err
	}
	switch currentState {
	case stateResponded:
		return fsmCtx.reply, nil
	case stateRejected, stateFailed:
		if fsmCtx.lastError != nil {
			return "", fsmCtx.lastError
		}
		return "", errors.New("pipeline ended in a failure state without a specific error")
	default:
		return "", errors.New("pipeline ended in an unexpected state")
	}
}
