package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nicofic01/chatbot-backend/internal/fault"
	"github.com/nicofic01/chatbot-backend/internal/store"
)

type mockCompleter struct {
	calls int
	reply string
	err   error
}

func (m *mockCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	m.calls++
	if m.err != nil {
		return "", m.err
	}
	return m.reply, nil
}

type mockInserter struct {
	inserted []store.ConversationRecord
	err      error
}

func (m *mockInserter) Insert(ctx context.Context, userMessage, aiResponse, userEmail string) (store.ConversationRecord, error) {
	if m.err != nil {
		return store.ConversationRecord{}, m.err
	}
	rec := store.ConversationRecord{
		ID:          int64(len(m.inserted) + 1),
		UserMessage: userMessage,
		AIResponse:  aiResponse,
		UserEmail:   userEmail,
	}
	m.inserted = append(m.inserted, rec)
	return rec, nil
}

func TestHandle_Success(t *testing.T) {
	completer := &mockCompleter{reply: "We bake to bring people together."}
	inserter := &mockInserter{}
	p := New(NewValidator(false), completer, inserter)

	reply, err := p.Handle(context.Background(), ChatRequest{Message: "Write a mission statement for a bakery"})
	require.NoError(t, err)
	require.Equal(t, "We bake to bring people together.", reply)

	require.Equal(t, 1, completer.calls)
	require.Len(t, inserter.inserted, 1)
	require.Equal(t, "Write a mission statement for a bakery", inserter.inserted[0].UserMessage)
	require.Equal(t, reply, inserter.inserted[0].AIResponse)
}

func TestHandle_ValidationFailure_NoExternalCall(t *testing.T) {
	completer := &mockCompleter{reply: "never used"}
	inserter := &mockInserter{}
	p := New(NewValidator(false), completer, inserter)

	_, err := p.Handle(context.Background(), ChatRequest{Message: ""})

	var validationErr *fault.ValidationError
	require.ErrorAs(t, err, &validationErr)
	require.Equal(t, "missing message", validationErr.Reason)
	require.Zero(t, completer.calls, "no external call on validation failure")
	require.Empty(t, inserter.inserted, "no record on validation failure")
}

func TestHandle_RequireEmailVariant(t *testing.T) {
	completer := &mockCompleter{reply: "ok"}
	inserter := &mockInserter{}
	p := New(NewValidator(true), completer, inserter)

	_, err := p.Handle(context.Background(), ChatRequest{Message: "hello"})
	var validationErr *fault.ValidationError
	require.ErrorAs(t, err, &validationErr)
	require.Equal(t, "missing email", validationErr.Reason)

	reply, err := p.Handle(context.Background(), ChatRequest{Message: "hello", Email: "user@example.com"})
	require.NoError(t, err)
	require.Equal(t, "ok", reply)
	require.Equal(t, "user@example.com", inserter.inserted[0].UserEmail)
}

func TestHandle_UpstreamFailure_NothingPersisted(t *testing.T) {
	completer := &mockCompleter{err: &fault.UpstreamError{Cause: fault.CauseTransport, Err: errors.New("connection refused")}}
	inserter := &mockInserter{}
	p := New(NewValidator(false), completer, inserter)

	_, err := p.Handle(context.Background(), ChatRequest{Message: "hello"})

	var upstream *fault.UpstreamError
	require.ErrorAs(t, err, &upstream)
	require.Equal(t, 1, completer.calls, "exactly one attempt, no retry")
	require.Empty(t, inserter.inserted, "partial work is not persisted")
}

func TestHandle_PersistFailure_ReplyDiscarded(t *testing.T) {
	completer := &mockCompleter{reply: "generated but lost"}
	inserter := &mockInserter{err: &fault.StorageError{Op: "insert", Err: errors.New("disk full")}}
	p := New(NewValidator(false), completer, inserter)

	reply, err := p.Handle(context.Background(), ChatRequest{Message: "hello"})

	var storageErr *fault.StorageError
	require.ErrorAs(t, err, &storageErr)
	require.Empty(t, reply, "generated text is discarded on persistence failure")
	require.Equal(t, 1, completer.calls, "no compensating retry of persistence")
}
