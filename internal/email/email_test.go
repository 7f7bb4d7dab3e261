package email

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSender struct {
	sent []Message
	id   string
	err  error
}

func (s *stubSender) Send(_ context.Context, msg Message) (string, error) {
	s.sent = append(s.sent, msg)
	return s.id, s.err
}

func newHandler(sender Sender) *Handler {
	return NewHandler(sender, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestRequestValidate(t *testing.T) {
	full := &Message{From: "noreply@example.com", To: "ops@example.com", Subject: "Deploy", Text: "done"}

	tests := []struct {
		name    string
		req     *Request
		message string
	}{
		{"nil request", nil, "invalid or missing arguments"},
		{"missing method", &Request{Body: full}, "invalid or missing arguments"},
		{"wrong method", &Request{Method: "GET", Body: full}, "Service operation not supported"},
		{"lowercase method", &Request{Method: "post", Body: full}, "Service operation not supported"},
		{"missing body", &Request{Method: "POST"}, "Required params - from, to, subject missing"},
		{"missing from", &Request{Method: "POST", Body: &Message{To: "a@example.com", Subject: "s"}}, "Required params - from, to, subject missing"},
		{"blank to", &Request{Method: "POST", Body: &Message{From: "f@example.com", To: " , ", Subject: "s"}}, "Required params - from, to, subject missing"},
		{"missing subject", &Request{Method: "POST", Body: &Message{From: "f@example.com", To: "a@example.com"}}, "Required params - from, to, subject missing"},
		{"valid", &Request{Method: "POST", Body: full}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.message == "" {
				require.NoError(t, err)
				return
			}
			var e *Error
			require.ErrorAs(t, err, &e)
			assert.Equal(t, TypeBadRequest, e.Type)
			assert.Equal(t, "101", e.Code)
			assert.Equal(t, tt.message, e.Message)
		})
	}
}

func TestMessageRecipients(t *testing.T) {
	m := Message{To: "a@example.com, b@example.com,,c@example.com "}
	assert.Equal(t, []string{"a@example.com", "b@example.com", "c@example.com"}, m.Recipients())
}

func TestErrorRendersJSON(t *testing.T) {
	err := badRequest("Service operation not supported")
	assert.JSONEq(t, `{"errorType":"BadRequest","code":"101","message":"Service operation not supported"}`, err.Error())
}

func TestHandle_Sends(t *testing.T) {
	sender := &stubSender{id: "0100018c-abc"}
	h := newHandler(sender)

	var req Request
	require.NoError(t, json.Unmarshal([]byte(`{"method":"POST","body":{"from":"noreply@example.com","to":"ops@example.com","subject":"Deploy","text":"done"}}`), &req))

	resp, err := h.Handle(context.Background(), &req)
	require.NoError(t, err)
	assert.Equal(t, "0100018c-abc", resp.MessageID)
	require.Len(t, sender.sent, 1)
	assert.Equal(t, "Deploy", sender.sent[0].Subject)
	assert.Equal(t, "done", sender.sent[0].Text)
}

func TestHandle_RejectsWithoutSending(t *testing.T) {
	sender := &stubSender{}
	_, err := newHandler(sender).Handle(context.Background(), &Request{Method: "DELETE"})

	var e *Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, TypeBadRequest, e.Type)
	assert.Empty(t, sender.sent)
}

func TestHandle_SendFailure(t *testing.T) {
	sender := &stubSender{err: errors.New("Email address is not verified")}
	req := &Request{Method: "POST", Body: &Message{From: "f@example.com", To: "a@example.com", Subject: "s"}}

	_, err := newHandler(sender).Handle(context.Background(), req)

	var e *Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, TypeInternalServerError, e.Type)
	assert.Equal(t, "101", e.Code)
	assert.Equal(t, "Email address is not verified", e.Message)
}
