// Package email validates and dispatches notification email requests.
package email

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
)

// Error types reported to callers.
const (
	TypeBadRequest          = "BadRequest"
	TypeInternalServerError = "InternalServerError"
)

const codeGeneric = "101"

// Error is a request failure in the shape API callers expect.
type Error struct {
	Type    string `json:"errorType"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error renders the JSON form, which invocation error mappings match on.
func (e *Error) Error() string {
	b, _ := json.Marshal(e)
	return string(b)
}

func badRequest(message string) *Error {
	return &Error{Type: TypeBadRequest, Code: codeGeneric, Message: message}
}

func internalError(message string) *Error {
	return &Error{Type: TypeInternalServerError, Code: codeGeneric, Message: message}
}

// Request is the invocation payload.
type Request struct {
	Method string   `json:"method"`
	Body   *Message `json:"body"`
}

// Message is the email to send. To holds one or more comma-separated
// addresses.
type Message struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	Text    string `json:"text"`
}

// Recipients splits To into trimmed addresses.
func (m Message) Recipients() []string {
	var out []string
	for _, addr := range strings.Split(m.To, ",") {
		if addr = strings.TrimSpace(addr); addr != "" {
			out = append(out, addr)
		}
	}
	return out
}

// Validate checks a request in order: presence, method, required fields.
func (r *Request) Validate() error {
	if r == nil || r.Method == "" {
		return badRequest("invalid or missing arguments")
	}
	if r.Method != "POST" {
		return badRequest("Service operation not supported")
	}
	if r.Body == nil || r.Body.From == "" || len(r.Body.Recipients()) == 0 || r.Body.Subject == "" {
		return badRequest("Required params - from, to, subject missing")
	}
	return nil
}

// Sender delivers a validated message and returns the provider message id.
type Sender interface {
	Send(ctx context.Context, msg Message) (string, error)
}

// Response reports a sent message.
type Response struct {
	MessageID string `json:"messageId"`
}

// Handler validates requests and hands them to a Sender.
type Handler struct {
	sender Sender
	logger *slog.Logger
}

func NewHandler(sender Sender, logger *slog.Logger) *Handler {
	return &Handler{sender: sender, logger: logger}
}

// Handle returns *Error for every failure.
func (h *Handler) Handle(ctx context.Context, req *Request) (Response, error) {
	if err := req.Validate(); err != nil {
		h.logger.Warn("email request rejected", "error", err)
		return Response{}, err
	}

	id, err := h.sender.Send(ctx, *req.Body)
	if err != nil {
		h.logger.Error("error in sending email", "error", err, "subject", req.Body.Subject)
		return Response{}, internalError(err.Error())
	}

	h.logger.Info("successfully sent email", "message_id", id, "recipients", len(req.Body.Recipients()))
	return Response{MessageID: id}, nil
}
