// Package http serves the grid form.
//
// Responses to HTMX requests are assembled with HTMXResponseBuilder: a
// status, a body and the client events raised through HX-Trigger.

package http

import (
	"encoding/json"
	"html/template"
	"net/http"
	"strings"

	"yeargrid/internal/core"
)

// Client events raised through HX-Trigger.
const (
	eventNotification  = "show-notification"
	eventGridValidated = "grid:validated"
	eventFormReset     = "form:reset"
)

// NotificationType selects the style of a toast shown by app.js.
type NotificationType string

const (
	NotificationSuccess NotificationType = "success"
	NotificationError   NotificationType = "error"
	NotificationWarning NotificationType = "warning"
)

type notification struct {
	Type     NotificationType `json:"type"`
	Message  string           `json:"message"`
	Duration int              `json:"duration"`
}

type gridValidated struct {
	Valid      bool  `json:"valid"`
	Violations int   `json:"violations"`
	Tables     []int `json:"tables,omitempty"`
}

// HTMXResponseBuilder collects a response before it is written.
type HTMXResponseBuilder struct {
	events  map[string]any
	status  int
	body    []byte
	headers http.Header
}

// NewHTMXResponse starts a 200 response without events.
func NewHTMXResponse() *HTMXResponseBuilder {
	return &HTMXResponseBuilder{
		events:  make(map[string]any),
		status:  http.StatusOK,
		headers: make(http.Header),
	}
}

func (b *HTMXResponseBuilder) Status(code int) *HTMXResponseBuilder {
	b.status = code
	return b
}

// Trigger raises event on the client with data as its detail.
// A later trigger of the same event replaces the earlier one.
func (b *HTMXResponseBuilder) Trigger(event string, data any) *HTMXResponseBuilder {
	b.events[event] = data
	return b
}

// TriggerGridValidated reports the outcome of a submit and which tables
// were rejected.
func (b *HTMXResponseBuilder) TriggerGridValidated(vs core.Violations) *HTMXResponseBuilder {
	ev := gridValidated{Valid: len(vs) == 0, Violations: len(vs), Tables: rejectedTables(vs)}
	return b.Trigger(eventGridValidated, ev)
}

func (b *HTMXResponseBuilder) TriggerFormReset() *HTMXResponseBuilder {
	return b.Trigger(eventFormReset, struct{}{})
}

// TriggerNotification shows a toast for durationMs milliseconds.
func (b *HTMXResponseBuilder) TriggerNotification(kind NotificationType, message string, durationMs int) *HTMXResponseBuilder {
	return b.Trigger(eventNotification, notification{Type: kind, Message: message, Duration: durationMs})
}

func (b *HTMXResponseBuilder) TriggerSuccessNotification(message string) *HTMXResponseBuilder {
	return b.TriggerNotification(NotificationSuccess, message, 3000)
}

func (b *HTMXResponseBuilder) TriggerErrorNotification(message string) *HTMXResponseBuilder {
	return b.TriggerNotification(NotificationError, message, 5000)
}

func (b *HTMXResponseBuilder) Header(name, value string) *HTMXResponseBuilder {
	b.headers.Set(name, value)
	return b
}

// HTML sets an already rendered HTML body.
func (b *HTMXResponseBuilder) HTML(body []byte) *HTMXResponseBuilder {
	b.headers.Set("Content-Type", "text/html; charset=utf-8")
	b.body = body
	return b
}

// Text sets a plain text body.
func (b *HTMXResponseBuilder) Text(s string) *HTMXResponseBuilder {
	b.headers.Set("Content-Type", "text/plain; charset=utf-8")
	b.body = []byte(s)
	return b
}

// Write sends the response. Events that cannot be encoded are dropped.
func (b *HTMXResponseBuilder) Write(w http.ResponseWriter) {
	for name, values := range b.headers {
		w.Header()[name] = values
	}
	if len(b.events) > 0 {
		if data, err := json.Marshal(b.events); err == nil {
			w.Header().Set("HX-Trigger", string(data))
		}
	}

	w.WriteHeader(b.status)
	if len(b.body) > 0 {
		_, _ = w.Write(b.body)
	}
}

// ErrorResponse is an escaped error fragment with the given status.
func ErrorResponse(status int, message string) *HTMXResponseBuilder {
	return NewHTMXResponse().
		Status(status).
		HTML([]byte(`<p class="error" role="alert">` + template.HTMLEscapeString(message) + `</p>`))
}

func BadRequestError(message string) *HTMXResponseBuilder {
	return ErrorResponse(http.StatusBadRequest, message)
}

func InternalServerError(message string) *HTMXResponseBuilder {
	return ErrorResponse(http.StatusInternalServerError, message)
}

func NotFoundError(message string) *HTMXResponseBuilder {
	return ErrorResponse(http.StatusNotFound, message)
}

// MethodNotAllowedError is an empty 405 listing the allowed methods.
func MethodNotAllowedError(allowed ...string) *HTMXResponseBuilder {
	return NewHTMXResponse().
		Status(http.StatusMethodNotAllowed).
		Header("Allow", strings.Join(allowed, ", "))
}
