// Package http provides HTTP server and handler implementations.
//
// This file implements a builder for JSON responses. Bodies carry either a
// data payload with an optional user-facing message, or an error message.

package http

import (
	"encoding/json"
	"net/http"
)

// NotificationType classifies a user-facing message.
type NotificationType string

const (
	NotificationSuccess NotificationType = "success"
	NotificationError   NotificationType = "error"
	NotificationWarning NotificationType = "warning"
	NotificationInfo    NotificationType = "info"
)

// Notification is a message meant to be shown to the user.
type Notification struct {
	Type NotificationType `json:"type"`
	Text string           `json:"text"`
}

type responseBody struct {
	Data     interface{}    `json:"data,omitempty"`
	Messages []Notification `json:"messages,omitempty"`
	Error    string         `json:"error,omitempty"`
}

// ResponseBuilder provides a fluent API for building JSON responses.
type ResponseBuilder struct {
	statusCode int
	body       responseBody
	headers    map[string]string
	cookies    []*http.Cookie
	noBody     bool
}

// NewResponse creates a builder with a 200 status.
func NewResponse() *ResponseBuilder {
	return &ResponseBuilder{
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

func (b *ResponseBuilder) Status(code int) *ResponseBuilder {
	b.statusCode = code
	return b
}

// Data sets the payload.
func (b *ResponseBuilder) Data(v interface{}) *ResponseBuilder {
	b.body.Data = v
	return b
}

// Notify appends a user-facing message.
func (b *ResponseBuilder) Notify(t NotificationType, text string) *ResponseBuilder {
	b.body.Messages = append(b.body.Messages, Notification{Type: t, Text: text})
	return b
}

func (b *ResponseBuilder) Success(text string) *ResponseBuilder {
	return b.Notify(NotificationSuccess, text)
}

func (b *ResponseBuilder) Header(name, value string) *ResponseBuilder {
	b.headers[name] = value
	return b
}

func (b *ResponseBuilder) Cookie(c *http.Cookie) *ResponseBuilder {
	b.cookies = append(b.cookies, c)
	return b
}

// NoContent sends the status without a body.
func (b *ResponseBuilder) NoContent() *ResponseBuilder {
	b.statusCode = http.StatusNoContent
	b.noBody = true
	return b
}

// Write sends the built response.
func (b *ResponseBuilder) Write(w http.ResponseWriter) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	for _, c := range b.cookies {
		http.SetCookie(w, c)
	}

	if b.noBody {
		w.WriteHeader(b.statusCode)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(b.statusCode)
	_ = json.NewEncoder(w).Encode(b.body)
}

// ErrorResponse creates a response carrying only an error message.
func ErrorResponse(statusCode int, message string) *ResponseBuilder {
	b := NewResponse().Status(statusCode)
	b.body.Error = message
	return b
}

func BadRequestError(message string) *ResponseBuilder {
	return ErrorResponse(http.StatusBadRequest, message)
}

func UnauthorizedError(message string) *ResponseBuilder {
	return ErrorResponse(http.StatusUnauthorized, message)
}

func UnprocessableEntityError(message string) *ResponseBuilder {
	return ErrorResponse(http.StatusUnprocessableEntity, message)
}

func InternalServerError(message string) *ResponseBuilder {
	return ErrorResponse(http.StatusInternalServerError, message)
}

func NotFoundError(message string) *ResponseBuilder {
	return ErrorResponse(http.StatusNotFound, message)
}

func ServiceUnavailableError(message string) *ResponseBuilder {
	return ErrorResponse(http.StatusServiceUnavailable, message)
}

func MethodNotAllowedError(allowedMethods string) *ResponseBuilder {
	return ErrorResponse(http.StatusMethodNotAllowed, "method not allowed").
		Header("Allow", allowedMethods)
}
