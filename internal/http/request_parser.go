// Package http provides HTTP server and handler implementations.
//
// This file implements utilities for parsing and validating HTTP request data.
// Bodies may be JSON objects or form-encoded; both are read through the same
// accessor so handlers do not care which one a client sent.

package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"expenses/internal/core"
	"expenses/internal/services"

	"github.com/go-chi/chi/v5"
)

const maxBodyBytes = 1 << 20

var errMalformedID = errors.New("malformed id")

// RequestBodyParser handles different content types for request body parsing.
type RequestBodyParser struct {
	body        []byte
	contentType string
	jsonData    map[string]interface{}
	formData    url.Values
	parsed      bool
	err         error
}

// NewRequestBodyParser reads the body once and keeps it for parsing.
func NewRequestBodyParser(r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{
		contentType: r.Header.Get("Content-Type"),
	}
	p.body, p.err = io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	return p
}

// Parse decodes the body as JSON when it looks like a JSON object, and as a
// form otherwise.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true

	if p.err != nil {
		return p.err
	}

	trimmed := strings.TrimSpace(string(p.body))
	if trimmed == "" {
		p.formData = url.Values{}
		return nil
	}

	if trimmed[0] == '{' || strings.HasPrefix(p.contentType, "application/json") {
		p.jsonData = make(map[string]interface{})
		if err := json.Unmarshal([]byte(trimmed), &p.jsonData); err != nil {
			p.err = fmt.Errorf("decode json body: %w", err)
			return p.err
		}
		return nil
	}

	p.formData, p.err = url.ParseQuery(trimmed)
	return p.err
}

// Get returns a sanitized, trimmed value from the parsed data.
func (p *RequestBodyParser) Get(key string) string {
	return strings.TrimSpace(sanitizeInput(p.GetRaw(key)))
}

// GetRaw returns a value without trimming or sanitizing. Passwords are read
// this way so that they are compared exactly as typed.
func (p *RequestBodyParser) GetRaw(key string) string {
	if p.jsonData != nil {
		if val, ok := p.jsonData[key]; ok {
			return stringValue(val)
		}
		return ""
	}
	if p.formData != nil {
		return p.formData.Get(key)
	}
	return ""
}

func stringValue(v interface{}) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// parseBody parses the request body or returns a 400 response.
func parseBody(r *http.Request) (*RequestBodyParser, *ResponseBuilder) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		return nil, BadRequestError("Malformed request body")
	}
	return p, nil
}

// parseExpenseInput reads date, category, amount and note fields.
// A negative amount is reported as ErrInvalidAmount so the service decides
// whether zero is acceptable.
func parseExpenseInput(p *RequestBodyParser) (services.ExpenseInput, error) {
	var in services.ExpenseInput

	d, err := core.ParseDate(p.Get("date"))
	if err != nil {
		return in, err
	}
	in.Date = d

	amount := p.Get("amount")
	if strings.HasPrefix(amount, "-") {
		return in, core.ErrInvalidAmount
	}
	in.Amount, err = core.ParseMoney(amount)
	if err != nil {
		return in, err
	}

	in.Category = p.Get("category")
	in.Note = p.Get("note")
	return in, nil
}

// parseAmount reads a non-negative amount field.
func parseAmount(p *RequestBodyParser, key string) (core.Money, error) {
	return core.ParseMoney(p.Get(key))
}

// pathID parses the {id} URL parameter.
func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, errMalformedID
	}
	return id, nil
}

// pathMonth parses the {month} URL parameter.
func pathMonth(r *http.Request) (core.Month, error) {
	return core.ParseMonth(chi.URLParam(r, "month"))
}
