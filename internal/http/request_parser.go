package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"expensetracker/internal/services"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 1 << 20

// expenseRequest is the body of POST /api/expenses and PUT /api/expenses/{id}.
// Cost stays text: the monetary codec parses it.
type expenseRequest struct {
	Title    string `json:"title" validate:"required,max=200"`
	Category string `json:"category" validate:"max=100"`
	Cost     string `json:"cost" validate:"required,max=32"`
	Store    string `json:"store" validate:"required,max=200"`
	Date     string `json:"date" validate:"omitempty,datetime=2006-01-02"`
	Currency string `json:"currency" validate:"omitempty,len=3,alpha"`
}

func (r expenseRequest) input() services.ExpenseInput {
	return services.ExpenseInput{
		Title:    sanitizeInput(r.Title),
		Category: sanitizeInput(r.Category),
		Cost:     strings.TrimSpace(r.Cost),
		Store:    sanitizeInput(r.Store),
		Date:     strings.TrimSpace(r.Date),
		Currency: strings.TrimSpace(r.Currency),
	}
}

type homeCurrencyRequest struct {
	Currency string `json:"currency" validate:"required,len=3,alpha"`
}

type displayRequest struct {
	ShowInHomeCurrency *bool `json:"show_in_home_currency" validate:"required"`
}

// convertQuery holds the query parameters of GET /api/convert.
type convertQuery struct {
	Amount string `validate:"required,max=32"`
	From   string `validate:"required,len=3,alpha"`
	To     string `validate:"required,len=3,alpha"`
}

// requestError is a malformed request; it maps to 400.
type requestError struct {
	msg    string
	fields map[string]string
}

func (e *requestError) Error() string {
	return e.msg
}

func badRequest(format string, args ...any) error {
	return &requestError{msg: fmt.Sprintf(format, args...)}
}

// RequestParser decodes and validates request input.
type RequestParser struct {
	validate *validator.Validate
}

func NewRequestParser() *RequestParser {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return strings.ToLower(f.Name)
		}
		return name
	})
	return &RequestParser{validate: v}
}

// DecodeJSON reads a single JSON object from r into dst and validates it.
// Unknown fields are rejected.
func (p *RequestParser) DecodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return badRequest("invalid JSON body: %v", err)
	}
	if dec.More() {
		return badRequest("invalid JSON body: trailing data")
	}
	return p.Validate(dst)
}

// Validate runs struct tag validation and turns failures into a
// requestError keyed by field name.
func (p *RequestParser) Validate(v any) error {
	err := p.validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = describe(fe)
	}
	return &requestError{msg: "validation failed", fields: fields}
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "len":
		return "must be exactly " + fe.Param() + " characters"
	case "alpha":
		return "must contain letters only"
	case "datetime":
		return "must be a date formatted as " + fe.Param()
	default:
		return "is invalid (" + fe.Tag() + ")"
	}
}

// ParseConvertQuery reads amount, from and to from the query string.
func (p *RequestParser) ParseConvertQuery(r *http.Request) (convertQuery, error) {
	q := r.URL.Query()
	cq := convertQuery{
		Amount: strings.TrimSpace(q.Get("amount")),
		From:   strings.TrimSpace(q.Get("from")),
		To:     strings.TrimSpace(q.Get("to")),
	}
	return cq, p.Validate(cq)
}

// pathID parses the {id} wildcard.
func pathID(r *http.Request) (int64, error) {
	raw := r.PathValue("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, badRequest("invalid expense id %q", raw)
	}
	return id, nil
}

// sanitizeInput removes control characters except tab, newline and carriage
// return, and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
