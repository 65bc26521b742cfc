// Package response defines the JSON error envelope returned by the API.
package response

import (
	"errors"

	"github.com/go-playground/validator/v10"
)

const StatusError = "error"

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type ErrorResponse struct {
	Status  string            `json:"status"`
	Message string            `json:"message"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

var (
	EmptyRequestBody   = Error("empty request body")
	InvalidRequestBody = Error("invalid request body")
	ServerError        = Error("server error occurred")
)

func Error(msg string) ErrorResponse {
	return ErrorResponse{
		Status:  StatusError,
		Message: msg,
	}
}

// Validation converts the field errors reported by validator into an
// ErrorResponse. Errors of any other type produce an empty field list.
func Validation(err error) ErrorResponse {
	resp := Error("validation error")
	resp.Errors = validationErrors(err)
	return resp
}

func validationErrors(err error) []ValidationError {
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) {
		return nil
	}

	out := make([]ValidationError, 0, len(errs))
	for _, e := range errs {
		out = append(out, ValidationError{
			Field:   e.Field(),
			Message: messageForTag(e.Tag()),
		})
	}

	return out
}

func messageForTag(tag string) string {
	switch tag {
	case "required":
		return "this field is required"
	case "url", "http_url":
		return "invalid url"
	case "max":
		return "value is too long"
	default:
		return "invalid value"
	}
}
