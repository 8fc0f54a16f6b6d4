// Package response defines the uniform JSON envelope returned by the API.
package response

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

var EmptyRequestBodyResponse = Response{
	Status:  StatusError,
	Message: "Request body is empty. Please provide necessary data.",
}

var BadRequestResponse = Response{
	Status:  StatusError,
	Message: "Invalid request data.",
}

var ResourceNotFoundResponse = Response{
	Status:  StatusError,
	Message: "The requested resource was not found.",
}

var ShortCodeExistsResponse = Response{
	Status:  StatusError,
	Message: "The short code is already in use. Please choose another one.",
}

var URLNotAllowedResponse = Response{
	Status:  StatusError,
	Message: "The provided URL is not allowed.",
}

var NothingToExportResponse = Response{
	Status:  StatusError,
	Message: "There are no links to export.",
}

var ServerErrorResponse = Response{
	Status:  StatusError,
	Message: "An internal server error occurred. Please try again later.",
}

type Response struct {
	Status  string            `json:"status"`
	Message string            `json:"message"`
	Details []ValidationError `json:"details,omitempty"`
	Data    any               `json:"data,omitempty"`
}

// ValidationError describes one rejected input field.
type ValidationError struct {
	Field string `json:"field"`
	Value any    `json:"value,omitempty"`
	Issue string `json:"issue"`
}

func SuccessResponse(msg string, data ...any) Response {
	resp := Response{
		Status:  StatusSuccess,
		Message: msg,
	}

	if len(data) > 0 {
		resp.Data = data[0]
	}

	return resp
}

// FieldErrorResponse reports a single-field validation failure detected by
// the business layer.
func FieldErrorResponse(field, issue string) Response {
	return Response{
		Status:  StatusError,
		Message: "Validation failed.",
		Details: []ValidationError{
			{Field: field, Issue: issue},
		},
	}
}

// ValidationErrorResponse maps validator.ValidationErrors to a field-tagged
// error envelope. Any other error yields the generic bad-request envelope.
func ValidationErrorResponse(err error) Response {
	details := getValidationErrors(err)
	if details == nil {
		return BadRequestResponse
	}

	return Response{
		Status:  StatusError,
		Message: "Validation failed.",
		Details: details,
	}
}

func getValidationErrors(err error) []ValidationError {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}

	details := make([]ValidationError, 0, len(verrs))
	for _, fe := range verrs {
		issue := "Invalid value."

		switch fe.Tag() {
		case "required":
			issue = "This field is required."
		case "url":
			issue = "Invalid url."
		case "min":
			issue = fmt.Sprintf("Must be at least %s characters.", fe.Param())
		case "max":
			issue = fmt.Sprintf("Must be at most %s characters.", fe.Param())
		}

		details = append(details, ValidationError{
			Field: fe.Field(),
			Value: fe.Value(),
			Issue: issue,
		})
	}

	return details
}
