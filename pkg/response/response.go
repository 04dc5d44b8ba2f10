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

var (
	// EmptyRequestBodyResponse is sent when the request body is missing.
	EmptyRequestBodyResponse = Response{
		Status:  StatusError,
		Message: "Request body is empty. Please provide necessary data.",
	}

	// BadRequestResponse is sent when the request body cannot be parsed.
	BadRequestResponse = Response{
		Status:  StatusError,
		Message: "Invalid request body. Please check the data you provided.",
	}

	// ResourceNotFoundResponse is sent when the requested resource doesn't exist.
	ResourceNotFoundResponse = Response{
		Status:  StatusError,
		Message: "The requested resource was not found.",
	}

	// ServerErrorResponse is sent when an unexpected error occurs.
	ServerErrorResponse = Response{
		Status:  StatusError,
		Message: "An internal server error occurred. Please try again later.",
	}
)

// Response is the common JSON envelope returned by the API.
type Response struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Details []any  `json:"details,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// SuccessResponse builds a success envelope with an optional data payload.
// Only the first data argument is used.
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

// RateLimitExceededResponse builds the envelope for denied requests,
// carrying the retry-after hint in seconds.
func RateLimitExceededResponse(retryAfterSeconds int) Response {
	return Response{
		Status:  StatusError,
		Message: fmt.Sprintf("Rate limit exceeded. Please try again in %d seconds.", retryAfterSeconds),
	}
}

type validationError struct {
	Field string `json:"field"`
	Value any    `json:"value"`
	Issue string `json:"issue"`
}

// ValidationErrorResponse builds the envelope for payload validation failures.
func ValidationErrorResponse(err error) Response {
	return Response{
		Status:  StatusError,
		Message: "Validation failed. Please check the data you provided.",
		Details: toAnySlice(getValidationErrors(err)),
	}
}

func getValidationErrors(err error) []validationError {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return nil
	}

	errs := make([]validationError, 0, len(validationErrs))

	for _, err := range validationErrs {
		verr := validationError{
			Field: err.Field(),
			Value: err.Value(),
		}

		switch err.Tag() {
		case "required":
			verr.Issue = "This field is required."
		case "url":
			verr.Issue = "Invalid url."
		default:
			verr.Issue = "Invalid value."
		}

		errs = append(errs, verr)
	}

	return errs
}

func toAnySlice(errs []validationError) []any {
	if len(errs) == 0 {
		return nil
	}

	res := make([]any, 0, len(errs))
	for _, err := range errs {
		res = append(res, err)
	}

	return res
}
