package services

import "errors"

var (
	// ErrFormNotFound is returned when the referenced form does not exist.
	ErrFormNotFound = errors.New("form not found")
	// ErrNotQuizForm is returned when a quiz submission targets a non-quiz form.
	ErrNotQuizForm = errors.New("this is not a quiz form")
	// ErrQuizForm is returned when a quiz form is submitted through the
	// generic path; quiz submissions must be scored, so unscored rows would
	// skew the analytics.
	ErrQuizForm = errors.New("quiz responses must use the quiz submission endpoint")
	// ErrDuplicateSubmission is returned when an email has already submitted
	// a response to the same quiz.
	ErrDuplicateSubmission = errors.New("this email has already submitted a response for this quiz")
	// ErrNotOwner is returned when a requester asks for data on a form they
	// do not own.
	ErrNotOwner = errors.New("you do not own this form")
)

type ValidationKind string

const (
	MissingField     ValidationKind = "missing_field"
	MalformedPayload ValidationKind = "malformed_payload"
	InvalidEmail     ValidationKind = "invalid_email"
)

// ValidationError rejects a submission before any side effect: no record is
// created, no score computed, no notification sent.
type ValidationError struct {
	Kind    ValidationKind
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func newValidationError(kind ValidationKind, message string) error {
	return &ValidationError{Kind: kind, Message: message}
}
