package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrSubjectNotFound is returned when a referenced subject does not exist.
	ErrSubjectNotFound = errors.New("subject not found")
	// ErrChapterNotFound is returned when a referenced chapter does not exist.
	ErrChapterNotFound = errors.New("chapter not found")
	// ErrTopicNotFound is returned when a referenced topic does not exist.
	ErrTopicNotFound = errors.New("topic not found")
	// ErrQuestionNotFound indicates a question ID is absent from the topic or question order.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrUserNotFound is returned when a referenced user does not exist.
	ErrUserNotFound = errors.New("user not found")
	// ErrCollegeNotFound is returned when a referenced college does not exist.
	ErrCollegeNotFound = errors.New("college not found")
	// ErrPhoneTaken is returned when registering a phone number that already has an account.
	ErrPhoneTaken = errors.New("phone number already registered")
	// ErrUpstreamParse indicates generated text never parsed as the expected JSON shape.
	ErrUpstreamParse = errors.New("generated content did not match expected shape")
)

// ValidationError reports malformed or missing input shape. It is raised
// before any storage write.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return "validation: " + e.Msg
}

// Validationf builds a ValidationError with a formatted message.
func Validationf(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsNotFound reports whether err is one of the entity-absence sentinels.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrSubjectNotFound) ||
		errors.Is(err, ErrChapterNotFound) ||
		errors.Is(err, ErrTopicNotFound) ||
		errors.Is(err, ErrQuestionNotFound) ||
		errors.Is(err, ErrUserNotFound) ||
		errors.Is(err, ErrCollegeNotFound)
}
