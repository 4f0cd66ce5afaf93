package apperrors

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

// Error is an expected, user-facing outcome carrying a machine-readable
// reason code. Anything else bubbling out of a service is treated as an
// internal failure and rendered as a bare 500.
type Error struct {
	Code    string
	Status  int
	Message string
	Data    interface{}
}

func (e *Error) Error() string {
	return e.Message
}

// New builds an Error with the given reason code, HTTP status and message.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// WithData returns a copy of e carrying extra payload for the client,
// e.g. the course price on a PAYMENT_REQUIRED denial.
func (e *Error) WithData(data interface{}) *Error {
	return &Error{Code: e.Code, Status: e.Status, Message: e.Message, Data: data}
}

// AsAppError unwraps err into an *Error if it is one.
func AsAppError(err error) (*Error, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

var (
	ErrCourseNotFound     = New("NOT_FOUND", fiber.StatusNotFound, "Course not found or not active!")
	ErrUserNotFound       = New("NOT_FOUND", fiber.StatusNotFound, "User not found!")
	ErrReviewNotFound     = New("NOT_FOUND", fiber.StatusNotFound, "Review not found!")
	ErrPaymentNotFound    = New("PAYMENT_NOT_FOUND", fiber.StatusNotFound, "No matching payment order found!")
	ErrCourseFree         = New("COURSE_FREE", fiber.StatusBadRequest, "Course is free, no payment required!")
	ErrAlreadyPaid        = New("ALREADY_PAID", fiber.StatusBadRequest, "Course already purchased!")
	ErrAlreadyEnrolled    = New("ALREADY_ENROLLED", fiber.StatusBadRequest, "Already enrolled in this course!")
	ErrPaymentRequired    = New("PAYMENT_REQUIRED", fiber.StatusPaymentRequired, "Course must be purchased first!")
	ErrEnrollmentRequired = New("ENROLLMENT_REQUIRED", fiber.StatusForbidden, "Enroll in the course first!")
	ErrInvalidSignature   = New("INVALID_SIGNATURE", fiber.StatusBadRequest, "Payment signature verification failed!")
	ErrGatewayUnavailable = New("GATEWAY_UNAVAILABLE", fiber.StatusServiceUnavailable, "Payment gateway unavailable, please retry!")
	ErrIllegalTransition  = New("ILLEGAL_TRANSITION", fiber.StatusConflict, "Payment is not in a state that allows this operation!")
	ErrNotEnrolled        = New("NOT_ENROLLED", fiber.StatusForbidden, "User not enrolled in this course!")
	ErrAssessmentRequired = New("ASSESSMENT_REQUIRED", fiber.StatusBadRequest, "Pass the course assessment to complete the course!")
	ErrCourseNotFinished  = New("COURSE_NOT_FINISHED", fiber.StatusBadRequest, "Watch all lessons before completing the course!")
	ErrNoAssessment       = New("NO_ASSESSMENT", fiber.StatusNotFound, "Course has no assessment!")
	ErrAlreadyReviewed    = New("ALREADY_REVIEWED", fiber.StatusBadRequest, "You have already reviewed this course!")
	ErrCourseNotCompleted = New("COURSE_NOT_COMPLETED", fiber.StatusBadRequest, "Complete more of the course before reviewing!")
)
