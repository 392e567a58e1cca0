package services

import (
	"errors"
	"fmt"
)

// NotFoundError reports that a referenced entity does not exist.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("%s not found", e.Resource)
	}
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

// ConflictError reports a uniqueness conflict, e.g. a duplicate ACTIVE
// enrollment for the same (student, course) pair.
type ConflictError struct {
	Resource string
	Message  string
}

func (e *ConflictError) Error() string {
	return e.Message
}

// InvalidStateError reports an illegal state transition attempt.
type InvalidStateError struct {
	Resource string
	ID       string
	Message  string
}

func (e *InvalidStateError) Error() string {
	return e.Message
}

// PolicyViolationError reports a broken time-window or role rule.
type PolicyViolationError struct {
	Message string
}

func (e *PolicyViolationError) Error() string {
	return e.Message
}

// PermissionError reports a failed access policy check.
type PermissionError struct {
	UserID     string
	ResourceID string
	Resource   string
	Action     string
	Reason     string
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("permission denied: user %s cannot %s %s: %s", e.UserID, e.Action, e.Resource, e.Reason)
}

// NewPermissionError creates a permission error for a denied action.
func NewPermissionError(userID, resourceID, resource, action, reason string) *PermissionError {
	return &PermissionError{
		UserID:     userID,
		ResourceID: resourceID,
		Resource:   resource,
		Action:     action,
		Reason:     reason,
	}
}

// AuthenticationError reports a failed credential check.
type AuthenticationError struct {
	Message string
}

func (e *AuthenticationError) Error() string {
	return e.Message
}

// Sentinel errors for the common cases.
var (
	ErrUserNotFound         = &NotFoundError{Resource: "user"}
	ErrTeacherNotFound      = &NotFoundError{Resource: "teacher"}
	ErrStudentNotFound      = &NotFoundError{Resource: "student"}
	ErrCourseNotFound       = &NotFoundError{Resource: "course"}
	ErrEnrollmentNotFound   = &NotFoundError{Resource: "enrollment"}
	ErrEmailAlreadyExists   = &ConflictError{Resource: "user", Message: "email already registered"}
	ErrAlreadyEnrolled      = &ConflictError{Resource: "enrollment", Message: "already enrolled"}
	ErrCourseHasEnrollments = &ConflictError{Resource: "course", Message: "course has active enrollments"}
	ErrEnrollmentNotActive  = &InvalidStateError{Resource: "enrollment", Message: "only active enrollments can be dropped"}
	ErrDropWindowExpired    = &PolicyViolationError{Message: "drop window expired"}
	ErrInvalidCredentials   = &AuthenticationError{Message: "invalid email or password"}
	ErrAccountInactive      = &AuthenticationError{Message: "account is inactive"}
)

// IsNotFound reports whether err is a service NotFoundError.
func IsNotFound(err error) bool {
	var target *NotFoundError
	return errors.As(err, &target)
}

// IsConflict reports whether err is a service ConflictError.
func IsConflict(err error) bool {
	var target *ConflictError
	return errors.As(err, &target)
}

// IsInvalidState reports whether err is a service InvalidStateError.
func IsInvalidState(err error) bool {
	var target *InvalidStateError
	return errors.As(err, &target)
}

// IsPolicyViolation reports whether err is a service PolicyViolationError.
func IsPolicyViolation(err error) bool {
	var target *PolicyViolationError
	return errors.As(err, &target)
}

// IsPermissionDenied reports whether err is a service PermissionError.
func IsPermissionDenied(err error) bool {
	var target *PermissionError
	return errors.As(err, &target)
}

// IsAuthenticationError reports whether err is a failed credential check.
func IsAuthenticationError(err error) bool {
	var target *AuthenticationError
	return errors.As(err, &target)
}
