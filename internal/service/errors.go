package service

import (
	"errors"
	"fmt"
)

var (
	// ErrExamNotFound indicates the exam does not exist or belongs to another teacher.
	ErrExamNotFound = errors.New("exam not found")
	// ErrSubmissionNotFound indicates the submission does not exist or is outside the teacher's exams.
	ErrSubmissionNotFound = errors.New("submission not found")
	// ErrTeacherNotFound indicates the teacher account does not exist.
	ErrTeacherNotFound = errors.New("teacher not found")
	// ErrDuplicateAccessCode indicates the teacher already owns an exam with the access code.
	ErrDuplicateAccessCode = errors.New("access code already in use")
	// ErrInvalidCredentials is returned for any failed sign-in.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrEmailTaken indicates a teacher already registered the email address.
	ErrEmailTaken = errors.New("email already registered")
)

// ValidationError reports input rejected before any write was attempted.
type ValidationError struct {
	Field string
	Rule  string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Rule
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Rule)
}

// PersistenceError reports a store failure. Compensation is set when the rollback of a
// partially applied write failed as well, in which case an orphaned record may remain.
type PersistenceError struct {
	Op           string
	Err          error
	Compensation error
}

func (e *PersistenceError) Error() string {
	if e.Compensation != nil {
		return fmt.Sprintf("%s: %v (compensation failed: %v)", e.Op, e.Err, e.Compensation)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

// Unwrap exposes both causes to errors.Is and errors.As.
func (e *PersistenceError) Unwrap() []error {
	if e.Compensation != nil {
		return []error{e.Err, e.Compensation}
	}
	return []error{e.Err}
}

// Orphaned reports whether a compensating delete failed after a partial write.
func (e *PersistenceError) Orphaned() bool {
	return e.Compensation != nil
}
