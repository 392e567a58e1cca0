package repositories

import (
	"errors"

	"gorm.io/gorm"
)

var (
	// ErrRecordNotFound reports that the referenced entity does not exist.
	ErrRecordNotFound = errors.New("record not found")

	// ErrDuplicateRecord reports a uniqueness-constraint violation, e.g. a
	// second ACTIVE enrollment for the same (student, course) pair.
	ErrDuplicateRecord = errors.New("duplicate record")
)

// IsNotFoundError reports whether err represents a missing row.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrRecordNotFound) || errors.Is(err, gorm.ErrRecordNotFound)
}

// IsDuplicateError reports whether err represents a uniqueness violation.
// The postgres driver translates unique-index violations to
// gorm.ErrDuplicatedKey, which is how concurrent duplicate creates lose.
func IsDuplicateError(err error) bool {
	return errors.Is(err, ErrDuplicateRecord) || errors.Is(err, gorm.ErrDuplicatedKey)
}
