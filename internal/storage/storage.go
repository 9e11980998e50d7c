// Package storage defines the Storage interface, a contract that any
// database backend must satisfy to work with this application.
//
// Handlers depend only on this interface. The concrete backend
// (mongodb or sqlite) is picked once in main.go, and tests pass an
// in-memory fake.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aanand-mishra/students-mongo-api/internal/types"
	"github.com/aanand-mishra/students-mongo-api/internal/validation"
)

// Errors every backend reports through errors.Is. Backends wrap them with
// context; handlers classify on them.
var (
	// ErrNotFound means no record has the requested id.
	ErrNotFound = errors.New("student not found")

	// ErrInvalidID means the id is not well-formed for the backend, so it
	// cannot name any record.
	ErrInvalidID = errors.New("invalid student id")

	// ErrValidation means a write was rejected because the record breaks
	// a field rule.
	ErrValidation = errors.New("student validation failed")
)

// Storage is the database contract.
type Storage interface {
	// CreateStudent inserts a new record and returns it with the
	// generated ID.
	CreateStudent(ctx context.Context, student types.Student) (types.Student, error)

	// GetStudentByID fetches a single student.
	GetStudentByID(ctx context.Context, id string) (types.Student, error)

	// GetStudents returns every student in insertion order.
	// Returns an empty slice (not nil) if there are no students.
	GetStudents(ctx context.Context) ([]types.Student, error)

	// UpdateStudentByID replaces all fields of an existing student and
	// returns the stored result.
	UpdateStudentByID(ctx context.Context, id string, student types.Student) (types.Student, error)

	// DeleteStudentByID removes a student record permanently.
	DeleteStudentByID(ctx context.Context, id string) error

	// Ping reports whether the backend is reachable.
	Ping(ctx context.Context) error

	// Close releases the connection.
	Close(ctx context.Context) error
}

// ValidateStudent is the validate-on-write step backends run before every
// insert and update. It returns the student with its text fields trimmed;
// the error wraps ErrValidation.
func ValidateStudent(student types.Student) (types.Student, error) {
	student.Name = strings.TrimSpace(student.Name)
	student.Grade = strings.TrimSpace(student.Grade)

	if err := validation.Struct(student); err != nil {
		return types.Student{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return student, nil
}
