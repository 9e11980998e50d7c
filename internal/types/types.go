// Package types holds the shared data structures used across the
// application. Keeping them in one place prevents import cycles:
// handlers, storage, and utils can all import types without depending
// on each other.
package types

import "strings"

// Student represents a stored student record.
//
// ID is assigned by the storage backend when the record is created and is
// opaque to everything above it.
type Student struct {
	ID    string `json:"id"`
	Name  string `json:"name"  validate:"required"`
	Age   int    `json:"age"   validate:"min=0"`
	Grade string `json:"grade" validate:"required"`
}

// StudentInput is the request body accepted by create and update.
//
// Age is a pointer so that an absent age can be told apart from an age
// of 0, which is valid.
type StudentInput struct {
	Name  string `json:"name"  validate:"required"`
	Age   *int   `json:"age"   validate:"required,min=0"`
	Grade string `json:"grade" validate:"required"`
}

// Normalize strips leading and trailing whitespace from the text fields.
// It must run before validation so that "   " counts as missing.
func (in *StudentInput) Normalize() {
	in.Name = strings.TrimSpace(in.Name)
	in.Grade = strings.TrimSpace(in.Grade)
}

// Student converts a validated input into a Student without an ID.
func (in StudentInput) Student() Student {
	s := Student{Name: in.Name, Grade: in.Grade}
	if in.Age != nil {
		s.Age = *in.Age
	}
	return s
}
