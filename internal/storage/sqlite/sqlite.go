// Package sqlite provides a SQLite-backed implementation of the
// storage.Storage interface using Go's standard database/sql package.
//
// It is the alternate backend (STORAGE_DRIVER=sqlite): everything lives in
// a single file on disk, which is handy for local work without a MongoDB
// server. Record ids are random UUIDs so they stay as opaque as ObjectIDs.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"

	"github.com/aanand-mishra/students-mongo-api/internal/config"
	"github.com/aanand-mishra/students-mongo-api/internal/storage"
	"github.com/aanand-mishra/students-mongo-api/internal/types"
)

// SQLite is the concrete implementation of storage.Storage.
// A single *sql.DB is safe for concurrent use by multiple goroutines.
type SQLite struct {
	Db *sql.DB
}

// New opens the SQLite database at cfg.Storage.SQLitePath, creates the
// students table if it does not already exist, and returns a ready-to-use
// *SQLite.
func New(cfg *config.Config) (*SQLite, error) {
	path := cfg.Storage.SQLitePath
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("sqlite.New: create dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite.New: open db: %w", err)
	}

	// The CHECK constraints mirror the field rules so the file stays valid
	// even when written by something other than this service.
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS students (
			id    TEXT    PRIMARY KEY,
			name  TEXT    NOT NULL CHECK (length(trim(name)) > 0),
			age   INTEGER NOT NULL CHECK (age >= 0),
			grade TEXT    NOT NULL CHECK (length(trim(grade)) > 0)
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite.New: create table: %w", err)
	}

	return &SQLite{Db: db}, nil
}

// CreateStudent inserts a new row with a freshly generated id.
func (s *SQLite) CreateStudent(ctx context.Context, student types.Student) (types.Student, error) {
	student, err := storage.ValidateStudent(student)
	if err != nil {
		return types.Student{}, err
	}

	student.ID = uuid.NewString()

	_, err = s.Db.ExecContext(ctx,
		"INSERT INTO students (id, name, age, grade) VALUES (?, ?, ?, ?)",
		student.ID, student.Name, student.Age, student.Grade,
	)
	if err != nil {
		return types.Student{}, fmt.Errorf("CreateStudent: exec: %w", classify(err))
	}

	return student, nil
}

// GetStudentByID fetches exactly one student row matched by id.
func (s *SQLite) GetStudentByID(ctx context.Context, id string) (types.Student, error) {
	if err := checkID(id); err != nil {
		return types.Student{}, err
	}

	var student types.Student
	err := s.Db.QueryRowContext(ctx,
		"SELECT id, name, age, grade FROM students WHERE id = ? LIMIT 1", id,
	).Scan(&student.ID, &student.Name, &student.Age, &student.Grade)
	if errors.Is(err, sql.ErrNoRows) {
		return types.Student{}, fmt.Errorf("GetStudentByID %s: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return types.Student{}, fmt.Errorf("GetStudentByID: scan: %w", err)
	}

	return student, nil
}

// GetStudents returns all student rows in insertion order.
func (s *SQLite) GetStudents(ctx context.Context) ([]types.Student, error) {
	rows, err := s.Db.QueryContext(ctx,
		"SELECT id, name, age, grade FROM students ORDER BY rowid",
	)
	if err != nil {
		return nil, fmt.Errorf("GetStudents: query: %w", err)
	}
	defer rows.Close()

	// Returning [] instead of null in JSON is better API behaviour.
	students := make([]types.Student, 0)

	for rows.Next() {
		var student types.Student
		if err := rows.Scan(&student.ID, &student.Name, &student.Age, &student.Grade); err != nil {
			return nil, fmt.Errorf("GetStudents: scan row: %w", err)
		}
		students = append(students, student)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("GetStudents: rows iteration: %w", err)
	}

	return students, nil
}

// UpdateStudentByID replaces a student's data with the provided values.
// The row comes back from the same statement via RETURNING, so a
// concurrent delete cannot slip in between the write and the read.
func (s *SQLite) UpdateStudentByID(ctx context.Context, id string, student types.Student) (types.Student, error) {
	if err := checkID(id); err != nil {
		return types.Student{}, err
	}
	student, err := storage.ValidateStudent(student)
	if err != nil {
		return types.Student{}, err
	}

	var updated types.Student
	err = s.Db.QueryRowContext(ctx,
		`UPDATE students SET name = ?, age = ?, grade = ? WHERE id = ?
		 RETURNING id, name, age, grade`,
		student.Name, student.Age, student.Grade, id,
	).Scan(&updated.ID, &updated.Name, &updated.Age, &updated.Grade)
	if errors.Is(err, sql.ErrNoRows) {
		return types.Student{}, fmt.Errorf("UpdateStudentByID %s: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return types.Student{}, fmt.Errorf("UpdateStudentByID: exec: %w", classify(err))
	}

	return updated, nil
}

// DeleteStudentByID removes a student row by id.
func (s *SQLite) DeleteStudentByID(ctx context.Context, id string) error {
	if err := checkID(id); err != nil {
		return err
	}

	result, err := s.Db.ExecContext(ctx, "DELETE FROM students WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("DeleteStudentByID: exec: %w", err)
	}
	if err := requireAffected(result, id); err != nil {
		return fmt.Errorf("DeleteStudentByID: %w", err)
	}

	return nil
}

// Ping checks the database file is still usable.
func (s *SQLite) Ping(ctx context.Context) error {
	return s.Db.PingContext(ctx)
}

// Close closes the underlying *sql.DB.
func (s *SQLite) Close(context.Context) error {
	return s.Db.Close()
}

func checkID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("%w %q: %v", storage.ErrInvalidID, id, err)
	}
	return nil
}

func requireAffected(result sql.Result, id string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", id, storage.ErrNotFound)
	}
	return nil
}

// classify maps CHECK and NOT NULL violations onto storage.ErrValidation.
func classify(err error) error {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint &&
		(sqliteErr.ExtendedCode == sqlite3.ErrConstraintCheck ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintNotNull) {
		return fmt.Errorf("%w: %v", storage.ErrValidation, err)
	}
	return err
}
