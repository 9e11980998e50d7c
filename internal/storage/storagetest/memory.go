// Package storagetest provides an in-memory storage.Storage for handler
// and router tests.
package storagetest

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/aanand-mishra/students-mongo-api/internal/storage"
	"github.com/aanand-mishra/students-mongo-api/internal/types"
)

// Memory keeps students in insertion order. Ids look like "s1", "s2", ...;
// anything without the "s" prefix is reported as storage.ErrInvalidID.
//
// Set Err to make every call fail with it.
type Memory struct {
	mu       sync.Mutex
	next     int
	order    []string
	students map[string]types.Student

	Err error
}

// NewMemory returns an empty store.
func NewMemory() *Memory {
	return &Memory{students: make(map[string]types.Student)}
}

// Len reports how many students are stored.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.students)
}

func (m *Memory) CreateStudent(_ context.Context, student types.Student) (types.Student, error) {
	if m.Err != nil {
		return types.Student{}, m.Err
	}
	student, err := storage.ValidateStudent(student)
	if err != nil {
		return types.Student{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.next++
	student.ID = fmt.Sprintf("s%d", m.next)
	m.students[student.ID] = student
	m.order = append(m.order, student.ID)
	return student, nil
}

func (m *Memory) GetStudentByID(_ context.Context, id string) (types.Student, error) {
	if err := m.check(id); err != nil {
		return types.Student{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	student, ok := m.students[id]
	if !ok {
		return types.Student{}, fmt.Errorf("%s: %w", id, storage.ErrNotFound)
	}
	return student, nil
}

func (m *Memory) GetStudents(context.Context) ([]types.Student, error) {
	if m.Err != nil {
		return nil, m.Err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	students := make([]types.Student, 0, len(m.order))
	for _, id := range m.order {
		students = append(students, m.students[id])
	}
	return students, nil
}

func (m *Memory) UpdateStudentByID(_ context.Context, id string, student types.Student) (types.Student, error) {
	if err := m.check(id); err != nil {
		return types.Student{}, err
	}
	student, err := storage.ValidateStudent(student)
	if err != nil {
		return types.Student{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.students[id]; !ok {
		return types.Student{}, fmt.Errorf("%s: %w", id, storage.ErrNotFound)
	}
	student.ID = id
	m.students[id] = student
	return student, nil
}

func (m *Memory) DeleteStudentByID(_ context.Context, id string) error {
	if err := m.check(id); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.students[id]; !ok {
		return fmt.Errorf("%s: %w", id, storage.ErrNotFound)
	}
	delete(m.students, id)
	for i, existing := range m.order {
		if existing == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return nil
}

func (m *Memory) Ping(context.Context) error { return m.Err }

func (m *Memory) Close(context.Context) error { return nil }

func (m *Memory) check(id string) error {
	if m.Err != nil {
		return m.Err
	}
	if !strings.HasPrefix(id, "s") {
		return fmt.Errorf("%w %q", storage.ErrInvalidID, id)
	}
	return nil
}
