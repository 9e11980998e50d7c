// Package student contains all HTTP handlers related to the Student resource.
//
// Every handler is built by a factory that receives its dependency (the
// storage) and returns an http.HandlerFunc closing over it:
//
//	r.Post("/", student.New(store))
//	//          ^^^^^^^^^^^^^^^^^^ called ONCE at startup; the returned
//	//                             func runs on EVERY request.
//
// Error mapping is the same for every operation:
//
//	400 Bad Request  — empty or malformed body, failed validation
//	413 Too Large    — body over the router's size limit
//	404 Not Found    — no student with that id (or an id that cannot exist)
//	500 Internal     — anything else from storage
package student

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/hlog"

	"github.com/aanand-mishra/students-mongo-api/internal/storage"
	"github.com/aanand-mishra/students-mongo-api/internal/types"
	"github.com/aanand-mishra/students-mongo-api/internal/utils/response"
	"github.com/aanand-mishra/students-mongo-api/internal/validation"
)

const msgNotFound = "student not found"

var errTrailingData = errors.New("unexpected data after JSON object")

// Routes returns the Student router, meant to be mounted at /students.
func Routes(store storage.Storage) chi.Router {
	r := chi.NewRouter()
	r.Get("/", GetList(store))
	r.Post("/", New(store))
	r.Get("/{id}", GetByID(store))
	r.Put("/{id}", Update(store))
	r.Delete("/{id}", Delete(store))
	return r
}

// ─────────────────────────────────────────────────────────────────────────────
// New handles POST /students
// Creates a new student from the JSON request body.
//
// Request body (JSON):
//
//	{ "name": "Ada", "age": 28, "grade": "A" }
//
// Success response (201 Created), the stored student:
//
//	{ "id": "665f1c...", "name": "Ada", "age": 28, "grade": "A" }
//
// ─────────────────────────────────────────────────────────────────────────────
func New(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := hlog.FromRequest(r)
		log.Info().Msg("creating a student")

		input, ok := decodeInput(w, r)
		if !ok {
			return
		}

		created, err := store.CreateStudent(r.Context(), input.Student())
		if err != nil {
			if errors.Is(err, storage.ErrValidation) {
				response.WriteJSON(w, http.StatusBadRequest,
					response.GeneralError("invalid student", err))
				return
			}
			log.Error().Err(err).Msg("error creating student")
			response.WriteJSON(w, http.StatusInternalServerError,
				response.GeneralError("create student failed", err))
			return
		}

		log.Info().Str("id", created.ID).Msg("student created")
		response.WriteJSON(w, http.StatusCreated, created)
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// GetList handles GET /students
// Returns a JSON array of every student, [] when there are none.
// ─────────────────────────────────────────────────────────────────────────────
func GetList(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := hlog.FromRequest(r)
		log.Info().Msg("getting all students")

		students, err := store.GetStudents(r.Context())
		if err != nil {
			log.Error().Err(err).Msg("error getting students")
			response.WriteJSON(w, http.StatusInternalServerError,
				response.GeneralError("list students failed", err))
			return
		}

		response.WriteJSON(w, http.StatusOK, students)
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// GetByID handles GET /students/{id}
// ─────────────────────────────────────────────────────────────────────────────
func GetByID(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		log := hlog.FromRequest(r).With().Str("id", id).Logger()
		log.Info().Msg("getting a student")

		student, err := store.GetStudentByID(r.Context(), id)
		if err != nil {
			if isMissing(err) {
				response.WriteJSON(w, http.StatusNotFound, response.Message(msgNotFound))
				return
			}
			log.Error().Err(err).Msg("error getting student")
			response.WriteJSON(w, http.StatusInternalServerError,
				response.GeneralError("get student failed", err))
			return
		}

		response.WriteJSON(w, http.StatusOK, student)
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Update handles PUT /students/{id}
// Replaces ALL fields of an existing student; the body must carry all
// three, exactly as for create. Responds 200 with the stored student.
// ─────────────────────────────────────────────────────────────────────────────
func Update(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		log := hlog.FromRequest(r).With().Str("id", id).Logger()
		log.Info().Msg("updating a student")

		input, ok := decodeInput(w, r)
		if !ok {
			return
		}

		updated, err := store.UpdateStudentByID(r.Context(), id, input.Student())
		if err != nil {
			switch {
			case isMissing(err):
				response.WriteJSON(w, http.StatusNotFound, response.Message(msgNotFound))
			case errors.Is(err, storage.ErrValidation):
				response.WriteJSON(w, http.StatusBadRequest,
					response.GeneralError("invalid student", err))
			default:
				log.Error().Err(err).Msg("error updating student")
				response.WriteJSON(w, http.StatusInternalServerError,
					response.GeneralError("update student failed", err))
			}
			return
		}

		log.Info().Msg("student updated")
		response.WriteJSON(w, http.StatusOK, updated)
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Delete handles DELETE /students/{id}
// Permanently removes a student. Deleting the same id twice gives 404 the
// second time.
// ─────────────────────────────────────────────────────────────────────────────
func Delete(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		log := hlog.FromRequest(r).With().Str("id", id).Logger()
		log.Info().Msg("deleting a student")

		if err := store.DeleteStudentByID(r.Context(), id); err != nil {
			if isMissing(err) {
				response.WriteJSON(w, http.StatusNotFound, response.Message(msgNotFound))
				return
			}
			log.Error().Err(err).Msg("error deleting student")
			response.WriteJSON(w, http.StatusInternalServerError,
				response.GeneralError("remove student failed", err))
			return
		}

		log.Info().Msg("student deleted")
		response.WriteJSON(w, http.StatusOK, response.Message("student deleted successfully"))
	}
}

// decodeInput reads, normalizes and validates the request body. On failure
// it has already written a 400 (413 for an oversized body) and returns false.
func decodeInput(w http.ResponseWriter, r *http.Request) (types.StudentInput, bool) {
	var input types.StudentInput

	dec := json.NewDecoder(r.Body)
	err := dec.Decode(&input)
	if errors.Is(err, io.EOF) {
		response.WriteJSON(w, http.StatusBadRequest,
			response.Message("request body is empty"))
		return input, false
	}
	if err == nil {
		// The body must hold exactly one JSON value.
		if extra := dec.Decode(&struct{}{}); !errors.Is(extra, io.EOF) {
			err = errTrailingData
			if errors.As(extra, new(*http.MaxBytesError)) {
				err = extra
			}
		}
	}
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.WriteJSON(w, http.StatusRequestEntityTooLarge,
				response.GeneralError("request body too large", err))
			return input, false
		}
		response.WriteJSON(w, http.StatusBadRequest,
			response.GeneralError("invalid request body", err))
		return input, false
	}

	input.Normalize()

	if err := validation.Struct(input); err != nil {
		var validateErrs validator.ValidationErrors
		if errors.As(err, &validateErrs) {
			response.WriteJSON(w, http.StatusBadRequest,
				response.ValidationError(validateErrs))
		} else {
			response.WriteJSON(w, http.StatusBadRequest,
				response.GeneralError("invalid request body", err))
		}
		return input, false
	}

	return input, true
}

// isMissing reports whether err means the id names no stored student.
// A malformed id can never name one, so it is treated the same way.
func isMissing(err error) bool {
	return errors.Is(err, storage.ErrNotFound) || errors.Is(err, storage.ErrInvalidID)
}
