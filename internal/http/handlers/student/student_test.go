package student

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/aanand-mishra/students-mongo-api/internal/storage"
	"github.com/aanand-mishra/students-mongo-api/internal/storage/storagetest"
	"github.com/aanand-mishra/students-mongo-api/internal/types"
	"github.com/aanand-mishra/students-mongo-api/internal/utils/response"
)

func newHandler(store *storagetest.Memory) http.Handler {
	r := chi.NewRouter()
	r.Mount("/students", Routes(store))
	return r
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

func create(t *testing.T, h http.Handler, body string) types.Student {
	t.Helper()

	rec := do(t, h, http.MethodPost, "/students", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body %s", rec.Code, rec.Body)
	}
	return decode[types.Student](t, rec)
}

func TestCreateThenGet(t *testing.T) {
	h := newHandler(storagetest.NewMemory())

	created := create(t, h, `{"name":"Ada","age":28,"grade":"A"}`)
	if created.ID == "" {
		t.Fatal("expected a generated id")
	}
	want := types.Student{ID: created.ID, Name: "Ada", Age: 28, Grade: "A"}
	if created != want {
		t.Errorf("created = %+v, want %+v", created, want)
	}

	rec := do(t, h, http.MethodGet, "/students/"+created.ID, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d", rec.Code)
	}
	if got := decode[types.Student](t, rec); got != want {
		t.Errorf("get = %+v, want %+v", got, want)
	}
}

func TestCreateRejectsMissingFields(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing name", `{"age":28,"grade":"A"}`},
		{"missing age", `{"name":"Ada","grade":"A"}`},
		{"missing grade", `{"name":"Ada","age":28}`},
		{"null age", `{"name":"Ada","age":null,"grade":"A"}`},
		{"blank name", `{"name":"   ","age":28,"grade":"A"}`},
		{"negative age", `{"name":"Ada","age":-1,"grade":"A"}`},
		{"age as string", `{"name":"Ada","age":"old","grade":"A"}`},
		{"malformed json", `{"name":`},
		{"empty body", ``},
		{"json null", `null`},
		{"trailing garbage", `{"name":"Ada","age":28,"grade":"A"} trailing`},
		{"two objects", `{"name":"Ada","age":28,"grade":"A"}{"name":"Bob","age":3,"grade":"B"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := storagetest.NewMemory()
			h := newHandler(store)

			rec := do(t, h, http.MethodPost, "/students", tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400 (body %s)", rec.Code, rec.Body)
			}
			if msg := decode[response.Response](t, rec).Message; msg == "" {
				t.Error("error body must carry a message")
			}
			if store.Len() != 0 {
				t.Errorf("rejected create wrote %d students", store.Len())
			}
		})
	}
}

func TestCreateAcceptsZeroAgeAndTrims(t *testing.T) {
	h := newHandler(storagetest.NewMemory())

	created := create(t, h, `{"name":"  Ada  ","age":0,"grade":" A "}`)
	if created.Name != "Ada" || created.Grade != "A" || created.Age != 0 {
		t.Errorf("created = %+v", created)
	}
}

func TestListIsStableAndCounts(t *testing.T) {
	h := newHandler(storagetest.NewMemory())

	rec := do(t, h, http.MethodGet, "/students", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := strings.TrimSpace(rec.Body.String()); got != "[]" {
		t.Errorf("empty list = %s, want []", got)
	}

	for _, name := range []string{"Ada", "Grace", "Linus"} {
		create(t, h, `{"name":"`+name+`","age":30,"grade":"B"}`)
	}

	first := do(t, h, http.MethodGet, "/students", "")
	second := do(t, h, http.MethodGet, "/students", "")

	students := decode[[]types.Student](t, first)
	if len(students) != 3 {
		t.Fatalf("got %d students, want 3", len(students))
	}
	if first.Body.String() != second.Body.String() {
		t.Errorf("repeated list differs:\n%s\n%s", first.Body, second.Body)
	}
	if students[0].Name != "Ada" || students[2].Name != "Linus" {
		t.Errorf("unexpected order: %+v", students)
	}
}

func TestGetMissingAndMalformed(t *testing.T) {
	h := newHandler(storagetest.NewMemory())

	for _, id := range []string{"s42", "not-an-id"} {
		rec := do(t, h, http.MethodGet, "/students/"+id, "")
		if rec.Code != http.StatusNotFound {
			t.Errorf("GET %s status = %d, want 404", id, rec.Code)
		}
		if msg := decode[response.Response](t, rec).Message; msg != "student not found" {
			t.Errorf("GET %s message = %q", id, msg)
		}
	}
}

func TestUpdate(t *testing.T) {
	store := storagetest.NewMemory()
	h := newHandler(store)
	created := create(t, h, `{"name":"Ada","age":28,"grade":"A"}`)

	rec := do(t, h, http.MethodPut, "/students/"+created.ID, `{"name":"Ada L.","age":29,"grade":"A+"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("update status = %d, body %s", rec.Code, rec.Body)
	}
	want := types.Student{ID: created.ID, Name: "Ada L.", Age: 29, Grade: "A+"}
	if got := decode[types.Student](t, rec); got != want {
		t.Errorf("update = %+v, want %+v", got, want)
	}

	rec = do(t, h, http.MethodGet, "/students/"+created.ID, "")
	if got := decode[types.Student](t, rec); got != want {
		t.Errorf("get after update = %+v, want %+v", got, want)
	}

	t.Run("partial body is rejected", func(t *testing.T) {
		rec := do(t, h, http.MethodPut, "/students/"+created.ID, `{"name":"Only Name"}`)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", rec.Code)
		}
		rec = do(t, h, http.MethodGet, "/students/"+created.ID, "")
		if got := decode[types.Student](t, rec); got != want {
			t.Errorf("rejected update changed the record: %+v", got)
		}
	})

	t.Run("missing id creates nothing", func(t *testing.T) {
		rec := do(t, h, http.MethodPut, "/students/s999", `{"name":"Ghost","age":1,"grade":"C"}`)
		if rec.Code != http.StatusNotFound {
			t.Fatalf("status = %d, want 404", rec.Code)
		}
		if store.Len() != 1 {
			t.Errorf("store has %d students, want 1", store.Len())
		}
	})

	t.Run("malformed id", func(t *testing.T) {
		rec := do(t, h, http.MethodPut, "/students/bogus", `{"name":"Ghost","age":1,"grade":"C"}`)
		if rec.Code != http.StatusNotFound {
			t.Fatalf("status = %d, want 404", rec.Code)
		}
	})
}

func TestDeleteTwice(t *testing.T) {
	h := newHandler(storagetest.NewMemory())
	created := create(t, h, `{"name":"Ada","age":28,"grade":"A"}`)

	rec := do(t, h, http.MethodDelete, "/students/"+created.ID, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("first delete status = %d", rec.Code)
	}
	if msg := decode[response.Response](t, rec).Message; msg == "" {
		t.Error("delete confirmation must carry a message")
	}

	if rec := do(t, h, http.MethodGet, "/students/"+created.ID, ""); rec.Code != http.StatusNotFound {
		t.Errorf("get after delete status = %d, want 404", rec.Code)
	}
	if rec := do(t, h, http.MethodDelete, "/students/"+created.ID, ""); rec.Code != http.StatusNotFound {
		t.Errorf("second delete status = %d, want 404", rec.Code)
	}
}

func TestStorageFailuresAre500WithDetail(t *testing.T) {
	store := storagetest.NewMemory()
	h := newHandler(store)
	created := create(t, h, `{"name":"Ada","age":28,"grade":"A"}`)
	store.Err = errors.New("connection refused")

	tests := []struct {
		method, path, body string
	}{
		{http.MethodGet, "/students", ""},
		{http.MethodPost, "/students", `{"name":"Bob","age":3,"grade":"B"}`},
		{http.MethodGet, "/students/" + created.ID, ""},
		{http.MethodPut, "/students/" + created.ID, `{"name":"Bob","age":3,"grade":"B"}`},
		{http.MethodDelete, "/students/" + created.ID, ""},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec := do(t, h, tt.method, tt.path, tt.body)
			if rec.Code != http.StatusInternalServerError {
				t.Fatalf("status = %d, want 500", rec.Code)
			}
			got := decode[response.Response](t, rec)
			if got.Message == "" || got.Detail != "connection refused" {
				t.Errorf("body = %+v", got)
			}
		})
	}
}

func TestStorageValidationIs400WithDetail(t *testing.T) {
	store := storagetest.NewMemory()
	h := newHandler(store)
	created := create(t, h, `{"name":"Ada","age":28,"grade":"A"}`)
	store.Err = fmt.Errorf("insert: %w", storage.ErrValidation)

	tests := []struct {
		method, path string
	}{
		{http.MethodPost, "/students"},
		{http.MethodPut, "/students/" + created.ID},
	}

	for _, tt := range tests {
		t.Run(tt.method, func(t *testing.T) {
			rec := do(t, h, tt.method, tt.path, `{"name":"Bob","age":3,"grade":"B"}`)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400 (body %s)", rec.Code, rec.Body)
			}
			got := decode[response.Response](t, rec)
			if got.Message != "invalid student" || got.Detail == "" {
				t.Errorf("body = %+v", got)
			}
		})
	}
}

func TestTrailingWhitespaceIsAccepted(t *testing.T) {
	h := newHandler(storagetest.NewMemory())
	create(t, h, "{\"name\":\"Ada\",\"age\":28,\"grade\":\"A\"}\n  ")
}

func TestExampleFlow(t *testing.T) {
	h := newHandler(storagetest.NewMemory())

	created := create(t, h, `{"name":"Ada","age":28,"grade":"A"}`)

	var body map[string]any
	rec := do(t, h, http.MethodGet, "/students/"+created.ID, "")
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	want := map[string]any{"id": created.ID, "name": "Ada", "age": float64(28), "grade": "A"}
	if !reflect.DeepEqual(body, want) {
		t.Errorf("GET body = %v, want %v", body, want)
	}

	if rec := do(t, h, http.MethodDelete, "/students/"+created.ID, ""); rec.Code != http.StatusOK {
		t.Fatalf("delete status = %d", rec.Code)
	}
	if rec := do(t, h, http.MethodGet, "/students/"+created.ID, ""); rec.Code != http.StatusNotFound {
		t.Fatalf("get after delete status = %d", rec.Code)
	}
}
