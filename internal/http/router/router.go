// Package router assembles the HTTP handler: middleware, the Student
// routes under /students, the health check and the static file fallback.
package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"

	"github.com/aanand-mishra/students-mongo-api/internal/http/handlers/health"
	"github.com/aanand-mishra/students-mongo-api/internal/http/handlers/student"
	"github.com/aanand-mishra/students-mongo-api/internal/storage"
)

// maxBodyBytes caps request bodies at 100 KiB.
const maxBodyBytes = 100 << 10

// New returns the root handler.
//
// Route table:
//
//	GET    /students        → list all students
//	POST   /students        → create a new student
//	GET    /students/{id}   → get one student by ID
//	PUT    /students/{id}   → replace a student
//	DELETE /students/{id}   → delete a student
//	GET    /healthz         → storage reachability
//	GET    /*               → files from staticDir
func New(store storage.Storage, staticDir string, log zerolog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(hlog.NewHandler(log))
	r.Use(hlog.RequestIDHandler("req_id", "X-Request-Id"))
	r.Use(hlog.AccessHandler(accessLog))
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestSize(maxBodyBytes))

	r.Get("/healthz", health.Check(store))
	r.Mount("/students", student.Routes(store))

	static := http.FileServer(http.Dir(staticDir))
	r.Method(http.MethodGet, "/*", static)
	r.Method(http.MethodHead, "/*", static)

	return r
}

// accessLog writes one line per request, leveled by status:
// 5xx Error, 4xx Warn, everything else Info.
func accessLog(r *http.Request, status, size int, duration time.Duration) {
	log := hlog.FromRequest(r)

	var e *zerolog.Event
	switch {
	case status >= 500:
		e = log.Error()
	case status >= 400:
		e = log.Warn()
	default:
		e = log.Info()
	}

	e.Str("method", r.Method).
		Stringer("url", r.URL).
		Int("status", status).
		Int("size", size).
		Dur("duration", duration).
		Str("ip", r.RemoteAddr).
		Msg("request")
}
