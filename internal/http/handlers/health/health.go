// Package health serves GET /healthz.
package health

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog/hlog"

	"github.com/aanand-mishra/students-mongo-api/internal/utils/response"
)

// Pinger is the part of storage.Storage the check needs.
type Pinger interface {
	Ping(ctx context.Context) error
}

const pingTimeout = 2 * time.Second

// Check responds 200 {"status":"ok"} when the storage answers a ping in
// time, 503 otherwise.
func Check(p Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), pingTimeout)
		defer cancel()

		if err := p.Ping(ctx); err != nil {
			hlog.FromRequest(r).Warn().Err(err).Msg("health check failed")
			response.WriteJSON(w, http.StatusServiceUnavailable,
				response.GeneralError("storage unavailable", err))
			return
		}

		response.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
