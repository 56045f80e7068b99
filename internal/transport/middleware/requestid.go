package middleware

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/google/uuid"

	"github.com/frahmantamala/visitor-management/pkg/logger"
)

// RequestIDHeader is read from the request and echoed on the response.
const RequestIDHeader = "X-Request-ID"

const maxRequestIDLength = 128

// RequestID tags every request with an id. A client supplied id is kept when
// it is short enough; otherwise a new uuid is generated. The id is stored
// where chi's GetReqID finds it and is attached to the request logger.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get(RequestIDHeader)
		if reqID == "" || len(reqID) > maxRequestIDLength {
			reqID = uuid.NewString()
		}

		ctx := context.WithValue(r.Context(), middleware.RequestIDKey, reqID)
		ctx = logger.With(ctx, "request_id", reqID)

		w.Header().Set(RequestIDHeader, reqID)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
