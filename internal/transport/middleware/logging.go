package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/middleware"

	"github.com/frahmantamala/visitor-management/pkg/logger"
)

const (
	filtered = "[FILTERED]"

	// maxLoggedBody caps how much of a request or response body is kept for logging.
	maxLoggedBody = 4 << 10
)

// sensitiveFields are matched as substrings of lower-cased header and JSON key names.
var sensitiveFields = []string{
	"password",
	"token",
	"authorization",
	"secret",
	"api_key",
	"session",
	"credential",
	"cookie",
}

// LoggingMiddleware logs every request and its response. Credentials, tokens
// and cookies are masked before anything is written. The request scoped
// logger is used when one is present so request ids and principals follow
// the entries.
func LoggingMiddleware(base *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			lg := requestLogger(r, base)

			logRequest(lg, r)

			ww := &responseWriter{ResponseWriter: w}
			next.ServeHTTP(ww, r)

			logResponse(lg, r, ww, time.Since(start))
		})
	}
}

func requestLogger(r *http.Request, base *slog.Logger) *slog.Logger {
	lg := base
	if lg == nil {
		lg = logger.From(r.Context())
	}
	if reqID := middleware.GetReqID(r.Context()); reqID != "" {
		lg = lg.With("request_id", reqID)
	}
	return lg
}

type responseWriter struct {
	http.ResponseWriter
	statusCode int
	size       int
	body       bytes.Buffer
}

func (rw *responseWriter) WriteHeader(code int) {
	if rw.statusCode == 0 {
		rw.statusCode = code
	}
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	if rw.statusCode == 0 {
		rw.statusCode = http.StatusOK
	}
	if room := maxLoggedBody - rw.body.Len(); room > 0 {
		rw.body.Write(b[:min(room, len(b))])
	}
	n, err := rw.ResponseWriter.Write(b)
	rw.size += n
	return n, err
}

func (rw *responseWriter) status() int {
	if rw.statusCode == 0 {
		return http.StatusOK
	}
	return rw.statusCode
}

func logRequest(lg *slog.Logger, r *http.Request) {
	var body []byte
	if r.Body != nil && r.Body != http.NoBody {
		body, _ = io.ReadAll(io.LimitReader(r.Body, maxLoggedBody))
		r.Body = readCloser{Reader: io.MultiReader(bytes.NewReader(body), r.Body), Closer: r.Body}
	}

	lg.InfoContext(r.Context(), "incoming request",
		"method", r.Method,
		"path", r.URL.Path,
		"query", r.URL.RawQuery,
		"remote_addr", r.RemoteAddr,
		"user_agent", r.UserAgent(),
		"headers", filterSensitiveHeaders(r.Header),
		"body", filterSensitiveBody(body),
	)
}

type readCloser struct {
	io.Reader
	io.Closer
}

func logResponse(lg *slog.Logger, r *http.Request, rw *responseWriter, duration time.Duration) {
	status := rw.status()

	level := slog.LevelInfo
	switch {
	case status >= http.StatusInternalServerError:
		level = slog.LevelError
	case status >= http.StatusBadRequest:
		level = slog.LevelWarn
	}

	lg.Log(r.Context(), level, "response",
		"method", r.Method,
		"path", r.URL.Path,
		"status_code", status,
		"duration_ms", duration.Milliseconds(),
		"response_size", rw.size,
		"body", filterSensitiveBody(rw.body.Bytes()),
	)
}

func isSensitive(name string) bool {
	lower := strings.ToLower(name)
	for _, field := range sensitiveFields {
		if strings.Contains(lower, field) {
			return true
		}
	}
	return false
}

func filterSensitiveHeaders(headers http.Header) map[string]string {
	out := make(map[string]string, len(headers))
	for name, values := range headers {
		if isSensitive(name) {
			out[name] = filtered
			continue
		}
		out[name] = strings.Join(values, ", ")
	}
	return out
}

// filterSensitiveBody masks sensitive keys of a JSON body. A body that is not
// JSON is dropped entirely if it mentions any sensitive field.
func filterSensitiveBody(body []byte) string {
	if len(body) == 0 {
		return ""
	}

	var data interface{}
	if err := json.Unmarshal(body, &data); err != nil {
		if isSensitive(string(body)) {
			return "[FILTERED - Contains sensitive data]"
		}
		return string(body)
	}

	out, err := json.Marshal(filterSensitiveJSON(data))
	if err != nil {
		return "[ERROR - Failed to marshal filtered JSON]"
	}
	return string(out)
}

func filterSensitiveJSON(data interface{}) interface{} {
	switch v := data.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(v))
		for key, value := range v {
			if isSensitive(key) {
				out[key] = filtered
				continue
			}
			out[key] = filterSensitiveJSON(value)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(v))
		for i, item := range v {
			out[i] = filterSensitiveJSON(item)
		}
		return out
	default:
		return v
	}
}
