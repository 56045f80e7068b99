package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"
	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/frahmantamala/visitor-management/pkg/logger"
)

func bufferLogger() (*slog.Logger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	return slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug})), buf
}

var _ = ginkgo.Describe("RequestID", func() {
	var seen string

	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = chiMiddleware.GetReqID(r.Context())
	}))

	ginkgo.BeforeEach(func() {
		seen = ""
	})

	ginkgo.It("should generate an id and echo it on the response", func() {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		gomega.Expect(seen).ToNot(gomega.BeEmpty())
		gomega.Expect(rec.Header().Get(RequestIDHeader)).To(gomega.Equal(seen))
	})

	ginkgo.It("should keep a client supplied id", func() {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(RequestIDHeader, "abc-123")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		gomega.Expect(seen).To(gomega.Equal("abc-123"))
		gomega.Expect(rec.Header().Get(RequestIDHeader)).To(gomega.Equal("abc-123"))
	})

	ginkgo.It("should replace an oversized id", func() {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(RequestIDHeader, strings.Repeat("x", maxRequestIDLength+1))
		handler.ServeHTTP(httptest.NewRecorder(), req)

		gomega.Expect(seen).To(gomega.HaveLen(36))
	})
})

var _ = ginkgo.Describe("RecoveryMiddleware", func() {
	ginkgo.It("should answer 500 without leaking the panic value", func() {
		lg, buf := bufferLogger()
		handler := RecoveryMiddleware(lg)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			panic("db password is hunter2")
		}))

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))

		gomega.Expect(rec.Code).To(gomega.Equal(http.StatusInternalServerError))
		gomega.Expect(rec.Body.String()).ToNot(gomega.ContainSubstring("hunter2"))

		var body map[string]map[string]interface{}
		gomega.Expect(json.Unmarshal(rec.Body.Bytes(), &body)).To(gomega.Succeed())
		gomega.Expect(body["error"]["code"]).To(gomega.Equal("INTERNAL_ERROR"))

		gomega.Expect(buf.String()).To(gomega.ContainSubstring("panic recovered"))
		gomega.Expect(buf.String()).To(gomega.ContainSubstring("hunter2"))
	})

	ginkgo.It("should pass through when nothing panics", func() {
		handler := RecoveryMiddleware(logger.Discard())(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		}))

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		gomega.Expect(rec.Code).To(gomega.Equal(http.StatusNoContent))
	})
})

var _ = ginkgo.Describe("LoggingMiddleware", func() {
	ginkgo.It("should mask passwords, tokens and authorization headers", func() {
		lg, buf := bufferLogger()

		var received []byte
		handler := LoggingMiddleware(lg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			received, _ = io.ReadAll(r.Body)
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"token":"eyJhbGciOi.secret.sig","expires_at":"2026-01-01T00:00:00Z"}`))
		}))

		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login",
			strings.NewReader(`{"username":"admin","password":"correct_password"}`))
		req.Header.Set("Authorization", "Bearer abc.def.ghi")
		handler.ServeHTTP(httptest.NewRecorder(), req)

		// Given the handler still reads the untouched body
		gomega.Expect(string(received)).To(gomega.Equal(`{"username":"admin","password":"correct_password"}`))

		// Then nothing sensitive reaches the log
		out := buf.String()
		gomega.Expect(out).ToNot(gomega.ContainSubstring("correct_password"))
		gomega.Expect(out).ToNot(gomega.ContainSubstring("abc.def.ghi"))
		gomega.Expect(out).ToNot(gomega.ContainSubstring("eyJhbGciOi"))
		gomega.Expect(out).To(gomega.ContainSubstring("admin"))
		gomega.Expect(out).To(gomega.ContainSubstring(filtered))
	})

	ginkgo.It("should log client errors at warn level", func() {
		lg, buf := bufferLogger()
		handler := LoggingMiddleware(lg)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusForbidden)
		}))

		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/roles", nil))

		gomega.Expect(buf.String()).To(gomega.ContainSubstring(`"level":"WARN"`))
		gomega.Expect(buf.String()).To(gomega.ContainSubstring(`"status_code":403`))
	})

	ginkgo.It("should filter nested JSON keys and drop sensitive plain bodies", func() {
		gomega.Expect(filterSensitiveBody([]byte(`{"user":{"password_hash":"x","name":"Ana"},"items":[{"api_key":"k"}]}`))).
			To(gomega.Equal(`{"items":[{"api_key":"[FILTERED]"}],"user":{"name":"Ana","password_hash":"[FILTERED]"}}`))
		gomega.Expect(filterSensitiveBody([]byte("password=hunter2"))).To(gomega.HavePrefix("[FILTERED"))
		gomega.Expect(filterSensitiveBody([]byte("plain text"))).To(gomega.Equal("plain text"))
		gomega.Expect(filterSensitiveBody(nil)).To(gomega.BeEmpty())
	})
})

var _ = ginkgo.Describe("SecureHeaders", func() {
	ginkgo.It("should set hardening headers outside production", func() {
		handler := SecureHeaders(false, logger.Discard())(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/ping", nil))

		gomega.Expect(rec.Code).To(gomega.Equal(http.StatusOK))
		gomega.Expect(rec.Header().Get("X-Frame-Options")).To(gomega.Equal("DENY"))
		gomega.Expect(rec.Header().Get("X-Content-Type-Options")).To(gomega.Equal("nosniff"))
		gomega.Expect(rec.Header().Get("Strict-Transport-Security")).To(gomega.BeEmpty())
	})

	ginkgo.It("should redirect plain http in production", func() {
		reached := false
		handler := SecureHeaders(true, logger.Discard())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			reached = true
		}))

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "http://visitors.example.com/api/v1/ping", nil))

		gomega.Expect(reached).To(gomega.BeFalse())
		gomega.Expect(rec.Code).To(gomega.Equal(http.StatusMovedPermanently))
		gomega.Expect(rec.Header().Get("Location")).To(gomega.HavePrefix("https://"))
	})
})

var _ = ginkgo.Describe("HTTPMetrics", func() {
	ginkgo.It("should count requests by route pattern", func() {
		reg := prometheus.NewRegistry()
		m := NewHTTPMetrics(reg)

		router := chi.NewRouter()
		router.Use(m.Middleware)
		router.Get("/roles/{id}", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		})

		for _, id := range []string{"1", "2", "3"} {
			router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/roles/"+id, nil))
		}

		gomega.Expect(testutil.ToFloat64(m.Requests.WithLabelValues(http.MethodGet, "/roles/{id}", "404"))).To(gomega.Equal(3.0))
		gomega.Expect(testutil.CollectAndCount(m.Duration)).To(gomega.Equal(1))
	})

	ginkgo.It("should be a no-op when nil", func() {
		var m *HTTPMetrics
		next := http.HandlerFunc(func(http.ResponseWriter, *http.Request) {})
		gomega.Expect(m.Middleware(next)).ToNot(gomega.BeNil())
	})
})
