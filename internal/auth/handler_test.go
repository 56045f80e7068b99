package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"

	"github.com/frahmantamala/visitor-management/internal"
	"github.com/frahmantamala/visitor-management/internal/transport"
	"github.com/frahmantamala/visitor-management/pkg/logger"
)

type errorBody struct {
	Error struct {
		Type    string `json:"type"`
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func decodeError(rec *httptest.ResponseRecorder) errorBody {
	var body errorBody
	gomega.Expect(json.Unmarshal(rec.Body.Bytes(), &body)).To(gomega.Succeed())
	return body
}

var _ = ginkgo.Describe("AuthHandler", func() {
	var (
		handler  *Handler
		mockRepo *mockCredentialRepository
		codec    *JWTCodec
	)

	ginkgo.BeforeEach(func() {
		mockRepo = newMockCredentialRepository()
		codec = NewJWTCodec(testSecret)
		svc := NewService(mockRepo, codec, time.Hour, logger.Discard())
		handler = NewHandler(transport.NewBaseHandler(logger.Discard()), svc)
	})

	login := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		handler.Login(rec, req)
		return rec
	}

	ginkgo.Describe("Login", func() {
		ginkgo.It("should return 200 with a token", func() {
			rec := login(`{"username":"admin","password":"correct_password"}`)

			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusOK))
			var resp LoginResponse
			gomega.Expect(json.Unmarshal(rec.Body.Bytes(), &resp)).To(gomega.Succeed())
			gomega.Expect(resp.Token).ToNot(gomega.BeEmpty())
			gomega.Expect(resp.Principal.Username).To(gomega.Equal("admin"))
		})

		ginkgo.It("should return the same 401 for unknown users and wrong passwords", func() {
			unknown := login(`{"username":"ghost","password":"correct_password"}`)
			wrong := login(`{"username":"admin","password":"incorrect"}`)

			gomega.Expect(unknown.Code).To(gomega.Equal(http.StatusUnauthorized))
			gomega.Expect(wrong.Code).To(gomega.Equal(http.StatusUnauthorized))
			gomega.Expect(unknown.Body.String()).To(gomega.Equal(wrong.Body.String()))
			gomega.Expect(decodeError(wrong).Error.Code).To(gomega.Equal(string(internal.ErrCodeInvalidCredentials)))
		})

		ginkgo.It("should return 403 for a disabled account", func() {
			rec := login(`{"username":"retired","password":"correct_password"}`)

			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusForbidden))
			gomega.Expect(decodeError(rec).Error.Code).To(gomega.Equal(string(internal.ErrCodeUserInactive)))
		})

		ginkgo.It("should return 400 for a malformed body", func() {
			rec := login(`{"username":`)

			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusBadRequest))
		})

		ginkgo.It("should return 400 for missing fields", func() {
			rec := login(`{"username":"admin"}`)

			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusBadRequest))
			gomega.Expect(decodeError(rec).Error.Code).To(gomega.Equal(string(internal.ErrCodeValidationFailed)))
		})

		ginkgo.It("should return 500 without leaking store errors", func() {
			mockRepo.setError(errConnectionLost)

			rec := login(`{"username":"admin","password":"correct_password"}`)

			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusInternalServerError))
			gomega.Expect(rec.Body.String()).ToNot(gomega.ContainSubstring("connection lost"))
		})
	})

	ginkgo.Describe("AuthMiddleware", func() {
		var (
			reached   bool
			seen      internal.Principal
			protected http.Handler
		)

		ginkgo.BeforeEach(func() {
			reached = false
			protected = handler.AuthMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				reached = true
				seen, _ = internal.PrincipalFromContext(r.Context())
				w.WriteHeader(http.StatusNoContent)
			}))
		})

		serve := func(authorization string) *httptest.ResponseRecorder {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/menus/me", nil)
			if authorization != "" {
				req.Header.Set("Authorization", authorization)
			}
			rec := httptest.NewRecorder()
			protected.ServeHTTP(rec, req)
			return rec
		}

		ginkgo.It("should pass the verified principal downstream", func() {
			token, _, err := codec.Issue(Principal{ID: 2, Username: "receptionist", RoleID: 7}, time.Hour)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())

			rec := serve("Bearer " + token)

			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusNoContent))
			gomega.Expect(reached).To(gomega.BeTrue())
			gomega.Expect(seen).To(gomega.Equal(internal.Principal{ID: 2, Username: "receptionist", RoleID: 7}))
		})

		ginkgo.DescribeTable("should reject without reaching the handler",
			func(authorization string, code internal.ErrorCode) {
				rec := serve(authorization)

				gomega.Expect(rec.Code).To(gomega.Equal(http.StatusUnauthorized))
				gomega.Expect(decodeError(rec).Error.Code).To(gomega.Equal(string(code)))
				gomega.Expect(reached).To(gomega.BeFalse())
			},
			ginkgo.Entry("missing header", "", internal.ErrCodeMissingToken),
			ginkgo.Entry("wrong scheme", "Basic YWRtaW46YWRtaW4=", internal.ErrCodeMissingToken),
			ginkgo.Entry("scheme only", "Bearer", internal.ErrCodeMissingToken),
			ginkgo.Entry("garbage token", "Bearer not.a.token", internal.ErrCodeInvalidToken),
		)

		ginkgo.It("should report expired tokens", func() {
			token, _, err := codec.Issue(Principal{ID: 2, Username: "receptionist", RoleID: 7}, -time.Minute)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())

			rec := serve("Bearer " + token)

			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusUnauthorized))
			gomega.Expect(decodeError(rec).Error.Code).To(gomega.Equal(string(internal.ErrCodeTokenExpired)))
			gomega.Expect(reached).To(gomega.BeFalse())
		})
	})
})
