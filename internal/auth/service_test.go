package auth

import (
	"context"
	"time"

	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"

	"github.com/frahmantamala/visitor-management/internal"
	"github.com/frahmantamala/visitor-management/pkg/logger"
)

var _ = ginkgo.Describe("AuthService", func() {
	var (
		service  *Service
		mockRepo *mockCredentialRepository
		codec    *JWTCodec
		ctx      context.Context
	)

	ginkgo.BeforeEach(func() {
		ctx = context.Background()
		mockRepo = newMockCredentialRepository()
		codec = NewJWTCodec(testSecret)
		service = NewService(mockRepo, codec, 15*time.Minute, logger.Discard())
	})

	ginkgo.Describe("VerifyCredentials", func() {
		ginkgo.It("should return the principal for a matching secret", func() {
			p, err := service.VerifyCredentials(ctx, "receptionist", "correct_password")

			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(p).To(gomega.Equal(Principal{ID: 2, Username: "receptionist", RoleID: 7}))
		})

		ginkgo.It("should report an unknown username as not found", func() {
			_, err := service.VerifyCredentials(ctx, "nobody", "correct_password")

			gomega.Expect(err).To(gomega.MatchError(ErrNotFound))
		})

		ginkgo.It("should reject a wrong secret", func() {
			_, err := service.VerifyCredentials(ctx, "admin", "wrong_password")

			gomega.Expect(err).To(gomega.MatchError(ErrInvalidCredentials))
		})

		ginkgo.It("should reject a disabled account that presents the right secret", func() {
			_, err := service.VerifyCredentials(ctx, "retired", "correct_password")

			gomega.Expect(err).To(gomega.MatchError(ErrAccountDisabled))
		})

		ginkgo.It("should not reveal a disabled account to a wrong secret", func() {
			_, err := service.VerifyCredentials(ctx, "retired", "wrong_password")

			gomega.Expect(err).To(gomega.MatchError(ErrInvalidCredentials))
		})

		ginkgo.It("should trim the username before the lookup", func() {
			p, err := service.VerifyCredentials(ctx, "  admin ", "correct_password")

			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(p.ID).To(gomega.Equal(int64(1)))
		})

		ginkgo.It("should wrap repository failures", func() {
			mockRepo.setError(errConnectionLost)

			_, err := service.VerifyCredentials(ctx, "admin", "correct_password")

			gomega.Expect(err).To(gomega.MatchError(errConnectionLost))
			gomega.Expect(err).ToNot(gomega.MatchError(ErrInvalidCredentials))
		})
	})

	ginkgo.Describe("Authenticate", func() {
		ginkgo.Context("when credentials are valid", func() {
			ginkgo.It("should return a bearer token for the principal", func() {
				// Given
				dto := LoginDTO{Username: "admin", Password: "correct_password"}

				// When
				resp, err := service.Authenticate(ctx, dto)

				// Then
				gomega.Expect(err).ToNot(gomega.HaveOccurred())
				gomega.Expect(resp.Token).ToNot(gomega.BeEmpty())
				gomega.Expect(resp.TokenType).To(gomega.Equal("Bearer"))
				gomega.Expect(resp.Principal.RoleID).To(gomega.Equal(int64(1)))
				gomega.Expect(resp.ExpiresAt).To(gomega.BeTemporally("~", time.Now().Add(15*time.Minute), 5*time.Second))
			})

			ginkgo.It("should issue a token the service accepts", func() {
				resp, err := service.Authenticate(ctx, LoginDTO{Username: "receptionist", Password: "correct_password"})
				gomega.Expect(err).ToNot(gomega.HaveOccurred())

				claims, err := service.ValidateAccessToken(resp.Token)

				gomega.Expect(err).ToNot(gomega.HaveOccurred())
				gomega.Expect(claims.UserID).To(gomega.Equal(int64(2)))
				gomega.Expect(claims.RoleID).To(gomega.Equal(int64(7)))
			})
		})

		ginkgo.Context("when input validation fails", func() {
			ginkgo.It("should not consult the repository", func() {
				_, err := service.Authenticate(ctx, LoginDTO{Username: "", Password: ""})

				gomega.Expect(err).To(gomega.HaveOccurred())
				appErr, ok := internal.IsAppError(err)
				gomega.Expect(ok).To(gomega.BeTrue())
				gomega.Expect(appErr.Code).To(gomega.Equal(internal.ErrCodeValidationFailed))
				gomega.Expect(appErr.GetDetailedMessage()).To(gomega.ContainSubstring("username is required"))
				gomega.Expect(appErr.GetDetailedMessage()).To(gomega.ContainSubstring("password is required"))
				gomega.Expect(mockRepo.lookups).To(gomega.BeZero())
			})
		})

		ginkgo.Context("when credentials are invalid", func() {
			ginkgo.It("should not issue a token", func() {
				resp, err := service.Authenticate(ctx, LoginDTO{Username: "admin", Password: "nope"})

				gomega.Expect(err).To(gomega.MatchError(ErrInvalidCredentials))
				gomega.Expect(resp).To(gomega.BeNil())
			})
		})
	})

	ginkgo.Describe("HashPassword", func() {
		ginkgo.It("should produce a hash VerifyCredentials accepts", func() {
			hash, err := HashPassword("s3cret-pass", 4)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())

			mockRepo.credentials["guard"] = &Credential{
				Principal:    Principal{ID: 9, Username: "guard", RoleID: 7},
				PasswordHash: hash,
				IsActive:     true,
			}

			p, err := service.VerifyCredentials(ctx, "guard", "s3cret-pass")
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(p.ID).To(gomega.Equal(int64(9)))
		})
	})
})
