package middleware

import (
	"context"
	"ctchen222/todo-backend/internal/api/response"
	"ctchen222/todo-backend/internal/auth"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// SubjectKey is the gin context key holding the authenticated subject.
const SubjectKey = "auth.subject"

const msgInvalidToken = "Invalid token"

type subjectCtxKey struct{}

// RequireIdentity rejects requests without a valid bearer token. On success the
// token subject is available through Subject and SubjectFromContext.
func RequireIdentity(tokens *auth.TokenService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			unauthorized(c)
			return
		}

		subject, err := tokens.Verify(token, time.Now())
		if err != nil {
			unauthorized(c)
			return
		}

		c.Set(SubjectKey, subject)
		c.Request = c.Request.WithContext(context.WithValue(c.Request.Context(), subjectCtxKey{}, subject))
		c.Next()
	}
}

// Subject returns the authenticated subject, or "" on a public route.
func Subject(c *gin.Context) string {
	return c.GetString(SubjectKey)
}

// SubjectFromContext returns the subject stored by RequireIdentity.
func SubjectFromContext(ctx context.Context) (string, bool) {
	subject, ok := ctx.Value(subjectCtxKey{}).(string)
	return subject, ok
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func unauthorized(c *gin.Context) {
	c.Header("WWW-Authenticate", "Bearer")
	response.ErrorResponse(c, http.StatusUnauthorized, msgInvalidToken)
}
