package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/docagenda/scheduling-api/internal/model"
	"github.com/docagenda/scheduling-api/internal/service/clinic"
	"github.com/docagenda/scheduling-api/pkg/auth"
)

const ContextActor = "actor"

type AuthMiddleware struct {
	verifier      *auth.TokenVerifier
	clinicService *clinic.Service
}

func NewAuthMiddleware(verifier *auth.TokenVerifier, clinicService *clinic.Service) *AuthMiddleware {
	return &AuthMiddleware{
		verifier:      verifier,
		clinicService: clinicService,
	}
}

// Authenticate verifies the bearer token and resolves the caller's clinic
// memberships into an Actor stored in the request context.
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing authorization header"})
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization format"})
			return
		}

		userID, patientID, err := m.verifier.Verify(parts[1])
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		actor, err := m.clinicService.ResolveActor(c.Request.Context(), userID, patientID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "could not resolve memberships"})
			return
		}

		c.Set(ContextActor, actor)
		c.Next()
	}
}

// ActorFrom returns the authenticated actor from the request context. It
// returns a zero Actor when authentication did not run, which fails every
// membership check.
func ActorFrom(c *gin.Context) model.Actor {
	v, ok := c.Get(ContextActor)
	if !ok {
		return model.Actor{}
	}
	actor, ok := v.(model.Actor)
	if !ok {
		return model.Actor{}
	}
	return actor
}
