package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/nurpe/marketplace-payments/internal/auth"
	"github.com/nurpe/marketplace-payments/internal/model"
	"github.com/nurpe/marketplace-payments/internal/service"
)

const (
	principalKey = "principal"

	// ProfileHeader carries a raw profile id for clients without tokens.
	ProfileHeader = "profile_id"
)

type ProfileResolver interface {
	GetProfile(ctx context.Context, id uuid.UUID) (*model.Profile, error)
}

var errMissingCredentials = errors.New("authorization token not provided")

// Auth resolves the calling profile and rejects the request with 401 when it
// cannot be resolved.
func Auth(parser *auth.Parser, profiles ProfileResolver, allowProfileHeader bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		profileID, err := resolveProfileID(c, parser, allowProfileHeader)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}

		profile, err := profiles.GetProfile(c.Request.Context(), profileID)
		if err != nil {
			if errors.Is(err, service.ErrNotFound) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unknown profile"})
				return
			}
			_ = c.Error(err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		c.Set(principalKey, model.Principal{
			ProfileID: profile.ID,
			Profile:   *profile,
		})
		c.Next()
	}
}

func MustPrincipal(c *gin.Context) (model.Principal, bool) {
	value, ok := c.Get(principalKey)
	if !ok {
		return model.Principal{}, false
	}
	principal, ok := value.(model.Principal)
	return principal, ok
}

func resolveProfileID(c *gin.Context, parser *auth.Parser, allowProfileHeader bool) (uuid.UUID, error) {
	if header := strings.TrimSpace(c.GetHeader("Authorization")); header != "" {
		parts := strings.Fields(header)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			return uuid.Nil, errors.New("invalid Authorization header format")
		}
		profileID, err := parser.Parse(parts[1])
		if err != nil {
			return uuid.Nil, errors.New("invalid or expired token")
		}
		return profileID, nil
	}

	if !allowProfileHeader {
		return uuid.Nil, errMissingCredentials
	}
	raw := strings.TrimSpace(c.GetHeader(ProfileHeader))
	if raw == "" {
		return uuid.Nil, errMissingCredentials
	}
	profileID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, errors.New("invalid profile_id header")
	}
	return profileID, nil
}
