package middleware

import (
	"net/http"
	"strings"

	"github.com/xalleer/kitchen-os-backend/internal/apierror"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const ClaimsKey = "claims"

// JWTClaims are the claims this service reads from access tokens. Tokens are
// issued by the account service; sub carries the user id.
type JWTClaims struct {
	FamilyID string `json:"family_id"`
	jwt.RegisteredClaims
}

// Identity is the authenticated caller resolved from the token.
type Identity struct {
	UserID   uuid.UUID
	FamilyID uuid.UUID
}

const identityKey = "identity"

// JWTAuth validates the Bearer token on every protected route.
func JWTAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, apierror.New("Authentication required"))
			return
		}

		tokenStr := strings.TrimPrefix(header, "Bearer ")
		claims := &JWTClaims{}
		token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, apierror.New("Invalid or expired token"))
			return
		}

		userID, errU := uuid.Parse(claims.Subject)
		familyID, errF := uuid.Parse(claims.FamilyID)
		if errU != nil || errF != nil {
			// a user without a family cannot use any of these routes
			c.AbortWithStatusJSON(http.StatusForbidden, apierror.New("User is not a member of a family"))
			return
		}

		c.Set(ClaimsKey, claims)
		SetIdentity(c, Identity{UserID: userID, FamilyID: familyID})
		c.Next()
	}
}

// SetIdentity stores the caller for GetIdentity.
func SetIdentity(c *gin.Context, id Identity) { c.Set(identityKey, id) }

// GetIdentity returns the caller set by JWTAuth.
func GetIdentity(c *gin.Context) Identity {
	id, _ := c.MustGet(identityKey).(Identity)
	return id
}
