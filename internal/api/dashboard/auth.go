package dashboard

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/aimd54/kibo-gamification/internal/config"
	"github.com/aimd54/kibo-gamification/internal/service/session"
)

const identityKey = "identity"

var errInvalidToken = errors.New("invalid token")

// TokenVerifier validates HMAC-signed bearer tokens and extracts the identity.
type TokenVerifier struct {
	secret []byte
	issuer string
}

// NewTokenVerifier creates a verifier from auth settings.
func NewTokenVerifier(cfg *config.AuthConfig) *TokenVerifier {
	return &TokenVerifier{secret: []byte(cfg.JWTSecret), issuer: cfg.Issuer}
}

// Verify parses a token. The "sub" claim is the user id; "name" is an optional display name.
func (v *TokenVerifier) Verify(tokenStr string) (session.Identity, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"})}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	token, err := jwt.Parse(tokenStr, func(_ *jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, opts...)
	if err != nil {
		return session.Identity{}, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return session.Identity{}, errInvalidToken
	}
	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return session.Identity{}, errInvalidToken
	}

	identity := session.Identity{UserID: sub}
	if name, ok := claims["name"].(string); ok {
		identity.DisplayName = name
	}
	return identity, nil
}

// AuthMiddleware rejects requests without a valid bearer token and stores the identity.
func AuthMiddleware(verifier *TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortUnauthorized(c, "Authorization header is required")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			abortUnauthorized(c, "Invalid authorization header format")
			return
		}

		identity, err := verifier.Verify(parts[1])
		if err != nil {
			abortUnauthorized(c, "Invalid or expired token")
			return
		}

		c.Set(identityKey, identity)
		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, message string) {
	errorResponse(c, http.StatusUnauthorized, message)
	c.Abort()
}

// identityFrom returns the identity stored by AuthMiddleware.
func identityFrom(c *gin.Context) (session.Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return session.Identity{}, false
	}
	identity, ok := v.(session.Identity)
	return identity, ok
}
