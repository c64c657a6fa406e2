package middleware

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/commercekit/walletpay/internal/pkg/logger"
)

const (
	// AuthUserIDKey stores the authenticated user id in the gin context.
	AuthUserIDKey = "auth_user_id"
	// AuthUserEmailKey stores the authenticated user's email.
	AuthUserEmailKey = "auth_user_email"
	// AuthUserRoleKey stores the authenticated user's role.
	AuthUserRoleKey = "auth_user_role"
)

// AuthClaims are the token claims the API cares about.
type AuthClaims struct {
	UserID string
	Email  string
	Role   string
	Exp    time.Time
}

// AuthConfig configures the bearer-token middleware.
type AuthConfig struct {
	// TokenValidator parses and verifies a token.
	TokenValidator func(token string) (*AuthClaims, error)
	// SkipPaths bypass authentication entirely.
	SkipPaths []string
	// Optional marks authentication as best effort: a missing or bad
	// token leaves the request anonymous instead of rejecting it.
	// Checkout uses this, since guests may submit card payments.
	Optional bool
}

// jwtClaims is the wire shape of our tokens.
type jwtClaims struct {
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// JWTValidator verifies HMAC-signed tokens with the given secret and
// issuer. The subject claim carries the user id.
func JWTValidator(secret, issuer string) func(token string) (*AuthClaims, error) {
	return func(tokenString string) (*AuthClaims, error) {
		var claims jwtClaims
		token, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, errors.New("unexpected signing method")
			}
			return []byte(secret), nil
		}, jwt.WithIssuer(issuer), jwt.WithExpirationRequired())
		if err != nil {
			return nil, err
		}
		if !token.Valid {
			return nil, errors.New("invalid token")
		}

		return &AuthClaims{
			UserID: claims.Subject,
			Email:  claims.Email,
			Role:   claims.Role,
			Exp:    claims.ExpiresAt.Time,
		}, nil
	}
}

// IssueToken signs a token for a user. Used by tests and tooling.
func IssueToken(secret, issuer string, userID uuid.UUID, email, role string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwtClaims{
		Email: email,
		Role:  role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// Auth checks the Authorization header and puts the claims into the
// context. With Optional set, requests without a valid token pass
// through anonymously.
func Auth(config *AuthConfig) gin.HandlerFunc {
	skipMap := make(map[string]bool)
	for _, path := range config.SkipPaths {
		skipMap[path] = true
	}

	return func(c *gin.Context) {
		if skipMap[c.Request.URL.Path] {
			c.Next()
			return
		}

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			if config.Optional {
				c.Next()
				return
			}
			abortWithUnauthorized(c, "Authorization header is required")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
			if config.Optional {
				c.Next()
				return
			}
			abortWithUnauthorized(c, "Invalid authorization header format")
			return
		}

		claims, err := config.TokenValidator(parts[1])
		if err != nil {
			if config.Optional {
				c.Next()
				return
			}
			abortWithUnauthorized(c, "Invalid or expired token")
			return
		}

		if claims.Exp.Before(time.Now()) {
			if config.Optional {
				c.Next()
				return
			}
			abortWithUnauthorized(c, "Token has expired")
			return
		}

		c.Set(AuthUserIDKey, claims.UserID)
		c.Set(AuthUserEmailKey, claims.Email)
		c.Set(AuthUserRoleKey, claims.Role)

		ctx := logger.WithUserID(c.Request.Context(), claims.UserID)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// RequireRole rejects requests whose authenticated role is not listed.
// Must run after Auth.
func RequireRole(roles ...string) gin.HandlerFunc {
	roleMap := make(map[string]bool)
	for _, role := range roles {
		roleMap[role] = true
	}

	return func(c *gin.Context) {
		userRole := GetAuthUserRole(c)
		if userRole == "" {
			abortWithForbidden(c, "User role not found")
			return
		}

		if !roleMap[userRole] {
			abortWithForbidden(c, "Insufficient permissions")
			return
		}

		c.Next()
	}
}

func abortWithUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"success": false,
		"error": gin.H{
			"code":    "UNAUTHORIZED",
			"message": message,
		},
		"request_id": GetRequestID(c),
		"timestamp":  time.Now().UTC(),
	})
}

func abortWithForbidden(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
		"success": false,
		"error": gin.H{
			"code":    "FORBIDDEN",
			"message": message,
		},
		"request_id": GetRequestID(c),
		"timestamp":  time.Now().UTC(),
	})
}

// GetAuthUserID returns the authenticated user id, or uuid.Nil for
// guests.
func GetAuthUserID(c *gin.Context) uuid.UUID {
	if id, exists := c.Get(AuthUserIDKey); exists {
		if strID, ok := id.(string); ok {
			if uid, err := uuid.Parse(strID); err == nil {
				return uid
			}
		}
	}
	return uuid.Nil
}

// GetAuthUserEmail returns the authenticated user's email.
func GetAuthUserEmail(c *gin.Context) string {
	if email, exists := c.Get(AuthUserEmailKey); exists {
		if strEmail, ok := email.(string); ok {
			return strEmail
		}
	}
	return ""
}

// GetAuthUserRole returns the authenticated user's role.
func GetAuthUserRole(c *gin.Context) string {
	if role, exists := c.Get(AuthUserRoleKey); exists {
		if strRole, ok := role.(string); ok {
			return strRole
		}
	}
	return ""
}
