package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testSecret = "test-secret"
	testIssuer = "walletpay-test"
)

func authRouter(config *AuthConfig) (*gin.Engine, *gin.Context) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	captured := &gin.Context{}
	router.Use(Auth(config))
	router.GET("/protected", func(c *gin.Context) {
		captured.Keys = c.Keys
		c.String(http.StatusOK, "ok")
	})
	return router, captured
}

func bearerRequest(token string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func TestAuth_ValidToken(t *testing.T) {
	userID := uuid.New()
	token, err := IssueToken(testSecret, testIssuer, userID, "staff@example.com", "admin", time.Hour)
	require.NoError(t, err)

	router, captured := authRouter(&AuthConfig{
		TokenValidator: JWTValidator(testSecret, testIssuer),
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, bearerRequest(token))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, userID, GetAuthUserID(captured))
	assert.Equal(t, "staff@example.com", GetAuthUserEmail(captured))
	assert.Equal(t, "admin", GetAuthUserRole(captured))
}

func TestAuth_MissingHeader(t *testing.T) {
	router, _ := authRouter(&AuthConfig{
		TokenValidator: JWTValidator(testSecret, testIssuer),
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, bearerRequest(""))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Authorization header is required")
}

func TestAuth_MalformedHeader(t *testing.T) {
	router, _ := authRouter(&AuthConfig{
		TokenValidator: JWTValidator(testSecret, testIssuer),
	})

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Basic abc123")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuth_WrongSecret(t *testing.T) {
	token, err := IssueToken("other-secret", testIssuer, uuid.New(), "", "user", time.Hour)
	require.NoError(t, err)

	router, _ := authRouter(&AuthConfig{
		TokenValidator: JWTValidator(testSecret, testIssuer),
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, bearerRequest(token))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuth_WrongIssuer(t *testing.T) {
	token, err := IssueToken(testSecret, "someone-else", uuid.New(), "", "user", time.Hour)
	require.NoError(t, err)

	router, _ := authRouter(&AuthConfig{
		TokenValidator: JWTValidator(testSecret, testIssuer),
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, bearerRequest(token))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuth_ExpiredToken(t *testing.T) {
	token, err := IssueToken(testSecret, testIssuer, uuid.New(), "", "user", -time.Minute)
	require.NoError(t, err)

	router, _ := authRouter(&AuthConfig{
		TokenValidator: JWTValidator(testSecret, testIssuer),
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, bearerRequest(token))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuth_SkipPaths(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(Auth(&AuthConfig{
		TokenValidator: JWTValidator(testSecret, testIssuer),
		SkipPaths:      []string{"/open"},
	}))
	router.GET("/open", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/open", nil))

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuth_OptionalAllowsAnonymous(t *testing.T) {
	router, captured := authRouter(&AuthConfig{
		TokenValidator: JWTValidator(testSecret, testIssuer),
		Optional:       true,
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, bearerRequest(""))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, uuid.Nil, GetAuthUserID(captured))
}

func TestAuth_OptionalStillSetsClaims(t *testing.T) {
	userID := uuid.New()
	token, err := IssueToken(testSecret, testIssuer, userID, "", "user", time.Hour)
	require.NoError(t, err)

	router, captured := authRouter(&AuthConfig{
		TokenValidator: JWTValidator(testSecret, testIssuer),
		Optional:       true,
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, bearerRequest(token))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, userID, GetAuthUserID(captured))
}

func TestRequireRole(t *testing.T) {
	gin.SetMode(gin.TestMode)

	newRouter := func(role string) *gin.Engine {
		router := gin.New()
		router.Use(func(c *gin.Context) {
			if role != "" {
				c.Set(AuthUserRoleKey, role)
			}
		})
		router.Use(RequireRole("admin"))
		router.GET("/admin", func(c *gin.Context) {
			c.String(http.StatusOK, "ok")
		})
		return router
	}

	t.Run("AllowedRole", func(t *testing.T) {
		w := httptest.NewRecorder()
		newRouter("admin").ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("ForbiddenRole", func(t *testing.T) {
		w := httptest.NewRecorder()
		newRouter("user").ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin", nil))
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("NoRole", func(t *testing.T) {
		w := httptest.NewRecorder()
		newRouter("").ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin", nil))
		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}

func TestGetAuthUserID_BadValue(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	c.Set(AuthUserIDKey, "not-a-uuid")
	assert.Equal(t, uuid.Nil, GetAuthUserID(c))

	c.Set(AuthUserIDKey, 42)
	assert.Equal(t, uuid.Nil, GetAuthUserID(c))
}
