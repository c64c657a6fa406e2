package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

// CORSConfig configures cross-origin request handling.
type CORSConfig struct {
	// AllowOrigins lists permitted origins; "*" allows everything.
	AllowOrigins []string
	AllowMethods []string
	AllowHeaders []string
	// ExposeHeaders are response headers visible to browser scripts.
	ExposeHeaders []string
	// AllowCredentials permits cookies and auth headers.
	AllowCredentials bool
	// MaxAge caches the preflight answer, in seconds.
	MaxAge int
}

// DefaultCORSConfig allows all origins without credentials.
func DefaultCORSConfig() *CORSConfig {
	return &CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodPatch,
			http.MethodDelete,
			http.MethodOptions,
		},
		AllowHeaders: []string{
			"Origin",
			"Content-Type",
			"Accept",
			"Authorization",
			"X-Request-ID",
		},
		ExposeHeaders: []string{
			"X-Request-ID",
			"X-RateLimit-Limit",
			"X-RateLimit-Remaining",
			"X-RateLimit-Reset",
		},
		AllowCredentials: false,
		MaxAge:           86400,
	}
}

// ProductionCORSConfig pins the origin list and enables credentials.
func ProductionCORSConfig(allowedOrigins []string) *CORSConfig {
	config := DefaultCORSConfig()
	config.AllowOrigins = allowedOrigins
	config.AllowCredentials = true
	return config
}

// corsPolicy holds the header values precomputed from a CORSConfig.
type corsPolicy struct {
	wildcard    bool
	origins     map[string]struct{}
	methods     string
	headers     string
	expose      string
	maxAge      string
	credentials bool
}

func newCORSPolicy(config *CORSConfig) *corsPolicy {
	p := &corsPolicy{
		wildcard:    len(config.AllowOrigins) == 1 && config.AllowOrigins[0] == "*",
		methods:     strings.Join(config.AllowMethods, ", "),
		headers:     strings.Join(config.AllowHeaders, ", "),
		expose:      strings.Join(config.ExposeHeaders, ", "),
		maxAge:      strconv.Itoa(config.MaxAge),
		credentials: config.AllowCredentials,
	}
	if !p.wildcard {
		p.origins = make(map[string]struct{}, len(config.AllowOrigins))
		for _, origin := range config.AllowOrigins {
			p.origins[origin] = struct{}{}
		}
	}
	return p
}

// resolve maps the request origin to the Allow-Origin header value, or ""
// when the origin is not permitted.
func (p *corsPolicy) resolve(origin string) string {
	if p.wildcard {
		return "*"
	}
	if _, ok := p.origins[origin]; ok {
		return origin
	}
	return ""
}

// CORS answers preflight requests and sets the access-control headers.
// Requests from an unlisted origin pass through without CORS headers so
// the browser blocks the response.
func CORS(config *CORSConfig) gin.HandlerFunc {
	if config == nil {
		config = DefaultCORSConfig()
	}

	policy := newCORSPolicy(config)

	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")

		allowed := policy.resolve(origin)
		if allowed == "" && origin != "" {
			c.Next()
			return
		}

		c.Header("Access-Control-Allow-Origin", allowed)
		c.Header("Access-Control-Allow-Methods", policy.methods)
		c.Header("Access-Control-Allow-Headers", policy.headers)
		c.Header("Access-Control-Expose-Headers", policy.expose)
		c.Header("Access-Control-Max-Age", policy.maxAge)
		if policy.credentials {
			c.Header("Access-Control-Allow-Credentials", "true")
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
