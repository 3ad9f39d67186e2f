package middleware

import (
	"strings"
	"net/http"

	"github.com/gin-gonic/gin"
)

// CORS sets CORS headers and handles preflight requests.
//
// Entries in allowedOrigins are matched exactly, except "*" which allows any
// origin and "chrome-extension://*" which allows any installed extension ID.
// Extension IDs rotate between unpacked dev builds, so pinning them in config
// is impractical.
func CORS(allowedOrigins []string) gin.HandlerFunc {
	exact := make(map[string]struct{})
	allowAll := false
	allowAnyExtension := false
	for _, o := range allowedOrigins {
		trimmed := strings.TrimSpace(o)
		switch {
		case trimmed == "":
		case trimmed == "*":
			allowAll = true
		case trimmed == "chrome-extension://*":
			allowAnyExtension = true
		default:
			exact[trimmed] = struct{}{}
		}
	}

	originAllowed := func(origin string) bool {
		if allowAll {
			return true
		}
		if _, ok := exact[origin]; ok {
			return true
		}
		if allowAnyExtension && strings.HasPrefix(origin, "chrome-extension://") {
			return true
		}
		return false
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin != "" && originAllowed(origin) {
			h := c.Writer.Header()
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Vary", "Origin")
			h.Set("Access-Control-Allow-Credentials", "true")
			h.Set("Access-Control-Allow-Methods", "GET,POST,PUT,PATCH,DELETE,OPTIONS")
			h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Guest-Id, X-User-Id, X-Request-Id")
			h.Set("Access-Control-Expose-Headers", "X-Request-Id")
			h.Set("Access-Control-Max-Age", "600")
		}

		if c.Request.Method == http.MethodOptions {
			c.Status(http.StatusNoContent)
			c.Abort()
			return
		}

		c.Next()
	}
}
