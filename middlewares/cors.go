package middlewares

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-chi/cors"
)

// OriginChecker reports whether a browser origin may call the API. Origins
// match exactly or by prefix; allowAll accepts any origin (development).
func OriginChecker(origins []string, allowAll bool) func(origin string) bool {
	allowed := make([]string, 0, len(origins))
	for _, o := range origins {
		if o = strings.TrimRight(strings.TrimSpace(o), "/"); o != "" {
			allowed = append(allowed, o)
		}
	}
	return func(origin string) bool {
		if allowAll {
			return true
		}
		for _, a := range allowed {
			if origin == a || strings.HasPrefix(origin, a) {
				return true
			}
		}
		return false
	}
}

// WebsocketOrigin applies the CORS origin list to websocket upgrades.
// Requests without an Origin header come from non-browser clients and pass.
func WebsocketOrigin(origins []string, allowAll bool) func(r *http.Request) bool {
	allowed := OriginChecker(origins, allowAll)
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || allowed(origin)
	}
}

// CORS wraps go-chi/cors for gin.
func CORS(origins []string, allowAll bool) gin.HandlerFunc {
	allowed := OriginChecker(origins, allowAll)
	c := cors.New(cors.Options{
		AllowOriginFunc: func(_ *http.Request, origin string) bool {
			return allowed(origin)
		},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	})

	return func(ctx *gin.Context) {
		passed := false
		c.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			passed = true
			ctx.Request = r
			ctx.Next()
		})).ServeHTTP(ctx.Writer, ctx.Request)

		// preflight requests are answered by cors itself
		if !passed {
			ctx.Abort()
		}
	}
}
