package middlewares

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/karthikosa11/smartcal-nutrition-tracker/models"
	"github.com/karthikosa11/smartcal-nutrition-tracker/utils"
)

type fakeAuth struct {
	tokens map[string]*utils.Claims
	err    error
}

func (f *fakeAuth) Authenticate(_ context.Context, token string) (*utils.Claims, error) {
	if f.err != nil {
		return nil, f.err
	}
	if c, ok := f.tokens[token]; ok {
		return c, nil
	}
	return nil, models.ErrUnauthorized
}

func newAuthRouter(auth Authenticator, allowQuery bool, extra ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handlers := append([]gin.HandlerFunc{AuthMiddleware(auth, allowQuery)}, extra...)
	handlers = append(handlers, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user": c.GetString(CtxUserID), "token": c.GetString(CtxToken)})
	})
	r.GET("/me", handlers...)
	return r
}

func serve(r http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware(t *testing.T) {
	auth := &fakeAuth{tokens: map[string]*utils.Claims{
		"good": {UserID: "u-1", Role: models.RoleUser},
	}}
	r := newAuthRouter(auth, false)

	w := serve(r, httptest.NewRequest(http.MethodGet, "/me", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"error":"Access token required"}`, w.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer bad")
	w = serve(r, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"error":"Invalid or expired token"}`, w.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer good")
	w = serve(r, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user":"u-1","token":"good"}`, w.Body.String())
}

func TestAuthMiddlewareQueryToken(t *testing.T) {
	auth := &fakeAuth{tokens: map[string]*utils.Claims{"good": {UserID: "u-1"}}}

	w := serve(newAuthRouter(auth, false), httptest.NewRequest(http.MethodGet, "/me?access_token=good", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = serve(newAuthRouter(auth, true), httptest.NewRequest(http.MethodGet, "/me?access_token=good", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuthMiddlewareBackendFailure(t *testing.T) {
	r := newAuthRouter(&fakeAuth{err: errors.New("redis down")}, false)
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer good")
	w := serve(r, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireRole(t *testing.T) {
	auth := &fakeAuth{tokens: map[string]*utils.Claims{
		"user":  {UserID: "u-1", Role: models.RoleUser},
		"admin": {UserID: "u-2", Role: models.RoleAdmin},
	}}
	r := newAuthRouter(auth, false, RequireRole(models.RoleAdmin))

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer user")
	w := serve(r, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.JSONEq(t, `{"error":"Insufficient permissions"}`, w.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer admin")
	assert.Equal(t, http.StatusOK, serve(r, req).Code)
}

func newCORSRouter(allowAll bool) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(CORS([]string{" https://app.example.com/ ", ""}, allowAll))
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
	return r
}

func TestCORSAllowedOrigin(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Origin", "https://app.example.com")
	w := serve(newCORSRouter(false), req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pong", w.Body.String())
	assert.Equal(t, "https://app.example.com", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
}

func TestCORSUnknownOrigin(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Origin", "https://evil.example.org")
	w := serve(newCORSRouter(false), req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))

	w = serve(newCORSRouter(true), req)
	assert.Equal(t, "https://evil.example.org", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORSPreflightIsAnswered(t *testing.T) {
	req := httptest.NewRequest(http.MethodOptions, "/ping", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPut)
	req.Header.Set("Access-Control-Request-Headers", "Authorization")
	w := serve(newCORSRouter(false), req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEqual(t, "pong", w.Body.String())
	assert.Equal(t, "https://app.example.com", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), http.MethodPut)
}

func TestRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID(), RequestLogger())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(CtxRequestID)) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "abc")
	w := serve(r, req)
	assert.Equal(t, "abc", w.Header().Get("X-Request-ID"))
	assert.Equal(t, "abc", w.Body.String())

	w = serve(r, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
	assert.Equal(t, w.Header().Get("X-Request-ID"), w.Body.String())
}

func TestWebsocketOrigin(t *testing.T) {
	check := WebsocketOrigin([]string{"http://localhost:5173/"}, false)
	req := func(origin string) *http.Request {
		r := httptest.NewRequest(http.MethodGet, "/api/ws", nil)
		if origin != "" {
			r.Header.Set("Origin", origin)
		}
		return r
	}

	assert.True(t, check(req("")), "non-browser clients send no origin")
	assert.True(t, check(req("http://localhost:5173")))
	assert.False(t, check(req("http://evil.example")))
	assert.True(t, WebsocketOrigin(nil, true)(req("http://evil.example")))
}
