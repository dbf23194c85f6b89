package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/javajoker/catalog-api/internal/utils"
)

func TestParseRate(t *testing.T) {
	r, burst, err := ParseRate("100/minute")
	require.NoError(t, err)
	assert.Equal(t, 100, burst)
	assert.InDelta(t, 100.0/60, float64(r), 1e-9)

	r, _, err = ParseRate("5/s")
	require.NoError(t, err)
	assert.Equal(t, rate.Limit(5), r)

	for _, bad := range []string{"", "10", "x/minute", "0/minute", "10/", "10/week"} {
		_, _, err := ParseRate(bad)
		assert.Error(t, err, bad)
	}
}

func newEngine(handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handlers = append(handlers, func(c *gin.Context) { c.Status(http.StatusOK) })
	r.Any("/x", handlers...)
	return r
}

func do(r *gin.Engine, method, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, "/x", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestThrottleMiddleware(t *testing.T) {
	throttle, err := NewThrottle("test", "2/minute")
	require.NoError(t, err)
	defer throttle.Close()

	r := newEngine(OptionalAuth(), throttle.Middleware())
	assert.Equal(t, http.StatusOK, do(r, "GET", "").Code)
	assert.Equal(t, http.StatusOK, do(r, "GET", "").Code)

	w := do(r, "GET", "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))

	// Authenticated callers get their own bucket.
	utils.SetJWTSecret("middleware-test")
	token, err := utils.GenerateJWT(7, "alice", false, 1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, do(r, "GET", token).Code)
}

func TestSafeMethodsOr(t *testing.T) {
	utils.SetJWTSecret("middleware-test")
	gin.SetMode(gin.TestMode)

	reached := 0
	r := gin.New()
	r.Any("/x",
		SafeMethodsOr(Authenticated, Staff),
		OptionalAuth(),
		func(c *gin.Context) {
			reached++
			c.Status(http.StatusCreated)
		},
	)

	assert.Equal(t, http.StatusCreated, do(r, "GET", "").Code)
	assert.Equal(t, 1, reached)

	w := do(r, "POST", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, 1, reached)

	user, err := utils.GenerateJWT(1, "alice", false, 1)
	require.NoError(t, err)
	w = do(r, "DELETE", user)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, 1, reached, "handler must not run for non-staff writes")
	assert.NotContains(t, w.Body.String(), `"success":true`)

	staff, err := utils.GenerateJWT(2, "admin", true, 1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, do(r, "POST", staff).Code)
	assert.Equal(t, 2, reached)
}

func TestAdminRequiredStopsChain(t *testing.T) {
	utils.SetJWTSecret("middleware-test")
	gin.SetMode(gin.TestMode)

	reached := false
	r := gin.New()
	r.GET("/x", AuthRequired(), AdminRequired(), func(c *gin.Context) {
		reached = true
		c.Status(http.StatusOK)
	})

	user, err := utils.GenerateJWT(1, "alice", false, 1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, do(r, "GET", user).Code)
	assert.False(t, reached)
}

func TestOptionalAuthRejectsBadTokens(t *testing.T) {
	r := newEngine(OptionalAuth())
	assert.Equal(t, http.StatusOK, do(r, "GET", "").Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, "GET", "not-a-jwt").Code)
}
