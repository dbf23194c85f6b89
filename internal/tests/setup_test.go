// internal/tests/setup_test.go
package tests

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	"github.com/javajoker/catalog-api/internal/cache"
	"github.com/javajoker/catalog-api/internal/config"
	"github.com/javajoker/catalog-api/internal/router"
	"github.com/javajoker/catalog-api/internal/testutil"
)

func testConfig() *config.Config {
	return &config.Config{
		Environment: "test",
		JWT:         config.JWTConfig{SecretKey: "test-secret", AccessTokenTTL: 1, RefreshTokenTTL: 24},
		Database:    config.DatabaseConfig{QueryTimeout: 5 * time.Second},
		Cache: config.CacheConfig{
			Backend:        "memory",
			Timeout:        time.Second,
			ProductListTTL: 2 * time.Hour,
			OrderListTTL:   15 * time.Minute,
		},
		Pagination: config.PaginationConfig{
			PageSize:         2,
			MaxPageSize:      10,
			DefaultLimit:     10,
			MaxLimit:         100,
			ProductListStyle: "page_number",
			OrderListStyle:   "limit_offset",
		},
		Throttle: config.ThrottleConfig{
			ProductRate: "1000/minute",
			OrdersRate:  "1000/minute",
			AuthRate:    "1000/minute",
		},
		Server: config.ServerConfig{AllowedOrigins: []string{"*"}},
	}
}

// apiSuite serves the full router over an in-memory database.
type apiSuite struct {
	suite.Suite
	db        *gorm.DB
	router    *gin.Engine
	throttles *router.Throttles
	cfg       *config.Config
}

func (s *apiSuite) SetupTest() {
	gin.SetMode(gin.TestMode)

	if s.cfg == nil {
		s.cfg = testConfig()
	}
	s.db = testutil.NewDB(s.T())

	throttles, err := router.NewThrottles(s.cfg.Throttle)
	s.Require().NoError(err)
	s.throttles = throttles

	manager := cache.NewManager(cache.NewMemoryStore(cache.MemoryConfig{Capacity: 1000, NumShards: 4}), s.cfg.Cache.Timeout)
	s.router = router.Initialize(s.db, s.cfg, manager, throttles)
}

func (s *apiSuite) TearDownTest() {
	s.throttles.Close()
}

func (s *apiSuite) request(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		s.Require().NoError(json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *apiSuite) decode(w *httptest.ResponseRecorder) map[string]interface{} {
	var response map[string]interface{}
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &response), w.Body.String())
	return response
}

func (s *apiSuite) data(w *httptest.ResponseRecorder) map[string]interface{} {
	return s.decode(w)["data"].(map[string]interface{})
}

func (s *apiSuite) list(w *httptest.ResponseRecorder) []interface{} {
	return s.decode(w)["data"].([]interface{})
}

func (s *apiSuite) pagination(w *httptest.ResponseRecorder) map[string]interface{} {
	meta := s.decode(w)["meta"].(map[string]interface{})
	return meta["pagination"].(map[string]interface{})
}

func (s *apiSuite) errorOf(w *httptest.ResponseRecorder) map[string]interface{} {
	response := s.decode(w)
	s.False(response["success"].(bool))
	return response["error"].(map[string]interface{})
}
