// internal/tests/auth_test.go
package tests

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
)

type AuthTestSuite struct {
	apiSuite
}

func (suite *AuthTestSuite) register(username string) map[string]interface{} {
	w := suite.request("POST", "/auth/register", "", map[string]interface{}{
		"username": username,
		"email":    username + "@example.com",
		"password": "TestPass123!",
	})
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	return suite.data(w)
}

func (suite *AuthTestSuite) TestUserRegistration() {
	data := suite.register("testuser")

	user := data["user"].(map[string]interface{})
	assert.Equal(suite.T(), "testuser", user["username"])
	assert.Equal(suite.T(), false, user["is_staff"])
	assert.NotContains(suite.T(), user, "password_hash")
	assert.NotEmpty(suite.T(), data["access"])

	w := suite.request("POST", "/auth/register", "", map[string]interface{}{
		"username": "testuser",
		"email":    "again@example.com",
		"password": "TestPass123!",
	})
	assert.Equal(suite.T(), http.StatusConflict, w.Code)
}

func (suite *AuthTestSuite) TestWeakPasswordRejected() {
	w := suite.request("POST", "/auth/register", "", map[string]interface{}{
		"username": "weak",
		"email":    "weak@example.com",
		"password": "password",
	})
	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)

	details := suite.errorOf(w)["details"].([]interface{})
	assert.Equal(suite.T(), "password", details[0].(map[string]interface{})["field"])
}

func (suite *AuthTestSuite) TestUserLogin() {
	suite.register("testuser")

	w := suite.request("POST", "/auth/token", "", map[string]interface{}{
		"username": "testuser",
		"password": "TestPass123!",
	})
	assert.Equal(suite.T(), http.StatusOK, w.Code)
	data := suite.data(w)
	access := data["access"].(string)

	// The token opens authenticated endpoints.
	w = suite.request("GET", "/orders/", access, nil)
	assert.Equal(suite.T(), http.StatusOK, w.Code)

	w = suite.request("POST", "/auth/token/refresh", "", map[string]interface{}{"refresh": data["refresh"]})
	assert.Equal(suite.T(), http.StatusOK, w.Code)

	w = suite.request("POST", "/auth/token", "", map[string]interface{}{
		"username": "testuser",
		"password": "nope",
	})
	assert.Equal(suite.T(), http.StatusUnauthorized, w.Code)
	assert.Equal(suite.T(), "UNAUTHORIZED", suite.errorOf(w)["code"])
}

func (suite *AuthTestSuite) TestMissingAndBadTokens() {
	w := suite.request("GET", "/orders/", "", nil)
	assert.Equal(suite.T(), http.StatusUnauthorized, w.Code)

	w = suite.request("GET", "/orders/", "not-a-jwt", nil)
	assert.Equal(suite.T(), http.StatusUnauthorized, w.Code)
}

func TestAuthSuite(t *testing.T) {
	suite.Run(t, new(AuthTestSuite))
}

type ThrottleTestSuite struct {
	apiSuite
}

func (suite *ThrottleTestSuite) SetupTest() {
	suite.cfg = testConfig()
	suite.cfg.Throttle.AuthRate = "2/minute"
	suite.apiSuite.SetupTest()
}

func (suite *ThrottleTestSuite) TestAuthScopeThrottled() {
	body := map[string]interface{}{"username": "ghost", "password": "x"}
	for i := 0; i < 2; i++ {
		w := suite.request("POST", "/auth/token", "", body)
		assert.Equal(suite.T(), http.StatusUnauthorized, w.Code)
	}

	w := suite.request("POST", "/auth/token", "", body)
	assert.Equal(suite.T(), http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(suite.T(), w.Header().Get("Retry-After"))
	assert.Equal(suite.T(), "THROTTLED", suite.errorOf(w)["code"])

	// Other scopes keep their own buckets.
	w = suite.request("GET", "/products/", "", nil)
	assert.Equal(suite.T(), http.StatusOK, w.Code)
}

func TestThrottleSuite(t *testing.T) {
	suite.Run(t, new(ThrottleTestSuite))
}
