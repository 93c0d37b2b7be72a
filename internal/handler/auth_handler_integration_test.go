package handler_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/luizbraga/baseapi/internal/audit"
	"github.com/luizbraga/baseapi/internal/handler"
	"github.com/luizbraga/baseapi/internal/models"
	"github.com/luizbraga/baseapi/internal/repository"
	"github.com/luizbraga/baseapi/internal/service"
	"github.com/luizbraga/baseapi/internal/session"
	"github.com/luizbraga/baseapi/internal/testutil"
	"github.com/luizbraga/baseapi/internal/utils"
	"github.com/luizbraga/baseapi/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// AuthHandlerIntegrationTestSuite defines test suite
type AuthHandlerIntegrationTestSuite struct {
	suite.Suite
	testDB       *testutil.TestDatabase
	testRedis    *testutil.TestRedis
	sessionStore session.Store
	auditLog     *audit.Log
	router       *gin.Engine
}

// SetupSuite runs before all tests
func (s *AuthHandlerIntegrationTestSuite) SetupSuite() {
	gin.SetMode(gin.TestMode)

	// Initialize logger (required for handlers)
	logger.Init(false)

	// Start in-memory SQLite test database (migrations run automatically)
	s.testDB = testutil.SetupTestDatabase(s.T())
	s.testRedis = testutil.SetupTestRedis(s.T())

	store, err := session.NewRedisStore(s.testRedis.URL)
	require.NoError(s.T(), err)
	s.sessionStore = store

	s.auditLog, err = audit.NewLog(filepath.Join(s.T().TempDir(), "audit.log"))
	require.NoError(s.T(), err)

	// Setup repositories and services
	userRepo := repository.NewUserRepository(s.testDB.DB)
	tokenRepo := repository.NewTokenRepository(s.testDB.DB)
	authService := service.NewAuthService(userRepo, "development")
	tokenService := service.NewTokenService(tokenRepo, s.sessionStore, 1*time.Hour)

	// Setup handler and router
	authHandler := handler.NewAuthHandler(authService, tokenService, s.auditLog)

	s.router = gin.New()
	s.router.POST("/api/auth/login", authHandler.Login)
}

// TearDownSuite runs after all tests
func (s *AuthHandlerIntegrationTestSuite) TearDownSuite() {
	s.auditLog.Close()
	s.sessionStore.Close()
	s.testRedis.Teardown(s.T())
	s.testDB.Teardown(s.T())
}

// SetupTest runs before each test (clean database)
func (s *AuthHandlerIntegrationTestSuite) SetupTest() {
	testutil.CleanDatabase(s.T(), s.testDB.DB)
	s.testRedis.Server.FlushAll()
}

func (s *AuthHandlerIntegrationTestSuite) login(body map[string]string) *httptest.ResponseRecorder {
	bodyBytes, _ := json.Marshal(body)
	req, _ := http.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewBuffer(bodyBytes))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *AuthHandlerIntegrationTestSuite) mustCreateUser(user *models.User, err error) *models.User {
	require.NoError(s.T(), err)
	require.NoError(s.T(), s.testDB.DB.Create(user).Error)
	return user
}

// TestLoginWithEmail tests the email lookup strategy end to end
func (s *AuthHandlerIntegrationTestSuite) TestLoginWithEmail() {
	user := s.mustCreateUser(testutil.CreateTestUser("ada", "ada@example.com", "LoginPass123"))
	user.FirstName = "Ada"
	user.LastName = "Lovelace"
	require.NoError(s.T(), s.testDB.DB.Save(user).Error)

	w := s.login(map[string]string{
		"username": "ada@example.com",
		"password": "LoginPass123",
	})

	assert.Equal(s.T(), http.StatusOK, w.Code)

	var response map[string]interface{}
	require.NoError(s.T(), json.Unmarshal(w.Body.Bytes(), &response))

	token := response["token"].(string)
	assert.Len(s.T(), token, utils.TokenKeyLength)

	data := response["data"].(map[string]interface{})
	assert.Equal(s.T(), user.ID.String(), data["id"])
	assert.Equal(s.T(), "ada", data["username"])
	assert.Equal(s.T(), "ada@example.com", data["email"])
	assert.Equal(s.T(), "Ada Lovelace", data["full_name"])
	assert.Equal(s.T(), true, data["is_active"])
	assert.Equal(s.T(), false, data["is_staff"])
	assert.Equal(s.T(), false, data["is_superuser"])
	assert.NotNil(s.T(), data["permissions"])
}

// TestLoginWithUsername tests the username lookup strategy
func (s *AuthHandlerIntegrationTestSuite) TestLoginWithUsername() {
	s.mustCreateUser(testutil.CreateTestUser("ada", "ada@example.com", "LoginPass123"))

	w := s.login(map[string]string{
		"username": "ada",
		"password": "LoginPass123",
	})

	assert.Equal(s.T(), http.StatusOK, w.Code)
}

// TestLoginWithEmailField tests the identifier supplied under "email"
func (s *AuthHandlerIntegrationTestSuite) TestLoginWithEmailField() {
	s.mustCreateUser(testutil.CreateTestUser("ada", "ada@example.com", "LoginPass123"))

	w := s.login(map[string]string{
		"email":    "ada@example.com",
		"password": "LoginPass123",
	})

	assert.Equal(s.T(), http.StatusOK, w.Code)
}

// TestTokenIssuanceIsIdempotent tests that a second login returns the same token
func (s *AuthHandlerIntegrationTestSuite) TestTokenIssuanceIsIdempotent() {
	s.mustCreateUser(testutil.CreateTestUser("ada", "ada@example.com", "LoginPass123"))

	body := map[string]string{"username": "ada@example.com", "password": "LoginPass123"}

	var first, second map[string]interface{}
	w := s.login(body)
	require.Equal(s.T(), http.StatusOK, w.Code)
	require.NoError(s.T(), json.Unmarshal(w.Body.Bytes(), &first))

	w = s.login(body)
	require.Equal(s.T(), http.StatusOK, w.Code)
	require.NoError(s.T(), json.Unmarshal(w.Body.Bytes(), &second))

	assert.Equal(s.T(), first["token"], second["token"])
}

// TestMalformedEmailRetriedAsUsername tests that an email-looking but invalid
// identifier is retried against usernames instead of being rejected
func (s *AuthHandlerIntegrationTestSuite) TestMalformedEmailRetriedAsUsername() {
	s.mustCreateUser(testutil.CreateTestUser("ada@localhost", "ada@example.com", "LoginPass123"))

	w := s.login(map[string]string{
		"username": "ada@localhost",
		"password": "LoginPass123",
	})

	assert.Equal(s.T(), http.StatusOK, w.Code)
}

// TestMissingPassword tests the field-keyed validation error
func (s *AuthHandlerIntegrationTestSuite) TestMissingPassword() {
	w := s.login(map[string]string{"username": "ada"})

	assert.Equal(s.T(), http.StatusBadRequest, w.Code)

	var response map[string][]string
	require.NoError(s.T(), json.Unmarshal(w.Body.Bytes(), &response))
	assert.Contains(s.T(), response, "password")
	assert.NotContains(s.T(), response, "username")
}

// TestMissingIdentifierAndPassword tests that both fields get flagged
func (s *AuthHandlerIntegrationTestSuite) TestMissingIdentifierAndPassword() {
	w := s.login(map[string]string{})

	assert.Equal(s.T(), http.StatusBadRequest, w.Code)

	var response map[string][]string
	require.NoError(s.T(), json.Unmarshal(w.Body.Bytes(), &response))
	assert.Contains(s.T(), response, "username")
	assert.Contains(s.T(), response, "password")
}

// TestAuthorizationFailuresIndistinguishable tests that a wrong password and
// an unknown identifier produce byte-identical response bodies
func (s *AuthHandlerIntegrationTestSuite) TestAuthorizationFailuresIndistinguishable() {
	s.mustCreateUser(testutil.CreateTestUser("ada", "ada@example.com", "CorrectPass123"))

	wrongPassword := s.login(map[string]string{
		"username": "ada@example.com",
		"password": "WrongPass123",
	})
	unknownUser := s.login(map[string]string{
		"username": "nobody@example.com",
		"password": "WrongPass123",
	})

	assert.Equal(s.T(), http.StatusBadRequest, wrongPassword.Code)
	assert.Equal(s.T(), http.StatusBadRequest, unknownUser.Code)
	assert.Equal(s.T(), wrongPassword.Body.String(), unknownUser.Body.String())

	var response map[string][]string
	require.NoError(s.T(), json.Unmarshal(wrongPassword.Body.Bytes(), &response))
	assert.Equal(s.T(), []string{"User not found"}, response["non_field_errors"])
}

// TestInactiveUserRejected tests that deactivated accounts cannot log in
func (s *AuthHandlerIntegrationTestSuite) TestInactiveUserRejected() {
	user, err := testutil.CreateTestUser("ada", "ada@example.com", "LoginPass123")
	require.NoError(s.T(), err)
	user.IsActive = false
	require.NoError(s.T(), s.testDB.DB.Create(user).Error)

	w := s.login(map[string]string{
		"username": "ada@example.com",
		"password": "LoginPass123",
	})

	assert.Equal(s.T(), http.StatusBadRequest, w.Code)

	var response map[string][]string
	require.NoError(s.T(), json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(s.T(), []string{"User not found"}, response["non_field_errors"])
}

// TestConcurrentLoginsShareOneToken tests the atomic get-or-create under
// parallel logins for the same user
func (s *AuthHandlerIntegrationTestSuite) TestConcurrentLoginsShareOneToken() {
	s.mustCreateUser(testutil.CreateTestUser("ada", "ada@example.com", "LoginPass123"))

	const parallel = 8
	tokens := make([]string, parallel)

	var wg sync.WaitGroup
	for i := 0; i < parallel; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			w := s.login(map[string]string{
				"username": "ada@example.com",
				"password": "LoginPass123",
			})
			if w.Code != http.StatusOK {
				return
			}
			var response map[string]interface{}
			if err := json.Unmarshal(w.Body.Bytes(), &response); err == nil {
				tokens[i], _ = response["token"].(string)
			}
		}(i)
	}
	wg.Wait()

	for i := 0; i < parallel; i++ {
		require.NotEmpty(s.T(), tokens[i], "Login %d should succeed with a token", i)
		assert.Equal(s.T(), tokens[0], tokens[i], "All logins should observe the same token")
	}

	var count int64
	require.NoError(s.T(), s.testDB.DB.Table("tokens").Count(&count).Error)
	assert.EqualValues(s.T(), 1, count)
}

// TestPermissionsUnion tests that the projection flattens direct and
// group permissions into one deduplicated set
func (s *AuthHandlerIntegrationTestSuite) TestPermissionsUnion() {
	user := s.mustCreateUser(testutil.CreateTestUser("ada", "ada@example.com", "LoginPass123"))
	require.NoError(s.T(), testutil.GrantPermission(s.testDB.DB, user, "users.view"))
	require.NoError(s.T(), testutil.AddToGroup(s.testDB.DB, user, "editors", "users.view", "users.edit"))

	w := s.login(map[string]string{
		"username": "ada@example.com",
		"password": "LoginPass123",
	})

	require.Equal(s.T(), http.StatusOK, w.Code)

	var response map[string]interface{}
	require.NoError(s.T(), json.Unmarshal(w.Body.Bytes(), &response))

	data := response["data"].(map[string]interface{})
	permissions := data["permissions"].([]interface{})
	assert.Equal(s.T(), []interface{}{"users.edit", "users.view"}, permissions)
}

// TestSessionCookieSet tests the secondary session side effect
func (s *AuthHandlerIntegrationTestSuite) TestSessionCookieSet() {
	s.mustCreateUser(testutil.CreateTestUser("ada", "ada@example.com", "LoginPass123"))

	w := s.login(map[string]string{
		"username": "ada@example.com",
		"password": "LoginPass123",
	})

	require.Equal(s.T(), http.StatusOK, w.Code)

	var sessionCookie *http.Cookie
	for _, cookie := range w.Result().Cookies() {
		if cookie.Name == handler.SessionCookieName {
			sessionCookie = cookie
			break
		}
	}
	require.NotNil(s.T(), sessionCookie)
	assert.True(s.T(), sessionCookie.HttpOnly)
	assert.Equal(s.T(), http.SameSiteLaxMode, sessionCookie.SameSite)
}

// TestSessionFailureDoesNotFailLogin tests that a dead session store
// downgrades the side effect while the token response still succeeds
func (s *AuthHandlerIntegrationTestSuite) TestSessionFailureDoesNotFailLogin() {
	s.mustCreateUser(testutil.CreateTestUser("ada", "ada@example.com", "LoginPass123"))

	deadRedis := testutil.SetupTestRedis(s.T())
	deadStore, err := session.NewRedisStore(deadRedis.URL)
	require.NoError(s.T(), err)
	deadRedis.Server.Close()

	userRepo := repository.NewUserRepository(s.testDB.DB)
	tokenRepo := repository.NewTokenRepository(s.testDB.DB)
	authService := service.NewAuthService(userRepo, "development")
	tokenService := service.NewTokenService(tokenRepo, deadStore, 1*time.Hour)
	authHandler := handler.NewAuthHandler(authService, tokenService, s.auditLog)

	router := gin.New()
	router.POST("/api/auth/login", authHandler.Login)

	bodyBytes, _ := json.Marshal(map[string]string{
		"username": "ada@example.com",
		"password": "LoginPass123",
	})
	req, _ := http.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewBuffer(bodyBytes))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(s.T(), http.StatusOK, w.Code)

	var response map[string]interface{}
	require.NoError(s.T(), json.Unmarshal(w.Body.Bytes(), &response))
	assert.NotEmpty(s.T(), response["token"])

	for _, cookie := range w.Result().Cookies() {
		assert.NotEqual(s.T(), handler.SessionCookieName, cookie.Name)
	}
}

// TestAuditTrail tests that login outcomes land in the audit log
func (s *AuthHandlerIntegrationTestSuite) TestAuditTrail() {
	s.mustCreateUser(testutil.CreateTestUser("ada", "ada@example.com", "LoginPass123"))

	s.login(map[string]string{"username": "ada@example.com", "password": "WrongPass123"})
	s.login(map[string]string{"username": "ada@example.com", "password": "LoginPass123"})

	events, err := s.auditLog.ReadAll()
	require.NoError(s.T(), err)

	var failed, succeeded int
	for _, event := range events {
		switch event.Kind {
		case audit.EventLoginFailed:
			failed++
		case audit.EventLoginSucceeded:
			succeeded++
		}
	}
	assert.GreaterOrEqual(s.T(), failed, 1)
	assert.GreaterOrEqual(s.T(), succeeded, 1)
}

// TestSuite runs all tests in the suite
func TestAuthHandlerIntegrationTestSuite(t *testing.T) {
	suite.Run(t, new(AuthHandlerIntegrationTestSuite))
}
