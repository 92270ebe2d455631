package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/hugh/cardboard/internal/auth"
	"github.com/hugh/cardboard/internal/database"
	"github.com/hugh/cardboard/internal/database/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// TestPassword satisfies the registration password policy.
const TestPassword = "TestUserPassCardsApi1!"

// SetupTestDB creates an in-memory SQLite database for testing
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	// Each test gets its own named in-memory database; the single connection
	// keeps every query on it.
	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), database.GormConfig(logger.Default.LogMode(logger.Silent)))
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := database.AutoMigrate(db); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	return db
}

// CleanupTestDB closes the test database connection
func CleanupTestDB(t *testing.T, db *gorm.DB) {
	t.Helper()
	if err := database.Close(db); err != nil {
		t.Logf("warning: failed to close test database: %v", err)
	}
}

// CreateTestUser creates a user with the given role and TestPassword.
func CreateTestUser(t *testing.T, db *gorm.DB, role models.Role) *models.User {
	t.Helper()

	hash, err := auth.HashPassword(TestPassword)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	email := "test-" + uuid.New().String()[:8] + "@example.com"
	user := &models.User{
		Base: models.Base{
			ID: uuid.New(),
		},
		FirstName:    "Test",
		LastName:     string(role),
		Email:        email,
		EmailKey:     models.NormalizeEmail(email),
		PasswordHash: hash,
		Role:         role,
	}

	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}

	return user
}

// CardFixture describes a card to insert directly, bypassing the service.
type CardFixture struct {
	Name        string
	Description string
	Color       string
	Status      models.CardStatus
	CreatedAt   time.Time
}

// CreateTestCard inserts a card owned by ownerID.
func CreateTestCard(t *testing.T, db *gorm.DB, ownerID uuid.UUID, f CardFixture) *models.Card {
	t.Helper()

	card := &models.Card{
		Base: models.Base{
			ID:        uuid.New(),
			CreatedAt: f.CreatedAt.UTC(),
		},
		Name:   f.Name,
		Status: f.Status,
		UserID: ownerID,
	}
	if card.Name == "" {
		card.Name = "Test Card"
	}
	if f.Description != "" {
		d := f.Description
		card.Description = &d
	}
	if f.Color != "" {
		c := f.Color
		card.Color = &c
	}

	if err := db.Create(card).Error; err != nil {
		t.Fatalf("failed to create test card: %v", err)
	}

	return card
}

// CreateTestJWTService creates a JWT service for testing
func CreateTestJWTService() *auth.JWTService {
	return auth.NewJWTService("test-secret-key-for-testing", 24*time.Hour)
}

// GenerateTestToken generates a valid JWT token for the given user
func GenerateTestToken(t *testing.T, jwtService *auth.JWTService, user *models.User) string {
	t.Helper()

	token, err := jwtService.GenerateToken(user.ID, user.FullName(), user.Email, string(user.Role))
	if err != nil {
		t.Fatalf("failed to generate test token: %v", err)
	}

	return token
}

// CallerFor builds the identity the auth middleware would derive for user.
func CallerFor(user *models.User) auth.Caller {
	return auth.Caller{
		ID:    user.ID,
		Role:  user.Role,
		Name:  user.FullName(),
		Email: user.Email,
	}
}

// AuthenticatedRequest creates an HTTP request with authentication
func AuthenticatedRequest(t *testing.T, method, path string, body interface{}, token string) *http.Request {
	t.Helper()

	var reqBody *bytes.Buffer
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal request body: %v", err)
		}
		reqBody = bytes.NewBuffer(jsonData)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	return req
}

// UnauthenticatedRequest creates an HTTP request without authentication
func UnauthenticatedRequest(t *testing.T, method, path string, body interface{}) *http.Request {
	t.Helper()
	return AuthenticatedRequest(t, method, path, body, "")
}

// AssertStatus checks if the response has the expected status code
func AssertStatus(t *testing.T, rr *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if rr.Code != expected {
		t.Errorf("expected status %d, got %d. Body: %s", expected, rr.Code, rr.Body.String())
	}
}

// ParseJSONResponse parses the response body into the given struct
func ParseJSONResponse(t *testing.T, rr *httptest.ResponseRecorder, v interface{}) {
	t.Helper()

	if err := json.Unmarshal(rr.Body.Bytes(), v); err != nil {
		t.Fatalf("failed to parse response body: %v. Body: %s", err, rr.Body.String())
	}
}

// TestContext creates a context with a timeout for tests
func TestContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	t.Cleanup(cancel)
	return ctx
}

// TestSetup holds all the common test dependencies
type TestSetup struct {
	DB          *gorm.DB
	JWTService  *auth.JWTService
	Member      *models.User
	MemberToken string
	Admin       *models.User
	AdminToken  string
}

// NewTestContext creates a complete test setup with DB, a Member and an
// Admin, and a token for each.
func NewTestContext(t *testing.T) *TestSetup {
	t.Helper()

	db := SetupTestDB(t)
	jwtService := CreateTestJWTService()
	member := CreateTestUser(t, db, models.RoleMember)
	admin := CreateTestUser(t, db, models.RoleAdmin)

	return &TestSetup{
		DB:          db,
		JWTService:  jwtService,
		Member:      member,
		MemberToken: GenerateTestToken(t, jwtService, member),
		Admin:       admin,
		AdminToken:  GenerateTestToken(t, jwtService, admin),
	}
}

// Cleanup closes the test database
func (ts *TestSetup) Cleanup() {
	if ts.DB != nil {
		_ = database.Close(ts.DB)
	}
}
