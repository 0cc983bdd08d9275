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
	"github.com/hugh/stockroom/internal/auth"
	"github.com/hugh/stockroom/internal/database/models"
	"github.com/hugh/stockroom/internal/schema"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SetupTestDB creates an in-memory SQLite database for testing
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	// Run migrations
	err = db.AutoMigrate(
		&models.Organization{},
		&models.User{},
		&models.AssetType{},
		&models.AttributeDefinition{},
		&models.Asset{},
		&models.TagCounter{},
		&models.TransitionRule{},
		&models.ImportJob{},
		&models.AuditLog{},
		&models.ScheduledSweep{},
	)
	if err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	return db
}

// CleanupTestDB closes the test database connection
func CleanupTestDB(t *testing.T, db *gorm.DB) {
	t.Helper()
	sqlDB, err := db.DB()
	if err != nil {
		t.Logf("warning: failed to get sql.DB: %v", err)
		return
	}
	sqlDB.Close()
}

// CreateTestOrg creates a test organization
func CreateTestOrg(t *testing.T, db *gorm.DB) *models.Organization {
	t.Helper()

	org := &models.Organization{
		Base: models.Base{
			ID: uuid.New(),
		},
		Name: "Test Organization",
		Slug: "test-org-" + uuid.New().String()[:8],
		Plan: "free",
	}

	if err := db.Create(org).Error; err != nil {
		t.Fatalf("failed to create test organization: %v", err)
	}

	return org
}

// CreateTestUser creates a test user with the given organization
func CreateTestUser(t *testing.T, db *gorm.DB, org *models.Organization) *models.User {
	t.Helper()

	hash, err := auth.HashPassword("testpassword123")
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &models.User{
		Base: models.Base{
			ID: uuid.New(),
		},
		Email:          "test-" + uuid.New().String()[:8] + "@example.com",
		PasswordHash:   hash,
		Name:           "Test User",
		OrganizationID: org.ID,
		Role:           "owner",
		IsActive:       true,
	}

	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}

	user.Organization = org
	return user
}

// CreateTestAssetType creates an asset type with a small laptop-style schema:
// serialNumber (required text), ram (number), purchaseDate (date),
// isManaged (boolean).
func CreateTestAssetType(t *testing.T, db *gorm.DB, orgID uuid.UUID) *models.AssetType {
	t.Helper()

	at := &models.AssetType{
		Base: models.Base{
			ID: uuid.New(),
		},
		OrganizationID: orgID,
		Name:           "Laptop",
	}
	if err := db.Create(at).Error; err != nil {
		t.Fatalf("failed to create test asset type: %v", err)
	}

	defs := []models.AttributeDefinition{
		{AssetTypeID: at.ID, Name: "serialNumber", Label: "Serial Number", FieldType: schema.FieldText, IsRequired: true, Position: 0},
		{AssetTypeID: at.ID, Name: "ram", Label: "RAM (GB)", FieldType: schema.FieldNumber, Position: 1},
		{AssetTypeID: at.ID, Name: "purchaseDate", Label: "Purchase Date", FieldType: schema.FieldDate, Position: 2},
		{AssetTypeID: at.ID, Name: "isManaged", Label: "Managed", FieldType: schema.FieldBoolean, Position: 3},
	}
	for i := range defs {
		if err := db.Create(&defs[i]).Error; err != nil {
			t.Fatalf("failed to create test definition: %v", err)
		}
	}
	at.Definitions = defs

	return at
}

// CreateTestAsset creates an asset of the given type
func CreateTestAsset(t *testing.T, db *gorm.DB, orgID uuid.UUID, typeID uuid.UUID, tag, name string, status models.AssetStatus) *models.Asset {
	t.Helper()

	asset := &models.Asset{
		Base: models.Base{
			ID: uuid.New(),
		},
		OrganizationID: orgID,
		AssetTypeID:    typeID,
		AssetTag:       tag,
		Name:           name,
		Status:         status,
		Attributes:     models.AttributeMap{},
		Source:         "manual",
	}

	if err := db.Create(asset).Error; err != nil {
		t.Fatalf("failed to create test asset: %v", err)
	}

	return asset
}

// CreateTestJWTService creates a JWT service for testing
func CreateTestJWTService() *auth.JWTService {
	return auth.NewJWTService("test-secret-key-for-testing", 24*time.Hour)
}

// GenerateTestToken generates a valid JWT token for the given user
func GenerateTestToken(t *testing.T, jwtService *auth.JWTService, user *models.User) string {
	t.Helper()

	token, err := jwtService.GenerateToken(user.ID, user.OrganizationID, user.Email, user.Role)
	if err != nil {
		t.Fatalf("failed to generate test token: %v", err)
	}

	return token
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
	DB         *gorm.DB
	JWTService *auth.JWTService
	Org        *models.Organization
	User       *models.User
	Token      string
}

// NewTestContext creates a complete test setup with DB, org, user, and token
func NewTestContext(t *testing.T) *TestSetup {
	t.Helper()

	db := SetupTestDB(t)
	jwtService := CreateTestJWTService()
	org := CreateTestOrg(t, db)
	user := CreateTestUser(t, db, org)
	token := GenerateTestToken(t, jwtService, user)

	return &TestSetup{
		DB:         db,
		JWTService: jwtService,
		Org:        org,
		User:       user,
		Token:      token,
	}
}

// Cleanup closes the test database
func (ts *TestSetup) Cleanup() {
	if ts.DB != nil {
		sqlDB, err := ts.DB.DB()
		if err == nil {
			sqlDB.Close()
		}
	}
}
