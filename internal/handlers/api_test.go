package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/participium/participium-backend/internal/config"
	"github.com/participium/participium-backend/internal/handlers"
	"github.com/participium/participium-backend/internal/models"
	"github.com/participium/participium-backend/internal/realtime"
	"github.com/participium/participium-backend/internal/routes"
	"github.com/participium/participium-backend/internal/services"
	"github.com/participium/participium-backend/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type testAPI struct {
	app *fiber.App
	db  *gorm.DB
	cfg *config.Config
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Category{}, &models.Role{}, &models.Company{}, &models.User{},
		&models.Report{}, &models.ReportPhoto{}, &models.Comment{},
		&models.Notification{}, &models.RefreshToken{},
	))

	cfg := &config.Config{
		JWTSecret:        "test-secret",
		JWTAccessExpiry:  15 * time.Minute,
		JWTRefreshExpiry: 24 * time.Hour,
	}

	hub := realtime.NewHub()
	notificationService := services.NewNotificationService(db, hub)
	authService := services.NewAuthService(db, cfg)
	reportService := services.NewReportService(db, storage.NewMemoryStore(), nil, notificationService)
	commentService := services.NewCommentService(db, notificationService, services.NewContentFilter())
	operatorService := services.NewOperatorService(db)

	app := fiber.New()
	routes.Setup(app, cfg, db, hub,
		handlers.NewAuthHandler(authService),
		handlers.NewHealthHandler(),
		handlers.NewReportHandler(reportService, notificationService),
		handlers.NewReviewHandler(reportService),
		handlers.NewOfficerHandler(reportService),
		handlers.NewMaintainerHandler(reportService),
		handlers.NewCommentHandler(commentService),
		handlers.NewOperatorHandler(operatorService),
		handlers.NewNotificationHandler(notificationService))

	return &testAPI{app: app, db: db, cfg: cfg}
}

func (a *testAPI) token(t *testing.T, userID uint) string {
	t.Helper()
	claims := jwt.MapClaims{
		"sub": fmt.Sprintf("%d", userID),
		"iat": time.Now().Unix(),
		"exp": time.Now().Add(time.Hour).Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(a.cfg.JWTSecret))
	require.NoError(t, err)
	return signed
}

func (a *testAPI) request(t *testing.T, method, path, token string, body interface{}) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := a.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decode(t *testing.T, resp *http.Response, out interface{}) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

func (a *testAPI) seedCategory(t *testing.T, name string) models.Category {
	t.Helper()
	c := models.Category{Name: name}
	require.NoError(t, a.db.Create(&c).Error)
	return c
}

func (a *testAPI) seedUser(t *testing.T, email string, roles ...models.Role) models.User {
	t.Helper()
	u := models.User{Email: email, Password: "x", FirstName: "T", LastName: "U", Roles: roles}
	require.NoError(t, a.db.Create(&u).Error)
	return u
}

func (a *testAPI) seedRole(t *testing.T, label string, typ models.RoleType, categoryID *uint) models.Role {
	t.Helper()
	r := models.Role{Label: label, Type: typ, CategoryID: categoryID}
	require.NoError(t, a.db.Create(&r).Error)
	return r
}

func multipartReport(t *testing.T, categoryID uint, photos int, extra ...string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	for i := 0; i+1 < len(extra); i += 2 {
		require.NoError(t, w.WriteField(extra[i], extra[i+1]))
	}
	require.NoError(t, w.WriteField("title", "Broken swing"))
	require.NoError(t, w.WriteField("description", "The swing in the park is broken."))
	require.NoError(t, w.WriteField("category_id", fmt.Sprintf("%d", categoryID)))
	require.NoError(t, w.WriteField("latitude", "45.07"))
	require.NoError(t, w.WriteField("longitude", "7.68"))
	require.NoError(t, w.WriteField("address", "Parco del Valentino"))
	for i := 0; i < photos; i++ {
		fw, err := w.CreateFormFile("photos", fmt.Sprintf("photo%d.jpg", i))
		require.NoError(t, err)
		_, err = fw.Write([]byte("fake jpeg bytes"))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return body, w.FormDataContentType()
}

func TestSubmitReport(t *testing.T) {
	api := newTestAPI(t)
	category := api.seedCategory(t, "Public Parks")
	citizen := api.seedUser(t, "citizen@example.com")

	// Unauthenticated submissions are refused.
	body, contentType := multipartReport(t, category.ID, 1)
	req := httptest.NewRequest(http.MethodPost, "/api/reports", body)
	req.Header.Set("Content-Type", contentType)
	resp, err := api.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// Without photos the submission is a 400.
	body, contentType = multipartReport(t, category.ID, 0)
	req = httptest.NewRequest(http.MethodPost, "/api/reports", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+api.token(t, citizen.ID))
	resp, err = api.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// A valid submission lands in pending approval.
	body, contentType = multipartReport(t, category.ID, 2)
	req = httptest.NewRequest(http.MethodPost, "/api/reports", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+api.token(t, citizen.ID))
	resp, err = api.app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created struct {
		ID     uint     `json:"id"`
		Status string   `json:"status"`
		Photos []string `json:"photos"`
	}
	decode(t, resp, &created)
	assert.Equal(t, "pending_approval", created.Status)
	assert.Len(t, created.Photos, 2)

	// The new report is visible on the public map.
	resp = api.request(t, http.MethodGet, "/api/reports", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list []map[string]interface{}
	decode(t, resp, &list)
	assert.Len(t, list, 1)
}

func TestAnonymousReportHidesAuthor(t *testing.T) {
	api := newTestAPI(t)
	category := api.seedCategory(t, "Public Parks")
	citizen := api.seedUser(t, "citizen@example.com")

	submit := func(extra ...string) uint {
		body, contentType := multipartReport(t, category.ID, 1, extra...)
		req := httptest.NewRequest(http.MethodPost, "/api/reports", body)
		req.Header.Set("Content-Type", contentType)
		req.Header.Set("Authorization", "Bearer "+api.token(t, citizen.ID))
		resp, err := api.app.Test(req, -1)
		require.NoError(t, err)
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		var created struct {
			ID uint `json:"id"`
		}
		decode(t, resp, &created)
		return created.ID
	}

	anonID := submit("is_anonymous", "true")
	namedID := submit()

	// The public list exposes the author only for named reports.
	resp := api.request(t, http.MethodGet, "/api/reports", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list []map[string]interface{}
	decode(t, resp, &list)
	require.Len(t, list, 2)
	for _, item := range list {
		if item["is_anonymous"] == true {
			assert.NotContains(t, item, "author")
		} else {
			author, ok := item["author"].(map[string]interface{})
			require.True(t, ok, "named report must carry its author")
			assert.Equal(t, "T", author["first_name"])
		}
	}

	// Same rule on the single-report view.
	resp = api.request(t, http.MethodGet, fmt.Sprintf("/api/reports/%d", anonID), "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var detail map[string]interface{}
	decode(t, resp, &detail)
	assert.Equal(t, true, detail["is_anonymous"])
	assert.NotContains(t, detail, "author")

	resp = api.request(t, http.MethodGet, fmt.Sprintf("/api/reports/%d", namedID), "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decode(t, resp, &detail)
	assert.Contains(t, detail, "author")
}

func TestReviewEndpoint(t *testing.T) {
	api := newTestAPI(t)
	category := api.seedCategory(t, "Roads")
	citizen := api.seedUser(t, "citizen@example.com")
	reviewer := api.seedUser(t, "pr@example.com",
		api.seedRole(t, "PR", models.RolePubRelations, nil))
	officer := api.seedUser(t, "officer@example.com",
		api.seedRole(t, "Roads Office", models.RoleTechOfficer, &category.ID))

	report := models.Report{
		Title: "Pothole", Description: "Deep pothole", Address: "Via Roma 1",
		Latitude: 45, Longitude: 7, CategoryID: category.ID, UserID: citizen.ID,
		Status: models.StatusPendingApproval,
	}
	require.NoError(t, api.db.Create(&report).Error)
	path := fmt.Sprintf("/api/pub_relations/reports/%d", report.ID)

	// A citizen token lacks the pub_relations role.
	resp := api.request(t, http.MethodPatch, path, api.token(t, citizen.ID),
		fiber.Map{"status": "assigned"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	// Rejection without a note is refused.
	resp = api.request(t, http.MethodPatch, path, api.token(t, reviewer.ID),
		fiber.Map{"status": "rejected"})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	var errBody struct {
		Message string `json:"message"`
	}
	decode(t, resp, &errBody)
	assert.Equal(t, "A note is required when report is rejected", errBody.Message)

	// Approval assigns the named officer.
	resp = api.request(t, http.MethodPatch, path, api.token(t, reviewer.ID),
		fiber.Map{"status": "assigned", "officerId": officer.ID})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var updated struct {
		Status     string `json:"status"`
		AssignedTo *uint  `json:"assigned_to"`
	}
	decode(t, resp, &updated)
	assert.Equal(t, "assigned", updated.Status)
	require.NotNil(t, updated.AssignedTo)
	assert.Equal(t, officer.ID, *updated.AssignedTo)

	// A second review hits the pending-approval guard.
	resp = api.request(t, http.MethodPatch, path, api.token(t, reviewer.ID),
		fiber.Map{"status": "assigned", "officerId": officer.ID})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestOfficerStatusEndpoint(t *testing.T) {
	api := newTestAPI(t)
	category := api.seedCategory(t, "Roads")
	citizen := api.seedUser(t, "citizen@example.com")
	officer := api.seedUser(t, "officer@example.com",
		api.seedRole(t, "Roads Office", models.RoleTechOfficer, &category.ID))
	other := api.seedUser(t, "other@example.com",
		api.seedRole(t, "Roads Office 2", models.RoleTechOfficer, &category.ID))

	report := models.Report{
		Title: "Pothole", Description: "Deep pothole", Address: "Via Roma 1",
		Latitude: 45, Longitude: 7, CategoryID: category.ID, UserID: citizen.ID,
		Status: models.StatusAssigned, AssignedTo: &officer.ID,
	}
	require.NoError(t, api.db.Create(&report).Error)
	path := fmt.Sprintf("/api/tech_officer/reports/%d", report.ID)

	// Only the assignee may move the report.
	resp := api.request(t, http.MethodPatch, path, api.token(t, other.ID),
		fiber.Map{"status": "in_progress"})
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
	var errBody struct {
		Message string `json:"message"`
	}
	decode(t, resp, &errBody)
	assert.Equal(t, "report is not assigned to you", errBody.Message)

	// Skipping in_progress is refused.
	resp = api.request(t, http.MethodPatch, path, api.token(t, officer.ID),
		fiber.Map{"status": "resolved"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = api.request(t, http.MethodPatch, path, api.token(t, officer.ID),
		fiber.Map{"status": "in_progress"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// The transition queued a notification for the citizen.
	resp = api.request(t, http.MethodGet, "/api/notifications?unread=true", api.token(t, citizen.ID), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var notifications []map[string]interface{}
	decode(t, resp, &notifications)
	assert.Len(t, notifications, 1)

	// Work queue listing.
	resp = api.request(t, http.MethodGet, "/api/tech_officer/reports", api.token(t, officer.ID), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var queue []map[string]interface{}
	decode(t, resp, &queue)
	assert.Len(t, queue, 1)
}

func TestCommentEndpoints(t *testing.T) {
	api := newTestAPI(t)
	category := api.seedCategory(t, "Roads")
	citizen := api.seedUser(t, "citizen@example.com",
		api.seedRole(t, "Citizen", models.RoleCitizen, nil))
	officer := api.seedUser(t, "officer@example.com",
		api.seedRole(t, "Roads Office", models.RoleTechOfficer, &category.ID))

	report := models.Report{
		Title: "Pothole", Description: "Deep pothole", Address: "Via Roma 1",
		Latitude: 45, Longitude: 7, CategoryID: category.ID, UserID: citizen.ID,
		Status: models.StatusAssigned, AssignedTo: &officer.ID,
	}
	require.NoError(t, api.db.Create(&report).Error)

	// Citizens cannot reach the internal thread at all.
	resp := api.request(t, http.MethodPost,
		fmt.Sprintf("/api/reports/%d/internal-comments", report.ID),
		api.token(t, citizen.ID), fiber.Map{"text": "hi"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = api.request(t, http.MethodPost,
		fmt.Sprintf("/api/reports/%d/external-comments", report.ID),
		api.token(t, citizen.ID), fiber.Map{"text": "any update?"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = api.request(t, http.MethodGet,
		fmt.Sprintf("/api/report/%d/external-comments", report.ID),
		api.token(t, officer.ID), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var comments []map[string]interface{}
	decode(t, resp, &comments)
	require.Len(t, comments, 1)
	assert.Equal(t, "any update?", comments[0]["text"])
}

func TestHealthEndpoint(t *testing.T) {
	api := newTestAPI(t)
	resp := api.request(t, http.MethodGet, "/api/health", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAuthFlow(t *testing.T) {
	api := newTestAPI(t)
	api.seedRole(t, "Citizen", models.RoleCitizen, nil)

	resp := api.request(t, http.MethodPost, "/api/auth/register", "", fiber.Map{
		"email": "anna@example.com", "password": "password123",
		"first_name": "Anna", "last_name": "Verdi",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var auth struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
	}
	decode(t, resp, &auth)
	require.NotEmpty(t, auth.AccessToken)

	// The fresh access token opens a protected route.
	resp = api.request(t, http.MethodGet, "/api/users/me/reports", auth.AccessToken, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = api.request(t, http.MethodPost, "/api/auth/login", "", fiber.Map{
		"email": "anna@example.com", "password": "wrong-password",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = api.request(t, http.MethodPost, "/api/auth/refresh", "", fiber.Map{
		"refresh_token": auth.RefreshToken,
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestOperatorEndpoints(t *testing.T) {
	api := newTestAPI(t)
	category := api.seedCategory(t, "Roads")
	officeRole := api.seedRole(t, "Roads Office", models.RoleTechOfficer, &category.ID)
	citizenRole := api.seedRole(t, "Citizen", models.RoleCitizen, nil)
	admin := api.seedUser(t, "admin@example.com",
		api.seedRole(t, "Administrator", models.RoleAdmin, nil))
	operator := api.seedUser(t, "operator@example.com", officeRole)

	path := fmt.Sprintf("/api/operators/%d/roles", operator.ID)

	// Only tech-officer roles may appear in the replacement set.
	resp := api.request(t, http.MethodPatch, path, api.token(t, admin.ID),
		fiber.Map{"roles_id": []uint{citizenRole.ID}})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	var errBody struct {
		Message string `json:"message"`
	}
	decode(t, resp, &errBody)
	assert.Contains(t, strings.ToLower(errBody.Message), "tech officer")

	resp = api.request(t, http.MethodPatch, path, api.token(t, admin.ID),
		fiber.Map{"roles_id": []uint{officeRole.ID}})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// Admin-only surface.
	resp = api.request(t, http.MethodPatch, path, api.token(t, operator.ID),
		fiber.Map{"roles_id": []uint{officeRole.ID}})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = api.request(t, http.MethodGet, "/api/admin/users", api.token(t, admin.ID), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var users []map[string]interface{}
	decode(t, resp, &users)
	assert.Len(t, users, 2)
}
