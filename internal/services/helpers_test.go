package services

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"testing"

	"github.com/participium/participium-backend/internal/models"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB opens a private in-memory database and migrates the full
// schema. Each test gets its own database.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Category{},
		&models.Role{},
		&models.Company{},
		&models.User{},
		&models.Report{},
		&models.ReportPhoto{},
		&models.Comment{},
		&models.Notification{},
		&models.RefreshToken{},
	))
	return db
}

func seedCategory(t *testing.T, db *gorm.DB, name string) models.Category {
	t.Helper()
	c := models.Category{Name: name}
	require.NoError(t, db.Create(&c).Error)
	return c
}

func seedRole(t *testing.T, db *gorm.DB, label string, typ models.RoleType, categoryID *uint) models.Role {
	t.Helper()
	r := models.Role{Label: label, Type: typ, CategoryID: categoryID}
	require.NoError(t, db.Create(&r).Error)
	return r
}

func seedUser(t *testing.T, db *gorm.DB, email string, companyID *uint, roles ...models.Role) models.User {
	t.Helper()
	u := models.User{
		Email:     email,
		Password:  "irrelevant",
		FirstName: "Test",
		LastName:  "User",
		CompanyID: companyID,
		Roles:     roles,
	}
	require.NoError(t, db.Create(&u).Error)
	return u
}

func seedReport(t *testing.T, db *gorm.DB, userID, categoryID uint, status models.ReportStatus) *models.Report {
	t.Helper()
	r := models.Report{
		Title:       "Broken street light",
		Description: "The light at the corner has been out for a week.",
		Address:     "Via Roma 1",
		Latitude:    45.07,
		Longitude:   7.68,
		CategoryID:  categoryID,
		UserID:      userID,
		Status:      status,
	}
	require.NoError(t, db.Create(&r).Error)
	return &r
}

func assign(t *testing.T, db *gorm.DB, report *models.Report, officerID uint) {
	t.Helper()
	require.NoError(t, db.Model(report).Updates(map[string]interface{}{
		"status":      models.StatusAssigned,
		"assigned_to": officerID,
	}).Error)
	report.Status = models.StatusAssigned
	report.AssignedTo = &officerID
}

// photoFiles builds real multipart file headers the way Fiber hands them
// to the handler.
func photoFiles(t *testing.T, n int) []*multipart.FileHeader {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	for i := 0; i < n; i++ {
		fw, err := w.CreateFormFile("photos", fmt.Sprintf("photo%d.jpg", i))
		require.NoError(t, err)
		_, err = fw.Write([]byte("fake jpeg bytes"))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	form, err := multipart.NewReader(body, w.Boundary()).ReadForm(1 << 20)
	require.NoError(t, err)
	return form.File["photos"]
}

func countNotifications(t *testing.T, db *gorm.DB, userID uint) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(&models.Notification{}).Where("user_id = ?", userID).Count(&n).Error)
	return n
}

type stubGeocoder struct {
	address string
	err     error
	calls   int
}

func (g *stubGeocoder) Reverse(_ context.Context, lat, lng float64) (string, error) {
	g.calls++
	return g.address, g.err
}

type recordingHub struct {
	pushes []uint
}

func (h *recordingHub) Push(userID uint, _ interface{}) {
	h.pushes = append(h.pushes, userID)
}
