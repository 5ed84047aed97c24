package services

import (
	"testing"

	"github.com/participium/participium-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type commentFixture struct {
	svc        *CommentService
	db         *gorm.DB
	citizen    models.User
	officer    models.User
	maintainer models.User
	report     *models.Report
}

func newCommentFixture(t *testing.T) *commentFixture {
	t.Helper()
	db := newTestDB(t)
	notifications := NewNotificationService(db, nil)
	svc := NewCommentService(db, notifications, NewContentFilter())

	category := seedCategory(t, db, "Roads")
	citizen := seedUser(t, db, "citizen@example.com", nil)
	officer := seedUser(t, db, "officer@example.com", nil,
		seedRole(t, db, "Roads Office", models.RoleTechOfficer, &category.ID))
	maintainer := seedUser(t, db, "maintainer@example.com", nil,
		seedRole(t, db, "Maintainer", models.RoleExternalMaintainer, nil))

	report := seedReport(t, db, citizen.ID, category.ID, models.StatusPendingApproval)
	assign(t, db, report, officer.ID)
	require.NoError(t, db.Model(report).Update("external_user", maintainer.ID).Error)
	report.ExternalUser = &maintainer.ID

	return &commentFixture{svc: svc, db: db, citizen: citizen, officer: officer, maintainer: maintainer, report: report}
}

func TestAddCommentValidation(t *testing.T) {
	f := newCommentFixture(t)

	_, err := f.svc.Add(&f.citizen, f.report.ID, "   ", false)
	assert.ErrorIs(t, err, ErrTextRequired)

	_, err = f.svc.Add(&f.citizen, 999, "hello", false)
	assert.ErrorIs(t, err, ErrReportNotFound)

	_, err = f.svc.Add(&f.citizen, f.report.ID, "visit www.totally-legit.com now", false)
	assert.ErrorIs(t, err, ErrContentRejected)
	assert.Contains(t, err.Error(), "not allowed")
}

func TestInternalCommentsAssigneesOnly(t *testing.T) {
	f := newCommentFixture(t)

	_, err := f.svc.Add(&f.citizen, f.report.ID, "let me in", true)
	assert.ErrorIs(t, err, ErrNotParticipant)

	_, err = f.svc.List(&f.citizen, f.report.ID, true)
	assert.ErrorIs(t, err, ErrNotParticipant)

	// Officer to maintainer, and back.
	_, err = f.svc.Add(&f.officer, f.report.ID, "crew scheduled for Monday", true)
	require.NoError(t, err)
	assert.EqualValues(t, 1, countNotifications(t, f.db, f.maintainer.ID))

	_, err = f.svc.Add(&f.maintainer, f.report.ID, "confirmed", true)
	require.NoError(t, err)
	assert.EqualValues(t, 1, countNotifications(t, f.db, f.officer.ID))
}

func TestExternalCommentCounterpart(t *testing.T) {
	f := newCommentFixture(t)

	// Citizen comments, the assigned officer is notified.
	_, err := f.svc.Add(&f.citizen, f.report.ID, "any news?", false)
	require.NoError(t, err)
	assert.EqualValues(t, 1, countNotifications(t, f.db, f.officer.ID))

	// Staff comments, the citizen is notified.
	_, err = f.svc.Add(&f.officer, f.report.ID, "work starts next week", false)
	require.NoError(t, err)
	assert.EqualValues(t, 1, countNotifications(t, f.db, f.citizen.ID))
}

func TestListCommentsMarksNotificationsRead(t *testing.T) {
	f := newCommentFixture(t)

	_, err := f.svc.Add(&f.officer, f.report.ID, "work starts next week", false)
	require.NoError(t, err)

	var n models.Notification
	require.NoError(t, f.db.Where("user_id = ?", f.citizen.ID).First(&n).Error)
	assert.False(t, n.IsRead)

	comments, err := f.svc.List(&f.citizen, f.report.ID, false)
	require.NoError(t, err)
	require.Len(t, comments, 1)
	assert.Equal(t, f.officer.ID, comments[0].UserID)

	require.NoError(t, f.db.First(&n, n.ID).Error)
	assert.True(t, n.IsRead)
}

func TestCommentThreadsAreSeparate(t *testing.T) {
	f := newCommentFixture(t)

	_, err := f.svc.Add(&f.officer, f.report.ID, "internal note", true)
	require.NoError(t, err)
	_, err = f.svc.Add(&f.officer, f.report.ID, "public update", false)
	require.NoError(t, err)

	internal, err := f.svc.List(&f.officer, f.report.ID, true)
	require.NoError(t, err)
	require.Len(t, internal, 1)
	assert.Equal(t, "internal note", internal[0].Text)

	external, err := f.svc.List(&f.citizen, f.report.ID, false)
	require.NoError(t, err)
	require.Len(t, external, 1)
	assert.Equal(t, "public update", external[0].Text)
}
