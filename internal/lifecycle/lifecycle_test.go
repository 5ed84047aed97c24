package lifecycle

import (
	"testing"

	"github.com/participium/participium-backend/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestCanProgress(t *testing.T) {
	allowed := map[[2]models.ReportStatus]bool{
		{models.StatusAssigned, models.StatusInProgress}:  true,
		{models.StatusInProgress, models.StatusSuspended}: true,
		{models.StatusInProgress, models.StatusResolved}:  true,
		{models.StatusSuspended, models.StatusInProgress}: true,
	}

	statuses := []models.ReportStatus{
		models.StatusPendingApproval,
		models.StatusAssigned,
		models.StatusInProgress,
		models.StatusSuspended,
		models.StatusRejected,
		models.StatusResolved,
	}

	// Every pair not in the table must be refused.
	for _, from := range statuses {
		for _, to := range statuses {
			got := CanProgress(from, to)
			assert.Equal(t, allowed[[2]models.ReportStatus{from, to}], got, "%s -> %s", from, to)
		}
	}
}

func TestWorkable(t *testing.T) {
	assert.True(t, Workable(models.StatusAssigned))
	assert.True(t, Workable(models.StatusInProgress))
	assert.True(t, Workable(models.StatusSuspended))

	assert.False(t, Workable(models.StatusPendingApproval))
	assert.False(t, Workable(models.StatusRejected))
	assert.False(t, Workable(models.StatusResolved))
}

func TestProgressTarget(t *testing.T) {
	assert.True(t, ProgressTarget(models.StatusInProgress))
	assert.True(t, ProgressTarget(models.StatusSuspended))
	assert.True(t, ProgressTarget(models.StatusResolved))

	assert.False(t, ProgressTarget(models.StatusAssigned))
	assert.False(t, ProgressTarget(models.StatusRejected))
	assert.False(t, ProgressTarget(models.StatusPendingApproval))
	assert.False(t, ProgressTarget(models.ReportStatus("bogus")))
}

func TestReviewTarget(t *testing.T) {
	assert.True(t, ReviewTarget(models.StatusAssigned))
	assert.True(t, ReviewTarget(models.StatusRejected))

	assert.False(t, ReviewTarget(models.StatusResolved))
	assert.False(t, ReviewTarget(models.StatusPendingApproval))
	assert.False(t, ReviewTarget(models.ReportStatus("bogus")))
}
