// Package lifecycle holds the report status-transition rules as pure
// functions, so the workflow can be reasoned about and tested without a
// database.
package lifecycle

import "github.com/participium/participium-backend/internal/models"

// progressions is the pairwise transition graph for the roles that work
// a report after triage (tech officer and external maintainer).
var progressions = map[models.ReportStatus][]models.ReportStatus{
	models.StatusAssigned:   {models.StatusInProgress},
	models.StatusInProgress: {models.StatusSuspended, models.StatusResolved},
	models.StatusSuspended:  {models.StatusInProgress},
}

// CanProgress reports whether an officer or maintainer may move a report
// from curr to next. Terminal and pending statuses have no outgoing
// edges here.
func CanProgress(curr, next models.ReportStatus) bool {
	for _, t := range progressions[curr] {
		if t == next {
			return true
		}
	}
	return false
}

// Workable reports whether curr is a status an assignee may act on at
// all (used to distinguish "wrong target" from "untouchable report").
func Workable(curr models.ReportStatus) bool {
	return len(progressions[curr]) > 0
}

// ProgressTarget reports whether s is a status an assignee is allowed to
// request: the three working statuses, never triage or rejection.
func ProgressTarget(s models.ReportStatus) bool {
	return s == models.StatusInProgress || s == models.StatusSuspended || s == models.StatusResolved
}

// ReviewTarget reports whether s is a status public relations may set
// during triage.
func ReviewTarget(s models.ReportStatus) bool {
	return s == models.StatusAssigned || s == models.StatusRejected
}
