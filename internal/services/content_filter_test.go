package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContentFilter(t *testing.T) {
	f := NewContentFilter()

	cases := []struct {
		text   string
		ok     bool
		reason string
	}{
		{"The pothole is still there.", true, ""},
		{"", true, ""},
		{"this is a scam", false, "inappropriate_language"},
		{"check https://example.com/offer", false, "url_not_allowed"},
		{"write me at someone@example.com", false, "contact_info_not_allowed"},
		{"call 333-123-4567", false, "contact_info_not_allowed"},
		{"heeeeeelp!!!!!!", false, "spam_detected"},
		{"classical music is fine", true, ""}, // substring of a banned word does not match
	}

	for _, tc := range cases {
		ok, reason := f.Check(tc.text)
		assert.Equal(t, tc.ok, ok, "text: %q", tc.text)
		assert.Equal(t, tc.reason, reason, "text: %q", tc.text)
	}

	assert.NotEmpty(t, f.RejectionMessage("url_not_allowed"))
	assert.NotEmpty(t, f.RejectionMessage("unknown_reason"))
}
