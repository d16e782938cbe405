package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestExpiryReminderPayload(t *testing.T) {
	q := expiringQuote{
		ID:          42,
		Location:    "Main Office",
		ExpiresAt:   time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC),
		CompanyName: "Hill Country Medical Group",
		AgentUserID: 7,
		AgentName:   "Dana Reyes",
		AgentEmail:  "dana@example.com",
	}

	title, body, action, emailData := expiryReminderPayload(q)

	assert.Equal(t, "Quote expiring soon", title)
	assert.Regexp(t, `^QT-[A-Z]{2}00042 for Hill Country Medical Group expires on Mar 15, 2026$`, body)
	assert.Equal(t, "quote_expiring:42", action)

	assert.Equal(t, "Dana Reyes", emailData.AgentName)
	assert.Equal(t, "dana@example.com", emailData.Email)
	assert.Equal(t, "Hill Country Medical Group", emailData.ClientName)
	assert.Equal(t, "Main Office", emailData.Location)
	assert.Regexp(t, `^QT-[A-Z]{2}00042$`, emailData.QuoteID)
}

func TestExpiryReminderActionKeysAreUniquePerQuote(t *testing.T) {
	_, _, firstAction, _ := expiryReminderPayload(expiringQuote{ID: 1})
	_, _, secondAction, _ := expiryReminderPayload(expiringQuote{ID: 2})

	assert.NotEqual(t, firstAction, secondAction)
}
