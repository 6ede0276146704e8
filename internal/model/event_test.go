package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEventVisible(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	base := Event{
		IsPublished: true,
		IsActive:    true,
		EventDate:   now.Add(24 * time.Hour),
	}

	t.Run("published active future event is visible", func(t *testing.T) {
		assert.True(t, base.Visible(now))
	})

	t.Run("draft is hidden", func(t *testing.T) {
		e := base
		e.IsPublished = false
		assert.False(t, e.Visible(now))
	})

	t.Run("deactivated event is hidden", func(t *testing.T) {
		e := base
		e.IsActive = false
		assert.False(t, e.Visible(now))
	})

	t.Run("past event is hidden", func(t *testing.T) {
		e := base
		e.EventDate = now.Add(-time.Minute)
		assert.False(t, e.Visible(now))
	})

	t.Run("an event starting right now is still visible", func(t *testing.T) {
		e := base
		e.EventDate = now
		assert.True(t, e.Visible(now))
	})
}

func TestVerificationCodeExpired(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	v := VerificationCode{ExpiresAt: now.Add(10 * time.Minute)}

	assert.False(t, v.Expired(now))
	assert.False(t, v.Expired(v.ExpiresAt))
	assert.True(t, v.Expired(v.ExpiresAt.Add(time.Second)))
}
