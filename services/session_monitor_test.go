package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dinetap/table-service/models"
)

func TestSweepAbandonsIdleSessions(t *testing.T) {
	db := setupTestDB(t)
	sessions := NewSessionService(db, nil)
	monitor := NewSessionMonitor(db, sessions, 3*time.Hour)

	idle, err := sessions.Create(1, 5, 2)
	require.NoError(t, err)
	fresh, err := sessions.Create(1, 6, 2)
	require.NoError(t, err)

	// Mundurkan updated_at sesi pertama melewati idle timeout.
	stale := time.Now().Add(-4 * time.Hour)
	require.NoError(t, db.Model(&models.TableSession{}).Where("id = ?", idle.ID).
		Update("updated_at", stale).Error)

	monitor.sweep()

	got, err := sessions.Get(idle.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SessionAbandoned, got.Status)
	assert.Nil(t, got.ActiveTableKey)

	kept, err := sessions.Get(fresh.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SessionWaiting, kept.Status)

	// Meja yang ditinggalkan bisa dipakai rombongan baru.
	_, err = sessions.Create(1, 5, 3)
	assert.NoError(t, err)
}
