package services

import (
	"time"

	"gorm.io/gorm"

	"github.com/dinetap/table-service/models"
	"github.com/dinetap/table-service/utils"
)

// SessionMonitor adalah sweeper background yang meng-abandon sesi yang
// ditinggalkan (tidak ada aktivitas selewat IdleTimeout) supaya meja tidak
// terkunci selamanya oleh rombongan yang pergi tanpa bayar/menutup sesi.
type SessionMonitor struct {
	DB          *gorm.DB
	Sessions    *SessionService
	Interval    time.Duration
	IdleTimeout time.Duration
	StopChan    chan struct{}
}

func NewSessionMonitor(db *gorm.DB, sessions *SessionService, idleTimeout time.Duration) *SessionMonitor {
	return &SessionMonitor{
		DB:          db,
		Sessions:    sessions,
		Interval:    1 * time.Minute,
		IdleTimeout: idleTimeout,
		StopChan:    make(chan struct{}),
	}
}

func (sm *SessionMonitor) Start() {
	go func() {
		ticker := time.NewTicker(sm.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				sm.sweep()
			case <-sm.StopChan:
				return
			}
		}
	}()
}

func (sm *SessionMonitor) Stop() {
	close(sm.StopChan)
}

func (sm *SessionMonitor) sweep() {
	cutoff := time.Now().Add(-sm.IdleTimeout)

	var stale []models.TableSession
	if err := sm.DB.
		Where("status IN ? AND updated_at < ?",
			[]models.SessionStatus{models.SessionWaiting, models.SessionActive}, cutoff).
		Find(&stale).Error; err != nil {
		utils.ErrorLogger.Printf("session sweep query: %v", err)
		return
	}

	for _, session := range stale {
		if _, err := sm.Sessions.Transition(session.ID, models.SessionAbandoned); err != nil {
			utils.ErrorLogger.Printf("abandon session %d: %v", session.ID, err)
			continue
		}
		utils.InfoLogger.Printf("Session %d abandoned after %s idle", session.ID, sm.IdleTimeout)
	}
}
