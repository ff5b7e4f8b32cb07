package services

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/dinetap/table-service/models"
	"github.com/dinetap/table-service/realtime"
	"github.com/dinetap/table-service/utils"
)

// SessionService adalah satu-satunya jalur tulis untuk TableSession; semua
// invariant sesi (satu sesi hidup per meja, status hanya maju, totalAmount)
// ditegakkan di sini.
type SessionService struct {
	DB     *gorm.DB
	Events realtime.Publisher
}

func NewSessionService(db *gorm.DB, events realtime.Publisher) *SessionService {
	if events == nil {
		events = realtime.NopPublisher{}
	}
	return &SessionService{DB: db, Events: events}
}

// Create membuat sesi baru untuk sebuah meja. Guard anti double-booking
// bukan check-then-act: insert langsung dicoba dan unique index di
// ActiveTableKey yang memutuskan pemenang. Kalah race = ConflictError yang
// membawa sesi yang sudah ada supaya caller tinggal join.
func (s *SessionService) Create(restaurantID uint, tableNumber, partySize int) (*models.TableSession, error) {
	var table models.Table
	if err := s.DB.Where("restaurant_id = ? AND table_number = ?", restaurantID, tableNumber).
		First(&table).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.NewNotFoundError(fmt.Sprintf("table %d not found", tableNumber))
		}
		return nil, err
	}

	if partySize < 1 {
		partySize = 1
	}
	session := models.TableSession{
		RestaurantID:   restaurantID,
		TableID:        table.ID,
		ActiveTableKey: &table.ID,
		PartySize:      partySize,
		Status:         models.SessionWaiting,
		StartTime:      time.Now(),
	}

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&session).Error; err != nil {
			return err
		}
		return tx.Model(&models.Table{}).Where("id = ?", table.ID).
			Update("is_occupied", true).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			existing, ferr := s.FindActiveByTable(table.ID)
			details := map[string]interface{}{"table_id": table.ID}
			if ferr == nil {
				details["existing_session_id"] = existing.ID
			}
			return nil, utils.NewConflictError("table already has an active session", details)
		}
		return nil, err
	}

	s.Events.Publish(realtime.Event{
		RestaurantID: restaurantID,
		Payload:      realtime.TableStatusChanged{TableID: table.ID, IsOccupied: true},
	})

	utils.InfoLogger.Printf("Session %d created for table %d (party of %d)", session.ID, table.ID, partySize)
	return &session, nil
}

// FindActiveByTable -> sesi non-terminal milik sebuah meja.
func (s *SessionService) FindActiveByTable(tableID uint) (*models.TableSession, error) {
	var session models.TableSession
	if err := s.DB.Where("active_table_key = ?", tableID).First(&session).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.NewNotFoundError("no active session for this table")
		}
		return nil, err
	}
	return &session, nil
}

// Join mengembalikan sesi non-terminal tanpa mutasi apapun.
func (s *SessionService) Join(sessionID uint) (*models.TableSession, error) {
	session, err := s.Get(sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status.Terminal() {
		return nil, utils.NewNotFoundError("session is already closed")
	}
	return session, nil
}

func (s *SessionService) Get(sessionID uint) (*models.TableSession, error) {
	var session models.TableSession
	if err := s.DB.Preload("Table").First(&session, sessionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.NewNotFoundError("session not found")
		}
		return nil, err
	}
	return &session, nil
}

// Transition memvalidasi dan menjalankan perpindahan status sesi beserta
// side effect-nya (timestamp, pembebasan meja saat terminal).
func (s *SessionService) Transition(sessionID uint, to models.SessionStatus) (*models.TableSession, error) {
	var session models.TableSession

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&session, sessionID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return utils.NewNotFoundError("session not found")
			}
			return err
		}

		if !session.Status.CanTransition(to) {
			return utils.NewBusinessRuleError(
				fmt.Sprintf("invalid session transition %s -> %s", session.Status, to))
		}

		now := time.Now()
		session.Status = to
		switch to {
		case models.SessionActive:
			if session.FirstOrderTime == nil {
				session.FirstOrderTime = &now
			}
		case models.SessionBillRequested:
			session.BillRequested = true
			session.BillRequestedAt = &now
		case models.SessionCompleted, models.SessionAbandoned:
			session.EndTime = &now
			session.ActiveTableKey = nil
		}

		// Select semua kolom supaya ActiveTableKey yang nil ikut tersimpan.
		if err := tx.Model(&session).Select("*").Updates(&session).Error; err != nil {
			return err
		}

		if to.Terminal() {
			if err := tx.Model(&models.Table{}).Where("id = ?", session.TableID).
				Update("is_occupied", false).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if to.Terminal() {
		s.Events.Publish(realtime.Event{
			RestaurantID: session.RestaurantID,
			Payload:      realtime.TableStatusChanged{TableID: session.TableID, IsOccupied: false},
		})
	}

	utils.InfoLogger.Printf("Session %d -> %s", session.ID, to)
	return &session, nil
}

// RecomputeTotal menghitung ulang totalAmount dari semua order non-cancelled.
// Dipanggil setelah setiap create/cancel order; jangan pernah menambah total
// secara inkremental di tempat lain.
func (s *SessionService) RecomputeTotal(sessionID uint) (*models.TableSession, error) {
	var session models.TableSession

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&session, sessionID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return utils.NewNotFoundError("session not found")
			}
			return err
		}
		total, err := sumSessionOrders(tx, sessionID)
		if err != nil {
			return err
		}
		session.TotalAmount = total
		return tx.Model(&session).Update("total_amount", total).Error
	})
	if err != nil {
		return nil, err
	}

	s.Events.Publish(realtime.Event{
		RestaurantID: session.RestaurantID,
		TableID:      session.TableID,
		Payload: realtime.SessionTotalsUpdated{
			SessionID:   session.ID,
			TotalAmount: session.TotalAmount,
			PaidAmount:  session.PaidAmount,
		},
	})
	return &session, nil
}

func sumSessionOrders(tx *gorm.DB, sessionID uint) (float64, error) {
	var total float64
	err := tx.Model(&models.Order{}).
		Where("table_session_id = ? AND status != ?", sessionID, models.OrderCancelled).
		Select("COALESCE(SUM(total_amount), 0)").
		Scan(&total).Error
	return total, err
}

// CombinedView adalah agregat satu round-trip untuk dashboard.
type CombinedView struct {
	Session       models.TableSession `json:"session"`
	Customers     []models.Customer   `json:"customers"`
	Orders        []models.Order      `json:"orders"`
	Bills         []models.Bill       `json:"bills"`
	CombinedBills []models.Bill       `json:"combinedBills"`
}

func (s *SessionService) Combined(sessionID uint) (*CombinedView, error) {
	session, err := s.Get(sessionID)
	if err != nil {
		return nil, err
	}

	view := CombinedView{Session: *session}
	if err := s.DB.Where("table_session_id = ?", sessionID).
		Order("created_at asc, id asc").Find(&view.Customers).Error; err != nil {
		return nil, err
	}
	if err := s.DB.Preload("OrderItems").Where("table_session_id = ?", sessionID).
		Order("created_at asc").Find(&view.Orders).Error; err != nil {
		return nil, err
	}
	var bills []models.Bill
	if err := s.DB.Preload("BillItems").Where("table_session_id = ?", sessionID).
		Order("created_at asc").Find(&bills).Error; err != nil {
		return nil, err
	}
	view.Bills = make([]models.Bill, 0, len(bills))
	view.CombinedBills = make([]models.Bill, 0)
	for _, b := range bills {
		if b.CustomerID == nil {
			view.CombinedBills = append(view.CombinedBills, b)
		} else {
			view.Bills = append(view.Bills, b)
		}
	}
	return &view, nil
}
