package models

import "time"

type SessionStatus string

const (
	SessionWaiting       SessionStatus = "waiting"
	SessionActive        SessionStatus = "active"
	SessionBillRequested SessionStatus = "bill_requested"
	SessionCompleted     SessionStatus = "completed"
	SessionAbandoned     SessionStatus = "abandoned"
)

type SplitType string

const (
	SplitIndividual SplitType = "individual"
	SplitCombined   SplitType = "combined"
	SplitCustom     SplitType = "custom"
)

type TableSession struct {
	ID           uint  `gorm:"primaryKey" json:"id"`
	RestaurantID uint  `gorm:"not null;index" json:"restaurant_id"`
	TableID      uint  `gorm:"not null;index" json:"table_id"`
	Table        Table `gorm:"foreignKey:TableID" json:"table"`
	// ActiveTableKey menyalin TableID selama sesi masih hidup dan di-NULL-kan
	// saat sesi berakhir. Unique index di kolom ini adalah guard anti
	// double-booking: dua insert untuk meja yang sama tidak mungkin sukses dua-duanya.
	ActiveTableKey  *uint         `gorm:"uniqueIndex" json:"-"`
	GroupID         *string       `gorm:"type:varchar(36)" json:"group_id,omitempty"`
	PartySize       int           `gorm:"not null;default:1" json:"party_size"`
	Status          SessionStatus `gorm:"type:varchar(20);not null;default:'waiting'" json:"status"`
	SplitType       SplitType     `gorm:"type:varchar(20)" json:"split_type,omitempty"`
	StartTime       time.Time     `gorm:"not null" json:"start_time"`
	FirstOrderTime  *time.Time    `json:"first_order_time,omitempty"`
	EndTime         *time.Time    `json:"end_time,omitempty"`
	TotalAmount     float64       `gorm:"type:decimal(10,2);not null;default:0.00" json:"total_amount"`
	PaidAmount      float64       `gorm:"type:decimal(10,2);not null;default:0.00" json:"paid_amount"`
	BillRequested   bool          `gorm:"not null;default:false" json:"bill_requested"`
	BillRequestedAt *time.Time    `json:"bill_requested_at,omitempty"`
	CreatedAt       time.Time     `gorm:"not null" json:"created_at"`
	UpdatedAt       time.Time     `gorm:"not null" json:"updated_at"`
	Customers       []Customer    `gorm:"foreignKey:TableSessionID" json:"customers,omitempty"`
}

// sessionTransitions -> state machine sesi, status hanya maju.
// abandoned bisa dicapai dari semua status non-terminal.
var sessionTransitions = map[SessionStatus][]SessionStatus{
	SessionWaiting:       {SessionActive, SessionAbandoned},
	SessionActive:        {SessionBillRequested, SessionAbandoned},
	SessionBillRequested: {SessionCompleted, SessionAbandoned},
}

// CanTransition melaporkan apakah perpindahan status sesi valid.
func (s SessionStatus) CanTransition(to SessionStatus) bool {
	for _, next := range sessionTransitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// Terminal -> completed/abandoned tidak bisa berubah lagi.
func (s SessionStatus) Terminal() bool {
	return s == SessionCompleted || s == SessionAbandoned
}
