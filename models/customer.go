package models

import "time"

type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
	PaymentPartial PaymentStatus = "partial"
)

type Customer struct {
	ID             uint          `gorm:"primaryKey" json:"id"`
	TableSessionID uint          `gorm:"not null;index" json:"table_session_id"`
	Name           string        `gorm:"type:varchar(100);not null" json:"name"`
	Email          *string       `gorm:"type:varchar(255)" json:"email,omitempty"`
	Phone          *string       `gorm:"type:varchar(30)" json:"phone,omitempty"`
	SessionKey     string        `gorm:"type:varchar(36);not null" json:"session_key"`
	IsMainCustomer bool          `gorm:"not null;default:false" json:"is_main_customer"`
	PaymentStatus  PaymentStatus `gorm:"type:varchar(20);not null;default:'pending'" json:"payment_status"`
	CreatedAt      time.Time     `gorm:"not null" json:"created_at"`
	UpdatedAt      time.Time     `gorm:"not null" json:"updated_at"`
}
