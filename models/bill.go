package models

import "time"

type BillType string

const (
	BillIndividual BillType = "individual"
	BillCombined   BillType = "combined"
	BillPartial    BillType = "partial"
)

type BillStatus string

const (
	BillPending   BillStatus = "pending"
	BillPaid      BillStatus = "paid"
	BillCancelled BillStatus = "cancelled"
)

type Bill struct {
	ID             uint   `gorm:"primaryKey" json:"id"`
	BillNumber     string `gorm:"type:varchar(40);not null;uniqueIndex" json:"bill_number"`
	TableSessionID uint   `gorm:"not null;uniqueIndex:idx_bill_session_customer" json:"table_session_id"`
	// CustomerID NULL berarti combined bill untuk seluruh meja. Unique index
	// (session, customer) menegakkan maksimal satu bill per customer per sesi;
	// baris NULL tidak saling bentrok sehingga combined bill tetap bisa dibuat.
	CustomerID    *uint      `gorm:"uniqueIndex:idx_bill_session_customer" json:"customer_id,omitempty"`
	Customer      *Customer  `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
	Type          BillType   `gorm:"type:varchar(20);not null" json:"type"`
	Subtotal      float64    `gorm:"type:decimal(10,2);not null;default:0.00" json:"subtotal"`
	Tax           float64    `gorm:"type:decimal(10,2);not null;default:0.00" json:"tax"`
	Tip           float64    `gorm:"type:decimal(10,2);not null;default:0.00" json:"tip"`
	Total         float64    `gorm:"type:decimal(10,2);not null;default:0.00" json:"total"`
	Status        BillStatus `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	PaymentMethod string     `gorm:"type:varchar(30)" json:"payment_method,omitempty"`
	PaidAt        *time.Time `json:"paid_at,omitempty"`
	CreatedAt     time.Time  `gorm:"not null" json:"created_at"`
	UpdatedAt     time.Time  `gorm:"not null" json:"updated_at"`
	BillItems     []BillItem `gorm:"foreignKey:BillID" json:"bill_items"`
}
