package models

import "time"

// BillItem menghubungkan bill dengan order item yang dilunasinya. Quantity
// boleh lebih kecil dari quantity order item-nya sehingga satu item bisa
// dibagi ke beberapa bill (mis. appetizer sharing).
type BillItem struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	BillID      uint      `gorm:"not null;index" json:"bill_id"`
	OrderItemID uint      `gorm:"not null;index" json:"order_item_id"`
	OrderItem   OrderItem `gorm:"foreignKey:OrderItemID" json:"order_item"`
	Quantity    int       `gorm:"not null" json:"quantity"`
	Amount      float64   `gorm:"type:decimal(10,2);not null" json:"amount"`
	CreatedAt   time.Time `gorm:"not null" json:"created_at"`
}
