package models

import "time"

type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderConfirmed OrderStatus = "confirmed"
	OrderPreparing OrderStatus = "preparing"
	OrderServed    OrderStatus = "served"
	OrderCompleted OrderStatus = "completed"
	OrderCancelled OrderStatus = "cancelled"
)

type Order struct {
	ID             uint        `gorm:"primaryKey" json:"id"`
	OrderNumber    string      `gorm:"type:varchar(40);not null;uniqueIndex" json:"order_number"`
	CustomerID     uint        `gorm:"not null;index" json:"customer_id"`
	Customer       Customer    `gorm:"foreignKey:CustomerID" json:"customer"`
	TableSessionID uint        `gorm:"not null;index" json:"table_session_id"`
	Status         OrderStatus `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	TotalAmount    float64     `gorm:"type:decimal(10,2);not null;default:0.00" json:"total_amount"`
	Notes          string      `gorm:"type:text" json:"notes"`
	IsGroupOrder   bool        `gorm:"not null;default:false" json:"is_group_order"`
	CreatedAt      time.Time   `gorm:"not null" json:"created_at"`
	UpdatedAt      time.Time   `gorm:"not null" json:"updated_at"`
	OrderItems     []OrderItem `gorm:"foreignKey:OrderID" json:"order_items"`
}

// orderTransitions -> progres status order, hanya maju.
// cancelled bisa dicapai dari semua status non-terminal.
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderPending:   {OrderConfirmed, OrderCancelled},
	OrderConfirmed: {OrderPreparing, OrderCancelled},
	OrderPreparing: {OrderServed, OrderCancelled},
	OrderServed:    {OrderCompleted, OrderCancelled},
}

func (s OrderStatus) CanTransition(to OrderStatus) bool {
	for _, next := range orderTransitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

func (s OrderStatus) Terminal() bool {
	return s == OrderCompleted || s == OrderCancelled
}
