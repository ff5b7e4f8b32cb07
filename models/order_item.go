package models

import "time"

type OrderItem struct {
	ID      uint `gorm:"primaryKey" json:"id"`
	OrderID uint `gorm:"not null;index" json:"order_id"`
	// Order field disembunyikan dari JSON supaya tidak nested rekursif
	Order         Order    `gorm:"foreignKey:OrderID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	MenuItemID    uint     `gorm:"not null" json:"menu_item_id"`
	MenuItem      MenuItem `gorm:"foreignKey:MenuItemID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"menu_item"`
	Quantity      int      `gorm:"not null" json:"quantity"`
	// Price adalah snapshot harga menu saat order dibuat; perubahan harga
	// menu setelahnya tidak mempengaruhi order lama.
	Price         float64   `gorm:"type:decimal(10,2);not null" json:"price"`
	Customization string    `gorm:"type:text" json:"customization"`
	CreatedAt     time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt     time.Time `gorm:"not null" json:"updated_at"`
}
