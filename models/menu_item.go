package models

import "time"

// MenuItem adalah data read-only dari modul menu (collaborator eksternal).
// Order service hanya membaca harga + availability saat snapshot.
type MenuItem struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	RestaurantID uint      `gorm:"not null;index" json:"restaurant_id"`
	Name         string    `gorm:"type:varchar(100);not null" json:"name"`
	Price        float64   `gorm:"type:decimal(10,2);not null" json:"price"`
	IsAvailable  bool      `gorm:"not null" json:"is_available"`
	CreatedAt    time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt    time.Time `gorm:"not null" json:"updated_at"`
}
