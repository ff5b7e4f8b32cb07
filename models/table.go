package models

import "time"

type Table struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	RestaurantID uint      `gorm:"not null;uniqueIndex:idx_restaurant_table_number" json:"restaurant_id"`
	TableNumber  int       `gorm:"not null;uniqueIndex:idx_restaurant_table_number" json:"table_number"`
	Capacity     int       `gorm:"not null;default:4" json:"capacity"`
	IsOccupied   bool      `gorm:"not null;default:false" json:"is_occupied"`
	CreatedAt    time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt    time.Time `gorm:"not null" json:"updated_at"`
}
