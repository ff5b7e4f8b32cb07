package models

import "time"

type Restaurant struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"type:varchar(100);not null" json:"name"`
	// Pricing configuration untuk billing engine. TaxInclusive berarti harga
	// menu sudah termasuk pajak, sehingga bill tidak menambah tax/tip lagi.
	TaxRate      float64   `gorm:"type:decimal(5,4);not null;default:0" json:"tax_rate"`
	TipRate      float64   `gorm:"type:decimal(5,4);not null;default:0" json:"tip_rate"`
	TaxInclusive bool      `gorm:"not null;default:false" json:"tax_inclusive"`
	CreatedAt    time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt    time.Time `gorm:"not null" json:"updated_at"`
}
