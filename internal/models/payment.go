package models

import "time"

// Payment tied to invoices
type Payment struct {
	ID        uint      `gorm:"primaryKey"`
	InvoiceID uint      `gorm:"not null;index"` // FK vers Invoice
	Invoice   Invoice   `gorm:"foreignKey:InvoiceID"`
	Date      time.Time `gorm:"not null"`
	Montant   float64   `gorm:"not null"`
	Mode      string    `gorm:"not null"` // virement, carte, espèces, twint
	// Référence interne unique (uuid), distincte de la référence QR
	Reference   string `gorm:"size:36;uniqueIndex"`
	Commentaire string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
