package models

import "time"

// Quote / estimate models
type Quote struct {
	ID     uint   `gorm:"primaryKey"`
	UserID uint   `gorm:"not null;index:idx_quote_user_number,unique,priority:1"`
	User   User   `gorm:"foreignKey:UserID"`
	Number string `gorm:"size:40;not null;index:idx_quote_user_number,unique,priority:2"`
	Status string `gorm:"not null;default:'draft'"` // draft, sent, accepted, rejected, converted

	ClientID uint        `gorm:"not null;index"`
	Client   Client      `gorm:"foreignKey:ClientID"`
	Items    []QuoteItem `gorm:"foreignKey:QuoteID"`

	DiscountType  string
	DiscountValue float64

	Subtotal float64
	Discount float64
	VAT      float64
	Total    float64

	Currency             string `gorm:"not null;default:'CHF'"`
	ValidUntil           time.Time
	ConvertedToInvoiceID uint // renseigné quand le devis est converti en facture
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

type QuoteItem struct {
	ID          uint    `gorm:"primaryKey"`
	QuoteID     uint    `gorm:"not null;index"`
	ProductID   uint
	Product     Product `gorm:"foreignKey:ProductID"`
	Description string  `gorm:"not null"`
	Quantity    float64 `gorm:"not null"`
	UnitPrice   float64 `gorm:"not null"`
	VATRate     float64 `gorm:"not null"`
	DiscountType  string
	DiscountValue float64
	Subtotal      float64
	VAT           float64
}
