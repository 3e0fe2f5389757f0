package models

import "time"

// Invoicing models
type Invoice struct {
	ID     uint   `gorm:"primaryKey"`
	UserID uint   `gorm:"not null;index:idx_invoice_user_number,unique,priority:1"`
	User   User   `gorm:"foreignKey:UserID"`
	Number string `gorm:"size:40;not null;index:idx_invoice_user_number,unique,priority:2"`
	Status string `gorm:"not null;default:'draft'"` // draft, sent, paid, cancelled

	ClientID uint          `gorm:"not null;index"`
	Client   Client        `gorm:"foreignKey:ClientID"`
	Items    []InvoiceItem `gorm:"foreignKey:InvoiceID"`

	// Remise globale (PERCENT ou AMOUNT), répartie au prorata des lignes
	DiscountType  string
	DiscountValue float64

	// Référence QR figée à la création (QRR 27 chiffres, vide si type NON)
	QRReference     string
	QRReferenceType string `gorm:"not null;default:'NON'"`

	// Totaux calculés (arrondis au centime à chaque étape)
	Subtotal float64
	Discount float64 // montant de la remise globale
	VAT      float64
	Total    float64

	Currency  string `gorm:"not null;default:'CHF'"`
	IssuedAt  time.Time
	DueAt     time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

type InvoiceItem struct {
	ID        uint    `gorm:"primaryKey"`
	InvoiceID uint    `gorm:"not null;index"`
	ProductID uint    // optionnel: ligne libre quand absent
	Product   Product `gorm:"foreignKey:ProductID"`
	// Valeurs figées au moment de la facturation (le produit peut changer après)
	Description string  `gorm:"not null"`
	Quantity    float64 `gorm:"not null"`
	UnitPrice   float64 `gorm:"not null"`
	VATRate     float64 `gorm:"not null"`
	// Remise de ligne (PERCENT ou AMOUNT)
	DiscountType  string
	DiscountValue float64
	// Montants calculés
	Subtotal float64
	VAT      float64
}
