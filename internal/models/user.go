package models

import "time"

// User & auth related models
type User struct {
	ID        uint    `gorm:"primaryKey"`
	Email     string  `gorm:"unique;not null;index"`
	Password  string  `gorm:"not null"` // hashé (bcrypt)
	Nom       string  `gorm:"index"`
	Prenom    string  `gorm:"index"`
	Company   string  // raison sociale affichée sur les factures
	AddressID uint    // clé étrangère vers Address
	Address   Address `gorm:"foreignKey:AddressID"`
	Telephone string
	// IBAN du compte créancier. Un QR-IBAN (IID 30000-31999) est requis pour
	// produire des références QRR en mode auto.
	IBAN string

	// Mode de référence QR: auto, manual, disabled
	QRReferenceMode string `gorm:"not null;default:'auto'"`

	// Numérotation des factures et des devis (compteurs par utilisateur)
	InvoicePrefix     string `gorm:"size:20"`
	InvoicePadding    int    `gorm:"not null;default:4"`
	NextInvoiceNumber int    `gorm:"not null;default:1"`
	QuotePrefix       string `gorm:"size:20"`
	QuotePadding      int    `gorm:"not null;default:4"`
	NextQuoteNumber   int    `gorm:"not null;default:1"`

	CreatedAt time.Time
	UpdatedAt time.Time
}
