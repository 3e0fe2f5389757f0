package models

import (
	"time"

	"gorm.io/gorm"
)

// Product domain models
type Product struct {
	ID uint `gorm:"primaryKey"`
	// Code produit unique par utilisateur. Identifiant lisible sur les factures.
	Code        string `gorm:"size:40;not null;index:idx_user_code,unique,priority:2"`
	UserID      uint   `gorm:"not null;index:idx_user_code,priority:1"` // propriétaire
	Name        string `gorm:"not null"`
	Description string
	UnitPrice   float64 `gorm:"not null"`
	// Taux de TVA en pourcent: 8.1 (normal), 2.6 (réduit), 3.8 (hébergement), 0
	VATRate   float64        `gorm:"not null"`
	Unit      string         `gorm:"not null;default:'pce'"` // pce, h, kg, m
	Currency  string         `gorm:"not null;default:'CHF'"`
	DeletedAt gorm.DeletedAt `gorm:"index"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
