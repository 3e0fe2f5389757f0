package models

import "time"

// Address model
type Address struct {
	ID         uint   `gorm:"primaryKey"`
	Ligne1     string `gorm:"not null"` // Rue et numéro
	Ligne2     string // Complément
	CodePostal string `gorm:"not null"`
	Ville      string `gorm:"not null"`
	Pays       string `gorm:"not null;default:'Suisse'"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
