package models

import "time"

// Client entity
type Client struct {
	ID        uint    `gorm:"primaryKey"`
	UserID    uint    `gorm:"not null;index"` // FK vers User (propriétaire)
	User      User    `gorm:"foreignKey:UserID"`
	Nom       string  `gorm:"not null;index"` // Raison sociale ou nom
	Contact   string  // Nom du contact principal
	AddressID uint    // clé étrangère vers Address
	Address   Address `gorm:"foreignKey:AddressID"`
	Telephone string
	Email     string
	// IDE: numéro d'identification des entreprises (CHE-xxx.xxx.xxx)
	IDE       string `gorm:"index"`
	Notes     string
	CreatedAt time.Time
	UpdatedAt time.Time
}
