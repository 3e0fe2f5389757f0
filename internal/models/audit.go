package models

import "time"

// Audit logging
type AuditLog struct {
	ID         uint      `gorm:"primaryKey"`
	UserID     uint      // qui a fait la modification
	EntityType string    // ex: "Invoice", "Quote", "Client"
	EntityID   uint      // ID de l'entité modifiée
	Action     string    // ex: "create", "update", "delete", "send", "convert"
	Detail     string    // complément (ex: numéro attribué, statut)
	CreatedAt  time.Time // quand
}
