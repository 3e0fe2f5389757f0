package services

import (
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/simplifaq/simplifaq/internal/models"
)

// Audit records an audit-log entry. Failures are logged but never surfaced:
// an audit write must not fail the business operation it describes.
func Audit(db *gorm.DB, userID uint, entityType string, entityID uint, action, detail string) {
	entry := models.AuditLog{
		UserID:     userID,
		EntityType: entityType,
		EntityID:   entityID,
		Action:     action,
		Detail:     detail,
	}
	if err := db.Create(&entry).Error; err != nil {
		log.Warn().Err(err).Str("entity", entityType).Uint("id", entityID).Msg("audit write failed")
	}
}
