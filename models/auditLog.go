package models

import (
	"encoding/json"
	"time"

	"bitbucket.org/mmdatafocus/budget_backend/config"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// AuditLog is append-only. Rows are never updated; the only writer is
// RecordAudit and the only deleter is the retention purge tool.
type AuditLog struct {
	ID         int       `gorm:"primary_key" json:"id"`
	UserId     int       `gorm:"index;not null" json:"user_id"`
	Action     string    `gorm:"size:20;not null" json:"action"`
	EntityType string    `gorm:"size:50;not null;index:idx_audit_entity" json:"entity_type"`
	EntityId   int       `gorm:"index:idx_audit_entity" json:"entity_id"`
	Changes    string    `gorm:"type:text" json:"changes"`
	CreatedAt  time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}

// RecordAudit appends one immutable row. Failures are logged and swallowed:
// an audit-write failure must never abort the operation it documents.
func RecordAudit(db *gorm.DB, logger *logrus.Logger, userId int, action AuditAction, entityType string, entityId int, changes interface{}) {
	var changesJSON string
	if changes != nil {
		if b, err := json.Marshal(changes); err == nil {
			changesJSON = string(b)
		}
	}

	row := AuditLog{
		UserId:     userId,
		Action:     string(action),
		EntityType: entityType,
		EntityId:   entityId,
		Changes:    changesJSON,
	}
	if err := db.Create(&row).Error; err != nil {
		config.LogError(logger, "auditLog.go", "RecordAudit", string(action)+" "+entityType, row, err)
	}
}

// QueryAuditLogs returns records newest-first. limit <= 0 means the default
// of 50.
func QueryAuditLogs(db *gorm.DB, entityType string, entityId int, limit int) ([]*AuditLog, error) {
	if limit <= 0 {
		limit = 50
	}
	query := db.Model(&AuditLog{})
	if entityType != "" {
		query = query.Where("entity_type = ?", entityType)
	}
	if entityId != 0 {
		query = query.Where("entity_id = ?", entityId)
	}

	var logs []*AuditLog
	if err := query.Order("created_at DESC, id DESC").Limit(limit).Find(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}

// PurgeAuditLogs deletes rows older than the retention window. Run from
// cmd/audit-purge, never from request handlers.
func PurgeAuditLogs(db *gorm.DB, olderThan time.Time) (int64, error) {
	result := db.Where("created_at < ?", olderThan).Delete(&AuditLog{})
	return result.RowsAffected, result.Error
}
