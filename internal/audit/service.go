package audit

import (
	"encoding/json"
	"fmt"
	"log"

	"farmlink-backend/internal/database"
	"farmlink-backend/internal/models"
)

type LogOptions struct {
	ActorID     string
	ActorName   string
	EntityType  string
	EntityID    string
	Action      models.AuditAction
	Description string
	Before      any
	After       any
}

// WriteLog appends an audit entry. Best effort: a failed audit write is
// logged but must never fail the business operation that triggered it.
func WriteLog(opts LogOptions) error {
	beforeStr := "null"
	afterStr := "null"

	if opts.Before != nil {
		if b, err := json.Marshal(opts.Before); err == nil {
			beforeStr = string(b)
		}
	}
	if opts.After != nil {
		if b, err := json.Marshal(opts.After); err == nil {
			afterStr = string(b)
		}
	}

	entry := models.AuditLog{
		ActorID:     opts.ActorID,
		ActorName:   opts.ActorName,
		EntityType:  opts.EntityType,
		EntityID:    opts.EntityID,
		Action:      opts.Action,
		Description: opts.Description,
		BeforeData:  beforeStr,
		AfterData:   afterStr,
	}

	if err := database.DB.Create(&entry).Error; err != nil {
		log.Printf("audit log write failed: %v", err)
		return fmt.Errorf("audit log write failed: %w", err)
	}

	return nil
}
