package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/gastro-elite/backend/internal/logger"
	"github.com/gastro-elite/backend/internal/models"
	"github.com/gastro-elite/backend/internal/types"
)

type clientIPKey struct{}

// WithClientIP stores the caller's address for audit entries.
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPKey{}, ip)
}

func clientIP(ctx context.Context) string {
	ip, _ := ctx.Value(clientIPKey{}).(string)
	return ip
}

// AuditService persists the audit trail and the request error log.
type AuditService struct {
	db *gorm.DB
}

func NewAuditService(db *gorm.DB) *AuditService {
	return &AuditService{db: db}
}

// Record writes an audit entry. Failures are logged and never surface to the caller.
func (s *AuditService) Record(ctx context.Context, actorID *uuid.UUID, action, entityType, entityID, details string) {
	if s == nil {
		return
	}
	entry := &models.AuditLog{
		ID:         uuid.New(),
		ActorID:    actorID,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Details:    details,
		IPAddress:  clientIP(ctx),
	}
	if err := s.db.WithContext(ctx).Create(entry).Error; err != nil {
		logger.Warn(ctx, "failed to write audit log", zap.String("action", action), zap.Error(err))
	}
}

func (s *AuditService) ListAuditLogs(ctx context.Context, action string, page types.Page) ([]models.AuditLog, int64, error) {
	page = page.Normalize()
	query := s.db.WithContext(ctx).Model(&models.AuditLog{})
	if action != "" {
		query = query.Where("action = ?", action)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count audit logs: %w", err)
	}
	var logs []models.AuditLog
	if err := query.Order("created_at DESC").Limit(page.Limit).Offset(page.Offset).Find(&logs).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list audit logs: %w", err)
	}
	return logs, total, nil
}

func (s *AuditService) RecordError(ctx context.Context, entry *models.ErrorLog) {
	if s == nil {
		return
	}
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if err := s.db.WithContext(ctx).Create(entry).Error; err != nil {
		logger.Warn(ctx, "failed to write error log", zap.Error(err))
	}
}

func (s *AuditService) ListErrorLogs(ctx context.Context, page types.Page) ([]models.ErrorLog, int64, error) {
	page = page.Normalize()
	query := s.db.WithContext(ctx).Model(&models.ErrorLog{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count error logs: %w", err)
	}
	var logs []models.ErrorLog
	if err := query.Order("created_at DESC").Limit(page.Limit).Offset(page.Offset).Find(&logs).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list error logs: %w", err)
	}
	return logs, total, nil
}
