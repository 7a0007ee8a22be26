package services

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/justsurfingit/job-recommender/internal/models"
)

const (
	DefaultHistoryLimit = 20
	MaxHistoryLimit     = 100
)

var ErrHistoryDisabled = errors.New("recommendation history is disabled")

// HistoryService stores one RecommendationLog per request. A nil DB disables it.
type HistoryService struct {
	DB *gorm.DB
}

func NewHistoryService(db *gorm.DB) *HistoryService {
	return &HistoryService{DB: db}
}

func (s *HistoryService) Enabled() bool {
	return s != nil && s.DB != nil
}

func (s *HistoryService) Record(ctx context.Context, entry *models.RecommendationLog) error {
	if !s.Enabled() {
		return nil
	}
	return s.DB.WithContext(ctx).Create(entry).Error
}

// Recent returns the newest logs first. limit is clamped to [1, MaxHistoryLimit].
func (s *HistoryService) Recent(ctx context.Context, limit int) ([]models.RecommendationLog, error) {
	if !s.Enabled() {
		return nil, ErrHistoryDisabled
	}
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	limit = min(limit, MaxHistoryLimit)

	var logs []models.RecommendationLog
	err := s.DB.WithContext(ctx).Order("created_at desc").Limit(limit).Find(&logs).Error
	if err != nil {
		return nil, err
	}
	return logs, nil
}
