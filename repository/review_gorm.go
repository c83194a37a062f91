package repository

import (
	"context"
	"errors"
	"time"

	domainReview "github.com/agromov/postwatch/domains/review"
	"gorm.io/gorm"
)

// --- Persistence Model ---

type reviewModel struct {
	ID               uint   `gorm:"primaryKey;autoIncrement"`
	ChannelID        int64  `gorm:"index:idx_comments_channel;not null"`
	MessageID        int    `gorm:"not null"`
	GeneratedComment string `gorm:"type:text;not null"`
	PostText         string `gorm:"type:text"`
	PhotoPath        string
	Status           string `gorm:"index:idx_comments_status;default:'pending';not null"`
	SentMessageID    *int
	CreatedAt        time.Time `gorm:"not null"`
	SentAt           *time.Time
}

func (reviewModel) TableName() string {
	return "comments"
}

// --- Repository Implementation ---

type ReviewGormRepository struct {
	db *gorm.DB
}

func NewReviewGormRepository(db *gorm.DB) *ReviewGormRepository {
	return &ReviewGormRepository{db: db}
}

func (r *ReviewGormRepository) InitSchema(ctx context.Context) error {
	return r.db.WithContext(ctx).AutoMigrate(&reviewModel{})
}

func (r *ReviewGormRepository) Create(ctx context.Context, record *domainReview.ReviewRecord) error {
	if record.Status == "" {
		record.Status = domainReview.StatusPending
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}

	model := toReviewModel(record)
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		return err
	}
	record.ID = model.ID
	return nil
}

func (r *ReviewGormRepository) GetByID(ctx context.Context, id uint) (*domainReview.ReviewRecord, error) {
	var m reviewModel
	if err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainReview.ErrRecordNotFound
		}
		return nil, err
	}
	return fromReviewModel(m), nil
}

func (r *ReviewGormRepository) GetPendingByID(ctx context.Context, id uint) (*domainReview.ReviewRecord, error) {
	var m reviewModel
	err := r.db.WithContext(ctx).
		Where("id = ? AND status = ?", id, string(domainReview.StatusPending)).
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainReview.ErrRecordNotFound
		}
		return nil, err
	}
	return fromReviewModel(m), nil
}

// MarkSent performs the pending → sent transition. The status guard in the
// WHERE clause makes the update atomic: a record that already left pending
// is reported as not found and stays untouched.
func (r *ReviewGormRepository) MarkSent(ctx context.Context, id uint, sentMessageID int, sentAt time.Time) error {
	result := r.db.WithContext(ctx).Model(&reviewModel{}).
		Where("id = ? AND status = ?", id, string(domainReview.StatusPending)).
		Updates(map[string]interface{}{
			"status":          string(domainReview.StatusSent),
			"sent_message_id": sentMessageID,
			"sent_at":         sentAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainReview.ErrRecordNotFound
	}
	return nil
}

func (r *ReviewGormRepository) MarkFailed(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Model(&reviewModel{}).
		Where("id = ? AND status = ?", id, string(domainReview.StatusPending)).
		Update("status", string(domainReview.StatusFailed))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainReview.ErrRecordNotFound
	}
	return nil
}

func (r *ReviewGormRepository) List(ctx context.Context, status domainReview.Status, limit int) ([]domainReview.ReviewRecord, error) {
	query := r.db.WithContext(ctx).Model(&reviewModel{}).Order("id DESC")
	if status != "" {
		query = query.Where("status = ?", string(status))
	}
	if limit > 0 {
		query = query.Limit(limit)
	}

	var models []reviewModel
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}

	records := make([]domainReview.ReviewRecord, 0, len(models))
	for _, m := range models {
		records = append(records, *fromReviewModel(m))
	}
	return records, nil
}

func (r *ReviewGormRepository) CountByStatus(ctx context.Context) (map[domainReview.Status]int64, error) {
	type statusCount struct {
		Status string
		Count  int64
	}
	var rows []statusCount
	err := r.db.WithContext(ctx).Model(&reviewModel{}).
		Select("status, COUNT(*) as count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[domainReview.Status]int64, len(rows))
	for _, row := range rows {
		counts[domainReview.Status(row.Status)] = row.Count
	}
	return counts, nil
}

func (r *ReviewGormRepository) PhotoPaths(ctx context.Context) ([]string, error) {
	var paths []string
	err := r.db.WithContext(ctx).Model(&reviewModel{}).
		Where("photo_path <> ''").
		Pluck("photo_path", &paths).Error
	if err != nil {
		return nil, err
	}
	return paths, nil
}

// --- Mapping ---

func toReviewModel(record *domainReview.ReviewRecord) reviewModel {
	m := reviewModel{
		ID:               record.ID,
		ChannelID:        record.ChannelID,
		MessageID:        record.MessageID,
		GeneratedComment: record.GeneratedComment,
		PostText:         record.PostText,
		PhotoPath:        record.PhotoPath,
		Status:           string(record.Status),
		CreatedAt:        record.CreatedAt,
		SentAt:           record.SentAt,
	}
	if record.SentMessageID != 0 {
		id := record.SentMessageID
		m.SentMessageID = &id
	}
	return m
}

func fromReviewModel(m reviewModel) *domainReview.ReviewRecord {
	record := &domainReview.ReviewRecord{
		ID:               m.ID,
		ChannelID:        m.ChannelID,
		MessageID:        m.MessageID,
		GeneratedComment: m.GeneratedComment,
		PostText:         m.PostText,
		PhotoPath:        m.PhotoPath,
		Status:           domainReview.Status(m.Status),
		CreatedAt:        m.CreatedAt,
		SentAt:           m.SentAt,
	}
	if m.SentMessageID != nil {
		record.SentMessageID = *m.SentMessageID
	}
	return record
}
