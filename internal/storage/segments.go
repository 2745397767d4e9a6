package storage

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/dale108/jury-selection/internal/models"
)

// SegmentFilter narrows a segment listing. Zero-value fields are ignored.
type SegmentFilter struct {
	SessionID    uuid.UUID
	RecordingID  uuid.UUID
	SpeakerLabel string
}

// SegmentStore persists transcript segments. ReplaceSegments is the only
// write path: a retranscription deletes the previous batch and inserts the
// new one in a single atomic unit of work, so at-least-once redelivery of
// the same recording is harmless.
type SegmentStore interface {
	ReplaceSegments(ctx context.Context, recordingID uuid.UUID, segments []models.TranscriptSegment) error
	ListSegments(ctx context.Context, filter SegmentFilter) ([]models.TranscriptSegment, error)
}

// GormSegmentStore implements SegmentStore on Postgres via GORM.
type GormSegmentStore struct {
	db *gorm.DB
}

// NewGormSegmentStore opens the database and prepares the segments table.
func NewGormSegmentStore(dsn string) (*GormSegmentStore, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.AutoMigrate(&models.TranscriptSegment{}); err != nil {
		return nil, fmt.Errorf("migrate segments table: %w", err)
	}
	return &GormSegmentStore{db: db}, nil
}

// ReplaceSegments atomically swaps the segment set for a recording.
// A failure mid-transaction rolls back and leaves the previous set intact.
func (s *GormSegmentStore) ReplaceSegments(ctx context.Context, recordingID uuid.UUID, segments []models.TranscriptSegment) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("recording_id = ?", recordingID).
			Delete(&models.TranscriptSegment{}).Error; err != nil {
			return fmt.Errorf("delete previous segments: %w", err)
		}
		if len(segments) == 0 {
			return nil
		}
		if err := tx.Create(&segments).Error; err != nil {
			return fmt.Errorf("insert segments: %w", err)
		}
		return nil
	})
}

// ListSegments returns segments matching the filter, ordered by start time.
func (s *GormSegmentStore) ListSegments(ctx context.Context, filter SegmentFilter) ([]models.TranscriptSegment, error) {
	q := s.db.WithContext(ctx).Model(&models.TranscriptSegment{})
	if filter.SessionID != uuid.Nil {
		q = q.Where("session_id = ?", filter.SessionID)
	}
	if filter.RecordingID != uuid.Nil {
		q = q.Where("recording_id = ?", filter.RecordingID)
	}
	if filter.SpeakerLabel != "" {
		q = q.Where("speaker_label = ?", filter.SpeakerLabel)
	}

	var out []models.TranscriptSegment
	if err := q.Order("start_time asc").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list segments: %w", err)
	}
	return out, nil
}
