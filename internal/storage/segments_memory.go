package storage

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/dale108/jury-selection/internal/models"
)

// MemorySegmentStore is an in-process SegmentStore for tests and
// single-binary demo runs. Replace semantics match the Postgres store.
type MemorySegmentStore struct {
	mu       sync.RWMutex
	segments []models.TranscriptSegment
}

// NewMemorySegmentStore creates an empty in-memory segment store.
func NewMemorySegmentStore() *MemorySegmentStore {
	return &MemorySegmentStore{}
}

// ReplaceSegments swaps the segment set for a recording under one lock,
// mirroring the transactional delete-then-insert of the Postgres store.
func (s *MemorySegmentStore) ReplaceSegments(ctx context.Context, recordingID uuid.UUID, segments []models.TranscriptSegment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.segments[:0]
	for _, seg := range s.segments {
		if seg.RecordingID != nil && *seg.RecordingID == recordingID {
			continue
		}
		kept = append(kept, seg)
	}
	s.segments = append(kept, segments...)
	return nil
}

// ListSegments returns segments matching the filter, ordered by start time.
func (s *MemorySegmentStore) ListSegments(ctx context.Context, filter SegmentFilter) ([]models.TranscriptSegment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.TranscriptSegment
	for _, seg := range s.segments {
		if filter.SessionID != uuid.Nil && seg.SessionID != filter.SessionID {
			continue
		}
		if filter.RecordingID != uuid.Nil &&
			(seg.RecordingID == nil || *seg.RecordingID != filter.RecordingID) {
			continue
		}
		if filter.SpeakerLabel != "" && seg.SpeakerLabel != filter.SpeakerLabel {
			continue
		}
		out = append(out, seg)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime < out[j].StartTime })
	return out, nil
}
