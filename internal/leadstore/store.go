package leadstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/leadscout/leadscout/internal/domain"
)

// Store is the append-only lead sink: one JSON document per line.
// Records are never mutated after they are written; aggregates are
// computed on read, not maintained incrementally.
type Store struct {
	path string
	mu   sync.Mutex
}

// Stats are lead aggregates computed over the whole file.
type Stats struct {
	TotalLeads     int64   `json:"total_leads"`
	QualifiedLeads int64   `json:"qualified_leads"`
	HighPriority   int64   `json:"high_priority_leads"`
	MediumPriority int64   `json:"medium_priority_leads"`
	LowPriority    int64   `json:"low_priority_leads"`
	AverageScore   float64 `json:"average_score"`
}

// New creates a lead store writing to path, creating the parent
// directory if needed.
func New(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create leads directory: %w", err)
	}
	return &Store{path: path}, nil
}

// Append writes one lead record. The record counts as reported only if
// this returns nil.
func (s *Store) Append(rec domain.LeadRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open leads file: %w", err)
	}
	defer func() { _ = f.Close() }()

	if err := json.NewEncoder(f).Encode(rec); err != nil {
		return fmt.Errorf("failed to append lead record: %w", err)
	}
	return nil
}

// All returns every lead record, oldest first. A missing file is an
// empty store.
func (s *Store) All() ([]domain.LeadRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.Open(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open leads file: %w", err)
	}
	defer func() { _ = f.Close() }()

	var records []domain.LeadRecord
	dec := json.NewDecoder(f)
	for {
		var rec domain.LeadRecord
		if err := dec.Decode(&rec); err != nil {
			if errors.Is(err, io.EOF) {
				return records, nil
			}
			return nil, fmt.Errorf("failed to decode lead record: %w", err)
		}
		records = append(records, rec)
	}
}

// ComputeStats computes aggregates over all stored leads.
func (s *Store) ComputeStats() (Stats, error) {
	records, err := s.All()
	if err != nil {
		return Stats{}, err
	}

	var stats Stats
	var scoreSum int64
	for _, rec := range records {
		stats.TotalLeads++
		scoreSum += int64(rec.Score)
		if rec.Qualified {
			stats.QualifiedLeads++
		}
		switch rec.Priority {
		case domain.PriorityHigh:
			stats.HighPriority++
		case domain.PriorityMedium:
			stats.MediumPriority++
		default:
			stats.LowPriority++
		}
	}
	if stats.TotalLeads > 0 {
		stats.AverageScore = float64(scoreSum) / float64(stats.TotalLeads)
	}
	return stats, nil
}
