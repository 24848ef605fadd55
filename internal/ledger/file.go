package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// fileState is the on-disk document. Sets are serialized as sorted-ish
// slices (map iteration order, stable enough for a state file).
type fileState struct {
	ProcessedComments []string         `json:"processed_comments"`
	ItemCommentCounts map[string]int64 `json:"item_comment_counts"`
	ProcessedItems    []string         `json:"processed_items"`
}

// FileLedger keeps the whole ledger in memory and flushes the full
// document to disk on every mutation (write-through). The flush uses a
// temp file plus rename so a crash mid-write leaves the previous
// document intact. A mutation whose flush fails is rolled back in
// memory, which keeps "persisted" and "committed" the same thing.
type FileLedger struct {
	path string

	mu       sync.Mutex
	comments map[string]struct{}
	counts   map[string]int64
	items    map[string]struct{}
}

// OpenFile loads the ledger document at path. A missing file is an
// empty ledger, not an error; an unreadable or corrupt file is an
// error, because silently starting empty would rescore everything.
func OpenFile(path string) (*FileLedger, error) {
	l := &FileLedger{
		path:     path,
		comments: make(map[string]struct{}),
		counts:   make(map[string]int64),
		items:    make(map[string]struct{}),
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create ledger directory: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return l, nil
		}
		return nil, fmt.Errorf("failed to read ledger file: %w", err)
	}

	var state fileState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("failed to parse ledger file %s: %w", path, err)
	}

	for _, id := range state.ProcessedComments {
		l.comments[id] = struct{}{}
	}
	for _, id := range state.ProcessedItems {
		l.items[id] = struct{}{}
	}
	for id, n := range state.ItemCommentCounts {
		l.counts[id] = n
	}

	return l, nil
}

func (l *FileLedger) IsCommentProcessed(_ context.Context, commentID string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.comments[commentID]
	return ok, nil
}

func (l *FileLedger) MarkCommentProcessed(_ context.Context, commentID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.comments[commentID]; ok {
		return nil
	}
	l.comments[commentID] = struct{}{}
	if err := l.flushLocked(); err != nil {
		delete(l.comments, commentID)
		return fmt.Errorf("failed to persist comment commit: %w", err)
	}
	return nil
}

func (l *FileLedger) CommentCount(_ context.Context, itemID string) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.counts[itemID], nil
}

func (l *FileLedger) SetCommentCount(_ context.Context, itemID string, count int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	prev, had := l.counts[itemID]
	if had && count <= prev {
		// Counts never shrink; see the deletion blind spot note in DESIGN.md.
		return nil
	}
	l.counts[itemID] = count
	if err := l.flushLocked(); err != nil {
		if had {
			l.counts[itemID] = prev
		} else {
			delete(l.counts, itemID)
		}
		return fmt.Errorf("failed to persist comment count: %w", err)
	}
	return nil
}

func (l *FileLedger) IsItemProcessed(_ context.Context, itemID string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.items[itemID]
	return ok, nil
}

func (l *FileLedger) MarkItemProcessed(_ context.Context, itemID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.items[itemID]; ok {
		return nil
	}
	l.items[itemID] = struct{}{}
	if err := l.flushLocked(); err != nil {
		delete(l.items, itemID)
		return fmt.Errorf("failed to persist item commit: %w", err)
	}
	return nil
}

func (l *FileLedger) Totals(_ context.Context) (int64, int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return int64(len(l.comments)), int64(len(l.items)), nil
}

func (l *FileLedger) Close() error { return nil }

// flushLocked writes the full document atomically. Caller holds l.mu.
func (l *FileLedger) flushLocked() error {
	state := fileState{
		ProcessedComments: make([]string, 0, len(l.comments)),
		ItemCommentCounts: l.counts,
		ProcessedItems:    make([]string, 0, len(l.items)),
	}
	for id := range l.comments {
		state.ProcessedComments = append(state.ProcessedComments, id)
	}
	for id := range l.items {
		state.ProcessedItems = append(state.ProcessedItems, id)
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal ledger state: %w", err)
	}

	tmp := l.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write ledger temp file: %w", err)
	}
	if err := os.Rename(tmp, l.path); err != nil {
		return fmt.Errorf("failed to replace ledger file: %w", err)
	}
	return nil
}
