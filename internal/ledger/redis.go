package ledger

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
)

// RedisLedger keeps the ledger in Redis: two sets for processed
// comments and items, one hash for per-item counts. Redis persistence
// makes every mutation durable as soon as the command returns, so the
// write-through contract holds without a flush step.
type RedisLedger struct {
	client *redis.Client
}

// NewRedisLedger creates a ledger backed by the given Redis client.
func NewRedisLedger(client *redis.Client) *RedisLedger {
	return &RedisLedger{client: client}
}

func (l *RedisLedger) IsCommentProcessed(ctx context.Context, commentID string) (bool, error) {
	ok, err := l.client.SIsMember(ctx, KeyProcessedComments, commentID).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check comment %s: %w", commentID, err)
	}
	return ok, nil
}

func (l *RedisLedger) MarkCommentProcessed(ctx context.Context, commentID string) error {
	if err := l.client.SAdd(ctx, KeyProcessedComments, commentID).Err(); err != nil {
		return fmt.Errorf("failed to persist comment commit: %w", err)
	}
	return nil
}

func (l *RedisLedger) CommentCount(ctx context.Context, itemID string) (int64, error) {
	val, err := l.client.HGet(ctx, KeyItemCounts, itemID).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to get count for item %s: %w", itemID, err)
	}
	n, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid count for item %s: %w", itemID, err)
	}
	return n, nil
}

func (l *RedisLedger) SetCommentCount(ctx context.Context, itemID string, count int64) error {
	// The engine holds the per-item lock here, so read-then-write is safe.
	prev, err := l.CommentCount(ctx, itemID)
	if err != nil {
		return err
	}
	if count <= prev {
		return nil
	}
	if err := l.client.HSet(ctx, KeyItemCounts, itemID, count).Err(); err != nil {
		return fmt.Errorf("failed to persist count for item %s: %w", itemID, err)
	}
	return nil
}

func (l *RedisLedger) IsItemProcessed(ctx context.Context, itemID string) (bool, error) {
	ok, err := l.client.SIsMember(ctx, KeyProcessedItems, itemID).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check item %s: %w", itemID, err)
	}
	return ok, nil
}

func (l *RedisLedger) MarkItemProcessed(ctx context.Context, itemID string) error {
	if err := l.client.SAdd(ctx, KeyProcessedItems, itemID).Err(); err != nil {
		return fmt.Errorf("failed to persist item commit: %w", err)
	}
	return nil
}

func (l *RedisLedger) Totals(ctx context.Context) (int64, int64, error) {
	comments, err := l.client.SCard(ctx, KeyProcessedComments).Result()
	if err != nil {
		return 0, 0, fmt.Errorf("failed to count processed comments: %w", err)
	}
	items, err := l.client.SCard(ctx, KeyProcessedItems).Result()
	if err != nil {
		return 0, 0, fmt.Errorf("failed to count processed items: %w", err)
	}
	return comments, items, nil
}

func (l *RedisLedger) Close() error {
	return l.client.Close()
}
