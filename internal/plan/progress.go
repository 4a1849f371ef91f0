package plan

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const progressTTL = time.Hour

// Progress records per-plan generation progress in Redis so the plan status
// endpoint can report it while the worker runs.
type Progress struct {
	rdb *redis.Client
}

// ProgressState is the stored progress snapshot.
type ProgressState struct {
	Stage      string `json:"stage"` // prompting, parsing, persisting, done
	PostsTotal int    `json:"postsTotal"`
	PostsSaved int    `json:"postsSaved"`
}

// NewProgress creates a progress tracker against the given Redis URL.
func NewProgress(redisURL string) (*Progress, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}
	return &Progress{rdb: redis.NewClient(opts)}, nil
}

// Set stores the progress snapshot for a plan. Best-effort: callers ignore
// the error, generation must not fail because progress reporting did.
func (p *Progress) Set(ctx context.Context, planID uint, state ProgressState) error {
	if p == nil {
		return nil
	}
	payload, err := json.Marshal(state)
	if err != nil {
		return err
	}
	return p.rdb.Set(ctx, progressKey(planID), payload, progressTTL).Err()
}

// Get returns the stored snapshot, or nil if none exists.
func (p *Progress) Get(ctx context.Context, planID uint) (*ProgressState, error) {
	if p == nil {
		return nil, nil
	}
	payload, err := p.rdb.Get(ctx, progressKey(planID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var state ProgressState
	if err := json.Unmarshal(payload, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

// Close closes the Redis connection.
func (p *Progress) Close() error {
	if p == nil {
		return nil
	}
	return p.rdb.Close()
}

func progressKey(planID uint) string {
	return fmt.Sprintf("contentplan:progress:%d", planID)
}
