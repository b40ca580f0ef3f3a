package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"

	"healthtrends/internal/aggregate"
)

// SummaryKey identifies one cached summary view. Generation is the user's
// cache generation observed before the rows were read; see Generation.
type SummaryKey struct {
	Domain     string
	UserID     uint
	Query      aggregate.Query
	Generation int64
}

func (k SummaryKey) String() string {
	view := "current"
	if !k.Query.Current {
		view = "last:" + strconv.Itoa(k.Query.Lookback)
	}
	return fmt.Sprintf("%s:%d:%s:%s:%s", k.Domain, k.UserID, k.Query.Granularity, k.Query.Family, view)
}

// setIfGenerationScript stores a summary only while the user's generation
// still equals the one the summary was computed under.
var setIfGenerationScript = redis.NewScript(`
local gen = redis.call("GET", KEYS[1])
if (gen or "0") ~= ARGV[1] then
	return 0
end
if ARGV[3] == "0" then
	redis.call("SET", KEYS[2], ARGV[2])
else
	redis.call("SET", KEYS[2], ARGV[2], "PX", ARGV[3])
end
return 1
`)

// releaseScript deletes a lock only if it still holds the caller's token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type RedisClient struct {
	client *redis.Client
}

func NewRedisClient(redisURL string) (*RedisClient, error) {
	if redisURL == "" {
		redisURL = "redis://localhost:6379/0"
	}

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisClient{client: client}, nil
}

func (r *RedisClient) Close() error {
	return r.client.Close()
}

func generationKey(userID uint) string {
	return fmt.Sprintf("summary:gen:%d", userID)
}

func lockKey(userID uint) string {
	return fmt.Sprintf("ingest:lock:%d", userID)
}

// Generation returns the user's current cache generation, 0 if unset.
// Callers read it once before loading rows and carry it in SummaryKey, so a
// summary computed from rows that an ingestion has since replaced is never
// stored under the new generation.
func (r *RedisClient) Generation(ctx context.Context, userID uint) (int64, error) {
	gen, err := r.client.Get(ctx, generationKey(userID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read cache generation: %w", err)
	}
	return gen, nil
}

func summaryKey(key SummaryKey) string {
	return fmt.Sprintf("summary:%s:g%d", key, key.Generation)
}

// GetSummary returns the summary cached under key's generation. ok is false
// on a miss.
func (r *RedisClient) GetSummary(ctx context.Context, key SummaryKey) (*aggregate.Summary, bool, error) {
	data, err := r.client.Get(ctx, summaryKey(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to get summary from Redis: %w", err)
	}

	var summary aggregate.Summary
	if err := json.Unmarshal(data, &summary); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal summary: %w", err)
	}
	return &summary, true, nil
}

// SetSummary stores summary under key's generation. Nothing is written if
// the user has been invalidated since that generation was read.
func (r *RedisClient) SetSummary(ctx context.Context, key SummaryKey, summary aggregate.Summary, ttl time.Duration) error {
	data, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("failed to marshal summary: %w", err)
	}

	err = setIfGenerationScript.Run(ctx, r.client,
		[]string{generationKey(key.UserID), summaryKey(key)},
		strconv.FormatInt(key.Generation, 10), data, ttl.Milliseconds(),
	).Err()
	if err != nil {
		return fmt.Errorf("failed to store summary in Redis: %w", err)
	}
	return nil
}

// InvalidateUser bumps the user's generation so every cached summary for
// them stops matching. Old entries expire on their own TTL.
func (r *RedisClient) InvalidateUser(ctx context.Context, userID uint) error {
	return r.client.Incr(ctx, generationKey(userID)).Err()
}

// AcquireIngestLock takes the per-user ingestion lock. It returns false if
// another holder has it.
func (r *RedisClient) AcquireIngestLock(ctx context.Context, userID uint, token string, ttl time.Duration) (bool, error) {
	ok, err := r.client.SetNX(ctx, lockKey(userID), token, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire ingest lock: %w", err)
	}
	return ok, nil
}

// ReleaseIngestLock drops the lock if token still owns it.
func (r *RedisClient) ReleaseIngestLock(ctx context.Context, userID uint, token string) error {
	return releaseScript.Run(ctx, r.client, []string{lockKey(userID)}, token).Err()
}

// GetStatus reports pool statistics for the debug endpoint.
func (r *RedisClient) GetStatus(ctx context.Context) (map[string]interface{}, error) {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	stats := r.client.PoolStats()

	return map[string]interface{}{
		"connected":    true,
		"hits":         stats.Hits,
		"misses":       stats.Misses,
		"active_conns": stats.TotalConns,
		"idle_conns":   stats.IdleConns,
	}, nil
}
