package store

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
)

type (
	RedisStore struct {
		client *redis.Client
	}

	RedisConfig struct {
		Host     string
		Port     int
		Password string
		DB       int
	}

	redisTx struct {
		ctx  context.Context
		pipe redis.Pipeliner
	}
)

var _ Transactor = (*RedisStore)(nil)

func NewRedisStore(config RedisConfig) *RedisStore {
	return &RedisStore{client: redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", config.Host, config.Port),
		Password: config.Password,
		DB:       config.DB,
	})}
}

// Transact queues the commands issued by fn into a MULTI/EXEC pipeline and
// executes them as one atomic batch. Each positional result carries the
// command's reply value; any transport failure surfaces as an error with no
// partial results.
func (r *RedisStore) Transact(ctx context.Context, fn func(Tx)) ([]interface{}, error) {
	pipe := r.client.TxPipeline()

	fn(&redisTx{ctx: ctx, pipe: pipe})

	cmds, err := pipe.Exec(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to execute store transaction: %w", err)
	}

	results := make([]interface{}, 0, len(cmds))

	for _, c := range cmds {
		switch cmd := c.(type) {
		case *redis.IntCmd:
			results = append(results, cmd.Val())
		case *redis.BoolCmd:
			results = append(results, cmd.Val())
		case *redis.StringSliceCmd:
			results = append(results, cmd.Val())
		default:
			results = append(results, nil)
		}
	}

	return results, nil
}

func (r *RedisStore) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}

func (t *redisTx) Incr(key string) {
	t.pipe.Incr(t.ctx, key)
}

func (t *redisTx) Expire(key string, ttl time.Duration) {
	t.pipe.Expire(t.ctx, key, ttl)
}

func (t *redisTx) ZRemRangeByScore(key string, min, max int64) {
	t.pipe.ZRemRangeByScore(t.ctx, key, strconv.FormatInt(min, 10), strconv.FormatInt(max, 10))
}

func (t *redisTx) ZAdd(key string, score int64, member string) {
	t.pipe.ZAdd(t.ctx, key, &redis.Z{Score: float64(score), Member: member})
}

func (t *redisTx) ZRange(key string) {
	t.pipe.ZRange(t.ctx, key, 0, -1)
}
