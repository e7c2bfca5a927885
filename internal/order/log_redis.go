package order

import (
	"context"
	"encoding/json"

	"github.com/cockroachdb/errors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisLog keeps all orders in one hash, field = order id.
type RedisLog struct {
	rdb *redis.Client
	key string
	log *zap.Logger
}

func NewRedisLog(rdb *redis.Client, prefix string, log *zap.Logger) *RedisLog {
	if log == nil {
		log = zap.NewNop()
	}
	return &RedisLog{rdb: rdb, key: prefix + "orders", log: log}
}

func (l *RedisLog) Ping(ctx context.Context) error {
	return l.rdb.Ping(ctx).Err()
}

func (l *RedisLog) AddOrder(ctx context.Context, o Order) error {
	data, err := json.Marshal(o)
	if err != nil {
		return errors.Wrap(err, "encode order")
	}
	return l.rdb.HSet(ctx, l.key, o.ID, data).Err()
}

func (l *RedisLog) AllOrders(ctx context.Context) ([]Order, error) {
	records, err := l.rdb.HGetAll(ctx, l.key).Result()
	if err != nil {
		return nil, err
	}

	out := make([]Order, 0, len(records))
	for id, doc := range records {
		o, err := decodeOrder([]byte(doc))
		if err != nil {
			l.log.Warn("skipping unreadable order", zap.String("key", id), zap.Error(err))
			continue
		}
		out = append(out, o)
	}
	return out, nil
}

func (l *RedisLog) ClearOrders(ctx context.Context) error {
	return l.rdb.Del(ctx, l.key).Err()
}
