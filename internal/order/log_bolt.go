package order

import (
	"context"
	"encoding/json"

	"github.com/cockroachdb/errors"
	bolt "go.etcd.io/bbolt"
	"go.uber.org/zap"
)

var ordersBucket = []byte("orders")

// BoltLog stores one JSON record per order in the "orders" bucket.
type BoltLog struct {
	db  *bolt.DB
	log *zap.Logger
}

func NewBoltLog(db *bolt.DB, log *zap.Logger) (*BoltLog, error) {
	if log == nil {
		log = zap.NewNop()
	}
	err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(ordersBucket)
		return err
	})
	if err != nil {
		return nil, errors.Wrap(err, "create orders bucket")
	}
	return &BoltLog{db: db, log: log}, nil
}

func (l *BoltLog) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return l.db.View(func(tx *bolt.Tx) error {
		if tx.Bucket(ordersBucket) == nil {
			return errors.New("orders bucket missing")
		}
		return nil
	})
}

func (l *BoltLog) AddOrder(ctx context.Context, o Order) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(o)
	if err != nil {
		return errors.Wrap(err, "encode order")
	}
	return l.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(ordersBucket).Put([]byte(o.ID), data)
	})
}

func (l *BoltLog) AllOrders(ctx context.Context) ([]Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var out []Order
	err := l.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(ordersBucket).ForEach(func(k, v []byte) error {
			o, err := decodeOrder(v)
			if err != nil {
				l.log.Warn("skipping unreadable order", zap.ByteString("key", k), zap.Error(err))
				return nil
			}
			out = append(out, o)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (l *BoltLog) ClearOrders(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return l.db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket(ordersBucket); err != nil {
			return err
		}
		_, err := tx.CreateBucket(ordersBucket)
		return err
	})
}
