package catalog

import (
	"context"

	"github.com/cockroachdb/errors"
	bolt "go.etcd.io/bbolt"
)

var kvBucket = []byte("kv")

// BoltSlot keeps catalog documents in the "kv" bucket of a local bbolt file.
type BoltSlot struct {
	db *bolt.DB
}

func NewBoltSlot(db *bolt.DB) (*BoltSlot, error) {
	err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(kvBucket)
		return err
	})
	if err != nil {
		return nil, errors.Wrap(err, "create kv bucket")
	}
	return &BoltSlot{db: db}, nil
}

func (s *BoltSlot) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.View(func(tx *bolt.Tx) error {
		if tx.Bucket(kvBucket) == nil {
			return errors.New("kv bucket missing")
		}
		return nil
	})
}

func (s *BoltSlot) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	var out []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(kvBucket).Get([]byte(key))
		if v != nil {
			out = append([]byte{}, v...)
		}
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return out, out != nil, nil
}

func (s *BoltSlot) Set(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(kvBucket).Put([]byte(key), value)
	})
}
