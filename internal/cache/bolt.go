package cache

import (
	"context"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"
)

const bucketPreferences = "preferences"

// Bolt stores the word list in a bbolt bucket.
type Bolt struct {
	db *bolt.DB
}

// OpenBolt opens (or creates) the bbolt file at path.
func OpenBolt(path string) (*Bolt, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketPreferences))
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create bucket: %w", err)
	}
	return &Bolt{db: db}, nil
}

func (c *Bolt) Load(ctx context.Context) ([]string, error) {
	var blob []byte
	err := c.db.View(func(tx *bolt.Tx) error {
		if v := tx.Bucket([]byte(bucketPreferences)).Get([]byte(WordsKey)); v != nil {
			blob = append([]byte(nil), v...) // v is only valid inside the tx
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return decodeSet(blob)
}

func (c *Bolt) Save(ctx context.Context, words []string) error {
	b, err := encodeSet(words)
	if err != nil {
		return err
	}
	return c.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketPreferences)).Put([]byte(WordsKey), b)
	})
}

func (c *Bolt) Close() error { return c.db.Close() }
