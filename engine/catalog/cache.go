package catalog

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"go.etcd.io/bbolt"
)

var bucketEmbeddings = []byte("embeddings")

// EmbedCache persists catalog embeddings in a local BoltDB file so restarts
// skip re-embedding unchanged items. Entries are keyed by a hash of the
// model name and the combined text, so a model upgrade or an edited
// description naturally misses the cache.
type EmbedCache struct {
	db *bbolt.DB
}

// OpenCache opens (or creates) the cache file at path.
func OpenCache(path string) (*EmbedCache, error) {
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("catalog: open embed cache %s: %w", path, err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketEmbeddings)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("catalog: create cache bucket: %w", err)
	}
	return &EmbedCache{db: db}, nil
}

// Close closes the underlying database.
func (c *EmbedCache) Close() error { return c.db.Close() }

func cacheKey(model, text string) []byte {
	sum := sha256.Sum256([]byte(model + "\x00" + text))
	return []byte(hex.EncodeToString(sum[:]))
}

// Get returns the cached embedding for (model, text), if present.
func (c *EmbedCache) Get(model, text string) ([]float32, bool) {
	var vec []float32
	err := c.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketEmbeddings)
		if b == nil {
			return nil
		}
		data := b.Get(cacheKey(model, text))
		if data == nil {
			return nil
		}
		return json.Unmarshal(data, &vec)
	})
	if err != nil || vec == nil {
		return nil, false
	}
	return vec, true
}

// Put stores an embedding for (model, text).
func (c *EmbedCache) Put(model, text string, vec []float32) error {
	data, err := json.Marshal(vec)
	if err != nil {
		return err
	}
	return c.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketEmbeddings)
		if b == nil {
			return fmt.Errorf("catalog: embeddings bucket missing")
		}
		return b.Put(cacheKey(model, text), data)
	})
}

// Count returns the number of cached embeddings.
func (c *EmbedCache) Count() (int, error) {
	n := 0
	err := c.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketEmbeddings)
		if b == nil {
			return nil
		}
		n = b.Stats().KeyN
		return nil
	})
	return n, err
}
