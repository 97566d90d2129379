package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"go.etcd.io/bbolt"
)

const bucketName = "analysis_replies"

// Record is one cached, already-sanitized analysis reply.
type Record struct {
	Model    string    `json:"model"`
	Reply    string    `json:"reply"`
	StoredAt time.Time `json:"stored_at"`
}

// BoltStore keeps analysis replies keyed by image digest.
type BoltStore struct {
	db *bbolt.DB
}

// OpenBoltStore opens (or creates) the cache file at path.
func OpenBoltStore(path string) (*BoltStore, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening boltdb: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketName))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating bucket: %w", err)
	}
	return &BoltStore{db: db}, nil
}

// Get returns the entry stored under key, if any.
func (s *BoltStore) Get(key string) (*Record, bool, error) {
	var entry *Record
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket([]byte(bucketName)).Get([]byte(key))
		if data == nil {
			return nil
		}
		entry = &Record{}
		return json.Unmarshal(data, entry)
	})
	if err != nil {
		return nil, false, fmt.Errorf("reading cache entry: %w", err)
	}
	return entry, entry != nil, nil
}

// Put stores entry under key, replacing any previous value.
func (s *BoltStore) Put(key string, entry Record) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshaling cache entry: %w", err)
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(bucketName)).Put([]byte(key), data)
	})
}

// Close releases the cache file.
func (s *BoltStore) Close() error {
	return s.db.Close()
}

// Key derives the cache key for an image analyzed by model.
func Key(model string, image []byte) string {
	h := sha256.New()
	h.Write([]byte(model))
	h.Write([]byte{0})
	h.Write(image)
	return hex.EncodeToString(h.Sum(nil))
}
