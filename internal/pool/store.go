package pool

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// Store persists descriptors keyed by their registration sequence.
type Store interface {
	Save(seq int, d Descriptor) error
	LoadAll() ([]Descriptor, error)
	Close() error
}

const instanceKeyPrefix = "instance:"

// BadgerStore is a Store backed by an embedded Badger database.
type BadgerStore struct {
	db  *badger.DB
	log *slog.Logger
}

type storedDescriptor struct {
	ID          string    `json:"id"`
	URL         string    `json:"url"`
	Status      bool      `json:"status"`
	AllocatedAt time.Time `json:"allocated_at"`
}

// OpenBadgerStore opens the database at path. An empty path opens an
// in-memory database.
func OpenBadgerStore(path string, log *slog.Logger) (*BadgerStore, error) {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	options := badger.DefaultOptions(path).WithLoggingLevel(badger.ERROR)
	if path == "" {
		options = options.WithInMemory(true)
	}

	db, err := badger.Open(options)
	if err != nil {
		return nil, fmt.Errorf("open instance store: %w", err)
	}
	return &BadgerStore{db: db, log: log}, nil
}

// Save writes d under a key whose zero padding keeps registration order
// lexicographic.
func (s *BadgerStore) Save(seq int, d Descriptor) error {
	key := fmt.Sprintf("%s%010d", instanceKeyPrefix, seq)
	bytes, err := json.Marshal(storedDescriptor{
		ID:          d.ID,
		URL:         d.URL,
		Status:      d.Status,
		AllocatedAt: d.AllocatedAt,
	})
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), bytes)
	})
}

// LoadAll returns every stored descriptor in registration order.
func (s *BadgerStore) LoadAll() ([]Descriptor, error) {
	var descriptors []Descriptor
	err := s.db.View(func(txn *badger.Txn) error {
		prefix := []byte(instanceKeyPrefix)
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			value, err := it.Item().ValueCopy(nil)
			if err != nil {
				return err
			}
			var stored storedDescriptor
			if err := json.Unmarshal(value, &stored); err != nil {
				return fmt.Errorf("decode %s: %w", it.Item().Key(), err)
			}
			descriptors = append(descriptors, Descriptor{
				ID:          stored.ID,
				URL:         stored.URL,
				Status:      stored.Status,
				AllocatedAt: stored.AllocatedAt,
			})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("load instances: %w", err)
	}
	return descriptors, nil
}

// Close closes the underlying database.
func (s *BadgerStore) Close() error {
	s.log.Info("Closing instance store")
	return s.db.Close()
}
