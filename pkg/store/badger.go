package store

import (
	"fmt"

	"github.com/dgraph-io/badger/v4"
)

const defaultValueLogFileSize = 128 * 1024 * 1024 // 128MB

type badgerConfig struct {
	valueLogFileSize int64
	inMemory         bool
}

// BadgerOption customizes how Badger is opened.
type BadgerOption func(*badgerConfig) error

// WithValueLogFileSize sets max bytes per value log (vlog) file.
func WithValueLogFileSize(sizeBytes int64) BadgerOption {
	return func(cfg *badgerConfig) error {
		if sizeBytes <= 0 {
			return fmt.Errorf("badger value log file size must be > 0, got %d", sizeBytes)
		}
		cfg.valueLogFileSize = sizeBytes
		return nil
	}
}

// WithInMemory opens Badger without touching disk. Mostly for tests.
func WithInMemory() BadgerOption {
	return func(cfg *badgerConfig) error {
		cfg.inMemory = true
		return nil
	}
}

// BadgerStore implements Store on top of BadgerDB.
type BadgerStore struct {
	db *badger.DB
}

// NewBadgerStore creates a Badger-backed store at path.
func NewBadgerStore(path string, options ...BadgerOption) (*BadgerStore, error) {
	cfg := badgerConfig{
		valueLogFileSize: defaultValueLogFileSize,
	}
	for _, option := range options {
		if option == nil {
			continue
		}
		if err := option(&cfg); err != nil {
			return nil, err
		}
	}

	opts := badger.DefaultOptions(path)
	opts = opts.WithValueLogFileSize(cfg.valueLogFileSize)
	if cfg.inMemory {
		opts = opts.WithInMemory(true).WithDir("").WithValueDir("")
	}
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return &BadgerStore{db: db}, nil
}

func (s *BadgerStore) Close() error {
	return s.db.Close()
}

func (s *BadgerStore) View(fn func(Tx) error) error {
	return s.db.View(func(txn *badger.Txn) error {
		return fn(&badgerTx{txn: txn})
	})
}

func (s *BadgerStore) Update(fn func(Tx) error) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return fn(&badgerTx{txn: txn})
	})
}

type badgerTx struct {
	txn *badger.Txn
}

func (tx *badgerTx) Set(key, value []byte) error {
	return tx.txn.Set(key, value)
}

func (tx *badgerTx) Get(key []byte) ([]byte, error) {
	item, err := tx.txn.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, ErrKeyNotFound
		}
		return nil, err
	}
	return item.ValueCopy(nil)
}

func (tx *badgerTx) Delete(key []byte) error {
	return tx.txn.Delete(key)
}

func (tx *badgerTx) Keys(prefix []byte) ([][]byte, error) {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix
	opts.PrefetchValues = false

	it := tx.txn.NewIterator(opts)
	defer it.Close()

	var keys [][]byte
	for it.Rewind(); it.ValidForPrefix(prefix); it.Next() {
		keys = append(keys, it.Item().KeyCopy(nil))
	}
	return keys, nil
}
