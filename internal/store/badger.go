package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v3"
)

const badgerPrefix = "world:"

// BadgerStore keeps worlds in an embedded badger database under
// world:<name> keys.
type BadgerStore struct {
	db *badger.DB
}

func OpenBadger(opts badger.Options) (*BadgerStore, error) {
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("store: opening badger: %w", err)
	}
	return &BadgerStore{db: db}, nil
}

func badgerKey(name string) []byte {
	return []byte(badgerPrefix + name)
}

func (s *BadgerStore) Load(_ context.Context, name string) (data []byte, err error) {
	err = s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(badgerKey(name))
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrWorldNotFound, name)
	}
	return
}

func (s *BadgerStore) Save(_ context.Context, name string, data []byte) error {
	if err := ValidName(name); err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(badgerKey(name), data)
	})
}

func (s *BadgerStore) Exists(_ context.Context, name string) (bool, error) {
	err := s.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(badgerKey(name))
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (s *BadgerStore) Delete(_ context.Context, name string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(badgerKey(name)); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return fmt.Errorf("%w: %s", ErrWorldNotFound, name)
			}
			return err
		}
		return txn.Delete(badgerKey(name))
	})
}

func (s *BadgerStore) List(_ context.Context) (names []string, err error) {
	err = s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(badgerPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			names = append(names, string(it.Item().Key()[len(badgerPrefix):]))
		}
		return nil
	})
	return
}

func (s *BadgerStore) Close() error {
	return s.db.Close()
}
