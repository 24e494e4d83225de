package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/vmihailenco/msgpack/v5"
)

// BadgerStore is a persistent store on BadgerDB. Entries carry badger's
// native TTL, so expiry survives restarts and badger reclaims the space.
type BadgerStore struct {
	db  *badger.DB
	ttl time.Duration
}

// Badger opens a persistent store. Dir is required unless InMemory is set.
func Badger(options ...Option) (*BadgerStore, error) {
	cfg, err := buildConfig(options)
	if err != nil {
		return nil, err
	}
	if !cfg.InMemory && cfg.Dir == "" {
		return nil, errors.New("cache: Dir is required for on-disk mode")
	}

	dbOpts := badger.DefaultOptions(cfg.Dir).WithLogger(quietLogger{})
	if cfg.InMemory {
		dbOpts = dbOpts.WithInMemory(true)
	}
	db, err := badger.Open(dbOpts)
	if err != nil {
		return nil, fmt.Errorf("cache: failed to open badger: %w", err)
	}

	return &BadgerStore{db: db, ttl: cfg.TTL}, nil
}

func (s *BadgerStore) Get(_ context.Context, key string) (Entry, error) {
	var entry Entry
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return msgpack.Unmarshal(val, &entry)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return Entry{}, ErrMiss
	}
	if err != nil {
		return Entry{}, err
	}
	return entry, nil
}

func (s *BadgerStore) Set(_ context.Context, key string, entry Entry) error {
	value, err := msgpack.Marshal(entry)
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		e := badger.NewEntry([]byte(key), value).WithTTL(s.ttl)
		return txn.SetEntry(e)
	})
}

func (s *BadgerStore) Delete(_ context.Context, key string) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil
	}
	return err
}

func (s *BadgerStore) Close() error {
	return s.db.Close()
}

// quietLogger keeps badger's info chatter out of application logs.
type quietLogger struct{}

func (quietLogger) Errorf(f string, v ...interface{})   { slog.Error(fmt.Sprintf("badger: "+f, v...)) }
func (quietLogger) Warningf(f string, v ...interface{}) { slog.Warn(fmt.Sprintf("badger: "+f, v...)) }
func (quietLogger) Infof(string, ...interface{})        {}
func (quietLogger) Debugf(string, ...interface{})       {}
