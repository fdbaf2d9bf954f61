package storage

import (
	"context"
	"errors"

	"github.com/syndtr/goleveldb/leveldb"
	lvlstorage "github.com/syndtr/goleveldb/leveldb/storage"
	"github.com/syndtr/goleveldb/leveldb/util"
)

// LevelDBBackend implements Backend using LevelDB. Keys are used verbatim.
type LevelDBBackend struct {
	db *leveldb.DB
}

// NewLevelDBBackend creates a new LevelDB backend rooted at path
func NewLevelDBBackend(path string) (*LevelDBBackend, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, ioErr("open", "", err)
	}

	return &LevelDBBackend{
		db: db,
	}, nil
}

// NewLevelDBMemBackend creates a LevelDB backend kept entirely in memory
func NewLevelDBMemBackend() (*LevelDBBackend, error) {
	db, err := leveldb.Open(lvlstorage.NewMemStorage(), nil)
	if err != nil {
		return nil, ioErr("open", "", err)
	}
	return &LevelDBBackend{db: db}, nil
}

// Store stores a key-value pair. LevelDB writes are atomic per key.
func (s *LevelDBBackend) Store(ctx context.Context, key string, data string) error {
	if err := checkKey(ctx, "store", key); err != nil {
		return err
	}
	return ioErr("store", key, levelErr(s.db.Put([]byte(key), []byte(data), nil)))
}

// Load retrieves the value for a given key
func (s *LevelDBBackend) Load(ctx context.Context, key string) (string, bool, error) {
	if err := checkKey(ctx, "load", key); err != nil {
		return "", false, err
	}
	data, err := s.db.Get([]byte(key), nil)
	if err != nil {
		if errors.Is(err, leveldb.ErrNotFound) {
			return "", false, nil
		}
		return "", false, ioErr("load", key, levelErr(err))
	}
	return string(data), true, nil
}

// Exists checks if a key exists
func (s *LevelDBBackend) Exists(ctx context.Context, key string) (bool, error) {
	if err := checkKey(ctx, "exists", key); err != nil {
		return false, err
	}
	has, err := s.db.Has([]byte(key), nil)
	return has, ioErr("exists", key, levelErr(err))
}

// Delete removes a key-value pair
func (s *LevelDBBackend) Delete(ctx context.Context, key string) error {
	if err := checkKey(ctx, "delete", key); err != nil {
		return err
	}
	return ioErr("delete", key, levelErr(s.db.Delete([]byte(key), nil)))
}

// List returns all keys with the given prefix
func (s *LevelDBBackend) List(ctx context.Context, prefix string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, ioErr("list", prefix, err)
	}

	var keys []string

	iter := s.db.NewIterator(util.BytesPrefix([]byte(prefix)), nil)
	defer iter.Release()

	for iter.Next() {
		keys = append(keys, string(iter.Key()))
	}

	if err := iter.Error(); err != nil {
		return nil, ioErr("list", prefix, levelErr(err))
	}

	return keys, nil
}

// Close closes the storage
func (s *LevelDBBackend) Close() error {
	return levelErr(s.db.Close())
}

func levelErr(err error) error {
	if errors.Is(err, leveldb.ErrClosed) {
		return ErrStorageClosed
	}
	return err
}
