package storage

import (
	"fmt"
)

// Backend types accepted by Open
const (
	TypeFile    = "file"
	TypeLevelDB = "leveldb"
	TypeRedis   = "redis"
	TypeMemory  = "memory"
)

// Options selects and configures a backend
type Options struct {
	Type      string
	Path      string
	Extension string
	Redis     RedisOptions
}

// Open constructs a Backend based on opts.Type.
// Supported types:
//   - "file": one atomically written file per key under Path (default)
//   - "leveldb": LevelDB database at Path
//   - "redis": Redis server at Redis.Addr
//   - "memory": process-local map, lost on exit
func Open(opts Options) (Backend, error) {
	switch opts.Type {
	case "", TypeFile:
		return NewFileBackend(opts.Path, opts.Extension)
	case TypeLevelDB:
		if opts.Path == "" {
			return NewLevelDBMemBackend()
		}
		return NewLevelDBBackend(opts.Path)
	case TypeRedis:
		if opts.Redis.Addr == "" {
			return nil, fmt.Errorf("redis backend requires an address")
		}
		return NewRedisBackend(opts.Redis), nil
	case TypeMemory:
		return NewMemoryBackend(), nil
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", opts.Type)
	}
}
