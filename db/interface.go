package db

import "errors"

var (
	ErrKeyNotFound = errors.New("Key not found")
)

type WriteBatch interface {
	Put(key, value []byte) error
	Delete(key []byte) error
	Flush() error
	Close()
}

// 每个调用都是完整的transaction
type KVDB interface {
	Read(key []byte) ([]byte, error)
	Write(key, value []byte) error
	Delete(key []byte) error
	Close() error

	NewWriteBatch() WriteBatch

	// 遍历读
	BatchRead(prefix []byte, reverse bool, r func(k, v []byte) error) error

	DropPrefix([]byte) error
}

func NewKVDB(path string) KVDB {
	return NewLevelDB(path)
}
