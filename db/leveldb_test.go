package db

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) KVDB {
	kvdb := NewKVDB(t.TempDir() + "/testdb")
	require.NotNil(t, kvdb)
	t.Cleanup(func() { kvdb.Close() })
	return kvdb
}

func TestReadWriteDelete(t *testing.T) {
	kvdb := newTestDB(t)

	_, err := kvdb.Read([]byte("missing"))
	assert.Equal(t, ErrKeyNotFound, err)

	require.NoError(t, kvdb.Write([]byte("k1"), []byte("v1")))
	value, err := kvdb.Read([]byte("k1"))
	require.NoError(t, err)
	assert.Equal(t, []byte("v1"), value)

	require.NoError(t, kvdb.Delete([]byte("k1")))
	_, err = kvdb.Read([]byte("k1"))
	assert.Equal(t, ErrKeyNotFound, err)
}

func TestWriteBatchAtomic(t *testing.T) {
	kvdb := newTestDB(t)
	require.NoError(t, kvdb.Write([]byte("old"), []byte("x")))

	wb := kvdb.NewWriteBatch()
	require.NoError(t, wb.Put([]byte("a"), []byte("1")))
	require.NoError(t, wb.Put([]byte("b"), []byte("2")))
	require.NoError(t, wb.Delete([]byte("old")))
	require.NoError(t, wb.Flush())
	wb.Close()

	value, err := kvdb.Read([]byte("a"))
	require.NoError(t, err)
	assert.Equal(t, []byte("1"), value)
	_, err = kvdb.Read([]byte("old"))
	assert.Equal(t, ErrKeyNotFound, err)
}

func TestBatchRead(t *testing.T) {
	kvdb := newTestDB(t)
	for i := 0; i < 5; i++ {
		require.NoError(t, kvdb.Write([]byte(fmt.Sprintf("p:%d", i)), []byte{byte(i)}))
	}
	require.NoError(t, kvdb.Write([]byte("q:0"), []byte("other")))

	keys := make([]string, 0)
	err := kvdb.BatchRead([]byte("p:"), false, func(k, v []byte) error {
		keys = append(keys, string(k))
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"p:0", "p:1", "p:2", "p:3", "p:4"}, keys)

	keys = keys[:0]
	err = kvdb.BatchRead([]byte("p:"), true, func(k, v []byte) error {
		keys = append(keys, string(k))
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"p:4", "p:3", "p:2", "p:1", "p:0"}, keys)
}

func TestDropPrefix(t *testing.T) {
	kvdb := newTestDB(t)
	require.NoError(t, kvdb.Write([]byte("p:1"), []byte("x")))
	require.NoError(t, kvdb.Write([]byte("q:1"), []byte("y")))

	require.NoError(t, kvdb.DropPrefix([]byte("p:")))

	_, err := kvdb.Read([]byte("p:1"))
	assert.Equal(t, ErrKeyNotFound, err)
	value, err := kvdb.Read([]byte("q:1"))
	require.NoError(t, err)
	assert.Equal(t, []byte("y"), value)
}
