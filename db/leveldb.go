package db

import (
	"bytes"
	"errors"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/util"
)

type kvDB struct {
	path string
	db   *leveldb.DB
}

func openDB(filepath string, o *opt.Options) (*leveldb.DB, error) {
	if o == nil {
		o = &opt.Options{}
	}
	db, err := leveldb.OpenFile(filepath, o)
	if err != nil {
		return nil, err
	}
	return db, nil
}

func NewLevelDB(path string) KVDB {
	if path == "" {
		path = "./data/db"
	}
	db, err := openDB(path, &opt.Options{})
	if err != nil {
		return nil
	}
	return &kvDB{path: path, db: db}
}

func (p *kvDB) Read(key []byte) ([]byte, error) {
	val, err := p.db.Get(key, nil)
	if err != nil {
		if err == leveldb.ErrNotFound {
			return nil, ErrKeyNotFound
		}
		return nil, err
	}
	return append([]byte{}, val...), nil
}

func (p *kvDB) Write(key, value []byte) error {
	return p.db.Put(key, value, nil)
}

func (p *kvDB) Delete(key []byte) error {
	return p.db.Delete(key, nil)
}

func (p *kvDB) Close() error {
	return p.db.Close()
}

func (p *kvDB) iterForwardWithPrefix(prefix []byte, r func(k, v []byte) error) error {
	var itUtil *util.Range
	if len(prefix) > 0 {
		itUtil = util.BytesPrefix(prefix)
	}
	it := p.db.NewIterator(itUtil, nil)
	defer it.Release()

	if len(prefix) > 0 {
		it.Seek(prefix)
	} else {
		it.First()
	}

	for ; it.Valid(); it.Next() {
		k := it.Key()
		if len(prefix) > 0 && !bytes.HasPrefix(k, prefix) {
			break
		}
		if err := r(append([]byte{}, k...), append([]byte{}, it.Value()...)); err != nil {
			return err
		}
	}
	return it.Error()
}

func (p *kvDB) BatchRead(prefix []byte, reverse bool, r func(k, v []byte) error) error {
	if !reverse {
		return p.iterForwardWithPrefix(prefix, r)
	}
	var kvs [][2][]byte
	if err := p.iterForwardWithPrefix(prefix, func(k, v []byte) error {
		kvs = append(kvs, [2][]byte{k, v})
		return nil
	}); err != nil {
		return err
	}
	for i := len(kvs) - 1; i >= 0; i-- {
		if err := r(kvs[i][0], kvs[i][1]); err != nil {
			return err
		}
	}
	return nil
}

func (p *kvDB) DropPrefix(prefix []byte) error {
	wb := p.NewWriteBatch()
	defer wb.Close()

	err := p.iterForwardWithPrefix(prefix, func(k, v []byte) error {
		return wb.Delete(k)
	})
	if err != nil {
		return err
	}
	return wb.Flush()
}

type kvWriteBatch struct {
	db     *leveldb.DB
	batch  *leveldb.Batch
	closed bool
}

func (p *kvWriteBatch) Put(key, value []byte) error {
	if p.closed {
		return errors.New("writebatch closed")
	}
	p.batch.Put(key, value)
	return nil
}

func (p *kvWriteBatch) Delete(key []byte) error {
	if p.closed {
		return errors.New("writebatch closed")
	}
	p.batch.Delete(key)
	return nil
}

func (p *kvWriteBatch) Flush() error {
	if p.closed {
		return errors.New("writebatch closed")
	}
	return p.db.Write(p.batch, nil)
}

func (p *kvWriteBatch) Close() {
	p.closed = true
	p.batch = nil
}

func (p *kvDB) NewWriteBatch() WriteBatch {
	return &kvWriteBatch{db: p.db, batch: &leveldb.Batch{}}
}
