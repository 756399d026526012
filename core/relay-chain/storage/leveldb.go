package storage

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/util"
)

var (
	prefixReceipt = []byte("receipt:")
	prefixIndex   = []byte("rindex:")
	keyState      = []byte("state:snapshot")
)

// LevelDBStore lays the same records out under key prefixes.
type LevelDBStore struct {
	db *leveldb.DB
}

func OpenLevelDB(path string) (*LevelDBStore, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "open leveldb %s", path)
	}
	return &LevelDBStore{db: db}, nil
}

func (s *LevelDBStore) SaveState(data []byte) error {
	return errors.Wrap(s.db.Put(keyState, data, nil), "save state")
}

func (s *LevelDBStore) LoadState() ([]byte, error) {
	data, err := s.db.Get(keyState, nil)
	if err == leveldb.ErrNotFound {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "load state")
	}
	return data, nil
}

func (s *LevelDBStore) PutReceipt(hash common.Hash, block uint64, data []byte) error {
	batch := new(leveldb.Batch)
	batchReceipt(batch, hash, block, data)
	return errors.Wrapf(s.db.Write(batch, nil), "put receipt %s", hash.Hex())
}

func (s *LevelDBStore) Commit(state []byte, hash common.Hash, block uint64, receipt []byte) error {
	batch := new(leveldb.Batch)
	batch.Put(keyState, state)
	batchReceipt(batch, hash, block, receipt)
	return errors.Wrapf(s.db.Write(batch, nil), "commit block %d", block)
}

func batchReceipt(batch *leveldb.Batch, hash common.Hash, block uint64, data []byte) {
	key := append(append([]byte{}, prefixReceipt...), blockKey(block)...)
	batch.Put(key, data)
	batch.Put(append(append([]byte{}, prefixIndex...), hash.Bytes()...), key)
}

func (s *LevelDBStore) GetReceipt(hash common.Hash) ([]byte, error) {
	key, err := s.db.Get(append(append([]byte{}, prefixIndex...), hash.Bytes()...), nil)
	if err == leveldb.ErrNotFound {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "get receipt index %s", hash.Hex())
	}
	data, err := s.db.Get(key, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "get receipt %s", hash.Hex())
	}
	return data, nil
}

func (s *LevelDBStore) Receipts(limit int) ([][]byte, error) {
	iter := s.db.NewIterator(util.BytesPrefix(prefixReceipt), nil)
	defer iter.Release()

	var out [][]byte
	for ok := iter.Last(); ok; ok = iter.Prev() {
		if limit > 0 && len(out) >= limit {
			break
		}
		out = append(out, copyBytes(iter.Value()))
	}
	if err := iter.Error(); err != nil {
		return nil, errors.Wrap(err, "list receipts")
	}
	return out, nil
}

func (s *LevelDBStore) Backend() string { return BackendLevelDB }

func (s *LevelDBStore) Close() error {
	return errors.Wrap(s.db.Close(), "close leveldb")
}
