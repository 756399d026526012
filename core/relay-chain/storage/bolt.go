package storage

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"go.etcd.io/bbolt"
)

var (
	bucketState        = []byte("state")
	bucketReceipts     = []byte("receipts")
	bucketReceiptIndex = []byte("receipt_index")

	stateKey = []byte("snapshot")
)

// BoltStore keeps receipts keyed by block number with a hash index bucket.
type BoltStore struct {
	db *bbolt.DB
}

func OpenBolt(path string) (*BoltStore, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, errors.Wrapf(err, "open bolt database %s", path)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{bucketState, bucketReceipts, bucketReceiptIndex} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return errors.Wrapf(err, "create bucket %s", name)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &BoltStore{db: db}, nil
}

func (s *BoltStore) SaveState(data []byte) error {
	err := s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketState).Put(stateKey, data)
	})
	return errors.Wrap(err, "save state")
}

func (s *BoltStore) LoadState() ([]byte, error) {
	var out []byte
	err := s.db.View(func(tx *bbolt.Tx) error {
		out = copyBytes(tx.Bucket(bucketState).Get(stateKey))
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "load state")
	}
	if out == nil {
		return nil, ErrNotFound
	}
	return out, nil
}

func (s *BoltStore) PutReceipt(hash common.Hash, block uint64, data []byte) error {
	err := s.db.Update(func(tx *bbolt.Tx) error {
		return putReceipt(tx, hash, block, data)
	})
	return errors.Wrapf(err, "put receipt %s", hash.Hex())
}

func (s *BoltStore) Commit(state []byte, hash common.Hash, block uint64, receipt []byte) error {
	err := s.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.Bucket(bucketState).Put(stateKey, state); err != nil {
			return err
		}
		return putReceipt(tx, hash, block, receipt)
	})
	return errors.Wrapf(err, "commit block %d", block)
}

func putReceipt(tx *bbolt.Tx, hash common.Hash, block uint64, data []byte) error {
	key := blockKey(block)
	if err := tx.Bucket(bucketReceipts).Put(key, data); err != nil {
		return err
	}
	return tx.Bucket(bucketReceiptIndex).Put(hash.Bytes(), key)
}

func (s *BoltStore) GetReceipt(hash common.Hash) ([]byte, error) {
	var out []byte
	err := s.db.View(func(tx *bbolt.Tx) error {
		key := tx.Bucket(bucketReceiptIndex).Get(hash.Bytes())
		if key == nil {
			return ErrNotFound
		}
		out = copyBytes(tx.Bucket(bucketReceipts).Get(key))
		if out == nil {
			return errors.Errorf("receipt index points at missing block %x", key)
		}
		return nil
	})
	if errors.Is(err, ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "get receipt %s", hash.Hex())
	}
	return out, nil
}

func (s *BoltStore) Receipts(limit int) ([][]byte, error) {
	var out [][]byte
	err := s.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket(bucketReceipts).Cursor()
		for k, v := c.Last(); k != nil; k, v = c.Prev() {
			if limit > 0 && len(out) >= limit {
				break
			}
			out = append(out, copyBytes(v))
		}
		return nil
	})
	return out, errors.Wrap(err, "list receipts")
}

func (s *BoltStore) Backend() string { return BackendBolt }

func (s *BoltStore) Close() error {
	return errors.Wrap(s.db.Close(), "close bolt database")
}
