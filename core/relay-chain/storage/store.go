// Package storage persists the chain snapshot and the receipt history.
// Values are opaque JSON documents; receipts are ordered by block number and
// indexed by transaction hash.
package storage

import (
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// ErrNotFound is returned when a key has never been written.
var ErrNotFound = errors.New("not found")

const (
	BackendBolt    = "bolt"
	BackendLevelDB = "leveldb"
	BackendMemory  = "memory"
)

type Store interface {
	// SaveState replaces the persisted chain snapshot.
	SaveState(data []byte) error
	// LoadState returns ErrNotFound on an empty store.
	LoadState() ([]byte, error)
	PutReceipt(hash common.Hash, block uint64, data []byte) error
	// Commit writes a snapshot and the receipt that produced it in one
	// atomic update. Either both are stored or neither is.
	Commit(state []byte, hash common.Hash, block uint64, receipt []byte) error
	GetReceipt(hash common.Hash) ([]byte, error)
	// Receipts returns up to limit receipts, newest first. limit <= 0 means all.
	Receipts(limit int) ([][]byte, error)
	Backend() string
	Close() error
}

// Open creates the store for backend. path is ignored by the memory backend.
func Open(backend, path string, logger *logrus.Logger) (Store, error) {
	if logger == nil {
		logger = logrus.New()
	}
	var (
		s   Store
		err error
	)
	switch strings.ToLower(backend) {
	case BackendBolt:
		s, err = OpenBolt(path)
	case BackendLevelDB:
		s, err = OpenLevelDB(path)
	case BackendMemory, "":
		s = NewMemory()
	default:
		return nil, fmt.Errorf("unknown storage backend %q", backend)
	}
	if err != nil {
		return nil, err
	}
	logger.WithFields(logrus.Fields{
		"backend": s.Backend(),
		"path":    path,
	}).Info("Store opened")
	return s, nil
}

func blockKey(block uint64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, block)
	return key
}

func copyBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
