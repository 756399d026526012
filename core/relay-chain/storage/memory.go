package storage

import (
	"sort"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

type memoryReceipt struct {
	block uint64
	data  []byte
}

// MemoryStore keeps everything in process. Contents are lost on Close.
type MemoryStore struct {
	state    []byte
	receipts []memoryReceipt
	index    map[common.Hash]uint64
	mu       sync.RWMutex
}

func NewMemory() *MemoryStore {
	return &MemoryStore{index: make(map[common.Hash]uint64)}
}

func (s *MemoryStore) SaveState(data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = copyBytes(data)
	return nil
}

func (s *MemoryStore) LoadState() ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state == nil {
		return nil, ErrNotFound
	}
	return copyBytes(s.state), nil
}

func (s *MemoryStore) PutReceipt(hash common.Hash, block uint64, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.putReceipt(hash, block, data)
	return nil
}

func (s *MemoryStore) Commit(state []byte, hash common.Hash, block uint64, receipt []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = copyBytes(state)
	s.putReceipt(hash, block, receipt)
	return nil
}

// putReceipt keeps receipts sorted by block. Callers hold s.mu.
func (s *MemoryStore) putReceipt(hash common.Hash, block uint64, data []byte) {
	rec := memoryReceipt{block: block, data: copyBytes(data)}
	i := sort.Search(len(s.receipts), func(i int) bool { return s.receipts[i].block >= block })
	if i < len(s.receipts) && s.receipts[i].block == block {
		s.receipts[i] = rec
	} else {
		s.receipts = append(s.receipts, memoryReceipt{})
		copy(s.receipts[i+1:], s.receipts[i:])
		s.receipts[i] = rec
	}
	s.index[hash] = block
}

func (s *MemoryStore) GetReceipt(hash common.Hash) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	block, ok := s.index[hash]
	if !ok {
		return nil, ErrNotFound
	}
	i := sort.Search(len(s.receipts), func(i int) bool { return s.receipts[i].block >= block })
	if i == len(s.receipts) || s.receipts[i].block != block {
		return nil, ErrNotFound
	}
	return copyBytes(s.receipts[i].data), nil
}

func (s *MemoryStore) Receipts(limit int) ([][]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out [][]byte
	for i := len(s.receipts) - 1; i >= 0; i-- {
		if limit > 0 && len(out) >= limit {
			break
		}
		out = append(out, copyBytes(s.receipts[i].data))
	}
	return out, nil
}

func (s *MemoryStore) Backend() string { return BackendMemory }

func (s *MemoryStore) Close() error { return nil }
