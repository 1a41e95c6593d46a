package store

import (
	"fmt"
	"math"

	"github.com/ssargent/msgstore/pkg/bptree"
	"github.com/ssargent/msgstore/pkg/codec"
	"github.com/ssargent/msgstore/pkg/message"
)

// memStoreOrder is the branching factor of the backing tree
const memStoreOrder = 32

// MemStore is a volatile RecordStore backed by a B+tree. Records are kept
// encoded so the codec bound applies exactly as it does on disk.
type MemStore struct {
	tree  *bptree.BPlusTree[uint64, []byte]
	codec codec.Codec
}

// NewMemStore creates an empty in-memory record store
func NewMemStore(c codec.Codec) *MemStore {
	return &MemStore{
		tree:  bptree.NewBPlusTree[uint64, []byte](memStoreOrder),
		codec: c,
	}
}

// Get retrieves the record for id
func (s *MemStore) Get(id uint64) (message.Message, bool, error) {
	data, ok := s.tree.Search(id)
	if !ok {
		return message.Message{}, false, nil
	}
	msg, err := s.codec.Decode(data)
	if err != nil {
		return message.Message{}, false, fmt.Errorf("failed to decode record %d: %w", id, err)
	}
	return msg, true, nil
}

// Insert stores msg under id, overwriting any existing record
func (s *MemStore) Insert(id uint64, msg message.Message) error {
	data, err := s.codec.Encode(msg)
	if err != nil {
		return fmt.Errorf("failed to encode record %d: %w", id, err)
	}
	s.tree.Insert(id, data)
	return nil
}

// Remove deletes the record for id and returns the removed value
func (s *MemStore) Remove(id uint64) (message.Message, bool, error) {
	data, ok := s.tree.Delete(id)
	if !ok {
		return message.Message{}, false, nil
	}
	msg, err := s.codec.Decode(data)
	if err != nil {
		return message.Message{}, false, fmt.Errorf("failed to decode record %d: %w", id, err)
	}
	return msg, true, nil
}

// Len returns the number of records
func (s *MemStore) Len() (int, error) {
	return s.tree.Len(), nil
}

// Scan returns up to limit records with id > after, in id order
func (s *MemStore) Scan(after uint64, limit int) ([]message.Message, error) {
	if limit <= 0 || after == math.MaxUint64 {
		return nil, nil
	}

	var (
		result    []message.Message
		decodeErr error
	)
	s.tree.Ascend(after+1, func(_ uint64, data []byte) bool {
		msg, err := s.codec.Decode(data)
		if err != nil {
			decodeErr = err
			return false
		}
		result = append(result, msg)
		return len(result) < limit
	})
	if decodeErr != nil {
		return nil, fmt.Errorf("failed to decode record during scan: %w", decodeErr)
	}
	return result, nil
}
