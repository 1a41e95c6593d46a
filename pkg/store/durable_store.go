package store

import (
	"fmt"
	"math"

	"github.com/ssargent/msgstore/pkg/codec"
	"github.com/ssargent/msgstore/pkg/memory"
	"github.com/ssargent/msgstore/pkg/message"
)

// DurableStore keeps records in a durable memory partition
type DurableStore struct {
	partition *memory.Partition
	codec     codec.Codec
}

// NewDurableStore creates a record store over p
func NewDurableStore(p *memory.Partition, c codec.Codec) *DurableStore {
	return &DurableStore{partition: p, codec: c}
}

// Get retrieves the record for id
func (s *DurableStore) Get(id uint64) (message.Message, bool, error) {
	data, ok, err := s.partition.Get(encodeKey(id))
	if err != nil || !ok {
		return message.Message{}, false, err
	}

	msg, err := s.codec.Decode(data)
	if err != nil {
		return message.Message{}, false, fmt.Errorf("failed to decode record %d: %w", id, err)
	}
	return msg, true, nil
}

// Insert stores msg under id, overwriting any existing record
func (s *DurableStore) Insert(id uint64, msg message.Message) error {
	data, err := s.codec.Encode(msg)
	if err != nil {
		return fmt.Errorf("failed to encode record %d: %w", id, err)
	}
	return s.partition.Set(encodeKey(id), data)
}

// Remove deletes the record for id and returns the removed value
func (s *DurableStore) Remove(id uint64) (message.Message, bool, error) {
	msg, ok, err := s.Get(id)
	if err != nil || !ok {
		return message.Message{}, false, err
	}

	if err := s.partition.Delete(encodeKey(id)); err != nil {
		return message.Message{}, false, err
	}
	return msg, true, nil
}

// Len returns the number of records
func (s *DurableStore) Len() (int, error) {
	return s.partition.Count()
}

// Scan returns up to limit records with id > after, in id order
func (s *DurableStore) Scan(after uint64, limit int) ([]message.Message, error) {
	if limit <= 0 || after == math.MaxUint64 {
		return nil, nil
	}

	var (
		result    []message.Message
		decodeErr error
	)
	err := s.partition.Ascend(encodeKey(after+1), func(_, value []byte) bool {
		msg, err := s.codec.Decode(value)
		if err != nil {
			decodeErr = err
			return false
		}
		result = append(result, msg)
		return len(result) < limit
	})
	if err != nil {
		return nil, err
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("failed to decode record during scan: %w", decodeErr)
	}
	return result, nil
}
