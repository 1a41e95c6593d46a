// Package store keeps encoded Messages in an ordered map keyed by id.
package store

import (
	"encoding/binary"

	"github.com/ssargent/msgstore/pkg/message"
)

// RecordStore defines the record map contract shared by the durable and
// in-memory implementations
type RecordStore interface {
	// Get decodes and returns the record stored under id.
	Get(id uint64) (message.Message, bool, error)
	// Insert stores msg under id, replacing any previous record.
	Insert(id uint64, msg message.Message) error
	// Remove deletes the record under id and returns it.
	Remove(id uint64) (message.Message, bool, error)
	// Len returns the number of stored records.
	Len() (int, error)
	// Scan returns up to limit records with id > after in ascending id order.
	Scan(after uint64, limit int) ([]message.Message, error)
}

// encodeKey renders id big-endian so byte order matches numeric order
func encodeKey(id uint64) []byte {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], id)
	return buf[:]
}
