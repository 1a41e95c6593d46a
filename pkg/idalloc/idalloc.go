// Package idalloc hands out strictly increasing record identifiers from a
// single durable counter cell.
package idalloc

import (
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/ssargent/msgstore/pkg/memory"
)

// cellKey is the only key the allocator writes in its partition
var cellKey = []byte("id")

// Allocator is a durable uint64 counter
type Allocator struct {
	partition *memory.Partition
	current   uint64
	mutex     sync.Mutex
}

// New restores the counter from p, initializing it to 0 on first use.
func New(p *memory.Partition) (*Allocator, error) {
	a := &Allocator{partition: p}

	data, ok, err := p.Get(cellKey)
	if err != nil {
		return nil, fmt.Errorf("failed to read id counter: %w", err)
	}
	if !ok {
		if err := a.persist(0); err != nil {
			return nil, fmt.Errorf("failed to initialize id counter: %w", err)
		}
		return a, nil
	}
	if len(data) != 8 {
		return nil, fmt.Errorf("id counter cell has %d bytes, want 8", len(data))
	}

	a.current = binary.BigEndian.Uint64(data)
	return a, nil
}

// Next increments the counter, persists it and returns the new value.
// The in-memory value only advances once the write succeeded.
func (a *Allocator) Next() (uint64, error) {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	next := a.current + 1
	if err := a.persist(next); err != nil {
		return 0, fmt.Errorf("failed to persist id counter: %w", err)
	}
	a.current = next
	return next, nil
}

// Current returns the last allocated id, 0 if none
func (a *Allocator) Current() uint64 {
	a.mutex.Lock()
	defer a.mutex.Unlock()
	return a.current
}

func (a *Allocator) persist(v uint64) error {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], v)
	return a.partition.Set(cellKey, buf[:])
}
