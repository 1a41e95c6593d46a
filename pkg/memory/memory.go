// Package memory divides one pebble database into independently addressable
// partitions. Each partition behaves like its own ordered byte map; physical
// keys are prefixed with the one-byte partition id so partitions never overlap.
package memory

import (
	"errors"
	"fmt"
	"sync"

	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"
)

// MaxPartitions is the number of addressable partitions. Id 255 is reserved
// as the exclusive upper bound of the last partition.
const MaxPartitions = 255

// PartitionID addresses a partition within a Manager.
type PartitionID uint8

// Errors
var (
	ErrClosed = &MemoryError{"memory manager is closed"}
)

// MemoryError represents a durable memory error
type MemoryError struct {
	Message string
}

func (e *MemoryError) Error() string {
	return e.Message
}

// Options configures the durable memory region
type Options struct {
	Dir      string // Directory holding the pebble database
	InMemory bool   // Back the database with an in-memory filesystem
	NoSync   bool   // Skip fsync on every write
}

// Manager owns the pebble database and hands out partitions.
type Manager struct {
	db         *pebble.DB
	writeOpts  *pebble.WriteOptions
	partitions map[PartitionID]*Partition
	mutex      sync.Mutex

	// lifecycle is held shared by every database call and exclusively by Close
	lifecycle sync.RWMutex
	closed    bool
}

// Open opens (or creates) the durable memory region described by opts.
func Open(opts Options) (*Manager, error) {
	pebbleOpts := &pebble.Options{}
	dir := opts.Dir
	if opts.InMemory {
		pebbleOpts.FS = vfs.NewMem()
		if dir == "" {
			dir = "mem"
		}
	}
	if dir == "" {
		return nil, fmt.Errorf("memory: data directory is required")
	}

	db, err := pebble.Open(dir, pebbleOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to open durable memory at %s: %w", dir, err)
	}

	writeOpts := pebble.Sync
	if opts.NoSync {
		writeOpts = pebble.NoSync
	}

	return &Manager{
		db:         db,
		writeOpts:  writeOpts,
		partitions: make(map[PartitionID]*Partition),
	}, nil
}

// Get returns the partition with the given id. Repeated calls with the same
// id return the same handle. Ids outside the partition space panic.
func (m *Manager) Get(id PartitionID) *Partition {
	if int(id) >= MaxPartitions {
		panic(fmt.Sprintf("memory: partition id %d out of range", id))
	}

	m.mutex.Lock()
	defer m.mutex.Unlock()

	if p, ok := m.partitions[id]; ok {
		return p
	}
	p := &Partition{id: id, manager: m}
	m.partitions[id] = p
	return p
}

// Stats summarizes the underlying database
type Stats struct {
	DiskSpaceUsage uint64
	Compactions    int64
	Flushes        int64
}

// Stats returns a summary of the pebble metrics
func (m *Manager) Stats() Stats {
	m.lifecycle.RLock()
	defer m.lifecycle.RUnlock()

	if m.closed {
		return Stats{}
	}
	metrics := m.db.Metrics()
	return Stats{
		DiskSpaceUsage: metrics.DiskSpaceUsage(),
		Compactions:    metrics.Compact.Count,
		Flushes:        metrics.Flush.Count,
	}
}

// Close waits for in-flight partition calls, then flushes and closes the
// database. Closing twice is a no-op.
func (m *Manager) Close() error {
	m.lifecycle.Lock()
	defer m.lifecycle.Unlock()

	if m.closed {
		return nil
	}
	m.closed = true
	return m.db.Close()
}

// acquire pins the database open until the returned release is called
func (m *Manager) acquire() (release func(), err error) {
	m.lifecycle.RLock()
	if m.closed {
		m.lifecycle.RUnlock()
		return nil, ErrClosed
	}
	return m.lifecycle.RUnlock, nil
}

// Partition is a virtual ordered byte map inside the Manager's database
type Partition struct {
	id      PartitionID
	manager *Manager
}

// ID returns the partition id
func (p *Partition) ID() PartitionID {
	return p.id
}

// Get returns a copy of the value stored under key.
func (p *Partition) Get(key []byte) ([]byte, bool, error) {
	release, err := p.manager.acquire()
	if err != nil {
		return nil, false, err
	}
	defer release()

	data, closer, err := p.manager.db.Get(p.physicalKey(key))
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}
	defer closer.Close()

	value := make([]byte, len(data))
	copy(value, data)
	return value, true, nil
}

// Set stores value under key, replacing any previous value
func (p *Partition) Set(key, value []byte) error {
	release, err := p.manager.acquire()
	if err != nil {
		return err
	}
	defer release()
	return p.manager.db.Set(p.physicalKey(key), value, p.manager.writeOpts)
}

// Delete removes key. Deleting a missing key is not an error.
func (p *Partition) Delete(key []byte) error {
	release, err := p.manager.acquire()
	if err != nil {
		return err
	}
	defer release()
	return p.manager.db.Delete(p.physicalKey(key), p.manager.writeOpts)
}

// Ascend calls fn for every entry with key >= from, in key order, until fn
// returns false. Keys and values passed to fn are only valid during the call,
// and fn must not close the Manager.
func (p *Partition) Ascend(from []byte, fn func(key, value []byte) bool) error {
	release, err := p.manager.acquire()
	if err != nil {
		return err
	}
	defer release()

	iter, err := p.manager.db.NewIter(&pebble.IterOptions{
		LowerBound: []byte{byte(p.id)},
		UpperBound: []byte{byte(p.id) + 1},
	})
	if err != nil {
		return err
	}

	for valid := iter.SeekGE(p.physicalKey(from)); valid; valid = iter.Next() {
		if !fn(iter.Key()[1:], iter.Value()) {
			break
		}
	}

	if err := iter.Error(); err != nil {
		iter.Close()
		return err
	}
	return iter.Close()
}

// Count returns the number of entries in the partition
func (p *Partition) Count() (int, error) {
	n := 0
	err := p.Ascend(nil, func(_, _ []byte) bool {
		n++
		return true
	})
	return n, err
}

func (p *Partition) physicalKey(key []byte) []byte {
	buf := make([]byte, 1+len(key))
	buf[0] = byte(p.id)
	copy(buf[1:], key)
	return buf
}
