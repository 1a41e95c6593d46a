package store

import (
	"math"
	"strings"
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssargent/msgstore/pkg/codec"
	"github.com/ssargent/msgstore/pkg/memory"
	"github.com/ssargent/msgstore/pkg/message"
)

// recordStores returns every RecordStore implementation under test
func recordStores(t *testing.T) map[string]RecordStore {
	t.Helper()

	m, err := memory.Open(memory.Options{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { m.Close() })

	return map[string]RecordStore{
		"durable": NewDurableStore(m.Get(1), codec.NewRecordCodec()),
		"memory":  NewMemStore(codec.NewRecordCodec()),
	}
}

func TestRecordStore_BasicOperations(t *testing.T) {
	for name, s := range recordStores(t) {
		t.Run(name, func(t *testing.T) {
			msg := message.Message{ID: 1, Title: "a", Body: "b", AttachmentURL: "c", CreatedAt: 10}

			_, ok, err := s.Get(1)
			require.NoError(t, err)
			assert.False(t, ok)

			require.NoError(t, s.Insert(1, msg))

			got, ok, err := s.Get(1)
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, msg, got)

			// overwrite without a prior read
			updated := msg
			updated.Title = "x"
			updated.UpdatedAt = lo.ToPtr(uint64(20))
			require.NoError(t, s.Insert(1, updated))

			got, ok, err = s.Get(1)
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, updated, got)

			n, err := s.Len()
			require.NoError(t, err)
			assert.Equal(t, 1, n)

			removed, ok, err := s.Remove(1)
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, updated, removed)

			_, ok, err = s.Get(1)
			require.NoError(t, err)
			assert.False(t, ok)

			_, ok, err = s.Remove(1)
			require.NoError(t, err)
			assert.False(t, ok)

			n, err = s.Len()
			require.NoError(t, err)
			assert.Equal(t, 0, n)
		})
	}
}

func TestRecordStore_RejectsOversizedRecord(t *testing.T) {
	for name, s := range recordStores(t) {
		t.Run(name, func(t *testing.T) {
			msg := message.Message{ID: 1, Body: strings.Repeat("b", codec.MaxRecordSize)}
			err := s.Insert(1, msg)
			assert.ErrorIs(t, err, codec.ErrRecordTooLarge)

			_, ok, err := s.Get(1)
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

func TestRecordStore_Scan(t *testing.T) {
	for name, s := range recordStores(t) {
		t.Run(name, func(t *testing.T) {
			// 300 crosses a byte boundary in the big-endian key
			ids := []uint64{300, 2, 1, 256, 7, 255}
			for _, id := range ids {
				require.NoError(t, s.Insert(id, message.Message{ID: id}))
			}

			page, err := s.Scan(0, 10)
			require.NoError(t, err)
			assert.Equal(t, []uint64{1, 2, 7, 255, 256, 300}, lo.Map(page, func(m message.Message, _ int) uint64 { return m.ID }))

			page, err = s.Scan(7, 2)
			require.NoError(t, err)
			assert.Equal(t, []uint64{255, 256}, lo.Map(page, func(m message.Message, _ int) uint64 { return m.ID }))

			page, err = s.Scan(300, 10)
			require.NoError(t, err)
			assert.Empty(t, page)

			page, err = s.Scan(0, 0)
			require.NoError(t, err)
			assert.Empty(t, page)

			page, err = s.Scan(math.MaxUint64, 10)
			require.NoError(t, err)
			assert.Empty(t, page)
		})
	}
}

func TestDurableStore_SurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	msg := message.Message{ID: 5, Title: "persist", CreatedAt: 1, UpdatedAt: lo.ToPtr(uint64(2))}

	m, err := memory.Open(memory.Options{Dir: dir})
	require.NoError(t, err)
	require.NoError(t, NewDurableStore(m.Get(1), codec.NewRecordCodec()).Insert(5, msg))
	require.NoError(t, m.Close())

	m, err = memory.Open(memory.Options{Dir: dir})
	require.NoError(t, err)
	defer m.Close()

	got, ok, err := NewDurableStore(m.Get(1), codec.NewRecordCodec()).Get(5)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, msg, got)
}

func TestDurableStore_CorruptedRecord(t *testing.T) {
	m, err := memory.Open(memory.Options{InMemory: true})
	require.NoError(t, err)
	defer m.Close()

	s := NewDurableStore(m.Get(1), codec.NewRecordCodec())
	require.NoError(t, m.Get(1).Set(encodeKey(9), []byte("garbage")))

	_, _, err = s.Get(9)
	assert.ErrorIs(t, err, codec.ErrCorruption)

	_, err = s.Scan(0, 10)
	assert.ErrorIs(t, err, codec.ErrCorruption)
}
