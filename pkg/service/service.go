// Package service implements the message CRUD operations on top of the
// identifier allocator and the record store.
package service

//go:generate mockgen -destination=../../internal/mocks/mock_service.go -package=mocks github.com/ssargent/msgstore/pkg/service MessageService

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/ssargent/msgstore/pkg/message"
	"github.com/ssargent/msgstore/pkg/store"
)

// DefaultListLimit bounds ListMessages when the caller passes no limit
const DefaultListLimit = 100

// MaxListLimit is the largest page ListMessages returns
const MaxListLimit = 1000

// EffectiveLimit is the page size ListMessages applies for a requested limit
func EffectiveLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	if limit > MaxListLimit {
		return MaxListLimit
	}
	return limit
}

// IDAllocator hands out fresh record identifiers
type IDAllocator interface {
	Next() (uint64, error)
	Current() uint64
}

// MessageService is the remote-callable surface of the store
type MessageService interface {
	GetMessage(ctx context.Context, id uint64) (message.Message, error)
	AddMessage(ctx context.Context, payload message.Payload) (message.Message, error)
	UpdateMessage(ctx context.Context, id uint64, payload message.Payload) (message.Message, error)
	DeleteMessage(ctx context.Context, id uint64) (message.Message, error)
	ListMessages(ctx context.Context, after uint64, limit int) ([]message.Message, error)
	Stats(ctx context.Context) (Stats, error)
}

// Stats describes the current contents of the store
type Stats struct {
	Messages int    `json:"messages"`
	LastID   uint64 `json:"last_id"`
}

// Service orchestrates the allocator and record store. Operations are
// serialized so every request runs to completion before the next starts.
type Service struct {
	records store.RecordStore
	ids     IDAllocator
	clock   Clock
	log     *slog.Logger
	mutex   sync.Mutex
}

// New creates a message service
func New(records store.RecordStore, ids IDAllocator, clock Clock, log *slog.Logger) *Service {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Service{records: records, ids: ids, clock: clock, log: log}
}

// GetMessage returns the message stored under id
func (s *Service) GetMessage(ctx context.Context, id uint64) (message.Message, error) {
	if err := ctx.Err(); err != nil {
		return message.Message{}, err
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	msg, ok, err := s.records.Get(id)
	if err != nil {
		return message.Message{}, fmt.Errorf("failed to get message %d: %w", id, err)
	}
	if !ok {
		return message.Message{}, notFound(id)
	}
	return msg, nil
}

// AddMessage stores a new message built from payload. Payload contents are
// not validated.
func (s *Service) AddMessage(ctx context.Context, payload message.Payload) (message.Message, error) {
	if err := ctx.Err(); err != nil {
		return message.Message{}, err
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	id, err := s.ids.Next()
	if err != nil {
		return message.Message{}, fmt.Errorf("failed to allocate id: %w", err)
	}

	msg := message.Message{ID: id, CreatedAt: s.clock.Now()}
	msg.Apply(payload)

	if err := s.records.Insert(id, msg); err != nil {
		// the id stays consumed; ids are never reused
		return message.Message{}, fmt.Errorf("failed to store message %d: %w", id, err)
	}

	s.log.Debug("message added", "id", id)
	return msg, nil
}

// UpdateMessage replaces the editable fields of the message under id
func (s *Service) UpdateMessage(ctx context.Context, id uint64, payload message.Payload) (message.Message, error) {
	if err := ctx.Err(); err != nil {
		return message.Message{}, err
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	msg, ok, err := s.records.Get(id)
	if err != nil {
		return message.Message{}, fmt.Errorf("failed to get message %d: %w", id, err)
	}
	if !ok {
		return message.Message{}, notFound(id)
	}

	msg.Apply(payload)
	now := s.clock.Now()
	msg.UpdatedAt = &now

	if err := s.records.Insert(id, msg); err != nil {
		return message.Message{}, fmt.Errorf("failed to store message %d: %w", id, err)
	}

	s.log.Debug("message updated", "id", id)
	return msg, nil
}

// DeleteMessage removes the message under id and returns its last value
func (s *Service) DeleteMessage(ctx context.Context, id uint64) (message.Message, error) {
	if err := ctx.Err(); err != nil {
		return message.Message{}, err
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	msg, ok, err := s.records.Remove(id)
	if err != nil {
		return message.Message{}, fmt.Errorf("failed to delete message %d: %w", id, err)
	}
	if !ok {
		return message.Message{}, notFound(id)
	}

	s.log.Debug("message deleted", "id", id)
	return msg, nil
}

// ListMessages returns up to limit messages with id > after in id order
func (s *Service) ListMessages(ctx context.Context, after uint64, limit int) ([]message.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	limit = EffectiveLimit(limit)

	s.mutex.Lock()
	defer s.mutex.Unlock()

	msgs, err := s.records.Scan(after, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	if msgs == nil {
		msgs = []message.Message{}
	}
	return msgs, nil
}

// Stats reports the record count and the last allocated id
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	if err := ctx.Err(); err != nil {
		return Stats{}, err
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	n, err := s.records.Len()
	if err != nil {
		return Stats{}, fmt.Errorf("failed to count messages: %w", err)
	}
	return Stats{Messages: n, LastID: s.ids.Current()}, nil
}
