package codec

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"

	"github.com/ssargent/msgstore/pkg/message"
)

// MaxRecordSize is the upper bound of an encoded Message in bytes
const MaxRecordSize = 1024

// HeaderSize is the fixed part of an encoded record:
// CRC32(4) + ID(8) + CreatedAt(8) + HasUpdated(1) + UpdatedAt(8) +
// TitleLen(4) + BodyLen(4) + URLLen(4)
const HeaderSize = 41

// Errors
var (
	ErrRecordTooLarge = &CodecError{"encoded record exceeds maximum size"}
	ErrCorruption     = &CodecError{"record corruption detected"}
)

// CodecError represents a serialization error
type CodecError struct {
	Message string
}

func (e *CodecError) Error() string {
	return e.Message
}

// Codec maps Messages to bounded byte records and back
type Codec interface {
	Encode(m message.Message) ([]byte, error)
	Decode(data []byte) (message.Message, error)
	MaxSize() int
}

// RecordCodec handles serialization and deserialization of messages
type RecordCodec struct {
	maxSize int
}

// NewRecordCodec creates a codec bounded by MaxRecordSize
func NewRecordCodec() *RecordCodec {
	return &RecordCodec{maxSize: MaxRecordSize}
}

// MaxSize returns the largest record the codec will produce
func (c *RecordCodec) MaxSize() int {
	return c.maxSize
}

// Size returns the encoded size of m
func Size(m message.Message) int {
	return HeaderSize + len(m.Title) + len(m.Body) + len(m.AttachmentURL)
}

// Encode serializes a message into the binary record format
// Format: [CRC32(4)][ID(8)][CreatedAt(8)][HasUpdated(1)][UpdatedAt(8)]
// [TitleLen(4)][BodyLen(4)][URLLen(4)][Title][Body][URL]
func (c *RecordCodec) Encode(m message.Message) ([]byte, error) {
	size := Size(m)
	if size > c.maxSize {
		return nil, fmt.Errorf("%w: %d > %d", ErrRecordTooLarge, size, c.maxSize)
	}

	buf := make([]byte, size)
	binary.LittleEndian.PutUint64(buf[4:], m.ID)
	binary.LittleEndian.PutUint64(buf[12:], m.CreatedAt)
	if m.UpdatedAt != nil {
		buf[20] = 1
		binary.LittleEndian.PutUint64(buf[21:], *m.UpdatedAt)
	}
	binary.LittleEndian.PutUint32(buf[29:], uint32(len(m.Title)))
	binary.LittleEndian.PutUint32(buf[33:], uint32(len(m.Body)))
	binary.LittleEndian.PutUint32(buf[37:], uint32(len(m.AttachmentURL)))

	off := HeaderSize
	off += copy(buf[off:], m.Title)
	off += copy(buf[off:], m.Body)
	copy(buf[off:], m.AttachmentURL)

	binary.LittleEndian.PutUint32(buf[0:], crc32.ChecksumIEEE(buf[4:]))
	return buf, nil
}

// Decode deserializes a binary record and validates its checksum
func (c *RecordCodec) Decode(data []byte) (message.Message, error) {
	if len(data) < HeaderSize {
		return message.Message{}, fmt.Errorf("%w: %d bytes is shorter than the header", ErrCorruption, len(data))
	}

	stored := binary.LittleEndian.Uint32(data[0:4])
	if actual := crc32.ChecksumIEEE(data[4:]); stored != actual {
		return message.Message{}, fmt.Errorf("%w: CRC32 mismatch: %d != %d", ErrCorruption, stored, actual)
	}

	m := message.Message{
		ID:        binary.LittleEndian.Uint64(data[4:12]),
		CreatedAt: binary.LittleEndian.Uint64(data[12:20]),
	}
	switch data[20] {
	case 0:
	case 1:
		updatedAt := binary.LittleEndian.Uint64(data[21:29])
		m.UpdatedAt = &updatedAt
	default:
		return message.Message{}, fmt.Errorf("%w: invalid updated_at flag %d", ErrCorruption, data[20])
	}

	titleLen := int(binary.LittleEndian.Uint32(data[29:33]))
	bodyLen := int(binary.LittleEndian.Uint32(data[33:37]))
	urlLen := int(binary.LittleEndian.Uint32(data[37:41]))
	if want := HeaderSize + titleLen + bodyLen + urlLen; want != len(data) {
		return message.Message{}, fmt.Errorf("%w: declared size %d, have %d bytes", ErrCorruption, want, len(data))
	}

	off := HeaderSize
	m.Title = string(data[off : off+titleLen])
	off += titleLen
	m.Body = string(data[off : off+bodyLen])
	off += bodyLen
	m.AttachmentURL = string(data[off : off+urlLen])

	return m, nil
}
