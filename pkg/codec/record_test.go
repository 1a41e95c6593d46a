package codec

import (
	"encoding/binary"
	"errors"
	"hash/crc32"
	"strings"
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssargent/msgstore/pkg/message"
)

func TestRecordCodec_EncodeDecodeRoundTrip(t *testing.T) {
	codec := NewRecordCodec()

	testCases := []struct {
		name string
		msg  message.Message
	}{
		{
			name: "fresh message",
			msg:  message.Message{ID: 1, Title: "a", Body: "b", AttachmentURL: "c", CreatedAt: 1719043200000000000},
		},
		{
			name: "updated message",
			msg: message.Message{
				ID: 42, Title: "title", Body: "body", AttachmentURL: "https://example.com/a.png",
				CreatedAt: 100, UpdatedAt: lo.ToPtr(uint64(200)),
			},
		},
		{
			name: "updated at zero",
			msg:  message.Message{ID: 3, UpdatedAt: lo.ToPtr(uint64(0))},
		},
		{
			name: "all strings empty",
			msg:  message.Message{ID: 9, CreatedAt: 5},
		},
		{
			name: "max id",
			msg:  message.Message{ID: ^uint64(0), CreatedAt: ^uint64(0), UpdatedAt: lo.ToPtr(^uint64(0))},
		},
		{
			name: "unicode data",
			msg:  message.Message{ID: 5, Title: "🔑 unicode", Body: "🎯 émojis", AttachmentURL: "ünï"},
		},
		{
			name: "exactly max size",
			msg:  message.Message{ID: 6, Body: strings.Repeat("x", MaxRecordSize-HeaderSize)},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			encoded, err := codec.Encode(tc.msg)
			require.NoError(t, err)
			assert.Len(t, encoded, Size(tc.msg))
			assert.LessOrEqual(t, len(encoded), codec.MaxSize())

			decoded, err := codec.Decode(encoded)
			require.NoError(t, err)
			assert.True(t, tc.msg.Equal(decoded), "got %+v, want %+v", decoded, tc.msg)
			assert.Equal(t, tc.msg, decoded)
		})
	}
}

func TestRecordCodec_SizeBound(t *testing.T) {
	codec := NewRecordCodec()
	msg := message.Message{ID: 1, Title: strings.Repeat("t", MaxRecordSize-HeaderSize+1)}

	_, err := codec.Encode(msg)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRecordTooLarge))
}

func TestRecordCodec_CRCValidation(t *testing.T) {
	codec := NewRecordCodec()
	msg := message.Message{ID: 11, Title: "test title", Body: "test body", AttachmentURL: "u", CreatedAt: 3}

	offsets := map[string]int{
		"corrupted CRC":        0,
		"corrupted id":         4,
		"corrupted created_at": 12,
		"corrupted title":      HeaderSize,
		"corrupted url":        Size(msg) - 1,
	}

	for name, offset := range offsets {
		t.Run(name, func(t *testing.T) {
			encoded, err := codec.Encode(msg)
			require.NoError(t, err)

			encoded[offset] ^= 0xFF

			_, err = codec.Decode(encoded)
			assert.ErrorIs(t, err, ErrCorruption)
		})
	}
}

func TestRecordCodec_MalformedData(t *testing.T) {
	codec := NewRecordCodec()

	withCRC := func(buf []byte) []byte {
		binary.LittleEndian.PutUint32(buf[0:], crc32.ChecksumIEEE(buf[4:]))
		return buf
	}

	testCases := []struct {
		name string
		data []byte
	}{
		{name: "empty data", data: []byte{}},
		{name: "too short for header", data: []byte{0x01, 0x02, 0x03}},
		{
			name: "declared title longer than data",
			data: withCRC(func() []byte {
				buf := make([]byte, HeaderSize)
				binary.LittleEndian.PutUint32(buf[29:], 100)
				return buf
			}()),
		},
		{
			name: "trailing bytes",
			data: withCRC(make([]byte, HeaderSize+3)),
		},
		{
			name: "invalid updated flag",
			data: withCRC(func() []byte {
				buf := make([]byte, HeaderSize)
				buf[20] = 7
				return buf
			}()),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := codec.Decode(tc.data)
			assert.ErrorIs(t, err, ErrCorruption)
		})
	}
}

func TestSize(t *testing.T) {
	assert.Equal(t, HeaderSize, Size(message.Message{}))
	assert.Equal(t, HeaderSize+3+5+1, Size(message.Message{Title: "abc", Body: "hello", AttachmentURL: "u"}))
}
