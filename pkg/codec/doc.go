// Package codec provides Message serialization for msgstore.
//
// Every persisted Message is stored as one bounded binary record. The record
// store never holds anything else, so this format is the durable layout of
// the whole database.
//
// # Record Format
//
//	[CRC32(4)][ID(8)][CreatedAt(8)][HasUpdated(1)][UpdatedAt(8)]
//	[TitleLen(4)][BodyLen(4)][URLLen(4)][Title][Body][URL]
//
// All integers are little-endian. HasUpdated is 0 when the message has never
// been updated (UpdatedAt is then zero and ignored) and 1 otherwise.
//
// The total record size is 41 bytes of header plus the three string lengths,
// and must not exceed MaxRecordSize (1024 bytes). Encode refuses larger
// messages with ErrRecordTooLarge.
//
// # CRC32 Calculation
//
// The IEEE CRC32 covers every byte after the checksum field, so corruption
// anywhere in the header or the strings is detected by Decode.
//
// # Error Handling
//
// Decode does not attempt partial recovery. Short input, a length mismatch,
// an unknown flag or a checksum mismatch all return an error wrapping
// ErrCorruption, and callers treat the record as unreadable.
//
// # Usage
//
//	c := codec.NewRecordCodec()
//
//	encoded, err := c.Encode(msg)
//	if err != nil {
//	    return err
//	}
//
//	decoded, err := c.Decode(encoded)
//	if err != nil {
//	    return err // record is corrupted
//	}
//
// # Thread Safety
//
// RecordCodec holds no mutable state and is safe for concurrent use.
package codec
