// Package message defines the record persisted by msgstore.
package message

// Message is the persisted entity. ID and CreatedAt never change after
// creation; UpdatedAt is nil until the first update.
type Message struct {
	ID            uint64  `json:"id"`
	Title         string  `json:"title"`
	Body          string  `json:"body"`
	AttachmentURL string  `json:"attachment_url"`
	CreatedAt     uint64  `json:"created_at"`
	UpdatedAt     *uint64 `json:"updated_at,omitempty"`
}

// Payload carries the caller-editable fields of a Message
type Payload struct {
	Title         string `json:"title"`
	Body          string `json:"body"`
	AttachmentURL string `json:"attachment_url"`
}

// Apply overwrites the editable fields of m with p
func (m *Message) Apply(p Payload) {
	m.Title = p.Title
	m.Body = p.Body
	m.AttachmentURL = p.AttachmentURL
}

// Equal reports whether m and other hold the same values
func (m Message) Equal(other Message) bool {
	if m.ID != other.ID || m.Title != other.Title || m.Body != other.Body ||
		m.AttachmentURL != other.AttachmentURL || m.CreatedAt != other.CreatedAt {
		return false
	}
	if m.UpdatedAt == nil || other.UpdatedAt == nil {
		return m.UpdatedAt == nil && other.UpdatedAt == nil
	}
	return *m.UpdatedAt == *other.UpdatedAt
}
