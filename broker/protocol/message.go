package protocol

import "strings"

// Message is a unit of content produced into, and consumed from, a topic
// partition. ID is supplied by the producer and is not interpreted by the
// broker: it's neither checked for uniqueness nor for ordering.
type Message struct {
	ID      int64
	Content string
}

// Validate returns an error if the Message Content cannot be represented
// within a single protocol line.
func (m Message) Validate() error {
	if i := strings.IndexAny(m.Content, "\r\n"); i != -1 {
		return NewValidationError("Content: must not contain line terminators (offset %d)", i)
	}
	return nil
}
