package protocol

// TopicStatus is a point-in-time snapshot of a topic and its partitions,
// as served by the broker's /debug/topics endpoint.
type TopicStatus struct {
	Name       string            `json:"name"`
	// Cursor is the partition index to be assigned to the next produced Message.
	Cursor     int               `json:"cursor"`
	Partitions []PartitionStatus `json:"partitions"`
}

// PartitionStatus is a point-in-time snapshot of a topic partition.
type PartitionStatus struct {
	// Index of the partition within its topic.
	Index int `json:"index"`
	// Depth is the number of queued messages.
	Depth int `json:"depth"`
	// Bytes is the total Content length of queued messages.
	Bytes int64 `json:"bytes"`
	// Limit of the partition's Depth, or zero if unbounded.
	Limit int `json:"limit,omitempty"`
	// Waiters is the number of consumers blocked awaiting a message.
	Waiters int `json:"waiters"`
}

// Validate returns an error if the TopicStatus is not well-formed.
func (s TopicStatus) Validate() error {
	if err := ValidateToken(s.Name, minTopicNameLen, maxTopicNameLen); err != nil {
		return ExtendContext(err, "Name")
	}
	if s.Cursor < 0 || (len(s.Partitions) != 0 && s.Cursor >= len(s.Partitions)) {
		return NewValidationError("invalid Cursor (%d; expected 0 <= cursor < %d)", s.Cursor, len(s.Partitions))
	}
	for i, p := range s.Partitions {
		if err := p.Validate(); err != nil {
			return ExtendContext(err, "Partitions[%d]", i)
		} else if p.Index != i {
			return ExtendContext(NewValidationError("unexpected Index (%d; expected %d)", p.Index, i),
				"Partitions[%d]", i)
		}
	}
	return nil
}

// Validate returns an error if the PartitionStatus is not well-formed.
func (s PartitionStatus) Validate() error {
	if s.Depth < 0 || s.Bytes < 0 || s.Limit < 0 || s.Waiters < 0 {
		return NewValidationError("invalid negative status (%#v)", s)
	} else if s.Limit != 0 && s.Depth > s.Limit {
		return NewValidationError("Depth exceeds Limit (%d > %d)", s.Depth, s.Limit)
	}
	return nil
}
