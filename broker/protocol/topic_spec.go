package protocol

import (
	"sort"
	"strconv"
	"strings"
)

// TopicSpec describes a topic and its fixed number of partitions.
type TopicSpec struct {
	// Name of the topic.
	Name string `yaml:"name" json:"name"`
	// Number of partitions of the topic.
	Partitions int `yaml:"partitions" json:"partitions"`
}

// Validate returns an error if the TopicSpec is not well-formed.
func (m TopicSpec) Validate() error {
	if err := ValidateToken(m.Name, minTopicNameLen, maxTopicNameLen); err != nil {
		return ExtendContext(err, "Name")
	} else if m.Partitions < 1 || m.Partitions > maxTopicPartitions {
		return NewValidationError("invalid Partitions (%d; expected 1 <= Partitions <= %d)",
			m.Partitions, maxTopicPartitions)
	}
	return nil
}

// String returns the TopicSpec in its "name=partitions" form.
func (m TopicSpec) String() string { return m.Name + "=" + strconv.Itoa(m.Partitions) }

// ParseTopicSpec parses a TopicSpec of the form "name=partitions".
func ParseTopicSpec(s string) (TopicSpec, error) {
	var ind = strings.LastIndexByte(s, '=')
	if ind == -1 {
		return TopicSpec{}, NewValidationError("expected name=partitions (%s)", s)
	}
	var n, err = strconv.Atoi(s[ind+1:])
	if err != nil {
		return TopicSpec{}, NewValidationError("invalid partitions (%s)", s[ind+1:])
	}
	var spec = TopicSpec{Name: s[:ind], Partitions: n}
	return spec, spec.Validate()
}

// TopicSpecs is a set of TopicSpecs having unique names.
type TopicSpecs []TopicSpec

// Validate returns an error if any TopicSpec is invalid, or if a topic name
// is repeated.
func (m TopicSpecs) Validate() error {
	var seen = make(map[string]struct{}, len(m))

	for i, spec := range m {
		if err := spec.Validate(); err != nil {
			return ExtendContext(err, "TopicSpecs[%d]", i)
		} else if _, ok := seen[spec.Name]; ok {
			return NewValidationError("duplicate topic Name (%s)", spec.Name)
		}
		seen[spec.Name] = struct{}{}
	}
	return nil
}

// Map returns the TopicSpecs as a mapping of topic name to partition count.
func (m TopicSpecs) Map() map[string]int {
	var out = make(map[string]int, len(m))
	for _, spec := range m {
		out[spec.Name] = spec.Partitions
	}
	return out
}

// Sort the TopicSpecs by Name.
func (m TopicSpecs) Sort() {
	sort.Slice(m, func(i, j int) bool { return m[i].Name < m[j].Name })
}

const (
	minTopicNameLen, maxTopicNameLen = 1, 256
	maxTopicPartitions               = 4096
)
