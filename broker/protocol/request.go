package protocol

import (
	"fmt"
	"strconv"
	"strings"
)

// Command is the leading token of a request line.
type Command string

const (
	// CommandProduce appends a Message to a topic partition chosen by the broker.
	CommandProduce Command = "PRODUCE"
	// CommandConsume removes and returns the next Message of a topic partition,
	// blocking until one is available.
	CommandConsume Command = "CONSUME"
)

// Validate returns an error if the Command is not a known Command.
func (c Command) Validate() error {
	switch c {
	case CommandProduce, CommandConsume:
		return nil
	default:
		return NewValidationError("unknown Command (%q)", string(c))
	}
}

// Request is a parsed request line.
type Request struct {
	Command Command
	// Topic of the request.
	Topic string
	// Partition to consume from. CommandConsume only.
	Partition int
	// Message to produce. CommandProduce only.
	Message Message
}

// MalformedRequestError is returned by ParseRequest for a request line of a
// known Command which is missing required tokens, or has a token which could
// not be parsed.
type MalformedRequestError struct {
	Command Command
	Reason  string
}

// Error implements the error interface.
func (e *MalformedRequestError) Error() string {
	if e.Command == "" {
		return "malformed request: " + e.Reason
	}
	return fmt.Sprintf("malformed %s request: %s", e.Command, e.Reason)
}

// ParseRequest parses a request |line|, which must not include its
// terminating newline. ErrUnknownCommand is returned if the leading token
// isn't an exactly-matched Command. *MalformedRequestError is returned if
// the request of a known Command is incomplete.
func ParseRequest(line string) (Request, error) {
	var cmd, rest = nextToken(line)

	switch Command(cmd) {
	case CommandProduce:
		var topic, id string
		topic, rest = nextToken(rest)
		id, rest = nextToken(rest)

		if topic == "" {
			return Request{}, malformed(CommandProduce, "missing topic")
		} else if id == "" {
			return Request{}, malformed(CommandProduce, "missing message id")
		}
		var n, err = strconv.ParseInt(id, 10, 64)
		if err != nil {
			return Request{}, malformed(CommandProduce, "invalid message id (%s)", id)
		}
		// Content is the remainder of the line, less at most one separating space.
		var msg = Message{ID: n, Content: strings.TrimPrefix(rest, " ")}
		if strings.IndexByte(msg.Content, '\r') != -1 {
			return Request{}, malformed(CommandProduce, "content must not contain carriage returns")
		}
		return Request{Command: CommandProduce, Topic: topic, Message: msg}, nil

	case CommandConsume:
		var topic, part string
		topic, rest = nextToken(rest)
		part, _ = nextToken(rest)

		if topic == "" {
			return Request{}, malformed(CommandConsume, "missing topic")
		} else if part == "" {
			return Request{}, malformed(CommandConsume, "missing partition")
		}
		var n, err = strconv.Atoi(part)
		if err != nil {
			return Request{}, malformed(CommandConsume, "invalid partition (%s)", part)
		}
		return Request{Command: CommandConsume, Topic: topic, Partition: n}, nil

	default:
		return Request{}, ErrUnknownCommand
	}
}

// Validate returns an error if the Request cannot be faithfully written as
// a request line.
func (r Request) Validate() error {
	if err := r.Command.Validate(); err != nil {
		return ExtendContext(err, "Command")
	} else if err = validateWord(r.Topic); err != nil {
		return ExtendContext(err, "Topic")
	}

	switch r.Command {
	case CommandProduce:
		if err := r.Message.Validate(); err != nil {
			return ExtendContext(err, "Message")
		}
	case CommandConsume:
		if r.Message != (Message{}) {
			return NewValidationError("unexpected Message of %s request", r.Command)
		}
	}
	return nil
}

// String returns the Request as a request line, without its terminating newline.
func (r Request) String() string {
	switch r.Command {
	case CommandProduce:
		return fmt.Sprintf("%s %s %d %s", r.Command, r.Topic, r.Message.ID, r.Message.Content)
	case CommandConsume:
		return fmt.Sprintf("%s %s %d", r.Command, r.Topic, r.Partition)
	default:
		return string(r.Command)
	}
}

// AppendLine appends the newline-terminated request line to |b|.
func (r Request) AppendLine(b []byte) []byte {
	return append(append(b, r.String()...), '\n')
}

func malformed(cmd Command, format string, args ...interface{}) error {
	return &MalformedRequestError{Command: cmd, Reason: fmt.Sprintf(format, args...)}
}

// nextToken skips leading ASCII whitespace of |s| and returns the following
// token, along with the remainder of |s| which immediately follows it.
// Other Unicode spaces (U+00A0, U+0085 etc) are part of a token.
func nextToken(s string) (token, rest string) {
	var begin = 0
	for begin < len(s) && isSpace(s[begin]) {
		begin++
	}
	var end = begin
	for end < len(s) && !isSpace(s[end]) {
		end++
	}
	return s[begin:end], s[end:]
}

func isSpace(b byte) bool {
	switch b {
	case ' ', '\t', '\n', '\v', '\f', '\r':
		return true
	default:
		return false
	}
}
