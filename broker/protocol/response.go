package protocol

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Errors having a Status representation in the protocol.
var (
	ErrTopicNotFound    = errors.New("topic not found")
	ErrInvalidPartition = errors.New("invalid partition index")
	ErrUnknownCommand   = errors.New("unknown command")
	ErrPartitionFull    = errors.New("partition full")
)

// Status of a Response.
type Status int8

const (
	StatusOK               Status = 0
	StatusTopicNotFound    Status = iota
	StatusInvalidPartition Status = iota
	StatusUnknownCommand   Status = iota
	StatusMalformedRequest Status = iota
	StatusPartitionFull    Status = iota
)

// String returns the symbolic name of the Status, as used in metric labels and logs.
func (s Status) String() string {
	switch s {
	case StatusOK:
		return "OK"
	case StatusTopicNotFound:
		return "TOPIC_NOT_FOUND"
	case StatusInvalidPartition:
		return "INVALID_PARTITION"
	case StatusUnknownCommand:
		return "UNKNOWN_COMMAND"
	case StatusMalformedRequest:
		return "MALFORMED_REQUEST"
	case StatusPartitionFull:
		return "PARTITION_FULL"
	default:
		return "Status(" + strconv.Itoa(int(s)) + ")"
	}
}

// Validate returns an error if the Status is not known.
func (s Status) Validate() error {
	if s < StatusOK || s > StatusPartitionFull {
		return NewValidationError("invalid Status (%d)", s)
	}
	return nil
}

// errorText of each non-OK Status, as written on the wire following errorPrefix.
var errorText = map[Status]string{
	StatusTopicNotFound:    "Topic not found",
	StatusInvalidPartition: "Invalid partition index",
	StatusUnknownCommand:   "Unknown command",
	StatusMalformedRequest: "Malformed request",
	StatusPartitionFull:    "Partition full",
}

const (
	errorPrefix    = "ERROR: "
	producedPrefix = "Message produced to partition "
	consumedPrefix = "Consumed: "
)

// Response is a broker response to a Request.
type Response struct {
	Status Status
	// Command of a StatusOK Response.
	Command Command
	// Partition to which a Message was produced. CommandProduce only.
	Partition int
	// Message which was consumed. CommandConsume only.
	Message Message
	// Detail of a StatusMalformedRequest Response.
	Detail string
}

// NewErrorResponse returns the Response of |err|, which was returned by
// ParseRequest or by a broker. It returns false if |err| has no protocol
// representation.
func NewErrorResponse(err error) (Response, bool) {
	var mre *MalformedRequestError

	switch {
	case errors.Is(err, ErrTopicNotFound):
		return Response{Status: StatusTopicNotFound}, true
	case errors.Is(err, ErrInvalidPartition):
		return Response{Status: StatusInvalidPartition}, true
	case errors.Is(err, ErrUnknownCommand):
		return Response{Status: StatusUnknownCommand}, true
	case errors.Is(err, ErrPartitionFull):
		return Response{Status: StatusPartitionFull}, true
	case errors.As(err, &mre):
		return Response{Status: StatusMalformedRequest, Detail: mre.Reason}, true
	default:
		return Response{}, false
	}
}

// Err returns the error represented by a non-OK Response, or nil if the
// Response Status is OK.
func (r Response) Err() error {
	switch r.Status {
	case StatusOK:
		return nil
	case StatusTopicNotFound:
		return ErrTopicNotFound
	case StatusInvalidPartition:
		return ErrInvalidPartition
	case StatusUnknownCommand:
		return ErrUnknownCommand
	case StatusPartitionFull:
		return ErrPartitionFull
	case StatusMalformedRequest:
		return &MalformedRequestError{Reason: r.Detail}
	default:
		return fmt.Errorf("unexpected Status (%s)", r.Status)
	}
}

// Validate returns an error if the Response cannot be faithfully written as
// a response line.
func (r Response) Validate() error {
	if err := r.Status.Validate(); err != nil {
		return ExtendContext(err, "Status")
	} else if r.Status != StatusOK {
		if strings.ContainsAny(r.Detail, "\r\n") {
			return NewValidationError("Detail: must not contain line terminators")
		}
		return nil
	}

	switch r.Command {
	case CommandProduce:
		if r.Partition < 0 {
			return NewValidationError("invalid Partition (%d; expected >= 0)", r.Partition)
		}
	case CommandConsume:
		if err := r.Message.Validate(); err != nil {
			return ExtendContext(err, "Message")
		}
	default:
		return ExtendContext(r.Command.Validate(), "Command")
	}
	return nil
}

// String returns the Response as a response line, without its terminating newline.
func (r Response) String() string {
	if r.Status != StatusOK {
		var text, ok = errorText[r.Status]
		if !ok {
			text = r.Status.String()
		}
		if r.Status == StatusMalformedRequest && r.Detail != "" {
			return errorPrefix + text + ": " + r.Detail
		}
		return errorPrefix + text
	}

	switch r.Command {
	case CommandProduce:
		return producedPrefix + strconv.Itoa(r.Partition)
	case CommandConsume:
		return consumedPrefix + strconv.FormatInt(r.Message.ID, 10) + " " + r.Message.Content
	default:
		return errorPrefix + "invalid response Command (" + string(r.Command) + ")"
	}
}

// AppendLine appends the newline-terminated response line to |b|.
func (r Response) AppendLine(b []byte) []byte {
	return append(append(b, r.String()...), '\n')
}

// ParseResponse parses a response |line|, which must not include its
// terminating newline.
func ParseResponse(line string) (Response, error) {
	switch {
	case strings.HasPrefix(line, producedPrefix):
		var n, err = strconv.Atoi(line[len(producedPrefix):])
		if err != nil {
			return Response{}, fmt.Errorf("invalid produced partition (%q)", line)
		}
		return Response{Status: StatusOK, Command: CommandProduce, Partition: n}, nil

	case strings.HasPrefix(line, consumedPrefix):
		var rest = line[len(consumedPrefix):]
		var id, content = rest, ""

		if i := strings.IndexByte(rest, ' '); i != -1 {
			id, content = rest[:i], rest[i+1:]
		}
		var n, err = strconv.ParseInt(id, 10, 64)
		if err != nil {
			return Response{}, fmt.Errorf("invalid consumed message id (%q)", line)
		}
		return Response{
			Status:  StatusOK,
			Command: CommandConsume,
			Message: Message{ID: n, Content: content},
		}, nil

	case strings.HasPrefix(line, errorPrefix):
		var text = line[len(errorPrefix):]

		for status, expect := range errorText {
			if text == expect {
				return Response{Status: status}, nil
			} else if status == StatusMalformedRequest && strings.HasPrefix(text, expect+": ") {
				return Response{Status: status, Detail: text[len(expect)+2:]}, nil
			}
		}
		return Response{}, fmt.Errorf("unrecognized error response (%q)", line)

	default:
		return Response{}, fmt.Errorf("unrecognized response (%q)", line)
	}
}
