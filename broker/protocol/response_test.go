package protocol

import (
	"github.com/pkg/errors"
	gc "gopkg.in/check.v1"
)

type ResponseSuite struct{}

func (s *ResponseSuite) TestLineRoundTrip(c *gc.C) {
	var cases = []struct {
		resp Response
		line string
	}{
		{Response{Status: StatusOK, Command: CommandProduce, Partition: 2},
			"Message produced to partition 2"},
		{Response{Status: StatusOK, Command: CommandConsume, Message: Message{ID: 1, Content: "hello world"}},
			"Consumed: 1 hello world"},
		{Response{Status: StatusOK, Command: CommandConsume, Message: Message{ID: 4}},
			"Consumed: 4 "},
		{Response{Status: StatusOK, Command: CommandConsume, Message: Message{ID: -2, Content: " x "}},
			"Consumed: -2  x "},
		{Response{Status: StatusTopicNotFound}, "ERROR: Topic not found"},
		{Response{Status: StatusInvalidPartition}, "ERROR: Invalid partition index"},
		{Response{Status: StatusUnknownCommand}, "ERROR: Unknown command"},
		{Response{Status: StatusPartitionFull}, "ERROR: Partition full"},
		{Response{Status: StatusMalformedRequest, Detail: "missing topic"},
			"ERROR: Malformed request: missing topic"},
	}
	for _, tc := range cases {
		c.Check(tc.resp.Validate(), gc.IsNil)
		c.Check(tc.resp.String(), gc.Equals, tc.line)
		c.Check(string(tc.resp.AppendLine(nil)), gc.Equals, tc.line+"\n")

		var parsed, err = ParseResponse(tc.line)
		c.Check(err, gc.IsNil)
		c.Check(parsed, gc.DeepEquals, tc.resp)
	}
}

func (s *ResponseSuite) TestParseErrorCases(c *gc.C) {
	var cases = []struct {
		line   string
		expect string
	}{
		{"Message produced to partition x", `invalid produced partition .*`},
		{"Consumed: abc content", `invalid consumed message id .*`},
		{"ERROR: Something else", `unrecognized error response .*`},
		{"hello", `unrecognized response .*`},
	}
	for _, tc := range cases {
		var _, err = ParseResponse(tc.line)
		c.Check(err, gc.ErrorMatches, tc.expect)
	}
}

func (s *ResponseSuite) TestErrorMapping(c *gc.C) {
	var cases = []struct {
		err    error
		expect Status
	}{
		{ErrTopicNotFound, StatusTopicNotFound},
		{errors.WithMessage(ErrInvalidPartition, "consume topic1/9"), StatusInvalidPartition},
		{ErrUnknownCommand, StatusUnknownCommand},
		{ErrPartitionFull, StatusPartitionFull},
		{&MalformedRequestError{Command: CommandProduce, Reason: "missing topic"}, StatusMalformedRequest},
	}
	for _, tc := range cases {
		var resp, ok = NewErrorResponse(tc.err)
		c.Check(ok, gc.Equals, true)
		c.Check(resp.Status, gc.Equals, tc.expect)
		c.Check(errors.Is(tc.err, resp.Err()) || tc.expect == StatusMalformedRequest, gc.Equals, true)
	}

	var resp, _ = NewErrorResponse(&MalformedRequestError{Command: CommandProduce, Reason: "missing topic"})
	c.Check(resp.Detail, gc.Equals, "missing topic")
	c.Check(resp.Err(), gc.ErrorMatches, "malformed request: missing topic")

	var _, ok = NewErrorResponse(errors.New("something else"))
	c.Check(ok, gc.Equals, false)

	c.Check(Response{Status: StatusOK, Command: CommandProduce}.Err(), gc.IsNil)
}

func (s *ResponseSuite) TestValidationCases(c *gc.C) {
	c.Check(Response{Status: 42}.Validate(), gc.ErrorMatches, `Status: invalid Status \(42\)`)
	c.Check(Response{Status: StatusOK}.Validate(), gc.ErrorMatches, `Command: unknown Command \(""\)`)
	c.Check(Response{Status: StatusOK, Command: CommandProduce, Partition: -1}.Validate(),
		gc.ErrorMatches, `invalid Partition \(-1; expected >= 0\)`)
	c.Check(Response{Status: StatusMalformedRequest, Detail: "a\nb"}.Validate(),
		gc.ErrorMatches, `Detail: must not contain line terminators`)
	c.Check(StatusPartitionFull.String(), gc.Equals, "PARTITION_FULL")
	c.Check(Status(42).String(), gc.Equals, "Status(42)")
}

var _ = gc.Suite(&ResponseSuite{})
