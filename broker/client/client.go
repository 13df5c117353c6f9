package client

import (
	"bufio"
	"context"
	"net"
	"strings"
	"sync"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	pb "go.linemq.dev/core/broker/protocol"
	"go.linemq.dev/core/keepalive"
)

// Client of a broker connection. Client is safe for concurrent use, but
// requests are serialized: a blocked Consume delays all other requests of
// the Client until it completes.
type Client struct {
	mu   sync.Mutex
	conn net.Conn
	br   *bufio.Reader
	buf  []byte
}

// Dial a broker at |addr| and return a Client of the connection.
func Dial(ctx context.Context, addr string) (*Client, error) {
	var conn, err = keepalive.DialerFunc(ctx, addr)
	if err != nil {
		return nil, errors.WithMessagef(err, "dialing broker %s", addr)
	}
	log.WithField("addr", addr).Debug("dialed broker")

	return NewClient(conn), nil
}

// NewClient returns a Client of the established connection.
func NewClient(conn net.Conn) *Client {
	return &Client{conn: conn, br: bufio.NewReader(conn)}
}

// Do sends the Request and returns its Response. If |ctx| is cancelled
// before the Response is read, the connection is closed (as its request /
// response sequence is no longer in lockstep) and the Context error is
// returned. Error Responses of the broker are returned with a nil error:
// see Response.Err.
func (c *Client) Do(ctx context.Context, req pb.Request) (pb.Response, error) {
	if err := req.Validate(); err != nil {
		return pb.Response{}, errors.WithMessage(err, "invalid request")
	}

	defer c.mu.Unlock()
	c.mu.Lock()

	var stop = context.AfterFunc(ctx, func() { _ = c.conn.Close() })
	defer stop()

	c.buf = req.AppendLine(c.buf[:0])
	if _, err := c.conn.Write(c.buf); err != nil {
		return pb.Response{}, c.mapErr(ctx, err, "writing request")
	}

	var line, err = c.br.ReadString('\n')
	if err != nil {
		return pb.Response{}, c.mapErr(ctx, err, "reading response")
	}
	line = strings.TrimSuffix(strings.TrimSuffix(line, "\n"), "\r")

	resp, err := pb.ParseResponse(line)
	if err != nil {
		return pb.Response{}, err
	} else if resp.Status == pb.StatusOK && resp.Command != req.Command {
		return pb.Response{}, errors.Errorf("unexpected %s response to %s request", resp.Command, req.Command)
	}
	return resp, nil
}

// Produce the Message to |topic|, returning the partition index chosen by
// the broker.
func (c *Client) Produce(ctx context.Context, topic string, msg pb.Message) (int, error) {
	var resp, err = c.Do(ctx, pb.Request{
		Command: pb.CommandProduce,
		Topic:   topic,
		Message: msg,
	})
	if err == nil {
		err = resp.Err()
	}
	if err != nil {
		return -1, err
	}
	return resp.Partition, nil
}

// Consume the next Message of the topic partition, blocking until the
// broker has one to return.
func (c *Client) Consume(ctx context.Context, topic string, partition int) (pb.Message, error) {
	var resp, err = c.Do(ctx, pb.Request{
		Command:   pb.CommandConsume,
		Topic:     topic,
		Partition: partition,
	})
	if err == nil {
		err = resp.Err()
	}
	if err != nil {
		return pb.Message{}, err
	}
	return resp.Message, nil
}

// Close the Client connection.
func (c *Client) Close() error {
	if err := c.conn.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
		return err
	}
	return nil
}

func (c *Client) mapErr(ctx context.Context, err error, msg string) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return errors.WithMessage(err, msg)
}
