package broker

import (
	"bufio"
	"context"
	"io"
	"net"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	pb "go.linemq.dev/core/broker/protocol"
	"go.linemq.dev/core/metrics"
	"golang.org/x/net/trace"
)

// DefaultMaxLineSize is the default maximum length of a request line.
const DefaultMaxLineSize = 1 << 20 // 1MiB.

// HandleConnection serves requests read from |conn| against the Registry,
// writing one response line for each request line, until the client
// disconnects, an I/O error occurs, or |ctx| is cancelled. A CONSUME which
// is blocked awaiting a Message is aborted when the client disconnects.
// HandleConnection closes |conn| before returning.
func HandleConnection(ctx context.Context, conn net.Conn, reg *Registry) {
	handleConnection(ctx, conn, reg, DefaultMaxLineSize)
}

func handleConnection(ctx context.Context, conn net.Conn, reg *Registry, maxLine int) {
	var connCtx, cancel = context.WithCancel(ctx)
	var tr = trace.New("linemq.Connection", conn.RemoteAddr().String())
	defer tr.Finish()

	var fsm = connFSM{
		ctx:  trace.NewContext(connCtx, tr),
		conn: conn,
		reg:  reg,
		log: log.WithFields(log.Fields{
			"conn": uuid.New().String(),
			"addr": conn.RemoteAddr().String(),
		}),
	}
	fsm.log.Debug("connection opened")

	metrics.ConnectionsTotal.Inc()
	metrics.ConnectionsActive.Inc()
	defer metrics.ConnectionsActive.Dec()

	// Lines are read by a separate pump goroutine, so that a client
	// disconnect is observed even while a request is blocked.
	var lines = make(chan string)
	var pumpDone = make(chan struct{})
	fsm.lines = lines

	go func(ctx context.Context) {
		fsm.pumpErr = pumpLines(ctx, conn, maxLine, lines)
		close(lines)
		cancel() // Abort a blocked request of the departed client.
		close(pumpDone)
	}(fsm.ctx)

	fsm.run()

	cancel()
	if err := conn.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
		fsm.log.WithField("err", err).Debug("failed to close connection")
	}
	<-pumpDone // Close of |conn| unblocks a pending Read.

	if fsm.err != nil {
		metrics.ConnectionFailuresTotal.Inc()
		tr.LazyPrintf("%v", fsm.err)
		tr.SetError()
		fsm.log.WithField("err", fsm.err).Warn("connection failed")
	} else {
		fsm.log.WithField("requests", fsm.requests).Debug("connection closed")
	}
}

// connFSM is a state machine which models the request / response loop of a
// single client connection. At most one request of the connection is
// outstanding at a time: the next request line isn't read until the
// response of the current one has been written.
type connFSM struct {
	ctx   context.Context
	conn  net.Conn
	reg   *Registry
	log   *log.Entry
	lines <-chan string // Request lines, closed on EOF or read error.

	pumpErr  error       // Read error of the line pump. Valid after |lines| is closed.
	line     string      // Current request line.
	req      pb.Request  // Current parsed request.
	command  string      // Command label of the current request.
	resp     pb.Response // Response to the current request.
	buf      []byte      // Buffer of the response line.
	requests int         // Number of served requests.
	state    connState   // Current FSM state.
	err      error       // Error encountered during FSM execution.
}

type connState int8

const (
	stateAwaitRequest connState = 0 // Initial state.
	stateParse        connState = iota
	stateDispatch     connState = iota
	stateRespond      connState = iota
	stateClosed       connState = iota // Terminal state.
)

// run the connFSM until it's closed.
func (c *connFSM) run() {
	for {
		switch c.state {
		case stateAwaitRequest:
			c.onAwaitRequest()
		case stateParse:
			c.onParse()
		case stateDispatch:
			c.onDispatch()
		case stateRespond:
			c.onRespond()
		case stateClosed:
			return
		default:
			panic("invalid state")
		}
	}
}

// onAwaitRequest reads the next request line. EOF from the client, a read
// error, or cancellation of the connection Context closes the connFSM.
func (c *connFSM) onAwaitRequest() {
	c.mustState(stateAwaitRequest)

	select {
	case line, ok := <-c.lines:
		if !ok {
			c.err = c.pumpErr
			c.state = stateClosed
			return
		}
		c.line = line
		c.req, c.resp, c.command = pb.Request{}, pb.Response{}, ""
		c.state = stateParse

	case <-c.ctx.Done():
		c.state = stateClosed
	}
}

// onParse parses the request line. A line which fails to parse is
// answered with the error Response of its failure.
func (c *connFSM) onParse() {
	c.mustState(stateParse)

	var err error
	if c.req, err = pb.ParseRequest(c.line); err == nil {
		c.command = string(c.req.Command)
		c.state = stateDispatch
		return
	}

	var mre *pb.MalformedRequestError
	if errors.As(err, &mre) {
		c.command = string(mre.Command)
	} else {
		c.command = "UNKNOWN"
	}
	addTrace(c.ctx, "ParseRequest(%q) => %v", c.line, err)

	c.resp, _ = pb.NewErrorResponse(err)
	c.state = stateRespond
}

// onDispatch invokes the Registry with the parsed request. A CONSUME may
// block indefinitely. If it's aborted by cancellation of the connection
// Context, the connFSM closes without writing a response.
func (c *connFSM) onDispatch() {
	c.mustState(stateDispatch)

	var err error
	switch c.req.Command {
	case pb.CommandProduce:
		var index int
		if index, err = c.reg.Produce(c.req.Topic, c.req.Message); err == nil {
			c.resp = pb.Response{Command: pb.CommandProduce, Partition: index}
		}
		addTrace(c.ctx, "Produce(%s, %d) => %d, %v", c.req.Topic, c.req.Message.ID, index, err)

	case pb.CommandConsume:
		var msg pb.Message
		if msg, err = c.reg.Consume(c.ctx, c.req.Topic, c.req.Partition); err == nil {
			c.resp = pb.Response{Command: pb.CommandConsume, Message: msg}
		}

	default:
		panic("unexpected Command")
	}

	if err == nil {
		c.state = stateRespond
	} else if resp, ok := pb.NewErrorResponse(err); ok {
		c.resp = resp
		c.state = stateRespond
	} else if c.ctx.Err() != nil {
		c.log.WithField("command", c.command).Debug("request aborted by connection close")
		c.state = stateClosed
	} else {
		c.err = err
		c.state = stateClosed
	}
}

// onRespond writes the response line of the current request.
func (c *connFSM) onRespond() {
	c.mustState(stateRespond)

	metrics.RequestsTotal.WithLabelValues(c.command, c.resp.Status.String()).Inc()
	c.requests++

	c.buf = c.resp.AppendLine(c.buf[:0])
	if _, err := c.conn.Write(c.buf); err != nil {
		c.err = err
		c.state = stateClosed
		return
	}
	c.state = stateAwaitRequest
}

func (c *connFSM) mustState(s connState) {
	if c.state != s {
		panic(c.state)
	}
}

// pumpLines reads newline-terminated lines of |r| into |ch| until EOF, a read
// error, or cancellation of |ctx|. A single carriage return preceding each
// newline is dropped. EOF is not an error.
func pumpLines(ctx context.Context, r io.Reader, maxLine int, ch chan<- string) error {
	var scanner = bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, min(4096, maxLine)), maxLine)

	for scanner.Scan() {
		select {
		case ch <- scanner.Text():
		case <-ctx.Done():
			return nil
		}
	}
	return scanner.Err()
}

func addTrace(ctx context.Context, format string, args ...interface{}) {
	if tr, ok := trace.FromContext(ctx); ok {
		tr.LazyPrintf(format, args...)
	}
}
