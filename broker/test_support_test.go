package broker

import (
	"bufio"
	"context"
	"io"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.linemq.dev/core/server"
	"go.linemq.dev/core/task"
)

// testBroker runs a complete broker over a loopback server:
// * A Registry of the default topics, topic1 (3 partitions) and topic2 (2).
// * A Service accepting connections of the server's broker Listener.
// * The server's HTTP mux, serving the Registry StatusHandler.
type testBroker struct {
	t     testing.TB
	reg   *Registry
	svc   *Service
	srv   *server.Server
	tasks *task.Group
}

func newTestBroker(t testing.TB) *testBroker {
	var reg, err = NewRegistry(map[string]int{"topic1": 3, "topic2": 2}, nil)
	require.NoError(t, err)

	srv, err := server.New("127.0.0.1", 0)
	require.NoError(t, err)
	srv.HTTPMux = newTestMux(reg)

	var bk = &testBroker{
		t:     t,
		reg:   reg,
		svc:   NewService(reg, 0),
		srv:   srv,
		tasks: task.NewGroup(context.Background()),
	}
	bk.srv.QueueTasks(bk.tasks)
	bk.svc.QueueTasks(bk.tasks, bk.srv)
	bk.tasks.GoRun()

	return bk
}

// cleanup stops the testBroker and waits for all of its tasks to exit.
func (bk *testBroker) cleanup() {
	bk.tasks.Cancel()
	require.NoError(bk.t, bk.tasks.Wait())
}

func newTestMux(reg *Registry) *http.ServeMux {
	var mux = http.NewServeMux()
	mux.Handle("/debug/topics", NewStatusHandler(reg))
	return mux
}

// dial returns a testConn to the testBroker.
func (bk *testBroker) dial() *testConn {
	var conn, err = net.Dial("tcp", bk.srv.Endpoint())
	require.NoError(bk.t, err)
	return &testConn{t: bk.t, conn: conn, br: bufio.NewReader(conn)}
}

// testConn is a client connection which reads and writes protocol lines.
type testConn struct {
	t    testing.TB
	conn net.Conn
	br   *bufio.Reader
}

// newPipeConn returns a testConn of an in-memory pipe, the server end of
// which is handled by HandleConnection. The returned channel is closed
// when the handler exits.
func newPipeConn(t testing.TB, ctx context.Context, reg *Registry, maxLine int) (*testConn, <-chan struct{}) {
	var client, srv = net.Pipe()
	var done = make(chan struct{})

	go func() {
		handleConnection(ctx, srv, reg, maxLine)
		close(done)
	}()
	return &testConn{t: t, conn: client, br: bufio.NewReader(client)}, done
}

func (c *testConn) send(line string) {
	var _, err = io.WriteString(c.conn, line+"\n")
	require.NoError(c.t, err)
}

func (c *testConn) recv() string {
	var line, err = c.br.ReadString('\n')
	require.NoError(c.t, err)
	return strings.TrimSuffix(line, "\n")
}

// roundTrip sends a request line and returns its response line.
func (c *testConn) roundTrip(line string) string {
	c.send(line)
	return c.recv()
}

// recvAsync reads the next response line in a goroutine, sending it (or
// the read error) to the returned channel.
func (c *testConn) recvAsync() <-chan string {
	var ch = make(chan string, 1)
	go func() {
		var line, err = c.br.ReadString('\n')
		if err != nil {
			ch <- "<error: " + err.Error() + ">"
		} else {
			ch <- strings.TrimSuffix(line, "\n")
		}
	}()
	return ch
}

func (c *testConn) close() { require.NoError(c.t, c.conn.Close()) }

// awaitWaiters blocks until the topic partition has |n| blocked consumers.
func awaitWaiters(t testing.TB, reg *Registry, topic string, index, n int) {
	require.Eventually(t, func() bool {
		var status = reg.Status(topic)
		return len(status) == 1 && status[0].Partitions[index].Waiters == n
	}, 5*time.Second, time.Millisecond)
}

// requireBlocked asserts that nothing is received from |ch| for a moment.
func requireBlocked(t testing.TB, ch <-chan string) {
	select {
	case line := <-ch:
		t.Fatalf("expected to block, but read %q", line)
	case <-time.After(20 * time.Millisecond):
	}
}
