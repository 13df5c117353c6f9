package server

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
	"go.linemq.dev/core/task"
)

func TestServerMultiplexesHTTPAndLineConnections(t *testing.T) {
	var srv, err = New("127.0.0.1", 0)
	require.NoError(t, err)

	var mux = http.NewServeMux()
	mux.HandleFunc("/ping", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "pong")
	})
	srv.HTTPMux = mux

	var tasks = task.NewGroup(context.Background())
	srv.QueueTasks(tasks)

	// Echo the first line of each broker connection.
	tasks.Queue("echo", func() error {
		for {
			var conn, err = srv.BrokerListener.Accept()
			if err != nil {
				return nil
			}
			go func(conn net.Conn) {
				defer conn.Close()
				var line, _ = bufio.NewReader(conn).ReadString('\n')
				_, _ = fmt.Fprintf(conn, "echo: %s", line)
			}(conn)
		}
	})
	tasks.GoRun()

	resp, err := http.Get("http://" + srv.Endpoint() + "/ping")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	require.Equal(t, "pong", string(body))

	conn, err := net.Dial("tcp", srv.Endpoint())
	require.NoError(t, err)
	_, err = io.WriteString(conn, "PRODUCE topic1 1 hello\n")
	require.NoError(t, err)

	line, err := bufio.NewReader(conn).ReadString('\n')
	require.NoError(t, err)
	require.Equal(t, "echo: PRODUCE topic1 1 hello\n", line)
	require.NoError(t, conn.Close())

	// A line opening with an HTTP method but lacking a version is not HTTP.
	conn, err = net.Dial("tcp", srv.Endpoint())
	require.NoError(t, err)
	_, err = io.WriteString(conn, "GET bar baz\n")
	require.NoError(t, err)

	line, err = bufio.NewReader(conn).ReadString('\n')
	require.NoError(t, err)
	require.Equal(t, "echo: GET bar baz\n", line)
	require.NoError(t, conn.Close())

	tasks.Cancel()
	require.NoError(t, tasks.Wait())
	require.Error(t, srv.Ctx.Err())
}
