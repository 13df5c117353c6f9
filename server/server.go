package server

import (
	"context"
	"fmt"
	"net"
	"net/http"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/soheilhy/cmux"
	"go.linemq.dev/core/keepalive"
	"go.linemq.dev/core/task"
)

// Server bundles the line-oriented broker protocol and an HTTP diagnostics
// server, multiplexed over a single bound TCP socket (using CMux). Additional
// protocols may be added to the Server by interacting directly with its
// provided CMux.
type Server struct {
	// RawListener is the bound TCP listener of the Server.
	RawListener *net.TCPListener
	// CMux wraps RawListener to provide connection protocol multiplexing over
	// a single bound socket. HTTP and broker Listeners are provided by default.
	CMux cmux.CMux
	// HTTPListener is a CMux Listener for HTTP connections.
	HTTPListener net.Listener
	// BrokerListener is a CMux Listener for all other connections, which are
	// presumed to speak the line protocol. It's the caller's responsibility
	// to serve BrokerListener.
	BrokerListener net.Listener
	// HTTPMux is the http.ServeMux which is served by QueueTasks.
	HTTPMux *http.ServeMux
	// Ctx is cancelled when the Server is gracefully stopped.
	Ctx context.Context

	cancel context.CancelFunc
}

// New builds and returns a Server of the given TCP network interface |iface|
// and |port|. |port| may be zero, in which case a random free port is assigned.
func New(iface string, port uint16) (*Server, error) {
	var addr = fmt.Sprintf("%s:%d", iface, port)

	var raw, err = net.Listen("tcp", addr)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to bind service address (%s)", addr)
	}

	var ctx, cancel = context.WithCancel(context.Background())

	var srv = &Server{
		HTTPMux:     http.DefaultServeMux,
		RawListener: raw.(*net.TCPListener),
		Ctx:         ctx,
		cancel:      cancel,
	}

	srv.CMux = cmux.New(keepalive.TCPListener{TCPListener: srv.RawListener})

	srv.CMux.HandleError(func(err error) bool {
		if _, ok := err.(net.Error); !ok {
			log.WithField("err", err).Warn("failed to CMux client connection to a listener")
		}
		return true // Continue serving RawListener.
	})

	// Connections opening with a complete HTTP/1 request line (method, URI
	// and an HTTP/1.x version) are HTTP. A line command which merely begins
	// with a method name, like "GET foo", has no version and is not matched.
	srv.HTTPListener = srv.CMux.Match(cmux.HTTP1())
	// Everything else is the line protocol. Matchers are tried in order of
	// registration, so cmux.Any must come last.
	srv.BrokerListener = srv.CMux.Match(cmux.Any())

	return srv, nil
}

// Endpoint of the Server.
func (s *Server) Endpoint() string {
	return s.RawListener.Addr().String()
}

// QueueTasks serving the CMux and HTTP component servers onto the task.Group.
// Attempts to Accept from BrokerListener will block until the CMux itself
// begins serving.
func (s *Server) QueueTasks(tg *task.Group) {
	tg.Queue("CMux.Serve", func() error {
		if err := s.CMux.Serve(); err != nil && s.Ctx.Err() == nil {
			return err
		}
		return nil // Swallow error after GracefulStop.
	})
	tg.Queue("http.Serve", func() error {
		if err := http.Serve(s.HTTPListener, s.HTTPMux); err != nil && s.Ctx.Err() == nil {
			return err
		}
		return nil // Swallow error after GracefulStop.
	})
	tg.Queue("server.GracefulStop", func() error {
		<-tg.Context().Done() // Block until task.Group is cancelled.
		s.GracefulStop()
		return nil
	})
}

// GracefulStop cancels the Server Context and closes its RawListener,
// which causes the CMux and its derived Listeners to stop serving.
func (s *Server) GracefulStop() {
	// Cancel |s.Ctx| first, so that Serve loops recognize the following
	// listener errors as a graceful closure.
	s.cancel()

	if err := s.RawListener.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
		log.WithField("err", err).Warn("failed to close server listener")
	}
}
