package broker

import (
	"context"
	"net"
	"sync"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/soheilhy/cmux"
	"go.linemq.dev/core/server"
	"go.linemq.dev/core/task"
)

// Service is the top-level runtime concern of a linemq broker process. It
// accepts client connections and serves each against its Registry, in a
// goroutine of its own.
type Service struct {
	reg     *Registry
	maxLine int

	// ctx is the parent of every connection Context, and is cancelled when
	// the Service is stopping.
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup // Tracks running connection handlers.
}

// NewService returns a Service of the Registry. Request lines longer than
// |maxLine| close their connection. If |maxLine| is zero,
// DefaultMaxLineSize is used.
func NewService(reg *Registry, maxLine int) *Service {
	if maxLine == 0 {
		maxLine = DefaultMaxLineSize
	}
	var ctx, cancel = context.WithCancel(context.Background())

	return &Service{
		reg:     reg,
		maxLine: maxLine,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Serve connections accepted from |ln| until it's closed or the Service is
// stopped, which are each handled in their own goroutine. Serve returns
// nil if |ln| was closed by a graceful stop.
func (svc *Service) Serve(ln net.Listener) error {
	for {
		var conn, err = ln.Accept()

		if err == nil {
			svc.wg.Add(1)
			go func() {
				defer svc.wg.Done()
				handleConnection(svc.ctx, conn, svc.reg, svc.maxLine)
			}()
			continue
		}

		if svc.ctx.Err() != nil ||
			errors.Is(err, net.ErrClosed) ||
			errors.Is(err, cmux.ErrListenerClosed) ||
			errors.Is(err, cmux.ErrServerClosed) {
			return nil // Graceful closure.
		}
		if ne, ok := err.(net.Error); ok && ne.Timeout() {
			log.WithField("err", err).Warn("temporary failure to accept connection")
			time.Sleep(acceptRetryDelay)
			continue
		}
		return errors.WithMessage(err, "accepting connection")
	}
}

// Stop the Service by cancelling the Contexts of all connections, which
// aborts blocked requests and closes each connection, and then wait for
// every handler to exit. Serve should have already returned, or its
// Listener been closed.
func (svc *Service) Stop() {
	svc.cancel()
	svc.wg.Wait()
}

// QueueTasks of the Service to serve the broker Listener of the Server,
// and to stop the Service upon cancellation of the task.Group.
func (svc *Service) QueueTasks(tasks *task.Group, srv *server.Server) {
	var served = make(chan struct{})

	tasks.Queue("service.Serve", func() error {
		defer close(served)

		if err := svc.Serve(srv.BrokerListener); err != nil && srv.Ctx.Err() == nil {
			return err
		}
		return nil // Swallow error after GracefulStop.
	})

	tasks.Queue("service.GracefulStop", func() error {
		<-tasks.Context().Done() // Block until task.Group is cancelled.

		// The Server task closes its listener on task.Group cancellation,
		// after which Serve returns and no further connections are accepted.
		<-served
		svc.Stop()

		log.Info("closed all client connections")
		return nil
	})
}

var acceptRetryDelay = 50 * time.Millisecond
