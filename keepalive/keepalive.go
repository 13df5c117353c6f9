// Package keepalive configures TCP keep-alive probing of the connections
// of linemq brokers and clients. A consumer blocked awaiting a message may
// issue no traffic for a very long time, and probing is what eventually
// surfaces a peer which silently went away.
package keepalive

import (
	"context"
	"net"
	"time"
)

// Config of keep-alive probes applied to dialed and accepted connections.
var Config = net.KeepAliveConfig{
	Enable:   true,
	Idle:     time.Minute,
	Interval: 15 * time.Second,
	Count:    4,
}

// Dialer of client connections.
var Dialer = &net.Dialer{
	Timeout:         30 * time.Second,
	KeepAliveConfig: Config,
}

// DialerFunc dials TCP |addr| with |ctx|.
func DialerFunc(ctx context.Context, addr string) (net.Conn, error) {
	return Dialer.DialContext(ctx, "tcp", addr)
}

// TCPListener applies Config to each accepted connection.
type TCPListener struct {
	*net.TCPListener
}

// Accept the next connection and enable its keep-alive probes.
func (ln TCPListener) Accept() (net.Conn, error) {
	var tc, err = ln.AcceptTCP()
	if err != nil {
		return nil, err
	}
	if err = tc.SetKeepAliveConfig(Config); err != nil {
		_ = tc.Close()
		return nil, err
	}
	return tc, nil
}
