package mainboilerplate

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"
	clientv3 "go.etcd.io/etcd/client/v3"
)

// EtcdConfig configures the optional Etcd session, from which topics are
// loaded.
type EtcdConfig struct {
	Address string        `long:"address" env:"ADDRESS" default:"" description:"Etcd service address endpoint, as http://host:port. Etcd is not used if not set"`
	Prefix  string        `long:"prefix" env:"PREFIX" default:"/linemq/topics" description:"Etcd key prefix of topic specifications"`
	Timeout time.Duration `long:"timeout" env:"TIMEOUT" default:"10s" description:"Timeout of Etcd dials and requests"`
}

// MustDial builds an Etcd client connection, or returns nil if no Address
// is configured.
func (c *EtcdConfig) MustDial() *clientv3.Client {
	if c.Address == "" {
		return nil
	}

	var timer = time.AfterFunc(time.Second, func() {
		log.WithField("addr", c.Address).Warn("dialing Etcd is taking a while (is network okay?)")
	})
	defer timer.Stop()

	var etcd, err = clientv3.New(clientv3.Config{
		Endpoints:   []string{c.Address},
		DialTimeout: c.Timeout,
	})
	Must(err, "failed to build Etcd client", "addr", c.Address)

	var ctx, cancel = context.WithTimeout(context.Background(), c.Timeout)
	defer cancel()

	Must(etcd.Sync(ctx), "initial Etcd endpoint sync failed", "addr", c.Address)
	return etcd
}
