package mainboilerplate

import (
	"context"

	"go.linemq.dev/core/broker/client"
)

// AddressConfig of a remote broker.
type AddressConfig struct {
	Address string `long:"address" env:"ADDRESS" default:"localhost:8080" description:"Broker address, as host:port"`
}

// MustDial dials the broker address.
func (c *AddressConfig) MustDial(ctx context.Context) *client.Client {
	var cl, err = client.Dial(ctx, c.Address)
	Must(err, "failed to dial broker", "address", c.Address)
	return cl
}

// Endpoint returns the HTTP endpoint of the broker address.
func (c *AddressConfig) Endpoint() string {
	return "http://" + c.Address
}
