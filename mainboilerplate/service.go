package mainboilerplate

import (
	"os"

	petname "github.com/dustinkirkland/golang-petname"
)

// ServiceConfig represents identification and addressing configuration of the process.
type ServiceConfig struct {
	ID   string `long:"id" env:"ID" description:"Unique ID of this process. Auto-generated if not set"`
	Host string `long:"host" env:"HOST" default:"" description:"Network interface to bind, and hostname of this process. All interfaces are bound if not set"`
	Port uint16 `long:"port" env:"PORT" default:"8080" description:"Service port for line protocol and HTTP requests"`
}

// ProcessID returns the configured ID, or a generated one if not set.
func (cfg ServiceConfig) ProcessID() string {
	if cfg.ID != "" {
		return cfg.ID
	}
	return petname.Generate(2, "-")
}

// Hostname returns the configured Host, or the hostname of the machine if
// not set.
func (cfg ServiceConfig) Hostname() string {
	if cfg.Host != "" {
		return cfg.Host
	}
	var host, err = os.Hostname()
	Must(err, "failed to determine hostname")
	return host
}
