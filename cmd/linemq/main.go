package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/jessevdk/go-flags"
	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"go.linemq.dev/core/broker"
	mbp "go.linemq.dev/core/mainboilerplate"
	"go.linemq.dev/core/metrics"
	"go.linemq.dev/core/server"
	"go.linemq.dev/core/task"
)

const iniFilename = "linemq.ini"

// Config is the top-level configuration object of a linemq broker.
var Config = new(struct {
	Broker struct {
		mbp.ServiceConfig
		MaxLine  int `long:"max-line" env:"MAX_LINE" default:"1048576" description:"Maximum length of a request line, in bytes. Longer lines close their connection"`
		MaxDepth int `long:"max-depth" env:"MAX_DEPTH" default:"0" description:"Maximum number of messages queued in each partition. Produces to a full partition are rejected. Zero is unbounded"`
	} `group:"Broker" namespace:"broker" env-namespace:"BROKER"`

	Topics mbp.TopicsConfig `group:"Topics" namespace:"topics" env-namespace:"TOPICS"`
	Etcd   mbp.EtcdConfig   `group:"Etcd" namespace:"etcd" env-namespace:"ETCD"`

	Log         mbp.LogConfig         `group:"Logging" namespace:"log" env-namespace:"LOG"`
	Diagnostics mbp.DiagnosticsConfig `group:"Debug" namespace:"debug" env-namespace:"DEBUG"`
})

type serveBroker struct{}

func (serveBroker) Execute(args []string) error {
	defer mbp.InitDiagnosticsAndRecover(Config.Diagnostics)()
	mbp.InitLog(Config.Log)

	if Config.Broker.MaxLine <= 0 {
		log.WithField("max-line", Config.Broker.MaxLine).Fatal("max-line must be positive")
	} else if Config.Broker.MaxDepth < 0 {
		log.WithField("max-depth", Config.Broker.MaxDepth).Fatal("max-depth must be non-negative")
	}

	var id = Config.Broker.ProcessID()
	mbp.AddLogFields(log.Fields{"broker": id})

	log.WithFields(log.Fields{
		"id":      id,
		"config":  Config,
		"version": mbp.Version,
	}).Info("starting broker")

	var etcd = Config.Etcd.MustDial()
	var topics = Config.Topics.MustLoad(context.Background(), afero.NewOsFs(), etcd, Config.Etcd.Prefix)
	if etcd != nil {
		mbp.Must(etcd.Close(), "failed to close Etcd client")
	}

	var newQueue broker.NewQueueFunc
	if Config.Broker.MaxDepth != 0 {
		newQueue = broker.NewBoundedPartitionFunc(Config.Broker.MaxDepth)
	}
	var reg, err = broker.NewRegistry(topics.Map(), newQueue)
	mbp.Must(err, "building topic Registry")

	prometheus.MustRegister(metrics.BrokerCollectors()...)
	prometheus.MustRegister(reg)

	srv, err := server.New(Config.Broker.Host, Config.Broker.Port)
	mbp.Must(err, "building Server instance")
	srv.HTTPMux.Handle("/debug/topics", broker.NewStatusHandler(reg))

	var service = broker.NewService(reg, Config.Broker.MaxLine)
	var tasks = task.NewGroup(context.Background())
	srv.QueueTasks(tasks)
	service.QueueTasks(tasks, srv)

	var signalCh = make(chan os.Signal, 1)
	tasks.Queue("watch signals", func() error {
		select {
		case sig := <-signalCh:
			log.WithField("signal", sig).Info("caught signal")
			tasks.Cancel()
		case <-tasks.Context().Done():
		}
		return nil
	})

	// Install signal handler & start broker tasks.
	signal.Notify(signalCh, syscall.SIGTERM, syscall.SIGINT)
	tasks.GoRun()

	log.WithFields(log.Fields{
		"id":       id,
		"endpoint": srv.Endpoint(),
		"host":     Config.Broker.Hostname(),
	}).Info("serving broker")

	// Block until all tasks complete. Assert none returned an error.
	mbp.Must(tasks.Wait(), "broker task failed")
	log.Info("goodbye")

	return nil
}

func main() {
	var parser = flags.NewParser(Config, flags.Default)

	_, _ = parser.AddCommand("serve", "Serve as linemq broker", `
Serve a linemq broker with the provided configuration, until signaled to
exit (via SIGTERM or SIGINT). Upon receiving a signal, the broker stops
accepting connections, aborts blocked consumers, closes all client
connections, and exits. Queued messages are not retained.
`, &serveBroker{})

	mbp.AddPrintConfigCmd(parser, iniFilename)
	mbp.MustParseConfig(parser, iniFilename)
}
