// Package mqctlcmd implements the sub-commands of mqctl, a tool for
// producing to, consuming from, and inspecting the topics of linemq brokers.
package mqctlcmd

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/jessevdk/go-flags"
	log "github.com/sirupsen/logrus"
	pb "go.linemq.dev/core/broker/protocol"
	mbp "go.linemq.dev/core/mainboilerplate"
)

const iniFilename = "mqctl.ini"

var (
	baseCfg = new(struct {
		Broker mbp.AddressConfig `group:"Broker" namespace:"broker" env-namespace:"BROKER"`
		Log    mbp.LogConfig     `group:"Logging" namespace:"log" env-namespace:"LOG"`
	})

	// CommandRegistry of mqctl sub-commands.
	CommandRegistry = mbp.NewCommandRegistry()
)

// requester issues a Request and returns its Response.
// It's implemented by *client.Client.
type requester interface {
	Do(context.Context, pb.Request) (pb.Response, error)
}

// Execute parses configuration and runs the selected mqctl sub-command.
func Execute() {
	var parser = flags.NewParser(baseCfg, flags.Default)

	mbp.AddPrintConfigCmd(parser, iniFilename)
	parser.LongDescription = `mqctl is a tool for interacting with linemq brokers.

	See --help pages of each sub-command for documentation and usage examples.
	Optionally configure mqctl with a '` + iniFilename + `' file in the current working directory,
	or with '~/.config/linemq/` + iniFilename + `'. Use the 'print-config' sub-command to inspect
	the tool's current configuration.
	`

	mbp.Must(CommandRegistry.AddCommands("", parser.Command, true), "could not add subcommand")
	mbp.MustParseConfig(parser, iniFilename)
}

func startup() {
	mbp.InitLog(baseCfg.Log)
}

// signalContext returns a Context which is cancelled upon SIGINT or SIGTERM.
func signalContext() context.Context {
	var ctx, cancel = context.WithCancel(context.Background())
	var signalCh = make(chan os.Signal, 1)
	signal.Notify(signalCh, syscall.SIGTERM, syscall.SIGINT)

	go func() {
		var sig = <-signalCh
		log.WithField("signal", sig).Debug("caught signal")
		cancel()
	}()
	return ctx
}

// doAndPrint issues the Request and prints its Response line to |out|.
// Error Responses are printed, and aren't returned as errors.
func doAndPrint(ctx context.Context, r requester, req pb.Request, out io.Writer) (pb.Response, error) {
	var resp, err = r.Do(ctx, req)
	if err != nil {
		return resp, err
	}
	_, err = io.WriteString(out, "Server response: "+resp.String()+"\n")
	return resp, err
}
