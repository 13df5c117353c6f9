package mqctlcmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	pb "go.linemq.dev/core/broker/protocol"
)

type cmdProduce struct {
	Topic    string        `long:"topic" short:"t" default:"topic1" description:"Topic to produce to"`
	Mode     string        `long:"mode" short:"m" choice:"single" choice:"stream" choice:"lines" default:"single" description:"Production mode"`
	ID       int64         `long:"id" default:"1" description:"ID of the first produced message. IDs of subsequent messages increase by one"`
	Content  string        `long:"content" short:"c" description:"Content of a single message. If not set, content is read from stdin"`
	Count    int           `long:"count" short:"n" default:"0" description:"Number of messages to produce in stream mode. Zero produces until interrupted"`
	Interval time.Duration `long:"interval" default:"1s" description:"Interval between messages in stream mode"`
}

func init() {
	CommandRegistry.AddCommand("", "produce", "Produce messages to a topic", `
Produce messages to a topic. The broker places each message on the next
partition of the topic, in round-robin order, and the broker's response is
printed for each message.

Modes of production are:
single: Prompts for and produces one line read from stdin (or --content).
stream: Produces "Log message <id>" every --interval, until --count messages
        are produced or the command is interrupted.
lines:  Produces each line read from stdin, until EOF.

Produce a single message:
>    mqctl produce --topic topic1 --content "hello world"

Produce a message every half second:
>    mqctl produce --topic topic1 --mode stream --interval 500ms
`, &cmdProduce{})
}

func (cmd *cmdProduce) Execute([]string) error {
	startup()

	var ctx = signalContext()
	var c = baseCfg.Broker.MustDial(ctx)
	defer c.Close()

	var err = cmd.run(ctx, c, os.Stdin, os.Stdout)
	if ctx.Err() != nil {
		return nil // Interrupted.
	}
	return err
}

func (cmd *cmdProduce) run(ctx context.Context, r requester, in io.Reader, out io.Writer) error {
	var id = cmd.ID
	var produce = func(content string) error {
		var _, err = doAndPrint(ctx, r, pb.Request{
			Command: pb.CommandProduce,
			Topic:   cmd.Topic,
			Message: pb.Message{ID: id, Content: content},
		}, out)

		log.WithFields(log.Fields{"id": id, "err": err}).Debug("produced message")
		id++
		return err
	}

	switch cmd.Mode {
	case "single":
		if cmd.Content != "" {
			return produce(cmd.Content)
		}
		if _, err := io.WriteString(out, "Enter message: "); err != nil {
			return err
		}
		var line, err = bufio.NewReader(in).ReadString('\n')
		if err != nil && (err != io.EOF || line == "") {
			return errors.WithMessage(err, "reading message")
		}
		return produce(trimLine(line))

	case "lines":
		var scanner = bufio.NewScanner(in)
		for scanner.Scan() {
			if err := produce(scanner.Text()); err != nil {
				return err
			}
		}
		return scanner.Err()

	case "stream":
		var ticker = time.NewTicker(cmd.Interval)
		defer ticker.Stop()

		for n := 0; cmd.Count == 0 || n != cmd.Count; n++ {
			if n != 0 {
				select {
				case <-ticker.C:
				case <-ctx.Done():
					return ctx.Err()
				}
			}
			if err := produce(fmt.Sprintf("Log message %d", id)); err != nil {
				return err
			}
		}
		return nil

	default:
		return errors.Errorf("invalid mode (%s)", cmd.Mode)
	}
}

func trimLine(s string) string {
	return strings.TrimSuffix(strings.TrimSuffix(s, "\n"), "\r")
}
