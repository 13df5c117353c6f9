package mqctlcmd

import (
	"context"
	"io"
	"os"

	pb "go.linemq.dev/core/broker/protocol"
)

type cmdConsume struct {
	Topic     string `long:"topic" short:"t" default:"topic1" description:"Topic to consume from"`
	Partition int    `long:"partition" short:"p" default:"0" description:"Partition of the topic to consume from"`
	Count     int    `long:"count" short:"n" default:"0" description:"Number of messages to consume. Zero consumes until interrupted"`
}

func init() {
	CommandRegistry.AddCommand("", "consume", "Consume messages of a topic partition", `
Consume messages of a topic partition, printing the broker's response for
each. Consumption is destructive: a consumed message is removed from its
partition, and no other consumer will see it. When the partition is empty,
consume blocks until a message is produced to it.

Consume messages of partition 1 of topic1, until interrupted:
>    mqctl consume --topic topic1 --partition 1

Consume a single message:
>    mqctl consume --topic topic1 --count 1
`, &cmdConsume{})
}

func (cmd *cmdConsume) Execute([]string) error {
	startup()

	var ctx = signalContext()
	var c = baseCfg.Broker.MustDial(ctx)
	defer c.Close()

	var err = cmd.run(ctx, c, os.Stdout)
	if ctx.Err() != nil {
		return nil // Interrupted.
	}
	return err
}

func (cmd *cmdConsume) run(ctx context.Context, r requester, out io.Writer) error {
	var req = pb.Request{
		Command:   pb.CommandConsume,
		Topic:     cmd.Topic,
		Partition: cmd.Partition,
	}
	for n := 0; cmd.Count == 0 || n != cmd.Count; n++ {
		var resp, err = doAndPrint(ctx, r, req, out)
		if err != nil {
			return err
		} else if resp.Status != pb.StatusOK {
			// Errors of the request won't resolve by retrying it.
			return resp.Err()
		}
	}
	return nil
}
