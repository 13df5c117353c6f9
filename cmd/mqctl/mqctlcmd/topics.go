package mqctlcmd

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
	"go.linemq.dev/core/broker/client"
	pb "go.linemq.dev/core/broker/protocol"
	"go.linemq.dev/core/broker/topicspace"
	mbp "go.linemq.dev/core/mainboilerplate"
)

type cmdTopics struct {
	Topics []string `long:"topic" short:"t" description:"Topic to show. May be repeated. All topics are shown if not set"`
	Format string   `long:"format" short:"o" choice:"table" choice:"yaml" choice:"json" default:"table" description:"Output format"`
}

func init() {
	CommandRegistry.AddCommand("", "topics", "List topics of the broker", `
List topics of the broker, along with the status of each of their partitions.

Results can be output in a variety of --format options:
table: Prints a table of partitions, with their queued messages and bytes,
       and their number of blocked consumers.
yaml:  Prints topic specifications as YAML, suitable for use as a
       --topics.file of the broker.
json:  Prints topic status as JSON.
`, &cmdTopics{})
}

func (cmd *cmdTopics) Execute([]string) error {
	startup()

	var topics, err = client.ListTopics(context.Background(), nil, baseCfg.Broker.Endpoint(), cmd.Topics...)
	mbp.Must(err, "failed to list topics")

	return cmd.output(os.Stdout, topics)
}

func (cmd *cmdTopics) output(w io.Writer, topics []pb.TopicStatus) error {
	switch cmd.Format {
	case "yaml":
		var specs pb.TopicSpecs
		for _, ts := range topics {
			specs = append(specs, pb.TopicSpec{Name: ts.Name, Partitions: len(ts.Partitions)})
		}
		return topicspace.Encode(w, specs)
	case "json":
		var enc = json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(topics)
	default:
		return outputTable(w, topics)
	}
}

func outputTable(w io.Writer, topics []pb.TopicStatus) error {
	var table = tablewriter.NewWriter(w)
	table.Header("Topic", "Partition", "Messages", "Bytes", "Limit", "Consumers", "Next")

	for _, ts := range topics {
		for _, ps := range ts.Partitions {
			var limit, next = "<none>", ""
			if ps.Limit != 0 {
				limit = humanize.Comma(int64(ps.Limit))
			}
			if ps.Index == ts.Cursor {
				next = "*"
			}
			if err := table.Append([]string{
				ts.Name,
				strconv.Itoa(ps.Index),
				humanize.Comma(int64(ps.Depth)),
				humanize.IBytes(uint64(ps.Bytes)),
				limit,
				strconv.Itoa(ps.Waiters),
				next,
			}); err != nil {
				return err
			}
		}
	}
	return table.Render()
}
